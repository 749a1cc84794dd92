package localstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/gcp"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

// Store keeps objects under root/<category>/<key>. It satisfies
// gcp.BucketService so callers do not care which backend is active.
type Store struct {
	log           *logger.Logger
	root          string
	publicBaseURL string
}

var _ gcp.BucketService = (*Store)(nil)

func New(log *logger.Logger, root, publicBaseURL string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local storage root required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve local storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage root: %w", err)
	}
	s := &Store{
		log:           log.With("service", "LocalStore"),
		root:          abs,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
	s.log.Info("Local object storage initialized", "root", abs, "public_base_url", s.publicBaseURL)
	return s, nil
}

// pathFor rejects keys that would escape the category directory.
func (s *Store) pathFor(category gcp.BucketCategory, key string) (string, error) {
	if category == "" || strings.ContainsAny(string(category), `/\`) {
		return "", fmt.Errorf("invalid category %q", category)
	}
	clean := path.Clean("/" + strings.TrimSpace(key))
	if clean == "/" {
		return "", fmt.Errorf("empty key")
	}
	return filepath.Join(s.root, string(category), filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (s *Store) UploadFile(dbc dbctx.Context, category gcp.BucketCategory, key string, file io.Reader) error {
	if dbc.Ctx != nil {
		if err := dbc.Ctx.Err(); err != nil {
			return err
		}
	}
	dst, err := s.pathFor(category, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("publish object: %w", err)
	}
	return nil
}

func (s *Store) DeleteFile(dbc dbctx.Context, category gcp.BucketCategory, key string) error {
	p, err := s.pathFor(category, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (s *Store) DownloadFile(ctx context.Context, category gcp.BucketCategory, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.pathFor(category, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open object %q: %w", key, err)
	}
	return f, nil
}

func (s *Store) GetPublicURL(category gcp.BucketCategory, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if s.publicBaseURL == "" {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.root, string(category), key))}).String()
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, category, key)
}
