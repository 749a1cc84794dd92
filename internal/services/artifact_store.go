package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/gcp"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

var ErrArtifactTooLarge = errors.New("artifact exceeds read limit")

// ArtifactStore persists finished reports and serves the inputs the renderer
// needs (base template, company logos) from the asset category.
type ArtifactStore interface {
	Save(ctx context.Context, reportID uuid.UUID, pdf []byte) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Template(ctx context.Context) ([]byte, error)
	ReadAsset(ctx context.Context, key string) ([]byte, error)
}

type ArtifactStoreConfig struct {
	TemplateKey  string
	MaxReadBytes int64
	// TemplateTTL bounds how long a fetched template is reused; zero keeps it
	// for the life of the process.
	TemplateTTL time.Duration
}

type artifactStore struct {
	log    *logger.Logger
	bucket gcp.BucketService
	cfg    ArtifactStoreConfig
	now    func() time.Time

	group      singleflight.Group
	mu         sync.RWMutex
	template   []byte
	templateAt time.Time
}

func NewArtifactStore(log *logger.Logger, bucket gcp.BucketService, cfg ArtifactStoreConfig) (ArtifactStore, error) {
	if bucket == nil {
		return nil, fmt.Errorf("bucket service required")
	}
	if strings.TrimSpace(cfg.TemplateKey) == "" {
		return nil, fmt.Errorf("missing REPORT_TEMPLATE_KEY")
	}
	if cfg.MaxReadBytes <= 0 {
		cfg.MaxReadBytes = 64 << 20
	}
	return &artifactStore{
		log:    log.With("service", "ArtifactStore"),
		bucket: bucket,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

// ReportKey is unique per save so a regenerated report never overwrites the
// artifact a completed row may still point at.
func ReportKey(reportID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("reports/%s/%d.pdf", reportID, at.UnixNano())
}

func (s *artifactStore) Save(ctx context.Context, reportID uuid.UUID, pdf []byte) (string, error) {
	if reportID == uuid.Nil {
		return "", fmt.Errorf("missing report id")
	}
	if len(pdf) == 0 {
		return "", fmt.Errorf("empty report document")
	}
	key := ReportKey(reportID, s.now())
	if err := s.bucket.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryReport, key, bytes.NewReader(pdf)); err != nil {
		return "", fmt.Errorf("upload report %s: %w", reportID, err)
	}
	s.log.Debug("Report artifact saved", "report_id", reportID, "key", key, "bytes", len(pdf))
	return key, nil
}

func (s *artifactStore) Read(ctx context.Context, key string) ([]byte, error) {
	return s.read(ctx, gcp.BucketCategoryReport, key)
}

func (s *artifactStore) Delete(ctx context.Context, key string) error {
	return s.bucket.DeleteFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryReport, key)
}

func (s *artifactStore) PublicURL(key string) string {
	if strings.TrimSpace(key) == "" {
		return ""
	}
	return s.bucket.GetPublicURL(gcp.BucketCategoryReport, key)
}

func (s *artifactStore) ReadAsset(ctx context.Context, key string) ([]byte, error) {
	return s.read(ctx, gcp.BucketCategoryAsset, key)
}

// Template returns the base document, fetching it at most once per TTL even
// when many reports ask for it concurrently.
func (s *artifactStore) Template(ctx context.Context) ([]byte, error) {
	if doc, ok := s.cachedTemplate(); ok {
		return doc, nil
	}
	v, err, shared := s.group.Do(s.cfg.TemplateKey, func() (interface{}, error) {
		if doc, ok := s.cachedTemplate(); ok {
			return doc, nil
		}
		doc, err := s.read(ctx, gcp.BucketCategoryAsset, s.cfg.TemplateKey)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.template = doc
		s.templateAt = s.now()
		s.mu.Unlock()
		s.log.Info("Report template loaded", "key", s.cfg.TemplateKey, "bytes", len(doc))
		return doc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load template %q: %w", s.cfg.TemplateKey, err)
	}
	if shared {
		s.log.Debug("Template fetch shared", "key", s.cfg.TemplateKey)
	}
	return v.([]byte), nil
}

func (s *artifactStore) cachedTemplate() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.template == nil {
		return nil, false
	}
	if s.cfg.TemplateTTL > 0 && s.now().Sub(s.templateAt) > s.cfg.TemplateTTL {
		return nil, false
	}
	return s.template, true
}

func (s *artifactStore) read(ctx context.Context, category gcp.BucketCategory, key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("missing %s key", category)
	}
	rc, err := s.bucket.DownloadFile(ctx, category, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(io.LimitReader(rc, s.cfg.MaxReadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s %q: %w", category, key, err)
	}
	if int64(len(raw)) > s.cfg.MaxReadBytes {
		return nil, fmt.Errorf("%s %q: %w", category, key, ErrArtifactTooLarge)
	}
	return raw, nil
}
