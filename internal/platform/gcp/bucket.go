package gcp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type BucketCategory string

const (
	// BucketCategoryReport holds generated report documents.
	BucketCategoryReport BucketCategory = "report"
	// BucketCategoryAsset holds inputs: the base template and company logos.
	BucketCategoryAsset BucketCategory = "asset"
)

type BucketService interface {
	UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	GetPublicURL(category BucketCategory, key string) string
}

const (
	uploadTimeout   = 2 * time.Minute
	downloadTimeout = 2 * time.Minute
	deleteTimeout   = 30 * time.Second
)

type bucket struct {
	name string
	cdn  string
}

type bucketService struct {
	log        *logger.Logger
	client     *storage.Client
	httpClient *http.Client
	emulator   string
	publicBase string
	report     bucket
	asset      bucket
}

// NewBucketService connects to GCS or the GCS emulator. Local mode is served
// by localstore and rejected here.
func NewBucketService(log *logger.Logger, cfg StorageConfig) (BucketService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var opts []option.ClientOption
	emulator := ""
	switch cfg.Mode {
	case ModeGCS:
		opts = append(cfg.credentialOptions(), option.WithScopes(storage.ScopeReadWrite))
	case ModeEmulator:
		emulator = strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		// The storage client only honours the emulator through this variable.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", emulator)
		opts = []option.ClientOption{option.WithoutAuthentication()}
	default:
		return nil, fmt.Errorf("object storage mode %q is not served by GCS", cfg.Mode)
	}

	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	bs := &bucketService{
		log:        log.With("service", "BucketService"),
		client:     client,
		httpClient: &http.Client{},
		emulator:   emulator,
		publicBase: cfg.publicBase(),
		report:     bucket{name: cfg.Buckets.Report, cdn: cfg.Buckets.ReportCDN},
		asset:      bucket{name: cfg.Buckets.Asset, cdn: cfg.Buckets.AssetCDN},
	}
	bs.log.Info("Object storage ready",
		"mode", cfg.Mode,
		"inferred", cfg.Inferred,
		"report_bucket", bs.report.name,
		"asset_bucket", bs.asset.name,
		"public_base", bs.publicBase,
	)
	return bs, nil
}

func (bs *bucketService) bucketFor(category BucketCategory) (bucket, error) {
	switch category {
	case BucketCategoryReport:
		return bs.report, nil
	case BucketCategoryAsset:
		return bs.asset, nil
	default:
		return bucket{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *bucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	b, err := bs.bucketFor(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, uploadTimeout)
	defer cancel()

	w := bs.client.Bucket(b.name).Object(key).NewWriter(ctx)
	w.ContentType = ContentTypeForKey(key)
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", b.name, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gs://%s/%s: %w", b.name, key, err)
	}
	return nil
}

func (bs *bucketService) DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error {
	b, err := bs.bucketFor(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, deleteTimeout)
	defer cancel()
	if err := bs.client.Bucket(b.name).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete gs://%s/%s: %w", b.name, key, err)
	}
	return nil
}

func (bs *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	b, err := bs.bucketFor(category)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	var rc io.ReadCloser
	if bs.emulator != "" {
		rc, err = bs.openEmulatorObject(ctx, b.name, key)
	} else {
		rc, err = bs.client.Bucket(b.name).Object(key).NewReader(ctx)
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open gs://%s/%s: %w", b.name, key, err)
	}
	return &cancelOnClose{ReadCloser: rc, cancel: cancel}, nil
}

// openEmulatorObject reads through the JSON media endpoint; the emulator's
// XML read path is not reliable.
func (bs *bucketService) openEmulatorObject(ctx context.Context, bucketName, key string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL(bs.emulator, bucketName, key), nil)
	if err != nil {
		return nil, err
	}
	resp, err := bs.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("emulator status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}

func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	b, err := bs.bucketFor(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case b.cdn != "":
		return "https://" + path.Join(b.cdn, key)
	case bs.emulator != "" && bs.publicBase == bs.emulator:
		return mediaURL(bs.emulator, b.name, key)
	case bs.publicBase != "":
		return fmt.Sprintf("%s/%s/%s", bs.publicBase, b.name, key)
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, key)
	}
}

func mediaURL(base, bucketName, key string) string {
	return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media",
		strings.TrimRight(base, "/"), url.PathEscape(bucketName), url.PathEscape(key))
}

// ContentTypeForKey maps the extensions this service stores to a MIME type.
func ContentTypeForKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if i := strings.IndexByte(key, '?'); i >= 0 {
		key = key[:i]
	}
	switch path.Ext(key) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".json":
		return "application/json"
	default:
		return ""
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelOnClose) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}
