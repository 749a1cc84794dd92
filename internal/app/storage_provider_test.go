package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/gcp"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type stubBucket struct{}

func (stubBucket) UploadFile(dbctx.Context, gcp.BucketCategory, string, io.Reader) error {
	return nil
}

func (stubBucket) DeleteFile(dbctx.Context, gcp.BucketCategory, string) error { return nil }

func (stubBucket) DownloadFile(context.Context, gcp.BucketCategory, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (stubBucket) GetPublicURL(_ gcp.BucketCategory, key string) string { return key }

func swapGCSBucket(t *testing.T, fn func(*logger.Logger, gcp.StorageConfig) (gcp.BucketService, error)) {
	t.Helper()
	prev := newGCSBucket
	newGCSBucket = fn
	t.Cleanup(func() { newGCSBucket = prev })
}

func TestResolveBucketServiceLocal(t *testing.T) {
	got, err := resolveBucketService(logger.Nop(), gcp.StorageConfig{
		Mode:          gcp.ModeLocal,
		LocalRoot:     t.TempDir(),
		PublicBaseURL: "http://files.local",
	})
	if err != nil {
		t.Fatalf("resolveBucketService: %v", err)
	}
	if url := got.GetPublicURL(gcp.BucketCategoryReport, "reports/a.pdf"); url != "http://files.local/report/reports/a.pdf" {
		t.Fatalf("public url: got=%q", url)
	}
}

func TestResolveBucketServicePassesConfigToGCS(t *testing.T) {
	var captured gcp.StorageConfig
	swapGCSBucket(t, func(_ *logger.Logger, cfg gcp.StorageConfig) (gcp.BucketService, error) {
		captured = cfg
		return stubBucket{}, nil
	})
	cfg := gcp.StorageConfig{
		Mode:         gcp.ModeEmulator,
		EmulatorHost: "http://fake-gcs:4443",
		Inferred:     true,
		Buckets:      gcp.BucketNames{Report: "reports", Asset: "assets"},
	}
	if _, err := resolveBucketService(logger.Nop(), cfg); err != nil {
		t.Fatalf("resolveBucketService: %v", err)
	}
	if captured.Mode != gcp.ModeEmulator || captured.Buckets.Report != "reports" || !captured.Inferred {
		t.Fatalf("captured config: got=%+v", captured)
	}
}

func TestResolveBucketServiceRejectsBadConfig(t *testing.T) {
	called := false
	swapGCSBucket(t, func(*logger.Logger, gcp.StorageConfig) (gcp.BucketService, error) {
		called = true
		return stubBucket{}, nil
	})
	cases := map[string]gcp.StorageConfig{
		"unknown mode":          {Mode: "s3"},
		"emulator without host": {Mode: gcp.ModeEmulator, Buckets: gcp.BucketNames{Report: "r", Asset: "a"}},
		"local without root":    {Mode: gcp.ModeLocal},
	}
	for name, cfg := range cases {
		_, err := resolveBucketService(logger.Nop(), cfg)
		var cfgErr *gcp.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: want *gcp.ConfigError got=%v", name, err)
		}
	}
	if called {
		t.Fatalf("gcs constructor called for invalid config")
	}
}

func TestResolveBucketServiceWrapsConnectError(t *testing.T) {
	boom := errors.New("dial failed")
	swapGCSBucket(t, func(*logger.Logger, gcp.StorageConfig) (gcp.BucketService, error) {
		return nil, boom
	})
	_, err := resolveBucketService(logger.Nop(), gcp.StorageConfig{
		Mode:    gcp.ModeGCS,
		Buckets: gcp.BucketNames{Report: "r", Asset: "a"},
	})
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "object storage (gcs)") {
		t.Fatalf("want wrapped connect error got=%v", err)
	}
}
