package localstore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/gcp"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

func TestStoreLifecycle(t *testing.T) {
	s, err := New(logger.Nop(), t.TempDir(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	key := "reports/r1/1.pdf"

	if err := s.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryReport, key, strings.NewReader("first")); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if err := s.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryReport, key, strings.NewReader("second")); err != nil {
		t.Fatalf("UploadFile overwrite: %v", err)
	}
	rc, err := s.DownloadFile(ctx, gcp.BucketCategoryReport, key)
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "second" {
		t.Fatalf("body: want=%q got=%q", "second", string(body))
	}

	if _, err := s.DownloadFile(ctx, gcp.BucketCategoryAsset, key); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("other category: want ErrNotExist got=%v", err)
	}

	if err := s.DeleteFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryReport, key); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := s.DownloadFile(ctx, gcp.BucketCategoryReport, key); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("after delete: want ErrNotExist got=%v", err)
	}
}

func TestStoreKeysCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	s, err := New(logger.Nop(), root, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p, err := s.pathFor(gcp.BucketCategoryAsset, "../../etc/passwd")
	if err != nil {
		t.Fatalf("pathFor: %v", err)
	}
	if !strings.HasPrefix(p, s.root) {
		t.Fatalf("path %q escapes root %q", p, s.root)
	}
	if _, err := s.pathFor(gcp.BucketCategoryAsset, "  "); err == nil {
		t.Fatalf("empty key should fail")
	}
}

func TestStorePublicURL(t *testing.T) {
	s, err := New(logger.Nop(), t.TempDir(), "http://localhost:8080/files/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := s.GetPublicURL(gcp.BucketCategoryReport, "/reports/r1/1.pdf")
	want := "http://localhost:8080/files/report/reports/r1/1.pdf"
	if got != want {
		t.Fatalf("GetPublicURL: want=%q got=%q", want, got)
	}
}
