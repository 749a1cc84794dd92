package ctxutil

import (
	"context"
	"testing"
)

func TestRequestMetaRoundTrip(t *testing.T) {
	if _, ok := RequestMetaFrom(context.Background()); ok {
		t.Fatalf("empty context reported metadata")
	}
	ctx := WithRequestMeta(context.Background(), RequestMeta{TraceID: "t1", RequestID: "r1"})
	ctx = WithReportID(ctx, "rep-9")
	meta, ok := RequestMetaFrom(ctx)
	if !ok || meta.TraceID != "t1" || meta.ReportID != "rep-9" {
		t.Fatalf("meta: got=%+v ok=%v", meta, ok)
	}
	if got := len(meta.LogFields()); got != 6 {
		t.Fatalf("log fields: want=6 got=%d", got)
	}
	if got := len((RequestMeta{RequestID: "r"}).LogFields()); got != 2 {
		t.Fatalf("partial log fields: want=2 got=%d", got)
	}
}
