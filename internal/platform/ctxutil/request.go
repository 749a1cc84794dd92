package ctxutil

import "context"

type requestMetaKey struct{}

// RequestMeta identifies the inbound request or worker run a context belongs to.
type RequestMeta struct {
	TraceID   string
	RequestID string
	ReportID  string
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func RequestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	if ctx == nil {
		return RequestMeta{}, false
	}
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}

// WithReportID extends the metadata already on ctx.
func WithReportID(ctx context.Context, reportID string) context.Context {
	meta, _ := RequestMetaFrom(ctx)
	meta.ReportID = reportID
	return WithRequestMeta(ctx, meta)
}

// LogFields returns the non-empty ids as logger key/value pairs.
func (m RequestMeta) LogFields() []interface{} {
	var kv []interface{}
	if m.TraceID != "" {
		kv = append(kv, "trace_id", m.TraceID)
	}
	if m.RequestID != "" {
		kv = append(kv, "request_id", m.RequestID)
	}
	if m.ReportID != "" {
		kv = append(kv, "report_id", m.ReportID)
	}
	return kv
}
