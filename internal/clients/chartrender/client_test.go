package chartrender

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/surveyreport-backend/internal/platform/httpx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, endpoint string, timeout time.Duration) Renderer {
	t.Helper()
	r, err := New(logger.Nop(), Config{
		Endpoint:        endpoint,
		Timeout:         timeout,
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestRenderSendsViewportAndReturnsImage(t *testing.T) {
	var got renderBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: want=POST got=%s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	img, err := c.Render(context.Background(), RenderRequest{
		URL:         "http://charts.local/?data=%5B%5D",
		Viewport:    Viewport{Width: 1200, Height: 800},
		SettleDelay: 250 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(img) != "png-bytes" {
		t.Fatalf("image: want=%q got=%q", "png-bytes", string(img))
	}
	if got.Width != 1200 || got.Height != 800 || got.WaitMS != 250 {
		t.Fatalf("body: want=1200x800 wait=250 got=%dx%d wait=%d", got.Width, got.Height, got.WaitMS)
	}
	if got.URL != "http://charts.local/?data=%5B%5D" {
		t.Fatalf("url: got=%q", got.URL)
	}
}

func TestRenderRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	img, err := c.Render(context.Background(), RenderRequest{URL: "http://x"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(img) != "ok" {
		t.Fatalf("image: want=ok got=%q", string(img))
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("calls: want=2 got=%d", n)
	}
}

func TestRenderDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad url", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.Render(context.Background(), RenderRequest{URL: "http://x"})
	var se *httpx.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
		t.Fatalf("want StatusError 400 got=%v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls: want=1 got=%d", n)
	}
}

func TestRenderGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.Render(context.Background(), RenderRequest{URL: "http://x"})
	if err == nil {
		t.Fatalf("empty image should fail")
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("calls: want=3 got=%d", n)
	}
}

func TestRenderTimesOutSlowAttempts(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv.URL, 20*time.Millisecond)
	start := time.Now()
	_, err := c.Render(context.Background(), RenderRequest{URL: "http://x"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded got=%v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("render did not respect the per-attempt timeout")
	}
}

func TestChartURLEncodesPoints(t *testing.T) {
	raw, err := ChartURL("https://charts.example.com/bar?theme=light", []ChartPoint{
		{Value: 72.5, Average: 80, Min: 0, Max: 100, Description: "Leadership & Vision"},
	})
	if err != nil {
		t.Fatalf("ChartURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Query().Get("theme") != "light" {
		t.Fatalf("existing query lost: %q", raw)
	}
	var points []ChartPoint
	if err := json.Unmarshal([]byte(u.Query().Get("data")), &points); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(points) != 1 || points[0].Description != "Leadership & Vision" || points[0].Value != 72.5 {
		t.Fatalf("points: got=%+v", points)
	}

	if _, err := ChartURL("not a url", nil); err == nil {
		t.Fatalf("relative base should fail")
	}
}
