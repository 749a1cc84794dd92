package chartrender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yungbote/surveyreport-backend/internal/platform/httpx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

var ErrEmptyImage = errors.New("chartrender: empty image")

type Viewport struct {
	Width  int
	Height int
}

// RenderRequest asks the screenshot service to load URL in a browser of the
// given viewport, wait SettleDelay for the page to finish drawing and return
// a raster image.
type RenderRequest struct {
	URL         string
	Viewport    Viewport
	SettleDelay time.Duration
}

type Renderer interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// ChartPoint is one group bar of the comparison chart.
type ChartPoint struct {
	Value       float64 `json:"value"`
	Average     float64 `json:"average"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Description string  `json:"description"`
}

// ChartURL encodes points as JSON in the data query parameter of base.
func ChartURL(base string, points []ChartPoint) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid chart base url %q", base)
	}
	if points == nil {
		points = []ChartPoint{}
	}
	raw, err := json.Marshal(points)
	if err != nil {
		return "", fmt.Errorf("encode chart data: %w", err)
	}
	q := u.Query()
	q.Set("data", string(raw))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type Config struct {
	Endpoint        string
	Timeout         time.Duration
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 500 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	return c
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (Renderer, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("missing CHART_RENDER_ENDPOINT")
	}
	cfg = cfg.withDefaults()
	return &client{
		log:        log.With("client", "ChartRender"),
		cfg:        cfg,
		httpClient: &http.Client{},
	}, nil
}

type renderBody struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	WaitMS int64  `json:"wait_ms"`
}

func (c *client) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	body := renderBody{
		URL:    req.URL,
		Width:  req.Viewport.Width,
		Height: req.Viewport.Height,
		WaitMS: req.SettleDelay.Milliseconds(),
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialInterval
	b.MaxInterval = c.cfg.MaxInterval

	attempt := 0
	img, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		out, err := c.renderOnce(ctx, body, req.SettleDelay)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil || !httpx.IsRetryableError(err) {
			return nil, backoff.Permanent(err)
		}
		var se *httpx.StatusError
		if errors.As(err, &se) && se.RetryAfter > 0 && uint(attempt) < c.cfg.MaxAttempts {
			c.log.Warn("Chart render throttled", "attempt", attempt, "retry_after", se.RetryAfter.String())
			return nil, backoff.RetryAfter(int(se.RetryAfter / time.Second))
		}
		c.log.Warn("Chart render failed, retrying", "attempt", attempt, "max_attempts", c.cfg.MaxAttempts, "error", err)
		return nil, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.cfg.MaxAttempts))
	if err != nil {
		return nil, fmt.Errorf("render chart after %d attempt(s): %w", attempt, err)
	}
	return img, nil
}

// renderOnce bounds one attempt by the configured timeout plus the settle
// delay the service is asked to wait.
func (c *client) renderOnce(ctx context.Context, body renderBody, settle time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout+settle)
	defer cancel()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/png, image/jpeg")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(raw)
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, &httpx.StatusError{
			Service:    "chartrender",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(msg),
			RetryAfter: httpx.RetryAfter(resp, c.cfg.MaxInterval),
		}
	}
	if len(raw) == 0 {
		return nil, &httpx.StatusError{Service: "chartrender", StatusCode: http.StatusBadGateway, Body: ErrEmptyImage.Error()}
	}
	return raw, nil
}
