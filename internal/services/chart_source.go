package services

import (
	"context"
	"time"

	"github.com/yungbote/surveyreport-backend/internal/clients/chartrender"
	"github.com/yungbote/surveyreport-backend/internal/reportpdf"
)

// ChartSource produces the group comparison chart image.
type ChartSource interface {
	Name() string
	Chart(ctx context.Context, points []chartrender.ChartPoint) ([]byte, error)
}

type remoteChartSource struct {
	renderer chartrender.Renderer
	baseURL  string
	viewport chartrender.Viewport
	settle   time.Duration
}

// NewRemoteChartSource screenshots the chart page served at baseURL.
func NewRemoteChartSource(renderer chartrender.Renderer, baseURL string, viewport chartrender.Viewport, settle time.Duration) ChartSource {
	return &remoteChartSource{renderer: renderer, baseURL: baseURL, viewport: viewport, settle: settle}
}

func (s *remoteChartSource) Name() string { return "remote" }

func (s *remoteChartSource) Chart(ctx context.Context, points []chartrender.ChartPoint) ([]byte, error) {
	u, err := chartrender.ChartURL(s.baseURL, points)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(ctx, chartrender.RenderRequest{URL: u, Viewport: s.viewport, SettleDelay: s.settle})
}

type localChartSource struct {
	chart *reportpdf.GGBarChart
}

// NewLocalChartSource draws the chart in-process.
func NewLocalChartSource(chart *reportpdf.GGBarChart) ChartSource {
	return &localChartSource{chart: chart}
}

func (s *localChartSource) Name() string { return "local" }

func (s *localChartSource) Chart(ctx context.Context, points []chartrender.ChartPoint) ([]byte, error) {
	bars := make([]reportpdf.ChartBar, 0, len(points))
	for _, p := range points {
		bars = append(bars, reportpdf.ChartBar{Value: p.Value, Average: p.Average, Min: p.Min, Max: p.Max})
	}
	return s.chart.Draw(ctx, bars)
}
