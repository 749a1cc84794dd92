package reportpdf

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/montanaflynn/stats"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// FallbackStdDev is used when the sample cannot support a spread estimate.
const FallbackStdDev = 10.0

type DistributionInput struct {
	Score            float64
	Sample           []float64
	CompanyReference float64
}

// DistributionPlotter renders the peer distribution image as PNG bytes.
type DistributionPlotter interface {
	Plot(ctx context.Context, in DistributionInput) ([]byte, error)
}

// FitNormal returns the sample mean and sample standard deviation. With fewer
// than two points or no spread it falls back to FallbackStdDev, and with no
// points at all the mean is fallbackMean.
func FitNormal(sample []float64, fallbackMean float64) (mean, sd float64) {
	data := stats.Float64Data(sample)
	if len(data) == 0 {
		return fallbackMean, FallbackStdDev
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return fallbackMean, FallbackStdDev
	}
	if len(data) < 2 {
		return mean, FallbackStdDev
	}
	sd, err = stats.StandardDeviationSample(data)
	if err != nil || sd == 0 || math.IsNaN(sd) {
		return mean, FallbackStdDev
	}
	return mean, sd
}

func normalPDF(x, mean, sd float64) float64 {
	z := (x - mean) / sd
	return math.Exp(-0.5*z*z) / (sd * math.Sqrt(2*math.Pi))
}

type GGPlotter struct {
	Width  int
	Height int
	font   *truetype.Font
}

func NewGGPlotter(width, height int) (*GGPlotter, error) {
	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse plot font: %w", err)
	}
	return &GGPlotter{Width: width, Height: height, font: parsed}, nil
}

const (
	plotLeft   = 40.0
	plotRight  = 20.0
	plotTop    = 20.0
	plotBottom = 40.0
	plotSteps  = 240
)

func (g *GGPlotter) Plot(ctx context.Context, in DistributionInput) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mean, sd := FitNormal(in.Sample, in.Score)

	w, h := float64(g.Width), float64(g.Height)
	innerW, innerH := w-plotLeft-plotRight, h-plotTop-plotBottom
	peak := normalPDF(mean, mean, sd)
	px := func(x float64) float64 { return plotLeft + clamp01(x/100)*innerW }
	py := func(d float64) float64 { return plotTop + innerH - (d/peak)*innerH*0.92 }

	dc := gg.NewContext(g.Width, g.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// area up to the participant's score
	score := math.Max(0, math.Min(100, in.Score))
	dc.MoveTo(px(0), py(0))
	for i := 0; i <= plotSteps; i++ {
		x := score * float64(i) / plotSteps
		dc.LineTo(px(x), py(normalPDF(x, mean, sd)))
	}
	dc.LineTo(px(score), py(0))
	dc.ClosePath()
	dc.SetRGBA(0.118, 0.251, 0.686, 0.25)
	dc.Fill()

	dc.NewSubPath()
	for i := 0; i <= plotSteps; i++ {
		x := 100 * float64(i) / plotSteps
		dc.LineTo(px(x), py(normalPDF(x, mean, sd)))
	}
	dc.SetRGB(0.118, 0.251, 0.686)
	dc.SetLineWidth(2.5)
	dc.Stroke()

	// axis
	dc.SetRGB(0.3, 0.3, 0.3)
	dc.SetLineWidth(1)
	dc.DrawLine(px(0), py(0), px(100), py(0))
	dc.Stroke()
	// A face caches glyphs and must not be shared between concurrent plots.
	dc.SetFontFace(truetype.NewFace(g.font, &truetype.Options{Size: 13, DPI: 72, Hinting: font.HintingNone}))
	for v := 0; v <= 100; v += 20 {
		dc.DrawStringAnchored(fmt.Sprintf("%d", v), px(float64(v)), py(0)+18, 0.5, 0.5)
	}

	g.marker(dc, px(mean), py(0), 0.47, 0.47, 0.47, 6)
	g.marker(dc, px(in.CompanyReference), py(0), 0.13, 0.55, 0.13, 6)
	g.marker(dc, px(score), py(0), 0.8, 0.1, 0.1, 0)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode plot: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *GGPlotter) marker(dc *gg.Context, x, base, r, gr, b, dash float64) {
	dc.SetRGB(r, gr, b)
	dc.SetLineWidth(2)
	if dash > 0 {
		dc.SetDash(dash, dash/2)
	}
	dc.DrawLine(x, base, x, plotTop)
	dc.Stroke()
	dc.SetDash()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
