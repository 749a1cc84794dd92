package reportpdf

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
)

// ChartBar is one group of the comparison chart. Bars are labelled by
// position, matching the group page order.
type ChartBar struct {
	Value   float64
	Average float64
	Min     float64
	Max     float64
}

// GGBarChart draws the group comparison chart locally: one bar per group,
// a whisker for the company min..max range and a tick at the reference
// average.
type GGBarChart struct {
	Width  int
	Height int
	font   *truetype.Font
}

func NewGGBarChart(width, height int) (*GGBarChart, error) {
	parsed, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse chart font: %w", err)
	}
	return &GGBarChart{Width: width, Height: height, font: parsed}, nil
}

const (
	chartLeft   = 48.0
	chartRight  = 16.0
	chartTop    = 16.0
	chartBottom = 56.0
)

func (c *GGBarChart) Draw(ctx context.Context, bars []ChartBar) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h := float64(c.Width), float64(c.Height)
	innerW, innerH := w-chartLeft-chartRight, h-chartTop-chartBottom
	py := func(v float64) float64 { return chartTop + innerH - clamp01(v/100)*innerH }

	dc := gg.NewContext(c.Width, c.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(truetype.NewFace(c.font, &truetype.Options{Size: 12, DPI: 72, Hinting: font.HintingNone}))

	// grid
	dc.SetLineWidth(1)
	for v := 0; v <= 100; v += 20 {
		y := py(float64(v))
		dc.SetRGB(0.88, 0.88, 0.88)
		dc.DrawLine(chartLeft, y, w-chartRight, y)
		dc.Stroke()
		dc.SetRGB(0.3, 0.3, 0.3)
		dc.DrawStringAnchored(fmt.Sprintf("%d", v), chartLeft-8, y, 1, 0.5)
	}

	if len(bars) > 0 {
		slot := innerW / float64(len(bars))
		barW := math.Max(4, slot*0.55)
		for i, b := range bars {
			cx := chartLeft + slot*(float64(i)+0.5)

			dc.SetRGB(0.118, 0.251, 0.686)
			dc.DrawRectangle(cx-barW/2, py(b.Value), barW, py(0)-py(b.Value))
			dc.Fill()

			if b.Max > b.Min {
				dc.SetRGB(0.2, 0.2, 0.2)
				dc.SetLineWidth(1.5)
				dc.DrawLine(cx, py(b.Max), cx, py(b.Min))
				dc.DrawLine(cx-barW/4, py(b.Max), cx+barW/4, py(b.Max))
				dc.DrawLine(cx-barW/4, py(b.Min), cx+barW/4, py(b.Min))
				dc.Stroke()
			}

			dc.SetRGB(0.8, 0.1, 0.1)
			dc.SetLineWidth(3)
			dc.DrawLine(cx-barW/2-3, py(b.Average), cx+barW/2+3, py(b.Average))
			dc.Stroke()

			dc.SetRGB(0.2, 0.2, 0.2)
			dc.DrawStringAnchored(fmt.Sprintf("%d", i+1), cx, py(0)+16, 0.5, 0.5)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
