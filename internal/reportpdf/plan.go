package reportpdf

import (
	"fmt"
	"strings"

	"github.com/yungbote/surveyreport-backend/internal/grading"
)

type OpKind int

const (
	OpText OpKind = iota
	OpImage
	OpMarker
)

// Op is a backend-neutral drawing instruction. Text ops are positioned at the
// baseline; marker ops at the circle center with W as radius.
type Op struct {
	Page   int
	Rule   string
	Kind   OpKind
	X, Y   float64
	W, H   float64
	Text   string
	Font   Font
	Color  Color
	Image  string
	Filled bool
}

// Measurer reports rendered text width in points.
type Measurer interface {
	StringWidth(text string, f Font) float64
}

type Plan struct {
	Pages int
	Ops   []Op
	// Overflows names rules whose content ran past the bottom of their region.
	Overflows []string
}

// OnPage returns the ops of one page in plan order.
func (p *Plan) OnPage(page int) []Op {
	var out []Op
	for _, op := range p.Ops {
		if op.Page == page {
			out = append(out, op)
		}
	}
	return out
}

type Planner struct {
	Layout  Layout
	Measure Measurer
}

// Plan evaluates every rule page by page. The result depends only on the
// payload's text and numbers, never on image bytes.
func (pl Planner) Plan(p Payload) (*Plan, error) {
	if pl.Measure == nil {
		return nil, fmt.Errorf("reportpdf: planner has no measurer")
	}
	if err := pl.Layout.Validate(); err != nil {
		return nil, err
	}
	plan := &Plan{Pages: pl.Layout.Pages}
	for page := 1; page <= pl.Layout.Pages; page++ {
		for _, r := range pl.Layout.Rules {
			if r.Page != 0 && r.Page != page {
				continue
			}
			c, ok := r.Select(p)
			if !ok {
				continue
			}
			if overflow := pl.place(plan, page, r, c); overflow {
				plan.Overflows = append(plan.Overflows, fmt.Sprintf("%s@%d", r.Name, page))
			}
		}
	}
	return plan, nil
}

func (pl Planner) place(plan *Plan, page int, r Rule, c Content) bool {
	switch r.Kind {
	case KindLine:
		pl.line(plan, page, r, c.Text)
		return false
	case KindParagraph:
		y := pl.paragraph(plan, page, r, r.Style.Font, c.Text, r.Region.Y)
		return y > r.Region.Bottom()
	case KindBlocks:
		y := r.Region.Y
		for _, b := range c.Blocks {
			if t := strings.TrimSpace(b.Title); t != "" {
				y += r.Style.TitleFont.Size
				plan.Ops = append(plan.Ops, Op{
					Page: page, Rule: r.Name, Kind: OpText,
					X: r.Region.X, Y: y, Text: t, Font: r.Style.TitleFont, Color: r.Style.Color,
				})
				y += r.Style.Leading - r.Style.Font.Size
			}
			y = pl.paragraph(plan, page, r, r.Style.Font, b.Text, y)
			y += r.Style.Gap
		}
		return y-r.Style.Gap > r.Region.Bottom()
	case KindImage:
		plan.Ops = append(plan.Ops, Op{
			Page: page, Rule: r.Name, Kind: OpImage,
			X: r.Region.X, Y: r.Region.Y, W: r.Region.W, H: r.Region.H, Image: c.Image,
		})
		return false
	case KindMarkers:
		radius := r.Style.Radius
		for i := range grading.Bands {
			plan.Ops = append(plan.Ops, Op{
				Page: page, Rule: r.Name, Kind: OpMarker,
				X: r.Region.X + radius, Y: r.Region.Y + radius + float64(i)*r.Style.Spacing,
				W: radius, Color: r.Style.Color, Filled: i == c.Filled,
			})
		}
		return r.Region.Y+2*radius+float64(len(grading.Bands)-1)*r.Style.Spacing > r.Region.Bottom()
	}
	return false
}

func (pl Planner) line(plan *Plan, page int, r Rule, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	x := r.Region.X
	switch r.Style.Align {
	case AlignCenter:
		x += (r.Region.W - pl.Measure.StringWidth(text, r.Style.Font)) / 2
	case AlignRight:
		x += r.Region.W - pl.Measure.StringWidth(text, r.Style.Font)
	}
	plan.Ops = append(plan.Ops, Op{
		Page: page, Rule: r.Name, Kind: OpText,
		X: x, Y: r.Region.Y + r.Style.Font.Size, Text: text, Font: r.Style.Font, Color: r.Style.Color,
	})
}

// paragraph lays out each newline-separated paragraph starting below top and
// returns the baseline of the last line placed.
func (pl Planner) paragraph(plan *Plan, page int, r Rule, f Font, text string, top float64) float64 {
	measure := func(s string) float64 { return pl.Measure.StringWidth(s, f) }
	space := measure(" ")
	y := top
	first := true
	for _, para := range strings.Split(text, "\n") {
		lines := Justify(para, r.Region.W, space, measure)
		if len(lines) == 0 {
			continue
		}
		if !first {
			y += r.Style.Leading / 2
		}
		first = false
		for _, l := range lines {
			y += r.Style.Leading
			x := r.Region.X
			for _, w := range l.Words {
				plan.Ops = append(plan.Ops, Op{
					Page: page, Rule: r.Name, Kind: OpText,
					X: x, Y: y, Text: w.Text, Font: f, Color: r.Style.Color,
				})
				x += w.Width + l.Gap
			}
		}
	}
	return y
}
