package reportpdf

import (
	"fmt"

	"github.com/yungbote/surveyreport-backend/internal/grading"
)

// A4 in points.
const (
	A4Width  = 595.28
	A4Height = 841.89
)

// Region is a box in points with the origin at the top-left of the page.
type Region struct {
	X, Y, W, H float64
}

func (r Region) Bottom() float64 { return r.Y + r.H }

type Color struct {
	R, G, B int
}

type Font struct {
	Family string
	Bold   bool
	Size   float64
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

type Kind int

const (
	// KindLine places one unwrapped line of text.
	KindLine Kind = iota
	// KindParagraph places fully justified text.
	KindParagraph
	// KindBlocks stacks titled paragraphs with Style.Gap after each.
	KindBlocks
	// KindImage fits an image slot into the region.
	KindImage
	// KindMarkers draws one indicator per grade band, filling the selected one.
	KindMarkers
)

type Style struct {
	Font      Font
	TitleFont Font
	Color     Color
	Align     Align
	Leading   float64
	Gap       float64
	Radius    float64
	Spacing   float64
}

// Content is what a rule's selector extracts from the payload.
type Content struct {
	Text   string
	Image  string
	Blocks []SummarySection
	Filled int
}

// Rule binds a payload selector to a page region. Page 0 applies the rule to
// every page.
type Rule struct {
	Name   string
	Page   int
	Region Region
	Kind   Kind
	Style  Style
	Select func(p Payload) (Content, bool)
}

type Layout struct {
	PageWidth  float64
	PageHeight float64
	Pages      int
	Rules      []Rule
}

func (l Layout) Validate() error {
	if l.Pages <= 0 || l.PageWidth <= 0 || l.PageHeight <= 0 {
		return fmt.Errorf("reportpdf: layout needs positive page size and count")
	}
	seen := map[string]bool{}
	for _, r := range l.Rules {
		switch {
		case r.Name == "" || seen[r.Name]:
			return fmt.Errorf("reportpdf: rule name %q empty or duplicated", r.Name)
		case r.Page < 0 || r.Page > l.Pages:
			return fmt.Errorf("reportpdf: rule %s page %d outside 0..%d", r.Name, r.Page, l.Pages)
		case r.Select == nil:
			return fmt.Errorf("reportpdf: rule %s has no selector", r.Name)
		case r.Region.X < 0 || r.Region.Y < 0 || r.Region.X+r.Region.W > l.PageWidth || r.Region.Bottom() > l.PageHeight:
			return fmt.Errorf("reportpdf: rule %s region outside page", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

var (
	ink     = Color{R: 33, G: 37, B: 41}
	muted   = Color{R: 120, G: 120, B: 120}
	accent  = Color{R: 30, G: 64, B: 175}
	body    = Font{Family: "Helvetica", Size: 11}
	heading = Font{Family: "Helvetica", Bold: true, Size: 13}
)

const (
	groupFirstPage    = 5
	summaryFirstPage  = 18
	summaryFirstSlots = 4
)

// DefaultLayout is the 21-page A4 report: cover, intro, overview, distribution,
// thirteen group pages, two summary pages and two closing pages.
func DefaultLayout() Layout {
	rules := []Rule{
		{
			Name: "footer", Page: 0, Kind: KindLine,
			Region: Region{X: 40, Y: 812, W: 515, H: 12},
			Style:  Style{Font: Font{Family: "Helvetica", Size: 8}, Color: muted, Align: AlignRight},
			Select: func(p Payload) (Content, bool) { return Content{Text: p.ParticipantName}, true },
		},
		{
			Name: "cover.name", Page: 1, Kind: KindLine,
			Region: Region{X: 60, Y: 400, W: 475, H: 32},
			Style:  Style{Font: Font{Family: "Helvetica", Bold: true, Size: 26}, Color: ink, Align: AlignCenter},
			Select: func(p Payload) (Content, bool) { return Content{Text: p.ParticipantName}, true },
		},
		{
			Name: "cover.date", Page: 1, Kind: KindLine,
			Region: Region{X: 60, Y: 445, W: 475, H: 16},
			Style:  Style{Font: Font{Family: "Helvetica", Size: 12}, Color: ink, Align: AlignCenter},
			Select: func(p Payload) (Content, bool) {
				d := formatDate(p.IssueDate)
				return Content{Text: d}, d != ""
			},
		},
		{
			Name: "cover.logo", Page: 1, Kind: KindImage,
			Region: Region{X: 222, Y: 560, W: 150, H: 90},
			Select: func(p Payload) (Content, bool) { return Content{Image: ImageLogo}, true },
		},
		{
			Name: "intro.company", Page: 2, Kind: KindLine,
			Region: Region{X: 60, Y: 150, W: 475, H: 18},
			Style:  Style{Font: Font{Family: "Helvetica", Bold: true, Size: 14}, Color: ink},
			Select: func(p Payload) (Content, bool) { return Content{Text: p.CompanyName}, p.CompanyName != "" },
		},
		{
			Name: "overview.score", Page: 3, Kind: KindLine,
			Region: Region{X: 60, Y: 140, W: 200, H: 40},
			Style:  Style{Font: Font{Family: "Helvetica", Bold: true, Size: 36}, Color: accent},
			Select: func(p Payload) (Content, bool) { return Content{Text: formatScore(p.Overall)}, true },
		},
		{
			Name: "overview.band", Page: 3, Kind: KindLine,
			Region: Region{X: 60, Y: 190, W: 300, H: 16},
			Style:  Style{Font: Font{Family: "Helvetica", Size: 12}, Color: ink},
			Select: func(p Payload) (Content, bool) {
				i := grading.BandIndex(p.Grade)
				if i < 0 {
					return Content{}, false
				}
				return Content{Text: grading.Bands[i].Label}, true
			},
		},
		{
			Name: "overview.markers", Page: 3, Kind: KindMarkers,
			Region: Region{X: 470, Y: 130, W: 20, H: 200},
			Style:  Style{Color: accent, Radius: 7, Spacing: 38},
			Select: func(p Payload) (Content, bool) {
				i := grading.BandIndex(p.Grade)
				return Content{Filled: i}, i >= 0
			},
		},
		{
			Name: "overview.chart", Page: 3, Kind: KindImage,
			Region: Region{X: 50, Y: 360, W: 495, H: 380},
			Select: func(p Payload) (Content, bool) { return Content{Image: ImageChart}, true },
		},
		{
			Name: "distribution.curve", Page: 4, Kind: KindImage,
			Region: Region{X: 50, Y: 150, W: 495, H: 300},
			Select: func(p Payload) (Content, bool) { return Content{Image: ImageBell}, true },
		},
		valueRule("distribution.score", 480, func(p Payload) string { return formatScore(p.Overall) }),
		valueRule("distribution.peer", 505, func(p Payload) string { return formatScore(p.PeerMean) }),
		valueRule("distribution.company", 530, func(p Payload) string { return formatScore(p.CompanyReference) }),
	}

	for i := 0; i < GroupPages; i++ {
		rules = append(rules, groupRules(i, groupFirstPage+i)...)
	}
	rules = append(rules,
		summaryRule("summary.first", summaryFirstPage, 0, summaryFirstSlots),
		summaryRule("summary.second", summaryFirstPage+1, summaryFirstSlots, SummarySlots),
	)

	return Layout{PageWidth: A4Width, PageHeight: A4Height, Pages: PageCount, Rules: rules}
}

func valueRule(name string, y float64, text func(Payload) string) Rule {
	return Rule{
		Name: name, Page: 4, Kind: KindLine,
		Region: Region{X: 300, Y: y, W: 200, H: 16},
		Style:  Style{Font: Font{Family: "Helvetica", Bold: true, Size: 12}, Color: ink},
		Select: func(p Payload) (Content, bool) { return Content{Text: text(p)}, true },
	}
}

func groupRules(i, page int) []Rule {
	section := func(p Payload) (GroupSection, bool) {
		if i >= len(p.Groups) {
			return GroupSection{}, false
		}
		return p.Groups[i], true
	}
	prefix := fmt.Sprintf("group.%02d", i+1)
	return []Rule{
		{
			Name: prefix + ".name", Page: page, Kind: KindLine,
			Region: Region{X: 60, Y: 100, W: 475, H: 22},
			Style:  Style{Font: Font{Family: "Helvetica", Bold: true, Size: 18}, Color: ink},
			Select: func(p Payload) (Content, bool) {
				g, ok := section(p)
				return Content{Text: g.Name}, ok && g.Name != ""
			},
		},
		{
			Name: prefix + ".score", Page: page, Kind: KindLine,
			Region: Region{X: 60, Y: 140, W: 200, H: 36},
			Style:  Style{Font: Font{Family: "Helvetica", Bold: true, Size: 30}, Color: accent},
			Select: func(p Payload) (Content, bool) {
				g, ok := section(p)
				return Content{Text: formatScore(g.Score)}, ok
			},
		},
		{
			Name: prefix + ".narrative", Page: page, Kind: KindParagraph,
			Region: Region{X: 60, Y: 210, W: 475, H: 560},
			Style:  Style{Font: body, Color: ink, Leading: 16},
			Select: func(p Payload) (Content, bool) {
				g, ok := section(p)
				return Content{Text: g.Narrative}, ok && g.Narrative != ""
			},
		},
	}
}

func summaryRule(name string, page, from, to int) Rule {
	return Rule{
		Name: name, Page: page, Kind: KindBlocks,
		Region: Region{X: 60, Y: 100, W: 475, H: 690},
		Style:  Style{Font: body, TitleFont: heading, Color: ink, Leading: 15, Gap: 18},
		Select: func(p Payload) (Content, bool) {
			if from >= len(p.Summaries) {
				return Content{}, false
			}
			end := to
			if end > len(p.Summaries) {
				end = len(p.Summaries)
			}
			return Content{Blocks: p.Summaries[from:end]}, true
		},
	}
}
