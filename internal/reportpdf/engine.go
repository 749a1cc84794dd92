package reportpdf

import (
	"fmt"

	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

// Engine turns a payload into the final document: plan, render the overlay
// onto the template pages, then check the page count of the result.
type Engine struct {
	log      *logger.Logger
	layout   Layout
	planner  Planner
	maxImage int
}

func NewEngine(log *logger.Logger, layout Layout, measure Measurer) (*Engine, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if measure == nil {
		measure = NewFPDFMeasurer()
	}
	return &Engine{
		log:      log.With("component", "ReportPDFEngine"),
		layout:   layout,
		planner:  Planner{Layout: layout, Measure: measure},
		maxImage: 1600,
	}, nil
}

func (e *Engine) Layout() Layout { return e.layout }

func (e *Engine) Plan(p Payload) (*Plan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return e.planner.Plan(p)
}

// Render produces the merged document. The template must have exactly as many
// pages as the layout.
func (e *Engine) Render(template []byte, p Payload) ([]byte, *Plan, error) {
	if err := RequirePages(template, e.layout.Pages); err != nil {
		return nil, nil, fmt.Errorf("template: %w", err)
	}
	plan, err := e.Plan(p)
	if err != nil {
		return nil, nil, err
	}
	if len(plan.Overflows) > 0 {
		e.log.Warn("Layout content overflows its region", "rules", plan.Overflows)
	}

	images := make(map[string][]byte, len(p.Images))
	for name, raw := range p.Images {
		if len(raw) == 0 {
			continue
		}
		norm, err := NormalizePNG(raw, e.maxImage)
		if err != nil {
			return nil, nil, fmt.Errorf("image %s: %w", name, err)
		}
		images[name] = norm
	}

	r := FPDFRenderer{PageWidth: e.layout.PageWidth, PageHeight: e.layout.PageHeight, Stamp: p.IssueDate}
	doc, err := r.Render(plan, images, template)
	if err != nil {
		return nil, nil, err
	}
	if err := RequirePages(doc, e.layout.Pages); err != nil {
		return nil, nil, fmt.Errorf("output: %w", err)
	}
	return doc, plan, nil
}
