package reportpdf

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"
)

// FPDFMeasurer measures text with the same core font metrics the renderer
// draws with.
type FPDFMeasurer struct {
	mu  sync.Mutex
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func NewFPDFMeasurer() *FPDFMeasurer {
	pdf := fpdf.New("P", "pt", "A4", "")
	return &FPDFMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *FPDFMeasurer) StringWidth(text string, f Font) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont(f.Family, fontStyle(f), f.Size)
	return m.pdf.GetStringWidth(m.tr(text))
}

func fontStyle(f Font) string {
	if f.Bold {
		return "B"
	}
	return ""
}

// FPDFRenderer draws a plan onto a fresh document, one page per layout page.
// When a template is given, page i of the template is placed beneath the
// overlay of page i.
type FPDFRenderer struct {
	PageWidth  float64
	PageHeight float64
	// Stamp fixes the document dates so identical plans give identical files.
	Stamp time.Time
}

func (r FPDFRenderer) Render(plan *Plan, images map[string][]byte, template []byte) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: r.PageWidth, Ht: r.PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCatalogSort(true)
	if !r.Stamp.IsZero() {
		pdf.SetCreationDate(r.Stamp)
		pdf.SetModificationDate(r.Stamp)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	var (
		imp *gofpdi.Importer
		rs  io.ReadSeeker
	)
	if len(template) > 0 {
		imp = gofpdi.NewImporter()
		rs = bytes.NewReader(template)
	}

	registered := r.registerImages(pdf, images)
	byPage := groupByPage(plan.Ops)

	for page := 1; page <= plan.Pages; page++ {
		pdf.AddPage()
		if imp != nil {
			tpl := imp.ImportPageFromStream(pdf, &rs, page, "/MediaBox")
			// Scaled to the layout page so rule coordinates hold for any template size.
			imp.UseImportedTemplate(pdf, tpl, 0, 0, r.PageWidth, r.PageHeight)
		}
		for _, op := range byPage[page] {
			switch op.Kind {
			case OpText:
				pdf.SetFont(op.Font.Family, fontStyle(op.Font), op.Font.Size)
				pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
				pdf.Text(op.X, op.Y, tr(op.Text))
			case OpMarker:
				pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
				pdf.SetLineWidth(1.2)
				style := "D"
				if op.Filled {
					pdf.SetFillColor(op.Color.R, op.Color.G, op.Color.B)
					style = "FD"
				}
				pdf.Circle(op.X, op.Y, op.W, style)
			case OpImage:
				info, ok := registered[op.Image]
				if !ok {
					continue
				}
				x, y, w, h := fit(op, info.Width(), info.Height())
				pdf.ImageOptions(op.Image, x, y, w, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			}
		}
		if pdf.Err() {
			return nil, fmt.Errorf("render page %d: %w", page, pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r FPDFRenderer) registerImages(pdf *fpdf.Fpdf, images map[string][]byte) map[string]*fpdf.ImageInfoType {
	names := make([]string, 0, len(images))
	for name, b := range images {
		if len(b) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make(map[string]*fpdf.ImageInfoType, len(names))
	for _, name := range names {
		info := pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(images[name]))
		if info != nil && !pdf.Err() {
			out[name] = info
		}
	}
	return out
}

func groupByPage(ops []Op) map[int][]Op {
	out := map[int][]Op{}
	for _, op := range ops {
		out[op.Page] = append(out[op.Page], op)
	}
	return out
}

// fit scales an image into the op's box keeping its aspect ratio, centered.
func fit(op Op, iw, ih float64) (x, y, w, h float64) {
	if iw <= 0 || ih <= 0 {
		return op.X, op.Y, op.W, op.H
	}
	scale := op.W / iw
	if s := op.H / ih; s < scale {
		scale = s
	}
	w, h = iw*scale, ih*scale
	return op.X + (op.W-w)/2, op.Y + (op.H-h)/2, w, h
}
