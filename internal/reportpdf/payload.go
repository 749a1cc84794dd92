package reportpdf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/surveyreport-backend/internal/domain/survey"
	"github.com/yungbote/surveyreport-backend/internal/grading"
)

const (
	PageCount    = 21
	GroupPages   = 13
	SummarySlots = 6
)

// Image slots referenced by image rules. Bytes live in Payload.Images so the
// plan never depends on image content.
const (
	ImageLogo  = "logo"
	ImageChart = "chart"
	ImageBell  = "bell"
)

var ErrInvalidPayload = errors.New("reportpdf: invalid payload")

type GroupSection struct {
	Name      string
	Score     decimal.Decimal
	Narrative string
}

type SummarySection struct {
	Title string
	Text  string
}

// Payload is everything computed for one report before layout.
type Payload struct {
	ParticipantName  string
	CompanyName      string
	IssueDate        time.Time
	Grade            survey.Grade
	Overall          decimal.Decimal
	PeerMean         decimal.Decimal
	CompanyReference decimal.Decimal
	Groups           []GroupSection
	Summaries        []SummarySection
	Images           map[string][]byte
}

func (p Payload) Validate() error {
	switch {
	case strings.TrimSpace(p.ParticipantName) == "":
		return fmt.Errorf("%w: participant name required", ErrInvalidPayload)
	case grading.BandIndex(p.Grade) < 0:
		return fmt.Errorf("%w: unknown grade %q", ErrInvalidPayload, p.Grade)
	case len(p.Groups) > GroupPages:
		return fmt.Errorf("%w: %d groups exceed %d group pages", ErrInvalidPayload, len(p.Groups), GroupPages)
	case len(p.Summaries) > SummarySlots:
		return fmt.Errorf("%w: %d summary blocks exceed %d slots", ErrInvalidPayload, len(p.Summaries), SummarySlots)
	}
	for _, slot := range []string{ImageChart, ImageBell} {
		if len(p.Images[slot]) == 0 {
			return fmt.Errorf("%w: %s image missing", ErrInvalidPayload, slot)
		}
	}
	return nil
}

func formatScore(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}
