package aggregates

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
)

// reportMoves maps a target status to the statuses it may be entered from.
// pending -> processing belongs to the queue claim and is absent.
var reportMoves = map[string][]string{
	types.ReportStatusCompleted: {types.ReportStatusProcessing},
	types.ReportStatusError:     {types.ReportStatusProcessing},
	types.ReportStatusPending:   {types.ReportStatusError, types.ReportStatusProcessing},
}

func canMoveReport(from, to string) bool {
	for _, s := range reportMoves[to] {
		if s == from {
			return true
		}
	}
	return false
}

// reportGuard writes report rows with a status precondition so concurrent
// writers cannot both win.
type reportGuard struct {
	db *gorm.DB
}

func (g reportGuard) conn(dbc dbctx.Context) (*gorm.DB, error) {
	switch {
	case dbc.Tx != nil:
		return dbc.Tx.WithContext(dbc.Ctx), nil
	case g.db != nil:
		return g.db.WithContext(dbc.Ctx), nil
	default:
		return nil, ValidationError("no database handle for report write")
	}
}

// move sets status to `to` while the row is still in `from`. A row that has
// already left `from` is an invariant violation.
func (g reportGuard) move(dbc dbctx.Context, reportID uuid.UUID, from, to string, fields map[string]any) error {
	if !canMoveReport(from, to) {
		return InvariantError(fmt.Sprintf("report cannot move from %s to %s", from, to))
	}
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["status"] = to
	return g.update(dbc, reportID, from, updates)
}

// whileIn writes fields without changing status, provided the row is in status.
func (g reportGuard) whileIn(dbc dbctx.Context, reportID uuid.UUID, status string, fields map[string]any) error {
	return g.update(dbc, reportID, status, fields)
}

func (g reportGuard) update(dbc dbctx.Context, reportID uuid.UUID, status string, updates map[string]any) error {
	if reportID == uuid.Nil {
		return ValidationError("missing report_id")
	}
	db, err := g.conn(dbc)
	if err != nil {
		return err
	}
	res := db.Model(&types.Report{}).
		Where("id = ? AND status = ?", reportID, status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return InvariantError(fmt.Sprintf("report %s is not %s", reportID, strings.ToLower(status)))
	}
	return nil
}
