package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/surveyreport-backend/internal/data/repos"
	types "github.com/yungbote/surveyreport-backend/internal/domain"
	domainagg "github.com/yungbote/surveyreport-backend/internal/domain/aggregates"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
)

type ReportLifecycleDeps struct {
	Base    BaseDeps
	Reports repos.ReportRepo
}

type reportLifecycleAggregate struct {
	deps ReportLifecycleDeps
}

func NewReportLifecycleAggregate(deps ReportLifecycleDeps) domainagg.ReportLifecycleAggregate {
	deps.Base = deps.Base.withDefaults()
	return &reportLifecycleAggregate{deps: deps}
}

func (a *reportLifecycleAggregate) Contract() domainagg.Contract {
	return domainagg.ReportLifecycleContract
}

func (a *reportLifecycleAggregate) Complete(ctx context.Context, reportID uuid.UUID, artifactKey string) error {
	op := domainagg.ReportLifecycleContract.Op("Complete")
	artifactKey = strings.TrimSpace(artifactKey)
	if reportID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing report_id", nil)
	}
	if artifactKey == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "completed report requires an artifact key", nil)
	}
	if a.deps.Reports == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "report repo not configured", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		now := time.Now()
		err := a.deps.Base.reports.move(dbc, reportID, types.ReportStatusProcessing, types.ReportStatusCompleted, map[string]any{
			"artifact_key": artifactKey,
			"completed_at": now,
			"last_failure": gorm.Expr("NULL"),
			"updated_at":   now,
		})
		if err != nil {
			return err
		}
		return a.deps.Reports.AppendLog(dbc, reportID, "completed: "+artifactKey)
	})
}

func (a *reportLifecycleAggregate) Fail(ctx context.Context, reportID uuid.UUID, line string, failure datatypes.JSON) error {
	op := domainagg.ReportLifecycleContract.Op("Fail")
	if reportID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing report_id", nil)
	}
	if a.deps.Reports == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "report repo not configured", nil)
	}
	updates := map[string]any{
		"artifact_key": gorm.Expr("NULL"),
		"updated_at":   time.Now(),
	}
	if len(failure) > 0 {
		updates["last_failure"] = failure
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.deps.Base.reports.move(dbc, reportID, types.ReportStatusProcessing, types.ReportStatusError, updates); err != nil {
			return err
		}
		return a.deps.Reports.AppendLog(dbc, reportID, line)
	})
}

func (a *reportLifecycleAggregate) Requeue(ctx context.Context, reportID uuid.UUID, reason string) error {
	op := domainagg.ReportLifecycleContract.Op("Requeue")
	if reportID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing report_id", nil)
	}
	if a.deps.Reports == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "report repo not configured", nil)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "manual"
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Reports.GetByID(dbc, reportID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("report not found: %s", reportID), nil)
		}
		err = a.deps.Base.reports.move(dbc, reportID, current.Status, types.ReportStatusPending, map[string]any{
			"artifact_key": gorm.Expr("NULL"),
			"claimed_at":   gorm.Expr("NULL"),
			"completed_at": gorm.Expr("NULL"),
			"updated_at":   time.Now(),
		})
		if err != nil {
			return err
		}
		return a.deps.Reports.AppendLog(dbc, reportID, fmt.Sprintf("requeued from %s: %s", current.Status, reason))
	})
}
