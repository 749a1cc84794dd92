package aggregates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReportLifecycleAggregate owns report status transitions outside of scoring:
// pending -> processing happens in the queue claim, the rest happens here.
type ReportLifecycleAggregate interface {
	Aggregate
	// Complete attaches the artifact and moves processing -> completed.
	Complete(ctx context.Context, reportID uuid.UUID, artifactKey string) error
	// Fail moves processing -> error, appends line to the report log and
	// stores failure as the report's last failure.
	Fail(ctx context.Context, reportID uuid.UUID, line string, failure datatypes.JSON) error
	// Requeue moves error|processing -> pending and clears the artifact.
	Requeue(ctx context.Context, reportID uuid.UUID, reason string) error
}

var ReportLifecycleContract = Contract{
	Name: "Survey.ReportLifecycle",
	Invariants: []string{
		"status moves are compare-and-set on report.status",
		"a completed report always carries an artifact key",
	},
}
