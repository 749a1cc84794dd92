package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	domainagg "github.com/yungbote/surveyreport-backend/internal/domain/aggregates"
)

type Stage string

const (
	StageLoad     Stage = "load"
	StageScore    Stage = "score"
	StageClassify Stage = "classify"
	StageRecord   Stage = "record"
	StageInputs   Stage = "inputs"
	StageRender   Stage = "render"
	StagePersist  Stage = "persist"
)

// ErrorKind groups pipeline failures by what an operator has to look at.
type ErrorKind string

const (
	KindDataIntegrity       ErrorKind = "data_integrity"
	KindUpstreamRender      ErrorKind = "upstream_render"
	KindArtifactPersist     ErrorKind = "artifact_persist"
	KindConcurrencyConflict ErrorKind = "concurrency_conflict"
	KindValidation          ErrorKind = "validation"
	KindInternal            ErrorKind = "internal"
)

type StageError struct {
	Stage Stage
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageError(stage Stage, kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

type failureRecord struct {
	Stage   Stage     `json:"stage,omitempty"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// failureDetail is the JSON stored as a report's last failure.
func failureDetail(err error, at time.Time) datatypes.JSON {
	rec := failureRecord{Kind: KindOf(err), At: at}
	var se *StageError
	if errors.As(err, &se) {
		rec.Stage = se.Stage
	}
	if err != nil {
		rec.Message = err.Error()
	}
	raw, mErr := json.Marshal(rec)
	if mErr != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// KindOf returns the kind of a pipeline error, or internal when err is not a
// StageError.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// aggregateKind maps an aggregate write error onto a pipeline error kind.
func aggregateKind(err error) ErrorKind {
	switch domainagg.CodeOf(err) {
	case domainagg.CodeConflict, domainagg.CodeRetryable:
		return KindConcurrencyConflict
	case domainagg.CodeValidation:
		return KindValidation
	case domainagg.CodeNotFound, domainagg.CodeInvariantViolation, domainagg.CodePreconditionFailed:
		return KindDataIntegrity
	default:
		return KindInternal
	}
}
