package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/fieldnotes/internal/domain"
)

// Row is the ordered list of fields parsed from one line of an import file.
type Row []string

// RowError is a rejected row with the reason it was rejected.
type RowError struct {
	Row     Row
	Message string
}

// Importer is the capability every entity kind supplies to the orchestrator.
//
// An Importer instance serves exactly one job and is not safe for concurrent
// use. Entities accepted by ValidateAndPrepare join the known set immediately,
// so later rows of the same file are checked against them.
type Importer interface {
	// ExpectedColumnCount is the fixed number of fields per row.
	ExpectedColumnCount() int

	// Initialize loads the existing entities needed for validation. An error
	// here is fatal to the job.
	Initialize(ctx context.Context, owner domain.User) error

	// ValidateAndPrepare checks one row and buffers the resulting entity.
	// The returned error is a row error: its message ends up in the report.
	ValidateAndPrepare(row Row) error

	// PersistAll inserts every buffered entity in one batch and returns the
	// number stored.
	PersistAll(ctx context.Context, owner domain.User) (int, error)
}

// Phase is a step of the import lifecycle. Phases only move forward.
type Phase string

const (
	PhaseNotStarted             Phase = "NotStarted"
	PhaseProcessStarted         Phase = "ProcessStarted"
	PhaseRetrievingRequiredData Phase = "RetrievingRequiredData"
	PhaseValidatingInputFile    Phase = "ValidatingInputFile"
	PhaseInsertingImportedData  Phase = "InsertingImportedData"
	PhaseComplete               Phase = "Complete"
	PhaseFailed                 Phase = "Failed"
)

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// State is the coarse job state exposed to callers polling a job.
type State string

const (
	StateNotStarted State = "NotStarted"
	StateOngoing    State = "Ongoing"
	StateComplete   State = "Complete"
	StateFailed     State = "Failed"
)

// Progress is a snapshot of the validation counters.
type Progress struct {
	TotalRows      int `json:"totalRows"`
	RowsToValidate int `json:"rowsToValidate"`
	ValidatedRows  int `json:"validatedRows"`
	ErrorCount     int `json:"errorCount"`
}

// FailureType distinguishes why a job failed.
type FailureType string

const (
	FailureFileUnreadable FailureType = "file_unreadable"
	FailureInitialization FailureType = "initialization"
	FailurePersistence    FailureType = "persistence"
	FailureReport         FailureType = "report"
	FailureProcessCrashed FailureType = "process_crashed"
)

// Failure is a fatal job error.
type Failure struct {
	Type        FailureType `json:"type"`
	Description string      `json:"description"`
}

func (f *Failure) Error() string {
	return string(f.Type) + ": " + f.Description
}

// JobStatus is the registry's view of one import job.
type JobStatus struct {
	ID            string            `json:"id"`
	Kind          domain.EntityKind `json:"kind"`
	Owner         string            `json:"owner"`
	Phase         Phase             `json:"phase"`
	Progress      Progress          `json:"progress"`
	InsertedCount int               `json:"insertedCount"`
	ErrorCount    int               `json:"errorCount"`
	ReportFile    string            `json:"reportFile,omitempty"`
	Failure       *Failure          `json:"failure,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// State derives the coarse state from the phase.
func (s JobStatus) State() State {
	switch s.Phase {
	case PhaseNotStarted, "":
		return StateNotStarted
	case PhaseComplete:
		return StateComplete
	case PhaseFailed:
		return StateFailed
	default:
		return StateOngoing
	}
}

// Message is an event emitted by a running import. The concrete types are
// StatusChanged, ProgressReported, Completed and Failed.
type Message interface {
	isMessage()
}

// StatusChanged announces a new non-terminal phase.
type StatusChanged struct {
	Phase Phase
}

// ProgressReported carries the counters after a row was processed.
type ProgressReported struct {
	Progress Progress
}

// Completed ends a job successfully. Errors may be non-empty; the runner
// turns them into a report and fills ReportFile and ErrorCount.
type Completed struct {
	Errors        []RowError
	InsertedCount int
	ErrorCount    int
	ReportFile    string
}

// Failed ends a job with a fatal error.
type Failed struct {
	Failure Failure
}

func (StatusChanged) isMessage()    {}
func (ProgressReported) isMessage() {}
func (Completed) isMessage()        {}
func (Failed) isMessage()           {}
