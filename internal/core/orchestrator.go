package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/fieldnotes/internal/domain"
)

// Orchestrator drives one importer over one file.
//
// The lifecycle is linear:
//
//	ProcessStarted → RetrievingRequiredData → ValidatingInputFile →
//	InsertingImportedData → Complete
//
// Any fatal error ends it with a Failed message instead. Every event goes
// through emit, which must not block for long; the runner backs it with an
// unbounded mailbox.
type Orchestrator struct {
	Options ParseOptions
	Logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator that parses files with opts.
func NewOrchestrator(opts ParseOptions, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{Options: opts.withDefaults(), Logger: logger}
}

// Run imports data with imp on behalf of owner. The last emitted message is
// always Completed or Failed.
func (o *Orchestrator) Run(ctx context.Context, imp Importer, data []byte, owner domain.User, emit func(Message)) {
	emit(StatusChanged{Phase: PhaseProcessStarted})

	rows, err := ParseRows(data, o.Options)
	if err != nil {
		emit(fail(FailureFileUnreadable, err))
		return
	}

	emit(StatusChanged{Phase: PhaseRetrievingRequiredData})
	if err := imp.Initialize(ctx, owner); err != nil {
		emit(fail(FailureInitialization, err))
		return
	}

	emit(StatusChanged{Phase: PhaseValidatingInputFile})
	progress := Progress{
		TotalRows:      rows.Total(),
		RowsToValidate: rows.ToValidate(),
	}
	want := imp.ExpectedColumnCount()

	var rowErrors []RowError
	for _, row := range rows.All() {
		if rows.IsComment(row) {
			continue
		}

		if len(row) != want {
			rowErrors = append(rowErrors, RowError{
				Row:     row,
				Message: fmt.Sprintf("expected %d columns, got %d", want, len(row)),
			})
		} else if err := imp.ValidateAndPrepare(row); err != nil {
			rowErrors = append(rowErrors, RowError{Row: row, Message: err.Error()})
		}

		progress.ValidatedRows++
		progress.ErrorCount = len(rowErrors)
		emit(ProgressReported{Progress: progress})
	}

	emit(StatusChanged{Phase: PhaseInsertingImportedData})
	inserted, err := imp.PersistAll(ctx, owner)
	if err != nil {
		emit(fail(FailurePersistence, err))
		return
	}

	o.Logger.Debug("import validated and persisted",
		"rows", progress.RowsToValidate,
		"inserted", inserted,
		"errors", len(rowErrors),
	)
	emit(Completed{
		Errors:        rowErrors,
		InsertedCount: inserted,
		ErrorCount:    len(rowErrors),
	})
}

func fail(t FailureType, err error) Failed {
	return Failed{Failure: Failure{Type: t, Description: err.Error()}}
}
