package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"

	"github.com/JonMunkholm/fieldnotes/internal/domain"
)

// Runner executes import jobs in background goroutines and feeds their
// messages to a Registry.
//
// Each job gets a worker goroutine running the orchestrator and a consumer
// goroutine applying its messages in emission order. The worker never waits
// on the consumer. There is no cap on concurrent jobs and no cancellation:
// a started job runs until it completes, fails or crashes.
type Runner struct {
	registry *Registry
	reports  *ReportWriter
	orch     *Orchestrator
	deps     Deps
	logger   *slog.Logger

	lookup   func(domain.EntityKind) (Definition, bool)
	readFile func(string) ([]byte, error)

	wg sync.WaitGroup
}

// NewRunner wires a runner. Importers are resolved through the package
// registry.
func NewRunner(registry *Registry, reports *ReportWriter, orch *Orchestrator, deps Deps, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry: registry,
		reports:  reports,
		orch:     orch,
		deps:     deps,
		logger:   logger,
		lookup:   Get,
		readFile: os.ReadFile,
	}
}

// Start launches the job and returns immediately. The staged file at path is
// removed once the worker has read it. Only an unknown kind is reported
// synchronously; every other problem surfaces as a Failed job.
func (r *Runner) Start(jobID string, kind domain.EntityKind, owner domain.User, path string) error {
	def, ok := r.lookup(kind)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	log := r.logger.With("job_id", jobID, "kind", string(kind), "owner", owner.ID)
	box := newMailbox()

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		box.Drain(func(msg Message) {
			r.deliver(jobID, msg, log)
		})
	}()
	go func() {
		defer r.wg.Done()
		defer box.Close()
		r.work(def, owner, path, box.Put, log)
	}()

	log.Info("import job started")
	return nil
}

// work runs in the job's worker goroutine. A panic anywhere below is
// reported as a crash rather than taking the process down.
func (r *Runner) work(def Definition, owner domain.User, path string, emit func(Message), log *slog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("import worker crashed",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			emit(Failed{Failure: Failure{
				Type:        FailureProcessCrashed,
				Description: fmt.Sprintf("import worker stopped unexpectedly: %v", rec),
			}})
		}
	}()

	data, err := r.readFile(path)
	if err != nil {
		emit(StatusChanged{Phase: PhaseProcessStarted})
		emit(fail(FailureFileUnreadable, err))
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove staged file", "path", path, "error", err)
	}

	imp := def.New(r.deps)
	r.orch.Run(context.Background(), imp, data, owner, emit)
}

// deliver runs in the job's consumer goroutine.
func (r *Runner) deliver(jobID string, msg Message, log *slog.Logger) {
	switch m := msg.(type) {
	case Completed:
		if len(m.Errors) > 0 {
			name, err := r.reports.Write(m.Errors)
			if err != nil {
				log.Error("failed to write error report", "error", err)
				msg = fail(FailureReport, err)
				break
			}
			m.ReportFile = name
			m.ErrorCount = len(m.Errors)
		}
		log.Info("import job complete",
			"inserted", m.InsertedCount,
			"errors", m.ErrorCount,
			"report", m.ReportFile,
		)
		msg = m
	case Failed:
		log.Warn("import job failed",
			"failure_type", string(m.Failure.Type),
			"description", m.Failure.Description,
		)
	}
	r.registry.Apply(jobID, msg)
}

// Wait blocks until every started job has finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
