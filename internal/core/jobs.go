package core

import (
	"sync"
	"time"

	"github.com/JonMunkholm/fieldnotes/internal/domain"
)

// Registry tracks the status of every import job submitted since the process
// started. Entries are never evicted.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*JobStatus
	now  func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*JobStatus),
		now:  time.Now,
	}
}

// Register creates a NotStarted entry. Registering an existing id is a no-op.
func (r *Registry) Register(jobID string, kind domain.EntityKind, owner domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[jobID]; exists {
		return
	}
	now := r.now()
	r.jobs[jobID] = &JobStatus{
		ID:        jobID,
		Kind:      kind,
		Owner:     owner.ID,
		Phase:     PhaseNotStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply updates a job from one of its messages. Messages for unknown jobs and
// for jobs already in a terminal phase are ignored. It reports whether the
// message changed the job.
func (r *Registry) Apply(jobID string, msg Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok || job.Phase.Terminal() {
		return false
	}

	switch m := msg.(type) {
	case StatusChanged:
		if m.Phase.Terminal() {
			return false
		}
		job.Phase = m.Phase
	case ProgressReported:
		job.Progress = m.Progress
	case Completed:
		job.Phase = PhaseComplete
		job.InsertedCount = m.InsertedCount
		job.ErrorCount = m.ErrorCount
		job.ReportFile = m.ReportFile
	case Failed:
		f := m.Failure
		job.Phase = PhaseFailed
		job.Failure = &f
	default:
		return false
	}
	job.UpdatedAt = r.now()
	return true
}

// Query returns a snapshot of the job. A requester who neither owns the job
// nor holds an elevated role gets the same answer as for an unknown id.
func (r *Registry) Query(jobID string, requester domain.User) (JobStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return JobStatus{}, false
	}
	if job.Owner != requester.ID && !requester.IsElevated() {
		return JobStatus{}, false
	}

	snapshot := *job
	if job.Failure != nil {
		f := *job.Failure
		snapshot.Failure = &f
	}
	return snapshot, true
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// ReportFiles returns the report names referenced by tracked jobs.
func (r *Registry) ReportFiles() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	files := make(map[string]bool)
	for _, job := range r.jobs {
		if job.ReportFile != "" {
			files[job.ReportFile] = true
		}
	}
	return files
}

// Running reports whether jobID is tracked and not yet terminal.
func (r *Registry) Running(jobID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	return ok && !job.Phase.Terminal()
}
