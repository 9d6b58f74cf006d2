package core

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/fieldnotes/internal/domain"
)

var (
	alice = domain.User{ID: "alice", Role: domain.RoleContributor}
	bob   = domain.User{ID: "bob", Role: domain.RoleContributor}
	root  = domain.User{ID: "root", Role: domain.RoleAdmin}
)

func TestRegistry_RegisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Register("job-1", domain.KindObserver, alice)
	reg.Apply("job-1", StatusChanged{Phase: PhaseProcessStarted})
	reg.Register("job-1", domain.KindTown, bob)

	got, ok := reg.Query("job-1", alice)
	if !ok {
		t.Fatal("job-1 not found")
	}
	if got.Kind != domain.KindObserver || got.Owner != "alice" || got.Phase != PhaseProcessStarted {
		t.Errorf("re-registering overwrote the job: %+v", got)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	reg := NewRegistry()
	reg.Register("job-1", domain.KindObserver, alice)

	got, _ := reg.Query("job-1", alice)
	if got.Phase != PhaseNotStarted || got.State() != StateNotStarted {
		t.Fatalf("new job = %s/%s, want NotStarted", got.Phase, got.State())
	}

	reg.Apply("job-1", StatusChanged{Phase: PhaseValidatingInputFile})
	reg.Apply("job-1", ProgressReported{Progress: Progress{TotalRows: 3, RowsToValidate: 2, ValidatedRows: 1}})
	got, _ = reg.Query("job-1", alice)
	if got.State() != StateOngoing || got.Progress.ValidatedRows != 1 {
		t.Errorf("running job = %+v", got)
	}

	reg.Apply("job-1", Completed{InsertedCount: 4, ErrorCount: 1, ReportFile: "r.csv"})
	got, _ = reg.Query("job-1", alice)
	if got.State() != StateComplete || got.InsertedCount != 4 || got.ErrorCount != 1 || got.ReportFile != "r.csv" {
		t.Errorf("completed job = %+v", got)
	}
}

func TestRegistry_TerminalIsFinal(t *testing.T) {
	tests := []struct {
		name     string
		terminal Message
		later    Message
		want     Phase
	}{
		{"completed then failed", Completed{InsertedCount: 1}, Failed{Failure: Failure{Type: FailurePersistence}}, PhaseComplete},
		{"failed then completed", Failed{Failure: Failure{Type: FailureInitialization}}, Completed{InsertedCount: 1}, PhaseFailed},
		{"completed then status", Completed{}, StatusChanged{Phase: PhaseValidatingInputFile}, PhaseComplete},
		{"failed then progress", Failed{Failure: Failure{Type: FailureReport}}, ProgressReported{Progress: Progress{ValidatedRows: 9}}, PhaseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.Register("job", domain.KindObserver, alice)
			if !reg.Apply("job", tt.terminal) {
				t.Fatal("terminal message was not applied")
			}
			before, _ := reg.Query("job", alice)

			if reg.Apply("job", tt.later) {
				t.Error("message after a terminal phase was applied")
			}
			after, _ := reg.Query("job", alice)
			if after.Phase != tt.want {
				t.Errorf("phase = %s, want %s", after.Phase, tt.want)
			}
			if after.Progress != before.Progress || after.InsertedCount != before.InsertedCount {
				t.Errorf("job changed after terminal phase: %+v -> %+v", before, after)
			}
		})
	}
}

func TestRegistry_StatusChangedCannotFinishAJob(t *testing.T) {
	reg := NewRegistry()
	reg.Register("job", domain.KindObserver, alice)

	for _, p := range []Phase{PhaseComplete, PhaseFailed} {
		if reg.Apply("job", StatusChanged{Phase: p}) {
			t.Errorf("StatusChanged{%s} was applied", p)
		}
	}
	got, _ := reg.Query("job", alice)
	if got.Phase != PhaseNotStarted {
		t.Errorf("phase = %s, want NotStarted", got.Phase)
	}
}

func TestRegistry_UnknownJobIgnored(t *testing.T) {
	reg := NewRegistry()
	if reg.Apply("missing", Completed{}) {
		t.Error("Apply on an unknown job reported a change")
	}
	if reg.Len() != 0 {
		t.Error("Apply created a job")
	}
}

func TestRegistry_QueryVisibility(t *testing.T) {
	reg := NewRegistry()
	reg.Register("job", domain.KindObserver, alice)

	tests := []struct {
		name      string
		jobID     string
		requester domain.User
		wantOK    bool
	}{
		{"owner", "job", alice, true},
		{"admin", "job", root, true},
		{"other contributor", "job", bob, false},
		{"unknown id", "nope", alice, false},
		{"unknown id as admin", "nope", root, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reg.Query(tt.jobID, tt.requester)
			if ok != tt.wantOK {
				t.Fatalf("Query ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok && got != (JobStatus{}) {
				t.Errorf("hidden job leaked data: %+v", got)
			}
		})
	}
}

func TestRegistry_QueryReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	reg.Register("job", domain.KindObserver, alice)
	reg.Apply("job", Failed{Failure: Failure{Type: FailurePersistence, Description: "db down"}})

	snap, _ := reg.Query("job", alice)
	snap.Failure.Description = "changed"
	snap.Phase = PhaseNotStarted

	again, _ := reg.Query("job", alice)
	if again.Failure.Description != "db down" || again.Phase != PhaseFailed {
		t.Errorf("mutating a snapshot changed the registry: %+v", again)
	}
}

func TestRegistry_UpdatedAt(t *testing.T) {
	reg := NewRegistry()
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return clock }

	reg.Register("job", domain.KindObserver, alice)
	clock = clock.Add(time.Minute)
	reg.Apply("job", StatusChanged{Phase: PhaseProcessStarted})

	got, _ := reg.Query("job", alice)
	if !got.CreatedAt.Before(got.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestRegistry_ReportFilesAndRunning(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", domain.KindObserver, alice)
	reg.Register("b", domain.KindObserver, alice)
	reg.Register("c", domain.KindObserver, alice)
	reg.Apply("a", Completed{ReportFile: "a.csv"})
	reg.Apply("b", Completed{})

	files := reg.ReportFiles()
	if len(files) != 1 || !files["a.csv"] {
		t.Errorf("ReportFiles() = %v, want only a.csv", files)
	}

	if reg.Running("a") || reg.Running("b") {
		t.Error("finished jobs reported as running")
	}
	if !reg.Running("c") {
		t.Error("pending job not reported as running")
	}
	if reg.Running("unknown") {
		t.Error("unknown job reported as running")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	const jobs = 20

	var wg sync.WaitGroup
	for i := range jobs {
		id := fmt.Sprintf("job-%d", i)
		reg.Register(id, domain.KindObserver, alice)

		wg.Add(2)
		go func() {
			defer wg.Done()
			for n := range 100 {
				reg.Apply(id, ProgressReported{Progress: Progress{ValidatedRows: n}})
			}
			reg.Apply(id, Completed{InsertedCount: 100})
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				reg.Query(id, alice)
				reg.ReportFiles()
			}
		}()
	}
	wg.Wait()

	for i := range jobs {
		got, _ := reg.Query(fmt.Sprintf("job-%d", i), alice)
		if got.Phase != PhaseComplete || got.InsertedCount != 100 {
			t.Errorf("job-%d = %s/%d", i, got.Phase, got.InsertedCount)
		}
	}
}
