package core_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/fieldnotes/internal/core"
	_ "github.com/JonMunkholm/fieldnotes/internal/core/kinds"
	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store/memory"
)

var contributor = domain.User{ID: "alice", Role: domain.RoleContributor}

func newService(t *testing.T, stores *memory.Stores) *core.Service {
	t.Helper()
	dir := t.TempDir()
	svc, err := core.NewService(core.ServiceConfig{
		StagingDir: filepath.Join(dir, "staging"),
		ReportDir:  filepath.Join(dir, "reports"),
	}, core.Deps{Repos: stores.Repositories()}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func importFile(t *testing.T, svc *core.Service, kind domain.EntityKind, data string) core.JobStatus {
	t.Helper()
	id, err := svc.Submit(context.Background(), kind, contributor, string(kind)+".csv", strings.NewReader(data))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Wait(ctx); err != nil {
		t.Fatalf("import did not finish: %v", err)
	}

	status, err := svc.Status(id, contributor)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	return status
}

func TestImport_ObserversWithRejectedRows(t *testing.T) {
	stores := memory.NewStores()
	svc := newService(t, stores)

	status := importFile(t, svc, domain.KindObserver, "# label\nAlice\nALICE\nAlice;extra\n")

	if status.State() != core.StateComplete {
		t.Fatalf("state = %s, failure = %+v", status.State(), status.Failure)
	}
	if status.InsertedCount != 1 || status.ErrorCount != 2 {
		t.Errorf("inserted = %d, errors = %d, want 1 and 2", status.InsertedCount, status.ErrorCount)
	}
	if status.Progress.TotalRows != 4 || status.Progress.RowsToValidate != 3 || status.Progress.ValidatedRows != 3 {
		t.Errorf("progress = %+v", status.Progress)
	}
	if stores.Observers.Len() != 1 {
		t.Errorf("stored %d observers, want 1", stores.Observers.Len())
	}

	path, err := svc.ReportPath(status.ID, contributor)
	if err != nil {
		t.Fatalf("ReportPath() error = %v", err)
	}
	report, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	want := `ALICE;"label: ""ALICE"" already exists"` + "\n" +
		"Alice;extra;expected 1 columns, got 2\n"
	if string(report) != want {
		t.Errorf("report =\n%s\nwant\n%s", report, want)
	}
}

func TestImport_ReferencesFromEarlierImports(t *testing.T) {
	stores := memory.NewStores()
	svc := newService(t, stores)

	if s := importFile(t, svc, domain.KindDepartment, "01\n38\n"); s.InsertedCount != 2 {
		t.Fatalf("departments: %+v", s)
	}
	status := importFile(t, svc, domain.KindTown, "01;1053;Bourg\n38;185;Grenoble\n74;1;Annecy\n")
	if status.InsertedCount != 2 || status.ErrorCount != 1 {
		t.Errorf("towns: inserted = %d, errors = %d", status.InsertedCount, status.ErrorCount)
	}
}

func TestImport_LocalityWithoutCoordinateSystemFails(t *testing.T) {
	stores := memory.NewStores()
	stores.Departments.Seed("alice", domain.Department{Code: "01"})
	svc := newService(t, stores)

	status := importFile(t, svc, domain.KindLocality, "01;Bourg;Étang;230;5.2;46.2\n")

	if status.State() != core.StateFailed || status.Failure == nil {
		t.Fatalf("status = %+v, want Failed", status)
	}
	if status.Failure.Type != core.FailureInitialization {
		t.Errorf("failure type = %s, want initialization", status.Failure.Type)
	}
	if !strings.Contains(status.Failure.Description, "coordinate system") {
		t.Errorf("description = %q, want it to name the missing coordinate system", status.Failure.Description)
	}
	if status.Progress.ValidatedRows != 0 {
		t.Errorf("rows validated after initialization failed: %+v", status.Progress)
	}
	if stores.Localities.CreateCalls() != 0 {
		t.Error("localities were written after initialization failed")
	}
}

func TestImport_StorageFailure(t *testing.T) {
	stores := memory.NewStores()
	stores.Sexes.FailCreate = memory.ErrInjected
	svc := newService(t, stores)

	status := importFile(t, svc, domain.KindSex, "Mâle\nFemelle\n")
	if status.State() != core.StateFailed || status.Failure.Type != core.FailurePersistence {
		t.Errorf("status = %+v, want persistence failure", status)
	}
	if status.ReportFile != "" {
		t.Error("failed job has a report")
	}
}
