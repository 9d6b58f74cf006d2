package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/google/uuid"
)

// DefaultMaxFileSize bounds a staged upload when ServiceConfig leaves it unset.
const DefaultMaxFileSize = 50 << 20

// ServiceConfig configures the import service.
type ServiceConfig struct {
	StagingDir  string // Uploaded files wait here until their worker reads them
	ReportDir   string // Error reports are written here
	MaxFileSize int64
	Parse       ParseOptions
}

// KindInfo describes an importable kind to clients.
type KindInfo struct {
	Kind    domain.EntityKind `json:"kind"`
	Label   string            `json:"label"`
	Columns []string          `json:"columns"`
}

// Service is the entry point used by transports: it stages uploads, starts
// jobs and answers status and report queries.
type Service struct {
	cfg      ServiceConfig
	registry *Registry
	runner   *Runner
	reports  *ReportWriter
	logger   *slog.Logger
}

// NewService wires a registry, report writer, orchestrator and runner over
// the given repositories.
func NewService(cfg ServiceConfig, deps Deps, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	cfg.Parse = cfg.Parse.withDefaults()

	for _, dir := range []string{cfg.StagingDir, cfg.ReportDir} {
		if dir == "" {
			return nil, errors.New("staging and report directories are required")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	registry := NewRegistry()
	reports := NewReportWriter(cfg.ReportDir, cfg.Parse.Delimiter)
	orch := NewOrchestrator(cfg.Parse, logger)

	return &Service{
		cfg:      cfg,
		registry: registry,
		runner:   NewRunner(registry, reports, orch, deps, logger),
		reports:  reports,
		logger:   logger,
	}, nil
}

// Submit stages r and starts an import job for kind. It returns the job id
// as soon as the worker is launched.
func (s *Service) Submit(ctx context.Context, kind domain.EntityKind, owner domain.User, fileName string, r io.Reader) (string, error) {
	if _, ok := Get(kind); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	jobID := uuid.NewString()
	path, err := s.stage(ctx, jobID, r)
	if err != nil {
		return "", err
	}

	s.registry.Register(jobID, kind, owner)
	if err := s.runner.Start(jobID, kind, owner, path); err != nil {
		os.Remove(path)
		s.registry.Apply(jobID, fail(FailureInitialization, err))
		return "", err
	}

	s.logger.Info("import submitted",
		"job_id", jobID,
		"kind", string(kind),
		"owner", owner.ID,
		"file", fileName,
	)
	return jobID, nil
}

// stage copies the upload to <staging>/<jobID>.csv, enforcing the size limit.
func (s *Service) stage(ctx context.Context, jobID string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.StagingDir, jobID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.cfg.MaxFileSize+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("stage upload: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("stage upload: %w", closeErr)
	case n > s.cfg.MaxFileSize:
		err = fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.cfg.MaxFileSize)
	case n == 0:
		err = ErrEmptyFile
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Status returns the job as seen by requester.
func (s *Service) Status(jobID string, requester domain.User) (JobStatus, error) {
	status, ok := s.registry.Query(jobID, requester)
	if !ok {
		return JobStatus{}, ErrJobNotFound
	}
	return status, nil
}

// ReportPath returns the location of the job's error report.
func (s *Service) ReportPath(jobID string, requester domain.User) (string, error) {
	status, err := s.Status(jobID, requester)
	if err != nil {
		return "", err
	}
	if status.ReportFile == "" {
		return "", ErrNoReport
	}
	return s.reports.Path(status.ReportFile), nil
}

// Kinds lists every importable kind with its columns.
func (s *Service) Kinds() []KindInfo {
	defs := All()
	infos := make([]KindInfo, len(defs))
	for i, def := range defs {
		infos[i] = KindInfo{Kind: def.Kind, Label: def.Label, Columns: def.Columns}
	}
	return infos
}

// Template returns a file header for kind: the column names on one comment
// line, which the importer skips.
func (s *Service) Template(kind domain.EntityKind) ([]byte, error) {
	def, ok := Get(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	line := s.cfg.Parse.CommentMarker + " " +
		strings.Join(def.Columns, string(s.cfg.Parse.Delimiter)) + "\n"
	return []byte(line), nil
}

// Wait blocks until running jobs finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	return s.runner.Wait(ctx)
}
