package core

import "errors"

var (
	// ErrUnknownKind is returned when no importer is registered for a kind.
	ErrUnknownKind = errors.New("unknown import kind")

	// ErrJobNotFound is returned for unknown jobs and for jobs the requester
	// may not see.
	ErrJobNotFound = errors.New("import job not found")

	// ErrNoReport is returned when a job has no error report to download.
	ErrNoReport = errors.New("no error report for this import")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyFile is returned when an upload holds no data.
	ErrEmptyFile = errors.New("empty file")
)
