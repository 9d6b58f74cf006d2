// Package core implements the bulk-import pipeline for field observation
// data.
//
// A client uploads a delimited file for one entity kind. The [Service]
// stages it, registers a job in the [Registry] and hands it to the [Runner],
// which runs the [Orchestrator] in a background goroutine. The orchestrator
// parses the file, asks the kind's [Importer] to load the data it validates
// against, checks every row, and finally persists all accepted rows in one
// batch. Progress and outcome flow back as [Message] values, applied to the
// registry in the order they were emitted. Clients poll the registry; rows
// that were rejected are written to a report by the [ReportWriter].
//
// # Importers
//
// Importers are registered at init time using [Register], one [Definition]
// per kind (see the kinds subpackage):
//
//	core.Register(core.Definition{
//	    Kind:    domain.KindObserver,
//	    Label:   "Observers",
//	    Columns: []string{"label"},
//	    New:     newObserverImporter,
//	})
//
// # Row Errors and Fatal Errors
//
// A row that fails validation is a row error: it is recorded with its
// message and the job carries on. Failures to read the file, to load the
// reference data or to persist the batch end the job in the Failed phase
// with a [Failure]. A panic in the worker is reported as
// FailureProcessCrashed so it can be told apart from bad data.
//
// Duplicate detection compares [NormalizeKey] forms, so labels that differ
// only by case or diacritics collide.
//
// Technical errors are mapped to coded user messages by [MapError].
package core
