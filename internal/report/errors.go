package report

import "errors"

// Pipeline error kinds. Each submission failure wraps exactly one of these so
// the API layer can map kinds to distinct HTTP statuses with errors.Is.
var (
	// ErrValidation marks missing or malformed input; user-correctable.
	ErrValidation = errors.New("invalid submission")
	// ErrStorage marks a media persistence failure. It aborts the pipeline
	// before the analysis call and before any database write.
	ErrStorage = errors.New("media storage failed")
	// ErrAnalysis marks an analysis service failure. Surfaced only under the
	// strict policy; the degrade policy swallows it.
	ErrAnalysis = errors.New("media analysis failed")
	// ErrPersistence marks a database write failure. The stored media file
	// may remain as an orphan; cleanup is out of scope.
	ErrPersistence = errors.New("report persistence failed")
)
