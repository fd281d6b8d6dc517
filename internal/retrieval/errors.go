package retrieval

import "errors"

var (
	// ErrIndexUnavailable means the index or metadata artifact is missing.
	// Errors carrying it also wrap fs.ErrNotExist.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrOrdinalMismatch means the index and metadata disagree on length.
	ErrOrdinalMismatch = errors.New("index and metadata length mismatch")
)
