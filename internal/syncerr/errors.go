// Package syncerr defines the closed error taxonomy that the sync
// orchestrator dispatches on. Callers use errors.Is/errors.As against
// these sentinels rather than matching error strings.
package syncerr

import "errors"

var (
	// ErrHarvest wraps a failure traversing the remote hierarchy
	// (transport error, timeout, decode failure). Aborts the tick.
	ErrHarvest = errors.New("harvest failed")

	// ErrRender wraps an HTML-to-Markdown conversion failure. Aborts the tick.
	ErrRender = errors.New("render failed")

	// ErrStage wraps a filesystem failure while writing a staged body.
	// Aborts the tick.
	ErrStage = errors.New("stage failed")

	// ErrEmptyBody indicates an article with no body reached the hasher.
	// Aborts the tick; signals upstream data corruption.
	ErrEmptyBody = errors.New("article has empty body")

	// ErrUpload wraps a single file's upload failure. Recorded into a
	// batch's failed list; never aborts the tick.
	ErrUpload = errors.New("upload failed")

	// ErrIndexWrite wraps a failure persisting the artifact index.
	// Aborts the tick at the commit step.
	ErrIndexWrite = errors.New("artifact index write failed")

	// ErrLockWrite wraps a failure persisting the lock. Aborts the tick
	// at the commit step.
	ErrLockWrite = errors.New("lock write failed")

	// ErrCorruptLock indicates the persisted lock could not be decoded
	// into {int64 -> string}. Aborts the tick; requires operator
	// intervention.
	ErrCorruptLock = errors.New("corrupt lock")
)

// UploadFailure pairs a failed path with the reason it failed; it
// unwraps to ErrUpload.
type UploadFailure struct {
	Path   string
	Reason error
}

func (f UploadFailure) Error() string {
	return f.Path + ": " + f.Reason.Error()
}

func (f UploadFailure) Unwrap() error {
	return ErrUpload
}
