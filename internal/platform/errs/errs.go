package errs

import "errors"

// Sentinel errors shared across repos and services. Callers branch with
// errors.Is and must not compare error strings.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrTranscodeFailed  = errors.New("transcode failed")
	ErrTranscodeTimeout = errors.New("transcode timed out")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
)
