package lbvh

import "errors"

// Sentinel error kinds, per the error-handling design: every error raised by
// Builder.Execute wraps exactly one of these via fmt.Errorf("...: %w", ...),
// except a failure to write the optional CSV dump, which wraps the
// underlying I/O error instead.
var (
	// ErrInputInvalid: N == 0, non-triangular faces, non-finite coordinates.
	ErrInputInvalid = errors.New("lbvh: invalid input")

	// ErrShaderBuildFailed: source-to-module compilation failed.
	ErrShaderBuildFailed = errors.New("lbvh: shader build failed")

	// ErrDeviceAllocationFailed: a device buffer could not be created.
	ErrDeviceAllocationFailed = errors.New("lbvh: device allocation failed")

	// ErrDeviceSubmitFailed: queue submit or idle-wait failed.
	ErrDeviceSubmitFailed = errors.New("lbvh: device submit failed")

	// ErrVerificationFailed: a post-build invariant was violated.
	ErrVerificationFailed = errors.New("lbvh: verification failed")
)
