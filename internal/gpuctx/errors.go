package gpuctx

import "errors"

var (
	ErrDeviceInit    = errors.New("gpuctx: device initialization failed")
	ErrAllocation    = errors.New("gpuctx: buffer allocation failed")
	ErrShaderCompile = errors.New("gpuctx: shader compilation failed")
	ErrSubmit        = errors.New("gpuctx: queue submit failed")
)
