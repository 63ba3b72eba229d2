package util

import "runtime"

// GetOptimalPoolSize returns the number of workers used for parallel
// resolution and token-module parsing.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
//   - Minimum 4 so small machines still overlap file I/O with resolution
//   - Maximum 32 caps the number of live parsers and token snapshots
//
// Used by resolve.ResolveAll and the parser pool.
func GetOptimalPoolSize() int {
	poolSize := runtime.NumCPU() * 2

	if poolSize < 4 {
		poolSize = 4
	}
	if poolSize > 32 {
		poolSize = 32
	}

	return poolSize
}

// GetOptimalPoolSizeWithOverride returns override when it is positive and
// GetOptimalPoolSize() otherwise.
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
