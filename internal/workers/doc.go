/*
Package workers provides utilities for determining optimal worker pool sizes
in containerized environments.

# Overview

When running Go applications in containers (Docker, Kubernetes, etc.), the
number of available CPUs may be limited by cgroup constraints. While Go 1.19+
automatically sets GOMAXPROCS based on container CPU limits, the commonly used
runtime.NumCPU() function still returns the host machine's CPU count.

This package provides helper functions that use GOMAXPROCS to determine
appropriate worker counts, ensuring the rasterization passes respect
container resource limits.

# Basic Usage

	import "media-author/internal/workers"

	// For CPU-intensive tasks (page rasterization, image encoding)
	// Uses 1 worker per available CPU
	numWorkers := workers.ForCPU(8) // max 8 workers

	// For I/O-bound tasks (file operations, network calls)
	// Uses 2 workers per available CPU
	numWorkers := workers.ForIO(16) // max 16 workers

# Environment Variable Override

Set RASTER_WORKERS to force a specific worker count regardless of detected
CPUs. The configured limit still applies.
*/
package workers
