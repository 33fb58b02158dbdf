// Package services reports whether the backing services the engine
// depends on are reachable.
package services

import (
	"context"
)

// Probe checks one backing service
type Probe interface {
	// Name returns the service name reported by /ready
	Name() string

	// HealthCheck returns nil when the service can take traffic
	HealthCheck(ctx context.Context) error

	// Close releases the probe's connection
	Close() error
}
