// Package interfaces declares the ports between handlers and infrastructure.
package interfaces

import "context"

// HealthChecker is implemented by every dependency that takes part in readiness
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
