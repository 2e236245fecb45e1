package server

import (
	"context"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// Pinger is anything that can check engine connectivity, such as conn.Conn.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EngineHealthService verifies engine connectivity as part of health checks.
type EngineHealthService struct {
	Engine Pinger
}

// Probe implements the HealthService interface.
func (s EngineHealthService) Probe(ctx context.Context) error {
	if s.Engine == nil {
		return nil
	}
	return s.Engine.Ping(ctx)
}
