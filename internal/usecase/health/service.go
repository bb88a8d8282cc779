// Package health checks that the dependencies of a pipeline run are reachable
// before a long stage starts.
package health

import (
	"context"

	"go.uber.org/zap"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// Result is the outcome of one probe.
type Result struct {
	Name string
	Err  error
}

// OK reports whether the probe passed.
func (r Result) OK() bool { return r.Err == nil }

// Report aggregates probe results in registration order.
type Report struct {
	Status Status
	Checks []Result
}

type namedProbe struct {
	name  string
	probe Probe
}

// Service runs registered probes.
type Service struct {
	probes []namedProbe
	logger *zap.Logger
}

// New creates a Service with no probes.
func New(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// Add registers a probe under name.
func (s *Service) Add(name string, p Probe) *Service {
	s.probes = append(s.probes, namedProbe{name: name, probe: p})
	return s
}

// Check runs every probe sequentially.
func (s *Service) Check(ctx context.Context) Report {
	checks := make([]Result, 0, len(s.probes))
	failed := 0
	for _, p := range s.probes {
		err := p.probe(ctx)
		if err != nil {
			failed++
			s.logger.Warn("Health check failed", zap.String("check", p.name), zap.Error(err))
		} else {
			s.logger.Debug("Health check passed", zap.String("check", p.name))
		}
		checks = append(checks, Result{Name: p.name, Err: err})
	}

	status := Healthy
	switch {
	case failed == 0:
	case failed == len(checks):
		status = Unhealthy
	default:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
