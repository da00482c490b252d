package health

import "context"

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

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service runs registered component checks and aggregates the outcome.
type Service struct {
	checkers []Checker
}

// New creates a Service over the given checkers.
func New(checkers ...Checker) *Service {
	return &Service{checkers: checkers}
}

// Check probes every component. All failing yields Unhealthy, some
// failing yields Degraded.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.checkers))

	failed := 0
	for _, c := range s.checkers {
		if err := c.Check(ctx); err != nil {
			checks[c.Name()] = CheckError
			failed++
		} else {
			checks[c.Name()] = CheckOK
		}
	}

	status := Healthy
	switch {
	case failed == len(s.checkers) && failed > 0:
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
