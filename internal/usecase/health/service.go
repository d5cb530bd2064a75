package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the breaker answers, but every answer will be FALSE.
	Degraded Status = "degraded"
	// Unhealthy indicates the breaker is not accepting connections.
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

// Service coordinates health checks. It never calls the billing API.
type Service struct {
	listener      ListenerPinger
	credentialSet bool
}

// New creates a Service. credentialSet reports whether an upstream bearer credential was configured.
func New(listener ListenerPinger, credentialSet bool) *Service {
	return &Service{listener: listener, credentialSet: credentialSet}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)
	status := Healthy

	// Without a credential every billing query fails and counts as zero.
	if s.credentialSet {
		checks["upstream_credential"] = CheckOK
	} else {
		checks["upstream_credential"] = CheckError
		status = Degraded
	}

	if err := s.listener.Ping(ctx); err != nil {
		checks["listener"] = CheckError
		status = Unhealthy
	} else {
		checks["listener"] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}
