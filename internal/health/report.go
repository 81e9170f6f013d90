package health

// HealthStatus represents overall system health.
type HealthStatus string

const (
	StatusOK       HealthStatus = "OK"
	StatusDegraded HealthStatus = "DEGRADED"
	StatusCritical HealthStatus = "CRITICAL"
)

// HealthReport summarizes metric and log signals.
type HealthReport struct {
	OverallStatus   HealthStatus `json:"overall_status"`
	Summary         string       `json:"summary"`
	Signals         []string     `json:"signals"`
	Recommendations []string     `json:"recommendations"`
}

// escalate returns the more severe of current and next.
func escalate(current, next HealthStatus) HealthStatus {
	switch {
	case current == StatusCritical || next == StatusCritical:
		return StatusCritical
	case current == StatusDegraded || next == StatusDegraded:
		return StatusDegraded
	default:
		return StatusOK
	}
}
