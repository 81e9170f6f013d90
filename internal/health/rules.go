package health

import "stasis/internal/metrics"

// Thresholds used by the rules below.
const (
	minGetsForMissRatio      = 100
	missRatioThreshold       = 0.5
	minCommandsForErrRatio   = 10
	commandErrRatioThreshold = 0.2
)

// RuleResult represents the outcome of a single rule.
type RuleResult struct {
	Triggered      bool
	Signal         string
	Recommendation string
	Severity       HealthStatus
}

// Rule evaluates a metrics snapshot.
type Rule func(snapshot map[string]int64) RuleResult

// ---------- RULES ----------

// A stopped evictor means expired keys are never purged again.
func EvictorStoppedRule(snapshot map[string]int64) RuleResult {
	if snapshot[string(metrics.EvictorStoppedTotal)] > 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Eviction task has stopped",
			Recommendation: "Expired keys are no longer purged; restart the engine",
			Severity:       StatusCritical,
		}
	}
	return RuleResult{}
}

// A high miss ratio hints at TTLs that are too short for the access pattern.
func MissRatioRule(snapshot map[string]int64) RuleResult {
	if snapshot[string(metrics.CacheGetsTotal)] < minGetsForMissRatio {
		return RuleResult{}
	}

	if metrics.Ratio(snapshot, metrics.CacheMissesTotal, metrics.CacheGetsTotal) >= missRatioThreshold {
		return RuleResult{
			Triggered:      true,
			Signal:         "High cache miss ratio",
			Recommendation: "Review TTLs and client key usage",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// Many malformed commands usually mean a misbehaving client.
func CommandErrorRule(snapshot map[string]int64) RuleResult {
	if snapshot[string(metrics.CommandsTotal)] < minCommandsForErrRatio {
		return RuleResult{}
	}

	if metrics.Ratio(snapshot, metrics.CommandErrorsTotal, metrics.CommandsTotal) >= commandErrRatioThreshold {
		return RuleResult{
			Triggered:      true,
			Signal:         "High rate of malformed commands",
			Recommendation: "Check client command syntax",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}

// Oversize or truncated frames indicate a framing mismatch.
func FrameErrorRule(snapshot map[string]int64) RuleResult {
	if snapshot[string(metrics.FrameErrorsTotal)] > 0 {
		return RuleResult{
			Triggered:      true,
			Signal:         "Frame errors detected",
			Recommendation: "Verify client framing mode and maximum frame size",
			Severity:       StatusDegraded,
		}
	}
	return RuleResult{}
}
