// Package scoring implements the lead qualification model.
//
// A lead is scored from four signals — budget, timeline, service fit,
// urgency — each a partial contribution to a 0–100 scale. The score is
// the clamped sum; qualification compares it against a configured
// threshold. Pure functions, no I/O.
package scoring

// Lead statuses derived from the qualification decision.
const (
	StatusQualified     = "qualified"
	StatusNeedsMoreInfo = "needs_more_info"
)

// Signals holds the four component inputs to a lead score.
type Signals struct {
	Budget   int `json:"budget"`
	Timeline int `json:"timeline"`
	Fit      int `json:"fit"`
	Urgency  int `json:"urgency"`
}

// Score computes the total lead score from its component signals.
// Out-of-range inputs are not rejected: the sum is clamped into
// [0, 100]. Callers are trusted internal inputs, so silent clamping
// is the documented policy.
func Score(s Signals) int {
	total := s.Budget + s.Timeline + s.Fit + s.Urgency
	if total < 0 {
		return 0
	}
	if total > 100 {
		return 100
	}
	return total
}

// Qualify maps a score to a lead status. The boundary is inclusive:
// a score equal to the threshold qualifies.
func Qualify(score, threshold int) string {
	if score >= threshold {
		return StatusQualified
	}
	return StatusNeedsMoreInfo
}
