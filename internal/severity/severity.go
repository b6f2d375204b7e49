// Package severity converts sound detections into bounded risk scores.
//
// A detection's score is derived from a fixed per-tag base severity scaled by
// classifier confidence, truncated (not rounded) so that confidence must be
// decisively high to reach a given tier, and clamped to [1,10]. The system
// never reports a zero severity.
package severity

import (
	"fmt"
	"strings"
	"time"
)

// Score bounds and display tier cutoffs.
const (
	MinScore = 1
	MaxScore = 10

	emergencyTier = 8
	warningTier   = 5
)

// DefaultBase is the base severity assigned to tags absent from the table.
// Unknown sounds fail safe to moderate rather than erroring.
const DefaultBase = 5

// baseSeverity maps known sound categories to a base severity in [1,10].
var baseSeverity = map[string]int{
	// critical
	"scream":      9,
	"gunshot":     10,
	"explosion":   10,
	"glass_break": 8,
	"fire_alarm":  9,

	// elevated
	"siren":     7,
	"car_alarm": 6,
	"dog_bark":  5,
	"crying":    6,
	"door_slam": 5,

	// ambient
	"footsteps":    2,
	"conversation": 1,
	"music":        2,
	"traffic":      3,
	"machinery":    4,
}

// Result is the outcome of evaluating a single detection. Produced fresh per
// event, never mutated.
type Result struct {
	Score   int
	Message string
}

// Evaluator scores detections. The zero value is not usable; construct with
// New.
type Evaluator struct {
	now func() time.Time
}

// New returns an Evaluator using the wall clock for timestamp fallback.
func New() *Evaluator {
	return &Evaluator{now: time.Now}
}

// Base returns the table base severity for a tag, case-insensitive.
// Unmapped tags get DefaultBase.
func Base(tag string) int {
	if b, ok := baseSeverity[strings.ToLower(tag)]; ok {
		return b
	}
	return DefaultBase
}

// Evaluate maps a (tag, confidence) pair to a severity result. Confidence is
// assumed already validated to [0,1]; evaluation does not re-validate.
// Deterministic given (tag, confidence, timestamp).
func (ev *Evaluator) Evaluate(tag string, confidence float64, timestamp string) Result {
	base := Base(tag)

	// int() truncates toward zero, matching the floor of a non-negative
	// product. A zero score is raised to MinScore, never reported as 0.
	score := int(float64(base) * confidence)
	if score < MinScore {
		score = MinScore
	}
	if score > MaxScore {
		score = MaxScore
	}

	return Result{
		Score:   score,
		Message: ev.renderMessage(tag, confidence, score, timestamp),
	}
}

// renderMessage formats the display message for a scored detection. The tier
// label is presentation only; escalation is decided by the router threshold.
func (ev *Evaluator) renderMessage(tag string, confidence float64, score int, timestamp string) string {
	var level string
	switch {
	case score >= emergencyTier:
		level = "EMERGENCY"
	case score >= warningTier:
		level = "WARNING"
	default:
		level = "INFO"
	}

	if timestamp == "" {
		timestamp = ev.now().Format(time.RFC3339)
	}

	return fmt.Sprintf("[%s] security sound event detected\nsound: %s\nconfidence: %.1f%%\nseverity: %d/%d\ntime: %s",
		level, tag, confidence*100, score, MaxScore, timestamp)
}
