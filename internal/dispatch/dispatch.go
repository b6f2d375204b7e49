// Package dispatch decides whether a scored sound event escalates to the
// external notification channel or is logged only.
package dispatch

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/earshotlabs/earshot/internal/event"
	"github.com/earshotlabs/earshot/internal/severity"
)

// Status is the terminal outcome of routing a single event.
type Status string

const (
	// StatusAlertSent means the event escalated and delivery succeeded.
	StatusAlertSent Status = "emergency_alert_sent"

	// StatusLogged means the event stayed below the threshold; no external
	// call was made.
	StatusLogged Status = "logged"

	// StatusAlertFailed means the event escalated but delivery failed.
	// Delivery is attempted at most once; failure is terminal for the event.
	StatusAlertFailed Status = "alert_failed"

	// StatusNotifierNotConfigured means escalation was required but no
	// notifier is configured. Distinct from delivery failure: this needs a
	// configuration fix, not a retry.
	StatusNotifierNotConfigured Status = "notifier_not_configured"
)

// Decision is the pure escalation verdict for a score against a threshold.
type Decision struct {
	Escalate  bool
	Score     int
	Threshold int
}

// Decide applies the escalation threshold. Monotonic in score.
func Decide(score, threshold int) Decision {
	return Decision{
		Escalate:  score >= threshold,
		Score:     score,
		Threshold: threshold,
	}
}

// Outcome reports what happened to a routed event.
type Outcome struct {
	Status  Status
	Score   int
	Message string
}

// Notifier delivers an emergency alert to the external notification channel.
type Notifier interface {
	Send(ctx context.Context, alert *event.EmergencyAlert) error
}

// Router routes scored events. The threshold is injected at construction,
// process-wide, never read per event.
type Router struct {
	threshold int
	notifier  Notifier // nil means not configured
	logger    log.Logger
	metrics   *Metrics
	now       func() time.Time
}

// NewRouter creates a Router. notifier may be nil when no notification
// channel is configured; metrics may be nil to disable instrumentation.
func NewRouter(threshold int, notifier Notifier, logger log.Logger, metrics *Metrics) *Router {
	if logger == nil {
		logger = log.Nop()
	}
	return &Router{
		threshold: threshold,
		notifier:  notifier,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Threshold returns the configured escalation threshold.
func (r *Router) Threshold() int { return r.threshold }

// Route applies the escalation policy to one scored event. It performs at
// most one notifier call and never retries.
func (r *Router) Route(ctx context.Context, ev *event.SoundEvent, res severity.Result) Outcome {
	d := Decide(res.Score, r.threshold)

	if !d.Escalate {
		r.logger.Info(ctx, "event logged",
			"tag", ev.Tag,
			"score", res.Score,
			"threshold", r.threshold,
		)
		r.observe(StatusLogged, res.Score)
		return Outcome{Status: StatusLogged, Score: res.Score, Message: res.Message}
	}

	if r.notifier == nil {
		r.logger.Error(ctx, nil, "escalation required but no notifier configured",
			"tag", ev.Tag,
			"score", res.Score,
		)
		r.observe(StatusNotifierNotConfigured, res.Score)
		return Outcome{Status: StatusNotifierNotConfigured, Score: res.Score, Message: res.Message}
	}

	alert := r.buildAlert(ev, res)
	if err := r.notifier.Send(ctx, alert); err != nil {
		r.logger.Error(ctx, err, "alert delivery failed",
			"tag", ev.Tag,
			"score", res.Score,
		)
		r.observe(StatusAlertFailed, res.Score)
		return Outcome{Status: StatusAlertFailed, Score: res.Score, Message: res.Message}
	}

	r.logger.Info(ctx, "emergency alert sent",
		"tag", ev.Tag,
		"score", res.Score,
		"threshold", r.threshold,
	)
	r.observe(StatusAlertSent, res.Score)
	return Outcome{Status: StatusAlertSent, Score: res.Score, Message: res.Message}
}

func (r *Router) buildAlert(ev *event.SoundEvent, res severity.Result) *event.EmergencyAlert {
	ts := ev.Timestamp
	if ts == "" {
		ts = r.now().Format(time.RFC3339)
	}
	return &event.EmergencyAlert{
		SeverityScore: res.Score,
		SoundType:     ev.Tag,
		Confidence:    ev.Confidence,
		Timestamp:     ts,
		Message:       res.Message,
		EventID:       ev.EventID,
	}
}

func (r *Router) observe(status Status, score int) {
	if r.metrics == nil {
		return
	}
	r.metrics.EventsTotal.WithLabelValues(string(status)).Inc()
	r.metrics.EventSeverity.Observe(float64(score))
}
