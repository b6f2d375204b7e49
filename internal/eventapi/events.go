package eventapi

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/earshotlabs/earshot/internal/dispatch"
	"github.com/earshotlabs/earshot/internal/event"
)

// handleIngestEvent receives a single live sound event from the
// classification provider's webhook, scores it, and routes it.
func (a *API) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var ev event.SoundEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := a.evaluator.Evaluate(ev.Tag, ev.Confidence, ev.Timestamp)
	out := a.router.Route(ctx, &ev, res)

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("earshot.event.tag", ev.Tag),
		attribute.Int("earshot.event.severity", out.Score),
		attribute.String("earshot.event.outcome", string(out.Status)),
	)

	httpStatus := http.StatusOK
	switch out.Status {
	case dispatch.StatusAlertFailed, dispatch.StatusNotifierNotConfigured:
		httpStatus = http.StatusInternalServerError
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":         string(out.Status),
		"severity_score": out.Score,
		"message":        out.Message,
	})
}
