// Package interpret generates short situational interpretations of detected
// sound events using the Claude API.
//
// Interpretation is best-effort flavor on top of completed batch analyses; a
// failure here never fails the task that requested it.
package interpret

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/linnemanlabs/go-core/log"

	"github.com/earshotlabs/earshot/internal/classify"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "claude-sonnet-4-20250514"

	responseTokens = 300
	callTimeout    = 30 * time.Second
)

// Interpreter calls Claude to describe what a detection likely means given
// the other detections in the same file.
type Interpreter struct {
	client anthropic.Client
	model  string
	logger log.Logger
}

// New creates an Interpreter. model may be empty to use DefaultModel.
func New(apiKey, model string, logger log.Logger) *Interpreter {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Interpreter{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		logger: logger,
	}
}

// Interpret returns a short security-focused reading of the target detection
// in the temporal context of all detections from the same file.
func (i *Interpreter) Interpret(ctx context.Context, target classify.Detection, all []classify.Detection) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	prompt := buildPrompt(target, all)

	msg, err := i.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(i.model),
		MaxTokens: responseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("interpret: llm call: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("interpret: empty response from model")
	}

	i.logger.Info(ctx, "interpretation generated", "event_id", target.EventID, "tag", target.Tag)
	return out, nil
}

// buildPrompt lays out the detections in time order and marks the one under
// interpretation.
func buildPrompt(target classify.Detection, all []classify.Detection) string {
	ordered := make([]classify.Detection, len(all))
	copy(ordered, all)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].StartTime < ordered[b].StartTime
	})

	var ctxLines []string
	for idx, d := range ordered {
		marker := "  "
		if d.EventID == target.EventID {
			marker = "> "
		}
		ctxLines = append(ctxLines, fmt.Sprintf("%s%d. %s (confidence %.1f%%, %.1fs-%.1fs)",
			marker, idx+1, d.Tag, d.Confidence*100, d.StartTime, d.EndTime))
	}

	return fmt.Sprintf(`The following sound events were detected in an audio file, in time order:

%s

The event marked with ">" is %q.

Considering its temporal relationship to the other events, give a concise
security-focused interpretation of the marked event: what situation it likely
indicates and the threat level. Two to three sentences, professional tone.`,
		strings.Join(ctxLines, "\n"), target.Tag)
}
