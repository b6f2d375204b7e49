// Package event defines the sound-event input model and the outbound
// emergency alert payload.
package event

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors surfaced to callers before any processing happens.
var (
	ErrEmptyTag             = errors.New("tag must not be empty")
	ErrConfidenceOutOfRange = errors.New("confidence must be between 0.0 and 1.0")
)

// SoundEvent is a single detection reported by the audio classification
// provider. Tag and Confidence are required; everything else is optional.
type SoundEvent struct {
	EventID    string         `json:"event_id,omitempty"`
	Tag        string         `json:"tag"`
	Confidence float64        `json:"confidence"`
	Timestamp  string         `json:"timestamp,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Validate checks required fields. Confidence outside [0,1] is rejected,
// never clamped.
func (e *SoundEvent) Validate() error {
	if strings.TrimSpace(e.Tag) == "" {
		return ErrEmptyTag
	}
	if e.Confidence < 0.0 || e.Confidence > 1.0 {
		return fmt.Errorf("%w (got %v)", ErrConfidenceOutOfRange, e.Confidence)
	}
	return nil
}

// EmergencyAlert is the payload contract handed to the notification gateway
// when an event escalates. Field names match the downstream webhook schema.
type EmergencyAlert struct {
	SeverityScore int     `json:"severity_score"`
	SoundType     string  `json:"sound_type"`
	Confidence    float64 `json:"confidence"`
	Timestamp     string  `json:"timestamp"`
	Message       string  `json:"message"`
	EventID       string  `json:"event_id,omitempty"`
}
