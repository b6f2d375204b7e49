// Package classify defines the audio classification provider boundary.
//
// The provider takes a whole media file and returns the discrete sound
// detections it found. Two implementations exist: Client speaks to the real
// cloud API, Stub returns deterministic detections for development and tests.
// Which one runs is an injection decision made in main, never a subclassing
// trick inside the client.
package classify

import "context"

// Detection is one raw sound detection within an analyzed file, in provider
// order. StartTime/EndTime are offsets into the file in seconds.
type Detection struct {
	EventID    string  `json:"event_id"`
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
}

// Classifier analyzes a media file and returns its detections.
type Classifier interface {
	AnalyzeFile(ctx context.Context, data []byte, fileName string) ([]Detection, error)
}
