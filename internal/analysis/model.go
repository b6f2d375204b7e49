package analysis

import "time"

// Status tracks where a batch analysis task is in its lifecycle.
// processing is the only initial state; completed and failed are terminal and
// never transitioned out of.
type Status string

const (
	// StatusProcessing means the background analysis step has not finished.
	StatusProcessing Status = "processing"

	// StatusCompleted means analysis finished; Results is populated (possibly
	// empty, never nil).
	StatusCompleted Status = "completed"

	// StatusFailed means the classification provider failed; Error is set.
	StatusFailed Status = "failed"
)

// DetectionResult is one scored detection within a completed task, in the
// order the classification provider reported it.
type DetectionResult struct {
	EventID        string  `json:"event_id"`
	Tag            string  `json:"tag"`
	Confidence     float64 `json:"confidence"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	SeverityScore  int     `json:"severity_score"`
	Message        string  `json:"message"`
	IsEmergency    bool    `json:"is_emergency"`
	Interpretation string  `json:"interpretation,omitempty"`
}

// Task is one batch file analysis job. Each task has exactly one writer (the
// background analysis step); readers may observe it at any lifecycle point.
type Task struct {
	ID            string            `json:"task_id"`
	Status        Status            `json:"status"`
	FileName      string            `json:"file_name"`
	FileSizeBytes int64             `json:"file_size_bytes"`
	ContentType   string            `json:"content_type"`
	Results       []DetectionResult `json:"results,omitempty"`
	Error         string            `json:"error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   time.Time         `json:"completed_at,omitempty"`
}

// Summary aggregates a completed task's detections.
type Summary struct {
	TotalDetections int `json:"total_detections"`
	HighestSeverity int `json:"highest_severity"`
	EmergencyCount  int `json:"emergency_count"`
}

// Summarize folds the task's results into a Summary. HighestSeverity is 0
// when there are no detections.
func (t *Task) Summarize() Summary {
	s := Summary{TotalDetections: len(t.Results)}
	for _, r := range t.Results {
		if r.SeverityScore > s.HighestSeverity {
			s.HighestSeverity = r.SeverityScore
		}
		if r.IsEmergency {
			s.EmergencyCount++
		}
	}
	return s
}
