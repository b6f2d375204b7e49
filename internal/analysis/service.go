// Package analysis owns the lifecycle of batch file-analysis tasks: submit,
// asynchronous classification and scoring, and result lookup.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linnemanlabs/go-core/log"

	"github.com/earshotlabs/earshot/internal/classify"
	"github.com/earshotlabs/earshot/internal/severity"
)

// MaxFileSizeBytes caps accepted uploads. Oversized files are rejected before
// any task exists.
const MaxFileSizeBytes = 50 << 20 // 50MB

// Validation errors returned by Submit.
var (
	ErrFileTooLarge      = errors.New("file exceeds the 50MB size limit")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// allowedExtensions is the upload allow-list (audio plus common video
// containers the provider can demux).
var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
	".mp4":  true,
	".webm": true,
	".avi":  true,
}

// Interpreter optionally annotates emergency detections with a situational
// reading. May be absent.
type Interpreter interface {
	Interpret(ctx context.Context, target classify.Detection, all []classify.Detection) (string, error)
}

// Service is the business boundary for batch analysis.
type Service struct {
	store       Store
	classifier  classify.Classifier
	evaluator   *severity.Evaluator
	interpreter Interpreter // nil disables interpretation
	threshold   int
	logger      log.Logger
	metrics     *Metrics
}

// NewService creates an analysis service. The escalation threshold is
// injected here, not read from ambient configuration at call time.
func NewService(store Store, classifier classify.Classifier, threshold int, logger log.Logger, metrics *Metrics, interpreter Interpreter) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:       store,
		classifier:  classifier,
		evaluator:   severity.New(),
		interpreter: interpreter,
		threshold:   threshold,
		logger:      logger,
		metrics:     metrics,
	}
}

// Submit validates the upload, records a processing task, and schedules the
// background analysis step. It returns the task ID immediately and never
// blocks on analysis.
func (s *Service) Submit(ctx context.Context, data []byte, fileName, contentType string) (string, error) {
	if int64(len(data)) > MaxFileSizeBytes {
		s.countSubmit("too_large")
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		s.countSubmit("bad_format")
		return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, ext)
	}

	if contentType == "" {
		contentType = "unknown"
	}

	id := uuid.NewString()
	task := &Task{
		ID:            id,
		Status:        StatusProcessing,
		FileName:      fileName,
		FileSizeBytes: int64(len(data)),
		ContentType:   contentType,
		CreatedAt:     time.Now(),
	}
	if err := s.store.Put(ctx, task); err != nil {
		return "", fmt.Errorf("store task: %w", err)
	}

	s.countSubmit("accepted")
	s.logger.Info(ctx, "analysis task submitted",
		"task_id", id,
		"file", fileName,
		"size", len(data),
	)

	// detach from the request context so the analysis outlives the request
	go s.runAnalysis(context.WithoutCancel(ctx), id, data, fileName)

	return id, nil
}

// Get retrieves a task by ID.
func (s *Service) Get(ctx context.Context, id string) (*Task, bool, error) {
	return s.store.Get(ctx, id)
}

// Threshold returns the configured escalation threshold.
func (s *Service) Threshold() int { return s.threshold }

// runAnalysis is the single writer for its task: it transitions the entry
// from processing to exactly one terminal state, whatever happens.
func (s *Service) runAnalysis(ctx context.Context, id string, data []byte, fileName string) {
	L := s.logger.With("task_id", id, "file", fileName)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			L.Error(ctx, fmt.Errorf("panic: %v", r), "analysis step panicked")
			s.finishFailed(ctx, L, id, start, fmt.Sprintf("internal error: %v", r))
		}
	}()

	detections, err := s.classifier.AnalyzeFile(ctx, data, fileName)
	if err != nil {
		L.Error(ctx, err, "classification failed")
		s.finishFailed(ctx, L, id, start, err.Error())
		return
	}

	results := make([]DetectionResult, 0, len(detections))
	for _, d := range detections {
		res := s.evaluator.Evaluate(d.Tag, d.Confidence, "")
		results = append(results, DetectionResult{
			EventID:       d.EventID,
			Tag:           d.Tag,
			Confidence:    d.Confidence,
			StartTime:     d.StartTime,
			EndTime:       d.EndTime,
			SeverityScore: res.Score,
			Message:       res.Message,
			IsEmergency:   res.Score >= s.threshold,
		})
	}

	s.annotate(ctx, L, detections, results)
	s.finishCompleted(ctx, L, id, start, results)
}

// annotate attaches best-effort interpretations to emergency detections.
// Failures are logged and skipped; they never fail the task.
func (s *Service) annotate(ctx context.Context, L log.Logger, detections []classify.Detection, results []DetectionResult) {
	if s.interpreter == nil {
		return
	}
	for i := range results {
		if !results[i].IsEmergency {
			continue
		}
		text, err := s.interpreter.Interpret(ctx, detections[i], detections)
		if err != nil {
			L.Warn(ctx, "interpretation failed", "event_id", results[i].EventID, "error", err)
			continue
		}
		results[i].Interpretation = text
	}
}

func (s *Service) finishCompleted(ctx context.Context, L log.Logger, id string, start time.Time, results []DetectionResult) {
	task, ok, err := s.store.Get(ctx, id)
	if err != nil || !ok {
		L.Error(ctx, err, "failed to fetch task for completion")
		return
	}

	task.Status = StatusCompleted
	task.Results = results
	task.CompletedAt = time.Now()
	if err := s.store.Put(ctx, task); err != nil {
		L.Error(ctx, err, "failed to persist completed task")
		return
	}

	s.observeFinish(StatusCompleted, start, len(results))
	L.Info(ctx, "analysis complete",
		"detections", len(results),
		"duration", time.Since(start).Seconds(),
	)
}

func (s *Service) finishFailed(ctx context.Context, L log.Logger, id string, start time.Time, errText string) {
	task, ok, err := s.store.Get(ctx, id)
	if err != nil || !ok {
		L.Error(ctx, err, "failed to fetch task for failure")
		return
	}
	if task.Status != StatusProcessing {
		// already terminal; the recover guard must not overwrite a result
		return
	}

	task.Status = StatusFailed
	task.Error = errText
	task.CompletedAt = time.Now()
	if err := s.store.Put(ctx, task); err != nil {
		L.Error(ctx, err, "failed to persist failed task")
		return
	}

	s.observeFinish(StatusFailed, start, 0)
}

func (s *Service) countSubmit(result string) {
	if s.metrics != nil {
		s.metrics.SubmitsTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) observeFinish(status Status, start time.Time, detections int) {
	if s.metrics == nil {
		return
	}
	s.metrics.AnalysesTotal.WithLabelValues(string(status)).Inc()
	s.metrics.AnalysisDuration.WithLabelValues(string(status)).Observe(time.Since(start).Seconds())
	if status == StatusCompleted {
		s.metrics.AnalysisDetections.Observe(float64(detections))
	}
}
