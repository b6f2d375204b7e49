package eventapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/earshotlabs/earshot/internal/analysis"
)

// handleAnalyzeFile accepts a multipart media upload and schedules a batch
// analysis task. Validation failures are rejected before any task exists.
func (a *API) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		a.logger.Error(ctx, err, "failed to read upload", "file", header.Filename)
		writeError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	taskID, err := a.svc.Submit(ctx, data, header.Filename, contentType)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrFileTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, analysis.ErrUnsupportedFormat):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			a.logger.Error(ctx, err, "failed to submit analysis", "file", header.Filename)
			writeError(w, http.StatusInternalServerError, "failed to submit analysis")
		}
		return
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("earshot.task.id", taskID))

	writeJSON(w, http.StatusOK, map[string]any{
		"task_id": taskID,
		"status":  string(analysis.StatusProcessing),
		"file_info": map[string]any{
			"filename": header.Filename,
			"size":     len(data),
			"format":   orUnknown(contentType),
		},
	})
}

// handleGetAnalysis reports a task's status; completed tasks carry results
// and a summary, failed tasks carry the error.
func (a *API) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID := chi.URLParam(r, "taskID")

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("earshot.task.id", taskID))

	task, ok, err := a.svc.Get(ctx, taskID)
	if err != nil {
		a.logger.Error(ctx, err, "failed to get analysis task", "task_id", taskID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "task not found"})
		return
	}

	span.SetAttributes(attribute.String("earshot.task.status", string(task.Status)))

	resp := map[string]any{
		"task_id": task.ID,
		"status":  string(task.Status),
		"file_info": map[string]any{
			"filename": task.FileName,
			"size":     task.FileSizeBytes,
			"format":   orUnknown(task.ContentType),
		},
	}

	switch task.Status {
	case analysis.StatusCompleted:
		results := task.Results
		if results == nil {
			results = []analysis.DetectionResult{}
		}
		resp["results"] = results
		resp["summary"] = task.Summarize()
	case analysis.StatusFailed:
		resp["error"] = task.Error
	}

	writeJSON(w, http.StatusOK, resp)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
