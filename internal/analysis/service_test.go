package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/earshotlabs/earshot/internal/classify"
)

// mockStore implements Store for testing.
type mockStore struct {
	mu     sync.Mutex
	tasks  map[string]*Task
	putErr error
	puts   int
}

func newMockStore() *mockStore {
	return &mockStore{tasks: make(map[string]*Task)}
}

func (m *mockStore) Get(_ context.Context, id string) (*Task, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, false, nil
	}
	cp := *t
	return &cp, true, nil
}

func (m *mockStore) Put(_ context.Context, t *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *mockStore) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// mockClassifier returns canned detections or an error; optionally blocks
// until released so tests can observe the processing state.
type mockClassifier struct {
	detections []classify.Detection
	err        error
	panicMsg   string
	release    chan struct{} // nil means don't block
}

func (m *mockClassifier) AnalyzeFile(ctx context.Context, _ []byte, _ string) ([]classify.Detection, error) {
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

// mockInterpreter annotates every requested detection with a fixed text.
type mockInterpreter struct {
	err   error
	calls []string
	mu    sync.Mutex
}

func (m *mockInterpreter) Interpret(_ context.Context, target classify.Detection, _ []classify.Detection) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, target.EventID)
	if m.err != nil {
		return "", m.err
	}
	return "likely break-in in progress", nil
}

func waitForTerminal(t *testing.T, store Store, id string) *Task {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("task %s never reached a terminal state", id)
		default:
		}
		task, ok, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if ok && task.Status != StatusProcessing {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubmit_RejectsOversizedBeforeCreatingTask(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := NewService(store, &mockClassifier{}, 7, log.Nop(), nil, nil)

	big := make([]byte, MaxFileSizeBytes+1)
	id, err := svc.Submit(context.Background(), big, "huge.wav", "audio/wav")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
	if id != "" {
		t.Errorf("task id %q issued for a rejected file", id)
	}
	if store.putCount() != 0 {
		t.Errorf("store written %d times before validation passed", store.putCount())
	}
}

func TestSubmit_RejectsUnsupportedExtension(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := NewService(store, &mockClassifier{}, 7, log.Nop(), nil, nil)

	for _, name := range []string{"notes.txt", "archive.zip", "noext", "audio.flac"} {
		if _, err := svc.Submit(context.Background(), []byte("x"), name, ""); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Submit(%q) err = %v, want ErrUnsupportedFormat", name, err)
		}
	}
	if store.putCount() != 0 {
		t.Errorf("store written for rejected files")
	}
}

func TestSubmit_ReturnsImmediatelyWhileProcessing(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	cl := &mockClassifier{release: make(chan struct{})}
	svc := NewService(store, cl, 7, log.Nop(), nil, nil)

	id, err := svc.Submit(context.Background(), []byte("audio"), "clip.mp3", "audio/mpeg")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	task, ok, err := svc.Get(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("Get(%q): ok=%v err=%v", id, ok, err)
	}
	if task.Status != StatusProcessing {
		t.Errorf("status = %q, want %q before classifier returns", task.Status, StatusProcessing)
	}
	if task.FileName != "clip.mp3" || task.FileSizeBytes != 5 || task.ContentType != "audio/mpeg" {
		t.Errorf("file metadata mismatch: %+v", task)
	}

	close(cl.release)
	waitForTerminal(t, store, id)
}

func TestAnalysis_CompletesWithScoredResultsInOrder(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	cl := &mockClassifier{detections: []classify.Detection{
		{EventID: "evt-1", Tag: "glass_break", Confidence: 0.88, StartTime: 5.2, EndTime: 6.0},
		{EventID: "evt-2", Tag: "scream", Confidence: 0.95, StartTime: 8.0, EndTime: 9.1},
		{EventID: "evt-3", Tag: "footsteps", Confidence: 0.80, StartTime: 10.0, EndTime: 12.0},
	}}
	svc := NewService(store, cl, 7, log.Nop(), nil, nil)

	id, err := svc.Submit(context.Background(), []byte("audio"), "incident.wav", "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	task := waitForTerminal(t, store, id)
	if task.Status != StatusCompleted {
		t.Fatalf("status = %q, want %q (error: %s)", task.Status, StatusCompleted, task.Error)
	}
	if task.Results == nil {
		t.Fatal("completed task has nil results")
	}
	if len(task.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(task.Results))
	}

	// order matches the classifier, not severity
	gotTags := []string{task.Results[0].Tag, task.Results[1].Tag, task.Results[2].Tag}
	wantTags := []string{"glass_break", "scream", "footsteps"}
	for i := range wantTags {
		if gotTags[i] != wantTags[i] {
			t.Errorf("results[%d].Tag = %q, want %q", i, gotTags[i], wantTags[i])
		}
	}

	// floor(8*0.88)=7, floor(9*0.95)=8, floor(2*0.80)=1
	wantScores := []int{7, 8, 1}
	wantEmergency := []bool{true, true, false}
	for i := range task.Results {
		if task.Results[i].SeverityScore != wantScores[i] {
			t.Errorf("results[%d].SeverityScore = %d, want %d", i, task.Results[i].SeverityScore, wantScores[i])
		}
		if task.Results[i].IsEmergency != wantEmergency[i] {
			t.Errorf("results[%d].IsEmergency = %v, want %v", i, task.Results[i].IsEmergency, wantEmergency[i])
		}
		if task.Results[i].Message == "" {
			t.Errorf("results[%d] missing rendered message", i)
		}
	}

	sum := task.Summarize()
	if sum.TotalDetections != 3 || sum.HighestSeverity != 8 || sum.EmergencyCount != 2 {
		t.Errorf("summary = %+v, want {3 8 2}", sum)
	}
}

func TestAnalysis_ZeroDetectionsCompletesEmpty(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := NewService(store, &mockClassifier{detections: []classify.Detection{}}, 7, log.Nop(), nil, nil)

	id, err := svc.Submit(context.Background(), []byte("audio"), "silence.ogg", "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	task := waitForTerminal(t, store, id)
	if task.Status != StatusCompleted {
		t.Fatalf("status = %q, want %q", task.Status, StatusCompleted)
	}
	if task.Results == nil {
		t.Fatal("completed task has nil results; want empty slice")
	}
	if len(task.Results) != 0 {
		t.Fatalf("results = %d, want 0", len(task.Results))
	}

	sum := task.Summarize()
	if sum.TotalDetections != 0 || sum.HighestSeverity != 0 || sum.EmergencyCount != 0 {
		t.Errorf("summary = %+v, want all zeros", sum)
	}
}

func TestAnalysis_ClassifierErrorFailsTask(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := NewService(store, &mockClassifier{err: errors.New("provider unreachable")}, 7, log.Nop(), nil, nil)

	id, err := svc.Submit(context.Background(), []byte("audio"), "clip.m4a", "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	task := waitForTerminal(t, store, id)
	if task.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", task.Status, StatusFailed)
	}
	if task.Error == "" {
		t.Fatal("failed task has empty error")
	}
	if !strings.Contains(task.Error, "provider unreachable") {
		t.Errorf("error = %q, want provider message preserved", task.Error)
	}
}

func TestAnalysis_PanicStillReachesTerminalState(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	svc := NewService(store, &mockClassifier{panicMsg: "corrupt frame"}, 7, log.Nop(), nil, nil)

	id, err := svc.Submit(context.Background(), []byte("audio"), "clip.webm", "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	task := waitForTerminal(t, store, id)
	if task.Status != StatusFailed {
		t.Fatalf("status = %q, want %q after panic", task.Status, StatusFailed)
	}
	if !strings.Contains(task.Error, "corrupt frame") {
		t.Errorf("error = %q, want panic detail preserved", task.Error)
	}
}

func TestAnalysis_InterpretsEmergenciesOnly(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	cl := &mockClassifier{detections: []classify.Detection{
		{EventID: "evt-1", Tag: "gunshot", Confidence: 0.97},
		{EventID: "evt-2", Tag: "conversation", Confidence: 0.65},
	}}
	in := &mockInterpreter{}
	svc := NewService(store, cl, 7, log.Nop(), nil, in)

	id, err := svc.Submit(context.Background(), []byte("audio"), "clip.mp4", "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	task := waitForTerminal(t, store, id)
	if task.Status != StatusCompleted {
		t.Fatalf("status = %q, want %q", task.Status, StatusCompleted)
	}
	if task.Results[0].Interpretation == "" {
		t.Error("emergency detection missing interpretation")
	}
	if task.Results[1].Interpretation != "" {
		t.Error("non-emergency detection was interpreted")
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.calls) != 1 || in.calls[0] != "evt-1" {
		t.Errorf("interpreter calls = %v, want [evt-1]", in.calls)
	}
}

func TestAnalysis_InterpreterFailureDoesNotFailTask(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	cl := &mockClassifier{detections: []classify.Detection{
		{EventID: "evt-1", Tag: "explosion", Confidence: 1.0},
	}}
	svc := NewService(store, cl, 7, log.Nop(), nil, &mockInterpreter{err: errors.New("model overloaded")})

	id, err := svc.Submit(context.Background(), []byte("audio"), "clip.avi", "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	task := waitForTerminal(t, store, id)
	if task.Status != StatusCompleted {
		t.Fatalf("status = %q, want %q despite interpreter failure", task.Status, StatusCompleted)
	}
	if task.Results[0].Interpretation != "" {
		t.Error("failed interpretation should leave the field empty")
	}
}
