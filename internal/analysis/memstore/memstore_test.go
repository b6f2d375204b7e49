package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/earshotlabs/earshot/internal/analysis"
)

func TestStore_PutAndGet(t *testing.T) {
	t.Parallel()

	s := New(0)
	ctx := context.Background()
	task := &analysis.Task{ID: "task-1", Status: analysis.StatusProcessing, FileName: "a.wav"}
	if err := s.Put(ctx, task); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected task to be found")
	}
	if got.ID != "task-1" {
		t.Errorf("ID = %q, want %q", got.ID, "task-1")
	}
	if got.Status != analysis.StatusProcessing {
		t.Errorf("Status = %q, want %q", got.Status, analysis.StatusProcessing)
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := New(0)
	_, ok, err := s.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing ID")
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := New(0)
	ctx := context.Background()
	if err := s.Put(ctx, &analysis.Task{ID: "task-2", Status: analysis.StatusProcessing}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	first, _, _ := s.Get(ctx, "task-2")
	first.Status = analysis.StatusFailed

	second, _, _ := s.Get(ctx, "task-2")
	if second.Status != analysis.StatusProcessing {
		t.Errorf("mutating a returned task leaked into the store: %q", second.Status)
	}
}

func TestStore_EntriesExpire(t *testing.T) {
	t.Parallel()

	s := New(20 * time.Millisecond)
	ctx := context.Background()
	if err := s.Put(ctx, &analysis.Task{ID: "task-3", Status: analysis.StatusCompleted}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, "task-3"); ok {
		t.Error("expected expired task to be not-found")
	}
}

func TestStore_ConcurrentSubmits(t *testing.T) {
	t.Parallel()

	s := New(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("task-%d", i)
			if err := s.Put(ctx, &analysis.Task{ID: id, Status: analysis.StatusProcessing}); err != nil {
				t.Errorf("Put %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("task-%d", i)
		if _, ok, _ := s.Get(ctx, id); !ok {
			t.Errorf("task %s missing after concurrent inserts", id)
		}
	}
}
