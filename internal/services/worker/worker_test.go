package worker

import (
	"fmt"
	"testing"
	"time"
)

// Jobs with a type the dispatch switch does not recognize are logged and
// skipped, which lets these tests exercise the queue without a database.
const jobTypeNoop JobType = "noop"

func TestStopDrainsQueuedJobs(t *testing.T) {
	p := NewPool(2, 16, nil, nil)

	for i := 0; i < 10; i++ {
		job := Job{ID: fmt.Sprintf("sheet-%d", i), Type: jobTypeNoop, CreatedAt: time.Now()}
		if err := p.Submit(job); err != nil {
			t.Fatalf("Submit(%d) returned error: %v", i, err)
		}
	}
	if got := p.QueueSize(); got != 10 {
		t.Fatalf("QueueSize() = %d before start, want 10", got)
	}

	p.Start()
	p.Stop()

	// Every job queued before Stop must have been dequeued and handled by
	// the time Stop returns; a worker bailing out early leaves jobs behind
	// with their sheets stuck in pending.
	if got := p.QueueSize(); got != 0 {
		t.Errorf("QueueSize() = %d after Stop, want 0", got)
	}

	select {
	case <-p.ctx.Done():
	default:
		t.Error("pool context should be cancelled once Stop returns")
	}
}

func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	p := NewPool(1, 2, nil, nil)

	for i := 0; i < 2; i++ {
		if err := p.Submit(Job{ID: fmt.Sprintf("sheet-%d", i), Type: jobTypeNoop}); err != nil {
			t.Fatalf("Submit(%d) returned error: %v", i, err)
		}
	}
	if err := p.Submit(Job{ID: "sheet-overflow", Type: jobTypeNoop}); err == nil {
		t.Error("Submit on a full queue should return an error")
	}
}
