package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/modularizer/gulfer/internal/domain/model"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	// Test empty queue
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	// Test enqueue
	sub1 := model.ScoreSubmission{SubmissionID: "sub1", EventID: "event1", StageID: "stage1", ParticipantID: "alice", Value: float64(4)}
	if !q.Enqueue(ctx, sub1) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	// Test dequeue
	subChan := q.Dequeue(ctx)
	sub := <-subChan
	if sub.SubmissionID != "sub1" {
		t.Errorf("expected sub1, got %v", sub.SubmissionID)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	sub1 := model.ScoreSubmission{SubmissionID: "sub1"}
	sub2 := model.ScoreSubmission{SubmissionID: "sub2"}
	sub3 := model.ScoreSubmission{SubmissionID: "sub3"}

	if !q.Enqueue(ctx, sub1) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, sub2) {
		t.Error("expected enqueue to succeed")
	}

	// Try to enqueue when full
	if q.Enqueue(ctx, sub3) {
		t.Error("expected enqueue to fail when queue is full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if q.IsClosed() {
		t.Error("expected queue to start open")
	}

	if err := q.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}

	// Closing again is a no-op
	if err := q.Close(); err != nil {
		t.Errorf("unexpected second close error: %v", err)
	}

	// Enqueue after close fails
	if q.Enqueue(ctx, model.ScoreSubmission{SubmissionID: "late"}) {
		t.Error("expected enqueue to fail on closed queue")
	}
}

func TestInMemoryQueue_DequeueDrainsAfterClose(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sub := model.ScoreSubmission{SubmissionID: fmt.Sprintf("sub%d", i)}
		if !q.Enqueue(ctx, sub) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	subChan := q.Dequeue(ctx)
	got := 0
	for range subChan {
		got++
	}
	if got != 3 {
		t.Errorf("expected 3 drained submissions, got %d", got)
	}
}

func TestInMemoryQueue_DequeueRespectsContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx, cancel := context.WithCancel(context.Background())

	subChan := q.Dequeue(ctx)
	cancel()

	if !q.Enqueue(context.Background(), model.ScoreSubmission{SubmissionID: "sub1"}) {
		t.Fatal("enqueue failed")
	}

	// The forwarding goroutine should stop once the consumer context is
	// cancelled; the channel closes without delivering.
	select {
	case _, ok := <-subChan:
		if ok {
			// Delivery raced the cancel; a second receive must observe close.
			if _, ok := <-subChan; ok {
				t.Error("expected channel to close after cancel")
			}
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for dequeue channel")
	}
}
