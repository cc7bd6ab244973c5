package taskpool

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"boxmux/internal/boxstate"
)

func TestChoiceExecutionOutranksQueuedRefresh(t *testing.T) {
	p := New(nil, 1, 1, 100, 10)
	p.ScheduleRefresh("panelA", []string{"echo refresh"}, boxstate.ModeThread, time.Second)
	p.ScheduleChoiceExecution("panelB", []string{"echo choice"}, boxstate.ModeImmediate, "")

	first := p.pop()
	if first == nil || first.Variant != VariantChoiceExecution || first.MuxBoxID != "panelB" {
		t.Fatalf("pop() = %+v, want the choice execution first", first)
	}
	second := p.pop()
	if second == nil || second.Variant != VariantRefresh || second.MuxBoxID != "panelA" {
		t.Fatalf("pop() = %+v, want the refresh task second", second)
	}
}

func TestStoppedRefreshIsSkippedUntilResumed(t *testing.T) {
	p := New(nil, 1, 1, 100, 10)
	p.ScheduleRefresh("panelA", []string{"echo refresh"}, boxstate.ModeThread, time.Second)
	p.StopRefresh("panelA")

	if task := p.pop(); task != nil {
		t.Fatalf("pop() = %+v, want nil while refresh is stopped", task)
	}

	p.ResumeRefresh("panelA")
	if task := p.pop(); task == nil || task.MuxBoxID != "panelA" {
		t.Fatalf("pop() after ResumeRefresh = %+v, want the panelA refresh task", task)
	}
}

func TestFutureScheduledTaskIsNotPopped(t *testing.T) {
	p := New(nil, 1, 1, 100, 10)
	p.mu.Lock()
	p.deque.PushBack(&TaskInfo{
		ID: uuid.New(), Variant: VariantRefresh, MuxBoxID: "panelA",
		ScheduledFor: time.Now().Add(time.Hour),
	})
	p.mu.Unlock()

	if task := p.pop(); task != nil {
		t.Fatalf("pop() = %+v, want nil for a future-scheduled task", task)
	}
}
