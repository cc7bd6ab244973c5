// Package taskpool implements the TaskPool (UnifiedThreadPool) of
// spec.md §4.4: a fixed worker pool draining a priority deque of periodic
// refresh tasks and one-shot choice executions, bounded by a
// max-concurrent-tasks semaphore, grounded on
// original_source/src/unified_thread_pool.rs.
package taskpool

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"boxmux/internal/boxstate"
	"boxmux/internal/bus"
	"boxmux/internal/execstream"
	"boxmux/internal/ratelimit"
)

// Variant tags a scheduled Task's kind.
type Variant int

const (
	VariantRefresh Variant = iota
	VariantChoiceExecution
)

// TaskInfo mirrors the Rust TaskInfo: a queued unit of work plus its
// scheduling metadata.
type TaskInfo struct {
	ID            uuid.UUID
	Variant       Variant
	MuxBoxID      string
	Script        []string
	Mode          boxstate.ExecutionMode
	RedirectTo    string
	ScheduledFor  time.Time
	Periodic      bool
	Interval      time.Duration
	LastExecution time.Time
}

// Pool is the TaskPool worker. It embeds bus.Base so it participates in
// the bus like every other worker, receiving ExecuteScript/
// StopMuxBoxRefresh/StartMuxBoxRefresh messages and re-publishing the
// executor's output as StreamUpdate/StreamingComplete.
type Pool struct {
	bus.Base

	log      *slog.Logger
	executor *execstream.Executor
	limiter  *ratelimit.Limiter
	sem      *semaphore.Weighted

	mu       sync.Mutex
	deque    *list.List // front = highest priority (choice executions)
	stopped  map[string]bool

	workerCount int
}

// New constructs a Pool with workerCount goroutines draining the deque,
// at most maxConcurrent scripts running at once. Executor output passes
// through a RateLimiter before reaching the bus, per spec.md §4's
// StreamingExecutor → RateLimiter → RealTimeUpdateManager → Bus dataflow.
func New(log *slog.Logger, workerCount, maxConcurrent, maxLinesPerSecond, maxQueueSize int) *Pool {
	if log == nil {
		log = slog.Default()
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Pool{
		Base:        bus.NewBase(64),
		log:         log,
		executor:    execstream.New(256),
		limiter:     ratelimit.New(log, maxLinesPerSecond, maxQueueSize),
		sem:         semaphore.NewWeighted(int64(maxConcurrent)),
		deque:       list.New(),
		stopped:     map[string]bool{},
		workerCount: workerCount,
	}
}

// ScheduleRefresh enqueues a periodic refresh task for muxboxID, pushed
// to the back of the deque (lowest priority) per spec.md §4.4.
func (p *Pool) ScheduleRefresh(muxboxID string, script []string, mode boxstate.ExecutionMode, interval time.Duration) uuid.UUID {
	id := uuid.New()
	p.mu.Lock()
	p.deque.PushBack(&TaskInfo{
		ID: id, Variant: VariantRefresh, MuxBoxID: muxboxID, Script: script, Mode: mode,
		ScheduledFor: time.Now(), Periodic: true, Interval: interval,
	})
	p.mu.Unlock()
	return id
}

// ScheduleChoiceExecution enqueues a one-shot choice execution, pushed to
// the front of the deque (highest priority) so interactive choices don't
// wait behind a backlog of periodic refreshes.
func (p *Pool) ScheduleChoiceExecution(muxboxID string, script []string, mode boxstate.ExecutionMode, redirectTo string) uuid.UUID {
	id := uuid.New()
	p.mu.Lock()
	p.deque.PushFront(&TaskInfo{
		ID: id, Variant: VariantChoiceExecution, MuxBoxID: muxboxID, Script: script, Mode: mode,
		RedirectTo: redirectTo, ScheduledFor: time.Now(),
	})
	p.mu.Unlock()
	return id
}

// StopRefresh marks muxboxID's refresh tasks as suspended; already-queued
// entries are skipped by workers until ResumeRefresh is called.
func (p *Pool) StopRefresh(muxboxID string) {
	p.mu.Lock()
	p.stopped[muxboxID] = true
	p.mu.Unlock()
}

// ResumeRefresh clears a prior StopRefresh.
func (p *Pool) ResumeRefresh(muxboxID string) {
	p.mu.Lock()
	delete(p.stopped, muxboxID)
	p.mu.Unlock()
}

func (p *Pool) pop() *TaskInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	for e := p.deque.Front(); e != nil; e = e.Next() {
		ti := e.Value.(*TaskInfo)
		if ti.ScheduledFor.After(time.Now()) {
			continue
		}
		if ti.Variant == VariantRefresh && p.stopped[ti.MuxBoxID] {
			continue
		}
		p.deque.Remove(e)
		return ti
	}
	return nil
}

func (p *Pool) reschedule(ti *TaskInfo) {
	if !ti.Periodic {
		return
	}
	ti.LastExecution = time.Now()
	ti.ScheduledFor = ti.LastExecution.Add(ti.Interval)
	p.mu.Lock()
	p.deque.PushBack(ti)
	p.mu.Unlock()
}

// Run launches the worker goroutines and the bus-message listener,
// blocking until ctx is cancelled or Terminate arrives.
func (p *Pool) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.workerLoop(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.limiter.Run(ctx)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.pumpExecutorOutput(ctx)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.pumpLimitedOutput(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case env := <-p.MessageIn():
			if p.handle(ctx, env.Message) {
				wg.Wait()
				return nil
			}
		}
	}
}

func (p *Pool) handle(ctx context.Context, msg bus.Message) (stop bool) {
	switch m := msg.(type) {
	case bus.Terminate:
		return true
	case bus.ExecuteScript:
		p.ScheduleChoiceExecution(m.MuxBoxID, m.Script, m.ExecutionMode, m.RedirectTo)
	case bus.MuxBoxScriptUpdate:
		p.ScheduleRefresh(m.ID, m.Script, boxstate.ModeThread, time.Second)
	case bus.StopMuxBoxRefresh:
		p.StopRefresh(m.ID)
	case bus.StartMuxBoxRefresh:
		p.ResumeRefresh(m.ID)
	}
	return false
}

func (p *Pool) workerLoop(ctx context.Context) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ti := p.pop()
			if ti == nil {
				continue
			}
			if err := p.sem.Acquire(ctx, 1); err != nil {
				return
			}
			p.executor.Run(ctx, ti.MuxBoxID, ti.Script, ti.Mode)
			p.sem.Release(1)
			p.reschedule(ti)
		}
	}
}

// pumpExecutorOutput offers the executor's line events to the rate
// limiter (spec.md §4.6) and republishes completion events directly,
// since only line volume needs throttling.
func (p *Pool) pumpExecutorOutput(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-p.executor.Lines():
			p.limiter.Offer(line)
		case c := <-p.executor.Done():
			p.SendMessage(bus.StreamingComplete{MuxBoxID: c.MuxBoxID, Success: c.Success})
		}
	}
}

// pumpLimitedOutput republishes the rate limiter's admitted lines as
// StreamUpdate bus messages, preserving the executor's monotonic
// per-stream sequence numbers.
func (p *Pool) pumpLimitedOutput(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-p.limiter.Out():
			if !ok {
				return
			}
			line, ok := item.(execstream.OutputLine)
			if !ok {
				continue
			}
			p.SendMessage(bus.StreamUpdate{
				MuxBoxID: line.MuxBoxID,
				Line:     line.Content,
				IsStderr: line.IsStderr,
				Sequence: line.Sequence,
			})
		}
	}
}
