// Package ratelimit implements the RateLimiter of spec.md §4.6: a token
// bucket gating how many StreamUpdate lines may be forwarded per second,
// backed by a bounded overflow queue so a burst doesn't simply block the
// producer.
package ratelimit

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"
)

// Limiter wraps golang.org/x/time/rate.Limiter with a bounded overflow
// queue: Offer never blocks the caller. When the token bucket has
// capacity the item is let through immediately; otherwise it is queued
// (dropping the oldest entry if the queue is already full) and drained
// later by Run.
type Limiter struct {
	rl    *rate.Limiter
	queue chan any
	out   chan any
	log   *slog.Logger

	dropped int
}

// New builds a Limiter allowing maxPerSecond items/sec with a burst equal
// to maxPerSecond, buffering up to maxQueueSize items beyond the
// instantaneous rate.
func New(log *slog.Logger, maxPerSecond, maxQueueSize int) *Limiter {
	if log == nil {
		log = slog.Default()
	}
	if maxPerSecond <= 0 {
		maxPerSecond = 1
	}
	if maxQueueSize <= 0 {
		maxQueueSize = 1
	}
	return &Limiter{
		rl:    rate.NewLimiter(rate.Limit(maxPerSecond), maxPerSecond),
		queue: make(chan any, maxQueueSize),
		out:   make(chan any, maxQueueSize),
		log:   log,
	}
}

// Out receives items once they have cleared the rate limit.
func (l *Limiter) Out() <-chan any { return l.out }

// Offer submits one item for rate-limited forwarding. If the overflow
// queue is full, the oldest queued item is dropped to make room (spec.md
// §4.6: "bounded overflow queue ... oldest entries are dropped first").
func (l *Limiter) Offer(item any) {
	if l.rl.Allow() {
		select {
		case l.out <- item:
			return
		default:
			// out is also bounded; fall through to queueing.
		}
	}
	select {
	case l.queue <- item:
	default:
		select {
		case <-l.queue:
			l.dropped++
			l.log.Debug("ratelimit: overflow queue full, dropping oldest", "total_dropped", l.dropped)
		default:
		}
		select {
		case l.queue <- item:
		default:
		}
	}
}

// Run drains the overflow queue as the token bucket permits, until ctx is
// cancelled.
func (l *Limiter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item := <-l.queue:
			if err := l.rl.Wait(ctx); err != nil {
				return err
			}
			select {
			case l.out <- item:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Dropped returns the total number of items dropped due to overflow.
func (l *Limiter) Dropped() int { return l.dropped }
