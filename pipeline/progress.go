package pipeline

import (
	"sync"
	"time"

	"github.com/tgergo1/superblocker/plan"
)

// Queue sizing and heartbeat cadence of the progress transport.
const (
	DefaultQueueCapacity     = 64
	DefaultHeartbeatInterval = 15 * time.Second
)

// ProgressQueue carries progress events from the pipeline to the request
// handler. Put never blocks: when the buffer is full the event is dropped.
// When no real event arrives within the heartbeat interval a synthetic
// progress record is injected so consumers can tell slow work from a hang.
type ProgressQueue struct {
	ch   chan plan.Progress
	stop chan struct{}

	mu     sync.Mutex
	closed bool
	last   time.Time
	tmpl   plan.Progress
}

// NewProgressQueue builds a queue with the given capacity (≤0 selects the
// default) and starts the heartbeat timer; interval ≤0 disables it.
func NewProgressQueue(capacity int, interval time.Duration) *ProgressQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	q := &ProgressQueue{
		ch:   make(chan plan.Progress, capacity),
		stop: make(chan struct{}),
		last: time.Now(),
		tmpl: plan.Progress{Type: plan.ProgressTypeProgress, Message: "still working..."},
	}
	if interval > 0 {
		go q.heartbeat(interval)
	}

	return q
}

// Put offers an event; a full buffer discards it.
func (q *ProgressQueue) Put(p plan.Progress) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.last = time.Now()
	q.tmpl.Stage = p.Stage
	q.tmpl.Percent = p.Percent

	select {
	case q.ch <- p:
	default:
	}
}

// Events is the consumer side of the queue.
func (q *ProgressQueue) Events() <-chan plan.Progress { return q.ch }

// Close stops the heartbeat and closes the event channel. Call once the
// producer is done.
func (q *ProgressQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.stop)
	close(q.ch)
}

// heartbeat injects a synthetic record whenever the queue has been silent
// for a full interval.
func (q *ProgressQueue) heartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-q.stop:
			return
		case <-ticker.C:
			q.mu.Lock()
			if !q.closed && time.Since(q.last) >= interval {
				select {
				case q.ch <- q.tmpl:
				default:
				}
			}
			q.mu.Unlock()
		}
	}
}
