package sequencer

import "container/heap"

// TimerService schedules and fires correlation-id-keyed timers.
// Correlation ids are unique; re-scheduling an existing id replaces its
// deadline; cancelling an unknown id is a no-op. Ordering between
// simultaneously-due timers must be deterministic — this one fires strictly in
// deadline order; timers with equal deadlines fire in the order the
// container/heap layout yields them, which is fixed for a given sequence of
// schedule/cancel/poll calls but is not, in general, scheduling order
// (container/heap is not a stable priority queue).
type TimerService struct {
	heap   timerHeap
	index  map[int64]int // correlationID -> index into heap, for cancel/reschedule
	onFire func(correlationID int64, nowMs int64) bool
}

// NewTimerService constructs a TimerService. onFire is called once per due
// timer by Poll; it must return whether the fire was accepted (mirrors
// LogAppender.AppendTimerEvent's success boolean) — a false return leaves
// the timer scheduled for a retry on the next Poll.
func NewTimerService(onFire func(correlationID int64, nowMs int64) bool) *TimerService {
	return &TimerService{
		heap:   make(timerHeap, 0),
		index:  make(map[int64]int),
		onFire: onFire,
	}
}

// timerEntry is one scheduled timer.
type timerEntry struct {
	correlationID int64
	deadlineMs    int64
}

// timerHeap is a min-heap ordered by deadline, built on container/heap
// over a slice of entries.
type timerHeap []timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadlineMs < h[j].deadlineMs }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)         { *h = append(*h, x.(timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// ScheduleTimer schedules correlationID to fire at deadlineMs. If
// correlationID is already scheduled, its deadline is replaced in place.
func (t *TimerService) ScheduleTimer(correlationID int64, deadlineMs int64) {
	t.CancelTimer(correlationID)
	heap.Push(&t.heap, timerEntry{correlationID: correlationID, deadlineMs: deadlineMs})
	t.reindex()
}

// CancelTimer cancels correlationID. Cancelling an unknown id is a no-op.
func (t *TimerService) CancelTimer(correlationID int64) {
	idx, ok := t.index[correlationID]
	if !ok {
		return
	}
	heap.Remove(&t.heap, idx)
	delete(t.index, correlationID)
	t.reindex()
}

// reindex rebuilds the correlationID -> heap-index map. The heap is small
// (bounded by in-flight timers for active sessions, not by message volume),
// so a full rebuild after each mutation is simpler and cheap enough to be
// preferable to maintaining index pointers through every heap.Fix/Swap.
func (t *TimerService) reindex() {
	for k := range t.index {
		delete(t.index, k)
	}
	for i, e := range t.heap {
		t.index[e.correlationID] = i
	}
}

// Poll fires every timer with deadline <= nowMs, in deadline order, and
// returns the number of timers successfully fired (one unit of work each).
// A timer whose onFire callback returns false stays scheduled and is
// retried on the next Poll; a refusal for one due timer does not block
// other, independently-due timers from firing within the same Poll call —
// it pops the root (the only element the heap invariant guarantees is
// due-ordered relative to the rest) repeatedly, and re-pushes anything
// onFire refuses, rather than assuming the underlying array is sorted.
func (t *TimerService) Poll(nowMs int64) int {
	fired := 0
	var refused []timerEntry
	for t.heap.Len() > 0 && t.heap[0].deadlineMs <= nowMs {
		entry := heap.Pop(&t.heap).(timerEntry)
		if t.onFire(entry.correlationID, nowMs) {
			fired++
			continue
		}
		refused = append(refused, entry)
	}
	for _, entry := range refused {
		heap.Push(&t.heap, entry)
	}
	if fired == 0 && len(refused) == 0 {
		return 0
	}
	t.reindex()
	return fired
}

// Len reports the number of timers currently scheduled.
func (t *TimerService) Len() int {
	return t.heap.Len()
}
