// timer.go - Discrete-event timer wheel
//
// A min-heap of pending events keyed by a 64-bit virtual-time deadline,
// advanced in lockstep with CPU cycle retirement by the execution loop.
// Cooperative and single-threaded: callbacks run synchronously on the
// caller of ProcessExpired and must not block or recurse into the CPU.
package main

import "container/heap"

// Cycle is a monotonic virtual-time counter, in emulated CPU cycles
// since power-on.
type Cycle int64

// TimerID identifies a registered timer event.
type TimerID uint32

// TimerEvent is one entry in the wheel.
type TimerEvent struct {
	Deadline Cycle
	Period   Cycle // zero means one-shot
	Callback func(priv any)
	Priv     any
	Enabled  bool

	id  TimerID
	seq uint64 // insertion sequence, breaks deadline ties in FIFO order
}

type timerHeap []*TimerEvent

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].Deadline != h[j].Deadline {
		return h[i].Deadline < h[j].Deadline
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*TimerEvent)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// TimerWheel orders timer events relative to the machine's cycle counter.
type TimerWheel struct {
	heap    timerHeap
	nextID  TimerID
	nextSeq uint64
	byID    map[TimerID]*TimerEvent
	now     Cycle
}

// NewTimerWheel returns an empty wheel.
func NewTimerWheel() *TimerWheel {
	return &TimerWheel{byID: make(map[TimerID]*TimerEvent)}
}

// Add inserts e (deadline already set by the caller), marks it enabled,
// and returns its ID.
func (w *TimerWheel) Add(e *TimerEvent) TimerID {
	w.nextID++
	e.id = w.nextID
	e.Enabled = true
	w.nextSeq++
	e.seq = w.nextSeq
	w.byID[e.id] = e
	heap.Push(&w.heap, e)
	return e.id
}

// Now returns the wheel's current virtual time, as last advanced by
// ProcessExpired.
func (w *TimerWheel) Now() Cycle { return w.now }

// SetDelay reschedules id to fire `cycles` cycles from the wheel's
// current time.
func (w *TimerWheel) SetDelay(id TimerID, cycles Cycle) {
	if e, ok := w.byID[id]; ok {
		e.Deadline = w.now + cycles
		heap.Fix(&w.heap, w.indexOf(e))
	}
}

// Advance reschedules id to fire `cycles` cycles after its *previous*
// deadline, keeping periodic timers phase-stable instead of drifting
// relative to whenever ProcessExpired happened to run.
func (w *TimerWheel) Advance(id TimerID, cycles Cycle) {
	if e, ok := w.byID[id]; ok {
		e.Deadline += cycles
		heap.Fix(&w.heap, w.indexOf(e))
	}
}

// Disable removes id from consideration; its deadline is preserved so
// Enable can re-insert it unchanged.
func (w *TimerWheel) Disable(id TimerID) {
	if e, ok := w.byID[id]; ok {
		e.Enabled = false
	}
}

// Enable re-arms a previously disabled event at its stored deadline. If
// ProcessExpired already popped it off the heap while it was disabled,
// this re-inserts it; otherwise it was still sitting in the heap
// (merely skipped by NextDeadline/ProcessExpired) and is left in place.
func (w *TimerWheel) Enable(id TimerID) {
	e, ok := w.byID[id]
	if !ok {
		return
	}
	e.Enabled = true
	if w.indexOf(e) < 0 {
		heap.Push(&w.heap, e)
	}
}

func (w *TimerWheel) indexOf(e *TimerEvent) int {
	for i, x := range w.heap {
		if x == e {
			return i
		}
	}
	return -1
}

// NextDeadline reports the earliest deadline in the wheel, or ok=false
// if the wheel is empty. Disabled events are skipped.
func (w *TimerWheel) NextDeadline() (deadline Cycle, ok bool) {
	for _, e := range w.heap {
		if e.Enabled {
			if !ok || e.Deadline < deadline {
				deadline, ok = e.Deadline, true
			}
		}
	}
	return
}

// ProcessExpired fires every enabled event with Deadline <= now, in
// deadline order (ties broken FIFO by insertion order), re-arming
// periodic events by Deadline += Period. Disabled events are dropped
// from the heap on this pass; Enable re-inserts them at the stored
// deadline.
func (w *TimerWheel) ProcessExpired(now Cycle) {
	w.now = now
	for w.heap.Len() > 0 {
		top := w.heap[0]
		if !top.Enabled {
			heap.Pop(&w.heap)
			continue
		}
		if top.Deadline > now {
			break
		}
		heap.Pop(&w.heap)
		cb, priv := top.Callback, top.Priv
		if top.Period > 0 {
			top.Deadline += top.Period
			heap.Push(&w.heap, top)
		} else {
			delete(w.byID, top.id)
		}
		if cb != nil {
			cb(priv)
		}
	}
}
