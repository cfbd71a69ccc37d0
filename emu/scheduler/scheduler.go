/*
 * Kestrel - deterministic event scheduler.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package scheduler is the global delta-queue event scheduler shared by both
// CPU cores, the cartridge protocol engine and the bus timing model. Delay is
// stored relative to the previous node rather than as an absolute cycle
// count, so advancing the clock only ever has to touch the head of the queue.
package scheduler

// Callback is invoked when a scheduled event fires, with the param passed
// to Schedule.
type Callback func(param int)

// Handle identifies a pending event so it can be cancelled before it fires.
type Handle int

// None is returned by Schedule for events that ran immediately (delay <= 0)
// and for events dropped because the pool was exhausted; neither kind was
// inserted into the queue.
const None Handle = -1

type node struct {
	delay int // cycles since the previous node in the chain fires
	cb    Callback
	param int
	prev  int
	next  int
}

// Scheduler is a fixed-capacity delta queue. Cancelled and fired nodes return
// to a free list threaded through node.next; a nil Callback tags a slot as
// free so Cancel can tell a live node from a stale handle.
type Scheduler struct {
	pool      []node
	head      int
	tail      int
	free      int
	overflown bool // sticky once the pool has been exhausted once
}

const none = -1

// New allocates a scheduler with room for capacity simultaneously pending
// events. Scheduling past capacity does not grow the pool; Schedule returns
// None and the scheduler latches Overflowed instead.
func New(capacity int) *Scheduler {
	s := &Scheduler{
		pool: make([]node, capacity),
		head: none,
		tail: none,
		free: 0,
	}
	for i := range s.pool {
		s.pool[i].next = i + 1
	}
	s.pool[capacity-1].next = none
	return s
}

// alloc takes a free node off the pool. ok is false if the pool is
// exhausted; the caller must not schedule anything in that case.
func (s *Scheduler) alloc() (idx int, ok bool) {
	if s.free == none {
		s.overflown = true
		return 0, false
	}
	idx = s.free
	s.free = s.pool[idx].next
	return idx, true
}

func (s *Scheduler) release(idx int) {
	s.pool[idx] = node{next: s.free}
	s.free = idx
}

// Schedule arranges for cb(param) to run after delay cycles have elapsed. A
// delay of zero or less runs cb immediately and synchronously, returning
// None since nothing was queued. Schedule returns None and leaves cb
// unqueued if the event pool is exhausted — spec.md §4.1/§7 call this a
// hard bug the caller observes (via Overflowed) rather than a panic that
// would crash the whole process.
func (s *Scheduler) Schedule(delay int, cb Callback, param int) Handle {
	if delay <= 0 {
		cb(param)
		return None
	}

	idx, ok := s.alloc()
	if !ok {
		return None
	}
	s.pool[idx] = node{delay: delay, cb: cb, param: param, prev: none, next: none}

	cur := s.head
	if cur == none {
		s.head = idx
		s.tail = idx
		return Handle(idx)
	}

	for cur != none {
		if s.pool[idx].delay < s.pool[cur].delay {
			s.pool[cur].delay -= s.pool[idx].delay
			s.pool[idx].prev = s.pool[cur].prev
			s.pool[idx].next = cur
			s.pool[cur].prev = idx
			if s.pool[idx].prev != none {
				s.pool[s.pool[idx].prev].next = idx
			} else {
				s.head = idx
			}
			return Handle(idx)
		}
		s.pool[idx].delay -= s.pool[cur].delay
		cur = s.pool[cur].next
	}

	s.pool[idx].prev = s.tail
	s.pool[s.tail].next = idx
	s.tail = idx
	return Handle(idx)
}

// Cancel removes a pending event. Cancelling an already-fired or
// already-cancelled handle is a no-op.
func (s *Scheduler) Cancel(h Handle) {
	idx := int(h)
	if idx < 0 || idx >= len(s.pool) || s.pool[idx].cb == nil {
		return
	}

	nxt := s.pool[idx].next
	prv := s.pool[idx].prev

	if nxt != none {
		s.pool[nxt].delay += s.pool[idx].delay
		s.pool[nxt].prev = prv
	} else {
		s.tail = prv
	}

	if prv != none {
		s.pool[prv].next = nxt
	} else {
		s.head = nxt
	}

	s.release(idx)
}

// Advance moves the clock forward by cycles, firing every event whose delay
// is exhausted. A callback may itself schedule new events; those observe the
// remaining queue. Ties at the same cycle fire in FIFO order because
// Schedule never reorders a new node ahead of an earlier one with equal
// remaining delay.
func (s *Scheduler) Advance(cycles int) {
	if s.head == none {
		return
	}

	s.pool[s.head].delay -= cycles
	for s.head != none && s.pool[s.head].delay <= 0 {
		idx := s.head
		cb := s.pool[idx].cb
		param := s.pool[idx].param
		overshoot := s.pool[idx].delay
		s.head = s.pool[idx].next
		if s.head != none {
			s.pool[s.head].prev = none
			s.pool[s.head].delay += overshoot
		} else {
			s.tail = none
		}
		s.release(idx)
		cb(param)
	}
}

// Pending reports whether any event is still queued.
func (s *Scheduler) Pending() bool {
	return s.head != none
}

// Overflowed reports whether Schedule has ever failed to allocate a node
// because the pool was full. It stays true once set; the scheduler has no
// way to un-overflow short of discarding it, and a caller that hit this
// should be treating the run as dead already.
func (s *Scheduler) Overflowed() bool {
	return s.overflown
}
