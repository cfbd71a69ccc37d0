/*
 * Kestrel - event scheduler test cases.
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

package scheduler

import "testing"

type recorder struct {
	iarg int
	time int
}

func (r *recorder) cb(iarg int) {
	r.iarg = iarg
	r.time = globalStep
}

var globalStep int

func TestScheduleFires(t *testing.T) {
	globalStep = 0
	s := New(16)
	var a recorder
	s.Schedule(10, a.cb, 1)
	for range 20 {
		globalStep++
		s.Advance(1)
	}
	if a.time != 10 {
		t.Errorf("event did not fire at correct time: want 10 got %d", a.time)
	}
	if a.iarg != 1 {
		t.Errorf("event did not carry correct param: want 1 got %d", a.iarg)
	}
}

func TestScheduleTwoOutOfOrder(t *testing.T) {
	globalStep = 0
	s := New(16)
	var a, b recorder
	s.Schedule(10, a.cb, 1)
	s.Schedule(5, b.cb, 2)
	for range 20 {
		globalStep++
		s.Advance(1)
	}
	if a.time != 10 || a.iarg != 1 {
		t.Errorf("event a: want time=10 iarg=1 got time=%d iarg=%d", a.time, a.iarg)
	}
	if b.time != 5 || b.iarg != 2 {
		t.Errorf("event b: want time=5 iarg=2 got time=%d iarg=%d", b.time, b.iarg)
	}
}

func TestScheduleSameTimeFIFO(t *testing.T) {
	globalStep = 0
	s := New(16)
	order := make([]int, 0, 2)
	cbA := func(iarg int) { order = append(order, iarg) }
	s.Schedule(10, cbA, 1)
	s.Schedule(10, cbA, 2)
	for range 20 {
		globalStep++
		s.Advance(1)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("events did not fire in FIFO order: got %v", order)
	}
}

func TestScheduleFromWithinCallback(t *testing.T) {
	globalStep = 0
	s := New(16)
	var a, c recorder
	ccb := func(iarg int) {
		c.iarg = iarg
		c.time = globalStep
		s.Schedule(iarg, a.cb, iarg)
	}
	s.Schedule(10, ccb, 2)
	for range 30 {
		globalStep++
		s.Advance(1)
	}
	if c.time != 10 || c.iarg != 2 {
		t.Errorf("event c: want time=10 iarg=2 got time=%d iarg=%d", c.time, c.iarg)
	}
	if a.time != 12 || a.iarg != 2 {
		t.Errorf("event a rescheduled from c: want time=12 iarg=2 got time=%d iarg=%d", a.time, a.iarg)
	}
}

func TestCancelEvent(t *testing.T) {
	globalStep = 0
	s := New(16)
	var a, b recorder
	s.Schedule(10, a.cb, 5)
	hb := s.Schedule(20, b.cb, 2)
	for range 30 {
		globalStep++
		s.Advance(1)
		if a.iarg == 5 {
			s.Cancel(hb)
		}
	}
	if a.time != 10 || a.iarg != 5 {
		t.Errorf("event a: want time=10 iarg=5 got time=%d iarg=%d", a.time, a.iarg)
	}
	if b.time != 0 || b.iarg != 0 {
		t.Errorf("cancelled event b fired: time=%d iarg=%d", b.time, b.iarg)
	}
}

func TestCancelMiddleOfQueue(t *testing.T) {
	globalStep = 0
	s := New(16)
	var a, b, d recorder
	s.Schedule(10, a.cb, 5)
	hb := s.Schedule(40, b.cb, 2)
	s.Schedule(30, d.cb, 3)
	for range 60 {
		globalStep++
		s.Advance(1)
		if a.iarg == 5 {
			s.Cancel(hb)
		}
	}
	if d.time != 30 || d.iarg != 3 {
		t.Errorf("event d: want time=30 iarg=3 got time=%d iarg=%d", d.time, d.iarg)
	}
	if b.time != 0 || b.iarg != 0 {
		t.Errorf("cancelled event b fired: time=%d iarg=%d", b.time, b.iarg)
	}
}

func TestZeroDelayFiresImmediately(t *testing.T) {
	globalStep = 5
	s := New(16)
	var a recorder
	h := s.Schedule(0, a.cb, 9)
	if h != None {
		t.Errorf("zero-delay schedule should return None handle, got %d", h)
	}
	if a.iarg != 9 || a.time != 5 {
		t.Errorf("zero-delay event did not fire synchronously: iarg=%d time=%d", a.iarg, a.time)
	}
}

func TestPending(t *testing.T) {
	s := New(4)
	if s.Pending() {
		t.Errorf("empty scheduler reports pending")
	}
	var a recorder
	s.Schedule(5, a.cb, 1)
	if !s.Pending() {
		t.Errorf("scheduler with a queued event reports not pending")
	}
	s.Advance(5)
	if s.Pending() {
		t.Errorf("scheduler reports pending after its only event fired")
	}
}

func TestScheduleExhaustionReturnsNoneAndLatchesOverflow(t *testing.T) {
	s := New(2)
	var a, b, c recorder
	h1 := s.Schedule(10, a.cb, 1)
	h2 := s.Schedule(20, b.cb, 2)
	if h1 == None || h2 == None {
		t.Fatalf("expected both schedules to fit in capacity")
	}
	if s.Overflowed() {
		t.Fatalf("scheduler reports overflow before the pool is full")
	}

	h3 := s.Schedule(30, c.cb, 3)
	if h3 != None {
		t.Errorf("schedule past capacity should return None, got %d", h3)
	}
	if !s.Overflowed() {
		t.Errorf("scheduler should report overflow once the pool is exhausted")
	}

	s.Advance(30)
	if c.iarg == 3 {
		t.Errorf("event dropped by pool exhaustion fired anyway")
	}
}

func TestCapacityReuse(t *testing.T) {
	s := New(2)
	var a recorder
	h1 := s.Schedule(10, a.cb, 1)
	s.Cancel(h1)
	h2 := s.Schedule(5, a.cb, 2)
	h3 := s.Schedule(7, a.cb, 3)
	if h2 == None || h3 == None {
		t.Fatalf("expected both schedules to queue after freeing a slot")
	}
	s.Advance(10)
	if a.iarg != 3 {
		t.Errorf("want last event param 3, got %d", a.iarg)
	}
}
