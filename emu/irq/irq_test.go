/*
 * Kestrel - per-core interrupt controller test cases.
 *
 * Copyright 2026, Kestrel contributors
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

package irq

import (
	"testing"

	"github.com/kestrel-emu/kestrel/emu/bus"
)

func TestPendingRequiresIMEAndMask(t *testing.T) {
	c := New()

	if c.Pending(bus.CPUA) {
		t.Fatal("pending before any IE/IF/IME set")
	}

	c.SetIE(bus.CPUA, 0x1)
	c.Raise(bus.CPUA, 0x1)
	if c.Pending(bus.CPUA) {
		t.Fatal("pending without IME set")
	}

	c.SetIME(bus.CPUA, 1)
	if !c.Pending(bus.CPUA) {
		t.Fatal("expected pending once IME, IE and IF all line up")
	}
}

func TestAckIFClearsOnlyAckedBits(t *testing.T) {
	c := New()
	c.SetIME(bus.CPUA, 1)
	c.SetIE(bus.CPUA, 0x3)
	c.Raise(bus.CPUA, 0x3)

	c.AckIF(bus.CPUA, 0x1)
	if got := c.IF(bus.CPUA); got != 0x2 {
		t.Fatalf("IF after ack = %#x, want 0x2", got)
	}
	if !c.Pending(bus.CPUA) {
		t.Fatal("still pending on remaining unacked bit")
	}

	c.AckIF(bus.CPUA, 0x2)
	if c.Pending(bus.CPUA) {
		t.Fatal("expected no pending interrupt once both bits acked")
	}
}

func TestCoresAreIndependent(t *testing.T) {
	c := New()
	c.SetIME(bus.CPUA, 1)
	c.SetIE(bus.CPUA, 0x1)
	c.Raise(bus.CPUA, 0x1)

	if c.Pending(bus.CPUB) {
		t.Fatal("CPU B must not observe CPU A's pending interrupt")
	}
}
