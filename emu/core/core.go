/*
   Kestrel system core: frame loop tying the scheduler, both CPUs, the bus
   and the cartridge slot together.

   Copyright (c) 2024, Richard Cornwell
   Copyright (c) 2026, Kestrel contributors

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package core

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kestrel-emu/kestrel/emu/bus"
	"github.com/kestrel-emu/kestrel/emu/cart"
	"github.com/kestrel-emu/kestrel/emu/cpu"
	"github.com/kestrel-emu/kestrel/emu/irq"
	"github.com/kestrel-emu/kestrel/emu/scheduler"
)

// PacketKind tags a control-queue entry, the handheld analogue of the
// teacher's master.Packet.Msg - generalized from telnet/IPL device
// messages to the host API spec.md §6 names (button/lid/touch input plus
// run control).
type PacketKind int

const (
	PacketPressButtons PacketKind = iota
	PacketReleaseButtons
	PacketSetLid
	PacketTouch
	PacketReleaseTouch
	PacketStart
	PacketStop
	PacketReset
)

// Packet is one host-originated command, posted through System.Post and
// drained on the run loop's control-check points.
type Packet struct {
	Msg     PacketKind
	Buttons uint32
	LidShut bool
	TouchX  int
	TouchY  int
}

// sliceBudget is how many CPU-A cycles the frame loop advances per
// scheduling quantum before draining the control queue and advancing the
// scheduler; CPU B is stepped at half that, the fixed clock ratio between
// the two cores.
const sliceBudget = 64

// System is the emulation context described by spec.md §5: every component
// is reachable from here by logical ownership, and it is driven from a
// single logical thread.
type System struct {
	wg      sync.WaitGroup
	done    chan struct{}
	control chan Packet
	running bool

	CPUA  *cpu.CPU
	CPUB  *cpu.CPU
	Bus   *bus.Bus
	Sched *scheduler.Scheduler
	IRQ   *irq.Controller
	Cart  *cart.Cart

	creditA int // negative credit carried over from an overshot slice
	creditB int

	buttons uint32
	log     *slog.Logger
}

// New builds a system with both BIOS images installed and both cores wired
// to the shared bus, scheduler and interrupt controller.
func New(bios9, bios7 []byte, log *slog.Logger) *System {
	if log == nil {
		log = slog.Default()
	}
	b := bus.New(bios9, bios7)
	irqCtrl := irq.New()

	s := &System{
		done:    make(chan struct{}),
		control: make(chan Packet, 16),
		Bus:     b,
		Sched:   scheduler.New(64),
		IRQ:     irqCtrl,
		log:     log,
	}

	s.CPUA = cpu.New(bus.CPUA, b)
	s.CPUB = cpu.New(bus.CPUB, b)
	s.CPUA.SetHaltWake(func() bool { return irqCtrl.Pending(bus.CPUA) })
	s.CPUB.SetHaltWake(func() bool { return irqCtrl.Pending(bus.CPUB) })

	return s
}

// LoadCart parses the ROM header, builds the appropriate save-memory chip
// and cart variant, seeds the KEY1 key buffer from the CPU-B BIOS image,
// and attaches the slot's MMIO registers to the bus - spec.md §6's
// `load_rom(bytes, save_bytes_optional, sdcard_image_optional)`.
func (s *System) LoadCart(rom, save, sdcard, bios7 []byte) error {
	hdr, err := cart.ParseHeader(rom)
	if err != nil {
		return fmt.Errorf("core: load_rom: %w", err)
	}

	variant := cart.Retail
	var saveMem *cart.SaveMemory
	switch {
	case hdr.NANDSaveWin != 0:
		variant = cart.RetailNAND
		saveMem = cart.NewSaveMemory(cart.ChipNAND, 1<<22, save, s.persistSave)
	case len(sdcard) > 0:
		variant = cart.Homebrew
	default:
		saveMem = cart.NewSaveMemory(cart.ChipEEPROM, 1<<16, save, s.persistSave)
	}

	c := cart.New(rom, hdr, variant, saveMem, s.Sched, s.IRQ, s.log)
	c.SetKeyBuf(cart.NewKeyBuf(bios7))
	c.AttachToBus(s.Bus)
	s.Cart = c
	return nil
}

// persistSave is the host persistence callback named in spec.md §6; a real
// host overrides this by wrapping System in the same way the teacher's
// master-packet channel seams telnet I/O out to the host.
func (s *System) persistSave(data []byte, offset, length int) {
	s.log.Debug("cart: save flush", "offset", offset, "length", length)
}

// Reset brings both cores and the cart back to their post-power-on state.
func (s *System) Reset() {
	s.CPUA.Reset()
	s.CPUB.Reset()
	if s.Cart != nil {
		s.Cart.Reset()
	}
	s.creditA, s.creditB = 0, 0
}

// RunFrame advances the emulation by up to totalCycles CPU-A cycles,
// returning the cycles actually consumed - spec.md §6's
// `run_frame() -> cycles_or_stopped`. It alternates a CPU-A slice and a
// proportional CPU-B slice, draining the scheduler in between, per §5's
// cooperative single-thread model: nothing suspends within a frame except
// the call boundary itself.
func (s *System) RunFrame(totalCycles int) int {
	consumed := 0
	for consumed < totalCycles {
		if !s.running {
			break
		}

		wantA := sliceBudget + s.creditA
		if wantA < 1 {
			wantA = 1
		}
		usedA := s.CPUA.Execute(wantA)
		s.creditA = wantA - usedA

		wantB := wantA/2 + s.creditB
		if wantB < 1 {
			wantB = 1
		}
		usedB := s.CPUB.Execute(wantB)
		s.creditB = wantB - usedB

		s.Sched.Advance(usedA)
		consumed += usedA

		if s.Sched.Overflowed() {
			// Scheduler exhaustion is a fatal class (spec.md §4.1/§7): stop the
			// run cleanly rather than let a dropped event silently desync the
			// machine. Every later RunFrame call returns 0 immediately.
			s.running = false
			s.log.Error("core: scheduler event pool exhausted, stopping")
			break
		}
	}
	return consumed
}

// Start runs the system continuously until Stop is called, mirroring the
// teacher's core.Start goroutine-plus-done-channel shape: the caller
// launches this as its own goroutine (`go system.Start()`).
func (s *System) Start() {
	s.wg.Add(1)
	defer s.wg.Done()
	s.running = true
	for {
		if s.running {
			s.RunFrame(sliceBudget)
		} else if s.Sched.Pending() {
			s.Sched.Advance(1)
		}
		select {
		case <-s.done:
			if s.Cart != nil {
				s.Cart.Shutdown()
			}
			slog.Info("core: system stopped")
			return
		case pkt := <-s.control:
			s.processPacket(pkt)
		default:
		}
	}
}

// Stop signals the run loop to exit and waits for it to do so, giving it
// one second before logging a timeout.
func (s *System) Stop() {
	close(s.done)
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		slog.Warn("core: timed out waiting for system to finish")
	}
}

// Post enqueues a host-originated packet (button state, lid, touch, run
// control) for the next control-check point.
func (s *System) Post(p Packet) {
	select {
	case s.control <- p:
	default:
		s.log.Warn("core: control queue full, dropping packet")
	}
}

func (s *System) processPacket(p Packet) {
	switch p.Msg {
	case PacketPressButtons:
		s.buttons |= p.Buttons
	case PacketReleaseButtons:
		s.buttons &^= p.Buttons
	case PacketStart:
		s.running = true
	case PacketStop:
		s.running = false
	case PacketReset:
		s.Reset()
	}
}

// Buttons reports the current button bitmask, polled by the keypad I/O
// register handler.
func (s *System) Buttons() uint32 { return s.buttons }
