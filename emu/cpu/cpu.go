/*
   Kestrel ARM core: registers, mode switching, reset and the execute loop.

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
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
package cpu

import (
	"github.com/kestrel-emu/kestrel/emu/bus"
)

// bankedRegs is one mode's private copy of the registers CPSR mode
// switching banks out: R13/R14 for every privileged mode, plus R8-R12 for
// FIQ, plus a shadow SPSR.
type bankedRegs struct {
	r8, r9, r10, r11, r12 uint32 // only used by the FIQ bank
	r13, r14              uint32
	spsr                  uint32
}

// CPU is one ARM core - CPU A (ARMv5TE, with CP15 and TCMs) or CPU B
// (ARMv4T, no CP15). Field layout mirrors the teacher's cpuState: plain
// register arrays plus a handful of decode/exception scratch fields, no
// pointer soup.
type CPU struct {
	Num bus.CPUID

	R    [16]uint32
	CPSR uint32

	fiq bankedRegs
	irq bankedRegs
	svc bankedRegs
	abt bankedRegs
	und bankedRegs

	CurInstr  uint32
	NextInstr [2]uint32

	ExceptionBase uint32
	Halted        int // 0 = running, 1 = halted, 2 = halted-for-one-pass (GBA-style halt pulse)

	Cycles int

	Bus  *bus.Bus
	CP15 *CP15 // non-nil only for CPU A

	// IRQLine is not read or set anywhere in the emulator; Execute polls
	// pending interrupts through haltIRQWake after each instruction.
	IRQLine  *bool
	IME      *bool // interrupt master enable, owned by the interrupt controller
	haltIRQWake func() bool // returns true once a pending IRQ should wake a halted core

	armTable   [4096]armHandler
	thumbTable [1024]thumbHandler
}

type armHandler func(c *CPU, instr uint32)
type thumbHandler func(c *CPU, instr uint32)

// New creates a CPU for the given core number. CPU A (num == bus.CPUA) gets
// a CP15; CPU B does not, matching the original's per-Num constructor
// branch in ARM::ARM.
func New(num bus.CPUID, b *bus.Bus) *CPU {
	c := &CPU{Num: num, Bus: b}
	if num == bus.CPUA {
		c.CP15 = NewCP15()
	}
	c.armTable = buildARMTable()
	c.thumbTable = buildThumbTable()
	return c
}

// CheckCondition evaluates a 4-bit condition field against the current NZCV
// flags using ConditionTable, exactly as the original's inline
// CheckCondition does: shift NZCV down to a nibble and test the matching
// table bit.
func (c *CPU) CheckCondition(cond uint32) bool {
	nzcv := c.CPSR >> 28
	return ConditionTable[cond]&(1<<nzcv) != 0
}

// SetNZ sets the N and Z flags from a result value.
func (c *CPU) SetNZ(result uint32) {
	c.CPSR &^= FlagN | FlagZ
	if result&0x80000000 != 0 {
		c.CPSR |= FlagN
	}
	if result == 0 {
		c.CPSR |= FlagZ
	}
}

// SetC sets or clears the carry flag.
func (c *CPU) SetC(carry bool) {
	if carry {
		c.CPSR |= FlagC
	} else {
		c.CPSR &^= FlagC
	}
}

// SetV sets or clears the overflow flag.
func (c *CPU) SetV(overflow bool) {
	if overflow {
		c.CPSR |= FlagV
	} else {
		c.CPSR &^= FlagV
	}
}

// Reset returns the core to its post-power-on state: zeroed registers,
// Supervisor mode with interrupts masked, and a fetch primed from
// ExceptionBase (0xFFFF0000 for CPU A, 0 for CPU B).
func (c *CPU) Reset() {
	c.Cycles = 0
	c.Halted = 0
	c.R = [16]uint32{}
	c.CPSR = resetCPSR
	if c.Num == bus.CPUA {
		c.ExceptionBase = 0xFFFF0000
	} else {
		c.ExceptionBase = 0x00000000
	}
	c.JumpTo(c.ExceptionBase, false)
}

// JumpTo redirects the fetch pipeline to addr. If restoreCPSR is set (used
// for exception returns), the banked SPSR for the current mode is first
// copied back into CPSR and the Thumb bit of addr is forced to match it;
// otherwise the Thumb bit is taken from addr's low bit as usual.
func (c *CPU) JumpTo(addr uint32, restoreCPSR bool) {
	if restoreCPSR {
		c.RestoreCPSR()
		if c.CPSR&FlagT != 0 {
			addr |= 1
		} else {
			addr &^= 1
		}
	}

	if addr&1 != 0 {
		addr &^= 1
		c.R[15] = addr + 2
		c.NextInstr[0] = uint32(c.fetch16(addr))
		c.NextInstr[1] = uint32(c.fetch16(addr + 2))
		c.CPSR |= FlagT
	} else {
		addr &^= 3
		c.R[15] = addr + 4
		c.NextInstr[0] = c.fetch32(addr)
		c.NextInstr[1] = c.fetch32(addr + 4)
		c.CPSR &^= FlagT
	}
}

func (c *CPU) fetch16(addr uint32) uint16 { return c.Bus.Read16(c.Num, addr) }
func (c *CPU) fetch32(addr uint32) uint32 { return c.Bus.Read32(c.Num, addr) }

// RestoreCPSR copies the banked SPSR for the mode CPSR is currently in back
// into CPSR, then re-banks registers for whatever mode that SPSR names.
// Called from data-processing instructions that write R15 with the S bit
// set, and from exception returns.
func (c *CPU) RestoreCPSR() {
	old := c.CPSR
	switch Mode(old & modeMask) {
	case ModeFIQ:
		c.CPSR = c.fiq.spsr
	case ModeIRQ:
		c.CPSR = c.irq.spsr
	case ModeSupervisor:
		c.CPSR = c.svc.spsr
	case ModeAbort:
		c.CPSR = c.abt.spsr
	case ModeUndefined:
		c.CPSR = c.und.spsr
	default:
		// Attempting to restore CPSR outside a privileged exception mode
		// is a programming error in the running code, not in the core;
		// leave CPSR untouched rather than fault the host process.
		return
	}
	c.UpdateMode(old, c.CPSR)
}

// UpdateMode swaps R8-R14 (FIQ) or R13-R14 (every other privileged mode)
// between the live register file and the bank for oldmode, then does the
// same for newmode - the exact two-step exchange
// original_source/ARM.cpp's UpdateMode performs so that either transition
// direction (into a bank, or back out of one) is its own inverse.
func (c *CPU) UpdateMode(oldmode, newmode uint32) {
	if oldmode&modeMask == newmode&modeMask {
		return
	}
	c.swapBank(Mode(oldmode & modeMask))
	c.swapBank(Mode(newmode & modeMask))
}

func (c *CPU) swapBank(mode Mode) {
	switch mode {
	case ModeFIQ:
		c.R[8], c.fiq.r8 = c.fiq.r8, c.R[8]
		c.R[9], c.fiq.r9 = c.fiq.r9, c.R[9]
		c.R[10], c.fiq.r10 = c.fiq.r10, c.R[10]
		c.R[11], c.fiq.r11 = c.fiq.r11, c.R[11]
		c.R[12], c.fiq.r12 = c.fiq.r12, c.R[12]
		c.R[13], c.fiq.r13 = c.fiq.r13, c.R[13]
		c.R[14], c.fiq.r14 = c.fiq.r14, c.R[14]
	case ModeIRQ:
		c.R[13], c.irq.r13 = c.irq.r13, c.R[13]
		c.R[14], c.irq.r14 = c.irq.r14, c.R[14]
	case ModeSupervisor:
		c.R[13], c.svc.r13 = c.svc.r13, c.R[13]
		c.R[14], c.svc.r14 = c.svc.r14, c.R[14]
	case ModeAbort:
		c.R[13], c.abt.r13 = c.abt.r13, c.R[13]
		c.R[14], c.abt.r14 = c.abt.r14, c.R[14]
	case ModeUndefined:
		c.R[13], c.und.r13 = c.und.r13, c.R[13]
		c.R[14], c.und.r14 = c.und.r14, c.R[14]
	}
}

// spsrPtr returns a pointer to the banked SPSR for the current mode, or nil
// in User/System mode where no SPSR exists. Used by MSR/MRS.
func (c *CPU) spsrPtr() *uint32 {
	switch Mode(c.CPSR & modeMask) {
	case ModeFIQ:
		return &c.fiq.spsr
	case ModeIRQ:
		return &c.irq.spsr
	case ModeSupervisor:
		return &c.svc.spsr
	case ModeAbort:
		return &c.abt.spsr
	case ModeUndefined:
		return &c.und.spsr
	default:
		return nil
	}
}

// TriggerIRQ enters IRQ mode and redirects execution to ExceptionBase+0x18,
// saving CPSR into SPSR_irq and the return address (plus 2 if resuming into
// Thumb) into LR_irq. A no-op if the I bit already masks IRQs.
func (c *CPU) TriggerIRQ() {
	if c.CPSR&FlagI != 0 {
		return
	}

	old := c.CPSR
	c.CPSR = (c.CPSR &^ 0xFF) | uint32(ModeIRQ) | FlagI
	c.UpdateMode(old, c.CPSR)

	c.irq.spsr = old
	lrAdjust := uint32(0)
	if old&FlagT != 0 {
		lrAdjust = 2
	}
	c.R[14] = c.R[15] + lrAdjust
	c.JumpTo(c.ExceptionBase+0x18, false)
}

// Execute runs instructions until at least cyclesRequested cycles have been
// consumed, mirroring original_source/ARM.cpp's Execute(), and returns the
// cycles actually used. Because this model charges whole-instruction
// wait-state costs instead of prefetch-accurate sub-instruction timing, that
// count can exceed the request; the caller (core.System.RunFrame) carries
// the difference forward as a credit against the next slice.
func (c *CPU) Execute(cyclesRequested int) int {
	if c.Halted != 0 {
		if c.haltIRQWake != nil && c.haltIRQWake() {
			c.Halted = 0
			if c.IME == nil || *c.IME {
				c.TriggerIRQ()
			}
		} else {
			return cyclesRequested
		}
	}

	c.Cycles = 0
	for c.Cycles < cyclesRequested {
		if c.CPSR&FlagT != 0 {
			c.R[15] += 2
			c.CurInstr = c.NextInstr[0]
			c.NextInstr[0] = c.NextInstr[1]
			c.NextInstr[1] = uint32(c.fetch16(c.R[15]))

			icode := c.CurInstr >> 6
			c.thumbTable[icode&1023](c, c.CurInstr)
		} else {
			c.R[15] += 4
			c.CurInstr = c.NextInstr[0]
			c.NextInstr[0] = c.NextInstr[1]
			c.NextInstr[1] = c.fetch32(c.R[15])

			if c.CheckCondition(c.CurInstr >> 28) {
				icode := ((c.CurInstr >> 4) & 0xF) | ((c.CurInstr >> 16) & 0xFF0)
				c.armTable[icode](c, c.CurInstr)
			} else if c.CurInstr&0xFE000000 == 0xFA000000 {
				aBLXImm(c, c.CurInstr)
			}
		}

		c.Cycles++ // baseline one cycle; addressing-mode handlers add wait-states via chargeMemCycles

		if c.Halted != 0 {
			if c.Halted == 1 {
				c.Cycles = cyclesRequested
			}
			break
		}
		if c.haltIRQWake != nil && c.haltIRQWake() {
			if c.IME == nil || *c.IME {
				c.TriggerIRQ()
			}
		}
	}

	if c.Halted == 2 {
		c.Halted = 0
	}

	return c.Cycles
}

// chargeMemCycles adds the wait-state cost of one bus access to the running
// cycle count for this slice.
func (c *CPU) chargeMemCycles(kind bus.AccessKind, addr uint32) {
	c.Cycles += c.Bus.Waitstate(c.Num, kind, addr)
}

// Halt puts the core to sleep until HaltWake reports a pending interrupt.
// pulse selects the GBA-style "halt for exactly one more pass" semantics
// (Halted == 2) used by a small number of low-power instructions; normal
// WFI-style halts use pulse == false.
func (c *CPU) Halt(pulse bool) {
	if pulse {
		c.Halted = 2
	} else {
		c.Halted = 1
	}
}

// SetHaltWake installs the predicate the core polls to decide whether a
// halted CPU should wake up; owned by the interrupt controller so cpu need
// not import core's IRQ plumbing.
func (c *CPU) SetHaltWake(fn func() bool) {
	c.haltIRQWake = fn
}
