package cpu

import (
	"testing"

	"github.com/kestrel-emu/kestrel/emu/bus"
)

func newTestCPU(num bus.CPUID) (*CPU, *bus.Bus) {
	b := bus.New(nil, nil)
	return New(num, b), b
}

func TestConditionTableEQMatchesZeroFlag(t *testing.T) {
	// NZCV nibble 0b0100 means Z set, N/C/V clear - EQ should hold.
	if ConditionTable[CondEQ]&(1<<0b0100) == 0 {
		t.Fatal("EQ should hold when Z is set")
	}
	if ConditionTable[CondEQ]&(1<<0b0000) != 0 {
		t.Fatal("EQ should not hold when Z is clear")
	}
}

func TestConditionTableALAlwaysHolds(t *testing.T) {
	if ConditionTable[CondAL] != 0xFFFF {
		t.Fatalf("AL should hold for every NZCV combination, got %#04x", ConditionTable[CondAL])
	}
}

func TestShiftImmediateLSRZeroMeansThirtyTwo(t *testing.T) {
	res := shiftImmediate(ShiftLSR, 0, 0x80000000, false)
	if res.value != 0 {
		t.Fatalf("LSR #32 of 0x80000000 should be 0, got %#x", res.value)
	}
	if !res.carry {
		t.Fatal("LSR #32 of 0x80000000 should carry out bit 31")
	}
}

func TestShiftImmediateRRX(t *testing.T) {
	res := shiftImmediate(ShiftROR, 0, 0x00000002, true)
	if res.value != 0x80000001 {
		t.Fatalf("RRX with carry-in should rotate carry into bit 31, got %#x", res.value)
	}
	if res.carry {
		t.Fatal("RRX carry-out should be the rotated-out bit 0, which was 0")
	}
}

func TestShiftRegisterLSLThirtyTwoIsZeroButCarriesBitZero(t *testing.T) {
	res := shiftRegister(ShiftLSL, 32, 0x00000001, false)
	if res.value != 0 {
		t.Fatalf("LSL by exactly 32 should clear the value, got %#x", res.value)
	}
	if !res.carry {
		t.Fatal("LSL by exactly 32 should carry out the original bit 0")
	}
}

func TestALUSubNoBorrowSetsCarry(t *testing.T) {
	result, carry, overflow := aluCompute(OpSUB, 5, 3, false, false)
	if result != 2 || !carry || overflow {
		t.Fatalf("5-3: got result=%d carry=%v overflow=%v", result, carry, overflow)
	}
}

func TestALUSubBorrowClearsCarry(t *testing.T) {
	result, carry, _ := aluCompute(OpSUB, 3, 5, false, false)
	if result != 0xFFFFFFFE {
		t.Fatalf("3-5 should wrap, got %#x", result)
	}
	if carry {
		t.Fatal("3-5 should clear carry (borrow occurred)")
	}
}

func TestResetVectorsDifferPerCore(t *testing.T) {
	a, _ := newTestCPU(bus.CPUA)
	a.Reset()
	if a.ExceptionBase != 0xFFFF0000 {
		t.Fatalf("CPU A should reset to the high vector, got %#x", a.ExceptionBase)
	}
	if a.CP15 == nil {
		t.Fatal("CPU A should have a CP15")
	}

	bcpu, _ := newTestCPU(bus.CPUB)
	bcpu.Reset()
	if bcpu.ExceptionBase != 0 {
		t.Fatalf("CPU B should reset to the low vector, got %#x", bcpu.ExceptionBase)
	}
	if bcpu.CP15 != nil {
		t.Fatal("CPU B should not have a CP15")
	}
}

func TestUpdateModeBanksAndRestoresRegisters(t *testing.T) {
	c, _ := newTestCPU(bus.CPUA)
	c.CPSR = resetCPSR // Supervisor mode
	c.R[13] = 0x1111
	c.R[14] = 0x2222

	irqCPSR := (c.CPSR &^ modeMask) | uint32(ModeIRQ)
	c.UpdateMode(c.CPSR, irqCPSR)
	c.CPSR = irqCPSR
	c.R[13] = 0x3333
	c.R[14] = 0x4444

	backToSVC := (c.CPSR &^ modeMask) | uint32(ModeSupervisor)
	c.UpdateMode(c.CPSR, backToSVC)
	c.CPSR = backToSVC

	if c.R[13] != 0x1111 || c.R[14] != 0x2222 {
		t.Fatalf("Supervisor bank should be restored, got R13=%#x R14=%#x", c.R[13], c.R[14])
	}
	if c.irq.r13 != 0x3333 || c.irq.r14 != 0x4444 {
		t.Fatalf("IRQ bank should have retained its values, got r13=%#x r14=%#x", c.irq.r13, c.irq.r14)
	}
}

func TestTriggerIRQEntersIRQModeAndSavesState(t *testing.T) {
	c, _ := newTestCPU(bus.CPUA)
	c.Reset()
	c.CPSR &^= FlagI // unmask IRQs
	c.R[15] = 0x02000100
	old := c.CPSR

	c.TriggerIRQ()

	if Mode(c.CPSR&modeMask) != ModeIRQ {
		t.Fatalf("should have entered IRQ mode, got mode %#x", c.CPSR&modeMask)
	}
	if c.CPSR&FlagI == 0 {
		t.Fatal("IRQ entry should mask further IRQs")
	}
	if c.irq.spsr != old {
		t.Fatalf("SPSR_irq should hold the pre-exception CPSR, got %#x want %#x", c.irq.spsr, old)
	}
	if c.R[14] != 0x02000100 {
		t.Fatalf("LR_irq should hold the ARM-state return address, got %#x", c.R[14])
	}
}

func TestTriggerIRQNoOpWhenMasked(t *testing.T) {
	c, _ := newTestCPU(bus.CPUA)
	c.Reset()
	c.CPSR |= FlagI
	before := c.CPSR
	c.TriggerIRQ()
	if c.CPSR != before {
		t.Fatal("TriggerIRQ should be a no-op when the I flag is already set")
	}
}

func TestExecuteMovImmediate(t *testing.T) {
	c, b := newTestCPU(bus.CPUA)
	b.Write32(bus.CPUA, 0x02000000, 0xE3A00005) // MOV R0, #5
	c.JumpTo(0x02000000, false)

	c.Execute(1)

	if c.R[0] != 5 {
		t.Fatalf("MOV R0,#5: R0 = %d", c.R[0])
	}
}

func TestExecuteBranchSkipsInstruction(t *testing.T) {
	c, b := newTestCPU(bus.CPUA)
	b.Write32(bus.CPUA, 0x02000000, 0xEA000000) // B .+8 (skip one word)
	b.Write32(bus.CPUA, 0x02000004, 0xE3A00063) // MOV R0, #99 (should be skipped)
	b.Write32(bus.CPUA, 0x02000008, 0xE3A01007) // MOV R1, #7
	c.JumpTo(0x02000000, false)

	c.Execute(1) // B
	c.Execute(1) // MOV R1,#7

	if c.R[0] != 0 {
		t.Fatalf("branch should have skipped the MOV R0,#99, got R0=%d", c.R[0])
	}
	if c.R[1] != 7 {
		t.Fatalf("MOV R1,#7 after the branch target: R1 = %d", c.R[1])
	}
}

func TestExecuteThumbMovAndAdd(t *testing.T) {
	c, b := newTestCPU(bus.CPUB)
	b.Write16(bus.CPUB, 0x02000000, 0x2005) // MOV R0, #5
	b.Write16(bus.CPUB, 0x02000002, 0x3003) // ADD R0, #3
	c.JumpTo(0x02000000|1, false)

	c.Execute(1)
	c.Execute(1)

	if c.R[0] != 8 {
		t.Fatalf("Thumb MOV R0,#5 / ADD R0,#3: R0 = %d", c.R[0])
	}
}

func TestBlockTransferWritebackDiffersPerCore(t *testing.T) {
	const base = 0x02001000
	const ldmMultiple = 0xE8B00003 // LDM R0!, {R0,R1}

	for _, tc := range []struct {
		name string
		num  bus.CPUID
		want uint32
	}{
		{"CPU A suppresses writeback when Rn is loaded", bus.CPUA, 0xAAAAAAAA},
		{"CPU B writeback overwrites the loaded value", bus.CPUB, base + 8},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, b := newTestCPU(tc.num)
			b.Write32(tc.num, base, 0xAAAAAAAA)
			b.Write32(tc.num, base+4, 0xBBBBBBBB)
			b.Write32(tc.num, 0x02000000, ldmMultiple)
			c.JumpTo(0x02000000, false)
			c.R[0] = base

			c.Execute(1)

			if c.R[0] != tc.want {
				t.Fatalf("R0 = %#x, want %#x", c.R[0], tc.want)
			}
			if c.R[1] != 0xBBBBBBBB {
				t.Fatalf("R1 = %#x, want 0xBBBBBBBB", c.R[1])
			}
		})
	}
}

func TestCP15ControlWriteConfiguresDTCM(t *testing.T) {
	c, b := newTestCPU(bus.CPUA)
	c.CP15.Write(c, 9, 1, 0, 0x0C000000|0x0A) // DTCM base 0x0C000000, size setting 0xA
	c.CP15.Write(c, 1, 0, 0, c.CP15.Control|cp15DTCMEnable)

	b.Write32(bus.CPUA, 0x0C000000, 0xDEADBEEF)
	if got := b.Read32(bus.CPUA, 0x0C000000); got != 0xDEADBEEF {
		t.Fatalf("DTCM window should be readable after CP15 enables it, got %#x", got)
	}
}
