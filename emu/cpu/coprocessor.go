/*
   Kestrel ARM core: coprocessor instructions and software interrupts.

   Grounded on original_source/ARMInterpreter.cpp's A_MCR/A_MRC (the only
   coprocessor instructions either core's boot code actually issues - both
   target CP15, and only CPU A has one) and A_SWI, whose entry sequence
   mirrors TriggerIRQ but targets the Supervisor vector.
*/
package cpu

const cp15Number = 15

func aCoprocessorRegTransfer(c *CPU, instr uint32) {
	load := instr&(1<<20) != 0
	crn := (instr >> 16) & 0xF
	rd := (instr >> 12) & 0xF
	cpNum := (instr >> 8) & 0xF
	opcode2 := (instr >> 5) & 0x7
	crm := instr & 0xF

	if cpNum != cp15Number || c.CP15 == nil {
		return // no other coprocessor is modeled; access is simply inert.
	}

	if load {
		value := c.CP15.Read(crn, crm, opcode2)
		if rd == 15 {
			c.CPSR = (c.CPSR &^ 0xF0000000) | (value & 0xF0000000) // MRC into R15 is a CPSR-flags-only transfer, not a branch.
		} else {
			c.R[rd] = value
		}
		return
	}

	value := c.R[rd]
	if rd == 15 {
		value += 4
	}
	c.CP15.Write(c, crn, crm, opcode2, value)
}

// aCoprocessorTransfer implements LDC/STC. No coprocessor on either core
// exposes memory-mapped transfer registers, so this is an inert decode.
func aCoprocessorTransfer(c *CPU, instr uint32) {}

func aSWI(c *CPU, instr uint32) {
	returnAddr := c.R[15]
	old := c.CPSR
	c.CPSR = (c.CPSR &^ 0xFF) | uint32(ModeSupervisor) | FlagI
	c.UpdateMode(old, c.CPSR)
	c.svc.spsr = old
	c.R[14] = returnAddr
	c.JumpTo(c.ExceptionBase+0x08, false)
}
