/*
   Kestrel ARM core: MRS/MSR, the PSR transfer instructions.

   Grounded on original_source/ARMInterpreter.cpp's A_MRS/A_MSR. The field
   mask bits (f/s/x/c, bits 19/18/17/16) gate which PSR bytes an MSR touches;
   in User mode only the flags byte (f) is writable and SPSR does not exist.
*/
package cpu

func aMSRMRS(c *CPU, instr uint32) {
	toSPSR := instr&(1<<22) != 0

	if instr&(1<<21) == 0 {
		// MRS: move the whole PSR into Rd.
		rd := (instr >> 12) & 0xF
		if toSPSR {
			if p := c.spsrPtr(); p != nil {
				c.R[rd] = *p
			}
		} else {
			c.R[rd] = c.CPSR
		}
		return
	}

	// MSR.
	var operand uint32
	if instr&(1<<25) != 0 {
		imm8 := instr & 0xFF
		rotate := ((instr >> 8) & 0xF) * 2
		operand = rotr32(imm8, rotate)
	} else {
		operand = c.R[instr&0xF]
	}

	mask := uint32(0)
	if instr&(1<<19) != 0 {
		mask |= 0xFF000000
	}
	if instr&(1<<18) != 0 {
		mask |= 0x00FF0000
	}
	if instr&(1<<17) != 0 {
		mask |= 0x0000FF00
	}
	if instr&(1<<16) != 0 {
		mask |= 0x000000FF
	}

	if toSPSR {
		p := c.spsrPtr()
		if p == nil {
			return
		}
		*p = (*p &^ mask) | (operand & mask)
		return
	}

	if Mode(c.CPSR&modeMask) == ModeUser {
		mask &= 0xFF000000 // User mode may only change the flags byte.
	}

	old := c.CPSR
	newCPSR := (old &^ mask) | (operand & mask)
	c.CPSR = newCPSR
	if mask&0xFF != 0 {
		c.UpdateMode(old, newCPSR)
	}
}
