/*
   Kestrel ARM core: branch and branch-exchange instructions.

   Grounded on original_source/ARMInterpreter_Branch.cpp's A_B/A_BL/A_BX/
   A_BLX_REG/A_BLX_IMM. R[15] has already been advanced past the prefetch
   stage by the time a handler runs (it reads as address-of-branch+8), so
   every target and link-register computation here is relative to its
   current value rather than CurInstr's own address.
*/
package cpu

func aBranch(c *CPU, instr uint32) {
	link := instr&(1<<24) != 0
	offset := signExtend24(instr&0xFFFFFF) << 2

	if link {
		c.R[14] = c.R[15]
	}
	c.JumpTo(uint32(int32(c.R[15])+offset), false)
}

func aBranchExchange(c *CPU, instr uint32) {
	link := instr&0xF == 0b0011
	rm := instr & 0xF
	target := c.R[rm]

	if link {
		c.R[14] = c.R[15]
	}
	c.JumpTo(target, false)
}

// aBLXImm is the unconditional (cond == 0b1111) BLX with a 24-bit immediate
// plus an H bit contributing the low halfword-alignment bit; it always
// switches to Thumb state. Dispatched directly from Execute rather than
// through armTable since it lives in the condition-code space every other
// ARM-mode instruction reserves for "always execute".
func aBLXImm(c *CPU, instr uint32) {
	h := (instr >> 24) & 1
	offset := signExtend24(instr&0xFFFFFF)<<2 | int32(h<<1)

	c.R[14] = c.R[15]
	c.JumpTo(uint32(int32(c.R[15])+offset)|1, false)
}

func signExtend24(v uint32) int32 {
	if v&0x800000 != 0 {
		return int32(v | 0xFF000000)
	}
	return int32(v)
}
