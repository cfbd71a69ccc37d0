/*
   Kestrel ARM core: multiply, multiply-long and swap instructions.

   Grounded on original_source/ARMInterpreter.cpp's A_MUL/A_MLA/A_UMULL/
   A_UMLAL/A_SMULL/A_SMLAL/A_SWP/A_SWPB handlers. The internal-cycle count
   charged for a multiply depends on how many significant bytes Rs occupies
   once sign-extended, the same early-terminate rule real ARM cores use.
*/
package cpu

import "github.com/kestrel-emu/kestrel/emu/bus"

func aMultiply(c *CPU, instr uint32) {
	accumulate := instr&(1<<21) != 0
	setFlags := instr&(1<<20) != 0
	rd := (instr >> 16) & 0xF
	rn := (instr >> 12) & 0xF
	rs := (instr >> 8) & 0xF
	rm := instr & 0xF

	result := c.R[rm] * c.R[rs]
	if accumulate {
		result += c.R[rn]
	}
	c.R[rd] = result

	if setFlags {
		c.SetNZ(result)
	}

	c.Cycles += mulCycles(c.R[rs])
	if accumulate {
		c.Cycles++
	}
}

func aMultiplyLong(c *CPU, instr uint32) {
	signed := instr&(1<<22) != 0
	accumulate := instr&(1<<21) != 0
	setFlags := instr&(1<<20) != 0
	rdHi := (instr >> 16) & 0xF
	rdLo := (instr >> 12) & 0xF
	rs := (instr >> 8) & 0xF
	rm := instr & 0xF

	var result uint64
	if signed {
		result = uint64(int64(int32(c.R[rm])) * int64(int32(c.R[rs])))
	} else {
		result = uint64(c.R[rm]) * uint64(c.R[rs])
	}
	if accumulate {
		result += uint64(c.R[rdHi])<<32 | uint64(c.R[rdLo])
	}

	c.R[rdLo] = uint32(result)
	c.R[rdHi] = uint32(result >> 32)

	if setFlags {
		c.CPSR &^= FlagN | FlagZ
		if result&0x8000000000000000 != 0 {
			c.CPSR |= FlagN
		}
		if result == 0 {
			c.CPSR |= FlagZ
		}
	}

	c.Cycles += mulCycles(c.R[rs]) + 1
	if accumulate {
		c.Cycles++
	}
}

// mulCycles charges 1-4 internal cycles depending on how many bytes of rs,
// sign-extended, are significant - the classic ARM early-termination rule.
func mulCycles(rs uint32) int {
	switch {
	case rs&0xFFFFFF00 == 0 || rs&0xFFFFFF00 == 0xFFFFFF00:
		return 1
	case rs&0xFFFF0000 == 0 || rs&0xFFFF0000 == 0xFFFF0000:
		return 2
	case rs&0xFF000000 == 0 || rs&0xFF000000 == 0xFF000000:
		return 3
	default:
		return 4
	}
}

func aSwap(c *CPU, instr uint32) {
	byteSwap := instr&(1<<22) != 0
	rn := (instr >> 16) & 0xF
	rd := (instr >> 12) & 0xF
	rm := instr & 0xF
	addr := c.R[rn]

	if byteSwap {
		old := c.Bus.Read8(c.Num, addr)
		c.chargeMemCycles(bus.N16, addr)
		c.Bus.Write8(c.Num, addr, uint8(c.R[rm]))
		c.chargeMemCycles(bus.N16, addr)
		c.R[rd] = uint32(old)
		return
	}

	aligned := addr &^ 3
	old := c.Bus.Read32(c.Num, aligned)
	c.chargeMemCycles(bus.N32, aligned)
	c.Bus.Write32(c.Num, aligned, c.R[rm])
	c.chargeMemCycles(bus.N32, aligned)
	c.R[rd] = rotr32(old, (addr&3)*8)
}
