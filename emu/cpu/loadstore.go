/*
   Kestrel ARM core: single-register and block load/store instructions.

   Grounded on original_source/ARMInterpreter_LoadStore.cpp's A_LDR/A_STR/
   A_LDRB/A_STRB/A_LDRH/A_STRH/A_LDRSB/A_LDRSH/A_LDM/A_STM family. Every
   addressing-mode handler here shares the same pre/post, up/down and
   writeback bookkeeping the original's macros duplicate per instruction.
*/
package cpu

import "github.com/kestrel-emu/kestrel/emu/bus"

func aSingleDataTransfer(c *CPU, instr uint32) {
	pre := instr&(1<<24) != 0
	up := instr&(1<<23) != 0
	byteWidth := instr&(1<<22) != 0
	writeback := instr&(1<<21) != 0
	load := instr&(1<<20) != 0
	rn := (instr >> 16) & 0xF
	rd := (instr >> 12) & 0xF

	var offset uint32
	if instr&(1<<25) != 0 {
		shiftType := (instr >> 5) & 3
		shiftImm := (instr >> 7) & 0x1F
		rm := instr & 0xF
		offset = shiftImmediate(shiftType, shiftImm, c.R[rm], c.CPSR&FlagC != 0).value
	} else {
		offset = instr & 0xFFF
	}

	base := c.R[rn]
	addr := base
	if pre {
		addr = applyOffset(base, offset, up)
	}

	if load {
		var value uint32
		if byteWidth {
			value = uint32(c.Bus.Read8(c.Num, addr))
			c.chargeMemCycles(bus.N16, addr)
		} else {
			aligned := addr &^ 3
			word := c.Bus.Read32(c.Num, aligned)
			value = rotr32(word, (addr&3)*8)
			c.chargeMemCycles(bus.N32, aligned)
		}
		if rd == 15 {
			c.JumpTo(value, false)
		} else {
			c.R[rd] = value
		}
	} else {
		value := c.R[rd]
		if rd == 15 {
			value += 4
		}
		if byteWidth {
			c.Bus.Write8(c.Num, addr, uint8(value))
			c.chargeMemCycles(bus.N16, addr)
		} else {
			aligned := addr &^ 3
			c.Bus.Write32(c.Num, aligned, value)
			c.chargeMemCycles(bus.N32, aligned)
		}
	}

	if !pre {
		addr = applyOffset(base, offset, up)
	}
	if (writeback || !pre) && !(load && rd == rn) {
		c.R[rn] = addr
	}
}

func aHalfwordTransfer(c *CPU, instr uint32) {
	pre := instr&(1<<24) != 0
	up := instr&(1<<23) != 0
	immediate := instr&(1<<22) != 0
	writeback := instr&(1<<21) != 0
	load := instr&(1<<20) != 0
	rn := (instr >> 16) & 0xF
	rd := (instr >> 12) & 0xF
	signed := instr&(1<<6) != 0
	halfword := instr&(1<<5) != 0

	var offset uint32
	if immediate {
		offset = ((instr >> 4) & 0xF0) | (instr & 0xF)
	} else {
		offset = c.R[instr&0xF]
	}

	base := c.R[rn]
	addr := base
	if pre {
		addr = applyOffset(base, offset, up)
	}

	if load {
		var value uint32
		switch {
		case signed && halfword:
			raw := c.Bus.Read16(c.Num, addr&^1)
			value = uint32(int32(int16(raw)))
		case signed:
			value = uint32(int32(int8(c.Bus.Read8(c.Num, addr))))
		default:
			value = uint32(c.Bus.Read16(c.Num, addr&^1))
		}
		c.chargeMemCycles(bus.N16, addr)
		if rd == 15 {
			c.JumpTo(value, false)
		} else {
			c.R[rd] = value
		}
	} else {
		value := c.R[rd]
		if rd == 15 {
			value += 4
		}
		c.Bus.Write16(c.Num, addr&^1, uint16(value))
		c.chargeMemCycles(bus.N16, addr)
	}

	if !pre {
		addr = applyOffset(base, offset, up)
	}
	if (writeback || !pre) && !(load && rd == rn) {
		c.R[rn] = addr
	}
}

func applyOffset(base, offset uint32, up bool) uint32 {
	if up {
		return base + offset
	}
	return base - offset
}

// aBlockDataTransfer implements LDM/STM. The base-register writeback rule
// when Rn also appears in the register list differs between the two cores:
// CPU A (ARMv5) defines the loaded value to win, suppressing writeback
// outright; CPU B (ARMv4T) performs writeback unconditionally after the
// transfer loop, so a loaded Rn is immediately overwritten by the computed
// address. Both are legitimate readings of an UNPREDICTABLE case; this is
// the choice original_source/ARMInterpreter_LoadStore.cpp's per-core split
// makes.
func aBlockDataTransfer(c *CPU, instr uint32) {
	pre := instr&(1<<24) != 0
	up := instr&(1<<23) != 0
	forceUser := instr&(1<<22) != 0
	writeback := instr&(1<<21) != 0
	load := instr&(1<<20) != 0
	rn := (instr >> 16) & 0xF
	list := instr & 0xFFFF

	rnInList := list&(1<<rn) != 0
	pc15InList := list&(1<<15) != 0
	exceptionReturn := forceUser && load && pc15InList
	userBankAccess := forceUser && !exceptionReturn

	curMode := Mode(c.CPSR & modeMask)
	if userBankAccess && curMode != ModeUser && curMode != ModeSystem {
		c.swapBank(curMode)
		defer c.swapBank(curMode)
	}

	count := 0
	for i := 0; i < 16; i++ {
		if list&(1<<uint(i)) != 0 {
			count++
		}
	}

	base := c.R[rn]
	var start uint32
	if up {
		start = base
	} else {
		start = base - uint32(count)*4
	}
	finalAddr := start + uint32(count)*4

	addr := start
	var loadedPC uint32
	for i := 0; i < 16; i++ {
		if list&(1<<uint(i)) == 0 {
			continue
		}
		xferAddr := addr
		if pre {
			xferAddr += 4
		}
		if load {
			value := c.Bus.Read32(c.Num, xferAddr)
			c.chargeMemCycles(bus.N32, xferAddr)
			if i == 15 {
				loadedPC = value
			} else {
				c.R[i] = value
			}
		} else {
			value := c.R[i]
			if i == 15 {
				value += 4
			}
			c.Bus.Write32(c.Num, xferAddr, value)
			c.chargeMemCycles(bus.N32, xferAddr)
		}
		addr += 4
	}

	if writeback {
		switch {
		case !load:
			c.R[rn] = finalAddr
		case !rnInList:
			c.R[rn] = finalAddr
		case c.Num == bus.CPUA: // CPU A: loaded value wins, writeback suppressed.
		default: // CPU B: writeback wins, overwriting the loaded value.
			c.R[rn] = finalAddr
		}
	}

	if load && pc15InList {
		c.JumpTo(loadedPC, exceptionReturn)
	}
}
