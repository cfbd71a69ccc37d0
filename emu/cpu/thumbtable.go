/*
   Kestrel ARM core: the 1024-entry Thumb instruction dispatch table.

   Grounded on original_source/ARM.cpp's Execute(), which indexes a flat
   ThumbInstrTable by icode = instr>>6 - the same 10-bit classification
   this file builds programmatically at init() instead of by macro
   expansion, mirroring the ARM-mode table's approach in armtable.go.

   Every Thumb instruction format's PC-relative arithmetic accounts for the
   fact that R[15] here already holds address-of-instruction+2 (one
   prefetch advance happened before the handler ran); the architectural
   "PC reads as instruction+4" value used by format6/12 and the BL pair is
   therefore c.R[15]+2, not c.R[15] itself.
*/
package cpu

import "github.com/kestrel-emu/kestrel/emu/bus"

func buildThumbTable() [1024]thumbHandler {
	var t [1024]thumbHandler
	for idx := 0; idx < 1024; idx++ {
		t[idx] = classifyThumb(uint32(idx))
	}
	return t
}

func classifyThumb(idx uint32) thumbHandler {
	b15_11 := (idx >> 5) & 0x1F
	rest5 := idx & 0x1F

	switch b15_11 {
	case 0b00000, 0b00001, 0b00010:
		return tFormat1
	case 0b00011:
		return tFormat2
	case 0b00100, 0b00101, 0b00110, 0b00111:
		return tFormat3
	case 0b01000:
		if rest5&0x10 != 0 {
			return tFormat5
		}
		return tFormat4
	case 0b01001:
		return tFormat6
	case 0b01010, 0b01011:
		if rest5&0x08 != 0 {
			return tFormat8
		}
		return tFormat7
	case 0b01100, 0b01101, 0b01110, 0b01111:
		return tFormat9
	case 0b10000, 0b10001:
		return tFormat10
	case 0b10010, 0b10011:
		return tFormat11
	case 0b10100, 0b10101:
		return tFormat12
	case 0b10110:
		if rest5&0x10 != 0 {
			return tFormat14Push
		}
		return tFormat13
	case 0b10111:
		return tFormat14Pop
	case 0b11000, 0b11001:
		return tFormat15
	case 0b11010:
		return tFormat16
	case 0b11011:
		switch (rest5 >> 2) & 0x7 {
		case 0b111:
			return tFormat17
		case 0b110:
			return tUndefinedThumb
		default:
			return tFormat16
		}
	case 0b11100:
		return tFormat18
	case 0b11101:
		return tBLXSuffix
	case 0b11110:
		return tBLPrefix
	case 0b11111:
		return tBLSuffix
	}
	return tUndefinedThumb
}

func tUndefinedThumb(c *CPU, instr uint32) {}

// Format 1: LSL/LSR/ASR Rd, Rs, #Offset5.
func tFormat1(c *CPU, instr uint32) {
	op := (instr >> 11) & 3
	offset5 := (instr >> 6) & 0x1F
	rs := (instr >> 3) & 7
	rd := instr & 7

	var kind uint32
	switch op {
	case 0:
		kind = ShiftLSL
	case 1:
		kind = ShiftLSR
	default:
		kind = ShiftASR
	}

	res := shiftImmediate(kind, offset5, c.R[rs], c.CPSR&FlagC != 0)
	c.R[rd] = res.value
	c.SetNZ(res.value)
	c.SetC(res.carry)
}

// Format 2: ADD/SUB Rd, Rs, Rn|#imm3.
func tFormat2(c *CPU, instr uint32) {
	immediate := instr&(1<<10) != 0
	sub := instr&(1<<9) != 0
	field := (instr >> 6) & 7
	rs := (instr >> 3) & 7
	rd := instr & 7

	b := c.R[field]
	if immediate {
		b = field
	}
	a := c.R[rs]

	var result uint32
	var carry, overflow bool
	if sub {
		result, carry, overflow = subWithBorrow(a, b, true)
	} else {
		result, carry, overflow = addWithCarry(a, b, false)
	}
	c.R[rd] = result
	c.SetNZ(result)
	c.SetC(carry)
	c.SetV(overflow)
}

// Format 3: MOV/CMP/ADD/SUB Rd, #imm8.
func tFormat3(c *CPU, instr uint32) {
	op := (instr >> 11) & 3
	rd := (instr >> 8) & 7
	imm := instr & 0xFF

	switch op {
	case 0: // MOV
		c.R[rd] = imm
		c.SetNZ(imm)
	case 1: // CMP
		result, carry, overflow := subWithBorrow(c.R[rd], imm, true)
		c.SetNZ(result)
		c.SetC(carry)
		c.SetV(overflow)
	case 2: // ADD
		result, carry, overflow := addWithCarry(c.R[rd], imm, false)
		c.R[rd] = result
		c.SetNZ(result)
		c.SetC(carry)
		c.SetV(overflow)
	case 3: // SUB
		result, carry, overflow := subWithBorrow(c.R[rd], imm, true)
		c.R[rd] = result
		c.SetNZ(result)
		c.SetC(carry)
		c.SetV(overflow)
	}
}

// Format 4: two-register ALU operations.
func tFormat4(c *CPU, instr uint32) {
	op := (instr >> 6) & 0xF
	rs := (instr >> 3) & 7
	rd := instr & 7
	a := c.R[rd]
	b := c.R[rs]
	oldCarry := c.CPSR&FlagC != 0

	switch op {
	case 0x0:
		result := a & b
		c.R[rd] = result
		c.SetNZ(result)
	case 0x1:
		result := a ^ b
		c.R[rd] = result
		c.SetNZ(result)
	case 0x2:
		res := shiftRegister(ShiftLSL, b&0xFF, a, oldCarry)
		c.R[rd] = res.value
		c.SetNZ(res.value)
		c.SetC(res.carry)
	case 0x3:
		res := shiftRegister(ShiftLSR, b&0xFF, a, oldCarry)
		c.R[rd] = res.value
		c.SetNZ(res.value)
		c.SetC(res.carry)
	case 0x4:
		res := shiftRegister(ShiftASR, b&0xFF, a, oldCarry)
		c.R[rd] = res.value
		c.SetNZ(res.value)
		c.SetC(res.carry)
	case 0x5:
		result, carry, overflow := addWithCarry(a, b, oldCarry)
		c.R[rd] = result
		c.SetNZ(result)
		c.SetC(carry)
		c.SetV(overflow)
	case 0x6:
		result, carry, overflow := subWithBorrow(a, b, oldCarry)
		c.R[rd] = result
		c.SetNZ(result)
		c.SetC(carry)
		c.SetV(overflow)
	case 0x7:
		res := shiftRegister(ShiftROR, b&0xFF, a, oldCarry)
		c.R[rd] = res.value
		c.SetNZ(res.value)
		c.SetC(res.carry)
	case 0x8: // TST
		result := a & b
		c.SetNZ(result)
	case 0x9: // NEG
		result, carry, overflow := subWithBorrow(0, b, true)
		c.R[rd] = result
		c.SetNZ(result)
		c.SetC(carry)
		c.SetV(overflow)
	case 0xA: // CMP
		result, carry, overflow := subWithBorrow(a, b, true)
		c.SetNZ(result)
		c.SetC(carry)
		c.SetV(overflow)
	case 0xB: // CMN
		result, carry, overflow := addWithCarry(a, b, false)
		c.SetNZ(result)
		c.SetC(carry)
		c.SetV(overflow)
	case 0xC:
		result := a | b
		c.R[rd] = result
		c.SetNZ(result)
	case 0xD:
		result := a * b
		c.R[rd] = result
		c.SetNZ(result)
		c.Cycles += mulCycles(b)
	case 0xE:
		result := a &^ b
		c.R[rd] = result
		c.SetNZ(result)
	case 0xF:
		result := ^b
		c.R[rd] = result
		c.SetNZ(result)
	}
}

// Format 5: hi-register operations and BX/BLX(register).
func tFormat5(c *CPU, instr uint32) {
	op := (instr >> 8) & 3
	h1 := (instr >> 7) & 1
	h2 := (instr >> 6) & 1
	rs := (h2 << 3) | ((instr >> 3) & 7)
	rd := (h1 << 3) | (instr & 7)

	srcVal := c.R[rs]
	if rs == 15 {
		srcVal += 2
	}

	switch op {
	case 0: // ADD
		result := c.R[rd]
		if rd == 15 {
			result += 2
		}
		result += srcVal
		if rd == 15 {
			c.JumpTo(result, false)
		} else {
			c.R[rd] = result
		}
	case 1: // CMP
		a := c.R[rd]
		if rd == 15 {
			a += 2
		}
		result, carry, overflow := subWithBorrow(a, srcVal, true)
		c.SetNZ(result)
		c.SetC(carry)
		c.SetV(overflow)
	case 2: // MOV
		if rd == 15 {
			c.JumpTo(srcVal, false)
		} else {
			c.R[rd] = srcVal
		}
	case 3: // BX / BLX(register); H1 selects BLX on cores that support it.
		link := h1 != 0
		if link {
			c.R[14] = c.R[15] | 1
		}
		c.JumpTo(srcVal, false)
	}
}

// Format 6: PC-relative load, LDR Rd, [PC, #Word8].
func tFormat6(c *CPU, instr uint32) {
	rd := (instr >> 8) & 7
	word8 := instr & 0xFF
	base := (c.R[15] + 2) &^ 3
	addr := base + word8*4
	c.R[rd] = c.Bus.Read32(c.Num, addr)
	c.chargeMemCycles(bus.N32, addr)
}

// Format 7: load/store with register offset (word/byte).
func tFormat7(c *CPU, instr uint32) {
	load := instr&(1<<11) != 0
	byteWidth := instr&(1<<10) != 0
	ro := (instr >> 6) & 7
	rb := (instr >> 3) & 7
	rd := instr & 7
	addr := c.R[rb] + c.R[ro]

	switch {
	case load && byteWidth:
		c.R[rd] = uint32(c.Bus.Read8(c.Num, addr))
		c.chargeMemCycles(bus.N16, addr)
	case load:
		aligned := addr &^ 3
		c.R[rd] = rotr32(c.Bus.Read32(c.Num, aligned), (addr&3)*8)
		c.chargeMemCycles(bus.N32, aligned)
	case byteWidth:
		c.Bus.Write8(c.Num, addr, uint8(c.R[rd]))
		c.chargeMemCycles(bus.N16, addr)
	default:
		aligned := addr &^ 3
		c.Bus.Write32(c.Num, aligned, c.R[rd])
		c.chargeMemCycles(bus.N32, aligned)
	}
}

// Format 8: load/store sign-extended halfword/byte with register offset.
func tFormat8(c *CPU, instr uint32) {
	h := instr&(1<<11) != 0
	s := instr&(1<<10) != 0
	ro := (instr >> 6) & 7
	rb := (instr >> 3) & 7
	rd := instr & 7
	addr := c.R[rb] + c.R[ro]

	switch {
	case !s && !h: // STRH
		c.Bus.Write16(c.Num, addr&^1, uint16(c.R[rd]))
	case !s && h: // LDRH
		c.R[rd] = uint32(c.Bus.Read16(c.Num, addr&^1))
	case s && !h: // LDSB
		c.R[rd] = uint32(int32(int8(c.Bus.Read8(c.Num, addr))))
	default: // LDSH
		c.R[rd] = uint32(int32(int16(c.Bus.Read16(c.Num, addr&^1))))
	}
	c.chargeMemCycles(bus.N16, addr)
}

// Format 9: load/store with immediate offset (word/byte).
func tFormat9(c *CPU, instr uint32) {
	byteWidth := instr&(1<<12) != 0
	load := instr&(1<<11) != 0
	offset5 := (instr >> 6) & 0x1F
	rb := (instr >> 3) & 7
	rd := instr & 7

	var addr uint32
	if byteWidth {
		addr = c.R[rb] + offset5
	} else {
		addr = c.R[rb] + offset5*4
	}

	switch {
	case load && byteWidth:
		c.R[rd] = uint32(c.Bus.Read8(c.Num, addr))
		c.chargeMemCycles(bus.N16, addr)
	case load:
		aligned := addr &^ 3
		c.R[rd] = rotr32(c.Bus.Read32(c.Num, aligned), (addr&3)*8)
		c.chargeMemCycles(bus.N32, aligned)
	case byteWidth:
		c.Bus.Write8(c.Num, addr, uint8(c.R[rd]))
		c.chargeMemCycles(bus.N16, addr)
	default:
		aligned := addr &^ 3
		c.Bus.Write32(c.Num, aligned, c.R[rd])
		c.chargeMemCycles(bus.N32, aligned)
	}
}

// Format 10: load/store halfword with immediate offset.
func tFormat10(c *CPU, instr uint32) {
	load := instr&(1<<11) != 0
	offset5 := (instr >> 6) & 0x1F
	rb := (instr >> 3) & 7
	rd := instr & 7
	addr := c.R[rb] + offset5*2

	if load {
		c.R[rd] = uint32(c.Bus.Read16(c.Num, addr&^1))
	} else {
		c.Bus.Write16(c.Num, addr&^1, uint16(c.R[rd]))
	}
	c.chargeMemCycles(bus.N16, addr)
}

// Format 11: SP-relative load/store.
func tFormat11(c *CPU, instr uint32) {
	load := instr&(1<<11) != 0
	rd := (instr >> 8) & 7
	word8 := instr & 0xFF
	addr := c.R[13] + word8*4
	aligned := addr &^ 3

	if load {
		c.R[rd] = rotr32(c.Bus.Read32(c.Num, aligned), (addr&3)*8)
	} else {
		c.Bus.Write32(c.Num, aligned, c.R[rd])
	}
	c.chargeMemCycles(bus.N32, aligned)
}

// Format 12: load address, ADD Rd, PC|SP, #Word8.
func tFormat12(c *CPU, instr uint32) {
	sp := instr&(1<<11) != 0
	rd := (instr >> 8) & 7
	word8 := instr & 0xFF

	var base uint32
	if sp {
		base = c.R[13]
	} else {
		base = (c.R[15] + 2) &^ 3
	}
	c.R[rd] = base + word8*4
}

// Format 13: ADD SP, #SWord7.
func tFormat13(c *CPU, instr uint32) {
	neg := instr&(1<<7) != 0
	word7 := (instr & 0x7F) * 4
	if neg {
		c.R[13] -= word7
	} else {
		c.R[13] += word7
	}
}

// Format 14: PUSH (with optional LR).
func tFormat14Push(c *CPU, instr uint32) {
	includeLR := instr&(1<<8) != 0
	list := instr & 0xFF

	count := 0
	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			count++
		}
	}
	if includeLR {
		count++
	}

	base := c.R[13] - uint32(count)*4
	addr := base
	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			c.Bus.Write32(c.Num, addr, c.R[i])
			c.chargeMemCycles(bus.N32, addr)
			addr += 4
		}
	}
	if includeLR {
		c.Bus.Write32(c.Num, addr, c.R[14])
		c.chargeMemCycles(bus.N32, addr)
	}
	c.R[13] = base
}

// Format 14: POP (with optional PC).
func tFormat14Pop(c *CPU, instr uint32) {
	includePC := instr&(1<<8) != 0
	list := instr & 0xFF
	addr := c.R[13]

	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			c.R[i] = c.Bus.Read32(c.Num, addr)
			c.chargeMemCycles(bus.N32, addr)
			addr += 4
		}
	}

	if includePC {
		pc := c.Bus.Read32(c.Num, addr)
		c.chargeMemCycles(bus.N32, addr)
		addr += 4
		c.R[13] = addr
		c.JumpTo(pc, false)
		return
	}
	c.R[13] = addr
}

// Format 15: STMIA/LDMIA Rb!, {Rlist}. Writeback is suppressed only when
// Rb is itself in the list of an LDM, per the Thumb-specific (unambiguous,
// unlike the 32-bit LDM/STM) base-register rule.
func tFormat15(c *CPU, instr uint32) {
	load := instr&(1<<11) != 0
	rb := (instr >> 8) & 7
	list := instr & 0xFF
	addr := c.R[rb]
	rbInList := list&(1<<uint(rb)) != 0

	for i := 0; i < 8; i++ {
		if list&(1<<uint(i)) != 0 {
			if load {
				c.R[i] = c.Bus.Read32(c.Num, addr)
			} else {
				c.Bus.Write32(c.Num, addr, c.R[i])
			}
			c.chargeMemCycles(bus.N32, addr)
			addr += 4
		}
	}

	if !load || !rbInList {
		c.R[rb] = addr
	}
}

// Format 16: conditional branch.
func tFormat16(c *CPU, instr uint32) {
	cond := (instr >> 8) & 0xF
	if !c.CheckCondition(cond) {
		return
	}
	offset := int32(int8(instr&0xFF)) * 2
	c.JumpTo(uint32(int32(c.R[15]+2)+offset), false)
}

func tFormat17(c *CPU, instr uint32) {
	aSWI(c, instr)
}

// Format 18: unconditional branch.
func tFormat18(c *CPU, instr uint32) {
	offset := signExtend11(instr&0x7FF) << 1
	c.JumpTo(uint32(int32(c.R[15]+2)+offset), false)
}

func signExtend11(v uint32) int32 {
	if v&0x400 != 0 {
		return int32(v | 0xFFFFF800)
	}
	return int32(v)
}

// Format 19: BL/BLX, split across two consecutive halfwords. The
// in-progress address accumulates in LR between the two halves, exactly
// as original_source/ARMInterpreter_Branch.cpp's A_BL_LONG_1/2 do.
func tBLPrefix(c *CPU, instr uint32) {
	offsetHi := instr & 0x7FF
	signed := signExtend11(offsetHi) << 12
	c.R[14] = uint32(int32(c.R[15]+2) + signed)
}

func tBLSuffix(c *CPU, instr uint32) {
	offsetLo := (instr & 0x7FF) << 1
	target := c.R[14] + offsetLo
	ret := c.R[15] | 1
	c.R[14] = ret
	c.JumpTo(target|1, false)
}

func tBLXSuffix(c *CPU, instr uint32) {
	offsetLo := (instr & 0x7FF) << 1
	target := (c.R[14] + offsetLo) &^ 3
	ret := c.R[15] | 1
	c.R[14] = ret
	c.JumpTo(target, false)
}
