/*
   Kestrel ARM core: data-processing instruction decode.

   Grounded on original_source/ARMInterpreter_ALU.cpp's
   A_CALC_OP2_IMM/A_CALC_OP2_REG_SHIFT_IMM/A_CALC_OP2_REG_SHIFT_REG operand
   builders feeding into A_IMPLEMENT_ALU_OP/A_IMPLEMENT_ALU_TEST.
*/
package cpu

func aDataProcessing(c *CPU, instr uint32) {
	i := (instr>>25)&1 != 0
	opcode := (instr >> 21) & 0xF
	setFlags := (instr>>20)&1 != 0
	rn := (instr >> 16) & 0xF
	rd := (instr >> 12) & 0xF

	op2 := c.operand2(instr, i)

	// Register-specified shifts take an extra cycle to read the shift
	// amount out of Rs, during which the pipeline has advanced one more
	// word: Rn (and Rm, handled in operand2) then read as PC+12 instead of
	// the usual PC+8. Every other operand2 form (immediate, or a shift by
	// an immediate amount) reads R15 at the plain PC+8 baseline already
	// baked into c.R[15].
	regShift := !i && instr&0x10 != 0

	var a uint32
	if usesOperandA(opcode) {
		a = c.R[rn]
		if rn == 15 && regShift {
			a += 4
		}
	}

	c.aluExec(opcode, rd, a, op2, setFlags)
}

// operand2 evaluates the shifter-produced second operand for a
// data-processing instruction, given the full 32-bit word and its I bit.
func (c *CPU) operand2(instr uint32, immediate bool) shiftResult {
	oldCarry := c.CPSR&FlagC != 0

	if immediate {
		imm8 := instr & 0xFF
		rotate := ((instr >> 8) & 0xF) * 2
		if rotate == 0 {
			return shiftResult{imm8, oldCarry}
		}
		rotated := rotr32(imm8, rotate)
		return shiftResult{rotated, rotated&0x80000000 != 0}
	}

	shiftType := (instr >> 5) & 3
	rm := instr & 0xF
	rmVal := c.R[rm]

	if instr&0x10 == 0 {
		// Shift-by-immediate: Rm reads as the plain PC+8 baseline already in
		// c.R[15], no further adjustment.
		shiftImm := (instr >> 7) & 0x1F
		return shiftImmediate(shiftType, shiftImm, rmVal, oldCarry)
	}

	rs := (instr >> 8) & 0xF
	amount := c.R[rs] & 0xFF
	if rm == 15 {
		rmVal += 4 // register-specified shift reads PC as address+12
	}
	return shiftRegister(shiftType, amount, rmVal, oldCarry)
}
