/*
   Kestrel ARM core: the barrel shifter used to build ALU operand 2.

   Grounded on original_source/ARMInterpreter_ALU.cpp's shift macros: LSL,
   LSR, ASR and ROR each have an immediate form and a register form, and
   each form has flag-setting and non-flag-setting variants. The "shift by
   0 means shift by 32" rule for LSR/ASR-immediate and the RRX-via-carry
   special case for ROR-by-0-immediate are both reproduced here.
*/
package cpu

// shiftResult is an operand-2 value plus the carry-out flag a flag-setting
// data-processing instruction folds into C.
type shiftResult struct {
	value uint32
	carry bool
}

// shiftImmediate evaluates one of the four shift kinds by an immediate
// amount encoded in a register-operand2 instruction (bits [11:7]).
func shiftImmediate(kind, amount uint32, value uint32, oldCarry bool) shiftResult {
	switch kind {
	case ShiftLSL:
		if amount == 0 {
			return shiftResult{value, oldCarry}
		}
		return shiftResult{value << amount, (value>>(32-amount))&1 != 0}
	case ShiftLSR:
		if amount == 0 {
			amount = 32
		}
		if amount >= 32 {
			return shiftResult{0, value&0x80000000 != 0 && amount == 32}
		}
		return shiftResult{value >> amount, (value>>(amount-1))&1 != 0}
	case ShiftASR:
		if amount == 0 {
			amount = 32
		}
		if amount >= 32 {
			if value&0x80000000 != 0 {
				return shiftResult{0xFFFFFFFF, true}
			}
			return shiftResult{0, false}
		}
		return shiftResult{uint32(int32(value) >> amount), (value>>(amount-1))&1 != 0}
	case ShiftROR:
		if amount == 0 {
			// RRX: rotate right by one through the carry flag.
			carryIn := uint32(0)
			if oldCarry {
				carryIn = 0x80000000
			}
			return shiftResult{(value >> 1) | carryIn, value&1 != 0}
		}
		amount &= 31
		if amount == 0 {
			return shiftResult{value, value&0x80000000 != 0}
		}
		return shiftResult{rotr32(value, amount), (value>>(amount-1))&1 != 0}
	}
	return shiftResult{value, oldCarry}
}

// shiftRegister evaluates one of the four shift kinds by an amount taken
// from the bottom byte of a register (the register-specified-shift-amount
// form). Amounts of 0 never trigger the "treat as 32" special case here -
// that rule is immediate-only.
func shiftRegister(kind uint32, amount uint32, value uint32, oldCarry bool) shiftResult {
	switch kind {
	case ShiftLSL:
		switch {
		case amount == 0:
			return shiftResult{value, oldCarry}
		case amount < 32:
			return shiftResult{value << amount, (value>>(32-amount))&1 != 0}
		case amount == 32:
			return shiftResult{0, value&1 != 0}
		default:
			return shiftResult{0, false}
		}
	case ShiftLSR:
		switch {
		case amount == 0:
			return shiftResult{value, oldCarry}
		case amount < 32:
			return shiftResult{value >> amount, (value>>(amount-1))&1 != 0}
		case amount == 32:
			return shiftResult{0, value&0x80000000 != 0}
		default:
			return shiftResult{0, false}
		}
	case ShiftASR:
		switch {
		case amount == 0:
			return shiftResult{value, oldCarry}
		case amount < 32:
			return shiftResult{uint32(int32(value) >> amount), (value>>(amount-1))&1 != 0}
		default:
			if value&0x80000000 != 0 {
				return shiftResult{0xFFFFFFFF, true}
			}
			return shiftResult{0, false}
		}
	case ShiftROR:
		if amount == 0 {
			return shiftResult{value, oldCarry}
		}
		amount &= 31
		if amount == 0 {
			return shiftResult{value, value&0x80000000 != 0}
		}
		return shiftResult{rotr32(value, amount), (value>>(amount-1))&1 != 0}
	}
	return shiftResult{value, oldCarry}
}

func rotr32(v, amount uint32) uint32 {
	amount &= 31
	if amount == 0 {
		return v
	}
	return (v >> amount) | (v << (32 - amount))
}
