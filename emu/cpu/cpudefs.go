/*
   Kestrel ARM core definitions: modes, PSR layout, condition table.

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

// Mode is the 5-bit mode field of CPSR/SPSR.
type Mode uint32

const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1B
	ModeSystem     Mode = 0x1F
)

// PSR bit layout.
const (
	FlagN uint32 = 1 << 31
	FlagZ uint32 = 1 << 30
	FlagC uint32 = 1 << 29
	FlagV uint32 = 1 << 28
	FlagQ uint32 = 1 << 27

	FlagI uint32 = 1 << 7 // IRQ disable
	FlagF uint32 = 1 << 6 // FIQ disable
	FlagT uint32 = 1 << 5 // Thumb state

	modeMask uint32 = 0x1F
)

// resetCPSR is the value both cores' CPSR takes after Reset: Supervisor
// mode, IRQ and FIQ disabled, ARM state.
const resetCPSR uint32 = 0x000000D3

// ConditionTable holds, for each of the 16 ARM condition codes, a 16-bit
// mask indexed by the NZCV nibble: bit n is set if the condition holds
// when NZCV == n. Recovered verbatim from original_source/ARM.cpp.
var ConditionTable = [16]uint16{
	0xF0F0, // EQ
	0x0F0F, // NE
	0xCCCC, // CS
	0x3333, // CC
	0xFF00, // MI
	0x00FF, // PL
	0xAAAA, // VS
	0x5555, // VC
	0x0C0C, // HI
	0xF3F3, // LS
	0xAA55, // GE
	0x55AA, // LT
	0x0A05, // GT
	0xF5FA, // LE
	0xFFFF, // AL
	0x0000, // NV
}

// Condition codes, for readable call sites in tests and the decoder.
const (
	CondEQ = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
	CondNV
)

// ALU opcodes, the 16 data-processing operations.
const (
	OpAND = iota
	OpEOR
	OpSUB
	OpRSB
	OpADD
	OpADC
	OpSBC
	OpRSC
	OpTST
	OpTEQ
	OpCMP
	OpCMN
	OpORR
	OpMOV
	OpBIC
	OpMVN
)

// Shift kinds for the ARM shifter.
const (
	ShiftLSL = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)
