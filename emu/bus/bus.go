package bus

/*
 * Kestrel - system bus and memory map.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// CPUID picks which CPU's view of the bus an access takes - the two cores
// see different wait-state tables and, in a handful of ranges, different
// devices entirely at the same address.
type CPUID int

const (
	CPUA CPUID = 0 // ARMv5 core, boots from the high exception vector
	CPUB CPUID = 1 // ARMv4T core, boots from the low exception vector
)

// AccessKind selects which column of the wait-state table an access charges
// against, mirroring the four access shapes the teacher's CPU package
// distinguishes by cycle cost.
type AccessKind int

const (
	N16 AccessKind = iota // non-sequential halfword
	S16                   // sequential halfword
	N32                   // non-sequential word
	S32                   // sequential word
)

const (
	mainRAMSize    = 4 * 1024 * 1024
	bios7Size      = 16 * 1024
	bios9Size      = 32 * 1024
)

// Bus owns every backing store both cores read and write through: main RAM,
// the two BIOS images, the banked shared WRAM, the TCMs and the VRAM chunk
// map. It routes an address according to the accessing core (only CPU A has
// TCMs and the cart window, each core sees its own BIOS, and CPU B has a
// private WRAM window) and then consults a per-CPU wait-state table for
// timing.
type Bus struct {
	mainRAM [mainRAMSize]byte
	bios9   [bios9Size]byte
	bios7   [bios7Size]byte

	wram      WRAM
	tcm       [2]TCM // indexed by CPUID, only CPU A has a populated TCM pair
	vram      VRAM
	waitstate [2]WaitTable // indexed by CPUID

	// ioRead/ioWrite are installed by the cart/core packages for
	// memory-mapped registers (ROMCnt, SPICnt, IPC, interrupt controller...).
	// Keyed by the 24-bit region-relative address.
	ioRead  map[uint32]func(cpu CPUID, addr uint32, width int) uint32
	ioWrite map[uint32]func(cpu CPUID, addr uint32, width int, value uint32)

	cartRead func(addr uint32) uint32
}

// RegisterCart installs the cartridge slot's ROM-window reader, claiming the
// 0x08000000-0x09FFFFFF range CPU A sees as GBA-slot passthrough memory.
func (b *Bus) RegisterCart(read func(addr uint32) uint32) {
	b.cartRead = read
}

// New builds a bus with the given BIOS images installed and default
// wait-state tables for both cores.
func New(bios9, bios7 []byte) *Bus {
	b := &Bus{
		wram:    NewWRAM(),
		vram:    NewVRAM(),
		ioRead:  make(map[uint32]func(CPUID, uint32, int) uint32),
		ioWrite: make(map[uint32]func(CPUID, uint32, int, uint32)),
	}
	copy(b.bios9[:], bios9)
	copy(b.bios7[:], bios7)
	b.waitstate[CPUA] = defaultWaitTableA()
	b.waitstate[CPUB] = defaultWaitTableB()
	b.tcm[CPUA] = NewTCM()
	return b
}

// ConfigureITCM and ConfigureDTCM apply a CP15 TCM-setting-register write to
// CPU A's instruction/data TCM windows. CPU B has no CP15 and never calls
// these.
func (b *Bus) ConfigureITCM(setting uint32, enable bool) {
	b.tcm[CPUA].SetITCM(setting, enable)
}

func (b *Bus) ConfigureDTCM(setting uint32, enable bool) {
	b.tcm[CPUA].SetDTCM(setting, enable)
}

// RegisterIO installs MMIO handlers for a region-relative address, used by
// the cartridge slot and interrupt controller to claim their register
// windows without the bus package needing to know about either.
func (b *Bus) RegisterIO(addr uint32, read func(cpu CPUID, addr uint32, width int) uint32, write func(cpu CPUID, addr uint32, width int, value uint32)) {
	if read != nil {
		b.ioRead[addr] = read
	}
	if write != nil {
		b.ioWrite[addr] = write
	}
}

// Waitstate looks up the wait-state table recovered from the original
// implementation's ARM::Waitstates[4][16]: columns are access kind, rows are
// the address-space high nibble.
func (b *Bus) Waitstate(cpu CPUID, kind AccessKind, addr uint32) int {
	return b.waitstate[cpu][kind][(addr>>24)&0xF]
}

// decode order, per the bus contract: ITCM, then DTCM, then the BIOS
// protection window, then the general region table. Only CPU A has TCMs.
func (b *Bus) route(cpu CPUID, addr uint32) (region int, offset uint32) {
	if cpu == CPUA {
		if b.tcm[CPUA].ITCMContains(addr) {
			return regionITCM, b.tcm[CPUA].ITCMOffset(addr)
		}
		if b.tcm[CPUA].DTCMContains(addr) {
			return regionDTCM, b.tcm[CPUA].DTCMOffset(addr)
		}
	}

	hi := addr >> 24
	switch {
	case hi == 0x0:
		if cpu == CPUA {
			return regionBIOS9, addr & (bios9Size - 1)
		}
		return regionBIOS7, addr & (bios7Size - 1)
	case hi == 0x2:
		return regionMainRAM, addr & (mainRAMSize - 1)
	case hi == 0x3:
		// CPU B's 0x03800000-0x03FFFFFF window is hardwired to its private
		// 64 KiB WRAM block and never participates in the banked-ownership
		// lookup the 0x03000000 shared window goes through - bit 23 is the
		// only thing distinguishing the two from the top byte alone, so the
		// shared-window case below must not see it.
		if cpu == CPUB && addr&0x00800000 != 0 {
			return regionWRAMPrivateB, addr & (cpuBPrivateWRAMSize - 1)
		}
		return regionSharedWRAM, addr
	case hi == 0x4:
		return regionIO, addr & 0x00FFFFFF
	case hi == 0x5:
		return regionPalette, addr
	case hi == 0x6:
		return regionVRAM, addr
	case hi == 0x7:
		return regionOAM, addr
	case hi >= 0x8 && hi <= 0x9 && cpu == CPUA:
		return regionCartROM, addr
	case cpu == CPUA && addr >= 0xFFFF0000:
		return regionBIOS9, addr & (bios9Size - 1)
	default:
		return regionUnmapped, addr
	}
}

const (
	regionITCM = iota
	regionDTCM
	regionBIOS9
	regionBIOS7
	regionMainRAM
	regionSharedWRAM
	regionWRAMPrivateB
	regionIO
	regionPalette
	regionVRAM
	regionOAM
	regionCartROM
	regionUnmapped
)

// Read32 performs a word read from the given CPU's point of view.
func (b *Bus) Read32(cpu CPUID, addr uint32) uint32 {
	addr &= ^uint32(3)
	region, off := b.route(cpu, addr)
	switch region {
	case regionITCM:
		return b.tcm[CPUA].ReadITCM32(off)
	case regionDTCM:
		return b.tcm[CPUA].ReadDTCM32(off)
	case regionBIOS9:
		return readLE32(b.bios9[:], off)
	case regionBIOS7:
		return readLE32(b.bios7[:], off)
	case regionMainRAM:
		return readLE32(b.mainRAM[:], off)
	case regionSharedWRAM:
		return b.wram.Read32(cpu, off)
	case regionWRAMPrivateB:
		return b.wram.ReadPrivate32(off)
	case regionIO:
		if fn, ok := b.ioRead[off&^3]; ok {
			return fn(cpu, off, 32)
		}
		return 0
	case regionVRAM:
		return b.vram.Read32(off)
	case regionCartROM:
		if b.cartRead != nil {
			return b.cartRead(off)
		}
		return 0
	default:
		return 0
	}
}

// Write32 performs a word write from the given CPU's point of view.
func (b *Bus) Write32(cpu CPUID, addr uint32, value uint32) {
	addr &= ^uint32(3)
	region, off := b.route(cpu, addr)
	switch region {
	case regionITCM:
		b.tcm[CPUA].WriteITCM32(off, value)
	case regionDTCM:
		b.tcm[CPUA].WriteDTCM32(off, value)
	case regionMainRAM:
		writeLE32(b.mainRAM[:], off, value)
	case regionSharedWRAM:
		b.wram.Write32(cpu, off, value)
	case regionWRAMPrivateB:
		b.wram.WritePrivate32(off, value)
	case regionIO:
		if fn, ok := b.ioWrite[off&^3]; ok {
			fn(cpu, off, 32, value)
		}
	case regionVRAM:
		b.vram.Write32(off, value)
	}
}

// Read16 performs a halfword read.
func (b *Bus) Read16(cpu CPUID, addr uint32) uint16 {
	v := b.Read32(cpu, addr&^uint32(1))
	if addr&2 != 0 {
		return uint16(v >> 16)
	}
	return uint16(v)
}

// Write16 performs a halfword write, merged into the containing word.
func (b *Bus) Write16(cpu CPUID, addr uint32, value uint16) {
	base := addr &^ uint32(1)
	word := b.Read32(cpu, base&^uint32(3))
	shift := (base & 2) * 8
	mask := uint32(0xFFFF) << shift
	word = (word &^ mask) | (uint32(value) << shift)
	b.Write32(cpu, base&^uint32(3), word)
}

// Read8 performs a byte read.
func (b *Bus) Read8(cpu CPUID, addr uint32) uint8 {
	v := b.Read32(cpu, addr&^uint32(3))
	shift := (addr & 3) * 8
	return uint8(v >> shift)
}

// Write8 performs a byte write, merged into the containing word.
func (b *Bus) Write8(cpu CPUID, addr uint32, value uint8) {
	base := addr &^ uint32(3)
	word := b.Read32(cpu, base)
	shift := (addr & 3) * 8
	mask := uint32(0xFF) << shift
	word = (word &^ mask) | (uint32(value) << shift)
	b.Write32(cpu, base, word)
}

func readLE32(mem []byte, off uint32) uint32 {
	off &= uint32(len(mem) - 1)
	return uint32(mem[off]) | uint32(mem[off+1])<<8 | uint32(mem[off+2])<<16 | uint32(mem[off+3])<<24
}

func writeLE32(mem []byte, off uint32, value uint32) {
	off &= uint32(len(mem) - 1)
	mem[off] = byte(value)
	mem[off+1] = byte(value >> 8)
	mem[off+2] = byte(value >> 16)
	mem[off+3] = byte(value >> 24)
}
