package cart

/*
 * Kestrel - cartridge auxiliary-SPI save memory state machine.
 *
 * Copyright 2024, Richard Cornwell
 * Copyright 2026, Kestrel contributors
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

// ChipKind tags which save-memory command set SRAM speaks.
type ChipKind int

const (
	ChipNone ChipKind = iota
	ChipTinyEEPROM
	ChipEEPROM
	ChipFlash
	ChipNAND
	ChipHomebrewSD
)

const (
	cmdWRSR   = 0x01
	cmdWRLO   = 0x02
	cmdRDLO   = 0x03
	cmdWRDI   = 0x04
	cmdRDSR   = 0x05
	cmdWREN   = 0x06
	cmdWRHI   = 0x0A
	cmdRDHI   = 0x0B
	cmdPP     = 0x02 // page program, FLASH - shares the opcode with WRLO
	cmdPW     = 0x0A
	cmdFastRD = 0x0B
	cmdSE     = 0xD8
	cmdPE     = 0xDB
	cmdRDJedec = 0x9F

	statusWIP uint8 = 1 << 0
	statusWEL uint8 = 1 << 1
)

// WriteSave is the host persistence callback invoked when a dirty range is
// flushed at deselect.
type WriteSave func(data []byte, offset, length int)

// SaveMemory is the per-byte AUX-SPI state machine described by spec.md
// §4.4: byte 0 may stand alone as WREN/WRDI, otherwise it is a command
// whose following bytes are address then data. Grounded on
// original_source/NDSCart_SRAMs.cpp's per-kind command tables.
type SaveMemory struct {
	Kind ChipKind
	data []byte

	addrBytes int // 1, 2 or 3 depending on chip kind/capacity

	selected  bool
	pos       int // byte position within the current exchange
	cmd       byte
	addr      int
	status    uint8
	persist   WriteSave

	dirtyStart int
	dirtyLen   int

	// NAND-only staging state.
	nandStage    [2048]byte
	nandStaged   bool
	nandWindow   uint32
}

// NewSaveMemory builds a save-memory chip of the given kind and capacity,
// loaded with existing contents (e.g. from a host save file) if provided.
func NewSaveMemory(kind ChipKind, size int, existing []byte, persist WriteSave) *SaveMemory {
	s := &SaveMemory{Kind: kind, data: make([]byte, size), persist: persist}
	copy(s.data, existing)

	switch {
	case size <= 512:
		s.addrBytes = 1
	case size <= 1<<16:
		s.addrBytes = 2
	default:
		s.addrBytes = 3
	}
	return s
}

// Select asserts or releases chip select (the AUX-SPI control register's
// hold bit). Deselecting flushes any pending dirty range to the host.
func (s *SaveMemory) Select(hold bool) {
	if s.selected && !hold {
		s.flush()
	}
	if hold && !s.selected {
		s.pos = 0
	}
	s.selected = hold
}

func (s *SaveMemory) flush() {
	if s.dirtyLen > 0 && s.persist != nil {
		s.persist(s.data, s.dirtyStart, s.dirtyLen)
	}
	s.dirtyLen = 0
}

func (s *SaveMemory) markDirty(off, n int) {
	if s.dirtyLen == 0 {
		s.dirtyStart = off
		s.dirtyLen = n
		return
	}
	end := s.dirtyStart + s.dirtyLen
	if off < s.dirtyStart {
		s.dirtyStart = off
	}
	if off+n > end {
		end = off + n
	}
	s.dirtyLen = end - s.dirtyStart
}

// Transfer exchanges one byte with the chip and returns the byte clocked
// out in response (undefined/0xFF for write-only phases).
func (s *SaveMemory) Transfer(in byte) byte {
	if s.pos == 0 {
		// Standalone WREN/WRDI bypass the command/address state machine
		// entirely, per spec.md's recovered feature #6.
		switch in {
		case cmdWREN:
			s.status |= statusWEL
			return 0
		case cmdWRDI:
			s.status &^= statusWEL
			return 0
		}
		s.cmd = in
		s.addr = 0
		s.pos++
		return 0xFF
	}

	switch s.cmd {
	case cmdRDSR:
		s.pos++
		return s.status
	case cmdWRSR:
		if s.pos == 1 {
			s.status = (s.status &^ 0xFC) | (in & 0xFC)
		}
		s.pos++
		return 0xFF
	case cmdRDJedec:
		s.pos++
		return 0
	case cmdWRLO, cmdWRHI:
		return s.tinyEEPROMWrite(in)
	case cmdRDLO, cmdRDHI:
		return s.tinyEEPROMRead(in)
	case cmdSE:
		return s.sectorErase(in)
	case cmdPE:
		return s.pageErase(in)
	default:
		return s.addressedTransfer(in)
	}
}

// tinyEEPROMWrite/tinyEEPROMRead implement the WRLO/WRHI/RDLO/RDHI command
// family shared by the tiny and regular EEPROM kinds: s.addrBytes address
// bytes (one on the tiny EEPROM), then data. The high/low command selects
// which half of the address space the address indexes into.
func (s *SaveMemory) tinyEEPROMWrite(in byte) byte {
	return s.addressedTransfer(in)
}

func (s *SaveMemory) tinyEEPROMRead(in byte) byte {
	return s.addressedTransfer(in)
}

func (s *SaveMemory) half() int {
	if s.Kind == ChipFlash {
		return 0
	}
	if s.cmd == cmdWRHI || s.cmd == cmdRDHI {
		return len(s.data) / 2
	}
	return 0
}

// addressedTransfer handles the common shape: s.addrBytes address bytes
// followed by a stream of data bytes, covering WRLO/WRHI/RDLO/RDHI (EEPROM),
// page-program/fast-read (FLASH) and the NAND staging commands.
func (s *SaveMemory) addressedTransfer(in byte) byte {
	idx := s.pos - 1 // address bytes start right after the command byte
	write := s.cmd == cmdWRLO || s.cmd == cmdWRHI || s.cmd == cmdPP

	if idx < s.addrBytes {
		s.addr = s.addr<<8 | int(in)
		s.pos++
		if idx == s.addrBytes-1 {
			s.addr += s.half()
		}
		return 0xFF
	}

	// FLASH fast-read inserts one dummy byte after the address. Gated on
	// Kind, not just the opcode value, since FLASH's fast-read (0x0B)
	// shares its byte with EEPROM's RDHI, which takes no dummy byte.
	if s.Kind == ChipFlash && s.cmd == cmdFastRD && idx == s.addrBytes {
		s.pos++
		return 0xFF
	}

	s.pos++
	if write {
		if s.status&statusWEL == 0 {
			return 0xFF
		}
		if s.addr >= 0 && s.addr < len(s.data) {
			s.data[s.addr] = in
			s.markDirty(s.addr, 1)
		}
		s.addr++
		return 0xFF
	}

	var out byte
	if s.addr >= 0 && s.addr < len(s.data) {
		out = s.data[s.addr]
	}
	s.addr++
	return out
}

func (s *SaveMemory) sectorErase(in byte) byte {
	idx := s.pos - 1
	if idx < s.addrBytes {
		s.addr = s.addr<<8 | int(in)
		s.pos++
		return 0xFF
	}
	if s.status&statusWEL != 0 {
		const sectorSize = 4096
		start := (s.addr / sectorSize) * sectorSize
		end := start + sectorSize
		if end > len(s.data) {
			end = len(s.data)
		}
		for i := start; i < end; i++ {
			s.data[i] = 0xFF
		}
		s.markDirty(start, end-start)
	}
	s.pos++
	return 0xFF
}

func (s *SaveMemory) pageErase(in byte) byte {
	idx := s.pos - 1
	if idx < s.addrBytes {
		s.addr = s.addr<<8 | int(in)
		s.pos++
		return 0xFF
	}
	const pageSize = 256
	start := (s.addr / pageSize) * pageSize
	end := start + pageSize
	if end > len(s.data) {
		end = len(s.data)
	}
	if s.status&statusWEL != 0 {
		for i := start; i < end; i++ {
			s.data[i] = 0xFF
		}
		s.markDirty(start, end-start)
	}
	s.pos++
	return 0xFF
}

// NANDCommand handles the ROM-side commands (0x81 stage, 0x82 commit, 0xB2
// window, 0x85/0x8B status toggles) that drive NAND save memory, issued
// through the cart's ROM-command path rather than the AUX-SPI byte stream.
func (s *SaveMemory) NANDCommand(cmd byte, addr uint32, data []byte) {
	switch cmd {
	case 0x81: // stage a write into the 2 KiB buffer
		n := copy(s.nandStage[:], data)
		_ = n
		s.nandStaged = true
	case 0x82: // commit the staged buffer at addr
		if !s.nandStaged {
			return
		}
		off := int(addr)
		n := copy(s.data[off:], s.nandStage[:])
		s.markDirty(off, n)
		s.nandStaged = false
	case 0xB2:
		s.nandWindow = addr
	case 0x85:
		s.status |= statusWEL
	case 0x8B:
		s.status &^= statusWEL
	}
}
