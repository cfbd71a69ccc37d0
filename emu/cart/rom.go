package cart

/*
 * Kestrel - cartridge ROM header parsing.
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

import (
	"errors"
	"fmt"
)

// ErrHeaderTooSmall/ErrCodeSectionOOB are the load_rom validation failures
// spec.md §7 calls for: header fields outside expected ranges, or declared
// code sections larger than the ROM actually is.
var (
	ErrHeaderTooSmall  = errors.New("cart: rom smaller than header requires")
	ErrCodeSectionOOB  = errors.New("cart: declared code section exceeds rom size")
)

const headerSize = 0x170

// Header is the subset of ROM header fields the emulator consumes, per
// spec.md §6.
type Header struct {
	Title       string
	GameCode    uint32
	ARM9Offset  uint32
	ARM9Size    uint32
	ARM7Offset  uint32
	ARM7Size    uint32
	BannerOff   uint32
	NANDSaveWin uint32
	DSiFlag     bool
	RegionMask  byte
}

func le32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

// ParseHeader validates and extracts the ROM header fields named in
// spec.md §6.
func ParseHeader(rom []byte) (Header, error) {
	if len(rom) < headerSize {
		return Header{}, ErrHeaderTooSmall
	}

	h := Header{
		Title:       trimASCII(rom[0x00:0x0C]),
		GameCode:    le32(rom, 0x0C),
		ARM9Offset:  le32(rom, 0x20),
		ARM9Size:    le32(rom, 0x28),
		ARM7Offset:  le32(rom, 0x30),
		ARM7Size:    le32(rom, 0x38),
		BannerOff:   le32(rom, 0x68),
		NANDSaveWin: le32(rom, 0x94),
		DSiFlag:     rom[0x12]&0x02 != 0,
		RegionMask:  rom[0x1D],
	}

	if uint64(h.ARM9Offset)+uint64(h.ARM9Size) > uint64(len(rom)) {
		return Header{}, fmt.Errorf("%w: arm9 %d+%d > %d", ErrCodeSectionOOB, h.ARM9Offset, h.ARM9Size, len(rom))
	}
	if uint64(h.ARM7Offset)+uint64(h.ARM7Size) > uint64(len(rom)) {
		return Header{}, fmt.Errorf("%w: arm7 %d+%d > %d", ErrCodeSectionOOB, h.ARM7Offset, h.ARM7Size, len(rom))
	}
	return h, nil
}

func trimASCII(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}
