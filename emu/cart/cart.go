package cart

/*
 * Kestrel - cartridge slot: ROM-command protocol engine.
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
	"log/slog"

	"github.com/kestrel-emu/kestrel/emu/bus"
	"github.com/kestrel-emu/kestrel/emu/device"
	"github.com/kestrel-emu/kestrel/emu/irq"
	"github.com/kestrel-emu/kestrel/emu/scheduler"
)

// Variant tags the cartridge's shape - a re-architecture of the source's
// class hierarchy (Design Notes §9) into a single tagged struct. Shared
// behavior (KEY1/KEY2, plain-mode commands, generic SPI framing) lives in
// this file and key1.go/key2.go; variant-specific behavior is gated on
// Variant in key2Command and sdRead.
type Variant int

const (
	Retail Variant = iota
	RetailNAND
	RetailIR
	RetailBT
	Homebrew
	R4
)

type cmdMode int

const (
	modePlain cmdMode = iota
	modeKey1
	modeKey2
)

// ROMCnt/SPICnt bit layout, per spec.md §6.
const (
	romCntKey2Apply  uint32 = 1 << 15
	romCntWordReady  uint32 = 1 << 23
	romCntDirection  uint32 = 1 << 30
	romCntBusy       uint32 = 1 << 31
	romCntSizeShift         = 24
	romCntSizeMask   uint32 = 0x7 << romCntSizeShift
	romCntClockRate  uint32 = 1 << 27
	romCntLeadingMask uint32 = 0x1FFF
	romCntBlockShift        = 16
	romCntBlockMask  uint32 = 0x3F << romCntBlockShift

	spiCntHold    uint16 = 1 << 6
	spiCntBusy    uint16 = 1 << 7
	spiCntIRQDone uint16 = 1 << 14
	spiCntEnable  uint16 = 1 << 15
)

// dmaChannel is the cross-processor-exchange-selected DMA channel a
// data-ready event posts to: channel 5 on CPU A, channel 2 on CPU B.
func dmaChannel(cpu bus.CPUID) int {
	if cpu == bus.CPUA {
		return 5
	}
	return 2
}

// Cart is the cartridge slot's protocol engine: command decode through the
// current encryption mode, paced data transfer via the scheduler, and the
// AUX-SPI save-memory byte stream.
type Cart struct {
	rom     []byte
	Header  Header
	variant Variant

	save *SaveMemory
	sd   []byte // homebrew SD card image, served 512 bytes at a time

	keys        *KeyBuf
	key2        Key2State
	mode        cmdMode
	key2Applied bool

	romCnt uint32
	spiCnt uint16
	cmd    [8]byte

	owner bus.CPUID // which CPU currently owns the slot

	xfer transfer

	sched   *scheduler.Scheduler
	irqCtrl *irq.Controller

	chipID uint32

	log *slog.Logger
}

type transfer struct {
	data   []byte
	pos    int
	total  int
	cycles int // CPU-A cycles per transferred byte
	handle scheduler.Handle
}

// New builds a cartridge slot bound to a ROM image, save memory and the
// shared scheduler/interrupt controller.
func New(rom []byte, hdr Header, variant Variant, save *SaveMemory, sched *scheduler.Scheduler, irqCtrl *irq.Controller, log *slog.Logger) *Cart {
	if log == nil {
		log = slog.Default()
	}
	return &Cart{
		rom:     rom,
		Header:  hdr,
		variant: variant,
		save:    save,
		sched:   sched,
		irqCtrl: irqCtrl,
		chipID:  0x00001FC2,
		log:     log,
	}
}

// SetKeyBuf installs the KEY1 key buffer seeded from the CPU-B BIOS image;
// called once by the core after both BIOS images are loaded.
// SetKeyBuf installs the KEY1 key schedule and immediately bootstraps it
// against this cart's game code (level 2, modulus 2), matching the
// original's Key1_InitKeycode call right after ROM load and before any
// command is processed - not on every 0x3C, which only switches the slot
// into KEY1 command mode using whatever schedule is already bootstrapped.
func (c *Cart) SetKeyBuf(k *KeyBuf) {
	c.keys = k
	if c.keys != nil {
		c.keys.ApplyKeycode(c.Header.GameCode, 2, 2)
	}
}

// Reset returns the slot to plain command mode with no pending transfer.
func (c *Cart) Reset() {
	c.mode = modePlain
	c.key2Applied = false
	c.xfer = transfer{}
	c.romCnt = 0
	c.spiCnt = 0
}

func (c *Cart) Shutdown() {
	if c.save != nil {
		c.save.flush()
	}
}

func (c *Cart) Debug(debug string) error { return nil }

var _ device.Component = (*Cart)(nil)

// AttachToBus installs the cart's MMIO handlers and ROM-window reader.
func (c *Cart) AttachToBus(b *bus.Bus) {
	b.RegisterCart(c.readROMWindow)
	b.RegisterIO(0x1A0, c.readAuxSPI, c.writeAuxSPI)
	b.RegisterIO(0x1A4, c.readROMCnt, c.writeROMCnt)
	b.RegisterIO(0x1A8, c.readCommandLo, c.writeCommandLo)
	b.RegisterIO(0x1AC, c.readCommandHi, c.writeCommandHi)
	b.RegisterIO(0x100010, c.readData, nil)
}

func (c *Cart) readROMWindow(addr uint32) uint32 {
	off := int(addr & 0x01FFFFFF)
	if off+4 > len(c.rom) {
		return 0xFFFFFFFF
	}
	return le32(c.rom, off)
}

func (c *Cart) readAuxSPI(cpu bus.CPUID, addr uint32, width int) uint32 {
	if width == 16 {
		return uint32(c.spiCnt)
	}
	return 0
}

func (c *Cart) writeAuxSPI(cpu bus.CPUID, addr uint32, width int, value uint32) {
	if width != 16 {
		return
	}
	wasHold := c.spiCnt&spiCntHold != 0
	c.spiCnt = uint16(value)
	nowHold := c.spiCnt&spiCntHold != 0
	if wasHold && !nowHold && c.save != nil {
		c.save.Select(false)
	} else if !wasHold && nowHold && c.save != nil {
		c.save.Select(true)
	}
}

func (c *Cart) readROMCnt(cpu bus.CPUID, addr uint32, width int) uint32 { return c.romCnt }

func (c *Cart) readCommandLo(cpu bus.CPUID, addr uint32, width int) uint32 { return 0 }
func (c *Cart) writeCommandLo(cpu bus.CPUID, addr uint32, width int, value uint32) {
	c.cmd[0] = byte(value >> 24)
	c.cmd[1] = byte(value >> 16)
	c.cmd[2] = byte(value >> 8)
	c.cmd[3] = byte(value)
}

func (c *Cart) readCommandHi(cpu bus.CPUID, addr uint32, width int) uint32 { return 0 }
func (c *Cart) writeCommandHi(cpu bus.CPUID, addr uint32, width int, value uint32) {
	c.cmd[4] = byte(value >> 24)
	c.cmd[5] = byte(value >> 16)
	c.cmd[6] = byte(value >> 8)
	c.cmd[7] = byte(value)
}

func (c *Cart) readData(cpu bus.CPUID, addr uint32, width int) uint32 {
	return c.popWord()
}

// writeROMCnt starts a command transfer when the start/busy bit transitions
// high, per spec.md §4.4's control-start sequence. Bit 15 (romCntKey2Apply)
// re-seeds the KEY2 LFSRs, matching the source's WriteCnt trigger, and is
// independent of the busy/start bit.
func (c *Cart) writeROMCnt(cpu bus.CPUID, addr uint32, width int, value uint32) {
	was := c.romCnt&romCntBusy != 0
	c.romCnt = value

	if value&romCntKey2Apply != 0 {
		seedX, seedY := key2SeedsFromGameCode(c.Header.GameCode)
		c.key2.Seed(seedX, seedY)
	}

	if !was && value&romCntBusy != 0 {
		c.owner = cpu
		c.startTransfer()
	}
}

func sizeCodeToBytes(code uint32) int {
	if code == 0 {
		return 0
	}
	if code == 7 {
		return 4
	}
	return 0x100 << code
}

func (c *Cart) startTransfer() {
	size := sizeCodeToBytes((c.romCnt & romCntSizeMask) >> romCntSizeShift)
	cycles := 8
	if c.romCnt&romCntClockRate == 0 {
		cycles = 5
	}
	leading := int(c.romCnt & romCntLeadingMask)
	blockDelay := int((c.romCnt & romCntBlockMask) >> romCntBlockShift)

	out := c.dispatchCommand(size)

	c.xfer = transfer{data: out, pos: 0, total: len(out), cycles: cycles}
	if len(out) == 0 {
		c.romCnt &^= romCntBusy
		return
	}

	firstDelay := (leading + 4) * cycles
	c.scheduleChunk(firstDelay, blockDelay)
}

func (c *Cart) scheduleChunk(delay, blockDelay int) {
	c.xfer.handle = c.sched.Schedule(delay, func(int) {
		c.onDataReady(blockDelay)
	}, 0)
}

func (c *Cart) onDataReady(blockDelay int) {
	c.romCnt |= romCntWordReady
	// dmaChannel names which DMA arbiter channel the data-ready event
	// should post to; the DMA controller (not modeled here) is expected to
	// poll ROMCnt's word-ready bit on that channel per spec.md §4.4 step 3.
	_ = dmaChannel(c.owner)

	if c.key2Applied {
		// One event readies one word; advance the LFSRs once per byte of it
		// so they stay in lockstep with the real hardware even though their
		// output never touches the data here.
		for range 4 {
			c.key2.Apply()
		}
	}

	remaining := c.xfer.total - c.xfer.pos
	if remaining <= 0 {
		c.completeTransfer()
		return
	}

	next := 4 * c.xfer.cycles
	if c.xfer.pos%512 == 0 {
		next += blockDelay
	}
	c.scheduleChunk(next, blockDelay)
}

func (c *Cart) completeTransfer() {
	c.romCnt &^= (romCntBusy | romCntWordReady)
	if c.spiCnt&spiCntIRQDone != 0 {
		c.irqCtrl.Raise(c.owner, device.IRQCartDataReady)
	}
}

// popWord consumes the next 4 bytes of the active transfer, returning
// 0xFFFFFFFF past the end - the CPU drains the FIFO by reading the data
// register.
func (c *Cart) popWord() uint32 {
	if c.xfer.pos+4 > len(c.xfer.data) {
		return 0xFFFFFFFF
	}
	v := le32(c.xfer.data, c.xfer.pos)
	c.xfer.pos += 4
	return v
}

// dispatchCommand decodes c.cmd through the current encryption mode and
// returns the data stream for the requested transfer length.
func (c *Cart) dispatchCommand(size int) []byte {
	switch c.mode {
	case modePlain:
		return c.plainCommand(size)
	case modeKey1:
		return c.key1Command(size)
	case modeKey2:
		return c.key2Command(size)
	}
	return nil
}

func (c *Cart) plainCommand(size int) []byte {
	switch c.cmd[0] {
	case 0x9F:
		return ones(size)
	case 0x00:
		return c.readHeaderWindow(size)
	case 0x90:
		return repeatWord(c.chipID, size)
	case 0x3C:
		c.mode = modeKey1
		return nil
	default:
		c.log.Warn("cart: unknown plain command", "cmd", c.cmd[0])
		return ones(size)
	}
}

func (c *Cart) key1Command(size int) []byte {
	if c.keys == nil {
		return ones(size)
	}
	dec := c.cmd
	c.keys.DecryptCommand(dec[:])

	switch dec[0] >> 4 {
	case 0x4:
		c.key2Applied = true
		return nil
	case 0x1:
		return repeatWord(c.chipID, size)
	case 0x2:
		addr := uint32(dec[2]&0xF0) << 8
		return c.readROMAt(addr, size)
	case 0xA:
		// Only switches command decoding into KEY2 mode; the LFSRs are
		// (re-)seeded separately, by a ROMCnt write with romCntKey2Apply set
		// (see writeROMCnt), matching the source's WriteCnt/Key1_InitKeycode
		// split between "enter KEY2 mode" and "load the seed".
		c.mode = modeKey2
		return nil
	default:
		c.log.Warn("cart: unrecognized key1 command", "nibble", dec[0]>>4)
		return ones(size)
	}
}

func (c *Cart) key2Command(size int) []byte {
	switch c.cmd[0] {
	case 0xB7:
		addr := uint32(c.cmd[1])<<24 | uint32(c.cmd[2])<<16 | uint32(c.cmd[3])<<8 | uint32(c.cmd[4])
		return c.readROMAt(c.clampB7(addr), size)
	case 0xB8:
		return repeatWord(c.chipID, size)
	case 0x81, 0x82, 0xB2, 0x85, 0x8B:
		if c.save != nil && c.variant == RetailNAND {
			addr := uint32(c.cmd[1])<<24 | uint32(c.cmd[2])<<16 | uint32(c.cmd[3])<<8 | uint32(c.cmd[4])
			c.save.NANDCommand(c.cmd[0], addr, nil)
		}
		return make([]byte, size)
	case 0x94:
		return make([]byte, size)
	case 0xC0:
		return c.sdRead(size)
	case 0xC1:
		return make([]byte, size)
	default:
		c.log.Warn("cart: unrecognized key2 command", "cmd", c.cmd[0])
		return ones(size)
	}
}

// clampB7 implements the two clamp rules recovered from original_source's
// ReadROM_B7: sub-0x8000 addresses remap into the scratch window, and
// DSi-region addresses clamp in non-DSi mode.
func (c *Cart) clampB7(addr uint32) uint32 {
	if addr < 0x8000 {
		return 0x8000 + (addr & 0x1FF)
	}
	if !c.Header.DSiFlag && addr >= 0x10000000 {
		return addr & 0x0FFFFFFF
	}
	return addr
}

func (c *Cart) readROMAt(addr uint32, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		off := int(addr) + i
		if off < len(c.rom) {
			out[i] = c.rom[off]
		} else {
			out[i] = 0xFF
		}
	}
	return out
}

func (c *Cart) readHeaderWindow(size int) []byte {
	const headerWindow = 0x1000
	out := make([]byte, size)
	for i := range out {
		if i < headerWindow && i < len(c.rom) {
			out[i] = c.rom[i]
		}
	}
	return out
}

func (c *Cart) sdRead(size int) []byte {
	out := make([]byte, size)
	if c.variant != Homebrew || c.sd == nil {
		return out
	}
	sector := int(c.cmd[1])<<24 | int(c.cmd[2])<<16 | int(c.cmd[3])<<8 | int(c.cmd[4])
	off := sector * 512
	for i := range out {
		if off+i < len(c.sd) {
			out[i] = c.sd[off+i]
		}
	}
	return out
}

func ones(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = 0xFF
	}
	return out
}

func repeatWord(word uint32, n int) []byte {
	out := make([]byte, n)
	for i := 0; i+4 <= n; i += 4 {
		putLE32(out[i:], word)
	}
	return out
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
