package bus

/*
 * Kestrel - banked shared WRAM.
 *
 * Grounded on the banked-register-swap shape of original_source/ARM.cpp's
 * UpdateMode (swap-based reassignment of a shared resource between two
 * owners) generalized from CPU register banks to a banked memory region.
 */

const sharedWRAMSize = 32 * 1024
const cpuBPrivateWRAMSize = 64 * 1024

// WRAMControl is the 2-bit ownership mode of the shared WRAM block, set by
// the system control register. The two halves (16 KiB each) are assigned to
// CPU A and CPU B independently depending on mode.
type WRAMControl uint8

const (
	WRAMAllToA    WRAMControl = 0 // CPU A owns all 32 KiB; CPU B sees its private WRAM only
	WRAMSplitAFirst WRAMControl = 1 // CPU A sees bank 0, CPU B sees bank 1
	WRAMSplitBFirst WRAMControl = 2 // CPU A sees bank 1, CPU B sees bank 0
	WRAMAllToB    WRAMControl = 3 // CPU B owns all 32 KiB; CPU A sees an empty window
)

// WRAM is the shared 32 KiB block plus CPU B's private 64 KiB block.
type WRAM struct {
	shared  [sharedWRAMSize]byte
	private [cpuBPrivateWRAMSize]byte
	control WRAMControl
}

// NewWRAM returns WRAM with the reset ownership mode (all to CPU A).
func NewWRAM() WRAM {
	return WRAM{control: WRAMAllToA}
}

// SetControl changes the bank-ownership mode, the WRAM analogue of
// ARM.UpdateMode's bank swap.
func (w *WRAM) SetControl(mode WRAMControl) {
	w.control = mode & 3
}

// Control returns the current ownership mode.
func (w *WRAM) Control() WRAMControl {
	return w.control
}

// window returns the byte slice of shared WRAM visible to cpu at the given
// region-relative address, or nil if that CPU currently owns no shared
// window at that address (it falls through to private/open-bus).
func (w *WRAM) window(cpu CPUID, off uint32) []byte {
	bank := (off / (sharedWRAMSize / 2)) & 1
	switch w.control {
	case WRAMAllToA:
		if cpu == CPUA {
			return w.shared[:]
		}
		return nil
	case WRAMAllToB:
		if cpu == CPUB {
			return w.shared[:]
		}
		return nil
	case WRAMSplitAFirst:
		if cpu == CPUA && bank == 0 {
			return w.shared[:sharedWRAMSize/2]
		}
		if cpu == CPUB && bank == 1 {
			return w.shared[sharedWRAMSize/2:]
		}
		return nil
	case WRAMSplitBFirst:
		if cpu == CPUA && bank == 1 {
			return w.shared[sharedWRAMSize/2:]
		}
		if cpu == CPUB && bank == 0 {
			return w.shared[:sharedWRAMSize/2]
		}
		return nil
	}
	return nil
}

// Read32 reads a shared-WRAM word for cpu, falling back to CPU B's private
// WRAM when CPU B has no shared ownership at that address.
func (w *WRAM) Read32(cpu CPUID, off uint32) uint32 {
	if buf := w.window(cpu, off&(sharedWRAMSize-1)); buf != nil {
		return readLE32(buf, off&(uint32(len(buf))-1))
	}
	if cpu == CPUB {
		return readLE32(w.private[:], off&(cpuBPrivateWRAMSize-1))
	}
	return 0
}

// Write32 writes a shared-WRAM word for cpu, falling back to CPU B's
// private WRAM the same way Read32 does.
func (w *WRAM) Write32(cpu CPUID, off uint32, value uint32) {
	if buf := w.window(cpu, off&(sharedWRAMSize-1)); buf != nil {
		writeLE32(buf, off&(uint32(len(buf))-1), value)
		return
	}
	if cpu == CPUB {
		writeLE32(w.private[:], off&(cpuBPrivateWRAMSize-1), value)
	}
}

// ReadPrivate32 and WritePrivate32 access CPU B's dedicated 0x03800000
// window directly, bypassing the banked-ownership lookup Read32/Write32 go
// through: this window is hardwired private regardless of WRAMControl.
func (w *WRAM) ReadPrivate32(off uint32) uint32 {
	return readLE32(w.private[:], off&(cpuBPrivateWRAMSize-1))
}

func (w *WRAM) WritePrivate32(off uint32, value uint32) {
	writeLE32(w.private[:], off&(cpuBPrivateWRAMSize-1), value)
}
