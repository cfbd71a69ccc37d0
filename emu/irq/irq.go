/*
   Kestrel interrupt controller: per-core IE/IF/IME registers.

   Grounded on original_source/NDS.cpp's two independent interrupt-controller
   blocks (one per core) and the teacher's device.go IRQ-line-bit convention,
   generalized from the teacher's single shared IRQ line
   (internal/sys_channel's channel-busy/attention signaling) to the two
   independent masks this architecture needs - CPU A and CPU B each mask and
   acknowledge interrupts on their own schedule.
*/
package irq

import (
	"sync"

	"github.com/kestrel-emu/kestrel/emu/bus"
)

// Controller owns the interrupt-enable, interrupt-flag and master-enable
// registers for both cores. A single mutex protects all three arrays since
// either core (and the device goroutines that raise lines on their behalf)
// may touch it concurrently.
type Controller struct {
	mu  sync.Mutex
	ime [2]bool
	ie  [2]uint32
	ifr [2]uint32
}

func New() *Controller {
	return &Controller{}
}

func (c *Controller) SetIME(cpu bus.CPUID, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ime[cpu] = v&1 != 0
}

func (c *Controller) IME(cpu bus.CPUID) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ime[cpu] {
		return 1
	}
	return 0
}

func (c *Controller) SetIE(cpu bus.CPUID, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ie[cpu] = v
}

func (c *Controller) IE(cpu bus.CPUID) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ie[cpu]
}

// IF reads the pending-interrupt flags.
func (c *Controller) IF(cpu bus.CPUID) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ifr[cpu]
}

// AckIF clears the written bits, matching the hardware's write-1-to-clear
// convention for the IF register.
func (c *Controller) AckIF(cpu bus.CPUID, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ifr[cpu] &^= v
}

// Raise sets one or more interrupt lines pending for cpu, identified by
// mask (one of the device.IRQ* bit constants, or an OR of several). Safe to
// call from any device goroutine (timers, DMA, the cartridge slot, the
// serial link).
func (c *Controller) Raise(cpu bus.CPUID, mask uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ifr[cpu] |= mask
}

// Pending reports whether cpu has an unmasked, enabled interrupt waiting -
// the predicate both TriggerIRQ's caller and the halt-wake path need.
func (c *Controller) Pending(cpu bus.CPUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ime[cpu] && c.ie[cpu]&c.ifr[cpu] != 0
}
