/*
Kestrel - shared component lifecycle and interrupt line constants.

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
package device

// Component is the lifecycle a bus-attached peripheral implements; the
// cartridge slot is its only implementation (the interrupt controller does
// not implement it). It replaces the teacher's channel-oriented Device interface
// (StartIO/StartCmd/HaltIO) with the much smaller contract a
// memory-mapped-register peripheral actually needs.
type Component interface {
	Reset()            // Return to post-power-on state.
	Shutdown()         // Release any host resources (open save files, etc).
	Debug(debug string) error // Enable a named debug trace for this component.
}

// IRQ lines, one bit per source, matching each core's interrupt-enable
// register layout.
const (
	IRQVBlank uint32 = 1 << iota
	IRQHBlank
	IRQVCount
	IRQTimer0
	IRQTimer1
	IRQTimer2
	IRQTimer3
	IRQSerial
	IRQDMA0
	IRQDMA1
	IRQDMA2
	IRQDMA3
	IRQKeypad
	IRQGBASlot
	_
	_
	IRQIPCSync
	IRQIPCSendEmpty
	IRQIPCRecvNonEmpty
	IRQCartDataReady
)

// NoDevice marks an absent bus component, the handheld analogue of the
// teacher's NoDev sentinel for an unattached channel device.
const NoDevice uint16 = 0xFFFF
