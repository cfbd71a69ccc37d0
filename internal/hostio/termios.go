/*
 * Kestrel - raw-terminal mode for the interactive console.
 *
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

// Package hostio holds host-terminal concerns that fall outside what
// peterh/liner already manages for the line-edited console: putting stdin
// into cbreak mode via golang.org/x/sys/unix ioctls, the way Gopher2600 in
// the retrieval pack reaches for x/sys rather than shelling out to stty.
// Nothing in cmd/kestrel calls it; the "-headless" run mode only waits for
// SIGINT/SIGTERM.
package hostio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// RawTerminal puts fd into cbreak mode (no line buffering, no echo) and
// returns a restore function that must be called to put the terminal back.
func RawTerminal(fd int) (restore func() error, err error) {
	orig, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("hostio: get termios: %w", err)
	}

	raw := *orig
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG
	raw.Iflag &^= unix.IXON
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, fmt.Errorf("hostio: set termios: %w", err)
	}

	return func() error {
		return unix.IoctlSetTermios(fd, unix.TCSETS, orig)
	}, nil
}

// StdinIsTerminal reports whether stdin is attached to a terminal, used to
// decide whether -headless mode can still poll keys from the controlling
// tty or must fall back to no input at all.
func StdinIsTerminal() bool {
	_, err := unix.IoctlGetTermios(int(os.Stdin.Fd()), unix.TCGETS)
	return err == nil
}
