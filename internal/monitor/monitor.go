/*
 * Kestrel - remote debugger monitor.
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

// Package monitor adapts telnet's listener/accept/shutdown shape to a
// single-port remote debugger: one TCP listener, accepted connections fed
// through the same internal/debugcmd dispatcher the interactive console
// uses. The teacher's per-device multiplexer (telnet/multiplexer.go, one
// port per attachable S/370 unit-record device) has no analogue - a
// handheld system has one core pair and one cart slot, not a pool of
// addressable devices - so only the single-listener accept loop is kept.
package monitor

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/kestrel-emu/kestrel/emu/core"
	"github.com/kestrel-emu/kestrel/internal/debugcmd"
)

// Server is one listening monitor port bound to an emulation context.
type Server struct {
	wg       sync.WaitGroup
	listener net.Listener
	shutdown chan struct{}
	sys      *core.System
}

// Start opens a TCP listener on addr (":port" or "host:port") and begins
// accepting connections, each driven by its own goroutine.
func Start(addr string, sys *core.System) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("monitor: listen %s: %w", addr, err)
	}
	s := &Server{listener: l, shutdown: make(chan struct{}), sys: sys}
	s.wg.Add(1)
	go s.acceptLoop()
	slog.Info("monitor: listening", "addr", l.Addr().String())
	return s, nil
}

// Stop closes the listener and waits (with a one-second grace period) for
// in-flight connections to finish.
func (s *Server) Stop() {
	close(s.shutdown)
	s.listener.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("monitor: timed out waiting for connections to close")
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				continue
			}
		}
		s.wg.Add(1)
		go s.handleClient(conn)
	}
}

func (s *Server) handleClient(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	fmt.Fprint(conn, "kestrel monitor\n> ")
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		out, quit, err := debugcmd.Dispatch(scanner.Text(), s.sys)
		if err != nil {
			fmt.Fprintf(conn, "error: %s\n", err)
		} else if out != "" {
			fmt.Fprintln(conn, out)
		}
		if quit {
			return
		}
		fmt.Fprint(conn, "> ")
	}
}
