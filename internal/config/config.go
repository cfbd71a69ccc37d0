/*
 * Kestrel - system configuration file parser.
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

// Package config adapts the teacher's config/configparser: a small
// line-oriented file format (`# comment`, `KEY = value` or `KEY value...`)
// read into registered option handlers. The teacher's grammar is built
// around addressable S/370 devices (a device model, an optional hex
// address, dash/slash suboptions); none of that applies to a handheld
// system file, which only ever names flat option keys (BIOS paths, boot
// mode, region mask, CPU-A exception-base selection, SD image path), so
// the device-addressing half of the teacher's grammar is dropped and only
// the line-parsing/registration shape is kept - RegisterOption(name, fn),
// called from init() the same way util/debug registers "DEBUGFILE".
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

type optionFunc func(value string) error

var options = map[string]optionFunc{}

// RegisterOption should be called from init() by any package that owns a
// configurable knob, mirroring config/debugconfig's side-effecting
// registration-import pattern.
func RegisterOption(name string, fn optionFunc) {
	options[strings.ToUpper(name)] = fn
}

// LoadFile reads name line by line, applying `KEY = value` / `KEY value...`
// pairs to whichever handler registered that key. `#` starts a comment
// that runs to end of line.
func LoadFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	lineNumber := 0
	for {
		line, err := reader.ReadString('\n')
		lineNumber++
		if line != "" {
			if perr := parseLine(line); perr != nil {
				return fmt.Errorf("config: line %d: %w", lineNumber, perr)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	var key, rest string
	if i := strings.IndexByte(line, '='); i >= 0 {
		key = strings.TrimSpace(line[:i])
		rest = strings.TrimSpace(line[i+1:])
	} else {
		key, rest, _ = strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
	}

	fn, ok := options[strings.ToUpper(key)]
	if !ok {
		return fmt.Errorf("unknown option: %s", key)
	}
	return fn(rest)
}
