/*
 * Kestrel - system configuration file parser test cases.
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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileAppliesRegisteredOptions(t *testing.T) {
	var got []string
	RegisterOption("BIOS9", func(v string) error {
		got = append(got, "bios9="+v)
		return nil
	})
	RegisterOption("REGION", func(v string) error {
		got = append(got, "region="+v)
		return nil
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "kestrel.cfg")
	contents := "# a comment\nBIOS9 = /roms/bios9.bin\nREGION US\n\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(got) != 2 || got[0] != "bios9=/roms/bios9.bin" || got[1] != "region=US" {
		t.Fatalf("applied options = %v", got)
	}
}

func TestLoadFileUnknownOption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kestrel.cfg")
	if err := os.WriteFile(path, []byte("NOSUCHOPTION value\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadFile(path); err == nil {
		t.Fatal("expected an error for an unregistered option")
	}
}
