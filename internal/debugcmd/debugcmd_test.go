/*
 * Kestrel - debugger command table test cases.
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

package debugcmd

import "testing"

func TestLookupExactAndPrefix(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"step", "step", false},
		{"s", "step", false},
		{"regs", "regs", false},
		{"reset", "reset", false},
		{"re", "", true}, // ambiguous between regs and reset
		{"r", "regs", false},
		{"xyz", "", true},
	}

	for _, c := range cases {
		got, err := Lookup(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("Lookup(%q): expected error, got %q", c.in, got.Name)
			}
			continue
		}
		if err != nil {
			t.Errorf("Lookup(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got.Name != c.want {
			t.Errorf("Lookup(%q) = %q, want %q", c.in, got.Name, c.want)
		}
	}
}

func TestCompleteReturnsAllMatches(t *testing.T) {
	got := Complete("r")
	if len(got) != 2 {
		t.Fatalf("Complete(%q) = %v, want 2 matches (regs, reset)", "r", got)
	}
}

func TestDispatchEmptyLine(t *testing.T) {
	out, quit, err := Dispatch("   ", nil)
	if out != "" || quit || err != nil {
		t.Fatalf("Dispatch(blank) = (%q, %v, %v), want (\"\", false, nil)", out, quit, err)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	_, _, err := Dispatch("frobnicate", nil)
	if err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}
