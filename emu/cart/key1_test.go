/*
 * Kestrel - KEY1 cipher test cases.
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

package cart

import "testing"

func fakeBIOS() []byte {
	b := make([]byte, 0x2000)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

func TestKeyBufSeedsFromBIOS(t *testing.T) {
	k := NewKeyBuf(fakeBIOS())
	if k.buf[0] == 0 && k.buf[1] == 0 {
		t.Fatal("key buffer was not seeded from the BIOS image")
	}
}

func TestEncryptDecryptBlockRoundTrips(t *testing.T) {
	k := NewKeyBuf(fakeBIOS())
	y0, x0 := uint32(0x12345678), uint32(0x9ABCDEF0)

	y1, x1 := k.encryptBlock(y0, x0)
	y2, x2 := k.decryptBlock(y1, x1)

	if y2 != y0 || x2 != x0 {
		t.Fatalf("round trip mismatch: got (%#x,%#x), want (%#x,%#x)", y2, x2, y0, x0)
	}
}

// TestDecryptCommandRoundTrips inverts DecryptCommand by hand using
// encryptBlock with the same half-swap convention, independently of
// DecryptCommand's own code, so a regression to the unswapped ordering in
// either function would make this test fail rather than pass tautologically.
func TestDecryptCommandRoundTrips(t *testing.T) {
	k := NewKeyBuf(fakeBIOS())
	k.ApplyKeycode(0xDEADBEEF, 2, 2)

	cmd := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	original := append([]byte(nil), cmd...)

	k.DecryptCommand(cmd)
	if string(cmd) == string(original) {
		t.Fatal("DecryptCommand left the command unchanged")
	}

	yOut := beWord(cmd[4:8])
	xOut := beWord(cmd[0:4])
	yIn, xIn := k.encryptBlock(yOut, xOut)

	restored := make([]byte, 8)
	putBEWord(restored[0:4], xIn)
	putBEWord(restored[4:8], yIn)

	if string(restored) != string(original) {
		t.Fatalf("re-encrypting the decrypted command did not recover the original: got %x, want %x", restored, original)
	}
}

// TestDecryptCommandCrossSwapsHalves pins the specific half-swap convention
// DecryptCommand must use (second half feeds y, first half feeds x, and the
// results land in the opposite halves from where they started) against an
// independently computed expectation, and checks that the un-swapped
// ordering would have produced a different, wrong answer.
func TestDecryptCommandCrossSwapsHalves(t *testing.T) {
	k := NewKeyBuf(fakeBIOS())
	k.ApplyKeycode(0xDEADBEEF, 2, 2)

	cmd := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	got := append([]byte(nil), cmd...)
	k.DecryptCommand(got)

	wantY, wantX := k.decryptBlock(beWord(cmd[4:8]), beWord(cmd[0:4]))
	want := make([]byte, 8)
	putBEWord(want[0:4], wantX)
	putBEWord(want[4:8], wantY)
	if string(got) != string(want) {
		t.Fatalf("DecryptCommand = %x, want %x (half-swap convention)", got, want)
	}

	sameOrderY, sameOrderX := k.decryptBlock(beWord(cmd[0:4]), beWord(cmd[4:8]))
	sameOrder := make([]byte, 8)
	putBEWord(sameOrder[0:4], sameOrderY)
	putBEWord(sameOrder[4:8], sameOrderX)
	if string(got) == string(sameOrder) {
		t.Fatal("DecryptCommand matches the same-order (unswapped) convention; the half cross-swap was lost")
	}
}

func TestApplyKeycodeLevelsChangeTheSchedule(t *testing.T) {
	k1 := NewKeyBuf(fakeBIOS())
	k1.ApplyKeycode(0x12345678, 1, 2)

	k2 := NewKeyBuf(fakeBIOS())
	k2.ApplyKeycode(0x12345678, 2, 2)

	if k1.buf == k2.buf {
		t.Fatal("level 1 and level 2 key schedules must differ")
	}
}
