package cart

/*
 * Kestrel - cartridge-slot KEY1 command cipher.
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

// keyBufWords is the Blowfish-shaped key buffer: 18 P-words followed by four
// 256-word S-boxes at offsets 0x012, 0x112, 0x212, 0x312.
const keyBufWords = 0x412

const (
	pArrayWords = 18
	sBox0       = 0x012
	sBox1       = 0x112
	sBox2       = 0x212
	sBox3       = 0x312
	sBoxWords   = 256
)

// KeyBuf holds the mutable KEY1 key schedule, seeded from a BIOS region and
// then rewritten by ApplyKeycode before any command is decrypted.
type KeyBuf struct {
	buf [keyBufWords]uint32
}

// NewKeyBuf seeds the buffer from 0x1048 bytes of a BIOS image starting at
// offset 0x30 (the fixed window Key1_InitKeycode reads from), matching the
// source's "key buffer is not zero/synthetic, it is copied out of the
// loaded BIOS blob" behavior.
func NewKeyBuf(bios7 []byte) *KeyBuf {
	const seedOffset = 0x30

	k := &KeyBuf{}
	for i := 0; i < keyBufWords; i++ {
		off := seedOffset + i*4
		if off+4 > len(bios7) {
			break
		}
		k.buf[i] = uint32(bios7[off]) | uint32(bios7[off+1])<<8 |
			uint32(bios7[off+2])<<16 | uint32(bios7[off+3])<<24
	}
	return k
}

func (k *KeyBuf) fFunc(x uint32) uint32 {
	a := k.buf[sBox0+(x>>24&0xFF)]
	b := k.buf[sBox1+(x>>16&0xFF)]
	c := k.buf[sBox2+(x>>8&0xFF)]
	d := k.buf[sBox3+(x&0xFF)]
	return d + (c ^ (b + a))
}

// encryptBlock runs the 16-round Feistel network over a (y, x) pair of
// 32-bit words, used both for command decryption and for the key-schedule
// rounds each ApplyKeycode level re-applies.
func (k *KeyBuf) encryptBlock(y, x uint32) (uint32, uint32) {
	for i := 0; i < pArrayWords-2; i++ {
		z := k.buf[i] ^ x
		x = k.fFunc(z) ^ y
		y = z
	}
	y, x = x^k.buf[16], y^k.buf[17]
	return y, x
}

func (k *KeyBuf) decryptBlock(y, x uint32) (uint32, uint32) {
	for i := pArrayWords - 1; i > 1; i-- {
		z := k.buf[i] ^ x
		x = k.fFunc(z) ^ y
		y = z
	}
	y, x = x^k.buf[1], y^k.buf[0]
	return y, x
}

// ApplyKeycode runs the three-level key schedule: XOR the id code (and its
// shifted variants) into the P-array, then re-encrypt the whole buffer in
// pairs. Level 3 additionally shifts keycode words 1 and 2 before the third
// application, exactly as the source's Key1_InitKeycode does.
func (k *KeyBuf) ApplyKeycode(idcode uint32, level, modulo int) {
	code := [3]uint32{idcode, idcode >> 1, idcode << 1}

	k.applyOnce(code)
	if level >= 2 {
		k.applyOnce(code)
	}
	if level >= 3 {
		code[1] <<= 1
		code[2] >>= 1
		k.applyOnce(code)
	}
}

func (k *KeyBuf) applyOnce(code [3]uint32) {
	k.reKeyPArray(code)

	var y, x uint32
	for i := 0; i < pArrayWords; i += 2 {
		y, x = k.encryptBlock(y, x)
		k.buf[i] = y
		k.buf[i+1] = x
	}
	for i := 0; i < sBoxWords*4; i += 2 {
		y, x = k.encryptBlock(y, x)
		k.buf[pArrayWords+i] = y
		k.buf[pArrayWords+i+1] = x
	}
}

// reKeyPArray XORs the byte-swapped id-code words into the P-array,
// alternating code[0] and code[1] as the source's
// `pbuf[i] ^= bswap(code[i % 2])` loop does. code[2] does not enter the
// P-array, and ApplyKeycode's modulo argument is not consulted.
func (k *KeyBuf) reKeyPArray(code [3]uint32) {
	for i := 0; i < pArrayWords; i++ {
		k.buf[i] ^= bswap32(code[i%2])
	}
}

func bswap32(v uint32) uint32 {
	return v<<24&0xFF000000 | v<<8&0x00FF0000 | v>>8&0x0000FF00 | v>>24&0x000000FF
}

// DecryptCommand decrypts an 8-byte KEY1 command in place. decryptBlock's
// (y, x) accumulators are not interchangeable, and the source feeds them
// cross-swapped from the command's two halves - the second half becomes y,
// the first becomes x - then writes the result back cross-swapped the same
// way: the first half gets the final x, the second gets the final y.
func (k *KeyBuf) DecryptCommand(cmd []byte) {
	y := beWord(cmd[4:8])
	x := beWord(cmd[0:4])
	y, x = k.decryptBlock(y, x)
	putBEWord(cmd[0:4], x)
	putBEWord(cmd[4:8], y)
}

func beWord(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func putBEWord(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
