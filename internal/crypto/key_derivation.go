package crypto

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-officecrypto/internal/helpers"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// Block keys mixed into the base password hash to derive purpose specific keys.
// Reference: MS-OFFCRYPTO 2.3.4.11, 2.3.4.13, 2.3.4.14
var (
	BlockKeyVerifierHashInput = [8]byte{0xfe, 0xa7, 0xd2, 0x76, 0x3b, 0x4b, 0x9e, 0x79}
	BlockKeyVerifierHashValue = [8]byte{0xd7, 0xaa, 0x0f, 0x6d, 0x30, 0x61, 0x34, 0x4e}
	BlockKeyEncryptedKeyValue = [8]byte{0x14, 0x6e, 0x0b, 0xe7, 0xab, 0xac, 0xd0, 0xd6}
	BlockKeyIntegrityHmacKey  = [8]byte{0x5f, 0xb2, 0xad, 0x01, 0x0c, 0xb9, 0xe1, 0xf6}
	BlockKeyIntegrityHmacVal  = [8]byte{0xa0, 0x67, 0x7f, 0x02, 0xb2, 0x2c, 0x84, 0x33}
)

// KeyPadByte is the fill used when a derived key or IV is shorter than required.
const KeyPadByte = 0x36

// NormalizePassword substitutes the fallback password for an empty one.
func NormalizePassword(password string) string {
	if password == "" {
		return types.FallbackPassword
	}
	return password
}

// SpinHash computes the iterated password hash with the iteration counter
// placed before the previous hash:
//
//	H0 = H(salt || UTF16LE(password))
//	Hn = H(LE32(n-1) || Hn-1)
//
// This is the ordering used by both Standard and Agile encryption.
func SpinHash(alg HashAlgorithm, salt []byte, password string, spinCount int) []byte {
	d := alg.New()
	d.Write(salt)
	d.Write(helpers.EncodeUTF16LE(password))

	buf := make([]byte, 4, 4+alg.Size())
	buf = d.Sum(buf)
	for i := 0; i < spinCount; i++ {
		binary.LittleEndian.PutUint32(buf[0:4], uint32(i))
		d.Reset()
		d.Write(buf)
		buf = d.Sum(buf[:4])
	}
	return append([]byte(nil), buf[4:]...)
}

// SpinHashAppend computes the iterated password hash with the iteration
// counter placed after the previous hash:
//
//	H0 = H(salt || UTF16LE(password))
//	Hn = H(Hn-1 || LE32(n-1))
//
// This is the ordering of the document and sheet protection hashes.
func SpinHashAppend(alg HashAlgorithm, salt []byte, password string, spinCount int) []byte {
	d := alg.New()
	d.Write(salt)
	d.Write(helpers.EncodeUTF16LE(password))

	size := alg.Size()
	buf := d.Sum(make([]byte, 0, size+4))
	buf = buf[:size+4]
	for i := 0; i < spinCount; i++ {
		binary.LittleEndian.PutUint32(buf[size:], uint32(i))
		d.Reset()
		d.Write(buf)
		d.Sum(buf[:0])
	}
	return append([]byte(nil), buf[:size]...)
}

// FinalBlockHash derives a purpose specific hash: H(baseHash || blockKey).
func FinalBlockHash(alg HashAlgorithm, blockKey, baseHash []byte) []byte {
	return alg.Sum(baseHash, blockKey)
}

// FixSize truncates b to n bytes, or pads it to n bytes with fill.
// The result never aliases b.
func FixSize(b []byte, n int, fill byte) []byte {
	out := make([]byte, n)
	m := copy(out, b)
	for i := m; i < n; i++ {
		out[i] = fill
	}
	return out
}

// SegmentIV returns the IV of an Agile package segment:
// H(keyDataSalt || LE32(index)) sized to the cipher block size.
func SegmentIV(alg HashAlgorithm, keyDataSalt []byte, index uint32, blockSize int) []byte {
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], index)
	return FixSize(alg.Sum(keyDataSalt, idx[:]), blockSize, KeyPadByte)
}

// PasswordHashBinary derives the Standard encryption key from a password:
// SHA-1 spin hashing with 50000 rounds, a final H(Hn || LE32(0)), then the
// CryptDeriveKey style 0x36/0x5C stretch. The key is the first keyBytes bytes
// of X1, or of X1 || X2 when X1 alone is too short.
// Reference: MS-OFFCRYPTO 2.3.4.7
func PasswordHashBinary(password string, salt []byte, keyBytes int) []byte {
	h := SpinHash(HashSHA1, salt, password, types.StandardSpinCount)
	var block [4]byte
	hfinal := HashSHA1.Sum(h, block[:])

	x1 := HashSHA1.Sum(xorPad(hfinal, 0x36))
	if len(x1) >= keyBytes {
		return FixSize(x1, keyBytes, 0)
	}
	x2 := HashSHA1.Sum(xorPad(hfinal, 0x5c))
	return FixSize(append(x1, x2...), keyBytes, 0)
}

// xorPad returns a 64 byte buffer of pad with h XORed into its first bytes.
func xorPad(h []byte, pad byte) []byte {
	buf := make([]byte, 64)
	for i := range buf {
		buf[i] = pad
		if i < len(h) {
			buf[i] ^= h[i]
		}
	}
	return buf
}

// ProtectionHash computes the ECMA-376 document protection password hash
// (workbook, sheet and write protection) using the appended counter ordering.
func ProtectionHash(alg HashAlgorithm, salt []byte, password string, spinCount int) []byte {
	return SpinHashAppend(alg, salt, password, spinCount)
}
