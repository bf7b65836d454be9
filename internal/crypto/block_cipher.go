package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// ZeroPad returns data padded with zero bytes to a multiple of blockSize.
// A buffer that is already aligned is returned as a copy of itself.
func ZeroPad(data []byte, blockSize int) []byte {
	n := len(data)
	if rem := n % blockSize; rem != 0 {
		n += blockSize - rem
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

func newAES(key []byte) (cipher.Block, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return block, nil
}

// EncryptECB encrypts data with AES in ECB mode after zero padding it to the
// block size. ECB is what the Standard format mandates and must not be used
// for anything else.
func EncryptECB(key, data []byte) ([]byte, error) {
	block, err := newAES(key)
	if err != nil {
		return nil, err
	}
	out := ZeroPad(data, block.BlockSize())
	for off := 0; off < len(out); off += block.BlockSize() {
		block.Encrypt(out[off:], out[off:])
	}
	return out, nil
}

// DecryptECB decrypts AES-ECB ciphertext. The ciphertext must be block aligned.
func DecryptECB(key, data []byte) ([]byte, error) {
	block, err := newAES(key)
	if err != nil {
		return nil, err
	}
	bs := block.BlockSize()
	if len(data)%bs != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size %d", len(data), bs)
	}
	out := make([]byte, len(data))
	for off := 0; off < len(data); off += bs {
		block.Decrypt(out[off:], data[off:])
	}
	return out, nil
}

// EncryptCBC encrypts data with AES-CBC after zero padding it to the block size.
func EncryptCBC(key, iv, data []byte) ([]byte, error) {
	block, err := newAES(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("invalid IV length %d, expected %d", len(iv), block.BlockSize())
	}
	out := ZeroPad(data, block.BlockSize())
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, out)
	return out, nil
}

// DecryptCBC decrypts AES-CBC ciphertext. The ciphertext must be block aligned.
func DecryptCBC(key, iv, data []byte) ([]byte, error) {
	block, err := newAES(key)
	if err != nil {
		return nil, err
	}
	bs := block.BlockSize()
	if len(iv) != bs {
		return nil, fmt.Errorf("invalid IV length %d, expected %d", len(iv), bs)
	}
	if len(data)%bs != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size %d", len(data), bs)
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	return out, nil
}

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// EncryptSegmentedCBC zero pads data to the block size and encrypts it with
// AES-CBC in independent segments of segmentLength bytes. Segment i uses the
// IV returned by ivFor(i). segmentLength must be a multiple of the block size.
func EncryptSegmentedCBC(key []byte, segmentLength int, ivFor func(index uint32) []byte, data []byte) ([]byte, error) {
	block, err := newAES(key)
	if err != nil {
		return nil, err
	}
	if err := checkSegmentLength(segmentLength, block.BlockSize()); err != nil {
		return nil, err
	}
	out := ZeroPad(data, block.BlockSize())
	for i, off := uint32(0), 0; off < len(out); i, off = i+1, off+segmentLength {
		end := min(off+segmentLength, len(out))
		iv := ivFor(i)
		if len(iv) != block.BlockSize() {
			return nil, fmt.Errorf("invalid IV length %d for segment %d, expected %d", len(iv), i, block.BlockSize())
		}
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[off:end], out[off:end])
	}
	return out, nil
}

// DecryptSegmentedCBC reverses EncryptSegmentedCBC. The ciphertext must be
// block aligned; padding is left in place for the caller to trim.
func DecryptSegmentedCBC(key []byte, segmentLength int, ivFor func(index uint32) []byte, data []byte) ([]byte, error) {
	block, err := newAES(key)
	if err != nil {
		return nil, err
	}
	bs := block.BlockSize()
	if err := checkSegmentLength(segmentLength, bs); err != nil {
		return nil, err
	}
	if len(data)%bs != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size %d", len(data), bs)
	}
	out := make([]byte, len(data))
	for i, off := uint32(0), 0; off < len(data); i, off = i+1, off+segmentLength {
		end := min(off+segmentLength, len(data))
		iv := ivFor(i)
		if len(iv) != bs {
			return nil, fmt.Errorf("invalid IV length %d for segment %d, expected %d", len(iv), i, bs)
		}
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(out[off:end], data[off:end])
	}
	return out, nil
}

func checkSegmentLength(segmentLength, blockSize int) error {
	if segmentLength <= 0 || segmentLength%blockSize != 0 {
		return fmt.Errorf("segment length %d is not a positive multiple of the block size %d", segmentLength, blockSize)
	}
	return nil
}
