package crypto

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// HashAlgorithm identifies a hash function named by an encryption descriptor.
type HashAlgorithm int

const (
	HashUnknown HashAlgorithm = iota
	HashSHA1
	HashSHA256
	HashSHA384
	HashSHA512
)

// ParseHashAlgorithm maps a descriptor hash name such as "SHA512" to a HashAlgorithm.
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	switch strings.ToUpper(strings.ReplaceAll(name, "-", "")) {
	case types.HashNameSHA1:
		return HashSHA1, nil
	case types.HashNameSHA256:
		return HashSHA256, nil
	case types.HashNameSHA384:
		return HashSHA384, nil
	case types.HashNameSHA512:
		return HashSHA512, nil
	default:
		return HashUnknown, fmt.Errorf("%w: hash algorithm %q", types.ErrUnsupportedEncryptionFormat, name)
	}
}

// New returns a new hash.Hash for the algorithm.
func (h HashAlgorithm) New() hash.Hash {
	switch h {
	case HashSHA1:
		return sha1.New()
	case HashSHA256:
		return sha256.New()
	case HashSHA384:
		return sha512.New384()
	case HashSHA512:
		return sha512.New()
	default:
		panic(fmt.Sprintf("crypto: unknown hash algorithm %d", int(h)))
	}
}

// Func returns the constructor, suitable for hmac.New.
func (h HashAlgorithm) Func() func() hash.Hash {
	return h.New
}

// Size returns the digest size in bytes.
func (h HashAlgorithm) Size() int {
	switch h {
	case HashSHA1:
		return sha1.Size
	case HashSHA256:
		return sha256.Size
	case HashSHA384:
		return sha512.Size384
	case HashSHA512:
		return sha512.Size
	default:
		return 0
	}
}

// String returns the descriptor name of the algorithm.
func (h HashAlgorithm) String() string {
	switch h {
	case HashSHA1:
		return types.HashNameSHA1
	case HashSHA256:
		return types.HashNameSHA256
	case HashSHA384:
		return types.HashNameSHA384
	case HashSHA512:
		return types.HashNameSHA512
	default:
		return "unknown"
	}
}

// Sum hashes the concatenation of parts.
func (h HashAlgorithm) Sum(parts ...[]byte) []byte {
	d := h.New()
	for _, p := range parts {
		d.Write(p)
	}
	return d.Sum(nil)
}
