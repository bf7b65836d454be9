package interfaces

import (
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// EncryptionInfoReader provides a format independent view of an EncryptionInfo stream
type EncryptionInfoReader interface {
	// Version returns the detected container format
	Version() types.FormatVersion

	// MajorVersion returns the major version field
	MajorVersion() uint16

	// MinorVersion returns the minor version field
	MinorVersion() uint16

	// CipherAlgorithm returns the display name of the cipher, e.g. "AES-256"
	CipherAlgorithm() string

	// CipherChaining returns the chaining mode, "ECB" for Standard encryption
	CipherChaining() string

	// KeyBits returns the data encryption key size in bits
	KeyBits() int

	// HashAlgorithm returns the name of the hash used for key derivation
	HashAlgorithm() string

	// SpinCount returns the number of password hashing iterations
	SpinCount() int

	// SaltSize returns the size of the password salt in bytes
	SaltSize() int

	// HasDataIntegrity reports whether the stream carries an HMAC over the package
	HasDataIntegrity() bool
}

// PackageCodec encrypts and decrypts a package into the pair of streams
// stored in an encrypted compound file
type PackageCodec interface {
	// Version returns the container format the codec writes
	Version() types.FormatVersion

	// Encrypt returns the EncryptionInfo and EncryptedPackage stream contents
	Encrypt(pkg []byte, password string) (encryptionInfo, encryptedPackage []byte, err error)

	// Decrypt verifies the password and returns the plaintext package
	Decrypt(encryptionInfo, encryptedPackage []byte, password string) ([]byte, error)
}

// StreamReader looks up streams by name in a storage
type StreamReader interface {
	// Stream returns the content of the named stream
	Stream(name string) ([]byte, bool)
}
