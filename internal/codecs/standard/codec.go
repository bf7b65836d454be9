// Package standard implements ECMA-376 Standard Encryption: a binary
// EncryptionInfo stream and an AES-ECB encrypted package keyed by a SHA-1
// password hash. ECB is what the format mandates; this codec exists for
// interoperability with documents that use it and nothing else.
package standard

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-officecrypto/internal/crypto"
	"github.com/deploymenttheory/go-officecrypto/internal/interfaces"
	encryptioninfo "github.com/deploymenttheory/go-officecrypto/internal/parsers/encryption_info"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

const aesBlockSize = 16

// Codec encrypts and decrypts packages with Standard Encryption.
type Codec struct {
	alg types.AlgorithmID
}

var _ interfaces.PackageCodec = (*Codec)(nil)

// New returns a codec that encrypts with the given AES algorithm.
func New(alg types.AlgorithmID) (*Codec, error) {
	if alg.KeyBits() == 0 {
		return nil, fmt.Errorf("%w: standard encryption supports AES-128, AES-192 and AES-256, got %s (0x%04X)",
			types.ErrUnsupportedAlgorithm, alg, uint32(alg))
	}
	return &Codec{alg: alg}, nil
}

// Version reports VersionStandard.
func (c *Codec) Version() types.FormatVersion { return types.VersionStandard }

// Encrypt returns the EncryptionInfo and EncryptedPackage streams for pkg.
// Reference: MS-OFFCRYPTO 2.3.4.5, 2.3.4.7, 2.3.4.8
func (c *Codec) Encrypt(pkg []byte, password string) ([]byte, []byte, error) {
	keyBits := c.alg.KeyBits()
	salt, err := crypto.RandomBytes(types.StandardSaltSize)
	if err != nil {
		return nil, nil, err
	}
	verifier, err := crypto.RandomBytes(types.StandardVerifierSize)
	if err != nil {
		return nil, nil, err
	}

	key := crypto.PasswordHashBinary(crypto.NormalizePassword(password), salt, int(keyBits/8))

	encVerifier, err := crypto.EncryptECB(key, verifier)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt verifier: %w", err)
	}
	encVerifierHash, err := crypto.EncryptECB(key, crypto.HashSHA1.Sum(verifier))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt verifier hash: %w", err)
	}

	flags := types.FlagCryptoAPI | types.FlagAES
	info := &types.EncryptionInfoBinary{
		MajorVersion: types.StandardMajorVersion,
		MinorVersion: types.StandardMinorVersion,
		Flags:        flags,
		Header: types.EncryptionHeader{
			Flags:        flags,
			AlgID:        c.alg,
			AlgIDHash:    types.HashAlgorithmSHA1,
			KeySize:      keyBits,
			ProviderType: types.ProviderAES,
			CSPName:      types.DefaultCSPName,
		},
		Verifier: types.EncryptionVerifier{
			SaltSize:              types.StandardSaltSize,
			VerifierHashSize:      types.StandardVerifierHashSize,
			EncryptedVerifierHash: encVerifierHash,
		},
	}
	copy(info.Verifier.Salt[:], salt)
	copy(info.Verifier.EncryptedVerifier[:], encVerifier)

	encryptionInfo, err := encryptioninfo.WriteBinary(info)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to write encryption info: %w", err)
	}

	ciphertext, err := crypto.EncryptECB(key, pkg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt package: %w", err)
	}
	encryptedPackage := make([]byte, types.StreamSizeLength, types.StreamSizeLength+len(ciphertext))
	binary.LittleEndian.PutUint64(encryptedPackage, uint64(len(pkg)))
	encryptedPackage = append(encryptedPackage, ciphertext...)

	return encryptionInfo, encryptedPackage, nil
}

// Decrypt verifies password against the EncryptionInfo verifier and returns
// the plaintext package.
func (c *Codec) Decrypt(encryptionInfo, encryptedPackage []byte, password string) ([]byte, error) {
	info, err := encryptioninfo.ReadBinary(encryptionInfo)
	if err != nil {
		return nil, err
	}
	return DecryptWithInfo(info, encryptedPackage, password)
}

// DecryptWithInfo decrypts using an already parsed EncryptionInfo.
func DecryptWithInfo(info *types.EncryptionInfoBinary, encryptedPackage []byte, password string) ([]byte, error) {
	key, err := VerifyPassword(info, password)
	if err != nil {
		return nil, err
	}

	if len(encryptedPackage) < types.StreamSizeLength {
		return nil, fmt.Errorf("%w: encrypted package is %d bytes, too short for its size prefix",
			types.ErrMalformedContainer, len(encryptedPackage))
	}
	size := binary.LittleEndian.Uint64(encryptedPackage[:types.StreamSizeLength])
	ciphertext := encryptedPackage[types.StreamSizeLength:]
	// Some producers append bytes after the last block; ignore the tail.
	ciphertext = ciphertext[:len(ciphertext)-len(ciphertext)%aesBlockSize]
	if size > uint64(len(ciphertext)) {
		return nil, fmt.Errorf("%w: encrypted package declares %d bytes but holds %d",
			types.ErrMalformedContainer, size, len(ciphertext))
	}

	plain, err := crypto.DecryptECB(key, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt package: %w", err)
	}
	return plain[:size], nil
}

// VerifyPassword derives the key for password and checks it against the
// verifier. It returns the key on success and ErrInvalidPassword otherwise.
func VerifyPassword(info *types.EncryptionInfoBinary, password string) ([]byte, error) {
	h := info.Header
	if h.AlgID.KeyBits() == 0 {
		return nil, fmt.Errorf("%w: %s (0x%04X)", types.ErrUnsupportedAlgorithm, h.AlgID, uint32(h.AlgID))
	}
	if h.AlgIDHash != types.HashAlgorithmSHA1 && h.AlgIDHash != 0 {
		return nil, fmt.Errorf("%w: hash algorithm 0x%04X", types.ErrUnsupportedAlgorithm, uint32(h.AlgIDHash))
	}
	if h.KeySize != 0 && h.KeySize != h.AlgID.KeyBits() {
		return nil, fmt.Errorf("%w: key size %d does not match %s", types.ErrUnsupportedAlgorithm, h.KeySize, h.AlgID)
	}

	v := info.Verifier
	key := crypto.PasswordHashBinary(crypto.NormalizePassword(password), v.Salt[:], int(h.AlgID.KeyBits()/8))

	verifier, err := crypto.DecryptECB(key, v.EncryptedVerifier[:])
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt verifier: %w", err)
	}
	verifierHash, err := crypto.DecryptECB(key, v.EncryptedVerifierHash)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypted verifier hash: %v", types.ErrUnsupportedEncryptionFormat, err)
	}

	expected := crypto.HashSHA1.Sum(verifier)
	if len(verifierHash) < len(expected) ||
		subtle.ConstantTimeCompare(expected, verifierHash[:len(expected)]) != 1 {
		return nil, types.ErrInvalidPassword
	}
	return key, nil
}
