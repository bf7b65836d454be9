// Package agile implements ECMA-376 Agile Encryption: an XML described
// EncryptionInfo stream, a package encrypted with AES-CBC in 4096 byte
// segments, and an HMAC over the encrypted package.
package agile

import (
	"crypto/hmac"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-officecrypto/internal/crypto"
	"github.com/deploymenttheory/go-officecrypto/internal/interfaces"
	encryptioninfo "github.com/deploymenttheory/go-officecrypto/internal/parsers/encryption_info"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// Options selects the parameters written by Encrypt.
type Options struct {
	// KeyBits is the AES key size: 128, 192 or 256.
	KeyBits int
	// Hash is used for the password hash, the segment IVs and the HMAC.
	Hash crypto.HashAlgorithm
	// SpinCount is the number of password hashing iterations.
	SpinCount int
}

// DefaultOptions returns AES-256, SHA-512 and 100000 spins.
func DefaultOptions() Options {
	return Options{
		KeyBits:   types.AgileDefaultKeyBits,
		Hash:      crypto.HashSHA512,
		SpinCount: types.AgileDefaultSpinCount,
	}
}

// Validate checks that the options describe something Encrypt can write.
func (o Options) Validate() error {
	switch o.KeyBits {
	case 128, 192, 256:
	default:
		return fmt.Errorf("%w: AES key size %d", types.ErrUnsupportedAlgorithm, o.KeyBits)
	}
	if o.Hash.Size() == 0 {
		return fmt.Errorf("%w: hash algorithm %s", types.ErrUnsupportedAlgorithm, o.Hash)
	}
	if o.SpinCount < 0 || o.SpinCount > types.AgileMaxSpinCount {
		return fmt.Errorf("%w: spin count %d outside 0..%d", types.ErrUnsupportedAlgorithm, o.SpinCount, types.AgileMaxSpinCount)
	}
	return nil
}

// Codec encrypts and decrypts packages with Agile Encryption.
type Codec struct {
	opts Options
}

var _ interfaces.PackageCodec = (*Codec)(nil)

// New returns a codec writing with opts.
func New(opts Options) (*Codec, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Codec{opts: opts}, nil
}

// Version reports VersionAgile.
func (c *Codec) Version() types.FormatVersion { return types.VersionAgile }

// Options returns the parameters the codec encrypts with.
func (c *Codec) Options() Options { return c.opts }

// Encrypt returns the EncryptionInfo and EncryptedPackage streams for pkg.
// Reference: MS-OFFCRYPTO 2.3.4.10 - 2.3.4.15
func (c *Codec) Encrypt(pkg []byte, password string) ([]byte, []byte, error) {
	alg := c.opts.Hash
	keyBytes := c.opts.KeyBits / 8
	kd := types.KeyData{
		SaltSize:        types.AgileDefaultSaltSize,
		BlockSize:       types.AgileDefaultBlockSize,
		KeyBits:         c.opts.KeyBits,
		HashSize:        alg.Size(),
		CipherAlgorithm: types.CipherAES,
		CipherChaining:  types.ChainingModeCBC,
		HashAlgorithm:   alg.String(),
	}

	r, err := newRandomSet(kd.SaltSize, keyBytes, alg.Size())
	if err != nil {
		return nil, nil, err
	}
	kd.SaltValue = r.keyDataSalt

	pke := types.PasswordKeyEncryptor{KeyData: kd, SpinCount: c.opts.SpinCount}
	pke.SaltValue = r.encryptorSalt

	base := crypto.SpinHash(alg, pke.SaltValue, crypto.NormalizePassword(password), pke.SpinCount)
	kc := keyCipher{alg: alg, base: base, salt: pke.SaltValue, keyBytes: keyBytes, blockSize: kd.BlockSize}

	if pke.EncryptedVerifierHashInput, err = kc.encrypt(crypto.BlockKeyVerifierHashInput, r.verifierInput); err != nil {
		return nil, nil, err
	}
	if pke.EncryptedVerifierHashValue, err = kc.encrypt(crypto.BlockKeyVerifierHashValue, alg.Sum(r.verifierInput)); err != nil {
		return nil, nil, err
	}
	if pke.EncryptedKeyValue, err = kc.encrypt(crypto.BlockKeyEncryptedKeyValue, r.secretKey); err != nil {
		return nil, nil, err
	}

	encryptedPackage, err := encryptPackage(kd, alg, r.secretKey, pkg)
	if err != nil {
		return nil, nil, err
	}

	integrity, err := sealIntegrity(kd, alg, r.secretKey, r.hmacKey, encryptedPackage)
	if err != nil {
		return nil, nil, err
	}

	info := &types.EncryptionInfoAgile{
		MajorVersion:  types.AgileMajorVersion,
		MinorVersion:  types.AgileMinorVersion,
		Reserved:      types.AgileReserved,
		KeyData:       kd,
		DataIntegrity: integrity,
		KeyEncryptors: []types.PasswordKeyEncryptor{pke},
	}
	encryptionInfo, err := encryptioninfo.WriteAgile(info)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to write encryption info: %w", err)
	}
	return encryptionInfo, encryptedPackage, nil
}

// randomSet is the fresh random material of one Encrypt call.
type randomSet struct {
	keyDataSalt   []byte
	encryptorSalt []byte
	secretKey     []byte
	verifierInput []byte
	hmacKey       []byte
}

func newRandomSet(saltSize, keyBytes, hashSize int) (*randomSet, error) {
	var r randomSet
	for _, f := range []struct {
		dst  *[]byte
		size int
	}{
		{&r.keyDataSalt, saltSize},
		{&r.encryptorSalt, saltSize},
		{&r.secretKey, keyBytes},
		{&r.verifierInput, saltSize},
		{&r.hmacKey, hashSize},
	} {
		b, err := crypto.RandomBytes(f.size)
		if err != nil {
			return nil, err
		}
		*f.dst = b
	}
	return &r, nil
}

// Decrypt verifies password, checks the integrity HMAC and returns the
// plaintext package.
func (c *Codec) Decrypt(encryptionInfo, encryptedPackage []byte, password string) ([]byte, error) {
	info, err := encryptioninfo.ReadAgile(encryptionInfo)
	if err != nil {
		return nil, err
	}
	return DecryptWithInfo(info, encryptedPackage, password)
}

// DecryptWithInfo decrypts using an already parsed descriptor. The password
// is checked first, then the HMAC, and only then is the payload decrypted.
func DecryptWithInfo(info *types.EncryptionInfoAgile, encryptedPackage []byte, password string) ([]byte, error) {
	alg, err := checkKeyData(info.KeyData)
	if err != nil {
		return nil, err
	}
	secretKey, err := VerifyPassword(info, password)
	if err != nil {
		return nil, err
	}
	if err := verifyIntegrity(info, alg, secretKey, encryptedPackage); err != nil {
		return nil, err
	}
	return decryptPackage(info.KeyData, alg, secretKey, encryptedPackage)
}

// VerifyPassword checks password against the password key encryptor and
// returns the data encryption key. A wrong password yields ErrInvalidPassword.
func VerifyPassword(info *types.EncryptionInfoAgile, password string) ([]byte, error) {
	pke, ok := info.PasswordEncryptor()
	if !ok {
		return nil, fmt.Errorf("%w: no password key encryptor", types.ErrUnsupportedEncryptionFormat)
	}
	alg, err := checkKeyData(pke.KeyData)
	if err != nil {
		return nil, err
	}
	if pke.SpinCount < 0 || pke.SpinCount > types.AgileMaxSpinCount {
		return nil, fmt.Errorf("%w: spin count %d", types.ErrUnsupportedEncryptionFormat, pke.SpinCount)
	}
	keyBytes := pke.KeyBits / 8
	if err := checkField("encryptedVerifierHashInput", pke.EncryptedVerifierHashInput, pke.SaltSize, pke.BlockSize); err != nil {
		return nil, err
	}
	if err := checkField("encryptedVerifierHashValue", pke.EncryptedVerifierHashValue, alg.Size(), pke.BlockSize); err != nil {
		return nil, err
	}
	if err := checkField("encryptedKeyValue", pke.EncryptedKeyValue, keyBytes, pke.BlockSize); err != nil {
		return nil, err
	}

	base := crypto.SpinHash(alg, pke.SaltValue, crypto.NormalizePassword(password), pke.SpinCount)
	kc := keyCipher{alg: alg, base: base, salt: pke.SaltValue, keyBytes: keyBytes, blockSize: pke.BlockSize}

	verifierInput, err := kc.decrypt(crypto.BlockKeyVerifierHashInput, pke.EncryptedVerifierHashInput)
	if err != nil {
		return nil, err
	}
	verifierHash, err := kc.decrypt(crypto.BlockKeyVerifierHashValue, pke.EncryptedVerifierHashValue)
	if err != nil {
		return nil, err
	}
	expected := alg.Sum(verifierInput[:pke.SaltSize])
	if subtle.ConstantTimeCompare(expected, verifierHash[:alg.Size()]) != 1 {
		return nil, types.ErrInvalidPassword
	}

	keyValue, err := kc.decrypt(crypto.BlockKeyEncryptedKeyValue, pke.EncryptedKeyValue)
	if err != nil {
		return nil, err
	}
	return keyValue[:keyBytes], nil
}

// keyCipher encrypts the key encryptor fields. Each field has its own key,
// derived from the spun password hash and a block key; all share the IV
// built from the key encryptor salt.
type keyCipher struct {
	alg       crypto.HashAlgorithm
	base      []byte
	salt      []byte
	keyBytes  int
	blockSize int
}

func (k keyCipher) key(blockKey [8]byte) []byte {
	return crypto.FixSize(crypto.FinalBlockHash(k.alg, blockKey[:], k.base), k.keyBytes, crypto.KeyPadByte)
}

func (k keyCipher) iv() []byte {
	return crypto.FixSize(k.salt, k.blockSize, crypto.KeyPadByte)
}

func (k keyCipher) encrypt(blockKey [8]byte, data []byte) ([]byte, error) {
	out, err := crypto.EncryptCBC(k.key(blockKey), k.iv(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt key encryptor field: %w", err)
	}
	return out, nil
}

func (k keyCipher) decrypt(blockKey [8]byte, data []byte) ([]byte, error) {
	out, err := crypto.DecryptCBC(k.key(blockKey), k.iv(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: key encryptor field: %v", types.ErrUnsupportedEncryptionFormat, err)
	}
	return out, nil
}

// integrityIV derives the IV used for the encrypted HMAC key and value.
func integrityIV(kd types.KeyData, alg crypto.HashAlgorithm, blockKey [8]byte) []byte {
	return crypto.FixSize(alg.Sum(kd.SaltValue, blockKey[:]), kd.BlockSize, crypto.KeyPadByte)
}

// sealIntegrity computes the HMAC of the encrypted package stream, prefix
// included, and encrypts the HMAC key and value with the data key.
// Reference: MS-OFFCRYPTO 2.3.4.14
func sealIntegrity(kd types.KeyData, alg crypto.HashAlgorithm, secretKey, hmacKey, encryptedPackage []byte) (types.DataIntegrity, error) {
	mac := hmac.New(alg.Func(), hmacKey)
	mac.Write(encryptedPackage)
	value := mac.Sum(nil)

	encKey, err := crypto.EncryptCBC(secretKey, integrityIV(kd, alg, crypto.BlockKeyIntegrityHmacKey), hmacKey)
	if err != nil {
		return types.DataIntegrity{}, fmt.Errorf("failed to encrypt HMAC key: %w", err)
	}
	encValue, err := crypto.EncryptCBC(secretKey, integrityIV(kd, alg, crypto.BlockKeyIntegrityHmacVal), value)
	if err != nil {
		return types.DataIntegrity{}, fmt.Errorf("failed to encrypt HMAC value: %w", err)
	}
	return types.DataIntegrity{EncryptedHmacKey: encKey, EncryptedHmacValue: encValue}, nil
}

// verifyIntegrity recomputes the HMAC of the encrypted package stream. A
// descriptor without a dataIntegrity element is accepted unchecked.
func verifyIntegrity(info *types.EncryptionInfoAgile, alg crypto.HashAlgorithm, secretKey, encryptedPackage []byte) error {
	di := info.DataIntegrity
	if len(di.EncryptedHmacKey) == 0 && len(di.EncryptedHmacValue) == 0 {
		return nil
	}
	kd := info.KeyData
	if err := checkField("encryptedHmacKey", di.EncryptedHmacKey, alg.Size(), kd.BlockSize); err != nil {
		return err
	}
	if err := checkField("encryptedHmacValue", di.EncryptedHmacValue, alg.Size(), kd.BlockSize); err != nil {
		return err
	}

	hmacKey, err := crypto.DecryptCBC(secretKey, integrityIV(kd, alg, crypto.BlockKeyIntegrityHmacKey), di.EncryptedHmacKey)
	if err != nil {
		return fmt.Errorf("%w: HMAC key: %v", types.ErrUnsupportedEncryptionFormat, err)
	}
	expected, err := crypto.DecryptCBC(secretKey, integrityIV(kd, alg, crypto.BlockKeyIntegrityHmacVal), di.EncryptedHmacValue)
	if err != nil {
		return fmt.Errorf("%w: HMAC value: %v", types.ErrUnsupportedEncryptionFormat, err)
	}

	mac := hmac.New(alg.Func(), hmacKey[:alg.Size()])
	mac.Write(encryptedPackage)
	if !hmac.Equal(mac.Sum(nil), expected[:alg.Size()]) {
		return types.ErrIntegrityCheckFailed
	}
	return nil
}

// encryptPackage builds the EncryptedPackage stream: the plaintext length
// followed by the segment encrypted package.
func encryptPackage(kd types.KeyData, alg crypto.HashAlgorithm, secretKey, pkg []byte) ([]byte, error) {
	ivFor := func(i uint32) []byte { return crypto.SegmentIV(alg, kd.SaltValue, i, kd.BlockSize) }
	ciphertext, err := crypto.EncryptSegmentedCBC(secretKey, types.AgileSegmentLength, ivFor, pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt package: %w", err)
	}
	out := make([]byte, types.StreamSizeLength, types.StreamSizeLength+len(ciphertext))
	binary.LittleEndian.PutUint64(out, uint64(len(pkg)))
	return append(out, ciphertext...), nil
}

func decryptPackage(kd types.KeyData, alg crypto.HashAlgorithm, secretKey, encryptedPackage []byte) ([]byte, error) {
	if len(encryptedPackage) < types.StreamSizeLength {
		return nil, fmt.Errorf("%w: encrypted package is %d bytes, too short for its size prefix",
			types.ErrMalformedContainer, len(encryptedPackage))
	}
	size := binary.LittleEndian.Uint64(encryptedPackage[:types.StreamSizeLength])
	ciphertext := encryptedPackage[types.StreamSizeLength:]
	if len(ciphertext)%kd.BlockSize != 0 {
		return nil, fmt.Errorf("%w: encrypted package payload of %d bytes is not block aligned",
			types.ErrMalformedContainer, len(ciphertext))
	}
	if size > uint64(len(ciphertext)) {
		return nil, fmt.Errorf("%w: encrypted package declares %d bytes but holds %d",
			types.ErrMalformedContainer, size, len(ciphertext))
	}

	ivFor := func(i uint32) []byte { return crypto.SegmentIV(alg, kd.SaltValue, i, kd.BlockSize) }
	plain, err := crypto.DecryptSegmentedCBC(secretKey, types.AgileSegmentLength, ivFor, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt package: %w", err)
	}
	return plain[:size], nil
}

// checkKeyData validates the cipher parameters shared by keyData and the key
// encryptor and returns the hash they name.
func checkKeyData(kd types.KeyData) (crypto.HashAlgorithm, error) {
	if kd.CipherAlgorithm != types.CipherAES {
		return crypto.HashUnknown, fmt.Errorf("%w: cipher %q", types.ErrUnsupportedEncryptionFormat, kd.CipherAlgorithm)
	}
	if kd.CipherChaining != types.ChainingModeCBC {
		return crypto.HashUnknown, fmt.Errorf("%w: chaining mode %q", types.ErrUnsupportedEncryptionFormat, kd.CipherChaining)
	}
	alg, err := crypto.ParseHashAlgorithm(kd.HashAlgorithm)
	if err != nil {
		return crypto.HashUnknown, err
	}
	switch kd.KeyBits {
	case 128, 192, 256:
	default:
		return crypto.HashUnknown, fmt.Errorf("%w: AES key size %d", types.ErrUnsupportedEncryptionFormat, kd.KeyBits)
	}
	if kd.BlockSize != types.AgileDefaultBlockSize {
		return crypto.HashUnknown, fmt.Errorf("%w: block size %d", types.ErrUnsupportedEncryptionFormat, kd.BlockSize)
	}
	if kd.SaltSize <= 0 || len(kd.SaltValue) != kd.SaltSize {
		return crypto.HashUnknown, fmt.Errorf("%w: salt of %d bytes, declared %d",
			types.ErrUnsupportedEncryptionFormat, len(kd.SaltValue), kd.SaltSize)
	}
	return alg, nil
}

// checkField requires an encrypted field to be block aligned and at least
// want bytes long.
func checkField(name string, data []byte, want, blockSize int) error {
	if len(data) < want || len(data)%blockSize != 0 {
		return fmt.Errorf("%w: %s is %d bytes, need a multiple of %d holding at least %d",
			types.ErrUnsupportedEncryptionFormat, name, len(data), blockSize, want)
	}
	return nil
}
