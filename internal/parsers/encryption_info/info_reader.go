package encryptioninfo

import (
	"fmt"

	"github.com/deploymenttheory/go-officecrypto/internal/interfaces"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// standardInfoReader implements the EncryptionInfoReader interface for Standard encryption
type standardInfoReader struct {
	info *types.EncryptionInfoBinary
}

// agileInfoReader implements the EncryptionInfoReader interface for Agile encryption
type agileInfoReader struct {
	info *types.EncryptionInfoAgile
}

// Ensure both readers implement the EncryptionInfoReader interface
var (
	_ interfaces.EncryptionInfoReader = (*standardInfoReader)(nil)
	_ interfaces.EncryptionInfoReader = (*agileInfoReader)(nil)
)

// NewEncryptionInfoReader parses an EncryptionInfo stream of either format
func NewEncryptionInfoReader(data []byte) (interfaces.EncryptionInfoReader, error) {
	switch DetectVersion(data) {
	case types.VersionStandard:
		info, err := ReadBinary(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse standard encryption info: %w", err)
		}
		return &standardInfoReader{info: info}, nil
	case types.VersionAgile:
		info, err := ReadAgile(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse agile encryption info: %w", err)
		}
		return &agileInfoReader{info: info}, nil
	default:
		return nil, VersionError(data)
	}
}

func (r *standardInfoReader) Version() types.FormatVersion { return types.VersionStandard }
func (r *standardInfoReader) MajorVersion() uint16         { return r.info.MajorVersion }
func (r *standardInfoReader) MinorVersion() uint16         { return r.info.MinorVersion }
func (r *standardInfoReader) CipherAlgorithm() string      { return r.info.Header.AlgID.String() }
func (r *standardInfoReader) CipherChaining() string       { return "ECB" }
func (r *standardInfoReader) KeyBits() int                 { return int(r.info.Header.KeySize) }
func (r *standardInfoReader) SpinCount() int               { return types.StandardSpinCount }
func (r *standardInfoReader) SaltSize() int                { return int(r.info.Verifier.SaltSize) }
func (r *standardInfoReader) HasDataIntegrity() bool       { return false }

// HashAlgorithm returns the hash named by the header's hash algorithm id
func (r *standardInfoReader) HashAlgorithm() string {
	if r.info.Header.AlgIDHash == types.HashAlgorithmSHA1 || r.info.Header.AlgIDHash == 0 {
		return types.HashNameSHA1
	}
	return fmt.Sprintf("0x%04X", uint32(r.info.Header.AlgIDHash))
}

func (r *agileInfoReader) Version() types.FormatVersion { return types.VersionAgile }
func (r *agileInfoReader) MajorVersion() uint16         { return r.info.MajorVersion }
func (r *agileInfoReader) MinorVersion() uint16         { return r.info.MinorVersion }
func (r *agileInfoReader) KeyBits() int                 { return r.info.KeyData.KeyBits }
func (r *agileInfoReader) CipherChaining() string       { return r.info.KeyData.CipherChaining }
func (r *agileInfoReader) HashAlgorithm() string        { return r.info.KeyData.HashAlgorithm }

// CipherAlgorithm combines the cipher name and key size, e.g. "AES-256"
func (r *agileInfoReader) CipherAlgorithm() string {
	return fmt.Sprintf("%s-%d", r.info.KeyData.CipherAlgorithm, r.info.KeyData.KeyBits)
}

// SpinCount returns the spin count of the password key encryptor, or zero when there is none
func (r *agileInfoReader) SpinCount() int {
	if pke, ok := r.info.PasswordEncryptor(); ok {
		return pke.SpinCount
	}
	return 0
}

// SaltSize returns the salt size of the password key encryptor
func (r *agileInfoReader) SaltSize() int {
	if pke, ok := r.info.PasswordEncryptor(); ok {
		return pke.SaltSize
	}
	return r.info.KeyData.SaltSize
}

// HasDataIntegrity reports whether both HMAC fields are present
func (r *agileInfoReader) HasDataIntegrity() bool {
	return len(r.info.DataIntegrity.EncryptedHmacKey) > 0 && len(r.info.DataIntegrity.EncryptedHmacValue) > 0
}
