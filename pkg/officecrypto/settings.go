package officecrypto

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// FormatVersion selects the encryption container format.
type FormatVersion = types.FormatVersion

const (
	// VersionStandard is ECMA-376 Standard Encryption (AES-ECB, SHA-1).
	VersionStandard = types.VersionStandard
	// VersionAgile is ECMA-376 Agile Encryption (segmented AES-CBC with HMAC).
	VersionAgile = types.VersionAgile
)

// Algorithm is the AES key size used to encrypt a package.
type Algorithm int

const (
	AES128 Algorithm = 128
	AES192 Algorithm = 192
	AES256 Algorithm = 256
)

// String returns the algorithm name, e.g. "AES-256".
func (a Algorithm) String() string {
	return fmt.Sprintf("AES-%d", int(a))
}

func (a Algorithm) standardID() (types.AlgorithmID, error) {
	switch a {
	case AES128:
		return types.AlgorithmAES128, nil
	case AES192:
		return types.AlgorithmAES192, nil
	case AES256:
		return types.AlgorithmAES256, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, a)
	}
}

// EncryptionSettings configures Encrypt. The zero value encrypts with Agile
// defaults and the fallback password.
type EncryptionSettings struct {
	// Password protects the document. An empty password is replaced by the
	// well known fallback password.
	Password string

	// Version selects Standard or Agile encryption. Zero means Agile.
	Version FormatVersion

	// Algorithm is the AES key size. Zero means AES-128 for Standard and
	// AES-256 for Agile.
	Algorithm Algorithm

	// HashAlgorithm names the Agile hash: SHA1, SHA256, SHA384 or SHA512.
	// Empty means SHA512. Standard encryption always uses SHA-1.
	HashAlgorithm string

	// SpinCount is the Agile password hashing iteration count. Zero means
	// 100000. Standard encryption always uses 50000.
	SpinCount int
}

// DefaultSettings returns Agile AES-256 settings for password.
func DefaultSettings(password string) EncryptionSettings {
	return EncryptionSettings{
		Password:      password,
		Version:       VersionAgile,
		Algorithm:     AES256,
		HashAlgorithm: types.HashNameSHA512,
		SpinCount:     types.AgileDefaultSpinCount,
	}
}

// ParseFormatVersion maps "standard" or "agile" to a FormatVersion.
func ParseFormatVersion(s string) (FormatVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "binary":
		return VersionStandard, nil
	case "agile", "":
		return VersionAgile, nil
	default:
		return types.VersionUnsupported, fmt.Errorf("%w: format %q", ErrUnsupportedAlgorithm, s)
	}
}

// ParseAlgorithm accepts "AES-256", "aes256" or "256".
func ParseAlgorithm(s string) (Algorithm, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimPrefix(strings.TrimPrefix(v, "AES"), "-")
	switch v {
	case "128":
		return AES128, nil
	case "192":
		return AES192, nil
	case "256", "":
		return AES256, nil
	default:
		return 0, fmt.Errorf("%w: cipher %q", ErrUnsupportedAlgorithm, s)
	}
}
