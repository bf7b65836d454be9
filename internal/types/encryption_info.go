package types

// Encryption Info (MS-OFFCRYPTO section 2.3)
// An encrypted OOXML document is a compound file holding an EncryptionInfo stream that
// describes how the key was derived and an EncryptedPackage stream holding the ciphertext.

// FormatVersion identifies which encryption container format an EncryptionInfo stream uses.
type FormatVersion int

const (
	// VersionUnsupported is any version pair outside the known formats.
	VersionUnsupported FormatVersion = iota
	// VersionStandard is ECMA-376 Standard Encryption (binary header, AES-ECB).
	VersionStandard
	// VersionAgile is ECMA-376 Agile Encryption (XML descriptor, segmented AES-CBC).
	VersionAgile
)

// String returns the name of the format version.
func (v FormatVersion) String() string {
	switch v {
	case VersionStandard:
		return "standard"
	case VersionAgile:
		return "agile"
	default:
		return "unsupported"
	}
}

// Version numbers written into the EncryptionInfo stream.
// Reference: MS-OFFCRYPTO 2.3.4.5, 2.3.4.10
const (
	StandardMajorVersion uint16 = 4
	StandardMinorVersion uint16 = 2
	AgileMajorVersion    uint16 = 4
	AgileMinorVersion    uint16 = 4

	// AgileReserved is the reserved field that must follow the Agile version numbers.
	AgileReserved uint32 = 0x40

	// VersionInfoSize is the size of the major/minor version prefix.
	VersionInfoSize = 4

	// AgilePrefixSize is the size of the binary prefix in front of the Agile XML descriptor.
	AgilePrefixSize = 8
)

// EncryptionFlags is the bitset stored in the EncryptionInfo and EncryptionHeader flags fields.
// Reference: MS-OFFCRYPTO 2.3.1
type EncryptionFlags uint32

const (
	// FlagCryptoAPI is set when the document uses CryptoAPI (Standard) encryption.
	FlagCryptoAPI EncryptionFlags = 0x04
	// FlagDocProps is set when document properties are left unencrypted.
	FlagDocProps EncryptionFlags = 0x08
	// FlagExternal is set when an extensible encryption provider is used.
	FlagExternal EncryptionFlags = 0x10
	// FlagAES is set when the cipher is AES.
	FlagAES EncryptionFlags = 0x20
)

// Has reports whether all bits of f are set.
func (e EncryptionFlags) Has(f EncryptionFlags) bool {
	return e&f == f
}

// AlgorithmID is a CryptoAPI ALG_ID for the cipher.
// Reference: MS-OFFCRYPTO 2.3.2
type AlgorithmID uint32

const (
	AlgorithmRC4    AlgorithmID = 0x6801
	AlgorithmAES128 AlgorithmID = 0x660E
	AlgorithmAES192 AlgorithmID = 0x660F
	AlgorithmAES256 AlgorithmID = 0x6610
)

// KeyBits returns the key size in bits for AES algorithm identifiers, or zero.
func (a AlgorithmID) KeyBits() uint32 {
	switch a {
	case AlgorithmAES128:
		return 128
	case AlgorithmAES192:
		return 192
	case AlgorithmAES256:
		return 256
	default:
		return 0
	}
}

// String returns the display name of the algorithm.
func (a AlgorithmID) String() string {
	switch a {
	case AlgorithmRC4:
		return "RC4"
	case AlgorithmAES128:
		return "AES-128"
	case AlgorithmAES192:
		return "AES-192"
	case AlgorithmAES256:
		return "AES-256"
	default:
		return "unknown"
	}
}

// HashAlgorithmID is a CryptoAPI ALG_ID for the hash.
type HashAlgorithmID uint32

// HashAlgorithmSHA1 is the only hash allowed by Standard encryption.
const HashAlgorithmSHA1 HashAlgorithmID = 0x8004

// ProviderAES is PROV_RSA_AES, the provider type recorded for AES.
const ProviderAES uint32 = 0x18

// DefaultCSPName is the cryptographic service provider name written by Standard encryption.
const DefaultCSPName = "Microsoft Enhanced RSA and AES Cryptographic Provider"

// Standard encryption sizes.
// Reference: MS-OFFCRYPTO 2.3.3
const (
	StandardSaltSize         = 16
	StandardVerifierSize     = 16
	StandardVerifierHashSize = 20 // SHA-1 output before block padding
	StandardSpinCount        = 50000

	// EncryptionHeaderFixedSize is the size of the EncryptionHeader before the CSP name.
	EncryptionHeaderFixedSize = 32
)

// EncryptionInfoBinary is the Standard EncryptionInfo stream.
// Reference: MS-OFFCRYPTO 2.3.4.5
type EncryptionInfoBinary struct {
	// The major version. 2, 3 or 4 for Standard encryption.
	MajorVersion uint16

	// The minor version. Always 2 for Standard encryption.
	MinorVersion uint16

	// A copy of Header.Flags.
	Flags EncryptionFlags

	// The header describing the cipher, hash and key size.
	Header EncryptionHeader

	// The verifier used to check the password.
	Verifier EncryptionVerifier
}

// EncryptionHeader describes the cipher used by Standard encryption.
// Reference: MS-OFFCRYPTO 2.3.2
type EncryptionHeader struct {
	Flags        EncryptionFlags
	SizeExtra    uint32
	AlgID        AlgorithmID
	AlgIDHash    HashAlgorithmID
	KeySize      uint32 // bits
	ProviderType uint32
	Reserved1    uint32
	Reserved2    uint32

	// CSPName is stored as a null terminated UTF-16LE string filling the rest of the header.
	CSPName string
}

// EncryptionVerifier holds the salt and the encrypted verifier used to check a password.
// Reference: MS-OFFCRYPTO 2.3.3
type EncryptionVerifier struct {
	SaltSize              uint32
	Salt                  [StandardSaltSize]byte
	EncryptedVerifier     [StandardVerifierSize]byte
	VerifierHashSize      uint32
	EncryptedVerifierHash []byte
}

// StreamSizeLength is the size of the plaintext length prefix of the EncryptedPackage stream.
const StreamSizeLength = 8

// Stream names inside the encrypted compound file.
const (
	EncryptionInfoStreamName   = "EncryptionInfo"
	EncryptedPackageStreamName = "EncryptedPackage"
)

// FallbackPassword is used in place of an empty password. It is the password
// legacy Office producers apply when a document is encrypted without one.
const FallbackPassword = "VelvetSweatshop"
