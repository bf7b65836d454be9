package types

// Agile Encryption (MS-OFFCRYPTO section 2.3.4.10)
// The Agile EncryptionInfo stream is an 8 byte binary prefix followed by an XML
// descriptor. The descriptor is mirrored here as plain structs; the XML mapping
// lives in the encryption_info parser.

// XML namespaces and URIs used by the Agile descriptor.
const (
	AgileEncryptionNamespace  = "http://schemas.microsoft.com/office/2006/encryption"
	PasswordKeyEncryptorURI   = "http://schemas.microsoft.com/office/2006/keyEncryptor/password"
	CertificateKeyEncryptorNS = "http://schemas.microsoft.com/office/2006/keyEncryptor/certificate"
)

// Cipher and chaining names accepted in the descriptor.
const (
	CipherAES          = "AES"
	ChainingModeCBC    = "ChainingModeCBC"
	ChainingModeCFB    = "ChainingModeCFB"
	HashNameSHA1       = "SHA1"
	HashNameSHA256     = "SHA256"
	HashNameSHA384     = "SHA384"
	HashNameSHA512     = "SHA512"
	AgileSegmentLength = 4096
)

// Agile encryption defaults used when encrypting.
const (
	AgileDefaultKeyBits   = 256
	AgileDefaultHashSize  = 64
	AgileDefaultBlockSize = 16
	AgileDefaultSaltSize  = 16
	AgileDefaultSpinCount = 100000
	AgileMaxSpinCount     = 10000000
)

// KeyData describes the cipher and hash shared by the data encryption key and
// the key encryptors.
// Reference: MS-OFFCRYPTO 2.3.4.10 (CT_KeyData)
type KeyData struct {
	SaltSize        int
	BlockSize       int
	KeyBits         int
	HashSize        int
	CipherAlgorithm string
	CipherChaining  string
	HashAlgorithm   string
	SaltValue       []byte
}

// DataIntegrity holds the encrypted HMAC key and value over the EncryptedPackage stream.
// Reference: MS-OFFCRYPTO 2.3.4.14
type DataIntegrity struct {
	EncryptedHmacKey   []byte
	EncryptedHmacValue []byte
}

// PasswordKeyEncryptor is a password based key encryptor.
// Decrypted values are never stored here; decryption keeps them local.
// Reference: MS-OFFCRYPTO 2.3.4.10 (CT_PasswordKeyEncryptor)
type PasswordKeyEncryptor struct {
	KeyData
	SpinCount                  int
	EncryptedVerifierHashInput []byte
	EncryptedVerifierHashValue []byte
	EncryptedKeyValue          []byte
}

// EncryptionInfoAgile is the in-memory Agile descriptor.
type EncryptionInfoAgile struct {
	MajorVersion  uint16
	MinorVersion  uint16
	Reserved      uint32
	KeyData       KeyData
	DataIntegrity DataIntegrity

	// KeyEncryptors holds the password key encryptors found in the descriptor.
	// Only the first one is used.
	KeyEncryptors []PasswordKeyEncryptor
}

// PasswordEncryptor returns the password key encryptor, or false when none was present.
func (e *EncryptionInfoAgile) PasswordEncryptor() (*PasswordKeyEncryptor, bool) {
	if len(e.KeyEncryptors) == 0 {
		return nil, false
	}
	return &e.KeyEncryptors[0], true
}
