package officecrypto

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-officecrypto/internal/dataspaces"
	encryptioninfo "github.com/deploymenttheory/go-officecrypto/internal/parsers/encryption_info"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// Info describes an encrypted document. It is read without a password.
type Info struct {
	Format           string `json:"format" yaml:"format"`
	MajorVersion     uint16 `json:"major_version" yaml:"major_version"`
	MinorVersion     uint16 `json:"minor_version" yaml:"minor_version"`
	CipherAlgorithm  string `json:"cipher_algorithm" yaml:"cipher_algorithm"`
	CipherChaining   string `json:"cipher_chaining" yaml:"cipher_chaining"`
	KeyBits          int    `json:"key_bits" yaml:"key_bits"`
	HashAlgorithm    string `json:"hash_algorithm" yaml:"hash_algorithm"`
	SpinCount        int    `json:"spin_count" yaml:"spin_count"`
	SaltSize         int    `json:"salt_size" yaml:"salt_size"`
	HasDataIntegrity bool   `json:"has_data_integrity" yaml:"has_data_integrity"`

	// PackageSize is the plaintext size recorded in the EncryptedPackage prefix.
	PackageSize uint64 `json:"package_size" yaml:"package_size"`
	// EncryptedSize is the size of the EncryptedPackage stream.
	EncryptedSize int `json:"encrypted_size" yaml:"encrypted_size"`

	HasDataSpaces bool   `json:"has_data_spaces" yaml:"has_data_spaces"`
	DataSpace     string `json:"data_space,omitempty" yaml:"data_space,omitempty"`
	Transform     string `json:"transform,omitempty" yaml:"transform,omitempty"`
}

// Inspect reads the encryption parameters of an encrypted document.
func Inspect(container []byte) (*Info, error) {
	s, err := openContainer(container)
	if err != nil {
		return nil, err
	}
	r, err := encryptioninfo.NewEncryptionInfoReader(s.encryptionInfo)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Format:           r.Version().String(),
		MajorVersion:     r.MajorVersion(),
		MinorVersion:     r.MinorVersion(),
		CipherAlgorithm:  r.CipherAlgorithm(),
		CipherChaining:   r.CipherChaining(),
		KeyBits:          r.KeyBits(),
		HashAlgorithm:    r.HashAlgorithm(),
		SpinCount:        r.SpinCount(),
		SaltSize:         r.SaltSize(),
		HasDataIntegrity: r.HasDataIntegrity(),
		EncryptedSize:    len(s.encryptedPackage),
	}
	if len(s.encryptedPackage) >= types.StreamSizeLength {
		info.PackageSize = binary.LittleEndian.Uint64(s.encryptedPackage)
	}

	desc, ok, err := dataspaces.Read(s.root)
	if err != nil {
		return nil, err
	}
	info.HasDataSpaces = ok
	if ok {
		info.DataSpace, _ = desc.DataSpaceFor(types.EncryptedPackageStreamName)
		if desc.Transform != nil {
			info.Transform = desc.Transform.TransformName
		}
	}
	return info, nil
}
