// Package officecrypto encrypts and decrypts OOXML packages with the
// password based encryption used by Microsoft Office. A package is an opaque
// byte slice (normally a ZIP file); the encrypted form is a compound file
// holding EncryptionInfo and EncryptedPackage streams.
package officecrypto

import (
	"fmt"

	"github.com/deploymenttheory/go-officecrypto/internal/codecs/agile"
	"github.com/deploymenttheory/go-officecrypto/internal/codecs/standard"
	"github.com/deploymenttheory/go-officecrypto/internal/crypto"
	"github.com/deploymenttheory/go-officecrypto/internal/dataspaces"
	"github.com/deploymenttheory/go-officecrypto/internal/interfaces"
	"github.com/deploymenttheory/go-officecrypto/internal/parsers/compound"
	encryptioninfo "github.com/deploymenttheory/go-officecrypto/internal/parsers/encryption_info"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// Errors returned by this package. Match them with errors.Is.
var (
	ErrMalformedContainer          = types.ErrMalformedContainer
	ErrUnsupportedEncryptionFormat = types.ErrUnsupportedEncryptionFormat
	ErrInvalidPassword             = types.ErrInvalidPassword
	ErrIntegrityCheckFailed        = types.ErrIntegrityCheckFailed
	ErrUnsupportedAlgorithm        = types.ErrUnsupportedAlgorithm
)

// FallbackPassword is the password used in place of an empty one.
const FallbackPassword = types.FallbackPassword

// Encrypt encrypts pkg and returns the serialized compound file.
func Encrypt(pkg []byte, settings EncryptionSettings) ([]byte, error) {
	codec, err := newCodec(settings)
	if err != nil {
		return nil, err
	}
	info, encPkg, err := codec.Encrypt(pkg, settings.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt package: %w", err)
	}

	root := compound.NewRoot()
	if err := dataspaces.Build(root); err != nil {
		return nil, err
	}
	if err := root.AddStream(types.EncryptionInfoStreamName, info); err != nil {
		return nil, err
	}
	if err := root.AddStream(types.EncryptedPackageStreamName, encPkg); err != nil {
		return nil, err
	}
	return compound.Serialize(root)
}

// newCodec picks the codec for settings, applying defaults to zero fields.
func newCodec(s EncryptionSettings) (interfaces.PackageCodec, error) {
	switch s.Version {
	case VersionStandard:
		alg := s.Algorithm
		if alg == 0 {
			alg = AES128
		}
		id, err := alg.standardID()
		if err != nil {
			return nil, err
		}
		return standard.New(id)

	case VersionAgile, types.VersionUnsupported:
		opts := agile.DefaultOptions()
		if s.Algorithm != 0 {
			opts.KeyBits = int(s.Algorithm)
		}
		if s.HashAlgorithm != "" {
			alg, err := crypto.ParseHashAlgorithm(s.HashAlgorithm)
			if err != nil {
				return nil, fmt.Errorf("%w: hash %q", ErrUnsupportedAlgorithm, s.HashAlgorithm)
			}
			opts.Hash = alg
		}
		if s.SpinCount != 0 {
			opts.SpinCount = s.SpinCount
		}
		return agile.New(opts)

	default:
		return nil, fmt.Errorf("%w: format version %d", ErrUnsupportedAlgorithm, int(s.Version))
	}
}

// encryptedStreams holds the two payload streams of an encrypted document.
type encryptedStreams struct {
	root             *compound.Storage
	encryptionInfo   []byte
	encryptedPackage []byte
}

func openContainer(container []byte) (*encryptedStreams, error) {
	root, err := compound.Parse(container)
	if err != nil {
		return nil, err
	}
	info, pkg, err := findStreams(root)
	if err != nil {
		return nil, err
	}
	return &encryptedStreams{root: root, encryptionInfo: info, encryptedPackage: pkg}, nil
}

func findStreams(root interfaces.StreamReader) (info, pkg []byte, err error) {
	info, ok := root.Stream(types.EncryptionInfoStreamName)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no %s stream, the document is not encrypted", ErrMalformedContainer, types.EncryptionInfoStreamName)
	}
	pkg, ok = root.Stream(types.EncryptedPackageStreamName)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no %s stream", ErrMalformedContainer, types.EncryptedPackageStreamName)
	}
	return info, pkg, nil
}

// Decrypt verifies password and returns the plaintext package held by the
// compound file container.
func Decrypt(container []byte, password string) ([]byte, error) {
	pkg, _, err := DecryptWithFormat(container, password)
	return pkg, err
}

// DecryptWithFormat is Decrypt that also reports which encryption format the
// container used. Only the EncryptionInfo and EncryptedPackage streams are
// read; the DataSpaces storage is never consulted.
func DecryptWithFormat(container []byte, password string) ([]byte, FormatVersion, error) {
	s, err := openContainer(container)
	if err != nil {
		return nil, types.VersionUnsupported, err
	}
	version := encryptioninfo.DetectVersion(s.encryptionInfo)
	pkg, err := decryptStreams(s.encryptionInfo, s.encryptedPackage, password)
	if err != nil {
		return nil, version, err
	}
	return pkg, version, nil
}

// decryptStreams dispatches on the EncryptionInfo version.
func decryptStreams(info, encPkg []byte, password string) ([]byte, error) {
	switch encryptioninfo.DetectVersion(info) {
	case types.VersionStandard:
		bin, err := encryptioninfo.ReadBinary(info)
		if err != nil {
			return nil, err
		}
		return standard.DecryptWithInfo(bin, encPkg, password)
	case types.VersionAgile:
		ag, err := encryptioninfo.ReadAgile(info)
		if err != nil {
			return nil, err
		}
		return agile.DecryptWithInfo(ag, encPkg, password)
	default:
		return nil, encryptioninfo.VersionError(info)
	}
}

// VerifyPassword reports whether password opens the container without
// decrypting the package. A wrong password yields ErrInvalidPassword.
func VerifyPassword(container []byte, password string) error {
	s, err := openContainer(container)
	if err != nil {
		return err
	}
	switch encryptioninfo.DetectVersion(s.encryptionInfo) {
	case types.VersionStandard:
		bin, err := encryptioninfo.ReadBinary(s.encryptionInfo)
		if err != nil {
			return err
		}
		_, err = standard.VerifyPassword(bin, password)
		return err
	case types.VersionAgile:
		ag, err := encryptioninfo.ReadAgile(s.encryptionInfo)
		if err != nil {
			return err
		}
		_, err = agile.VerifyPassword(ag, password)
		return err
	default:
		return encryptioninfo.VersionError(s.encryptionInfo)
	}
}

// IsEncrypted reports whether data is a compound file holding an encrypted
// OOXML package.
func IsEncrypted(data []byte) bool {
	if !compound.IsCompoundFile(data) {
		return false
	}
	_, err := openContainer(data)
	return err == nil
}

// ProtectionHash computes the password hash stored by ECMA-376 document,
// workbook and sheet protection. hashAlgorithm is a name such as "SHA-512".
func ProtectionHash(password, hashAlgorithm string, salt []byte, spinCount int) ([]byte, error) {
	alg, err := crypto.ParseHashAlgorithm(hashAlgorithm)
	if err != nil {
		return nil, err
	}
	if spinCount < 0 || spinCount > types.AgileMaxSpinCount {
		return nil, fmt.Errorf("%w: spin count %d", ErrUnsupportedAlgorithm, spinCount)
	}
	return crypto.ProtectionHash(alg, salt, password, spinCount), nil
}
