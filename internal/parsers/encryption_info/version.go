package encryptioninfo

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// DetectVersion classifies an EncryptionInfo stream from its first four bytes.
// Versions x.2 and x.3 with a major version up to 4 are Standard encryption
// and 4.4 is Agile encryption.
// Reference: MS-OFFCRYPTO 2.3.4.5, 2.3.4.10
func DetectVersion(data []byte) types.FormatVersion {
	if len(data) < types.VersionInfoSize {
		return types.VersionUnsupported
	}
	major := binary.LittleEndian.Uint16(data[0:2])
	minor := binary.LittleEndian.Uint16(data[2:4])
	switch {
	case major == types.AgileMajorVersion && minor == types.AgileMinorVersion:
		return types.VersionAgile
	case major <= 4 && (minor == 2 || minor == 3):
		return types.VersionStandard
	default:
		return types.VersionUnsupported
	}
}

// VersionError describes why data has no usable EncryptionInfo version.
func VersionError(data []byte) error {
	if len(data) < types.VersionInfoSize {
		return fmt.Errorf("%w: EncryptionInfo stream too small: %d bytes", types.ErrUnsupportedEncryptionFormat, len(data))
	}
	return fmt.Errorf("%w: EncryptionInfo version %d.%d", types.ErrUnsupportedEncryptionFormat,
		binary.LittleEndian.Uint16(data[0:2]), binary.LittleEndian.Uint16(data[2:4]))
}
