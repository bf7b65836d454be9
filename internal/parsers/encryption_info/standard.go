package encryptioninfo

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-officecrypto/internal/helpers"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// Standard EncryptionInfo layout: version, flags and header size precede the
// EncryptionHeader, which is followed by the EncryptionVerifier.
// Reference: MS-OFFCRYPTO 2.3.4.5
const (
	standardPrefixSize     = 12
	verifierFixedSize      = 4 + types.StandardSaltSize + types.StandardVerifierSize + 4
	aesVerifierHashSize    = 32
	rc4VerifierHashSize    = 20
	maxStandardHeaderBytes = 1 << 16
)

// ReadBinary parses a Standard EncryptionInfo stream.
func ReadBinary(data []byte) (*types.EncryptionInfoBinary, error) {
	if DetectVersion(data) != types.VersionStandard {
		return nil, VersionError(data)
	}
	if len(data) < standardPrefixSize {
		return nil, fmt.Errorf("%w: data too small for EncryptionInfo prefix: need %d bytes, got %d",
			types.ErrUnsupportedEncryptionFormat, standardPrefixSize, len(data))
	}

	info := &types.EncryptionInfoBinary{
		MajorVersion: binary.LittleEndian.Uint16(data[0:2]),
		MinorVersion: binary.LittleEndian.Uint16(data[2:4]),
		Flags:        types.EncryptionFlags(binary.LittleEndian.Uint32(data[4:8])),
	}
	headerSize := binary.LittleEndian.Uint32(data[8:12])
	if headerSize < types.EncryptionHeaderFixedSize || headerSize > maxStandardHeaderBytes ||
		int(headerSize) > len(data)-standardPrefixSize {
		return nil, fmt.Errorf("%w: invalid EncryptionHeader size %d", types.ErrUnsupportedEncryptionFormat, headerSize)
	}

	hdr := data[standardPrefixSize : standardPrefixSize+int(headerSize)]
	info.Header = types.EncryptionHeader{
		Flags:        types.EncryptionFlags(binary.LittleEndian.Uint32(hdr[0:4])),
		SizeExtra:    binary.LittleEndian.Uint32(hdr[4:8]),
		AlgID:        types.AlgorithmID(binary.LittleEndian.Uint32(hdr[8:12])),
		AlgIDHash:    types.HashAlgorithmID(binary.LittleEndian.Uint32(hdr[12:16])),
		KeySize:      binary.LittleEndian.Uint32(hdr[16:20]),
		ProviderType: binary.LittleEndian.Uint32(hdr[20:24]),
		Reserved1:    binary.LittleEndian.Uint32(hdr[24:28]),
		Reserved2:    binary.LittleEndian.Uint32(hdr[28:32]),
	}
	name, err := helpers.DecodeUTF16LE(hdr[types.EncryptionHeaderFixedSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: CSP name: %v", types.ErrUnsupportedEncryptionFormat, err)
	}
	info.Header.CSPName = name

	ver := data[standardPrefixSize+int(headerSize):]
	if len(ver) < verifierFixedSize {
		return nil, fmt.Errorf("%w: data too small for EncryptionVerifier: need %d bytes, got %d",
			types.ErrUnsupportedEncryptionFormat, verifierFixedSize, len(ver))
	}
	v := &info.Verifier
	v.SaltSize = binary.LittleEndian.Uint32(ver[0:4])
	if v.SaltSize != types.StandardSaltSize {
		return nil, fmt.Errorf("%w: invalid salt size %d", types.ErrUnsupportedEncryptionFormat, v.SaltSize)
	}
	copy(v.Salt[:], ver[4:20])
	copy(v.EncryptedVerifier[:], ver[20:36])
	v.VerifierHashSize = binary.LittleEndian.Uint32(ver[36:40])

	hashLen := aesVerifierHashSize
	if info.Header.AlgID == types.AlgorithmRC4 {
		hashLen = rc4VerifierHashSize
	}
	if len(ver)-verifierFixedSize < hashLen {
		return nil, fmt.Errorf("%w: encrypted verifier hash truncated: need %d bytes, got %d",
			types.ErrUnsupportedEncryptionFormat, hashLen, len(ver)-verifierFixedSize)
	}
	v.EncryptedVerifierHash = append([]byte(nil), ver[verifierFixedSize:verifierFixedSize+hashLen]...)

	return info, nil
}

// WriteBinary serializes a Standard EncryptionInfo stream. The header size is
// computed from the CSP name.
func WriteBinary(info *types.EncryptionInfoBinary) ([]byte, error) {
	if info == nil {
		return nil, fmt.Errorf("cannot write a nil EncryptionInfo")
	}
	if len(info.Verifier.EncryptedVerifierHash) == 0 {
		return nil, fmt.Errorf("EncryptionInfo verifier has no encrypted verifier hash")
	}

	csp := helpers.EncodeUTF16LE(info.Header.CSPName)
	headerSize := types.EncryptionHeaderFixedSize + len(csp) + 2

	buf := make([]byte, 0, standardPrefixSize+headerSize+verifierFixedSize+len(info.Verifier.EncryptedVerifierHash))
	buf = binary.LittleEndian.AppendUint16(buf, info.MajorVersion)
	buf = binary.LittleEndian.AppendUint16(buf, info.MinorVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(info.Flags))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(headerSize))

	h := info.Header
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.Flags))
	buf = binary.LittleEndian.AppendUint32(buf, h.SizeExtra)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.AlgID))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.AlgIDHash))
	buf = binary.LittleEndian.AppendUint32(buf, h.KeySize)
	buf = binary.LittleEndian.AppendUint32(buf, h.ProviderType)
	buf = binary.LittleEndian.AppendUint32(buf, h.Reserved1)
	buf = binary.LittleEndian.AppendUint32(buf, h.Reserved2)
	buf = append(buf, csp...)
	buf = append(buf, 0, 0)

	v := info.Verifier
	buf = binary.LittleEndian.AppendUint32(buf, v.SaltSize)
	buf = append(buf, v.Salt[:]...)
	buf = append(buf, v.EncryptedVerifier[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, v.VerifierHashSize)
	buf = append(buf, v.EncryptedVerifierHash...)
	return buf, nil
}
