// Package dataspaces writes and reads the \x06DataSpaces storage that marks
// the EncryptedPackage stream of a password protected OOXML document as
// transformed by the strong encryption transform.
package dataspaces

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-officecrypto/internal/helpers"
	"github.com/deploymenttheory/go-officecrypto/internal/parsers/compound"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
	"github.com/google/uuid"
)

// transformID is the class id of the strong encryption transform.
var transformID = uuid.MustParse(types.EncryptionTransformID)

const (
	mapHeaderLength        = 8
	definitionHeaderLength = 8
	transformTypeEncrypt   = 1
	referenceTypeStream    = 0
	encryptionInfoReserved = 4
)

var version1 = types.DataSpaceVersion{Major: 1, Minor: 0}

// Build adds the \x06DataSpaces storage with its four fixed streams to root.
func Build(root *compound.Storage) error {
	ds, err := root.AddStorage(types.DataSpacesStorageName)
	if err != nil {
		return fmt.Errorf("failed to add data spaces storage: %w", err)
	}
	if err := ds.AddStream(types.DataSpaceVersionStreamName, VersionStream()); err != nil {
		return err
	}
	if err := ds.AddStream(types.DataSpaceMapStreamName, DataSpaceMapStream()); err != nil {
		return err
	}

	info, err := ds.AddStorage(types.DataSpaceInfoStorageName)
	if err != nil {
		return err
	}
	if err := info.AddStream(types.StrongEncryptionDataSpaceName, DataSpaceDefinitionStream()); err != nil {
		return err
	}

	transforms, err := ds.AddStorage(types.TransformInfoStorageName)
	if err != nil {
		return err
	}
	strong, err := transforms.AddStorage(types.StrongEncryptionTransformName)
	if err != nil {
		return err
	}
	return strong.AddStream(types.TransformPrimaryStreamName, PrimaryStream())
}

func appendVersion(dst []byte, v types.DataSpaceVersion) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, v.Major)
	return binary.LittleEndian.AppendUint16(dst, v.Minor)
}

// VersionStream returns the DataSpaceVersionInfo stream.
// Reference: MS-OFFCRYPTO 2.1.5
func VersionStream() []byte {
	buf := helpers.AppendUnicodeLPP4(nil, types.DataSpacesFeatureIdentifier)
	buf = appendVersion(buf, version1)
	buf = appendVersion(buf, version1)
	return appendVersion(buf, version1)
}

// DataSpaceMapStream returns the DataSpaceMap stream with its single entry
// mapping EncryptedPackage to StrongEncryptionDataSpace.
// Reference: MS-OFFCRYPTO 2.1.6
func DataSpaceMapStream() []byte {
	var entry []byte
	entry = binary.LittleEndian.AppendUint32(entry, 1)
	entry = binary.LittleEndian.AppendUint32(entry, referenceTypeStream)
	entry = helpers.AppendUnicodeLPP4(entry, types.EncryptedPackageStreamName)
	entry = helpers.AppendUnicodeLPP4(entry, types.StrongEncryptionDataSpaceName)

	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, mapHeaderLength)
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(4+len(entry)))
	return append(buf, entry...)
}

// DataSpaceDefinitionStream returns the StrongEncryptionDataSpace stream
// listing the transform applied by the data space.
// Reference: MS-OFFCRYPTO 2.1.7
func DataSpaceDefinitionStream() []byte {
	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, definitionHeaderLength)
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	return helpers.AppendUnicodeLPP4(buf, types.StrongEncryptionTransformName)
}

// PrimaryStream returns the \x06Primary stream: a TransformInfoHeader for
// the encryption transform followed by an empty EncryptionTransformInfo.
// Reference: MS-OFFCRYPTO 2.1.8, 2.2.6
func PrimaryStream() []byte {
	var hdr []byte
	hdr = binary.LittleEndian.AppendUint32(hdr, transformTypeEncrypt)
	hdr = helpers.AppendUnicodeLPP4(hdr, formatTransformID(transformID))

	var buf []byte
	// TransformLength counts the bytes before TransformName, itself included.
	buf = binary.LittleEndian.AppendUint32(buf, uint32(4+len(hdr)))
	buf = append(buf, hdr...)
	buf = helpers.AppendUnicodeLPP4(buf, types.EncryptionTransformName)
	buf = appendVersion(buf, version1)
	buf = appendVersion(buf, version1)
	buf = appendVersion(buf, version1)

	// EncryptionTransformInfo: empty name, block size, cipher mode, reserved.
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	return binary.LittleEndian.AppendUint32(buf, encryptionInfoReserved)
}

func formatTransformID(id uuid.UUID) string {
	return "{" + strings.ToUpper(id.String()) + "}"
}
