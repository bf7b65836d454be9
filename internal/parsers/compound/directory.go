package compound

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-officecrypto/internal/helpers"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// Directory entry field offsets.
// Reference: MS-CFB 2.6.1
const (
	dirNameOffset       = 0
	dirNameSize         = 64
	dirNameLenOffset    = 64
	dirTypeOffset       = 66
	dirColorOffset      = 67
	dirLeftOffset       = 68
	dirRightOffset      = 72
	dirChildOffset      = 76
	dirCLSIDOffset      = 80
	dirStateBitsOffset  = 96
	dirCreatedOffset    = 100
	dirModifiedOffset   = 108
	dirStartOffset      = 116
	dirStreamSizeOffset = 120
)

// decodeDirectoryEntry parses one 128 byte directory entry. majorVersion
// selects how the stream size is interpreted: version 3 files only use the
// low 32 bits.
func decodeDirectoryEntry(data []byte, majorVersion uint16) (types.DirectoryEntry, error) {
	var e types.DirectoryEntry
	if len(data) < types.CompoundDirectoryEntrySize {
		return e, fmt.Errorf("%w: directory entry needs %d bytes, got %d", types.ErrMalformedContainer, types.CompoundDirectoryEntrySize, len(data))
	}

	e.NameLength = binary.LittleEndian.Uint16(data[dirNameLenOffset:])
	e.ObjectType = types.ObjectType(data[dirTypeOffset])
	e.Color = types.ColorFlag(data[dirColorOffset])
	e.LeftSiblingID = binary.LittleEndian.Uint32(data[dirLeftOffset:])
	e.RightSiblingID = binary.LittleEndian.Uint32(data[dirRightOffset:])
	e.ChildID = binary.LittleEndian.Uint32(data[dirChildOffset:])
	copy(e.CLSID[:], data[dirCLSIDOffset:dirCLSIDOffset+16])
	e.StateBits = binary.LittleEndian.Uint32(data[dirStateBitsOffset:])
	e.CreationTime = binary.LittleEndian.Uint64(data[dirCreatedOffset:])
	e.ModifiedTime = binary.LittleEndian.Uint64(data[dirModifiedOffset:])
	e.StartingSector = binary.LittleEndian.Uint32(data[dirStartOffset:])
	e.StreamSize = binary.LittleEndian.Uint64(data[dirStreamSizeOffset:])
	if majorVersion == types.CompoundMajorVersion3 {
		e.StreamSize &= 0xFFFFFFFF
	}

	if e.ObjectType == types.ObjectUnknown {
		return e, nil
	}
	if e.NameLength > dirNameSize || e.NameLength%2 != 0 {
		return e, fmt.Errorf("%w: invalid directory entry name length %d", types.ErrMalformedContainer, e.NameLength)
	}
	name, err := helpers.DecodeUTF16LE(data[dirNameOffset : dirNameOffset+int(e.NameLength)])
	if err != nil {
		return e, fmt.Errorf("%w: %v", types.ErrMalformedContainer, err)
	}
	e.Name = name
	return e, nil
}

// encodeDirectoryEntry writes e into a 128 byte slot.
func encodeDirectoryEntry(dst []byte, e types.DirectoryEntry) {
	clear(dst[:types.CompoundDirectoryEntrySize])
	if e.ObjectType != types.ObjectUnknown {
		name := helpers.EncodeUTF16LE(e.Name)
		copy(dst[dirNameOffset:dirNameOffset+dirNameSize-2], name)
		binary.LittleEndian.PutUint16(dst[dirNameLenOffset:], uint16(len(name)+2))
	}
	dst[dirTypeOffset] = byte(e.ObjectType)
	dst[dirColorOffset] = byte(e.Color)
	binary.LittleEndian.PutUint32(dst[dirLeftOffset:], e.LeftSiblingID)
	binary.LittleEndian.PutUint32(dst[dirRightOffset:], e.RightSiblingID)
	binary.LittleEndian.PutUint32(dst[dirChildOffset:], e.ChildID)
	copy(dst[dirCLSIDOffset:dirCLSIDOffset+16], e.CLSID[:])
	binary.LittleEndian.PutUint32(dst[dirStateBitsOffset:], e.StateBits)
	binary.LittleEndian.PutUint64(dst[dirCreatedOffset:], e.CreationTime)
	binary.LittleEndian.PutUint64(dst[dirModifiedOffset:], e.ModifiedTime)
	binary.LittleEndian.PutUint32(dst[dirStartOffset:], e.StartingSector)
	binary.LittleEndian.PutUint64(dst[dirStreamSizeOffset:], e.StreamSize)
}

// emptyDirectoryEntry is an unused slot.
func emptyDirectoryEntry() types.DirectoryEntry {
	return types.DirectoryEntry{
		ObjectType:     types.ObjectUnknown,
		LeftSiblingID:  types.NoStream,
		RightSiblingID: types.NoStream,
		ChildID:        types.NoStream,
	}
}
