package types

// Compound File Binary Format (MS-CFB)
// The outer envelope of an encrypted document. A compound file is a FAT-like
// sector allocator holding a directory tree of storages and streams.

// CompoundSignature is the 8 byte signature at offset zero of every compound file.
// Reference: MS-CFB 2.2
var CompoundSignature = [8]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Header layout constants.
// Reference: MS-CFB 2.2
const (
	CompoundHeaderSize         = 512
	CompoundMinorVersion       = 0x003E
	CompoundMajorVersion3      = 0x0003
	CompoundMajorVersion4      = 0x0004
	CompoundByteOrder          = 0xFFFE
	CompoundSectorShiftV3      = 0x0009
	CompoundSectorShiftV4      = 0x000C
	CompoundMiniSectorShift    = 0x0006
	CompoundMiniStreamCutoff   = 0x1000
	CompoundHeaderDIFATCount   = 109
	CompoundDirectoryEntrySize = 128
	CompoundMaxNameLength      = 31 // UTF-16 code units, excluding the terminator
)

// Special sector numbers.
// Reference: MS-CFB 2.1
const (
	MaxRegularSector uint32 = 0xFFFFFFFA
	DIFATSector      uint32 = 0xFFFFFFFC
	FATSector        uint32 = 0xFFFFFFFD
	EndOfChain       uint32 = 0xFFFFFFFE
	FreeSector       uint32 = 0xFFFFFFFF
)

// NoStream marks an empty sibling or child pointer in a directory entry.
const NoStream uint32 = 0xFFFFFFFF

// ObjectType is the type of a directory entry.
// Reference: MS-CFB 2.6.1
type ObjectType uint8

const (
	ObjectUnknown ObjectType = 0x00
	ObjectStorage ObjectType = 0x01
	ObjectStream  ObjectType = 0x02
	ObjectRoot    ObjectType = 0x05
)

// String returns the object type name.
func (o ObjectType) String() string {
	switch o {
	case ObjectStorage:
		return "storage"
	case ObjectStream:
		return "stream"
	case ObjectRoot:
		return "root"
	default:
		return "unknown"
	}
}

// ColorFlag is the red-black tree color of a directory entry.
type ColorFlag uint8

const (
	ColorRed   ColorFlag = 0x00
	ColorBlack ColorFlag = 0x01
)

// RootEntryName is the name of the root directory entry.
const RootEntryName = "Root Entry"

// DirectoryEntry is the 128 byte on-disk directory entry.
// Reference: MS-CFB 2.6.1
type DirectoryEntry struct {
	// The entry name, decoded from the 64 byte UTF-16LE name field.
	Name string

	// The length of the name field in bytes, including the terminator.
	NameLength uint16

	ObjectType     ObjectType
	Color          ColorFlag
	LeftSiblingID  uint32
	RightSiblingID uint32
	ChildID        uint32

	// The storage CLSID, raw bytes as stored on disk.
	CLSID [16]byte

	StateBits      uint32
	CreationTime   uint64
	ModifiedTime   uint64
	StartingSector uint32
	StreamSize     uint64
}
