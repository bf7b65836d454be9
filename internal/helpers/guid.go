package helpers

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// GUIDToBytes encodes a UUID in the Windows GUID layout used on disk: the
// first three fields little-endian, the last eight bytes as is.
// Reference: MS-DTYP 2.3.4.2
func GUIDToBytes(u uuid.UUID) [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint32(b[0:4], binary.BigEndian.Uint32(u[0:4]))
	binary.LittleEndian.PutUint16(b[4:6], binary.BigEndian.Uint16(u[4:6]))
	binary.LittleEndian.PutUint16(b[6:8], binary.BigEndian.Uint16(u[6:8]))
	copy(b[8:], u[8:])
	return b
}

// GUIDFromBytes decodes a 16 byte on-disk GUID into a UUID.
func GUIDFromBytes(b [16]byte) uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint32(u[0:4], binary.LittleEndian.Uint32(b[0:4]))
	binary.BigEndian.PutUint16(u[4:6], binary.LittleEndian.Uint16(b[4:6]))
	binary.BigEndian.PutUint16(u[6:8], binary.LittleEndian.Uint16(b[6:8]))
	copy(u[8:], b[8:])
	return u
}
