package compound

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-officecrypto/internal/helpers"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// Header field offsets.
// Reference: MS-CFB 2.2
const (
	hdrMinorVersionOffset  = 24
	hdrMajorVersionOffset  = 26
	hdrByteOrderOffset     = 28
	hdrSectorShiftOffset   = 30
	hdrMiniShiftOffset     = 32
	hdrNumDirSectorsOffset = 40
	hdrNumFATOffset        = 44
	hdrFirstDirOffset      = 48
	hdrCutoffOffset        = 56
	hdrFirstMiniFATOffset  = 60
	hdrNumMiniFATOffset    = 64
	hdrFirstDIFATOffset    = 68
	hdrNumDIFATOffset      = 72
	hdrDIFATOffset         = 76
)

// header holds the fields of the compound file header the reader needs.
type header struct {
	MajorVersion     uint16
	SectorShift      uint16
	MiniSectorShift  uint16
	NumFATSectors    uint32
	FirstDirSector   uint32
	MiniStreamCutoff uint32
	FirstMiniFAT     uint32
	NumMiniFAT       uint32
	FirstDIFAT       uint32
	NumDIFAT         uint32
	DIFAT            [types.CompoundHeaderDIFATCount]uint32
}

// IsCompoundFile reports whether data starts with the compound file signature.
func IsCompoundFile(data []byte) bool {
	return len(data) >= len(types.CompoundSignature) && bytes.Equal(data[:8], types.CompoundSignature[:])
}

// reader resolves sector chains over an in-memory compound file.
type reader struct {
	data       []byte
	hdr        header
	sectorSize int
	fat        []uint32
	miniFAT    []uint32
	miniStream []byte
	entries    []types.DirectoryEntry
}

// Parse reads a complete compound file into a storage tree. Any structural
// problem is reported as types.ErrMalformedContainer.
func Parse(data []byte) (*Storage, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	r := &reader{data: data, hdr: hdr, sectorSize: 1 << hdr.SectorShift}

	if err := r.loadFAT(); err != nil {
		return nil, err
	}
	if err := r.loadDirectory(); err != nil {
		return nil, err
	}
	if err := r.loadMiniStream(); err != nil {
		return nil, err
	}

	root := NewRoot()
	root.clsid = helpers.GUIDFromBytes(r.entries[0].CLSID)
	visited := make(map[uint32]bool, len(r.entries))
	visited[0] = true
	if err := r.buildTree(root, r.entries[0].ChildID, visited); err != nil {
		return nil, err
	}
	return root, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", types.ErrMalformedContainer, fmt.Sprintf(format, args...))
}

func parseHeader(data []byte) (header, error) {
	var h header
	if len(data) < types.CompoundHeaderSize {
		return h, malformed("data too small for compound header: need %d bytes, got %d", types.CompoundHeaderSize, len(data))
	}
	if !IsCompoundFile(data) {
		return h, malformed("invalid compound file signature")
	}
	if bo := binary.LittleEndian.Uint16(data[hdrByteOrderOffset:]); bo != types.CompoundByteOrder {
		return h, malformed("invalid byte order mark 0x%04X", bo)
	}

	h.MajorVersion = binary.LittleEndian.Uint16(data[hdrMajorVersionOffset:])
	h.SectorShift = binary.LittleEndian.Uint16(data[hdrSectorShiftOffset:])
	switch {
	case h.MajorVersion == types.CompoundMajorVersion3 && h.SectorShift == types.CompoundSectorShiftV3:
	case h.MajorVersion == types.CompoundMajorVersion4 && h.SectorShift == types.CompoundSectorShiftV4:
	default:
		return h, malformed("unsupported version %d with sector shift %d", h.MajorVersion, h.SectorShift)
	}
	h.MiniSectorShift = binary.LittleEndian.Uint16(data[hdrMiniShiftOffset:])
	if h.MiniSectorShift != types.CompoundMiniSectorShift {
		return h, malformed("invalid mini sector shift %d", h.MiniSectorShift)
	}

	h.NumFATSectors = binary.LittleEndian.Uint32(data[hdrNumFATOffset:])
	h.FirstDirSector = binary.LittleEndian.Uint32(data[hdrFirstDirOffset:])
	h.MiniStreamCutoff = binary.LittleEndian.Uint32(data[hdrCutoffOffset:])
	if h.MiniStreamCutoff != types.CompoundMiniStreamCutoff {
		return h, malformed("invalid mini stream cutoff %d", h.MiniStreamCutoff)
	}
	h.FirstMiniFAT = binary.LittleEndian.Uint32(data[hdrFirstMiniFATOffset:])
	h.NumMiniFAT = binary.LittleEndian.Uint32(data[hdrNumMiniFATOffset:])
	h.FirstDIFAT = binary.LittleEndian.Uint32(data[hdrFirstDIFATOffset:])
	h.NumDIFAT = binary.LittleEndian.Uint32(data[hdrNumDIFATOffset:])
	for i := range h.DIFAT {
		h.DIFAT[i] = binary.LittleEndian.Uint32(data[hdrDIFATOffset+4*i:])
	}
	return h, nil
}

// sectorCount is the number of sectors following the header, counting a
// truncated final sector.
func (r *reader) sectorCount() uint32 {
	body := len(r.data) - r.sectorSize
	if body <= 0 {
		return 0
	}
	return uint32((body + r.sectorSize - 1) / r.sectorSize)
}

// sector returns the content of sector id. A truncated final sector is zero
// filled to the full sector size.
func (r *reader) sector(id uint32) ([]byte, error) {
	if id > types.MaxRegularSector || id >= r.sectorCount() {
		return nil, malformed("sector %d out of range", id)
	}
	start := (int(id) + 1) * r.sectorSize
	end := start + r.sectorSize
	if end <= len(r.data) {
		return r.data[start:end], nil
	}
	buf := make([]byte, r.sectorSize)
	copy(buf, r.data[start:])
	return buf, nil
}

func (r *reader) loadFAT() error {
	perSector := uint32(r.sectorSize / 4)
	if r.hdr.NumFATSectors > r.sectorCount() {
		return malformed("header declares %d FAT sectors but file has %d sectors", r.hdr.NumFATSectors, r.sectorCount())
	}

	fatSectors := make([]uint32, 0, r.hdr.NumFATSectors)
	for i := 0; i < types.CompoundHeaderDIFATCount && uint32(len(fatSectors)) < r.hdr.NumFATSectors; i++ {
		fatSectors = append(fatSectors, r.hdr.DIFAT[i])
	}

	next := r.hdr.FirstDIFAT
	seen := make(map[uint32]bool)
	for uint32(len(fatSectors)) < r.hdr.NumFATSectors {
		if next == types.EndOfChain || next == types.FreeSector {
			return malformed("DIFAT chain ends after %d of %d FAT sectors", len(fatSectors), r.hdr.NumFATSectors)
		}
		if seen[next] {
			return malformed("DIFAT chain loops at sector %d", next)
		}
		seen[next] = true
		sec, err := r.sector(next)
		if err != nil {
			return err
		}
		for i := uint32(0); i < perSector-1 && uint32(len(fatSectors)) < r.hdr.NumFATSectors; i++ {
			fatSectors = append(fatSectors, binary.LittleEndian.Uint32(sec[4*i:]))
		}
		next = binary.LittleEndian.Uint32(sec[4*(perSector-1):])
	}

	r.fat = make([]uint32, 0, len(fatSectors)*int(perSector))
	for _, id := range fatSectors {
		sec, err := r.sector(id)
		if err != nil {
			return fmt.Errorf("FAT sector: %w", err)
		}
		for i := uint32(0); i < perSector; i++ {
			r.fat = append(r.fat, binary.LittleEndian.Uint32(sec[4*i:]))
		}
	}
	return nil
}

// chain follows the FAT from start and returns the sector ids in order.
func (r *reader) chain(start uint32) ([]uint32, error) {
	return followChain(r.fat, start, "FAT")
}

func followChain(table []uint32, start uint32, what string) ([]uint32, error) {
	var ids []uint32
	for id := start; id != types.EndOfChain; {
		if id >= uint32(len(table)) {
			return nil, malformed("%s chain references sector %d beyond table of %d entries", what, id, len(table))
		}
		if len(ids) >= len(table) {
			return nil, malformed("%s chain starting at %d is cyclic", what, start)
		}
		ids = append(ids, id)
		id = table[id]
	}
	return ids, nil
}

func (r *reader) readChain(start uint32) ([]byte, error) {
	ids, err := r.chain(start)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(ids)*r.sectorSize)
	for _, id := range ids {
		sec, err := r.sector(id)
		if err != nil {
			return nil, err
		}
		out = append(out, sec...)
	}
	return out, nil
}

func (r *reader) loadDirectory() error {
	raw, err := r.readChain(r.hdr.FirstDirSector)
	if err != nil {
		return fmt.Errorf("directory: %w", err)
	}
	n := len(raw) / types.CompoundDirectoryEntrySize
	if n == 0 {
		return malformed("empty directory")
	}
	r.entries = make([]types.DirectoryEntry, n)
	for i := 0; i < n; i++ {
		off := i * types.CompoundDirectoryEntrySize
		e, err := decodeDirectoryEntry(raw[off:off+types.CompoundDirectoryEntrySize], r.hdr.MajorVersion)
		if err != nil {
			return fmt.Errorf("directory entry %d: %w", i, err)
		}
		r.entries[i] = e
	}
	if r.entries[0].ObjectType != types.ObjectRoot {
		return malformed("first directory entry is %s, expected root", r.entries[0].ObjectType)
	}
	return nil
}

func (r *reader) loadMiniStream() error {
	root := r.entries[0]
	if root.StreamSize == 0 {
		return nil
	}
	raw, err := r.readChain(root.StartingSector)
	if err != nil {
		return fmt.Errorf("mini stream: %w", err)
	}
	if uint64(len(raw)) < root.StreamSize {
		return malformed("mini stream has %d bytes, root entry declares %d", len(raw), root.StreamSize)
	}
	r.miniStream = raw[:root.StreamSize]

	if r.hdr.NumMiniFAT == 0 || r.hdr.FirstMiniFAT == types.EndOfChain {
		return nil
	}
	rawFAT, err := r.readChain(r.hdr.FirstMiniFAT)
	if err != nil {
		return fmt.Errorf("mini FAT: %w", err)
	}
	r.miniFAT = make([]uint32, len(rawFAT)/4)
	for i := range r.miniFAT {
		r.miniFAT[i] = binary.LittleEndian.Uint32(rawFAT[4*i:])
	}
	return nil
}

func (r *reader) streamData(e types.DirectoryEntry) ([]byte, error) {
	if e.StreamSize == 0 {
		return []byte{}, nil
	}
	if e.StreamSize < uint64(r.hdr.MiniStreamCutoff) {
		return r.miniStreamData(e)
	}
	raw, err := r.readChain(e.StartingSector)
	if err != nil {
		return nil, err
	}
	if uint64(len(raw)) < e.StreamSize {
		return nil, malformed("stream %q has %d bytes, entry declares %d", e.Name, len(raw), e.StreamSize)
	}
	return raw[:e.StreamSize], nil
}

func (r *reader) miniStreamData(e types.DirectoryEntry) ([]byte, error) {
	const miniSize = 1 << types.CompoundMiniSectorShift
	ids, err := followChain(r.miniFAT, e.StartingSector, "mini FAT")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(ids)*miniSize)
	for _, id := range ids {
		start := int(id) * miniSize
		if start+miniSize > len(r.miniStream) {
			return nil, malformed("mini sector %d beyond mini stream of %d bytes", id, len(r.miniStream))
		}
		out = append(out, r.miniStream[start:start+miniSize]...)
	}
	if uint64(len(out)) < e.StreamSize {
		return nil, malformed("stream %q has %d bytes, entry declares %d", e.Name, len(out), e.StreamSize)
	}
	return out[:e.StreamSize], nil
}

// buildTree walks the sibling tree rooted at id and adds every entry to parent.
func (r *reader) buildTree(parent *Storage, id uint32, visited map[uint32]bool) error {
	if id == types.NoStream {
		return nil
	}
	if id >= uint32(len(r.entries)) {
		return malformed("directory reference %d out of range", id)
	}
	if visited[id] {
		return malformed("directory entry %d is referenced twice", id)
	}
	visited[id] = true
	e := r.entries[id]

	if err := r.buildTree(parent, e.LeftSiblingID, visited); err != nil {
		return err
	}

	switch e.ObjectType {
	case types.ObjectStorage:
		if e.Name == "" {
			return malformed("directory entry %d has an empty name", id)
		}
		child := &Storage{name: e.Name, clsid: helpers.GUIDFromBytes(e.CLSID)}
		parent.children = append(parent.children, &node{name: e.Name, storage: child})
		if err := r.buildTree(child, e.ChildID, visited); err != nil {
			return err
		}
	case types.ObjectStream:
		if e.Name == "" {
			return malformed("directory entry %d has an empty name", id)
		}
		data, err := r.streamData(e)
		if err != nil {
			return err
		}
		parent.children = append(parent.children, &node{name: e.Name, data: data})
	default:
		return malformed("directory entry %d has unexpected type %s", id, e.ObjectType)
	}

	return r.buildTree(parent, e.RightSiblingID, visited)
}
