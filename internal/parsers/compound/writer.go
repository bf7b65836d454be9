package compound

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/deploymenttheory/go-officecrypto/internal/helpers"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

const (
	writeSectorSize = 1 << types.CompoundSectorShiftV3
	miniSectorSize  = 1 << types.CompoundMiniSectorShift
	fatPerSector    = writeSectorSize / 4
	difatPerSector  = fatPerSector - 1
	dirPerSector    = writeSectorSize / types.CompoundDirectoryEntrySize
)

// flatEntry is a directory entry under construction with a back reference
// to the stream content it describes.
type flatEntry struct {
	entry types.DirectoryEntry
	data  []byte
}

// layout is the sector plan of a version 3 compound file.
type layout struct {
	entries        []flatEntry
	fat            []uint32
	miniFAT        []uint32
	miniStream     []byte
	fatSectors     uint32
	difatSectors   uint32
	dirStart       uint32
	dirSectors     uint32
	miniFATStart   uint32
	miniFATSectors uint32
	miniStart      uint32
	miniSectors    uint32
	bigStreams     []int // indexes into entries, in file order
}

// Serialize writes the storage tree as a version 3 compound file with
// 512 byte sectors. Streams below the mini stream cutoff are stored in the
// mini stream.
func Serialize(root *Storage) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("cannot serialize a nil storage")
	}
	entries := flatten(root)
	if len(entries) > int(types.MaxRegularSector) {
		return nil, fmt.Errorf("too many directory entries: %d", len(entries))
	}

	l := &layout{entries: entries}
	l.placeMiniStreams()
	l.plan()

	out := make([]byte, writeSectorSize*(1+len(l.fat)))
	l.writeHeader(out[:types.CompoundHeaderSize])
	l.writeFAT(out)
	l.writeDIFAT(out)
	l.writeDirectory(out)
	l.writeMiniFAT(out)
	l.writeStreams(out)

	// Trim unused trailing sectors that the FAT only covers as free space.
	return out[:writeSectorSize*(1+int(l.usedSectors()))], nil
}

// flatten assigns directory ids depth first and builds each storage's
// sibling tree from the compound name ordering.
func flatten(root *Storage) []flatEntry {
	entries := []flatEntry{{entry: types.DirectoryEntry{
		Name:           types.RootEntryName,
		ObjectType:     types.ObjectRoot,
		Color:          types.ColorBlack,
		LeftSiblingID:  types.NoStream,
		RightSiblingID: types.NoStream,
		ChildID:        types.NoStream,
		CLSID:          helpers.GUIDToBytes(root.clsid),
		StartingSector: types.EndOfChain,
	}}}

	var addChildren func(parent int, s *Storage)
	addChildren = func(parent int, s *Storage) {
		children := s.sortedChildren()
		if len(children) == 0 {
			return
		}
		ids := make([]uint32, len(children))
		for i, n := range children {
			ids[i] = uint32(len(entries))
			e := types.DirectoryEntry{
				Name:           n.name,
				LeftSiblingID:  types.NoStream,
				RightSiblingID: types.NoStream,
				ChildID:        types.NoStream,
				StartingSector: types.EndOfChain,
			}
			if n.storage != nil {
				e.ObjectType = types.ObjectStorage
				e.CLSID = helpers.GUIDToBytes(n.storage.clsid)
				e.StartingSector = 0
			} else {
				e.ObjectType = types.ObjectStream
				e.StreamSize = uint64(len(n.data))
			}
			entries = append(entries, flatEntry{entry: e, data: n.data})
		}

		fullLevels := bits.Len(uint(len(children)+1)) - 1
		entries[parent].entry.ChildID = linkSiblings(entries, ids, 0, fullLevels)

		for i, n := range children {
			if n.storage != nil {
				addChildren(int(ids[i]), n.storage)
			}
		}
	}
	addChildren(0, root)
	return entries
}

// linkSiblings turns the sorted ids into a balanced binary search tree and
// returns its root. Nodes below the last complete level are red, everything
// else black, which satisfies the red-black invariants.
func linkSiblings(entries []flatEntry, ids []uint32, depth, fullLevels int) uint32 {
	if len(ids) == 0 {
		return types.NoStream
	}
	mid := len(ids) / 2
	id := ids[mid]
	e := &entries[id].entry
	e.Color = types.ColorBlack
	if depth >= fullLevels {
		e.Color = types.ColorRed
	}
	e.LeftSiblingID = linkSiblings(entries, ids[:mid], depth+1, fullLevels)
	e.RightSiblingID = linkSiblings(entries, ids[mid+1:], depth+1, fullLevels)
	return id
}

// placeMiniStreams packs every small stream into the mini stream and
// records its mini FAT chain.
func (l *layout) placeMiniStreams() {
	for i := range l.entries {
		fe := &l.entries[i]
		if fe.entry.ObjectType != types.ObjectStream || fe.entry.StreamSize == 0 {
			continue
		}
		if fe.entry.StreamSize >= types.CompoundMiniStreamCutoff {
			l.bigStreams = append(l.bigStreams, i)
			continue
		}
		n := ceilDiv(len(fe.data), miniSectorSize)
		start := uint32(len(l.miniFAT))
		for k := 0; k < n; k++ {
			next := start + uint32(k) + 1
			if k == n-1 {
				next = types.EndOfChain
			}
			l.miniFAT = append(l.miniFAT, next)
		}
		fe.entry.StartingSector = start
		l.miniStream = append(l.miniStream, fe.data...)
		l.miniStream = append(l.miniStream, make([]byte, n*miniSectorSize-len(fe.data))...)
	}
}

// plan sizes each region and assigns sector numbers. The FAT has to describe
// its own sectors and the DIFAT sectors, so both counts are iterated until
// they stop changing.
func (l *layout) plan() {
	l.dirSectors = uint32(ceilDiv(len(l.entries), dirPerSector))
	l.miniFATSectors = uint32(ceilDiv(len(l.miniFAT)*4, writeSectorSize))
	l.miniSectors = uint32(ceilDiv(len(l.miniStream), writeSectorSize))
	other := l.dirSectors + l.miniFATSectors + l.miniSectors
	for _, i := range l.bigStreams {
		other += uint32(ceilDiv(len(l.entries[i].data), writeSectorSize))
	}

	var fatSectors, difatSectors uint32
	for {
		total := other + fatSectors + difatSectors
		nextFAT := uint32(ceilDiv(int(total), fatPerSector))
		var nextDIFAT uint32
		if nextFAT > types.CompoundHeaderDIFATCount {
			nextDIFAT = uint32(ceilDiv(int(nextFAT)-types.CompoundHeaderDIFATCount, difatPerSector))
		}
		if nextFAT == fatSectors && nextDIFAT == difatSectors {
			break
		}
		fatSectors, difatSectors = nextFAT, nextDIFAT
	}
	l.fatSectors, l.difatSectors = fatSectors, difatSectors

	l.fat = make([]uint32, fatSectors*fatPerSector)
	for i := range l.fat {
		l.fat[i] = types.FreeSector
	}

	next := uint32(0)
	for i := uint32(0); i < fatSectors; i++ {
		l.fat[next] = types.FATSector
		next++
	}
	for i := uint32(0); i < difatSectors; i++ {
		l.fat[next] = types.DIFATSector
		next++
	}
	l.dirStart = l.allocate(&next, l.dirSectors)
	l.miniFATStart = l.allocate(&next, l.miniFATSectors)
	l.miniStart = l.allocate(&next, l.miniSectors)

	root := &l.entries[0].entry
	if len(l.miniStream) > 0 {
		root.StartingSector = l.miniStart
		root.StreamSize = uint64(len(l.miniStream))
	}
	for _, i := range l.bigStreams {
		e := &l.entries[i].entry
		e.StartingSector = l.allocate(&next, uint32(ceilDiv(len(l.entries[i].data), writeSectorSize)))
	}
}

// allocate chains n sectors starting at *next and returns the first one, or
// EndOfChain when n is zero.
func (l *layout) allocate(next *uint32, n uint32) uint32 {
	if n == 0 {
		return types.EndOfChain
	}
	start := *next
	for k := uint32(0); k < n; k++ {
		if k == n-1 {
			l.fat[start+k] = types.EndOfChain
		} else {
			l.fat[start+k] = start + k + 1
		}
	}
	*next += n
	return start
}

func (l *layout) usedSectors() uint32 {
	used := uint32(0)
	for i, v := range l.fat {
		if v != types.FreeSector {
			used = uint32(i) + 1
		}
	}
	return used
}

func sectorOffset(id uint32) int {
	return (int(id) + 1) * writeSectorSize
}

func (l *layout) writeHeader(h []byte) {
	copy(h[0:8], types.CompoundSignature[:])
	binary.LittleEndian.PutUint16(h[hdrMinorVersionOffset:], types.CompoundMinorVersion)
	binary.LittleEndian.PutUint16(h[hdrMajorVersionOffset:], types.CompoundMajorVersion3)
	binary.LittleEndian.PutUint16(h[hdrByteOrderOffset:], types.CompoundByteOrder)
	binary.LittleEndian.PutUint16(h[hdrSectorShiftOffset:], types.CompoundSectorShiftV3)
	binary.LittleEndian.PutUint16(h[hdrMiniShiftOffset:], types.CompoundMiniSectorShift)
	binary.LittleEndian.PutUint32(h[hdrNumDirSectorsOffset:], 0)
	binary.LittleEndian.PutUint32(h[hdrNumFATOffset:], l.fatSectors)
	binary.LittleEndian.PutUint32(h[hdrFirstDirOffset:], l.dirStart)
	binary.LittleEndian.PutUint32(h[hdrCutoffOffset:], types.CompoundMiniStreamCutoff)
	binary.LittleEndian.PutUint32(h[hdrFirstMiniFATOffset:], l.miniFATStart)
	binary.LittleEndian.PutUint32(h[hdrNumMiniFATOffset:], l.miniFATSectors)

	firstDIFAT := types.EndOfChain
	if l.difatSectors > 0 {
		firstDIFAT = l.fatSectors
	}
	binary.LittleEndian.PutUint32(h[hdrFirstDIFATOffset:], firstDIFAT)
	binary.LittleEndian.PutUint32(h[hdrNumDIFATOffset:], l.difatSectors)

	for i := 0; i < types.CompoundHeaderDIFATCount; i++ {
		v := types.FreeSector
		if uint32(i) < l.fatSectors {
			v = uint32(i)
		}
		binary.LittleEndian.PutUint32(h[hdrDIFATOffset+4*i:], v)
	}
}

// writeFAT stores the FAT in sectors 0..fatSectors-1.
func (l *layout) writeFAT(out []byte) {
	for i, v := range l.fat {
		binary.LittleEndian.PutUint32(out[sectorOffset(0)+4*i:], v)
	}
}

// writeDIFAT stores the FAT sector ids that do not fit in the header.
func (l *layout) writeDIFAT(out []byte) {
	fatID := uint32(types.CompoundHeaderDIFATCount)
	for d := uint32(0); d < l.difatSectors; d++ {
		sec := out[sectorOffset(l.fatSectors+d):]
		for k := 0; k < difatPerSector; k++ {
			v := types.FreeSector
			if fatID < l.fatSectors {
				v = fatID
				fatID++
			}
			binary.LittleEndian.PutUint32(sec[4*k:], v)
		}
		next := types.EndOfChain
		if d+1 < l.difatSectors {
			next = l.fatSectors + d + 1
		}
		binary.LittleEndian.PutUint32(sec[4*difatPerSector:], next)
	}
}

func (l *layout) writeDirectory(out []byte) {
	base := sectorOffset(l.dirStart)
	slots := int(l.dirSectors) * dirPerSector
	for i := 0; i < slots; i++ {
		e := emptyDirectoryEntry()
		if i < len(l.entries) {
			e = l.entries[i].entry
		}
		off := base + i*types.CompoundDirectoryEntrySize
		encodeDirectoryEntry(out[off:off+types.CompoundDirectoryEntrySize], e)
	}
}

func (l *layout) writeMiniFAT(out []byte) {
	if l.miniFATSectors == 0 {
		return
	}
	base := sectorOffset(l.miniFATStart)
	slots := int(l.miniFATSectors) * fatPerSector
	for i := 0; i < slots; i++ {
		v := types.FreeSector
		if i < len(l.miniFAT) {
			v = l.miniFAT[i]
		}
		binary.LittleEndian.PutUint32(out[base+4*i:], v)
	}
}

func (l *layout) writeStreams(out []byte) {
	if l.miniSectors > 0 {
		copy(out[sectorOffset(l.miniStart):], l.miniStream)
	}
	for _, i := range l.bigStreams {
		fe := l.entries[i]
		copy(out[sectorOffset(fe.entry.StartingSector):], fe.data)
	}
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
