package dataspaces

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-officecrypto/internal/helpers"
	"github.com/deploymenttheory/go-officecrypto/internal/parsers/compound"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// Description is the decoded content of a \x06DataSpaces storage.
type Description struct {
	Version   types.DataSpaceVersionInfo
	Map       []types.DataSpaceMapEntry
	Transform *types.TransformInfo
}

// DataSpaceFor returns the data space name mapped to the named stream.
func (d *Description) DataSpaceFor(stream string) (string, bool) {
	for _, e := range d.Map {
		for _, c := range e.ReferenceComponents {
			if c.Type == referenceTypeStream && c.Name == stream {
				return e.DataSpaceName, true
			}
		}
	}
	return "", false
}

// Read decodes the \x06DataSpaces storage of root. It returns false when the
// storage is absent, which some producers do.
func Read(root *compound.Storage) (*Description, bool, error) {
	ds, ok := root.SubStorage(types.DataSpacesStorageName)
	if !ok {
		return nil, false, nil
	}
	d := &Description{}

	if data, ok := ds.Stream(types.DataSpaceVersionStreamName); ok {
		v, err := ReadVersion(data)
		if err != nil {
			return nil, true, err
		}
		d.Version = v
	}
	if data, ok := ds.Stream(types.DataSpaceMapStreamName); ok {
		m, err := ReadDataSpaceMap(data)
		if err != nil {
			return nil, true, err
		}
		d.Map = m
	}
	if ti, ok := ds.SubStorage(types.TransformInfoStorageName); ok {
		if strong, ok := ti.SubStorage(types.StrongEncryptionTransformName); ok {
			if data, ok := strong.Stream(types.TransformPrimaryStreamName); ok {
				t, err := ReadTransformInfo(data)
				if err != nil {
					return nil, true, err
				}
				d.Transform = t
			}
		}
	}
	return d, true, nil
}

// cursor reads little-endian fields with bounds checks.
type cursor struct {
	data []byte
	off  int
	what string
}

func (c *cursor) readUint32() (uint32, error) {
	if c.off+4 > len(c.data) {
		return 0, fmt.Errorf("%w: %s truncated at offset %d", types.ErrMalformedContainer, c.what, c.off)
	}
	v := binary.LittleEndian.Uint32(c.data[c.off:])
	c.off += 4
	return v, nil
}

func (c *cursor) readVersion() (types.DataSpaceVersion, error) {
	if c.off+4 > len(c.data) {
		return types.DataSpaceVersion{}, fmt.Errorf("%w: %s truncated at offset %d", types.ErrMalformedContainer, c.what, c.off)
	}
	v := types.DataSpaceVersion{
		Major: binary.LittleEndian.Uint16(c.data[c.off:]),
		Minor: binary.LittleEndian.Uint16(c.data[c.off+2:]),
	}
	c.off += 4
	return v, nil
}

func (c *cursor) readString() (string, error) {
	s, n, err := helpers.ReadUnicodeLPP4(c.data[c.off:])
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrMalformedContainer, c.what, err)
	}
	c.off += n
	return s, nil
}

// ReadVersion decodes the Version stream.
func ReadVersion(data []byte) (types.DataSpaceVersionInfo, error) {
	var v types.DataSpaceVersionInfo
	c := &cursor{data: data, what: "data space version"}
	var err error
	if v.FeatureIdentifier, err = c.readString(); err != nil {
		return v, err
	}
	if v.ReaderVersion, err = c.readVersion(); err != nil {
		return v, err
	}
	if v.UpdaterVersion, err = c.readVersion(); err != nil {
		return v, err
	}
	if v.WriterVersion, err = c.readVersion(); err != nil {
		return v, err
	}
	return v, nil
}

// ReadDataSpaceMap decodes the DataSpaceMap stream.
func ReadDataSpaceMap(data []byte) ([]types.DataSpaceMapEntry, error) {
	c := &cursor{data: data, what: "data space map"}
	headerLen, err := c.readUint32()
	if err != nil {
		return nil, err
	}
	if headerLen < 8 || int(headerLen) > len(data) {
		return nil, fmt.Errorf("%w: data space map header length %d", types.ErrMalformedContainer, headerLen)
	}
	count, err := c.readUint32()
	if err != nil {
		return nil, err
	}
	c.off = int(headerLen)

	var entries []types.DataSpaceMapEntry
	for i := uint32(0); i < count; i++ {
		start := c.off
		length, err := c.readUint32()
		if err != nil {
			return nil, err
		}
		refs, err := c.readUint32()
		if err != nil {
			return nil, err
		}
		if int(refs) > len(data) {
			return nil, fmt.Errorf("%w: data space map entry %d has %d references", types.ErrMalformedContainer, i, refs)
		}
		var e types.DataSpaceMapEntry
		for r := uint32(0); r < refs; r++ {
			typ, err := c.readUint32()
			if err != nil {
				return nil, err
			}
			name, err := c.readString()
			if err != nil {
				return nil, err
			}
			e.ReferenceComponents = append(e.ReferenceComponents, types.DataSpaceReferenceComponent{Type: typ, Name: name})
		}
		if e.DataSpaceName, err = c.readString(); err != nil {
			return nil, err
		}
		entries = append(entries, e)
		if next := start + int(length); next > c.off && next <= len(data) {
			c.off = next
		}
	}
	return entries, nil
}

// ReadTransformInfo decodes a \x06Primary stream.
func ReadTransformInfo(data []byte) (*types.TransformInfo, error) {
	c := &cursor{data: data, what: "transform info"}
	t := &types.TransformInfo{}
	length, err := c.readUint32()
	if err != nil {
		return nil, err
	}
	if t.TransformType, err = c.readUint32(); err != nil {
		return nil, err
	}
	if t.TransformID, err = c.readString(); err != nil {
		return nil, err
	}
	if int(length) != c.off {
		return nil, fmt.Errorf("%w: transform length %d does not match header of %d bytes", types.ErrMalformedContainer, length, c.off)
	}
	if t.TransformName, err = c.readString(); err != nil {
		return nil, err
	}
	if t.ReaderVersion, err = c.readVersion(); err != nil {
		return nil, err
	}
	if t.UpdaterVersion, err = c.readVersion(); err != nil {
		return nil, err
	}
	if t.WriterVersion, err = c.readVersion(); err != nil {
		return nil, err
	}
	return t, nil
}
