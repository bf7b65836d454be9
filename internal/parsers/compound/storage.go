package compound

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/deploymenttheory/go-officecrypto/internal/helpers"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
	"github.com/google/uuid"
)

// Entry describes one child of a storage.
type Entry struct {
	Name string
	Type types.ObjectType
	Size uint64
}

type node struct {
	name    string
	data    []byte   // stream content, nil for storages
	storage *Storage // non-nil for storages
}

// Storage is an in-memory compound file storage: named streams and named
// sub-storages kept in insertion order. The root storage of a document is
// obtained from NewRoot or Parse.
type Storage struct {
	name     string
	clsid    uuid.UUID
	children []*node
}

// NewRoot returns an empty root storage.
func NewRoot() *Storage {
	return &Storage{name: types.RootEntryName}
}

// Name returns the storage name.
func (s *Storage) Name() string { return s.name }

// CLSID returns the class id recorded for the storage.
func (s *Storage) CLSID() uuid.UUID { return s.clsid }

// SetCLSID sets the class id written for the storage.
func (s *Storage) SetCLSID(id uuid.UUID) { s.clsid = id }

// AddStream adds a stream, replacing the content of an existing stream
// with the same name.
func (s *Storage) AddStream(name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if n := s.find(name); n != nil {
		if n.storage != nil {
			return fmt.Errorf("cannot add stream %q: a storage with that name exists", name)
		}
		n.data = append([]byte{}, data...)
		return nil
	}
	s.children = append(s.children, &node{name: name, data: append([]byte{}, data...)})
	return nil
}

// AddStorage adds a sub-storage and returns it. An existing sub-storage with
// the same name is returned unchanged.
func (s *Storage) AddStorage(name string) (*Storage, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if n := s.find(name); n != nil {
		if n.storage == nil {
			return nil, fmt.Errorf("cannot add storage %q: a stream with that name exists", name)
		}
		return n.storage, nil
	}
	child := &Storage{name: name}
	s.children = append(s.children, &node{name: name, storage: child})
	return child, nil
}

// Stream returns the content of the named stream.
func (s *Storage) Stream(name string) ([]byte, bool) {
	n := s.find(name)
	if n == nil || n.storage != nil {
		return nil, false
	}
	return n.data, true
}

// SubStorage returns the named sub-storage.
func (s *Storage) SubStorage(name string) (*Storage, bool) {
	n := s.find(name)
	if n == nil || n.storage == nil {
		return nil, false
	}
	return n.storage, true
}

// Entries lists the direct children in insertion order.
func (s *Storage) Entries() []Entry {
	out := make([]Entry, 0, len(s.children))
	for _, n := range s.children {
		if n.storage != nil {
			out = append(out, Entry{Name: n.name, Type: types.ObjectStorage})
		} else {
			out = append(out, Entry{Name: n.name, Type: types.ObjectStream, Size: uint64(len(n.data))})
		}
	}
	return out
}

// Walk visits every entry below s depth first. Paths are joined with '/'.
func (s *Storage) Walk(fn func(path string, e Entry) error) error {
	return s.walk("", fn)
}

func (s *Storage) walk(prefix string, fn func(string, Entry) error) error {
	for i, e := range s.Entries() {
		path := prefix + e.Name
		if err := fn(path, e); err != nil {
			return err
		}
		if sub := s.children[i].storage; sub != nil {
			if err := sub.walk(path+"/", fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Storage) find(name string) *node {
	for _, n := range s.children {
		if compareNames(n.name, name) == 0 {
			return n
		}
	}
	return nil
}

// sortedChildren returns the children in directory order.
func (s *Storage) sortedChildren() []*node {
	out := append([]*node(nil), s.children...)
	sort.SliceStable(out, func(i, j int) bool {
		return compareNames(out[i].name, out[j].name) < 0
	})
	return out
}

// ValidateName checks a directory entry name: 1 to 31 UTF-16 code units,
// none of '/', '\', ':' or '!'.
// Reference: MS-CFB 2.6.1
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("entry name must not be empty")
	}
	if n := helpers.UTF16Length(name); n > types.CompoundMaxNameLength {
		return fmt.Errorf("entry name %q is %d UTF-16 code units, maximum is %d", name, n, types.CompoundMaxNameLength)
	}
	if strings.ContainsAny(name, `/\:!`) {
		return fmt.Errorf("entry name %q contains an illegal character", name)
	}
	return nil
}

// compareNames orders names the way the compound directory red-black tree
// does: shorter names first, then by upper-cased UTF-16 code units.
func compareNames(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	if len(ua) != len(ub) {
		if len(ua) < len(ub) {
			return -1
		}
		return 1
	}
	for i := range ua {
		ca, cb := upperUnit(ua[i]), upperUnit(ub[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	return 0
}

func upperUnit(u uint16) uint16 {
	if utf16.IsSurrogate(rune(u)) {
		return u
	}
	if r := unicode.ToUpper(rune(u)); r <= 0xFFFF {
		return uint16(r)
	}
	return u
}
