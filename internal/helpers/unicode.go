package helpers

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeUTF16LE encodes s as UTF-16LE without a byte order mark or terminator.
func EncodeUTF16LE(s string) []byte {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		// The encoder replaces invalid UTF-8 rather than failing.
		return nil
	}
	return b
}

// DecodeUTF16LE decodes UTF-16LE bytes, stopping at the first null code unit.
func DecodeUTF16LE(b []byte) (string, error) {
	n := len(b) &^ 1
	for i := 0; i+1 < n; i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			n = i
			break
		}
	}
	s, err := utf16le.NewDecoder().Bytes(b[:n])
	if err != nil {
		return "", fmt.Errorf("failed to decode UTF-16LE string: %w", err)
	}
	return string(s), nil
}

// UTF16Length returns the number of UTF-16 code units needed to encode s.
func UTF16Length(s string) int {
	return len(EncodeUTF16LE(s)) / 2
}

// AppendUnicodeLPP4 appends a UNICODE-LP-P4 string: a uint32 byte length, the
// UTF-16LE characters, then zero padding to a 4 byte boundary.
// Reference: MS-OFFCRYPTO 2.1.2
func AppendUnicodeLPP4(dst []byte, s string) []byte {
	chars := EncodeUTF16LE(s)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(chars)))
	dst = append(dst, chars...)
	if pad := len(chars) % 4; pad != 0 {
		dst = append(dst, make([]byte, 4-pad)...)
	}
	return dst
}

// ReadUnicodeLPP4 reads a UNICODE-LP-P4 string from data and returns the string
// and the number of bytes consumed.
func ReadUnicodeLPP4(data []byte) (string, int, error) {
	if len(data) < 4 {
		return "", 0, fmt.Errorf("insufficient data for length prefixed string: need 4 bytes, got %d", len(data))
	}
	n := int(binary.LittleEndian.Uint32(data[0:4]))
	if n%2 != 0 || 4+n > len(data) {
		return "", 0, fmt.Errorf("invalid length prefixed string length %d", n)
	}
	s, err := DecodeUTF16LE(data[4 : 4+n])
	if err != nil {
		return "", 0, err
	}
	consumed := 4 + n
	if pad := n % 4; pad != 0 {
		consumed += 4 - pad
	}
	if consumed > len(data) {
		consumed = len(data)
	}
	return s, consumed, nil
}
