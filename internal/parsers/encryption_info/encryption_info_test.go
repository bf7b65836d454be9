package encryptioninfo

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/deploymenttheory/go-officecrypto/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBinaryInfo(alg types.AlgorithmID) *types.EncryptionInfoBinary {
	flags := types.FlagCryptoAPI | types.FlagAES
	info := &types.EncryptionInfoBinary{
		MajorVersion: types.StandardMajorVersion,
		MinorVersion: types.StandardMinorVersion,
		Flags:        flags,
		Header: types.EncryptionHeader{
			Flags:        flags,
			AlgID:        alg,
			AlgIDHash:    types.HashAlgorithmSHA1,
			KeySize:      alg.KeyBits(),
			ProviderType: types.ProviderAES,
			CSPName:      types.DefaultCSPName,
		},
		Verifier: types.EncryptionVerifier{
			SaltSize:              types.StandardSaltSize,
			VerifierHashSize:      types.StandardVerifierHashSize,
			EncryptedVerifierHash: bytes.Repeat([]byte{0xAB}, 32),
		},
	}
	for i := range info.Verifier.Salt {
		info.Verifier.Salt[i] = byte(i)
		info.Verifier.EncryptedVerifier[i] = byte(0xF0 + i)
	}
	return info
}

func createTestAgileInfo() *types.EncryptionInfoAgile {
	kd := types.KeyData{
		SaltSize:        16,
		BlockSize:       16,
		KeyBits:         256,
		HashSize:        64,
		CipherAlgorithm: types.CipherAES,
		CipherChaining:  types.ChainingModeCBC,
		HashAlgorithm:   types.HashNameSHA512,
		SaltValue:       bytes.Repeat([]byte{0x01}, 16),
	}
	pkd := kd
	pkd.SaltValue = bytes.Repeat([]byte{0x02}, 16)
	return &types.EncryptionInfoAgile{
		MajorVersion: types.AgileMajorVersion,
		MinorVersion: types.AgileMinorVersion,
		Reserved:     types.AgileReserved,
		KeyData:      kd,
		DataIntegrity: types.DataIntegrity{
			EncryptedHmacKey:   bytes.Repeat([]byte{0x03}, 64),
			EncryptedHmacValue: bytes.Repeat([]byte{0x04}, 64),
		},
		KeyEncryptors: []types.PasswordKeyEncryptor{{
			KeyData:                    pkd,
			SpinCount:                  100000,
			EncryptedVerifierHashInput: bytes.Repeat([]byte{0x05}, 16),
			EncryptedVerifierHashValue: bytes.Repeat([]byte{0x06}, 64),
			EncryptedKeyValue:          bytes.Repeat([]byte{0x07}, 32),
		}},
	}
}

func versionBytes(major, minor uint16) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint16(b[0:2], major)
	binary.LittleEndian.PutUint16(b[2:4], minor)
	return b
}

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected types.FormatVersion
	}{
		{"standard 4.2", versionBytes(4, 2), types.VersionStandard},
		{"standard 3.2", versionBytes(3, 2), types.VersionStandard},
		{"standard 2.2", versionBytes(2, 2), types.VersionStandard},
		{"extensible 4.3", versionBytes(4, 3), types.VersionStandard},
		{"agile 4.4", versionBytes(4, 4), types.VersionAgile},
		{"rc4 1.1", versionBytes(1, 1), types.VersionUnsupported},
		{"future 5.2", versionBytes(5, 2), types.VersionUnsupported},
		{"3.4", versionBytes(3, 4), types.VersionUnsupported},
		{"too short", []byte{4, 0, 4}, types.VersionUnsupported},
		{"empty", nil, types.VersionUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectVersion(tt.data))
		})
	}
}

func TestWriteBinary_Layout(t *testing.T) {
	info := createTestBinaryInfo(types.AlgorithmAES128)
	data, err := WriteBinary(info)
	require.NoError(t, err)
	require.Len(t, data, 224)

	assert.Equal(t, uint16(4), binary.LittleEndian.Uint16(data[0:2]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[2:4]))
	assert.Equal(t, uint32(0x24), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, uint32(140), binary.LittleEndian.Uint32(data[8:12]), "header size")

	hdr := data[12:]
	assert.Equal(t, uint32(0x24), binary.LittleEndian.Uint32(hdr[0:4]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(hdr[4:8]), "sizeExtra")
	assert.Equal(t, uint32(0x660E), binary.LittleEndian.Uint32(hdr[8:12]))
	assert.Equal(t, uint32(0x8004), binary.LittleEndian.Uint32(hdr[12:16]))
	assert.Equal(t, uint32(128), binary.LittleEndian.Uint32(hdr[16:20]))
	assert.Equal(t, uint32(0x18), binary.LittleEndian.Uint32(hdr[20:24]))
	assert.Equal(t, []byte{'M', 0, 'i', 0}, hdr[32:36])
	assert.Equal(t, []byte{0, 0}, hdr[138:140], "CSP name terminator")

	ver := data[152:]
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(ver[0:4]))
	assert.Equal(t, byte(0), ver[4])
	assert.Equal(t, byte(0xF0), ver[20])
	assert.Equal(t, uint32(20), binary.LittleEndian.Uint32(ver[36:40]))
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 32), ver[40:72])
}

func TestBinary_RoundTrip(t *testing.T) {
	for _, alg := range []types.AlgorithmID{types.AlgorithmAES128, types.AlgorithmAES192, types.AlgorithmAES256} {
		t.Run(alg.String(), func(t *testing.T) {
			info := createTestBinaryInfo(alg)
			data, err := WriteBinary(info)
			require.NoError(t, err)

			parsed, err := ReadBinary(data)
			require.NoError(t, err)
			assert.Equal(t, info, parsed)
		})
	}
}

func TestReadBinary_Errors(t *testing.T) {
	valid, err := WriteBinary(createTestBinaryInfo(types.AlgorithmAES256))
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     func() []byte
		errorMsg string
	}{
		{
			name:     "agile version",
			data:     func() []byte { return append(versionBytes(4, 4), make([]byte, 300)...) },
			errorMsg: "version 4.4",
		},
		{
			name:     "prefix truncated",
			data:     func() []byte { return valid[:10] },
			errorMsg: "data too small for EncryptionInfo prefix",
		},
		{
			name: "header size too small",
			data: func() []byte {
				d := bytes.Clone(valid)
				binary.LittleEndian.PutUint32(d[8:12], 16)
				return d
			},
			errorMsg: "invalid EncryptionHeader size",
		},
		{
			name: "header size beyond data",
			data: func() []byte {
				d := bytes.Clone(valid)
				binary.LittleEndian.PutUint32(d[8:12], 4000)
				return d
			},
			errorMsg: "invalid EncryptionHeader size",
		},
		{
			name:     "verifier truncated",
			data:     func() []byte { return valid[:170] },
			errorMsg: "data too small for EncryptionVerifier",
		},
		{
			name: "bad salt size",
			data: func() []byte {
				d := bytes.Clone(valid)
				binary.LittleEndian.PutUint32(d[152:156], 8)
				return d
			},
			errorMsg: "invalid salt size",
		},
		{
			name:     "verifier hash truncated",
			data:     func() []byte { return valid[:210] },
			errorMsg: "encrypted verifier hash truncated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ReadBinary(tt.data())
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrUnsupportedEncryptionFormat)
			assert.Contains(t, err.Error(), tt.errorMsg)
			assert.Nil(t, info)
		})
	}
}

func TestWriteBinary_Errors(t *testing.T) {
	_, err := WriteBinary(nil)
	assert.Error(t, err)

	info := createTestBinaryInfo(types.AlgorithmAES128)
	info.Verifier.EncryptedVerifierHash = nil
	_, err = WriteBinary(info)
	assert.Error(t, err)
}

func TestWriteAgile_Format(t *testing.T) {
	data, err := WriteAgile(createTestAgileInfo())
	require.NoError(t, err)

	assert.Equal(t, []byte{4, 0, 4, 0, 0x40, 0, 0, 0}, data[:8])
	xmlText := string(data[8:])
	assert.True(t, strings.HasPrefix(xmlText, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`))
	assert.Contains(t, xmlText, `<encryption xmlns="http://schemas.microsoft.com/office/2006/encryption" xmlns:p="http://schemas.microsoft.com/office/2006/keyEncryptor/password"`)
	assert.Contains(t, xmlText, `<keyData saltSize="16" blockSize="16" keyBits="256" hashSize="64" cipherAlgorithm="AES" cipherChaining="ChainingModeCBC" hashAlgorithm="SHA512" saltValue="AQEBAQEBAQEBAQEBAQEBAQ=="`)
	assert.Contains(t, xmlText, `<keyEncryptors><keyEncryptor uri="http://schemas.microsoft.com/office/2006/keyEncryptor/password"><p:encryptedKey spinCount="100000"`)
	assert.Contains(t, xmlText, `<dataIntegrity encryptedHmacKey=`)
}

func TestAgile_RoundTrip(t *testing.T) {
	info := createTestAgileInfo()
	data, err := WriteAgile(info)
	require.NoError(t, err)

	parsed, err := ReadAgile(data)
	require.NoError(t, err)
	assert.Equal(t, info, parsed)

	pke, ok := parsed.PasswordEncryptor()
	require.True(t, ok)
	assert.Equal(t, 100000, pke.SpinCount)
}

func TestReadAgile_OfficeDescriptor(t *testing.T) {
	// Descriptor as written by Office, including a certificate key encryptor
	// which is skipped.
	descriptor := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n" +
		`<encryption xmlns="http://schemas.microsoft.com/office/2006/encryption" xmlns:p="http://schemas.microsoft.com/office/2006/keyEncryptor/password" xmlns:c="http://schemas.microsoft.com/office/2006/keyEncryptor/certificate">` +
		`<keyData saltSize="16" blockSize="16" keyBits="128" hashSize="20" cipherAlgorithm="AES" cipherChaining="ChainingModeCBC" hashAlgorithm="SHA1" saltValue="AAECAwQFBgcICQoLDA0ODw=="/>` +
		`<dataIntegrity encryptedHmacKey="AAAA" encryptedHmacValue="AQEB"/>` +
		`<keyEncryptors>` +
		`<keyEncryptor uri="http://schemas.microsoft.com/office/2006/keyEncryptor/certificate"><c:encryptedKey encryptedKeyValue="AAAA" x509Certificate="AAAA" certVerifier="AAAA"/></keyEncryptor>` +
		`<keyEncryptor uri="http://schemas.microsoft.com/office/2006/keyEncryptor/password"><p:encryptedKey spinCount="100000" saltSize="16" blockSize="16" keyBits="128" hashSize="20" cipherAlgorithm="AES" cipherChaining="ChainingModeCBC" hashAlgorithm="SHA1" saltValue="AAECAwQFBgcICQoLDA0ODw==" encryptedVerifierHashInput="AAAA" encryptedVerifierHashValue="AQEB" encryptedKeyValue="AgIC"/></keyEncryptor>` +
		`</keyEncryptors></encryption>`
	data := append([]byte{4, 0, 4, 0, 0x40, 0, 0, 0}, descriptor...)

	info, err := ReadAgile(data)
	require.NoError(t, err)
	assert.Equal(t, 128, info.KeyData.KeyBits)
	assert.Equal(t, "SHA1", info.KeyData.HashAlgorithm)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, info.KeyData.SaltValue)
	require.Len(t, info.KeyEncryptors, 1)
	assert.Equal(t, []byte{2, 2, 2}, info.KeyEncryptors[0].EncryptedKeyValue)
	assert.Equal(t, []byte{1, 1, 1}, info.DataIntegrity.EncryptedHmacValue)
}

func TestReadAgile_Errors(t *testing.T) {
	prefix := []byte{4, 0, 4, 0, 0x40, 0, 0, 0}

	tests := []struct {
		name     string
		data     []byte
		errorMsg string
	}{
		{"standard version", versionBytes(4, 2), "version 4.2"},
		{"prefix only", []byte{4, 0, 4, 0, 0x40}, "data too small for Agile prefix"},
		{"not xml", append(bytes.Clone(prefix), "not xml"...), "invalid encryption descriptor"},
		{"missing keyData", append(bytes.Clone(prefix), "<encryption></encryption>"...), "no keyData"},
		{"bad base64", append(bytes.Clone(prefix), `<encryption><keyData saltValue="!!!"/></encryption>`...), "not valid base64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ReadAgile(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrUnsupportedEncryptionFormat)
			assert.Contains(t, err.Error(), tt.errorMsg)
			assert.Nil(t, info)
		})
	}
}

func TestNewEncryptionInfoReader(t *testing.T) {
	t.Run("standard", func(t *testing.T) {
		data, err := WriteBinary(createTestBinaryInfo(types.AlgorithmAES192))
		require.NoError(t, err)

		r, err := NewEncryptionInfoReader(data)
		require.NoError(t, err)
		assert.Equal(t, types.VersionStandard, r.Version())
		assert.Equal(t, "AES-192", r.CipherAlgorithm())
		assert.Equal(t, "ECB", r.CipherChaining())
		assert.Equal(t, 192, r.KeyBits())
		assert.Equal(t, "SHA1", r.HashAlgorithm())
		assert.Equal(t, 50000, r.SpinCount())
		assert.Equal(t, 16, r.SaltSize())
		assert.False(t, r.HasDataIntegrity())
	})

	t.Run("agile", func(t *testing.T) {
		data, err := WriteAgile(createTestAgileInfo())
		require.NoError(t, err)

		r, err := NewEncryptionInfoReader(data)
		require.NoError(t, err)
		assert.Equal(t, types.VersionAgile, r.Version())
		assert.Equal(t, uint16(4), r.MajorVersion())
		assert.Equal(t, uint16(4), r.MinorVersion())
		assert.Equal(t, "AES-256", r.CipherAlgorithm())
		assert.Equal(t, "ChainingModeCBC", r.CipherChaining())
		assert.Equal(t, "SHA512", r.HashAlgorithm())
		assert.Equal(t, 100000, r.SpinCount())
		assert.True(t, r.HasDataIntegrity())
	})

	t.Run("unsupported", func(t *testing.T) {
		r, err := NewEncryptionInfoReader(versionBytes(1, 1))
		assert.ErrorIs(t, err, types.ErrUnsupportedEncryptionFormat)
		assert.Nil(t, r)
	})
}
