package standard

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	encryptioninfo "github.com/deploymenttheory/go-officecrypto/internal/parsers/encryption_info"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// The testdata streams are an AES-128 document in the version 3.2 layout
// Office 2007 writes, protected with "Password1234_".
const fixturePassword = "Password1234_"

func fixturePlaintext() []byte {
	return append([]byte("PK\x03\x04"), bytes.Repeat([]byte("fixture payload "), 320)...)
}

func readFixture(t *testing.T, name string) (info, pkg []byte) {
	t.Helper()
	info, err := os.ReadFile(filepath.Join("testdata", name+".EncryptionInfo"))
	require.NoError(t, err)
	pkg, err = os.ReadFile(filepath.Join("testdata", name+".EncryptedPackage"))
	require.NoError(t, err)
	return info, pkg
}

func TestDecrypt_Fixture(t *testing.T) {
	info, pkg := readFixture(t, "standard_aes128")

	parsed, err := encryptioninfo.ReadBinary(info)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), parsed.MajorVersion)
	assert.Equal(t, uint16(2), parsed.MinorVersion)
	assert.Equal(t, types.AlgorithmAES128, parsed.Header.AlgID)
	assert.Equal(t, "Microsoft Enhanced RSA and AES Cryptographic Provider", parsed.Header.CSPName)

	c := newCodec(t, types.AlgorithmAES128)
	out, err := c.Decrypt(info, pkg, fixturePassword)
	require.NoError(t, err)
	assert.Equal(t, fixturePlaintext(), out)

	_, err = c.Decrypt(info, pkg, "password1234_")
	assert.ErrorIs(t, err, types.ErrInvalidPassword)
}
