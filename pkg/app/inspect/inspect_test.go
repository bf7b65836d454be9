package inspect

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-officecrypto/pkg/app"
	"github.com/deploymenttheory/go-officecrypto/pkg/officecrypto"
	"github.com/deploymenttheory/go-officecrypto/pkg/services"
)

var plainPackage = append([]byte("PK\x03\x04"), bytes.Repeat([]byte("ppt/presentation.xml "), 200)...)

func setup(t *testing.T) (*app.Context, services.DocumentService) {
	t.Helper()
	fs := afero.NewMemMapFs()

	agile := officecrypto.DefaultSettings("pw")
	agile.SpinCount = 1000
	container, err := officecrypto.Encrypt(plainPackage, agile)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/docs/agile.pptx", container, 0o644))

	container, err = officecrypto.Encrypt(plainPackage, officecrypto.EncryptionSettings{Password: "pw", Version: officecrypto.VersionStandard})
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/docs/standard.pptx", container, 0o644))

	require.NoError(t, afero.WriteFile(fs, "/docs/plain.pptx", plainPackage, 0o644))

	ctx := app.NewContext()
	ctx.Out = &bytes.Buffer{}
	ctx.Logger = app.NewLogger(&bytes.Buffer{}, true, false)
	return ctx, services.NewDocumentService(fs, ctx.Logger)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&Request{Paths: []string{"a.docx"}}).Validate())
	assert.Equal(t, app.ErrCodeInvalidInput, app.ErrorCode((&Request{}).Validate()))
	assert.Equal(t, app.ErrCodeInvalidInput, app.ErrorCode((&Request{Paths: []string{"a.docx", ""}}).Validate()))

	assert.NoError(t, (&VerifyRequest{Path: "a.docx"}).Validate())
	assert.Equal(t, app.ErrCodeInvalidInput, app.ErrorCode((&VerifyRequest{Password: "pw"}).Validate()))
}

func TestHandle(t *testing.T) {
	ctx, svc := setup(t)

	resp, err := Handle(ctx, svc, &Request{Paths: []string{"/docs/agile.pptx", "/docs/standard.pptx", "/docs/plain.pptx"}})
	require.NoError(t, err)
	require.Len(t, resp.Documents, 3)
	assert.Equal(t, 2, resp.Encrypted)

	agile := resp.Documents[0].Encryption
	require.NotNil(t, agile)
	assert.Equal(t, "agile", agile.Format)
	assert.Equal(t, "AES-256", agile.CipherAlgorithm)
	assert.Equal(t, "SHA512", agile.HashAlgorithm)
	assert.Equal(t, 1000, agile.SpinCount)
	assert.True(t, agile.HasDataIntegrity)
	assert.True(t, agile.HasDataSpaces)
	assert.Equal(t, uint64(len(plainPackage)), agile.PackageSize)

	standard := resp.Documents[1].Encryption
	require.NotNil(t, standard)
	assert.Equal(t, "standard", standard.Format)
	assert.Equal(t, "AES-128", standard.CipherAlgorithm)
	assert.Equal(t, "ECB", standard.CipherChaining)
	assert.Equal(t, 50000, standard.SpinCount)

	assert.False(t, resp.Documents[2].Encrypted)
	assert.Nil(t, resp.Documents[2].Encryption)

	_, err = Handle(ctx, svc, &Request{Paths: []string{"/docs/missing.pptx"}})
	assert.Equal(t, app.ErrCodeIO, app.ErrorCode(err))
}

func TestHandleVerify(t *testing.T) {
	tests := []struct {
		name      string
		request   *VerifyRequest
		wantValid bool
		errCode   string
	}{
		{name: "agile correct", request: &VerifyRequest{Path: "/docs/agile.pptx", Password: "pw"}, wantValid: true},
		{name: "standard correct", request: &VerifyRequest{Path: "/docs/standard.pptx", Password: "pw"}, wantValid: true},
		{name: "agile wrong", request: &VerifyRequest{Path: "/docs/agile.pptx", Password: "PW"}},
		{name: "standard wrong", request: &VerifyRequest{Path: "/docs/standard.pptx", Password: "pw "}},
		{name: "not encrypted", request: &VerifyRequest{Path: "/docs/plain.pptx", Password: "pw"}, errCode: app.ErrCodeMalformed},
		{name: "missing file", request: &VerifyRequest{Path: "/docs/missing.pptx"}, errCode: app.ErrCodeIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, svc := setup(t)
			resp, err := HandleVerify(ctx, svc, tt.request)
			if tt.errCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.errCode, app.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, resp.Valid)
			assert.Equal(t, tt.request.Path, resp.Path)
		})
	}
}

func TestFormatOutput(t *testing.T) {
	ctx, svc := setup(t)
	resp, err := Handle(ctx, svc, &Request{Paths: []string{"/docs/agile.pptx", "/docs/plain.pptx"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, FormatOutput(&buf, resp, app.FormatTable))
	out := buf.String()
	assert.Contains(t, out, "/docs/agile.pptx")
	assert.Contains(t, out, "AES-256 ChainingModeCBC")
	assert.Contains(t, out, "SHA512 (1000 spins, 16 byte salt)")
	assert.Contains(t, out, "StrongEncryptionDataSpace (Microsoft.Container.EncryptionTransform)")
	assert.Contains(t, out, "1 of 2 documents encrypted")

	buf.Reset()
	require.NoError(t, FormatOutput(&buf, resp, app.FormatYAML))
	var decoded struct {
		Documents []struct {
			Path       string `yaml:"path"`
			Encrypted  bool   `yaml:"encrypted"`
			Encryption *struct {
				Format string `yaml:"format"`
			} `yaml:"encryption"`
		} `yaml:"documents"`
		Encrypted int `yaml:"encrypted"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Documents, 2)
	assert.Equal(t, "agile", decoded.Documents[0].Encryption.Format)
	assert.Nil(t, decoded.Documents[1].Encryption)
	assert.Equal(t, 1, decoded.Encrypted)
}

func TestFormatVerifyOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatVerifyOutput(&buf, &VerifyResponse{Path: "a.docx", Format: "agile", Valid: true}, app.FormatTable))
	assert.Equal(t, "a.docx: password OK (agile)\n", buf.String())

	buf.Reset()
	require.NoError(t, FormatVerifyOutput(&buf, &VerifyResponse{Path: "a.docx", Format: "agile"}, app.FormatTable))
	assert.Equal(t, "a.docx: password incorrect\n", buf.String())

	buf.Reset()
	require.NoError(t, FormatVerifyOutput(&buf, &VerifyResponse{Path: "a.docx", Format: "agile", Valid: true}, app.FormatJSON))
	assert.JSONEq(t, `{"path":"a.docx","format":"agile","valid":true}`, buf.String())
}
