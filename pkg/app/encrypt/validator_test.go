package encrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-officecrypto/pkg/app"
	"github.com/deploymenttheory/go-officecrypto/pkg/officecrypto"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request Request
		wantErr bool
		errCode string
	}{
		{
			name:    "valid agile request",
			request: Request{InputPath: "in.docx", OutputPath: "out.docx", Password: "pw"},
		},
		{
			name:    "valid standard request",
			request: Request{InputPath: "in.docx", OutputPath: "out.docx", Format: "standard", Cipher: "AES-256", Hash: "sha-1"},
		},
		{
			name:    "valid agile parameters",
			request: Request{InputPath: "in.docx", OutputPath: "out.docx", Format: "agile", Cipher: "aes128", Hash: "sha-256", SpinCount: 1000},
		},
		{
			name:    "missing input path",
			request: Request{OutputPath: "out.docx"},
			wantErr: true,
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "missing output path",
			request: Request{InputPath: "in.docx"},
			wantErr: true,
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "output equals input",
			request: Request{InputPath: "docs/in.docx", OutputPath: "docs/./in.docx"},
			wantErr: true,
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "unknown format",
			request: Request{InputPath: "in.docx", OutputPath: "out.docx", Format: "rc4"},
			wantErr: true,
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "unknown cipher",
			request: Request{InputPath: "in.docx", OutputPath: "out.docx", Cipher: "AES-512"},
			wantErr: true,
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "unknown hash",
			request: Request{InputPath: "in.docx", OutputPath: "out.docx", Hash: "MD5"},
			wantErr: true,
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "standard with sha512",
			request: Request{InputPath: "in.docx", OutputPath: "out.docx", Format: "standard", Hash: "SHA512"},
			wantErr: true,
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "standard with spin count",
			request: Request{InputPath: "in.docx", OutputPath: "out.docx", Format: "standard", SpinCount: 1000},
			wantErr: true,
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "negative spin count",
			request: Request{InputPath: "in.docx", OutputPath: "out.docx", SpinCount: -1},
			wantErr: true,
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "spin count too large",
			request: Request{InputPath: "in.docx", OutputPath: "out.docx", SpinCount: maxSpinCount + 1},
			wantErr: true,
			errCode: app.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				require.Error(t, err)
				var ce *app.CommonError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tt.errCode, ce.Code)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRequest_Settings(t *testing.T) {
	req := Request{Password: "pw", Format: "agile", Cipher: "AES-192", Hash: "sha-384", SpinCount: 2000}
	settings, err := req.Settings()
	require.NoError(t, err)
	assert.Equal(t, officecrypto.EncryptionSettings{
		Password:      "pw",
		Version:       officecrypto.VersionAgile,
		Algorithm:     officecrypto.AES192,
		HashAlgorithm: "SHA384",
		SpinCount:     2000,
	}, settings)

	req = Request{Password: "pw", Format: "standard", Hash: "SHA1"}
	settings, err = req.Settings()
	require.NoError(t, err)
	assert.Equal(t, officecrypto.VersionStandard, settings.Version)
	assert.Empty(t, settings.HashAlgorithm)
	assert.Zero(t, settings.Algorithm)
}
