package encrypt

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/deploymenttheory/go-officecrypto/pkg/app"
	"github.com/deploymenttheory/go-officecrypto/pkg/officecrypto"
)

// Maximum Agile spin count accepted from the command line
const maxSpinCount = 10000000

// Validate validates an encryption request
func (r *Request) Validate() error {
	if r.InputPath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "input path is required", nil)
	}
	if r.OutputPath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "output path is required", nil)
	}
	if filepath.Clean(r.InputPath) == filepath.Clean(r.OutputPath) {
		return app.NewError(app.ErrCodeInvalidInput, "input and output must be different files", nil)
	}

	if _, err := r.Settings(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid encryption parameters", err)
	}

	hash := normalizeHash(r.Hash)
	switch hash {
	case "", "SHA1", "SHA256", "SHA384", "SHA512":
	default:
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("unsupported hash algorithm: %s", r.Hash), nil)
	}

	version, _ := officecrypto.ParseFormatVersion(r.Format)
	if version == officecrypto.VersionStandard {
		if hash != "" && hash != "SHA1" {
			return app.NewError(app.ErrCodeInvalidInput, "standard encryption always hashes with SHA-1", nil)
		}
		if r.SpinCount != 0 {
			return app.NewError(app.ErrCodeInvalidInput, "standard encryption uses a fixed spin count", nil)
		}
	}
	if r.SpinCount < 0 || r.SpinCount > maxSpinCount {
		return app.NewError(app.ErrCodeInvalidInput, "spin count must be between 0 and 10000000", nil)
	}
	return nil
}

// normalizeHash turns "sha-256" into "SHA256"
func normalizeHash(name string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", ""))
}

// Settings converts the request into encryption settings
func (r *Request) Settings() (officecrypto.EncryptionSettings, error) {
	version, err := officecrypto.ParseFormatVersion(r.Format)
	if err != nil {
		return officecrypto.EncryptionSettings{}, err
	}
	settings := officecrypto.EncryptionSettings{
		Password:  r.Password,
		Version:   version,
		SpinCount: r.SpinCount,
	}
	if r.Cipher != "" {
		if settings.Algorithm, err = officecrypto.ParseAlgorithm(r.Cipher); err != nil {
			return officecrypto.EncryptionSettings{}, err
		}
	}
	if version == officecrypto.VersionAgile {
		settings.HashAlgorithm = normalizeHash(r.Hash)
	}
	return settings, nil
}
