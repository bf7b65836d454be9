package decrypt

import (
	"path/filepath"

	"github.com/deploymenttheory/go-officecrypto/pkg/app"
)

// Validate validates a decryption request
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
	return nil
}
