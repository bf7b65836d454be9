package inspect

import (
	"fmt"

	"github.com/deploymenttheory/go-officecrypto/pkg/app"
)

// Validate validates an inspection request
func (r *Request) Validate() error {
	if len(r.Paths) == 0 {
		return app.NewError(app.ErrCodeInvalidInput, "at least one path is required", nil)
	}
	for i, p := range r.Paths {
		if p == "" {
			return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("path %d is empty", i+1), nil)
		}
	}
	return nil
}

// Validate validates a verification request
func (r *VerifyRequest) Validate() error {
	if r.Path == "" {
		return app.NewError(app.ErrCodeInvalidInput, "path is required", nil)
	}
	return nil
}
