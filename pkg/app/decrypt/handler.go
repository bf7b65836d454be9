package decrypt

import (
	"github.com/deploymenttheory/go-officecrypto/pkg/app"
	"github.com/deploymenttheory/go-officecrypto/pkg/services"
)

// Handle processes a decryption request. An empty password tries the
// fallback password documents are encrypted with when none was set.
func Handle(ctx *app.Context, svc services.DocumentService, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log("decrypting document", "input", req.InputPath, "output", req.OutputPath)
	ctx.Progress("Decrypting...", 10)

	result, err := svc.DecryptFile(ctx, req.InputPath, req.OutputPath, req.Password)
	if err != nil {
		return nil, app.WrapError("decryption failed", err)
	}

	ctx.Progress("Complete", 100)
	return &Response{
		InputPath:  req.InputPath,
		OutputPath: req.OutputPath,
		Format:     result.Format,
		InputSize:  result.InputSize,
		OutputSize: result.OutputSize,
		Duration:   result.Duration,
	}, nil
}
