package encrypt

import (
	"github.com/deploymenttheory/go-officecrypto/pkg/app"
	"github.com/deploymenttheory/go-officecrypto/pkg/officecrypto"
	"github.com/deploymenttheory/go-officecrypto/pkg/services"
)

// Handle processes an encryption request
func Handle(ctx *app.Context, svc services.DocumentService, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	settings, err := req.Settings()
	if err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid encryption parameters", err)
	}

	ctx.Log("encrypting document", "input", req.InputPath, "output", req.OutputPath, "format", settings.Version.String())
	ctx.Progress("Encrypting...", 10)

	result, err := svc.EncryptFile(ctx, req.InputPath, req.OutputPath, settings)
	if err != nil {
		return nil, app.WrapError("encryption failed", err)
	}

	ctx.Progress("Complete", 100)
	return newResponse(req, settings, result), nil
}

// newResponse reports the parameters actually written, defaults included
func newResponse(req *Request, s officecrypto.EncryptionSettings, result *services.OperationResult) *Response {
	resp := &Response{
		InputPath:  req.InputPath,
		OutputPath: req.OutputPath,
		Format:     result.Format,
		InputSize:  result.InputSize,
		OutputSize: result.OutputSize,
		Duration:   result.Duration,
	}
	if s.Version == officecrypto.VersionStandard {
		alg := s.Algorithm
		if alg == 0 {
			alg = officecrypto.AES128
		}
		resp.Cipher = alg.String()
		resp.Hash = "SHA1"
		resp.SpinCount = 50000
		return resp
	}

	defaults := officecrypto.DefaultSettings("")
	resp.Cipher = defaults.Algorithm.String()
	if s.Algorithm != 0 {
		resp.Cipher = s.Algorithm.String()
	}
	resp.Hash = defaults.HashAlgorithm
	if s.HashAlgorithm != "" {
		resp.Hash = s.HashAlgorithm
	}
	resp.SpinCount = defaults.SpinCount
	if s.SpinCount != 0 {
		resp.SpinCount = s.SpinCount
	}
	return resp
}
