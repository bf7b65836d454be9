package inspect

import (
	"errors"

	"github.com/deploymenttheory/go-officecrypto/pkg/app"
	"github.com/deploymenttheory/go-officecrypto/pkg/officecrypto"
	"github.com/deploymenttheory/go-officecrypto/pkg/services"
)

// Handle inspects every requested document without a password
func Handle(ctx *app.Context, svc services.DocumentService, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp := &Response{Documents: make([]*services.DocumentInfo, 0, len(req.Paths))}
	for i, path := range req.Paths {
		ctx.Progress("Inspecting "+path, (i*100)/len(req.Paths))
		doc, err := svc.InspectFile(ctx, path)
		if err != nil {
			return nil, app.WrapError("inspection failed", err)
		}
		if doc.Encrypted {
			resp.Encrypted++
		}
		ctx.Log("inspected document", "path", path, "encrypted", doc.Encrypted)
		resp.Documents = append(resp.Documents, doc)
	}
	ctx.Progress("Complete", 100)
	return resp, nil
}

// HandleVerify checks a password. A wrong password is reported in the
// response, every other failure as an error.
func HandleVerify(ctx *app.Context, svc services.DocumentService, req *VerifyRequest) (*VerifyResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doc, err := svc.InspectFile(ctx, req.Path)
	if err != nil {
		return nil, app.WrapError("verification failed", err)
	}
	if !doc.Encrypted {
		return nil, app.NewError(app.ErrCodeMalformed, req.Path+" is not an encrypted document", officecrypto.ErrMalformedContainer)
	}

	resp := &VerifyResponse{Path: req.Path, Format: doc.Encryption.Format}
	err = svc.VerifyPassword(ctx, req.Path, req.Password)
	switch {
	case err == nil:
		resp.Valid = true
	case errors.Is(err, officecrypto.ErrInvalidPassword):
		ctx.Log("password rejected", "path", req.Path)
	default:
		return nil, app.WrapError("verification failed", err)
	}
	return resp, nil
}
