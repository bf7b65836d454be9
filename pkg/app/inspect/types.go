package inspect

import "github.com/deploymenttheory/go-officecrypto/pkg/services"

// Request represents a request to inspect one or more documents
type Request struct {
	Paths []string
}

// Response holds the inspection result of every requested document
type Response struct {
	Documents []*services.DocumentInfo `json:"documents" yaml:"documents"`
	Encrypted int                      `json:"encrypted" yaml:"encrypted"`
}

// VerifyRequest represents a password check against an encrypted document
type VerifyRequest struct {
	Path     string
	Password string
}

// VerifyResponse reports whether the password opens the document
type VerifyResponse struct {
	Path   string `json:"path" yaml:"path"`
	Format string `json:"format" yaml:"format"`
	Valid  bool   `json:"valid" yaml:"valid"`
}
