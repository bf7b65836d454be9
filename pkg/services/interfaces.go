package services

import (
	"context"
	"time"

	"github.com/deploymenttheory/go-officecrypto/pkg/officecrypto"
)

// OperationResult describes a completed encrypt or decrypt of a file
type OperationResult struct {
	Source      string        `json:"source" yaml:"source"`
	Destination string        `json:"destination" yaml:"destination"`
	Format      string        `json:"format" yaml:"format"`
	InputSize   int64         `json:"input_size" yaml:"input_size"`
	OutputSize  int64         `json:"output_size" yaml:"output_size"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// DocumentInfo describes a file on disk and, when it is encrypted, its
// encryption parameters
type DocumentInfo struct {
	Path       string             `json:"path" yaml:"path"`
	Size       int64              `json:"size" yaml:"size"`
	Encrypted  bool               `json:"encrypted" yaml:"encrypted"`
	Encryption *officecrypto.Info `json:"encryption,omitempty" yaml:"encryption,omitempty"`
}

// DocumentService encrypts, decrypts and inspects Office documents stored
// on a filesystem
type DocumentService interface {
	// EncryptFile encrypts the package at src and writes the container to dst
	EncryptFile(ctx context.Context, src, dst string, settings officecrypto.EncryptionSettings) (*OperationResult, error)

	// DecryptFile decrypts the container at src and writes the package to dst
	DecryptFile(ctx context.Context, src, dst, password string) (*OperationResult, error)

	// InspectFile reports whether path is encrypted and how, without a password
	InspectFile(ctx context.Context, path string) (*DocumentInfo, error)

	// VerifyPassword checks password against the container at path
	VerifyPassword(ctx context.Context, path, password string) error
}
