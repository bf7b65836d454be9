package encrypt

import (
	"time"
)

// Request represents a document encryption request
type Request struct {
	InputPath  string
	OutputPath string
	Password   string

	// Encryption parameters, validated by Validate
	Format    string
	Cipher    string
	Hash      string
	SpinCount int

	Force bool
}

// Response represents the result of an encryption
type Response struct {
	InputPath  string        `json:"input_path" yaml:"input_path"`
	OutputPath string        `json:"output_path" yaml:"output_path"`
	Format     string        `json:"format" yaml:"format"`
	Cipher     string        `json:"cipher" yaml:"cipher"`
	Hash       string        `json:"hash" yaml:"hash"`
	SpinCount  int           `json:"spin_count" yaml:"spin_count"`
	InputSize  int64         `json:"input_size" yaml:"input_size"`
	OutputSize int64         `json:"output_size" yaml:"output_size"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}
