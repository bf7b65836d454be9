package decrypt

import "time"

// Request represents a document decryption request
type Request struct {
	InputPath  string
	OutputPath string
	Password   string
	Force      bool
}

// Response represents the result of a decryption
type Response struct {
	InputPath  string        `json:"input_path" yaml:"input_path"`
	OutputPath string        `json:"output_path" yaml:"output_path"`
	Format     string        `json:"format" yaml:"format"`
	InputSize  int64         `json:"input_size" yaml:"input_size"`
	OutputSize int64         `json:"output_size" yaml:"output_size"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}
