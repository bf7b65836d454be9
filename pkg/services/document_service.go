package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/deploymenttheory/go-officecrypto/pkg/officecrypto"
	"github.com/spf13/afero"
)

// ErrOutputExists is returned when the destination exists and overwriting is off
var ErrOutputExists = errors.New("output file already exists")

// documentService implements DocumentService on an afero filesystem
type documentService struct {
	fs        afero.Fs
	logger    *slog.Logger
	overwrite bool
}

// Option configures a DocumentService
type Option func(*documentService)

// WithOverwrite allows existing destination files to be replaced
func WithOverwrite(overwrite bool) Option {
	return func(s *documentService) { s.overwrite = overwrite }
}

// NewDocumentService creates a document service. A nil logger discards output.
func NewDocumentService(fs afero.Fs, logger *slog.Logger, opts ...Option) DocumentService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &documentService{fs: fs, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EncryptFile encrypts the package at src and writes the container to dst
func (s *documentService) EncryptFile(ctx context.Context, src, dst string, settings officecrypto.EncryptionSettings) (*OperationResult, error) {
	start := time.Now()
	log := s.logger.With("op", "encrypt", "source", src, "destination", dst)

	if err := s.checkDestination(dst); err != nil {
		return nil, err
	}
	pkg, err := s.readFile(ctx, src)
	if err != nil {
		return nil, err
	}
	if officecrypto.IsEncrypted(pkg) {
		log.Warn("source is already an encrypted container, encrypting it again")
	}

	log.Debug("encrypting package", "bytes", len(pkg), "format", formatName(settings.Version))
	out, err := officecrypto.Encrypt(pkg, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt %s: %w", src, err)
	}

	if err := s.writeFile(ctx, dst, out); err != nil {
		return nil, err
	}

	result := &OperationResult{
		Source:      src,
		Destination: dst,
		Format:      formatName(settings.Version),
		InputSize:   int64(len(pkg)),
		OutputSize:  int64(len(out)),
		Duration:    time.Since(start),
	}
	log.Info("document encrypted", "bytes", result.OutputSize, "duration", result.Duration)
	return result, nil
}

// DecryptFile decrypts the container at src and writes the package to dst.
// Nothing is written when the password or the integrity check fails.
func (s *documentService) DecryptFile(ctx context.Context, src, dst, password string) (*OperationResult, error) {
	start := time.Now()
	log := s.logger.With("op", "decrypt", "source", src, "destination", dst)

	if err := s.checkDestination(dst); err != nil {
		return nil, err
	}
	container, err := s.readFile(ctx, src)
	if err != nil {
		return nil, err
	}

	log.Debug("decrypting package", "bytes", len(container))
	pkg, version, err := officecrypto.DecryptWithFormat(container, password)
	if err != nil {
		log.Debug("decryption failed", "format", version.String(), "error", err)
		return nil, fmt.Errorf("failed to decrypt %s: %w", src, err)
	}

	if err := s.writeFile(ctx, dst, pkg); err != nil {
		return nil, err
	}

	result := &OperationResult{
		Source:      src,
		Destination: dst,
		Format:      version.String(),
		InputSize:   int64(len(container)),
		OutputSize:  int64(len(pkg)),
		Duration:    time.Since(start),
	}
	log.Info("document decrypted", "bytes", result.OutputSize, "duration", result.Duration)
	return result, nil
}

// InspectFile reports whether path is encrypted and how, without a password
func (s *documentService) InspectFile(ctx context.Context, path string) (*DocumentInfo, error) {
	data, err := s.readFile(ctx, path)
	if err != nil {
		return nil, err
	}
	doc := &DocumentInfo{Path: path, Size: int64(len(data))}
	if !officecrypto.IsEncrypted(data) {
		s.logger.Debug("document is not encrypted", "path", path)
		return doc, nil
	}

	info, err := officecrypto.Inspect(data)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	doc.Encrypted = true
	doc.Encryption = info
	return doc, nil
}

// VerifyPassword checks password against the container at path
func (s *documentService) VerifyPassword(ctx context.Context, path, password string) error {
	data, err := s.readFile(ctx, path)
	if err != nil {
		return err
	}
	if err := officecrypto.VerifyPassword(data, password); err != nil {
		return fmt.Errorf("failed to verify %s: %w", path, err)
	}
	s.logger.Debug("password verified", "path", path)
	return nil
}

func (s *documentService) checkDestination(dst string) error {
	if s.overwrite {
		return nil
	}
	exists, err := afero.Exists(s.fs, dst)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", dst, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrOutputExists, dst)
	}
	return nil
}

func (s *documentService) readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	s.logger.Debug("read file", "path", path, "bytes", len(data))
	return data, nil
}

// writeFile writes data to a temporary file next to path and renames it
// into place, so a failed write never leaves a partial file at path.
func (s *documentService) writeFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = s.fs.Chmod(tmpName, os.FileMode(0o600))
	}
	if werr == nil {
		werr = s.fs.Rename(tmpName, path)
	}
	if werr != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, werr)
	}
	s.logger.Debug("wrote file", "path", path, "bytes", len(data))
	return nil
}

func formatName(v officecrypto.FormatVersion) string {
	if v == officecrypto.VersionStandard {
		return officecrypto.VersionStandard.String()
	}
	return officecrypto.VersionAgile.String()
}
