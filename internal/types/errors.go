package types

import "errors"

// Error taxonomy shared by the container, metadata and codec layers.
// Callers match with errors.Is; every layer wraps with context.
var (
	// ErrMalformedContainer means the input is not a readable compound file.
	ErrMalformedContainer = errors.New("malformed compound container")

	// ErrUnsupportedEncryptionFormat means the EncryptionInfo version, cipher or hash is not supported.
	ErrUnsupportedEncryptionFormat = errors.New("unsupported encryption format")

	// ErrInvalidPassword means the password verifier did not match.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrIntegrityCheckFailed means the password was right but the HMAC over the ciphertext did not match.
	ErrIntegrityCheckFailed = errors.New("data integrity check failed")

	// ErrUnsupportedAlgorithm means the requested or recorded cipher cannot be used by the codec.
	ErrUnsupportedAlgorithm = errors.New("unsupported encryption algorithm")
)
