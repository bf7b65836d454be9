package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/deploymenttheory/go-officecrypto/pkg/officecrypto"
	"github.com/deploymenttheory/go-officecrypto/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", officecrypto.ErrInvalidPassword), ErrCodeInvalidPassword},
		{fmt.Errorf("x: %w", officecrypto.ErrIntegrityCheckFailed), ErrCodeIntegrity},
		{fmt.Errorf("x: %w", officecrypto.ErrUnsupportedEncryptionFormat), ErrCodeUnsupported},
		{officecrypto.ErrUnsupportedAlgorithm, ErrCodeUnsupported},
		{fmt.Errorf("x: %w", officecrypto.ErrMalformedContainer), ErrCodeMalformed},
		{context.Canceled, ErrCodeTimeout},
		{fmt.Errorf("%w: /a", services.ErrOutputExists), ErrCodeInvalidInput},
		{errors.New("disk on fire"), ErrCodeIO},
		{NewError(ErrCodeInvalidInput, "bad", nil), ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), tt.err.Error())
	}
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError("nothing", nil))

	err := WrapError("decrypt failed", fmt.Errorf("wrapped: %w", officecrypto.ErrInvalidPassword))
	var ce *CommonError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeInvalidPassword, ce.Code)
	assert.ErrorIs(t, err, officecrypto.ErrInvalidPassword)
	assert.True(t, strings.HasPrefix(err.Error(), "decrypt failed: "))

	original := NewError(ErrCodeInvalidInput, "input path is required", nil)
	assert.Same(t, original, WrapError("other", original))
}

func TestValidateOutputFormat(t *testing.T) {
	for _, f := range []string{FormatTable, FormatJSON, FormatYAML} {
		assert.NoError(t, ValidateOutputFormat(f))
	}
	err := ValidateOutputFormat("xml")
	var ce *CommonError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeInvalidInput, ce.Code)
}

func TestWriteStructured(t *testing.T) {
	v := struct {
		Name string `json:"name" yaml:"name"`
	}{Name: "report.docx"}

	var buf bytes.Buffer
	done, err := WriteStructured(&buf, FormatJSON, v)
	require.NoError(t, err)
	assert.True(t, done)
	assert.JSONEq(t, `{"name":"report.docx"}`, buf.String())

	buf.Reset()
	done, err = WriteStructured(&buf, FormatYAML, v)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "name: report.docx\n", buf.String())

	done, err = WriteStructured(&buf, FormatTable, v)
	assert.NoError(t, err)
	assert.False(t, done)

	_, err = WriteStructured(&buf, "csv", v)
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KB", FormatBytes(1024))
	assert.Equal(t, "1.5 MB", FormatBytes(1536*1024))
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer

	NewLogger(&buf, false, false).Debug("hidden")
	assert.Empty(t, buf.String())

	NewLogger(&buf, true, false).Debug("shown")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	NewLogger(&buf, true, true).Warn("quiet wins")
	assert.Empty(t, buf.String())
}

func TestContext_PrintfAndLog(t *testing.T) {
	var out, logs bytes.Buffer
	ctx := NewContext()
	ctx.Out = &out
	ctx.Logger = NewLogger(&logs, true, false)

	ctx.Printf("hello %s\n", "world")
	ctx.Log("detail", "key", "value")
	assert.Equal(t, "hello world\n", out.String())
	assert.Contains(t, logs.String(), "key=value")

	ctx.Quiet = true
	ctx.Printf("suppressed")
	assert.Equal(t, "hello world\n", out.String())

	var got []int
	ctx.SetProgress(func(_ string, p int) { got = append(got, p) })
	ctx.Progress("half", 50)
	assert.Equal(t, []int{50}, got)
}
