package services

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/deploymenttheory/go-officecrypto/internal/parsers/compound"
	"github.com/deploymenttheory/go-officecrypto/internal/types"
	"github.com/deploymenttheory/go-officecrypto/pkg/officecrypto"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastAgile(password string) officecrypto.EncryptionSettings {
	s := officecrypto.DefaultSettings(password)
	s.SpinCount = 500
	return s
}

func setupFs(t *testing.T) (afero.Fs, []byte) {
	t.Helper()
	fs := afero.NewMemMapFs()
	pkg := append([]byte("PK\x03\x04"), bytes.Repeat([]byte("document body "), 700)...)
	require.NoError(t, afero.WriteFile(fs, "/docs/report.docx", pkg, 0o644))
	return fs, pkg
}

func newTestService(fs afero.Fs, opts ...Option) DocumentService {
	var logs bytes.Buffer
	return NewDocumentService(fs, slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})), opts...)
}

func TestDocumentService_EncryptDecrypt(t *testing.T) {
	for _, settings := range []officecrypto.EncryptionSettings{
		fastAgile("s3cret"),
		{Password: "s3cret", Version: officecrypto.VersionStandard, Algorithm: officecrypto.AES256},
	} {
		t.Run(settings.Version.String(), func(t *testing.T) {
			fs, pkg := setupFs(t)
			svc := newTestService(fs)
			ctx := context.Background()

			res, err := svc.EncryptFile(ctx, "/docs/report.docx", "/out/report.enc.docx", settings)
			require.NoError(t, err)
			assert.Equal(t, int64(len(pkg)), res.InputSize)
			assert.Greater(t, res.OutputSize, res.InputSize)
			assert.Equal(t, settings.Version.String(), res.Format)

			enc, err := afero.ReadFile(fs, "/out/report.enc.docx")
			require.NoError(t, err)
			assert.True(t, officecrypto.IsEncrypted(enc))
			assert.Equal(t, res.OutputSize, int64(len(enc)))

			res, err = svc.DecryptFile(ctx, "/out/report.enc.docx", "/out/report.docx", "s3cret")
			require.NoError(t, err)
			assert.Equal(t, int64(len(pkg)), res.OutputSize)

			out, err := afero.ReadFile(fs, "/out/report.docx")
			require.NoError(t, err)
			assert.Equal(t, pkg, out)
		})
	}
}

func TestDocumentService_DecryptIgnoresDataSpaces(t *testing.T) {
	fs, pkg := setupFs(t)
	svc := newTestService(fs)
	ctx := context.Background()

	_, err := svc.EncryptFile(ctx, "/docs/report.docx", "/docs/enc.docx", fastAgile("s3cret"))
	require.NoError(t, err)
	enc, err := afero.ReadFile(fs, "/docs/enc.docx")
	require.NoError(t, err)

	// Keep the payload streams but replace DataSpaceMap with two bytes.
	src, err := compound.Parse(enc)
	require.NoError(t, err)
	info, ok := src.Stream(types.EncryptionInfoStreamName)
	require.True(t, ok)
	payload, ok := src.Stream(types.EncryptedPackageStreamName)
	require.True(t, ok)
	root := compound.NewRoot()
	ds, err := root.AddStorage(types.DataSpacesStorageName)
	require.NoError(t, err)
	require.NoError(t, ds.AddStream(types.DataSpaceMapStreamName, []byte{1, 2}))
	require.NoError(t, root.AddStream(types.EncryptionInfoStreamName, info))
	require.NoError(t, root.AddStream(types.EncryptedPackageStreamName, payload))
	broken, err := compound.Serialize(root)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/docs/broken.docx", broken, 0o644))

	res, err := svc.DecryptFile(ctx, "/docs/broken.docx", "/docs/plain.docx", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, officecrypto.VersionAgile.String(), res.Format)

	out, err := afero.ReadFile(fs, "/docs/plain.docx")
	require.NoError(t, err)
	assert.Equal(t, pkg, out)

	_, err = svc.InspectFile(ctx, "/docs/broken.docx")
	assert.ErrorIs(t, err, officecrypto.ErrMalformedContainer)
}

func TestDocumentService_WrongPasswordWritesNothing(t *testing.T) {
	fs, _ := setupFs(t)
	svc := newTestService(fs)
	ctx := context.Background()

	_, err := svc.EncryptFile(ctx, "/docs/report.docx", "/docs/enc.docx", fastAgile("right"))
	require.NoError(t, err)

	_, err = svc.DecryptFile(ctx, "/docs/enc.docx", "/docs/plain.docx", "wrong")
	assert.ErrorIs(t, err, officecrypto.ErrInvalidPassword)

	exists, err := afero.Exists(fs, "/docs/plain.docx")
	require.NoError(t, err)
	assert.False(t, exists)

	entries, err := afero.ReadDir(fs, "/docs")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"report.docx", "enc.docx"}, names, "no temporary files left behind")
}

func TestDocumentService_RefusesToOverwrite(t *testing.T) {
	fs, _ := setupFs(t)
	require.NoError(t, afero.WriteFile(fs, "/docs/existing.docx", []byte("keep me"), 0o644))
	ctx := context.Background()

	_, err := newTestService(fs).EncryptFile(ctx, "/docs/report.docx", "/docs/existing.docx", fastAgile("pw"))
	assert.ErrorIs(t, err, ErrOutputExists)
	data, _ := afero.ReadFile(fs, "/docs/existing.docx")
	assert.Equal(t, []byte("keep me"), data)

	_, err = newTestService(fs, WithOverwrite(true)).EncryptFile(ctx, "/docs/report.docx", "/docs/existing.docx", fastAgile("pw"))
	require.NoError(t, err)
	data, _ = afero.ReadFile(fs, "/docs/existing.docx")
	assert.True(t, officecrypto.IsEncrypted(data))
}

func TestDocumentService_InspectFile(t *testing.T) {
	fs, pkg := setupFs(t)
	svc := newTestService(fs)
	ctx := context.Background()

	doc, err := svc.InspectFile(ctx, "/docs/report.docx")
	require.NoError(t, err)
	assert.False(t, doc.Encrypted)
	assert.Nil(t, doc.Encryption)
	assert.Equal(t, int64(len(pkg)), doc.Size)

	_, err = svc.EncryptFile(ctx, "/docs/report.docx", "/docs/enc.docx", fastAgile("pw"))
	require.NoError(t, err)

	doc, err = svc.InspectFile(ctx, "/docs/enc.docx")
	require.NoError(t, err)
	assert.True(t, doc.Encrypted)
	require.NotNil(t, doc.Encryption)
	assert.Equal(t, "agile", doc.Encryption.Format)
	assert.Equal(t, uint64(len(pkg)), doc.Encryption.PackageSize)
	assert.Equal(t, 500, doc.Encryption.SpinCount)
}

func TestDocumentService_VerifyPassword(t *testing.T) {
	fs, _ := setupFs(t)
	svc := newTestService(fs)
	ctx := context.Background()

	_, err := svc.EncryptFile(ctx, "/docs/report.docx", "/docs/enc.docx", fastAgile("pw"))
	require.NoError(t, err)

	assert.NoError(t, svc.VerifyPassword(ctx, "/docs/enc.docx", "pw"))
	assert.ErrorIs(t, svc.VerifyPassword(ctx, "/docs/enc.docx", "nope"), officecrypto.ErrInvalidPassword)
	assert.ErrorIs(t, svc.VerifyPassword(ctx, "/docs/report.docx", "pw"), officecrypto.ErrMalformedContainer)
}

func TestDocumentService_Errors(t *testing.T) {
	fs, _ := setupFs(t)
	svc := newTestService(fs)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.EncryptFile(cancelled, "/docs/report.docx", "/docs/x.docx", fastAgile("pw"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = svc.DecryptFile(context.Background(), "/missing.docx", "/docs/x.docx", "pw")
	assert.Error(t, err)

	_, err = svc.DecryptFile(context.Background(), "/docs/report.docx", "/docs/x.docx", "pw")
	assert.ErrorIs(t, err, officecrypto.ErrMalformedContainer)

	_, err = svc.InspectFile(cancelled, "/docs/report.docx")
	assert.ErrorIs(t, err, context.Canceled)

	exists, _ := afero.Exists(fs, "/docs/x.docx")
	assert.False(t, exists)
}

func TestServiceFactory(t *testing.T) {
	factory := NewServiceFactory(afero.NewMemMapFs(), nil)
	assert.False(t, factory.IsInitialized())

	svc, err := factory.DocumentService()
	require.NoError(t, err)
	assert.NotNil(t, svc)
	assert.True(t, factory.IsInitialized())

	again, err := factory.DocumentService()
	require.NoError(t, err)
	assert.Same(t, svc, again)

	require.NoError(t, factory.Shutdown())
	assert.False(t, factory.IsInitialized())

	assert.NotNil(t, NewServiceFactory(nil, nil).Filesystem())
}
