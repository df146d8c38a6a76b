package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/maheshrc27/socialdesk/internal/testutil"
	"github.com/maheshrc27/socialdesk/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func pngOfSize(size int64) io.Reader {
	return io.MultiReader(bytes.NewReader(pngSignature), io.LimitReader(zeroReader{}, size-int64(len(pngSignature))))
}

func newUploadService(t *testing.T) (UploadService, string) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://localhost:5000/uploads")
	return NewUploadService(store, testutil.FixedClock()), dir
}

func TestUploadAcceptsImage(t *testing.T) {
	svc, dir := newUploadService(t)
	size := int64(10 << 20)

	res, err := svc.Store(context.Background(), &transfer.UploadFile{
		Name:     "Banner.PNG",
		Size:     size,
		MimeType: "image/png",
		Content:  pngOfSize(size),
	})
	require.NoError(t, err)

	assert.Equal(t, size, res.FileSize)
	assert.Equal(t, "image/png", res.MimeType)
	assert.True(t, strings.HasSuffix(res.FileName, ".png"))
	assert.True(t, strings.HasPrefix(res.FileName, "1740819600000-"))
	assert.Equal(t, "http://localhost:5000/uploads/"+res.FileName, res.FileURL)

	info, err := os.Stat(dir + "/" + res.FileName)
	require.NoError(t, err)
	assert.Equal(t, size, info.Size())
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	svc, dir := newUploadService(t)

	_, err := svc.Store(context.Background(), &transfer.UploadFile{
		Name:     "doc.pdf",
		Size:     5,
		MimeType: "application/pdf",
		Content:  strings.NewReader("%PDF-"),
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Invalid file type. Only images and videos are allowed.", err.Error())

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestUploadRejectsSpoofedContent(t *testing.T) {
	svc, _ := newUploadService(t)

	_, err := svc.Store(context.Background(), &transfer.UploadFile{
		Name:     "doc.png",
		Size:     9,
		MimeType: "image/png",
		Content:  strings.NewReader("%PDF-1.7\n"),
	})
	assert.True(t, IsValidation(err))
}

func TestUploadRejectsDeclaredOversize(t *testing.T) {
	svc, _ := newUploadService(t)
	size := int64(101 << 20)

	_, err := svc.Store(context.Background(), &transfer.UploadFile{
		Name:     "big.png",
		Size:     size,
		MimeType: "image/png",
		Content:  pngOfSize(size),
	})
	require.Error(t, err)
	assert.Equal(t, "File too large. Maximum size is 100MB.", err.Error())
}

func TestUploadRejectsUndeclaredOversize(t *testing.T) {
	svc, dir := newUploadService(t)

	_, err := svc.Store(context.Background(), &transfer.UploadFile{
		Name:     "big.png",
		MimeType: "image/png",
		Content:  pngOfSize(MaxUploadSize + 1),
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestUploadRequiresFile(t *testing.T) {
	svc, _ := newUploadService(t)

	_, err := svc.Store(context.Background(), nil)
	assert.True(t, IsValidation(err))
}
