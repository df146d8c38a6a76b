package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maheshrc27/socialdesk/internal/metrics"
	"github.com/maheshrc27/socialdesk/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MaxUploadSize is the per-file ceiling.
const MaxUploadSize int64 = 100 << 20

const FileTooLargeMessage = "File too large. Maximum size is 100MB."

// allowedMimeTypes maps each accepted mimetype to the extension used when the
// original file name has none.
var allowedMimeTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/x-msvideo": ".avi",
	"video/webm":      ".webm",
}

var safeExt = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

var errFileTooLarge = errors.New("file exceeds upload limit")

type UploadService interface {
	Store(ctx context.Context, file *transfer.UploadFile) (*transfer.UploadResult, error)
}

type uploadService struct {
	store ObjectStore
	clock Clock
}

func NewUploadService(store ObjectStore, clock Clock) UploadService {
	if clock == nil {
		clock = RealClock{}
	}
	return &uploadService{store: store, clock: clock}
}

func (s *uploadService) Store(ctx context.Context, file *transfer.UploadFile) (*transfer.UploadResult, error) {
	res, err := s.save(ctx, file)
	var size int64
	if res != nil {
		size = res.FileSize
	}
	metrics.RecordUpload(size, err)
	return res, err
}

func (s *uploadService) save(ctx context.Context, file *transfer.UploadFile) (*transfer.UploadResult, error) {
	if file == nil || file.Content == nil {
		return nil, validationf("No file uploaded")
	}

	mimeType := normalizeMime(file.MimeType)
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return nil, validationf("Invalid file type. Only images and videos are allowed.")
	}
	if file.Size > MaxUploadSize {
		return nil, validationf(FileTooLargeMessage)
	}

	head := make([]byte, 262)
	n, err := io.ReadFull(file.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error reading upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, validationf("Uploaded file is empty")
	}

	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		if _, ok := allowedMimeTypes[kind.MIME.Value]; !ok {
			return nil, validationf("Invalid file type. Only images and videos are allowed.")
		}
	}

	name, err := s.objectName(file.Name, mimeType)
	if err != nil {
		return nil, err
	}

	body := &capReader{r: io.MultiReader(bytes.NewReader(head), file.Content), remaining: MaxUploadSize}
	url, size, err := s.store.Put(ctx, name, body, mimeType)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			return nil, validationf(FileTooLargeMessage)
		}
		return nil, fmt.Errorf("error storing upload: %w", err)
	}

	return &transfer.UploadResult{
		FileName: name,
		FileURL:  url,
		FileSize: size,
		MimeType: mimeType,
	}, nil
}

// objectName builds <unix-millis>-<random><ext>.
func (s *uploadService) objectName(original, mimeType string) (string, error) {
	id, err := gonanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 12)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(original))
	if !safeExt.MatchString(ext) {
		ext = allowedMimeTypes[mimeType]
	}

	return fmt.Sprintf("%d-%s%s", s.clock.Now().UnixMilli(), id, ext), nil
}

func normalizeMime(value string) string {
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return strings.ToLower(strings.TrimSpace(value))
}

// capReader fails once more than remaining bytes have been read.
type capReader struct {
	r         io.Reader
	remaining int64
}

func (c *capReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, errFileTooLarge
	}
	return n, err
}
