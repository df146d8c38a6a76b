package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/maheshrc27/socialdesk/configs"
)

// ObjectStore persists uploaded media and returns a public URL for it.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (url string, size int64, err error)
}

// NewObjectStore picks the backend named by STORAGE_DRIVER.
func NewObjectStore(ctx context.Context, cfg config.Config) (ObjectStore, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStore(cfg.UploadDir, strings.TrimRight(cfg.PublicURL, "/")+"/uploads"), nil
	case "r2":
		return NewR2Store(ctx, cfg.R2)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

type localStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) ObjectStore {
	return &localStore{dir: dir, baseURL: baseURL}
}

func (l *localStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, int64, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(l.dir, filepath.Base(key))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}

	n, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}

	return l.baseURL + "/" + filepath.Base(key), n, nil
}

type r2Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewR2Store talks to Cloudflare R2 through the S3 API.
func NewR2Store(ctx context.Context, r2 config.R2) (ObjectStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})

	return &r2Store{
		client:    client,
		bucket:    r2.BucketName,
		publicURL: strings.TrimRight(r2.PublicURL, "/"),
	}, nil
}

func (r *r2Store) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, int64, error) {
	file, err := io.ReadAll(body)
	if err != nil {
		return "", 0, err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return "", 0, err
	}

	return r.publicURL + "/" + key, int64(len(file)), nil
}
