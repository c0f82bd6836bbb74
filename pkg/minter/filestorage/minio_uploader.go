package filestorage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioPutObjectAPI is the subset of the MinIO client used by MinioUploader.
type MinioPutObjectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicUrl is the base under which objects are reachable. Defaults to
	// the endpoint plus bucket.
	PublicUrl string
}

// MinioUploader stores objects in an S3-compatible bucket keyed by content address.
// It is safe for concurrent use.
type MinioUploader struct {
	client    MinioPutObjectAPI
	bucket    string
	publicUrl string
}

var _ Uploader = (*MinioUploader)(nil)

// NewMinioUploader connects to the endpoint and ensures the bucket exists.
func NewMinioUploader(ctx context.Context, opts MinioOptions) (*MinioUploader, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	publicUrl := opts.PublicUrl
	if publicUrl == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		publicUrl = fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
	}

	return NewMinioUploaderWithClient(client, opts.Bucket, publicUrl), nil
}

func NewMinioUploaderWithClient(client MinioPutObjectAPI, bucket, publicUrl string) *MinioUploader {
	return &MinioUploader{
		client:    client,
		bucket:    bucket,
		publicUrl: strings.TrimRight(publicUrl, "/") + "/",
	}
}

func (u *MinioUploader) Upload(ctx context.Context, files ...File) ([]string, error) {
	if err := validateFiles(files); err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(files))
	for _, f := range files {
		uri, err := u.put(ctx, ObjectKey(f), f.Content, f.ContentType, f.UniqueName)
		if err != nil {
			return nil, err
		}
		uris = append(uris, uri)
	}

	return uris, nil
}

func (u *MinioUploader) UploadJson(ctx context.Context, document interface{}) (string, error) {
	data, err := json.Marshal(document)
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}

	return u.put(ctx, ContentAddress(data)+".json", data, JsonContentType, "")
}

func (u *MinioUploader) put(ctx context.Context, key string, content []byte, contentType, uniqueName string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if uniqueName != "" {
		opts.UserMetadata = map[string]string{"unique-name": uniqueName}
	}

	if _, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(content), int64(len(content)), opts); err != nil {
		return "", fmt.Errorf("failed to upload object to minio: %w", err)
	}

	return u.publicUrl + key, nil
}
