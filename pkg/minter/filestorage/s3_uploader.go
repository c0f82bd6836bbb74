package filestorage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3PutObjectAPI is the subset of the S3 client used by S3Uploader.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Options struct {
	Region string
	Bucket string
	// Endpoint overrides the AWS endpoint, e.g. for LocalStack.
	Endpoint  string
	PublicUrl string
}

type S3Uploader struct {
	client    S3PutObjectAPI
	bucket    string
	publicUrl string
}

var _ Uploader = (*S3Uploader)(nil)

// NewS3Uploader loads the default AWS credential chain.
func NewS3Uploader(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicUrl := opts.PublicUrl
	if publicUrl == "" {
		publicUrl = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, cfg.Region)
	}

	return NewS3UploaderWithClient(client, opts.Bucket, publicUrl), nil
}

func NewS3UploaderWithClient(client S3PutObjectAPI, bucket, publicUrl string) *S3Uploader {
	return &S3Uploader{
		client:    client,
		bucket:    bucket,
		publicUrl: strings.TrimRight(publicUrl, "/") + "/",
	}
}

func (u *S3Uploader) Upload(ctx context.Context, files ...File) ([]string, error) {
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

func (u *S3Uploader) UploadJson(ctx context.Context, document interface{}) (string, error) {
	data, err := json.Marshal(document)
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}

	return u.put(ctx, ContentAddress(data)+".json", data, JsonContentType, "")
}

func (u *S3Uploader) put(ctx context.Context, key string, content []byte, contentType, uniqueName string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if uniqueName != "" {
		input.Metadata = map[string]string{"unique-name": uniqueName}
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload object to s3: %w", err)
	}

	return u.publicUrl + key, nil
}
