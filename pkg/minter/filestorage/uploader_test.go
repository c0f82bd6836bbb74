package filestorage_test

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NethermindEth/solmint/pkg/minter/filestorage"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestMemoryUploader_Upload(t *testing.T) {
	uploader := filestorage.NewMemoryUploader("")

	uris, err := uploader.Upload(context.Background(), filestorage.File{
		Name:        "rock.png",
		UniqueName:  "Rock",
		ContentType: "image/png",
		Content:     pngHeader,
	})
	require.NoError(t, err)
	require.Len(t, uris, 1)

	assert.True(t, strings.HasPrefix(uris[0], filestorage.DefaultMemoryBaseUrl))
	assert.True(t, strings.HasSuffix(uris[0], filestorage.ContentAddress(pngHeader)+".png"))

	content, ok := uploader.Resolve(uris[0])
	require.True(t, ok)
	assert.Equal(t, pngHeader, content)

	t.Run("same content same uri", func(t *testing.T) {
		again, err := uploader.Upload(context.Background(), filestorage.File{Name: "other.png", ContentType: "image/png", Content: pngHeader})
		require.NoError(t, err)
		assert.Equal(t, uris, again)
		assert.Equal(t, 1, uploader.Len())
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := uploader.Upload(context.Background(), filestorage.File{Name: "empty.png"})
		assert.ErrorIs(t, err, filestorage.ErrEmptyFile)
	})

	t.Run("no files", func(t *testing.T) {
		_, err := uploader.Upload(context.Background())
		assert.ErrorIs(t, err, filestorage.ErrEmptyFile)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := uploader.Upload(ctx, filestorage.File{Name: "rock.png", Content: pngHeader})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemoryUploader_UploadJson(t *testing.T) {
	uploader := filestorage.NewMemoryUploader("https://storage.test")

	uri, err := uploader.UploadJson(context.Background(), map[string]string{"name": "Rock"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "https://storage.test/"))
	assert.True(t, strings.HasSuffix(uri, ".json"))

	content, ok := uploader.Resolve(uri)
	require.True(t, ok)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, "Rock", decoded["name"])

	_, ok = uploader.Resolve("https://elsewhere.test/" + strings.TrimPrefix(uri, "https://storage.test/"))
	assert.False(t, ok)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", filestorage.DetectContentType(pngHeader))
	assert.Equal(t, filestorage.DefaultImageContentType, filestorage.DetectContentType([]byte{0x01, 0x02, 0x03}))
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name string
		file filestorage.File
		ext  string
	}{
		{name: "content type wins", file: filestorage.File{Name: "a.bin", ContentType: "image/jpeg", Content: []byte("x")}, ext: ".jpg"},
		{name: "falls back to name", file: filestorage.File{Name: "a.GIF", Content: []byte("x")}, ext: ".gif"},
		{name: "no hints", file: filestorage.File{Content: []byte("x")}, ext: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filestorage.ContentAddress([]byte("x"))+tt.ext, filestorage.ObjectKey(tt.file))
		})
	}
}

type mockS3Client struct {
	putObject func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return m.putObject(ctx, params, optFns...)
}

func TestS3Uploader(t *testing.T) {
	var keys []string
	client := &mockS3Client{
		putObject: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			assert.Equal(t, "nfts", *params.Bucket)
			keys = append(keys, *params.Key)
			return &s3.PutObjectOutput{}, nil
		},
	}

	uploader := filestorage.NewS3UploaderWithClient(client, "nfts", "https://cdn.test/")

	uris, err := uploader.Upload(context.Background(), filestorage.File{Name: "rock.png", ContentType: "image/png", Content: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/" + filestorage.ContentAddress(pngHeader) + ".png"}, uris)

	uri, err := uploader.UploadJson(context.Background(), map[string]string{"image": uris[0]})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(uri, ".json"))
	assert.Len(t, keys, 2)

	t.Run("put error", func(t *testing.T) {
		failing := filestorage.NewS3UploaderWithClient(&mockS3Client{
			putObject: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				return nil, assert.AnError
			},
		}, "nfts", "https://cdn.test")

		_, err := failing.Upload(context.Background(), filestorage.File{Name: "rock.png", Content: pngHeader})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

type mockMinioClient struct {
	putObject func(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

func (m *mockMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return m.putObject(ctx, bucketName, objectName, reader, objectSize, opts)
}

func TestMinioUploader(t *testing.T) {
	type put struct {
		key         string
		contentType string
		uniqueName  string
		content     []byte
	}

	var puts []put
	client := &mockMinioClient{
		putObject: func(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
			assert.Equal(t, "nfts", bucketName)

			content, err := io.ReadAll(reader)
			require.NoError(t, err)
			assert.Equal(t, int64(len(content)), objectSize)

			puts = append(puts, put{
				key:         objectName,
				contentType: opts.ContentType,
				uniqueName:  opts.UserMetadata["unique-name"],
				content:     content,
			})
			return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
		},
	}

	uploader := filestorage.NewMinioUploaderWithClient(client, "nfts", "https://minio.test/nfts")

	uris, err := uploader.Upload(context.Background(), filestorage.File{Name: "rock.png", UniqueName: "Rock", ContentType: "image/png", Content: pngHeader})
	require.NoError(t, err)

	key := filestorage.ContentAddress(pngHeader) + ".png"
	assert.Equal(t, []string{"https://minio.test/nfts/" + key}, uris)
	require.Len(t, puts, 1)
	assert.Equal(t, key, puts[0].key)
	assert.Equal(t, "image/png", puts[0].contentType)
	assert.Equal(t, "Rock", puts[0].uniqueName)
	assert.Equal(t, pngHeader, puts[0].content)

	uri, err := uploader.UploadJson(context.Background(), map[string]string{"image": uris[0]})
	require.NoError(t, err)
	require.Len(t, puts, 2)
	assert.Equal(t, "https://minio.test/nfts/"+puts[1].key, uri)
	assert.Equal(t, filestorage.ContentAddress(puts[1].content)+".json", puts[1].key)
	assert.Equal(t, filestorage.JsonContentType, puts[1].contentType)
	assert.Empty(t, puts[1].uniqueName)
	assert.JSONEq(t, `{"image":"`+uris[0]+`"}`, string(puts[1].content))

	t.Run("put error", func(t *testing.T) {
		failing := filestorage.NewMinioUploaderWithClient(&mockMinioClient{
			putObject: func(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
				return minio.UploadInfo{}, assert.AnError
			},
		}, "nfts", "https://minio.test/nfts")

		_, err := failing.Upload(context.Background(), filestorage.File{Name: "rock.png", Content: pngHeader})
		assert.ErrorIs(t, err, assert.AnError)
	})
}
