package filestorage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

const DefaultMemoryBaseUrl = "https://mockstorage.example.com/"

// MemoryUploader is a content-addressed in-process store. Objects are never
// evicted, so it is meant for development clusters and tests.
type MemoryUploader struct {
	baseUrl string

	mu      sync.RWMutex
	objects map[string][]byte
}

var _ Uploader = (*MemoryUploader)(nil)

func NewMemoryUploader(baseUrl string) *MemoryUploader {
	if baseUrl == "" {
		baseUrl = DefaultMemoryBaseUrl
	}
	if !strings.HasSuffix(baseUrl, "/") {
		baseUrl += "/"
	}

	return &MemoryUploader{
		baseUrl: baseUrl,
		objects: make(map[string][]byte),
	}
}

func (u *MemoryUploader) Upload(ctx context.Context, files ...File) ([]string, error) {
	if err := validateFiles(files); err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		uris = append(uris, u.put(ObjectKey(f), f.Content))
	}

	return uris, nil
}

func (u *MemoryUploader) UploadJson(ctx context.Context, document interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.Marshal(document)
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}

	return u.put(ContentAddress(data)+".json", data), nil
}

// Resolve returns a copy of the object behind uri.
func (u *MemoryUploader) Resolve(uri string) ([]byte, bool) {
	key, ok := strings.CutPrefix(uri, u.baseUrl)
	if !ok {
		return nil, false
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	data, ok := u.objects[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Len reports how many distinct objects are stored.
func (u *MemoryUploader) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.objects)
}

func (u *MemoryUploader) put(key string, content []byte) string {
	u.mu.Lock()
	u.objects[key] = append([]byte(nil), content...)
	u.mu.Unlock()

	return u.baseUrl + key
}
