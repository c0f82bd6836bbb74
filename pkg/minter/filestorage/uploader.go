package filestorage

import "context"

// File is a single binary object handed to an Uploader.
type File struct {
	// Name is the original file name, used only for its extension.
	Name string
	// UniqueName is a logical name recorded alongside the object where the backend supports it.
	UniqueName  string
	ContentType string
	Content     []byte
}

// Uploader stores immutable objects and returns a content-addressed URI for each.
type Uploader interface {
	Upload(ctx context.Context, files ...File) ([]string, error)
	UploadJson(ctx context.Context, json interface{}) (string, error)
}
