package filestorage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultImageContentType = "image/png"
	JsonContentType         = "application/json"
)

var ErrEmptyFile = errors.New("filestorage: file content is empty")

// ContentAddress returns the hex sha256 of content.
func ContentAddress(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// DetectContentType sniffs content and falls back to DefaultImageContentType
// when nothing more specific than a generic binary type is found.
func DetectContentType(content []byte) string {
	mt := mimetype.Detect(content)
	if mt == nil || mt.Is("application/octet-stream") || mt.Is("text/plain") {
		return DefaultImageContentType
	}
	return mt.String()
}

// ObjectKey builds the storage key for a file: its content address plus an
// extension taken from the declared content type, or from the original name.
func ObjectKey(f File) string {
	return ContentAddress(f.Content) + extension(f)
}

func extension(f File) string {
	if f.ContentType != "" {
		base := strings.TrimSpace(strings.Split(f.ContentType, ";")[0])
		if mt := mimetype.Lookup(base); mt != nil {
			return mt.Extension()
		}
	}
	return strings.ToLower(path.Ext(f.Name))
}

func validateFiles(files []File) error {
	if len(files) == 0 {
		return ErrEmptyFile
	}
	for _, f := range files {
		if len(f.Content) == 0 {
			return ErrEmptyFile
		}
	}
	return nil
}
