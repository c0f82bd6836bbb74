package nft

import (
	"context"
	"errors"
	"fmt"

	"github.com/NethermindEth/solmint/pkg/minter/filestorage"
)

var (
	ErrEmptyImage = errors.New("nft: image is empty")
	ErrNoUri      = errors.New("nft: storage returned no uri")
	ErrNilAsset   = errors.New("nft: uploaded asset is nil")
	ErrNilDraft   = errors.New("nft: draft is nil")
)

type NftUploader struct {
	uploader filestorage.Uploader
}

func NewNftUploader(uploader filestorage.Uploader) *NftUploader {
	return &NftUploader{
		uploader: uploader,
	}
}

// UploadImage stores the image bytes once. An empty contentType is sniffed
// from the bytes.
func (u *NftUploader) UploadImage(ctx context.Context, blob []byte, fileName, uniqueName, contentType string) (*UploadedAsset, error) {
	if len(blob) == 0 {
		return nil, ErrEmptyImage
	}
	if contentType == "" {
		contentType = filestorage.DetectContentType(blob)
	}

	uris, err := u.uploader.Upload(ctx, filestorage.File{
		Name:        fileName,
		UniqueName:  uniqueName,
		ContentType: contentType,
		Content:     blob,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	if len(uris) == 0 || uris[0] == "" {
		return nil, ErrNoUri
	}

	return &UploadedAsset{
		Uri:         uris[0],
		ContentType: contentType,
	}, nil
}

// UploadMetadata composes the metadata document for draft and uploads it.
func (u *NftUploader) UploadMetadata(ctx context.Context, draft *Draft, asset *UploadedAsset) (*MetadataDocument, error) {
	if draft == nil {
		return nil, ErrNilDraft
	}
	if asset == nil {
		return nil, ErrNilAsset
	}

	document := ComposeMetadata(draft, asset)

	uri, err := u.uploader.UploadJson(ctx, document)
	if err != nil {
		return nil, fmt.Errorf("failed to upload metadata: %w", err)
	}
	if uri == "" {
		return nil, ErrNoUri
	}

	document.Uri = uri
	return &document, nil
}
