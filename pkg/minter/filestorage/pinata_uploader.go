package filestorage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/zde37/pinata-go-sdk/pinata"
)

const DefaultPinataGatewayUrl = "https://gateway.pinata.cloud/ipfs/"

type PinataUploader struct {
	jwtKey     string
	gatewayUrl string

	client *pinata.Client
}

var _ Uploader = (*PinataUploader)(nil)

func NewPinataUploader(jwtKey string, gatewayUrl string) *PinataUploader {
	if gatewayUrl == "" {
		gatewayUrl = DefaultPinataGatewayUrl
	}
	if !strings.HasSuffix(gatewayUrl, "/") {
		gatewayUrl += "/"
	}

	return &PinataUploader{
		jwtKey:     jwtKey,
		gatewayUrl: gatewayUrl,
		client:     pinata.New(pinata.NewAuthWithJWT(jwtKey)),
	}
}

func (u *PinataUploader) Upload(ctx context.Context, files ...File) ([]string, error) {
	if err := validateFiles(files); err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ipfsHash, err := u.pinFile(f)
		if err != nil {
			return nil, err
		}
		uris = append(uris, u.gatewayUrl+ipfsHash)
	}

	return uris, nil
}

func (u *PinataUploader) UploadJson(ctx context.Context, json interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pinResponse, err := u.client.PinJSON(json, nil)
	if err != nil {
		return "", fmt.Errorf("failed to upload json to pinata: %w", err)
	}

	return u.gatewayUrl + pinResponse.IpfsHash, nil
}

// pinFile stages the bytes in a temp file because the SDK pins from disk.
func (u *PinataUploader) pinFile(f File) (string, error) {
	tmp, err := os.CreateTemp("", "pinata-*"+extension(f))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(f.Content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	pinResponse, err := u.client.PinFile(tmp.Name(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to upload file to pinata: %w", err)
	}

	return pinResponse.IpfsHash, nil
}
