package sealing

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Dstack-TEE/dstack/sdk/go/tappd"

	"github.com/NethermindEth/solmint/pkg/minter/debug"
)

const (
	sealingKeyPath    = "/solmint/sealing"
	sealingKeySubject = "wallet"
	sealingKeySize    = 32
)

var ErrCiphertextTooShort = errors.New("sealing: ciphertext too short")

type KeyDeriver interface {
	DeriveKeyWithSubject(ctx context.Context, path string, subject string) (*tappd.DeriveKeyResponse, error)
}

// Sealer persists secrets encrypted with a key only the enclave can derive.
// In plain mode files are written unencrypted.
type Sealer struct {
	deriveKey func(ctx context.Context) ([]byte, error)
	plain     bool
}

func NewSealer(deriver KeyDeriver, plain bool) *Sealer {
	return &Sealer{
		deriveKey: func(ctx context.Context) ([]byte, error) {
			return getSealingKey(ctx, deriver)
		},
		plain: plain,
	}
}

// NewSealerFromEndpoint talks to the tappd daemon at endpoint. Plain mode
// follows DEBUG_PLAIN_SETUP.
func NewSealerFromEndpoint(dstackTappdEndpoint string) *Sealer {
	client := tappd.NewTappdClient(tappd.WithEndpoint(dstackTappdEndpoint))
	return NewSealer(client, debug.IsDebugPlainSetup())
}

func (s *Sealer) Plain() bool {
	return s.plain
}

func (s *Sealer) WriteFile(ctx context.Context, filePath string, data []byte) error {
	if s.plain {
		return os.WriteFile(filePath, data, 0600)
	}

	key, err := s.deriveKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sealing key: %w", err)
	}

	ciphertext, err := seal(key, data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filePath, ciphertext, 0600); err != nil {
		return fmt.Errorf("failed to write secure file: %w", err)
	}

	return nil
}

func (s *Sealer) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	if s.plain {
		return os.ReadFile(filePath)
	}

	ciphertext, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read secure file: %w", err)
	}

	key, err := s.deriveKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sealing key: %w", err)
	}

	return unseal(key, ciphertext)
}

func getSealingKey(ctx context.Context, deriver KeyDeriver) ([]byte, error) {
	sealingKeyResp, err := deriver.DeriveKeyWithSubject(ctx, sealingKeyPath, sealingKeySubject)
	if err != nil {
		return nil, fmt.Errorf("failed to derive sealing key: %w", err)
	}

	sealingKey, err := sealingKeyResp.ToBytes(sealingKeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to convert sealing key to bytes: %w", err)
	}

	return sealingKey, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

func seal(key, data []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to create nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, data, nil), nil
}

func unseal(key, ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrCiphertextTooShort
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}

	return plaintext, nil
}
