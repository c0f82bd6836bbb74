package setup

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/NethermindEth/solmint/pkg/minter/debug"
	"github.com/NethermindEth/solmint/pkg/minter/sealing"
)

const walletSeedSize = 32

// SetupResult is the runtime configuration plus the secrets generated on
// first boot. Only the secrets are sealed to disk; Config is reloaded from
// the environment on every start.
type SetupResult struct {
	Config     *Config `json:"-"`
	WalletSeed []byte  `json:"wallet_seed"`
}

type SecretStore interface {
	WriteFile(ctx context.Context, filePath string, data []byte) error
	ReadFile(ctx context.Context, filePath string) ([]byte, error)
}

func Setup(ctx context.Context) (*SetupResult, error) {
	config, err := NewConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to get config from env: %w", err)
	}

	return SetupWithStore(ctx, config, sealing.NewSealerFromEndpoint(config.DstackTappdEndpoint))
}

// SetupWithStore loads the sealed secrets from store, generating and sealing
// fresh ones when none can be read.
func SetupWithStore(ctx context.Context, config *Config, store SecretStore) (*SetupResult, error) {
	if config == nil {
		return nil, errors.New("config is nil")
	}

	setupResult, err := loadSetup(ctx, config, store)
	if err != nil {
		slog.Warn("failed to load setup, initializing new setup", "error", err)
		return initializeSetup(ctx, config, store)
	}

	if debug.IsDebugShowSetup() {
		slog.Info("setup output", "setupOutput", setupResult)
	}

	return setupResult, nil
}

func generateSetup(config *Config) (*SetupResult, error) {
	walletSeed := make([]byte, walletSeedSize)
	if _, err := io.ReadFull(rand.Reader, walletSeed); err != nil {
		return nil, fmt.Errorf("failed to generate wallet seed: %w", err)
	}

	return &SetupResult{
		Config:     config,
		WalletSeed: walletSeed,
	}, nil
}

func initializeSetup(ctx context.Context, config *Config, store SecretStore) (*SetupResult, error) {
	setupResult, err := generateSetup(config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate setup: %w", err)
	}

	if err := writeSetupResult(ctx, config, store, setupResult); err != nil {
		return nil, fmt.Errorf("failed to write setup output: %w", err)
	}

	slog.Info("wrote sealed setup output", "file", config.SecureFile)

	return setupResult, nil
}

func loadSetup(ctx context.Context, config *Config, store SecretStore) (*SetupResult, error) {
	setupResult, err := readSetupResult(ctx, config, store)
	if err != nil {
		return nil, err
	}
	if len(setupResult.WalletSeed) == 0 {
		return nil, errors.New("sealed setup has no wallet seed")
	}

	setupResult.Config = config
	slog.Info("loaded sealed setup output", "file", config.SecureFile)

	return setupResult, nil
}

func writeSetupResult(ctx context.Context, config *Config, store SecretStore, setupResult *SetupResult) error {
	data, err := json.Marshal(setupResult)
	if err != nil {
		return fmt.Errorf("failed to marshal setup result: %w", err)
	}

	return store.WriteFile(ctx, config.SecureFile, data)
}

func readSetupResult(ctx context.Context, config *Config, store SecretStore) (*SetupResult, error) {
	data, err := store.ReadFile(ctx, config.SecureFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read sealed file: %w", err)
	}

	var setupResult SetupResult
	if err := json.Unmarshal(data, &setupResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal setup result: %w", err)
	}

	return &setupResult, nil
}
