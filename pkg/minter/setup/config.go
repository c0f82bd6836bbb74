package setup

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/blocto/solana-go-sdk/rpc"

	"github.com/NethermindEth/solmint/pkg/minter/debug"
	"github.com/NethermindEth/solmint/pkg/minter/filestorage"
	"github.com/NethermindEth/solmint/pkg/minter/tracing"
)

const (
	StorageMemory = "memory"
	StoragePinata = "pinata"
	StorageMinio  = "minio"
	StorageS3     = "s3"

	defaultCluster             = "devnet"
	defaultApiIpPort           = ":8080"
	defaultUploadDir           = "uploads"
	defaultUploadTimeout       = 60 * time.Second
	defaultSubmitTimeout       = 90 * time.Second
	defaultConfirmationPolling = 2 * time.Second
	defaultMaxConcurrentMints  = 4
)

var clusters = map[string]bool{
	"devnet":       true,
	"testnet":      true,
	"mainnet-beta": true,
	"localnet":     true,
}

type Config struct {
	DstackTappdEndpoint string
	SecureFile          string
	ApiIpPort           string

	SolanaRpcUrl        string
	SolanaCluster       string
	ConfirmationPolling time.Duration

	StorageBackend   string
	MemoryBaseUrl    string
	PinataJwtKey     string
	PinataGatewayUrl string
	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioBucket      string
	MinioUseSSL      bool
	MinioPublicUrl   string
	S3Region         string
	S3Bucket         string
	S3Endpoint       string
	S3PublicUrl      string

	UploadDir          string
	UploadTimeout      time.Duration
	SubmitTimeout      time.Duration
	MaxConcurrentMints int

	Tracing tracing.Options
}

func NewConfigFromEnv() (*Config, error) {
	config := &Config{
		DstackTappdEndpoint: os.Getenv(EnvDstackTappdEndpoint),
		SecureFile:          os.Getenv(EnvSecureFile),
		ApiIpPort:           getEnv(EnvApiIpPort, defaultApiIpPort),

		SolanaRpcUrl:  getEnv(EnvSolanaRpcUrl, rpc.DevnetRPCEndpoint),
		SolanaCluster: getEnv(EnvSolanaCluster, defaultCluster),

		StorageBackend:   getEnv(EnvStorageBackend, StorageMemory),
		MemoryBaseUrl:    os.Getenv(EnvMemoryBaseUrl),
		PinataJwtKey:     os.Getenv(EnvPinataJwtKey),
		PinataGatewayUrl: getEnv(EnvPinataGatewayUrl, filestorage.DefaultPinataGatewayUrl),
		MinioEndpoint:    os.Getenv(EnvMinioEndpoint),
		MinioAccessKey:   os.Getenv(EnvMinioAccessKey),
		MinioSecretKey:   os.Getenv(EnvMinioSecretKey),
		MinioBucket:      os.Getenv(EnvMinioBucket),
		MinioPublicUrl:   os.Getenv(EnvMinioPublicUrl),
		S3Region:         os.Getenv(EnvS3Region),
		S3Bucket:         os.Getenv(EnvS3Bucket),
		S3Endpoint:       os.Getenv(EnvS3Endpoint),
		S3PublicUrl:      os.Getenv(EnvS3PublicUrl),

		UploadDir: getEnv(EnvUploadDir, defaultUploadDir),

		Tracing: tracing.Options{
			ServiceName: getEnv(EnvOtelServiceName, tracing.DefaultServiceName),
			Endpoint:    os.Getenv(EnvOtelEndpoint),
			Protocol:    getEnv(EnvOtelProtocol, tracing.ProtocolGrpc),
			Sampler:     os.Getenv(EnvOtelSampler),
			SamplerArg:  os.Getenv(EnvOtelSamplerArg),
		},
	}

	var err error
	if config.MinioUseSSL, err = getEnvBool(EnvMinioUseSSL, true); err != nil {
		return nil, err
	}
	if config.ConfirmationPolling, err = getEnvDuration(EnvConfirmationPolling, defaultConfirmationPolling); err != nil {
		return nil, err
	}
	if config.UploadTimeout, err = getEnvDuration(EnvUploadTimeout, defaultUploadTimeout); err != nil {
		return nil, err
	}
	if config.SubmitTimeout, err = getEnvDuration(EnvSubmitTimeout, defaultSubmitTimeout); err != nil {
		return nil, err
	}
	if config.MaxConcurrentMints, err = getEnvInt(EnvMaxConcurrentMints, defaultMaxConcurrentMints); err != nil {
		return nil, err
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.DstackTappdEndpoint == "" && !debug.IsDebugPlainSetup() {
		return errors.New("DSTACK_TAPPD_ENDPOINT is required")
	}
	if c.SecureFile == "" {
		return errors.New("SECURE_FILE is required")
	}
	if c.SolanaRpcUrl == "" {
		return errors.New("SOLANA_RPC_URL is required")
	}
	if !clusters[c.SolanaCluster] {
		return fmt.Errorf("SOLANA_CLUSTER %q is not a known cluster", c.SolanaCluster)
	}

	switch c.StorageBackend {
	case StorageMemory:
	case StoragePinata:
		if c.PinataJwtKey == "" {
			return errors.New("PINATA_JWT_KEY is required for pinata storage")
		}
	case StorageMinio:
		if c.MinioEndpoint == "" || c.MinioAccessKey == "" || c.MinioSecretKey == "" || c.MinioBucket == "" {
			return errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required for minio storage")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND %q is not supported", c.StorageBackend)
	}

	if c.UploadTimeout <= 0 {
		return errors.New("UPLOAD_TIMEOUT must be positive")
	}
	if c.SubmitTimeout <= 0 {
		return errors.New("SUBMIT_TIMEOUT must be positive")
	}
	if c.ConfirmationPolling <= 0 {
		return errors.New("CONFIRMATION_POLLING_INTERVAL must be positive")
	}
	if c.MaxConcurrentMints < 1 {
		return errors.New("MAX_CONCURRENT_MINTS must be at least 1")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
