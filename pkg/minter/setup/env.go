package setup

const (
	EnvDstackTappdEndpoint = "DSTACK_TAPPD_ENDPOINT"
	EnvSecureFile          = "SECURE_FILE"
	EnvApiIpPort           = "API_IP_PORT"

	EnvSolanaRpcUrl        = "SOLANA_RPC_URL"
	EnvSolanaCluster       = "SOLANA_CLUSTER"
	EnvConfirmationPolling = "CONFIRMATION_POLLING_INTERVAL"

	EnvStorageBackend   = "STORAGE_BACKEND"
	EnvMemoryBaseUrl    = "MEMORY_STORAGE_BASE_URL"
	EnvPinataJwtKey     = "PINATA_JWT_KEY"
	EnvPinataGatewayUrl = "PINATA_GATEWAY_URL"
	EnvMinioEndpoint    = "MINIO_ENDPOINT"
	EnvMinioAccessKey   = "MINIO_ACCESS_KEY"
	EnvMinioSecretKey   = "MINIO_SECRET_KEY"
	EnvMinioBucket      = "MINIO_BUCKET"
	EnvMinioUseSSL      = "MINIO_USE_SSL"
	EnvMinioPublicUrl   = "MINIO_PUBLIC_URL"
	EnvS3Region         = "S3_REGION"
	EnvS3Bucket         = "S3_BUCKET"
	EnvS3Endpoint       = "S3_ENDPOINT"
	EnvS3PublicUrl      = "S3_PUBLIC_URL"

	EnvUploadDir          = "UPLOAD_DIR"
	EnvUploadTimeout      = "UPLOAD_TIMEOUT"
	EnvSubmitTimeout      = "SUBMIT_TIMEOUT"
	EnvMaxConcurrentMints = "MAX_CONCURRENT_MINTS"

	EnvOtelServiceName = "OTEL_SERVICE_NAME"
	EnvOtelEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOtelProtocol    = "OTEL_EXPORTER_OTLP_PROTOCOL"
	EnvOtelSampler     = "OTEL_TRACES_SAMPLER"
	EnvOtelSamplerArg  = "OTEL_TRACES_SAMPLER_ARG"
)
