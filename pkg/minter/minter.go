package minter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Dstack-TEE/dstack/sdk/go/tappd"
	"github.com/alitto/pond/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/NethermindEth/solmint/pkg/minter/filestorage"
	"github.com/NethermindEth/solmint/pkg/minter/mint"
	"github.com/NethermindEth/solmint/pkg/minter/nft"
	"github.com/NethermindEth/solmint/pkg/minter/pipeline"
	"github.com/NethermindEth/solmint/pkg/minter/relay"
	"github.com/NethermindEth/solmint/pkg/minter/setup"
	"github.com/NethermindEth/solmint/pkg/minter/wallet"
)

var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrShuttingDown  = errors.New("minter is shutting down")
)

type Minter struct {
	wallet      *wallet.KeypairWallet
	pipeline    *pipeline.Pipeline
	relay       *relay.Relay
	tappdClient TappdClient
	apiRouter   *gin.Engine
	registry    *prometheus.Registry

	// poolMu orders queueing against shutdown: a claimed draft is always
	// handed to the pool before it stops.
	poolMu  sync.RWMutex
	pool    pond.Pool
	stopped bool

	drafts *expirable.LRU[string, *pipeline.Machine]

	cluster   string
	apiIpPort string
}

type Config struct {
	Uploader    filestorage.Uploader
	ChainClient mint.ChainClient
	TappdClient TappdClient
	// Registry receives the service metrics; a fresh one is created if nil.
	Registry *prometheus.Registry

	WalletSeed         []byte
	Cluster            string
	ApiIpPort          string
	UploadDir          string
	UploadTimeout      time.Duration
	SubmitTimeout      time.Duration
	PollingInterval    time.Duration
	MaxConcurrentMints int
}

const (
	draftCacheSize  = 10000
	draftCacheTTL   = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func NewMinter(config *Config) (*Minter, error) {
	if config == nil {
		return nil, errors.New("config is nil")
	}
	if config.Uploader == nil {
		return nil, errors.New("uploader is nil")
	}
	if config.ChainClient == nil {
		return nil, errors.New("chain client is nil")
	}
	if config.MaxConcurrentMints < 1 {
		config.MaxConcurrentMints = 1
	}

	registry := config.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	wallet, err := wallet.NewKeypairWallet(config.WalletSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	orchestrator := mint.NewOrchestrator(mint.OrchestratorOptions{
		Client:          config.ChainClient,
		Wallet:          wallet,
		Cluster:         config.Cluster,
		PollingInterval: config.PollingInterval,
	})

	metrics, err := pipeline.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}

	pipe, err := pipeline.NewPipeline(pipeline.Options{
		Wallet:        wallet,
		Uploader:      nft.NewNftUploader(config.Uploader),
		Minter:        orchestrator,
		Cache:         pipeline.NewUploadCache(pipeline.DefaultUploadCacheSize, pipeline.DefaultUploadCacheTTL),
		Metrics:       metrics,
		UploadTimeout: config.UploadTimeout,
		SubmitTimeout: config.SubmitTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	minter := &Minter{
		wallet:      wallet,
		pipeline:    pipe,
		relay:       relay.NewRelay(config.UploadDir),
		tappdClient: config.TappdClient,
		registry:    registry,
		pool:        pond.NewPool(config.MaxConcurrentMints),

		drafts: expirable.NewLRU[string, *pipeline.Machine](draftCacheSize, nil, draftCacheTTL),

		cluster:   orchestrator.Cluster(),
		apiIpPort: config.ApiIpPort,
	}

	router, err := minter.generateRouter()
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	minter.apiRouter = router

	return minter, nil
}

func NewMinterConfigFromSetupResult(ctx context.Context, setupResult *setup.SetupResult) (*Config, error) {
	if setupResult == nil {
		return nil, errors.New("setup result is nil")
	}
	if setupResult.Config == nil {
		return nil, errors.New("setup result has no config")
	}
	config := setupResult.Config

	uploader, err := newUploader(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s uploader: %w", config.StorageBackend, err)
	}

	return &Config{
		Uploader:    uploader,
		ChainClient: mint.NewRpcChainClient(config.SolanaRpcUrl),
		TappdClient: tappd.NewTappdClient(tappd.WithEndpoint(config.DstackTappdEndpoint)),

		WalletSeed:         setupResult.WalletSeed,
		Cluster:            config.SolanaCluster,
		ApiIpPort:          config.ApiIpPort,
		UploadDir:          config.UploadDir,
		UploadTimeout:      config.UploadTimeout,
		SubmitTimeout:      config.SubmitTimeout,
		PollingInterval:    config.ConfirmationPolling,
		MaxConcurrentMints: config.MaxConcurrentMints,
	}, nil
}

func newUploader(ctx context.Context, config *setup.Config) (filestorage.Uploader, error) {
	switch config.StorageBackend {
	case setup.StoragePinata:
		return filestorage.NewPinataUploader(config.PinataJwtKey, config.PinataGatewayUrl), nil
	case setup.StorageMinio:
		return filestorage.NewMinioUploader(ctx, filestorage.MinioOptions{
			Endpoint:  config.MinioEndpoint,
			AccessKey: config.MinioAccessKey,
			SecretKey: config.MinioSecretKey,
			Bucket:    config.MinioBucket,
			UseSSL:    config.MinioUseSSL,
			PublicUrl: config.MinioPublicUrl,
		})
	case setup.StorageS3:
		return filestorage.NewS3Uploader(ctx, filestorage.S3Options{
			Region:    config.S3Region,
			Bucket:    config.S3Bucket,
			Endpoint:  config.S3Endpoint,
			PublicUrl: config.S3PublicUrl,
		})
	case setup.StorageMemory, "":
		return filestorage.NewMemoryUploader(config.MemoryBaseUrl), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", config.StorageBackend)
	}
}

// Start serves the API until ctx ends, then waits for in-flight mints.
func (m *Minter) Start(ctx context.Context) error {
	slog.Info("starting minter", "address", m.Address(), "cluster", m.cluster)

	err := m.StartServer(ctx)

	m.poolMu.Lock()
	m.stopped = true
	m.poolMu.Unlock()
	m.pool.StopAndWait()

	return err
}

func (m *Minter) StartServer(ctx context.Context) error {
	if m.apiIpPort == "" {
		slog.Info("api ip port is empty, skipping server")
		<-ctx.Done()
		return nil
	}

	slog.Info("starting server", "address", m.Address(), "port", m.apiIpPort)

	server := &http.Server{
		Addr:    m.apiIpPort,
		Handler: otelhttp.NewHandler(m.apiRouter, "solmint"),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (m *Minter) CreateDraft(draft *nft.Draft) *pipeline.Machine {
	machine := pipeline.NewMachine(uuid.NewString(), draft)
	m.drafts.Add(machine.ID(), machine)
	return machine
}

func (m *Minter) GetDraft(id string) (*pipeline.Machine, error) {
	machine, ok := m.drafts.Get(id)
	if !ok {
		return nil, ErrDraftNotFound
	}
	return machine, nil
}

// MintDraft claims the draft and queues the attempt on the worker pool. The
// attempt outlives ctx's cancellation but keeps its values (e.g. trace span).
func (m *Minter) MintDraft(ctx context.Context, id string) (pipeline.Snapshot, error) {
	machine, err := m.GetDraft(id)
	if err != nil {
		return pipeline.Snapshot{}, err
	}

	m.poolMu.RLock()
	defer m.poolMu.RUnlock()
	if m.stopped || m.pool.Stopped() {
		return pipeline.Snapshot{}, ErrShuttingDown
	}

	run, err := m.pipeline.Start(machine)
	if err != nil {
		return machine.Snapshot(), err
	}

	attemptCtx := context.WithoutCancel(ctx)
	m.pool.Submit(func() {
		if _, err := run(attemptCtx); err != nil {
			slog.Debug("queued mint attempt failed", "draft", id, "error", err)
		}
	})

	return machine.Snapshot(), nil
}

func (m *Minter) Wallet() *wallet.KeypairWallet {
	return m.wallet
}

func (m *Minter) Address() string {
	return m.wallet.Address()
}

func (m *Minter) Cluster() string {
	return m.cluster
}

func (m *Minter) ApiIpPort() string {
	return m.apiIpPort
}
