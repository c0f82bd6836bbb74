package minter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dstack-TEE/dstack/sdk/go/tappd"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	minter "github.com/NethermindEth/solmint/pkg/minter"
	"github.com/NethermindEth/solmint/pkg/minter/filestorage"
	"github.com/NethermindEth/solmint/pkg/minter/mint"
	"github.com/NethermindEth/solmint/pkg/minter/nft"
	"github.com/NethermindEth/solmint/pkg/minter/pipeline"
	"github.com/NethermindEth/solmint/pkg/minter/setup"
	"github.com/NethermindEth/solmint/pkg/minter/wallet"
)

var walletSeed = [2048]byte{}

type mockUploader struct {
	upload     func(ctx context.Context, files ...filestorage.File) ([]string, error)
	uploadJson func(ctx context.Context, json interface{}) (string, error)
}

func (m *mockUploader) Upload(ctx context.Context, files ...filestorage.File) ([]string, error) {
	return m.upload(ctx, files...)
}

func (m *mockUploader) UploadJson(ctx context.Context, json interface{}) (string, error) {
	return m.uploadJson(ctx, json)
}

type mockTappdClient struct {
	tdxQuote             func(ctx context.Context, reportData []byte) (*tappd.TdxQuoteResponse, error)
	deriveKeyWithSubject func(ctx context.Context, path string, subject string) (*tappd.DeriveKeyResponse, error)
}

func (m *mockTappdClient) TdxQuote(ctx context.Context, reportData []byte) (*tappd.TdxQuoteResponse, error) {
	return m.tdxQuote(ctx, reportData)
}

func (m *mockTappdClient) DeriveKeyWithSubject(ctx context.Context, path string, subject string) (*tappd.DeriveKeyResponse, error) {
	return m.deriveKeyWithSubject(ctx, path, subject)
}

type mockChainClient struct {
	sendTransaction func(ctx context.Context, tx types.Transaction) (string, error)
}

func (m *mockChainClient) LatestBlockhash(ctx context.Context) (string, error) {
	return types.NewAccount().PublicKey.ToBase58(), nil
}

func (m *mockChainClient) MinimumBalanceForRentExemption(ctx context.Context, dataLength uint64) (uint64, error) {
	return 1461600, nil
}

func (m *mockChainClient) SendTransaction(ctx context.Context, tx types.Transaction) (string, error) {
	if m.sendTransaction != nil {
		return m.sendTransaction(ctx, tx)
	}
	return base58.Encode(tx.Signatures[0]), nil
}

func (m *mockChainClient) SignatureStatus(ctx context.Context, signature string) (mint.SignatureStatus, error) {
	return mint.SignatureStatus{Found: true, Confirmed: true}, nil
}

func testConfig(t *testing.T) *minter.Config {
	return &minter.Config{
		Uploader:    filestorage.NewMemoryUploader(""),
		ChainClient: &mockChainClient{},
		TappdClient: &mockTappdClient{},
		Registry:    prometheus.NewRegistry(),

		WalletSeed:         walletSeed[:],
		UploadDir:          t.TempDir(),
		UploadTimeout:      time.Second,
		SubmitTimeout:      time.Second,
		PollingInterval:    time.Millisecond,
		MaxConcurrentMints: 2,
	}
}

func setupTestMinter(t *testing.T, opts ...func(*minter.Config)) *minter.Minter {
	config := testConfig(t)
	for _, opt := range opts {
		opt(config)
	}

	m, err := minter.NewMinter(config)
	require.NoError(t, err)
	return m
}

func waitForTerminal(t *testing.T, m *minter.Minter, id string) pipeline.Snapshot {
	t.Helper()

	machine, err := m.GetDraft(id)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return machine.State().Terminal()
	}, 5*time.Second, 5*time.Millisecond)

	return machine.Snapshot()
}

func TestNewMinter(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := minter.NewMinter(nil)
		assert.Error(t, err)
	})

	t.Run("missing collaborators", func(t *testing.T) {
		config := testConfig(t)
		config.Uploader = nil
		_, err := minter.NewMinter(config)
		assert.Error(t, err)

		config = testConfig(t)
		config.ChainClient = nil
		_, err = minter.NewMinter(config)
		assert.Error(t, err)

		config = testConfig(t)
		config.WalletSeed = nil
		_, err = minter.NewMinter(config)
		assert.Error(t, err)
	})

	t.Run("deterministic address", func(t *testing.T) {
		w, err := wallet.NewKeypairWallet(walletSeed[:])
		require.NoError(t, err)

		m := setupTestMinter(t)
		assert.Equal(t, w.Address(), m.Address())
		assert.Equal(t, mint.DefaultCluster, m.Cluster())
	})
}

func TestNewMinterConfigFromSetupResult(t *testing.T) {
	_, err := minter.NewMinterConfigFromSetupResult(context.Background(), nil)
	assert.Error(t, err)

	_, err = minter.NewMinterConfigFromSetupResult(context.Background(), &setup.SetupResult{WalletSeed: []byte{1}})
	assert.Error(t, err)

	result := &setup.SetupResult{
		Config: &setup.Config{
			DstackTappdEndpoint: "http://localhost:8090",
			SolanaRpcUrl:        "http://localhost:8899",
			SolanaCluster:       "localnet",
			StorageBackend:      setup.StorageMemory,
			ApiIpPort:           ":9090",
			UploadDir:           "relay",
			UploadTimeout:       time.Second,
			SubmitTimeout:       2 * time.Second,
			ConfirmationPolling: time.Second,
			MaxConcurrentMints:  3,
		},
		WalletSeed: walletSeed[:],
	}

	config, err := minter.NewMinterConfigFromSetupResult(context.Background(), result)
	require.NoError(t, err)
	assert.IsType(t, &filestorage.MemoryUploader{}, config.Uploader)
	assert.IsType(t, &mint.RpcChainClient{}, config.ChainClient)
	assert.Equal(t, "localnet", config.Cluster)
	assert.Equal(t, ":9090", config.ApiIpPort)
	assert.Equal(t, 3, config.MaxConcurrentMints)
	assert.Equal(t, walletSeed[:], config.WalletSeed)

	result.Config.StorageBackend = setup.StoragePinata
	result.Config.PinataJwtKey = "jwt"
	config, err = minter.NewMinterConfigFromSetupResult(context.Background(), result)
	require.NoError(t, err)
	assert.IsType(t, &filestorage.PinataUploader{}, config.Uploader)

	result.Config.StorageBackend = "floppy"
	_, err = minter.NewMinterConfigFromSetupResult(context.Background(), result)
	assert.Error(t, err)
}

func TestMinter_Start(t *testing.T) {
	t.Run("with server", func(t *testing.T) {
		m := setupTestMinter(t, func(config *minter.Config) {
			config.ApiIpPort = "127.0.0.1:0"
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		assert.NoError(t, m.Start(ctx))
	})

	t.Run("without server", func(t *testing.T) {
		m := setupTestMinter(t)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		assert.NoError(t, m.Start(ctx))

		machine := m.CreateDraft(&nft.Draft{Name: "Rock"})
		_, err := m.MintDraft(context.Background(), machine.ID())
		assert.ErrorIs(t, err, minter.ErrShuttingDown)
	})
}

func TestMinter_MintDuringShutdown(t *testing.T) {
	m := setupTestMinter(t)

	machines := make([]*pipeline.Machine, 50)
	for i := range machines {
		machines[i] = m.CreateDraft(&nft.Draft{Name: "Rock"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- m.Start(ctx)
	}()

	var wg sync.WaitGroup
	for i, machine := range machines {
		if i == len(machines)/2 {
			cancel()
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := m.MintDraft(context.Background(), id)
			if err != nil {
				assert.ErrorIs(t, err, minter.ErrShuttingDown)
			}
		}(machine.ID())
	}
	wg.Wait()
	require.NoError(t, <-done)

	for _, machine := range machines {
		state := machine.State()
		assert.True(t, state == pipeline.StateIdle || state.Terminal(), "draft %s left in %s", machine.ID(), state)
	}
}

func TestMinter_Quote(t *testing.T) {
	var reportData []byte
	m := setupTestMinter(t, func(config *minter.Config) {
		config.Cluster = "testnet"
		config.TappdClient = &mockTappdClient{
			tdxQuote: func(ctx context.Context, data []byte) (*tappd.TdxQuoteResponse, error) {
				reportData = data
				return &tappd.TdxQuoteResponse{Quote: "test-quote"}, nil
			},
		}
	})

	quote, err := m.Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-quote", quote)

	require.Len(t, reportData, 64)
	assert.Equal(t, m.Wallet().PublicKey().Bytes(), reportData[:32])
	assert.Equal(t, crypto.Keccak256([]byte("testnet")), reportData[32:])

	noTappd := setupTestMinter(t, func(config *minter.Config) {
		config.TappdClient = nil
	})
	_, err = noTappd.Quote(context.Background())
	assert.ErrorIs(t, err, minter.ErrNoTappdClient)
}

func TestMinter_MintDraft(t *testing.T) {
	storage := filestorage.NewMemoryUploader("")
	m := setupTestMinter(t, func(config *minter.Config) {
		config.Uploader = storage
	})

	image := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 10*1024)...)
	machine := m.CreateDraft(&nft.Draft{
		Name:        "Rock",
		Symbol:      "RCK",
		Description: "A rock",
		Royalty:     5.5,
		Image:       image,
		ImageName:   "rock.png",
	})

	_, err := m.MintDraft(context.Background(), machine.ID())
	require.NoError(t, err)

	snapshot := waitForTerminal(t, m, machine.ID())
	require.Equal(t, pipeline.StateSucceeded, snapshot.State, "error: %v", snapshot.Error)
	require.NotNil(t, snapshot.Result)

	_, ok := storage.Resolve(snapshot.Result.MetadataUri)
	assert.True(t, ok)
	assert.Equal(t, 2, storage.Len())

	_, err = m.MintDraft(context.Background(), "missing")
	assert.ErrorIs(t, err, minter.ErrDraftNotFound)
}
