package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NethermindEth/solmint/pkg/minter/mint"
	"github.com/NethermindEth/solmint/pkg/minter/nft"
	"github.com/NethermindEth/solmint/pkg/minter/wallet"
)

const (
	DefaultUploadTimeout = 60 * time.Second
	DefaultSubmitTimeout = 90 * time.Second

	tracerName = "github.com/NethermindEth/solmint/pkg/minter/pipeline"
)

type Uploader interface {
	UploadImage(ctx context.Context, blob []byte, fileName, uniqueName, contentType string) (*nft.UploadedAsset, error)
	UploadMetadata(ctx context.Context, draft *nft.Draft, asset *nft.UploadedAsset) (*nft.MetadataDocument, error)
}

type TokenMinter interface {
	Mint(ctx context.Context, metadataUri string, draft *nft.Draft) (*mint.Result, error)
}

type Pipeline struct {
	wallet   wallet.Wallet
	uploader Uploader
	minter   TokenMinter
	cache    *UploadCache
	metrics  *Metrics
	tracer   trace.Tracer

	uploadTimeout time.Duration
	submitTimeout time.Duration
}

type Options struct {
	Wallet   wallet.Wallet
	Uploader Uploader
	Minter   TokenMinter
	// Cache is optional; without it every attempt uploads again.
	Cache   *UploadCache
	Metrics *Metrics
	Tracer  trace.Tracer

	UploadTimeout time.Duration
	SubmitTimeout time.Duration
}

func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Wallet == nil {
		return nil, errors.New("wallet is nil")
	}
	if opts.Uploader == nil {
		return nil, errors.New("uploader is nil")
	}
	if opts.Minter == nil {
		return nil, errors.New("minter is nil")
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = DefaultUploadTimeout
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = DefaultSubmitTimeout
	}

	return &Pipeline{
		wallet:        opts.Wallet,
		uploader:      opts.Uploader,
		minter:        opts.Minter,
		cache:         opts.Cache,
		metrics:       opts.Metrics,
		tracer:        opts.Tracer,
		uploadTimeout: opts.UploadTimeout,
		submitTimeout: opts.SubmitTimeout,
	}, nil
}

// Submit runs one mint attempt for the machine's draft. It returns
// ErrMintInProgress without side effects if an attempt is already running;
// otherwise the machine ends in a terminal state holding either the returned
// result or the returned *Error.
func (p *Pipeline) Submit(ctx context.Context, m *Machine) (*mint.Result, error) {
	run, err := p.Start(m)
	if err != nil {
		return nil, err
	}
	return run(ctx)
}

// Start claims the machine for a new attempt and returns the remainder of
// the attempt, so it can run elsewhere (e.g. on a worker pool). The claim is
// held until the returned function completes; it must be called exactly once.
func (p *Pipeline) Start(m *Machine) (func(ctx context.Context) (*mint.Result, error), error) {
	draft, err := m.begin()
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) (*mint.Result, error) {
		return p.execute(ctx, m, draft)
	}, nil
}

func (p *Pipeline) execute(ctx context.Context, m *Machine, draft *nft.Draft) (*mint.Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Attempt", trace.WithAttributes(
		attribute.String("draft.id", m.ID()),
	))
	defer span.End()

	p.metrics.started()

	result, perr := p.run(ctx, m, draft)
	p.metrics.finished(perr)

	if perr != nil {
		m.fail(perr)

		span.SetStatus(codes.Error, perr.Message())
		if perr.Err != nil {
			span.RecordError(perr.Err)
		}
		slog.Error("mint attempt failed", "draft", m.ID(), "kind", perr.Kind.String(), "error", perr.Err)
		return nil, perr
	}

	m.succeed(result)
	slog.Info("mint attempt succeeded", "draft", m.ID(), "token", result.TokenAddress, "signature", result.Signature)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, m *Machine, draft *nft.Draft) (result *mint.Result, perr *Error) {
	defer func() {
		if r := recover(); r != nil {
			perr = unknownError(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := p.validate(draft); err != nil {
		return nil, err
	}

	fingerprint := draft.Fingerprint()
	cached := p.cache.Get(fingerprint)

	m.advance(StateUploadingAsset)
	asset := cached.Asset
	if asset == nil {
		uploaded, err := runStage(ctx, p, "upload_asset", p.uploadTimeout, func(ctx context.Context) (*nft.UploadedAsset, error) {
			return p.uploader.UploadImage(ctx, draft.Image, draft.ImageName, draft.Name, draft.ImageType)
		})
		if err != nil {
			return nil, uploadFailed(StageImage, err)
		}
		asset = uploaded
		p.cache.StoreAsset(fingerprint, asset)
	} else {
		slog.Info("reusing uploaded image", "draft", m.ID(), "uri", asset.Uri)
	}

	m.advance(StateUploadingMetadata)
	document := cached.Metadata
	if document == nil || document.Image != asset.Uri {
		uploaded, err := runStage(ctx, p, "upload_metadata", p.uploadTimeout, func(ctx context.Context) (*nft.MetadataDocument, error) {
			return p.uploader.UploadMetadata(ctx, draft, asset)
		})
		if err != nil {
			return nil, uploadFailed(StageMetadata, err)
		}
		document = uploaded
		p.cache.StoreMetadata(fingerprint, document)
	} else {
		slog.Info("reusing uploaded metadata", "draft", m.ID(), "uri", document.Uri)
	}

	m.advance(StateSubmitting)
	result, err := runStage(ctx, p, "submit", p.submitTimeout, func(ctx context.Context) (*mint.Result, error) {
		return p.minter.Mint(ctx, document.Uri, draft)
	})
	if err != nil {
		return nil, classifySubmitError(err)
	}
	if result == nil {
		return nil, unknownError(errors.New("minter returned no result"))
	}

	return result, nil
}

// validate checks the wallet once, then the image, then the text fields in
// order, then that the royalty is a finite number. It never touches the
// network.
func (p *Pipeline) validate(draft *nft.Draft) *Error {
	if !p.wallet.Connected() {
		return noWalletConnected()
	}
	if len(draft.Image) == 0 {
		return missingField("image")
	}

	fields := []struct {
		name  string
		value string
	}{
		{"name", draft.Name},
		{"symbol", draft.Symbol},
		{"description", draft.Description},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return missingField(field.name)
		}
	}
	if math.IsNaN(draft.Royalty) || math.IsInf(draft.Royalty, 0) {
		return missingField("royalty")
	}

	return nil
}

func classifySubmitError(err error) *Error {
	var txErr *mint.TransactionError
	switch {
	case errors.As(err, &txErr):
		return transactionFailed(txErr.Reason, err)
	case errors.Is(err, mint.ErrTransactionFailed):
		return transactionFailed("", err)
	case errors.Is(err, wallet.ErrNotConnected):
		return transactionFailed("wallet disconnected", err)
	case errors.Is(err, context.DeadlineExceeded):
		return transactionFailed("timeout", err)
	case errors.Is(err, context.Canceled):
		return transactionFailed("cancelled", err)
	default:
		return unknownError(err)
	}
}

func runStage[T any](ctx context.Context, p *Pipeline, name string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	value, err := fn(ctx)
	p.metrics.observeStage(name, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return value, err
}
