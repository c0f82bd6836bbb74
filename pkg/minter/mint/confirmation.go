package mint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrTransactionRejected = errors.New("mint: transaction rejected on chain")

const defaultPollingInterval = 2 * time.Second

type Confirmer struct {
	client          ChainClient
	pollingInterval time.Duration
}

type ConfirmerOptions struct {
	Client          ChainClient
	PollingInterval time.Duration
}

func NewConfirmer(opts ConfirmerOptions) *Confirmer {
	if opts.PollingInterval == 0 {
		opts.PollingInterval = defaultPollingInterval
	}

	return &Confirmer{
		client:          opts.Client,
		pollingInterval: opts.PollingInterval,
	}
}

// WaitForConfirmation polls the signature until the cluster reports it
// confirmed or failed, or ctx ends. Lookup errors are retried on the next
// tick; the last one is reported if ctx ends first.
func (c *Confirmer) WaitForConfirmation(ctx context.Context, signature string) error {
	var lastErr error

	for {
		select {
		case <-time.After(c.pollingInterval):
			status, err := c.client.SignatureStatus(ctx, signature)
			if err != nil {
				slog.Warn("failed to get signature status", "signature", signature, "error", err)
				lastErr = err
				continue
			}

			if !status.Found {
				slog.Debug("signature not found yet", "signature", signature)
				continue
			}

			if status.Err != "" {
				return fmt.Errorf("%w: %s", ErrTransactionRejected, status.Err)
			}

			if status.Confirmed {
				return nil
			}
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("%w (last status error: %v)", ctx.Err(), lastErr)
			}
			return ctx.Err()
		}
	}
}
