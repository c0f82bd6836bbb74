package minter

import (
	"context"
	"errors"

	"github.com/Dstack-TEE/dstack/sdk/go/tappd"
)

var ErrNoTappdClient = errors.New("tappd client is not configured")

type TappdClient interface {
	DeriveKeyWithSubject(ctx context.Context, path string, subject string) (*tappd.DeriveKeyResponse, error)
	TdxQuote(ctx context.Context, reportData []byte) (*tappd.TdxQuoteResponse, error)
}

// Quote returns a TDX quote whose report data commits to the minting wallet
// and cluster.
func (m *Minter) Quote(ctx context.Context) (string, error) {
	if m.tappdClient == nil {
		return "", ErrNoTappdClient
	}

	reportDataBytes, err := generateReportDataBytes(m.wallet.PublicKey(), m.cluster)
	if err != nil {
		return "", err
	}

	quote, err := m.tappdClient.TdxQuote(ctx, reportDataBytes)
	if err != nil {
		return "", err
	}

	return quote.Quote, nil
}
