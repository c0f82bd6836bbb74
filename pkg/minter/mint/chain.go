package mint

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
)

// SignatureStatus is the ledger's view of a submitted transaction.
type SignatureStatus struct {
	// Found is false while the cluster has not seen the signature yet.
	Found     bool
	Confirmed bool
	// Err is the on-chain failure, empty on success.
	Err string
}

// ChainClient is the subset of the Solana RPC surface the orchestrator needs.
type ChainClient interface {
	LatestBlockhash(ctx context.Context) (string, error)
	MinimumBalanceForRentExemption(ctx context.Context, dataLength uint64) (uint64, error)
	SendTransaction(ctx context.Context, tx types.Transaction) (string, error)
	SignatureStatus(ctx context.Context, signature string) (SignatureStatus, error)
}

type RpcChainClient struct {
	client *client.Client
}

var _ ChainClient = (*RpcChainClient)(nil)

func NewRpcChainClient(endpoint string) *RpcChainClient {
	if endpoint == "" {
		endpoint = rpc.DevnetRPCEndpoint
	}
	return &RpcChainClient{client: client.NewClient(endpoint)}
}

func (c *RpcChainClient) LatestBlockhash(ctx context.Context) (string, error) {
	recent, err := c.client.GetLatestBlockhash(ctx)
	if err != nil {
		return "", err
	}
	return recent.Blockhash, nil
}

func (c *RpcChainClient) MinimumBalanceForRentExemption(ctx context.Context, dataLength uint64) (uint64, error) {
	return c.client.GetMinimumBalanceForRentExemption(ctx, dataLength)
}

func (c *RpcChainClient) SendTransaction(ctx context.Context, tx types.Transaction) (string, error) {
	return c.client.SendTransaction(ctx, tx)
}

func (c *RpcChainClient) SignatureStatus(ctx context.Context, signature string) (SignatureStatus, error) {
	status, err := c.client.GetSignatureStatus(ctx, signature)
	if err != nil {
		return SignatureStatus{}, err
	}
	if status == nil {
		return SignatureStatus{}, nil
	}

	result := SignatureStatus{Found: true}
	if status.Err != nil {
		result.Err = fmt.Sprintf("%v", status.Err)
		return result, nil
	}
	if status.ConfirmationStatus != nil {
		switch *status.ConfirmationStatus {
		case rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
			result.Confirmed = true
		}
	}

	return result, nil
}
