package mint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	"github.com/NethermindEth/solmint/pkg/minter/nft"
	"github.com/NethermindEth/solmint/pkg/minter/wallet"
)

var (
	ErrTransactionFailed = errors.New("mint: transaction failed")
	ErrEmptyMetadataUri  = errors.New("mint: metadata uri is empty")
)

// TransactionError carries the stage of submission that failed. It matches
// ErrTransactionFailed under errors.Is.
type TransactionError struct {
	Reason string
	Err    error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("mint: %s: %v", e.Reason, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func (e *TransactionError) Is(target error) bool {
	return target == ErrTransactionFailed
}

func transactionError(reason string, err error) error {
	return &TransactionError{Reason: reason, Err: err}
}

type Result struct {
	TokenAddress  string        `json:"token_address"`
	Signature     string        `json:"signature"`
	MetadataUri   string        `json:"metadata_uri"`
	ExplorerLinks ExplorerLinks `json:"explorer_links"`
}

type Orchestrator struct {
	client    ChainClient
	wallet    wallet.Wallet
	confirmer *Confirmer
	cluster   string
}

type OrchestratorOptions struct {
	Client          ChainClient
	Wallet          wallet.Wallet
	Cluster         string
	PollingInterval time.Duration
}

func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.Cluster == "" {
		opts.Cluster = DefaultCluster
	}

	return &Orchestrator{
		client: opts.Client,
		wallet: opts.Wallet,
		confirmer: NewConfirmer(ConfirmerOptions{
			Client:          opts.Client,
			PollingInterval: opts.PollingInterval,
		}),
		cluster: opts.Cluster,
	}
}

func (o *Orchestrator) Cluster() string {
	return o.cluster
}

// Mint creates a fresh mint account, attaches Metaplex metadata pointing at
// metadataUri and a master edition with a supply of one, and mints the single
// token to the wallet. The call returns once the cluster confirms the
// transaction.
func (o *Orchestrator) Mint(ctx context.Context, metadataUri string, draft *nft.Draft) (*Result, error) {
	if draft == nil {
		return nil, nft.ErrNilDraft
	}
	if metadataUri == "" {
		return nil, ErrEmptyMetadataUri
	}
	if !o.wallet.Connected() {
		return nil, wallet.ErrNotConnected
	}

	mintAccount := types.NewAccount()

	message, err := o.buildMessage(ctx, mintAccount.PublicKey, metadataUri, draft)
	if err != nil {
		return nil, err
	}

	tx, err := o.wallet.SignTransaction(ctx, message, mintAccount)
	if err != nil {
		return nil, transactionError("signing", err)
	}
	if len(tx.Signatures) == 0 {
		return nil, transactionError("signing", errors.New("transaction has no signatures"))
	}
	signature := base58.Encode(tx.Signatures[0])

	slog.Info("submitting mint transaction", "mint", mintAccount.PublicKey.ToBase58(), "signature", signature)

	sent, err := o.client.SendTransaction(ctx, tx)
	if err != nil {
		return nil, transactionError("submission", err)
	}
	if sent != "" && sent != signature {
		slog.Warn("rpc returned unexpected signature", "expected", signature, "got", sent)
		signature = sent
	}

	if err := o.confirmer.WaitForConfirmation(ctx, signature); err != nil {
		return nil, transactionError("confirmation", err)
	}

	tokenAddress := mintAccount.PublicKey.ToBase58()
	slog.Info("mint confirmed", "mint", tokenAddress, "signature", signature)

	return &Result{
		TokenAddress:  tokenAddress,
		Signature:     signature,
		MetadataUri:   metadataUri,
		ExplorerLinks: NewExplorerLinks(signature, tokenAddress, o.cluster),
	}, nil
}

func (o *Orchestrator) buildMessage(ctx context.Context, mint common.PublicKey, metadataUri string, draft *nft.Draft) (types.Message, error) {
	owner := o.wallet.PublicKey()

	ata, _, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return types.Message{}, fmt.Errorf("failed to derive token account: %w", err)
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint)
	if err != nil {
		return types.Message{}, fmt.Errorf("failed to derive metadata account: %w", err)
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint)
	if err != nil {
		return types.Message{}, fmt.Errorf("failed to derive master edition: %w", err)
	}

	rent, err := o.client.MinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return types.Message{}, transactionError("rent lookup", err)
	}
	blockhash, err := o.client.LatestBlockhash(ctx)
	if err != nil {
		return types.Message{}, transactionError("blockhash lookup", err)
	}

	maxSupply := uint64(1)

	return types.NewMessage(types.NewMessageParam{
		FeePayer:        owner,
		RecentBlockhash: blockhash,
		Instructions: []types.Instruction{
			system.CreateAccount(system.CreateAccountParam{
				From:     owner,
				New:      mint,
				Owner:    common.TokenProgramID,
				Lamports: rent,
				Space:    token.MintAccountSize,
			}),
			token.InitializeMint(token.InitializeMintParam{
				Decimals:   0,
				Mint:       mint,
				MintAuth:   owner,
				FreezeAuth: &owner,
			}),
			token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
				Metadata:                metadataPubkey,
				Mint:                    mint,
				MintAuthority:           owner,
				UpdateAuthority:         owner,
				Payer:                   owner,
				UpdateAuthorityIsSigner: true,
				IsMutable:               true,
				Data: token_metadata.DataV2{
					Name:                 draft.Name,
					Symbol:               draft.Symbol,
					Uri:                  metadataUri,
					SellerFeeBasisPoints: BasisPoints(draft.Royalty),
					Creators: &[]token_metadata.Creator{
						{
							Address:  owner,
							Verified: true,
							Share:    100,
						},
					},
				},
			}),
			associated_token_account.CreateAssociatedTokenAccount(associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 owner,
				Owner:                  owner,
				Mint:                   mint,
				AssociatedTokenAccount: ata,
			}),
			token.MintTo(token.MintToParam{
				Mint:   mint,
				To:     ata,
				Auth:   owner,
				Amount: 1,
			}),
			token_metadata.CreateMasterEditionV3(token_metadata.CreateMasterEditionParam{
				Edition:         masterEditionPubkey,
				Mint:            mint,
				UpdateAuthority: owner,
				MintAuthority:   owner,
				Metadata:        metadataPubkey,
				Payer:           owner,
				MaxSupply:       &maxSupply,
			}),
		},
	}), nil
}
