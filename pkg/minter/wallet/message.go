package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blocto/solana-go-sdk/types"
)

// SignTransaction signs message as fee payer, together with any cosigners
// the message requires (e.g. a freshly generated mint account).
func (w *KeypairWallet) SignTransaction(ctx context.Context, message types.Message, cosigners ...types.Account) (types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return types.Transaction{}, err
	}
	if !w.Connected() {
		return types.Transaction{}, ErrNotConnected
	}

	signers := make([]types.Account, 0, len(cosigners)+1)
	signers = append(signers, w.account)
	signers = append(signers, cosigners...)

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: message,
		Signers: signers,
	})
	if err != nil {
		return types.Transaction{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	slog.Debug("signed transaction", "signer", w.Address(), "cosigners", len(cosigners))

	return tx, nil
}
