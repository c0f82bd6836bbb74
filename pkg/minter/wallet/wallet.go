package wallet

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrNotConnected = errors.New("wallet: not connected")

// Wallet is the signing capability handed to the mint pipeline. It pays the
// fees and becomes the update authority of every token it mints.
type Wallet interface {
	Connected() bool
	PublicKey() common.PublicKey
	SignTransaction(ctx context.Context, message types.Message, cosigners ...types.Account) (types.Transaction, error)
}

// KeypairWallet holds an ed25519 keypair derived from a seed.
type KeypairWallet struct {
	account   types.Account
	seed      []byte
	connected atomic.Bool
}

var _ Wallet = (*KeypairWallet)(nil)

// NewKeypairWallet derives the keypair from keccak256(seed). The returned
// wallet starts connected.
func NewKeypairWallet(seed []byte) (*KeypairWallet, error) {
	if len(seed) == 0 {
		return nil, errors.New("wallet: seed is empty")
	}

	privateKey := ed25519.NewKeyFromSeed(crypto.Keccak256(seed))

	account, err := types.AccountFromBytes(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create account from seed: %w", err)
	}

	w := &KeypairWallet{
		account: account,
		seed:    seed,
	}
	w.connected.Store(true)

	return w, nil
}

func (w *KeypairWallet) Account() types.Account {
	return w.account
}

func (w *KeypairWallet) PublicKey() common.PublicKey {
	return w.account.PublicKey
}

func (w *KeypairWallet) Address() string {
	return w.account.PublicKey.ToBase58()
}

func (w *KeypairWallet) Connected() bool {
	return w.connected.Load()
}

func (w *KeypairWallet) Connect() {
	w.connected.Store(true)
}

func (w *KeypairWallet) Disconnect() {
	w.connected.Store(false)
}
