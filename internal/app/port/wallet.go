package port

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// WalletProvider supplies the active owner address and signs on its behalf.
// It never manages connection lifecycle.
type WalletProvider interface {
	// Address returns the connected wallet address.
	Address() common.Address

	// Transactor returns signing options for from on the given chain.
	// Requests for an account the wallet does not hold are declined with
	// entity.ErrTransferRejected.
	Transactor(ctx context.Context, from common.Address, chainID *big.Int) (*bind.TransactOpts, error)
}
