package walletloader

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"
	"nft_manager/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyWallet implements port.WalletProvider with a single in-memory private key.
// Without a key it is watch-only: it reports an address but declines to sign.
type KeyWallet struct {
	address common.Address
	key     *ecdsa.PrivateKey
	logger  port.Logger
}

// NewKeyWallet builds a signing wallet from a hex encoded private key.
func NewKeyWallet(hexKey string, logger port.Logger) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse wallet private key: %w", err)
	}
	return &KeyWallet{
		address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
		logger:  logger,
	}, nil
}

// NewWatchOnlyWallet builds a wallet that can be viewed but never signs.
func NewWatchOnlyWallet(address common.Address, logger port.Logger) *KeyWallet {
	return &KeyWallet{address: address, logger: logger}
}

// Load reads the private key from the environment variable envName, or from
// keyFile when the variable is empty. watchAddress is used when neither is set.
func Load(envName, keyFile, watchAddress string, logger port.Logger) (*KeyWallet, error) {
	if hexKey := utils.GetEnv(envName, ""); hexKey != "" {
		w, err := NewKeyWallet(hexKey, logger)
		if err != nil {
			return nil, fmt.Errorf("wallet key from $%s: %w", envName, err)
		}
		logger.Info("Wallet loaded from environment", "address", w.address.Hex())
		return w, nil
	}

	if keyFile != "" {
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read wallet key file %s: %w", keyFile, err)
		}
		w, err := NewKeyWallet(string(data), logger)
		if err != nil {
			return nil, fmt.Errorf("wallet key from %s: %w", keyFile, err)
		}
		logger.Info("Wallet loaded from key file", "address", w.address.Hex(), "path", keyFile)
		return w, nil
	}

	if common.IsHexAddress(watchAddress) {
		logger.Warn("No wallet key configured, running watch-only", "address", watchAddress)
		return NewWatchOnlyWallet(common.HexToAddress(watchAddress), logger), nil
	}
	return nil, fmt.Errorf("no wallet key in $%s, no key file and no valid watch address", envName)
}

// Address returns the connected wallet address.
func (w *KeyWallet) Address() common.Address {
	return w.address
}

// CanSign reports whether the wallet holds a private key.
func (w *KeyWallet) CanSign() bool {
	return w.key != nil
}

// Transactor returns signing options for from on chainID.
func (w *KeyWallet) Transactor(_ context.Context, from common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if w.key == nil {
		return nil, fmt.Errorf("%w: wallet %s is watch-only", entity.ErrTransferRejected, w.address.Hex())
	}
	if from != w.address {
		w.logger.Warn("Declining to sign for foreign account", "from", from.Hex(), "wallet", w.address.Hex())
		return nil, fmt.Errorf("%w: wallet %s cannot sign for %s", entity.ErrTransferRejected, w.address.Hex(), from.Hex())
	}
	opts, err := bind.NewKeyedTransactorWithChainID(w.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor for chain %s: %w", chainID, err)
	}
	return opts, nil
}
