package provider

import (
	"context"
	"math/big"

	"nft_manager/internal/app/port"
	"nft_manager/internal/infrastructure/configloader"
	"nft_manager/internal/infrastructure/walletloader"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// WalletInfo describes the connected wallet as served to callers.
type WalletInfo struct {
	Address string `json:"address"`
	CanSign bool   `json:"canSign"`
}

// WalletProviderImpl implements port.WalletProvider over a loaded key wallet.
type WalletProviderImpl struct {
	wallet *walletloader.KeyWallet
	logger port.Logger
}

// NewWalletProvider loads the wallet described by cfg.
func NewWalletProvider(cfg configloader.WalletConfig, logger port.Logger) (*WalletProviderImpl, error) {
	logger.Debug("Loading wallet", "env", cfg.PrivateKeyEnv, "key_file", cfg.KeyFile)
	w, err := walletloader.Load(cfg.PrivateKeyEnv, cfg.KeyFile, cfg.WatchAddress, logger)
	if err != nil {
		logger.Error("Failed to load wallet", "error", err)
		return nil, err
	}
	return &WalletProviderImpl{wallet: w, logger: logger}, nil
}

// NewWalletProviderFrom wraps an already loaded wallet.
func NewWalletProviderFrom(w *walletloader.KeyWallet, logger port.Logger) *WalletProviderImpl {
	return &WalletProviderImpl{wallet: w, logger: logger}
}

func (p *WalletProviderImpl) Address() common.Address {
	return p.wallet.Address()
}

func (p *WalletProviderImpl) Transactor(ctx context.Context, from common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := p.wallet.Transactor(ctx, from, chainID)
	if err != nil {
		p.logger.Warn("Wallet declined to sign", "from", from.Hex(), "chain_id", chainID.String(), "error", err)
		return nil, err
	}
	return opts, nil
}

// Info returns the wallet address and whether transfers can be signed.
func (p *WalletProviderImpl) Info() WalletInfo {
	return WalletInfo{Address: p.wallet.Address().Hex(), CanSign: p.wallet.CanSign()}
}

var _ port.WalletProvider = (*WalletProviderImpl)(nil)
