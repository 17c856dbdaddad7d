package provider

import (
	"strings"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// ChainInfo is one tracked chain as served to callers.
type ChainInfo struct {
	ChainID      uint64 `json:"chainId"`
	Name         string `json:"name"`
	Identifier   string `json:"identifier"`
	NativeSymbol string `json:"nativeSymbol"`
	ExplorerURL  string `json:"explorerUrl,omitempty"`
}

// ChainProvider exposes the fixed chain set inventories are aggregated over.
type ChainProvider struct {
	networks port.NetworkDefinitionProvider
	logger   port.Logger
}

func NewChainProvider(networks port.NetworkDefinitionProvider, logger port.Logger) *ChainProvider {
	return &ChainProvider{networks: networks, logger: logger}
}

// ChainIDs returns the tracked chain ids in ascending order.
func (p *ChainProvider) ChainIDs() []uint64 {
	defs := p.networks.GetAllNetworkDefinitions()
	ids := make([]uint64, 0, len(defs))
	for _, def := range defs {
		ids = append(ids, def.ChainID)
	}
	return ids
}

// Untracked returns the ids from chainIDs that have no network definition,
// in input order. Transfers on those chains cannot be submitted.
func (p *ChainProvider) Untracked(chainIDs []uint64) []uint64 {
	known := make(map[uint64]struct{})
	for _, id := range p.ChainIDs() {
		known[id] = struct{}{}
	}
	var out []uint64
	for _, id := range chainIDs {
		if _, ok := known[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func (p *ChainProvider) Chains() []ChainInfo {
	defs := p.networks.GetAllNetworkDefinitions()
	out := make([]ChainInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, chainInfo(def))
	}
	return out
}

// TxURL links a transaction hash to the chain's block explorer, or returns ""
// when the chain has none.
func (p *ChainProvider) TxURL(chainID uint64, txHash common.Hash) string {
	def, ok := p.networks.GetNetworkDefinitionByChainID(chainID)
	if !ok || def.BlockExplorerURL == "" {
		p.logger.Debug("No block explorer for chain", "chain_id", chainID)
		return ""
	}
	return strings.TrimRight(def.BlockExplorerURL, "/") + "/tx/" + txHash.Hex()
}

func chainInfo(def entity.NetworkDefinition) ChainInfo {
	return ChainInfo{
		ChainID:      def.ChainID,
		Name:         def.Name,
		Identifier:   def.Identifier,
		NativeSymbol: def.NativeSymbol,
		ExplorerURL:  def.BlockExplorerURL,
	}
}
