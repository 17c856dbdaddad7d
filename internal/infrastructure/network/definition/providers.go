package networkdefinition

import (
	"fmt"
	"sort"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"
	"nft_manager/internal/infrastructure/configloader"
)

// NetworkDefinitionProvider provides network definitions.
type NetworkDefinitionProvider struct {
	logger            port.Logger
	allNetworkDefs    map[uint64]entity.NetworkDefinition
	activeNetworkDefs []entity.NetworkDefinition
}

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = entity.NetworkDefinition{
		ChainID:          1,
		Name:             "Ethereum Mainnet",
		Identifier:       "ethereum",
		NativeSymbol:     "ETH",
		PrimaryRPCURL:    "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs:  []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		BlockExplorerURL: "https://etherscan.io",
	}
	Optimism = entity.NetworkDefinition{
		ChainID:          10,
		Name:             "OP Mainnet",
		Identifier:       "optimism",
		NativeSymbol:     "ETH",
		PrimaryRPCURL:    "https://mainnet.optimism.io",
		FallbackRPCURLs:  []string{"https://optimism.publicnode.com", "https://rpc.ankr.com/optimism"},
		BlockExplorerURL: "https://optimistic.etherscan.io",
	}
	Polygon = entity.NetworkDefinition{
		ChainID:          137,
		Name:             "Polygon PoS",
		Identifier:       "polygon",
		NativeSymbol:     "POL",
		PrimaryRPCURL:    "https://polygon-rpc.com/",
		FallbackRPCURLs:  []string{"https://rpc.ankr.com/polygon", "https://polygon.publicnode.com"},
		BlockExplorerURL: "https://polygonscan.com",
	}
	Soneium = entity.NetworkDefinition{
		ChainID:          1868,
		Name:             "Soneium",
		Identifier:       "soneium",
		NativeSymbol:     "ETH",
		PrimaryRPCURL:    "https://rpc.soneium.org",
		FallbackRPCURLs:  []string{},
		BlockExplorerURL: "https://soneium.blockscout.com",
	}
	Base = entity.NetworkDefinition{
		ChainID:          8453,
		Name:             "Base Mainnet",
		Identifier:       "base",
		NativeSymbol:     "ETH",
		PrimaryRPCURL:    "https://mainnet.base.org",
		FallbackRPCURLs:  []string{"https://base.publicnode.com", "https://base.llamarpc.com"},
		BlockExplorerURL: "https://basescan.org",
	}
	Arbitrum = entity.NetworkDefinition{
		ChainID:          42161,
		Name:             "Arbitrum One",
		Identifier:       "arbitrum",
		NativeSymbol:     "ETH",
		PrimaryRPCURL:    "https://arb1.arbitrum.io/rpc",
		FallbackRPCURLs:  []string{"https://arbitrum.llamarpc.com", "https://arbitrum.publicnode.com"},
		BlockExplorerURL: "https://arbiscan.io",
	}
)

var allKnownDefinitions = map[uint64]entity.NetworkDefinition{ //nolint:gochecknoglobals
	Ethereum.ChainID: Ethereum,
	Optimism.ChainID: Optimism,
	Polygon.ChainID:  Polygon,
	Soneium.ChainID:  Soneium,
	Base.ChainID:     Base,
	Arbitrum.ChainID: Arbitrum,
}

// NewNetworkDefinitionProvider activates the networks named by chainIDs.
// Entries from overrides replace or extend the built-in definitions.
func NewNetworkDefinitionProvider(log port.Logger, chainIDs []uint64, overrides []configloader.NetworkNodeConfig) *NetworkDefinitionProvider {
	p := &NetworkDefinitionProvider{
		logger:            log,
		allNetworkDefs:    make(map[uint64]entity.NetworkDefinition, len(allKnownDefinitions)+len(overrides)),
		activeNetworkDefs: make([]entity.NetworkDefinition, 0, len(chainIDs)),
	}
	for id, def := range allKnownDefinitions {
		p.allNetworkDefs[id] = def
	}

	for _, o := range overrides {
		def, known := p.allNetworkDefs[o.ChainID]
		if !known {
			def = entity.NetworkDefinition{ChainID: o.ChainID, Identifier: fmt.Sprintf("chain-%d", o.ChainID)}
		}
		if o.Name != "" {
			def.Name = o.Name
		}
		if o.Identifier != "" {
			def.Identifier = o.Identifier
		}
		if o.RPCURL != "" {
			def.PrimaryRPCURL = o.RPCURL
			def.FallbackRPCURLs = append([]string(nil), o.FallbackRPCURLs...)
		}
		p.allNetworkDefs[o.ChainID] = def
		p.logger.Debug("Network definition overridden from config", "chain_id", o.ChainID, "rpc_primary", def.PrimaryRPCURL)
	}

	for _, id := range chainIDs {
		def, ok := p.allNetworkDefs[id]
		if !ok {
			p.logger.Warn("Chain is tracked for inventory but has no RPC definition; transfers on it will fail", "chain_id", id)
			continue
		}
		p.activeNetworkDefs = append(p.activeNetworkDefs, def)
	}

	p.logger.Info(fmt.Sprintf("NetworkDefinitionProvider initialized. Active networks: %d", len(p.activeNetworkDefs)))
	return p
}

// GetAllNetworkDefinitions returns the list of active (tracked) network definitions.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defsCopy := make([]entity.NetworkDefinition, len(p.activeNetworkDefs))
	copy(defsCopy, p.activeNetworkDefs)
	sort.Slice(defsCopy, func(i, j int) bool { return defsCopy[i].ChainID < defsCopy[j].ChainID })
	return defsCopy
}

// GetNetworkDefinitionByChainID returns a network definition by chain id.
// Known but untracked networks are returned as well, with a warning.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.activeNetworkDefs {
		if def.ChainID == chainID {
			return def, true
		}
	}
	if def, ok := p.allNetworkDefs[chainID]; ok {
		p.logger.Warn(fmt.Sprintf("Network with ChainID %d found in all definitions but not in active tracked list.", chainID))
		return def, true
	}
	return entity.NetworkDefinition{}, false
}
