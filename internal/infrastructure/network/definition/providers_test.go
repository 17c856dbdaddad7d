package networkdefinition

import (
	"testing"

	"nft_manager/internal/infrastructure/configloader"
	"nft_manager/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderActivatesTrackedChainsInOrder(t *testing.T) {
	p := NewNetworkDefinitionProvider(logger.NewNop(), []uint64{8453, 1, 1868, 137, 10}, nil)

	defs := p.GetAllNetworkDefinitions()
	require.Len(t, defs, 5)
	ids := make([]uint64, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ChainID)
		assert.NotEmpty(t, d.PrimaryRPCURL, d.Name)
	}
	assert.Equal(t, []uint64{1, 10, 137, 1868, 8453}, ids)
}

func TestProviderOverridesAndUnknownChains(t *testing.T) {
	p := NewNetworkDefinitionProvider(logger.NewNop(), []uint64{1, 999}, []configloader.NetworkNodeConfig{
		{ChainID: 1, RPCURL: "https://rpc.example", FallbackRPCURLs: []string{"https://rpc2.example"}},
	})

	def, ok := p.GetNetworkDefinitionByChainID(1)
	require.True(t, ok)
	assert.Equal(t, "Ethereum Mainnet", def.Name)
	assert.Equal(t, []string{"https://rpc.example", "https://rpc2.example"}, def.RPCURLs())

	// 999 has no definition and is skipped.
	assert.Len(t, p.GetAllNetworkDefinitions(), 1)
	_, ok = p.GetNetworkDefinitionByChainID(999)
	assert.False(t, ok)

	// Known but untracked chains still resolve.
	def, ok = p.GetNetworkDefinitionByChainID(42161)
	require.True(t, ok)
	assert.Equal(t, "Arbitrum One", def.Name)
}

func TestProviderAddsCustomChain(t *testing.T) {
	p := NewNetworkDefinitionProvider(logger.NewNop(), []uint64{31337}, []configloader.NetworkNodeConfig{
		{ChainID: 31337, Name: "Local", RPCURL: "http://127.0.0.1:8545"},
	})
	def, ok := p.GetNetworkDefinitionByChainID(31337)
	require.True(t, ok)
	assert.Equal(t, "Local", def.Name)
	assert.Equal(t, "chain-31337", def.Identifier)
}
