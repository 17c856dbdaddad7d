package client

import (
	"context"
	"fmt"
	"time"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum/ethclient"
)

// EVMClient implements the port.BlockchainClient interface for EVM-compatible chains.
type EVMClient struct {
	*ethclient.Client
	netDef entity.NetworkDefinition
}

// NewEVMClient dials the primary RPC endpoint of netDef and falls back to the
// remaining ones in order. The remote chain id must match the definition.
func NewEVMClient(netDef entity.NetworkDefinition, connectionTimeout time.Duration) (port.BlockchainClient, error) {
	rpcURLs := netDef.RPCURLs()
	if len(rpcURLs) == 0 {
		return nil, fmt.Errorf("no RPC endpoints configured for network %s (chain %d)", netDef.Name, netDef.ChainID)
	}
	var lastErr error

	for _, rpcURL := range rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		client, err := ethclient.DialContext(ctx, rpcURL)
		if err != nil {
			cancel()
			lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
			continue
		}

		remoteChainID, err := client.ChainID(ctx)
		cancel()
		if err != nil {
			client.Close()
			lastErr = fmt.Errorf("failed to verify chainID for %s: %w", rpcURL, err)
			continue
		}
		if !remoteChainID.IsUint64() || remoteChainID.Uint64() != netDef.ChainID {
			client.Close()
			lastErr = fmt.Errorf("chainID mismatch for %s: expected %d, got %s", rpcURL, netDef.ChainID, remoteChainID)
			continue
		}
		return &EVMClient{Client: client, netDef: netDef}, nil
	}

	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", netDef.Name, lastErr)
}

// Definition returns the network definition for this client.
func (c *EVMClient) Definition() entity.NetworkDefinition {
	return c.netDef
}
