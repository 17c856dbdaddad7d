package client

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"

	"golang.org/x/sync/singleflight"
)

const defaultProviderConnectionTimeout = 10 * time.Second

// DialFunc opens a client for a network definition.
type DialFunc func(netDef entity.NetworkDefinition, connectionTimeout time.Duration) (port.BlockchainClient, error)

// evmClientProvider implements the port.BlockchainClientProvider interface.
type evmClientProvider struct {
	networks          port.NetworkDefinitionProvider
	dial              DialFunc
	clients           map[uint64]port.BlockchainClient
	mu                sync.Mutex
	dials             singleflight.Group
	logger            port.Logger
	connectionTimeout time.Duration
}

// NewEVMClientProvider creates a new EVMClientProvider. A nil dial uses NewEVMClient.
func NewEVMClientProvider(networks port.NetworkDefinitionProvider, dial DialFunc, connectionTimeout time.Duration, logger port.Logger) port.BlockchainClientProvider {
	if dial == nil {
		dial = NewEVMClient
	}
	if connectionTimeout <= 0 {
		connectionTimeout = defaultProviderConnectionTimeout
	}
	return &evmClientProvider{
		networks:          networks,
		dial:              dial,
		clients:           make(map[uint64]port.BlockchainClient),
		logger:            logger,
		connectionTimeout: connectionTimeout,
	}
}

// GetClient retrieves a blockchain client for the given chain.
// Connections are cached to avoid reconnecting for every transfer.
func (p *evmClientProvider) GetClient(ctx context.Context, chainID uint64) (port.BlockchainClient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	client, exists := p.clients[chainID]
	p.mu.Unlock()
	if exists {
		return client, nil
	}

	netDef, ok := p.networks.GetNetworkDefinitionByChainID(chainID)
	if !ok {
		return nil, fmt.Errorf("no network definition for chain %d", chainID)
	}

	// Dials for one chain are shared; other chains are never blocked by them.
	v, err, _ := p.dials.Do(strconv.FormatUint(chainID, 10), func() (any, error) {
		p.mu.Lock()
		client, exists := p.clients[chainID]
		p.mu.Unlock()
		if exists {
			return client, nil
		}

		p.logger.Info("Creating new EVM client", "network", netDef.Name, "chain_id", chainID, "rpc_primary", netDef.PrimaryRPCURL)
		newClient, err := p.dial(netDef, p.connectionTimeout)
		if err != nil {
			p.logger.Error("Failed to create EVM client", "network", netDef.Name, "error", err)
			return nil, fmt.Errorf("failed to create EVM client for %s: %w", netDef.Name, err)
		}

		p.mu.Lock()
		p.clients[chainID] = newClient
		p.mu.Unlock()
		return newClient, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(port.BlockchainClient), nil
}
