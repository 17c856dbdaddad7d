package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"
	"nft_manager/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetworks struct{}

func (fakeNetworks) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	return []entity.NetworkDefinition{{ChainID: 1, Name: "Ethereum"}}
}

func (fakeNetworks) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if chainID == 1 {
		return entity.NetworkDefinition{ChainID: 1, Name: "Ethereum", PrimaryRPCURL: "http://rpc"}, true
	}
	return entity.NetworkDefinition{}, false
}

type fakeClient struct {
	port.BlockchainClient
	def entity.NetworkDefinition
}

func (c *fakeClient) Definition() entity.NetworkDefinition { return c.def }

func TestEVMClientProviderCachesClients(t *testing.T) {
	var mu sync.Mutex
	dials := 0
	dial := func(def entity.NetworkDefinition, timeout time.Duration) (port.BlockchainClient, error) {
		mu.Lock()
		defer mu.Unlock()
		dials++
		assert.Equal(t, 3*time.Second, timeout)
		return &fakeClient{def: def}, nil
	}
	p := NewEVMClientProvider(fakeNetworks{}, dial, 3*time.Second, logger.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := p.GetClient(context.Background(), 1)
			assert.NoError(t, err)
			assert.Equal(t, uint64(1), c.Definition().ChainID)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, dials)
}

func TestEVMClientProviderErrors(t *testing.T) {
	dialErr := errors.New("connection refused")
	failing := NewEVMClientProvider(fakeNetworks{}, func(entity.NetworkDefinition, time.Duration) (port.BlockchainClient, error) {
		return nil, dialErr
	}, 0, logger.NewNop())

	_, err := failing.GetClient(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, dialErr)

	_, err = failing.GetClient(context.Background(), 5)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = failing.GetClient(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEVMClientRequiresEndpoints(t *testing.T) {
	_, err := NewEVMClient(entity.NetworkDefinition{ChainID: 1, Name: "Ethereum"}, time.Second)
	assert.Error(t, err)
}

type twoNetworks struct{}

func (twoNetworks) GetAllNetworkDefinitions() []entity.NetworkDefinition { return nil }

func (twoNetworks) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	switch chainID {
	case 1, 10:
		return entity.NetworkDefinition{ChainID: chainID, Name: "net", PrimaryRPCURL: "http://rpc"}, true
	}
	return entity.NetworkDefinition{}, false
}

func TestEVMClientProviderSlowDialDoesNotBlockOtherChains(t *testing.T) {
	release := make(chan struct{})
	dial := func(def entity.NetworkDefinition, _ time.Duration) (port.BlockchainClient, error) {
		if def.ChainID == 10 {
			<-release
		}
		return &fakeClient{def: def}, nil
	}
	p := NewEVMClientProvider(twoNetworks{}, dial, time.Second, logger.NewNop())

	slow := make(chan error, 1)
	go func() {
		_, err := p.GetClient(context.Background(), 10)
		slow <- err
	}()

	fast := make(chan port.BlockchainClient, 1)
	go func() {
		c, err := p.GetClient(context.Background(), 1)
		assert.NoError(t, err)
		fast <- c
	}()

	select {
	case c := <-fast:
		assert.Equal(t, uint64(1), c.Definition().ChainID)
	case <-time.After(time.Second):
		t.Fatal("chain 1 waited on the chain 10 dial")
	}

	close(release)
	require.NoError(t, <-slow)
}
