package client

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const simulatedChainID = 1337

// slowNonceClient adds RPC latency to nonce lookups so concurrent submissions
// overlap between reading the nonce and broadcasting.
type slowNonceClient struct {
	simulated.Client
	delay time.Duration
}

func (c *slowNonceClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	time.Sleep(c.delay)
	return c.Client.PendingNonceAt(ctx, account)
}

func (c *slowNonceClient) Definition() entity.NetworkDefinition {
	return entity.NetworkDefinition{Name: "simulated", ChainID: simulatedChainID}
}

type keyedWallet struct {
	opts *bind.TransactOpts
}

func (w keyedWallet) Address() common.Address { return w.opts.From }

func (w keyedWallet) Transactor(context.Context, common.Address, *big.Int) (*bind.TransactOpts, error) {
	opts := *w.opts
	// A fixed limit skips estimation, so the target needs no contract code.
	opts.GasLimit = 200_000
	return &opts, nil
}

func TestConcurrentSubmitsFromOneAccountGetDistinctNonces(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(simulatedChainID))
	require.NoError(t, err)

	backend := simulated.NewBackend(types.GenesisAlloc{
		opts.From: {Balance: new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))},
	})
	defer backend.Close()

	client := &slowNonceClient{Client: backend.Client(), delay: 50 * time.Millisecond}
	caller := NewContractCaller(&stubClients{client: client}, keyedWallet{opts: opts}, 0, 0, zap.NewNop())

	// Plain account, clear of the precompile range.
	contract := port.ContractRef{Address: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), ChainID: simulatedChainID}
	prepared := make([]port.PreparedCall, 2)
	for i := range prepared {
		prepared[i], err = caller.Prepare(context.Background(), port.CallRequest{
			Contract: contract,
			From:     opts.From,
			Method:   erc721Transfer,
			Params:   []any{opts.From, toD, big.NewInt(int64(i + 1)), []byte{}},
		})
		require.NoError(t, err)
	}

	hashes := make([]common.Hash, len(prepared))
	errs := make([]error, len(prepared))
	var wg sync.WaitGroup
	for i, call := range prepared {
		i, call := i, call
		wg.Add(1)
		go func() {
			defer wg.Done()
			hashes[i], errs[i] = call.Submit(context.Background())
		}()
	}
	wg.Wait()

	for i := range prepared {
		require.NoError(t, errs[i], "submit %d", i)
	}
	assert.NotEqual(t, hashes[0], hashes[1])

	backend.Commit()

	nonces := map[uint64]bool{}
	for i, call := range prepared {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		confirmed, err := call.WaitConfirmed(ctx)
		cancel()
		require.NoError(t, err, "confirm %d", i)
		assert.Equal(t, hashes[i], confirmed.TxHash)

		tx, _, err := backend.Client().TransactionByHash(context.Background(), hashes[i])
		require.NoError(t, err)
		nonces[tx.Nonce()] = true
	}
	assert.Equal(t, map[uint64]bool{0: true, 1: true}, nonces)
}

func TestSenderLockIsPerChainAndAccount(t *testing.T) {
	caller := NewContractCaller(&stubClients{}, stubWallet{}, 0, 0, zap.NewNop())
	assert.Same(t, caller.sender(1, fromA), caller.sender(1, fromA))
	assert.NotSame(t, caller.sender(1, fromA), caller.sender(10, fromA))
	assert.NotSame(t, caller.sender(1, fromA), caller.sender(1, toD))
}
