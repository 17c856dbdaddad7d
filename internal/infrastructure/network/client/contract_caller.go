package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	parsedMethods   = make(map[port.MethodSig]parsedMethod)
	parsedMethodsMu sync.Mutex
)

type parsedMethod struct {
	abi  abi.ABI
	name string
}

// parseMethodSig turns a canonical signature such as
// "safeTransferFrom(address,address,uint256,bytes)" into a single-method ABI.
func parseMethodSig(sig port.MethodSig) (parsedMethod, error) {
	parsedMethodsMu.Lock()
	defer parsedMethodsMu.Unlock()

	if m, ok := parsedMethods[sig]; ok {
		return m, nil
	}

	selector, err := abi.ParseSelector(canonicalSignature(sig))
	if err != nil {
		return parsedMethod{}, fmt.Errorf("failed to parse method signature %q: %w", sig, err)
	}
	raw, err := json.Marshal([]abi.SelectorMarshaling{selector})
	if err != nil {
		return parsedMethod{}, fmt.Errorf("failed to encode selector for %q: %w", sig, err)
	}
	parsed, err := abi.JSON(strings.NewReader(string(raw)))
	if err != nil {
		return parsedMethod{}, fmt.Errorf("failed to build ABI for %q: %w", sig, err)
	}

	m := parsedMethod{abi: parsed, name: selector.Name}
	parsedMethods[sig] = m
	return m, nil
}

// canonicalSignature drops the "function " keyword and parameter names, so
// "function f(address to, uint256 id)" becomes "f(address,uint256)".
// Tuple parameters are not supported.
func canonicalSignature(sig port.MethodSig) string {
	s := strings.TrimPrefix(strings.TrimSpace(string(sig)), "function ")
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return s
	}
	var types []string
	for _, arg := range strings.Split(s[open+1:end], ",") {
		if fields := strings.Fields(arg); len(fields) > 0 {
			types = append(types, fields[0])
		}
	}
	return strings.TrimSpace(s[:open]) + "(" + strings.Join(types, ",") + ")"
}

// EncodeCall returns the calldata for method with params.
func EncodeCall(method port.MethodSig, params ...any) ([]byte, error) {
	m, err := parseMethodSig(method)
	if err != nil {
		return nil, err
	}
	return m.abi.Pack(m.name, params...)
}

// ContractCaller implements port.ContractCaller on go-ethereum bound contracts.
type ContractCaller struct {
	clients   port.BlockchainClientProvider
	wallet    port.WalletProvider
	logger    *zap.Logger
	rateLimit rate.Limit
	burst     int

	mu       sync.Mutex
	limiters map[uint64]*rate.Limiter
	senders  map[senderKey]*sync.Mutex
}

// senderKey identifies one nonce sequence: an account on a chain.
type senderKey struct {
	chainID uint64
	from    common.Address
}

// NewContractCaller creates a caller that signs with wallet and submits through
// clients. Submissions are throttled per chain to rateLimit per second.
func NewContractCaller(clients port.BlockchainClientProvider, wallet port.WalletProvider, rateLimit float64, burst int, logger *zap.Logger) *ContractCaller {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if rateLimit > 0 {
		limit = rate.Limit(rateLimit)
	}
	return &ContractCaller{
		clients:   clients,
		wallet:    wallet,
		logger:    logger.Named("ContractCaller"),
		rateLimit: limit,
		burst:     burst,
		limiters:  make(map[uint64]*rate.Limiter),
		senders:   make(map[senderKey]*sync.Mutex),
	}
}

// Prepare implements port.ContractCaller. The contract is resolved freshly
// for every call.
func (c *ContractCaller) Prepare(ctx context.Context, call port.CallRequest) (port.PreparedCall, error) {
	m, err := parseMethodSig(call.Method)
	if err != nil {
		return nil, &entity.ValidationError{Field: "method", Reason: err.Error()}
	}
	if _, err := m.abi.Pack(m.name, call.Params...); err != nil {
		return nil, &entity.ValidationError{Field: "params", Reason: err.Error()}
	}

	client, err := c.clients.GetClient(ctx, call.Contract.ChainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrTransferFailed, err)
	}

	opts, err := c.wallet.Transactor(ctx, call.From, new(big.Int).SetUint64(call.Contract.ChainID))
	if err != nil {
		if errors.Is(err, entity.ErrTransferRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrTransferFailed, err)
	}

	c.logger.Debug("Prepared contract call",
		zap.String("contract", call.Contract.Address.Hex()),
		zap.Uint64("chainID", call.Contract.ChainID),
		zap.String("method", string(call.Method)))

	return &preparedCall{
		client:   client,
		contract: bind.NewBoundContract(call.Contract.Address, m.abi, client, client, client),
		opts:     opts,
		method:   m.name,
		params:   call.Params,
		limiter:  c.limiter(call.Contract.ChainID),
		sendMu:   c.sender(call.Contract.ChainID, opts.From),
		logger:   c.logger,
	}, nil
}

func (c *ContractCaller) limiter(chainID uint64) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[chainID]
	if !ok {
		l = rate.NewLimiter(c.rateLimit, c.burst)
		c.limiters[chainID] = l
	}
	return l
}

// sender returns the lock that serialises nonce assignment and broadcast for
// from on chainID.
func (c *ContractCaller) sender(chainID uint64, from common.Address) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := senderKey{chainID: chainID, from: from}
	m, ok := c.senders[key]
	if !ok {
		m = &sync.Mutex{}
		c.senders[key] = m
	}
	return m
}

type preparedCall struct {
	client   port.BlockchainClient
	contract *bind.BoundContract
	opts     *bind.TransactOpts
	method   string
	params   []any
	limiter  *rate.Limiter
	sendMu   *sync.Mutex
	logger   *zap.Logger

	mu sync.Mutex
	tx *types.Transaction
}

// Submit signs and broadcasts the call. A prepared call is submitted at most once.
func (p *preparedCall) Submit(ctx context.Context) (common.Hash, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tx != nil {
		return common.Hash{}, fmt.Errorf("call already submitted as %s", p.tx.Hash().Hex())
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", entity.ErrTransferFailed, err)
	}

	opts := *p.opts
	opts.Context = ctx
	// Transact reads the pending nonce and broadcasts; two calls from the
	// same account must not interleave between those steps.
	p.sendMu.Lock()
	tx, err := p.contract.Transact(&opts, p.method, p.params...)
	p.sendMu.Unlock()
	if err != nil {
		if errors.Is(err, entity.ErrTransferRejected) {
			return common.Hash{}, err
		}
		return common.Hash{}, fmt.Errorf("%w: %v", entity.ErrTransferFailed, err)
	}
	p.tx = tx
	p.logger.Info("Transaction broadcast", zap.String("txHash", tx.Hash().Hex()), zap.Uint64("nonce", tx.Nonce()))
	return tx.Hash(), nil
}

// WaitConfirmed blocks until the transaction is mined or ctx is done.
func (p *preparedCall) WaitConfirmed(ctx context.Context) (*port.ConfirmedCall, error) {
	p.mu.Lock()
	tx := p.tx
	p.mu.Unlock()
	if tx == nil {
		return nil, errors.New("call has not been submitted")
	}

	receipt, err := bind.WaitMined(ctx, p.client, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: wait mined: %w", entity.ErrTransferFailed, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: transaction %s reverted", entity.ErrTransferFailed, tx.Hash().Hex())
	}

	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	return &port.ConfirmedCall{TxHash: tx.Hash(), BlockNumber: block, GasUsed: receipt.GasUsed}, nil
}
