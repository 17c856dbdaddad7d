package port

import (
	"context"

	"nft_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ContractRef locates a contract on a chain.
type ContractRef struct {
	Address common.Address
	ChainID uint64
}

// MethodSig is a canonical Solidity method signature, e.g.
// "safeTransferFrom(address,address,uint256,bytes)".
type MethodSig string

// ConfirmedCall is the outcome of a mined transaction.
type ConfirmedCall struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
}

// CallRequest is one state-changing contract call signed by From.
type CallRequest struct {
	Contract ContractRef
	From     common.Address
	Method   MethodSig
	Params   []any
}

// ContractCaller prepares signable contract calls. Implementations own
// encoding, signing, broadcast and confirmation polling.
type ContractCaller interface {
	// Prepare resolves the contract and encodes the call. Parameters that do
	// not match the method signature are reported as entity.ErrValidation.
	Prepare(ctx context.Context, call CallRequest) (PreparedCall, error)
}

// PreparedCall is a contract call that can be submitted exactly once.
type PreparedCall interface {
	// Submit signs and broadcasts the call and returns the transaction hash.
	Submit(ctx context.Context) (common.Hash, error)
	// WaitConfirmed blocks until the submitted transaction is mined.
	// A reverted transaction is reported as entity.ErrTransferFailed.
	WaitConfirmed(ctx context.Context) (*ConfirmedCall, error)
}

// BlockchainClient is an RPC connection to one EVM chain.
type BlockchainClient interface {
	bind.ContractBackend
	bind.DeployBackend

	// Definition returns the network definition associated with this client.
	Definition() entity.NetworkDefinition
}

// BlockchainClientProvider hands out RPC clients per chain.
type BlockchainClientProvider interface {
	GetClient(ctx context.Context, chainID uint64) (BlockchainClient, error)
}

// NetworkDefinitionProvider defines the interface for providing network definitions.
type NetworkDefinitionProvider interface {
	// GetAllNetworkDefinitions returns all active network definitions.
	GetAllNetworkDefinitions() []entity.NetworkDefinition

	// GetNetworkDefinitionByChainID returns the definition for a chain id.
	GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool)
}
