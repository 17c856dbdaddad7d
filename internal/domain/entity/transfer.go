package entity

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TransferRequest is one user-initiated transfer of an owned token.
type TransferRequest struct {
	Token    TokenDescriptor
	From     common.Address
	To       common.Address
	Quantity *big.Int
}

// NewTransferRequest validates the destination and quantity against the token.
// ERC721 quantity is always 1 regardless of the input.
func NewTransferRequest(token TokenDescriptor, from common.Address, to string, quantity *big.Int) (TransferRequest, error) {
	if to == "" {
		return TransferRequest{}, &ValidationError{Field: "to", Reason: "destination address is empty"}
	}
	if !common.IsHexAddress(to) {
		return TransferRequest{}, &ValidationError{Field: "to", Reason: fmt.Sprintf("%q is not a valid address", to)}
	}
	req := TransferRequest{
		Token:    token,
		From:     from,
		To:       common.HexToAddress(to),
		Quantity: quantity,
	}
	if req.Token.Standard == ERC721 {
		req.Quantity = big.NewInt(1)
	}
	if err := req.Validate(); err != nil {
		return TransferRequest{}, err
	}
	return req, nil
}

// Validate checks the request invariants. It is run again at dispatch time.
func (r TransferRequest) Validate() error {
	if r.Token.TokenID == nil {
		return &ValidationError{Field: "tokenId", Reason: "token id is missing"}
	}
	if r.To == (common.Address{}) {
		return &ValidationError{Field: "to", Reason: "destination is the zero address"}
	}
	if r.Quantity == nil {
		return &ValidationError{Field: "quantity", Reason: "quantity is missing"}
	}

	switch r.Token.Standard {
	case ERC721:
		if r.Quantity.Cmp(big.NewInt(1)) != 0 {
			return &ValidationError{Field: "quantity", Reason: "erc721 quantity must be 1"}
		}
		if r.To == r.From {
			return &ValidationError{Field: "to", Reason: "destination equals the current owner"}
		}
	case ERC1155:
		if r.Quantity.Sign() < 1 {
			return &ValidationError{Field: "quantity", Reason: "quantity must be at least 1"}
		}
		if r.Token.Balance == nil || r.Quantity.Cmp(r.Token.Balance) > 0 {
			return &ValidationError{Field: "quantity", Reason: fmt.Sprintf("quantity %s exceeds balance %s", r.Quantity, r.Token.Balance)}
		}
	default:
		return &ValidationError{Field: "standard", Reason: fmt.Sprintf("unsupported token standard %s", r.Token.Standard)}
	}
	return nil
}

// TransferState is the lifecycle state of a single dispatch.
type TransferState string

const (
	TransferIdle      TransferState = "idle"
	TransferSubmitted TransferState = "submitted"
	TransferConfirmed TransferState = "confirmed"
	TransferFailed    TransferState = "failed"
)

// Terminal reports whether no further transition is possible.
func (s TransferState) Terminal() bool {
	return s == TransferConfirmed || s == TransferFailed
}

// CanTransition reports whether from -> to is a legal dispatch transition.
func CanTransition(from, to TransferState) bool {
	switch from {
	case TransferIdle:
		return to == TransferSubmitted || to == TransferFailed
	case TransferSubmitted:
		return to == TransferConfirmed || to == TransferFailed
	default:
		return false
	}
}

// TransferEvent is emitted at each observation point of a dispatch.
type TransferEvent struct {
	TransferID  string
	ChainID     uint64
	State       TransferState
	TxHash      common.Hash
	BlockNumber uint64
	Err         error
	At          time.Time
}

// TransferStatus is the latest known state of a dispatch, as served to callers.
type TransferStatus struct {
	ID          string        `json:"id"`
	ChainID     uint64        `json:"chainId"`
	State       TransferState `json:"state"`
	TxHash      string        `json:"txHash,omitempty"`
	BlockNumber uint64        `json:"blockNumber,omitempty"`
	Error       string        `json:"error,omitempty"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// StatusFromEvent converts an event into its status record.
func StatusFromEvent(ev TransferEvent) TransferStatus {
	st := TransferStatus{
		ID:          ev.TransferID,
		ChainID:     ev.ChainID,
		State:       ev.State,
		BlockNumber: ev.BlockNumber,
		UpdatedAt:   ev.At,
	}
	if ev.TxHash != (common.Hash{}) {
		st.TxHash = ev.TxHash.Hex()
	}
	if ev.Err != nil {
		st.Error = ev.Err.Error()
	}
	return st
}
