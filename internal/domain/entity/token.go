package entity

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
)

// TokenStandard identifies the token interface a contract implements.
type TokenStandard int

const (
	// ERC721 tokens are unique; an owner always holds exactly one of a given id.
	ERC721 TokenStandard = iota + 1
	// ERC1155 tokens may be held in quantities greater than one per id.
	ERC1155
)

// Standards returns every supported standard in aggregation order.
func Standards() []TokenStandard {
	return []TokenStandard{ERC721, ERC1155}
}

// String returns the lower-case wire name used by the indexing service.
func (s TokenStandard) String() string {
	switch s {
	case ERC721:
		return "erc721"
	case ERC1155:
		return "erc1155"
	default:
		return fmt.Sprintf("standard(%d)", int(s))
	}
}

// ParseTokenStandard parses "erc721"/"erc1155" (case insensitive, dash tolerated).
func ParseTokenStandard(s string) (TokenStandard, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "") {
	case "erc721":
		return ERC721, nil
	case "erc1155":
		return ERC1155, nil
	default:
		return 0, &ValidationError{Field: "standard", Reason: fmt.Sprintf("unsupported token standard %q", s)}
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s TokenStandard) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TokenStandard) UnmarshalText(b []byte) error {
	parsed, err := ParseTokenStandard(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// TokenKey is the identity of an owned token.
type TokenKey struct {
	ContractAddress common.Address
	TokenID         string
	ChainID         uint64
}

// TokenDescriptor describes one token held by an owner.
// Values are built by NewTokenDescriptor and must not be mutated afterwards.
type TokenDescriptor struct {
	ContractAddress common.Address `json:"contractAddress"`
	TokenID         *big.Int       `json:"tokenId"`
	ChainID         uint64         `json:"chainId"`
	Balance         *big.Int       `json:"balance"`
	Standard        TokenStandard  `json:"standard"`
}

// NewTokenDescriptor validates and builds a descriptor. The balance of an
// ERC721 token is always 1, whatever is passed in.
func NewTokenDescriptor(contract common.Address, tokenID *big.Int, chainID uint64, balance *big.Int, standard TokenStandard) (TokenDescriptor, error) {
	if tokenID == nil || tokenID.Sign() < 0 {
		return TokenDescriptor{}, &ValidationError{Field: "tokenId", Reason: "token id must be a non-negative integer"}
	}
	if chainID == 0 {
		return TokenDescriptor{}, &ValidationError{Field: "chainId", Reason: "chain id must be set"}
	}

	switch standard {
	case ERC721:
		balance = big.NewInt(1)
	case ERC1155:
		if balance == nil || balance.Sign() <= 0 {
			return TokenDescriptor{}, &ValidationError{Field: "balance", Reason: "erc1155 balance must be positive"}
		}
		balance = new(big.Int).Set(balance)
	default:
		return TokenDescriptor{}, &ValidationError{Field: "standard", Reason: fmt.Sprintf("unsupported token standard %s", standard)}
	}

	return TokenDescriptor{
		ContractAddress: contract,
		TokenID:         new(big.Int).Set(tokenID),
		ChainID:         chainID,
		Balance:         balance,
		Standard:        standard,
	}, nil
}

// Key returns the (contract, tokenId, chainId) identity of the token.
func (t TokenDescriptor) Key() TokenKey {
	id := ""
	if t.TokenID != nil {
		id = t.TokenID.String()
	}
	return TokenKey{ContractAddress: t.ContractAddress, TokenID: id, ChainID: t.ChainID}
}

type tokenDescriptorJSON struct {
	ContractAddress string        `json:"contractAddress"`
	TokenID         string        `json:"tokenId"`
	ChainID         uint64        `json:"chainId"`
	Balance         string        `json:"balance"`
	Standard        TokenStandard `json:"standard"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON encodes token id and balance as decimal strings so that ids
// above 2^53 survive JavaScript clients.
func (t TokenDescriptor) MarshalJSON() ([]byte, error) {
	out := tokenDescriptorJSON{
		ContractAddress: t.ContractAddress.Hex(),
		ChainID:         t.ChainID,
		Standard:        t.Standard,
	}
	if t.TokenID != nil {
		out.TokenID = t.TokenID.String()
	}
	if t.Balance != nil {
		out.Balance = t.Balance.String()
	}
	return json.Marshal(out)
}
