package entity

import (
	"bytes"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// TokensResponse is the body returned by the Insight tokens endpoints:
// GET /v1/{clientId}/tokens/{erc721|erc1155}/{owner}.
// Records stay raw so each one is decoded on its own.
type TokensResponse struct {
	Data []jsoniter.RawMessage `json:"data"`
}

// TokenRecord is one raw owned-token entry. Balance is absent for erc721.
type TokenRecord struct {
	TokenAddress string     `json:"tokenAddress"`
	TokenID      FlexNumber `json:"tokenId"`
	ChainID      FlexNumber `json:"chainId"`
	Balance      FlexNumber `json:"balance,omitempty"`
}

// FlexNumber holds a decimal integer the API may encode either as a JSON
// string or as a bare number. The digits are kept verbatim to avoid float
// rounding of large token ids.
type FlexNumber string

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("invalid quoted number %s: %w", b, err)
		}
		*n = FlexNumber(s)
		return nil
	}
	for _, c := range b {
		if (c < '0' || c > '9') && c != '-' {
			return fmt.Errorf("unexpected numeric literal %s", b)
		}
	}
	*n = FlexNumber(b)
	return nil
}

// String returns the raw digits.
func (n FlexNumber) String() string {
	return string(n)
}

// Uint64 parses the value as a uint64.
func (n FlexNumber) Uint64() (uint64, error) {
	return strconv.ParseUint(string(n), 10, 64)
}
