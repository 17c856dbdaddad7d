package entity

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
)

// ParseTokenID decodes a base-10 token id. Any value in [0, 2^256-1] is
// accepted without loss of precision.
func ParseTokenID(raw string) (*big.Int, error) {
	return parseUint256("tokenId", raw)
}

// ParseQuantity decodes a base-10 unsigned amount such as an ERC1155 balance.
func ParseQuantity(raw string) (*big.Int, error) {
	return parseUint256("quantity", raw)
}

func parseUint256(field, raw string) (*big.Int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, &ValidationError{Field: field, Reason: "value is empty"}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, &ValidationError{Field: field, Reason: "value must be an unsigned decimal integer: " + raw}
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, &ValidationError{Field: field, Reason: "value must be an unsigned decimal integer: " + raw}
	}
	if v.Cmp(math.MaxBig256) > 0 {
		return nil, &ValidationError{Field: field, Reason: "value exceeds uint256"}
	}
	return v, nil
}
