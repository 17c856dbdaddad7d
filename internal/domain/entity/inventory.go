package entity

// Inventory is the result of one aggregation pass for an owner: one ordered
// sequence per token standard plus any per-standard diagnostics.
type Inventory struct {
	Owner   string            `json:"owner"`
	ERC721  []TokenDescriptor `json:"erc721"`
	ERC1155 []TokenDescriptor `json:"erc1155"`
	Errors  []InventoryError  `json:"errors,omitempty"`
}

// Tokens returns the sequence for the given standard.
func (inv Inventory) Tokens(standard TokenStandard) []TokenDescriptor {
	switch standard {
	case ERC721:
		return inv.ERC721
	case ERC1155:
		return inv.ERC1155
	default:
		return nil
	}
}

// Find looks a token up by identity across both sequences.
func (inv Inventory) Find(key TokenKey) (TokenDescriptor, bool) {
	for _, standard := range Standards() {
		for _, t := range inv.Tokens(standard) {
			if t.Key() == key {
				return t, true
			}
		}
	}
	return TokenDescriptor{}, false
}

// InventoryError is a diagnostic for a standard whose fetch failed. The
// affected sequence is empty; the other standard is unaffected.
type InventoryError struct {
	Standard TokenStandard `json:"standard"`
	Message  string        `json:"message"`
}
