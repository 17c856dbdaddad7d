package port

import (
	"context"

	"nft_manager/internal/domain/entity"
	insight "nft_manager/internal/entity"
)

// IndexingClient queries the external token indexing service.
type IndexingClient interface {
	// GetOwnedTokens returns the raw records held by owner for one standard
	// across every chain in chainIDs. Failures wrap entity.ErrIndexingFetch.
	GetOwnedTokens(ctx context.Context, standard entity.TokenStandard, owner string, chainIDs []uint64) ([]insight.TokenRecord, error)
}

// InventoryService aggregates the tokens held by an owner.
type InventoryService interface {
	// Aggregate fetches both standards concurrently. A failure for one
	// standard leaves its sequence empty and is reported in Inventory.Errors.
	Aggregate(ctx context.Context, owner string) entity.Inventory

	// AggregateStandard fetches a single standard, returning its error as is.
	AggregateStandard(ctx context.Context, owner string, standard entity.TokenStandard) ([]entity.TokenDescriptor, error)
}

// OwnerSession tracks the single active owner and its inventory.
type OwnerSession interface {
	Owner() string
	Inventory() entity.Inventory
	SetOwner(ctx context.Context, owner string) entity.Inventory
	Refresh(ctx context.Context) entity.Inventory
}
