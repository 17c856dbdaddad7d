package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"

	"golang.org/x/sync/singleflight"
)

// refreshTimeout bounds one aggregation once it no longer follows the
// caller's context.
const refreshTimeout = 30 * time.Second

// OwnerSessionImpl holds the active owner and the last aggregated inventory.
type OwnerSessionImpl struct {
	inventory port.InventoryService
	logger    port.Logger

	group singleflight.Group

	mu      sync.RWMutex
	owner   string
	current entity.Inventory
	loaded  bool
}

// NewOwnerSession creates a session with no active owner.
func NewOwnerSession(inventory port.InventoryService, logger port.Logger) *OwnerSessionImpl {
	return &OwnerSessionImpl{
		inventory: inventory,
		logger:    logger,
		current:   emptyInventory(""),
	}
}

func (s *OwnerSessionImpl) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

func (s *OwnerSessionImpl) Inventory() entity.Inventory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetOwner switches the active owner. The inventory is re-aggregated only when
// the owner actually changes or has never been loaded.
func (s *OwnerSessionImpl) SetOwner(ctx context.Context, owner string) entity.Inventory {
	owner = strings.TrimSpace(owner)

	s.mu.Lock()
	if strings.EqualFold(owner, s.owner) && s.loaded {
		inv := s.current
		s.mu.Unlock()
		return inv
	}
	s.owner = owner
	s.loaded = false
	s.current = emptyInventory(owner)
	s.mu.Unlock()

	s.logger.Info("Owner changed", "owner", owner)
	return s.load(ctx, owner)
}

// Refresh re-aggregates the inventory of the active owner.
func (s *OwnerSessionImpl) Refresh(ctx context.Context) entity.Inventory {
	return s.load(ctx, s.Owner())
}

func (s *OwnerSessionImpl) load(ctx context.Context, owner string) entity.Inventory {
	if owner == "" {
		return emptyInventory("")
	}

	// The fetch is shared by every caller in the flight, so one caller going
	// away must not turn it into an empty inventory for all of them.
	v, _, _ := s.group.Do(strings.ToLower(owner), func() (any, error) {
		aggCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.inventory.Aggregate(aggCtx, owner), nil
	})
	inv := v.(entity.Inventory)

	s.mu.Lock()
	defer s.mu.Unlock()
	// Drop results for an owner that was replaced while the fetch was running.
	if !strings.EqualFold(s.owner, owner) {
		return inv
	}
	s.current = inv
	s.loaded = true
	return inv
}

func emptyInventory(owner string) entity.Inventory {
	return entity.Inventory{
		Owner:   owner,
		ERC721:  []entity.TokenDescriptor{},
		ERC1155: []entity.TokenDescriptor{},
	}
}

// RefreshOnConfirmed returns a listener that re-aggregates the session
// inventory once a transfer is confirmed. It runs on the dispatching
// goroutine, so TransferDispatcher.Wait also waits for the refresh.
func RefreshOnConfirmed(session port.OwnerSession, logger port.Logger) port.TransferListener {
	return func(ev entity.TransferEvent) {
		if ev.State != entity.TransferConfirmed {
			return
		}
		inv := session.Refresh(context.Background())
		logger.Debug("Inventory refreshed after transfer",
			"transfer_id", ev.TransferID,
			"erc721", len(inv.ERC721),
			"erc1155", len(inv.ERC1155))
	}
}
