package service

import (
	"time"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"

	"github.com/patrickmn/go-cache"
)

// TransferTracker keeps the latest status of each dispatch for a bounded time.
type TransferTracker struct {
	statuses *cache.Cache
	logger   port.Logger
}

// NewTransferTracker creates a tracker whose records expire after ttl.
func NewTransferTracker(ttl, cleanupInterval time.Duration, logger port.Logger) *TransferTracker {
	return &TransferTracker{
		statuses: cache.New(ttl, cleanupInterval),
		logger:   logger,
	}
}

// Record stores ev unless a terminal state has already been recorded for it.
func (t *TransferTracker) Record(ev entity.TransferEvent) {
	if prev, ok := t.Get(ev.TransferID); ok && prev.State.Terminal() {
		t.logger.Warn("Ignoring event after terminal state",
			"transfer_id", ev.TransferID,
			"state", string(prev.State),
			"event", string(ev.State))
		return
	}
	t.statuses.SetDefault(ev.TransferID, entity.StatusFromEvent(ev))
}

func (t *TransferTracker) Get(id string) (entity.TransferStatus, bool) {
	v, ok := t.statuses.Get(id)
	if !ok {
		return entity.TransferStatus{}, false
	}
	st, ok := v.(entity.TransferStatus)
	return st, ok
}

// Listener adapts the tracker for use as a dispatcher listener.
func (t *TransferTracker) Listener() port.TransferListener {
	return t.Record
}

var _ port.TransferStatusStore = (*TransferTracker)(nil)
