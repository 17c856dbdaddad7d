package service

import (
	"testing"
	"time"

	"nft_manager/internal/domain/entity"
	"nft_manager/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferTrackerKeepsLatestState(t *testing.T) {
	tracker := NewTransferTracker(time.Minute, time.Minute, logger.NewNop())
	listener := tracker.Listener()

	_, ok := tracker.Get("t1")
	assert.False(t, ok)

	hash := common.HexToHash("0xabc")
	listener(entity.TransferEvent{TransferID: "t1", ChainID: 1, State: entity.TransferSubmitted, TxHash: hash})
	st, ok := tracker.Get("t1")
	require.True(t, ok)
	assert.Equal(t, entity.TransferSubmitted, st.State)
	assert.Equal(t, hash.Hex(), st.TxHash)

	listener(entity.TransferEvent{TransferID: "t1", ChainID: 1, State: entity.TransferConfirmed, TxHash: hash, BlockNumber: 10})
	st, _ = tracker.Get("t1")
	assert.Equal(t, entity.TransferConfirmed, st.State)
	assert.Equal(t, uint64(10), st.BlockNumber)

	// Terminal records are never overwritten.
	listener(entity.TransferEvent{TransferID: "t1", State: entity.TransferFailed, Err: entity.ErrTransferFailed})
	st, _ = tracker.Get("t1")
	assert.Equal(t, entity.TransferConfirmed, st.State)
	assert.Empty(t, st.Error)
}

func TestTransferTrackerExpiresRecords(t *testing.T) {
	tracker := NewTransferTracker(20*time.Millisecond, time.Millisecond, logger.NewNop())
	tracker.Record(entity.TransferEvent{TransferID: "t2", State: entity.TransferFailed})

	_, ok := tracker.Get("t2")
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		_, ok := tracker.Get("t2")
		return !ok
	}, time.Second, 5*time.Millisecond)
}
