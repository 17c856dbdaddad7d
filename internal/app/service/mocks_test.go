package service

import (
	"context"
	"sync"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"
	insight "nft_manager/internal/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
)

type mockIndexingClient struct {
	mock.Mock
}

func (m *mockIndexingClient) GetOwnedTokens(ctx context.Context, standard entity.TokenStandard, owner string, chainIDs []uint64) ([]insight.TokenRecord, error) {
	args := m.Called(ctx, standard, owner, chainIDs)
	records, _ := args.Get(0).([]insight.TokenRecord)
	return records, args.Error(1)
}

type mockContractCaller struct {
	mock.Mock
}

func (m *mockContractCaller) Prepare(ctx context.Context, call port.CallRequest) (port.PreparedCall, error) {
	args := m.Called(ctx, call)
	prepared, _ := args.Get(0).(port.PreparedCall)
	return prepared, args.Error(1)
}

type mockPreparedCall struct {
	mock.Mock
}

func (m *mockPreparedCall) Submit(ctx context.Context) (common.Hash, error) {
	args := m.Called(ctx)
	return args.Get(0).(common.Hash), args.Error(1)
}

func (m *mockPreparedCall) WaitConfirmed(ctx context.Context) (*port.ConfirmedCall, error) {
	args := m.Called(ctx)
	confirmed, _ := args.Get(0).(*port.ConfirmedCall)
	return confirmed, args.Error(1)
}

// eventRecorder collects dispatch events in arrival order.
type eventRecorder struct {
	mu     sync.Mutex
	events []entity.TransferEvent
}

func (r *eventRecorder) Listener() port.TransferListener {
	return func(ev entity.TransferEvent) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ev)
	}
}

func (r *eventRecorder) States() []entity.TransferState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.TransferState, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.State)
	}
	return out
}

func (r *eventRecorder) Last() entity.TransferEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}
