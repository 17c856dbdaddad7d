package port

import (
	"context"

	"nft_manager/internal/domain/entity"
)

// TransferListener is notified at each observation point of a dispatch:
// submitted, confirmed and failed. Listeners must not block.
type TransferListener func(entity.TransferEvent)

// TransferHandle is the caller's view of one in-flight dispatch.
type TransferHandle interface {
	ID() string
	Request() entity.TransferRequest
	State() entity.TransferState
	// Done is closed once the dispatch reaches a terminal state.
	Done() <-chan struct{}
	// Err returns the failure cause once failed, otherwise nil.
	Err() error
}

// TransferDispatcher constructs and submits single token transfers.
type TransferDispatcher interface {
	// Dispatch validates req and, when valid, submits exactly one on-chain
	// call in the background. It returns without waiting for confirmation.
	Dispatch(ctx context.Context, req entity.TransferRequest, listeners ...TransferListener) (TransferHandle, error)
}

// TransferStatusStore records the latest event of each dispatch.
type TransferStatusStore interface {
	Record(event entity.TransferEvent)
	Get(id string) (entity.TransferStatus, bool)
}
