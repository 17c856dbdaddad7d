package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"
	"nft_manager/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

const (
	// ERC721TransferMethod carries an empty data payload.
	ERC721TransferMethod port.MethodSig = "safeTransferFrom(address,address,uint256,bytes)"
	// ERC1155TransferMethod carries the amount and an empty data payload.
	ERC1155TransferMethod port.MethodSig = "safeTransferFrom(address,address,uint256,uint256,bytes)"
)

// BuildTransferCall selects the transfer method by standard and orders the
// parameters to match it.
func BuildTransferCall(req entity.TransferRequest) (port.CallRequest, error) {
	call := port.CallRequest{
		Contract: port.ContractRef{Address: req.Token.ContractAddress, ChainID: req.Token.ChainID},
		From:     req.From,
	}

	tokenID := new(big.Int).Set(req.Token.TokenID)
	switch req.Token.Standard {
	case entity.ERC721:
		call.Method = ERC721TransferMethod
		call.Params = []any{req.From, req.To, tokenID, []byte{}}
	case entity.ERC1155:
		call.Method = ERC1155TransferMethod
		call.Params = []any{req.From, req.To, tokenID, new(big.Int).Set(req.Quantity), []byte{}}
	default:
		return port.CallRequest{}, &entity.ValidationError{
			Field:  "standard",
			Reason: fmt.Sprintf("unsupported token standard %s", req.Token.Standard),
		}
	}
	return call, nil
}

type transferHandle struct {
	id  string
	req entity.TransferRequest

	mu       sync.RWMutex
	state    entity.TransferState
	err      error
	done     chan struct{}
	doneOnce sync.Once
}

func newTransferHandle(id string, req entity.TransferRequest) *transferHandle {
	return &transferHandle{id: id, req: req, state: entity.TransferIdle, done: make(chan struct{})}
}

func (h *transferHandle) ID() string                      { return h.id }
func (h *transferHandle) Request() entity.TransferRequest { return h.req }
func (h *transferHandle) Done() <-chan struct{}           { return h.done }

func (h *transferHandle) State() entity.TransferState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *transferHandle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

func (h *transferHandle) transition(to entity.TransferState, err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !entity.CanTransition(h.state, to) {
		return false
	}
	h.state = to
	h.err = err
	return true
}

// finish closes Done once listeners have seen the terminal event.
func (h *transferHandle) finish() {
	h.doneOnce.Do(func() { close(h.done) })
}

// TransferDispatcherImpl implements port.TransferDispatcher.
type TransferDispatcherImpl struct {
	caller         port.ContractCaller
	listeners      []port.TransferListener
	confirmTimeout time.Duration
	logger         port.Logger

	now   func() time.Time
	newID func() string

	inflight sync.WaitGroup
}

// NewTransferDispatcher creates a dispatcher. listeners receive every event of
// every dispatch in addition to the per-call listeners passed to Dispatch.
// A confirmTimeout of zero waits for confirmation indefinitely.
func NewTransferDispatcher(caller port.ContractCaller, confirmTimeout time.Duration, logger port.Logger, listeners ...port.TransferListener) *TransferDispatcherImpl {
	return &TransferDispatcherImpl{
		caller:         caller,
		listeners:      listeners,
		confirmTimeout: confirmTimeout,
		logger:         logger,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// Dispatch validates req and submits exactly one contract call. An invalid or
// rejected request produces a failed event and an error, and no call is
// submitted. Otherwise submission and confirmation continue in the background
// and outlive ctx cancellation.
func (d *TransferDispatcherImpl) Dispatch(ctx context.Context, req entity.TransferRequest, listeners ...port.TransferListener) (port.TransferHandle, error) {
	h := newTransferHandle(d.newID(), req)
	all := make([]port.TransferListener, 0, len(d.listeners)+len(listeners))
	all = append(all, d.listeners...)
	all = append(all, listeners...)

	if err := req.Validate(); err != nil {
		d.fail(h, all, err)
		return h, err
	}
	call, err := BuildTransferCall(req)
	if err != nil {
		d.fail(h, all, err)
		return h, err
	}
	prepared, err := d.caller.Prepare(ctx, call)
	if err != nil {
		d.fail(h, all, err)
		return h, err
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.run(context.WithoutCancel(ctx), h, prepared, all)
	}()
	return h, nil
}

// Wait blocks until every background dispatch has finished or ctx is done.
func (d *TransferDispatcherImpl) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *TransferDispatcherImpl) run(ctx context.Context, h *transferHandle, prepared port.PreparedCall, listeners []port.TransferListener) {
	txHash, err := prepared.Submit(ctx)
	if err != nil {
		d.fail(h, listeners, err)
		return
	}
	if !h.transition(entity.TransferSubmitted, nil) {
		return
	}
	d.logger.Info("Transaction submitted", "transfer_id", h.id, "tx_hash", txHash.Hex())
	d.emit(h, listeners, entity.TransferEvent{TransferID: h.id, State: entity.TransferSubmitted, TxHash: txHash})

	waitCtx := ctx
	if d.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, d.confirmTimeout)
		defer cancel()
	}
	confirmed, err := prepared.WaitConfirmed(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("confirmation not observed within %s: %w", d.confirmTimeout, err)
		}
		d.failWithHash(h, listeners, txHash, err)
		return
	}
	if !h.transition(entity.TransferConfirmed, nil) {
		return
	}
	d.logger.Info("Transaction confirmed",
		"transfer_id", h.id,
		"tx_hash", confirmed.TxHash.Hex(),
		"block", confirmed.BlockNumber)
	d.emit(h, listeners, entity.TransferEvent{
		TransferID:  h.id,
		State:       entity.TransferConfirmed,
		TxHash:      confirmed.TxHash,
		BlockNumber: confirmed.BlockNumber,
	})
	h.finish()
}

func (d *TransferDispatcherImpl) fail(h *transferHandle, listeners []port.TransferListener, err error) {
	d.failWithHash(h, listeners, common.Hash{}, err)
}

func (d *TransferDispatcherImpl) failWithHash(h *transferHandle, listeners []port.TransferListener, txHash common.Hash, err error) {
	if !h.transition(entity.TransferFailed, err) {
		return
	}
	d.logger.Error("Transaction error", "transfer_id", h.id, "error", err)
	d.emit(h, listeners, entity.TransferEvent{TransferID: h.id, State: entity.TransferFailed, TxHash: txHash, Err: err})
	h.finish()
}

func (d *TransferDispatcherImpl) emit(h *transferHandle, listeners []port.TransferListener, ev entity.TransferEvent) {
	ev.At = d.now()
	ev.ChainID = h.req.Token.ChainID
	metrics.TransferEvents.WithLabelValues(string(ev.State), h.req.Token.Standard.String()).Inc()
	for _, l := range listeners {
		d.notify(l, ev)
	}
}

func (d *TransferDispatcherImpl) notify(l port.TransferListener, ev entity.TransferEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Transfer listener panicked", "transfer_id", ev.TransferID, "panic", r)
		}
	}()
	l(ev)
}
