package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"
	insight "nft_manager/internal/entity"
	"nft_manager/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// StandardResult is the outcome of aggregating one token standard.
type StandardResult struct {
	Standard entity.TokenStandard
	Tokens   []entity.TokenDescriptor
	Err      error
}

// InventoryServiceImpl implements port.InventoryService.
type InventoryServiceImpl struct {
	indexer  port.IndexingClient
	chainIDs []uint64
	logger   port.Logger
}

// NewInventoryService creates an aggregator over the fixed chain set chainIDs.
func NewInventoryService(indexer port.IndexingClient, chainIDs []uint64, logger port.Logger) *InventoryServiceImpl {
	return &InventoryServiceImpl{
		indexer:  indexer,
		chainIDs: append([]uint64(nil), chainIDs...),
		logger:   logger,
	}
}

// ChainIDs returns the chain set every aggregation is parameterised with.
func (s *InventoryServiceImpl) ChainIDs() []uint64 {
	return append([]uint64(nil), s.chainIDs...)
}

// Aggregate fetches both standards for owner. A failed standard resolves to an
// empty sequence and a diagnostic; it never affects the other standard.
func (s *InventoryServiceImpl) Aggregate(ctx context.Context, owner string) entity.Inventory {
	inv := entity.Inventory{
		Owner:   owner,
		ERC721:  []entity.TokenDescriptor{},
		ERC1155: []entity.TokenDescriptor{},
	}

	s.AggregateEach(ctx, owner, func(res StandardResult) {
		if res.Err != nil {
			inv.Errors = append(inv.Errors, entity.InventoryError{Standard: res.Standard, Message: res.Err.Error()})
			return
		}
		switch res.Standard {
		case entity.ERC721:
			inv.ERC721 = res.Tokens
		case entity.ERC1155:
			inv.ERC1155 = res.Tokens
		}
	})

	s.logger.Info("Inventory aggregated",
		"owner", owner,
		"erc721", len(inv.ERC721),
		"erc1155", len(inv.ERC1155),
		"errors", len(inv.Errors))
	return inv
}

// AggregateEach runs one fetch per standard concurrently and calls fn as each
// completes, so a slow standard does not hold back the other. Calls to fn are
// serialised; completion order is not defined.
func (s *InventoryServiceImpl) AggregateEach(ctx context.Context, owner string, fn func(StandardResult)) {
	var fnMu sync.Mutex
	emit := func(res StandardResult) {
		fnMu.Lock()
		defer fnMu.Unlock()
		fn(res)
	}

	owner = strings.TrimSpace(owner)
	if owner == "" || !common.IsHexAddress(owner) {
		err := &entity.ValidationError{Field: "owner", Reason: fmt.Sprintf("%q is not a valid address", owner)}
		for _, standard := range entity.Standards() {
			emit(StandardResult{Standard: standard, Tokens: []entity.TokenDescriptor{}, Err: err})
		}
		return
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, standard := range entity.Standards() {
		standard := standard
		eg.Go(func() error {
			tokens, err := s.AggregateStandard(egCtx, owner, standard)
			if err != nil {
				// Contained per standard; returning nil keeps the sibling fetch alive.
				emit(StandardResult{Standard: standard, Tokens: []entity.TokenDescriptor{}, Err: err})
				return nil
			}
			emit(StandardResult{Standard: standard, Tokens: tokens})
			return nil
		})
	}
	_ = eg.Wait()
}

// AggregateStandard fetches and decodes a single standard. No retry is performed.
func (s *InventoryServiceImpl) AggregateStandard(ctx context.Context, owner string, standard entity.TokenStandard) ([]entity.TokenDescriptor, error) {
	start := time.Now()
	records, err := s.indexer.GetOwnedTokens(ctx, standard, owner, s.chainIDs)
	if err != nil {
		metrics.InventoryFetchDuration.WithLabelValues(standard.String(), "error").Observe(time.Since(start).Seconds())
		metrics.InventoryFetchErrors.WithLabelValues(standard.String()).Inc()
		s.logger.Error("Error fetching tokens", "standard", standard.String(), "owner", owner, "error", err)
		return nil, err
	}
	metrics.InventoryFetchDuration.WithLabelValues(standard.String(), "ok").Observe(time.Since(start).Seconds())

	tokens := DecodeRecords(standard, records, s.logger)
	metrics.InventoryTokens.WithLabelValues(standard.String()).Set(float64(len(tokens)))
	return tokens, nil
}

// DecodeRecords converts raw indexing records into descriptors, preserving
// their order. Malformed records are skipped and logged.
func DecodeRecords(standard entity.TokenStandard, records []insight.TokenRecord, logger port.Logger) []entity.TokenDescriptor {
	tokens := make([]entity.TokenDescriptor, 0, len(records))
	for i, rec := range records {
		token, err := decodeRecord(standard, rec)
		if err != nil {
			logger.Warn("Skipping malformed token record",
				"standard", standard.String(),
				"index", i,
				"token_address", rec.TokenAddress,
				"token_id", rec.TokenID.String(),
				"error", err)
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func decodeRecord(standard entity.TokenStandard, rec insight.TokenRecord) (entity.TokenDescriptor, error) {
	if !common.IsHexAddress(rec.TokenAddress) {
		return entity.TokenDescriptor{}, fmt.Errorf("invalid token address %q", rec.TokenAddress)
	}
	tokenID, err := entity.ParseTokenID(rec.TokenID.String())
	if err != nil {
		return entity.TokenDescriptor{}, err
	}
	chainID, err := rec.ChainID.Uint64()
	if err != nil {
		return entity.TokenDescriptor{}, fmt.Errorf("invalid chain id %q: %w", rec.ChainID, err)
	}

	switch standard {
	case entity.ERC721:
		// The indexing service omits balance for erc721; it is always 1.
		return entity.NewTokenDescriptor(common.HexToAddress(rec.TokenAddress), tokenID, chainID, nil, standard)
	case entity.ERC1155:
		balance, err := entity.ParseQuantity(rec.Balance.String())
		if err != nil {
			return entity.TokenDescriptor{}, fmt.Errorf("invalid erc1155 balance: %w", err)
		}
		return entity.NewTokenDescriptor(common.HexToAddress(rec.TokenAddress), tokenID, chainID, balance, standard)
	default:
		return entity.TokenDescriptor{}, fmt.Errorf("unsupported token standard %s", standard)
	}
}
