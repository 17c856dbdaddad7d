package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nft_manager/internal/app/port"
	"nft_manager/internal/domain/entity"
	insight "nft_manager/internal/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// insightClientImpl implements port.IndexingClient against the thirdweb Insight API.
type insightClientImpl struct {
	client   *fasthttp.Client
	baseURL  string
	clientID string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewInsightClient creates a new Insight client. A nil httpClient gets a default one.
func NewInsightClient(httpClient *fasthttp.Client, baseURL, clientID string, timeout time.Duration, logger *zap.Logger) port.IndexingClient {
	if httpClient == nil {
		httpClient = &fasthttp.Client{}
	}
	return &insightClientImpl{
		client:   httpClient,
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		timeout:  timeout,
		logger:   logger.Named("InsightClient"),
	}
}

// TokensURL builds GET {base}/v1/{clientId}/tokens/{standard}/{owner}?metadata=false&chain=..
func TokensURL(baseURL, clientID string, standard entity.TokenStandard, owner string, chainIDs []uint64) string {
	q := url.Values{}
	q.Set("metadata", "false")
	for _, id := range chainIDs {
		q.Add("chain", strconv.FormatUint(id, 10))
	}
	return fmt.Sprintf("%s/v1/%s/tokens/%s/%s?%s",
		strings.TrimRight(baseURL, "/"),
		url.PathEscape(clientID),
		standard,
		url.PathEscape(owner),
		q.Encode())
}

// GetOwnedTokens implements port.IndexingClient.
func (c *insightClientImpl) GetOwnedTokens(ctx context.Context, standard entity.TokenStandard, owner string, chainIDs []uint64) ([]insight.TokenRecord, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner cannot be empty", entity.ErrIndexingFetch)
	}
	if len(chainIDs) == 0 {
		return nil, fmt.Errorf("%w: chain set cannot be empty", entity.ErrIndexingFetch)
	}

	requestURL := TokensURL(c.baseURL, c.clientID, standard, owner, chainIDs)
	c.logger.Debug("Requesting owned tokens from Insight", zap.String("standard", standard.String()), zap.String("owner", owner))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrIndexingFetch, err)
	}
	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to Insight", zap.String("standard", standard.String()), zap.Error(err))
			return nil, fmt.Errorf("%w: %s request: %v", entity.ErrIndexingFetch, standard, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute request to Insight (with default timeout)", zap.String("standard", standard.String()), zap.Error(err))
			return nil, fmt.Errorf("%w: %s request: %v", entity.ErrIndexingFetch, standard, err)
		}
	}

	rawBody := resp.Body()

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Insight API request failed",
			zap.String("standard", standard.String()),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody),
		)
		return nil, fmt.Errorf("%w: %s request failed with status %d", entity.ErrIndexingFetch, standard, resp.StatusCode())
	}

	if len(strings.TrimSpace(string(rawBody))) == 0 {
		c.logger.Warn("Insight returned 200 OK with an empty body", zap.String("standard", standard.String()))
		return []insight.TokenRecord{}, nil
	}

	var body insight.TokensResponse
	if err := json.Unmarshal(rawBody, &body); err != nil {
		c.logger.Error("Failed to unmarshal Insight response",
			zap.String("standard", standard.String()),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: decode %s response: %v", entity.ErrIndexingFetch, standard, err)
	}

	records := make([]insight.TokenRecord, 0, len(body.Data))
	for i, raw := range body.Data {
		var rec insight.TokenRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			c.logger.Warn("Skipping malformed Insight record",
				zap.String("standard", standard.String()),
				zap.Int("index", i),
				zap.ByteString("record", raw),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}

	c.logger.Debug("Successfully unmarshalled Insight response",
		zap.String("standard", standard.String()),
		zap.Int("tokenCount", len(records)),
		zap.Int("skipped", len(body.Data)-len(records)))
	return records, nil
}
