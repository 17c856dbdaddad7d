package restapi

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nft_manager/internal/app/port"
	"nft_manager/internal/app/provider"
	"nft_manager/internal/app/service"
	"nft_manager/internal/domain/entity"
	"nft_manager/internal/infrastructure/configloader"
	networkdefinition "nft_manager/internal/infrastructure/network/definition"
	"nft_manager/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

var (
	ownerA = common.HexToAddress("0xA")
	tokenB = common.HexToAddress("0xB")
	tokenC = common.HexToAddress("0xC")
)

type fakeInventory struct {
	failERC1155 bool
}

func (f *fakeInventory) tokens(standard entity.TokenStandard) []entity.TokenDescriptor {
	if standard == entity.ERC721 {
		t, _ := entity.NewTokenDescriptor(tokenB, big.NewInt(5), 1, nil, entity.ERC721)
		return []entity.TokenDescriptor{t}
	}
	t, _ := entity.NewTokenDescriptor(tokenC, big.NewInt(9), 137, big.NewInt(3), entity.ERC1155)
	return []entity.TokenDescriptor{t}
}

func (f *fakeInventory) Aggregate(ctx context.Context, owner string) entity.Inventory {
	inv := entity.Inventory{Owner: owner, ERC721: f.tokens(entity.ERC721), ERC1155: []entity.TokenDescriptor{}}
	if f.failERC1155 {
		inv.Errors = []entity.InventoryError{{Standard: entity.ERC1155, Message: "indexing fetch failed: status 500"}}
	} else {
		inv.ERC1155 = f.tokens(entity.ERC1155)
	}
	return inv
}

func (f *fakeInventory) AggregateStandard(_ context.Context, _ string, standard entity.TokenStandard) ([]entity.TokenDescriptor, error) {
	if standard == entity.ERC1155 && f.failERC1155 {
		return nil, entity.ErrIndexingFetch
	}
	return f.tokens(standard), nil
}

type fakeWallet struct{}

func (fakeWallet) Address() common.Address { return ownerA }
func (fakeWallet) Transactor(context.Context, common.Address, *big.Int) (*bind.TransactOpts, error) {
	return nil, entity.ErrTransferRejected
}
func (fakeWallet) Info() provider.WalletInfo {
	return provider.WalletInfo{Address: ownerA.Hex(), CanSign: true}
}

type mockDispatcher struct {
	mock.Mock
	statuses port.TransferStatusStore
}

func (m *mockDispatcher) Dispatch(ctx context.Context, req entity.TransferRequest, listeners ...port.TransferListener) (port.TransferHandle, error) {
	args := m.Called(req)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	m.statuses.Record(entity.TransferEvent{TransferID: "t-1", ChainID: req.Token.ChainID, State: entity.TransferSubmitted, TxHash: common.HexToHash("0xfeed"), At: time.Now()})
	return stubHandle{req: req}, nil
}

type stubHandle struct{ req entity.TransferRequest }

func (h stubHandle) ID() string                      { return "t-1" }
func (h stubHandle) Request() entity.TransferRequest { return h.req }
func (h stubHandle) State() entity.TransferState     { return entity.TransferSubmitted }
func (h stubHandle) Done() <-chan struct{}           { return nil }
func (h stubHandle) Err() error                      { return nil }

type APISuite struct {
	suite.Suite
	inventory  *fakeInventory
	dispatcher *mockDispatcher
	router     *gin.Engine
}

func (s *APISuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.inventory = &fakeInventory{}
	session := service.NewOwnerSession(s.inventory, logger.NewNop())
	session.SetOwner(context.Background(), ownerA.Hex())

	tracker := service.NewTransferTracker(time.Minute, time.Minute, logger.NewNop())
	s.dispatcher = &mockDispatcher{statuses: tracker}
	chains := provider.NewChainProvider(
		networkdefinition.NewNetworkDefinitionProvider(logger.NewNop(), []uint64{1, 137}, nil),
		logger.NewNop(),
	)

	s.router = SetupRouter(
		NewInventoryHandler(s.inventory, session, fakeWallet{}, chains),
		NewTransferHandler(s.dispatcher, tracker, session, fakeWallet{}, chains),
		configloader.SwaggerConfig{},
		zap.NewNop(),
	)
}

func (s *APISuite) do(method, path, body string) (int, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func (s *APISuite) TestHealth() {
	code, body := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, code)
	s.Equal("ok", body["status"])
}

func (s *APISuite) TestGetInventory() {
	code, body := s.do(http.MethodGet, "/api/v1/inventory/"+ownerA.Hex(), "")
	s.Equal(http.StatusOK, code)

	data := body["data"].(map[string]any)
	erc721 := data["erc721"].([]any)
	s.Require().Len(erc721, 1)
	first := erc721[0].(map[string]any)
	s.Equal("5", first["tokenId"])
	s.Equal("1", first["balance"])
	s.Equal("erc721", first["standard"])
	s.Len(data["erc1155"].([]any), 1)
	s.Equal("Inventory retrieved successfully.", body["status_message"])
}

func (s *APISuite) TestGetInventoryPartialFailure() {
	s.inventory.failERC1155 = true
	code, body := s.do(http.MethodGet, "/api/v1/inventory/"+ownerA.Hex(), "")
	s.Equal(http.StatusOK, code)

	data := body["data"].(map[string]any)
	s.Len(data["erc721"].([]any), 1)
	s.Empty(data["erc1155"].([]any))
	s.Len(data["errors"].([]any), 1)
}

func (s *APISuite) TestGetInventorySingleStandard() {
	code, body := s.do(http.MethodGet, "/api/v1/inventory/"+ownerA.Hex()+"?standard=erc1155", "")
	s.Equal(http.StatusOK, code)
	data := body["data"].(map[string]any)
	s.Empty(data["erc721"].([]any))
	s.Len(data["erc1155"].([]any), 1)

	code, _ = s.do(http.MethodGet, "/api/v1/inventory/"+ownerA.Hex()+"?standard=erc20", "")
	s.Equal(http.StatusBadRequest, code)
}

func (s *APISuite) TestWalletEndpoints() {
	code, body := s.do(http.MethodGet, "/api/v1/wallet", "")
	s.Equal(http.StatusOK, code)
	data := body["data"].(map[string]any)
	s.Equal(ownerA.Hex(), data["owner"])

	code, body = s.do(http.MethodGet, "/api/v1/wallet/inventory", "")
	s.Equal(http.StatusOK, code)
	s.Equal(ownerA.Hex(), body["data"].(map[string]any)["owner"])

	code, _ = s.do(http.MethodPost, "/api/v1/wallet/inventory/refresh", "")
	s.Equal(http.StatusOK, code)

	code, body = s.do(http.MethodGet, "/api/v1/chains", "")
	s.Equal(http.StatusOK, code)
	s.Len(body["data"].([]any), 2)
}

func (s *APISuite) TestCreateERC721Transfer() {
	var got entity.TransferRequest
	s.dispatcher.On("Dispatch", mock.MatchedBy(func(req entity.TransferRequest) bool {
		got = req
		return true
	})).Return(nil).Once()

	code, body := s.do(http.MethodPost, "/api/v1/transfers", fmt.Sprintf(
		`{"contractAddress":"%s","tokenId":"5","chainId":1,"standard":"erc721","to":"%s","quantity":"7"}`,
		tokenB.Hex(), common.HexToAddress("0xD").Hex()))

	s.Equal(http.StatusAccepted, code)
	s.Equal("t-1", body["data"].(map[string]any)["id"])
	s.Equal("submitted", body["data"].(map[string]any)["state"])
	s.Equal(ownerA, got.From)
	s.Equal(common.HexToAddress("0xD"), got.To)
	s.Equal("1", got.Quantity.String())

	code, body = s.do(http.MethodGet, "/api/v1/transfers/t-1", "")
	s.Equal(http.StatusOK, code)
	status := body["data"].(map[string]any)
	s.Equal("submitted", status["state"])
	s.Equal("https://etherscan.io/tx/"+common.HexToHash("0xfeed").Hex(), status["explorerUrl"])
}

func (s *APISuite) TestCreateERC1155TransferRejectsQuantityAboveBalance() {
	code, body := s.do(http.MethodPost, "/api/v1/transfers", fmt.Sprintf(
		`{"contractAddress":"%s","tokenId":9,"chainId":"137","standard":"erc1155","to":"%s","quantity":5}`,
		tokenC.Hex(), common.HexToAddress("0xD").Hex()))

	s.Equal(http.StatusBadRequest, code)
	s.Contains(body["error"], "quantity")
	s.dispatcher.AssertNotCalled(s.T(), "Dispatch", mock.Anything)
}

func (s *APISuite) TestCreateTransferValidation() {
	cases := map[string]string{
		"malformed body": `{`,
		"bad standard":   `{"standard":"erc20"}`,
		"not owned": fmt.Sprintf(`{"contractAddress":"%s","tokenId":"6","chainId":1,"standard":"erc721","to":"%s"}`,
			tokenB.Hex(), common.HexToAddress("0xD").Hex()),
		"bad destination": fmt.Sprintf(`{"contractAddress":"%s","tokenId":"5","chainId":1,"standard":"erc721","to":"0xnope"}`,
			tokenB.Hex()),
		"missing quantity": fmt.Sprintf(`{"contractAddress":"%s","tokenId":"9","chainId":137,"standard":"erc1155","to":"%s"}`,
			tokenC.Hex(), common.HexToAddress("0xD").Hex()),
	}
	for name, body := range cases {
		code, _ := s.do(http.MethodPost, "/api/v1/transfers", body)
		s.Equal(http.StatusBadRequest, code, name)
	}
	s.dispatcher.AssertNotCalled(s.T(), "Dispatch", mock.Anything)
}

func (s *APISuite) TestCreateTransferRejectedBySigner() {
	s.dispatcher.On("Dispatch", mock.Anything).Return(fmt.Errorf("%w: watch-only", entity.ErrTransferRejected)).Once()

	code, _ := s.do(http.MethodPost, "/api/v1/transfers", fmt.Sprintf(
		`{"contractAddress":"%s","tokenId":"5","chainId":1,"standard":"erc721","to":"%s"}`,
		tokenB.Hex(), common.HexToAddress("0xD").Hex()))
	s.Equal(http.StatusForbidden, code)
}

func (s *APISuite) TestUnknownTransfer() {
	code, _ := s.do(http.MethodGet, "/api/v1/transfers/nope", "")
	s.Equal(http.StatusNotFound, code)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}
