package restapi

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"nft_manager/internal/app/port"
	"nft_manager/internal/app/provider"
	"nft_manager/internal/domain/entity"
	insight "nft_manager/internal/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TransferBody is the request to transfer one held token. Numeric fields
// accept either JSON numbers or decimal strings.
type TransferBody struct {
	ContractAddress string             `json:"contractAddress"`
	TokenID         insight.FlexNumber `json:"tokenId"`
	ChainID         insight.FlexNumber `json:"chainId"`
	Standard        string             `json:"standard"`
	To              string             `json:"to"`
	Quantity        insight.FlexNumber `json:"quantity"`
}

// TransferResponse reports the state of a dispatch.
type TransferResponse struct {
	entity.TransferStatus
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// TransferHandler accepts transfers of tokens held by the connected wallet.
type TransferHandler struct {
	dispatcher port.TransferDispatcher
	statuses   port.TransferStatusStore
	session    port.OwnerSession
	wallet     port.WalletProvider
	chains     *provider.ChainProvider
}

func NewTransferHandler(dispatcher port.TransferDispatcher, statuses port.TransferStatusStore, session port.OwnerSession, wallet port.WalletProvider, chains *provider.ChainProvider) *TransferHandler {
	return &TransferHandler{
		dispatcher: dispatcher,
		statuses:   statuses,
		session:    session,
		wallet:     wallet,
		chains:     chains,
	}
}

// CreateTransferHandler dispatches a transfer and answers without waiting
// for confirmation.
func (h *TransferHandler) CreateTransferHandler(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		writeError(c, &entity.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	var body TransferBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(c, &entity.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	req, err := h.buildRequest(body)
	if err != nil {
		writeError(c, err)
		return
	}

	handle, err := h.dispatcher.Dispatch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	status, ok := h.statuses.Get(handle.ID())
	if !ok {
		status = entity.TransferStatus{ID: handle.ID(), State: handle.State()}
	}
	c.JSON(http.StatusAccepted, gin.H{"data": TransferResponse{TransferStatus: status}})
}

// GetTransferHandler returns the latest status of a dispatch.
func (h *TransferHandler) GetTransferHandler(c *gin.Context) {
	id := c.Param("id")
	status, ok := h.statuses.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("transfer %s not found", id)})
		return
	}

	resp := TransferResponse{TransferStatus: status}
	if status.TxHash != "" {
		resp.ExplorerURL = h.chains.TxURL(status.ChainID, common.HexToHash(status.TxHash))
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *TransferHandler) buildRequest(body TransferBody) (entity.TransferRequest, error) {
	standard, err := entity.ParseTokenStandard(body.Standard)
	if err != nil {
		return entity.TransferRequest{}, err
	}
	if !common.IsHexAddress(body.ContractAddress) {
		return entity.TransferRequest{}, &entity.ValidationError{Field: "contractAddress", Reason: fmt.Sprintf("%q is not a valid address", body.ContractAddress)}
	}
	tokenID, err := entity.ParseTokenID(body.TokenID.String())
	if err != nil {
		return entity.TransferRequest{}, err
	}
	chainID, err := body.ChainID.Uint64()
	if err != nil {
		return entity.TransferRequest{}, &entity.ValidationError{Field: "chainId", Reason: err.Error()}
	}

	key := entity.TokenKey{
		ContractAddress: common.HexToAddress(body.ContractAddress),
		TokenID:         tokenID.String(),
		ChainID:         chainID,
	}
	token, ok := h.session.Inventory().Find(key)
	if !ok || token.Standard != standard {
		return entity.TransferRequest{}, fmt.Errorf("%w: %s token %s on %s (chain %d)",
			entity.ErrTokenNotOwned, standard, key.TokenID, key.ContractAddress.Hex(), key.ChainID)
	}

	var quantity *big.Int
	switch {
	case standard == entity.ERC721:
		quantity = big.NewInt(1)
	case body.Quantity.String() == "":
		return entity.TransferRequest{}, &entity.ValidationError{Field: "quantity", Reason: "quantity is required for erc1155"}
	default:
		if quantity, err = entity.ParseQuantity(body.Quantity.String()); err != nil {
			return entity.TransferRequest{}, err
		}
	}

	return entity.NewTransferRequest(token, h.wallet.Address(), body.To, quantity)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrTokenNotOwned):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrTransferRejected):
		status = http.StatusForbidden
	case errors.Is(err, entity.ErrTransferFailed), errors.Is(err, entity.ErrIndexingFetch):
		status = http.StatusBadGateway
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
