package restapi

import (
	"net/http"

	"nft_manager/internal/app/port"
	"nft_manager/internal/app/provider"
	"nft_manager/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// APIInventoryResponse is the body of every inventory endpoint.
type APIInventoryResponse struct {
	Data          entity.Inventory `json:"data"`
	StatusMessage string           `json:"status_message"`
}

// WalletInfoSource describes the connected wallet.
type WalletInfoSource interface {
	Info() provider.WalletInfo
}

// InventoryHandler serves inventories and wallet state.
type InventoryHandler struct {
	inventory port.InventoryService
	session   port.OwnerSession
	wallet    WalletInfoSource
	chains    *provider.ChainProvider
}

func NewInventoryHandler(inventory port.InventoryService, session port.OwnerSession, wallet WalletInfoSource, chains *provider.ChainProvider) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, session: session, wallet: wallet, chains: chains}
}

// GetInventoryHandler aggregates the inventory of an arbitrary owner.
// The optional standard query parameter restricts the fetch to one standard.
func (h *InventoryHandler) GetInventoryHandler(c *gin.Context) {
	owner := c.Param("owner")

	raw := c.Query("standard")
	if raw == "" {
		c.JSON(http.StatusOK, inventoryResponse(h.inventory.Aggregate(c.Request.Context(), owner)))
		return
	}

	standard, err := entity.ParseTokenStandard(raw)
	if err != nil {
		writeError(c, err)
		return
	}
	inv := entity.Inventory{Owner: owner, ERC721: []entity.TokenDescriptor{}, ERC1155: []entity.TokenDescriptor{}}
	tokens, err := h.inventory.AggregateStandard(c.Request.Context(), owner, standard)
	if err != nil {
		inv.Errors = append(inv.Errors, entity.InventoryError{Standard: standard, Message: err.Error()})
	} else if standard == entity.ERC721 {
		inv.ERC721 = tokens
	} else {
		inv.ERC1155 = tokens
	}
	c.JSON(http.StatusOK, inventoryResponse(inv))
}

func (h *InventoryHandler) GetWalletHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"wallet": h.wallet.Info(),
			"owner":  h.session.Owner(),
		},
	})
}

func (h *InventoryHandler) GetWalletInventoryHandler(c *gin.Context) {
	c.JSON(http.StatusOK, inventoryResponse(h.session.Inventory()))
}

func (h *InventoryHandler) RefreshWalletInventoryHandler(c *gin.Context) {
	c.JSON(http.StatusOK, inventoryResponse(h.session.Refresh(c.Request.Context())))
}

func (h *InventoryHandler) GetChainsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.chains.Chains()})
}

func inventoryResponse(inv entity.Inventory) APIInventoryResponse {
	resp := APIInventoryResponse{Data: inv}
	total := len(inv.ERC721) + len(inv.ERC1155)
	switch {
	case len(inv.Errors) == len(entity.Standards()):
		resp.StatusMessage = "Failed to retrieve tokens for every standard."
	case len(inv.Errors) > 0:
		resp.StatusMessage = "Inventory retrieved. Some standards could not be fetched."
	case total == 0:
		resp.StatusMessage = "No tokens found."
	default:
		resp.StatusMessage = "Inventory retrieved successfully."
	}
	return resp
}
