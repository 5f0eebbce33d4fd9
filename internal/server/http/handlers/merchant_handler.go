package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/receiptwatch/internal/domain/model"
)

// MerchantHandler exposes merchant return policies.
type MerchantHandler struct {
	facade MerchantFacade
}

// NewMerchantHandler constructs MerchantHandler.
func NewMerchantHandler(facade MerchantFacade) *MerchantHandler {
	return &MerchantHandler{facade: facade}
}

// List handles GET /api/merchants.
func (h *MerchantHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.Merchants())
}

// Upsert handles POST /api/admin/merchants.
func (h *MerchantHandler) Upsert(c *gin.Context) {
	var rule model.MerchantRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := h.facade.UpsertMerchant(c.Request.Context(), rule); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}
