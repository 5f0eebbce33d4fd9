package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/server/http/dto"
)

// ReceiptHandler manages receipt ingestion endpoints.
type ReceiptHandler struct {
	facade ReceiptFacade
}

// NewReceiptHandler constructs ReceiptHandler.
func NewReceiptHandler(facade ReceiptFacade) *ReceiptHandler {
	return &ReceiptHandler{facade: facade}
}

// Ingest handles POST /api/user/receipts.
func (h *ReceiptHandler) Ingest(c *gin.Context) {
	var req dto.ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	order, candidate, err := h.facade.IngestReceipt(c.Request.Context(), CurrentPrincipal(c), req.RawText())
	if err != nil {
		if errors.Is(err, domainErrors.ErrExtractionFailed) {
			c.JSON(http.StatusUnprocessableEntity, dto.ManualEntryRequiredResponse{Error: err.Error(), Candidate: candidate})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewOrderResponse(*order))
}

// Extract handles POST /api/receipts/extract.
func (h *ReceiptHandler) Extract(c *gin.Context) {
	var req dto.ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	candidate, err := h.facade.ExtractReceipt(req.RawText())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}
