package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/domain/model"
	"github.com/polkiloo/receiptwatch/internal/server/http/dto"
	"github.com/polkiloo/receiptwatch/internal/server/http/middleware"
)

// CurrentPrincipal extracts the authenticated principal from context.
func CurrentPrincipal(c *gin.Context) model.Principal {
	p, _ := middleware.Principal(c)
	return p
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid order id"})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrInvalidCorrection), errors.Is(err, domainErrors.ErrExtractionFailed):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
	default:
		c.Status(http.StatusInternalServerError)
	}
}
