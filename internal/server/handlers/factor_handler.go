package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/carbontracker/internal/catalog"
)

// FactorLister exposes the catalog listings.
type FactorLister interface {
	Listing() catalog.Listing
}

// FactorHandler serves the factor keys used to populate entry forms.
type FactorHandler struct {
	factors FactorLister
}

// NewFactorHandler constructs the handler.
func NewFactorHandler(factors FactorLister) *FactorHandler {
	return &FactorHandler{factors: factors}
}

// List returns the vehicle, electricity, fuel and waste keys.
func (h *FactorHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.factors.Listing())
}
