package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vansales-service/internal/models"
)

type pinRequest struct {
	IsPinned *bool `json:"is_pinned"`
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) listPinnedProducts(c *gin.Context) {
	products, err := h.catalog.ListPinned(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// importProduct pins a BigCommerce product, creating the local row if needed
func (h *Handler) importProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	saved, err := h.catalog.ImportAndPin(c.Request.Context(), &product)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) setProductPin(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsPinned == nil {
		badRequest(c, "is_pinned is required", err)
		return
	}

	if err := h.catalog.SetPinned(c.Request.Context(), productID, *req.IsPinned); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) resyncCatalog(c *gin.Context) {
	result, err := h.catalog.Resync(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Catalog resync completed",
		"updated": result.Updated,
		"errors":  result.Errors,
	})
}

func (h *Handler) searchRemoteProducts(c *gin.Context) {
	products, err := h.catalog.SearchRemoteProducts(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) searchCustomers(c *gin.Context) {
	customers, err := h.catalog.SearchCustomers(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) customerAddresses(c *gin.Context) {
	customerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	addresses, err := h.catalog.CustomerAddresses(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, addresses)
}
