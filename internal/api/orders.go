package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"vansales-service/internal/service"
)

const idempotencyHeader = "Idempotency-Key"

// submitOrder persists an order and syncs it. Gateway and mirror failures
// are reported in the body with status 200.
func (h *Handler) submitOrder(c *gin.Context) {
	var req service.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	req.UserID = currentUser(c).ID
	req.IdempotencyKey = c.GetHeader(idempotencyHeader)

	result, err := h.orders.Submit(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// saveDraft stores an order without contacting BigCommerce
func (h *Handler) saveDraft(c *gin.Context) {
	var req service.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	req.UserID = currentUser(c).ID

	order, err := h.orders.SaveDraft(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// resubmitDraft submits a stored draft or retries a failed sync
func (h *Handler) resubmitDraft(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.ResubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request body", err)
		return
	}

	result, err := h.orders.ResubmitDraft(c.Request.Context(), currentUser(c), orderID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), currentUser(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) orderActivity(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	activity, err := h.orders.Activity(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

func (h *Handler) listUserOrders(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	orders, err := h.orders.ListByUser(c.Request.Context(), currentUser(c), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *Handler) listPendingOrders(c *gin.Context) {
	orders, err := h.orders.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *Handler) listDrafts(c *gin.Context) {
	orders, err := h.orders.ListDrafts(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}
