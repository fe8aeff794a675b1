package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vansales-service/internal/service"
)

type statusRequest struct {
	IsEnabled *bool `json:"is_enabled"`
}

type permissionRequest struct {
	AllowBigCommerceSearch *bool `json:"allow_bigcommerce_search"`
}

func (h *Handler) listAgents(c *gin.Context) {
	users, err := h.users.ListAgents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) listAdmins(c *gin.Context) {
	users, err := h.users.ListAdmins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) createUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) setUserStatus(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsEnabled == nil {
		badRequest(c, "is_enabled is required", err)
		return
	}

	if err := h.users.SetEnabled(c.Request.Context(), currentUser(c), userID, *req.IsEnabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) setUserPermission(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AllowBigCommerceSearch == nil {
		badRequest(c, "allow_bigcommerce_search is required", err)
		return
	}

	if err := h.users.SetSearchPermission(c.Request.Context(), userID, *req.AllowBigCommerceSearch); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deleteUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), currentUser(c), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
