package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/postloom/postloom/internal/account/domain"
	"github.com/postloom/postloom/internal/pricing"
)

type AccountHandler struct {
	accountSvc accountdomain.Service
	pricing    *pricing.Holder
}

func (h *AccountHandler) get(c *gin.Context) {
	account, err := h.accountSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// upsert syncs the caller's profile from the auth provider. The body's
// user_id is ignored; identity always comes from the gateway header.
func (h *AccountHandler) upsert(c *gin.Context) {
	var req accountdomain.UpsertAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_body"})
		return
	}
	req.UserID = userID(c)

	account, err := h.accountSvc.Upsert(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) catalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.pricing.Get())
}
