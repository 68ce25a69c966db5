package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	entitlementdomain "github.com/postloom/postloom/internal/entitlement/domain"
)

type EntitlementHandler struct {
	entitlementSvc entitlementdomain.Service
}

func (h *EntitlementHandler) check(c *gin.Context) {
	result, err := h.entitlementSvc.CheckAccess(c.Request.Context(), userID(c), c.Param("feature"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
