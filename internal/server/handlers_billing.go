package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	overviewdomain "github.com/postloom/postloom/internal/billingoverview/domain"
	"github.com/postloom/postloom/internal/pricing"
	"github.com/postloom/postloom/internal/rating"
)

type BillingHandler struct {
	overviewSvc overviewdomain.Service
	pricing     *pricing.Holder
}

func (h *BillingHandler) current(c *gin.Context) {
	overview, err := h.overviewSvc.CurrentState(c.Request.Context(), userID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *BillingHandler) history(c *gin.Context) {
	entries, err := h.overviewSvc.History(c.Request.Context(), userID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// estimate prices a hypothetical usage vector. It never reads recorded usage,
// so unauthenticated pricing calculators can reuse it as-is.
func (h *BillingHandler) estimate(c *gin.Context) {
	var vector rating.UsageVector
	if err := c.ShouldBindJSON(&vector); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_body"})
		return
	}

	cost, decision := rating.Estimate(vector, h.pricing.Get().Table)
	c.JSON(http.StatusOK, gin.H{
		"cost":     cost,
		"decision": decision,
	})
}
