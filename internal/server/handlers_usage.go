package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	perioddomain "github.com/postloom/postloom/internal/billingperiod/domain"
	"github.com/postloom/postloom/internal/clock"
	"github.com/postloom/postloom/internal/pricing"
	usagedomain "github.com/postloom/postloom/internal/usage/domain"
)

type UsageHandler struct {
	clock     clock.Clock
	usageSvc  usagedomain.Service
	periodSvc perioddomain.Service
}

// maxSummaryStale bounds how old a cached summary the read path may serve.
const maxSummaryStale = time.Minute

func (h *UsageHandler) record(c *gin.Context) {
	var req usagedomain.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_body"})
		return
	}
	req.UserID = userID(c)

	result, err := h.usageSvc.Record(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusCreated
	if result.Deduplicated {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func (h *UsageHandler) list(c *gin.Context) {
	var req usagedomain.ListRequest
	if err := c.ShouldBindQuery(&req.Pagination); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_query"})
		return
	}
	req.UserID = userID(c)
	req.Category = pricing.Category(c.Query("category"))

	resp, err := h.usageSvc.List(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsageHandler) summary(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	period, err := h.periodSvc.GetActivePeriod(ctx, uid, h.clock.Now())
	if err != nil {
		c.Error(err)
		return
	}

	summary, cached, err := h.usageSvc.SummarizeCached(ctx, uid, *period, maxSummaryStale)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"cached":  cached,
	})
}
