package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/postloom/postloom/internal/account/domain"
	perioddomain "github.com/postloom/postloom/internal/billingperiod/domain"
	entitlementdomain "github.com/postloom/postloom/internal/entitlement/domain"
	"github.com/postloom/postloom/internal/pricing"
	quotadomain "github.com/postloom/postloom/internal/quota/domain"
	usagedomain "github.com/postloom/postloom/internal/usage/domain"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

var badRequestErrs = []error{
	accountdomain.ErrInvalidUser,
	accountdomain.ErrInvalidTier,
	accountdomain.ErrInvalidSignupAt,
	accountdomain.ErrInvalidLinkedAccounts,
	perioddomain.ErrInvalidUser,
	perioddomain.ErrInvalidPeriod,
	usagedomain.ErrInvalidUser,
	usagedomain.ErrInvalidCategory,
	usagedomain.ErrInvalidQuantity,
	usagedomain.ErrInvalidIdempotencyKey,
}

var notFoundErrs = []error{
	accountdomain.ErrAccountNotFound,
	entitlementdomain.ErrInvalidFeature,
	pricing.ErrUnknownFeature,
	pricing.ErrUnknownTier,
}

var unavailableErrs = []error{
	usagedomain.ErrRecorderUnavailable,
	usagedomain.ErrStaleSummary,
	perioddomain.ErrStoreFailure,
}

// ErrorHandlingMiddleware maps domain errors onto HTTP statuses after the
// handler runs. Unrecognized errors stay opaque to the client.
func ErrorHandlingMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status := http.StatusInternalServerError
		message := "internal_error"

		switch {
		case matchesAny(err, badRequestErrs):
			status = http.StatusBadRequest
			message = err.Error()
		case matchesAny(err, notFoundErrs):
			status = http.StatusNotFound
			message = err.Error()
		case errors.Is(err, quotadomain.ErrQuotaExceeded):
			status = http.StatusTooManyRequests
			message = quotadomain.ErrQuotaExceeded.Error()
		case matchesAny(err, unavailableErrs):
			status = http.StatusServiceUnavailable
			message = "service_unavailable"
		default:
			log.Error("unhandled request error",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}

		c.AbortWithStatusJSON(status, errorResponse{Error: message})
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
