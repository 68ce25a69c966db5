// Package domain defines the composed read model for the billing screen.
package domain

import (
	"context"

	perioddomain "github.com/postloom/postloom/internal/billingperiod/domain"
	"github.com/postloom/postloom/internal/pricing"
	"github.com/postloom/postloom/internal/rating"
	usagedomain "github.com/postloom/postloom/internal/usage/domain"
)

// Overview is everything the billing screen shows for the active period:
// the window, live usage totals, the priced cost, and the threshold outcome.
type Overview struct {
	Period   perioddomain.Period  `json:"period"`
	Tier     pricing.Tier         `json:"tier"`
	Summary  usagedomain.Summary  `json:"summary"`
	Cost     rating.CostBreakdown `json:"cost"`
	Decision rating.Decision      `json:"decision"`
}

// HistoryEntry is one closed period with its frozen totals priced at the
// current table.
type HistoryEntry struct {
	Period   perioddomain.Period `json:"period"`
	Summary  usagedomain.Summary `json:"summary"`
	Decision rating.Decision     `json:"decision"`
}

type Service interface {
	// CurrentState composes the active period, a fresh usage summary, and the
	// billing decision for one user.
	CurrentState(ctx context.Context, userID string) (*Overview, error)

	// History returns closed periods newest first.
	History(ctx context.Context, userID string) ([]HistoryEntry, error)
}
