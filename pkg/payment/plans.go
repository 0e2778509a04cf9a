package payment

import (
	"slices"
	"time"
)

// Plan is a subscription tier. Amounts are in the smallest currency unit.
type Plan struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Features    []string      `json:"features"`
	Amount      int64         `json:"amount"`
	Duration    time.Duration `json:"-"`
	Days        int           `json:"duration_days"`
	MaxScreens  int           `json:"max_screens"`
}

const month = 30 * 24 * time.Hour

var defaultPlans = []Plan{
	{
		ID:          "basic",
		Name:        "Basic",
		Description: "Watch on one screen in standard definition",
		Features:    []string{"SD quality", "1 screen", "Watchlist"},
		Amount:      3000,
		Duration:    month,
		Days:        30,
		MaxScreens:  1,
	},
	{
		ID:          "standard",
		Name:        "Standard",
		Description: "Watch on two screens in HD",
		Features:    []string{"HD quality", "2 screens", "Watchlist", "Downloads"},
		Amount:      5000,
		Duration:    month,
		Days:        30,
		MaxScreens:  2,
	},
	{
		ID:          "premium",
		Name:        "Premium",
		Description: "Watch on four screens in Ultra HD",
		Features:    []string{"Ultra HD quality", "4 screens", "Watchlist", "Downloads", "Early access"},
		Amount:      8000,
		Duration:    month,
		Days:        30,
		MaxScreens:  4,
	},
}

// Plans returns the plan catalog ordered by price.
func Plans() []Plan {
	out := slices.Clone(defaultPlans)
	for i := range out {
		out[i].Features = slices.Clone(out[i].Features)
	}
	return out
}

// FindPlan looks a plan up by id.
func FindPlan(id string) (Plan, bool) {
	for _, p := range defaultPlans {
		if p.ID == id {
			p.Features = slices.Clone(p.Features)
			return p, true
		}
	}
	return Plan{}, false
}
