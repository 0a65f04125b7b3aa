package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PlanTermDays is the length of every plan and the multiplier for its total payout.
const PlanTermDays = 28

func init() {
	// API clients read money fields as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Plan is one fixed tier of the catalog. Amount and Daily are USD.
type Plan struct {
	Amount decimal.Decimal `json:"amount"`
	Daily  decimal.Decimal `json:"daily"`
	Total  decimal.Decimal `json:"total"`
}

// planDaily maps a whole-dollar investment amount to its daily yield.
var planDaily = map[int64]decimal.Decimal{
	5:  decimal.RequireFromString("0.1"),
	8:  decimal.RequireFromString("0.4"),
	12: decimal.RequireFromString("0.7"),
	15: decimal.RequireFromString("0.9"),
	20: decimal.RequireFromString("1.0"),
	30: decimal.RequireFromString("1.2"),
	40: decimal.RequireFromString("1.5"),
}

// LookupPlan returns the plan for amount. Only the catalog keys are valid;
// fractional amounts never match.
func LookupPlan(amount decimal.Decimal) (Plan, bool) {
	if !amount.Equal(amount.Truncate(0)) {
		return Plan{}, false
	}
	daily, ok := planDaily[amount.IntPart()]
	if !ok {
		return Plan{}, false
	}
	return Plan{
		Amount: decimal.NewFromInt(amount.IntPart()),
		Daily:  daily,
		Total:  daily.Mul(decimal.NewFromInt(PlanTermDays)),
	}, true
}

// Plans lists the whole catalog ordered by amount.
func Plans() []Plan {
	amounts := make([]int64, 0, len(planDaily))
	for a := range planDaily {
		amounts = append(amounts, a)
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })

	plans := make([]Plan, 0, len(amounts))
	for _, a := range amounts {
		p, _ := LookupPlan(decimal.NewFromInt(a))
		plans = append(plans, p)
	}
	return plans
}
