package model

// Budget is an optional spending cap for one record's interventions.
// The zero value is an unlimited budget.
type Budget struct {
	amount float64
	capped bool
}

func CappedBudget(amount float64) Budget {
	return Budget{amount: amount, capped: true}
}

func UnlimitedBudget() Budget {
	return Budget{}
}

func (b Budget) Capped() bool {
	return b.capped
}

// Amount returns the cap and whether one is set.
func (b Budget) Amount() (float64, bool) {
	return b.amount, b.capped
}
