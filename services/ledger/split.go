package ledger

// Split holds the three shares of a request's total payment, in the smallest
// currency unit.
type Split struct {
	CommissionCents int64
	FundCents       int64
	RevenueCents    int64
}

// ComputeSplit divides a total into the fixed 30/10/60 shares. The collector
// and fund shares round half-to-even; the platform share takes the remainder,
// so the three always sum exactly to the total.
func ComputeSplit(totalCents int64) Split {
	commission := roundedShare(totalCents, 30)
	fund := roundedShare(totalCents, 10)
	return Split{
		CommissionCents: commission,
		FundCents:       fund,
		RevenueCents:    totalCents - commission - fund,
	}
}

// roundedShare computes totalCents*percent/100 with round-half-to-even.
func roundedShare(totalCents, percent int64) int64 {
	product := totalCents * percent
	quotient := product / 100
	remainder := product % 100
	switch {
	case remainder > 50:
		quotient++
	case remainder == 50 && quotient%2 != 0:
		quotient++
	}
	return quotient
}
