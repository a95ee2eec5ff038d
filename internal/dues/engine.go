// Package dues derives outstanding rent, deposit and utility balances
// for a tenant from lease terms and recorded payment totals.
package dues

import (
	"time"

	"github.com/shopspring/decimal"

	"rental-service/internal/model"
)

// Breakdown is the computed dues position for one tenant at a reference
// date. Per-category figures are informational; TotalRemainingDues is
// authoritative and is clamped on aggregate totals, so it is not always
// the sum of the clamped per-category values when one category is
// overpaid and another underpaid.
type Breakdown struct {
	RentDues           decimal.Decimal     `json:"rent_dues"`
	DepositDues        decimal.Decimal     `json:"deposit_dues"`
	UtilityDues        decimal.Decimal     `json:"utility_dues"`
	TotalRemainingDues decimal.Decimal     `json:"total_remaining_dues"`
	MonthsStayed       int                 `json:"months_stayed"`
	PaymentStatus      model.PaymentStatus `json:"payment_status"`
}

// Overdue reports whether the tenant owes anything.
func (b Breakdown) Overdue() bool {
	return b.PaymentStatus == model.StatusOverdue
}

// Compute derives the dues breakdown for a tenant at the given reference
// date. It is a pure function: no repository access, no clock access, and
// identical inputs always produce identical output. The reference date is
// always injected by the caller.
func Compute(t model.Tenant, today time.Time) Breakdown {
	months := monthsStayed(t.LeaseStart, today)

	// Rent accrues per calendar month stayed, the deposit is due in full
	// from day one. Utility billing carries no rate on the lease, so the
	// accrued utility due is always zero; the paid total still feeds the
	// aggregate below.
	totalRentDue := t.Price.Mul(decimal.NewFromInt(int64(months)))
	totalDepositDue := t.Deposit
	totalUtilityDue := decimal.Zero

	totalDue := totalRentDue.Add(totalDepositDue).Add(totalUtilityDue)
	totalPaid := t.TotalRentPaid.Add(t.TotalDepositPaid).Add(t.TotalUtilityPaid)

	b := Breakdown{
		RentDues:           clampZero(totalRentDue.Sub(t.TotalRentPaid)),
		DepositDues:        clampZero(totalDepositDue.Sub(t.TotalDepositPaid)),
		UtilityDues:        clampZero(totalUtilityDue.Sub(t.TotalUtilityPaid)),
		TotalRemainingDues: clampZero(totalDue.Sub(totalPaid)),
		MonthsStayed:       months,
	}

	if b.TotalRemainingDues.IsPositive() {
		b.PaymentStatus = model.StatusOverdue
	} else {
		b.PaymentStatus = model.StatusUpToDate
	}
	return b
}

// monthsStayed counts the calendar months a tenant has occupied the unit,
// inclusive of the current partial month. The difference is whole-month
// arithmetic (year*12+month), not a 30-day approximation, so short months
// never drift the charge. A missing or future lease start means the
// tenancy has not begun.
func monthsStayed(leaseStart *time.Time, today time.Time) int {
	if leaseStart == nil || leaseStart.IsZero() {
		return 0
	}
	start := *leaseStart
	if start.After(today) {
		return 0
	}

	months := (today.Year()-start.Year())*12 + int(today.Month()) - int(start.Month())
	if months < 0 {
		return 0
	}
	// A lease that started this month already owes the current month.
	return months + 1
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// StatusUpdate pairs a tenant with its freshly derived payment status.
type StatusUpdate struct {
	TenantID string
	Status   model.PaymentStatus
}

// RefreshStatuses computes the payment status for every tenant in the
// batch. The caller applies the result as a single batched repository
// write so concurrent readers never observe a half-updated tenant set.
func RefreshStatuses(tenants []model.Tenant, today time.Time) []StatusUpdate {
	updates := make([]StatusUpdate, 0, len(tenants))
	for _, t := range tenants {
		b := Compute(t, today)
		updates = append(updates, StatusUpdate{TenantID: t.ID, Status: b.PaymentStatus})
	}
	return updates
}
