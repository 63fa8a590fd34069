package reconcile

import "github.com/pinehill-dev/pinehill/internal/model"

// Decide maps an accumulated bucket total against the monthly rent target.
func Decide(total, target int64) model.PaymentStatus {
	switch {
	case total <= 0:
		return model.StatusUnpaid
	case total >= target:
		return model.StatusPaid
	default:
		return model.StatusPartial
	}
}

// BucketTotal sums the payments that count toward a bucket: every attributed
// payment that is not manually locked, plus locked payments a human marked
// PAID or PARTIAL.
func BucketTotal(payments []model.Payment) int64 {
	var total int64
	for _, p := range payments {
		if !p.Attributed() {
			continue
		}
		if p.StatusOverride && !p.Status.Counts() {
			continue
		}
		total += p.Amount
	}
	return total
}
