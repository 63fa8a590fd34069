package ledger

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/pinehill-dev/pinehill/internal/model"
)

// SavePayment inserts a payment or fully replaces the one with the same id.
// A zero PaymentID inserts and assigns a new id.
func (s *Store) SavePayment(ctx context.Context, p *model.Payment) error {
	if err := validation(model.ValidatePayment(*p)); err != nil {
		return err
	}
	if err := s.upsert(ctx, p); err != nil {
		return fmt.Errorf("saving payment %d: %w", p.PaymentID, translate(err))
	}
	return nil
}

// InsertIngestedPayment inserts a new payment produced by ingestion. When the
// payment carries a RawHash that is already stored, nothing is written and
// inserted is false.
func (s *Store) InsertIngestedPayment(ctx context.Context, p *model.Payment) (inserted bool, err error) {
	if err := validation(model.ValidatePayment(*p)); err != nil {
		return false, err
	}
	db := s.conn(ctx).Omit(clause.Associations)
	if p.RawHash != nil {
		db = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "raw_hash"}},
			DoNothing: true,
		})
	}
	res := db.Create(p)
	if res.Error != nil {
		return false, fmt.Errorf("inserting payment: %w", translate(res.Error))
	}
	return res.RowsAffected > 0, nil
}

// GetPayment returns the payment with the given id.
func (s *Store) GetPayment(ctx context.Context, id int64) (*model.Payment, error) {
	var p model.Payment
	if err := s.conn(ctx).First(&p, "payment_id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("getting payment %d: %w", id, translate(err))
	}
	return &p, nil
}

// DeletePayment removes a payment.
func (s *Store) DeletePayment(ctx context.Context, id int64) error {
	res := s.conn(ctx).Where("payment_id = ?", id).Delete(&model.Payment{})
	if res.Error != nil {
		return fmt.Errorf("deleting payment %d: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("deleting payment %d: %w", id, ErrNotFound)
	}
	return nil
}

// PaymentsByUnitAndMonth returns the payments of one unit in one month in
// arrival order.
func (s *Store) PaymentsByUnitAndMonth(ctx context.Context, unitID, month string) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.conn(ctx).
		Where("unit_id = ? AND month = ?", unitID, month).
		Order("created_at, payment_id").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("listing payments of %s in %s: %w", unitID, month, err)
	}
	return payments, nil
}

// PaymentsByMonth returns every payment of a month ordered by unit.
func (s *Store) PaymentsByMonth(ctx context.Context, month string) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.conn(ctx).
		Where("month = ?", month).
		Order("unit_id, created_at, payment_id").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("listing payments in %s: %w", month, err)
	}
	return payments, nil
}

// PaymentsByUnit returns every payment of a unit, newest month first.
func (s *Store) PaymentsByUnit(ctx context.Context, unitID string) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.conn(ctx).
		Where("unit_id = ?", unitID).
		Order("month DESC, created_at, payment_id").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("listing payments of %s: %w", unitID, err)
	}
	return payments, nil
}

// PendingPayments returns payments awaiting attribution, newest first.
func (s *Store) PendingPayments(ctx context.Context) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.conn(ctx).
		Where("status = ?", model.StatusPending).
		Order("created_at DESC, payment_id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("listing pending payments: %w", err)
	}
	return payments, nil
}

// TotalPaidByUnitAndMonth sums the PAID and PARTIAL payments of a unit in a month.
func (s *Store) TotalPaidByUnitAndMonth(ctx context.Context, unitID, month string) (int64, error) {
	var total int64
	err := s.conn(ctx).Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("unit_id = ? AND month = ? AND status IN ?", unitID, month,
			[]model.PaymentStatus{model.StatusPaid, model.StatusPartial}).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("summing payments of %s in %s: %w", unitID, month, err)
	}
	return total, nil
}

// PaymentMonths returns the distinct months that have payments, newest first.
func (s *Store) PaymentMonths(ctx context.Context) ([]string, error) {
	var months []string
	err := s.conn(ctx).Model(&model.Payment{}).
		Distinct("month").
		Order("month DESC").
		Pluck("month", &months).Error
	if err != nil {
		return nil, fmt.Errorf("listing payment months: %w", err)
	}
	return months, nil
}

// BucketPayments returns the payments in a reconciliation bucket. Inside a
// postgres transaction the rows are locked until commit.
func (s *Store) BucketPayments(ctx context.Context, b model.Bucket) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.forUpdate(s.conn(ctx)).
		Where("tenant_key = ? AND unit_id = ? AND month = ?", b.TenantKey, b.UnitID, b.Month).
		Order("payment_id").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("listing payments in bucket %s: %w", b, err)
	}
	return payments, nil
}

// Buckets returns the distinct attributed buckets. An empty month selects all months.
func (s *Store) Buckets(ctx context.Context, month string) ([]model.Bucket, error) {
	db := s.conn(ctx).Model(&model.Payment{}).
		Distinct("tenant_key", "unit_id", "month").
		Where("tenant_key IS NOT NULL AND tenant_key <> '' AND unit_id <> ''")
	if month != "" {
		db = db.Where("month = ?", month)
	}
	var buckets []model.Bucket
	if err := db.Order("month, unit_id, tenant_key").Scan(&buckets).Error; err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	return buckets, nil
}

// UpdatePaymentStatus writes status and the override flag of a single payment.
func (s *Store) UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus, override bool) error {
	if !status.Valid() {
		return fmt.Errorf("updating payment %d: unknown status %q", id, status)
	}
	res := s.conn(ctx).Model(&model.Payment{}).
		Where("payment_id = ?", id).
		Updates(map[string]any{"status": status, "status_override": override})
	if res.Error != nil {
		return fmt.Errorf("updating payment %d: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("updating payment %d: %w", id, ErrNotFound)
	}
	return nil
}
