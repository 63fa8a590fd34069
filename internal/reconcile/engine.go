package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pinehill-dev/pinehill/internal/id"
	"github.com/pinehill-dev/pinehill/internal/ledger"
	"github.com/pinehill-dev/pinehill/internal/logging"
	"github.com/pinehill-dev/pinehill/internal/model"
)

var (
	// ErrTenantNotFound is returned when attribution names an unknown tenant.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrInvalidStatus is returned for an unknown status or a transition the
	// state machine forbids.
	ErrInvalidStatus = errors.New("invalid payment status")
)

// Result reports one bucket recomputation.
type Result struct {
	Bucket        model.Bucket        `json:"bucket"`
	Total         int64               `json:"total"`
	Target        int64               `json:"target"`
	TargetMissing bool                `json:"target_missing"`
	Status        model.PaymentStatus `json:"status,omitempty"`  // assigned to every unlocked payment; empty when TargetMissing
	Updated       []int64             `json:"updated,omitempty"` // payments whose status changed
}

// SweepSummary totals a sweep over many buckets.
type SweepSummary struct {
	Buckets       int            `json:"buckets"`
	Updated       int            `json:"updated"`
	TargetMissing []model.Bucket `json:"target_missing,omitempty"`
}

// ManualPayment is a payment entered by a person for a known tenant.
type ManualPayment struct {
	TenantKey  string
	Month      string
	Amount     int64
	PaidAt     *time.Time
	SenderName string
}

// Engine computes payment status per (tenant, unit, month) bucket. Every
// read-aggregate-write runs under a per-bucket lock inside one transaction.
type Engine struct {
	store   *ledger.Store
	targets Targets
	log     logrus.FieldLogger
	locks   *bucketLocks
}

// NewEngine creates an Engine. A nil log discards output.
func NewEngine(store *ledger.Store, targets Targets, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{store: store, targets: targets, log: log, locks: newBucketLocks()}
}

// tenant resolves a tenant key. A key that is not "<name>_<phone>" cannot
// name any tenant and is reported as ErrTenantNotFound without a lookup.
func (e *Engine) tenant(ctx context.Context, key string) (*model.Tenant, error) {
	if _, _, err := id.SplitTenantKey(key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTenantNotFound, err)
	}
	t, err := e.store.GetTenant(ctx, key)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, key)
	}
	return t, err
}

// Attribute links a payment to a tenant and that tenant's unit, then
// recomputes the bucket it joins. A payment moved out of another bucket
// triggers a recompute of that bucket too.
func (e *Engine) Attribute(ctx context.Context, paymentID int64, tenantKey string) (Result, error) {
	tenant, err := e.tenant(ctx, tenantKey)
	if err != nil {
		return Result{}, fmt.Errorf("attributing payment %d: %w", paymentID, err)
	}
	current, err := e.store.GetPayment(ctx, paymentID)
	if err != nil {
		return Result{}, fmt.Errorf("attributing payment %d: %w", paymentID, err)
	}

	previous := current.Bucket()
	wasAttributed := current.Attributed()
	bucket := model.Bucket{TenantKey: tenant.TenantKey, UnitID: tenant.UnitID, Month: current.Month}

	res, err := e.withBucket(ctx, bucket, func(tx *ledger.Store) error {
		p, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		key := tenant.TenantKey
		p.TenantKey = &key
		p.UnitID = tenant.UnitID
		return tx.SavePayment(ctx, p)
	})
	if err != nil {
		return Result{}, fmt.Errorf("attributing payment %d: %w", paymentID, err)
	}

	if wasAttributed && previous != bucket {
		if _, err := e.RecomputeBucket(ctx, previous); err != nil {
			return res, fmt.Errorf("recomputing previous bucket of payment %d: %w", paymentID, err)
		}
	}
	return res, nil
}

// SetStatus records a manual PAID, PARTIAL or UNPAID. The payment is locked
// against automated recomputation from then on; the rest of its bucket is
// recomputed because a locked PAID or PARTIAL amount still counts.
func (e *Engine) SetStatus(ctx context.Context, paymentID int64, status model.PaymentStatus) (Result, error) {
	if !status.Valid() {
		return Result{}, fmt.Errorf("setting status of payment %d: %w: %q", paymentID, ErrInvalidStatus, status)
	}
	// PENDING belongs to ingestion; a locked PENDING would never resolve.
	if status == model.StatusPending {
		return Result{}, fmt.Errorf("setting status of payment %d: %w: PENDING cannot be set manually", paymentID, ErrInvalidStatus)
	}
	p, err := e.store.GetPayment(ctx, paymentID)
	if err != nil {
		return Result{}, fmt.Errorf("setting status of payment %d: %w", paymentID, err)
	}

	if !p.Attributed() {
		if err := e.store.UpdatePaymentStatus(ctx, paymentID, status, true); err != nil {
			return Result{}, fmt.Errorf("setting status of payment %d: %w", paymentID, err)
		}
		e.log.WithFields(logrus.Fields{"payment_id": paymentID, "status": status}).Info("Status set manually on unattributed payment")
		return Result{Status: status}, nil
	}

	res, err := e.withBucket(ctx, p.Bucket(), func(tx *ledger.Store) error {
		return tx.UpdatePaymentStatus(ctx, paymentID, status, true)
	})
	if err != nil {
		return Result{}, fmt.Errorf("setting status of payment %d: %w", paymentID, err)
	}
	e.log.WithFields(logrus.Fields{"payment_id": paymentID, "status": status, "bucket": res.Bucket.String()}).Info("Status set manually")
	return res, nil
}

// RecordPayment stores a manually entered payment for a tenant and computes
// its status together with the rest of its bucket.
func (e *Engine) RecordPayment(ctx context.Context, m ManualPayment) (*model.Payment, Result, error) {
	tenant, err := e.tenant(ctx, m.TenantKey)
	if err != nil {
		return nil, Result{}, fmt.Errorf("recording payment: %w", err)
	}

	key := tenant.TenantKey
	p := &model.Payment{
		TenantKey: &key,
		UnitID:    tenant.UnitID,
		Month:     m.Month,
		PaidAt:    m.PaidAt,
		Amount:    m.Amount,
		Source:    model.SourceManual,
		Status:    model.StatusPending,
	}
	if m.SenderName != "" {
		sender := m.SenderName
		p.SenderName = &sender
	}

	res, err := e.withBucket(ctx, p.Bucket(), func(tx *ledger.Store) error {
		return tx.SavePayment(ctx, p)
	})
	if err != nil {
		return nil, Result{}, fmt.Errorf("recording payment: %w", err)
	}

	stored, err := e.store.GetPayment(ctx, p.PaymentID)
	if err != nil {
		return nil, res, fmt.Errorf("recording payment: %w", err)
	}
	return stored, res, nil
}

// RecomputeBucket recomputes the status of every unlocked payment in b.
// Running it twice on the same ledger yields the same statuses.
func (e *Engine) RecomputeBucket(ctx context.Context, b model.Bucket) (Result, error) {
	res, err := e.withBucket(ctx, b, nil)
	if err != nil {
		return Result{}, fmt.Errorf("recomputing bucket %s: %w", b, err)
	}
	return res, nil
}

// Sweep recomputes every attributed bucket of month, or of all months when
// month is empty.
func (e *Engine) Sweep(ctx context.Context, month string) (SweepSummary, error) {
	buckets, err := e.store.Buckets(ctx, month)
	if err != nil {
		return SweepSummary{}, fmt.Errorf("sweeping: %w", err)
	}

	var sum SweepSummary
	for _, b := range buckets {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res, err := e.RecomputeBucket(ctx, b)
		if err != nil {
			return sum, err
		}
		sum.Buckets++
		sum.Updated += len(res.Updated)
		if res.TargetMissing {
			sum.TargetMissing = append(sum.TargetMissing, b)
		}
	}
	e.log.WithFields(logrus.Fields{
		"month":          month,
		"buckets":        sum.Buckets,
		"updated":        sum.Updated,
		"target_missing": len(sum.TargetMissing),
	}).Info("Reconciliation sweep finished")
	return sum, nil
}

// withBucket locks b, runs mutate (if any) and the recompute of b in one
// transaction. The rent target is resolved before the transaction opens.
func (e *Engine) withBucket(ctx context.Context, b model.Bucket, mutate func(tx *ledger.Store) error) (Result, error) {
	target, ok, err := e.targets.RentTarget(ctx, b.UnitID)
	if err != nil {
		return Result{}, fmt.Errorf("resolving rent target for %s: %w", b.UnitID, err)
	}

	unlock := e.locks.lock(b.String())
	defer unlock()

	res := Result{Bucket: b, Target: target, TargetMissing: !ok}
	err = e.store.Transaction(ctx, func(tx *ledger.Store) error {
		if mutate != nil {
			if err := mutate(tx); err != nil {
				return err
			}
		}

		payments, err := tx.BucketPayments(ctx, b)
		if err != nil {
			return err
		}
		res.Total = BucketTotal(payments)
		if !ok {
			return nil
		}

		res.Status = Decide(res.Total, target)
		for _, p := range payments {
			if p.StatusOverride || p.Status == res.Status {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.UpdatePaymentStatus(ctx, p.PaymentID, res.Status, false); err != nil {
				return err
			}
			res.Updated = append(res.Updated, p.PaymentID)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log := e.log.WithFields(logrus.Fields{"bucket": b.String(), "total": res.Total})
	if res.TargetMissing {
		log.WithField("unit_id", b.UnitID).Warn("No rent target for unit, status left unchanged")
	} else if len(res.Updated) > 0 {
		log.WithFields(logrus.Fields{"status": res.Status, "target": target, "updated": len(res.Updated)}).Info("Bucket reconciled")
	}
	return res, nil
}
