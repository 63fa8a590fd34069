package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pinehill-dev/pinehill/internal/ledger"
	"github.com/pinehill-dev/pinehill/internal/model"
	"github.com/pinehill-dev/pinehill/internal/reconcile"
)

// Service answers read-only questions about the ledger. Every method returns
// a snapshot; callers poll for changes.
type Service struct {
	store   *ledger.Store
	targets reconcile.Targets
}

// NewService creates a reporting Service.
func NewService(store *ledger.Store, targets reconcile.Targets) *Service {
	return &Service{store: store, targets: targets}
}

// UnitStat is the number of units in one occupancy state.
type UnitStat struct {
	Status model.UnitStatus `json:"status"`
	Label  string           `json:"label"`
	Count  int64            `json:"count"`
}

// UnitHistory is everything the ledger knows about one unit.
type UnitHistory struct {
	Unit     model.Unit      `json:"unit"`
	Tenants  []model.Tenant  `json:"tenants"`
	Payments []model.Payment `json:"payments"`
	Expenses []model.Expense `json:"expenses"`
}

// UnitLine is one unit's rent position in a monthly summary.
type UnitLine struct {
	UnitID      string              `json:"unit_id"`
	UnitStatus  model.UnitStatus    `json:"unit_status"`
	Target      int64               `json:"target"`
	TargetKnown bool                `json:"target_known"`
	Paid        int64               `json:"paid"`
	Payments    int                 `json:"payments"`
	Status      model.PaymentStatus `json:"status,omitempty"` // empty when the target is unknown
}

// Summary is the monthly position of the property.
type Summary struct {
	Month          string          `json:"month"`
	Units          []UnitLine      `json:"units"`
	RentTarget     int64           `json:"rent_target"`
	Collected      int64           `json:"collected"`
	PendingCount   int             `json:"pending_count"`
	PendingAmount  int64           `json:"pending_amount"`
	Expenses       int64           `json:"expenses"`
	ExpenseCount   int64           `json:"expense_count"`
	Net            int64           `json:"net"`
	CollectionRate decimal.Decimal `json:"collection_rate"` // Collected / RentTarget, 0 when no target
}

// UnitsByStatus lists the units in one occupancy state.
func (s *Service) UnitsByStatus(ctx context.Context, status model.UnitStatus) ([]model.Unit, error) {
	return s.store.UnitsByStatus(ctx, status)
}

// AllUnits lists every unit.
func (s *Service) AllUnits(ctx context.Context) ([]model.Unit, error) {
	return s.store.ListUnits(ctx)
}

// UnitStats counts units per occupancy state, including empty states, in
// display order.
func (s *Service) UnitStats(ctx context.Context) ([]UnitStat, error) {
	counts, err := s.store.CountUnitsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := make([]UnitStat, 0, len(model.UnitStatuses))
	for _, st := range model.UnitStatuses {
		stats = append(stats, UnitStat{Status: st, Label: st.Label(), Count: counts[st]})
	}
	return stats, nil
}

// PaymentsByUnitAndMonth lists the payments of one unit in one month.
func (s *Service) PaymentsByUnitAndMonth(ctx context.Context, unitID, month string) ([]model.Payment, error) {
	return s.store.PaymentsByUnitAndMonth(ctx, unitID, month)
}

// TotalPaidByUnitAndMonth sums PAID and PARTIAL payments of one unit in one month.
func (s *Service) TotalPaidByUnitAndMonth(ctx context.Context, unitID, month string) (int64, error) {
	return s.store.TotalPaidByUnitAndMonth(ctx, unitID, month)
}

// PendingPayments lists payments awaiting attribution.
func (s *Service) PendingPayments(ctx context.Context) ([]model.Payment, error) {
	return s.store.PendingPayments(ctx)
}

// TotalExpenseByMonth sums the expenses of a month.
func (s *Service) TotalExpenseByMonth(ctx context.Context, month string) (int64, error) {
	return s.store.TotalExpenseByMonth(ctx, month)
}

// ExpensesByMonth lists the expenses of a month.
func (s *Service) ExpensesByMonth(ctx context.Context, month string) ([]model.Expense, error) {
	return s.store.ExpensesByMonth(ctx, month)
}

// Months lists every month with a payment or an expense, newest first.
func (s *Service) Months(ctx context.Context) ([]string, error) {
	var months []string
	err := s.store.Snapshot(ctx, func(tx *ledger.Store) error {
		paid, err := tx.PaymentMonths(ctx)
		if err != nil {
			return err
		}
		spent, err := tx.ExpenseMonths(ctx)
		if err != nil {
			return err
		}
		months = mergeMonths(paid, spent)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing months: %w", err)
	}
	return months, nil
}

// UnitHistory returns the unit with its tenants, payments and expenses.
func (s *Service) UnitHistory(ctx context.Context, unitID string) (*UnitHistory, error) {
	var h UnitHistory
	err := s.store.Snapshot(ctx, func(tx *ledger.Store) error {
		u, err := tx.GetUnit(ctx, unitID)
		if err != nil {
			return err
		}
		h.Unit = *u
		if h.Tenants, err = tx.TenantsByUnit(ctx, unitID); err != nil {
			return err
		}
		if h.Payments, err = tx.PaymentsByUnit(ctx, unitID); err != nil {
			return err
		}
		h.Expenses, err = tx.ExpensesByUnit(ctx, unitID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("unit history of %s: %w", unitID, err)
	}
	return &h, nil
}

// MonthlySummary computes the rent and expense position of a month. Rent
// targets are resolved first; every ledger figure comes from one snapshot.
func (s *Service) MonthlySummary(ctx context.Context, month string) (*Summary, error) {
	units, err := s.store.ListUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarizing %s: %w", month, err)
	}

	type target struct {
		amount int64
		known  bool
	}
	targets := make(map[string]target, len(units))
	for _, u := range units {
		if u.Status != model.UnitRented {
			continue
		}
		amount, ok, err := s.targets.RentTarget(ctx, u.UnitID)
		if err != nil {
			return nil, fmt.Errorf("summarizing %s: %w", month, err)
		}
		targets[u.UnitID] = target{amount, ok}
	}

	sum := &Summary{Month: month}
	err = s.store.Snapshot(ctx, func(tx *ledger.Store) error {
		payments, err := tx.PaymentsByMonth(ctx, month)
		if err != nil {
			return err
		}
		paid := make(map[string]int64)
		count := make(map[string]int)
		for _, p := range payments {
			if p.Status == model.StatusPending {
				sum.PendingCount++
				sum.PendingAmount += p.Amount
				continue
			}
			if p.UnitID == "" {
				continue
			}
			count[p.UnitID]++
			if p.Status.Counts() {
				paid[p.UnitID] += p.Amount
				sum.Collected += p.Amount
			}
		}

		for _, u := range units {
			t, rented := targets[u.UnitID]
			if !rented && count[u.UnitID] == 0 {
				continue
			}
			line := UnitLine{
				UnitID:      u.UnitID,
				UnitStatus:  u.Status,
				Target:      t.amount,
				TargetKnown: t.known,
				Paid:        paid[u.UnitID],
				Payments:    count[u.UnitID],
			}
			if t.known {
				line.Status = reconcile.Decide(line.Paid, t.amount)
				sum.RentTarget += t.amount
			}
			sum.Units = append(sum.Units, line)
		}

		if sum.Expenses, err = tx.TotalExpenseByMonth(ctx, month); err != nil {
			return err
		}
		sum.ExpenseCount, err = tx.ExpenseCountByMonth(ctx, month)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("summarizing %s: %w", month, err)
	}

	sum.Net = sum.Collected - sum.Expenses
	if sum.RentTarget > 0 {
		sum.CollectionRate = decimal.NewFromInt(sum.Collected).
			Div(decimal.NewFromInt(sum.RentTarget)).
			Round(4)
	}
	return sum, nil
}

func mergeMonths(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, m := range append(append([]string(nil), a...), b...) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}
