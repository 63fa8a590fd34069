package ledger

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/pinehill-dev/pinehill/internal/model"
)

// SaveExpense inserts an expense or fully replaces the one with the same id.
func (s *Store) SaveExpense(ctx context.Context, e *model.Expense) error {
	if err := validation(model.ValidateExpense(*e)); err != nil {
		return err
	}
	if err := s.upsert(ctx, e); err != nil {
		return fmt.Errorf("saving expense %d: %w", e.ExpenseID, translate(err))
	}
	return nil
}

// InsertIngestedExpense inserts a new expense produced by ingestion, skipping
// it when its RawHash is already stored.
func (s *Store) InsertIngestedExpense(ctx context.Context, e *model.Expense) (inserted bool, err error) {
	if err := validation(model.ValidateExpense(*e)); err != nil {
		return false, err
	}
	db := s.conn(ctx)
	if e.RawHash != nil {
		db = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "raw_hash"}},
			DoNothing: true,
		})
	}
	res := db.Create(e)
	if res.Error != nil {
		return false, fmt.Errorf("inserting expense: %w", translate(res.Error))
	}
	return res.RowsAffected > 0, nil
}

// GetExpense returns the expense with the given id.
func (s *Store) GetExpense(ctx context.Context, id int64) (*model.Expense, error) {
	var e model.Expense
	if err := s.conn(ctx).First(&e, "expense_id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("getting expense %d: %w", id, translate(err))
	}
	return &e, nil
}

// DeleteExpense removes an expense.
func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	res := s.conn(ctx).Where("expense_id = ?", id).Delete(&model.Expense{})
	if res.Error != nil {
		return fmt.Errorf("deleting expense %d: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("deleting expense %d: %w", id, ErrNotFound)
	}
	return nil
}

// ExpensesByMonth returns the expenses of a month, latest first.
func (s *Store) ExpensesByMonth(ctx context.Context, month string) ([]model.Expense, error) {
	var expenses []model.Expense
	err := s.conn(ctx).
		Where("month = ?", month).
		Order("spent_at DESC, expense_id DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("listing expenses in %s: %w", month, err)
	}
	return expenses, nil
}

// ExpensesByUnit returns the expenses scoped to one unit, newest month first.
func (s *Store) ExpensesByUnit(ctx context.Context, unitID string) ([]model.Expense, error) {
	var expenses []model.Expense
	err := s.conn(ctx).
		Where("unit_id = ?", unitID).
		Order("month DESC, spent_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("listing expenses of %s: %w", unitID, err)
	}
	return expenses, nil
}

// TotalExpenseByMonth sums the expenses of a month.
func (s *Store) TotalExpenseByMonth(ctx context.Context, month string) (int64, error) {
	var total int64
	err := s.conn(ctx).Model(&model.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("month = ?", month).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("summing expenses in %s: %w", month, err)
	}
	return total, nil
}

// ExpenseCountByMonth counts the expenses of a month.
func (s *Store) ExpenseCountByMonth(ctx context.Context, month string) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&model.Expense{}).Where("month = ?", month).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting expenses in %s: %w", month, err)
	}
	return n, nil
}

// ExpenseMonths returns the distinct months that have expenses, newest first.
func (s *Store) ExpenseMonths(ctx context.Context) ([]string, error) {
	var months []string
	err := s.conn(ctx).Model(&model.Expense{}).
		Distinct("month").
		Order("month DESC").
		Pluck("month", &months).Error
	if err != nil {
		return nil, fmt.Errorf("listing expense months: %w", err)
	}
	return months, nil
}

// ExpenseEdit holds the hand-editable fields of an expense; nil fields are
// kept. An empty UnitID makes the expense shared.
type ExpenseEdit struct {
	Category *model.ExpenseCategory
	Memo     *string
	UnitID   *string
}

// EditExpense applies edit to the expense with the given id and returns the
// stored row.
func (s *Store) EditExpense(ctx context.Context, id int64, edit ExpenseEdit) (*model.Expense, error) {
	var out *model.Expense
	err := s.Transaction(ctx, func(tx *Store) error {
		e, err := tx.GetExpense(ctx, id)
		if err != nil {
			return err
		}
		if edit.Category != nil {
			e.Category = *edit.Category
		}
		if edit.Memo != nil {
			e.Memo = *edit.Memo
		}
		if edit.UnitID != nil {
			if *edit.UnitID == "" {
				e.UnitID = nil
			} else {
				if _, err := tx.GetUnit(ctx, *edit.UnitID); err != nil {
					return err
				}
				unitID := *edit.UnitID
				e.UnitID = &unitID
			}
		}
		if err := tx.SaveExpense(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("editing expense %d: %w", id, err)
	}
	return out, nil
}
