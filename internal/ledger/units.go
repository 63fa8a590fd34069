package ledger

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/pinehill-dev/pinehill/internal/model"
)

// CreateUnit inserts a new unit. An existing unit id is a constraint violation.
func (s *Store) CreateUnit(ctx context.Context, u *model.Unit) error {
	if err := validation(model.ValidateUnit(*u)); err != nil {
		return err
	}
	if err := s.conn(ctx).Omit(clause.Associations).Create(u).Error; err != nil {
		return fmt.Errorf("creating unit %s: %w", u.UnitID, translate(err))
	}
	return nil
}

// SaveUnit inserts a unit or replaces every field of the existing one.
// Tenants of the unit are left untouched.
func (s *Store) SaveUnit(ctx context.Context, u *model.Unit) error {
	if err := validation(model.ValidateUnit(*u)); err != nil {
		return err
	}
	if err := s.upsert(ctx, u); err != nil {
		return fmt.Errorf("saving unit %s: %w", u.UnitID, translate(err))
	}
	return nil
}

// SaveUnits upserts a batch of units in one transaction.
func (s *Store) SaveUnits(ctx context.Context, units []model.Unit) error {
	return s.Transaction(ctx, func(tx *Store) error {
		for i := range units {
			if err := tx.SaveUnit(ctx, &units[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedUnits inserts units only when the unit table is empty. It returns the
// number of units inserted.
func (s *Store) SeedUnits(ctx context.Context, units []model.Unit) (int, error) {
	seeded := 0
	err := s.Transaction(ctx, func(tx *Store) error {
		n, err := tx.CountUnits(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for i := range units {
			if err := tx.CreateUnit(ctx, &units[i]); err != nil {
				return err
			}
		}
		seeded = len(units)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seeding units: %w", err)
	}
	return seeded, nil
}

// GetUnit returns the unit with the given id.
func (s *Store) GetUnit(ctx context.Context, unitID string) (*model.Unit, error) {
	var u model.Unit
	if err := s.conn(ctx).First(&u, "unit_id = ?", unitID).Error; err != nil {
		return nil, fmt.Errorf("getting unit %s: %w", unitID, translate(err))
	}
	return &u, nil
}

// ListUnits returns every unit ordered by id.
func (s *Store) ListUnits(ctx context.Context) ([]model.Unit, error) {
	var units []model.Unit
	if err := s.conn(ctx).Order("unit_id").Find(&units).Error; err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	return units, nil
}

// UnitsByStatus returns the units in one occupancy state ordered by id.
func (s *Store) UnitsByStatus(ctx context.Context, status model.UnitStatus) ([]model.Unit, error) {
	var units []model.Unit
	if err := s.conn(ctx).Where("status = ?", status).Order("unit_id").Find(&units).Error; err != nil {
		return nil, fmt.Errorf("listing %s units: %w", status, err)
	}
	return units, nil
}

// CountUnits returns the number of units.
func (s *Store) CountUnits(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn(ctx).Model(&model.Unit{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting units: %w", err)
	}
	return n, nil
}

// CountUnitsByStatus returns the number of units in each occupancy state.
func (s *Store) CountUnitsByStatus(ctx context.Context) (map[model.UnitStatus]int64, error) {
	var rows []struct {
		Status model.UnitStatus
		N      int64
	}
	err := s.conn(ctx).Model(&model.Unit{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting units by status: %w", err)
	}
	counts := make(map[model.UnitStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

// DeleteUnit removes a unit. Its tenants are deleted with it and their
// payments become unattributed.
func (s *Store) DeleteUnit(ctx context.Context, unitID string) error {
	res := s.conn(ctx).Where("unit_id = ?", unitID).Delete(&model.Unit{})
	if res.Error != nil {
		return fmt.Errorf("deleting unit %s: %w", unitID, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("deleting unit %s: %w", unitID, ErrNotFound)
	}
	return nil
}

// UnitEdit holds the hand-editable fields of a unit; nil fields are kept. An
// empty TargetPrice clears the price.
type UnitEdit struct {
	Status      *model.UnitStatus
	TargetPrice *string
}

// EditUnit applies edit to a unit and returns the stored row. Tenants of the
// unit are left untouched.
func (s *Store) EditUnit(ctx context.Context, unitID string, edit UnitEdit) (*model.Unit, error) {
	var out *model.Unit
	err := s.Transaction(ctx, func(tx *Store) error {
		u, err := tx.GetUnit(ctx, unitID)
		if err != nil {
			return err
		}
		if edit.Status != nil {
			u.Status = *edit.Status
		}
		if edit.TargetPrice != nil {
			if *edit.TargetPrice == "" {
				u.TargetPrice = nil
			} else {
				price := *edit.TargetPrice
				u.TargetPrice = &price
			}
		}
		if err := tx.SaveUnit(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("editing unit %s: %w", unitID, err)
	}
	return out, nil
}
