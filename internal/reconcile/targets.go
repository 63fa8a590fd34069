package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pinehill-dev/pinehill/internal/ledger"
	"github.com/pinehill-dev/pinehill/internal/model"
)

// Targets supplies the monthly rent a unit is expected to collect.
type Targets interface {
	// RentTarget returns the target in KRW, or ok=false when none is known.
	RentTarget(ctx context.Context, unitID string) (target int64, ok bool, err error)
}

// UnitLookup reads a unit by id.
type UnitLookup interface {
	GetUnit(ctx context.Context, unitID string) (*model.Unit, error)
}

// ConfigTargets resolves targets from configured per-unit amounts, falling
// back to the monthly half of the unit's target price string.
type ConfigTargets struct {
	Fixed     map[string]int64
	PriceUnit int64
	Units     UnitLookup
}

// RentTarget implements Targets.
func (c ConfigTargets) RentTarget(ctx context.Context, unitID string) (int64, bool, error) {
	if v, ok := c.Fixed[unitID]; ok && v > 0 {
		return v, true, nil
	}
	if c.Units == nil {
		return 0, false, nil
	}
	u, err := c.Units.GetUnit(ctx, unitID)
	if errors.Is(err, ledger.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if u.TargetPrice == nil || strings.TrimSpace(*u.TargetPrice) == "" {
		return 0, false, nil
	}
	_, monthly, err := ParseTargetPrice(*u.TargetPrice, c.PriceUnit)
	if err != nil {
		return 0, false, fmt.Errorf("unit %s: %w", unitID, err)
	}
	return monthly, true, nil
}

// ParseTargetPrice parses "<deposit>-<monthly>" (e.g. "500-50", "1000-42.5")
// into KRW amounts, each scaled by priceUnit.
func ParseTargetPrice(s string, priceUnit int64) (deposit, monthly int64, err error) {
	depStr, monStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid target price %q: want <deposit>-<monthly>", s)
	}
	if priceUnit <= 0 {
		return 0, 0, fmt.Errorf("invalid price unit %d", priceUnit)
	}
	unit := decimal.NewFromInt(priceUnit)

	scale := func(part string) (int64, error) {
		d, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return 0, fmt.Errorf("invalid target price %q: %w", s, err)
		}
		if d.IsNegative() {
			return 0, fmt.Errorf("invalid target price %q: negative amount", s)
		}
		v := d.Mul(unit)
		if !v.IsInteger() {
			return 0, fmt.Errorf("invalid target price %q: %s is not a whole amount", s, v)
		}
		return v.IntPart(), nil
	}

	if deposit, err = scale(depStr); err != nil {
		return 0, 0, err
	}
	if monthly, err = scale(monStr); err != nil {
		return 0, 0, err
	}
	if monthly == 0 {
		return 0, 0, fmt.Errorf("invalid target price %q: monthly rent is zero", s)
	}
	return deposit, monthly, nil
}
