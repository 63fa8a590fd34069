package model

import (
	"fmt"
	"regexp"
)

// ValidationError describes a single row invariant violation.
type ValidationError struct {
	Entity      string
	Key         string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s [%s]: %s", e.Entity, e.Key, e.Description)
}

var (
	monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	pricePattern = regexp.MustCompile(`^\s*\d+(\.\d+)?\s*-\s*\d+(\.\d+)?\s*$`)
)

// ValidateUnit checks the invariants of a Unit row.
func ValidateUnit(u Unit) []ValidationError {
	var errs []ValidationError
	if u.UnitID == "" {
		errs = append(errs, ValidationError{"unit", u.UnitID, "unit id is required"})
	}
	if !u.Status.Valid() {
		errs = append(errs, ValidationError{"unit", u.UnitID, fmt.Sprintf("unknown status %q", u.Status)})
	}
	if u.TargetPrice != nil && !pricePattern.MatchString(*u.TargetPrice) {
		errs = append(errs, ValidationError{"unit", u.UnitID, fmt.Sprintf("target price %q is not <deposit>-<monthly>", *u.TargetPrice)})
	}
	return errs
}

// ValidateTenant checks the invariants of a Tenant row.
func ValidateTenant(t Tenant) []ValidationError {
	var errs []ValidationError
	if t.TenantKey == "" {
		errs = append(errs, ValidationError{"tenant", t.TenantKey, "tenant key is required"})
	}
	if t.UnitID == "" {
		errs = append(errs, ValidationError{"tenant", t.TenantKey, "unit id is required"})
	}
	return errs
}

// ValidatePayment checks the invariants of a Payment row.
func ValidatePayment(p Payment) []ValidationError {
	var errs []ValidationError
	key := fmt.Sprintf("%d", p.PaymentID)

	if p.Amount <= 0 {
		errs = append(errs, ValidationError{"payment", key, fmt.Sprintf("amount %d must be positive", p.Amount)})
	}
	if !monthPattern.MatchString(p.Month) {
		errs = append(errs, ValidationError{"payment", key, fmt.Sprintf("month %q is not YYYY-MM", p.Month)})
	}
	if !p.Status.Valid() {
		errs = append(errs, ValidationError{"payment", key, fmt.Sprintf("unknown status %q", p.Status)})
	}
	if !p.Source.Valid() {
		errs = append(errs, ValidationError{"payment", key, fmt.Sprintf("unknown source %q", p.Source)})
	}
	return errs
}

// ValidateExpense checks the invariants of an Expense row.
func ValidateExpense(e Expense) []ValidationError {
	var errs []ValidationError
	key := fmt.Sprintf("%d", e.ExpenseID)

	if e.Amount <= 0 {
		errs = append(errs, ValidationError{"expense", key, fmt.Sprintf("amount %d must be positive", e.Amount)})
	}
	if !monthPattern.MatchString(e.Month) {
		errs = append(errs, ValidationError{"expense", key, fmt.Sprintf("month %q is not YYYY-MM", e.Month)})
	}
	if !e.Category.Valid() {
		errs = append(errs, ValidationError{"expense", key, fmt.Sprintf("unknown category %q", e.Category)})
	}
	if !e.Source.Valid() {
		errs = append(errs, ValidationError{"expense", key, fmt.Sprintf("unknown source %q", e.Source)})
	}
	return errs
}
