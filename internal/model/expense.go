package model

import "time"

// ExpenseCategory classifies an outflow.
type ExpenseCategory string

const (
	CategoryUtilities  ExpenseCategory = "UTILITIES"
	CategoryRepair     ExpenseCategory = "REPAIR"
	CategoryCleaning   ExpenseCategory = "CLEANING"
	CategoryTax        ExpenseCategory = "TAX"
	CategoryInsurance  ExpenseCategory = "INSURANCE"
	CategoryManagement ExpenseCategory = "MANAGEMENT"
	CategoryOther      ExpenseCategory = "OTHER" // unclassified
)

// ExpenseCategories lists every category.
var ExpenseCategories = []ExpenseCategory{
	CategoryUtilities, CategoryRepair, CategoryCleaning, CategoryTax,
	CategoryInsurance, CategoryManagement, CategoryOther,
}

// Valid reports whether c is a known category.
func (c ExpenseCategory) Valid() bool {
	for _, v := range ExpenseCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Expense is one monetary outflow. A nil UnitID is a shared expense.
type Expense struct {
	ExpenseID int64           `gorm:"primaryKey;autoIncrement" json:"expense_id"`
	SpentAt   time.Time       `gorm:"not null;index" json:"spent_at"`
	Amount    int64           `gorm:"not null" json:"amount"` // KRW
	Category  ExpenseCategory `gorm:"size:16;not null" json:"category"`
	Memo      string          `gorm:"type:text" json:"memo"`
	UnitID    *string         `gorm:"size:32;index" json:"unit_id"`
	Month     string          `gorm:"size:7;not null;index" json:"month"` // YYYY-MM
	Source    Source          `gorm:"size:8;not null" json:"source"`
	RawSMS    *string         `gorm:"column:raw_sms;type:text" json:"raw_sms,omitempty"`
	RawHash   *string         `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

// Shared reports whether the expense belongs to the whole property.
func (e Expense) Shared() bool {
	return e.UnitID == nil || *e.UnitID == ""
}
