package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestUnitStatusLabel(t *testing.T) {
	tests := []struct {
		status UnitStatus
		want   string
	}{
		{UnitRented, "임대중"},
		{UnitVacant, "공실"},
		{UnitMaintenance, "정비중"},
		{UnitLawsuit, "소송"},
		{UnitOther, "기타"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.Label(), "Label(%s)", tt.status)
		assert.True(t, tt.status.Valid())
	}
	assert.False(t, UnitStatus("DEMOLISHED").Valid())
}

func TestPaymentStatusCounts(t *testing.T) {
	assert.True(t, StatusPaid.Counts())
	assert.True(t, StatusPartial.Counts())
	assert.False(t, StatusUnpaid.Counts())
	assert.False(t, StatusPending.Counts())
	assert.Equal(t, "확인필요", StatusPending.Label())
	assert.False(t, PaymentStatus("LATE").Valid())
}

func TestPaymentAttributed(t *testing.T) {
	tests := []struct {
		name string
		p    Payment
		want bool
	}{
		{"unresolved", Payment{UnitID: ""}, false},
		{"tenant only", Payment{TenantKey: strPtr("홍길동_01012345678")}, false},
		{"empty key", Payment{TenantKey: strPtr(""), UnitID: "PINE-201"}, false},
		{"attributed", Payment{TenantKey: strPtr("홍길동_01012345678"), UnitID: "PINE-201"}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.p.Attributed(), tt.name)
	}
}

func TestPaymentBucket(t *testing.T) {
	p := Payment{TenantKey: strPtr("a_010"), UnitID: "PINE-301", Month: "2025-01"}
	b := p.Bucket()
	assert.Equal(t, Bucket{TenantKey: "a_010", UnitID: "PINE-301", Month: "2025-01"}, b)
	assert.Equal(t, "a_010|PINE-301|2025-01", b.String())
}

func TestValidatePayment(t *testing.T) {
	ok := Payment{Amount: 450000, Month: "2025-01", Status: StatusPending, Source: SourceSMS}
	assert.Empty(t, ValidatePayment(ok))

	bad := Payment{Amount: 0, Month: "2025-13", Status: "LATE", Source: "FAX"}
	errs := ValidatePayment(bad)
	assert.Len(t, errs, 4)
	assert.Contains(t, errs[0].Error(), "must be positive")
}

func TestValidateExpense(t *testing.T) {
	ok := Expense{Amount: 20000, Month: "2025-01", Category: CategoryOther, Source: SourceSMS}
	assert.Empty(t, ValidateExpense(ok))
	assert.True(t, ok.Shared())

	bad := Expense{Amount: -1, Month: "25-01", Category: "FOOD", Source: SourceManual}
	assert.Len(t, ValidateExpense(bad), 3)
}

func TestValidateUnitAndTenant(t *testing.T) {
	assert.Empty(t, ValidateUnit(Unit{UnitID: "PINE-201", Status: UnitRented}))
	assert.Len(t, ValidateUnit(Unit{Status: "X"}), 2)

	for _, price := range []string{"500-50", "1000-42.5", " 500 - 60 "} {
		assert.Empty(t, ValidateUnit(Unit{UnitID: "PINE-201", Status: UnitRented, TargetPrice: &price}), price)
	}
	for _, price := range []string{"", "500", "오백-50", "500-50-1"} {
		assert.Len(t, ValidateUnit(Unit{UnitID: "PINE-201", Status: UnitRented, TargetPrice: &price}), 1, price)
	}

	assert.Empty(t, ValidateTenant(Tenant{TenantKey: "a_1", UnitID: "PINE-201"}))
	assert.Len(t, ValidateTenant(Tenant{}), 2)
}
