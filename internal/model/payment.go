package model

import "time"

// PaymentStatus is the reconciliation state of a payment.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "PAID"
	StatusPartial PaymentStatus = "PARTIAL"
	StatusUnpaid  PaymentStatus = "UNPAID"
	StatusPending PaymentStatus = "PENDING" // awaiting attribution
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusPartial, StatusUnpaid, StatusPending:
		return true
	}
	return false
}

// Counts reports whether a payment in this status contributes to a bucket total.
func (s PaymentStatus) Counts() bool {
	return s == StatusPaid || s == StatusPartial
}

// Label returns the display label for the status.
func (s PaymentStatus) Label() string {
	switch s {
	case StatusPaid:
		return "완납"
	case StatusPartial:
		return "부분납"
	case StatusUnpaid:
		return "미납"
	default:
		return "확인필요"
	}
}

// Source records where a ledger row came from.
type Source string

const (
	SourceSMS    Source = "SMS"
	SourceManual Source = "MANUAL"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceSMS || s == SourceManual
}

// Payment is one monetary inflow. A nil TenantKey with an empty UnitID is unresolved.
type Payment struct {
	PaymentID      int64         `gorm:"primaryKey;autoIncrement" json:"payment_id"`
	TenantKey      *string       `gorm:"size:96;index" json:"tenant_key"`
	UnitID         string        `gorm:"size:32;index" json:"unit_id"`
	Month          string        `gorm:"size:7;not null;index" json:"month"` // YYYY-MM
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	Amount         int64         `gorm:"not null" json:"amount"` // KRW
	SenderName     *string       `gorm:"size:64" json:"sender_name,omitempty"`
	Source         Source        `gorm:"size:8;not null" json:"source"`
	Status         PaymentStatus `gorm:"size:8;not null;index" json:"status"`
	StatusOverride bool          `gorm:"not null" json:"status_override"`
	RawSMS         *string       `gorm:"column:raw_sms;type:text" json:"raw_sms,omitempty"`
	RawHash        *string       `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Attributed reports whether the payment is linked to a tenant and unit.
func (p Payment) Attributed() bool {
	return p.TenantKey != nil && *p.TenantKey != "" && p.UnitID != ""
}

// Bucket returns the reconciliation bucket of an attributed payment.
func (p Payment) Bucket() Bucket {
	b := Bucket{UnitID: p.UnitID, Month: p.Month}
	if p.TenantKey != nil {
		b.TenantKey = *p.TenantKey
	}
	return b
}

// Bucket is the (tenant, unit, month) key over which payment status is computed.
type Bucket struct {
	TenantKey string `json:"tenant_key"`
	UnitID    string `json:"unit_id"`
	Month     string `json:"month"`
}

func (b Bucket) String() string {
	return b.TenantKey + "|" + b.UnitID + "|" + b.Month
}
