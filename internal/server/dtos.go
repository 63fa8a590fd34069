package server

import (
	"time"

	"github.com/pinehill-dev/pinehill/internal/model"
	"github.com/pinehill-dev/pinehill/internal/reconcile"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// SMSEventRequest is one notification forwarded by the delivery layer.
type SMSEventRequest struct {
	Source string `json:"source"`
	Text   string `json:"text" validate:"required"`
}

type AcceptedResponse struct {
	Status string `json:"status"`
}

type AttributeRequest struct {
	TenantKey string `json:"tenant_key" validate:"required"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PAID PARTIAL UNPAID"`
}

type ManualPaymentRequest struct {
	TenantKey  string     `json:"tenant_key" validate:"required"`
	Month      string     `json:"month" validate:"required,len=7"`
	Amount     int64      `json:"amount" validate:"gt=0"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	SenderName string     `json:"sender_name,omitempty" validate:"max=64"`
}

type ManualPaymentResponse struct {
	Payment *model.Payment   `json:"payment"`
	Result  reconcile.Result `json:"result"`
}

type TenantRequest struct {
	Name   string `json:"name" validate:"required,max=64"`
	Phone  string `json:"phone" validate:"required,max=32"`
	UnitID string `json:"unit_id" validate:"required"`
}

// UnitEditRequest changes a unit; omitted fields are kept and an empty
// target_price clears it.
type UnitEditRequest struct {
	Status      *string `json:"status,omitempty"`
	TargetPrice *string `json:"target_price,omitempty" validate:"omitempty,max=32"`
}

// ExpenseEditRequest changes an expense; omitted fields are kept and an empty
// unit_id makes it shared.
type ExpenseEditRequest struct {
	Category *string `json:"category,omitempty"`
	Memo     *string `json:"memo,omitempty" validate:"omitempty,max=256"`
	UnitID   *string `json:"unit_id,omitempty" validate:"omitempty,max=32"`
}

type SweepRequest struct {
	Month string `json:"month" validate:"omitempty,len=7"`
}
