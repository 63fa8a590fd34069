package server

const (
	// Health
	Health = "/health"

	// Inbound events
	EventsSMS = "/api/v1/events/sms"

	// Reporting
	Units           = "/api/v1/units"
	UnitStats       = "/api/v1/units/stats"
	UnitHistory     = "/api/v1/units/{unit_id}/history"
	PendingPayments = "/api/v1/payments/pending"
	Months          = "/api/v1/months"
	MonthlyReport   = "/api/v1/reports/{month}"

	// Manual edits
	Payments         = "/api/v1/payments"
	PaymentAttribute = "/api/v1/payments/{payment_id}/attribute"
	PaymentStatus    = "/api/v1/payments/{payment_id}/status"
	Tenants          = "/api/v1/tenants"
	Tenant           = "/api/v1/tenants/{tenant_key}"
	Unit             = "/api/v1/units/{unit_id}"
	Expense          = "/api/v1/expenses/{expense_id}"
	Sweep            = "/api/v1/reconcile/sweep"
)
