package model

// Direction says which way money moved in a bank notification.
type Direction string

const (
	Deposit    Direction = "deposit"
	Withdrawal Direction = "withdrawal"
)

// BankNotification is the structured fact recovered from a bank notification text.
type BankNotification struct {
	Direction Direction
	Amount    int64  // KRW, always > 0
	Date      string // "MM/DD"
	Time      string // "HH:MM"
	Party     string // sender name for deposits, counterparty for withdrawals; may be empty
	Raw       string
}

// InboundMessage is one raw text event handed over by the delivery layer.
type InboundMessage struct {
	Source string // originating address or display name
	Text   string
}
