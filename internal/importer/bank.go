package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pinehill-dev/pinehill/internal/model"
)

// BankParser parses the deposit and withdrawal notifications a Korean bank
// sends for a single account, e.g.
//
//	[Web발신] [카카오뱅크] 홍*동(1234) 01/23 11:59 입금 450,000원 박진환 잔액 9,851,574원
//	[Web발신] [카카오뱅크] 홍*동(1234) 01/26 12:23 출금 20,000원 홍원표(경동나비엔용 잔액 9,733,979원
type BankParser struct {
	bank string
}

const (
	depositKeyword    = "입금"
	withdrawalKeyword = "출금"
	balanceMarker     = "잔액"
)

var (
	dateTimeRe       = regexp.MustCompile(`(\d{2})/(\d{2})\s+(\d{2}):(\d{2})`)
	depositAmountRe  = regexp.MustCompile(depositKeyword + `\s+([\d,]+)원`)
	withdrawAmountRe = regexp.MustCompile(withdrawalKeyword + `\s+([\d,]+)원`)
)

// NewBankParser returns a parser for notifications tagged "[<bank>]".
func NewBankParser(bank string) *BankParser {
	return &BankParser{bank: bank}
}

// Bank returns the bank name the parser trusts.
func (p *BankParser) Bank() string { return p.bank }

// Trusted reports whether a message came through the bank's channel, either by
// sender id or by the bracketed bank tag in the body.
func (p *BankParser) Trusted(source, text string) bool {
	if p.bank == "" {
		return false
	}
	return strings.Contains(source, p.bank) || strings.Contains(text, "["+p.bank+"]")
}

// Parse tries a deposit first, then a withdrawal.
func (p *BankParser) Parse(text string) (model.BankNotification, bool) {
	if n, ok := p.ParseDeposit(text); ok {
		return n, true
	}
	return p.ParseWithdrawal(text)
}

// ParseDeposit extracts a deposit. The sender name is the text between the
// amount and the balance marker; it is empty when there is no balance marker.
func (p *BankParser) ParseDeposit(text string) (model.BankNotification, bool) {
	if !strings.Contains(text, depositKeyword) {
		return model.BankNotification{}, false
	}
	n, tail, ok := parseCommon(text, depositAmountRe)
	if !ok {
		return model.BankNotification{}, false
	}
	if i := strings.Index(tail, balanceMarker); i >= 0 {
		n.Party = strings.TrimSpace(tail[:i])
	}
	n.Direction = model.Deposit
	return n, true
}

// ParseWithdrawal extracts a withdrawal. The counterparty runs from the amount
// to the balance marker or the end of the text.
func (p *BankParser) ParseWithdrawal(text string) (model.BankNotification, bool) {
	if !strings.Contains(text, withdrawalKeyword) {
		return model.BankNotification{}, false
	}
	n, tail, ok := parseCommon(text, withdrawAmountRe)
	if !ok {
		return model.BankNotification{}, false
	}
	if i := strings.Index(tail, balanceMarker); i >= 0 {
		tail = tail[:i]
	}
	n.Party = strings.TrimSpace(tail)
	n.Direction = model.Withdrawal
	return n, true
}

// parseCommon finds the date/time pair and the amount anchored on amountRe.
// It returns the text following the amount's currency marker.
func parseCommon(text string, amountRe *regexp.Regexp) (model.BankNotification, string, bool) {
	dt := dateTimeRe.FindStringSubmatch(text)
	if dt == nil || !validDateTime(dt[1], dt[2], dt[3], dt[4]) {
		return model.BankNotification{}, "", false
	}

	loc := amountRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return model.BankNotification{}, "", false
	}
	amount, ok := parseAmount(text[loc[2]:loc[3]])
	if !ok {
		return model.BankNotification{}, "", false
	}

	return model.BankNotification{
		Amount: amount,
		Date:   dt[1] + "/" + dt[2],
		Time:   dt[3] + ":" + dt[4],
		Raw:    text,
	}, text[loc[1]:], true
}

// parseAmount strips thousands separators from "450,000" and parses a positive integer.
func parseAmount(s string) (int64, bool) {
	digits := strings.ReplaceAll(s, ",", "")
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func validDateTime(month, day, hour, minute string) bool {
	in := func(s string, lo, hi int) bool {
		v, err := strconv.Atoi(s)
		return err == nil && v >= lo && v <= hi
	}
	return in(month, 1, 12) && in(day, 1, 31) && in(hour, 0, 23) && in(minute, 0, 59)
}
