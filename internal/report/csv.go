package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pinehill-dev/pinehill/internal/model"
)

// PaymentsHeader is the CSV header for payment exports.
const PaymentsHeader = "payment_id,month,unit_id,tenant_key,paid_at,amount,sender_name,source,status,status_label,status_override"

// ExpensesHeader is the CSV header for expense exports.
const ExpensesHeader = "expense_id,month,spent_at,amount,category,unit_id,memo,source"

const timeFormat = "2006-01-02 15:04"

// WritePaymentsCSV writes payments to w, including the header.
func WritePaymentsCSV(w io.Writer, payments []model.Payment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(PaymentsHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, p := range payments {
		if err := cw.Write(MarshalPayment(p)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExpensesCSV writes expenses to w, including the header.
func WriteExpensesCSV(w io.Writer, expenses []model.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(ExpensesHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range expenses {
		if err := cw.Write(MarshalExpense(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalPayment converts a Payment to a CSV row.
func MarshalPayment(p model.Payment) []string {
	var paidAt string
	if p.PaidAt != nil {
		paidAt = p.PaidAt.Format(timeFormat)
	}
	return []string{
		strconv.FormatInt(p.PaymentID, 10),
		p.Month,
		p.UnitID,
		deref(p.TenantKey),
		paidAt,
		strconv.FormatInt(p.Amount, 10),
		deref(p.SenderName),
		string(p.Source),
		string(p.Status),
		p.Status.Label(),
		strconv.FormatBool(p.StatusOverride),
	}
}

// MarshalExpense converts an Expense to a CSV row.
func MarshalExpense(e model.Expense) []string {
	return []string{
		strconv.FormatInt(e.ExpenseID, 10),
		e.Month,
		e.SpentAt.Format(timeFormat),
		strconv.FormatInt(e.Amount, 10),
		string(e.Category),
		deref(e.UnitID),
		e.Memo,
		string(e.Source),
	}
}

// ExportMonth writes payments-<month>.csv and expenses-<month>.csv into dir
// and returns the paths written.
func (s *Service) ExportMonth(ctx context.Context, dir, month string, loc *time.Location) ([]string, error) {
	payments, err := s.store.PaymentsByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ExpensesByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	if loc != nil {
		for i := range payments {
			if payments[i].PaidAt != nil {
				t := payments[i].PaidAt.In(loc)
				payments[i].PaidAt = &t
			}
		}
		for i := range expenses {
			expenses[i].SpentAt = expenses[i].SpentAt.In(loc)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}

	paymentsPath := filepath.Join(dir, "payments-"+month+".csv")
	if err := writeFile(paymentsPath, func(w io.Writer) error { return WritePaymentsCSV(w, payments) }); err != nil {
		return nil, err
	}
	expensesPath := filepath.Join(dir, "expenses-"+month+".csv")
	if err := writeFile(expensesPath, func(w io.Writer) error { return WriteExpensesCSV(w, expenses) }); err != nil {
		return nil, err
	}
	return []string{paymentsPath, expensesPath}, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
