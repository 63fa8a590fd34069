package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinehill-dev/pinehill/internal/config"
	"github.com/pinehill-dev/pinehill/internal/ledger"
	"github.com/pinehill-dev/pinehill/internal/model"
	"github.com/pinehill-dev/pinehill/internal/reconcile"
)

const tenantKey = "박진환_01012345678"

func strPtr(s string) *string { return &s }

// fixture builds a small ledger for January 2025:
// PINE-201 rented with a 500,000 target and two counted payments,
// PINE-202 rented without a target and one UNPAID payment,
// PINE-204 in a lawsuit, one pending deposit and two expenses.
func fixture(t *testing.T) (*ledger.Store, *Service) {
	t.Helper()
	ctx := context.Background()
	s, err := ledger.Open(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "ledger.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx))

	require.NoError(t, s.SaveUnits(ctx, []model.Unit{
		{UnitID: "PINE-201", RoomNo: 201, Floor: 2, Status: model.UnitRented},
		{UnitID: "PINE-202", RoomNo: 202, Floor: 2, Status: model.UnitRented},
		{UnitID: "PINE-204", RoomNo: 204, Floor: 2, Status: model.UnitLawsuit},
	}))
	require.NoError(t, s.CreateTenant(ctx, &model.Tenant{TenantKey: tenantKey, Name: "박진환", Phone: "01012345678", UnitID: "PINE-201"}))
	require.NoError(t, s.CreateTenant(ctx, &model.Tenant{TenantKey: "김영희_01099998888", Name: "김영희", Phone: "01099998888", UnitID: "PINE-202"}))

	paidAt := time.Date(2025, 1, 23, 2, 59, 0, 0, time.UTC)
	payments := []model.Payment{
		{TenantKey: strPtr(tenantKey), UnitID: "PINE-201", Month: "2025-01", PaidAt: &paidAt, Amount: 300000, SenderName: strPtr("박진환"), Source: model.SourceSMS, Status: model.StatusPaid},
		{TenantKey: strPtr(tenantKey), UnitID: "PINE-201", Month: "2025-01", Amount: 200000, Source: model.SourceManual, Status: model.StatusPaid},
		{TenantKey: strPtr("김영희_01099998888"), UnitID: "PINE-202", Month: "2025-01", Amount: 100000, Source: model.SourceManual, Status: model.StatusUnpaid, StatusOverride: true},
		{Month: "2025-01", Amount: 10000, Source: model.SourceSMS, Status: model.StatusPending},
		{TenantKey: strPtr(tenantKey), UnitID: "PINE-201", Month: "2024-12", Amount: 500000, Source: model.SourceManual, Status: model.StatusPaid},
	}
	for i := range payments {
		require.NoError(t, s.SavePayment(ctx, &payments[i]))
	}

	spent := time.Date(2025, 1, 26, 3, 23, 0, 0, time.UTC)
	require.NoError(t, s.SaveExpense(ctx, &model.Expense{SpentAt: spent, Amount: 20000, Category: model.CategoryOther, Memo: "홍원표(경동나비엔용", Month: "2025-01", Source: model.SourceSMS}))
	require.NoError(t, s.SaveExpense(ctx, &model.Expense{SpentAt: spent.Add(time.Hour), Amount: 5000, Category: model.CategoryRepair, UnitID: strPtr("PINE-201"), Month: "2025-01", Source: model.SourceManual}))
	require.NoError(t, s.SaveExpense(ctx, &model.Expense{SpentAt: spent, Amount: 7000, Category: model.CategoryTax, Month: "2025-02", Source: model.SourceManual}))

	targets := reconcile.ConfigTargets{Fixed: map[string]int64{"PINE-201": 500000}, PriceUnit: 10000, Units: s}
	return s, NewService(s, targets)
}

func TestUnitStats(t *testing.T) {
	_, svc := fixture(t)
	stats, err := svc.UnitStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, len(model.UnitStatuses))

	assert.Equal(t, UnitStat{Status: model.UnitRented, Label: "임대중", Count: 2}, stats[0])
	assert.Equal(t, UnitStat{Status: model.UnitVacant, Label: "공실", Count: 0}, stats[1])
	assert.Equal(t, UnitStat{Status: model.UnitLawsuit, Label: "소송", Count: 1}, stats[3])
}

func TestUnitsByStatus(t *testing.T) {
	_, svc := fixture(t)
	units, err := svc.UnitsByStatus(context.Background(), model.UnitRented)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "PINE-201", units[0].UnitID)

	all, err := svc.AllUnits(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMonths_UnionNewestFirst(t *testing.T) {
	_, svc := fixture(t)
	months, err := svc.Months(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02", "2025-01", "2024-12"}, months)
}

func TestMergeMonths(t *testing.T) {
	assert.Equal(t, []string{"2025-03", "2025-02", "2025-01"}, mergeMonths([]string{"2025-01", "2025-03"}, []string{"2025-03", "2025-02"}))
	assert.Nil(t, mergeMonths(nil, nil))
}

func TestPaymentQueries(t *testing.T) {
	_, svc := fixture(t)
	ctx := context.Background()

	jan, err := svc.PaymentsByUnitAndMonth(ctx, "PINE-201", "2025-01")
	require.NoError(t, err)
	assert.Len(t, jan, 2)

	total, err := svc.TotalPaidByUnitAndMonth(ctx, "PINE-201", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, int64(500000), total)

	pending, err := svc.PendingPayments(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(10000), pending[0].Amount)

	spent, err := svc.TotalExpenseByMonth(ctx, "2025-01")
	require.NoError(t, err)
	assert.Equal(t, int64(25000), spent)

	expenses, err := svc.ExpensesByMonth(ctx, "2025-01")
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func TestUnitHistory(t *testing.T) {
	_, svc := fixture(t)
	h, err := svc.UnitHistory(context.Background(), "PINE-201")
	require.NoError(t, err)

	assert.Equal(t, "PINE-201", h.Unit.UnitID)
	require.Len(t, h.Tenants, 1)
	assert.Equal(t, tenantKey, h.Tenants[0].TenantKey)
	require.Len(t, h.Payments, 3)
	assert.Equal(t, "2025-01", h.Payments[0].Month)
	assert.Equal(t, "2024-12", h.Payments[2].Month)
	assert.Len(t, h.Expenses, 1)

	_, err = svc.UnitHistory(context.Background(), "PINE-999")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestMonthlySummary(t *testing.T) {
	_, svc := fixture(t)
	sum, err := svc.MonthlySummary(context.Background(), "2025-01")
	require.NoError(t, err)

	require.Len(t, sum.Units, 2)
	assert.Equal(t, UnitLine{
		UnitID: "PINE-201", UnitStatus: model.UnitRented,
		Target: 500000, TargetKnown: true,
		Paid: 500000, Payments: 2, Status: model.StatusPaid,
	}, sum.Units[0])
	assert.Equal(t, UnitLine{
		UnitID: "PINE-202", UnitStatus: model.UnitRented,
		Paid: 0, Payments: 1,
	}, sum.Units[1])

	assert.Equal(t, int64(500000), sum.RentTarget)
	assert.Equal(t, int64(500000), sum.Collected)
	assert.Equal(t, 1, sum.PendingCount)
	assert.Equal(t, int64(10000), sum.PendingAmount)
	assert.Equal(t, int64(25000), sum.Expenses)
	assert.Equal(t, int64(2), sum.ExpenseCount)
	assert.Equal(t, int64(475000), sum.Net)
	assert.True(t, sum.CollectionRate.Equal(decimal.NewFromInt(1)), sum.CollectionRate.String())
}

func TestMonthlySummary_EmptyMonth(t *testing.T) {
	_, svc := fixture(t)
	sum, err := svc.MonthlySummary(context.Background(), "2030-01")
	require.NoError(t, err)

	require.Len(t, sum.Units, 2)
	assert.Equal(t, model.StatusUnpaid, sum.Units[0].Status)
	assert.Zero(t, sum.Collected)
	assert.True(t, sum.CollectionRate.IsZero())
}

func TestWritePaymentsCSV(t *testing.T) {
	paidAt := time.Date(2025, 1, 23, 11, 59, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, WritePaymentsCSV(&buf, []model.Payment{
		{PaymentID: 1, TenantKey: strPtr(tenantKey), UnitID: "PINE-201", Month: "2025-01", PaidAt: &paidAt, Amount: 450000, SenderName: strPtr("박진환"), Source: model.SourceSMS, Status: model.StatusPaid},
		{PaymentID: 2, Month: "2025-01", Amount: 1000, Source: model.SourceSMS, Status: model.StatusPending},
	}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "payment_id", records[0][0])
	assert.Equal(t, []string{"1", "2025-01", "PINE-201", tenantKey, "2025-01-23 11:59", "450000", "박진환", "SMS", "PAID", "완납", "false"}, records[1])
	assert.Equal(t, []string{"2", "2025-01", "", "", "", "1000", "", "SMS", "PENDING", "확인필요", "false"}, records[2])
}

func TestWriteExpensesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExpensesCSV(&buf, []model.Expense{
		{ExpenseID: 3, SpentAt: time.Date(2025, 1, 26, 12, 23, 0, 0, time.UTC), Amount: 20000, Category: model.CategoryOther, Memo: "관리비, 1월", Month: "2025-01", Source: model.SourceSMS},
	}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"3", "2025-01", "2025-01-26 12:23", "20000", "OTHER", "", "관리비, 1월", "SMS"}, records[1])
}

func TestExportMonth(t *testing.T) {
	_, svc := fixture(t)
	dir := filepath.Join(t.TempDir(), "exports")

	paths, err := svc.ExportMonth(context.Background(), dir, "2025-01", time.UTC)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "payments-2025-01.csv"), paths[0])

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 5, "header plus four January payments")

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), "홍원표(경동나비엔용")
}
