package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinehill-dev/pinehill/internal/model"
)

const (
	sampleDeposit    = "[Web발신] [XXX뱅크] 홍*동(1234) 01/23 11:59 입금 450,000원 박진환 잔액 9,851,574원"
	sampleWithdrawal = "[Web발신] [XXX뱅크] 홍*동(1234) 01/26 12:23 출금 20,000원 홍원표(경동나비엔용 잔액 9,733,979원"
)

func TestBankParser_Deposit(t *testing.T) {
	p := NewBankParser("XXX뱅크")
	n, ok := p.ParseDeposit(sampleDeposit)
	require.True(t, ok)

	assert.Equal(t, model.Deposit, n.Direction)
	assert.Equal(t, int64(450000), n.Amount)
	assert.Equal(t, "01/23", n.Date)
	assert.Equal(t, "11:59", n.Time)
	assert.Equal(t, "박진환", n.Party)
	assert.Equal(t, sampleDeposit, n.Raw)
}

func TestBankParser_Withdrawal(t *testing.T) {
	p := NewBankParser("XXX뱅크")
	n, ok := p.ParseWithdrawal(sampleWithdrawal)
	require.True(t, ok)

	assert.Equal(t, model.Withdrawal, n.Direction)
	assert.Equal(t, int64(20000), n.Amount)
	assert.Equal(t, "01/26", n.Date)
	assert.Equal(t, "12:23", n.Time)
	assert.Equal(t, "홍원표(경동나비엔용", n.Party)
}

func TestBankParser_WithdrawalWithoutBalance(t *testing.T) {
	p := NewBankParser("XXX뱅크")
	n, ok := p.ParseWithdrawal("[XXX뱅크] 02/01 09:05 출금 1,200,000원  한국전력공사  ")
	require.True(t, ok)
	assert.Equal(t, int64(1200000), n.Amount)
	assert.Equal(t, "한국전력공사", n.Party)
}

func TestBankParser_DepositWithoutSender(t *testing.T) {
	p := NewBankParser("XXX뱅크")

	n, ok := p.ParseDeposit("[XXX뱅크] 01/23 11:59 입금 450,000원")
	require.True(t, ok)
	assert.Empty(t, n.Party)

	n, ok = p.ParseDeposit("[XXX뱅크] 01/23 11:59 입금 450,000원 잔액 9,851,574원")
	require.True(t, ok)
	assert.Empty(t, n.Party)
}

// Notifications synthesized from the two canonical templates parse back to
// the tuple they were built from.
func TestBankParser_RoundTrip(t *testing.T) {
	tests := []struct {
		dir    model.Direction
		amount int64
		date   string
		clock  string
		party  string
	}{
		{model.Deposit, 450000, "01/23", "11:59", "박진환"},
		{model.Deposit, 1, "12/31", "00:00", "김"},
		{model.Deposit, 12345678, "06/01", "23:59", "ACME 주식회사"},
		{model.Withdrawal, 20000, "01/26", "12:23", "홍원표(경동나비엔용"},
		{model.Withdrawal, 999, "02/28", "07:30", "관리비"},
		{model.Withdrawal, 1000000000, "10/10", "10:10", "국세청 부가세"},
	}

	p := NewBankParser("XXX뱅크")
	for _, tt := range tests {
		keyword := depositKeyword
		if tt.dir == model.Withdrawal {
			keyword = withdrawalKeyword
		}
		text := fmt.Sprintf("[Web발신] [XXX뱅크] 홍*동(1234) %s %s %s %s원 %s 잔액 9,851,574원",
			tt.date, tt.clock, keyword, thousands(tt.amount), tt.party)

		n, ok := p.Parse(text)
		require.True(t, ok, text)
		assert.Equal(t, tt.dir, n.Direction, text)
		assert.Equal(t, tt.amount, n.Amount, text)
		assert.Equal(t, tt.date, n.Date, text)
		assert.Equal(t, tt.clock, n.Time, text)
		assert.Equal(t, tt.party, n.Party, text)
	}
}

func TestBankParser_Rejects(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"advert", "광고: 신규 카드 발급 안내"},
		{"no date", "[XXX뱅크] 홍*동(1234) 입금 450,000원 박진환 잔액 9,851,574원"},
		{"no time", "[XXX뱅크] 홍*동(1234) 01/23 입금 450,000원 박진환 잔액 9,851,574원"},
		{"no amount", "[XXX뱅크] 홍*동(1234) 01/23 11:59 입금 박진환 잔액 9,851,574원"},
		{"no currency marker", "[XXX뱅크] 01/23 11:59 입금 450,000 박진환"},
		{"separators only", "[XXX뱅크] 01/23 11:59 입금 ,,,원 박진환"},
		{"zero amount", "[XXX뱅크] 01/23 11:59 출금 0원 수수료"},
		{"bad month", "[XXX뱅크] 13/23 11:59 입금 450,000원 박진환 잔액 1원"},
		{"bad minute", "[XXX뱅크] 01/23 11:60 입금 450,000원 박진환 잔액 1원"},
		{"overflow", "[XXX뱅크] 01/23 11:59 입금 99,999,999,999,999,999,999원 박진환 잔액 1원"},
		{"empty", ""},
	}

	p := NewBankParser("XXX뱅크")
	for _, tt := range tests {
		_, ok := p.Parse(tt.text)
		assert.False(t, ok, tt.name)
	}
}

func TestBankParser_BothKeywordsPrefersDeposit(t *testing.T) {
	p := NewBankParser("XXX뱅크")
	n, ok := p.Parse("[XXX뱅크] 03/02 10:00 입금 50,000원 출금취소 환불 잔액 100,000원")
	require.True(t, ok)
	assert.Equal(t, model.Deposit, n.Direction)
	assert.Equal(t, "출금취소 환불", n.Party)

	// Withdrawal anchor is used when the deposit keyword has no amount.
	n, ok = p.Parse("[XXX뱅크] 03/02 10:00 출금 50,000원 입금자명오류 반환 잔액 100,000원")
	require.True(t, ok)
	assert.Equal(t, model.Withdrawal, n.Direction)
}

func TestBankParser_Trusted(t *testing.T) {
	p := NewBankParser("카카오뱅크")
	assert.True(t, p.Trusted("카카오뱅크", "anything"))
	assert.True(t, p.Trusted("15661111", "[Web발신] [카카오뱅크] 01/23 11:59 입금 1원"))
	assert.False(t, p.Trusted("15661111", "[Web발신] [XXX뱅크] 01/23 11:59 입금 1원"))
	assert.False(t, NewBankParser("").Trusted("", "[]"))
	assert.Equal(t, "카카오뱅크", p.Bank())
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(NewBankParser("XXX뱅크"))
	p := r.Get("XXX뱅크")
	require.NotNil(t, p)
	assert.Equal(t, "XXX뱅크", p.Bank())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := DefaultRegistry("KBank")
	assert.NotNil(t, r.Get("kbank"))
	assert.NotNil(t, r.Get("KBANK"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := DefaultRegistry("XXX뱅크")
	assert.Panics(t, func() { r.Register(NewBankParser("XXX뱅크")) })
}

func TestRegistry_Match(t *testing.T) {
	r := DefaultRegistry("카카오뱅크", "XXX뱅크")
	p := r.Match("", sampleDeposit)
	require.NotNil(t, p)
	assert.Equal(t, "XXX뱅크", p.Bank())
	assert.Nil(t, r.Match("010-0000-0000", "광고: 신규 카드 발급 안내"))
}

func TestReadMessages(t *testing.T) {
	input := "카카오뱅크\t" + sampleDeposit + "\n\n" + sampleWithdrawal + "\n   \n"
	msgs, err := ReadMessages(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "카카오뱅크", msgs[0].Source)
	assert.Equal(t, sampleDeposit, msgs[0].Text)
	assert.Empty(t, msgs[1].Source)
	assert.Equal(t, sampleWithdrawal, msgs[1].Text)
}

func TestScan_FindsMessageFiles(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "sms.txt"), []byte(sampleDeposit), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "other.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "sms.txt", files[0].Name)

	msgs, err := ReadFile(files[0].Path)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	processedDir := filepath.Join(dir, "import", "processed")
	require.NoError(t, os.MkdirAll(processedDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "new.txt"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processedDir, "old.txt"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "new.txt", files[0].Name)
}

func TestScan_EmptyDir(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "sms.txt"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "sms.txt"))

	_, err := os.Stat(filepath.Join(importDir, "sms.txt"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "sms.txt"))
	assert.NoError(t, err)
}

// thousands formats 1234567 as "1,234,567".
func thousands(v int64) string {
	s := fmt.Sprintf("%d", v)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
