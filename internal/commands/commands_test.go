package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinehill-dev/pinehill/internal/commands"
	"github.com/pinehill-dev/pinehill/internal/config"
	"github.com/pinehill-dev/pinehill/internal/report"
)

const (
	depositSMS    = "[Web발신] [카카오뱅크] 홍*동(1234) 01/23 11:59 입금 450,000원 박진환 잔액 9,851,574원"
	withdrawalSMS = "[Web발신] [카카오뱅크] 홍*동(1234) 01/26 12:23 출금 20,000원 홍원표(경동나비엔용 잔액 9,733,979원"
	tenantKey     = "박진환_01012345678"
)

func runPinehill(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// initProject creates a project with the default layout in a temp dir.
func initProject(t *testing.T) string {
	t.Helper()
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PINEHILL_ADDR", "")
	dir := t.TempDir()
	out, err := runPinehill(t, "", "init", dir, "--name", "Pinehill")
	require.NoError(t, err)
	assert.Contains(t, out, "19 units seeded")
	return dir
}

func TestVersion(t *testing.T) {
	out, err := runPinehill(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initProject(t)

	for _, d := range []string{"logs", "exports", "import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	for _, f := range []string{config.FileName, "pinehill.db", ".gitignore", filepath.Join("import", ".gitkeep")} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "%s should exist", f)
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Pinehill", cfg.Property.Name)
	assert.Equal(t, "카카오뱅크", cfg.Bank.Name)
}

func TestInit_IsRepeatable(t *testing.T) {
	dir := initProject(t)

	out, err := runPinehill(t, "", "init", dir, "--name", "Other")
	require.NoError(t, err)
	assert.Contains(t, out, "0 units seeded")

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Pinehill", cfg.Property.Name)
}

func TestInit_RequiresName(t *testing.T) {
	_, err := runPinehill(t, "", "init", t.TempDir())
	assert.Error(t, err)
}

func TestIngest_Text(t *testing.T) {
	dir := initProject(t)

	out, err := runPinehill(t, "", "--dir", dir, "ingest", "--source", "카카오뱅크", depositSMS)
	require.NoError(t, err)
	assert.Contains(t, out, "payment #1")
	assert.Contains(t, out, "450000원 박진환")

	out, err = runPinehill(t, "", "--dir", dir, "ingest", depositSMS)
	require.NoError(t, err)
	assert.Equal(t, "duplicate\n", out)

	out, err = runPinehill(t, "", "--dir", dir, "ingest", "광고: 신규 카드 발급 안내")
	require.NoError(t, err)
	assert.Equal(t, "untrusted\n", out)
}

func TestIngest_Stdin(t *testing.T) {
	dir := initProject(t)

	out, err := runPinehill(t, depositSMS+"\n"+withdrawalSMS+"\n", "--dir", dir, "ingest", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "payment #1")
	assert.Contains(t, out, "expense #1")
}

func TestIngest_Inbox(t *testing.T) {
	dir := initProject(t)
	msgs := strings.Join([]string{depositSMS, withdrawalSMS, "010-0000-0000\t광고: 신규 카드 발급 안내"}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "sms.txt"), []byte(msgs), 0o644))

	out, err := runPinehill(t, "", "--dir", dir, "ingest", "--inbox")
	require.NoError(t, err)
	assert.Equal(t, "sms.txt: 1 expense, 1 payment, 1 untrusted\n", out)

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "sms.txt"))
	assert.NoError(t, err)

	out, err = runPinehill(t, "", "--dir", dir, "ingest", "--inbox")
	require.NoError(t, err)
	assert.Contains(t, out, "No message files")

	data, err := os.ReadFile(filepath.Join(dir, "logs", "ingest-log.csv"))
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "\n"), "header plus three events")
}

func TestIngest_NeedsInput(t *testing.T) {
	dir := initProject(t)
	_, err := runPinehill(t, "", "--dir", dir, "ingest")
	assert.Error(t, err)
	_, err = runPinehill(t, "", "--dir", dir, "ingest", "--inbox", depositSMS)
	assert.Error(t, err)
}

func TestTenantAndAttribution(t *testing.T) {
	dir := initProject(t)
	_, err := runPinehill(t, "", "--dir", dir, "ingest", depositSMS)
	require.NoError(t, err)

	out, err := runPinehill(t, "", "--dir", dir, "tenant", "add", "--name", "박진환", "--phone", "010-1234-5678", "--unit", "PINE-201")
	require.NoError(t, err)
	assert.Contains(t, out, "Added tenant "+tenantKey+" in PINE-201")

	_, err = runPinehill(t, "", "--dir", dir, "tenant", "add", "--name", "김", "--phone", "010", "--unit", "PINE-999")
	assert.Error(t, err)

	out, err = runPinehill(t, "", "--dir", dir, "tenant", "list")
	require.NoError(t, err)
	assert.Equal(t, "PINE-201\t"+tenantKey+"\n", out)

	_, err = runPinehill(t, "", "--dir", dir, "status", "1", "pending")
	assert.ErrorContains(t, err, "PENDING cannot be set manually")

	// PINE-201 is priced "500-50": a 500,000 monthly target.
	out, err = runPinehill(t, "", "--dir", dir, "attribute", "1", tenantKey)
	require.NoError(t, err)
	assert.Contains(t, out, "total 450000원 / 500000원 -> PARTIAL (부분납)")

	_, err = runPinehill(t, "", "--dir", dir, "attribute", "1", "없음_000")
	assert.Error(t, err)

	out, err = runPinehill(t, "", "--dir", dir, "status", "1", "paid")
	require.NoError(t, err)
	assert.Contains(t, out, "Payment #1 set to PAID")

	_, err = runPinehill(t, "", "--dir", dir, "status", "1", "PENDING")
	assert.Error(t, err)
	_, err = runPinehill(t, "", "--dir", dir, "status", "x", "PAID")
	assert.Error(t, err)
}

func TestPaySweepAndReport(t *testing.T) {
	dir := initProject(t)
	_, err := runPinehill(t, "", "--dir", dir, "tenant", "add", "--name", "박진환", "--phone", "01012345678", "--unit", "PINE-201")
	require.NoError(t, err)

	out, err := runPinehill(t, "", "--dir", dir, "pay", tenantKey, "2025-02", "300,000", "--paid-at", "2025-02-05")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded payment #1")
	assert.Contains(t, out, "PARTIAL")

	out, err = runPinehill(t, "", "--dir", dir, "pay", tenantKey, "2025-02", "200000")
	require.NoError(t, err)
	assert.Contains(t, out, "total 500000원 / 500000원 -> PAID")

	_, err = runPinehill(t, "", "--dir", dir, "pay", tenantKey, "2025-02", "-5")
	assert.Error(t, err)
	_, err = runPinehill(t, "", "--dir", dir, "pay", tenantKey, "Feb", "5")
	assert.Error(t, err)

	out, err = runPinehill(t, "", "--dir", dir, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "Swept 1 buckets, 0 payments updated")

	out, err = runPinehill(t, "", "--dir", dir, "report", "2025-02")
	require.NoError(t, err)
	assert.Contains(t, out, "Month 2025-02")
	assert.Contains(t, out, "500000 / 500000원 완납")
	assert.Contains(t, out, "임대중 17")

	out, err = runPinehill(t, "", "--dir", dir, "report", "2025-02", "--json")
	require.NoError(t, err)
	var sum report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, int64(500000), sum.Collected)
	assert.Equal(t, sum.Collected, sum.Net)

	exportDir := filepath.Join(dir, "exports")
	_, err = runPinehill(t, "", "--dir", dir, "report", "2025-02", "--export-dir", exportDir)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(exportDir, "payments-2025-02.csv"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
}

func TestUnitSet(t *testing.T) {
	dir := initProject(t)

	out, err := runPinehill(t, "", "--dir", dir, "unit", "set", "PINE-202", "--status", "vacant", "--price", "500-45")
	require.NoError(t, err)
	assert.Equal(t, "PINE-202\tVACANT (공실)\t500-45\n", out)

	out, err = runPinehill(t, "", "--dir", dir, "unit", "set", "PINE-202", "--price", "")
	require.NoError(t, err)
	assert.Equal(t, "PINE-202\tVACANT (공실)\t-\n", out)

	_, err = runPinehill(t, "", "--dir", dir, "unit", "set", "PINE-202")
	assert.ErrorContains(t, err, "nothing to change")
	_, err = runPinehill(t, "", "--dir", dir, "unit", "set", "PINE-202", "--status", "broken")
	assert.ErrorContains(t, err, "unknown status")
	_, err = runPinehill(t, "", "--dir", dir, "unit", "set", "PINE-999", "--status", "vacant")
	assert.Error(t, err)
}

func TestExpenseSetAndRemove(t *testing.T) {
	dir := initProject(t)
	_, err := runPinehill(t, "", "--dir", dir, "ingest", withdrawalSMS)
	require.NoError(t, err)

	out, err := runPinehill(t, "", "--dir", dir, "expense", "set", "1", "--category", "repair", "--memo", "보일러 수리", "--unit", "PINE-205")
	require.NoError(t, err)
	assert.Equal(t, "Expense #1\tREPAIR\t20000원\tPINE-205\t보일러 수리\n", out)

	out, err = runPinehill(t, "", "--dir", dir, "expense", "set", "1", "--shared")
	require.NoError(t, err)
	assert.Contains(t, out, "\tshared\t")

	_, err = runPinehill(t, "", "--dir", dir, "expense", "set", "1", "--category", "food")
	assert.ErrorContains(t, err, "unknown category")
	_, err = runPinehill(t, "", "--dir", dir, "expense", "set", "1", "--shared", "--unit", "PINE-201")
	assert.Error(t, err)

	out, err = runPinehill(t, "", "--dir", dir, "expense", "rm", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted expense #1\n", out)
	_, err = runPinehill(t, "", "--dir", dir, "expense", "rm", "1")
	assert.Error(t, err)
}

func TestTenantRemove(t *testing.T) {
	dir := initProject(t)
	_, err := runPinehill(t, "", "--dir", dir, "tenant", "add", "--name", "박진환", "--phone", "01012345678", "--unit", "PINE-201")
	require.NoError(t, err)

	out, err := runPinehill(t, "", "--dir", dir, "tenant", "rm", tenantKey)
	require.NoError(t, err)
	assert.Equal(t, "Removed tenant "+tenantKey+"\n", out)

	out, err = runPinehill(t, "", "--dir", dir, "tenant", "list")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = runPinehill(t, "", "--dir", dir, "tenant", "rm", tenantKey)
	assert.Error(t, err)
}

func TestCommands_MissingProject(t *testing.T) {
	_, err := runPinehill(t, "", "--dir", t.TempDir(), "sweep")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGitTrackedProject(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()

	out, err := runPinehill(t, "", "init", dir, "--name", "Pinehill", "--git")
	require.NoError(t, err)
	assert.Contains(t, out, "19 units seeded, ")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "sms.txt"), []byte(depositSMS), 0o644))
	_, err = runPinehill(t, "", "--dir", dir, "ingest", "--inbox")
	require.NoError(t, err)

	log := exec.Command("git", "log", "--format=%s")
	log.Dir = dir
	subjects, err := log.Output()
	require.NoError(t, err)
	assert.Equal(t, "ingest: 1 files\ninit: Initialize Pinehill\n", string(subjects))

	tracked := exec.Command("git", "ls-files")
	tracked.Dir = dir
	files, err := tracked.Output()
	require.NoError(t, err)
	assert.Contains(t, string(files), "logs/ingest-log.csv")
	assert.NotContains(t, string(files), "pinehill.db")
}
