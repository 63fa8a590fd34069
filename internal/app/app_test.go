package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinehill-dev/pinehill/internal/config"
	"github.com/pinehill-dev/pinehill/internal/ingest"
	"github.com/pinehill-dev/pinehill/internal/ingestlog"
)

func newProject(t *testing.T) string {
	t.Helper()
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PINEHILL_ADDR", "")
	dir := t.TempDir()
	cfg := config.Default("Pinehill")
	cfg.Bank.Name = "XXX뱅크"
	require.NoError(t, config.Save(filepath.Join(dir, config.FileName), cfg))
	return dir
}

func TestNew_WiresComponents(t *testing.T) {
	dir := newProject(t)
	var logs bytes.Buffer
	a, err := New(context.Background(), dir, Options{
		LogOutput: &logs,
		Now:       func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "Asia/Seoul", a.Location.String())
	assert.Equal(t, int64(10000), a.Targets.PriceUnit)
	require.NoError(t, a.Store.Ping(context.Background()))

	_, err = os.Stat(filepath.Join(dir, "pinehill.db"))
	require.NoError(t, err)

	res, err := a.Pipeline.Handle(context.Background(), "", "[Web발신] [XXX뱅크] 홍*동(1234) 01/23 11:59 입금 450,000원 박진환 잔액 9,851,574원")
	require.NoError(t, err)
	assert.Equal(t, ingest.OutcomePayment, res.Outcome)
	assert.Contains(t, logs.String(), "[pinehill]")

	entries, err := ingestlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, string(ingest.OutcomePayment), entries[0].Outcome)

	assert.NotNil(t, a.Server().Router())
}

func TestNew_MissingConfig(t *testing.T) {
	_, err := New(context.Background(), t.TempDir(), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNew_BadTimezone(t *testing.T) {
	dir := newProject(t)
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	cfg.Ingest.Timezone = "Mars/Olympus"
	require.NoError(t, config.Save(filepath.Join(dir, config.FileName), cfg))

	_, err = New(context.Background(), dir, Options{LogOutput: &bytes.Buffer{}})
	assert.ErrorContains(t, err, "timezone")
}
