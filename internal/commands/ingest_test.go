package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pinehill-dev/pinehill/internal/ingest"
	"github.com/pinehill-dev/pinehill/internal/model"
)

func TestPrintResults(t *testing.T) {
	results := []ingest.Result{
		{Outcome: ingest.OutcomePayment, PaymentID: 3, Month: "2025-01", Notification: &model.BankNotification{Amount: 450000, Party: "박진환"}},
		{Outcome: ingest.OutcomeFailed, Error: "storing expense: disk full"},
		{},
		{Outcome: ingest.OutcomeUntrusted},
	}

	var buf bytes.Buffer
	printResults(&buf, results)
	assert.Equal(t, "payment #3 2025-01 450000원 박진환\nfailed: storing expense: disk full\nuntrusted\n", buf.String())

	assert.Equal(t, "1 failed, 1 payment, 1 untrusted", summarize(results))
	assert.Equal(t, "empty", summarize([]ingest.Result{{}}))
}
