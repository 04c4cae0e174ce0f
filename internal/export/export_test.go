package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"erp-backend/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleEntries() []ledger.Entry {
	return []ledger.Entry{
		{
			Date:           time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Type:           ledger.TypeInvoice,
			Reference:      "INV-20240102-00001",
			Debit:          decimal.RequireFromString("118"),
			Credit:         decimal.Zero,
			RunningBalance: decimal.RequireFromString("118"),
		},
		{
			Date:           time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			Type:           ledger.TypePayment,
			Reference:      "UTR-1, quoted",
			Debit:          decimal.Zero,
			Credit:         decimal.RequireFromString("59.5"),
			RunningBalance: decimal.RequireFromString("58.5"),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, LedgerSheet("ledger", sampleEntries())))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Date", "Type", "Reference", "Debit", "Credit", "Balance"}, records[0])
	assert.Equal(t, []string{"2024-01-02", "invoice", "INV-20240102-00001", "118.00", "0.00", "118.00"}, records[1])
	assert.Equal(t, "UTR-1, quoted", records[2][2])
	assert.Equal(t, "58.50", records[2][5])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, LedgerSheet("Customer Ledger", sampleEntries())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Customer Ledger")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Reference", rows[0][2])
	assert.Equal(t, "INV-20240102-00001", rows[1][2])
	assert.Equal(t, "58.5", rows[2][5])
}

func TestUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, "pdf", Sheet{}), ErrUnsupportedFormat)

	_, err := ContentType("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	ct, err := ContentType(FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", ct)
}
