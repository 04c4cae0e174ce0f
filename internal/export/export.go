// Package export renders tabular reports as CSV or XLSX.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"erp-backend/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

const dateLayout = "2006-01-02"

// Sheet is one table with a heading row.
type Sheet struct {
	Name     string
	Headings []string
	Rows     [][]any
}

// ContentType returns the MIME type of format.
func ContentType(format string) (string, error) {
	switch format {
	case FormatCSV:
		return "text/csv", nil
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func Write(w io.Writer, format string, sheet Sheet) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, sheet)
	case FormatXLSX:
		return WriteXLSX(w, sheet)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func WriteCSV(w io.Writer, sheet Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sheet.Headings); err != nil {
		return err
	}
	record := make([]string, len(sheet.Headings))
	for _, row := range sheet.Rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, text(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, sheet Sheet) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := sheet.Name
	if name == "" {
		name = "Sheet1"
	}
	if name != "Sheet1" {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, h := range sheet.Headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, cell, cell, header); err != nil {
			return err
		}
	}

	for r, row := range sheet.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, cellValue(v)); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

// LedgerSheet lays out ledger rows for export.
func LedgerSheet(name string, entries []ledger.Entry) Sheet {
	sheet := Sheet{
		Name:     name,
		Headings: []string{"Date", "Type", "Reference", "Debit", "Credit", "Balance"},
		Rows:     make([][]any, 0, len(entries)),
	}
	for _, e := range entries {
		sheet.Rows = append(sheet.Rows, []any{e.Date, e.Type, e.Reference, e.Debit, e.Credit, e.RunningBalance})
	}
	return sheet
}

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(dateLayout)
	case decimal.Decimal:
		return x.StringFixed(2)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// cellValue keeps numbers numeric so spreadsheet formulas work on them.
func cellValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(dateLayout)
	case decimal.Decimal:
		return x.Round(2).InexactFloat64()
	default:
		return v
	}
}
