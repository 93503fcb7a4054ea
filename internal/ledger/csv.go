package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tablemoney/moneybot/internal/model"
)

// Header is the required column set of every partition, in order.
var Header = []string{"Дата", "Категория", "Сумма", "Тип", "Описание", "Статус"}

const (
	numFields   = 6
	dateFormat  = "02.01.2006"
	colDate     = 0
	colCategory = 1
	colAmount   = 2
	colKind     = 3
	colDesc     = 4
	colStatus   = 5
)

const utf8BOM = "\ufeff"

// IsHeader reports whether record is exactly the required header row.
func IsHeader(record []string) bool {
	if len(record) != len(Header) {
		return false
	}
	for i, col := range Header {
		cell := strings.TrimSpace(record[i])
		if i == 0 {
			cell = strings.TrimPrefix(cell, utf8BOM)
		}
		if cell != col {
			return false
		}
	}
	return true
}

// newReader returns the CSV reader every partition read goes through, so the
// header check and entry reads agree on what a well-formed file is.
func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr
}

// ReadEntries reads a partition including its header row.
func ReadEntries(r io.Reader) ([]model.Entry, error) {
	cr := newReader(r)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading partition CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if !IsHeader(records[0]) {
		return nil, fmt.Errorf("unexpected header %q", records[0])
	}

	var entries []model.Entry
	for i, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes the header followed by entries.
func WriteEntries(w io.Writer, entries []model.Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// AppendEntries writes entries without a header.
func AppendEntries(w io.Writer, entries []model.Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e model.Entry) []string {
	row := make([]string, numFields)
	row[colDate] = e.Date.Format(dateFormat)
	row[colCategory] = e.Category
	row[colAmount] = e.Amount.StringFixed(2)
	row[colKind] = string(e.Kind)
	row[colDesc] = e.Description
	row[colStatus] = string(e.Status)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry. Amounts written by hand or by
// a spreadsheet ("1 500,50 р.") are accepted.
func UnmarshalEntry(record []string) (model.Entry, error) {
	if len(record) != numFields {
		return model.Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, strings.TrimSpace(record[colDate]))
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := parseStoredAmount(record[colAmount])
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	kind := model.Kind(strings.ToLower(strings.TrimSpace(record[colKind])))
	if !kind.Valid() {
		return model.Entry{}, fmt.Errorf("unknown type %q", record[colKind])
	}

	return model.Entry{
		Date:        date,
		Category:    strings.TrimSpace(record[colCategory]),
		Amount:      amount,
		Kind:        kind,
		Description: record[colDesc],
		Status:      model.Status(strings.ToLower(strings.TrimSpace(record[colStatus]))),
	}, nil
}

func parseStoredAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, "р.", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
