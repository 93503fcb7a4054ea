package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/model"
)

// LedgerParser reads files in the partition format itself.
type LedgerParser struct{}

// Format returns the parser name.
func (p *LedgerParser) Format() string { return "ledger" }

// Parse reads a partition-format CSV.
func (p *LedgerParser) Parse(r io.Reader) ([]model.Entry, error) {
	return ledger.ReadEntries(r)
}

// SheetParser reads spreadsheet downloads. Columns are located by their
// header names in any order; the status column is optional.
type SheetParser struct{}

var sheetDateFormats = []string{"02.01.2006", "2006-01-02", "02/01/2006", "2.1.2006"}

// Format returns the parser name.
func (p *SheetParser) Format() string { return "sheet" }

// Parse reads a spreadsheet CSV export.
func (p *SheetParser) Parse(r io.Reader) ([]model.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading sheet CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	cols, err := locateColumns(records[0])
	if err != nil {
		return nil, err
	}

	var entries []model.Entry
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		e, err := cols.entry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type columns struct {
	date, category, amount, kind, desc, status int
}

func locateColumns(header []string) (columns, error) {
	cols := columns{-1, -1, -1, -1, -1, -1}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch h {
		case "дата", "date":
			cols.date = i
		case "категория", "category":
			cols.category = i
		case "сумма", "amount":
			cols.amount = i
		case "тип", "type", "kind":
			cols.kind = i
		case "описание", "description":
			cols.desc = i
		case "статус", "status":
			cols.status = i
		}
	}
	for name, idx := range map[string]int{
		"Дата": cols.date, "Категория": cols.category, "Сумма": cols.amount,
		"Тип": cols.kind, "Описание": cols.desc,
	} {
		if idx < 0 {
			return cols, fmt.Errorf("missing column %q", name)
		}
	}
	return cols, nil
}

func (c columns) entry(rec []string) (model.Entry, error) {
	date, err := parseDate(cell(rec, c.date))
	if err != nil {
		return model.Entry{}, err
	}
	amount, err := ledger.ParseAmount(cell(rec, c.amount))
	if err != nil {
		return model.Entry{}, err
	}
	e := model.Entry{
		Date:        date,
		Category:    strings.ToLower(strings.TrimSpace(cell(rec, c.category))),
		Amount:      amount,
		Kind:        model.Kind(strings.ToLower(strings.TrimSpace(cell(rec, c.kind)))),
		Description: cell(rec, c.desc),
		Status:      model.Status(strings.ToLower(strings.TrimSpace(cell(rec, c.status)))),
	}
	return ledger.Normalize(e)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range sheetDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q", s)
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
