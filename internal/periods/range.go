package periods

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/model"
)

// Range is an inclusive span of months.
type Range struct {
	Start model.YearMonth
	End   model.YearMonth
}

// NewRange returns the range from start to end, rejecting a reversed pair.
func NewRange(start, end model.YearMonth) (Range, error) {
	if end.Before(start) {
		return Range{}, fmt.Errorf("range end %s precedes start %s", end, start)
	}
	return Range{Start: start, End: end}, nil
}

// Contains reports whether ym lies within the range, boundaries included.
func (r Range) Contains(ym model.YearMonth) bool {
	return ym.Compare(r.Start) >= 0 && ym.Compare(r.End) <= 0
}

// Months returns the number of calendar months the range spans.
func (r Range) Months() int {
	return (r.End.Year-r.Start.Year)*12 + int(r.End.Month) - int(r.Start.Month) + 1
}

// Filter keeps the partitions whose month lies within the range.
func (r Range) Filter(parts []ledger.Partition) []ledger.Partition {
	var out []ledger.Partition
	for _, p := range parts {
		if r.Contains(p.Period) {
			out = append(out, p)
		}
	}
	return out
}

// Label is the human form, e.g. "Ноябрь 2024 - Декабрь 2024".
func (r Range) Label() string {
	start := fmt.Sprintf("%s %d", MonthLabel(r.Start.Month), r.Start.Year)
	if r.Start == r.End {
		return start
	}
	return fmt.Sprintf("%s - %s %d", start, MonthLabel(r.End.Month), r.End.Year)
}

// Code is the compact form used in button payloads, e.g. "202411-202412".
func (r Range) Code() string {
	return fmt.Sprintf("%04d%02d-%04d%02d", r.Start.Year, int(r.Start.Month), r.End.Year, int(r.End.Month))
}

// ParseCode is the inverse of Code.
func ParseCode(s string) (Range, error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return Range{}, fmt.Errorf("range code %q: missing separator", s)
	}
	start, err := parseCompact(a)
	if err != nil {
		return Range{}, fmt.Errorf("range code %q: %w", s, err)
	}
	end, err := parseCompact(b)
	if err != nil {
		return Range{}, fmt.Errorf("range code %q: %w", s, err)
	}
	return NewRange(start, end)
}

func parseCompact(s string) (model.YearMonth, error) {
	if len(s) != 6 {
		return model.YearMonth{}, fmt.Errorf("want YYYYMM, got %q", s)
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil {
		return model.YearMonth{}, fmt.Errorf("year %q: %w", s[:4], err)
	}
	m, err := strconv.Atoi(s[4:])
	if err != nil || m < 1 || m > 12 {
		return model.YearMonth{}, fmt.Errorf("month %q out of range", s[4:])
	}
	return model.YearMonth{Year: y, Month: time.Month(m)}, nil
}
