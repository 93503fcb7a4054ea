package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// YearMonth identifies one calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Compare returns -1, 0 or +1 comparing ym to other chronologically.
func (ym YearMonth) Compare(other YearMonth) int {
	a := ym.Year*12 + int(ym.Month)
	b := other.Year*12 + int(other.Month)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool { return ym.Compare(other) < 0 }

// After reports whether ym is strictly later than other.
func (ym YearMonth) After(other YearMonth) bool { return ym.Compare(other) > 0 }

// Next returns the following month.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// String formats as "2024-11".
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// ParseYearMonth parses "2024-11" or "2024-3".
func ParseYearMonth(s string) (YearMonth, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return YearMonth{}, fmt.Errorf("invalid year-month %q: want YYYY-MM", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return YearMonth{}, fmt.Errorf("invalid year in %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("invalid month in %q", s)
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}
