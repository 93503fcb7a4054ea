// Package periods answers which years and months have recorded data, and
// narrows inclusive month ranges over them.
package periods

import (
	"slices"
	"sort"
	"time"

	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/model"
)

var ruMonths = [...]string{
	"", "Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// Month is one month that has a partition on disk.
type Month struct {
	Number time.Month
	Name   string // name carried by the partition file
}

// Label is the Russian display name of the month.
func (m Month) Label() string {
	if m.Number < time.January || m.Number > time.December {
		return m.Name
	}
	return ruMonths[m.Number]
}

// MonthLabel returns the Russian name of m.
func MonthLabel(m time.Month) string {
	return Month{Number: m}.Label()
}

// Index maps a year to its months with data, both ascending.
type Index map[int][]Month

// Lister lists partitions; *ledger.Store satisfies it.
type Lister interface {
	Partitions() ([]ledger.Partition, error)
}

// Scan builds an Index from the partitions l currently holds. A missing data
// directory yields an empty index.
func Scan(l Lister) (Index, error) {
	parts, err := l.Partitions()
	if err != nil {
		return nil, err
	}
	return Build(parts), nil
}

// Build groups partitions by year. Several files for the same month collapse
// into one entry.
func Build(parts []ledger.Partition) Index {
	idx := make(Index)
	seen := make(map[model.YearMonth]bool)
	for _, p := range parts {
		if seen[p.Period] {
			continue
		}
		seen[p.Period] = true
		idx[p.Period.Year] = append(idx[p.Period.Year], Month{Number: p.Period.Month, Name: p.MonthName})
	}
	for y := range idx {
		months := idx[y]
		sort.Slice(months, func(i, j int) bool { return months[i].Number < months[j].Number })
	}
	return idx
}

// Empty reports whether there is no data at all.
func (idx Index) Empty() bool { return len(idx) == 0 }

// Years returns the years with data, ascending.
func (idx Index) Years() []int {
	years := make([]int, 0, len(idx))
	for y := range idx {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// YearsFrom returns the years with data that are not before from.
func (idx Index) YearsFrom(from int) []int {
	var out []int
	for _, y := range idx.Years() {
		if y >= from {
			out = append(out, y)
		}
	}
	return out
}

// Months returns a copy of the months of year with data, ascending.
func (idx Index) Months(year int) []Month {
	return slices.Clone(idx[year])
}

// MonthsFrom returns the months of year that do not precede start.
func (idx Index) MonthsFrom(year int, start model.YearMonth) []Month {
	var out []Month
	for _, m := range idx[year] {
		if (model.YearMonth{Year: year, Month: m.Number}).Compare(start) >= 0 {
			out = append(out, m)
		}
	}
	return out
}

// HasYear reports whether year has any data.
func (idx Index) HasYear(year int) bool {
	return len(idx[year]) > 0
}

// Has reports whether ym has a partition.
func (idx Index) Has(ym model.YearMonth) bool {
	for _, m := range idx[ym.Year] {
		if m.Number == ym.Month {
			return true
		}
	}
	return false
}

// Span returns the earliest and latest months with data.
func (idx Index) Span() (first, last model.YearMonth, ok bool) {
	years := idx.Years()
	if len(years) == 0 {
		return first, last, false
	}
	fy, ly := years[0], years[len(years)-1]
	fm, lm := idx[fy], idx[ly]
	first = model.YearMonth{Year: fy, Month: fm[0].Number}
	last = model.YearMonth{Year: ly, Month: lm[len(lm)-1].Number}
	return first, last, true
}
