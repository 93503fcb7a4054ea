package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tablemoney/moneybot/internal/model"
)

// Ext is the file extension of a partition.
const Ext = ".csv"

// Partition is one month of entries stored in a single file.
type Partition struct {
	Period    model.YearMonth
	MonthName string // as written in the file name
	Name      string // file name, e.g. "11_November_2024.csv"
}

// PartitionFor returns the canonical partition of the month containing t.
func PartitionFor(t time.Time) Partition {
	return PartitionOf(model.YearMonthOf(t))
}

// PartitionOf returns the canonical partition of ym.
func PartitionOf(ym model.YearMonth) Partition {
	name := ym.Month.String()
	return Partition{
		Period:    ym,
		MonthName: name,
		Name:      fmt.Sprintf("%02d_%s_%04d%s", int(ym.Month), name, ym.Year, Ext),
	}
}

// Key is the file name without extension; it doubles as the remote sheet title.
func (p Partition) Key() string {
	return strings.TrimSuffix(p.Name, Ext)
}

// ParsePartitionName parses "MM_MonthName_YYYY.csv". The month number may
// lack zero padding.
func ParsePartitionName(name string) (Partition, error) {
	if !strings.HasSuffix(strings.ToLower(name), Ext) {
		return Partition{}, fmt.Errorf("partition %q: not a %s file", name, Ext)
	}
	base := name[:len(name)-len(Ext)]

	parts := strings.Split(base, "_")
	if len(parts) != 3 {
		return Partition{}, fmt.Errorf("partition %q: want MM_MonthName_YYYY", name)
	}

	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || month < 1 || month > 12 {
		return Partition{}, fmt.Errorf("partition %q: invalid month %q", name, parts[0])
	}

	monthName := strings.TrimSpace(parts[1])
	if monthName == "" {
		return Partition{}, fmt.Errorf("partition %q: empty month name", name)
	}

	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || year < 1 {
		return Partition{}, fmt.Errorf("partition %q: invalid year %q", name, parts[2])
	}

	return Partition{
		Period:    model.YearMonth{Year: year, Month: time.Month(month)},
		MonthName: monthName,
		Name:      name,
	}, nil
}
