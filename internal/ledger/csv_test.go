package ledger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemoney/moneybot/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestRoundTrip(t *testing.T) {
	entries := []model.Entry{
		{
			Date:        date(2024, 11, 5),
			Category:    "зарплата",
			Amount:      dec("100000"),
			Kind:        model.KindIncome,
			Description: "аванс",
			Status:      model.StatusActive,
		},
		{
			Date:        date(2024, 11, 12),
			Category:    "продукты",
			Amount:      dec("1500.5"),
			Kind:        model.KindExpense,
			Description: "магазин, у дома",
			Status:      model.StatusUnspecified,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Дата,Категория,Сумма,Тип,Описание,Статус", lines[0])
	assert.Equal(t, "05.11.2024,зарплата,100000.00,доход,аванс,активный", lines[1])
	assert.Equal(t, `12.11.2024,продукты,1500.50,расход,"магазин, у дома",`, lines[2])

	got, err := ReadEntries(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(entries[0].Date))
	assert.True(t, got[1].Amount.Equal(dec("1500.50")))
	assert.Equal(t, "магазин, у дома", got[1].Description)
	assert.Equal(t, model.StatusUnspecified, got[1].Status)
}

func TestReadEntries_BadHeader(t *testing.T) {
	_, err := ReadEntries(strings.NewReader("date,category,amount\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected header")
}

func TestReadEntries_Empty(t *testing.T) {
	got, err := ReadEntries(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadEntries_SkipsBlankRows(t *testing.T) {
	in := "Дата,Категория,Сумма,Тип,Описание,Статус\n" +
		"01.03.2024,аренда,30000.00,доход,жильцы,пассивный\n" +
		",,,,,\n"
	got, err := ReadEntries(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUnmarshalEntry_ToleratesFormattedAmount(t *testing.T) {
	e, err := UnmarshalEntry([]string{"01.03.2024", "продукты", "1 500,50 р.", "расход", "рынок", ""})
	require.NoError(t, err)
	assert.True(t, e.Amount.Equal(dec("1500.50")))
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	tests := []struct {
		name   string
		record []string
		want   string
	}{
		{"short row", []string{"01.03.2024", "x"}, "expected 6 fields"},
		{"bad date", []string{"2024-03-01", "x", "1", "доход", "d", ""}, "parsing date"},
		{"bad amount", []string{"01.03.2024", "x", "abc", "доход", "d", ""}, "parsing amount"},
		{"bad kind", []string{"01.03.2024", "x", "1", "перевод", "d", ""}, "unknown type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalEntry(tt.record)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIsHeader_BOM(t *testing.T) {
	rec := append([]string{"\ufeffДата"}, Header[1:]...)
	assert.True(t, IsHeader(rec))
	assert.False(t, IsHeader(Header[:5]))
}
