package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemoney/moneybot/internal/model"
)

func TestPartitionFor(t *testing.T) {
	p := PartitionFor(date(2024, 3, 17))
	assert.Equal(t, "03_March_2024.csv", p.Name)
	assert.Equal(t, "03_March_2024", p.Key())
	assert.Equal(t, model.YearMonth{Year: 2024, Month: time.March}, p.Period)
	assert.Equal(t, "March", p.MonthName)
}

func TestParsePartitionName(t *testing.T) {
	p, err := ParsePartitionName("11_November_2024.csv")
	require.NoError(t, err)
	assert.Equal(t, 2024, p.Period.Year)
	assert.Equal(t, time.November, p.Period.Month)
	assert.Equal(t, "November", p.MonthName)

	p, err = ParsePartitionName("3_Март_2025.csv")
	require.NoError(t, err, "month number without padding")
	assert.Equal(t, time.March, p.Period.Month)
	assert.Equal(t, "Март", p.MonthName)
}

func TestParsePartitionName_Invalid(t *testing.T) {
	for _, name := range []string{
		"activity.csv",
		"11_November_2024.txt",
		"13_Smarch_2024.csv",
		"00_None_2024.csv",
		"11__2024.csv",
		"11_November_year.csv",
		"11_November_2024_copy.csv",
	} {
		_, err := ParsePartitionName(name)
		assert.Error(t, err, name)
	}
}

func TestPartitionNameRoundTrip(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		want := PartitionOf(model.YearMonth{Year: 2023, Month: m})
		got, err := ParsePartitionName(want.Name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
