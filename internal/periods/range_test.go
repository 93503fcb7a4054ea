package periods

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemoney/moneybot/internal/ledger"
)

func TestRange_ContainsBoundaries(t *testing.T) {
	r, err := NewRange(ym(2024, time.November), ym(2024, time.December))
	require.NoError(t, err)

	assert.True(t, r.Contains(ym(2024, time.November)))
	assert.True(t, r.Contains(ym(2024, time.December)))
	assert.False(t, r.Contains(ym(2024, time.October)))
	assert.False(t, r.Contains(ym(2025, time.January)))
	assert.Equal(t, 2, r.Months())
}

func TestNewRange_Reversed(t *testing.T) {
	_, err := NewRange(ym(2024, time.December), ym(2024, time.November))
	require.Error(t, err)
}

func TestRange_Filter(t *testing.T) {
	parts := []ledger.Partition{
		ledger.PartitionOf(ym(2024, time.October)),
		ledger.PartitionOf(ym(2024, time.November)),
		ledger.PartitionOf(ym(2025, time.March)),
		ledger.PartitionOf(ym(2025, time.April)),
	}
	r := Range{Start: ym(2024, time.November), End: ym(2025, time.March)}

	got := r.Filter(parts)
	require.Len(t, got, 2)
	assert.Equal(t, "11_November_2024.csv", got[0].Name)
	assert.Equal(t, "03_March_2025.csv", got[1].Name)
}

func TestRange_Code(t *testing.T) {
	r := Range{Start: ym(2024, time.November), End: ym(2025, time.February)}
	assert.Equal(t, "202411-202502", r.Code())

	back, err := ParseCode(r.Code())
	require.NoError(t, err)
	assert.Equal(t, r, back)

	for _, bad := range []string{"", "202411", "2024-11-2024-12", "202413-202414", "202412-202411"} {
		_, err := ParseCode(bad)
		assert.Error(t, err, bad)
	}
}

func TestRange_Label(t *testing.T) {
	r := Range{Start: ym(2024, time.November), End: ym(2024, time.December)}
	assert.Equal(t, "Ноябрь 2024 - Декабрь 2024", r.Label())

	single := Range{Start: ym(2024, time.May), End: ym(2024, time.May)}
	assert.Equal(t, "Май 2024", single.Label())
}
