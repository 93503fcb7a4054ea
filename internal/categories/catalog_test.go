package categories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemoney/moneybot/internal/model"
)

func TestDefaultCatalog(t *testing.T) {
	c := MustDefault()

	assert.Len(t, c.All(), 10)
	assert.Len(t, c.ByKind(model.KindIncome), 4)
	assert.Len(t, c.ByKind(model.KindExpense), 6)

	for _, cat := range c.All() {
		assert.NotEmpty(t, cat.Label, "category %q missing label", cat.Key)
		assert.True(t, cat.Kind.Valid())
	}
}

func TestStatusFor(t *testing.T) {
	c := MustDefault()

	tests := []struct {
		kind model.Kind
		key  string
		want model.Status
	}{
		{model.KindIncome, "аренда", model.StatusPassive},
		{model.KindIncome, "зарплата", model.StatusActive},
		{model.KindIncome, "родители", model.StatusActive},
		{model.KindExpense, "квартира", model.StatusPassive},
		{model.KindExpense, "налоги", model.StatusPassive},
		{model.KindExpense, "кладовка", model.StatusPassive},
		{model.KindExpense, "салон", model.StatusUnspecified},
		{model.KindExpense, "питание", model.StatusActive},
		{model.KindExpense, "Развлечение", model.StatusActive},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.StatusFor(tt.kind, tt.key), "%s/%s", tt.kind, tt.key)
	}
}

func TestLookup_KindScoped(t *testing.T) {
	c := MustDefault()

	cat, ok := c.Lookup(model.KindIncome, "зарплата")
	require.True(t, ok)
	assert.Equal(t, "Зарплата", cat.Label)

	_, ok = c.Lookup(model.KindExpense, "зарплата")
	assert.False(t, ok, "income category must not resolve for expenses")
}

func TestNewCatalog_Errors(t *testing.T) {
	_, err := NewCatalog([]Category{{Key: "", Kind: model.KindIncome}})
	assert.Error(t, err)

	_, err = NewCatalog([]Category{{Key: "x", Kind: "перевод"}})
	assert.Error(t, err)

	_, err = NewCatalog([]Category{{Key: "x", Kind: model.KindIncome, Status: "разовый"}})
	assert.Error(t, err)

	_, err = NewCatalog([]Category{
		{Key: "x", Kind: model.KindIncome},
		{Key: "X", Kind: model.KindIncome},
	})
	assert.Error(t, err)
}

func TestNewCatalog_CustomLabel(t *testing.T) {
	c, err := NewCatalog([]Category{{Key: "бонус", Label: "Премия 💰", Kind: model.KindIncome, Status: model.StatusActive}})
	require.NoError(t, err)

	cat, ok := c.Lookup(model.KindIncome, "бонус")
	require.True(t, ok)
	assert.Equal(t, "Премия 💰", cat.Label)
}
