package categories

import "github.com/tablemoney/moneybot/internal/model"

// Default returns the built-in category catalog.
func Default() []Category {
	return []Category{
		{Key: "зарплата", Kind: model.KindIncome, Status: model.StatusActive},
		{Key: "аренда", Kind: model.KindIncome, Status: model.StatusPassive},
		{Key: "продажа", Kind: model.KindIncome, Status: model.StatusActive},
		{Key: "родители", Kind: model.KindIncome, Status: model.StatusActive},

		{Key: "салон", Kind: model.KindExpense, Status: model.StatusUnspecified},
		{Key: "квартира", Kind: model.KindExpense, Status: model.StatusPassive},
		{Key: "налоги", Kind: model.KindExpense, Status: model.StatusPassive},
		{Key: "кладовка", Kind: model.KindExpense, Status: model.StatusPassive},
		{Key: "питание", Kind: model.KindExpense, Status: model.StatusActive},
		{Key: "развлечение", Kind: model.KindExpense, Status: model.StatusActive},
	}
}
