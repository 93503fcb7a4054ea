package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/model"
)

const sheetCSV = "\ufeffОписание,Дата,Сумма,Категория,Тип\n" +
	"оклад,05.11.2024,\"1 500,50 р.\",Зарплата,доход\n" +
	",,,,\n" +
	"продукты,2024-12-03,300,питание,расход\n"

func TestSheetParser_Parse(t *testing.T) {
	entries, err := (&SheetParser{}).Parse(strings.NewReader(sheetCSV))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "зарплата", entries[0].Category)
	assert.Equal(t, "1500.50", entries[0].Amount.StringFixed(2))
	assert.Equal(t, model.KindIncome, entries[0].Kind)
	assert.Equal(t, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), entries[0].Date)
	assert.Equal(t, model.StatusUnspecified, entries[0].Status)

	assert.Equal(t, model.KindExpense, entries[1].Kind)
	assert.Equal(t, 12, int(entries[1].Date.Month()))
}

func TestSheetParser_MissingColumn(t *testing.T) {
	_, err := (&SheetParser{}).Parse(strings.NewReader("Дата,Сумма\n05.11.2024,10\n"))
	assert.ErrorContains(t, err, "missing column")
}

func TestSheetParser_BadRow(t *testing.T) {
	data := "Дата,Категория,Сумма,Тип,Описание\n05.11.2024,питание,abc,расход,кофе\n"
	_, err := (&SheetParser{}).Parse(strings.NewReader(data))
	assert.ErrorContains(t, err, "row 2")

	data = "Дата,Категория,Сумма,Тип,Описание\nвчера,питание,10,расход,кофе\n"
	_, err = (&SheetParser{}).Parse(strings.NewReader(data))
	assert.ErrorContains(t, err, "date")
}

func TestSheetParser_EmptyFile(t *testing.T) {
	entries, err := (&SheetParser{}).Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLedgerParser_Parse(t *testing.T) {
	data := strings.Join(ledger.Header, ",") + "\n05.11.2024,зарплата,1000.00,доход,оклад,активный\n"
	entries, err := (&LedgerParser{}).Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.StatusActive, entries[0].Status)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("unknown"))
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("SHEET"))
	assert.NotNil(t, r.Get("Ledger"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&SheetParser{})
	assert.Panics(t, func() { r.Register(&SheetParser{}) })
}

func TestScan_FindsCSVs(t *testing.T) {
	dir := t.TempDir()
	importPath := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(filepath.Join(importPath, "processed"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importPath, "a.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importPath, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importPath, "processed", "old.csv"), []byte("x"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.csv", files[0].Name)
	assert.Equal(t, int64(1), files[0].Size)
}

func TestScan_EmptyDir(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "import"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "a.csv"), []byte("x"), 0o644))

	require.NoError(t, MarkProcessed(dir, "a.csv"))

	_, err := os.Stat(filepath.Join(dir, "import", "a.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "a.csv"))
	assert.NoError(t, err)
}

func TestFile_RecordsIntoPartitions(t *testing.T) {
	dir := t.TempDir()
	store := ledger.NewStore(dir, zerolog.Nop())
	path := filepath.Join(dir, "import", "sheet.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(sheetCSV), 0o644))

	sum, err := File(store, &SheetParser{}, path)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total())
	assert.Equal(t, 1, sum["11_November_2024.csv"])
	assert.Equal(t, 1, sum["12_December_2024.csv"])

	parts, err := store.Partitions()
	require.NoError(t, err)
	assert.Len(t, parts, 2)
}
