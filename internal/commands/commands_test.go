package commands

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemoney/moneybot/internal/config"
	"github.com/tablemoney/moneybot/internal/ledger"
	"github.com/tablemoney/moneybot/internal/model"
	"github.com/tablemoney/moneybot/internal/periods"
)

func init() {
	color.NoColor = true
}

// setup writes a config pointing at a fresh data dir and returns its path.
func setup(t *testing.T) (cfgPath, dataDir string) {
	t.Helper()
	for _, k := range []string{"DATA_DIR", "LOG_LEVEL", "BOT_TOKEN", "SPREADSHEET_ID", "ALLOWED_USERS"} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	dataDir = filepath.Join(dir, "data")
	cfg := config.Default()
	cfg.Storage.DataDir = dataDir
	cfg.Log.Level = "error"
	cfgPath = filepath.Join(dir, config.FileName)
	require.NoError(t, config.Save(cfgPath, cfg))
	return cfgPath, dataDir
}

func seed(t *testing.T, dataDir string) {
	t.Helper()
	store := ledger.NewStore(dataDir, zerolog.Nop())
	for _, e := range []model.Entry{
		{Date: time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), Category: "зарплата", Amount: decimal.NewFromInt(1000), Kind: model.KindIncome, Description: "оклад", Status: model.StatusActive},
		{Date: time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC), Category: "питание", Amount: decimal.NewFromInt(300), Kind: model.KindExpense, Description: "продукты", Status: model.StatusActive},
	} {
		_, err := store.Record(e)
		require.NoError(t, err)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.Execute()
	return out.String(), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized moneybot")

	for _, d := range []string{"data", filepath.Join("data", "logs")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir())
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.Storage.DataDir)

	_, err = os.Stat(filepath.Join(dir, ".env.example"))
	assert.NoError(t, err)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "init", dir)
	require.NoError(t, err)

	_, err = run(t, "init", dir)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "init", dir, "--force")
	assert.NoError(t, err)
}

func TestPeriods(t *testing.T) {
	cfgPath, dataDir := setup(t)

	out, err := run(t, "--config", cfgPath, "periods")
	require.NoError(t, err)
	assert.Contains(t, out, "No data.")

	seed(t, dataDir)
	out, err = run(t, "--config", cfgPath, "periods")
	require.NoError(t, err)
	assert.Equal(t, "2024: Ноябрь, Декабрь\n", out)
}

func TestReport(t *testing.T) {
	cfgPath, dataDir := setup(t)
	seed(t, dataDir)

	out, err := run(t, "--config", cfgPath, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "Ноябрь 2024 - Декабрь 2024")
	assert.Contains(t, out, "1,000.00")
	assert.Contains(t, out, "700.00")

	out, err = run(t, "--config", cfgPath, "report", "--from", "2024-12", "--to", "2024-12")
	require.NoError(t, err)
	assert.Contains(t, out, "Декабрь 2024")
	assert.NotContains(t, out, "1,000.00")
}

func TestReport_BadRange(t *testing.T) {
	cfgPath, dataDir := setup(t)
	seed(t, dataDir)

	_, err := run(t, "--config", cfgPath, "report", "--from", "2024-12", "--to", "2024-11")
	assert.Error(t, err)

	_, err = run(t, "--config", cfgPath, "report", "--from", "december")
	assert.ErrorContains(t, err, "--from")
}

func TestReport_NoEntries(t *testing.T) {
	cfgPath, dataDir := setup(t)
	seed(t, dataDir)

	out, err := run(t, "--config", cfgPath, "report", "--from", "2023-01", "--to", "2023-02")
	require.NoError(t, err)
	assert.Contains(t, out, "No entries")
}

func TestExport(t *testing.T) {
	cfgPath, dataDir := setup(t)
	seed(t, dataDir)
	archive := filepath.Join(t.TempDir(), "out.zip")

	out, err := run(t, "--config", cfgPath, "export", "--out", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 files")

	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"11_November_2024.csv", "12_December_2024.csv"}, names)
}

func TestResolveRange(t *testing.T) {
	idx := periods.Build([]ledger.Partition{
		ledger.PartitionOf(model.YearMonth{Year: 2024, Month: time.March}),
		ledger.PartitionOf(model.YearMonth{Year: 2025, Month: time.January}),
	})

	rng, err := resolveRange(idx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "202403-202501", rng.Code())

	rng, err = resolveRange(idx, "2024-06", "")
	require.NoError(t, err)
	assert.Equal(t, "202406-202501", rng.Code())

	_, err = resolveRange(periods.Index{}, "", "")
	assert.Error(t, err)
}

func TestServe_RequiresToken(t *testing.T) {
	cfgPath, _ := setup(t)
	_, err := run(t, "--config", cfgPath, "serve")
	assert.ErrorContains(t, err, "token")
}

func TestImport(t *testing.T) {
	cfgPath, dataDir := setup(t)
	importDir := filepath.Join(dataDir, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	csv := "Дата,Категория,Сумма,Тип,Описание\n05.11.2024,питание,250,расход,обед\n"
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "nov.csv"), []byte(csv), 0o644))

	out, err := run(t, "--config", cfgPath, "import")
	require.NoError(t, err)
	assert.Contains(t, out, "nov.csv: 1 entries")

	_, err = os.Stat(filepath.Join(importDir, "processed", "nov.csv"))
	assert.NoError(t, err)

	out, err = run(t, "--config", cfgPath, "periods")
	require.NoError(t, err)
	assert.Equal(t, "2024: Ноябрь\n", out)

	out, err = run(t, "--config", cfgPath, "import")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to import.")
}
