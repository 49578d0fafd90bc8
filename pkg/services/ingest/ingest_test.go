package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signal-works/pulse/pkg/models/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	dir := t.TempDir()

	t.Run("success - typed cells", func(t *testing.T) {
		path := writeFile(t, dir, "pnl.csv", "period,revenue,cogs,note\n2024-01,1200,700,ok\n2024-02,,800,\"$1,300\"\n2024-03,900\n")

		tables, err := ReadCSV(path)
		require.NoError(t, err)
		require.Contains(t, tables, "pnl")

		ds := tables["pnl"]
		assert.Equal(t, []string{"period", "revenue", "cogs", "note"}, ds.Columns)
		require.Equal(t, 3, ds.NumRows())

		assert.Equal(t, 1200.0, ds.Rows[0]["revenue"])
		assert.Equal(t, "2024-01", ds.Rows[0]["period"])
		// Empty cells are nil, not zero.
		assert.Nil(t, ds.Rows[1]["revenue"])
		// Formatted numbers stay strings for the checks to parse.
		assert.Equal(t, "$1,300", ds.Rows[1]["note"])
		// Short rows pad with nil.
		assert.Nil(t, ds.Rows[2]["cogs"])
	})

	t.Run("error - no header", func(t *testing.T) {
		path := writeFile(t, dir, "empty.csv", "")
		_, err := ReadCSV(path)
		assert.Error(t, err)
	})

	t.Run("error - missing file", func(t *testing.T) {
		_, err := ReadCSV(filepath.Join(dir, "absent.csv"))
		assert.Error(t, err)
	})
}

func TestReadJSON(t *testing.T) {
	dir := t.TempDir()

	t.Run("array becomes stem table", func(t *testing.T) {
		path := writeFile(t, dir, "orders.json", `[{"sku":"A","qty":2},{"sku":"B","qty":5}]`)

		tables, err := ReadJSON(path)
		require.NoError(t, err)
		require.Contains(t, tables, "orders")
		assert.Equal(t, 2, tables["orders"].NumRows())
		assert.Equal(t, 5.0, tables["orders"].Rows[1]["qty"])
	})

	t.Run("object becomes one table per list key", func(t *testing.T) {
		path := writeFile(t, dir, "export.json", `{
			"pnl": [{"revenue": 100}],
			"orders": [{"qty": 1}, {"qty": 2}],
			"version": "2024-q3"
		}`)

		tables, err := ReadJSON(path)
		require.NoError(t, err)
		assert.Len(t, tables, 2)
		assert.Equal(t, 1, tables["pnl"].NumRows())
		assert.Equal(t, 2, tables["orders"].NumRows())
	})

	t.Run("scalar object flattens to one row", func(t *testing.T) {
		path := writeFile(t, dir, "meta.json", `{"company":"acme","period":"2024-06","targets":{"revenue":5000}}`)

		tables, err := ReadJSON(path)
		require.NoError(t, err)
		require.Contains(t, tables, "meta")

		ds := tables["meta"]
		require.Equal(t, 1, ds.NumRows())
		assert.Equal(t, "acme", ds.Rows[0]["company"])
		assert.Equal(t, 5000.0, ds.Rows[0]["targets.revenue"])
	})

	t.Run("error - scalar array", func(t *testing.T) {
		path := writeFile(t, dir, "nums.json", `[1, 2, 3]`)
		_, err := ReadJSON(path)
		assert.Error(t, err)
	})

	t.Run("error - malformed", func(t *testing.T) {
		path := writeFile(t, dir, "bad.json", `{"pnl": [}`)
		_, err := ReadJSON(path)
		assert.Error(t, err)
	})
}

func TestRegistry(t *testing.T) {
	t.Run("routes by extension", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "pnl.csv", "revenue\n100\n")

		tables, err := DefaultRegistry().Read(path)
		require.NoError(t, err)
		assert.Contains(t, tables, "pnl")
	})

	t.Run("error - unsupported extension", func(t *testing.T) {
		_, err := DefaultRegistry().Read("input.parquet")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parquet")
	})

	t.Run("error - duplicate format", func(t *testing.T) {
		reg := DefaultRegistry()
		err := reg.Register("csv", ReadCSV)
		assert.Error(t, err)
	})

	t.Run("custom format", func(t *testing.T) {
		reg := DefaultRegistry()
		err := reg.Register(".tsv", func(path string) (map[string]domain.Dataset, error) {
			return map[string]domain.Dataset{"stub": {}}, nil
		})
		require.NoError(t, err)

		tables, err := reg.Read("anything.tsv")
		require.NoError(t, err)
		assert.Contains(t, tables, "stub")
		assert.Equal(t, []string{"csv", "json", "tsv"}, reg.ListFormats())
	})
}

func TestFileProvider_ServesEveryDomain(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "export.csv", "revenue\n100\n")
	provider := NewFile(DefaultRegistry(), path)
	ctx := context.Background()

	fin, err := provider.Datasets(ctx, domain.DomainFinance)
	require.NoError(t, err)
	ops, err := provider.Datasets(ctx, domain.DomainOperations)
	require.NoError(t, err)

	require.Contains(t, fin, "export")
	assert.Equal(t, fin["export"].Rows, ops["export"].Rows)
}

func TestDirProvider(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "finance.csv", "revenue\n100\n")
	writeFile(t, dir, "hr.json", `[{"headcount": 42}]`)
	writeFile(t, dir, "ops/throughput.csv", "units\n10\n")
	writeFile(t, dir, "ops/inventory.csv", "stock\n5\n")
	writeFile(t, dir, "README.md", "not an input")

	provider, err := NewDir(DefaultRegistry(), dir)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("available in canonical order", func(t *testing.T) {
		assert.Equal(t, []domain.Domain{
			domain.DomainFinance,
			domain.DomainOperations,
			domain.DomainPeople,
		}, provider.Available())
	})

	t.Run("flat file by alias", func(t *testing.T) {
		tables, err := provider.Datasets(ctx, domain.DomainPeople)
		require.NoError(t, err)
		require.Contains(t, tables, "hr")
		assert.Equal(t, 42.0, tables["hr"].Rows[0]["headcount"])
	})

	t.Run("subdirectory yields one table per file", func(t *testing.T) {
		tables, err := provider.Datasets(ctx, domain.DomainOperations)
		require.NoError(t, err)
		assert.Len(t, tables, 2)
		assert.Contains(t, tables, "throughput")
		assert.Contains(t, tables, "inventory")
	})

	t.Run("error - no input for domain", func(t *testing.T) {
		_, err := provider.Datasets(ctx, domain.DomainTalent)
		assert.Error(t, err)
	})
}

func TestFromRows(t *testing.T) {
	tables := FromRows(map[string][]map[string]any{
		"pnl": {{"revenue": 100.0}, {"revenue": 120.0}},
	})
	require.Contains(t, tables, "pnl")
	assert.Equal(t, 2, tables["pnl"].NumRows())
	assert.Equal(t, []string{"revenue"}, tables["pnl"].Columns)
}
