package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signal-works/pulse/pkg/models/domain"
)

func writeRule(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDir_ParsesRuleFields(t *testing.T) {
	dir := t.TempDir()
	path := writeRule(t, dir, "fin-001.yaml", `
id: FIN-R-001
title: Revenue equation holds
severity: block
description: Revenue must reconcile against COGS and gross profit.
evidence:
  requires_tables: [pnl]
  checks:
    - type: equation
      table: pnl
      left: revenue_intent
      right: cogs_intent + gross_profit_intent
      tolerance: 0.01
    - type: ratio_bounds
      numerator: gross_profit_intent
      denominator: revenue_intent
      low: 0.1
      high: 0.9
`)

	loaded, err := LoadDir(context.Background(), dir, domain.DomainFinance)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	rule := loaded[0]
	assert.Equal(t, "FIN-R-001", rule.ID)
	assert.Equal(t, domain.DomainFinance, rule.Domain)
	assert.Equal(t, "Revenue equation holds", rule.Title)
	assert.Equal(t, domain.SeverityBlock, rule.Severity)
	assert.Equal(t, []string{"pnl"}, rule.RequiresTables)
	assert.Equal(t, path, rule.Path)

	require.Len(t, rule.Checks, 2)
	assert.Equal(t, "equation", rule.Checks[0].Kind)
	assert.Equal(t, "pnl", rule.Checks[0].Table)
	assert.Equal(t, "revenue_intent", rule.Checks[0].Params["left"])
	assert.EqualValues(t, 0.01, rule.Checks[0].Params["tolerance"])

	assert.Equal(t, "ratio_bounds", rule.Checks[1].Kind)
	assert.Empty(t, rule.Checks[1].Table)
	assert.EqualValues(t, 0.1, rule.Checks[1].Params["low"])
	assert.EqualValues(t, 0.9, rule.Checks[1].Params["high"])
}

func TestLoadDir_LexicographicOrderAndRecursion(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "b-second.yaml", "id: B-2\ntitle: second\n")
	writeRule(t, dir, "a-first.yaml", "id: A-1\ntitle: first\n")
	writeRule(t, filepath.Join(dir, "extra"), "c-third.yml", "id: C-3\ntitle: third\n")

	loaded, err := LoadDir(context.Background(), dir, domain.DomainOperations)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "A-1", loaded[0].ID)
	assert.Equal(t, "B-2", loaded[1].ID)
	assert.Equal(t, "C-3", loaded[2].ID)
}

func TestLoadDir_SkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "bad.yaml", "{id: broken\n  nope")
	writeRule(t, dir, "good.yaml", "id: OPS-R-001\ntitle: ok\n")

	loaded, err := LoadDir(context.Background(), dir, domain.DomainOperations)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "OPS-R-001", loaded[0].ID)
}

func TestLoadDir_Defaults(t *testing.T) {
	t.Run("missing id falls back to file stem", func(t *testing.T) {
		dir := t.TempDir()
		writeRule(t, dir, "mktg-cac-bounds.yaml", "title: CAC bounds\n")

		loaded, err := LoadDir(context.Background(), dir, domain.DomainMarketing)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "mktg-cac-bounds", loaded[0].ID)
	})

	t.Run("rule_id is accepted as an id synonym", func(t *testing.T) {
		dir := t.TempDir()
		writeRule(t, dir, "r.yaml", "rule_id: MKT-R-009\n")

		loaded, err := LoadDir(context.Background(), dir, domain.DomainMarketing)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "MKT-R-009", loaded[0].ID)
	})

	t.Run("absent severity defaults to warn", func(t *testing.T) {
		dir := t.TempDir()
		writeRule(t, dir, "r.yaml", "id: X\n")

		loaded, err := LoadDir(context.Background(), dir, domain.DomainPeople)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, domain.SeverityWarn, loaded[0].Severity)
	})

	t.Run("unknown severity downgrades to info", func(t *testing.T) {
		dir := t.TempDir()
		writeRule(t, dir, "r.yaml", "id: X\nseverity: catastrophic\n")

		loaded, err := LoadDir(context.Background(), dir, domain.DomainPeople)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, domain.SeverityInfo, loaded[0].Severity)
	})
}

func TestLoadDomain_ResolvesAliasDirectories(t *testing.T) {
	root := t.TempDir()
	writeRule(t, filepath.Join(root, "cfo"), "fin.yaml", "id: FIN-R-002\n")
	writeRule(t, filepath.Join(root, "marketing"), "mkt.yaml", "id: MKT-R-001\n")

	fin, err := LoadDomain(context.Background(), root, domain.DomainFinance)
	require.NoError(t, err)
	require.Len(t, fin, 1)
	assert.Equal(t, "FIN-R-002", fin[0].ID)

	ops, err := LoadDomain(context.Background(), root, domain.DomainOperations)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestLoadAll_GroupsByDomainAndSkipsUnknownDirs(t *testing.T) {
	root := t.TempDir()
	writeRule(t, filepath.Join(root, "finance"), "a.yaml", "id: FIN-R-001\n")
	writeRule(t, filepath.Join(root, "cfo"), "b.yaml", "id: FIN-R-002\n")
	writeRule(t, filepath.Join(root, "chro"), "c.yaml", "id: PPL-R-001\n")
	writeRule(t, filepath.Join(root, "shared"), "d.yaml", "id: NOPE\n")

	packs, err := LoadAll(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, packs[domain.DomainFinance], 2)
	require.Len(t, packs[domain.DomainPeople], 1)
	assert.Equal(t, "PPL-R-001", packs[domain.DomainPeople][0].ID)
	_, hasUnknown := packs[""]
	assert.False(t, hasUnknown)
}
