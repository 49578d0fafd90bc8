package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signal-works/pulse/pkg/models/domain"
)

func mk(cols []string, rows ...domain.Row) *domain.Dataset {
	d := domain.NewDataset(cols, rows)
	return &d
}

func run(t *testing.T, kind string, params map[string]any, ds *domain.Dataset) domain.CheckResult {
	t.Helper()
	return Dispatch(context.Background(), Spec{Kind: kind, Params: params}, ds)
}

func TestDispatch_UnknownKind(t *testing.T) {
	ds := mk([]string{"a"}, domain.Row{"a": 1.0})
	res := run(t, "resume_business_match", nil, ds)
	assert.Equal(t, domain.CheckWarn, res.Status)
	assert.Equal(t, 0.6, res.Score)
	assert.Equal(t, NoteUnknownKind, res.Note)
}

func TestDispatch_BrokenCheckDegrades(t *testing.T) {
	ds := mk([]string{"a"}, domain.Row{"a": 1.0})
	res := run(t, "min_value", map[string]any{"column": "absent", "min": 0}, ds)
	assert.Equal(t, domain.CheckWarn, res.Status)
	assert.Equal(t, 0.4, res.Score)
	assert.Equal(t, NoteCheckPanic, res.Note)
}

func TestDispatch_NonNumericCellDegrades(t *testing.T) {
	ds := mk([]string{"x"}, domain.Row{"x": 1.0}, domain.Row{"x": "n/a"})
	res := run(t, "value_bounds", map[string]any{"column": "x", "low": 0, "high": 10}, ds)
	assert.Equal(t, domain.CheckWarn, res.Status)
	assert.Equal(t, 0.4, res.Score)
}

func TestNormalizeKind_Aliases(t *testing.T) {
	for alias, want := range map[string]Kind{
		"equation_intents_tolerance": KindEquation,
		"variance_bounds":            KindVarianceThreshold,
		"outlier_sigma_intents":      KindOutlierZScore,
		"band_alignment_check":       KindBandAlignment,
		"ratio_bounds":               KindRatioBounds,
	} {
		k, ok := NormalizeKind(alias)
		assert.True(t, ok, alias)
		assert.Equal(t, want, k, alias)
	}
	_, ok := NormalizeKind("semantic_similarity_overlap")
	assert.False(t, ok)
}

func TestRatioBounds(t *testing.T) {
	ds := mk([]string{"gm", "rev"},
		domain.Row{"gm": 40.0, "rev": 100.0},
		domain.Row{"gm": 50.0, "rev": 100.0},
	)

	t.Run("within band", func(t *testing.T) {
		res := run(t, "ratio_bounds", map[string]any{
			"numerator": "gm", "denominator": "rev", "low": 0.3, "high": 0.6,
		}, ds)
		assert.Equal(t, domain.CheckPass, res.Status)
		assert.Equal(t, 1.0, res.Score)
	})

	t.Run("breach fails", func(t *testing.T) {
		res := run(t, "ratio_bounds", map[string]any{
			"numerator": "gm", "denominator": "rev", "low": 0.3, "high": 0.45,
		}, ds)
		assert.Equal(t, domain.CheckFail, res.Status)
		assert.Equal(t, 0.0, res.Score)
	})

	t.Run("missing column warns softly", func(t *testing.T) {
		res := run(t, "ratio_bounds", map[string]any{
			"numerator": "nope", "denominator": "rev",
		}, ds)
		assert.Equal(t, domain.CheckWarn, res.Status)
		assert.Equal(t, NoteMissingColumns, res.Note)
		assert.Equal(t, []string{"nope"}, res.Missing)
	})

	t.Run("grouped defaults band", func(t *testing.T) {
		grouped := mk([]string{"spend", "rev", "channel"},
			domain.Row{"spend": 10.0, "rev": 100.0, "channel": "paid"},
			domain.Row{"spend": 90.0, "rev": 100.0, "channel": "organic"},
		)
		res := run(t, "ratio_bounds_intents_grouped", map[string]any{
			"numerator": "spend", "denominator": "rev", "group_by": "channel",
			"defaults": map[string]any{"low": 0.05, "high": 0.5},
		}, grouped)
		assert.Equal(t, domain.CheckFail, res.Status)
		byGroup := res.Details["by_group"].(map[string]any)
		assert.Contains(t, byGroup, "organic")
		assert.Contains(t, byGroup, "paid")
	})
}

func TestEquation(t *testing.T) {
	ds := mk([]string{"revenue", "units", "price"},
		domain.Row{"revenue": 10.0, "units": 2.0, "price": 5.0},
		domain.Row{"revenue": 20.0, "units": 4.0, "price": 5.0},
	)

	t.Run("holds", func(t *testing.T) {
		res := run(t, "equation", map[string]any{"expression": "revenue = units * price"}, ds)
		assert.Equal(t, domain.CheckPass, res.Status)
	})

	t.Run("violated fails", func(t *testing.T) {
		bad := mk([]string{"revenue", "units", "price"},
			domain.Row{"revenue": 21.0, "units": 4.0, "price": 5.0},
		)
		res := run(t, "equation", map[string]any{"expression": "revenue = units * price"}, bad)
		assert.Equal(t, domain.CheckFail, res.Status)
	})

	t.Run("left and right sums", func(t *testing.T) {
		books := mk([]string{"cash_in", "cash_out", "net", "adj"},
			domain.Row{"cash_in": 100.0, "cash_out": 40.0, "net": 55.0, "adj": 5.0},
		)
		res := run(t, "equation", map[string]any{
			"left_sum":  []any{"net", "adj", "cash_out"},
			"right_sum": []any{"cash_in"},
		}, books)
		assert.Equal(t, domain.CheckPass, res.Status)
	})

	t.Run("absolute tolerance", func(t *testing.T) {
		near := mk([]string{"a", "b"}, domain.Row{"a": 10.0, "b": 10.4})
		res := run(t, "equation", map[string]any{
			"expression": "a = b", "tolerance": 0.5, "tolerance_mode": "absolute",
		}, near)
		assert.Equal(t, domain.CheckPass, res.Status)

		res = run(t, "equation", map[string]any{
			"expression": "a = b", "tolerance": 0.2, "tolerance_mode": "absolute",
		}, near)
		assert.Equal(t, domain.CheckFail, res.Status)
	})

	t.Run("historical absolute name implies mode", func(t *testing.T) {
		near := mk([]string{"a", "b"}, domain.Row{"a": 10.0, "b": 10.4})
		res := run(t, "equation_intents_absolute", map[string]any{
			"expression": "a = b", "abs_tol": 0.5,
		}, near)
		assert.Equal(t, domain.CheckPass, res.Status)
	})

	t.Run("missing column fails in relative mode", func(t *testing.T) {
		res := run(t, "equation", map[string]any{"expression": "revenue = units * tax"}, ds)
		assert.Equal(t, domain.CheckFail, res.Status)
	})

	t.Run("no params warns", func(t *testing.T) {
		res := run(t, "equation", map[string]any{}, ds)
		assert.Equal(t, domain.CheckWarn, res.Status)
		assert.Equal(t, "equation_missing_params", res.Note)
	})
}

func TestSumReconciliation(t *testing.T) {
	ds := mk([]string{"total", "a", "b"},
		domain.Row{"total": 100.0, "a": 60.0, "b": 40.0},
		domain.Row{"total": 200.0, "a": 120.0, "b": 80.0},
	)
	res := run(t, "sum_reconciliation", map[string]any{"total": "total", "parts": []any{"a", "b"}}, ds)
	assert.Equal(t, domain.CheckPass, res.Status)

	off := mk([]string{"total", "a", "b"}, domain.Row{"total": 100.0, "a": 60.0, "b": 35.0})
	res = run(t, "sum_reconciliation", map[string]any{"total": "total", "parts": []any{"a", "b"}}, off)
	assert.Equal(t, domain.CheckFail, res.Status)
}

func TestValueInRange_BreachWarns(t *testing.T) {
	ds := mk([]string{"v", "lo", "hi"},
		domain.Row{"v": 5.0, "lo": 1.0, "hi": 10.0},
		domain.Row{"v": 15.0, "lo": 1.0, "hi": 10.0},
	)
	res := run(t, "value_in_range", map[string]any{"value": "v", "low_ref": "lo", "high_ref": "hi"}, ds)
	assert.Equal(t, domain.CheckWarn, res.Status)
	assert.Equal(t, 1, res.Details["violations"])
}

func TestVarianceThreshold(t *testing.T) {
	ds := mk([]string{"flat", "lively"},
		domain.Row{"flat": 5.0, "lively": 1.0},
		domain.Row{"flat": 5.0, "lively": 5.0},
		domain.Row{"flat": 5.0, "lively": 9.0},
	)

	t.Run("flatline fails min variance", func(t *testing.T) {
		res := run(t, "variance_threshold", map[string]any{"column": "flat", "min_var": 0.1}, ds)
		assert.Equal(t, domain.CheckFail, res.Status)
	})

	t.Run("lively series passes", func(t *testing.T) {
		res := run(t, "variance_threshold", map[string]any{"columns": []any{"lively"}, "min_variance": 0.1}, ds)
		assert.Equal(t, domain.CheckPass, res.Status)
	})

	t.Run("missing column fails with detail", func(t *testing.T) {
		res := run(t, "variance_threshold", map[string]any{"columns": []any{"ghost"}, "min_variance": 0.1}, ds)
		assert.Equal(t, domain.CheckFail, res.Status)
	})

	t.Run("no columns warns", func(t *testing.T) {
		res := run(t, "variance_threshold", map[string]any{"min_variance": 0.1}, ds)
		assert.Equal(t, domain.CheckWarn, res.Status)
	})
}

func TestDerivedMetric_FeedsLaterChecks(t *testing.T) {
	ds := mk([]string{"spend", "leads"},
		domain.Row{"spend": 100.0, "leads": 50.0},
		domain.Row{"spend": 90.0, "leads": 0.0},
	)
	res := run(t, "derived_metric", map[string]any{
		"name": "cac", "expression": "spend / max(leads, 1)",
	}, ds)
	require.Equal(t, domain.CheckPass, res.Status)
	require.True(t, ds.HasColumn("cac"))

	res = run(t, "value_bounds", map[string]any{"column": "cac", "low": 0, "high": 10}, ds)
	assert.Equal(t, domain.CheckFail, res.Status, "zero leads row should blow the CAC bound")
}

func TestDerivedMetric_BadExpressionWarns(t *testing.T) {
	ds := mk([]string{"a"}, domain.Row{"a": 1.0})
	res := run(t, "derived_metric", map[string]any{"name": "x", "expression": "a +* 2"}, ds)
	assert.Equal(t, domain.CheckWarn, res.Status)
	assert.Equal(t, "derived_metric_eval_failed", res.Note)
}

func TestNonNegative_DefaultsToIntentColumns(t *testing.T) {
	ds := mk([]string{"revenue_intent", "note"},
		domain.Row{"revenue_intent": 5.0, "note": "ok"},
		domain.Row{"revenue_intent": -2.0, "note": "bad"},
	)
	res := run(t, "non_negative", nil, ds)
	assert.Equal(t, domain.CheckFail, res.Status)
	assert.Equal(t, 1, res.Details["neg_rows"])
}

func TestMonotonicTime(t *testing.T) {
	t.Run("sorted months pass", func(t *testing.T) {
		ds := mk([]string{"period_intent"},
			domain.Row{"period_intent": "2024-01"},
			domain.Row{"period_intent": "2024-02"},
			domain.Row{"period_intent": "2024-03"},
		)
		res := run(t, "monotonic_time", map[string]any{"column": "period_intent"}, ds)
		assert.Equal(t, domain.CheckPass, res.Status)
	})

	t.Run("out of order fails", func(t *testing.T) {
		ds := mk([]string{"period_intent"},
			domain.Row{"period_intent": "2024-03"},
			domain.Row{"period_intent": "2024-01"},
		)
		res := run(t, "monotonic_time", map[string]any{"column": "period_intent"}, ds)
		assert.Equal(t, domain.CheckFail, res.Status)
	})

	t.Run("unparseable value fails", func(t *testing.T) {
		ds := mk([]string{"period_intent"},
			domain.Row{"period_intent": "2024-01"},
			domain.Row{"period_intent": "whenever"},
		)
		res := run(t, "monotonic_time", map[string]any{"column": "period_intent"}, ds)
		assert.Equal(t, domain.CheckFail, res.Status)
	})
}

func TestPeriodGap(t *testing.T) {
	ds := mk([]string{"period_intent"},
		domain.Row{"period_intent": "2024-01-01"},
		domain.Row{"period_intent": "2024-02-01"},
		domain.Row{"period_intent": "2024-06-01"},
	)
	res := run(t, "period_gap", map[string]any{"column": "period_intent", "max_gap_months": 1.5}, ds)
	assert.Equal(t, domain.CheckFail, res.Status)
	assert.InDelta(t, 4.03, res.Details["max_gap_months"].(float64), 0.01)

	res = run(t, "period_gap", map[string]any{"column": "period_intent", "max_gap_months": 5.0}, ds)
	assert.Equal(t, domain.CheckPass, res.Status)
}

func TestFiscalClosePresent(t *testing.T) {
	closed := mk([]string{"period_intent"},
		domain.Row{"period_intent": "2024-10"},
		domain.Row{"period_intent": "2024-11"},
		domain.Row{"period_intent": "2024-12"},
	)
	res := run(t, "fiscal_close_present", map[string]any{"period_column": "period_intent"}, closed)
	assert.Equal(t, domain.CheckPass, res.Status)

	open := mk([]string{"period_intent"},
		domain.Row{"period_intent": "2024-05"},
		domain.Row{"period_intent": "2024-06"},
	)
	res = run(t, "fiscal_close_present", map[string]any{"period_column": "period_intent"}, open)
	assert.Equal(t, domain.CheckFail, res.Status)
	assert.Equal(t, []int{5, 6}, res.Details["months_present"])
}

func TestPeriodAlignment(t *testing.T) {
	ds := mk([]string{"booked", "invoiced"},
		domain.Row{"booked": "2024-01-01", "invoiced": "2024-01-01"},
		domain.Row{"booked": "2024-02-01", "invoiced": "2024-02-01"},
	)
	res := run(t, "period_alignment", map[string]any{"columns": []any{"booked", "invoiced"}}, ds)
	assert.Equal(t, domain.CheckPass, res.Status)
	assert.Equal(t, 2, res.Details["common_periods"])

	skewed := mk([]string{"booked", "invoiced"},
		domain.Row{"booked": "2024-01-01", "invoiced": "2024-01-01"},
		domain.Row{"booked": "2024-02-01", "invoiced": "2024-03-01"},
	)
	res = run(t, "period_alignment", map[string]any{"columns": []any{"booked", "invoiced"}}, skewed)
	assert.Equal(t, domain.CheckFail, res.Status)
}
