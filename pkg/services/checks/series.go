package checks

import (
	"fmt"
	"math"
	"sort"

	"github.com/signal-works/pulse/pkg/models/domain"
)

const eps = 1e-9

// strictFloats converts a column to float64. Nil cells become NaN; an absent
// column or a cell that cannot convert is an error the dispatcher turns into
// a degraded warn.
func strictFloats(ds *domain.Dataset, col string) ([]float64, error) {
	if !ds.HasColumn(col) {
		return nil, fmt.Errorf("column %q not found", col)
	}
	out := make([]float64, ds.NumRows())
	for i, r := range ds.Rows {
		v := r[col]
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		f, ok := domain.Float(v)
		if !ok {
			return nil, fmt.Errorf("column %q: value %v is not numeric", col, v)
		}
		out[i] = f
	}
	return out, nil
}

// coerceFloats converts a column to float64 with NaN for anything that does
// not parse.
func coerceFloats(ds *domain.Dataset, col string) []float64 {
	out := make([]float64, ds.NumRows())
	for i, r := range ds.Rows {
		if f, ok := domain.Float(r[col]); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func countValid(xs []float64) int {
	n := 0
	for _, x := range xs {
		if !math.IsNaN(x) {
			n++
		}
	}
	return n
}

// mean skips NaN values; an all-NaN series means NaN.
func mean(xs []float64) float64 {
	var sum float64
	n := 0
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// stdPop is the population standard deviation over non-NaN values.
func stdPop(xs []float64) float64 {
	m := mean(xs)
	if math.IsNaN(m) {
		return math.NaN()
	}
	var sum float64
	n := 0
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		d := x - m
		sum += d * d
		n++
	}
	return math.Sqrt(sum / float64(n))
}

func variancePop(xs []float64) float64 {
	s := stdPop(xs)
	return s * s
}

// median skips NaN values.
func median(xs []float64) float64 {
	var vals []float64
	for _, x := range xs {
		if !math.IsNaN(x) {
			vals = append(vals, x)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}

func maxValid(xs []float64) float64 {
	out := math.NaN()
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if math.IsNaN(out) || x > out {
			out = x
		}
	}
	return out
}

func minValid(xs []float64) float64 {
	out := math.NaN()
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if math.IsNaN(out) || x < out {
			out = x
		}
	}
	return out
}

// diff is the first difference; the leading element is NaN.
func diff(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i] - xs[i-1]
	}
	return out
}

// safeDiv substitutes a tiny epsilon for near-zero denominators instead of
// blowing up.
func safeDiv(a, b float64) float64 {
	if math.Abs(b) < eps {
		b = eps
	}
	return a / b
}

// fillZero replaces NaN with zero; correlation inputs use it.
func fillZero(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) {
			out[i] = 0
		} else {
			out[i] = x
		}
	}
	return out
}

// pearson computes the correlation coefficient over two equal length series.
func pearson(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return math.NaN()
	}
	ma, mb := mean(a), mean(b)
	var cov, va, vb float64
	for i := 0; i < n; i++ {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(va*vb)
}

// rollingMean computes the trailing window mean over non-NaN values; windows
// with fewer than minPeriods valid values yield NaN.
func rollingMean(xs []float64, window, minPeriods int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		var sum float64
		n := 0
		for j := start; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				continue
			}
			sum += xs[j]
			n++
		}
		if n < minPeriods || n == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// slope fits y against 0..n-1 by least squares.
func slope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}
	xm := float64(n-1) / 2
	ym := mean(ys)
	var num, den float64
	for i, y := range ys {
		if math.IsNaN(y) {
			continue
		}
		dx := float64(i) - xm
		num += dx * (y - ym)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// group is one slice of rows sharing a key.
type group struct {
	key  string
	rows []int
}

// groupRows splits rows by a column value, keys sorted for deterministic
// details. An empty or absent column yields the single group "all", matching
// how optional group_by params behave.
func groupRows(ds *domain.Dataset, by string) []group {
	if by == "" || !ds.HasColumn(by) {
		all := make([]int, ds.NumRows())
		for i := range all {
			all[i] = i
		}
		return []group{{key: "all", rows: all}}
	}
	byKey := make(map[string][]int)
	for i, r := range ds.Rows {
		k := domain.String(r[by])
		byKey[k] = append(byKey[k], i)
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]group, 0, len(keys))
	for _, k := range keys {
		out = append(out, group{key: k, rows: byKey[k]})
	}
	return out
}

// pick extracts the values at the given row indexes.
func pick(xs []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = xs[r]
	}
	return out
}

// worst folds grouped statuses: fail < warn < pass.
func worst(a, b domain.CheckStatus) domain.CheckStatus {
	rank := func(s domain.CheckStatus) int {
		switch s {
		case domain.CheckFail:
			return 0
		case domain.CheckWarn:
			return 1
		default:
			return 2
		}
	}
	if rank(a) < rank(b) {
		return a
	}
	return b
}
