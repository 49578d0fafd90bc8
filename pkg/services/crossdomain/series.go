package crossdomain

import (
	"math"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// floats coerces a column to a float series; missing or unconvertible cells
// become NaN.
func floats(ds domain.Dataset, col string) []float64 {
	out := make([]float64, ds.NumRows())
	for i, row := range ds.Rows {
		if f, ok := domain.Float(row[col]); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func fillNaN(x []float64, v float64) []float64 {
	out := make([]float64, len(x))
	for i, f := range x {
		if math.IsNaN(f) {
			out[i] = v
		} else {
			out[i] = f
		}
	}
	return out
}

// ffill carries the last seen value forward; leading NaNs stay NaN.
func ffill(x []float64) []float64 {
	out := make([]float64, len(x))
	prev := math.NaN()
	for i, f := range x {
		if !math.IsNaN(f) {
			prev = f
		}
		out[i] = prev
	}
	return out
}

// zeroToNaN masks zeros so downstream ratios skip them instead of exploding.
func zeroToNaN(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, f := range x {
		if f == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = f
		}
	}
	return out
}

// padTo truncates or zero-extends a series to length n. Existing NaN cells
// are kept; only the extension fills with zero.
func padTo(x []float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i < len(x) {
			out[i] = x[i]
		}
	}
	return out
}

// pctChange is the period over period relative change with the forgiving
// semantics time-aligned heuristics need: gaps are forward filled and any
// undefined change (first period, division by zero, leading NaN) counts as
// zero, never as a spike.
func pctChange(x []float64) []float64 {
	out := make([]float64, len(x))
	prev := math.NaN()
	for i, v := range x {
		cur := v
		if math.IsNaN(cur) {
			cur = prev
		}
		if i == 0 || math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			out[i] = 0
		} else {
			out[i] = cur/prev - 1
		}
		prev = cur
	}
	return out
}

// growth flags the periods whose relative change breaches the up or down
// sensitivity.
func growth(x []float64, up, down float64) (ups, downs []bool) {
	p := pctChange(x)
	ups = make([]bool, len(p))
	downs = make([]bool, len(p))
	for i, v := range p {
		ups[i] = v > up
		downs[i] = v < down
	}
	return ups, downs
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// coincident counts the periods where every flag series is true at once,
// over the window all of them cover.
func coincident(flags ...[]bool) int {
	if len(flags) == 0 {
		return 0
	}
	n := len(flags[0])
	for _, f := range flags[1:] {
		if len(f) < n {
			n = len(f)
		}
	}
	count := 0
	for i := 0; i < n; i++ {
		all := true
		for _, f := range flags {
			if !f[i] {
				all = false
				break
			}
		}
		if all {
			count++
		}
	}
	return count
}

// sumValid sums the non-NaN values; ok is false when nothing was numeric.
func sumValid(x []float64) (float64, bool) {
	sum := 0.0
	any := false
	for _, v := range x {
		if !math.IsNaN(v) {
			sum += v
			any = true
		}
	}
	return sum, any
}

func meanValid(x []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range x {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func allNaN(x []float64) bool {
	for _, v := range x {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// pairCorr is the Pearson correlation over pairwise valid points; NaN when
// fewer than two pairs remain or either side is constant.
func pairCorr(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var xs, ys []float64
	for i := 0; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	mx, my := meanValid(xs), meanValid(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}
