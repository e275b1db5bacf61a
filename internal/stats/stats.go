// Package stats provides the small set of descriptive statistics the cleaner
// and the report need. All functions ignore NaN inputs.
package stats

import (
	"math"
	"slices"
)

// finite returns a sorted copy of xs without NaN values.
func finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	slices.Sort(out)
	return out
}

// Median returns the median of xs. ok is false when xs holds no values.
func Median(xs []float64) (float64, bool) {
	return Quantile(xs, 0.5)
}

// Quantile returns the q-th quantile (0 <= q <= 1) using linear interpolation
// between the closest ranks.
func Quantile(xs []float64, q float64) (float64, bool) {
	s := finite(xs)
	if len(s) == 0 || q < 0 || q > 1 {
		return 0, false
	}
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo], true
	}
	frac := pos - float64(lo)
	return s[lo] + (s[hi]-s[lo])*frac, true
}

// Mean returns the arithmetic mean of xs.
func Mean(xs []float64) (float64, bool) {
	var sum float64
	var n int
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// StdDev returns the sample standard deviation (n-1 denominator).
func StdDev(xs []float64) (float64, bool) {
	mean, ok := Mean(xs)
	if !ok {
		return 0, false
	}
	var ss float64
	var n int
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		d := x - mean
		ss += d * d
		n++
	}
	if n < 2 {
		return 0, false
	}
	return math.Sqrt(ss / float64(n-1)), true
}

// Pearson returns the correlation coefficient of xs and ys over the pairs
// where both values are present. ok is false for fewer than two pairs or a
// constant series.
func Pearson(xs, ys []float64) (float64, bool) {
	n := min(len(xs), len(ys))
	var px, py []float64
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, ys[i])
	}
	if len(px) < 2 {
		return 0, false
	}
	mx, _ := Mean(px)
	my, _ := Mean(py)
	var sxy, sxx, syy float64
	for i := range px {
		dx := px[i] - mx
		dy := py[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}

// FiveNumber is a box-plot summary.
type FiveNumber struct {
	Min    float64 `json:"min" yaml:"min"`
	Q1     float64 `json:"q1" yaml:"q1"`
	Median float64 `json:"median" yaml:"median"`
	Q3     float64 `json:"q3" yaml:"q3"`
	Max    float64 `json:"max" yaml:"max"`
	Count  int     `json:"count" yaml:"count"`
}

// Summarize computes the five-number summary of xs.
func Summarize(xs []float64) (FiveNumber, bool) {
	s := finite(xs)
	if len(s) == 0 {
		return FiveNumber{}, false
	}
	q1, _ := Quantile(s, 0.25)
	med, _ := Quantile(s, 0.5)
	q3, _ := Quantile(s, 0.75)
	return FiveNumber{
		Min:    s[0],
		Q1:     q1,
		Median: med,
		Q3:     q3,
		Max:    s[len(s)-1],
		Count:  len(s),
	}, true
}
