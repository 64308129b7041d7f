package spline

import "math"

// Interval is a target output depth band [Top, Bottom) in whole centimeters.
type Interval struct {
	Top    int
	Bottom int
}

// Value is one aggregated output. Missing marks a requested interval that
// lies outside the predicted domain or has no finite predictions; that is a
// designed outcome of the no-extrapolation rule, never an error.
type Value struct {
	V       float64
	Missing bool
}

var missing = Value{V: math.NaN(), Missing: true}

// AverageIntervals reduces a per-centimeter prediction array to the mean
// over each target interval. The array is indexed by depth; its final entry
// is the deepest-boundary sample and does not represent a centimeter slab,
// so averaging stops one short of it. The input is never mutated.
func AverageIntervals(est []float64, targets []Interval) []Value {
	out := make([]Value, len(targets))
	slabs := len(est) - 1
	for t, target := range targets {
		if target.Top < 0 || target.Bottom <= target.Top || target.Top >= slabs {
			out[t] = missing
			continue
		}
		end := target.Bottom
		if end > slabs {
			end = slabs
		}
		var sum float64
		var count int
		for d := target.Top; d < end; d++ {
			if math.IsNaN(est[d]) {
				continue
			}
			sum += est[d]
			count++
		}
		if count == 0 {
			out[t] = missing
			continue
		}
		out[t] = Value{V: sum / float64(count)}
	}
	return out
}

// Centimeters passes the per-centimeter predictions through as output
// values, marking NaN entries missing.
func Centimeters(est []float64) []Value {
	out := make([]Value, len(est))
	for d, v := range est {
		if math.IsNaN(v) {
			out[d] = missing
		} else {
			out[d] = Value{V: v}
		}
	}
	return out
}
