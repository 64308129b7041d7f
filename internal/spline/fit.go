package spline

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Fit is the solved spline for one property over one depth configuration.
// Piece i is Alfa[i] + B0[i]*x + Gamma[i]*x^2 for x in [0, thickness(i)],
// with x measured from the top of interval i.
type Fit struct {
	sys *System

	SBar  []float64 // fitted interval means (knot values)
	B0    []float64
	B1    []float64
	Gamma []float64
	Alfa  []float64
}

// Domain returns the depth span the fit is defined over.
func (f *Fit) Domain() (top, bottom float64) {
	return f.sys.tops[0], f.sys.bottoms[f.sys.n-1]
}

// PredictCM evaluates the fitted function at every whole-centimeter depth
// from zero to the deepest boundary inclusive. Depths above the shallowest
// boundary are NaN (no extrapolation). Every finite value is clipped into
// [vlow, vhigh] after evaluation.
func (f *Fit) PredictCM(vlow, vhigh float64) []float64 {
	n := f.sys.n
	maxCM := int(math.Round(f.sys.bottoms[n-1]))
	est := make([]float64, maxCM+1)
	for d := range est {
		est[d] = math.NaN()
	}

	h := 0
	for d := 0; d <= maxCM; d++ {
		depth := float64(d)
		if depth < f.sys.tops[0] {
			continue
		}
		for h < n-1 && depth >= f.sys.tops[h+1] {
			h++
		}
		switch {
		case depth < f.sys.bottoms[h]:
			x := depth - f.sys.tops[h]
			est[d] = f.Alfa[h] + f.B0[h]*x + f.Gamma[h]*x*x
		case h == n-1:
			// The deepest boundary itself: evaluate the last piece at its
			// bottom edge.
			x := f.sys.thick[h]
			est[d] = f.Alfa[h] + f.B0[h]*x + f.Gamma[h]*x*x
		default:
			// Inside a gap between intervals h and h+1: continue linearly
			// with the exit slope of piece h, anchored so the line meets
			// piece h+1 at its top.
			phi := f.Alfa[h+1] - f.B1[h]*(f.sys.tops[h+1]-f.sys.bottoms[h])
			est[d] = phi + f.B1[h]*(depth-f.sys.bottoms[h])
		}
	}

	for d, v := range est {
		if math.IsNaN(v) {
			continue
		}
		if v < vlow {
			est[d] = vlow
		} else if v > vhigh {
			est[d] = vhigh
		}
	}
	return est
}

// IntervalMeans integrates each quadratic piece over its own interval and
// divides by the thickness. By the equal-area construction these reproduce
// the fitted knot values to rounding error; surfacing them through the icm
// output mode is the usable mass-preservation check.
func (f *Fit) IntervalMeans() []float64 {
	means := make([]float64, f.sys.n)
	for i := 0; i < f.sys.n; i++ {
		th := f.sys.thick[i]
		means[i] = f.Alfa[i] + f.B0[i]*th/2 + f.Gamma[i]*th*th/3
	}
	return means
}

// RMSE reports the root-mean-square deviation of the fitted interval means
// from the observed values, plus the same scaled by the interquartile range
// of the observations. The second value is NaN when the IQR is zero.
func (f *Fit) RMSE(values []float64) (rmse, rmseIQR float64) {
	var sum float64
	clean := make([]float64, 0, len(values))
	for i, v := range values {
		if i >= len(f.SBar) || math.IsNaN(v) || math.IsNaN(f.SBar[i]) {
			continue
		}
		d := v - f.SBar[i]
		sum += d * d
		clean = append(clean, v)
	}
	if len(clean) == 0 {
		return math.NaN(), math.NaN()
	}
	rmse = math.Sqrt(sum / float64(len(clean)))

	sort.Float64s(clean)
	iqr := stat.Quantile(0.75, stat.LinInterp, clean, nil) - stat.Quantile(0.25, stat.LinInterp, clean, nil)
	if iqr > 0 {
		return rmse, rmse / iqr
	}
	return rmse, math.NaN()
}
