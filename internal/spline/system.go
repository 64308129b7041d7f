// Package spline implements the mass-preserving (equal-area) quadratic
// smoothing spline of Bishop, McBratney & Laslett (1999) for depth
// harmonization of piecewise-constant profile data.
//
// The fit is split in two: a System is the depth-configuration-dependent
// part (roughness penalty, continuity structure, factorized solve matrix)
// and is a pure function of (boundary depths, lambda), so it can be cached
// and reused across every property and profile sharing that configuration.
// A Fit is the per-property solution obtained by solving the System against
// one property's interval values.
package spline

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSingular reports a singular or ill-conditioned linear system,
	// typically caused by degenerate (zero-thickness) intervals.
	ErrSingular = errors.New("spline: singular or ill-conditioned system")

	// ErrInvalidBounds reports boundary depths that cannot form a system:
	// wrong lengths, unordered tops, or overlapping intervals.
	ErrInvalidBounds = errors.New("spline: invalid boundary depths")
)

// condLimit is the condition-number ceiling above which a factorized
// system is rejected rather than solved.
const condLimit = 1e12

// System holds the factorized linear system for one depth configuration.
// It never sees property values and is immutable once built.
type System struct {
	tops    []float64
	bottoms []float64
	thick   []float64 // per-interval thickness
	gaps    []float64 // inter-interval gaps, zero when contiguous
	lambda  float64
	n       int

	lu    *mat.LU    // factorization of Z = I + 6*n*lambda * Qt R^-1 Q
	rinvq *mat.Dense // R^-1 Q, reused for the curvature back-substitution
}

// Build assembles and factorizes the spline system for the given ordered
// interval boundaries and smoothing parameter. Boundaries may contain gaps
// (tops[i+1] > bottoms[i]); the roughness terms generalize to them. Lambda
// trades fidelity against smoothness: small values approach exact
// interpolation of the interval means, large values smooth harder.
func Build(tops, bottoms []float64, lambda float64) (*System, error) {
	n := len(tops)
	switch {
	case n != len(bottoms):
		return nil, fmt.Errorf("%w: %d tops vs %d bottoms", ErrInvalidBounds, n, len(bottoms))
	case n < 2:
		return nil, fmt.Errorf("%w: need at least 2 intervals, got %d", ErrInvalidBounds, n)
	case lambda < 0:
		return nil, fmt.Errorf("%w: negative lambda %v", ErrInvalidBounds, lambda)
	}

	thick := make([]float64, n)
	for i := range tops {
		thick[i] = bottoms[i] - tops[i]
		if thick[i] <= 0 {
			return nil, fmt.Errorf("%w: interval %d has thickness %v", ErrSingular, i, thick[i])
		}
	}
	gaps := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		gaps[i] = tops[i+1] - bottoms[i]
		if gaps[i] < 0 {
			return nil, fmt.Errorf("%w: intervals %d and %d overlap by %v", ErrInvalidBounds, i, i+1, -gaps[i])
		}
	}

	nb := n - 1

	// Roughness penalty matrix R: diagonal combines the thicknesses of the
	// two intervals meeting at each interior boundary plus the gap term,
	// off-diagonals encode adjacency.
	r := mat.NewDense(nb, nb, nil)
	for i := 0; i < nb; i++ {
		r.Set(i, i, 2*(thick[i]+thick[i+1])+6*gaps[i])
	}
	for i := 0; i < nb-1; i++ {
		r.Set(i, i+1, thick[i+1])
		r.Set(i+1, i, thick[i+1])
	}

	// Continuity/design matrix Q: one row per interior boundary, differencing
	// the fitted means of the intervals on either side.
	q := mat.NewDense(nb, n, nil)
	for i := 0; i < nb; i++ {
		q.Set(i, i, -1)
		q.Set(i, i+1, 1)
	}

	var rinv mat.Dense
	if err := rinv.Inverse(r); err != nil {
		return nil, fmt.Errorf("%w: roughness matrix: %v", ErrSingular, err)
	}

	var rinvq mat.Dense
	rinvq.Mul(&rinv, q)

	// Z = I + 6*n*lambda * Qt R^-1 Q
	var qtrq mat.Dense
	qtrq.Mul(q.T(), &rinvq)
	z := mat.NewDense(n, n, nil)
	z.Scale(6*float64(n)*lambda, &qtrq)
	for i := 0; i < n; i++ {
		z.Set(i, i, z.At(i, i)+1)
	}

	lu := &mat.LU{}
	lu.Factorize(z)
	if c := lu.Cond(); math.IsNaN(c) || c > condLimit {
		return nil, fmt.Errorf("%w: fidelity matrix condition %.3g", ErrSingular, c)
	}

	return &System{
		tops:    append([]float64(nil), tops...),
		bottoms: append([]float64(nil), bottoms...),
		thick:   thick,
		gaps:    gaps,
		lambda:  lambda,
		n:       n,
		lu:      lu,
		rinvq:   &rinvq,
	}, nil
}

// N returns the number of intervals the system was built over.
func (s *System) N() int { return s.n }

// Lambda returns the smoothing parameter the system was built with.
func (s *System) Lambda() float64 { return s.lambda }

// Bounds returns copies of the interval boundaries.
func (s *System) Bounds() (tops, bottoms []float64) {
	return append([]float64(nil), s.tops...), append([]float64(nil), s.bottoms...)
}

// Solve fits the spline against one property's per-interval values and
// returns the piecewise-quadratic coefficients. The same System can be
// solved against any number of value vectors; solving is deterministic.
func (s *System) Solve(values []float64) (*Fit, error) {
	if len(values) != s.n {
		return nil, fmt.Errorf("%w: %d values for %d intervals", ErrInvalidBounds, len(values), s.n)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite value %v at interval %d", ErrInvalidBounds, v, i)
		}
	}

	v := mat.NewVecDense(s.n, append([]float64(nil), values...))
	var sbar mat.VecDense
	if err := s.lu.SolveVecTo(&sbar, false, v); err != nil {
		return nil, fmt.Errorf("%w: solve: %v", ErrSingular, err)
	}

	// Curvatures at interior boundaries: b = 6 * R^-1 Q * sbar.
	var b mat.VecDense
	b.MulVec(s.rinvq, &sbar)
	b.ScaleVec(6, &b)

	n := s.n
	b0 := make([]float64, n) // first-derivative at each interval top
	b1 := make([]float64, n) // first-derivative at each interval bottom
	for i := 0; i < n-1; i++ {
		b0[i+1] = b.AtVec(i)
		b1[i] = b.AtVec(i)
	}

	sb := make([]float64, n)
	gamma := make([]float64, n)
	alfa := make([]float64, n)
	for i := 0; i < n; i++ {
		sb[i] = sbar.AtVec(i)
		gamma[i] = (b1[i] - b0[i]) / (2 * s.thick[i])
		// Constant term chosen so the piece's mean over its interval is
		// exactly sbar[i]; this is what makes the spline equal-area.
		alfa[i] = sb[i] - b0[i]*s.thick[i]/2 - gamma[i]*s.thick[i]*s.thick[i]/3
	}

	return &Fit{
		sys:   s,
		SBar:  sb,
		B0:    b0,
		B1:    b1,
		Gamma: gamma,
		Alfa:  alfa,
	}, nil
}
