package harmonize

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"mpspline/internal/profile"
	"mpspline/internal/spline"
	"mpspline/internal/syscache"
)

// HarmonizeOne harmonizes a single profile record. Structural validation
// failures are returned as a *profile.ValidationError; per-property numeric
// failures abort when opts.Strict is set and are recorded on
// Result.Failures otherwise.
func HarmonizeOne(ctx context.Context, raw map[string]any, opts Options) (*Result, error) {
	o, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	cache := syscache.New(o.CacheSize)
	res, fails, err := harmonizeProfile(ctx, raw, o, cache)
	if err != nil {
		return nil, err
	}
	res.Failures = fails
	return res, nil
}

// harmonizeProfile runs the full pipeline for one profile against the given
// cache. The returned error is either a structural validation failure or,
// under strict mode, the first numeric failure; lenient numeric failures
// come back in the failure slice instead.
func harmonizeProfile(ctx context.Context, raw map[string]any, o Options, cache *syscache.Cache) (*Result, []Failure, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	p, err := profile.ParseProfile(raw)
	if err != nil {
		return nil, nil, &profile.ValidationError{ProfileID: "(unknown)", Errors: []string{err.Error()}}
	}

	seq, val := profile.BuildSequence(p.Horizons, o.MinHorizons)
	if !val.Valid() {
		return nil, nil, &profile.ValidationError{ProfileID: p.ID, Errors: val.Errors}
	}
	for _, w := range val.Warnings {
		o.Logger.Warn("horizon sequence", zap.String("profile", p.ID), zap.String("warning", w))
	}

	props := seq.Properties
	if o.Properties != nil {
		props = props[:0:0]
		known := map[string]bool{}
		for _, sp := range seq.Properties {
			known[sp] = true
		}
		for _, want := range o.Properties {
			if known[want] {
				props = append(props, want)
			}
		}
	}

	res := &Result{ID: p.ID, Meta: p.Meta}
	var fails []Failure

	for _, prop := range props {
		pf, err := fitProperty(seq, prop, o, cache)
		if err != nil {
			if o.Strict {
				return nil, nil, fmt.Errorf("profile %s property %s: %w", p.ID, prop, err)
			}
			o.Logger.Warn("property fit failed",
				zap.String("profile", p.ID),
				zap.String("property", prop),
				zap.Error(err))
			fails = append(fails, Failure{ProfileID: p.ID, Property: prop, Stage: StageNumeric, Err: err})
			continue
		}
		if pf.diag != nil {
			if res.Diagnostics == nil {
				res.Diagnostics = map[string]FitDiag{}
			}
			res.Diagnostics[prop] = *pf.diag
		}
		assemble(res, o, prop, pf)
	}

	return res, fails, nil
}

// propFit is the numeric outcome for one property: the per-centimeter
// prediction array plus the fitted means over the property's own input
// intervals. Both are nil when the property had no usable observations.
type propFit struct {
	est       []float64
	icmTops   []float64
	icmBottom []float64
	icmValues []float64
	diag      *FitDiag
}

// fitProperty extracts the property's depth/value series, obtains the
// spline system (via the cache) and solves it. A property carried by fewer
// than two horizons never reaches the solver: zero observations yield an
// empty fit, a single observation yields a constant over its own span only.
func fitProperty(seq *profile.Sequence, prop string, o Options, cache *syscache.Cache) (*propFit, error) {
	tops, bottoms, values := seq.PropertyData(prop)

	switch len(values) {
	case 0:
		return &propFit{}, nil
	case 1:
		return constantFit(tops[0], bottoms[0], clamp(values[0], o.VLow, o.VHigh)), nil
	}

	sys, _, err := cache.GetOrBuild(tops, bottoms, o.Lambda, func() (*spline.System, error) {
		return spline.Build(tops, bottoms, o.Lambda)
	})
	if err != nil {
		return nil, err
	}

	fit, err := sys.Solve(values)
	if err != nil {
		return nil, err
	}

	rmse, rmseIQR := fit.RMSE(values)
	return &propFit{
		est:       fit.PredictCM(o.VLow, o.VHigh),
		icmTops:   tops,
		icmBottom: bottoms,
		icmValues: fit.IntervalMeans(),
		diag:      &FitDiag{RMSE: rmse, RMSEIQR: rmseIQR},
	}, nil
}

// constantFit covers the single-observation case: the value holds inside
// the observed span and nowhere else. No extrapolation.
func constantFit(top, bottom, value float64) *propFit {
	maxCM := int(math.Round(bottom))
	est := make([]float64, maxCM+1)
	for d := range est {
		if float64(d) < top {
			est[d] = math.NaN()
		} else {
			est[d] = value
		}
	}
	return &propFit{
		est:       est,
		icmTops:   []float64{top},
		icmBottom: []float64{bottom},
		icmValues: []float64{value},
	}
}

// assemble reduces one property's fit to the requested resolution mode and
// appends it to the result.
func assemble(res *Result, o Options, prop string, pf *propFit) {
	switch o.Mode {
	case Mode1CM:
		if pf.est == nil {
			return
		}
		for d, v := range spline.Centimeters(pf.est) {
			res.add(o.Shape, o.Mode, prop, float64(d), float64(d+1), v)
		}
	case ModeICM:
		for i, v := range pf.icmValues {
			res.add(o.Shape, o.Mode, prop, pf.icmTops[i], pf.icmBottom[i], spline.Value{V: v})
		}
	default: // ModeDCM
		for i, v := range spline.AverageIntervals(pf.est, o.TargetDepths) {
			t := o.TargetDepths[i]
			res.add(o.Shape, o.Mode, prop, float64(t.Top), float64(t.Bottom), v)
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
