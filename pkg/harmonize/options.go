// Package harmonize drives the mass-preserving spline engine across one or
// many soil profiles: validation gating, per-property fitting through a
// memoizing system cache, aggregation to the requested output resolution,
// and strict/lenient batch orchestration with optional parallel fan-out.
package harmonize

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"mpspline/internal/spline"
)

// Mode selects the output depth resolution.
type Mode string

const (
	// ModeDCM averages predictions over the target depth intervals.
	ModeDCM Mode = "dcm"
	// Mode1CM emits one value per whole centimeter of predicted depth.
	Mode1CM Mode = "1cm"
	// ModeICM averages over the profile's own input intervals; because the
	// spline is equal-area this reproduces the fitted interval values and
	// doubles as the mass-preservation check.
	ModeICM Mode = "icm"
)

// Shape selects the assembled output layout.
type Shape string

const (
	// ShapeLong emits one record per property per interval.
	ShapeLong Shape = "long"
	// ShapeWide flattens to one column per property/interval combination.
	ShapeWide Shape = "wide"
)

// Options is the complete, explicit configuration of a harmonization call.
// Start from DefaultOptions; a zero Options carries lambda 0 (exact
// interpolation of interval means) rather than the documented default.
type Options struct {
	// Properties to harmonize; nil means every numeric property found.
	Properties []string

	// TargetDepths are the dcm output bands; nil means the GlobalSoilMap
	// standard 0-200 cm bands.
	TargetDepths []spline.Interval

	// Lambda is the smoothing parameter. Zero is valid and yields exact
	// interpolation of the interval means.
	Lambda float64

	// VLow and VHigh clip every per-centimeter prediction. Leaving both at
	// zero selects the documented defaults 0 and 1000.
	VLow  float64
	VHigh float64

	Mode  Mode
	Shape Shape

	// Strict aborts on the first structural or numeric failure; lenient
	// (default) records failures and continues with the rest of the batch.
	Strict bool

	// MinHorizons is the minimum layer count per profile (default 2).
	MinHorizons int

	// CacheSize bounds each worker's system cache (default 1000).
	CacheSize int

	// Parallel enables the worker pool; Workers defaults to GOMAXPROCS and
	// BatchSize (default 100) sets how many profiles each task carries.
	Parallel  bool
	Workers   int
	BatchSize int

	// Logger receives progress and warning logs; nil means no logging.
	Logger *zap.Logger
}

// DefaultOptions returns the documented defaults: GlobalSoilMap bands,
// lambda 0.1, clip range [0, 1000], lenient mode, long shape.
func DefaultOptions() Options {
	return Options{
		TargetDepths: spline.GlobalSoilMapDepths,
		Lambda:       spline.DefaultLambda,
		VLow:         spline.DefaultVLow,
		VHigh:        spline.DefaultVHigh,
		Mode:         ModeDCM,
		Shape:        ShapeLong,
		MinHorizons:  spline.DefaultMinHorizons,
		CacheSize:    spline.DefaultCacheSize,
		BatchSize:    100,
	}
}

// normalized fills unset fields with defaults and rejects inconsistent
// combinations.
func (o Options) normalized() (Options, error) {
	if o.Mode == "" {
		o.Mode = ModeDCM
	}
	if o.Shape == "" {
		o.Shape = ShapeLong
	}
	switch o.Mode {
	case ModeDCM, Mode1CM, ModeICM:
	default:
		return o, fmt.Errorf("harmonize: unknown mode %q", o.Mode)
	}
	switch o.Shape {
	case ShapeLong, ShapeWide:
	default:
		return o, fmt.Errorf("harmonize: unknown shape %q", o.Shape)
	}

	if o.Lambda < 0 {
		return o, fmt.Errorf("harmonize: negative lambda %v", o.Lambda)
	}
	if o.VLow == 0 && o.VHigh == 0 {
		o.VLow, o.VHigh = spline.DefaultVLow, spline.DefaultVHigh
	}
	if o.VLow > o.VHigh {
		return o, fmt.Errorf("harmonize: vlow %v exceeds vhigh %v", o.VLow, o.VHigh)
	}

	if o.TargetDepths == nil {
		o.TargetDepths = spline.GlobalSoilMapDepths
	}
	for _, t := range o.TargetDepths {
		if t.Top < 0 || t.Bottom <= t.Top {
			return o, fmt.Errorf("harmonize: invalid target interval %d-%d", t.Top, t.Bottom)
		}
	}

	if o.MinHorizons <= 0 {
		o.MinHorizons = spline.DefaultMinHorizons
	}
	if o.CacheSize <= 0 {
		o.CacheSize = spline.DefaultCacheSize
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o, nil
}
