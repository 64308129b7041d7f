package harmonize

import (
	"fmt"
	"math"

	"mpspline/internal/spline"
)

// Record is one long-form output row: the interval average of one property
// over one depth band. Missing marks intervals outside the profile's
// predicted domain; it is a designed outcome, not an error.
type Record struct {
	Property string  `json:"property"`
	Top      float64 `json:"top"`
	Bottom   float64 `json:"bottom"`
	Value    float64 `json:"value"`
	Missing  bool    `json:"missing,omitempty"`
}

// FitDiag carries per-property fit diagnostics. RMSEIQR is NaN when the
// value spread has no interquartile range.
type FitDiag struct {
	RMSE    float64
	RMSEIQR float64
}

// Result is the harmonized output for one profile in one output mode. Meta
// passes through from the input untouched. Records is populated for the
// long shape, Columns for the wide shape (nil entries are missing values).
type Result struct {
	ID          string
	Meta        map[string]any
	Records     []Record
	Columns     map[string]*float64
	Diagnostics map[string]FitDiag
	Failures    []Failure
}

// Failure identifies one rejected profile or property.
type Failure struct {
	ProfileID string
	Property  string // empty for profile-level failures
	Stage     string // StageValidation or StageNumeric
	Err       error
}

// Failure stages.
const (
	StageValidation = "validation"
	StageNumeric    = "numeric"
)

func (f Failure) String() string {
	if f.Property == "" {
		return fmt.Sprintf("profile %s: %s: %v", f.ProfileID, f.Stage, f.Err)
	}
	return fmt.Sprintf("profile %s property %s: %s: %v", f.ProfileID, f.Property, f.Stage, f.Err)
}

// BatchResult is the assembled output of HarmonizeMany. Results holds one
// entry per successfully harmonized profile, in input order regardless of
// worker scheduling; Failures records everything skipped in lenient mode.
type BatchResult struct {
	Results  []*Result
	Failures []Failure
}

// add appends one aggregated value to the result in the configured shape.
// Wide 1cm columns are named prop_<d>cm, everything else prop_<top>_<bottom>.
func (r *Result) add(shape Shape, mode Mode, prop string, top, bottom float64, v spline.Value) {
	switch shape {
	case ShapeWide:
		var key string
		if mode == Mode1CM {
			key = fmt.Sprintf("%s_%dcm", prop, int(math.Round(top)))
		} else {
			key = fmt.Sprintf("%s_%d_%d", prop, int(math.Round(top)), int(math.Round(bottom)))
		}
		if r.Columns == nil {
			r.Columns = map[string]*float64{}
		}
		if v.Missing {
			r.Columns[key] = nil
		} else {
			val := v.V
			r.Columns[key] = &val
		}
	default:
		rec := Record{Property: prop, Top: top, Bottom: bottom, Value: v.V, Missing: v.Missing}
		if v.Missing {
			rec.Value = 0
		}
		r.Records = append(r.Records, rec)
	}
}
