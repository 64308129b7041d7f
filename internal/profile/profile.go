// Package profile models one soil profile's horizon records: input-shape
// normalization (depth-field synonyms, horizon names), classification of
// numeric properties, and validation into an immutable Sequence that the
// numeric stages can trust.
package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// Profile is one raw profile record: a horizons list plus arbitrary
// pass-through metadata. Metadata is never touched by harmonization.
type Profile struct {
	ID       string
	Meta     map[string]any
	Horizons []map[string]any
}

// idKeys are checked in order when extracting a profile identity from
// metadata. Results are keyed by this identity, so a profile without any of
// them is assigned a fresh UUID.
var idKeys = []string{"id", "cokey", "sid", "pid", "profile_id"}

// ParseProfile splits a raw profile record into its horizons list and
// pass-through metadata. The record must carry a list-valued "horizons"
// entry; everything else is metadata.
func ParseProfile(raw map[string]any) (*Profile, error) {
	hv, ok := raw["horizons"]
	if !ok {
		return nil, fmt.Errorf("profile record has no horizons entry")
	}

	var horizons []map[string]any
	switch list := hv.(type) {
	case []map[string]any:
		horizons = list
	case []any:
		horizons = make([]map[string]any, 0, len(list))
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("horizon %d is %T, want object", i, item)
			}
			horizons = append(horizons, m)
		}
	default:
		return nil, fmt.Errorf("horizons entry is %T, want list", hv)
	}

	meta := make(map[string]any, len(raw)-1)
	for k, v := range raw {
		if k != "horizons" {
			meta[k] = v
		}
	}

	id := ""
	for _, key := range idKeys {
		if v, ok := meta[key]; ok && v != nil {
			id = fmt.Sprint(v)
			break
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	return &Profile{ID: id, Meta: meta, Horizons: horizons}, nil
}

// toFloat reports whether a raw field value is numeric-convertible and
// returns it as a float64. NaN and infinities count as absent.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
