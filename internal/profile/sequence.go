package profile

import (
	"fmt"
	"sort"
	"strings"
)

// depthSynonyms are the recognized (top, bottom) field-name pairs, checked
// in order. A horizon must carry both halves of some pair.
var depthSynonyms = [][2]string{
	{"upper", "lower"},
	{"top", "bottom"},
	{"start", "end"},
	{"depth_min", "depth_max"},
	{"hzdept_r", "hzdepb_r"},
}

// nameKeys are recognized horizon-name fields, checked in order.
var nameKeys = []string{"hzname", "name", "label"}

// reservedKeys is every field name consumed by normalization; whatever is
// left on a horizon record is a candidate property.
var reservedKeys = func() map[string]bool {
	m := map[string]bool{}
	for _, pair := range depthSynonyms {
		m[pair[0]] = true
		m[pair[1]] = true
	}
	for _, k := range nameKeys {
		m[k] = true
	}
	return m
}()

// Horizon is one validated layer: a depth span and the numeric property
// values observed on it. A property absent from Props was simply not
// measured on this layer; that is not an error.
type Horizon struct {
	Name   string
	Top    float64
	Bottom float64
	Props  map[string]float64
}

// Sequence is an ordered, validated horizon series for one profile. It is
// immutable once built; downstream stages never mutate it.
type Sequence struct {
	Horizons   []Horizon
	MaxDepth   float64
	Properties []string // sorted union of numeric properties
}

// Validation collects the outcome of sequence construction. Errors are hard
// failures that gate the numeric stages; warnings record dropped or suspect
// fields without rejecting the profile.
type Validation struct {
	Errors       []string
	Warnings     []string
	HorizonCount int
	MaxDepth     float64
}

// Valid reports whether the sequence passed validation.
func (v *Validation) Valid() bool { return len(v.Errors) == 0 }

func (v *Validation) errorf(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) warnf(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// ValidationError is the typed failure surfaced when a profile is rejected.
type ValidationError struct {
	ProfileID string
	Errors    []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("profile %s: invalid horizon sequence: %s", e.ProfileID, strings.Join(e.Errors, "; "))
}

// BuildSequence normalizes and validates a profile's raw horizon records.
// Hard failures: fewer than minHorizons records, missing or non-numeric
// boundary fields, negative top, inverted depths, and any gap or overlap
// between adjacent horizons. Non-numeric extra fields are dropped from
// harmonization with a warning; they remain in the profile metadata.
func BuildSequence(raw []map[string]any, minHorizons int) (*Sequence, *Validation) {
	v := &Validation{HorizonCount: len(raw)}

	if len(raw) < minHorizons {
		v.errorf("insufficient horizons: %d provided, minimum %d required", len(raw), minHorizons)
		return nil, v
	}

	horizons := make([]Horizon, 0, len(raw))
	for i, rec := range raw {
		h := Horizon{Props: map[string]float64{}}

		for _, key := range nameKeys {
			if s, ok := rec[key].(string); ok && s != "" {
				h.Name = s
				break
			}
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("H%d", i+1)
		}

		top, bottom, ok := resolveDepths(rec)
		if !ok {
			v.errorf("horizon %q (index %d): missing or non-numeric depth boundaries", h.Name, i)
			continue
		}
		h.Top, h.Bottom = top, bottom

		if h.Top < 0 {
			v.errorf("horizon %q (index %d): negative top depth %v", h.Name, i, h.Top)
		}
		if h.Bottom <= h.Top {
			v.errorf("horizon %q (index %d): depth inverted or zero-thickness: %v-%v", h.Name, i, h.Top, h.Bottom)
		} else if h.Bottom-h.Top < 1 {
			v.warnf("horizon %q (index %d): very thin: %v cm", h.Name, i, h.Bottom-h.Top)
		}

		for key, val := range rec {
			if reservedKeys[key] {
				continue
			}
			f, numeric := toFloat(val)
			if !numeric {
				if _, isString := val.(string); isString {
					v.warnf("horizon %q: property %q is not numeric, dropped from harmonization", h.Name, key)
				}
				continue
			}
			h.Props[key] = f
		}

		horizons = append(horizons, h)
	}

	if !v.Valid() {
		return nil, v
	}

	sort.SliceStable(horizons, func(a, b int) bool { return horizons[a].Top < horizons[b].Top })

	for i := 0; i < len(horizons)-1; i++ {
		cur, next := horizons[i], horizons[i+1]
		switch {
		case next.Top > cur.Bottom:
			v.errorf("gap between horizons %q (bottom %v cm) and %q (top %v cm)", cur.Name, cur.Bottom, next.Name, next.Top)
		case next.Top < cur.Bottom:
			v.errorf("overlap between horizons %q (bottom %v cm) and %q (top %v cm)", cur.Name, cur.Bottom, next.Name, next.Top)
		}
	}
	if !v.Valid() {
		return nil, v
	}

	propSet := map[string]bool{}
	for _, h := range horizons {
		for p := range h.Props {
			propSet[p] = true
		}
	}
	props := make([]string, 0, len(propSet))
	for p := range propSet {
		props = append(props, p)
	}
	sort.Strings(props)

	maxDepth := horizons[len(horizons)-1].Bottom
	v.MaxDepth = maxDepth

	return &Sequence{Horizons: horizons, MaxDepth: maxDepth, Properties: props}, v
}

// resolveDepths picks the first synonym pair fully present on the record
// and converts both halves to float64.
func resolveDepths(rec map[string]any) (top, bottom float64, ok bool) {
	for _, pair := range depthSynonyms {
		tv, hasTop := rec[pair[0]]
		bv, hasBottom := rec[pair[1]]
		if !hasTop || !hasBottom {
			continue
		}
		t, tok := toFloat(tv)
		b, bok := toFloat(bv)
		if !tok || !bok {
			return 0, 0, false
		}
		return t, b, true
	}
	return 0, 0, false
}

// PropertyData extracts, in depth order, the boundary and value series of
// one property across the horizons that carry it. Horizons missing the
// property contribute nothing; the result may therefore contain gaps even
// when the sequence itself is contiguous.
func (s *Sequence) PropertyData(property string) (tops, bottoms, values []float64) {
	for _, h := range s.Horizons {
		v, ok := h.Props[property]
		if !ok {
			continue
		}
		tops = append(tops, h.Top)
		bottoms = append(bottoms, h.Bottom)
		values = append(values, v)
	}
	return tops, bottoms, values
}

// Intervals returns the original horizon depth spans in order.
func (s *Sequence) Intervals() (tops, bottoms []float64) {
	for _, h := range s.Horizons {
		tops = append(tops, h.Top)
		bottoms = append(bottoms, h.Bottom)
	}
	return tops, bottoms
}
