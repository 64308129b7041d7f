package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"mpspline/pkg/harmonize"
)

// jsonRecord is the long-form wire shape: missing values serialize as null
// rather than NaN, which JSON cannot carry.
type jsonRecord struct {
	Property string   `json:"property"`
	Top      float64  `json:"top"`
	Bottom   float64  `json:"bottom"`
	Value    *float64 `json:"value"`
}

type jsonResult struct {
	ID      string              `json:"id"`
	Meta    map[string]any      `json:"meta,omitempty"`
	Records []jsonRecord        `json:"records,omitempty"`
	Columns map[string]*float64 `json:"columns,omitempty"`
}

func writeOutput(out *harmonize.BatchResult, shape harmonize.Shape, path, format string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		return writeJSON(w, out)
	case "csv":
		return writeCSV(w, out, shape)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeJSON(w io.Writer, out *harmonize.BatchResult) error {
	results := make([]jsonResult, 0, len(out.Results))
	for _, res := range out.Results {
		jr := jsonResult{ID: res.ID, Meta: res.Meta, Columns: res.Columns}
		for _, rec := range res.Records {
			r := jsonRecord{Property: rec.Property, Top: rec.Top, Bottom: rec.Bottom}
			if !rec.Missing {
				v := rec.Value
				r.Value = &v
			}
			jr.Records = append(jr.Records, r)
		}
		results = append(results, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func writeCSV(w io.Writer, out *harmonize.BatchResult, shape harmonize.Shape) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if shape == harmonize.ShapeWide {
		// Union of columns across profiles, sorted for a stable header.
		colSet := map[string]bool{}
		for _, res := range out.Results {
			for k := range res.Columns {
				colSet[k] = true
			}
		}
		cols := make([]string, 0, len(colSet))
		for k := range colSet {
			cols = append(cols, k)
		}
		sort.Strings(cols)

		if err := cw.Write(append([]string{"id"}, cols...)); err != nil {
			return err
		}
		for _, res := range out.Results {
			row := []string{res.ID}
			for _, c := range cols {
				v, ok := res.Columns[c]
				if !ok || v == nil {
					row = append(row, "")
				} else {
					row = append(row, strconv.FormatFloat(*v, 'g', -1, 64))
				}
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return cw.Error()
	}

	if err := cw.Write([]string{"id", "property", "top", "bottom", "value"}); err != nil {
		return err
	}
	for _, res := range out.Results {
		for _, rec := range res.Records {
			value := ""
			if !rec.Missing {
				value = strconv.FormatFloat(rec.Value, 'g', -1, 64)
			}
			row := []string{
				res.ID,
				rec.Property,
				strconv.FormatFloat(rec.Top, 'g', -1, 64),
				strconv.FormatFloat(rec.Bottom, 'g', -1, 64),
				value,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	return cw.Error()
}
