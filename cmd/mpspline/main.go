package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mpspline/internal/config"
	"mpspline/internal/spline"
	"mpspline/pkg/harmonize"
)

const version = "1.0.0"

var (
	// Global flags
	verbose    bool
	configPath string

	// harmonize flags
	inputPath  string
	outputPath string
	format     string
	properties string
	depths     string
	lam        float64
	vlow       float64
	vhigh      float64
	mode       string
	shape      string
	strict     bool
	parallel   bool
	workers    int
	batchSize  int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mpspline",
	Short: "Mass-preserving spline harmonization of soil profile data",
	Long: `mpspline harmonizes irregularly depth-sampled soil horizon data onto
standard depth intervals using the equal-area quadratic smoothing spline of
Bishop, McBratney & Laslett (1999).

Input is a JSON array of profile objects, each with a "horizons" list and
arbitrary pass-through metadata. Output is JSON or CSV in long or wide form.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var harmonizeCmd = &cobra.Command{
	Use:   "harmonize",
	Short: "Harmonize profiles from a JSON file onto target depth intervals",
	Example: `  mpspline harmonize --input profiles.json
  mpspline harmonize --input profiles.json --depths 0-30,30-100 --lam 0.01
  mpspline harmonize --input profiles.json --shape wide --format csv --output out.csv
  mpspline harmonize --input profiles.json --parallel --workers 8`,
	RunE: runHarmonize,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mpspline version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mpspline %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	f := harmonizeCmd.Flags()
	f.StringVarP(&inputPath, "input", "i", "", "input JSON file (array of profile objects)")
	f.StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")
	f.StringVar(&format, "format", "", "output format: json or csv (default json, or inferred from --output)")
	f.StringVar(&properties, "properties", "", "comma-separated properties to harmonize (default: all numeric)")
	f.StringVar(&depths, "depths", "", "target intervals, e.g. 0-5,5-15,15-30, or a preset: gsm, usda, shallow")
	f.Float64Var(&lam, "lam", spline.DefaultLambda, "smoothing parameter lambda")
	f.Float64Var(&vlow, "vlow", spline.DefaultVLow, "lower prediction bound")
	f.Float64Var(&vhigh, "vhigh", spline.DefaultVHigh, "upper prediction bound")
	f.StringVar(&mode, "mode", string(harmonize.ModeDCM), "output resolution: dcm, 1cm or icm")
	f.StringVar(&shape, "shape", string(harmonize.ShapeLong), "output shape: long or wide")
	f.BoolVar(&strict, "strict", false, "abort on the first validation or numeric failure")
	f.BoolVar(&parallel, "parallel", false, "harmonize profiles in parallel")
	f.IntVar(&workers, "workers", 0, "worker count for --parallel (default: GOMAXPROCS)")
	f.IntVar(&batchSize, "batch-size", 100, "profiles per parallel task")
	_ = harmonizeCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(harmonizeCmd)
	rootCmd.AddCommand(versionCmd)
}

func runHarmonize(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}
	opts.Logger = logger

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var profiles []map[string]any
	if err := json.Unmarshal(data, &profiles); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	out, err := harmonize.HarmonizeMany(context.Background(), profiles, opts)
	if err != nil {
		return err
	}
	for _, fail := range out.Failures {
		logger.Warn("skipped", zap.String("failure", fail.String()))
	}

	return writeOutput(out, opts.Shape, outputPath, resolveFormat())
}

// buildOptions layers flags over the optional config file over the engine
// defaults. Flags set explicitly on the command line win.
func buildOptions(cmd *cobra.Command) (harmonize.Options, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return harmonize.Options{}, err
		}
		cfg = loaded
	}
	opts := cfg.Options()

	set := cmd.Flags().Changed
	if set("lam") {
		opts.Lambda = lam
	}
	if set("vlow") {
		opts.VLow = vlow
	}
	if set("vhigh") {
		opts.VHigh = vhigh
	}
	if set("mode") {
		opts.Mode = harmonize.Mode(mode)
	}
	if set("shape") {
		opts.Shape = harmonize.Shape(shape)
	}
	if set("strict") {
		opts.Strict = strict
	}
	if set("parallel") {
		opts.Parallel = parallel
	}
	if set("workers") {
		opts.Workers = workers
	}
	if set("batch-size") {
		opts.BatchSize = batchSize
	}
	if set("properties") {
		opts.Properties = splitNonEmpty(properties)
	}
	if set("depths") {
		parsed, err := parseDepths(depths)
		if err != nil {
			return harmonize.Options{}, err
		}
		opts.TargetDepths = parsed
	}
	return opts, nil
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDepths parses "0-5,5-15,15-30" into target intervals. The preset
// names gsm, usda and shallow select the corresponding standard bands.
func parseDepths(s string) ([]spline.Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gsm":
		return spline.GlobalSoilMapDepths, nil
	case "usda":
		return spline.USDAPedonDepths, nil
	case "shallow":
		return spline.ShallowDepths, nil
	}

	var out []spline.Interval
	for _, part := range splitNonEmpty(s) {
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid depth interval %q, want top-bottom", part)
		}
		top, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid depth interval %q: %w", part, err)
		}
		bottom, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid depth interval %q: %w", part, err)
		}
		out = append(out, spline.Interval{Top: top, Bottom: bottom})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no depth intervals in %q", s)
	}
	return out, nil
}

func resolveFormat() string {
	if format != "" {
		return format
	}
	if strings.HasSuffix(strings.ToLower(outputPath), ".csv") {
		return "csv"
	}
	return "json"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
