package spline

// Documented defaults of the harmonization engine. There are no other
// hidden globals; everything is carried explicitly through options.
const (
	// DefaultLambda is the default smoothing parameter.
	DefaultLambda = 0.1

	// DefaultVLow and DefaultVHigh bound every per-centimeter prediction.
	DefaultVLow  = 0.0
	DefaultVHigh = 1000.0

	// DefaultMinHorizons is the minimum layer count a profile needs to be
	// accepted for fitting.
	DefaultMinHorizons = 2

	// MassTolerance is the permitted relative deviation between an original
	// interval value and the fitted mean over that interval.
	MassTolerance = 1e-6

	// DefaultCacheSize bounds the per-worker system cache.
	DefaultCacheSize = 1000
)

// GlobalSoilMapDepths are the six GlobalSoilMap standard output bands,
// totalling 0-200 cm.
var GlobalSoilMapDepths = []Interval{
	{0, 5},
	{5, 15},
	{15, 30},
	{30, 60},
	{60, 100},
	{100, 200},
}

// USDAPedonDepths are the USDA soil pedon reporting bands.
var USDAPedonDepths = []Interval{
	{0, 5},
	{5, 25},
	{25, 50},
	{50, 100},
	{100, 200},
}

// ShallowDepths is a 0-50 cm preset for shallow survey work.
var ShallowDepths = []Interval{
	{0, 5},
	{5, 15},
	{15, 30},
	{30, 50},
}
