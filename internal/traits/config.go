// Package traits checks growth-strategy conflicts and vertical stratification from plant traits.
package traits

// Config holds thresholds for both checks.
type Config struct {
	HighThreshold     float64 // CSR percentile above which an axis counts as high
	HeightSeparationM float64 // an S plant this much taller than a C plant is not suppressed
	ShadeTolerantMax  float64 // EIVE-L below this is shade-tolerant
	SunLovingMin      float64 // EIVE-L above this is sun-loving
	MinSpreadM        float64 // height range that earns the full spread term
	OvertopMarginM    float64 // a neighbour at least this much taller shades the plant

	CompetitiveSeverity   float64
	SameAxisSeverity      float64 // S–S and R–R
	CrossAxisSeverity     float64 // C–S
	LayerSeparationFactor float64 // applied to C–C when the pair sits in different layers
	FlexibleLightFactor   float64 // applied to C–S when the S plant is light-flexible
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		HighThreshold:         75,
		HeightSeparationM:     2.0,
		ShadeTolerantMax:      3.2,
		SunLovingMin:          7.47,
		MinSpreadM:            2.0,
		OvertopMarginM:        2.0,
		CompetitiveSeverity:   1.0,
		SameAxisSeverity:      0.3,
		CrossAxisSeverity:     0.6,
		LayerSeparationFactor: 0.5,
		FlexibleLightFactor:   0.5,
	}
}

// Layer names, bottom to top.
const (
	LayerGround     = "ground"     // < 1 m
	LayerShrub      = "shrub"      // 1–5 m
	LayerUnderstory = "understory" // 5–15 m
	LayerCanopy     = "canopy"     // ≥ 15 m
	LayerUnknown    = "unknown"
)

// layerOf buckets a height into its vertical layer and returns the layer rank (0 = ground).
func layerOf(h float64) (string, int) {
	switch {
	case h < 1:
		return LayerGround, 0
	case h < 5:
		return LayerShrub, 1
	case h < 15:
		return LayerUnderstory, 2
	default:
		return LayerCanopy, 3
	}
}
