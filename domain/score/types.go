package score

import (
	"guildscore/domain/core"
	"guildscore/domain/guild"
	"guildscore/domain/normalization"
)

// ComponentID names one of the seven component scores.
type ComponentID string

const (
	ComponentPhylogenetic ComponentID = "M1"
	ComponentGrowth       ComponentID = "M2"
	ComponentPestControl  ComponentID = "M3"
	ComponentDisease      ComponentID = "M4"
	ComponentFungi        ComponentID = "M5"
	ComponentStructure    ComponentID = "M6"
	ComponentPollinators  ComponentID = "M7"
)

// ComponentStatus separates a scored component from the two ways a component can lack a score.
type ComponentStatus string

const (
	StatusScored ComponentStatus = "scored"
	// StatusNoData: nothing documented for the guild; not evidence of absence.
	StatusNoData ComponentStatus = "no_data"
	// StatusUndefined: the metric is mathematically undefined for this guild (e.g. PD with <2 leaves).
	StatusUndefined ComponentStatus = "undefined"
)

// MetricValue is one raw metric and its calibrated transform.
type MetricValue struct {
	Metric         normalization.MetricName `json:"metric"`
	Raw            float64                  `json:"raw"`
	Normalized     float64                  `json:"normalized"`
	PercentileRank *float64                 `json:"percentile_rank,omitempty"`
	Stratum        string                   `json:"stratum,omitempty"`
}

// ComponentScore is one of M1–M7 on a 0–100 scale.
type ComponentScore struct {
	ID              ComponentID     `json:"id"`
	Name            string          `json:"name"`
	Universal       bool            `json:"universal"`
	Status          ComponentStatus `json:"status"`
	Metric          *MetricValue    `json:"metric,omitempty"`
	Score           float64         `json:"score"`
	Coverage        float64         `json:"coverage"`
	Weight          float64         `json:"weight"`
	EffectiveWeight float64         `json:"effective_weight"`
}

// Tier is the interpretive band of the composite score.
type Tier string

const (
	TierExcellent  Tier = "excellent"
	TierGood       Tier = "good"
	TierFair       Tier = "fair"
	TierPoor       Tier = "poor"
	TierUnsuitable Tier = "unsuitable"
	TierUndefined  Tier = "undefined"
)

// AggregationNote documents a component left out of, or down-weighted in, the composite.
type AggregationNote struct {
	Component ComponentID     `json:"component"`
	Status    ComponentStatus `json:"status"`
	Message   string          `json:"message"`
}

// WarningKind classifies non-fatal per-guild data gaps.
type WarningKind string

const (
	WarningUnresolvedSpecies     WarningKind = "unresolved_species"
	WarningInsufficientGuildSize WarningKind = "insufficient_guild_size"
	WarningMissingInteractions   WarningKind = "missing_interactions"
	WarningMissingTraits         WarningKind = "missing_traits"
	WarningClimateMismatch       WarningKind = "climate_mismatch"
	WarningSoilMismatch          WarningKind = "soil_mismatch"
)

// Warning is a non-fatal condition surfaced to the caller.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Species []string    `json:"species,omitempty"`
	Count   int         `json:"count"`
	Message string      `json:"message"`
}

// SpecificMatch is a validated antagonist→target pair present in the guild.
type SpecificMatch struct {
	Category         guild.InteractionCategory `json:"category"`
	Target           string                    `json:"target"`
	Antagonist       string                    `json:"antagonist"`
	TargetPlants     []string                  `json:"target_plants"`
	AntagonistPlants []string                  `json:"antagonist_plants"`
	Weight           float64                   `json:"weight"`
}

// GeneralMechanism is a broad-spectrum beneficial organism with no documented specific target.
type GeneralMechanism struct {
	Category guild.InteractionCategory `json:"category"`
	Organism string                    `json:"organism"`
	Kind     guild.InteractionKind     `json:"kind"`
	Plants   []string                  `json:"plants"`
	Weight   float64                   `json:"weight"`
}

// NetworkHub is a partner species connecting several guild plants.
type NetworkHub struct {
	Category   guild.InteractionCategory `json:"category"`
	Taxon      string                    `json:"taxon"`
	Kinds      []guild.InteractionKind   `json:"kinds"`
	Plants     []string                  `json:"plants"`
	PlantCount int                       `json:"plant_count"`
}

// PlantDataFlag marks a plant with no documented interactions in a category.
type PlantDataFlag struct {
	PlantID  string                    `json:"plant_id"`
	Category guild.InteractionCategory `json:"category"`
	NoData   bool                      `json:"no_data"`
}

// StrategyAxis is one of the competitive / stress-tolerant / ruderal allocation axes.
type StrategyAxis string

const (
	AxisCompetitive    StrategyAxis = "C"
	AxisStressTolerant StrategyAxis = "S"
	AxisRuderal        StrategyAxis = "R"
)

// StrategyConflict is one pairwise growth-strategy conflict.
type StrategyConflict struct {
	Type      string   `json:"type"` // e.g. "C-C", "C-S"
	Plants    []string `json:"plants"`
	Severity  float64  `json:"severity"`
	Uncertain bool     `json:"uncertain,omitempty"`
	Reason    string   `json:"reason"`
}

// LightClass buckets the light-preference trait.
type LightClass string

const (
	LightShadeTolerant LightClass = "shade_tolerant"
	LightFlexible      LightClass = "flexible"
	LightSunLoving     LightClass = "sun_loving"
	LightUnknown       LightClass = "unknown"
)

// LayerAssignment places one plant in a vertical layer.
type LayerAssignment struct {
	PlantID string     `json:"plant_id"`
	HeightM *float64   `json:"height_m,omitempty"`
	Layer   string     `json:"layer"`
	Light   LightClass `json:"light"`
}

// Overtopping records a plant growing under a taller neighbour.
type Overtopping struct {
	PlantID  string     `json:"plant_id"`
	TallerBy string     `json:"taller_by"`
	Light    LightClass `json:"light"`
	Penalty  bool       `json:"penalty"`
}

// Evidence bundles everything a downstream report renderer needs.
type Evidence struct {
	SpecificMatches   []SpecificMatch    `json:"specific_matches"`
	GeneralMechanisms []GeneralMechanism `json:"general_mechanisms"`
	NetworkHubs       []NetworkHub       `json:"network_hubs"`
	Conflicts         []StrategyConflict `json:"conflicts"`
	Layers            []LayerAssignment  `json:"layers"`
	Overtopped        []Overtopping      `json:"overtopped"`
	PlantDataFlags    []PlantDataFlag    `json:"plant_data_flags"`
}

// PhyloSummary reports the PD computation behind M1.
type PhyloSummary struct {
	FaithPD         float64  `json:"faith_pd"`
	Defined         bool     `json:"defined"`
	MRCA            int32    `json:"mrca"`
	ResolvedCount   int      `json:"resolved_count"`
	UnresolvedCount int      `json:"unresolved_count"`
	Unresolved      []string `json:"unresolved,omitempty"`
}

// GuildScoreResult is produced fresh for each scoring call.
type GuildScoreResult struct {
	GuildHash             core.Hash         `json:"guild_hash"`
	Species               []string          `json:"species"`
	Stratum               string            `json:"stratum,omitempty"`
	ProfileSetID          core.ProfileSetID `json:"profile_set_id"`
	Phylogeny             PhyloSummary      `json:"phylogeny"`
	Metrics               []MetricValue     `json:"metrics"`
	Components            []ComponentScore  `json:"components"`
	Composite             float64           `json:"composite"`
	CompositeDefined      bool              `json:"composite_defined"`
	Tier                  Tier              `json:"tier"`
	AggregationNotes      []AggregationNote `json:"aggregation_notes"`
	Evidence              Evidence          `json:"evidence"`
	Warnings              []Warning         `json:"warnings"`
	CompatibilityWarnings []Warning         `json:"compatibility_warnings"`
}

// Component returns the component with the given ID.
func (r *GuildScoreResult) Component(id ComponentID) (ComponentScore, bool) {
	for _, c := range r.Components {
		if c.ID == id {
			return c, true
		}
	}
	return ComponentScore{}, false
}

// HasWarning reports whether a warning of the given kind was raised.
func (r *GuildScoreResult) HasWarning(kind WarningKind) bool {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}
