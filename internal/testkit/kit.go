// Package testkit provides shared fixtures: a small orchard guild pool with a tree, interaction
// tables, traits and a calibrated profile set, plus a seeded generator for larger synthetic pools.
package testkit

import (
	"time"

	"guildscore/adapters/newick"
	"guildscore/domain/core"
	"guildscore/domain/guild"
	"guildscore/domain/normalization"
	"guildscore/domain/phylo"
)

// Orchard species
const (
	Apple    = "Malus_domestica"
	Pear     = "Pyrus_communis"
	Cherry   = "Prunus_avium"
	Clover   = "Trifolium_repens"
	Comfrey  = "Symphytum_officinale"
	Lavender = "Lavandula_angustifolia"
	Chives   = "Allium_schoenoprasum"
	Oak      = "Quercus_robur"
)

// OrchardNewick is an ultrametric-ish tree over the orchard species (branch lengths in Myr).
const OrchardNewick = "((((Malus_domestica:10,Pyrus_communis:10):15,Prunus_avium:25):40," +
	"((Trifolium_repens:30,Symphytum_officinale:30):20,Lavandula_angustifolia:50):15):5," +
	"(Allium_schoenoprasum:60,Quercus_robur:55):10);"

// OrchardSpecies lists every leaf of OrchardNewick.
func OrchardSpecies() []string {
	return []string{Apple, Pear, Cherry, Clover, Comfrey, Lavender, Chives, Oak}
}

// OrchardTree parses OrchardNewick. It panics on error since the fixture is constant.
func OrchardTree() *phylo.Tree {
	tree, err := newick.ParseString(OrchardNewick)
	if err != nil {
		panic("testkit: orchard tree: " + err.Error())
	}
	return tree
}

func rec(plant, partner string, kind guild.InteractionKind) guild.InteractionRecord {
	return guild.InteractionRecord{PlantID: plant, PartnerTaxon: partner, Kind: kind}.Normalized()
}

// OrchardInteractions documents pests, pathogens, beneficials and mutualists. Chives and oak
// have no pollinator records.
func OrchardInteractions() []guild.InteractionRecord {
	return []guild.InteractionRecord{
		rec(Apple, "Aphis_pomi", guild.KindHerbivore),
		rec(Apple, "Venturia_inaequalis", guild.KindPathogen),
		rec(Apple, "Coccinella_septempunctata", guild.KindPredator),
		rec(Apple, "Apis_mellifera", guild.KindPollinator),
		rec(Apple, "Bombus_terrestris", guild.KindPollinator),
		rec(Apple, "Glomus_intraradices", guild.KindMycorrhizalAMF),

		rec(Pear, "Cacopsylla_pyri", guild.KindHerbivore),
		rec(Pear, "Venturia_pyrina", guild.KindPathogen),
		rec(Pear, "Apis_mellifera", guild.KindPollinator),
		rec(Pear, "Glomus_intraradices", guild.KindMycorrhizalAMF),

		rec(Cherry, "Myzus_cerasi", guild.KindHerbivore),
		rec(Cherry, "Apis_mellifera", guild.KindPollinator),
		rec(Cherry, "Bombus_terrestris", guild.KindPollinator),

		rec(Clover, "Bombus_terrestris", guild.KindPollinator),
		rec(Clover, "Glomus_intraradices", guild.KindMycorrhizalAMF),
		rec(Clover, "Trichoderma_harzianum", guild.KindMycoparasite),

		rec(Comfrey, "Bombus_terrestris", guild.KindPollinator),
		rec(Comfrey, "Beauveria_bassiana", guild.KindEntomopathogenicFungus),

		rec(Lavender, "Apis_mellifera", guild.KindPollinator),
		rec(Lavender, "Chrysoperla_carnea", guild.KindPredator),

		rec(Chives, "Delia_antiqua", guild.KindHerbivore),
		rec(Chives, "Botrytis_squamosa", guild.KindPathogen),

		rec(Oak, "Tortrix_viridana", guild.KindHerbivore),
		rec(Oak, "Amanita_muscaria", guild.KindMycorrhizalEMF),
	}
}

// OrchardMechanisms lists the validated antagonist→target pairs.
func OrchardMechanisms() []guild.KnownMechanismRecord {
	return []guild.KnownMechanismRecord{
		{Target: "Aphis_pomi", Antagonist: "Coccinella_septempunctata", Category: guild.CategoryPestControl},
		{Target: "Myzus_cerasi", Antagonist: "Chrysoperla_carnea", Category: guild.CategoryPestControl},
		{Target: "Myzus_cerasi", Antagonist: "Coccinella_septempunctata", Category: guild.CategoryPestControl},
	}
}

type traitValues struct {
	height, light, c, s, r, phMin, phMax, hMin, hMax float64
}

// OrchardTraits returns traits for every orchard species. Apple and pear are both highly
// competitive and share the understory layer.
func OrchardTraits() []guild.PlantTraits {
	f := guild.Float
	rows := map[string]traitValues{
		Apple:    {6, 7, 80, 15, 5, 6, 7.5, 3, 8},
		Pear:     {8, 7, 78, 20, 2, 6, 7.5, 4, 8},
		Cherry:   {10, 7.5, 60, 30, 10, 6, 7.5, 4, 8},
		Clover:   {0.2, 7.8, 20, 20, 70, 5.5, 7.5, 3, 10},
		Comfrey:  {1.2, 6, 55, 10, 35, 6, 7.5, 3, 9},
		Lavender: {0.6, 8.5, 10, 85, 5, 6.5, 8.5, 5, 9},
		Chives:   {0.3, 7, 20, 30, 50, 6, 7, 3, 9},
		Oak:      {25, 6.5, 90, 40, 2, 4.5, 7.5, 4, 8},
	}
	out := make([]guild.PlantTraits, 0, len(rows))
	for _, id := range OrchardSpecies() {
		v := rows[id]
		out = append(out, guild.PlantTraits{
			PlantID: id, HeightM: f(v.height), LightPreference: f(v.light),
			Competitive: f(v.c), StressTolerant: f(v.s), Ruderal: f(v.r),
			PHMin: f(v.phMin), PHMax: f(v.phMax), HardinessMin: f(v.hMin), HardinessMax: f(v.hMax),
		})
	}
	return out
}

// FixedProfiles returns hand-set global profiles for every metric in formulas. Strategy
// conflicts are zero-inflated as they are in real calibrations.
func FixedProfiles(formulas map[normalization.MetricName]string) *normalization.ProfileSet {
	breakpoints := map[normalization.MetricName][5]float64{
		normalization.MetricFaithPD:            {40, 90, 140, 190, 260},
		normalization.MetricStrategyConflicts:  {0.3, 0.6, 1, 1.6, 2.6},
		normalization.MetricPestControl:        {0.2, 0.5, 1, 1.5, 2.5},
		normalization.MetricDiseaseSuppression: {0.2, 0.4, 0.6, 1, 1.5},
		normalization.MetricFungalNetwork:      {0.2, 0.5, 0.8, 1.2, 1.8},
		normalization.MetricStructuralQuality:  {0.3, 0.45, 0.6, 0.75, 0.9},
		normalization.MetricPollinatorNetwork:  {0.3, 0.6, 1, 1.5, 2.2},
	}

	var profiles []normalization.NormalizationProfile
	for metric, version := range formulas {
		bp := breakpoints[metric]
		p := normalization.NormalizationProfile{
			Metric: metric, P5: bp[0], P25: bp[1], P50: bp[2], P75: bp[3], P95: bp[4],
			SampleSize: 1000, FormulaVersion: version,
		}
		if metric == normalization.MetricStrategyConflicts {
			p.ZeroInflated, p.PZero = true, 0.6
		}
		profiles = append(profiles, p)
	}

	set, err := normalization.NewProfileSet(core.NewProfileSetID(),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 42, 1000, profiles)
	if err != nil {
		panic("testkit: fixed profiles: " + err.Error())
	}
	return set
}
