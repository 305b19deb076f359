package testkit

import (
	"fmt"
	"math/rand"
	"strings"

	"guildscore/domain/guild"
)

// PoolConfig configures the synthetic species pool generator
type PoolConfig struct {
	Species         int     `json:"species"`
	PartnersPerKind int     `json:"partners_per_kind"` // distinct partner taxa per interaction kind
	InteractionRate float64 `json:"interaction_rate"`  // chance a plant has records for a given kind
	TraitCoverage   float64 `json:"trait_coverage"`    // chance each trait value is documented
	MechanismCount  int     `json:"mechanism_count"`
	Seed            int64   `json:"seed"`
}

// DefaultPoolConfig returns a pool large enough for calibration tests
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Species:         60,
		PartnersPerKind: 8,
		InteractionRate: 0.35,
		TraitCoverage:   0.85,
		MechanismCount:  12,
		Seed:            42,
	}
}

// Pool is a generated reference dataset
type Pool struct {
	Species      []string
	Newick       string
	Interactions []guild.InteractionRecord
	Mechanisms   []guild.KnownMechanismRecord
	Traits       []guild.PlantTraits
}

// PoolGenerator builds deterministic synthetic pools
type PoolGenerator struct {
	config PoolConfig
	rng    *rand.Rand
}

// NewPoolGenerator creates a new pool generator
func NewPoolGenerator(config PoolConfig) *PoolGenerator {
	return &PoolGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces a complete pool. The same config always yields the same pool.
func (g *PoolGenerator) Generate() (*Pool, error) {
	if g.config.Species < 2 {
		return nil, fmt.Errorf("pool needs at least 2 species, got %d", g.config.Species)
	}
	if g.config.PartnersPerKind < 1 {
		return nil, fmt.Errorf("partners per kind must be positive")
	}

	pool := &Pool{Species: make([]string, g.config.Species)}
	for i := range pool.Species {
		pool.Species[i] = fmt.Sprintf("species_%03d", i+1)
	}
	pool.Newick = g.tree(pool.Species)
	pool.Interactions = g.interactions(pool.Species)
	pool.Mechanisms = g.mechanisms()
	pool.Traits = g.traits(pool.Species)
	return pool, nil
}

// tree joins random pairs of subtrees until one root remains.
func (g *PoolGenerator) tree(species []string) string {
	nodes := make([]string, len(species))
	copy(nodes, species)
	for len(nodes) > 1 {
		i := g.rng.Intn(len(nodes))
		j := g.rng.Intn(len(nodes) - 1)
		if j >= i {
			j++
		}
		joined := fmt.Sprintf("(%s:%.3f,%s:%.3f)", nodes[i], g.branch(), nodes[j], g.branch())
		if i > j {
			i, j = j, i
		}
		nodes[i] = joined
		nodes = append(nodes[:j], nodes[j+1:]...)
	}
	return nodes[0] + ";"
}

func (g *PoolGenerator) branch() float64 { return 1 + g.rng.ExpFloat64()*10 }

func partnerName(kind guild.InteractionKind, i int) string {
	return fmt.Sprintf("%s_%02d", strings.ReplaceAll(kind.String(), "-", "_"), i+1)
}

func (g *PoolGenerator) interactions(species []string) []guild.InteractionRecord {
	var records []guild.InteractionRecord
	for _, sp := range species {
		for _, kind := range guild.AllKinds() {
			if g.rng.Float64() >= g.config.InteractionRate {
				continue
			}
			n := 1 + g.rng.Intn(2)
			for _, p := range g.rng.Perm(g.config.PartnersPerKind)[:n] {
				records = append(records, guild.InteractionRecord{
					PlantID: sp, PartnerTaxon: partnerName(kind, p), Kind: kind,
				}.Normalized())
			}
		}
	}
	return records
}

func (g *PoolGenerator) mechanisms() []guild.KnownMechanismRecord {
	type pair struct{ target, antagonist guild.InteractionKind }
	pairs := []struct {
		pair
		category guild.InteractionCategory
	}{
		{pair{guild.KindHerbivore, guild.KindPredator}, guild.CategoryPestControl},
		{pair{guild.KindHerbivore, guild.KindEntomopathogenicFungus}, guild.CategoryPestControl},
		{pair{guild.KindPathogen, guild.KindMycoparasite}, guild.CategoryDiseaseSuppression},
	}

	seen := map[guild.KnownMechanismRecord]bool{}
	var out []guild.KnownMechanismRecord
	for i := 0; i < g.config.MechanismCount; i++ {
		p := pairs[g.rng.Intn(len(pairs))]
		m := guild.KnownMechanismRecord{
			Target:     partnerName(p.target, g.rng.Intn(g.config.PartnersPerKind)),
			Antagonist: partnerName(p.antagonist, g.rng.Intn(g.config.PartnersPerKind)),
			Category:   p.category,
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func (g *PoolGenerator) traits(species []string) []guild.PlantTraits {
	out := make([]guild.PlantTraits, 0, len(species))
	for _, sp := range species {
		t := guild.PlantTraits{PlantID: sp}
		if g.documented() {
			t.HeightM = guild.Float(0.1 + g.rng.ExpFloat64()*4)
		}
		if g.documented() {
			t.LightPreference = guild.Float(1 + g.rng.Float64()*8.5)
		}
		if g.documented() {
			// percentiles drawn independently; only their relative ranks matter for conflicts
			t.Competitive = guild.Float(g.rng.Float64() * 100)
			t.StressTolerant = guild.Float(g.rng.Float64() * 100)
			t.Ruderal = guild.Float(g.rng.Float64() * 100)
		}
		if g.documented() {
			lo := 4.5 + g.rng.Float64()*2
			t.PHMin, t.PHMax = guild.Float(lo), guild.Float(lo+0.5+g.rng.Float64()*2)
		}
		if g.documented() {
			lo := 2 + float64(g.rng.Intn(6))
			t.HardinessMin, t.HardinessMax = guild.Float(lo), guild.Float(lo+1+float64(g.rng.Intn(5)))
		}
		out = append(out, t)
	}
	return out
}

func (g *PoolGenerator) documented() bool { return g.rng.Float64() < g.config.TraitCoverage }
