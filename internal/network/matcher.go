package network

import (
	"sort"

	"guildscore/domain/guild"
	"guildscore/domain/score"
)

// Config holds the raw-score weights.
type Config struct {
	SpecificWeight       float64
	EntomopathogenWeight float64
	MycoparasiteWeight   float64
	CoverageWeight       float64
	HubLimit             int
}

// DefaultConfig returns the standard weights.
func DefaultConfig() Config {
	return Config{
		SpecificWeight:       1.0,
		EntomopathogenWeight: 0.2,
		MycoparasiteWeight:   0.5,
		CoverageWeight:       0.5,
		HubLimit:             5,
	}
}

// CategoryAnalysis is the evidence and raw score for one interaction category.
type CategoryAnalysis struct {
	Category          guild.InteractionCategory `json:"category"`
	Coverage          float64                   `json:"coverage"`
	PlantsWithData    []string                  `json:"plants_with_data"`
	NoDataPlants      []string                  `json:"no_data_plants"`
	SpecificMatches   []score.SpecificMatch     `json:"specific_matches,omitempty"`
	GeneralMechanisms []score.GeneralMechanism  `json:"general_mechanisms,omitempty"`
	SharedPartners    int                       `json:"shared_partners"`
	Hubs              []score.NetworkHub        `json:"hubs,omitempty"`
	Raw               float64                   `json:"raw"`

	// NoData is set when no guild plant has a record in this category. Raw is then
	// meaningless and must not be read as confirmed absence.
	NoData bool `json:"no_data"`
}

// Analysis covers all four categories for one guild.
type Analysis struct {
	Categories map[guild.InteractionCategory]*CategoryAnalysis `json:"categories"`
	Flags      []score.PlantDataFlag                           `json:"flags"`

	// Undocumented lists guild plants with no interaction records at all
	Undocumented []string `json:"undocumented,omitempty"`
}

// Category returns the analysis for c.
func (a Analysis) Category(c guild.InteractionCategory) *CategoryAnalysis {
	return a.Categories[c]
}

// Matcher runs per-guild analyses over a shared Index.
type Matcher struct {
	index *Index
	cfg   Config
}

// NewMatcher binds an index and weights.
func NewMatcher(index *Index, cfg Config) *Matcher {
	if cfg.HubLimit <= 0 {
		cfg.HubLimit = DefaultConfig().HubLimit
	}
	return &Matcher{index: index, cfg: cfg}
}

// Index returns the shared index.
func (m *Matcher) Index() *Index { return m.index }

// occurrence collects the guild plants that document one taxon.
type occurrence struct {
	plants []string
	kinds  []guild.InteractionKind
}

func (o *occurrence) add(plant string, kind guild.InteractionKind) {
	if !containsString(o.plants, plant) {
		o.plants = append(o.plants, plant)
	}
	for _, k := range o.kinds {
		if k == kind {
			return
		}
	}
	o.kinds = append(o.kinds, kind)
}

// Match analyses every category for g. It never fails: missing data becomes NoData flags.
func (m *Matcher) Match(g guild.Guild) Analysis {
	plants := g.Species()
	a := Analysis{Categories: make(map[guild.InteractionCategory]*CategoryAnalysis, 4)}

	// taxon occurrences over all categories, for specific-match lookups
	anywhere := make(map[string]*occurrence)
	for _, p := range plants {
		entry := m.index.byPlant[p]
		if entry == nil {
			a.Undocumented = append(a.Undocumented, p)
			continue
		}
		for _, partners := range entry {
			for _, pt := range partners {
				o := anywhere[pt.taxon]
				if o == nil {
					o = &occurrence{}
					anywhere[pt.taxon] = o
				}
				o.add(p, pt.kind)
			}
		}
	}

	for _, c := range guild.AllCategories() {
		ca := m.matchCategory(c, plants, anywhere)
		a.Categories[c] = ca
		for _, p := range ca.NoDataPlants {
			a.Flags = append(a.Flags, score.PlantDataFlag{PlantID: p, Category: c, NoData: true})
		}
	}
	return a
}

func (m *Matcher) matchCategory(c guild.InteractionCategory, plants []string, anywhere map[string]*occurrence) *CategoryAnalysis {
	slot, _ := categorySlot(c)
	ca := &CategoryAnalysis{Category: c}

	local := make(map[string]*occurrence)
	for _, p := range plants {
		entry := m.index.byPlant[p]
		if entry == nil || len(entry[slot]) == 0 {
			ca.NoDataPlants = append(ca.NoDataPlants, p)
			continue
		}
		ca.PlantsWithData = append(ca.PlantsWithData, p)
		for _, pt := range entry[slot] {
			o := local[pt.taxon]
			if o == nil {
				o = &occurrence{}
				local[pt.taxon] = o
			}
			o.add(p, pt.kind)
		}
	}

	n := len(plants)
	if n > 0 {
		ca.Coverage = float64(len(ca.PlantsWithData)) / float64(n)
	}
	if len(ca.PlantsWithData) == 0 {
		ca.NoData = true
		return ca
	}

	switch c {
	case guild.CategoryPestControl, guild.CategoryDiseaseSuppression:
		m.biocontrol(ca, local, anywhere)
		for _, sm := range ca.SpecificMatches {
			ca.Raw += sm.Weight
		}
		for _, gm := range ca.GeneralMechanisms {
			ca.Raw += gm.Weight
		}
	case guild.CategoryBeneficialFungi, guild.CategoryPollination:
		m.connectivity(ca, local, n)
	}
	ca.Raw += m.cfg.CoverageWeight * ca.Coverage
	return ca
}

func (m *Matcher) biocontrol(ca *CategoryAnalysis, local, anywhere map[string]*occurrence) {
	for _, target := range sortedTaxa(anywhere) {
		for _, antagonist := range m.index.antagonists[mechanismKey{target: target, category: ca.Category}] {
			ao, ok := anywhere[antagonist]
			if !ok {
				continue
			}
			ca.SpecificMatches = append(ca.SpecificMatches, score.SpecificMatch{
				Category:         ca.Category,
				Target:           target,
				Antagonist:       antagonist,
				TargetPlants:     anywhere[target].plants,
				AntagonistPlants: ao.plants,
				Weight:           m.cfg.SpecificWeight,
			})
		}
	}

	for _, taxon := range sortedTaxa(local) {
		if _, specific := m.index.antagonistTaxa[taxon]; specific {
			continue
		}
		o := local[taxon]
		for _, k := range o.kinds {
			w, ok := m.generalWeight(k)
			if !ok {
				continue
			}
			ca.GeneralMechanisms = append(ca.GeneralMechanisms, score.GeneralMechanism{
				Category: ca.Category,
				Organism: taxon,
				Kind:     k,
				Plants:   o.plants,
				Weight:   w,
			})
			break
		}
	}
}

// generalWeight is the fixed weight of a broad-spectrum antagonist kind.
func (m *Matcher) generalWeight(k guild.InteractionKind) (float64, bool) {
	switch k {
	case guild.KindEntomopathogenicFungus:
		return m.cfg.EntomopathogenWeight, true
	case guild.KindMycoparasite:
		return m.cfg.MycoparasiteWeight, true
	}
	return 0, false
}

func (m *Matcher) connectivity(ca *CategoryAnalysis, local map[string]*occurrence, n int) {
	var hubs []score.NetworkHub
	for _, taxon := range sortedTaxa(local) {
		o := local[taxon]
		if len(o.plants) < 2 {
			continue
		}
		ca.SharedPartners++
		ca.Raw += float64(len(o.plants)) / float64(n)
		hubs = append(hubs, score.NetworkHub{
			Category:   ca.Category,
			Taxon:      taxon,
			Kinds:      o.kinds,
			Plants:     o.plants,
			PlantCount: len(o.plants),
		})
	}
	sort.SliceStable(hubs, func(i, j int) bool {
		if hubs[i].PlantCount != hubs[j].PlantCount {
			return hubs[i].PlantCount > hubs[j].PlantCount
		}
		return hubs[i].Taxon < hubs[j].Taxon
	})
	if len(hubs) > m.cfg.HubLimit {
		hubs = hubs[:m.cfg.HubLimit]
	}
	ca.Hubs = hubs
}

func sortedTaxa(m map[string]*occurrence) []string {
	out := make([]string, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
