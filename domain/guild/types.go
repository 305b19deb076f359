package guild

import (
	"fmt"
	"strings"

	"guildscore/domain/core"
)

// Guild is an ordered set of distinct species identifiers evaluated together.
type Guild struct {
	species []string
}

// New builds a guild, trimming identifiers and dropping blanks and repeats while keeping first-seen order.
func New(species ...string) Guild {
	seen := make(map[string]struct{}, len(species))
	out := make([]string, 0, len(species))
	for _, s := range species {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return Guild{species: out}
}

// Species returns the members in input order. Callers must not modify the slice.
func (g Guild) Species() []string { return g.species }

// Size returns the number of distinct members.
func (g Guild) Size() int { return len(g.species) }

// Contains reports membership.
func (g Guild) Contains(id string) bool {
	for _, s := range g.species {
		if s == id {
			return true
		}
	}
	return false
}

// InteractionKind is the closed set of plant–organism relations the engine understands.
type InteractionKind uint8

const (
	KindUnknown InteractionKind = iota
	KindHerbivore
	KindPredator
	KindPathogen
	KindMycoparasite
	KindPollinator
	KindMycorrhizalAMF
	KindMycorrhizalEMF
	KindEndophytic
	KindSaprotrophic
	KindEntomopathogenicFungus
)

// AllKinds lists every valid kind in declaration order.
func AllKinds() []InteractionKind {
	return []InteractionKind{
		KindHerbivore, KindPredator, KindPathogen, KindMycoparasite, KindPollinator,
		KindMycorrhizalAMF, KindMycorrhizalEMF, KindEndophytic, KindSaprotrophic,
		KindEntomopathogenicFungus,
	}
}

// String returns the canonical table spelling.
func (k InteractionKind) String() string {
	switch k {
	case KindHerbivore:
		return "herbivore"
	case KindPredator:
		return "predator"
	case KindPathogen:
		return "pathogen"
	case KindMycoparasite:
		return "mycoparasite"
	case KindPollinator:
		return "pollinator"
	case KindMycorrhizalAMF:
		return "mycorrhizal-AMF"
	case KindMycorrhizalEMF:
		return "mycorrhizal-EMF"
	case KindEndophytic:
		return "endophytic"
	case KindSaprotrophic:
		return "saprotrophic"
	case KindEntomopathogenicFungus:
		return "entomopathogenic-fungus"
	default:
		return "unknown"
	}
}

// Category maps a kind to the interaction category it provides evidence for.
// It panics on KindUnknown or an out-of-range value: such records must be rejected at parse time.
func (k InteractionKind) Category() InteractionCategory {
	switch k {
	case KindHerbivore, KindPredator, KindEntomopathogenicFungus:
		return CategoryPestControl
	case KindPathogen, KindMycoparasite:
		return CategoryDiseaseSuppression
	case KindPollinator:
		return CategoryPollination
	case KindMycorrhizalAMF, KindMycorrhizalEMF, KindEndophytic, KindSaprotrophic:
		return CategoryBeneficialFungi
	default:
		panic(fmt.Sprintf("guild: interaction kind %d has no category", uint8(k)))
	}
}

// ParseInteractionKind accepts the canonical spellings case-insensitively, with '_' or ' ' for '-'.
func ParseInteractionKind(s string) (InteractionKind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	switch norm {
	case "herbivore":
		return KindHerbivore, nil
	case "predator":
		return KindPredator, nil
	case "pathogen":
		return KindPathogen, nil
	case "mycoparasite":
		return KindMycoparasite, nil
	case "pollinator":
		return KindPollinator, nil
	case "mycorrhizal-amf", "amf":
		return KindMycorrhizalAMF, nil
	case "mycorrhizal-emf", "emf":
		return KindMycorrhizalEMF, nil
	case "endophytic":
		return KindEndophytic, nil
	case "saprotrophic":
		return KindSaprotrophic, nil
	case "entomopathogenic-fungus", "entomopathogen":
		return KindEntomopathogenicFungus, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", core.ErrUnknownInteractionKind, s)
	}
}

// InteractionCategory groups kinds into the four network categories that are scored.
type InteractionCategory string

const (
	CategoryPestControl        InteractionCategory = "pest_control"
	CategoryDiseaseSuppression InteractionCategory = "disease_suppression"
	CategoryPollination        InteractionCategory = "pollination"
	CategoryBeneficialFungi    InteractionCategory = "beneficial_fungi"
)

// AllCategories lists the categories in scoring order.
func AllCategories() []InteractionCategory {
	return []InteractionCategory{
		CategoryPestControl, CategoryDiseaseSuppression, CategoryBeneficialFungi, CategoryPollination,
	}
}

// ParseInteractionCategory accepts the snake_case or hyphenated spelling.
func ParseInteractionCategory(s string) (InteractionCategory, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, c := range AllCategories() {
		if string(c) == norm {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown interaction category %q", core.ErrInvalidRecord, s)
}

// InteractionRecord is one documented plant–organism relation.
type InteractionRecord struct {
	PlantID      string              `json:"plant_id" db:"plant_id"`
	PartnerTaxon string              `json:"partner_taxon" db:"partner_taxon"`
	Kind         InteractionKind     `json:"kind" db:"kind"`
	Category     InteractionCategory `json:"category" db:"category"`
}

// Normalized returns the record with Category derived from Kind when unset.
func (r InteractionRecord) Normalized() InteractionRecord {
	if r.Category == "" {
		r.Category = r.Kind.Category()
	}
	return r
}

// KnownMechanismRecord is a validated antagonist→target pair, e.g. predator→pest or antagonist→pathogen.
type KnownMechanismRecord struct {
	Target     string              `json:"target" db:"target_taxon"`
	Antagonist string              `json:"antagonist" db:"antagonist_taxon"`
	Category   InteractionCategory `json:"category" db:"category"`
}

// PlantTraits carries per-plant trait values. A nil field means the value is undocumented.
type PlantTraits struct {
	PlantID         string   `json:"plant_id" db:"plant_id"`
	HeightM         *float64 `json:"height_m,omitempty" db:"height_m"`
	LightPreference *float64 `json:"light_preference,omitempty" db:"light_preference"`
	Competitive     *float64 `json:"csr_c,omitempty" db:"csr_c"`
	StressTolerant  *float64 `json:"csr_s,omitempty" db:"csr_s"`
	Ruderal         *float64 `json:"csr_r,omitempty" db:"csr_r"`
	PHMin           *float64 `json:"ph_min,omitempty" db:"ph_min"`
	PHMax           *float64 `json:"ph_max,omitempty" db:"ph_max"`
	HardinessMin    *float64 `json:"hardiness_min,omitempty" db:"hardiness_min"`
	HardinessMax    *float64 `json:"hardiness_max,omitempty" db:"hardiness_max"`
}

// HasCSR reports whether all three strategy percentiles are documented.
func (p PlantTraits) HasCSR() bool {
	return p.Competitive != nil && p.StressTolerant != nil && p.Ruderal != nil
}

// TraitTable indexes traits by plant identifier. It is built once and read concurrently.
type TraitTable map[string]PlantTraits

// NewTraitTable indexes a trait slice; later rows for the same plant win.
func NewTraitTable(rows []PlantTraits) TraitTable {
	table := make(TraitTable, len(rows))
	for _, r := range rows {
		table[r.PlantID] = r
	}
	return table
}

// Float is a convenience for building optional trait values.
func Float(v float64) *float64 { return &v }
