// Package network matches a guild against documented plant–organism interactions and
// known biocontrol mechanisms.
package network

import (
	"fmt"
	"sort"
	"strings"

	"guildscore/domain/core"
	"guildscore/domain/guild"
)

// role is what a partner organism does relative to the plant.
type role uint8

const (
	roleTarget     role = iota + 1 // pest or pathogen attacking the plant
	roleAntagonist                 // natural enemy of a pest or pathogen
	roleMutualist                  // pollinator or beneficial fungus
)

// kindRole must list every InteractionKind; an unknown kind is a parse-time error.
func kindRole(k guild.InteractionKind) (role, error) {
	switch k {
	case guild.KindHerbivore, guild.KindPathogen:
		return roleTarget, nil
	case guild.KindPredator, guild.KindEntomopathogenicFungus, guild.KindMycoparasite:
		return roleAntagonist, nil
	case guild.KindPollinator, guild.KindMycorrhizalAMF, guild.KindMycorrhizalEMF,
		guild.KindEndophytic, guild.KindSaprotrophic:
		return roleMutualist, nil
	case guild.KindUnknown:
		return 0, fmt.Errorf("%w: kind is unset", core.ErrUnknownInteractionKind)
	default:
		return 0, fmt.Errorf("%w: %d", core.ErrUnknownInteractionKind, uint8(k))
	}
}

func categorySlot(c guild.InteractionCategory) (int, bool) {
	switch c {
	case guild.CategoryPestControl:
		return 0, true
	case guild.CategoryDiseaseSuppression:
		return 1, true
	case guild.CategoryBeneficialFungi:
		return 2, true
	case guild.CategoryPollination:
		return 3, true
	}
	return 0, false
}

type partner struct {
	taxon string
	kind  guild.InteractionKind
	role  role
}

type plantEntry [4][]partner

type mechanismKey struct {
	target   string
	category guild.InteractionCategory
}

// Index is built once from the interaction and mechanism tables and is read concurrently.
type Index struct {
	byPlant        map[string]*plantEntry
	antagonists    map[mechanismKey][]string
	antagonistTaxa map[string]struct{}
	records        int
	mechanisms     int
}

// NewIndex validates and indexes the tables. Duplicate rows are collapsed.
func NewIndex(records []guild.InteractionRecord, mechanisms []guild.KnownMechanismRecord) (*Index, error) {
	idx := &Index{
		byPlant:        make(map[string]*plantEntry),
		antagonists:    make(map[mechanismKey][]string),
		antagonistTaxa: make(map[string]struct{}),
	}

	type recordKey struct {
		plant, taxon string
		kind         guild.InteractionKind
	}
	seen := make(map[recordKey]struct{}, len(records))

	for i, rec := range records {
		plant := strings.TrimSpace(rec.PlantID)
		taxon := strings.TrimSpace(rec.PartnerTaxon)
		if plant == "" || taxon == "" {
			return nil, core.NewInvalidRecordError("interactions", i+1, "plant and partner taxon are required")
		}
		r, err := kindRole(rec.Kind)
		if err != nil {
			return nil, fmt.Errorf("interactions row %d: %w", i+1, err)
		}
		category := rec.Kind.Category()
		if rec.Category != "" && rec.Category != category {
			return nil, core.NewInvalidRecordError("interactions", i+1,
				fmt.Sprintf("kind %s belongs to %s, not %s", rec.Kind, category, rec.Category))
		}
		key := recordKey{plant, taxon, rec.Kind}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		entry := idx.byPlant[plant]
		if entry == nil {
			entry = &plantEntry{}
			idx.byPlant[plant] = entry
		}
		slot, _ := categorySlot(category)
		entry[slot] = append(entry[slot], partner{taxon: taxon, kind: rec.Kind, role: r})
		idx.records++
	}

	for i, m := range mechanisms {
		target := strings.TrimSpace(m.Target)
		antagonist := strings.TrimSpace(m.Antagonist)
		if target == "" || antagonist == "" {
			return nil, core.NewInvalidRecordError("known_mechanisms", i+1, "target and antagonist are required")
		}
		if m.Category != guild.CategoryPestControl && m.Category != guild.CategoryDiseaseSuppression {
			return nil, core.NewInvalidRecordError("known_mechanisms", i+1,
				fmt.Sprintf("category %q is not pest_control or disease_suppression", m.Category))
		}
		key := mechanismKey{target: target, category: m.Category}
		if containsString(idx.antagonists[key], antagonist) {
			continue
		}
		idx.antagonists[key] = append(idx.antagonists[key], antagonist)
		idx.antagonistTaxa[antagonist] = struct{}{}
		idx.mechanisms++
	}
	for _, list := range idx.antagonists {
		sort.Strings(list)
	}
	return idx, nil
}

// HasPlant reports whether any interaction is documented for plant.
func (idx *Index) HasPlant(plant string) bool {
	_, ok := idx.byPlant[plant]
	return ok
}

// Plants returns every plant with at least one record, sorted.
func (idx *Index) Plants() []string {
	out := make([]string, 0, len(idx.byPlant))
	for p := range idx.byPlant {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RecordCount returns the number of distinct interaction records.
func (idx *Index) RecordCount() int { return idx.records }

// MechanismCount returns the number of distinct known mechanisms.
func (idx *Index) MechanismCount() int { return idx.mechanisms }

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
