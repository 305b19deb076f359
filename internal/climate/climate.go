// Package climate flags guilds whose members cannot share a soil or a climate. Its warnings are
// informational and never enter the composite score.
package climate

import (
	"fmt"
	"sort"

	"guildscore/domain/guild"
	"guildscore/domain/score"
)

// Window is the tolerance range shared by every documented member.
type Window struct {
	Min        float64  `json:"min"`
	Max        float64  `json:"max"`
	Documented []string `json:"documented"`
	// MinBy and MaxBy name the members setting each bound
	MinBy string `json:"min_by"`
	MaxBy string `json:"max_by"`
}

// Overlaps reports whether the shared range is non-empty.
func (w Window) Overlaps() bool { return w.Min <= w.Max }

// Report holds the shared soil pH and hardiness windows. A nil window means fewer than two
// members document that range.
type Report struct {
	PH        *Window `json:"ph,omitempty"`
	Hardiness *Window `json:"hardiness,omitempty"`
}

// Analyze intersects the documented pH and hardiness ranges of the guild.
func Analyze(g guild.Guild, table guild.TraitTable) Report {
	return Report{
		PH: intersect(g, table, func(t guild.PlantTraits) (*float64, *float64) {
			return t.PHMin, t.PHMax
		}),
		Hardiness: intersect(g, table, func(t guild.PlantTraits) (*float64, *float64) {
			return t.HardinessMin, t.HardinessMax
		}),
	}
}

// Check returns one warning per range that the members cannot share.
func Check(g guild.Guild, table guild.TraitTable) []score.Warning {
	report := Analyze(g, table)
	var warnings []score.Warning
	if w := report.PH; w != nil && !w.Overlaps() {
		warnings = append(warnings, mismatch(score.WarningSoilMismatch, "soil pH", w))
	}
	if w := report.Hardiness; w != nil && !w.Overlaps() {
		warnings = append(warnings, mismatch(score.WarningClimateMismatch, "hardiness", w))
	}
	return warnings
}

func intersect(g guild.Guild, table guild.TraitTable, bounds func(guild.PlantTraits) (*float64, *float64)) *Window {
	var w *Window
	for _, id := range g.Species() {
		t, ok := table[id]
		if !ok {
			continue
		}
		lo, hi := bounds(t)
		if lo == nil || hi == nil {
			continue
		}
		if w == nil {
			w = &Window{Min: *lo, Max: *hi, MinBy: id, MaxBy: id}
		} else {
			if *lo > w.Min {
				w.Min, w.MinBy = *lo, id
			}
			if *hi < w.Max {
				w.Max, w.MaxBy = *hi, id
			}
		}
		w.Documented = append(w.Documented, id)
	}
	if w == nil || len(w.Documented) < 2 {
		return nil
	}
	return w
}

func mismatch(kind score.WarningKind, what string, w *Window) score.Warning {
	species := []string{w.MinBy, w.MaxBy}
	sort.Strings(species)
	return score.Warning{
		Kind:    kind,
		Species: species,
		Count:   len(w.Documented),
		Message: fmt.Sprintf("%s ranges do not overlap: %s needs at least %.1f but %s tolerates at most %.1f",
			what, w.MinBy, w.Min, w.MaxBy, w.Max),
	}
}
