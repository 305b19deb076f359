package tables

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"guildscore/domain/core"
	"guildscore/domain/guild"
	"guildscore/internal"
)

// ReadInteractions parses an interaction table with columns plant_id, partner_taxon, kind and an
// optional category. The category, when given, must agree with the kind.
func ReadInteractions(path string) ([]guild.InteractionRecord, error) {
	s, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	plantCol, err := s.require("plant_id", "plant")
	if err != nil {
		return nil, err
	}
	partnerCol, err := s.require("partner_taxon", "partner")
	if err != nil {
		return nil, err
	}
	kindCol, err := s.require("kind", "interaction_kind")
	if err != nil {
		return nil, err
	}
	categoryCol, hasCategory := s.column("category")

	records := make([]guild.InteractionRecord, 0, len(s.rows))
	for i, row := range s.rows {
		if blank(row) {
			continue
		}
		rec := guild.InteractionRecord{PlantID: cell(row, plantCol), PartnerTaxon: cell(row, partnerCol)}
		if rec.PlantID == "" || rec.PartnerTaxon == "" {
			return nil, core.NewInvalidRecordError(s.source, s.line(i), "plant_id and partner_taxon are required")
		}
		rec.Kind, err = guild.ParseInteractionKind(cell(row, kindCol))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.source, s.line(i), err)
		}
		if hasCategory && cell(row, categoryCol) != "" {
			rec.Category, err = guild.ParseInteractionCategory(cell(row, categoryCol))
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", s.source, s.line(i), err)
			}
			if rec.Category != rec.Kind.Category() {
				return nil, core.NewInvalidRecordError(s.source, s.line(i),
					fmt.Sprintf("kind %s belongs to %s, not %s", rec.Kind, rec.Kind.Category(), rec.Category))
			}
		}
		records = append(records, rec.Normalized())
	}
	return records, nil
}

// ReadMechanisms parses a known-mechanism table with columns target_taxon, antagonist_taxon, category.
func ReadMechanisms(path string) ([]guild.KnownMechanismRecord, error) {
	s, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	targetCol, err := s.require("target_taxon", "target")
	if err != nil {
		return nil, err
	}
	antagonistCol, err := s.require("antagonist_taxon", "antagonist")
	if err != nil {
		return nil, err
	}
	categoryCol, err := s.require("category")
	if err != nil {
		return nil, err
	}

	records := make([]guild.KnownMechanismRecord, 0, len(s.rows))
	for i, row := range s.rows {
		if blank(row) {
			continue
		}
		m := guild.KnownMechanismRecord{Target: cell(row, targetCol), Antagonist: cell(row, antagonistCol)}
		if m.Target == "" || m.Antagonist == "" {
			return nil, core.NewInvalidRecordError(s.source, s.line(i), "target_taxon and antagonist_taxon are required")
		}
		m.Category, err = guild.ParseInteractionCategory(cell(row, categoryCol))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.source, s.line(i), err)
		}
		if m.Category != guild.CategoryPestControl && m.Category != guild.CategoryDiseaseSuppression {
			return nil, core.NewInvalidRecordError(s.source, s.line(i),
				fmt.Sprintf("mechanism category must be pest_control or disease_suppression, got %s", m.Category))
		}
		records = append(records, m)
	}
	return records, nil
}

// traitColumns lists the optional numeric trait columns in PlantTraits field order.
var traitColumns = []string{
	"height_m", "light_preference", "csr_c", "csr_s", "csr_r",
	"ph_min", "ph_max", "hardiness_min", "hardiness_max",
}

// ReadTraits parses a trait table keyed by plant_id. Any numeric column may be absent or blank;
// "NA" and "NaN" also read as undocumented.
func ReadTraits(path string) ([]guild.PlantTraits, error) {
	s, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	plantCol, err := s.require("plant_id", "plant")
	if err != nil {
		return nil, err
	}
	cols := make([]int, len(traitColumns))
	for j, name := range traitColumns {
		cols[j], _ = s.column(name)
	}

	rows := make([]guild.PlantTraits, 0, len(s.rows))
	for i, row := range s.rows {
		if blank(row) {
			continue
		}
		t := guild.PlantTraits{PlantID: cell(row, plantCol)}
		if t.PlantID == "" {
			return nil, core.NewInvalidRecordError(s.source, s.line(i), "plant_id is required")
		}
		fields := []**float64{
			&t.HeightM, &t.LightPreference, &t.Competitive, &t.StressTolerant, &t.Ruderal,
			&t.PHMin, &t.PHMax, &t.HardinessMin, &t.HardinessMax,
		}
		for j, col := range cols {
			v, err := parseOptional(cell(row, col))
			if err != nil {
				return nil, core.NewInvalidRecordError(s.source, s.line(i), fmt.Sprintf("%s: %v", traitColumns[j], err))
			}
			*fields[j] = v
		}
		if err := checkRanges(t); err != nil {
			return nil, core.NewInvalidRecordError(s.source, s.line(i), err.Error())
		}
		rows = append(rows, t)
	}
	return rows, nil
}

func parseOptional(v string) (*float64, error) {
	switch strings.ToLower(v) {
	case "", "na", "nan", "null":
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", v)
	}
	if math.IsInf(f, 0) {
		return nil, fmt.Errorf("not finite: %q", v)
	}
	return &f, nil
}

func checkRanges(t guild.PlantTraits) error {
	if t.HeightM != nil && *t.HeightM < 0 {
		return fmt.Errorf("height_m must not be negative")
	}
	for _, p := range []*float64{t.Competitive, t.StressTolerant, t.Ruderal} {
		if p != nil && (*p < 0 || *p > 100) {
			return fmt.Errorf("CSR percentiles must lie in [0,100]")
		}
	}
	if t.PHMin != nil && t.PHMax != nil && *t.PHMin > *t.PHMax {
		return fmt.Errorf("ph_min exceeds ph_max")
	}
	if t.HardinessMin != nil && t.HardinessMax != nil && *t.HardinessMin > *t.HardinessMax {
		return fmt.Errorf("hardiness_min exceeds hardiness_max")
	}
	return nil
}

// Source serves the three reference tables from files. An empty path yields an empty table.
type Source struct {
	InteractionsPath string
	MechanismsPath   string
	TraitsPath       string
}

// Interactions implements ports.DatasetSource
func (s Source) Interactions(ctx context.Context) ([]guild.InteractionRecord, error) {
	if err := ctx.Err(); err != nil || s.InteractionsPath == "" {
		return nil, err
	}
	records, err := ReadInteractions(s.InteractionsPath)
	if err != nil {
		return nil, err
	}
	internal.DefaultLogger.Info("[TableReader] Loaded %d interaction records", len(records))
	return records, nil
}

// Mechanisms implements ports.DatasetSource
func (s Source) Mechanisms(ctx context.Context) ([]guild.KnownMechanismRecord, error) {
	if err := ctx.Err(); err != nil || s.MechanismsPath == "" {
		return nil, err
	}
	records, err := ReadMechanisms(s.MechanismsPath)
	if err != nil {
		return nil, err
	}
	internal.DefaultLogger.Info("[TableReader] Loaded %d known mechanisms", len(records))
	return records, nil
}

// Traits implements ports.DatasetSource
func (s Source) Traits(ctx context.Context) ([]guild.PlantTraits, error) {
	if err := ctx.Err(); err != nil || s.TraitsPath == "" {
		return nil, err
	}
	rows, err := ReadTraits(s.TraitsPath)
	if err != nil {
		return nil, err
	}
	internal.DefaultLogger.Info("[TableReader] Loaded traits for %d plants", len(rows))
	return rows, nil
}

// ReadStrata parses a plant_id,stratum table into per-stratum species pools. A plant may
// belong to several strata.
func ReadStrata(path string) (map[string][]string, error) {
	s, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	plantCol, err := s.require("plant_id", "plant")
	if err != nil {
		return nil, err
	}
	stratumCol, err := s.require("stratum", "region", "climate")
	if err != nil {
		return nil, err
	}

	strata := make(map[string][]string)
	seen := make(map[[2]string]bool)
	for i, row := range s.rows {
		if blank(row) {
			continue
		}
		plant, stratum := cell(row, plantCol), cell(row, stratumCol)
		if plant == "" || stratum == "" {
			return nil, core.NewInvalidRecordError(s.source, s.line(i), "plant_id and stratum are required")
		}
		key := [2]string{stratum, plant}
		if seen[key] {
			continue
		}
		seen[key] = true
		strata[stratum] = append(strata[stratum], plant)
	}
	return strata, nil
}
