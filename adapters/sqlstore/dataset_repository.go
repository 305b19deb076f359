package sqlstore

import (
	"context"
	"fmt"

	"guildscore/domain/guild"
	"guildscore/ports"

	"github.com/jmoiron/sqlx"
)

// datasetRepository implements the DatasetRepository interface
type datasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *sqlx.DB) ports.DatasetRepository {
	return &datasetRepository{db: db}
}

// Interactions returns every stored interaction record
func (r *datasetRepository) Interactions(ctx context.Context) ([]guild.InteractionRecord, error) {
	var records []guild.InteractionRecord
	err := r.db.SelectContext(ctx, &records, `SELECT plant_id, partner_taxon, kind, category
		FROM interactions ORDER BY plant_id, partner_taxon, kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to load interactions: %w", err)
	}
	return records, nil
}

// Mechanisms returns every stored known mechanism
func (r *datasetRepository) Mechanisms(ctx context.Context) ([]guild.KnownMechanismRecord, error) {
	var records []guild.KnownMechanismRecord
	err := r.db.SelectContext(ctx, &records, `SELECT target_taxon, antagonist_taxon, category
		FROM known_mechanisms ORDER BY target_taxon, antagonist_taxon`)
	if err != nil {
		return nil, fmt.Errorf("failed to load known mechanisms: %w", err)
	}
	return records, nil
}

// Traits returns every stored trait row
func (r *datasetRepository) Traits(ctx context.Context) ([]guild.PlantTraits, error) {
	var rows []guild.PlantTraits
	err := r.db.SelectContext(ctx, &rows, `SELECT plant_id, height_m, light_preference, csr_c, csr_s, csr_r,
		ph_min, ph_max, hardiness_min, hardiness_max
	FROM plant_traits ORDER BY plant_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load plant traits: %w", err)
	}
	return rows, nil
}

// ReplaceInteractions swaps the interactions table
func (r *datasetRepository) ReplaceInteractions(ctx context.Context, records []guild.InteractionRecord) error {
	return r.replace(ctx, "interactions",
		`INSERT INTO interactions (plant_id, partner_taxon, kind, category) VALUES (?, ?, ?, ?)
		ON CONFLICT (plant_id, partner_taxon, kind) DO NOTHING`,
		len(records), func(stmt *sqlx.Stmt, i int) error {
			if _, err := records[i].Kind.MarshalText(); err != nil {
				return err
			}
			rec := records[i].Normalized()
			_, err := stmt.ExecContext(ctx, rec.PlantID, rec.PartnerTaxon, rec.Kind, string(rec.Category))
			return err
		})
}

// ReplaceMechanisms swaps the known_mechanisms table
func (r *datasetRepository) ReplaceMechanisms(ctx context.Context, records []guild.KnownMechanismRecord) error {
	return r.replace(ctx, "known_mechanisms",
		`INSERT INTO known_mechanisms (target_taxon, antagonist_taxon, category) VALUES (?, ?, ?)
		ON CONFLICT (target_taxon, antagonist_taxon, category) DO NOTHING`,
		len(records), func(stmt *sqlx.Stmt, i int) error {
			m := records[i]
			_, err := stmt.ExecContext(ctx, m.Target, m.Antagonist, string(m.Category))
			return err
		})
}

// ReplaceTraits swaps the plant_traits table; later rows for a plant overwrite earlier ones
func (r *datasetRepository) ReplaceTraits(ctx context.Context, rows []guild.PlantTraits) error {
	return r.replace(ctx, "plant_traits",
		`INSERT INTO plant_traits (
			plant_id, height_m, light_preference, csr_c, csr_s, csr_r, ph_min, ph_max, hardiness_min, hardiness_max
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (plant_id) DO UPDATE SET
			height_m = excluded.height_m,
			light_preference = excluded.light_preference,
			csr_c = excluded.csr_c,
			csr_s = excluded.csr_s,
			csr_r = excluded.csr_r,
			ph_min = excluded.ph_min,
			ph_max = excluded.ph_max,
			hardiness_min = excluded.hardiness_min,
			hardiness_max = excluded.hardiness_max`,
		len(rows), func(stmt *sqlx.Stmt, i int) error {
			t := rows[i]
			_, err := stmt.ExecContext(ctx, t.PlantID, t.HeightM, t.LightPreference, t.Competitive, t.StressTolerant,
				t.Ruderal, t.PHMin, t.PHMax, t.HardinessMin, t.HardinessMax)
			return err
		})
}

func (r *datasetRepository) replace(ctx context.Context, table, insert string, n int, exec func(*sqlx.Stmt, int) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	stmt, err := tx.PreparexContext(ctx, r.db.Rebind(insert))
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("failed to insert %s row %d: %w", table, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}
