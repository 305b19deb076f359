package ports

import (
	"context"

	"guildscore/domain/guild"
)

// DatasetSource provides the reference tables the scoring engine indexes at startup.
type DatasetSource interface {
	Interactions(ctx context.Context) ([]guild.InteractionRecord, error)
	Mechanisms(ctx context.Context) ([]guild.KnownMechanismRecord, error)
	Traits(ctx context.Context) ([]guild.PlantTraits, error)
}

// DatasetRepository defines the interface for dataset storage operations
type DatasetRepository interface {
	DatasetSource

	// Replace* swap a whole table atomically
	ReplaceInteractions(ctx context.Context, records []guild.InteractionRecord) error
	ReplaceMechanisms(ctx context.Context, records []guild.KnownMechanismRecord) error
	ReplaceTraits(ctx context.Context, rows []guild.PlantTraits) error
}
