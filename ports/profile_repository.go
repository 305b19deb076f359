package ports

import (
	"context"
	"time"

	"guildscore/domain/core"
	"guildscore/domain/normalization"
)

// ProfileRepository persists calibrated normalization profile sets. Sets are immutable once saved.
type ProfileRepository interface {
	Save(ctx context.Context, set *normalization.ProfileSet) error
	Get(ctx context.Context, id core.ProfileSetID) (*normalization.ProfileSet, error)
	Latest(ctx context.Context) (*normalization.ProfileSet, error)
	List(ctx context.Context, limit int) ([]ProfileSetSummary, error)
}

// ProfileSetSummary is a listing row
type ProfileSetSummary struct {
	ID           core.ProfileSetID `json:"id" db:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	Seed         int64             `json:"seed" db:"seed"`
	SampleSize   int               `json:"sample_size" db:"sample_size"`
	Hash         core.Hash         `json:"hash" db:"hash"`
	ProfileCount int               `json:"profile_count" db:"profile_count"`
}
