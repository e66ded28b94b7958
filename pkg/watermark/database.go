package watermark

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/sujan-004/etl-pipeline-project/internal/repositories/watermark"
	"github.com/sujan-004/etl-pipeline-project/pkg/database"
)

// DatabaseStore keeps one row per pipeline in etl_watermarks.
type DatabaseStore struct {
	pipeline string
	repo     *watermark.Repository
}

// NewDatabaseStore binds the store to pipeline's row.
func NewDatabaseStore(db database.DB, pipeline string, logger ectologger.Logger) *DatabaseStore {
	return &DatabaseStore{
		pipeline: pipeline,
		repo:     watermark.NewRepository(db, db.Flavor(), logger),
	}
}

func (s *DatabaseStore) Load(ctx context.Context) (*time.Time, error) {
	return s.repo.Get(ctx, s.pipeline)
}

func (s *DatabaseStore) Save(ctx context.Context, wm time.Time) error {
	return s.repo.Set(ctx, s.pipeline, wm)
}

func (s *DatabaseStore) Name() string {
	return BackendDatabase
}
