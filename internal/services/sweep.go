package services

import (
	"time"

	"github.com/dsolisav/designio/internal/models"
	"github.com/dsolisav/designio/internal/storage"
	"github.com/dsolisav/designio/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// StorageSweeper reclaims orphaned blobs: uploads whose project insert
// failed after compensation also failed, or whose file row was never
// written. A blob is an orphan when no files row references its key.
type StorageSweeper struct {
	db     *gorm.DB
	store  storage.Store
	minAge time.Duration
}

func NewStorageSweeper(db *gorm.DB, store storage.Store) *StorageSweeper {
	return &StorageSweeper{db: db, store: store, minAge: 24 * time.Hour}
}

// Sweep deletes unreferenced blobs older than the minimum age and
// returns the number removed. The age floor keeps in-flight creation
// sagas out of reach.
func (s *StorageSweeper) Sweep() (int, error) {
	keys, err := s.store.ListOlderThan(time.Now().Add(-s.minAge))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		var count int64
		if err := s.db.Model(&models.ProjectFile{}).
			Where("file_path = ?", key).Count(&count).Error; err != nil {
			return removed, err
		}
		if count > 0 {
			continue
		}
		if err := s.store.Delete(key); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("sweep delete failed")
			continue
		}
		removed++
	}
	return removed, nil
}

// StartStorageSweepScheduler runs the orphan sweep nightly.
func StartStorageSweepScheduler(db *gorm.DB, store storage.Store) *cron.Cron {
	sweeper := NewStorageSweeper(db, store)
	c := cron.New()
	c.AddFunc("30 3 * * *", func() {
		removed, err := sweeper.Sweep()
		if err != nil {
			logger.Error().Err(err).Msg("storage sweep failed")
			return
		}
		if removed > 0 {
			logger.Info().Int("removed", removed).Msg("storage sweep")
		}
	})
	c.Start()
	return c
}
