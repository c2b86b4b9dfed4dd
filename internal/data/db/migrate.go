package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/trailhead-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity
		&types.UserAccount{},
		&types.UserToken{},
		&types.Profile{},

		// Catalog
		&types.City{},
		&types.Route{},
		&types.Tag{},
		&types.RouteTag{},
		&types.RouteSection{},

		// Hiking
		&types.Itinerary{},
		&types.HikingRecord{},
		&types.Media{},
		&types.Favorite{},
		&types.CheckInAttempt{},

		// Compensation ledger
		&types.SagaRun{},
		&types.SagaAction{},
	)
}

// EnsureHikingIndexes adds the partial indexes AutoMigrate cannot express. Postgres only.
func EnsureHikingIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_itinerary_user_visible
		ON itinerary (user_id, created_at)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_itinerary_user_visible: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_itinerary_pending_route
		ON itinerary (user_id, route_id)
		WHERE deleted_at IS NULL AND status = 'Pending';
	`).Error; err != nil {
		return fmt.Errorf("create idx_itinerary_pending_route: %w", err)
	}
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_user_account_email_lower
		ON user_account (lower(email))
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_user_account_email_lower: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "dialect", s.dialect)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if s.dialect != DialectPostgres {
		return nil
	}
	if err := EnsureHikingIndexes(s.db); err != nil {
		s.log.Error("Hiking index migration failed", "error", err)
		return err
	}
	return nil
}
