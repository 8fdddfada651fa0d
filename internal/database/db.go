package database

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bambinounos/eia/internal/database/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens the database behind the given URL and runs migrations.
// A postgres DSN selects the postgres driver; anything else is treated as
// a sqlite file path.
func Initialize(databaseURL string) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Translate driver-specific unique violations into
		// gorm.ErrDuplicatedKey so the ledger claim can detect conflicts
		// without driver-dependent string matching.
		TranslateError: true,
	}

	var db *gorm.DB
	var err error
	if isPostgresURL(databaseURL) {
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	} else {
		// Ensure the directory for the sqlite file exists
		if dir := filepath.Dir(databaseURL); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		db, err = gorm.Open(sqlite.Open(databaseURL), gormConfig)
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func isPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://") ||
		strings.Contains(url, "host=")
}

// Migrate runs all database migrations. The composite unique index on
// processed_emails(account, uid, folder) is the linchpin of the
// at-most-once processing guarantee and must exist before any scan runs.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ProcessedEmail{},
		&models.Opportunity{},
		&models.OpportunityProduct{},
		&models.ScanLog{},
	)
}
