package database

import (
	"fmt"
	"log"
	"strings"

	"github.com/Akinaru/event-poll/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const memoryDSN = ":memory:?_pragma=foreign_keys(1)"

var DB *gorm.DB

// Connect initializes the database connection.
// An empty databaseURL selects an in-memory SQLite database.
func Connect(databaseURL string, verbose bool) error {
	logLevel := logger.Warn
	if verbose {
		logLevel = logger.Info
	}

	db, err := Open(databaseURL, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	DB = db

	log.Printf("✅ Database connected successfully (%s)", DB.Dialector.Name())

	// Auto-migrate models
	if err := Migrate(DB); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	return nil
}

// Open opens a gorm handle for databaseURL without touching DB
func Open(databaseURL string, cfg *gorm.Config) (*gorm.DB, error) {
	dialector, inMemory := dialectorFor(databaseURL)

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, err
	}

	if inMemory {
		// Every new connection to :memory: is a new, empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// dialectorFor maps a URL to a driver: postgres URLs/DSNs go to postgres,
// empty, sqlite: and file: URLs to SQLite with foreign keys enforced.
func dialectorFor(databaseURL string) (gorm.Dialector, bool) {
	switch {
	case databaseURL == "":
		return sqlite.Open(memoryDSN), true
	case strings.HasPrefix(databaseURL, "sqlite:"):
		return sqlite.Open(withForeignKeys(strings.TrimPrefix(databaseURL, "sqlite:"))), false
	case strings.HasPrefix(databaseURL, "file:"):
		dsn := withForeignKeys(databaseURL)
		return sqlite.Open(dsn), strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
	default:
		return postgres.Open(databaseURL), false
	}
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_pragma=foreign_keys(1)"
	}
	return dsn + "?_pragma=foreign_keys(1)"
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Poll{},
		&models.Vote{},
	)
}

// Close closes the database connection
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
