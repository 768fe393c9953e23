package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kidopedia/kidopedia/internal/database/achievements"
	"github.com/kidopedia/kidopedia/internal/database/syncmeta"
	"github.com/kidopedia/kidopedia/internal/entities"
	"github.com/kidopedia/kidopedia/internal/logger"
)

// InMemoryPath opens a private in-memory database.
const InMemoryPath = ":memory:"

type Database struct {
	DB  *gorm.DB
	log *logger.Logger
}

// NewDatabase opens (or creates) the sqlite database at dbPath, migrates the
// schema, seeds the achievement catalog and records the schema version.
func NewDatabase(dbPath string, log *logger.Logger) (*Database, error) {
	dsn := dbPath
	if dbPath != InMemoryPath {
		dsn = dbPath + "?_journal=WAL&_busy_timeout=5000"
	}
	return open(dsn, gormlogger.Warn, logger.OrNop(log).With("db", dbPath))
}

// NewInMemory opens a throwaway database that lives as long as the returned
// handle. Used by tests and by commands that do not need persistence.
func NewInMemory() (*Database, error) {
	return open(InMemoryPath, gormlogger.Silent, logger.Nop())
}

func open(dsn string, level gormlogger.LogLevel, log *logger.Logger) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection serializes writers and keeps an in-memory database alive.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.AutoMigrate(Models()...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db, log: log}

	if err := achievements.NewRepository(db).Seed(achievements.Catalog); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to seed achievements: %w", err)
	}
	if err := syncmeta.NewRepository(db).SetIfAbsent(entities.MetaKeySchemaVersion, entities.SchemaVersion); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to record schema version: %w", err)
	}

	log.Info("database initialized")
	return database, nil
}

// Models lists every persisted entity in migration order.
func Models() []interface{} {
	return []interface{}{
		&entities.Word{},
		&entities.WordPrefix{},
		&entities.Profile{},
		&entities.WordProgress{},
		&entities.Achievement{},
		&entities.ProfileAchievement{},
		&entities.DailyStreak{},
		&entities.RecentSearch{},
		&entities.SyncMetadata{},
	}
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
