package database

import (
	"fmt"

	"github.com/Baaaki/pet-adoption/internal/config"
	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/Baaaki/pet-adoption/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the store named by cfg. The handle is safe for concurrent use
// and is shared by every repository.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		dialector = postgres.Open(cfg.DatabaseURL)
	}

	logLevel := gormlogger.Warn
	if cfg.IsProduction() {
		logLevel = gormlogger.Error
	}

	db, err := Open(dialector, logLevel)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Database connected successfully",
		zap.String("driver", cfg.DatabaseDriver),
	)
	return db, nil
}

// Open is shared with tests. TranslateError turns unique violations into
// gorm.ErrDuplicatedKey on both drivers.
func Open(dialector gorm.Dialector, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Pet{},
		&models.PetInterest{},
		&models.PetFavorite{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	logger.Log.Info("Database migration completed")
	return nil
}
