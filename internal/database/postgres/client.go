package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewGormDB открывает gorm поверх уже настроенного пула соединений, чтобы
// пользователи и рецепты работали с одним набором подключений.
func NewGormDB(sqlDB *sql.DB, logger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		logger.Error("failed to initialize gorm", "error", err)
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	logger.Info("gorm initialized on shared connection pool")
	return db, nil
}
