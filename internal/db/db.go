package db

import (
	"fmt"
	"time"

	"pong-platform/backend/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
}

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func New(cfg Config) (*DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &DB{gdb}, nil
}

// AutoMigrate creates or updates every table this platform owns. The
// server runs it on every start, after the optional raw SQL migrations
// in internal/migrations (MIGRATE_ON_START).
func (d *DB) AutoMigrate() error {
	return d.DB.AutoMigrate(
		&models.Player{},
		&models.PongGame{},
		&models.GameRequest{},
		&models.Tournament{},
		&models.TournamentGame{},
		&models.RefreshBlacklist{},
		&models.Block{},
		&models.Friendship{},
	)
}

func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
