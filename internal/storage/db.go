package storage

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clipforge/config"
	"clipforge/internal/appdirs"
	"clipforge/internal/types"
	"clipforge/log"
)

var DB *gorm.DB

// dbPathResolver is a variable so tests can point the database at a temp dir.
var dbPathResolver = func() string {
	return config.Conf.App.DBPath
}

func InitDB() {
	dbPath := dbPathResolver()
	if dbPath == "" {
		var err error
		if dbPath, err = appdirs.ResolveDBPath(); err != nil {
			log.GetLogger().Fatal("failed to resolve database path", zap.Error(err))
		}
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.GetLogger().Fatal("failed to create database directory", zap.String("dir", dir), zap.Error(err))
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.GetLogger().Fatal("failed to connect database", zap.Error(err))
	}

	if err = DB.AutoMigrate(&types.ClipTask{}, &types.ClipInfo{}); err != nil {
		log.GetLogger().Fatal("failed to migrate database", zap.Error(err))
	}

	log.GetLogger().Info("Database initialized successfully", zap.String("path", dbPath))
}
