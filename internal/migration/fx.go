package migration

import (
	"github.com/smallbiznis/shoecare/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run migrates the configured database before services start.
func Run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if cfg.DBType != "postgres" {
		log.Info("applying schema with gorm automigrate", zap.String("db_type", cfg.DBType))
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	log.Info("applying embedded postgres migrations")
	return RunMigrations(sqlDB)
}
