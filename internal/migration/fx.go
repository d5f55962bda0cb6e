package migration

import (
	campaigndomain "github.com/tonynham/collabuu/internal/campaign/domain"
	"github.com/tonynham/collabuu/internal/config"
	loyaltydomain "github.com/tonynham/collabuu/internal/loyalty/domain"
	redemptiondomain "github.com/tonynham/collabuu/internal/redemption/domain"
	"github.com/tonynham/collabuu/internal/seed"
	visitdomain "github.com/tonynham/collabuu/internal/visit/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite is a dev/test convenience; golang-migrate's SQL is
			// postgres-flavored, so let gorm build the schema instead.
			if err := conn.AutoMigrate(
				&campaigndomain.Campaign{},
				&campaigndomain.ReferralArtifact{},
				&visitdomain.Visit{},
				&loyaltydomain.LoyaltyPoints{},
				&loyaltydomain.LoyaltyTransaction{},
				&redemptiondomain.RewardRedemption{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
