// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"os"
	"time"

	"github.com/dalemusser/inboxhub/internal/app/store/records"
	"github.com/dalemusser/inboxhub/internal/app/store/schema"
	"github.com/dalemusser/inboxhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB builds the record store client and verifies it is reachable.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client := records.New(records.Config{
		BaseURL:    appCfg.RecordsURL,
		AnonKey:    appCfg.RecordsAnonKey,
		ServiceKey: appCfg.RecordsServiceKey,
		Timeout:    30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()

	if err := client.Ping(pingCtx); err != nil {
		logger.Error("record store unreachable", zap.String("url", appCfg.RecordsURL), zap.Error(err))
		return DBDeps{}, err
	}

	logger.Info("record store connected", zap.String("url", appCfg.RecordsURL))

	return DBDeps{Records: client}, nil
}

// EnsureSchema applies pending migrations when auto_migrate is enabled.
// Operators who prefer explicit control run the provision command instead.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if !appCfg.AutoMigrate {
		return nil
	}

	runner := &schema.Runner{
		Log:         logger,
		DatabaseURL: appCfg.DatabaseURL,
		Store:       deps.Records,
		Out:         os.Stdout,
	}
	return runner.Apply(ctx)
}
