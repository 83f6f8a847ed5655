package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StartArchivalWorker schedules periodic archival sweeps. Returns the
// scheduler so the caller owns its shutdown, or nil when archival is
// disabled.
func StartArchivalWorker(archival *service.ArchivalService, cfg config.ArchivalConfig, logger *zap.Logger) *cron.Cron {
	if archival == nil || !cfg.Enabled {
		return nil
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Schedule, func() {
		_ = archival.Run(context.Background())
	})
	if err != nil {
		logger.Error("invalid archival schedule", zap.String("schedule", cfg.Schedule), zap.Error(err))
		return nil
	}

	scheduler.Start()
	logger.Info("archival worker started", zap.String("schedule", cfg.Schedule))
	return scheduler
}
