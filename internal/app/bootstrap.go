// Package app is the composition root: manual dependency wiring, no
// DI framework.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"

	"signoff.io/signoff/internal/api/handlers"
	"signoff.io/signoff/internal/api/middleware"
	"signoff.io/signoff/internal/audit"
	"signoff.io/signoff/internal/config"
	"signoff.io/signoff/internal/infrastructure"
	"signoff.io/signoff/internal/jobs"
	"signoff.io/signoff/internal/notification"
	"signoff.io/signoff/internal/pkg/worker"
	"signoff.io/signoff/internal/repository"
	"signoff.io/signoff/internal/service"
	"signoff.io/signoff/internal/usecase"
)

// Application holds composed application dependencies.
type Application struct {
	Config *config.Config
	Router *gin.Engine
	DB     *infrastructure.DatabaseClients
	Pools  *worker.Pools
}

// Bootstrap initializes all dependencies.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		AuditPoolSize:   cfg.Worker.AuditPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	inbox := notification.NewInbox(db.Pool)

	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewDecisionNoticeWorker(inbox))
	river.AddWorker(workers, jobs.NewNotificationCleanupWorker(inbox, cfg.River.NotificationRetention))

	// Inbox retention cleanup: daily, and once on startup.
	periodic := []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return jobs.NotificationCleanupArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}

	if err := db.InitRiverClient(workers, periodic, cfg.River); err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init river client: %w", err)
	}

	store := repository.NewPG(db.Pool, db.RiverClient)
	auditLogger := audit.NewLogger(db.Pool, pools)

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSecret),
		Issuer:     cfg.Security.JWTIssuer,
		ExpiresIn:  cfg.Security.TokenLifetime,
	}

	server := handlers.NewServer(handlers.ServerDeps{
		Commands:  usecase.NewApprovalService(store, service.NewChainBuilder(), auditLogger),
		Queries:   usecase.NewApprovalQueryService(store),
		Users:     store,
		Employees: store,
		Inbox:     inbox,
		Pinger:    db.Pool,
		JWTCfg:    jwtCfg,
		Audit:     auditLogger,
	})

	return &Application{
		Config: cfg,
		Router: newRouter(server),
		DB:     db,
		Pools:  pools,
	}, nil
}
