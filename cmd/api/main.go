package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/benefits-desk/internal/api/http"
	"github.com/spec-kit/benefits-desk/internal/api/http/handlers"
	"github.com/spec-kit/benefits-desk/internal/auth"
	"github.com/spec-kit/benefits-desk/internal/config"
	"github.com/spec-kit/benefits-desk/internal/events"
	"github.com/spec-kit/benefits-desk/internal/observability"
	"github.com/spec-kit/benefits-desk/internal/persistence"
	"github.com/spec-kit/benefits-desk/internal/repository"
	"github.com/spec-kit/benefits-desk/internal/service"
	"github.com/spec-kit/benefits-desk/internal/sla"
	"github.com/spec-kit/benefits-desk/internal/triage"
	"github.com/spec-kit/benefits-desk/internal/worker"
)

func main() {
	app := &cli.App{
		Name:  "benefits-desk",
		Usage: "employee benefits support ticket service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and background workers",
				Action: runServe,
			},
			{
				Name:  "sweep",
				Usage: "mark overdue tickets as SLA-breached and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "tenant",
						Usage: "limit the sweep to one tenant",
					},
				},
				Action: runSweep,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// deskRuntime holds wired dependencies shared by commands.
type deskRuntime struct {
	cfg      *config.Config
	logger   *zap.Logger
	postgres *persistence.Postgres
	redis    *persistence.Redis
	tickets  *service.TicketService
	summary  *service.SummaryService
	notify   *service.NotificationService
}

func (r *deskRuntime) close() {
	r.redis.Close()
	r.postgres.Close()
	_ = r.logger.Sync()
}

func buildRuntime(ctx context.Context) (*deskRuntime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	policyRepo := repository.NewSlaPolicyRepository(pool)
	ruleRepo := repository.NewEscalationRuleRepository(pool)
	queueRepo := repository.NewQueueAssignmentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	slaEngine := sla.NewEngine(policyRepo)
	triageEngine := triage.NewEngine(triage.DefaultRules(), ticketRepo)
	assignments := service.NewAssignmentService(queueRepo)

	var summarySvc *service.SummaryService
	if cfg.Summary.Enabled {
		summarySvc = service.NewSummaryService(ticketRepo, redis.Client, cfg.Summary.QueueKey, logger)
	}

	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:         ticketRepo,
		CommentRepo:        commentRepo,
		EventRepo:          eventRepo,
		EscalationRuleRepo: ruleRepo,
		Assignments:        assignments,
		Summaries:          summarySvc,
		SlaEngine:          slaEngine,
		TriageEngine:       triageEngine,
		Dispatcher:         dispatcher,
		Logger:             logger,
		ReopenWindow:       cfg.Sla.ReopenWindow(),
	})

	notify := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	return &deskRuntime{
		cfg:      cfg,
		logger:   logger,
		postgres: pg,
		redis:    redis,
		tickets:  tickets,
		summary:  summarySvc,
		notify:   notify,
	}, nil
}

func runServe(c *cli.Context) error {
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	worker.StartNotificationWorker(rt.notify)
	if rt.summary != nil {
		go worker.NewSummaryWorker(rt.summary, rt.logger).Run(ctx)
	}

	tokenManager := auth.NewTokenManager(rt.cfg.Auth.JWTSecret)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: rt.cfg.App.Name})
	httptransport.RegisterMiddlewares(app, rt.logger, metrics, rt.cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(rt.cfg.App.Name, rt.cfg.App.Version, rt.postgres, rt.redis),
		Tickets:        handlers.NewTicketsHandler(rt.tickets),
		Admin:          handlers.NewAdminHandler(rt.tickets),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(rt.cfg.App.Addr()); err != nil {
			rt.logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(rt.logger)
	cancel()
	return app.Shutdown()
}

func runSweep(c *cli.Context) error {
	rt, err := buildRuntime(c.Context)
	if err != nil {
		return err
	}
	defer rt.close()

	var tenantID *string
	if tenant := c.String("tenant"); tenant != "" {
		tenantID = &tenant
	}

	count, err := rt.tickets.SweepSlaBreaches(c.Context, tenantID)
	if err != nil {
		return err
	}
	rt.logger.Info("sla sweep complete", zap.Int("breached", count))
	return nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
