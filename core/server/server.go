package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"club-scheduler/core/config"
	"club-scheduler/core/constants"
	"club-scheduler/core/database"
	"club-scheduler/core/logger"
	"club-scheduler/core/middleware"
	"club-scheduler/core/taskqueue"
	"club-scheduler/core/validation"
	"club-scheduler/modules/activity"
	"club-scheduler/modules/event"
	"club-scheduler/modules/scheduler"
	"club-scheduler/modules/scheduler/worker"
	"club-scheduler/modules/series"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// Run boots the HTTP API, the asynq worker and the generation sweep, and
// blocks until a shutdown signal arrives.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.Server.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if err := pingRedis(cfg.Redis); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	tasks := taskqueue.NewAsynqScheduler(redisOpt)
	defer tasks.Close()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("Request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	mw := middleware.NewMiddleware(cfg.Auth.JWTSecret)

	activities := activity.Init(db)
	sched := scheduler.Init(db, tasks, activities)
	eventSvc := event.Init(e, db, mw, sched, activities)
	orchestrator := series.Init(e, db, mw, tasks, sched, eventSvc)

	// Task worker. Lifecycle transitions and batch generation re-enter
	// through here, so it runs in the same process as the API.
	mux := asynq.NewServeMux()
	worker.NewWorker(sched, orchestrator).Register(mux)

	asynqSrv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Scheduler.WorkerConcurrency,
		Queues:      map[string]int{constants.SchedulerQueue: 1},
	})
	if err := asynqSrv.Start(mux); err != nil {
		return fmt.Errorf("start task worker: %w", err)
	}

	// Nightly sweep. Catches series whose next-batch task was lost (a
	// flushed queue, a handle cleared mid-crash) by re-walking all
	// active series.
	sweep := cron.New()
	if _, err := sweep.AddFunc(cfg.Scheduler.SweepCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := orchestrator.GenerateDueBatches(ctx); err != nil {
			logger.Error("Server:Sweep", err)
		}
	}); err != nil {
		return fmt.Errorf("register sweep: %w", err)
	}
	sweep.Start()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logger.Info("Server:Run", "addr", addr)
		if err := e.Start(addr); err != nil {
			logger.Warn("Server:Run", "reason", err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server:Shutdown", "reason", "signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sweep.Stop()
	asynqSrv.Shutdown()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

func pingRedis(cfg config.RedisConfig) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}
