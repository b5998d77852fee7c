// Package main contains the entrypoint for the sismobot Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"

	"github.com/sismos-scu/sismobot/internal/bot"
	"github.com/sismos-scu/sismobot/internal/bot/handlers"
	"github.com/sismos-scu/sismobot/internal/bot/tasks"
	"github.com/sismos-scu/sismobot/internal/config"
	"github.com/sismos-scu/sismobot/internal/conversation"
	"github.com/sismos-scu/sismobot/internal/database"
	"github.com/sismos-scu/sismobot/internal/gemini"
	"github.com/sismos-scu/sismobot/internal/logger"
	"github.com/sismos-scu/sismobot/internal/session"
	"github.com/sismos-scu/sismobot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components, handles graceful
// shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "path", *envPath, "error", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(ctx, cfg.Database.Path, log)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	sessions, sweeper, closeSessions, err := newSessionStore(ctx, cfg.Session, log)
	if err != nil {
		log.Error("Failed to initialize session store", "backend", cfg.Session.Backend, "error", err)
		return 1
	}
	defer closeSessions()

	dispatcher, err := conversation.NewDispatcher(gemClient, store, cfg.Messages, log)
	if err != nil {
		log.Error("Failed to build conversation flows", "error", err)
		return 1
	}

	queue := session.NewQueue(log)
	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Sessions: sessions,
		Queue:    queue,
		Router:   dispatcher,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithNotAsyncHandlers(),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}
	hDeps.Renderer = telegram.NewRenderer(tg, log)
	tg.RegisterHandlerMatchFunc(func(*models.Update) bool { return true }, handlers.NewUpdateHandler(hDeps))

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.SetCommands(ctx, tg, handlers.Commands(cfg.Messages), log); err != nil {
		log.Warn("Failed to register bot commands", "error", err)
	}

	tDeps := tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		Sweeper: sweeper,
		Config:  cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, tg, sched, queue)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}

// newSessionStore builds the configured session backend. The sweeper is nil
// for Redis, which expires keys through their TTL.
func newSessionStore(ctx context.Context, cfg config.SessionConfig, log *slog.Logger) (session.Store, session.Sweeper, func(), error) {
	if cfg.Backend == "redis" {
		rs, err := session.NewRedisStore(ctx, session.RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.TTL,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("Using Redis session store", "addr", cfg.Redis.Addr, "ttl", cfg.TTL)
		return rs, nil, func() {
			if err := rs.Close(); err != nil {
				log.Error("Error closing Redis session store", "error", err)
			}
		}, nil
	}

	log.Info("Using in-memory session store", "ttl", cfg.TTL)
	ms := session.NewMemoryStore()
	return ms, ms, func() {}, nil
}
