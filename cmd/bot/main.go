// Package main contains the entrypoint for the plant identification bot.
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

	"github.com/verdantlab/papabois/internal/bot"
	"github.com/verdantlab/papabois/internal/bot/handlers"
	"github.com/verdantlab/papabois/internal/bot/tasks"
	"github.com/verdantlab/papabois/internal/config"
	"github.com/verdantlab/papabois/internal/database"
	"github.com/verdantlab/papabois/internal/identify"
	"github.com/verdantlab/papabois/internal/logger"
	"github.com/verdantlab/papabois/internal/metrics"
	"github.com/verdantlab/papabois/internal/persona"
	"github.com/verdantlab/papabois/internal/plantid"
	"github.com/verdantlab/papabois/internal/state"
	"github.com/verdantlab/papabois/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components, starts the bot, and returns an
// exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	metrics.Register()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	states := state.NewTracker()

	plantClient := plantid.New(cfg.PlantID, log)

	var kb plantid.KnowledgeBase
	if cfg.KB.Enabled {
		kb, err = plantid.NewCachedKB(plantClient, cfg.KB.CacheSize, log)
		if err != nil {
			log.Error("Failed to initialize knowledge base cache", "error", err)
			return 1
		}
	}

	var personaClient persona.Client
	if cfg.Persona.Enabled {
		personaClient, err = persona.NewClient(ctx, cfg.Persona, log)
		if err != nil {
			log.Error("Failed to initialize persona client", "provider", cfg.Persona.Provider, "error", err)
			return 1
		}
	}

	pipeline := identify.New(plantClient, kb, personaClient, log)

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		States:   states,
		Pipeline: pipeline,
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		States: states,
		Config: cfg,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewPhotoRouter(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(ctx, tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, cfg, db, store, tg, sched)

	log.Info("Starting bot", "kb_enabled", cfg.KB.Enabled, "persona_enabled", cfg.Persona.Enabled)
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully")
	time.Sleep(time.Second)
	return 0
}
