package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbeisheim/checkers-backend/internal/advisor"
	"github.com/benbeisheim/checkers-backend/internal/config"
	"github.com/benbeisheim/checkers-backend/internal/controller"
	"github.com/benbeisheim/checkers-backend/internal/service"
	"github.com/benbeisheim/checkers-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server exited")
		stop()
		os.Exit(1)
	}
}

// run serves until ctx ends or the listener fails. The store is closed and advisor turns are
// drained before it returns.
func run(ctx context.Context, cfg config.Config) error {
	var st store.Store = store.NewMemoryStore()
	if cfg.DatabasePath != "" {
		db, err := store.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
		}
		st = db
	}
	defer st.Close()

	var adv advisor.Advisor
	if cfg.OpenAIKey != "" {
		adv = advisor.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel)
		log.Info().Str("model", cfg.OpenAIModel).Msg("advisor enabled")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize services
	gameManager := service.NewGameManager(st, adv, service.Settings{
		Rules:           cfg.Rules,
		StartingSide:    cfg.StartingSide,
		TimeControl:     cfg.TimeControl,
		AdvisorTimeout:  cfg.AdvisorTimeout,
		AdvisorFallback: cfg.AdvisorFallback,
	})
	defer gameManager.WaitAdvisors()
	go gameManager.Run(ctx)
	gameService := service.NewGameService(gameManager)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.ClientOrigin,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Player-ID, X-Player-Name",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(requestLogger)

	controller.SetupRoutes(app, gameService, controller.RouteConfig{
		TokenSecret: []byte(cfg.TokenSecret),
		Origins:     []string{cfg.ClientOrigin},
	})

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Port, err)
	}
	log.Info().Msg("shut down")
	return nil
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("took", time.Since(start)).
		Msg("request")
	return err
}
