package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/padsapp/pads-be/internal/api"
	"github.com/padsapp/pads-be/internal/auth"
	"github.com/padsapp/pads-be/internal/clock"
	"github.com/padsapp/pads-be/internal/config"
	"github.com/padsapp/pads-be/internal/database"
	"github.com/padsapp/pads-be/internal/logger"
	"github.com/padsapp/pads-be/internal/maintenance"
	"github.com/padsapp/pads-be/internal/notices"
	"github.com/padsapp/pads-be/internal/password"
	"github.com/padsapp/pads-be/internal/services"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Composition root: the clock, hasher and notice templates are
	// injected here, never reached for as globals.
	clk := clock.System{}
	hasher := password.NewBcrypt()
	dict := notices.Default()

	userService := services.NewUserService(db, hasher, clk)
	timerService := services.NewTimerService(db, clk, dict)
	groupService := services.NewGroupService(db)
	importService := services.NewImportService(userService, groupService)

	// Set up and run the background quick list cleaner
	cleaner, err := maintenance.NewCleaner(db, userService, clk, cfg.QuickListCleanupCron, cfg.QuickListMaxIdleDays)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up quick list cleaner")
	}
	go cleaner.Run()

	// Set up router
	authn := auth.New(cfg.JWTSecret)
	router := api.NewRouter(authn, userService, timerService, groupService, importService, cfg.AllowedOrigin)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	cleaner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
