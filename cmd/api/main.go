package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	"therapy-practice-manager/internal/adapters/auth/statictoken"
	pg "therapy-practice-manager/internal/adapters/storage/postgres"
	"therapy-practice-manager/internal/platform/config"
	"therapy-practice-manager/internal/platform/logger"
	"therapy-practice-manager/internal/ports/auth"
	"therapy-practice-manager/internal/router"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	configPath := "config/config.yaml"
	if v := os.Getenv("APP_CONFIG_FILE"); v != "" {
		configPath = v
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		boot := logger.NewFromEnv()
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.App.LogLevel),
		Format: logger.ParseFormat(cfg.App.LogFormat),
		App:    cfg.App.Name,
	})

	var verifier auth.AuthVerifier
	if cfg.Auth.Mode == config.AuthModeToken {
		verifier = statictoken.New(cfg.Auth.Token, cfg.Auth.ClinicianID)
	}

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = pg.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer db.Close()
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Logger:       log,
		DB:           db,
		Swagger:      cfg.App.Swagger,
	})

	srv := &http.Server{
		Addr:         cfg.App.Address(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
}
