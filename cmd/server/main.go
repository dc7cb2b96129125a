package main

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"medintake/internal/ai"
	"medintake/internal/audit"
	"medintake/internal/auth"
	"medintake/internal/config"
	"medintake/internal/crypto"
	"medintake/internal/db"
	"medintake/internal/handler"
	"medintake/internal/logger"
	"medintake/internal/model"
	"medintake/internal/repository"
	"medintake/internal/router"
	"medintake/internal/service"
	"medintake/internal/wizard"
)

func main() {
	cfg := config.Load()
	log := logger.New("medintake")

	gormDB, err := db.NewPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database init")
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, dropping all tables")
		tables := []interface{}{
			&model.AuditLog{},
			&model.Session{},
			&model.Visit{},
			&model.Insurance{},
			&model.Patient{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Warn().Err(err).Msg("failed to drop table (may not exist)")
			}
		}
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Patient{},
		&model.Insurance{},
		&model.Visit{},
		&model.Session{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal().Err(err).Msg("auto-migrate")
	}

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	patientRepo := repository.NewPatientRepository(gormDB)
	insuranceRepo := repository.NewInsuranceRepository(gormDB)
	visitRepo := repository.NewVisitRepository(gormDB)
	sessionRepo := repository.NewSessionRepository(gormDB)
	auditRepo := repository.NewAuditRepository(gormDB)

	// Auth, crypto and audit components
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenExpiry, sessionRepo)
	cipher := crypto.NewCipher(cfg.EncryptionKey)
	auditor := audit.NewRecorder(auditRepo, log)

	// External providers and wizard state
	transcriber := ai.NewAssemblyAITranscriber(cfg.AssemblyAIBaseURL, cfg.AssemblyAIKey, cfg.AITimeout)
	extractor := ai.NewPerplexityExtractor(cfg.PerplexityBaseURL, cfg.PerplexityKey, cfg.AITimeout)
	archiver := ai.NewFileArchiver(cfg.AnalysisDir)
	wizardStore := wizard.NewRedisStore(
		wizard.NewRedisClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB),
		cfg.TokenExpiry,
	)

	// Services
	authService := service.NewAuthService(userRepo, patientRepo, tokens, cipher, auditor)
	patientService := service.NewPatientService(patientRepo, visitRepo, insuranceRepo, cipher, auditor)
	visitService := service.NewVisitService(visitRepo, patientRepo, auditor)
	intakeService := service.NewIntakeService(
		patientRepo, visitRepo, insuranceRepo,
		transcriber, extractor, archiver,
		wizardStore, cipher, auditor, log,
	)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	patientHandler := handler.NewPatientHandler(patientService)
	visitHandler := handler.NewVisitHandler(visitService)
	intakeHandler := handler.NewIntakeHandler(intakeService, cfg.AudioDir, log)

	e := echo.New()
	e.HideBanner = true

	router.Register(e, cfg, tokens, authHandler, patientHandler, visitHandler, intakeHandler)

	addr := ":" + cfg.ServerPort
	log.Info().Str("addr", addr).Msg("starting server")
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server start")
	}
}
