package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/parliament/internal/auth"
	"github.com/freeeve/parliament/internal/campaign"
	"github.com/freeeve/parliament/internal/config"
	"github.com/freeeve/parliament/internal/handler"
	"github.com/freeeve/parliament/internal/logger"
	"github.com/freeeve/parliament/internal/middleware"
	"github.com/freeeve/parliament/internal/repository/postgres"
	redisrepo "github.com/freeeve/parliament/internal/repository/redis"
	"github.com/freeeve/parliament/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().
		Str("databaseURL", cfg.DatabaseURL).
		Str("tuningFile", cfg.TuningFile).
		Int("planWorkers", cfg.PlanWorkers).
		Dur("draftTTL", cfg.DraftTTL).
		Msg("Config loaded")

	weights, err := config.LoadWeights(cfg.TuningFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Tuning load failed")
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	// Database
	db, err := postgres.Connect(startCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()
	if cfg.MigrationFile != "" {
		if err := postgres.Migrate(startCtx, db, cfg.MigrationFile); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
		log.Info().Str("file", cfg.MigrationFile).Msg("Migration applied")
	}

	// Redis
	redisClient, err := redisrepo.NewClient(startCtx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Repos
	userRepo := postgres.NewUserRepo(db)
	electionRepo := postgres.NewElectionRepo(db)
	planRepo := postgres.NewPlanRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	opts := campaign.Options{Weights: weights, Workers: cfg.PlanWorkers}
	electionSvc := service.NewElectionService(electionRepo, redisClient, wsHub)
	planSvc := service.NewPlanService(electionRepo, planRepo, redisClient, wsHub, opts, cfg.DraftTTL)

	// Handlers
	authHandler := handler.NewAuthHandler(jwtMgr, userRepo)
	electionHandler := handler.NewElectionHandler(electionSvc)
	planHandler := handler.NewPlanHandler(planSvc)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := redisClient.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"redis unavailable"}`))
			return
		}
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("POST /auth/dev", authHandler.DevLogin)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)

	// Ideology (public, stateless)
	mux.HandleFunc("GET /api/v1/ideology/classify", handler.ClassifyIdeology)
	mux.HandleFunc("POST /api/v1/ideology/aggregate", handler.AggregateIdeology)
	mux.HandleFunc("GET /api/v1/ideology/labels", handler.ListIdeologyLabels)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /me", authHandler.Me)
	api.HandleFunc("POST /elections", electionHandler.CreateElection)
	api.HandleFunc("GET /elections", electionHandler.ListElections)
	api.HandleFunc("GET /elections/{id}", electionHandler.GetElection)
	api.HandleFunc("GET /elections/{id}/snapshot", electionHandler.GetSnapshot)
	api.HandleFunc("PUT /elections/{id}/snapshot", electionHandler.ReplaceSnapshot)
	api.HandleFunc("POST /elections/{id}/parties/{partyId}/plan", planHandler.ProposePartyPlan)
	api.HandleFunc("POST /elections/{id}/parties/{partyId}/candidates", planHandler.ProposeCandidates)
	api.HandleFunc("GET /elections/{id}/parties/{partyId}/seats/{seatCode}/influence", planHandler.SeatInfluence)
	api.HandleFunc("POST /elections/{id}/alliances/{allianceId}/plan", planHandler.ProposeAlliancePlan)
	api.HandleFunc("GET /elections/{id}/drafts/{draftId}", planHandler.GetDraft)
	api.HandleFunc("POST /elections/{id}/drafts/{draftId}/commit", planHandler.CommitDraft)
	api.HandleFunc("GET /elections/{id}/plans", planHandler.ListPlans)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Recover, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
