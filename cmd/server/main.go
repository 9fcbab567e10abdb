package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/prestamix/lending-engine/internal/config"
	"github.com/prestamix/lending-engine/internal/handler"
	"github.com/prestamix/lending-engine/internal/repository"
	"github.com/prestamix/lending-engine/internal/service"
	"github.com/prestamix/lending-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := newLogger(cfg)

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Repositories
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	// Services
	cache := service.NewBalanceCache(redisClient, log)
	loanService := service.NewLoanService(loanRepo, paymentRepo, walletRepo, cache, log)
	walletService := service.NewWalletService(walletRepo, categoryRepo, cache, log)
	transferService := service.NewTransferService(walletRepo, cache, log)
	historyService := service.NewHistoryService(walletRepo, cache, log)

	// Handlers
	loanHandler := handler.NewLoanHandler(loanService)
	walletHandler := handler.NewWalletHandler(walletService, transferService, historyService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout)

	router := setupRoutes(loanHandler, walletHandler, healthHandler, log)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(loanHandler *handler.LoanHandler, walletHandler *handler.WalletHandler, healthHandler *handler.HealthHandler, log *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log))
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/loans", loanHandler.CreateLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}/cancel", loanHandler.CancelLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}/schedule", loanHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/loans/{loanId}/outstanding", loanHandler.GetOutstanding).Methods("GET")
	api.HandleFunc("/loans/{loanId}/payments", loanHandler.GetPayments).Methods("GET")
	api.HandleFunc("/installments/{installmentId}/payments", loanHandler.RegisterPayment).Methods("POST")
	api.HandleFunc("/installments/{installmentId}/payments", loanHandler.GetInstallmentPayments).Methods("GET")

	api.HandleFunc("/containers", walletHandler.EnsureContainer).Methods("POST")
	api.HandleFunc("/containers/{containerId}", walletHandler.GetContainer).Methods("GET")
	api.HandleFunc("/containers/{containerId}/transactions", walletHandler.PostTransaction).Methods("POST")
	api.HandleFunc("/containers/{containerId}/transactions", walletHandler.GetHistory).Methods("GET")
	api.HandleFunc("/transfers", walletHandler.Transfer).Methods("POST")

	api.HandleFunc("/safes/{containerId}/categories", walletHandler.ListCategories).Methods("GET")
	api.HandleFunc("/safes/{containerId}/categories", walletHandler.CreateCategory).Methods("POST")

	return router
}
