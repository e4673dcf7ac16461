package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/joho/godotenv/autoload"

	"patisserie/internal/auth"
	"patisserie/internal/config"
	"patisserie/internal/database"
	"patisserie/internal/repositories"
	"patisserie/internal/services"
)

type Server struct {
	cfg           *config.Config
	httpServer    *http.Server
	db            database.Service
	issuer        *auth.TokenIssuer
	userService   services.UserService
	otpService    services.OTPService
	pastryService services.PastryService
	orderService  services.OrderService
}

func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTExpiry)
	if err != nil {
		return nil, err
	}

	userRepo := repositories.NewUserRepository(db)
	pastryRepo := repositories.NewPastryRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	var ledger repositories.OTPLedger
	switch cfg.OTPStore {
	case config.OTPStoreRedis:
		client, err := database.NewRedisClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		ledger = repositories.NewRedisOTPLedger(client, cfg)
	default:
		ledger = repositories.NewMongoOTPLedger(db, cfg)
	}

	emailService := services.NewEmailService(cfg)
	otpService := services.NewOTPService(userRepo, ledger, emailService, issuer)

	s := &Server{
		cfg:           cfg,
		db:            db,
		issuer:        issuer,
		userService:   services.NewUserService(userRepo, otpService, issuer),
		otpService:    otpService,
		pastryService: services.NewPastryService(pastryRepo),
		orderService:  services.NewOrderService(orderRepo, pastryRepo),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

func (s *Server) Start() error {
	log.Info().Int("port", s.cfg.Port).Str("otp_store", string(s.cfg.OTPStore)).Msg("Starting server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) GracefulShutdown(done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown with error")
	}

	if err := s.db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	}

	log.Info().Msg("Server exiting")
	done <- true
}
