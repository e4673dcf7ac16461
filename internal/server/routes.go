package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"patisserie/internal/handlers"
	"patisserie/internal/middlewares"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	general := middlewares.NewRateLimiter(rate.Limit(5), 10)
	go general.CleanupVisitors()

	prom := middlewares.NewPrometheusMiddleware()

	r.Use(middlewares.Cors(s.cfg.AllowedOrigins))
	r.Use(general.Limit)
	r.Use(prom.Instrument)

	ch := handlers.NewCommonHandler(s.db)
	r.HandleFunc("/", ch.HelloWorldHandler)
	r.HandleFunc("/health", ch.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	s.registerAuthRoutes(r)
	s.registerPastryRoutes(r)
	s.registerOrderRoutes(r)

	return r
}

func (s *Server) registerAuthRoutes(r *mux.Router) {
	uh := handlers.NewUserHandler(s.userService)
	ah := handlers.NewAuthHandler(s.otpService)
	authed := middlewares.Auth(s.issuer)

	// OTP delivery costs an e-mail per request, so it gets its own
	// tighter per-IP budget on top of the router-wide limiter.
	otpLimiter := middlewares.NewRateLimiter(rate.Limit(0.05), 3)
	go otpLimiter.CleanupVisitors()

	r.HandleFunc("/api/auth/register", uh.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/login", uh.Login).Methods("POST", "OPTIONS")
	r.Handle("/api/auth/request-otp", otpLimiter.Limit(http.HandlerFunc(ah.RequestOTP))).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/verify-email", ah.VerifyEmail).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/reset-password", ah.ResetPassword).Methods("POST", "OPTIONS")
	r.Handle("/api/me", authed(http.HandlerFunc(uh.GetMyProfile))).Methods("GET", "OPTIONS")
}

func (s *Server) registerPastryRoutes(r *mux.Router) {
	ph := handlers.NewPastryHandler(s.pastryService)
	authed := middlewares.Auth(s.issuer)
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(middlewares.RequireAdmin(h))
	}

	r.HandleFunc("/api/pastries", ph.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/pastries/{id}", ph.Get).Methods("GET", "OPTIONS")
	r.Handle("/api/pastries", admin(ph.Create)).Methods("POST", "OPTIONS")
	r.Handle("/api/pastries/{id}", admin(ph.Update)).Methods("PATCH", "PUT", "OPTIONS")
	r.Handle("/api/pastries/{id}", admin(ph.Delete)).Methods("DELETE", "OPTIONS")
}

func (s *Server) registerOrderRoutes(r *mux.Router) {
	oh := handlers.NewOrderHandler(s.orderService, s.userService)
	authed := middlewares.Auth(s.issuer)
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(middlewares.RequireAdmin(h))
	}

	r.Handle("/api/orders", authed(http.HandlerFunc(oh.Create))).Methods("POST", "OPTIONS")
	r.Handle("/api/orders", authed(http.HandlerFunc(oh.List))).Methods("GET", "OPTIONS")
	r.Handle("/api/orders/{id}", authed(http.HandlerFunc(oh.Get))).Methods("GET", "OPTIONS")
	r.Handle("/api/orders/{id}", admin(oh.UpdateStatus)).Methods("PATCH", "OPTIONS")
}
