package server

import (
	"fmt"
	"net/http"
	"time"

	"backoffice/internal/clock"
	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/domain"
	"backoffice/internal/inventory"
	"backoffice/internal/metrics"
	custommiddleware "backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/repository/memory"
	"backoffice/internal/service"
	"backoffice/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers. A nil db selects the
// in-memory store.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service) *Server {
	var (
		store repository.Store
		tx    repository.Transactor
	)
	if db != nil {
		store = repository.NewStore(db.DB())
		tx = repository.NewTransactor(db.DB())
	} else {
		mem := memory.New()
		store, tx = mem, mem
	}

	clk := clock.New()
	m := metrics.New()

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(m.Middleware)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{"status": "up", "driver": config.DriverMemory}
		if db != nil {
			health = db.Health()
			health["driver"] = config.DriverPostgres
		}
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})
	router.Handle("/metrics", m.Handler())

	// Initialize services
	reconciler := inventory.NewReconciler(clk, logger, m)
	userService := service.NewUserService(store.Users(), store.RefreshTokens(), service.NewLogMailer(logger), clk, logger, service.AuthConfig{
		JWTSecret:       cfg.JWT.Secret,
		AccessTokenTTL:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
		RefreshTokenTTL: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
		WebURL:          cfg.Server.WebURL,
	})
	productService := service.NewProductService(tx, store, clk, logger)
	customerService := service.NewCustomerService(tx, store, reconciler, clk, logger)
	orderService := service.NewOrderService(tx, store, reconciler, clk, logger)
	saleService := service.NewSaleService(tx, store, reconciler, clk, logger)

	// Authenticated routes run behind the token check, role check and,
	// when enabled, the per-owner rate limit
	protected := []func(http.Handler) http.Handler{
		custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger),
		custommiddleware.RequireRole(logger, domain.RoleUser, domain.RoleAdmin),
	}
	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		protected = append(protected, custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit",
		}, logger))
	}

	// Register routes
	transport.NewUserHandler(userService, logger).RegisterRoutes(router, chi.Chain(protected...).Handler)
	transport.NewUtilsHandler().RegisterRoutes(router)
	router.Group(func(r chi.Router) {
		r.Use(protected...)
		transport.NewProductHandler(productService, logger).RegisterRoutes(r)
		transport.NewCustomerHandler(customerService, logger).RegisterRoutes(r)
		transport.NewOrderHandler(orderService, logger).RegisterRoutes(r)
		transport.NewSaleHandler(saleService, logger).RegisterRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
