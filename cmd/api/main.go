package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "erp-backend/api/swagger" // swagger docs
	"erp-backend/internal/config"
	"erp-backend/internal/database"
	"erp-backend/internal/handler"
	"erp-backend/internal/lock"
	"erp-backend/internal/logger"
	"erp-backend/internal/metrics"
	"erp-backend/internal/middleware"
	"erp-backend/internal/repository"
	"erp-backend/internal/repository/memstore"
	"erp-backend/internal/service"
	"erp-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           ERP Stock and Ledger API
// @version         1.0
// @description     Inventory, purchasing, sales, returns, payments and party ledgers over one consistent stock log.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.Log.Level)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("storage unavailable")
	}

	locker, err := openLocker(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("lock backend unavailable")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	services := service.New(service.Deps{
		Store:   store,
		Locker:  locker,
		Events:  wsHub,
		Metrics: m,
		Log:     log,
	})

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))
	if m != nil {
		router.Use(middleware.Metrics(m))
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.Origins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "storage": cfg.StorageDriver})
	})

	secret := []byte(cfg.JWTSecret)

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret)
	})

	// API Routing
	handler.Register(router, services, secret, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func openStore(cfg config.Config, log *logrus.Logger) (*repository.Store, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn("using in-memory storage; data is lost on exit")
		return memstore.NewStore(), nil
	}

	db, err := database.NewConnection(cfg.DSN(), log)
	if err != nil {
		return nil, err
	}
	log.Info("connected to PostgreSQL")
	return repository.NewGormStore(db), nil
}

// openLocker uses redis when REDIS_ADDRESS is set so locks hold across replicas.
func openLocker(ctx context.Context, cfg config.Config, log *logrus.Logger) (lock.Locker, error) {
	if cfg.Redis.Address == "" {
		log.Info("using in-process document locks")
		return lock.NewLocalLocker(), nil
	}

	rdb, err := lock.Connect(ctx, cfg.Redis.Address)
	if err != nil {
		return nil, err
	}
	log.WithField("address", cfg.Redis.Address).Info("using redis document locks")
	return lock.NewRedisLocker(rdb, cfg.Lock.TTL, log), nil
}
