package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/malikovshahriyor929/sahifa-x/internal/backend"
	"github.com/malikovshahriyor929/sahifa-x/internal/books"
	"github.com/malikovshahriyor929/sahifa-x/internal/dashboard"
	"github.com/malikovshahriyor929/sahifa-x/internal/profile"
	"github.com/malikovshahriyor929/sahifa-x/internal/search"
	"github.com/malikovshahriyor929/sahifa-x/internal/session"
	"github.com/malikovshahriyor929/sahifa-x/pkg/config"
	"github.com/malikovshahriyor929/sahifa-x/pkg/locales"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "gateway",
	})
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		logger.SetLevel(log.DebugLevel)
	}
	if cfg.Backend.Host == "" {
		logger.Warn("no backend host configured; API calls will fail until one is set")
	}

	client := backend.New(backend.Options{
		Host:        cfg.Backend.Host,
		APILocale:   cfg.Backend.APILocale,
		AuthPrefix:  cfg.Backend.AuthPrefix,
		BooksPrefix: cfg.Backend.BooksPrefix,
	}, logger)

	tokens := session.TokenService{
		Secret:   []byte(cfg.SessionSecret),
		Issuer:   "sahifa",
		Duration: cfg.SessionTTL,
	}

	guard := session.NewGuard(tokens, client, cfg.Production(), logger)
	authHandler := session.NewHandler(client, tokens, cfg.Production(), logger)
	dashboardHandler := dashboard.NewHandler(client, logger)
	booksHandler := books.NewHandler(client, logger)
	profileHandler := profile.NewHandler(client, logger)
	searchHandler := search.NewHandler(client, logger)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), guard.Middleware())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": cfg.Backend.Host})
	})

	api := router.Group("/api")
	searchHandler.RegisterRoutes(api)

	for _, locale := range locales.Supported {
		group := router.Group("/"+locale, setLocale(locale))
		authHandler.RegisterRoutes(group.Group("/auth"))
		dashboardHandler.RegisterRoutes(group)
		booksHandler.RegisterRoutes(group)
		profileHandler.RegisterRoutes(group)
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	logger.Info("server stopped")
}

func setLocale(locale string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(locales.CtxLocaleKey, locale)
		c.Next()
	}
}

func requestLogger(logger *log.Logger) gin.HandlerFunc {
	l := logger.WithPrefix("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"dur", time.Since(start).Round(time.Millisecond).String(),
		)
	}
}
