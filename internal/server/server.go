// Пакет server — HTTP-сервер FMS backend с graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/Rexchan06/fms-web-app/internal/api/handlers"
	"github.com/Rexchan06/fms-web-app/internal/api/middleware"
	"github.com/Rexchan06/fms-web-app/internal/config"
)

// Server — HTTP-сервер FMS backend.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
// middlewares — дополнительные middleware (metrics, logging), добавляются после CORS
// в порядке переданного среза.
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, middlewares ...func(http.Handler) http.Handler) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, logger, handler, middlewares...),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-роутер со всеми маршрутами FMS backend.
func NewRouter(cfg *config.Config, logger *slog.Logger, h *handlers.APIHandler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	for _, mw := range middlewares {
		router.Use(mw)
	}

	limiter := middleware.NewUploadLimiter(cfg.MaxConcurrentUploads)

	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	router.Get("/items", h.ListItems)
	router.With(limiter.Limit).Post("/items", h.CreateItem)
	router.With(limiter.Limit).Put("/items/{id}", h.UpdateItem)
	router.Delete("/items/{id}", h.DeleteItem)
	router.Get("/files/{id}", h.GetFile)

	// Локальный backend: публичные ссылки на файлы раздаются этим же сервером.
	if cfg.StorageBackend == config.StorageBackendLocal {
		router.Handle("/public/*", http.StripPrefix("/public",
			noDirListing(http.FileServer(http.Dir(cfg.StorageDataDir)))))
	}

	if cfg.StaticDir != "" {
		spa := newSPAHandler(cfg.StaticDir, cfg.StaticPath)
		router.Handle(cfg.StaticPath+"*", spa)
		if cfg.StaticPath != "/" {
			router.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, cfg.StaticPath, http.StatusFound)
			})
		}
		logger.Info("Front-end подключён",
			slog.String("dir", cfg.StaticDir),
			slog.String("path", cfg.StaticPath),
		)
	}

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
