// FMS backend — сервис управления элементами (запись в PostgreSQL + файл в Blob Store).
// Точка входа: загрузка конфигурации, подключение к БД и хранилищу,
// инициализация сервисов и запуск HTTP-сервера.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Rexchan06/fms-web-app/internal/api/handlers"
	"github.com/Rexchan06/fms-web-app/internal/api/middleware"
	"github.com/Rexchan06/fms-web-app/internal/blobstore"
	"github.com/Rexchan06/fms-web-app/internal/config"
	"github.com/Rexchan06/fms-web-app/internal/database"
	"github.com/Rexchan06/fms-web-app/internal/repository"
	"github.com/Rexchan06/fms-web-app/internal/server"
	"github.com/Rexchan06/fms-web-app/internal/service"
)

func main() {
	// 1. Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("FMS backend запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("storage_backend", cfg.StorageBackend),
	)

	if os.Getenv("FMS_DEPHEALTH_GROUP") == "" {
		logger.Warn("FMS_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Blob Store
	blobs, closeBlobs, err := openBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка инициализации Blob Store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeBlobs()

	// 6. Сервис элементов
	itemRepo := repository.NewItemRepository(pool)
	itemCache := service.NewItemCache(cfg.CacheSize, cfg.CacheTTL)
	itemSvc := service.NewItemService(
		itemRepo,
		blobs,
		service.NewKeyGenerator(),
		itemCache,
		service.Options{Compensation: cfg.CompensationEnabled},
		logger,
	)
	if cfg.CompensationEnabled {
		logger.Info("Компенсирующие действия включены")
	}

	// 7. Health и API обработчики
	healthHandler := handlers.NewHealthHandler(
		database.NewReadinessChecker(pool),
		blobstore.NewReadinessChecker(blobs),
	)
	apiHandler := handlers.NewAPIHandler(healthHandler, itemSvc, cfg.MaxUploadSize, logger)

	// 8. topologymetrics — мониторинг зависимостей (не критично для запуска)
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:      "fms-backend",
		Group:          cfg.DephealthGroup,
		PgConnURL:      cfg.DatabaseURL(),
		BlobEndpoint:   cfg.StorageEndpoint,
		BlobHealthPath: cfg.DephealthBlobHealthPath,
		CheckInterval:  cfg.DephealthCheckInterval,
	}, pgDB, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 9. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 10. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("FMS backend остановлен")
}

// openBlobStore создаёт реализацию Blob Store по FMS_STORAGE_BACKEND.
// Возвращаемая функция освобождает ресурсы клиента.
func openBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (blobstore.Store, func(), error) {
	noop := func() {}

	switch cfg.StorageBackend {
	case config.StorageBackendS3:
		store, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:    cfg.StorageBucket,
			Region:    cfg.StorageRegion,
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			PublicURL: cfg.StoragePublicURL,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case config.StorageBackendGCS:
		store, err := blobstore.NewGCSStore(ctx, blobstore.GCSConfig{
			Bucket:          cfg.StorageBucket,
			CredentialsFile: cfg.GCSCredentialsFile,
			Project:         cfg.GCSProject,
			PublicURL:       cfg.StoragePublicURL,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("Ошибка закрытия GCS-клиента", slog.String("error", err.Error()))
			}
		}, nil

	case config.StorageBackendLocal:
		store, err := blobstore.NewLocalStore(cfg.StorageDataDir, cfg.StorageBucket, cfg.StoragePublicURL, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}

	return nil, noop, fmt.Errorf("неизвестный backend хранилища: %q", cfg.StorageBackend)
}
