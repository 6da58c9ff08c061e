package di

import (
	"context"
	"errors"
	"strings"

	"github.com/GoArmGo/RecipeApp/internal/adapter/storage/local"
	"github.com/GoArmGo/RecipeApp/internal/adapter/storage/minio"
	"github.com/GoArmGo/RecipeApp/internal/app"
	"github.com/GoArmGo/RecipeApp/internal/auth"
	"github.com/GoArmGo/RecipeApp/internal/config"
	"github.com/GoArmGo/RecipeApp/internal/core/ports"
	"github.com/GoArmGo/RecipeApp/internal/database/client"
	"github.com/GoArmGo/RecipeApp/internal/database/postgres"
	"github.com/GoArmGo/RecipeApp/internal/database/storage"
	"github.com/GoArmGo/RecipeApp/internal/handler"
	"github.com/GoArmGo/RecipeApp/internal/logger"
	"github.com/GoArmGo/RecipeApp/internal/rabbitmq"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
	"github.com/GoArmGo/RecipeApp/internal/validation"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp(ctx context.Context) (_ *app.App, err error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	var closers []func() error
	defer func() {
		if err != nil {
			if closeErr := closeAll(closers); closeErr != nil {
				slogger.Warn("failed to release resources", "error", closeErr)
			}
		}
	}()

	// 2. PostgreSQL: пул sqlx + миграции, gorm поверх того же пула
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, dbClient.Close)

	gormDB, err := postgres.NewGormDB(dbClient.DB.DB, slogger)
	if err != nil {
		return nil, err
	}

	// 3. Инициализация хранилищ
	tx := storage.NewTransactor(dbClient.DB, slogger)
	recipeStorage := storage.NewRecipeStorage(dbClient.DB, slogger)
	tagStorage := storage.NewTagStorage(dbClient.DB, slogger)
	ingredientStorage := storage.NewIngredientStorage(dbClient.DB, slogger)
	userStorage := postgres.NewGormUserStorage(gormDB, slogger)

	// 4. Файловое хранилище изображений
	var (
		fileStorage ports.FileStorage
		mediaRoot   string
	)
	switch strings.ToLower(cfg.StorageBackend) {
	case config.StorageBackendLocal:
		fs, err := local.NewFileStorage(cfg.MediaRoot, slogger)
		if err != nil {
			return nil, err
		}
		fileStorage, mediaRoot = fs, fs.Root()
	default:
		mc, err := minio.NewMinioClient(ctx, cfg, slogger)
		if err != nil {
			return nil, err
		}
		fileStorage = mc
	}

	// 5. RabbitMQ: publisher для сервера, consumer для воркера
	rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, func() error {
		rabbitMQClient.Close()
		return nil
	})

	// 6. Инициализация бизнес-логики (usecases)
	validator := validation.New()
	credentials := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)

	// ограничиваем число параллельных загрузок в хранилище
	uploadLimiter := make(chan struct{}, cfg.UploadConcurrency)

	userUseCase := usecase.NewUserUseCase(userStorage, credentials, validator, slogger)
	recipeUseCase := usecase.NewRecipeUseCase(
		tx,
		recipeStorage,
		tagStorage,
		ingredientStorage,
		validator,
		usecase.ImageOptions{
			Files:    fileStorage,
			Cleanup:  rabbitMQClient,
			MaxBytes: cfg.MaxUploadBytes,
			Limiter:  uploadLimiter,
		},
		slogger,
	)
	tagUseCase := usecase.NewTagUseCase(tagStorage, slogger)
	ingredientUseCase := usecase.NewIngredientUseCase(ingredientStorage, slogger)

	authLimiter := handler.NewKeyedRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)
	closers = append(closers, func() error {
		authLimiter.Stop()
		return nil
	})

	// 7. Сборка итогового приложения
	application := app.NewApp(
		cfg,
		slogger,
		handler.RouterDeps{
			Users:          userUseCase,
			Recipes:        recipeUseCase,
			Tags:           tagUseCase,
			Ingredients:    ingredientUseCase,
			AuthLimiter:    authLimiter,
			MaxUploadBytes: cfg.MaxUploadBytes,
			RequestTimeout: cfg.RequestTimeout,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			MediaRoot:      mediaRoot,
			Logger:         slogger,
		},
		userUseCase,
		fileStorage,
		rabbitMQClient,
		closers...,
	)

	slogger.Info("all dependencies initialized")
	return application, nil
}

// closeAll используется, если сборка прервалась после открытия ресурсов.
func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
