package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/RecipeApp/internal/config"
	"github.com/GoArmGo/RecipeApp/internal/core/ports"
	"github.com/GoArmGo/RecipeApp/internal/handler"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
)

// Режимы запуска
const (
	ModeServer          = "server"
	ModeWorker          = "worker"
	ModeCreateSuperuser = "createsuperuser"
)

// Options - параметры командной строки.
type Options struct {
	Mode     string
	Email    string
	Password string
}

type App struct {
	config      *config.Config
	logger      *slog.Logger
	router      handler.RouterDeps
	userUseCase usecase.UserUseCase
	files       ports.FileStorage
	cleanup     ports.ImageCleanupConsumer
	closers     []func() error
}

func NewApp(
	cfg *config.Config,
	logger *slog.Logger,
	router handler.RouterDeps,
	userUseCase usecase.UserUseCase,
	files ports.FileStorage,
	cleanup ports.ImageCleanupConsumer,
	closers ...func() error,
) *App {
	return &App{
		config:      cfg,
		logger:      logger,
		router:      router,
		userUseCase: userUseCase,
		files:       files,
		cleanup:     cleanup,
		closers:     closers,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

func (a *App) Run(ctx context.Context, opts Options) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.Shutdown()

	a.logger.Info("starting", "mode", opts.Mode)

	switch opts.Mode {
	case ModeServer:
		return runServer(ctx, a.config, handler.NewRouter(a.router), a.logger)
	case ModeWorker:
		return runWorker(ctx, a.cleanup, a.files, a.logger)
	case ModeCreateSuperuser:
		return createSuperuser(ctx, a.userUseCase, opts.Email, opts.Password, a.logger)
	default:
		return fmt.Errorf("unknown mode %q (use %q, %q or %q)", opts.Mode, ModeServer, ModeWorker, ModeCreateSuperuser)
	}
}

// Shutdown закрывает все ресурсы приложения в обратном порядке
func (a *App) Shutdown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("error during shutdown", "error", err)
		}
	}
	a.closers = nil
	a.logger.Info("shutdown complete")
}

func createSuperuser(ctx context.Context, uc usecase.UserUseCase, email, password string, logger *slog.Logger) error {
	user, err := uc.CreateSuperuser(ctx, email, password)
	if err != nil {
		return fmt.Errorf("create superuser: %w", err)
	}
	logger.Info("superuser created", "user_id", user.ID, "email", user.Email)
	return nil
}
