package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/GoArmGo/RecipeApp/internal/app"
	"github.com/GoArmGo/RecipeApp/internal/di"
)

func main() {
	mode := flag.String("mode", app.ModeServer, "Режим запуска приложения: server, worker или createsuperuser")
	email := flag.String("email", "", "email суперпользователя (для -mode createsuperuser)")
	password := flag.String("password", "", "пароль суперпользователя (для -mode createsuperuser)")
	flag.Parse()

	// bootstrap-логгер (используется только на этапе инициализации т.к еще не создал slogger)
	bootstrapLogger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	bootstrapLogger.Info("starting application", "mode", *mode)

	ctx := context.Background()

	application, err := di.BuildApp(ctx)
	if err != nil {
		bootstrapLogger.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	log := application.LoggerIns()

	opts := app.Options{Mode: *mode, Email: *email, Password: *password}
	if err := application.Run(ctx, opts); err != nil {
		log.Error("application run failed", "error", err)
		os.Exit(1)
	}

	log.Info("application stopped gracefully")
}
