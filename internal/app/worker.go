package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/RecipeApp/internal/core/ports"
	"github.com/GoArmGo/RecipeApp/internal/messaging/payloads"
)

// runWorker удаляет из файлового хранилища изображения, замененные новыми загрузками
func runWorker(ctx context.Context, consumer ports.ImageCleanupConsumer, files ports.FileStorage, logger *slog.Logger) error {
	if err := consumer.StartConsumingImageCleanups(ctx, cleanupHandler(files, logger)); err != nil {
		return fmt.Errorf("start image cleanup consumer: %w", err)
	}
	logger.Info("worker started, waiting for image cleanup tasks")

	<-ctx.Done()
	logger.Info("worker stopped")
	return nil
}

func cleanupHandler(files ports.FileStorage, logger *slog.Logger) func(context.Context, payloads.ImageCleanupPayload) error {
	return func(ctx context.Context, payload payloads.ImageCleanupPayload) error {
		if err := files.DeleteFile(ctx, payload.ObjectKey); err != nil {
			return fmt.Errorf("delete %s: %w", payload.ObjectKey, err)
		}
		logger.Info("replaced image removed", "recipe_id", payload.RecipeID, "key", payload.ObjectKey)
		return nil
	}
}
