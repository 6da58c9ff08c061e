package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/core/ports"
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/messaging/payloads"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// ImageOptions - зависимости и ограничения загрузки изображений.
type ImageOptions struct {
	Files    ports.FileStorage
	Cleanup  ports.ImageCleanupPublisher // может быть nil: старые файлы не удаляются
	MaxBytes int64
	// Limiter ограничивает число одновременных загрузок в хранилище.
	Limiter chan struct{}
}

type imageAttacher struct {
	recipes ports.RecipeStorage
	opts    ImageOptions
	logger  *slog.Logger
}

func newImageAttacher(recipes ports.RecipeStorage, opts ImageOptions, logger *slog.Logger) *imageAttacher {
	if opts.Limiter == nil {
		opts.Limiter = make(chan struct{}, 1)
	}
	return &imageAttacher{recipes: recipes, opts: opts, logger: logger}
}

// UploadImage делегирует загрузку imageAttacher.
func (uc *recipeUseCase) UploadImage(ctx context.Context, id int64, ownerID uuid.UUID, src io.Reader, filename string) (*domain.Recipe, error) {
	return uc.images.attach(ctx, id, ownerID, src, filename)
}

func (a *imageAttacher) attach(ctx context.Context, id int64, ownerID uuid.UUID, src io.Reader, filename string) (*domain.Recipe, error) {
	start := time.Now()

	recipe, err := a.recipes.GetRecipe(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("usecase: upload image for recipe %d: %w", id, err)
	}

	data, err := io.ReadAll(io.LimitReader(src, a.opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("usecase: read image: %w", err)
	}
	if int64(len(data)) > a.opts.MaxBytes {
		return nil, domain.FieldError("image", fmt.Sprintf("must not exceed %d bytes", a.opts.MaxBytes))
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.FieldError("image", "upload a valid image. The file you uploaded was either not an image or a corrupted image")
	}

	key := ImagePrefix + "/" + uuid.NewString() + imageExt(filename, format)

	select {
	case a.opts.Limiter <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	_, err = a.opts.Files.UploadFile(ctx, key, bytes.NewReader(data), "image/"+format)
	<-a.opts.Limiter
	if err != nil {
		a.logger.Error("failed to upload image", "recipe_id", id, "key", key, "error", err)
		return nil, fmt.Errorf("usecase: upload image: %w", err)
	}

	if err := a.recipes.SetImage(ctx, id, ownerID, key); err != nil {
		// рецепт мог быть удален между чтением и записью
		if delErr := a.opts.Files.DeleteFile(ctx, key); delErr != nil {
			a.logger.Warn("failed to remove orphaned image", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("usecase: set image for recipe %d: %w", id, err)
	}

	old := recipe.Image
	recipe.Image = key
	if old != "" && a.opts.Cleanup != nil {
		payload := payloads.ImageCleanupPayload{RecipeID: id, ObjectKey: old}
		if err := a.opts.Cleanup.PublishImageCleanup(ctx, payload); err != nil {
			a.logger.Warn("failed to enqueue image cleanup", "recipe_id", id, "key", old, "error", err)
		}
	}

	a.logger.Info("recipe image uploaded",
		"recipe_id", id,
		"key", key,
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return recipe, nil
}

// imageExt берет расширение исходного имени файла, а без него - формат изображения.
func imageExt(filename, format string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == "." {
		return "." + format
	}
	return ext
}
