package ports

import (
	"context"

	"github.com/GoArmGo/RecipeApp/internal/messaging/payloads"
)

// ImageCleanupPublisher публикует задачи на удаление замененных изображений.
// Используется при загрузке нового изображения рецепта.
type ImageCleanupPublisher interface {
	PublishImageCleanup(ctx context.Context, payload payloads.ImageCleanupPayload) error
}

// ImageCleanupConsumer используется воркером для получения задач из очереди.
type ImageCleanupConsumer interface {
	// StartConsumingImageCleanups начинает прослушивание очереди;
	// handler вызывается для каждого полученного сообщения
	StartConsumingImageCleanups(ctx context.Context, handler func(context.Context, payloads.ImageCleanupPayload) error) error
}
