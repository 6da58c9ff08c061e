package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/GoArmGo/RecipeApp/internal/core/ports"
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/google/uuid"
)

const maxNameLength = 255

type taxonomyUseCase[T any] struct {
	entity  string
	storage ports.TaxonomyStorage[T]
	logger  *slog.Logger
}

// NewTagUseCase создает use case для тегов
func NewTagUseCase(storage ports.TagStorage, logger *slog.Logger) TaxonomyUseCase[domain.Tag] {
	return &taxonomyUseCase[domain.Tag]{entity: "tag", storage: storage, logger: logger}
}

// NewIngredientUseCase создает use case для ингредиентов
func NewIngredientUseCase(storage ports.IngredientStorage, logger *slog.Logger) TaxonomyUseCase[domain.Ingredient] {
	return &taxonomyUseCase[domain.Ingredient]{entity: "ingredient", storage: storage, logger: logger}
}

func (uc *taxonomyUseCase[T]) List(ctx context.Context, ownerID uuid.UUID, assignedOnly bool, page domain.Page) ([]T, error) {
	items, err := uc.storage.ListForOwner(ctx, ownerID, assignedOnly, page)
	if err != nil {
		return nil, fmt.Errorf("usecase: list %ss: %w", uc.entity, err)
	}
	return items, nil
}

func (uc *taxonomyUseCase[T]) Get(ctx context.Context, id int64, ownerID uuid.UUID) (*T, error) {
	item, err := uc.storage.Get(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("usecase: get %s %d: %w", uc.entity, id, err)
	}
	return item, nil
}

// Rename меняет имя; совпадение с другим именем того же владельца дает Conflict.
func (uc *taxonomyUseCase[T]) Rename(ctx context.Context, id int64, ownerID uuid.UUID, name string) (*T, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, domain.FieldError("name", "may not be blank")
	case utf8.RuneCountInString(name) > maxNameLength:
		return nil, domain.FieldError("name", fmt.Sprintf("must not exceed %d characters", maxNameLength))
	}

	item, err := uc.storage.Rename(ctx, id, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("usecase: rename %s %d: %w", uc.entity, id, err)
	}
	uc.logger.Info(uc.entity+" renamed", "id", id, "user_id", ownerID)
	return item, nil
}

// Delete удаляет объект и все его связи с рецептами.
func (uc *taxonomyUseCase[T]) Delete(ctx context.Context, id int64, ownerID uuid.UUID) error {
	if err := uc.storage.Delete(ctx, id, ownerID); err != nil {
		return fmt.Errorf("usecase: delete %s %d: %w", uc.entity, id, err)
	}
	uc.logger.Info(uc.entity+" deleted", "id", id, "user_id", ownerID)
	return nil
}
