package usecase

import (
	"context"
	"io"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/google/uuid"
)

// ImagePrefix - логический префикс ключей изображений рецептов в файловом хранилище.
const ImagePrefix = "uploads/recipe"

// InputValidator проверяет входные структуры и возвращает доменную ошибку валидации.
type InputValidator interface {
	Validate(s any) error
}

// RecipeUseCase определяет бизнес-логику работы с рецептами.
// Все операции ограничены владельцем: чужой рецепт неотличим от отсутствующего.
type RecipeUseCase interface {
	// ListRecipes возвращает рецепты владельца, новые первыми.
	ListRecipes(ctx context.Context, ownerID uuid.UUID, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, error)

	GetRecipe(ctx context.Context, id int64, ownerID uuid.UUID) (*domain.Recipe, error)

	// CreateRecipe создает рецепт вместе с вложенными тегами и ингредиентами в одной транзакции.
	CreateRecipe(ctx context.Context, ownerID uuid.UUID, in domain.RecipeInput) (*domain.Recipe, error)

	// UpdateRecipe применяет переданные поля (partial) или требует все обязательные (full).
	// Переданный список tags/ingredients заменяет связи целиком, отсутствующий оставляет их как есть.
	UpdateRecipe(ctx context.Context, id int64, ownerID uuid.UUID, in domain.RecipeInput, partial bool) (*domain.Recipe, error)

	DeleteRecipe(ctx context.Context, id int64, ownerID uuid.UUID) error

	// UploadImage сохраняет изображение под случайным UUID-именем и привязывает его к рецепту.
	UploadImage(ctx context.Context, id int64, ownerID uuid.UUID, src io.Reader, filename string) (*domain.Recipe, error)
}

// TaxonomyUseCase - операции над тегами или ингредиентами владельца.
type TaxonomyUseCase[T any] interface {
	List(ctx context.Context, ownerID uuid.UUID, assignedOnly bool, page domain.Page) ([]T, error)
	Get(ctx context.Context, id int64, ownerID uuid.UUID) (*T, error)
	Rename(ctx context.Context, id int64, ownerID uuid.UUID, name string) (*T, error)
	Delete(ctx context.Context, id int64, ownerID uuid.UUID) error
}
