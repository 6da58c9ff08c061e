package ports

import (
	"context"
	"io"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/google/uuid"
)

// Transactor выполняет fn в одной транзакции БД. Хранилища, вызванные
// с полученным ctx, работают внутри этой транзакции.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserStorage определяет методы для взаимодействия с хранилищем пользователей
type UserStorage interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

// TaxonomyStorage - общий контракт для тегов и ингредиентов. T - domain.Tag
// или domain.Ingredient. Все методы ограничены владельцем.
type TaxonomyStorage[T any] interface {
	FindOrCreate(ctx context.Context, ownerID uuid.UUID, name string) (*T, error)
	Get(ctx context.Context, id int64, ownerID uuid.UUID) (*T, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID, assignedOnly bool, page domain.Page) ([]T, error)
	Rename(ctx context.Context, id int64, ownerID uuid.UUID, name string) (*T, error)
	Delete(ctx context.Context, id int64, ownerID uuid.UUID) error
}

// TagStorage - хранилище тегов.
type TagStorage = TaxonomyStorage[domain.Tag]

// IngredientStorage - хранилище ингредиентов.
type IngredientStorage = TaxonomyStorage[domain.Ingredient]

// RecipeStorage определяет методы для взаимодействия с хранилищем рецептов
type RecipeStorage interface {
	CreateRecipe(ctx context.Context, recipe *domain.Recipe) error
	GetRecipe(ctx context.Context, id int64, ownerID uuid.UUID) (*domain.Recipe, error)
	ListRecipes(ctx context.Context, ownerID uuid.UUID, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error
	DeleteRecipe(ctx context.Context, id int64, ownerID uuid.UUID) error
	SetImage(ctx context.Context, id int64, ownerID uuid.UUID, image string) error

	// ReplaceTags и ReplaceIngredients заменяют набор связей целиком.
	ReplaceTags(ctx context.Context, recipeID int64, tagIDs []int64) error
	ReplaceIngredients(ctx context.Context, recipeID int64, ingredientIDs []int64) error
}

// FileStorage определяет интерфейс для работы с файловым хранилищем (AWS S3, MinIO, локальный диск)
type FileStorage interface {
	// UploadFile загружает файл в хранилище и возвращает его публичный URL.
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)

	// DeleteFile удаляет файл из хранилища по его ключу.
	DeleteFile(ctx context.Context, key string) error
}
