package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recipe представляет модель рецепта,
// соответствует таблице recipes в бд
type Recipe struct {
	ID          int64           `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"-" db:"user_id"`
	Title       string          `json:"title" db:"title"`
	TimeMinutes int             `json:"time_minutes" db:"time_minutes"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Description string          `json:"description" db:"description"`
	Link        string          `json:"link" db:"link"`
	Image       string          `json:"image" db:"image"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	Tags        []Tag           `json:"tags" db:"-"`
	Ingredients []Ingredient    `json:"ingredients" db:"-"`
}

// Tag представляет модель тега пользователя,
// соответствует таблице tags в бд
type Tag struct {
	ID     int64     `json:"id" db:"id"`
	UserID uuid.UUID `json:"-" db:"user_id"`
	Name   string    `json:"name" db:"name"`
}

// Ingredient устроен так же, как Tag, и хранится в таблице ingredients.
type Ingredient struct {
	ID     int64     `json:"id" db:"id"`
	UserID uuid.UUID `json:"-" db:"user_id"`
	Name   string    `json:"name" db:"name"`
}

// TagIDs возвращает идентификаторы привязанных тегов.
func (r *Recipe) TagIDs() []int64 {
	ids := make([]int64, 0, len(r.Tags))
	for _, t := range r.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// IngredientIDs возвращает идентификаторы привязанных ингредиентов.
func (r *Recipe) IngredientIDs() []int64 {
	ids := make([]int64, 0, len(r.Ingredients))
	for _, i := range r.Ingredients {
		ids = append(ids, i.ID)
	}
	return ids
}

// NameInput - вложенный объект {name} для тегов и ингредиентов.
type NameInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// RecipeFields - скалярные поля рецепта. nil означает, что поле не передано.
type RecipeFields struct {
	Title       *string          `json:"title" validate:"omitempty,min=1,max=255"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitempty,gte=0"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,money"`
	Description *string          `json:"description"`
	Link        *string          `json:"link" validate:"omitempty,max=255,url"`
}

// RecipeInput - полезная нагрузка записи агрегата рецепта.
// Tags/Ingredients == nil означает, что ключ отсутствовал в запросе;
// указатель на пустой срез очищает связи.
type RecipeInput struct {
	RecipeFields
	Tags        *[]NameInput `json:"tags" validate:"omitempty,dive"`
	Ingredients *[]NameInput `json:"ingredients" validate:"omitempty,dive"`
}

// Page задает окно выборки; Limit == 0 означает "без ограничения".
type Page struct {
	Limit  int
	Offset int
}

// RecipeFilter сужает список рецептов владельца по связанным тегам/ингредиентам.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}
