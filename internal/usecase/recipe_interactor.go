package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/core/ports"
	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/google/uuid"
)

// recipeUseCase implements RecipeUseCase
type recipeUseCase struct {
	tx          ports.Transactor
	recipes     ports.RecipeStorage
	tags        ports.TagStorage
	ingredients ports.IngredientStorage
	validator   InputValidator
	images      *imageAttacher
	logger      *slog.Logger
}

// NewRecipeUseCase создает новый экземпляр RecipeUseCase
func NewRecipeUseCase(
	tx ports.Transactor,
	recipes ports.RecipeStorage,
	tags ports.TagStorage,
	ingredients ports.IngredientStorage,
	validator InputValidator,
	images ImageOptions,
	logger *slog.Logger,
) RecipeUseCase {
	return &recipeUseCase{
		tx:          tx,
		recipes:     recipes,
		tags:        tags,
		ingredients: ingredients,
		validator:   validator,
		images:      newImageAttacher(recipes, images, logger),
		logger:      logger,
	}
}

func (uc *recipeUseCase) ListRecipes(ctx context.Context, ownerID uuid.UUID, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, error) {
	recipes, err := uc.recipes.ListRecipes(ctx, ownerID, filter, page)
	if err != nil {
		return nil, fmt.Errorf("usecase: list recipes: %w", err)
	}
	return recipes, nil
}

func (uc *recipeUseCase) GetRecipe(ctx context.Context, id int64, ownerID uuid.UUID) (*domain.Recipe, error) {
	recipe, err := uc.recipes.GetRecipe(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("usecase: get recipe %d: %w", id, err)
	}
	return recipe, nil
}

// CreateRecipe создает рецепт и его связи атомарно.
func (uc *recipeUseCase) CreateRecipe(ctx context.Context, ownerID uuid.UUID, in domain.RecipeInput) (*domain.Recipe, error) {
	start := time.Now()

	rel, err := uc.prepare(in, false)
	if err != nil {
		return nil, err
	}

	recipe := &domain.Recipe{UserID: ownerID}
	applyFields(recipe, in.RecipeFields)

	var result *domain.Recipe
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.recipes.CreateRecipe(ctx, recipe); err != nil {
			return err
		}
		if err := uc.writeRelations(ctx, recipe, rel); err != nil {
			return err
		}
		var err error
		result, err = uc.recipes.GetRecipe(ctx, recipe.ID, ownerID)
		return err
	})
	if err != nil {
		uc.logger.Error("failed to create recipe", "user_id", ownerID, "error", err)
		return nil, fmt.Errorf("usecase: create recipe: %w", err)
	}

	uc.logger.Info("recipe created",
		"id", result.ID,
		"user_id", ownerID,
		"tag_ids", result.TagIDs(),
		"ingredient_ids", result.IngredientIDs(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// UpdateRecipe обновляет скалярные поля и, если переданы, заменяет связи.
// Владелец рецепта не меняется ни при каком содержимом запроса.
func (uc *recipeUseCase) UpdateRecipe(ctx context.Context, id int64, ownerID uuid.UUID, in domain.RecipeInput, partial bool) (*domain.Recipe, error) {
	start := time.Now()

	rel, err := uc.prepare(in, partial)
	if err != nil {
		return nil, err
	}

	var result *domain.Recipe
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		recipe, err := uc.recipes.GetRecipe(ctx, id, ownerID)
		if err != nil {
			return err
		}

		if hasScalarFields(in.RecipeFields) {
			applyFields(recipe, in.RecipeFields)
			if err := uc.recipes.UpdateRecipe(ctx, recipe); err != nil {
				return err
			}
		}

		if err := uc.writeRelations(ctx, recipe, rel); err != nil {
			return err
		}

		result, err = uc.recipes.GetRecipe(ctx, id, ownerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("usecase: update recipe %d: %w", id, err)
	}

	uc.logger.Info("recipe updated",
		"id", id,
		"partial", partial,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (uc *recipeUseCase) DeleteRecipe(ctx context.Context, id int64, ownerID uuid.UUID) error {
	if err := uc.recipes.DeleteRecipe(ctx, id, ownerID); err != nil {
		return fmt.Errorf("usecase: delete recipe %d: %w", id, err)
	}
	return nil
}

// relations - нормализованные имена вложенных объектов; nil означает "ключ отсутствовал".
type relations struct {
	tags        []string
	ingredients []string
}

// prepare проверяет запрос целиком до любых записей, чтобы ошибка
// валидации не оставляла частично примененных изменений.
func (uc *recipeUseCase) prepare(in domain.RecipeInput, partial bool) (relations, error) {
	if err := uc.validator.Validate(in); err != nil {
		return relations{}, err
	}

	if !partial {
		missing := map[string]string{}
		if in.Title == nil {
			missing["title"] = "is required"
		}
		if in.TimeMinutes == nil {
			missing["time_minutes"] = "is required"
		}
		if in.Price == nil {
			missing["price"] = "is required"
		}
		if len(missing) > 0 {
			return relations{}, domain.ValidationFailed("validation failed", missing)
		}
	}

	var rel relations
	var err error
	if rel.tags, err = normalizeNames("tags", in.Tags); err != nil {
		return relations{}, err
	}
	if rel.ingredients, err = normalizeNames("ingredients", in.Ingredients); err != nil {
		return relations{}, err
	}
	return rel, nil
}

// writeRelations выполняет find-or-create по (владелец рецепта, имя) и заменяет связи.
func (uc *recipeUseCase) writeRelations(ctx context.Context, recipe *domain.Recipe, rel relations) error {
	if rel.tags != nil {
		ids := make([]int64, 0, len(rel.tags))
		for _, name := range rel.tags {
			tag, err := uc.tags.FindOrCreate(ctx, recipe.UserID, name)
			if err != nil {
				return err
			}
			ids = append(ids, tag.ID)
		}
		if err := uc.recipes.ReplaceTags(ctx, recipe.ID, ids); err != nil {
			return err
		}
	}

	if rel.ingredients != nil {
		ids := make([]int64, 0, len(rel.ingredients))
		for _, name := range rel.ingredients {
			ingredient, err := uc.ingredients.FindOrCreate(ctx, recipe.UserID, name)
			if err != nil {
				return err
			}
			ids = append(ids, ingredient.ID)
		}
		if err := uc.recipes.ReplaceIngredients(ctx, recipe.ID, ids); err != nil {
			return err
		}
	}
	return nil
}

// normalizeNames обрезает пробелы и убирает повторы, сохраняя порядок.
func normalizeNames(field string, in *[]domain.NameInput) ([]string, error) {
	if in == nil {
		return nil, nil
	}

	names := make([]string, 0, len(*in))
	seen := make(map[string]struct{}, len(*in))
	for i, item := range *in {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, domain.FieldError(fmt.Sprintf("%s[%d].name", field, i), "may not be blank")
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

func hasScalarFields(f domain.RecipeFields) bool {
	return f.Title != nil || f.TimeMinutes != nil || f.Price != nil || f.Description != nil || f.Link != nil
}

func applyFields(r *domain.Recipe, f domain.RecipeFields) {
	if f.Title != nil {
		r.Title = *f.Title
	}
	if f.TimeMinutes != nil {
		r.TimeMinutes = *f.TimeMinutes
	}
	if f.Price != nil {
		r.Price = *f.Price
	}
	if f.Description != nil {
		r.Description = *f.Description
	}
	if f.Link != nil {
		r.Link = *f.Link
	}
}
