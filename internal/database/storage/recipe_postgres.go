package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const recipeColumns = `r.id, r.user_id, r.title, r.time_minutes, r.price, r.description, r.link, r.image, r.created_at, r.updated_at`

// RecipeStorage - репозиторий рецептов и их связей с тегами и ингредиентами.
// Каждый запрос ограничен владельцем рецепта.
type RecipeStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewRecipeStorage(db *sqlx.DB, logger *slog.Logger) *RecipeStorage {
	return &RecipeStorage{db: db, logger: logger}
}

// CreateRecipe сохраняет скалярные поля рецепта и заполняет ID и временные метки.
func (s *RecipeStorage) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	start := time.Now()

	q := `
	INSERT INTO recipes (user_id, title, time_minutes, price, description, link, image)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at
	`

	err := conn(ctx, s.db).QueryRowxContext(ctx, q,
		recipe.UserID, recipe.Title, recipe.TimeMinutes, recipe.Price,
		recipe.Description, recipe.Link, recipe.Image,
	).Scan(&recipe.ID, &recipe.CreatedAt, &recipe.UpdatedAt)
	if err != nil {
		s.logger.Error("failed to insert recipe", "user_id", recipe.UserID, "error", err)
		return fmt.Errorf("insert recipe: %w", err)
	}

	s.logger.Info("recipe saved successfully",
		"id", recipe.ID,
		"user_id", recipe.UserID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// GetRecipe получает рецепт владельца вместе с тегами и ингредиентами.
func (s *RecipeStorage) GetRecipe(ctx context.Context, id int64, ownerID uuid.UUID) (*domain.Recipe, error) {
	start := time.Now()

	var recipe domain.Recipe
	q := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.id = $1 AND r.user_id = $2`

	err := sqlx.GetContext(ctx, conn(ctx, s.db), &recipe, q, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("recipe not found", "id", id, "user_id", ownerID)
		return nil, domain.NotFound("recipe")
	}
	if err != nil {
		s.logger.Error("failed to get recipe", "id", id, "error", err)
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	recipes := []domain.Recipe{recipe}
	if err := s.loadRelations(ctx, recipes); err != nil {
		return nil, err
	}

	s.logger.Debug("recipe retrieved by id",
		"id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &recipes[0], nil
}

// ListRecipes возвращает рецепты владельца, новые первыми.
func (s *RecipeStorage) ListRecipes(ctx context.Context, ownerID uuid.UUID, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, error) {
	start := time.Now()

	where := []string{"r.user_id = $1"}
	args := []any{ownerID}

	if len(filter.TagIDs) > 0 {
		args = append(args, pq.Array(filter.TagIDs))
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = ANY($%d))", len(args)))
	}
	if len(filter.IngredientIDs) > 0 {
		args = append(args, pq.Array(filter.IngredientIDs))
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = r.id AND ri.ingredient_id = ANY($%d))", len(args)))
	}

	args = append(args, limitArg(page), offsetArg(page))
	q := fmt.Sprintf(`SELECT %s FROM recipes r WHERE %s ORDER BY r.id DESC LIMIT $%d OFFSET $%d`,
		recipeColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	recipes := make([]domain.Recipe, 0)
	if err := sqlx.SelectContext(ctx, conn(ctx, s.db), &recipes, q, args...); err != nil {
		s.logger.Error("failed to list recipes", "user_id", ownerID, "error", err)
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	if err := s.loadRelations(ctx, recipes); err != nil {
		return nil, err
	}

	s.logger.Debug("listed recipes successfully",
		"user_id", ownerID,
		"count", len(recipes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return recipes, nil
}

// UpdateRecipe перезаписывает скалярные поля. Владелец в запросе участвует
// только как фильтр и никогда не изменяется.
func (s *RecipeStorage) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	start := time.Now()

	q := `
	UPDATE recipes
	SET title = $3, time_minutes = $4, price = $5, description = $6, link = $7, updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING updated_at
	`

	err := conn(ctx, s.db).QueryRowxContext(ctx, q,
		recipe.ID, recipe.UserID, recipe.Title, recipe.TimeMinutes,
		recipe.Price, recipe.Description, recipe.Link,
	).Scan(&recipe.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("recipe")
	}
	if err != nil {
		s.logger.Error("failed to update recipe", "id", recipe.ID, "error", err)
		return fmt.Errorf("update recipe: %w", err)
	}

	s.logger.Info("recipe updated",
		"id", recipe.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// DeleteRecipe удаляет рецепт владельца; связи удаляются каскадно.
func (s *RecipeStorage) DeleteRecipe(ctx context.Context, id int64, ownerID uuid.UUID) error {
	res, err := conn(ctx, s.db).ExecContext(ctx, `DELETE FROM recipes WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		s.logger.Error("failed to delete recipe", "id", id, "error", err)
		return fmt.Errorf("delete recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if n == 0 {
		return domain.NotFound("recipe")
	}

	s.logger.Info("recipe deleted", "id", id, "user_id", ownerID)
	return nil
}

// SetImage сохраняет ссылку на изображение рецепта.
func (s *RecipeStorage) SetImage(ctx context.Context, id int64, ownerID uuid.UUID, image string) error {
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE recipes SET image = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2`, id, ownerID, image)
	if err != nil {
		s.logger.Error("failed to set recipe image", "id", id, "error", err)
		return fmt.Errorf("set recipe image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set recipe image: %w", err)
	}
	if n == 0 {
		return domain.NotFound("recipe")
	}

	s.logger.Info("recipe image updated", "id", id, "image", image)
	return nil
}

// ReplaceTags заменяет набор тегов рецепта. Привязываются только теги
// владельца рецепта, чужие id молча отбрасываются.
func (s *RecipeStorage) ReplaceTags(ctx context.Context, recipeID int64, tagIDs []int64) error {
	return s.replaceLinks(ctx, tagTable, recipeID, tagIDs)
}

// ReplaceIngredients заменяет набор ингредиентов рецепта.
func (s *RecipeStorage) ReplaceIngredients(ctx context.Context, recipeID int64, ingredientIDs []int64) error {
	return s.replaceLinks(ctx, ingredientTable, recipeID, ingredientIDs)
}

func (s *RecipeStorage) replaceLinks(ctx context.Context, t taxonomyTable, recipeID int64, ids []int64) error {
	db := conn(ctx, s.db)

	del := fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, t.linkTable)
	if _, err := db.ExecContext(ctx, del, recipeID); err != nil {
		s.logger.Error("failed to clear recipe links", "table", t.linkTable, "recipe_id", recipeID, "error", err)
		return fmt.Errorf("clear %s: %w", t.linkTable, err)
	}

	if len(ids) == 0 {
		return nil
	}

	ins := fmt.Sprintf(`
	INSERT INTO %s (recipe_id, %s)
	SELECT r.id, x.id FROM recipes r
	JOIN %s x ON x.user_id = r.user_id
	WHERE r.id = $1 AND x.id = ANY($2)
	ON CONFLICT DO NOTHING
	`, t.linkTable, t.linkColumn, t.table)

	if _, err := db.ExecContext(ctx, ins, recipeID, pq.Array(ids)); err != nil {
		s.logger.Error("failed to link recipe", "table", t.linkTable, "recipe_id", recipeID, "error", err)
		return fmt.Errorf("insert %s: %w", t.linkTable, err)
	}

	s.logger.Debug("recipe links replaced", "table", t.linkTable, "recipe_id", recipeID, "count", len(ids))
	return nil
}

type linkedRow struct {
	RecipeID int64     `db:"recipe_id"`
	ID       int64     `db:"id"`
	UserID   uuid.UUID `db:"user_id"`
	Name     string    `db:"name"`
}

// loadRelations подгружает теги и ингредиенты для пачки рецептов двумя запросами.
func (s *RecipeStorage) loadRelations(ctx context.Context, recipes []domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]int64, len(recipes))
	index := make(map[int64]int, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		index[recipes[i].ID] = i
		recipes[i].Tags = []domain.Tag{}
		recipes[i].Ingredients = []domain.Ingredient{}
	}

	tags, err := s.selectLinked(ctx, tagTable, ids)
	if err != nil {
		return err
	}
	for _, row := range tags {
		r := &recipes[index[row.RecipeID]]
		r.Tags = append(r.Tags, domain.Tag{ID: row.ID, UserID: row.UserID, Name: row.Name})
	}

	ingredients, err := s.selectLinked(ctx, ingredientTable, ids)
	if err != nil {
		return err
	}
	for _, row := range ingredients {
		r := &recipes[index[row.RecipeID]]
		r.Ingredients = append(r.Ingredients, domain.Ingredient{ID: row.ID, UserID: row.UserID, Name: row.Name})
	}
	return nil
}

func (s *RecipeStorage) selectLinked(ctx context.Context, t taxonomyTable, recipeIDs []int64) ([]linkedRow, error) {
	q := fmt.Sprintf(`
	SELECT l.recipe_id, x.id, x.user_id, x.name
	FROM %s l JOIN %s x ON x.id = l.%s
	WHERE l.recipe_id = ANY($1)
	ORDER BY x.name
	`, t.linkTable, t.table, t.linkColumn)

	var rows []linkedRow
	if err := sqlx.SelectContext(ctx, conn(ctx, s.db), &rows, q, pq.Array(recipeIDs)); err != nil {
		s.logger.Error("failed to load recipe relations", "table", t.linkTable, "error", err)
		return nil, fmt.Errorf("load %s: %w", t.linkTable, err)
	}
	return rows, nil
}
