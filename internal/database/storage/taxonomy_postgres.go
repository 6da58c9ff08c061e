package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Taxonomy ограничивает параметр хранилища тегами и ингредиентами.
type Taxonomy interface {
	domain.Tag | domain.Ingredient
}

type taxonomyTable struct {
	entity     string // для сообщений и логов
	table      string
	linkTable  string
	linkColumn string
}

var (
	tagTable = taxonomyTable{
		entity:     "tag",
		table:      "tags",
		linkTable:  "recipe_tags",
		linkColumn: "tag_id",
	}
	ingredientTable = taxonomyTable{
		entity:     "ingredient",
		table:      "ingredients",
		linkTable:  "recipe_ingredients",
		linkColumn: "ingredient_id",
	}
)

// TaxonomyStorage - репозиторий тегов или ингредиентов пользователя.
// Обе таблицы имеют одинаковую форму, поэтому код общий.
type TaxonomyStorage[T Taxonomy] struct {
	db     *sqlx.DB
	logger *slog.Logger
	t      taxonomyTable
}

// NewTagStorage создает хранилище тегов.
func NewTagStorage(db *sqlx.DB, logger *slog.Logger) *TaxonomyStorage[domain.Tag] {
	return &TaxonomyStorage[domain.Tag]{db: db, logger: logger, t: tagTable}
}

// NewIngredientStorage создает хранилище ингредиентов.
func NewIngredientStorage(db *sqlx.DB, logger *slog.Logger) *TaxonomyStorage[domain.Ingredient] {
	return &TaxonomyStorage[domain.Ingredient]{db: db, logger: logger, t: ingredientTable}
}

// FindOrCreate возвращает строку владельца с таким именем, создавая ее при отсутствии.
// Уникальный ключ (user_id, name) делает операцию атомарной и для параллельных запросов.
func (s *TaxonomyStorage[T]) FindOrCreate(ctx context.Context, ownerID uuid.UUID, name string) (*T, error) {
	start := time.Now()

	q := fmt.Sprintf(`
	INSERT INTO %s (user_id, name) VALUES ($1, $2)
	ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
	RETURNING id, user_id, name
	`, s.t.table)

	var item T
	if err := sqlx.GetContext(ctx, conn(ctx, s.db), &item, q, ownerID, name); err != nil {
		s.logger.Error("failed to find or create "+s.t.entity, "user_id", ownerID, "name", name, "error", err)
		return nil, fmt.Errorf("find or create %s: %w", s.t.entity, err)
	}

	s.logger.Debug(s.t.entity+" resolved",
		"user_id", ownerID,
		"name", name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &item, nil
}

// Get получает строку по id, только если она принадлежит владельцу.
func (s *TaxonomyStorage[T]) Get(ctx context.Context, id int64, ownerID uuid.UUID) (*T, error) {
	q := fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE id = $1 AND user_id = $2`, s.t.table)

	var item T
	err := sqlx.GetContext(ctx, conn(ctx, s.db), &item, q, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound(s.t.entity)
	}
	if err != nil {
		s.logger.Error("failed to get "+s.t.entity, "id", id, "error", err)
		return nil, fmt.Errorf("get %s: %w", s.t.entity, err)
	}
	return &item, nil
}

// ListForOwner возвращает строки владельца по убыванию имени.
func (s *TaxonomyStorage[T]) ListForOwner(ctx context.Context, ownerID uuid.UUID, assignedOnly bool, page domain.Page) ([]T, error) {
	start := time.Now()

	q := fmt.Sprintf(`SELECT t.id, t.user_id, t.name FROM %s t WHERE t.user_id = $1`, s.t.table)
	if assignedOnly {
		q += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM %s l WHERE l.%s = t.id)`, s.t.linkTable, s.t.linkColumn)
	}
	q += ` ORDER BY t.name DESC, t.id DESC LIMIT $2 OFFSET $3`

	items := make([]T, 0)
	if err := sqlx.SelectContext(ctx, conn(ctx, s.db), &items, q, ownerID, limitArg(page), offsetArg(page)); err != nil {
		s.logger.Error("failed to list "+s.t.table, "user_id", ownerID, "error", err)
		return nil, fmt.Errorf("list %s: %w", s.t.table, err)
	}

	s.logger.Debug("listed "+s.t.table,
		"user_id", ownerID,
		"count", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return items, nil
}

// Rename меняет имя строки владельца.
func (s *TaxonomyStorage[T]) Rename(ctx context.Context, id int64, ownerID uuid.UUID, name string) (*T, error) {
	q := fmt.Sprintf(`UPDATE %s SET name = $3 WHERE id = $1 AND user_id = $2 RETURNING id, user_id, name`, s.t.table)

	var item T
	err := sqlx.GetContext(ctx, conn(ctx, s.db), &item, q, id, ownerID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound(s.t.entity)
	}
	if err != nil {
		s.logger.Error("failed to rename "+s.t.entity, "id", id, "error", err)
		return nil, fmt.Errorf("rename %s: %w", s.t.entity, mapConflict(err, s.t.entity+" with this name already exists"))
	}

	s.logger.Info(s.t.entity+" renamed", "id", id, "name", name)
	return &item, nil
}

// Delete удаляет строку владельца вместе со связями с рецептами.
func (s *TaxonomyStorage[T]) Delete(ctx context.Context, id int64, ownerID uuid.UUID) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, s.t.table)

	res, err := conn(ctx, s.db).ExecContext(ctx, q, id, ownerID)
	if err != nil {
		s.logger.Error("failed to delete "+s.t.entity, "id", id, "error", err)
		return fmt.Errorf("delete %s: %w", s.t.entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.t.entity, err)
	}
	if n == 0 {
		return domain.NotFound(s.t.entity)
	}

	s.logger.Info(s.t.entity+" deleted", "id", id)
	return nil
}
