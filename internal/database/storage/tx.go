package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type txKey struct{}

// Transactor реализует ports.Transactor поверх sqlx.
type Transactor struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewTransactor(db *sqlx.DB, logger *slog.Logger) *Transactor {
	return &Transactor{db: db, logger: logger}
}

// WithinTx открывает транзакцию и кладет ее в контекст. Если контекст уже
// содержит транзакцию, fn выполняется в ней же.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	start := time.Now()
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				t.logger.Error("failed to rollback transaction", "error", rbErr)
			}
			t.logger.Debug("transaction rolled back", "reason", err)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	t.logger.Debug("transaction committed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// conn возвращает транзакцию из контекста или пул соединений.
func conn(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

const uniqueViolation = "23505"

// mapConflict переводит нарушение уникальности в доменный конфликт.
func mapConflict(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.Conflict(msg).WithCause(err)
	}
	return err
}

// limitArg возвращает значение для LIMIT; NULL в Postgres означает "без ограничения".
func limitArg(page domain.Page) any {
	if page.Limit <= 0 {
		return nil
	}
	return page.Limit
}

func offsetArg(page domain.Page) int {
	if page.Offset < 0 {
		return 0
	}
	return page.Offset
}
