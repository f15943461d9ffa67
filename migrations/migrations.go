// migrations содержит SQL-миграции схемы, встроенные в бинарь,
// и обёртки над goose для их применения.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// FS: миграции в формате goose.
//
//go:embed *.sql
var FS embed.FS

// goose хранит FS и диалект в глобальном состоянии.
var mu sync.Mutex

func setup() error {
	goose.SetBaseFS(FS)
	return goose.SetDialect("pgx")
}

// Open открывает *sql.DB через драйвер pgx/stdlib.
func Open(dsn string) (*sql.DB, error) {
	const op = "migrations.Open"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return db, nil
}

// Up применяет все ещё не применённые миграции.
func Up(ctx context.Context, db *sql.DB) error {
	const op = "migrations.Up"

	mu.Lock()
	defer mu.Unlock()

	if err := setup(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Down откатывает последнюю применённую миграцию.
func Down(ctx context.Context, db *sql.DB) error {
	const op = "migrations.Down"

	mu.Lock()
	defer mu.Unlock()

	if err := setup(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := goose.DownContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Status выводит состояние миграций в лог goose.
func Status(ctx context.Context, db *sql.DB) error {
	const op = "migrations.Status"

	mu.Lock()
	defer mu.Unlock()

	if err := setup(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := goose.StatusContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
