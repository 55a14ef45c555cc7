// Package repository содержит реализацию хранилища состояния в SQLite.
//
// Хранилище — непрозрачный key/value-магазин из двух JSON-блобов:
// настройки и агрегат аккаунта. Содержимое блобов репозиторий не
// интерпретирует, кроме слияния с значениями по умолчанию при загрузке.
package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"

	"github.com/mmeshcher/miner-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound возвращается, если блоб с указанным ключом ещё не сохранялся.
var ErrNotFound = errors.New("blob not found")

const (
	settingsKey = "settings"
	accountKey  = "account"

	saveAttempts = 3
)

// SQLiteRepository предоставляет доступ к хранилищу состояния в файле SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository открывает файл БД и инициализирует схему через миграции.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Один писатель: файл SQLite не терпит параллельных записей.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &SQLiteRepository{db: db}

	if err := r.runMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

func (r *SQLiteRepository) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, r.db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает соединение с БД.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) loadBlob(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM blobs WHERE key = ?`, key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("load blob %s: %w", key, err)
	}
	return data, nil
}

// saveBlob записывает блоб с повторами при временных сбоях.
func (r *SQLiteRepository) saveBlob(ctx context.Context, key string, data []byte) error {
	backoff := retry.WithMaxRetries(saveAttempts, retry.NewFibonacci(100*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, execErr := r.db.ExecContext(ctx,
			`INSERT INTO blobs (key, data, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT (key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			key, data, time.Now().UTC(),
		)
		if execErr != nil {
			return retry.RetryableError(execErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save blob %s: %w", key, err)
	}
	return nil
}

// LoadSettings загружает настройки. Отсутствующие в блобе поля берутся
// из значений по умолчанию.
func (r *SQLiteRepository) LoadSettings(ctx context.Context) (model.Settings, error) {
	data, err := r.loadBlob(ctx, settingsKey)
	if err != nil {
		return model.Settings{}, err
	}

	s := model.DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// SaveSettings сохраняет настройки целиком.
func (r *SQLiteRepository) SaveSettings(ctx context.Context, s model.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return r.saveBlob(ctx, settingsKey, data)
}

// LoadAccount загружает агрегат аккаунта. Загруженный блоб сливается с
// состоянием по умолчанию поле за полем: неизвестные и отсутствующие
// поля получают значения по умолчанию.
func (r *SQLiteRepository) LoadAccount(ctx context.Context) (model.Account, error) {
	data, err := r.loadBlob(ctx, accountKey)
	if err != nil {
		return model.Account{}, err
	}

	a := model.DefaultAccount()
	if err := json.Unmarshal(data, &a); err != nil {
		return model.Account{}, fmt.Errorf("decode account: %w", err)
	}
	return a, nil
}

// SaveAccount сохраняет агрегат аккаунта целиком.
func (r *SQLiteRepository) SaveAccount(ctx context.Context, a model.Account) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	return r.saveBlob(ctx, accountKey, data)
}
