// Package database はデータベース接続とスキーマ管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewMigrator は埋め込みSQLをソースとするmigrateインスタンスを生成する。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// MigrationState は適用済みスキーマのバージョン情報。
type MigrationState struct {
	Version uint
	Dirty   bool
}

// RunMigrations は未適用のマイグレーションをすべて適用し、適用後の状態を返す。
// すでに最新の場合もエラーにはならない。
func RunMigrations(databaseURL string) (MigrationState, error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return MigrationState{}, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationState{}, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationState{}, fmt.Errorf("failed to read migration version: %w", err)
	}

	return MigrationState{Version: version, Dirty: dirty}, nil
}
