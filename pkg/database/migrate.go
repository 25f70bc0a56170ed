package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationState 当前库结构版本；Version 为 0 表示尚未执行任何迁移
type MigrationState struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("加载迁移文件失败: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("创建迁移驱动失败: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("初始化迁移实例失败: %w", err)
	}
	return m, nil
}

// RunMigrations 应用全部未执行的迁移；dirty 状态拒绝继续，需人工修复
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	before, err := state(m)
	if err != nil {
		return err
	}
	if before.Dirty {
		return fmt.Errorf("数据库迁移处于 dirty 状态（版本 %d），请先修复", before.Version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	after, err := state(m)
	if err != nil {
		return err
	}
	logger.Info("数据库迁移完成",
		zap.Uint("from_version", before.Version),
		zap.Uint("version", after.Version),
	)
	return nil
}

// MigrationStatus 查询当前迁移版本，不做任何变更
func MigrationStatus(db *sql.DB) (MigrationState, error) {
	m, err := newMigrator(db)
	if err != nil {
		return MigrationState{}, err
	}
	return state(m)
}

func state(m *migrate.Migrate) (MigrationState, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationState{}, nil
	}
	if err != nil {
		return MigrationState{}, fmt.Errorf("查询迁移版本失败: %w", err)
	}
	return MigrationState{Version: version, Dirty: dirty}, nil
}
