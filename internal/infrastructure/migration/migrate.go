package migration

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// драйверы источника и БД регистрируются блок-импортом
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/config"
)

// Migrator — срез migrate.Migrate, достаточный для наката схемы
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine создает мигратор; в тестах подменяется, чтобы не трогать ФС и БД
type MigrationEngine func(sourceURL, databaseURL string) (Migrator, error)

type Migration struct {
	cfg    *config.Config
	engine MigrationEngine
}

func NewMigration(conf *config.Config, engine MigrationEngine) *Migration {
	return &Migration{
		cfg:    conf,
		engine: engine,
	}
}

// DefaultEngine оборачивает настоящий migrate.New
func DefaultEngine(sourceURL, databaseURL string) (Migrator, error) {
	return migrate.New(sourceURL, databaseURL)
}

// Up доводит схему синхронизации (очередь, сессии, конфликты, кеш) до
// актуальной версии. Отсутствие новых миграций ошибкой не считается.
func (mg *Migration) Up() error {
	m, err := mg.engine("file://"+mg.cfg.DB.Migrations, mg.cfg.DB.DatabaseURI)
	if err != nil {
		return fmt.Errorf("create sync schema migrator: %w", err)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		err = nil
	} else if err != nil {
		err = fmt.Errorf("apply sync schema migrations: %w", err)
	}

	srcErr, dbErr := m.Close()
	return errors.Join(err, srcErr, dbErr)
}
