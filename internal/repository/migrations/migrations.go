// Package migrations embute o schema SQL e o aplica com goose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS contém os arquivos de migração versionados.
//
//go:embed *.sql
var FS embed.FS

// Configure aponta o goose para as migrações embutidas e o dialeto PostgreSQL.
func Configure() error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose: dialeto inválido: %w", err)
	}
	return nil
}

// Run executa um comando goose (up, down, status, version...) sobre as migrações embutidas.
func Run(command string, db *sql.DB, args ...string) error {
	if err := Configure(); err != nil {
		return err
	}
	return goose.Run(command, db, ".", args...)
}

// Up aplica todas as migrações pendentes.
func Up(db *sql.DB) error {
	return Run("up", db)
}
