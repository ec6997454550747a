package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

const (
	databaseFlag   = "database-dsn"
	migrationsFlag = "migrations-path"
)

// Applies the products-table migrations for the postgres store
// backend. The file backend needs no schema.
func main() {
	databaseDSN, migrationsPath := getFlagsValues()
	validateFlags(databaseDSN, migrationsPath)
	makeMigrations(databaseDSN, migrationsPath)
}

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger() *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default(),
		verbose: true,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(fmt.Sprintf(format, v...))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

func getFlagsValues() (database, migrations string) {
	databaseDSN := pflag.StringP(databaseFlag, "d", "", "")
	migrationsPath := pflag.StringP(migrationsFlag, "m", "", "")
	pflag.Parse()
	return *databaseDSN, *migrationsPath
}

func validateFlags(databaseDSN, migrationsPath string) {
	var errs []error

	if databaseDSN == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", databaseFlag))
	}

	if migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationsFlag))
	}

	if len(errs) != 0 {
		slog.Error("too few args", "err", errors.Join(errs...))
		fallDown()
	}
}

func makeMigrations(databaseDSN, migrationsPath string) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath),
		fmt.Sprintf("pgx5://%s", databaseDSN),
	)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}

	m.Log = NewMigrationLogger()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log.Printf("migration applied\n")
}

func fallDown() {
	os.Exit(2)
}
