package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

const (
	storagePathFlag   = "storage-path"
	migrationPathFlag = "migrations-path"
	downFlag          = "down"
)

func main() {
	storagePath, migrationsPath, down := getFlagsValues()
	validateFlags(storagePath, migrationsPath)
	makeMigrations(databaseURL(storagePath), migrationsPath, down)
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
	ml.logger.Info(strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

func getFlagsValues() (storage, migrations string, down bool) {
	storagePath := pflag.StringP(storagePathFlag, "s", os.Getenv("KIKSNIKS_DSN"),
		"postgres dsn, defaults to $KIKSNIKS_DSN")
	migrationsPath := pflag.StringP(migrationPathFlag, "m", "migrations", "migrations directory")
	rollback := pflag.Bool(downFlag, false, "roll every migration back")
	pflag.Parse()
	return *storagePath, *migrationsPath, *rollback
}

func validateFlags(storagePath, migrationsPath string) {
	var errs []error

	if storagePath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", storagePathFlag))
	}

	if migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	if len(errs) != 0 {
		slog.Error("too few args", "err", errors.Join(errs...))
		fallDown()
	}
}

// databaseURL accepts both a bare "user:pass@host/db" path and a
// postgres:// dsn as used by the storefront config.
func databaseURL(storagePath string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(storagePath, scheme); ok {
			return "pgx5://" + rest
		}
	}
	if strings.HasPrefix(storagePath, "pgx5://") {
		return storagePath
	}
	return "pgx5://" + storagePath
}

func makeMigrations(dbURL, migrationsPath string, down bool) {
	m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), dbURL)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	defer m.Close()

	m.Log = NewMigrationLogger()

	apply := m.Up
	if down {
		apply = m.Down
	}
	if err := apply(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log.Printf("migration applied")
}

func fallDown() {
	os.Exit(2)
}
