package db

import (
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"protiq/internal/config"
	"protiq/models"
)

func TestInitializeRejectsEmptyURL(t *testing.T) {
	if _, err := Initialize(config.DatabaseConfig{URL: "  "}); err == nil {
		t.Fatal("expected error for empty database URL")
	}
}

func TestInitializeOpensSQLite(t *testing.T) {
	database, err := Initialize(config.DatabaseConfig{
		URL:          "file:db-init-test?mode=memory&cache=shared",
		MaxIdleConns: 2,
		MaxOpenConns: 4,
	})
	if err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql database: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestOpenDialector(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"postgres scheme", "postgres://localhost:5432/protiq", "postgres"},
		{"postgresql scheme", "postgresql://localhost/protiq", "postgres"},
		{"sqlite file", "file:protiq.db", "sqlite"},
		{"plain path", "protiq.db", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialector := openDialector(tt.url)
			switch tt.want {
			case "postgres":
				if _, ok := dialector.(*postgres.Dialector); !ok {
					t.Fatalf("expected postgres dialector for %q, got %T", tt.url, dialector)
				}
			case "sqlite":
				if _, ok := dialector.(*sqlite.Dialector); !ok {
					t.Fatalf("expected sqlite dialector for %q, got %T", tt.url, dialector)
				}
			}
		})
	}
}

func TestAutoMigrateNilHandle(t *testing.T) {
	if err := AutoMigrate(nil); err == nil {
		t.Fatal("expected error for nil database handle")
	}
}

func TestAutoMigrateCreatesSchema(t *testing.T) {
	database, err := gorm.Open(sqlite.Open("file:db-migrate-test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	defer func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	if err := AutoMigrate(database); err != nil {
		t.Fatalf("AutoMigrate returned error: %v", err)
	}

	for _, model := range []any{&models.CalculationRecord{}, &models.RecordSource{}} {
		if !database.Migrator().HasTable(model) {
			t.Fatalf("missing table for %T", model)
		}
	}
}

func TestConfigurePropagatesInitializeError(t *testing.T) {
	if _, err := Configure(config.DatabaseConfig{URL: ""}); err == nil {
		t.Fatal("expected error from Configure with empty URL")
	}
}

func TestConfigureSetsGlobalHandle(t *testing.T) {
	original := DB
	t.Cleanup(func() { DB = original })

	database, err := Configure(config.DatabaseConfig{URL: "file:db-configure-test?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}
	defer func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	if Get() != database {
		t.Fatal("Get() should return the configured handle")
	}
}

func TestMustConfigurePanicsOnFailure(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid configuration")
		}
	}()
	MustConfigure(config.DatabaseConfig{URL: ""})
}
