package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/imranali-mngmt/secureiduploader/internal/config"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
)

func TestBuildDialector_EachDialect(t *testing.T) {
	tmp := t.TempDir()

	cases := []struct {
		name    string
		cfg     config.DatabaseConfig
		wantErr bool
	}{
		{"mysql", config.DatabaseConfig{Type: "mysql", Host: "db", Port: "3306", User: "u", Password: "p", Name: "vault"}, false},
		{"postgres", config.DatabaseConfig{Type: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", Name: "vault"}, false},
		{"postgres-ssl", config.DatabaseConfig{Type: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", Name: "vault", SSL: true}, false},
		{"sqlite", config.DatabaseConfig{Type: "sqlite", Filename: filepath.Join(tmp, "nested", "vault.db")}, false},
		{"sqlite-empty-filename", config.DatabaseConfig{Type: "sqlite"}, true},
		{"unsupported", config.DatabaseConfig{Type: "oracle"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dialector, err := buildDialector(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildDialector: %v", err)
			}
			if dialector == nil {
				t.Fatal("expected a non-nil dialector")
			}
		})
	}

	if _, err := os.Stat(filepath.Join(tmp, "nested")); err != nil {
		t.Fatalf("expected sqlite branch to create its parent directory: %v", err)
	}
}

func TestInitDB_SQLiteTempFile(t *testing.T) {
	tmp := t.TempDir()
	cfgDir := filepath.Join(tmp, "cfg")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}

	dbFile := filepath.Join(tmp, "db", "test.db")
	t.Setenv("VAULT_SERVER_MODE", "debug")
	t.Setenv("VAULT_DATABASE_TYPE", "sqlite")
	t.Setenv("VAULT_DATABASE_FILENAME", dbFile)

	config.InitConfig(cfgDir)
	InitDB()

	if DB == nil {
		t.Fatal("expected DB to be initialized")
	}
	if !DB.Migrator().HasTable(&model.User{}) {
		t.Fatal("expected users table to exist")
	}
	if !DB.Migrator().HasTable(&model.File{}) {
		t.Fatal("expected files table to exist")
	}

	sqlDB, err := DB.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}
