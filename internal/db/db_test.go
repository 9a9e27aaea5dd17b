package db

import (
	"strings"
	"testing"

	"github.com/reflectai/reflectai/internal/config"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		port     int
		user     string
		password string
		database string
		want     string
	}{
		{
			name:     "default local",
			host:     "127.0.0.1",
			port:     3306,
			user:     "root",
			database: "reflectai",
			want:     "root@tcp(127.0.0.1:3306)/reflectai?parseTime=true",
		},
		{
			name:     "password and custom port",
			host:     "10.0.0.5",
			port:     3307,
			user:     "reflect",
			password: "s3cret",
			database: "reflect_bob",
			want:     "reflect:s3cret@tcp(10.0.0.5:3307)/reflect_bob?parseTime=true",
		},
		{
			name: "admin without database",
			host: "db.internal",
			port: 3306,
			user: "root",
			want: "root@tcp(db.internal:3306)/?parseTime=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.host, tt.port, tt.user, tt.password, tt.database)
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDSN_ParseTimeFlag(t *testing.T) {
	dsn := DSN("localhost", 3306, "root", "", "test")
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("DSN missing parseTime=true: %s", dsn)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "postgres"}, "")
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestAllModels_Count(t *testing.T) {
	if got := len(AllModels()); got != 3 {
		t.Errorf("AllModels() = %d models, want 3", got)
	}
}

func TestAutoMigrate_SQLite(t *testing.T) {
	gormDB, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := AutoMigrate(gormDB); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, table := range []string{"categories", "mind_maps", "reports"} {
		if !gormDB.Migrator().HasTable(table) {
			t.Errorf("table %s missing after migrate", table)
		}
	}
}
