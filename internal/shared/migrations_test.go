package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) < 2 {
			t.Fatalf("expected at least two migrations, got %d", len(migrations))
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		if migrations[0].Name != "create_library" {
			t.Errorf("expected first migration create_library, got %q", migrations[0].Name)
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"playlists", "tracks", "artists", "track_artists", "playlist_tracks", "sync_meta", "runs"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM runs LIMIT 1"); err == nil {
			t.Error("runs table should be dropped after rollback")
		}

		statuses, err := Migrations(db)
		if err != nil {
			t.Fatalf("failed to list migrations: %v", err)
		}
		if statuses[0].AppliedAt == nil {
			t.Error("first migration should still be applied")
		}
		if statuses[len(statuses)-1].AppliedAt != nil {
			t.Error("last migration should be pending after rollback")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})

	t.Run("Pure Go Driver", func(t *testing.T) {
		db, err := NewDatabaseWithDriver(DriverPure, ":memory:")
		if err != nil {
			t.Fatalf("failed to open modernc database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	})

	t.Run("Unknown Driver", func(t *testing.T) {
		if _, err := NewDatabaseWithDriver("postgres", ":memory:"); err == nil {
			t.Error("expected error for unknown driver")
		}
	})

	t.Run("Foreign Keys Enforced", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		if err := RunMigrations(db); err != nil {
			t.Fatal(err)
		}

		_, err = db.Exec("INSERT INTO playlist_tracks (playlist_id, track_id, position) VALUES ('missing', 'missing', 0)")
		if err == nil {
			t.Error("expected foreign key violation")
		}
	})
}

func TestSplitStatements(t *testing.T) {
	script := "-- header\nCREATE TABLE a (x INT); -- trailing\n\nCREATE TABLE b (y INT);\n"
	stmts := splitStatements(script)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[1] != "CREATE TABLE b (y INT)" {
		t.Errorf("unexpected statement %q", stmts[1])
	}
}
