package connections

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the connections table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Each pooled connection would get its own in-memory database.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE connections (
			id INTEGER PRIMARY KEY,
			source_device INTEGER NOT NULL,
			source_control INTEGER NOT NULL,
			source_address INTEGER NOT NULL,
			destination_device INTEGER NOT NULL,
			destination_control INTEGER NOT NULL,
			destination_address INTEGER NOT NULL,
			connection_type TEXT NOT NULL,
			source_device_restrictions TEXT NOT NULL DEFAULT '[]',
			room_restrictions TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestSQLiteRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t))

	conn, err := NewConnection(1, NewEndpoint(1, 1, 1), NewEndpoint(2, 1, 1), Audio|Video, []int{42}, []int{3})
	if err != nil {
		t.Fatalf("NewConnection error = %v", err)
	}
	if err := repo.Save(ctx, conn); err != nil {
		t.Fatalf("Save error = %v", err)
	}

	got, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID error = %v", err)
	}
	if got.Type() != Audio|Video {
		t.Errorf("Type() = %v, want Audio, Video", got.Type())
	}
	if got.Source() != conn.Source() || got.Destination() != conn.Destination() {
		t.Errorf("endpoints = %v -> %v", got.Source(), got.Destination())
	}
	if !slices.Equal(got.SourceDeviceRestrictions(), []int{42}) {
		t.Errorf("SourceDeviceRestrictions() = %v, want [42]", got.SourceDeviceRestrictions())
	}
	if !slices.Equal(got.RoomRestrictions(), []int{3}) {
		t.Errorf("RoomRestrictions() = %v, want [3]", got.RoomRestrictions())
	}
}

func TestSQLiteRepository_SaveUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t))

	conn := MustConnection(1, NewEndpoint(1, 1, 1), NewEndpoint(2, 1, 1), Audio)
	if err := repo.Save(ctx, conn); err != nil {
		t.Fatalf("Save error = %v", err)
	}
	conn.SetRoomRestrictions([]int{9})
	if err := repo.Save(ctx, conn); err != nil {
		t.Fatalf("Save (update) error = %v", err)
	}

	got, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID error = %v", err)
	}
	if !slices.Equal(got.RoomRestrictions(), []int{9}) {
		t.Errorf("RoomRestrictions() = %v, want [9]", got.RoomRestrictions())
	}
}

func TestSQLiteRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t))

	if _, err := repo.GetByID(ctx, 99); !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("GetByID(99) error = %v, want ErrConnectionNotFound", err)
	}
	if err := repo.Delete(ctx, 99); !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("Delete(99) error = %v, want ErrConnectionNotFound", err)
	}
}

func TestSQLiteRepository_ReplaceAllAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteRepository(setupTestDB(t))

	if err := repo.Save(ctx, MustConnection(50, NewEndpoint(9, 9, 9), NewEndpoint(8, 8, 8), Usb)); err != nil {
		t.Fatalf("Save error = %v", err)
	}

	replacement := []*Connection{
		MustConnection(2, NewEndpoint(2, 1, 1), NewEndpoint(3, 1, 1), Video),
		MustConnection(1, NewEndpoint(1, 1, 1), NewEndpoint(2, 1, 1), Video),
	}
	if err := repo.ReplaceAll(ctx, replacement); err != nil {
		t.Fatalf("ReplaceAll error = %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if got := connIDs(list); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("List ids = %v, want [1 2]", got)
	}

	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	list, _ = repo.List(ctx)
	if len(list) != 1 {
		t.Errorf("List after Delete = %d entries, want 1", len(list))
	}
}
