package connections

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Repository defines persistence operations for connection settings.
// This abstraction allows SQLite or mock implementations.
type Repository interface {
	// List retrieves every connection, ordered by id.
	List(ctx context.Context) ([]*Connection, error)

	// GetByID retrieves one connection.
	// Returns ErrConnectionNotFound if it does not exist.
	GetByID(ctx context.Context, id int) (*Connection, error)

	// Save inserts or replaces a connection.
	Save(ctx context.Context, conn *Connection) error

	// Delete removes a connection.
	// Returns ErrConnectionNotFound if it does not exist.
	Delete(ctx context.Context, id int) error

	// ReplaceAll swaps the stored set for conns in one transaction.
	ReplaceAll(ctx context.Context, conns []*Connection) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with migrations applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `
	SELECT id, source_device, source_control, source_address,
		destination_device, destination_control, destination_address,
		connection_type, source_device_restrictions, room_restrictions
	FROM connections`

const upsertQuery = `
	INSERT INTO connections (
		id, source_device, source_control, source_address,
		destination_device, destination_control, destination_address,
		connection_type, source_device_restrictions, room_restrictions
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		source_device = excluded.source_device,
		source_control = excluded.source_control,
		source_address = excluded.source_address,
		destination_device = excluded.destination_device,
		destination_control = excluded.destination_control,
		destination_address = excluded.destination_address,
		connection_type = excluded.connection_type,
		source_device_restrictions = excluded.source_device_restrictions,
		room_restrictions = excluded.room_restrictions,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

// List retrieves every connection, ordered by id.
func (r *SQLiteRepository) List(ctx context.Context) ([]*Connection, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	var out []*Connection
	for rows.Next() {
		conn, scanErr := scanConnection(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating connections: %w", err)
	}
	return out, nil
}

// GetByID retrieves one connection.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int) (*Connection, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	conn, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	return conn, nil
}

// Save inserts or replaces a connection.
func (r *SQLiteRepository) Save(ctx context.Context, conn *Connection) error {
	args, err := connectionArgs(conn)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertQuery, args...); err != nil {
		return fmt.Errorf("saving connection %d: %w", conn.ID(), err)
	}
	return nil
}

// Delete removes a connection.
func (r *SQLiteRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM connections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting connection %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

// ReplaceAll swaps the stored set for conns in one transaction.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, conns []*Connection) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM connections"); err != nil {
		return fmt.Errorf("clearing connections: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, conn := range conns {
		args, argErr := connectionArgs(conn)
		if argErr != nil {
			return argErr
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting connection %d: %w", conn.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing connections: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(s scanner) (*Connection, error) {
	var (
		cs                    ConnectionSettings
		typ                   string
		deviceJSON, roomsJSON string
	)
	err := s.Scan(
		&cs.ID, &cs.SourceDevice, &cs.SourceControl, &cs.SourceAddress,
		&cs.DestinationDevice, &cs.DestinationControl, &cs.DestinationAddress,
		&typ, &deviceJSON, &roomsJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning connection: %w", err)
	}

	if cs.ConnectionType, err = ParseConnectionType(typ); err != nil {
		return nil, fmt.Errorf("connection %d: %w", cs.ID, err)
	}
	devices, err := unmarshalIDs(deviceJSON)
	if err != nil {
		return nil, fmt.Errorf("connection %d device restrictions: %w", cs.ID, err)
	}
	rooms, err := unmarshalIDs(roomsJSON)
	if err != nil {
		return nil, fmt.Errorf("connection %d room restrictions: %w", cs.ID, err)
	}
	cs.SourceDeviceRestrictions = NewIDList(devices)
	cs.RoomRestrictions = NewIDList(rooms)

	return cs.ToConnection()
}

func connectionArgs(conn *Connection) ([]any, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: nil connection", ErrInvalidArgument)
	}
	devices, err := json.Marshal(conn.SourceDeviceRestrictions())
	if err != nil {
		return nil, fmt.Errorf("marshalling device restrictions: %w", err)
	}
	rooms, err := json.Marshal(conn.RoomRestrictions())
	if err != nil {
		return nil, fmt.Errorf("marshalling room restrictions: %w", err)
	}

	src, dst := conn.Source(), conn.Destination()
	return []any{
		conn.ID(), src.Device, src.Control, src.Address,
		dst.Device, dst.Control, dst.Address,
		conn.Type().String(), string(devices), string(rooms),
	}, nil
}

func unmarshalIDs(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
