package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/onnwee/invite-rooms/rooms"
)

// RoomStore implements rooms.Store.
type RoomStore struct{ DB *sql.DB }

var _ rooms.Store = (*RoomStore)(nil)

// NewRoomStore wraps an open pool.
func NewRoomStore(db *sql.DB) *RoomStore { return &RoomStore{DB: db} }

const roomColumns = `room_id, guild_id, owner_id, name, capacity, locked, created_at`

func scanRoom(row interface{ Scan(...any) error }) (rooms.Room, error) {
	var r rooms.Room
	err := row.Scan(&r.ID, &r.GuildID, &r.OwnerID, &r.Name, &r.Capacity, &r.Locked, &r.CreatedAt)
	return r, err
}

func (s *RoomStore) Create(ctx context.Context, r rooms.Room) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO rooms(`+roomColumns+`) VALUES($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.GuildID, r.OwnerID, r.Name, r.Capacity, r.Locked, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *RoomStore) Get(ctx context.Context, roomID string) (rooms.Room, error) {
	r, err := scanRoom(s.DB.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE room_id=$1`, roomID))
	if errors.Is(err, sql.ErrNoRows) {
		return rooms.Room{}, rooms.ErrRoomNotFound
	}
	return r, err
}

func (s *RoomStore) FindByOwner(ctx context.Context, guildID, ownerID string) (rooms.Room, bool, error) {
	r, err := scanRoom(s.DB.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE guild_id=$1 AND owner_id=$2 ORDER BY created_at LIMIT 1`, guildID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return rooms.Room{}, false, nil
	}
	if err != nil {
		return rooms.Room{}, false, err
	}
	return r, true, nil
}

func (s *RoomStore) SetOwner(ctx context.Context, roomID, from, to string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE rooms SET owner_id=$3 WHERE room_id=$1 AND owner_id=$2`, roomID, from, to)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	// distinguish a vanished room from a lost race
	if _, err := s.Get(ctx, roomID); err != nil {
		return err
	}
	return rooms.ErrNotOwner
}

func (s *RoomStore) SetLocked(ctx context.Context, roomID string, locked bool) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE rooms SET locked=$2 WHERE room_id=$1`, roomID, locked)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return rooms.ErrRoomNotFound
	}
	return nil
}

func (s *RoomStore) Delete(ctx context.Context, roomID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM rooms WHERE room_id=$1`, roomID)
	return err
}

func (s *RoomStore) List(ctx context.Context) ([]rooms.Room, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []rooms.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
