package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/onnwee/invite-rooms/invites"
)

// InviteStore implements invites.Store. Every mutation runs in one transaction so
// invite_count always matches the number of invite_joins rows.
type InviteStore struct{ DB *sql.DB }

var _ invites.Store = (*InviteStore)(nil)

// NewInviteStore wraps an open pool.
func NewInviteStore(db *sql.DB) *InviteStore { return &InviteStore{DB: db} }

func (s *InviteStore) AppendJoin(ctx context.Context, guildID, inviterID, joinerID string) (invites.Record, bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return invites.Record{}, false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO invite_records(guild_id, inviter_id) VALUES($1,$2) ON CONFLICT (guild_id, inviter_id) DO NOTHING`,
		guildID, inviterID); err != nil {
		return invites.Record{}, false, fmt.Errorf("upsert invite record: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO invite_joins(guild_id, inviter_id, user_id) VALUES($1,$2,$3) ON CONFLICT DO NOTHING`,
		guildID, inviterID, joinerID)
	if err != nil {
		return invites.Record{}, false, fmt.Errorf("insert invite join: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return invites.Record{}, false, err
	}
	added := n > 0
	if added {
		if _, err := tx.ExecContext(ctx,
			`UPDATE invite_records SET invite_count = invite_count + 1, updated_at = NOW() WHERE guild_id=$1 AND inviter_id=$2`,
			guildID, inviterID); err != nil {
			return invites.Record{}, false, fmt.Errorf("increment invite count: %w", err)
		}
	}
	rec, err := loadRecord(ctx, tx, guildID, inviterID)
	if err != nil {
		return invites.Record{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return invites.Record{}, false, err
	}
	return rec, added, nil
}

func (s *InviteStore) RemoveJoin(ctx context.Context, guildID, joinerID string) (invites.Record, bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return invites.Record{}, false, err
	}
	defer func() { _ = tx.Rollback() }()

	var inviterID string
	err = tx.QueryRowContext(ctx,
		`SELECT inviter_id FROM invite_joins WHERE guild_id=$1 AND user_id=$2 ORDER BY inviter_id LIMIT 1 FOR UPDATE`,
		guildID, joinerID).Scan(&inviterID)
	if errors.Is(err, sql.ErrNoRows) {
		return invites.Record{}, false, nil
	}
	if err != nil {
		return invites.Record{}, false, fmt.Errorf("find invite join: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM invite_joins WHERE guild_id=$1 AND inviter_id=$2 AND user_id=$3`,
		guildID, inviterID, joinerID); err != nil {
		return invites.Record{}, false, fmt.Errorf("delete invite join: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE invite_records SET invite_count = GREATEST(invite_count - 1, 0), updated_at = NOW() WHERE guild_id=$1 AND inviter_id=$2`,
		guildID, inviterID); err != nil {
		return invites.Record{}, false, fmt.Errorf("decrement invite count: %w", err)
	}
	rec, err := loadRecord(ctx, tx, guildID, inviterID)
	if err != nil {
		return invites.Record{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return invites.Record{}, false, err
	}
	return rec, true, nil
}

func (s *InviteStore) Get(ctx context.Context, guildID, inviterID string) (invites.Record, error) {
	return loadRecord(ctx, s.DB, guildID, inviterID)
}

func (s *InviteStore) DeleteGuild(ctx context.Context, guildID string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM invite_records WHERE guild_id=$1`, guildID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func loadRecord(ctx context.Context, q queryer, guildID, inviterID string) (invites.Record, error) {
	rec := invites.Record{GuildID: guildID, InviterID: inviterID}
	err := q.QueryRowContext(ctx,
		`SELECT invite_count, updated_at FROM invite_records WHERE guild_id=$1 AND inviter_id=$2`,
		guildID, inviterID).Scan(&rec.InviteCount, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return invites.Record{}, invites.ErrNoInvites
	}
	if err != nil {
		return invites.Record{}, fmt.Errorf("load invite record: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT user_id FROM invite_joins WHERE guild_id=$1 AND inviter_id=$2 ORDER BY seq`,
		guildID, inviterID)
	if err != nil {
		return invites.Record{}, fmt.Errorf("load invite joins: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return invites.Record{}, err
		}
		rec.InvitedUsers = append(rec.InvitedUsers, id)
	}
	if err := rows.Err(); err != nil {
		return invites.Record{}, err
	}
	return rec, nil
}
