package store

import (
	"context"
	"time"
)

func (s *Store) SaveMatchRecord(ctx context.Context, rec MatchRecord) (string, error) {
	id := rec.ID
	if id == "" {
		id = NewID()
	}
	var winner *string
	if rec.WinnerID != "" {
		winner = &rec.WinnerID
	}
	playedAt := rec.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO matches (id, host_id, guest_id, host_name, guest_name, host_score, guest_score, winner_id, duration_seconds, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, rec.HostID, rec.GuestID, rec.HostName, rec.GuestName, rec.HostScore, rec.GuestScore, winner, rec.DurationSeconds, playedAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

// MatchHistory lists the account's matches, newest first.
func (s *Store) MatchHistory(ctx context.Context, accountID string, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, host_id, guest_id, host_name, guest_name, host_score, guest_score,
		       COALESCE(winner_id, ''), duration_seconds, played_at
		FROM matches
		WHERE host_id = $1 OR guest_id = $1
		ORDER BY played_at DESC, id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MatchRecord, 0)
	for rows.Next() {
		var m MatchRecord
		if err := rows.Scan(&m.ID, &m.HostID, &m.GuestID, &m.HostName, &m.GuestName, &m.HostScore, &m.GuestScore,
			&m.WinnerID, &m.DurationSeconds, &m.PlayedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
