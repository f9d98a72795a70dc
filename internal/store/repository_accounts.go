package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const accountColumns = `id, username, email, total_score, total_wins, total_losses, total_draws, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.TotalScore, &a.Wins, &a.Losses, &a.Draws, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// Register creates an account. The credential is the client-side digest; it
// is stored bcrypt-hashed.
func (s *Store) Register(ctx context.Context, username, credential, email string) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO accounts (id, username, credential_hash, email)
		VALUES ($1, $2, $3, $4)
		RETURNING `+accountColumns,
		NewID(), username, string(hash), email)
	a, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return a, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown username as well
// as for a wrong credential.
func (s *Store) Authenticate(ctx context.Context, username, credential string) (*Account, error) {
	var hash string
	row := s.Pool.QueryRow(ctx, `SELECT credential_hash, `+accountColumns+` FROM accounts WHERE username = $1`, username)
	var a Account
	err := row.Scan(&hash, &a.ID, &a.Username, &a.Email, &a.TotalScore, &a.Wins, &a.Losses, &a.Draws, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &a, nil
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (*Account, error) {
	a, err := scanAccount(s.Pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return a, nil
}

// CreditRoundOutcome adds scoreDelta to the total and bumps the counter that
// matches outcome ("win", "lose" or "draw").
func (s *Store) CreditRoundOutcome(ctx context.Context, accountID string, scoreDelta int, outcome string) error {
	switch outcome {
	case "win", "lose", "draw":
	default:
		return fmt.Errorf("unknown outcome %q", outcome)
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE accounts SET
			total_score = total_score + $2,
			total_wins = total_wins + CASE WHEN $3 = 'win' THEN 1 ELSE 0 END,
			total_losses = total_losses + CASE WHEN $3 = 'lose' THEN 1 ELSE 0 END,
			total_draws = total_draws + CASE WHEN $3 = 'draw' THEN 1 ELSE 0 END,
			updated_at = now()
		WHERE id = $1`, accountID, scoreDelta, outcome)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Account, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		ORDER BY total_score DESC, total_wins DESC, username ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Account, 0, limit)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
