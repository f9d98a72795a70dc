package store

import "time"

type Account struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	TotalScore int       `json:"total_score"`
	Wins       int       `json:"total_wins"`
	Losses     int       `json:"total_losses"`
	Draws      int       `json:"total_draws"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a Account) Matches() int { return a.Wins + a.Losses + a.Draws }

// WinRate is the share of matches won, as a percentage.
func (a Account) WinRate() float64 {
	n := a.Matches()
	if n == 0 {
		return 0
	}
	return float64(a.Wins) * 100 / float64(n)
}

// MatchRecord is one finished round. WinnerID is empty for a draw.
type MatchRecord struct {
	ID              string    `json:"id"`
	HostID          string    `json:"host_id"`
	GuestID         string    `json:"guest_id"`
	HostName        string    `json:"host_name"`
	GuestName       string    `json:"guest_name"`
	HostScore       int       `json:"host_score"`
	GuestScore      int       `json:"guest_score"`
	WinnerID        string    `json:"winner_id,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	PlayedAt        time.Time `json:"played_at"`
}
