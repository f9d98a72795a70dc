package game

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeDraw Outcome = "draw"
)

// Slot is one occupant's final round state.
type Slot struct {
	Score int
	Quit  bool
}

// Decide settles a round. A single quitter loses regardless of score; when
// both or neither quit the higher score wins and equal scores draw.
func Decide(host, guest Slot) (hostOutcome, guestOutcome Outcome) {
	switch {
	case host.Quit && !guest.Quit:
		return OutcomeLose, OutcomeWin
	case guest.Quit && !host.Quit:
		return OutcomeWin, OutcomeLose
	}
	switch {
	case host.Score > guest.Score:
		return OutcomeWin, OutcomeLose
	case guest.Score > host.Score:
		return OutcomeLose, OutcomeWin
	default:
		return OutcomeDraw, OutcomeDraw
	}
}

// Reward is the amount added to an account's total score for a round:
// the full score on a win, half (rounded down) on a draw, nothing on a loss.
func Reward(outcome Outcome, score int) int {
	score = ClampScore(score)
	switch outcome {
	case OutcomeWin:
		return score
	case OutcomeDraw:
		return score / 2
	default:
		return 0
	}
}
