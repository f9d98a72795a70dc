package game

import "testing"

func TestDecide(t *testing.T) {
	cases := []struct {
		name      string
		host      Slot
		guest     Slot
		wantHost  Outcome
		wantGuest Outcome
	}{
		{"higher host wins", Slot{Score: 50}, Slot{Score: 20}, OutcomeWin, OutcomeLose},
		{"higher guest wins", Slot{Score: 1}, Slot{Score: 2}, OutcomeLose, OutcomeWin},
		{"equal draws", Slot{Score: 7}, Slot{Score: 7}, OutcomeDraw, OutcomeDraw},
		{"host quit loses despite lead", Slot{Score: 3, Quit: true}, Slot{Score: 0}, OutcomeLose, OutcomeWin},
		{"guest quit loses despite lead", Slot{Score: 0}, Slot{Score: 90, Quit: true}, OutcomeWin, OutcomeLose},
		{"both quit falls back to score", Slot{Score: 4, Quit: true}, Slot{Score: 9, Quit: true}, OutcomeLose, OutcomeWin},
		{"both quit equal draws", Slot{Score: 5, Quit: true}, Slot{Score: 5, Quit: true}, OutcomeDraw, OutcomeDraw},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, g := Decide(tc.host, tc.guest)
			if h != tc.wantHost || g != tc.wantGuest {
				t.Fatalf("Decide() = (%s,%s), want (%s,%s)", h, g, tc.wantHost, tc.wantGuest)
			}
		})
	}
}

func TestReward(t *testing.T) {
	if got := Reward(OutcomeWin, 80); got != 80 {
		t.Fatalf("win reward = %d, want 80", got)
	}
	if got := Reward(OutcomeDraw, 7); got != 3 {
		t.Fatalf("draw reward = %d, want 3", got)
	}
	if got := Reward(OutcomeLose, 99); got != 0 {
		t.Fatalf("loss reward = %d, want 0", got)
	}
	if got := Reward(OutcomeWin, 250); got != 100 {
		t.Fatalf("clamped win reward = %d, want 100", got)
	}
}
