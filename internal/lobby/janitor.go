package lobby

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

type JanitorIntervals struct {
	Matchmaking time.Duration
	Invitations time.Duration
	Liveness    time.Duration
}

func (iv JanitorIntervals) withDefaults() JanitorIntervals {
	if iv.Matchmaking <= 0 {
		iv.Matchmaking = time.Second
	}
	if iv.Invitations <= 0 {
		iv.Invitations = 5 * time.Second
	}
	if iv.Liveness <= 0 {
		iv.Liveness = 10 * time.Second
	}
	return iv
}

// StartJanitor schedules the matchmaking drain, the invitation expiry sweep
// and the liveness sweep. The scheduler shuts down when ctx is cancelled.
func (c *Coordinator) StartJanitor(ctx context.Context, iv JanitorIntervals) error {
	iv = iv.withDefaults()
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	jobs := []struct {
		name  string
		every time.Duration
		run   func()
	}{
		{"matchmaking_drain", iv.Matchmaking, func() { c.DrainMatchmaking() }},
		{"invitation_sweep", iv.Invitations, func() { c.SweepInvitations(c.now()) }},
		{"liveness_sweep", iv.Liveness, func() {
			now := c.now()
			c.SweepLiveness(now)
			c.SweepOverdueRounds(now)
		}},
	}
	for _, j := range jobs {
		if _, err := sched.NewJob(
			gocron.DurationJob(j.every),
			gocron.NewTask(j.run),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			_ = sched.Shutdown()
			return err
		}
	}
	sched.Start()
	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Error().Err(err).Msg("janitor shutdown failed")
		}
	}()
	return nil
}
