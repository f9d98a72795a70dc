package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/rand"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"grain-arena/internal/config"
	"grain-arena/internal/logging"
	"grain-arena/internal/protocol"

	"github.com/rs/zerolog/log"
)

const (
	heartbeatEvery = 5 * time.Second
	scoreEvery     = 3 * time.Second
)

type bot struct {
	cfg  config.BotConfig
	conn net.Conn
	rnd  *rand.Rand

	writeMu sync.Mutex

	mu       sync.Mutex
	inRound  bool
	score    int
	roundEnd time.Time
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	if logCfg.Service == "" {
		logCfg.Service = "dumb-bot"
	}
	logging.Init(logCfg)
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := net.DialTimeout("tcp", cfg.GameAddr, 5*time.Second)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GameAddr).Msg("dial failed")
	}
	defer conn.Close()
	context.AfterFunc(ctx, func() { _ = conn.Close() })

	b := &bot{cfg: cfg, conn: conn, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
	go b.tick(ctx)
	if err := b.run(); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("bot stopped")
	}
}

// credential is the lowercase SHA-256 hex digest the server expects in the
// password field.
func credential(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (b *bot) send(v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_ = b.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := b.conn.Write(append(raw, '\n')); err != nil {
		log.Warn().Err(err).Msg("write failed")
	}
}

func (b *bot) run() error {
	b.send(protocol.LoginRequest{Type: protocol.TypeLogin, Username: b.cfg.Username, Password: credential(b.cfg.Password)})
	registered := false

	sc := bufio.NewScanner(b.conn)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		var env protocol.Envelope
		if err := json.Unmarshal(sc.Bytes(), &env); err != nil {
			continue
		}
		switch env.Type {
		case protocol.TypeLoginResponse:
			log.Info().Str("username", b.cfg.Username).Msg("logged in")
			b.send(map[string]string{"type": protocol.TypeJoinMatchmaking})
		case protocol.TypeRegisterResponse:
			b.send(protocol.LoginRequest{Type: protocol.TypeLogin, Username: b.cfg.Username, Password: credential(b.cfg.Password)})
		case protocol.TypeError:
			var rec protocol.ErrorRecord
			_ = json.Unmarshal(sc.Bytes(), &rec)
			if rec.Code == protocol.ErrInvalidCredentials && !registered {
				registered = true
				b.send(protocol.RegisterRequest{
					Type:     protocol.TypeRegister,
					Username: b.cfg.Username,
					Password: credential(b.cfg.Password),
					Email:    b.cfg.Email,
				})
				continue
			}
			log.Warn().Int("code", rec.Code).Str("message", rec.Message).Msg("server error")
		case protocol.TypeGameStart:
			var gs protocol.GameStart
			_ = json.Unmarshal(sc.Bytes(), &gs)
			b.mu.Lock()
			b.inRound, b.score = true, 0
			b.roundEnd = time.Now().Add(time.Duration(gs.DurationSeconds) * time.Second)
			b.mu.Unlock()
			log.Info().Str("room_id", gs.RoomID).Str("opponent", gs.OpponentName).Int("grains", gs.TotalGrains).Msg("round started")
		case protocol.TypeGameResult:
			var gr protocol.GameResult
			_ = json.Unmarshal(sc.Bytes(), &gr)
			b.mu.Lock()
			b.inRound = false
			b.mu.Unlock()
			log.Info().Str("result", gr.Result).Int("score", gr.MyScore).Int("total", gr.NewTotalScore).Msg("round finished")
			b.send(map[string]string{"type": protocol.TypeJoinMatchmaking})
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (b *bot) tick(ctx context.Context) {
	hb := time.NewTicker(heartbeatEvery)
	defer hb.Stop()
	play := time.NewTicker(scoreEvery)
	defer play.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-hb.C:
			b.send(map[string]string{"type": protocol.TypeHeartbeat})
		case <-play.C:
			b.play()
		}
	}
}

// play bumps the score by a few points and ends the round at the maximum
// score or when the round timer runs out.
func (b *bot) play() {
	b.mu.Lock()
	if !b.inRound {
		b.mu.Unlock()
		return
	}
	b.score += b.rnd.Intn(8)
	if b.score > 100 {
		b.score = 100
	}
	score := b.score
	expired := time.Now().After(b.roundEnd)
	if score == 100 || expired {
		b.inRound = false
	}
	b.mu.Unlock()

	switch {
	case score == 100:
		b.send(protocol.ScoreRequest{Type: protocol.TypeGameOver, Score: &score})
	case expired:
		b.send(protocol.ScoreRequest{Type: protocol.TypeGameTimeout, Score: &score})
	default:
		b.send(protocol.ScoreRequest{Type: protocol.TypeScoreUpdate, Score: &score})
	}
}
