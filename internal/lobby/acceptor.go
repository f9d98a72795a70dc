package lobby

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"grain-arena/internal/transport/stream"

	"github.com/rs/zerolog/log"
)

// Serve accepts connections on ln until ctx is cancelled, running one
// ServeConn goroutine per connection.
func (c *Coordinator) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	log.Info().Str("addr", ln.Addr().String()).Msg("game listener started")
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if retryableAccept(err) {
				backoff = nextBackoff(backoff)
				log.Warn().Err(err).Dur("retry_in", backoff).Msg("accept failed")
				time.Sleep(backoff)
				continue
			}
			return err
		}
		backoff = 0
		go c.ServeConn(ctx, stream.NewLineConn(conn, c.opts.MaxRecordBytes))
	}
}

// retryableAccept reports accept errors that clear up on their own: timeouts,
// aborted handshakes and file descriptor or buffer exhaustion.
func retryableAccept(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.EMFILE, syscall.ENFILE, syscall.ENOBUFS, syscall.ENOMEM, syscall.ECONNABORTED} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
