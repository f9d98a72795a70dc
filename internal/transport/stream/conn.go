package stream

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"sync"
	"time"
)

const writeTimeout = 10 * time.Second

// DefaultMaxRecordBytes bounds a single inbound record.
const DefaultMaxRecordBytes = 64 * 1024

var ErrRecordTooLarge = errors.New("record_too_large")

// Conn is one bidirectional record stream to a client. ReadRecord is called
// from a single goroutine; WriteRecord and Close are safe for concurrent use.
type Conn interface {
	ReadRecord() ([]byte, error)
	WriteRecord(record []byte) error
	Close() error
	RemoteAddr() string
}

// LineConn carries newline-delimited records over a byte stream.
type LineConn struct {
	conn    net.Conn
	scanner *bufio.Scanner

	writeMu  sync.Mutex
	closeMu  sync.Once
	closeErr error
}

func NewLineConn(conn net.Conn, maxRecordBytes int) *LineConn {
	if maxRecordBytes <= 0 {
		maxRecordBytes = DefaultMaxRecordBytes
	}
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, min(4096, maxRecordBytes)), maxRecordBytes)
	return &LineConn{conn: conn, scanner: sc}
}

func (c *LineConn) ReadRecord() ([]byte, error) {
	for c.scanner.Scan() {
		line := bytes.TrimSpace(c.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := c.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, ErrRecordTooLarge
		}
		return nil, err
	}
	return nil, net.ErrClosed
}

func (c *LineConn) WriteRecord(record []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	buf := make([]byte, 0, len(record)+1)
	buf = append(buf, record...)
	buf = append(buf, '\n')
	_, err := c.conn.Write(buf)
	return err
}

func (c *LineConn) Close() error {
	c.closeMu.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *LineConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
