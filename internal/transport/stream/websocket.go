package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSConn carries one record per websocket text message.
type WSConn struct {
	conn *websocket.Conn

	writeMu  sync.Mutex
	closeMu  sync.Once
	closeErr error
}

// Upgrade switches an HTTP request to a websocket record stream.
func Upgrade(w http.ResponseWriter, r *http.Request, maxRecordBytes int) (*WSConn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewWSConn(conn, maxRecordBytes), nil
}

func NewWSConn(conn *websocket.Conn, maxRecordBytes int) *WSConn {
	if maxRecordBytes <= 0 {
		maxRecordBytes = DefaultMaxRecordBytes
	}
	conn.SetReadLimit(int64(maxRecordBytes))
	return &WSConn{conn: conn}
}

func (c *WSConn) ReadRecord() ([]byte, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if err == websocket.ErrReadLimit {
				return nil, ErrRecordTooLarge
			}
			return nil, err
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		if len(data) == 0 {
			continue
		}
		return data, nil
	}
}

func (c *WSConn) WriteRecord(record []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, record)
}

func (c *WSConn) Close() error {
	c.closeMu.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *WSConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
