package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Conn serialises writes on a websocket connection.
type Conn struct {
	conn   *websocket.Conn
	lock   sync.Mutex
	logger *zap.Logger
}

func Upgrade(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*Conn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &Conn{conn: conn, logger: logger}, nil
}

func (c *Conn) SendJSON(data any) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(data); err != nil {
		c.logger.Debug("websocket write failed", zap.Error(err))
		return err
	}
	return nil
}

func (c *Conn) ping() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Listen drains client frames until the peer goes away, pinging it meanwhile.
// The returned channel is closed once the connection is no longer readable.
func (c *Conn) Listen() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Debug("websocket read ended", zap.Error(err))
				}
				return
			}
		}
	}()
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.ping(); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()
	return done
}

// GracefulClose sends a normal close frame before closing the socket.
func (c *Conn) GracefulClose() {
	c.lock.Lock()
	defer c.lock.Unlock()

	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(2*time.Second),
	)
	_ = c.conn.Close()
}
