package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
	sendBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LogMessage is one operation log line pushed to websocket clients.
type LogMessage struct {
	Seq  int    `json:"seq"`
	Line string `json:"line"`
}

// ClientPool tracks the websocket clients subscribed to the log.
type ClientPool struct {
	clients map[*WSClient]bool
	mutex   sync.Mutex
	closed  bool
	// onChange is called with the client count after every change
	onChange func(n int)
}

// NewClientPool creates an empty client pool.
func NewClientPool() *ClientPool {
	return &ClientPool{
		clients:  make(map[*WSClient]bool),
		onChange: func(int) {},
	}
}

// WSClient is one websocket connection.
type WSClient struct {
	conn    *websocket.Conn
	send    chan LogMessage
	backlog []LogMessage
	pool    *ClientPool
}

// register adds a client.  It returns false if the pool is closed.
func (cp *ClientPool) register(c *WSClient) bool {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	if cp.closed {
		return false
	}
	cp.clients[c] = true
	cp.onChange(len(cp.clients))
	log.Debugf("websocket client %s registered, total clients: %d", c.conn.RemoteAddr(), len(cp.clients))
	return true
}

func (cp *ClientPool) unregister(c *WSClient) {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	if _, ok := cp.clients[c]; ok {
		delete(cp.clients, c)
		close(c.send)
		cp.onChange(len(cp.clients))
		log.Debugf("websocket client %s unregistered, total clients: %d", c.conn.RemoteAddr(), len(cp.clients))
	}
}

// Broadcast queues msg for every client.  A client whose queue is full
// misses the message.
func (cp *ClientPool) Broadcast(msg LogMessage) {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	for c := range cp.clients {
		select {
		case c.send <- msg:
		default:
			log.Warnf("websocket client %s is behind, dropped log line %d", c.conn.RemoteAddr(), msg.Seq)
		}
	}
}

// Len returns the number of connected clients.
func (cp *ClientPool) Len() int {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	return len(cp.clients)
}

// Close disconnects every client and refuses new ones.
func (cp *ClientPool) Close() {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	cp.closed = true
	for c := range cp.clients {
		delete(cp.clients, c)
		close(c.send)
	}
	cp.onChange(0)
}

// writePump sends the backlog, then queued messages, with periodic
// pings.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for _, msg := range c.backlog {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Warnf("websocket write error: %v", err)
			return
		}
	}
	c.backlog = nil

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// pool closed the send channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Warnf("websocket write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warnf("websocket ping error: %v", err)
				return
			}
		}
	}
}

// readPump discards incoming messages and unregisters the client when
// the connection goes away.
func (c *WSClient) readPump() {
	defer func() {
		c.pool.unregister(c)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("websocket read error: %v", err)
			}
			return
		}
	}
}
