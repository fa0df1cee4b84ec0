package wsview

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/cameramfd/extension/internal/queue"
	"github.com/cameramfd/extension/pkg/streaming"
)

const (
	maxRedial   = 10
	maxBackoff  = 30 * time.Second
	writeWait   = 5 * time.Second
	ackTimeout  = 5 * time.Second
	poseKeyPref = "pose:"
)

// connection owns the viewer socket. Outgoing messages wait in a coalescing
// outbox: a pose update replaces the pending pose of the same camera, while
// every other message is kept in order. A single writer goroutine drains the
// outbox; a reader goroutine releases ack waiters.
type connection struct {
	mu      sync.Mutex
	conn    *ws.Conn
	closed  bool
	done    chan struct{}
	wake    chan struct{}
	seq     uint64
	waiters map[string][]chan struct{}

	outbox *queue.Coalescing[string, []byte]

	viewerURL string
	token     string
	// hello goes out first on every new socket so the viewer can re-associate
	// the session.
	hello []byte

	logger *slog.Logger
}

func newConnection(logger *slog.Logger) *connection {
	return &connection{
		done:    make(chan struct{}),
		wake:    make(chan struct{}, 1),
		waiters: make(map[string][]chan struct{}),
		outbox:  queue.New[string, []byte](),
		logger:  logger,
	}
}

func (c *connection) dial(rawURL, token string, hello []byte) error {
	c.viewerURL = rawURL
	c.token = token
	c.hello = hello

	conn, err := c.open()
	if err != nil {
		return err
	}
	c.attach(conn)
	return nil
}

// open dials the viewer and sends hello.
func (c *connection) open() (*ws.Conn, error) {
	u, err := url.Parse(c.viewerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid viewer URL: %w", err)
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("viewer dial failed: %w", err)
	}
	if c.hello != nil {
		if err := write(conn, c.hello); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("sending hello: %w", err)
		}
	}
	return conn, nil
}

func (c *connection) attach(conn *ws.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.writeLoop(conn)
	go c.readLoop(conn)
	c.signal()
}

func write(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

func (c *connection) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// send queues a message that must reach the viewer in order.
func (c *connection) send(data []byte) {
	c.mu.Lock()
	c.seq++
	key := strconv.FormatUint(c.seq, 10)
	c.mu.Unlock()

	c.outbox.Push(key, data)
	c.signal()
}

// sendPose queues a pose for camera, superseding one not yet written.
func (c *connection) sendPose(camera string, data []byte) {
	c.outbox.Push(poseKeyPref+camera, data)
	c.signal()
}

func (c *connection) writeLoop(conn *ws.Conn) {
	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
		}

		keys, items := c.outbox.Drain()
		for i, data := range items {
			if err := write(conn, data); err != nil {
				c.outbox.Restore(keys[i:], items[i:])
				c.logger.Warn("Viewer write error", "error", err)
				go c.redial(conn)
				return
			}
		}
	}
}

func (c *connection) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("Viewer read error", "error", err)
				go c.redial(conn)
			}
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != "ack" {
			c.logger.Debug("Ignoring viewer message", "raw", string(message))
			continue
		}
		c.release(ack.For)
	}
}

// release wakes the oldest waiter for an ack of msgType.
func (c *connection) release(msgType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.waiters[msgType]
	if len(q) == 0 {
		c.logger.Debug("Unexpected ack", "for", msgType)
		return
	}
	close(q[0])
	c.waiters[msgType] = q[1:]
}

// redial replaces a broken socket with exponential backoff. Only the first
// caller for a given socket does the work.
func (c *connection) redial(broken *ws.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != broken {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()
	_ = broken.Close()

	backoff := time.Second
	for attempt := 1; attempt <= maxRedial; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		conn, err := c.open()
		if err != nil {
			c.logger.Warn("Viewer reconnect failed", "attempt", attempt, "error", err)
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.mu.Unlock()

		c.logger.Info("Viewer reconnected", "attempt", attempt, "pending", c.outbox.Len())
		c.attach(conn)
		return
	}

	c.logger.Error("Giving up on viewer", "attempts", maxRedial)
}

// sendAndWait queues data and blocks until the viewer acks ackFor.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	acked := make(chan struct{})
	c.mu.Lock()
	c.waiters[ackFor] = append(c.waiters[ackFor], acked)
	c.mu.Unlock()

	c.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-acked:
		return nil
	case <-timer.C:
		c.forget(ackFor, acked)
		return fmt.Errorf("timeout waiting for ack of %q", ackFor)
	case <-c.done:
		return fmt.Errorf("connection closed while waiting for ack of %q", ackFor)
	}
}

func (c *connection) forget(msgType string, acked chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.waiters[msgType]
	for i, w := range q {
		if w == acked {
			c.waiters[msgType] = append(q[:i:i], q[i+1:]...)
			return
		}
	}
}

func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return conn.Close()
}
