package mpv

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

var errClosed = errors.New("mpv: ipc connection closed")

// message is anything mpv writes on the IPC socket: a reply carrying
// request_id, or an event.
type message struct {
	RequestID int64           `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Event     string          `json:"event,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	FileError string          `json:"file_error,omitempty"`
}

// ipc multiplexes commands and events over one mpv JSON IPC connection.
type ipc struct {
	conn    net.Conn
	timeout time.Duration
	onEvent func(message)

	nextID  atomic.Int64
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]chan message

	closeOnce sync.Once
	closed    chan struct{}
}

func newIPC(conn net.Conn, timeout time.Duration, onEvent func(message)) *ipc {
	c := &ipc{
		conn:    conn,
		timeout: timeout,
		onEvent: onEvent,
		pending: make(map[int64]chan message),
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *ipc) readLoop() {
	defer c.close()
	sc := bufio.NewScanner(c.conn)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		var m message
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			continue
		}
		if m.Event != "" {
			if c.onEvent != nil {
				c.onEvent(m)
			}
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[m.RequestID]
		delete(c.pending, m.RequestID)
		c.mu.Unlock()
		if ok {
			ch <- m
		}
	}
}

// command sends one command and waits for its reply.
func (c *ipc) command(args ...any) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	reply := make(chan message, 1)

	c.mu.Lock()
	c.pending[id] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	payload, err := json.Marshal(map[string]any{"command": args, "request_id": id})
	if err != nil {
		return nil, errors.Wrap(err, "encode mpv command")
	}

	c.writeMu.Lock()
	_, err = c.conn.Write(append(payload, '\n'))
	c.writeMu.Unlock()
	if err != nil {
		return nil, errors.Wrapf(err, "send %v", args[0])
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case m := <-reply:
		if m.Error != "" && m.Error != "success" {
			return nil, errors.Errorf("mpv %v: %s", args[0], m.Error)
		}
		return m.Data, nil
	case <-c.closed:
		return nil, errClosed
	case <-timer.C:
		return nil, errors.Errorf("mpv %v: no reply within %s", args[0], c.timeout)
	}
}

func (c *ipc) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}
