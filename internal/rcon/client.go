package rcon

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"
)

const (
	dialTimeout    = 5 * time.Second
	DefaultTimeout = 5 * time.Second
)

type request struct {
	command string
	timeout time.Duration
	resp    chan result
}

type result struct {
	body string
	err  error
}

// Client talks to one server's RCON port. All commands, no matter the
// caller (console, metrics sampling, readiness checks, scheduled
// tasks), funnel through a single worker goroutine fed by a FIFO
// queue, so at most one command is on the wire at a time and every
// caller gets its own matched response. The protocol has no
// request/response correlation, so a response that times out
// desynchronizes the stream; the worker then drops the connection and
// redials on the next command.
type Client struct {
	addr     string
	password string

	queue chan *request
	done  chan struct{}

	mu        sync.Mutex
	conn      net.Conn
	requestID int32
	connected bool

	closeOnce sync.Once
}

// NewClient creates a client; the connection is established lazily on
// the first command.
func NewClient(addr, password string) *Client {
	c := &Client{
		addr:     addr,
		password: password,
		queue:    make(chan *request, 64),
		done:     make(chan struct{}),
	}
	go c.worker()
	return c
}

// Send queues a command and blocks until its matched response, an
// error, or the timeout. Callers queue in arrival order.
func (c *Client) Send(command string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	req := &request{command: command, timeout: timeout, resp: make(chan result, 1)}

	select {
	case <-c.done:
		return "", domain.Errorf(domain.KindProtocol, "rcon: client closed")
	case c.queue <- req:
	}

	select {
	case <-c.done:
		return "", domain.Errorf(domain.KindProtocol, "rcon: client closed")
	case res := <-req.resp:
		return res.body, res.err
	}
}

// Connected reports whether an authenticated connection is live.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close shuts down the worker and drops the connection. Queued
// requests fail with a closed-client error.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.dropConn()
	})
}

func (c *Client) worker() {
	for {
		select {
		case <-c.done:
			return
		case req := <-c.queue:
			body, err := c.execute(req.command, req.timeout)
			req.resp <- result{body: body, err: err}
		}
	}
}

// execute runs one command with a deadline. A socket error (not a
// timeout) gets a single reconnect-and-retry before the error is
// surfaced.
func (c *Client) execute(command string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)

	if err := c.ensureConnected(); err != nil {
		return "", err
	}

	body, err := c.roundTrip(command, deadline)
	if err == nil {
		return body, nil
	}

	if isTimeout(err) {
		// the pending response may still arrive later and would pair
		// with the wrong request; reset so the next command starts clean
		c.dropConn()
		return "", domain.Errorf(domain.KindProtocol, "rcon: command timed out: %w", err)
	}

	// one-shot reconnect and retry on connection loss
	logger.Log.Debug().Err(err).Str("addr", c.addr).Msg("rcon: connection lost, retrying once")
	c.dropConn()
	if cerr := c.ensureConnected(); cerr != nil {
		return "", cerr
	}
	body, err = c.roundTrip(command, time.Now().Add(timeout))
	if err != nil {
		c.dropConn()
		if isTimeout(err) {
			return "", domain.Errorf(domain.KindProtocol, "rcon: command timed out: %w", err)
		}
		return "", domain.Errorf(domain.KindProtocol, "rcon: connection lost: %w", err)
	}
	return body, nil
}

func (c *Client) ensureConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	conn, err := net.DialTimeout("tcp", c.addr, dialTimeout)
	if err != nil {
		return domain.Errorf(domain.KindProtocol, "rcon: connect %s: %w", c.addr, err)
	}
	c.conn = conn
	c.requestID = 1

	if err := c.authenticate(); err != nil {
		conn.Close()
		c.conn = nil
		return err
	}

	c.connected = true
	logger.Log.Info().Str("addr", c.addr).Msg("rcon: connected and authenticated")
	return nil
}

// authenticate sends the auth packet. The server echoes the request id
// on success and answers with id -1 on a bad password.
func (c *Client) authenticate() error {
	id := c.nextID()
	if err := writePacket(c.conn, &packet{RequestID: id, Type: typeAuth, Body: c.password}, time.Now().Add(dialTimeout)); err != nil {
		return domain.Errorf(domain.KindProtocol, "rcon: auth send: %w", err)
	}

	for {
		c.conn.SetReadDeadline(time.Now().Add(dialTimeout))
		resp, err := readPacket(c.conn)
		if err != nil {
			return domain.Errorf(domain.KindProtocol, "rcon: auth read: %w", err)
		}
		// some servers send an empty response value before the auth reply
		if resp.Type == typeResponseValue && resp.RequestID == id {
			continue
		}
		if resp.RequestID == -1 {
			return domain.Errorf(domain.KindProtocol, "rcon: authentication failed")
		}
		return nil
	}
}

// roundTrip sends the command followed by an empty response-value
// sentinel; the server echoes the sentinel after the last response
// fragment, which is how multi-packet responses are bounded.
func (c *Client) roundTrip(command string, deadline time.Time) (string, error) {
	c.mu.Lock()
	if !c.connected || c.conn == nil {
		c.mu.Unlock()
		return "", domain.Errorf(domain.KindProtocol, "rcon: not connected")
	}
	conn := c.conn
	cmdID := c.nextID()
	sentinelID := c.nextID()
	c.mu.Unlock()

	if err := writePacket(conn, &packet{RequestID: cmdID, Type: typeExecCommand, Body: command}, deadline); err != nil {
		return "", err
	}
	if err := writePacket(conn, &packet{RequestID: sentinelID, Type: typeResponseValue}, deadline); err != nil {
		return "", err
	}

	var out string
	for {
		conn.SetReadDeadline(deadline)
		resp, err := readPacket(conn)
		if err != nil {
			return "", err
		}
		if resp.RequestID == sentinelID && resp.Type == typeResponseValue && resp.Body == "" {
			return out, nil
		}
		if resp.RequestID == cmdID && resp.Type == typeResponseValue {
			out += resp.Body
		}
	}
}

func writePacket(conn net.Conn, p *packet, deadline time.Time) error {
	data, err := encodePacket(p)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(deadline)
	n, err := conn.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("rcon: incomplete write: %d/%d", n, len(data))
	}
	return nil
}

func (c *Client) nextID() int32 {
	id := c.requestID
	c.requestID++
	if c.requestID < 1 {
		c.requestID = 1
	}
	return id
}

func (c *Client) dropConn() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.mu.Unlock()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
