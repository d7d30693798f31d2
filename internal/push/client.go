package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"livematch-service/internal/config"
	"livematch-service/internal/logging"
	"livematch-service/internal/metrics"
)

// welcomeGrace bounds how long a fresh connection may stay silent before the
// missing welcome is treated as a connection failure.
const welcomeGrace = 5 * time.Second

var errMissingWelcome = errors.New("connection opened without welcome")

// Handlers receive decoded payloads. All callbacks run on the client's read
// goroutine; keep them fast. Nil callbacks are skipped.
type Handlers struct {
	OnSnapshot func(SnapshotData)
	OnDelta    func(DeltaData)
	OnState    func(StateData)
}

// Client maintains one push connection per match: dial, welcome, keepalive,
// and transparent reconnect with exponential backoff. The message and event
// logs survive reconnects; only the Connected flag toggles.
type Client struct {
	matchID  string
	url      string
	dial     DialFunc
	sleep    func(ctx context.Context, d time.Duration)
	handlers Handlers
	logger   *slog.Logger
	metrics  *metrics.Recorder

	pingInterval time.Duration
	backoffBase  time.Duration
	backoffCap   time.Duration

	log    *MessageLog
	events *EventLog

	mu        sync.Mutex
	conn      Conn
	connected bool
	connID    string
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewClient builds a client for one match channel. Call Start to connect.
func NewClient(cfg config.PushConfig, matchID string, handlers Handlers, logger *slog.Logger, recorder *metrics.Recorder) *Client {
	return &Client{
		matchID:      matchID,
		url:          channelURL(cfg.URL, matchID),
		dial:         DialWebsocket,
		sleep:        sleepContext,
		handlers:     handlers,
		logger:       logger,
		metrics:      recorder,
		pingInterval: cfg.PingInterval,
		backoffBase:  cfg.BackoffBase,
		backoffCap:   cfg.BackoffCap,
		log:          NewMessageLog(cfg.LogCapacity),
		events:       NewEventLog(),
		done:         make(chan struct{}),
	}
}

// SetDial overrides the transport dialer. Call before Start.
func (c *Client) SetDial(dial DialFunc) {
	if dial != nil {
		c.dial = dial
	}
}

// Start launches the connection loop. It returns immediately; the loop runs
// until Close or ctx cancellation.
func (c *Client) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return
	}
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(runCtx)
}

// Connected reports whether a welcomed connection is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// ConnectionID returns the id from the most recent welcome.
func (c *Client) ConnectionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connID
}

// Log exposes the bounded message log.
func (c *Client) Log() *MessageLog { return c.log }

// Events exposes the deduplicated timeline event log.
func (c *Client) Events() *EventLog { return c.events }

// Close tears the connection down and suppresses all future reconnects.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel, conn := c.cancel, c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

// Done is closed when the connection loop has fully exited.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.backoffBase
	bo.MaxInterval = c.backoffCap
	bo.MaxElapsedTime = 0

	reconnect := false
	for {
		if ctx.Err() != nil {
			return
		}
		err := c.runConnection(ctx, reconnect, bo)
		if ctx.Err() != nil || c.isClosed() {
			return
		}
		logging.Warn(c.logger, "push connection lost",
			slog.String(logging.FieldMatchID, c.matchID),
			"error", err,
		)
		reconnect = true

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			wait = c.backoffCap
		}
		c.sleep(ctx, wait)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// runConnection performs one dial-welcome-serve cycle and returns the error
// that ended it.
func (c *Client) runConnection(ctx context.Context, reconnect bool, bo *backoff.ExponentialBackOff) error {
	conn, err := c.dial(ctx, c.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	if !c.adopt(conn) {
		conn.Close()
		return errors.New("client closed during dial")
	}

	// The server must identify itself before anything else counts.
	conn.SetReadDeadline(time.Now().Add(welcomeGrace))
	first, err := c.readEnvelope(conn)
	if err != nil {
		c.drop(conn)
		return fmt.Errorf("await welcome: %w", err)
	}
	if first.Type != TypeWelcome {
		c.drop(conn)
		return errMissingWelcome
	}
	c.log.Append(first)
	c.metrics.RecordPushMessage(TypeWelcome, false)

	c.mu.Lock()
	c.connected = true
	c.connID = first.ConnectionID
	c.mu.Unlock()
	c.metrics.RecordPushConnect(c.matchID, reconnect)
	bo.Reset()
	logging.Info(c.logger, "push channel open",
		slog.String(logging.FieldMatchID, c.matchID),
		"connection_id", first.ConnectionID,
	)

	pingDone := make(chan struct{})
	go c.pingLoop(ctx, conn, pingDone)
	defer close(pingDone)

	for {
		// A healthy server answers pings; two missed intervals means dead.
		conn.SetReadDeadline(time.Now().Add(2*c.pingInterval + time.Second))
		env, err := c.readEnvelope(conn)
		if err != nil {
			c.drop(conn)
			return err
		}
		c.dispatch(env)
	}
}

func (c *Client) readEnvelope(conn Conn) (Envelope, error) {
	data, err := conn.ReadMessage()
	if err != nil {
		return Envelope{}, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// A malformed frame is dropped, not fatal; the connection stays up.
		c.metrics.RecordPushMessage("malformed", true)
		logging.Warn(c.logger, "malformed push frame",
			slog.String(logging.FieldMatchID, c.matchID),
			"error", err,
		)
		return Envelope{Type: ""}, nil
	}
	return env, nil
}

func (c *Client) dispatch(env Envelope) {
	switch env.Type {
	case "":
		return
	case TypePong:
		c.metrics.RecordPushMessage(TypePong, false)
		return
	case TypeSnapshot:
		var data SnapshotData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.dropMessage(env, err)
			return
		}
		c.log.Append(env)
		c.metrics.RecordPushMessage(TypeSnapshot, false)
		if c.handlers.OnSnapshot != nil {
			c.handlers.OnSnapshot(data)
		}
	case TypeDelta:
		var data DeltaData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.dropMessage(env, err)
			return
		}
		c.log.Append(env)
		c.metrics.RecordPushMessage(TypeDelta, false)
		if !c.events.Add(data.Event) {
			// Duplicate Seq from a retried delivery; already applied.
			return
		}
		if c.handlers.OnDelta != nil {
			c.handlers.OnDelta(data)
		}
	case TypeState:
		var data StateData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.dropMessage(env, err)
			return
		}
		c.log.Append(env)
		c.metrics.RecordPushMessage(TypeState, false)
		if c.handlers.OnState != nil {
			c.handlers.OnState(data)
		}
	case TypeError:
		c.log.Append(env)
		c.metrics.RecordPushMessage(TypeError, false)
		logging.Warn(c.logger, "push server error",
			slog.String(logging.FieldMatchID, c.matchID),
			"error", env.Error,
		)
	case TypeWelcome:
		// Late duplicate welcome; harmless.
		c.log.Append(env)
		c.metrics.RecordPushMessage(TypeWelcome, false)
	default:
		c.metrics.RecordPushMessage(env.Type, true)
		logging.Warn(c.logger, "unrecognized push message",
			slog.String(logging.FieldMatchID, c.matchID),
			slog.String(logging.FieldMsgType, env.Type),
		)
	}
}

func (c *Client) pingLoop(ctx context.Context, conn Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteJSON(Envelope{Type: TypePing}); err != nil {
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) dropMessage(env Envelope, err error) {
	c.metrics.RecordPushMessage(env.Type, true)
	logging.Warn(c.logger, "undecodable push payload",
		slog.String(logging.FieldMatchID, c.matchID),
		slog.String(logging.FieldMsgType, env.Type),
		"error", err,
	)
}

// adopt registers the live connection; it fails when the client was closed
// while dialing so Close never races a fresh connection into existence.
func (c *Client) adopt(conn Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conn = conn
	return true
}

func (c *Client) drop(conn Conn) {
	conn.Close()
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connected = false
	c.mu.Unlock()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
