package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Reconnection parameters
	initialReconnectDelay  = 1 * time.Second
	maxReconnectDelay      = 1 * time.Minute
	reconnectBackoffFactor = 2

	// WebSocket parameters
	pingInterval = 30 * time.Second
	pongTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

// UpdateHandler is called for each update received on the game channel
type UpdateHandler func(update GameUpdate) error

// Subscriber follows one game's websocket channel on a relay server and
// reconnects with exponential backoff when the connection drops.
type Subscriber struct {
	url            string
	handler        UpdateHandler
	logger         zerolog.Logger
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
}

// SubscriberOption configures the subscriber
type SubscriberOption func(*Subscriber)

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) SubscriberOption {
	return func(s *Subscriber) {
		s.logger = logger
	}
}

// WithDialer replaces the websocket dialer
func WithDialer(dialer *websocket.Dialer) SubscriberOption {
	return func(s *Subscriber) {
		s.dialer = dialer
	}
}

// WithInitialReconnectDelay sets the initial reconnect delay
func WithInitialReconnectDelay(delay time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		s.reconnectDelay = delay
	}
}

// WebSocketURL derives the /ws endpoint for gameID from a relay base URL.
func WebSocketURL(baseURL, gameID, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid relay url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported relay url scheme %q", u.Scheme)
	}
	u.Path += "/ws"

	q := url.Values{}
	q.Set("gameId", gameID)
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NewSubscriber creates a subscriber for the websocket at wsURL
func NewSubscriber(wsURL string, handler UpdateHandler, opts ...SubscriberOption) *Subscriber {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Subscriber{
		url:            wsURL,
		handler:        handler,
		logger:         zerolog.Nop(),
		dialer:         websocket.DefaultDialer,
		reconnectDelay: initialReconnectDelay,
		ctx:            ctx,
		cancel:         cancel,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start begins listening in the background
func (s *Subscriber) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop closes the connection and waits for the listener to exit
func (s *Subscriber) Stop() error {
	s.cancel()

	var err error
	s.mu.Lock()
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}
	s.connected = false
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// IsConnected returns whether the subscriber is connected
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Subscriber) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn, err := s.connect()
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to connect to relay")
			s.handleReconnect()
			continue
		}

		if err := s.listen(conn); err != nil && s.ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("Error listening to relay")
		}
		s.handleReconnect()
	}
}

func (s *Subscriber) connect() (*websocket.Conn, error) {
	s.logger.Info().Str("url", s.url).Msg("Connecting to relay")

	headers := http.Header{}
	headers.Set("User-Agent", "chesspvp/1.0")

	// Connect with timeout
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	conn, _, err := s.dialer.DialContext(ctx, s.url, headers)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		conn.Close()
		return nil, s.ctx.Err()
	}
	s.conn = conn
	s.connected = true
	s.reconnectDelay = initialReconnectDelay
	s.mu.Unlock()

	s.logger.Info().Msg("Connected to relay")

	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	return conn, nil
}

func (s *Subscriber) listen(conn *websocket.Conn) error {
	pingCtx, stopPing := context.WithCancel(s.ctx)
	defer stopPing()
	go s.pingLoop(pingCtx, conn)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("websocket read error: %w", err)
			}
			return err
		}
		// Server keepalive resets our deadline too
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		if messageType != websocket.TextMessage {
			continue
		}

		s.processMessage(data)
	}
}

// processMessage handles one frame. The server may batch several updates
// into a frame separated by newlines.
func (s *Subscriber) processMessage(data []byte) {
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var update GameUpdate
		if err := json.Unmarshal(line, &update); err != nil {
			s.logger.Error().Err(err).Msg("Error decoding update")
			continue
		}

		if err := s.handler(update); err != nil {
			s.logger.Error().Err(err).Str("type", update.Type).Msg("Update handler error")
		}
	}
}

func (s *Subscriber) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout)); err != nil {
				s.logger.Error().Err(err).Msg("Ping failed")
				return
			}
		}
	}
}

func (s *Subscriber) handleReconnect() {
	s.mu.Lock()
	s.connected = false
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}

	// Get current delay before updating
	delay := s.reconnectDelay

	// Exponential backoff
	s.reconnectDelay = time.Duration(float64(s.reconnectDelay) * reconnectBackoffFactor)
	if s.reconnectDelay > maxReconnectDelay {
		s.reconnectDelay = maxReconnectDelay
	}
	s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	s.logger.Info().Str("delay", delay.String()).Msg("Waiting before reconnect")

	select {
	case <-time.After(delay):
	case <-s.ctx.Done():
	}
}
