package wamp

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crossbario/crossbar-shell/internal/session"
)

const (
	defaultHandshakeTimeout = 30 * time.Second
	goodbyeTimeout          = 2 * time.Second
)

// ErrNotEstablished is returned by Call before the router welcomed the session.
var ErrNotEstablished = errors.New("session not established")

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for protocol diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCallTimeout bounds every call. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.callTimeout = d
	}
}

// WithTLSConfig sets the TLS configuration used for wss:// URLs.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		c.dialer.TLSClientConfig = cfg
	}
}

// Client is a single-use connection to a router. It implements
// session.Client; once closed or failed it cannot be reopened.
type Client struct {
	signer      Signer
	logger      *slog.Logger
	callTimeout time.Duration
	dialer      *websocket.Dialer

	writeMu sync.Mutex

	mu          sync.Mutex
	conn        *websocket.Conn
	url         string
	realm       string
	nextID      uint64
	calls       map[uint64]*session.Future[any]
	welcome     *session.Future[*session.Details]
	established bool
	closing     bool
	err         error

	goodbye     chan struct{}
	goodbyeOnce sync.Once
	done        chan struct{}
}

// NewClient creates a client authenticating with signer.
func NewClient(signer Signer, opts ...Option) *Client {
	c := &Client{
		signer: signer,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		dialer: &websocket.Dialer{
			Subprotocols:     []string{Subprotocol},
			HandshakeTimeout: defaultHandshakeTimeout,
		},
		calls:   make(map[uint64]*session.Future[any]),
		welcome: session.NewFuture[*session.Details](),
		goodbye: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ session.Client = (*Client)(nil)

// Open connects to url and joins realm. It suspends until the router
// answers with WELCOME or ABORT. An ABORT is returned as
// *session.RemoteError carrying the router's reason URI and message.
func (c *Client) Open(ctx context.Context, url, realm string, extras session.Extras) (*session.Details, error) {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil, errors.New("client already opened")
	}
	c.mu.Unlock()

	conn, resp, err := c.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	if conn.Subprotocol() != Subprotocol {
		conn.Close()
		return nil, fmt.Errorf("router at %s does not speak %s", url, Subprotocol)
	}

	c.mu.Lock()
	c.conn = conn
	c.url = url
	c.realm = realm
	c.mu.Unlock()

	go c.readLoop(conn)

	c.logger.Debug("joining realm", "url", url, "realm", realm, "authid", extras.AuthID)
	if err := c.send(helloMessage(realmValue(realm), c.helloDetails(extras))); err != nil {
		c.teardown(err)
		return nil, err
	}

	details, err := c.welcome.Wait(ctx)
	if err != nil {
		c.teardown(err)
		return nil, err
	}

	c.mu.Lock()
	c.established = true
	c.mu.Unlock()

	c.logger.Debug("session joined", "session", details.SessionID, "authid", details.AuthID, "authrole", details.AuthRole)
	return details, nil
}

// realmValue lets the router pick the realm when none is configured.
func realmValue(realm string) any {
	if realm == "" {
		return nil
	}
	return realm
}

func (c *Client) helloDetails(extras session.Extras) map[string]any {
	authextra := map[string]any{
		"pubkey": c.signer.PublicKeyHex(),
	}
	if extras.ActivationCode != "" {
		authextra["activation_code"] = extras.ActivationCode
	}
	if extras.RequestNewActivationCode {
		authextra["request_new_activation_code"] = true
	}

	details := map[string]any{
		"roles": map[string]any{
			"caller": map[string]any{
				"features": map[string]any{
					"call_canceling": true,
					"call_timeout":   true,
				},
			},
		},
		"authmethods": []string{authMethodCrypto},
		"authextra":   authextra,
	}
	if extras.AuthID != "" {
		details["authid"] = extras.AuthID
	}
	if extras.AuthRole != "" {
		details["authrole"] = extras.AuthRole
	}
	return details
}

// Call invokes procedure and suspends until RESULT or ERROR arrives.
// Cancelling ctx abandons the call and asks the router to cancel it.
func (c *Client) Call(ctx context.Context, procedure string, args []any, kwargs map[string]any) (any, error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	if !c.established || c.closing {
		c.mu.Unlock()
		if c.closing {
			return nil, session.ErrClosed
		}
		return nil, ErrNotEstablished
	}
	c.nextID++
	id := c.nextID
	future := session.NewFuture[any]()
	c.calls[id] = future
	c.mu.Unlock()

	options := map[string]any{}
	if c.callTimeout > 0 {
		options["timeout"] = c.callTimeout.Milliseconds()
	}

	c.logger.Debug("calling procedure", "procedure", procedure, "request", id)
	if err := c.send(callMessage(id, options, procedure, args, kwargs)); err != nil {
		// When the call is already gone, fail() rejected it with the
		// terminal error, which is reported instead of the write error.
		if c.takeCall(id) != nil {
			return nil, err
		}
	}

	result, err := future.Wait(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		if c.takeCall(id) != nil {
			if cerr := c.send(cancelMessage(id)); cerr != nil {
				c.logger.Debug("failed to cancel call", "request", id, "error", cerr)
			}
		}
		return nil, err
	}
	return result, err
}

// Close leaves the session with GOODBYE and closes the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil || c.closing {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	polite := c.established && c.err == nil
	c.mu.Unlock()

	if polite {
		if err := c.send(goodbyeMessage(CloseNormal)); err == nil {
			select {
			case <-c.goodbye:
			case <-c.done:
			case <-time.After(goodbyeTimeout):
				c.logger.Debug("router did not answer GOODBYE")
			}
		}
	}

	c.teardown(session.ErrClosed)
	return nil
}

// teardown records err as the terminal error, closes the socket and waits
// for the read loop to drain.
func (c *Client) teardown(err error) {
	c.fail(err)

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	conn.Close()
	<-c.done
}

// fail fails the pending session and every pending call. Only the first
// terminal error is kept.
func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	err = c.err
	calls := c.calls
	c.calls = make(map[uint64]*session.Future[any])
	c.mu.Unlock()

	_ = c.welcome.Reject(err)
	for _, future := range calls {
		_ = future.Reject(err)
	}
}

func (c *Client) takeCall(id uint64) *session.Future[any] {
	c.mu.Lock()
	defer c.mu.Unlock()

	future, ok := c.calls[id]
	if ok {
		delete(c.calls, id)
	}
	return future
}

func (c *Client) send(msg []any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return session.ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer close(c.done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closing := c.closing
			c.mu.Unlock()
			if closing {
				c.fail(session.ErrClosed)
			} else {
				c.fail(fmt.Errorf("connection lost: %w", err))
			}
			return
		}

		if err := c.handle(data); err != nil {
			if errors.Is(err, ErrMalformed) {
				err = fmt.Errorf("%w: %w", session.ErrProtocolViolation, err)
			}
			if errors.Is(err, session.ErrProtocolViolation) {
				c.logger.Error("tearing down session", "error", err)
				_ = c.send(goodbyeMessage(ErrorProtocol))
			}
			c.fail(err)
			conn.Close()
			return
		}
	}
}

func (c *Client) handle(data []byte) error {
	f, err := decodeFrame(data)
	if err != nil {
		return err
	}

	switch f.code {
	case msgWelcome:
		return c.handleWelcome(f)
	case msgAbort:
		return c.handleAbort(f)
	case msgChallenge:
		return c.handleChallenge(f)
	case msgGoodbye:
		return c.handleGoodbye(f)
	case msgResult:
		return c.handleResult(f)
	case msgError:
		return c.handleError(f)
	default:
		c.logger.Debug("ignoring message", "type", f.code)
		return nil
	}
}

func (c *Client) handleWelcome(f frame) error {
	var id uint64
	if err := f.arg(0, &id); err != nil {
		return err
	}
	var wd welcomeDetails
	if err := f.optional(1, &wd); err != nil {
		return err
	}

	c.mu.Lock()
	details := &session.Details{
		URL:        c.url,
		Realm:      c.realm,
		AuthID:     wd.AuthID,
		AuthRole:   wd.AuthRole,
		AuthMethod: wd.AuthMethod,
		SessionID:  id,
	}
	c.mu.Unlock()
	if wd.Realm != "" {
		details.Realm = wd.Realm
	}

	if err := c.welcome.Resolve(details); err != nil {
		return fmt.Errorf("unexpected WELCOME for session %d: %w", id, err)
	}
	return nil
}

func (c *Client) handleAbort(f frame) error {
	var details abortDetails
	var reason string
	if err := f.arg(0, &details); err != nil {
		return err
	}
	if err := f.arg(1, &reason); err != nil {
		return err
	}

	if err := c.welcome.Reject(&session.RemoteError{URI: reason, Message: details.Message}); err != nil {
		return fmt.Errorf("unexpected ABORT %s: %w", reason, err)
	}
	return nil
}

func (c *Client) handleChallenge(f frame) error {
	var method string
	var extra challengeExtra
	if err := f.arg(0, &method); err != nil {
		return err
	}
	if err := f.optional(1, &extra); err != nil {
		return err
	}
	if method != authMethodCrypto {
		return fmt.Errorf("%w: unsupported auth method %q", session.ErrProtocolViolation, method)
	}

	signature, err := signChallenge(c.signer, extra.Challenge)
	if err != nil {
		return err
	}
	return c.send(authenticateMessage(signature))
}

func (c *Client) handleGoodbye(f frame) error {
	var reason string
	if err := f.optional(1, &reason); err != nil {
		return err
	}

	c.mu.Lock()
	closing := c.closing
	c.mu.Unlock()

	if closing {
		c.goodbyeOnce.Do(func() { close(c.goodbye) })
		return nil
	}

	_ = c.send(goodbyeMessage(CloseGoodbyeAck))
	return fmt.Errorf("%w: router ended session (%s)", session.ErrClosed, reason)
}

func (c *Client) handleResult(f frame) error {
	var id uint64
	var args []any
	var kwargs map[string]any
	if err := f.arg(0, &id); err != nil {
		return err
	}
	if err := f.optional(2, &args); err != nil {
		return err
	}
	if err := f.optional(3, &kwargs); err != nil {
		return err
	}

	future := c.takeCall(id)
	if future == nil {
		c.logger.Debug("result for abandoned call", "request", id)
		return nil
	}
	return future.Resolve(resultPayload(args, kwargs))
}

func (c *Client) handleError(f frame) error {
	var requestType int
	var id uint64
	var uri string
	var args []any
	var kwargs map[string]any
	if err := f.arg(0, &requestType); err != nil {
		return err
	}
	if err := f.arg(1, &id); err != nil {
		return err
	}
	if err := f.arg(3, &uri); err != nil {
		return err
	}
	if err := f.optional(4, &args); err != nil {
		return err
	}
	if err := f.optional(5, &kwargs); err != nil {
		return err
	}

	if requestType != msgCall {
		c.logger.Debug("ignoring error for request type", "type", requestType, "error", uri)
		return nil
	}

	future := c.takeCall(id)
	if future == nil {
		c.logger.Debug("error for abandoned call", "request", id, "error", uri)
		return nil
	}

	remote := &session.RemoteError{URI: uri, Args: args, Kwargs: kwargs}
	if len(args) > 0 {
		if msg, ok := args[0].(string); ok {
			remote.Message = msg
		}
	}
	return future.Reject(remote)
}
