// Package source implements the Valve Source RCON protocol: a TCP-framed
// request/response protocol with sender-chosen packet IDs and a
// sentinel-packet trick for reassembling multi-packet responses.
//
// https://developer.valvesoftware.com/wiki/Source_RCON_Protocol
package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mpotter/rcon/rcon"
)

const defaultTimeout = 10 * time.Second

// Option configures a Client at construction time.
type Option func(*Client) error

// Timeout sets the read/write deadline applied around every send/receive
// whose context carries no deadline; a context deadline takes its place.
func Timeout(d time.Duration) Option {
	return func(c *Client) error {
		c.timeout = d
		return nil
	}
}

// Quirk enables one or more server-specific protocol deviations.
func Quirk(q Quirks) Option {
	return func(c *Client) error {
		c.quirks |= q
		return nil
	}
}

// Logger sets the structured logger used by the Client. Defaults to
// slog.Default() scoped with component="source".
func Logger(l *slog.Logger) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// Client is a Source RCON session over a single TCP stream. It is not
// safe for concurrent use: commands must be serialized by the caller.
type Client struct {
	conn    net.Conn
	timeout time.Duration
	quirks  Quirks
	log     *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewClient wraps an already-connected stream as a Client. Most callers
// should use Dial instead.
func NewClient(conn net.Conn, opts ...Option) (*Client, error) {
	c := &Client{
		conn:    conn,
		timeout: defaultTimeout,
		log:     slog.Default().With("component", "source"),
	}
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Dial connects to address, authenticates with password, and returns a
// ready-to-use Client. On any failure the dialed connection is closed.
func Dial(ctx context.Context, address string, password string, opts ...Option) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("source: dial: %w", err)
	}

	c, err := NewClient(conn, opts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	ok, err := c.Login(ctx, password)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if !ok {
		_ = c.Close()
		return nil, ErrAuthFailed
	}
	return c, nil
}

// Close closes the underlying TCP stream.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Login performs the AUTH handshake. A false result with a nil error
// means the server rejected the password.
func (c *Client) Login(ctx context.Context, password string) (bool, error) {
	if c.isClosed() {
		return false, rcon.ErrClosed
	}
	id := randID()
	if err := c.send(ctx, Packet{ID: id, Type: TypeAuth, Payload: []byte(password)}); err != nil {
		return false, err
	}

	for {
		p, err := c.recv(ctx)
		if err != nil {
			return false, err
		}
		if p.Type != TypeAuthResponse {
			c.log.Debug("discarding non-auth-response packet during login", "type", p.Type.String())
			continue
		}
		return p.ID >= 0, nil
	}
}

// Run sends command and returns the server's concatenated reply, using
// the sentinel-packet trick to detect the end of a multi-packet response.
func (c *Client) Run(ctx context.Context, command []byte) ([]byte, error) {
	if c.isClosed() {
		return nil, rcon.ErrClosed
	}
	if len(command) > MaxCommandLen {
		return nil, ErrCommandTooLong
	}

	commandID := randID()
	sentinelID := commandID + 1 // wrapping add: int32 overflow wraps by Go's defined semantics

	if err := c.send(ctx, Packet{ID: commandID, Type: TypeExecCommand, Payload: command}); err != nil {
		return nil, err
	}
	if err := c.send(ctx, Packet{ID: sentinelID, Type: TypeResponseValue}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for {
		p, err := c.recv(ctx)
		if err != nil {
			return nil, err
		}

		switch p.Type {
		case TypeAuthResponse: // wire value 2, same as EXEC_COMMAND; unexpected here
			return nil, fmt.Errorf("%w: unexpected auth response during command execution", ErrInvalidData)
		case TypeResponseValue:
			if p.ID == sentinelID {
				return buf.Bytes(), nil
			}
			if p.ID == commandID || (c.quirks.Has(Palworld) && p.ID == 0) {
				buf.Write(p.Payload)
				continue
			}
			return nil, fmt.Errorf("%w: response for unrelated command id %d", ErrInvalidData, p.ID)
		default:
			return nil, fmt.Errorf("%w: unexpected packet type %s", ErrInvalidData, p.Type)
		}
	}
}

// RunUTF8 is Run, decoding the reply as UTF-8.
func (c *Client) RunUTF8(ctx context.Context, command string) (string, error) {
	b, err := c.Run(ctx, []byte(command))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// RunUTF8Lossy is RunUTF8 but replaces ill-formed bytes with the Unicode
// replacement character instead of failing.
func (c *Client) RunUTF8Lossy(ctx context.Context, command string) (string, error) {
	b, err := c.Run(ctx, []byte(command))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}

func (c *Client) send(ctx context.Context, p Packet) error {
	if err := c.setDeadline(ctx); err != nil {
		return err
	}
	c.log.Debug("sending packet", "id", p.ID, "type", p.Type.String(), "payload_len", len(p.Payload))
	return WritePacket(c.conn, p)
}

func (c *Client) recv(ctx context.Context) (Packet, error) {
	if err := c.setDeadline(ctx); err != nil {
		return Packet{}, err
	}
	p, err := ReadPacket(c.conn)
	if err != nil {
		return Packet{}, err
	}
	if p.Trailer != zeroTrailer {
		c.log.Warn("packet trailer is not zero", "id", p.ID, "trailer", p.Trailer)
	}
	c.log.Debug("received packet", "id", p.ID, "type", p.Type.String(), "payload_len", len(p.Payload))
	return p, nil
}

func (c *Client) setDeadline(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.conn.SetDeadline(deadline)
	}
	return c.conn.SetDeadline(time.Now().Add(c.timeout))
}

func randID() int32 {
	// 31-bit non-negative integer per spec §9; collision across in-flight
	// commands cannot occur because a session serializes its commands.
	return rand.Int31()
}
