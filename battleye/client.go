package battleye

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"

	"github.com/mpotter/rcon/rcon"
)

const (
	// defaultTimeout is the default read / write timeout for the Client.
	defaultTimeout = 10 * time.Second

	// defaultKeepAlive is the default interval of sending keep-alive packets to the BattlEye server.
	// A keep-alive goes out once more than half of clientTimeout has passed
	// since the last command, well inside the 45 seconds after which the
	// BattlEye server considers a client without command packets disconnected.
	defaultKeepAlive = clientTimeout / 2

	// defaultMessageBufferSize is the default buffer size of the msgs channel.
	defaultMessageBufferSize = 100

	// bufferSize is the size of the read buffer based on MTU.
	bufferSize = 1500

	// clientTimeout is the maximum duration after which the Client will be disconnected.
	clientTimeout = 45 * time.Second
)

var (
	// keepAliveCheck is the check interval for keepalives
	keepAliveCheck = time.Second
)

// Broker is invoked synchronously, in addition to the buffered Messages
// channel, for every server-pushed console message. It lets a game
// extension (dayz, for instance) react to chat or admin log lines
// without polling Messages().
type Broker func(msg string)

// Client is a BattlEye RCON session over a single UDP socket.
type Client struct {
	conn       net.Conn
	ctr        uint64
	timeout    time.Duration
	keepAlive  time.Duration
	msgBufSize int
	log        *slog.Logger
	broker     Broker
	wg         sync.WaitGroup
	fragments  map[byte]*fragmentedResponse
	sendLock   sync.Mutex
	lastLock   sync.Mutex
	lastSend   time.Time

	// done signals goroutines to stop.
	done *done

	// login is used for receiving the login response from the BattlEye server.
	login chan bool

	// cmds is used for receiving command-type responses from the BattlEye server.
	cmds chan string

	// msgs is a buffered channel which is used for getting broadcast messages from the BattlEye server.
	msgs chan string

	// errs is a channel for transmitting errors internally.
	errs chan error
}

// NewClient dials addr over UDP and starts the background receiver, but
// does not authenticate. Call Login, or use Dial for the combined
// connect-then-login flow most callers want.
func NewClient(addr string, options ...Option) (*Client, error) {
	c := &Client{
		timeout:    defaultTimeout,
		keepAlive:  defaultKeepAlive,
		msgBufSize: defaultMessageBufferSize,
		log:        slog.Default().With("component", "battleye"),
	}

	for _, opt := range options {
		if opt == nil {
			return nil, ErrNilOption
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.done = newDone()
	c.login = make(chan bool)
	c.cmds = make(chan string)
	c.msgs = make(chan string, c.msgBufSize)
	c.errs = make(chan error)
	c.fragments = make(map[byte]*fragmentedResponse)

	var err error
	c.conn, err = net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("battleye: dial: %w", err)
	}

	c.wg.Add(1)
	go c.receiver()

	return c, nil
}

// Dial connects to addr and authenticates with password in one call.
func Dial(ctx context.Context, addr string, password string, options ...Option) (*Client, error) {
	c, err := NewClient(addr, options...)
	if err != nil {
		return nil, err
	}

	ok, err := c.Login(ctx, password)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if !ok {
		_ = c.Close()
		return nil, ErrLoginFailed
	}
	return c, nil
}

// Login authenticates the session. A false result with a nil error means
// the server rejected the password.
func (c *Client) Login(ctx context.Context, password string) (bool, error) {
	if c.done.IsDone() {
		return false, rcon.ErrClosed
	}
	if err := c.write(newLoginPacket(password)); err != nil {
		return false, err
	}

	t := time.NewTimer(c.timeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-t.C:
		return false, ErrTimeout
	case err := <-c.errs:
		return false, err
	case success := <-c.login:
		if success {
			c.wg.Add(1)
			go c.keepConnectionAlive()
		}
		return success, nil
	}
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	if c.done.IsDone() {
		return nil
	}
	c.done.Done()
	c.wg.Wait()
	close(c.msgs)

	var result *multierror.Error

	select {
	case err := <-c.errs:
		result = multierror.Append(result, fmt.Errorf("receiver: %w", err))
	default:
	}

	if err := c.conn.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close socket: %w", err))
	}

	return result.ErrorOrNil()
}

// Messages returns a buffered channel containing the console messages sent by the server.
// If the channel is full new messages will be dropped. It is the user's responsibility
// to drain the channel and handle these messages.
func (c *Client) Messages() <-chan string {
	return c.msgs
}

// Run executes command on the BattlEye server and returns its response.
// Execution is retried for 45 seconds, after which the session is
// considered disconnected and ErrTimeout is returned.
func (c *Client) Run(ctx context.Context, command []byte) ([]byte, error) {
	if c.done.IsDone() {
		return nil, rcon.ErrClosed
	}

	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	until := time.Now().Add(clientTimeout)
	for time.Now().Before(until) {
		resp, err := c.send(ctx, string(command))
		if err != nil {
			if err == ErrTimeout {
				continue
			}
			return nil, err
		}
		return []byte(resp), nil
	}

	return nil, ErrTimeout
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

func (c *Client) send(ctx context.Context, cmd string) (string, error) {
	if err := c.write(newCommandPacket(cmd, c.seq())); err != nil {
		return "", err
	}

	c.lastLock.Lock()
	c.lastSend = time.Now()
	c.lastLock.Unlock()

	t := time.NewTimer(c.timeout)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.C:
		return "", ErrTimeout
	case err := <-c.errs:
		return "", err
	case resp := <-c.cmds:
		return resp, nil
	}
}

// keepConnectionAlive is a goroutine which periodically sends a keep-alive packet to the BattlEye server.
func (c *Client) keepConnectionAlive() {
	defer c.wg.Done()

	t := time.NewTicker(keepAliveCheck)
	for {
		select {
		case <-c.done.C():
			t.Stop()
			return
		case <-t.C:
			// To avoid potential deadlocks, this check should be done separately.
			c.lastLock.Lock()
			do := time.Since(c.lastSend) > c.keepAlive
			c.lastLock.Unlock()

			if do {
				c.log.Debug("sending keep-alive")
				// Send an empty command, we don't care the response nor the error.
				c.Run(context.Background(), nil) // nolint: errcheck
			}
		}
	}
}

// write writes a packet to conn.
func (c *Client) write(pkt *packet) error {
	raw, err := pkt.bytes()
	if err != nil {
		return err
	}
	if err = c.setDeadline(); err != nil {
		return err
	}
	_, err = c.conn.Write(raw)
	return err
}

// receiver is a goroutine which reads responses from the connection and handles them according to
// their types.
func (c *Client) receiver() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done.C():
			return
		default:
			r, err := c.read()
			if err != nil {
				// Do not error in case of timeout.
				if err, ok := err.(net.Error); ok && err.Timeout() {
					continue
				}
				c.errs <- err
				continue
			}
			switch r := r.(type) {
			case bool:
				c.login <- r
			case *commandResponse:
				c.handleCommandResponse(r)
			case *serverMessage:
				c.handleServerMessage(r)
			}
		}
	}
}

// handleCommandResponse forwards CommandResponses to the cmds channel. If the message is
// fragmented it is reassembled beforehand.
func (c *Client) handleCommandResponse(r *commandResponse) {
	// If the received response is either:
	// - an old one that we've already processed (sequence number is less than what we expect);
	// - or an unsolicited one (sequence number it totally different from what we expect);
	// just drop it.
	if r.seq != c.seq() {
		return
	}

	// response is not fragmented.
	if !r.fragmented() {
		c.incr()
		c.cmds <- r.msg
		return
	}

	// Add the partial message to the already received parts.
	var fr *fragmentedResponse
	fr, ok := c.fragments[r.seq]
	if !ok {
		fr = newFragmentedResponse(r.fragmentTotal)
		c.fragments[r.seq] = fr
	}
	fr.add(r)

	// If the message is complete send it.
	if fr.completed() {
		delete(c.fragments, r.seq)
		c.incr()
		c.cmds <- fr.message()
	}
}

// handleServerMessage forwards the message part of ServerMessages to the msgs channel, invokes
// the configured Broker, and sends back an acknowledge packet to the server.
func (c *Client) handleServerMessage(r *serverMessage) {
	// If the channel is full, new messages will be dropped.
	select {
	case c.msgs <- r.msg:
	default:
		c.log.Warn("messages channel full, dropping server message")
	}
	if c.broker != nil {
		c.broker(r.msg)
	}
	// Client has to acknowledge the server message by sending back its sequence number.
	// No response is expected from the server.
	// We don't care write errors.
	c.write(newServerMessageAcknowledgePacket(r.seq)) // nolint: errcheck
}

// read reads from conn and parses the raw data as response.
func (c *Client) read() (interface{}, error) {
	if err := c.setDeadline(); err != nil {
		return nil, err
	}
	// As there is no size in the battleye protocol we must assume each read returns a single response.
	b := make([]byte, bufferSize)
	n, err := c.conn.Read(b)
	if err != nil {
		return nil, err
	}
	return parseResponse(b[:n])
}

// seq returns the command sequence number counter.
func (c *Client) seq() byte {
	return byte(atomic.LoadUint64(&c.ctr))
}

// incr increments the command sequence number counter.
func (c *Client) incr() {
	atomic.AddUint64(&c.ctr, 1)
}

// setDeadline updates the deadline on the connection based on the clients configured timeout.
func (c *Client) setDeadline() error {
	return c.conn.SetDeadline(time.Now().Add(c.timeout))
}
