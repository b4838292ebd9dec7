package dayz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mpotter/rcon/battleye"
	"github.com/mpotter/rcon/rcon"
)

// broadcastTarget is the player index DayZ treats as "everyone" for say.
const broadcastTarget = -1

// invalidBanFormatMessage is the verbatim reply a DayZ server sends when
// addBan's arguments don't parse server-side.
const invalidBanFormatMessage = "Invalid ban format"

// ErrInvalidBanFormat is returned by AddBan when the server rejects the
// formatted addBan command.
var ErrInvalidBanFormat = errors.New("dayz: invalid ban format")

// Client is a battleye.Client extended with the DayZ server command
// vocabulary. It implements rcon.Say, rcon.Broadcast, rcon.Kick, rcon.Ban,
// rcon.BanList, and rcon.Players.
type Client struct {
	*battleye.Client
}

// New wraps conn as a DayZ client.
func New(conn *battleye.Client) *Client {
	return &Client{Client: conn}
}

// Dial connects to a DayZ server's BattlEye RCON port and authenticates.
func Dial(ctx context.Context, addr string, password string, opts ...battleye.Option) (*Client, error) {
	c, err := battleye.Dial(ctx, addr, password, opts...)
	if err != nil {
		return nil, err
	}
	return New(c), nil
}

// Say sends message to the player identified by target (a numeric player
// index, or "-1" to address every player).
func (c *Client) Say(ctx context.Context, target string, message string) error {
	_, err := c.RunUTF8(ctx, strings.Join([]string{"say", target, message}, " "))
	return err
}

// Broadcast sends message to every player on the server.
func (c *Client) Broadcast(ctx context.Context, message string) error {
	return c.Say(ctx, strconv.Itoa(broadcastTarget), message)
}

// Kick disconnects player, optionally forwarding reason to them.
func (c *Client) Kick(ctx context.Context, player string, reason string) error {
	args := []string{"kick", player}
	if reason != "" {
		args = append(args, reason)
	}
	_, err := c.RunUTF8(ctx, strings.Join(args, " "))
	return err
}

// Ban bans player from the server by session identifier, optionally
// forwarding reason to them.
func (c *Client) Ban(ctx context.Context, player string, reason string) error {
	args := []string{"ban", player}
	if reason != "" {
		args = append(args, reason)
	}
	_, err := c.RunUTF8(ctx, strings.Join(args, " "))
	return err
}

// Bans returns the server's current persistent ban list.
func (c *Client) Bans(ctx context.Context) ([]rcon.BanListEntry, error) {
	text, err := c.RunUTF8Lossy(ctx, "bans")
	if err != nil {
		return nil, err
	}
	return parseBanList(text), nil
}

// AddBan adds target to the persistent ban list. A zero duration bans
// permanently if reason is also set; if neither duration nor reason is
// given the server applies its own default.
func (c *Client) AddBan(ctx context.Context, target rcon.Target, duration time.Duration, reason string) error {
	args := []string{"addBan", target.String()}

	switch {
	case duration > 0:
		args = append(args, strconv.FormatInt(int64(duration/time.Minute), 10))
	case reason != "":
		args = append(args, "perm")
	}

	// The reason is always sent. Bans reports it only when the server
	// repeats it in the ban list line; entries are identified by ID, not
	// by reason.
	if reason != "" {
		args = append(args, reason)
	}

	reply, err := c.RunUTF8(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if reply == invalidBanFormatMessage {
		return ErrInvalidBanFormat
	}
	return nil
}

// RemoveBan removes the ban list entry with the given ID.
func (c *Client) RemoveBan(ctx context.Context, id uint64) error {
	_, err := c.RunUTF8(ctx, fmt.Sprintf("removeBan %d", id))
	return err
}

// Players lists the players currently connected to the server.
func (c *Client) Players(ctx context.Context) ([]rcon.Player, error) {
	text, err := c.RunUTF8(ctx, "players")
	if err != nil {
		return nil, err
	}
	return parsePlayerList(text), nil
}

// Lock prevents any further clients from joining the server.
func (c *Client) Lock(ctx context.Context) error {
	_, err := c.RunUTF8(ctx, "#lock")
	return err
}

// Unlock re-enables clients joining the server.
func (c *Client) Unlock(ctx context.Context) error {
	_, err := c.RunUTF8(ctx, "#unlock")
	return err
}

// Shutdown shuts the server down immediately.
func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.RunUTF8(ctx, "#shutdown")
	return err
}

// Reload reloads the server config file loaded by its -config option.
func (c *Client) Reload(ctx context.Context) error {
	_, err := c.RunUTF8(ctx, "#init")
	return err
}
