// Package minecraft provides thin Say/Kick/Players façades over the
// vanilla server commands shared by Java, Bedrock, and Education
// editions, all of which speak Source RCON.
package minecraft

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mpotter/rcon/rcon"
	"github.com/mpotter/rcon/source"
)

// Client is a minecraft.Client wrapping a *source.Client, implementing
// rcon.Say, rcon.Kick, and rcon.Players with vanilla commands shared by
// the Java, Bedrock, and Education editions.
type Client struct {
	*source.Client
}

// NewJavaEdition wraps conn as a Java Edition client.
func NewJavaEdition(conn *source.Client) *Client {
	return &Client{Client: conn}
}

// NewBedrockEdition wraps conn as a Bedrock Edition client.
func NewBedrockEdition(conn *source.Client) *Client {
	return &Client{Client: conn}
}

// NewEducationEdition wraps conn as an Education Edition client.
func NewEducationEdition(conn *source.Client) *Client {
	return &Client{Client: conn}
}

// Say broadcasts message, prefixed with target, using the vanilla `say`
// command. Minecraft's `say` has no notion of a single-player recipient;
// target is folded into the message text the way server operators do it
// by convention ("say <target>: <message>").
func (c *Client) Say(ctx context.Context, target string, message string) error {
	_, err := c.RunUTF8(ctx, fmt.Sprintf("say %s: %s", target, message))
	return err
}

// Broadcast sends message to every player using the vanilla `say` command.
func (c *Client) Broadcast(ctx context.Context, message string) error {
	_, err := c.RunUTF8(ctx, "say "+message)
	return err
}

// Kick disconnects player, optionally forwarding reason to them, using the
// vanilla `kick` command.
func (c *Client) Kick(ctx context.Context, player string, reason string) error {
	if reason == "" {
		_, err := c.RunUTF8(ctx, "kick "+player)
		return err
	}
	_, err := c.RunUTF8(ctx, fmt.Sprintf("kick %s %s", player, reason))
	return err
}

// Players lists the players currently online via the vanilla `list`
// command, parsing the stock "There are N of a max M players online:
// a, b, c" response. Reported players only carry a Name: the vanilla
// `list` command exposes no index, address, RTT, or UUID.
func (c *Client) Players(ctx context.Context) ([]rcon.Player, error) {
	text, err := c.RunUTF8(ctx, "list")
	if err != nil {
		return nil, err
	}
	return parsePlayerList(text), nil
}

// parsePlayerList parses the vanilla `list` command's stock response.
func parsePlayerList(text string) []rcon.Player {
	_, rest, ok := strings.Cut(text, "online:")
	if !ok {
		return nil
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil
	}

	names := strings.Split(rest, ",")
	players := make([]rcon.Player, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		players = append(players, rcon.Player{Name: name, UUID: uuid.Nil})
	}
	return players
}

// onlineCount parses the leading "There are N of a max M players online"
// clause, for callers that just want the counts without the roster.
func onlineCount(text string) (online int, max int, ok bool) {
	var n, m int
	if _, err := fmt.Sscanf(text, "There are %d of a max %d players online", &n, &m); err != nil {
		return 0, 0, false
	}
	return n, m, true
}
