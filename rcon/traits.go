package rcon

import (
	"context"
	"time"
)

// Say sends direct messages to a single player.
type Say interface {
	Say(ctx context.Context, target string, message string) error
}

// Broadcast sends a message to every player on the server.
type Broadcast interface {
	Broadcast(ctx context.Context, message string) error
}

// Kick disconnects a player from the server.
type Kick interface {
	Kick(ctx context.Context, player string, reason string) error
}

// Ban bans a player from the server by name or session identifier.
type Ban interface {
	Ban(ctx context.Context, player string, reason string) error
}

// BanList manages a server's persistent ban list, keyed by IP or UUID
// rather than by session identifier.
type BanList interface {
	// Bans returns the server's current ban list.
	Bans(ctx context.Context) ([]BanListEntry, error)

	// AddBan adds target to the ban list. A zero duration bans
	// permanently.
	AddBan(ctx context.Context, target Target, duration time.Duration, reason string) error

	// RemoveBan removes the ban list entry with the given ID.
	RemoveBan(ctx context.Context, id uint64) error
}

// Players lists the players currently connected to the server.
type Players interface {
	Players(ctx context.Context) ([]Player, error)
}
