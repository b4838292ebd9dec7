package rcon

import (
	"net/netip"
	"time"

	"github.com/google/uuid"
)

// Player is an immutable snapshot of one entry of a server's player list,
// parsed from a textual response by a game-extension façade. It is not
// updated after creation; callers that need fresh data must re-query.
type Player struct {
	// Index is the per-session numeric ID the server assigned the player.
	Index uint64
	// Addr is the player's socket address, if the server reports one.
	Addr netip.AddrPort
	// RTT is the player's most recently measured round-trip time ("ping").
	RTT time.Duration
	// UUID is the player's persistent global identifier (e.g. a DayZ GUID
	// or a Minecraft player UUID), if the server reports one.
	UUID uuid.UUID
	// Name is the player's display name.
	Name string
}

// BanListEntry is an immutable snapshot of one entry of a server's ban
// list, parsed from a textual response.
type BanListEntry struct {
	// ID is the ban list's numeric identifier for this entry.
	ID uint64
	// Target is the banned IP address or UUID.
	Target Target
	// Duration is the ban's remaining duration. A nil Duration means the
	// ban is permanent.
	Duration *time.Duration
	// Reason is the ban's stated reason, if any.
	Reason *string
}
