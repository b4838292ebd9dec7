package rcon

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/google/uuid"
)

// Target identifies a ban list entry's subject: either an IP address or a
// player's UUID. Exactly one of IsIP / IsUUID is true for any valid Target.
type Target struct {
	ip   netip.Addr
	id   uuid.UUID
	isIP bool
}

// NewIPTarget returns a Target identifying the given IP address.
func NewIPTarget(ip netip.Addr) Target {
	return Target{ip: ip, isIP: true}
}

// NewUUIDTarget returns a Target identifying the given UUID.
func NewUUIDTarget(id uuid.UUID) Target {
	return Target{id: id}
}

// IsIP reports whether the target is an IP address.
func (t Target) IsIP() bool { return t.isIP }

// IsUUID reports whether the target is a UUID.
func (t Target) IsUUID() bool { return !t.isIP }

// IP returns the target's IP address. It is the zero netip.Addr if the
// target is a UUID.
func (t Target) IP() netip.Addr { return t.ip }

// UUID returns the target's UUID. It is the zero uuid.UUID if the target
// is an IP address.
func (t Target) UUID() uuid.UUID { return t.id }

// String renders the target the way a ban list entry would, with UUID
// dashes stripped to match how BattlEye servers print GUIDs.
func (t Target) String() string {
	if t.isIP {
		return t.ip.String()
	}
	return strings.ReplaceAll(t.id.String(), "-", "")
}

// ParseTarget parses s as either an IP address or a UUID (with or without
// dashes), trying IP first.
func ParseTarget(s string) (Target, error) {
	if ip, err := netip.ParseAddr(s); err == nil {
		return NewIPTarget(ip), nil
	}
	if id, err := uuid.Parse(s); err == nil {
		return NewUUIDTarget(id), nil
	}
	return Target{}, fmt.Errorf("rcon: invalid ban target: %q", s)
}
