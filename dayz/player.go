// Package dayz wraps a battleye.Client with the command vocabulary a DayZ
// server understands, implementing the rcon capability traits on top of
// it.
package dayz

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mpotter/rcon/rcon"
)

// ParsePlayer parses one line of a `players` response:
// "<index> <ip:port> <ping_ms> <guid>(...)? <name>".
func ParsePlayer(line string) (rcon.Player, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return rcon.Player{}, fmt.Errorf("dayz: player line has too few fields: %q", line)
	}

	index, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return rcon.Player{}, fmt.Errorf("dayz: invalid player index: %w", err)
	}

	addr, err := netip.ParseAddrPort(fields[1])
	if err != nil {
		return rcon.Player{}, fmt.Errorf("dayz: invalid socket address: %w", err)
	}

	pingMs, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return rcon.Player{}, fmt.Errorf("dayz: invalid ping: %w", err)
	}

	guidField, _, _ := strings.Cut(fields[3], "(")
	guid, err := uuid.Parse(guidField)
	if err != nil {
		return rcon.Player{}, fmt.Errorf("dayz: invalid GUID: %w", err)
	}

	name := strings.Join(fields[4:], " ")

	return rcon.Player{
		Index: index,
		Addr:  addr,
		RTT:   time.Duration(pingMs) * time.Millisecond,
		UUID:  guid,
		Name:  name,
	}, nil
}

// parsePlayerList extracts players from the body of a DayZ `players`
// response, which brackets the table with a header line starting with
// '-' and a footer line starting with '('.
func parsePlayerList(text string) []rcon.Player {
	lines := strings.Split(text, "\n")

	start := 0
	for start < len(lines) && !strings.HasPrefix(lines[start], "-") {
		start++
	}
	start++ // skip the '-----' line itself

	var players []rcon.Player
	for i := start; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, "(") {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, err := ParsePlayer(line)
		if err != nil {
			continue
		}
		players = append(players, p)
	}
	return players
}
