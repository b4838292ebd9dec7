package dayz

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mpotter/rcon/rcon"
)

// permBan is the literal DayZ prints for a ban with no expiry.
const permBan = "perm"

const secondsPerMinute = 60

// ParseBanListEntry parses one line of a `bans` response:
// "<id> <target> <perm|minutes> [reason]".
func ParseBanListEntry(line string) (rcon.BanListEntry, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return rcon.BanListEntry{}, fmt.Errorf("dayz: ban list entry has too few fields: %q", line)
	}

	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return rcon.BanListEntry{}, fmt.Errorf("dayz: invalid ban ID: %w", err)
	}

	target, err := rcon.ParseTarget(fields[1])
	if err != nil {
		return rcon.BanListEntry{}, fmt.Errorf("dayz: invalid ban target: %w", err)
	}

	var duration *time.Duration
	if fields[2] != permBan {
		minutes, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return rcon.BanListEntry{}, fmt.Errorf("dayz: invalid ban duration: %w", err)
		}
		d := time.Duration(minutes) * secondsPerMinute * time.Second
		duration = &d
	}

	var reason *string
	if len(fields) > 3 {
		r := strings.Join(fields[3:], " ")
		reason = &r
	}

	return rcon.BanListEntry{ID: id, Target: target, Duration: duration, Reason: reason}, nil
}

// parseBanList extracts ban list entries from the body of a `bans`
// response, skipping any line that doesn't start with a digit (headers,
// blank lines, trailing summary).
func parseBanList(text string) []rcon.BanListEntry {
	var entries []rcon.BanListEntry
	for _, line := range strings.Split(text, "\n") {
		if line == "" || line[0] < '0' || line[0] > '9' {
			continue
		}
		e, err := ParseBanListEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
