package source

import "fmt"

// Quirks is an extensible bitflag set of server-specific protocol
// deviations a session can be configured to tolerate.
type Quirks uint8

const (
	// Palworld accepts RESPONSE_VALUE fragments whose id is 0 as
	// belonging to the in-flight command; Palworld servers echo a zero
	// id for fragments instead of mirroring the command's id.
	Palworld Quirks = 1 << iota
)

// Has reports whether q has every flag in other set.
func (q Quirks) Has(other Quirks) bool {
	return q&other == other
}

func (q Quirks) String() string {
	if q == 0 {
		return "none"
	}
	names := ""
	if q.Has(Palworld) {
		names += "palworld"
	}
	if names == "" {
		return fmt.Sprintf("Quirks(%#02x)", uint8(q))
	}
	return names
}
