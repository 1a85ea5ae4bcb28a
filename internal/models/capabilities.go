package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Capabilities is the per-program feature set consulted by the check-in
// gateway. It is stored as a bit mask.
type Capabilities uint32

const (
	// CapEnrollmentFee gates check-in on the program-level enrollment.
	CapEnrollmentFee Capabilities = 1 << iota
	// CapSessionFee gates check-in on a per-session charge.
	CapSessionFee
	// CapSelfCheckIn lets participants scan the session QR themselves.
	CapSelfCheckIn
	// CapWalkIn allows attendance without an enrollment when no fee applies.
	CapWalkIn
)

var capNames = map[Capabilities]string{
	CapEnrollmentFee: "enrollment_fee",
	CapSessionFee:    "session_fee",
	CapSelfCheckIn:   "self_checkin",
	CapWalkIn:        "walk_in",
}

func (c Capabilities) Has(flag Capabilities) bool { return c&flag == flag }

// RequiresPayment reports whether any fee gate applies.
func (c Capabilities) RequiresPayment() bool {
	return c&(CapEnrollmentFee|CapSessionFee) != 0
}

func (c Capabilities) Names() []string {
	out := []string{}
	for flag, name := range capNames {
		if c.Has(flag) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ParseCapabilities is the inverse of Names.
func ParseCapabilities(names []string) (Capabilities, error) {
	var c Capabilities
	for _, n := range names {
		found := false
		for flag, name := range capNames {
			if name == n {
				c |= flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown capability %q", n)
		}
	}
	return c, nil
}

func (c Capabilities) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Names())
}

func (c *Capabilities) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	parsed, err := ParseCapabilities(names)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
