package models

import "strings"

// Zone is a training-intensity band, z1 (easiest) through z5 (hardest).
type Zone string

const (
	Z1 Zone = "z1"
	Z2 Zone = "z2"
	Z3 Zone = "z3"
	Z4 Zone = "z4"
	Z5 Zone = "z5"
)

// Zones is the canonical zone order. Analytics always report all five, in this order.
var Zones = [...]Zone{Z1, Z2, Z3, Z4, Z5}

// ParseZone reports whether s names one of the canonical zones, ignoring case.
func ParseZone(s string) (Zone, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, z := range Zones {
		if string(z) == s {
			return z, true
		}
	}
	return "", false
}
