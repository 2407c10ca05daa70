package auth

import (
	"encoding/json"
	"strings"
)

// Capability is a single permission checked by the guard.
type Capability uint8

const (
	CapManageUsers Capability = 1 << iota
	CapDeleteUser
	CapEditOrganization
	CapProcessRefunds
	CapViewDashboard
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapManageUsers, "canManageUsers"},
	{CapDeleteUser, "canDeleteUser"},
	{CapEditOrganization, "canEditOrganization"},
	{CapProcessRefunds, "canProcessRefunds"},
	{CapViewDashboard, "canViewDashboard"},
}

func (c Capability) String() string {
	for _, n := range capabilityNames {
		if n.cap == c {
			return n.name
		}
	}
	return ""
}

// ParseCapability resolves a capability name such as "canDeleteUser".
func ParseCapability(s string) (Capability, error) {
	s = strings.TrimSpace(s)
	for _, n := range capabilityNames {
		if strings.EqualFold(s, n.name) {
			return n.cap, nil
		}
	}
	return 0, invalidInput("unknown capability %q", s)
}

// CapabilitySet is the derived permission set of a designation.
type CapabilitySet uint8

// Has reports whether every bit of c is present. The zero capability is never held.
func (s CapabilitySet) Has(c Capability) bool {
	return c != 0 && CapabilitySet(c)&s == CapabilitySet(c)
}

// Names lists held capabilities in declaration order.
func (s CapabilitySet) Names() []string {
	out := make([]string, 0, len(capabilityNames))
	for _, n := range capabilityNames {
		if s.Has(n.cap) {
			out = append(out, n.name)
		}
	}
	return out
}

// MarshalJSON renders the set as a flag object, the shape the dashboard expects.
func (s CapabilitySet) MarshalJSON() ([]byte, error) {
	flags := make(map[string]bool, len(capabilityNames))
	for _, n := range capabilityNames {
		flags[n.name] = s.Has(n.cap)
	}
	return json.Marshal(flags)
}

func setOf(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s |= CapabilitySet(c)
	}
	return s
}

var capabilityTable = map[Designation]CapabilitySet{
	DesignationAdmin:   setOf(CapManageUsers, CapDeleteUser, CapEditOrganization, CapProcessRefunds, CapViewDashboard),
	DesignationManager: setOf(CapManageUsers, CapEditOrganization, CapProcessRefunds, CapViewDashboard),
	DesignationCashier: 0,
	DesignationOther:   0,
}

// Capabilities resolves a designation to its capability set. Unknown designations hold nothing.
func Capabilities(d Designation) CapabilitySet {
	return capabilityTable[d]
}
