// Copyright (c) 2026 Archivum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "fmt"

// # Access Tiers

// Tier is the caller's global privilege level. Tiers are ordinal: each one
// implies every permission of the tiers below it.
type Tier int

const (
	// Anonymous callers
	TierPublic Tier = iota

	// Any signed-in account
	TierAuthenticated

	// Can read and write every entity regardless of access rules
	TierEditor

	// Unrestricted system access, including hard deletion
	TierAdministrator
)

var tierNames = map[Tier]string{
	TierPublic:        "public",
	TierAuthenticated: "authenticated",
	TierEditor:        "editor",
	TierAdministrator: "administrator",
}

// # Tier Hierarchy

// AtLeast checks if the current tier meets or exceeds the required target tier.
func (t Tier) AtLeast(target Tier) bool {
	return t >= target
}

// Privileged reports whether the tier bypasses per-entity access rules.
func (t Tier) Privileged() bool {
	return t.AtLeast(TierEditor)
}

// String returns the canonical lowercase tier name.
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier converts a tier name into a [Tier].
func ParseTier(name string) (Tier, error) {
	for tier, candidate := range tierNames {
		if candidate == name {
			return tier, nil
		}
	}
	return TierPublic, fmt.Errorf("sec: unknown tier %q", name)
}

// MarshalText implements encoding.TextMarshaler so tiers travel as names.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
