package domain

import (
	"errors"
	"strings"
)

// ErrNotFound signals that an identity is unknown to every data source that was
// consulted. It is a valid terminal state, not a fault.
var ErrNotFound = errors.New("identity not found")

// Status is the lifecycle state the directory reports for a user.
type Status string

// Known user statuses.
const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// ParseStatus maps the directory's upper-case status strings onto Status.
// Anything other than ACTIVE is treated as inactive.
func ParseStatus(raw string) Status {
	if strings.EqualFold(strings.TrimSpace(raw), "active") {
		return StatusActive
	}
	return StatusInactive
}

// UserRecord is the canonical identity produced by a successful resolution.
type UserRecord struct {
	ID            int64    `json:"id,omitempty" yaml:"id,omitempty"`
	ProfileID     *int64   `json:"profileId,omitempty" yaml:"profileId,omitempty"`
	CanonicalKeys []string `json:"canonicalKeys" yaml:"userkeys"`
	DisplayName   string   `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Username      string   `json:"username,omitempty" yaml:"username,omitempty"`
	Score         int64    `json:"score" yaml:"score"`
	XPTotal       int64    `json:"xpTotal" yaml:"xpTotal"`
	ReviewCount   int64    `json:"reviewCount" yaml:"reviewCount"`
	VouchCount    int64    `json:"vouchCount" yaml:"vouchCount"`
	Rank          *int64   `json:"rank,omitempty" yaml:"rank,omitempty"`
	Percentile    *float64 `json:"percentile,omitempty" yaml:"percentile,omitempty"`
	Status        Status   `json:"status" yaml:"status"`
}

// PrimaryKey returns the first canonical key, which the directory treats as
// the user's preferred userkey.
func (u UserRecord) PrimaryKey() string {
	if len(u.CanonicalKeys) == 0 {
		return ""
	}
	return u.CanonicalKeys[0]
}

// Name picks the most human-friendly label available for the user.
func (u UserRecord) Name() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Username != "":
		return u.Username
	default:
		return u.PrimaryKey()
	}
}

// Addresses returns the wallet addresses embedded in the canonical keys.
func (u UserRecord) Addresses() []string {
	var out []string
	for _, key := range u.CanonicalKeys {
		if addr, ok := strings.CutPrefix(key, "address:"); ok {
			out = append(out, addr)
		}
	}
	return out
}

// Int64 returns a pointer to v. Useful for optional record fields.
func Int64(v int64) *int64 {
	return &v
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
