package domain

import "strings"

// Kind classifies an identifier by the namespace it belongs to.
type Kind string

// Identity kinds recognised by the normalizer.
const (
	KindAddress           Kind = "address"
	KindENSName           Kind = "ens"
	KindFarcasterID       Kind = "farcaster_id"
	KindFarcasterUsername Kind = "farcaster_username"
	KindTwitterUsername   Kind = "twitter_username"
	KindDiscordID         Kind = "discord_id"
	KindTelegramID        Kind = "telegram_id"
	KindProfileID         Kind = "profile_id"
	KindUserID            Kind = "user_id"
	KindUnknown           Kind = "unknown"
)

// Descriptor is the typed classification of a raw user-supplied identifier.
type Descriptor struct {
	Raw   string `json:"rawInput"`
	Kind  Kind   `json:"kind"`
	Value string `json:"normalizedValue"`
}

// Numeric reports whether the normalized value consists only of ASCII digits.
func (d Descriptor) Numeric() bool {
	return IsDigits(d.Value)
}

// Userkey renders the descriptor in the directory's userkey notation. Kinds
// without a direct userkey form return an empty string.
func (d Descriptor) Userkey() string {
	switch d.Kind {
	case KindAddress:
		return "address:" + d.Value
	case KindTwitterUsername:
		return "service:x.com:username:" + d.Value
	case KindFarcasterID:
		return "service:farcaster:" + d.Value
	case KindDiscordID:
		return "service:discord:" + d.Value
	case KindTelegramID:
		return "service:telegram:" + d.Value
	case KindProfileID:
		return "profileId:" + d.Value
	default:
		return ""
	}
}

// LookupKeys returns the keys a local dataset should try for this descriptor,
// most specific first.
func (d Descriptor) LookupKeys() []string {
	var keys []string
	if uk := d.Userkey(); uk != "" {
		keys = append(keys, strings.ToLower(uk))
	}
	if d.Value != "" {
		keys = append(keys, strings.ToLower(d.Value))
	}
	return keys
}

// IsDigits reports whether s is a non-empty string of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
