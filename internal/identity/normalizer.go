// Package identity classifies loosely formatted user identifiers.
package identity

import (
	"regexp"
	"strings"

	"github.com/cookedzera/RetroQuery/internal/domain"
)

var addressRegex = regexp.MustCompile(`^0[xX][0-9a-fA-F]{40}$`)

type schemeRule struct {
	prefix string
	kind   func(value string) domain.Kind
}

func fixed(kind domain.Kind) func(string) domain.Kind {
	return func(string) domain.Kind { return kind }
}

// schemes are matched in order, so longer prefixes sharing a stem must come first.
var schemes = []schemeRule{
	{prefix: "address:", kind: fixed(domain.KindAddress)},
	{prefix: "service:x.com:username:", kind: fixed(domain.KindTwitterUsername)},
	{prefix: "service:farcaster:", kind: farcasterKind},
	{prefix: "service:discord:", kind: fixed(domain.KindDiscordID)},
	{prefix: "service:telegram:", kind: fixed(domain.KindTelegramID)},
	{prefix: "profileId:", kind: fixed(domain.KindProfileID)},
	{prefix: "userId:", kind: fixed(domain.KindUserID)},
	{prefix: "telegram:", kind: fixed(domain.KindTelegramID)},
	{prefix: "discord:", kind: fixed(domain.KindDiscordID)},
	{prefix: "farcaster:", kind: farcasterKind},
}

func farcasterKind(value string) domain.Kind {
	if domain.IsDigits(value) {
		return domain.KindFarcasterID
	}
	return domain.KindFarcasterUsername
}

// Normalize parses raw into a descriptor. It never fails: input that matches
// no known pattern is returned as KindUnknown and left for the resolver to
// disambiguate by trial.
func Normalize(raw string) domain.Descriptor {
	trimmed := strings.TrimSpace(raw)
	desc := domain.Descriptor{Raw: raw, Kind: domain.KindUnknown, Value: trimmed}
	if trimmed == "" {
		return desc
	}

	for _, rule := range schemes {
		if len(trimmed) < len(rule.prefix) || !strings.EqualFold(trimmed[:len(rule.prefix)], rule.prefix) {
			continue
		}
		value := strings.TrimSpace(trimmed[len(rule.prefix):])
		kind := rule.kind(value)
		desc.Kind = kind
		desc.Value = canonicalValue(kind, value)
		return desc
	}

	// Handles are often pasted with a leading @.
	bare := strings.TrimSpace(strings.TrimPrefix(trimmed, "@"))

	if addressRegex.MatchString(bare) {
		desc.Kind = domain.KindAddress
		desc.Value = strings.ToLower(bare)
		return desc
	}

	if strings.HasSuffix(strings.ToLower(bare), ".eth") {
		desc.Kind = domain.KindENSName
		desc.Value = strings.ToLower(bare)
		return desc
	}

	// Bare numbers and handles stay unknown on purpose; the resolver tries every
	// namespace that could own them.
	desc.Value = bare
	return desc
}

func canonicalValue(kind domain.Kind, value string) string {
	switch kind {
	case domain.KindAddress, domain.KindENSName:
		return strings.ToLower(value)
	case domain.KindTwitterUsername, domain.KindFarcasterUsername:
		return strings.TrimPrefix(value, "@")
	default:
		return value
	}
}

// IsAddress reports whether s is a 0x-prefixed, 40 hex character address.
func IsAddress(s string) bool {
	return addressRegex.MatchString(strings.TrimSpace(s))
}
