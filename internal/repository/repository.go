// Package repository stores static fallback profiles in a graph database and
// serves them through the store.Store contract.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cookedzera/RetroQuery/internal/domain"
	"github.com/cookedzera/RetroQuery/internal/graph"
	"github.com/cookedzera/RetroQuery/internal/store"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// Repository encapsulates graph persistence of profiles.
type Repository struct {
	client graph.Client
}

var _ store.Store = (*Repository)(nil)

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// EnsureSchema creates the uniqueness constraints and lookup index the
// upsert and find statements rely on. It is idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.client.Write(ctx, stmt, nil); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// UpsertProfile writes the profile node, its activities, and the links
// between them. The full profile is kept as a JSON payload so reads return
// exactly what was ingested.
func (r *Repository) UpsertProfile(ctx context.Context, p store.Profile) error {
	key := profileKey(p)
	if key == "" {
		return errors.New("profile needs a username or userkey")
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", key, err)
	}

	activities := make([]map[string]any, 0, len(p.Activities))
	for _, a := range p.Activities {
		raw, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode activity %s/%s: %w", a.Type, a.ID, err)
		}
		activities = append(activities, map[string]any{
			"key":       activityKey(a.Type, a.ID),
			"type":      string(a.Type),
			"id":        a.ID,
			"timestamp": a.Timestamp.UTC().Unix(),
			"payload":   string(raw),
		})
	}

	params := map[string]any{
		"profileKey": key,
		"props":      profileProperties(p, string(payload)),
		"activities": activities,
	}
	if _, err := r.client.Write(ctx, upsertProfileCypher, params); err != nil {
		return fmt.Errorf("upsert profile %s: %w", key, err)
	}
	return nil
}

// FindProfile matches the descriptor value against usernames, aliases and
// wallet addresses, case-insensitively.
func (r *Repository) FindProfile(ctx context.Context, desc domain.Descriptor) (store.Profile, bool, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(desc.Value), "@"))
	if key == "" {
		return store.Profile{}, false, nil
	}

	res, err := r.client.Read(ctx, findProfileCypher, map[string]any{"key": key})
	if err != nil {
		return store.Profile{}, false, fmt.Errorf("find profile query: %w", err)
	}
	rec, ok := res.First()
	if !ok {
		return store.Profile{}, false, nil
	}
	p, err := decodeProfile(rec)
	if err != nil {
		return store.Profile{}, false, err
	}
	return p, true, nil
}

// Leaderboard returns profiles ordered by XP, ranks filled by position.
func (r *Repository) Leaderboard(ctx context.Context, limit int) ([]store.Profile, error) {
	res, err := r.client.Read(ctx, leaderboardCypher, map[string]any{"limit": clampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	profiles, err := decodeProfiles(res)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].User.Rank == nil {
			profiles[i].User.Rank = domain.Int64(int64(i + 1))
		}
	}
	return profiles, nil
}

// Search matches query as a substring of names and userkeys.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]store.Profile, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	res, err := r.client.Read(ctx, searchProfilesCypher, map[string]any{"query": q, "limit": clampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("search profiles query: %w", err)
	}
	return decodeProfiles(res)
}

// Feed returns stored activities, newest first.
func (r *Repository) Feed(ctx context.Context, types []domain.ActivityType, limit int) ([]domain.Activity, error) {
	filter := make([]string, 0, len(types))
	for _, t := range types {
		filter = append(filter, string(t))
	}
	res, err := r.client.Read(ctx, feedCypher, map[string]any{"types": filter, "limit": clampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("feed query: %w", err)
	}

	out := make([]domain.Activity, 0, len(res.Records))
	for _, rec := range res.Records {
		var a domain.Activity
		if err := json.Unmarshal([]byte(rec.String("payload")), &a); err != nil {
			return nil, fmt.Errorf("decode activity payload: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

// FindActivity loads one stored activity.
func (r *Repository) FindActivity(ctx context.Context, kind domain.ActivityType, id string) (domain.Activity, bool, error) {
	res, err := r.client.Read(ctx, findActivityCypher, map[string]any{"id": id, "type": string(kind)})
	if err != nil {
		return domain.Activity{}, false, fmt.Errorf("find activity query: %w", err)
	}
	rec, ok := res.First()
	if !ok {
		return domain.Activity{}, false, nil
	}
	var a domain.Activity
	if err := json.Unmarshal([]byte(rec.String("payload")), &a); err != nil {
		return domain.Activity{}, false, fmt.Errorf("decode activity payload: %w", err)
	}
	return a, true, nil
}

func profileKey(p store.Profile) string {
	if k := p.User.PrimaryKey(); k != "" {
		return strings.ToLower(k)
	}
	return strings.ToLower(strings.TrimSpace(p.User.Username))
}

func activityKey(t domain.ActivityType, id string) string {
	return string(t) + "/" + id
}

func profileProperties(p store.Profile, payload string) map[string]any {
	lowerAll := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return map[string]any{
		"username":      p.User.Username,
		"usernameLower": strings.ToLower(p.User.Username),
		"displayName":   p.User.DisplayName,
		"userkeys":      lowerAll(p.User.CanonicalKeys),
		"addresses":     lowerAll(p.User.Addresses()),
		"aliases":       lowerAll(p.Aliases),
		"score":         p.User.Score,
		"xpTotal":       p.User.XPTotal,
		"status":        string(p.User.Status),
		"payload":       payload,
	}
}

func decodeProfiles(res graph.Result) ([]store.Profile, error) {
	out := make([]store.Profile, 0, len(res.Records))
	for _, rec := range res.Records {
		p, err := decodeProfile(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func decodeProfile(rec graph.Record) (store.Profile, error) {
	var p store.Profile
	raw := rec.String("payload")
	if raw == "" {
		return p, errors.New("profile row has no payload")
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("decode profile payload: %w", err)
	}
	return p, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

var schemaStatements = []string{
	"CREATE CONSTRAINT profile_key IF NOT EXISTS FOR (p:Profile) REQUIRE p.profileKey IS UNIQUE",
	"CREATE CONSTRAINT activity_key IF NOT EXISTS FOR (a:Activity) REQUIRE a.activityKey IS UNIQUE",
	"CREATE INDEX profile_username IF NOT EXISTS FOR (p:Profile) ON (p.usernameLower)",
}

const upsertProfileCypher = `
MERGE (p:Profile {profileKey: $profileKey})
SET p += $props
WITH p
FOREACH (act IN $activities |
	MERGE (a:Activity {activityKey: act.key})
	SET a.type = act.type,
		a.activityId = act.id,
		a.timestamp = act.timestamp,
		a.payload = act.payload
	MERGE (p)-[:INVOLVED_IN]->(a)
)
RETURN p.profileKey AS profileKey
`

const findProfileCypher = `
MATCH (p:Profile)
WHERE p.usernameLower = $key OR $key IN p.addresses OR $key IN p.aliases
RETURN p.payload AS payload
ORDER BY p.xpTotal DESC
LIMIT 1
`

const leaderboardCypher = `
MATCH (p:Profile)
RETURN p.payload AS payload
ORDER BY p.xpTotal DESC, p.usernameLower ASC
LIMIT $limit
`

const searchProfilesCypher = `
MATCH (p:Profile)
WHERE p.usernameLower CONTAINS $query
	OR toLower(p.displayName) CONTAINS $query
	OR any(k IN p.userkeys WHERE k CONTAINS $query)
RETURN p.payload AS payload
ORDER BY p.xpTotal DESC
LIMIT $limit
`

const feedCypher = `
MATCH (a:Activity)
WHERE size($types) = 0 OR a.type IN $types
RETURN a.payload AS payload
ORDER BY a.timestamp DESC, a.activityId ASC
LIMIT $limit
`

const findActivityCypher = `
MATCH (a:Activity {activityId: $id})
WHERE $type = "" OR a.type = $type
RETURN a.payload AS payload
LIMIT 1
`
