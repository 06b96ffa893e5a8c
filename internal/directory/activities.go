package directory

import (
	"context"
	"net/url"

	"github.com/cookedzera/RetroQuery/internal/domain"
)

// ActivityQuery selects a page of a user's activity history.
type ActivityQuery struct {
	Userkey   string
	Direction domain.Direction
	Types     []domain.ActivityType
	Limit     int
}

type activityRequest struct {
	Userkey string   `json:"userkey,omitempty"`
	Filter  []string `json:"filter,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// Activities returns a user's activities in directory order (newest first).
func (c *Client) Activities(ctx context.Context, q ActivityQuery) ([]domain.Activity, error) {
	dir := q.Direction
	if dir == "" {
		dir = domain.DirectionAll
	}
	req := activityRequest{
		Userkey: q.Userkey,
		Filter:  typeFilter(q.Types),
		Limit:   q.Limit,
	}

	var resp wirePage[wireActivity]
	if err := c.postJSON(ctx, "activities_profile", "/api/v2/activities/profile/"+string(dir), req, &resp); err != nil {
		return nil, err
	}
	return activitiesFromWire(resp.Values), nil
}

// Feed returns the global activity feed.
func (c *Client) Feed(ctx context.Context, types []domain.ActivityType, limit int) ([]domain.Activity, error) {
	req := activityRequest{Filter: typeFilter(types), Limit: limit}

	var resp wirePage[wireActivity]
	if err := c.postJSON(ctx, "activities_feed", "/api/v2/activities/feed", req, &resp); err != nil {
		return nil, err
	}
	return activitiesFromWire(resp.Values), nil
}

// Activity fetches one activity by type and id.
func (c *Client) Activity(ctx context.Context, kind domain.ActivityType, id string) (domain.Activity, error) {
	var resp wireActivity
	path := "/api/v2/activities/" + url.PathEscape(string(kind)) + "/" + url.PathEscape(id)
	if err := c.getJSON(ctx, "activity", path, nil, &resp); err != nil {
		return domain.Activity{}, err
	}
	if resp.Type == "" {
		resp.Type = string(kind)
	}
	return resp.toDomain()
}

// Votes returns the vote tally for one activity.
func (c *Client) Votes(ctx context.Context, kind domain.ActivityType, id string) (domain.VoteSummary, error) {
	var resp wireVotes
	path := "/api/v2/activities/votes/" + url.PathEscape(string(kind)) + "/" + url.PathEscape(id)
	if err := c.getJSON(ctx, "activity_votes", path, nil, &resp); err != nil {
		return domain.VoteSummary{}, err
	}
	return domain.VoteSummary{Upvotes: resp.Upvotes, Downvotes: resp.Downvotes}, nil
}

// WeeklyXP returns the user's XP per week, oldest first.
func (c *Client) WeeklyXP(ctx context.Context, userkey string) ([]domain.WeeklySample, error) {
	var resp []wireWeek
	path := "/api/v2/xp/user/" + url.PathEscape(userkey) + "/weekly"
	if err := c.getJSON(ctx, "xp_weekly", path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.WeeklySample, 0, len(resp))
	for _, w := range resp {
		out = append(out, w.toDomain())
	}
	domain.SortWeekly(out)
	return out, nil
}

func typeFilter(types []domain.ActivityType) []string {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// activitiesFromWire drops entries of unknown type rather than failing the page.
func activitiesFromWire(in []wireActivity) []domain.Activity {
	out := make([]domain.Activity, 0, len(in))
	for _, w := range in {
		act, err := w.toDomain()
		if err != nil {
			continue
		}
		out = append(out, act)
	}
	return out
}
