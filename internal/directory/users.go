package directory

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cookedzera/RetroQuery/internal/domain"
)

// UsersByAddress looks users up by wallet address.
func (c *Client) UsersByAddress(ctx context.Context, addresses ...string) ([]domain.UserRecord, error) {
	return c.usersBy(ctx, "users_by_address", "/api/v2/users/by/address", "addresses", addresses)
}

// UsersByX looks users up by X (Twitter) account id or username.
func (c *Client) UsersByX(ctx context.Context, usernames ...string) ([]domain.UserRecord, error) {
	return c.usersBy(ctx, "users_by_x", "/api/v2/users/by/x", "accountIdsOrUsernames", usernames)
}

// UsersByFarcasterID looks users up by numeric Farcaster id.
func (c *Client) UsersByFarcasterID(ctx context.Context, ids ...string) ([]domain.UserRecord, error) {
	return c.usersBy(ctx, "users_by_farcaster", "/api/v2/users/by/farcaster", "farcasterIds", ids)
}

// UsersByFarcasterUsername looks users up by Farcaster username.
func (c *Client) UsersByFarcasterUsername(ctx context.Context, usernames ...string) ([]domain.UserRecord, error) {
	return c.usersBy(ctx, "users_by_farcaster_username", "/api/v2/users/by/farcaster/usernames", "farcasterUsernames", usernames)
}

// UsersByDiscord looks users up by Discord id.
func (c *Client) UsersByDiscord(ctx context.Context, ids ...string) ([]domain.UserRecord, error) {
	return c.usersBy(ctx, "users_by_discord", "/api/v2/users/by/discord", "discordIds", ids)
}

// UsersByTelegram looks users up by Telegram id.
func (c *Client) UsersByTelegram(ctx context.Context, ids ...string) ([]domain.UserRecord, error) {
	return c.usersBy(ctx, "users_by_telegram", "/api/v2/users/by/telegram", "telegramIds", ids)
}

// UsersByProfileID looks users up by directory profile id.
func (c *Client) UsersByProfileID(ctx context.Context, ids ...int64) ([]domain.UserRecord, error) {
	return c.usersBy(ctx, "users_by_profile_id", "/api/v2/users/by/profile-id", "profileIds", ids)
}

// UsersByID looks users up by directory user id.
func (c *Client) UsersByID(ctx context.Context, ids ...int64) ([]domain.UserRecord, error) {
	return c.usersBy(ctx, "users_by_id", "/api/v2/users/by/ids", "userIds", ids)
}

func (c *Client) usersBy(ctx context.Context, endpoint, path, field string, values any) ([]domain.UserRecord, error) {
	var resp []wireUser
	if err := c.postJSON(ctx, endpoint, path, map[string]any{field: values}, &resp); err != nil {
		return nil, err
	}
	return usersFromWire(resp)
}

// ResolveENS returns the primary address registered for an ENS name.
func (c *Client) ResolveENS(ctx context.Context, name string) (string, error) {
	var resp wireENS
	path := "/api/v2/ens/" + url.PathEscape(strings.ToLower(name))
	if err := c.getJSON(ctx, "ens", path, nil, &resp); err != nil {
		return "", err
	}
	if resp.Address == nil || strings.TrimSpace(*resp.Address) == "" {
		return "", ErrNotFound
	}
	return strings.ToLower(strings.TrimSpace(*resp.Address)), nil
}

// Search runs a free-text user search.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.UserRecord, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))

	var resp wirePage[wireUser]
	if err := c.getJSON(ctx, "users_search", "/api/v2/users/search", params, &resp); err != nil {
		return nil, err
	}
	return usersFromWire(resp.Values)
}

// Leaderboard returns the top users by XP in directory order.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]domain.UserRecord, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var resp []wireUser
	if err := c.getJSON(ctx, "xp_leaderboard", "/api/v2/xp/leaderboard", params, &resp); err != nil {
		return nil, err
	}
	users, err := usersFromWire(resp)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Rank == nil {
			users[i].Rank = domain.Int64(int64(i + 1))
		}
	}
	return users, nil
}

func usersFromWire(in []wireUser) ([]domain.UserRecord, error) {
	out := make([]domain.UserRecord, 0, len(in))
	for _, w := range in {
		if !w.valid() {
			continue
		}
		out = append(out, w.toDomain())
	}
	if len(out) == 0 {
		if len(in) > 0 {
			return nil, fmt.Errorf("%w: %d records without identity", ErrNotFound, len(in))
		}
		return nil, ErrNotFound
	}
	return out, nil
}
