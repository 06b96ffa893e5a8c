package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookedzera/RetroQuery/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Options{BaseURL: srv.URL, ClientName: "test-client"})
	require.NoError(t, err)
	return client
}

func TestUsersByX_DecodesFirstRecordFields(t *testing.T) {
	var gotBody map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/users/by/x", r.URL.Path)
		assert.Equal(t, "test-client", r.Header.Get("X-Ethos-Client"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		_, _ = io.WriteString(w, `[{
			"id": 11,
			"profileId": 42,
			"displayName": "cooked",
			"username": "cookedzera",
			"score": 1373,
			"status": "ACTIVE",
			"userkeys": ["profileId:42", "service:x.com:username:cookedzera"],
			"xpTotal": 5505,
			"stats": {
				"review": {"received": {"positive": 8, "neutral": 1, "negative": 0}},
				"vouch": {"received": {"count": 2, "amountWeiTotal": "0"}}
			}
		}, {"id": 12, "userkeys": ["profileId:43"], "score": 900}]`)
	})

	users, err := client.UsersByX(context.Background(), "cookedzera")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, []string{"cookedzera"}, gotBody["accountIdsOrUsernames"])

	u := users[0]
	assert.Equal(t, int64(1373), u.Score)
	assert.Equal(t, int64(5505), u.XPTotal)
	assert.Equal(t, int64(9), u.ReviewCount)
	assert.Equal(t, int64(2), u.VouchCount)
	assert.Equal(t, domain.StatusActive, u.Status)
	require.NotNil(t, u.ProfileID)
	assert.Equal(t, int64(42), *u.ProfileID)
	assert.Nil(t, u.Rank)
	assert.Equal(t, "profileId:42", u.PrimaryKey())
}

func TestUsersBy_EmptyListIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := client.UsersByAddress(context.Background(), "0x0000000000000000000000000000000000000001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsersBy_RecordsWithoutIdentityAreNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"score": 10}]`)
	})

	_, err := client.UsersByDiscord(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDo_StatusErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/ens/missing.eth":
			http.NotFound(w, r)
		default:
			http.Error(w, "boom", http.StatusBadGateway)
		}
	})

	_, err := client.ResolveENS(context.Background(), "missing.eth")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.UsersByTelegram(context.Background(), "5")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Status)
	assert.Equal(t, "users_by_telegram", statusErr.Endpoint)
}

func TestDo_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"not": "a list"}`)
	})

	_, err := client.UsersByProfileID(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestActivities_DecodesTaggedScores(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/activities/profile/received", r.URL.Path)
		var req activityRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"review", "vouch"}, req.Filter)
		assert.Equal(t, 5, req.Limit)

		_, _ = io.WriteString(w, `{"total": 3, "values": [
			{"type": "review", "timestamp": 1700000000, "data": {"id": 7, "score": "negative", "comment": "meh"},
			 "author": {"userkey": "profileId:1", "name": "a"}, "subject": {"userkey": "profileId:2"}},
			{"type": "vouch", "timestamp": 1700000100, "data": {"id": "9", "deposited": "1500000000000000000"},
			 "votes": {"upvotes": 3, "downvotes": 1}},
			{"type": "mystery", "data": {"id": 1}}
		]}`)
	})

	acts, err := client.Activities(context.Background(), ActivityQuery{
		Userkey:   "profileId:2",
		Direction: domain.DirectionReceived,
		Types:     []domain.ActivityType{domain.ActivityReview, domain.ActivityVouch},
		Limit:     5,
	})
	require.NoError(t, err)
	require.Len(t, acts, 2)

	assert.Equal(t, "7", acts[0].ID)
	assert.Equal(t, float64(-1), acts[0].Score)
	assert.Equal(t, "meh", acts[0].Comment)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), acts[0].Timestamp)
	assert.Equal(t, "profileId:1", acts[0].Author.Userkey)

	assert.Equal(t, domain.ActivityVouch, acts[1].Type)
	assert.Equal(t, "1.5000", acts[1].EthAmount)
	assert.Equal(t, int64(2), acts[1].Votes.Net())
}

func TestWeeklyXP(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/xp/user/profileId:42/weekly", r.URL.Path)
		_, _ = io.WriteString(w, `[{"week": 1, "weekStart": "2025-01-06", "xp": 100}, {"week": 2, "xp": 50}]`)
	})

	weeks, err := client.WeeklyXP(context.Background(), "profileId:42")
	require.NoError(t, err)
	require.Len(t, weeks, 2)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), weeks[0].WeekStart)
	assert.Equal(t, int64(50), weeks[1].XP)
}

func TestWeeklyXP_SortsOldestFirst(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[
			{"week": 3, "weekStart": "2025-01-20", "xp": 30},
			{"week": 1, "weekStart": "2025-01-06", "xp": 10},
			{"week": 2, "weekStart": "2025-01-13", "xp": 20}
		]`)
	})

	weeks, err := client.WeeklyXP(context.Background(), "profileId:42")
	require.NoError(t, err)
	require.Len(t, weeks, 3)
	assert.Equal(t, []int64{10, 20, 30}, []int64{weeks[0].XP, weeks[1].XP, weeks[2].XP})
}

func TestLeaderboard_FillsMissingRank(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `[{"id": 1, "userkeys": ["profileId:1"], "rank": 1}, {"id": 2, "userkeys": ["profileId:2"]}]`)
	})

	users, err := client.Leaderboard(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(2), *users[1].Rank)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "::not a url"})
	assert.Error(t, err)
}
