package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookedzera/RetroQuery/internal/directory"
	"github.com/cookedzera/RetroQuery/internal/domain"
	"github.com/cookedzera/RetroQuery/internal/store"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// fakeDirectory answers from in-memory maps keyed by lowercase value.
type fakeDirectory struct {
	mu     sync.Mutex
	calls  []string
	err    error
	byX    map[string]domain.UserRecord
	byAddr map[string]domain.UserRecord
	acts   map[string][]domain.Activity
	weekly map[string][]domain.WeeklySample
	board  []domain.UserRecord
	votes  map[string]domain.VoteSummary
}

func (f *fakeDirectory) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeDirectory) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func one(m map[string]domain.UserRecord, key string) ([]domain.UserRecord, error) {
	if rec, ok := m[strings.ToLower(key)]; ok {
		return []domain.UserRecord{rec}, nil
	}
	return nil, directory.ErrNotFound
}

func (f *fakeDirectory) UsersByAddress(_ context.Context, v ...string) ([]domain.UserRecord, error) {
	if err := f.record("address"); err != nil {
		return nil, err
	}
	return one(f.byAddr, v[0])
}

func (f *fakeDirectory) ResolveENS(context.Context, string) (string, error) {
	if err := f.record("ens"); err != nil {
		return "", err
	}
	return "", directory.ErrNotFound
}

func (f *fakeDirectory) UsersByX(_ context.Context, v ...string) ([]domain.UserRecord, error) {
	if err := f.record("x"); err != nil {
		return nil, err
	}
	return one(f.byX, v[0])
}

func (f *fakeDirectory) UsersByFarcasterID(context.Context, ...string) ([]domain.UserRecord, error) {
	return nil, f.missWith("farcaster_id")
}

func (f *fakeDirectory) UsersByFarcasterUsername(context.Context, ...string) ([]domain.UserRecord, error) {
	return nil, f.missWith("farcaster_username")
}

func (f *fakeDirectory) UsersByDiscord(context.Context, ...string) ([]domain.UserRecord, error) {
	return nil, f.missWith("discord")
}

func (f *fakeDirectory) UsersByTelegram(context.Context, ...string) ([]domain.UserRecord, error) {
	return nil, f.missWith("telegram")
}

func (f *fakeDirectory) UsersByProfileID(context.Context, ...int64) ([]domain.UserRecord, error) {
	return nil, f.missWith("profile_id")
}

func (f *fakeDirectory) UsersByID(context.Context, ...int64) ([]domain.UserRecord, error) {
	return nil, f.missWith("user_id")
}

func (f *fakeDirectory) missWith(call string) error {
	if err := f.record(call); err != nil {
		return err
	}
	return directory.ErrNotFound
}

func (f *fakeDirectory) Search(context.Context, string, int) ([]domain.UserRecord, error) {
	return nil, f.missWith("search")
}

func (f *fakeDirectory) Leaderboard(_ context.Context, limit int) ([]domain.UserRecord, error) {
	if err := f.record("leaderboard"); err != nil {
		return nil, err
	}
	if limit < len(f.board) {
		return f.board[:limit], nil
	}
	return f.board, nil
}

func (f *fakeDirectory) Activities(_ context.Context, q directory.ActivityQuery) ([]domain.Activity, error) {
	if err := f.record("activities:" + string(q.Direction)); err != nil {
		return nil, err
	}
	var out []domain.Activity
	for _, a := range f.acts[strings.ToLower(q.Userkey)] {
		if !a.InvolvesUserkey(q.Userkey, q.Direction) {
			continue
		}
		if len(q.Types) > 0 && a.Type != q.Types[0] {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeDirectory) Feed(context.Context, []domain.ActivityType, int) ([]domain.Activity, error) {
	return nil, f.missWith("feed")
}

func (f *fakeDirectory) Activity(context.Context, domain.ActivityType, string) (domain.Activity, error) {
	return domain.Activity{}, f.missWith("activity")
}

func (f *fakeDirectory) Votes(_ context.Context, kind domain.ActivityType, id string) (domain.VoteSummary, error) {
	if err := f.record("votes"); err != nil {
		return domain.VoteSummary{}, err
	}
	v, ok := f.votes[string(kind)+"/"+id]
	if !ok {
		return domain.VoteSummary{}, directory.ErrNotFound
	}
	return v, nil
}

func (f *fakeDirectory) WeeklyXP(_ context.Context, userkey string) ([]domain.WeeklySample, error) {
	if err := f.record("weekly"); err != nil {
		return nil, err
	}
	return f.weekly[strings.ToLower(userkey)], nil
}

func cookedzera() domain.UserRecord {
	return domain.UserRecord{
		ID:            77,
		CanonicalKeys: []string{"profileId:11", "service:x.com:username:cookedzera", "address:0x1111111111111111111111111111111111111111"},
		Username:      "cookedzera",
		Score:         1373,
		XPTotal:       5505,
		ReviewCount:   9,
		VouchCount:    2,
		Rank:          domain.Int64(140),
		Status:        domain.StatusActive,
	}
}

func rival() domain.UserRecord {
	return domain.UserRecord{
		CanonicalKeys: []string{"profileId:12", "service:x.com:username:rival"},
		Username:      "rival",
		Score:         1500,
		XPTotal:       9000,
		ReviewCount:   4,
		VouchCount:    7,
		Rank:          domain.Int64(90),
		Status:        domain.StatusActive,
	}
}

func newLiveDirectory() *fakeDirectory {
	return &fakeDirectory{
		byX: map[string]domain.UserRecord{
			"cookedzera": cookedzera(),
			"rival":      rival(),
		},
		byAddr: map[string]domain.UserRecord{},
		acts: map[string][]domain.Activity{
			"profileid:12": {
				{ID: "501", Type: domain.ActivityReview, Score: 1, Author: domain.ActorRef{Userkey: "profileId:12"}, Subject: domain.ActorRef{Userkey: "profileId:11"}, Timestamp: now.Add(-48 * time.Hour)},
				{ID: "502", Type: domain.ActivityReview, Score: -1, Author: domain.ActorRef{Userkey: "profileId:12"}, Subject: domain.ActorRef{Userkey: "profileId:99"}, Timestamp: now.Add(-24 * time.Hour)},
			},
			"profileid:11": {
				{ID: "501", Type: domain.ActivityReview, Score: 1, Author: domain.ActorRef{Userkey: "profileId:12"}, Subject: domain.ActorRef{Userkey: "profileId:11"}, Timestamp: now.Add(-48 * time.Hour)},
			},
		},
		weekly: map[string][]domain.WeeklySample{
			"profileid:11": {{Week: 1, XP: 100}, {Week: 2, XP: 250}},
		},
		board: []domain.UserRecord{rival(), cookedzera()},
		votes: map[string]domain.VoteSummary{"review/501": {Upvotes: 5, Downvotes: 2}},
	}
}

func staticStore(t *testing.T) store.Store {
	t.Helper()
	ds, err := store.LoadStatic("")
	require.NoError(t, err)
	return ds
}

func newDispatcher(dir Directory, mock, static store.Store) *Dispatcher {
	return New(Deps{
		Directory: dir,
		Mock:      mock,
		Static:    static,
		Now:       func() time.Time { return now },
	})
}

func dataJSON(t *testing.T, env domain.Envelope) map[string]any {
	t.Helper()
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	var out struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.Data
}

func TestExecute_CookedzeraProfileFromLiveDirectory(t *testing.T) {
	d := newDispatcher(newLiveDirectory(), nil, nil)

	env := d.Execute(context.Background(), "user_profile", Params{"userkey": "cookedzera"})
	require.True(t, env.Success, env.Message)
	assert.True(t, env.IsRealData)

	data := dataJSON(t, env)
	assert.EqualValues(t, 1373, data["score"])
	assert.EqualValues(t, 5505, data["xpTotal"])
	assert.EqualValues(t, 9, data["reviewCount"])
	assert.EqualValues(t, 2, data["vouchCount"])
}

func TestExecute_StaticOnlyIsNotRealData(t *testing.T) {
	failing := &fakeDirectory{err: errors.New("directory down")}
	d := newDispatcher(failing, nil, staticStore(t))

	env := d.Execute(context.Background(), "user_profile", Params{"userkey": "LedgerFox"})
	require.True(t, env.Success, env.Message)
	assert.False(t, env.IsRealData)
	assert.Equal(t, "ledgerfox", env.Data.(ProfileData).Username)
	assert.NotEmpty(t, failing.Calls(), "live tier should have been tried first")
}

func TestExecute_UnknownIdentityIsNotFound(t *testing.T) {
	d := newDispatcher(newLiveDirectory(), store.NewDataset(nil, store.MatchIdentifiers), staticStore(t))

	env := d.Execute(context.Background(), "user_profile", Params{"userkey": "nobody_at_all"})
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	assert.False(t, env.IsRealData)
	assert.Contains(t, env.Message, "nobody_at_all")
}

func TestExecute_AddressTriesOnlyAddressLookup(t *testing.T) {
	dir := newLiveDirectory()
	d := newDispatcher(dir, nil, nil)

	env := d.Execute(context.Background(), "user_profile", Params{"userkey": "0x9876543210987654321098765432109876543210"})
	assert.False(t, env.Success)
	assert.Equal(t, []string{"address"}, dir.Calls())
}

func TestExecute_MissingParameterMakesNoCalls(t *testing.T) {
	dir := newLiveDirectory()
	d := newDispatcher(dir, nil, nil)

	for _, intent := range []string{"user_profile", "user_stats", "user_reviews", "user_activities", "activity_history", "connected_networks", "reputation_trend"} {
		env := d.Execute(context.Background(), intent, Params{})
		assert.False(t, env.Success, intent)
		assert.Nil(t, env.Data, intent)
		assert.Contains(t, env.Message, "userkey", intent)
	}
	for intent, param := range map[string]string{"search_users": "query", "activity_detail": "activityId", "activity_votes": "activityId", "review_between": "author"} {
		env := d.Execute(context.Background(), intent, Params{})
		assert.False(t, env.Success, intent)
		assert.Contains(t, env.Message, param, intent)
	}
	assert.Empty(t, dir.Calls())
}

// weeklyDownDirectory fails only the weekly XP endpoint.
type weeklyDownDirectory struct {
	*fakeDirectory
}

func (w weeklyDownDirectory) WeeklyXP(context.Context, string) ([]domain.WeeklySample, error) {
	return nil, errors.New("weekly endpoint unavailable")
}

func TestExecute_FailedWeeklyFetchIsNotRealData(t *testing.T) {
	d := newDispatcher(weeklyDownDirectory{newLiveDirectory()}, nil, nil)

	for _, intent := range []string{"user_stats", "reputation_trend"} {
		env := d.Execute(context.Background(), intent, Params{"userkey": "cookedzera", "timeframe": "week"})
		require.True(t, env.Success, "%s: %s", intent, env.Message)
		assert.False(t, env.IsRealData, intent)
	}
}

func TestExecute_ComparisonNeedsTwoUserkeys(t *testing.T) {
	dir := newLiveDirectory()
	d := newDispatcher(dir, nil, nil)

	env := d.Execute(context.Background(), "user_comparison", Params{"userkey1": "cookedzera"})
	assert.False(t, env.Success)
	msg := strings.ToLower(env.Message)
	assert.Contains(t, msg, "two")
	assert.Contains(t, msg, "required")
	assert.Empty(t, dir.Calls())
}

func TestExecute_ComparisonIsAntiSymmetric(t *testing.T) {
	d := newDispatcher(newLiveDirectory(), nil, nil)

	ab := d.Execute(context.Background(), "user_comparison", Params{"userkeys": []any{"cookedzera", "rival"}})
	ba := d.Execute(context.Background(), "user_comparison", Params{"userkey1": "rival", "userkey2": "cookedzera"})
	require.True(t, ab.Success, ab.Message)
	require.True(t, ba.Success, ba.Message)
	assert.True(t, ab.IsRealData)

	x := ab.Data.(ComparisonData).Deltas
	y := ba.Data.(ComparisonData).Deltas
	assert.Equal(t, int64(-127), x.Score)
	assert.Equal(t, -x.Score, y.Score)
	assert.Equal(t, -x.Reviews, y.Reviews)
	assert.Equal(t, -x.Vouches, y.Vouches)
	require.NotNil(t, x.Rank)
	require.NotNil(t, y.Rank)
	assert.Equal(t, int64(-50), *x.Rank, "cookedzera ranks below rival")
	assert.Equal(t, -*x.Rank, *y.Rank)
}

// rendezvousDirectory holds each X lookup until two are in flight at once.
type rendezvousDirectory struct {
	*fakeDirectory
	mu      sync.Mutex
	arrived int
	both    chan struct{}
}

func (r *rendezvousDirectory) UsersByX(ctx context.Context, v ...string) ([]domain.UserRecord, error) {
	r.mu.Lock()
	r.arrived++
	if r.arrived == 2 {
		close(r.both)
	}
	r.mu.Unlock()

	select {
	case <-r.both:
	case <-time.After(2 * time.Second):
		return nil, errors.New("second lookup never started")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return r.fakeDirectory.UsersByX(ctx, v...)
}

func TestExecute_ComparisonResolvesBothSidesConcurrently(t *testing.T) {
	dir := &rendezvousDirectory{fakeDirectory: newLiveDirectory(), both: make(chan struct{})}
	d := newDispatcher(dir, nil, nil)

	env := d.Execute(context.Background(), "user_comparison", Params{"userkeys": []any{"cookedzera", "rival"}})
	require.True(t, env.Success, env.Message)
	assert.True(t, env.IsRealData)
}

func TestExecute_ComparisonFailsWhenEitherSideIsUnknown(t *testing.T) {
	d := newDispatcher(newLiveDirectory(), nil, nil)
	env := d.Execute(context.Background(), "user_comparison", Params{"userkeys": "cookedzera, ghost"})
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "ghost")
}

func TestExecute_UnsupportedIntent(t *testing.T) {
	dir := newLiveDirectory()
	d := newDispatcher(dir, nil, nil)

	env := d.Execute(context.Background(), "foo", Params{"userkey": "cookedzera"})
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	assert.Contains(t, env.Message, "foo")
	assert.Contains(t, env.Message, "not supported")
	assert.Empty(t, dir.Calls())
}

func TestExecute_StatsTimeframes(t *testing.T) {
	d := newDispatcher(newLiveDirectory(), nil, nil)

	day := d.Execute(context.Background(), "user_stats", Params{"userkey": "cookedzera", "timeframe": "day"})
	require.True(t, day.Success, day.Message)
	assert.Zero(t, day.Data.(StatsData).XP.Value)

	month := d.Execute(context.Background(), "user_stats", Params{"userkey": "cookedzera", "timeframe": "month"})
	require.True(t, month.Success, month.Message)
	assert.InDelta(t, 350, month.Data.(StatsData).XP.Value, 1e-9)
	assert.True(t, month.IsRealData)

	all := d.Execute(context.Background(), "user_stats", Params{"userkey": "cookedzera"})
	assert.InDelta(t, 5505, all.Data.(StatsData).XP.Value, 1e-9)

	bad := d.Execute(context.Background(), "user_stats", Params{"userkey": "cookedzera", "timeframe": "fortnight"})
	assert.False(t, bad.Success)
	assert.Contains(t, bad.Message, "timeframe")
}

func TestExecute_ReviewsDefaultToReceived(t *testing.T) {
	dir := newLiveDirectory()
	d := newDispatcher(dir, nil, nil)

	env := d.Execute(context.Background(), "user_reviews", Params{"userkey": "cookedzera"})
	require.True(t, env.Success, env.Message)
	data := env.Data.(ReviewsData)
	assert.Equal(t, domain.DirectionReceived, data.Direction)
	assert.Len(t, data.Reviews, 1)
	assert.Equal(t, 1, data.Summary.Positive)
	assert.Contains(t, dir.Calls(), "activities:received")
}

func TestExecute_ReviewBetween(t *testing.T) {
	d := newDispatcher(newLiveDirectory(), nil, nil)

	env := d.Execute(context.Background(), "review_between", Params{"author": "rival", "subject": "cookedzera"})
	require.True(t, env.Success, env.Message)
	data := env.Data.(BetweenData)
	assert.True(t, data.Found)
	require.Len(t, data.Reviews, 1)
	assert.Equal(t, "501", data.Reviews[0].ID)
	assert.True(t, env.IsRealData)

	reverse := d.Execute(context.Background(), "review_between", Params{"userkeys": []string{"cookedzera", "rival"}})
	require.True(t, reverse.Success, reverse.Message)
	assert.False(t, reverse.Data.(BetweenData).Found)
}

func TestExecute_LeaderboardLiveThenStatic(t *testing.T) {
	live := newDispatcher(newLiveDirectory(), nil, staticStore(t))
	env := live.Execute(context.Background(), "leaderboard", Params{"limit": float64(1)})
	require.True(t, env.Success)
	assert.True(t, env.IsRealData)
	assert.Len(t, env.Data.([]domain.UserRecord), 1)

	degraded := newDispatcher(&fakeDirectory{err: errors.New("timeout")}, nil, staticStore(t))
	env = degraded.Execute(context.Background(), "leaderboard", Params{})
	require.True(t, env.Success)
	assert.False(t, env.IsRealData)
	assert.Equal(t, "ledgerfox", env.Data.([]domain.UserRecord)[0].Username)
}

func TestExecute_ActivityDetailAndVotesFallBack(t *testing.T) {
	d := newDispatcher(newLiveDirectory(), nil, staticStore(t))

	detail := d.Execute(context.Background(), "activity_detail", Params{"activityId": float64(88120)})
	require.True(t, detail.Success, detail.Message)
	assert.False(t, detail.IsRealData)
	assert.Equal(t, "88120", detail.Data.(domain.Activity).ID)

	votes := d.Execute(context.Background(), "activity_votes", Params{"activityId": "501"})
	require.True(t, votes.Success, votes.Message)
	assert.True(t, votes.IsRealData)
	assert.Equal(t, int64(3), votes.Data.(VotesData).Net)

	missing := d.Execute(context.Background(), "activity_detail", Params{"activityId": "404", "activityType": "vouch"})
	assert.False(t, missing.Success)
	assert.Contains(t, missing.Message, "404")
}

func TestExecute_ConnectedNetworks(t *testing.T) {
	d := newDispatcher(newLiveDirectory(), nil, nil)

	env := d.Execute(context.Background(), "connected_networks", Params{"userkey": "cookedzera"})
	require.True(t, env.Success, env.Message)
	nets := env.Data.(NetworksData).Networks
	require.Len(t, nets, 3)
	assert.Equal(t, Network{Service: "x.com", Identifier: "cookedzera", Userkey: "service:x.com:username:cookedzera"}, nets[1])
	assert.Equal(t, "ethereum", nets[2].Service)
}

func TestExecute_HistoryAndTrendFromStatic(t *testing.T) {
	d := newDispatcher(nil, nil, staticStore(t))

	hist := d.Execute(context.Background(), "activity_history", Params{"userkey": "ledgerfox", "timeframe": "year"})
	require.True(t, hist.Success, hist.Message)
	data := hist.Data.(HistoryData)
	assert.Len(t, data.Activities, 3)
	assert.NotEmpty(t, data.Buckets)
	assert.False(t, hist.IsRealData)

	trend := d.Execute(context.Background(), "reputation_trend", Params{"userkey": "ledgerfox"})
	require.True(t, trend.Success, trend.Message)
	td := trend.Data.(TrendData)
	assert.InDelta(t, 385+520+298+447, td.Window.Value, 1e-9)
}

func TestExecute_FeedFromMock(t *testing.T) {
	mock := store.NewDataset([]store.Profile{{
		User: domain.UserRecord{Username: "mocky", CanonicalKeys: []string{"profileId:1"}},
		Activities: []domain.Activity{
			{ID: "1", Type: domain.ActivityVouch, Timestamp: now},
		},
	}}, store.MatchIdentifiers)
	d := newDispatcher(&fakeDirectory{err: errors.New("down")}, mock, staticStore(t))

	env := d.Execute(context.Background(), "global_feed", Params{"activityType": "vouches"})
	require.True(t, env.Success, env.Message)
	assert.False(t, env.IsRealData)
	acts := env.Data.([]domain.Activity)
	require.Len(t, acts, 1)
	assert.Equal(t, "1", acts[0].ID)
}

type panickyDirectory struct{ fakeDirectory }

func (p *panickyDirectory) Leaderboard(context.Context, int) ([]domain.UserRecord, error) {
	panic("boom")
}

func TestExecute_RecoversFromPanics(t *testing.T) {
	d := newDispatcher(&panickyDirectory{}, nil, nil)
	env := d.Execute(context.Background(), "leaderboard", nil)
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
}

type fixedSource struct {
	intent Intent
	err    error
}

func (f fixedSource) Extract(context.Context, string) (Intent, error) {
	return f.intent, f.err
}

func TestAsk(t *testing.T) {
	d := newDispatcher(newLiveDirectory(), nil, nil)

	env := d.Ask(context.Background(), fixedSource{intent: Intent{Name: "user_profile", Parameters: Params{"userkey": "@cookedzera"}}}, "who is cookedzera?")
	require.True(t, env.Success, env.Message)

	env = d.Ask(context.Background(), fixedSource{err: errors.New("model unavailable")}, "hi")
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "model unavailable")
}

func TestIntentsListsEveryOperation(t *testing.T) {
	d := newDispatcher(nil, nil, nil)
	names := make([]string, 0)
	for _, info := range d.Intents() {
		names = append(names, info.Name)
	}
	assert.Len(t, names, 14)
	assert.Equal(t, "user_profile", names[0])
	assert.Contains(t, names, "reputation_trend")
}
