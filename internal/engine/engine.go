// Package engine dispatches intents to query operations. Every operation
// normalizes and resolves its identities, reads through the degradation
// tiers and answers with a domain.Envelope.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cookedzera/RetroQuery/internal/directory"
	"github.com/cookedzera/RetroQuery/internal/domain"
	"github.com/cookedzera/RetroQuery/internal/metrics"
	"github.com/cookedzera/RetroQuery/internal/resolver"
	"github.com/cookedzera/RetroQuery/internal/store"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
	historyLimit     = 100
)

// Directory is the live data source. *directory.Client satisfies it.
type Directory interface {
	resolver.Directory
	Search(ctx context.Context, query string, limit int) ([]domain.UserRecord, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.UserRecord, error)
	Activities(ctx context.Context, q directory.ActivityQuery) ([]domain.Activity, error)
	Feed(ctx context.Context, types []domain.ActivityType, limit int) ([]domain.Activity, error)
	Activity(ctx context.Context, kind domain.ActivityType, id string) (domain.Activity, error)
	Votes(ctx context.Context, kind domain.ActivityType, id string) (domain.VoteSummary, error)
	WeeklyXP(ctx context.Context, userkey string) ([]domain.WeeklySample, error)
}

// Deps wires a Dispatcher. A nil Directory, Mock or Static removes that tier.
type Deps struct {
	Directory Directory
	Mock      store.Store
	Static    store.Store
	Logger    *slog.Logger
	// Timeout bounds one Execute call end to end. Zero means no bound.
	Timeout time.Duration
	Now     func() time.Time
}

// Intent is a request produced by an IntentSource.
type Intent struct {
	Name            string `json:"intent"`
	Parameters      Params `json:"parameters"`
	NaturalResponse string `json:"natural_response,omitempty"`
}

// IntentSource turns free text into an Intent. Implementations usually wrap a
// language model; none ship with the engine.
type IntentSource interface {
	Extract(ctx context.Context, text string) (Intent, error)
}

// IntentInfo documents one supported intent.
type IntentInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Required    []string `json:"required,omitempty"`
	Optional    []string `json:"optional,omitempty"`
}

// outcome is what an operation hands back on success.
type outcome struct {
	data    any
	message string
	real    bool
}

type operation func(ctx context.Context, p Params) (outcome, error)

type intentDef struct {
	info IntentInfo
	run  operation
}

// Dispatcher executes intents. It holds no per-request state and is safe for
// concurrent use.
type Dispatcher struct {
	dir     Directory
	chain   *resolver.Chain
	mock    store.Store
	static  store.Store
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time

	intents []intentDef
	byName  map[string]int
}

// New builds a Dispatcher from deps.
func New(deps Deps) *Dispatcher {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	d := &Dispatcher{
		dir:     deps.Directory,
		mock:    deps.Mock,
		static:  deps.Static,
		logger:  logger.With("component", "engine"),
		timeout: deps.Timeout,
		now:     now,
	}
	if deps.Directory != nil {
		d.chain = resolver.NewChain(deps.Directory, logger)
	}
	d.register()
	return d
}

func (d *Dispatcher) register() {
	d.intents = []intentDef{
		{IntentInfo{"user_profile", "Reputation profile of one user", []string{"userkey"}, nil}, d.userProfile},
		{IntentInfo{"user_stats", "Profile metrics with XP earned in a timeframe", []string{"userkey"}, []string{"timeframe"}}, d.userStats},
		{IntentInfo{"user_reviews", "Reviews given or received by a user", []string{"userkey"}, []string{"direction", "limit"}}, d.userReviews},
		{IntentInfo{"user_comparison", "Side by side comparison of two users", []string{"userkeys"}, []string{"userkey1", "userkey2"}}, d.userComparison},
		{IntentInfo{"leaderboard", "Top users by XP", nil, []string{"limit"}}, d.leaderboard},
		{IntentInfo{"search_users", "Find users by name or handle", []string{"query"}, []string{"limit"}}, d.searchUsers},
		{IntentInfo{"user_activities", "Recent activities involving a user", []string{"userkey"}, []string{"direction", "activityType", "limit"}}, d.userActivities},
		{IntentInfo{"activity_history", "A user's activities within a timeframe, grouped for display", []string{"userkey"}, []string{"timeframe", "limit"}}, d.activityHistory},
		{IntentInfo{"global_feed", "Latest activities across the network", nil, []string{"limit", "activityType"}}, d.globalFeed},
		{IntentInfo{"activity_detail", "One activity by id", []string{"activityId"}, []string{"activityType"}}, d.activityDetail},
		{IntentInfo{"activity_votes", "Votes cast on one activity", []string{"activityId"}, []string{"activityType"}}, d.activityVotes},
		{IntentInfo{"review_between", "Reviews one user wrote about another", []string{"author", "subject"}, []string{"userkeys"}}, d.reviewBetween},
		{IntentInfo{"connected_networks", "Accounts linked to a user's profile", []string{"userkey"}, nil}, d.connectedNetworks},
		{IntentInfo{"reputation_trend", "How a user's reputation moved over a timeframe", []string{"userkey"}, []string{"timeframe"}}, d.reputationTrend},
	}
	d.byName = make(map[string]int, len(d.intents))
	for i, def := range d.intents {
		d.byName[def.info.Name] = i
	}
}

// Intents lists the supported intents in a stable order.
func (d *Dispatcher) Intents() []IntentInfo {
	out := make([]IntentInfo, 0, len(d.intents))
	for _, def := range d.intents {
		out = append(out, def.info)
	}
	return out
}

// Execute runs one intent. It never panics and always returns a well-formed
// envelope; failures are reported with Success=false and no data.
func (d *Dispatcher) Execute(ctx context.Context, intent string, params Params) (env domain.Envelope) {
	name := strings.ToLower(strings.TrimSpace(intent))
	idx, ok := d.byName[name]
	if !ok {
		metrics.RecordIntent("unsupported", false)
		d.logger.Info("unsupported intent", "intent", intent)
		return domain.Fail(fmt.Sprintf("intent %q is not supported", intent))
	}
	if params == nil {
		params = Params{}
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("intent panicked", "intent", name, "panic", r)
			env = domain.Fail(fmt.Sprintf("%s failed unexpectedly", name))
		}
		metrics.RecordIntent(name, env.Success)
		d.logger.Debug("intent executed",
			"intent", name,
			"success", env.Success,
			"real_data", env.IsRealData,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	out, err := d.intents[idx].run(ctx, params)
	if err != nil {
		return domain.Fail(failureMessage(name, err))
	}
	return domain.Succeed(out.data, out.message, out.real)
}

// Ask extracts an intent from text with src and executes it.
func (d *Dispatcher) Ask(ctx context.Context, src IntentSource, text string) domain.Envelope {
	if src == nil {
		return domain.Fail("no intent source configured")
	}
	in, err := src.Extract(ctx, text)
	if err != nil {
		d.logger.Warn("intent extraction failed", "error", err)
		return domain.Fail(fmt.Sprintf("Could not understand the request: %v", err))
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.Fail("Could not understand the request: no intent")
	}
	return d.Execute(ctx, in.Name, in.Parameters)
}
