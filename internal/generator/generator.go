// Package generator synthesises illustrative reputation profiles. The output
// is fully determined by Config, which is what lets the mock tier answer the
// same identifiers with the same values on every run.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/cookedzera/RetroQuery/internal/domain"
	"github.com/cookedzera/RetroQuery/internal/store"
)

// Generator produces synthetic profiles with cross-linked activities.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumProfiles <= 0 {
		cfg.NumProfiles = def.NumProfiles
	}
	if cfg.MaxActivities <= 0 {
		cfg.MaxActivities = def.MaxActivities
	}
	if cfg.Weeks <= 0 {
		cfg.Weeks = def.Weeks
	}
	if cfg.VouchChance <= 0 {
		cfg.VouchChance = def.VouchChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	if cfg.Anchor.IsZero() {
		cfg.Anchor = time.Now().UTC().Truncate(24 * time.Hour)
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
	}
}

// Generate synthesises profiles. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) ([]store.Profile, error) {
	profiles := make([]store.Profile, g.cfg.NumProfiles)
	taken := make(map[string]bool, g.cfg.NumProfiles)

	for i := range profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		profiles[i] = g.newProfile(i, g.uniqueHandle(taken))
	}

	var nextID int64 = 100000
	for i := range profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(profiles) < 2 {
			break
		}
		count := 1 + g.rand.Intn(g.cfg.MaxActivities)
		for j := 0; j < count; j++ {
			target := g.rand.Intn(len(profiles) - 1)
			if target >= i {
				target++
			}
			nextID++
			act := g.newActivity(nextID, profiles[i], profiles[target])
			profiles[i].Activities = append(profiles[i].Activities, act)
			profiles[target].Activities = append(profiles[target].Activities, act)
			switch act.Type {
			case domain.ActivityReview:
				profiles[target].User.ReviewCount++
			case domain.ActivityVouch:
				profiles[target].User.VouchCount++
			}
		}
	}

	for i := range profiles {
		store.SortNewestFirst(profiles[i].Activities)
	}
	return profiles, nil
}

func (g *Generator) newProfile(idx int, handle string) store.Profile {
	profileID := int64(5000 + idx)
	address := g.randomAddress()
	keys := []string{
		"profileId:" + strconv.FormatInt(profileID, 10),
		"address:" + address,
		"service:x.com:username:" + handle,
	}
	if g.rand.Float64() < 0.5 {
		keys = append(keys, "service:farcaster:"+strconv.Itoa(10000+g.rand.Intn(890000)))
	}
	if g.rand.Float64() < 0.3 {
		keys = append(keys, "service:discord:"+g.randomSnowflake())
	}
	if g.rand.Float64() < 0.3 {
		keys = append(keys, "service:telegram:"+strconv.Itoa(100000000+g.rand.Intn(900000000)))
	}

	weekly := make([]domain.WeeklySample, g.cfg.Weeks)
	firstWeek := startOfWeek(g.cfg.Anchor).AddDate(0, 0, -7*(g.cfg.Weeks-1))
	var xp int64
	for w := range weekly {
		sample := int64(g.rand.Intn(600))
		weekly[w] = domain.WeeklySample{
			Week:      w + 1,
			WeekStart: firstWeek.AddDate(0, 0, 7*w),
			XP:        sample,
		}
		xp += sample
	}

	status := domain.StatusActive
	if g.rand.Float64() < 0.1 {
		status = domain.StatusInactive
	}

	return store.Profile{
		User: domain.UserRecord{
			ID:            int64(idx + 1),
			ProfileID:     domain.Int64(profileID),
			CanonicalKeys: keys,
			DisplayName:   g.randomDisplayName(),
			Username:      handle,
			Score:         int64(800 + g.rand.Intn(1600)),
			XPTotal:       xp + int64(g.rand.Intn(20000)),
			ReviewCount:   int64(g.rand.Intn(5)),
			VouchCount:    int64(g.rand.Intn(2)),
			Status:        status,
		},
		WeeklyXP: weekly,
	}
}

func (g *Generator) newActivity(id int64, author, subject store.Profile) domain.Activity {
	at := g.cfg.Anchor.Add(-time.Duration(g.rand.Intn(60*24)) * time.Hour)
	act := domain.Activity{
		ID:        strconv.FormatInt(id, 10),
		Author:    actorOf(author),
		Subject:   actorOf(subject),
		Timestamp: at,
		Votes: domain.VoteSummary{
			Upvotes:   int64(g.rand.Intn(20)),
			Downvotes: int64(g.rand.Intn(4)),
		},
	}

	if g.rand.Float64() < g.cfg.VouchChance {
		act.Type = domain.ActivityVouch
		act.EthAmount = fmt.Sprintf("%.4f", 0.01+g.rand.Float64()*2)
		return act
	}

	act.Type = domain.ActivityReview
	sentiments := []float64{1, 1, 1, 0, -1}
	act.Score = sentiments[g.rand.Intn(len(sentiments))]
	act.Comment = g.nameFragments.comments[g.rand.Intn(len(g.nameFragments.comments))]
	return act
}

func actorOf(p store.Profile) domain.ActorRef {
	return domain.ActorRef{
		Userkey:  p.User.PrimaryKey(),
		Name:     p.User.DisplayName,
		Username: p.User.Username,
		Score:    p.User.Score,
	}
}

func (g *Generator) uniqueHandle(taken map[string]bool) string {
	for {
		handle := g.nameFragments.prefixes[g.rand.Intn(len(g.nameFragments.prefixes))] +
			g.nameFragments.suffixes[g.rand.Intn(len(g.nameFragments.suffixes))]
		if taken[handle] {
			handle = fmt.Sprintf("%s%d", handle, g.rand.Intn(100))
		}
		if !taken[handle] {
			taken[handle] = true
			return handle
		}
	}
}

func (g *Generator) randomDisplayName() string {
	return fmt.Sprintf("%s %s", g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))],
		g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))])
}

func (g *Generator) randomAddress() string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 40)
	for i := range buf {
		buf[i] = hexDigits[g.rand.Intn(len(hexDigits))]
	}
	return "0x" + string(buf)
}

func (g *Generator) randomSnowflake() string {
	return strconv.FormatInt(100000000000000000+g.rand.Int63n(900000000000000000), 10)
}

func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return date.AddDate(0, 0, -((int(date.Weekday()) + 6) % 7))
}

type nameFragments struct {
	prefixes []string
	suffixes []string
	first    []string
	last     []string
	comments []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		prefixes: []string{"based", "degen", "onchain", "gm", "alpha", "rekt", "mint", "stake", "zk", "ser"},
		suffixes: []string{"whale", "ape", "builder", "anon", "maxi", "farmer", "dev", "sage", "fren", "validator"},
		first:    []string{"Ada", "Satoshi", "Hal", "Nick", "Vera", "Rune", "Mina", "Kai", "Zoe", "Ivo", "Lena", "Teo"},
		last:     []string{"Block", "Ledger", "Hash", "Merkle", "Nonce", "Shard", "Oracle", "Gwei", "Epoch", "Rollup"},
		comments: []string{
			"Trustworthy, paid back on time.",
			"Great collaborator on a grants round.",
			"Shipped what was promised.",
			"Slow to respond but honest.",
			"Do not lend to this account.",
			"Helpful in the community calls.",
		},
	}
}
