package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/cookedzera/RetroQuery/internal/domain"
)

// wireUser is the user shape shared by every users/by/* endpoint, the
// leaderboard and search. Anything the directory may omit is a pointer.
type wireUser struct {
	ID          *int64         `json:"id"`
	ProfileID   *int64         `json:"profileId"`
	DisplayName *string        `json:"displayName"`
	Username    *string        `json:"username"`
	Score       *int64         `json:"score"`
	Status      *string        `json:"status"`
	Userkeys    []string       `json:"userkeys"`
	XPTotal     *int64         `json:"xpTotal"`
	Rank        *int64         `json:"rank"`
	Percentile  *float64       `json:"percentile"`
	Stats       *wireUserStats `json:"stats"`
}

type wireUserStats struct {
	Review *struct {
		Received *wireReviewCounts `json:"received"`
	} `json:"review"`
	Vouch *struct {
		Given    *wireVouchCount `json:"given"`
		Received *wireVouchCount `json:"received"`
	} `json:"vouch"`
}

type wireReviewCounts struct {
	Positive int64 `json:"positive"`
	Neutral  int64 `json:"neutral"`
	Negative int64 `json:"negative"`
}

type wireVouchCount struct {
	Count          int64  `json:"count"`
	AmountWeiTotal string `json:"amountWeiTotal"`
}

type wirePage[T any] struct {
	Values []T   `json:"values"`
	Total  int64 `json:"total"`
}

type wireENS struct {
	Address *string `json:"address"`
}

type wireActor struct {
	Userkey  string  `json:"userkey"`
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Score    *int64  `json:"score"`
}

type wireActivityData struct {
	ID        flexString      `json:"id"`
	Score     json.RawMessage `json:"score"`
	Comment   *string         `json:"comment"`
	CreatedAt *int64          `json:"createdAt"`
	Deposited *string         `json:"deposited"`
}

type wireVotes struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

type wireActivity struct {
	Type      string           `json:"type"`
	Timestamp *int64           `json:"timestamp"`
	Data      wireActivityData `json:"data"`
	Author    *wireActor       `json:"author"`
	Subject   *wireActor       `json:"subject"`
	Votes     *wireVotes       `json:"votes"`
}

type wireWeek struct {
	Week      int     `json:"week"`
	WeekStart *string `json:"weekStart"`
	XP        int64   `json:"xp"`
}

// flexString accepts either a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

func (w wireUser) toDomain() domain.UserRecord {
	rec := domain.UserRecord{
		CanonicalKeys: append([]string(nil), w.Userkeys...),
		ProfileID:     w.ProfileID,
		Rank:          w.Rank,
		Percentile:    w.Percentile,
		Status:        domain.StatusInactive,
	}
	if w.ID != nil {
		rec.ID = *w.ID
	}
	if w.DisplayName != nil {
		rec.DisplayName = *w.DisplayName
	}
	if w.Username != nil {
		rec.Username = *w.Username
	}
	if w.Score != nil {
		rec.Score = *w.Score
	}
	if w.XPTotal != nil {
		rec.XPTotal = *w.XPTotal
	}
	if w.Status != nil {
		rec.Status = domain.ParseStatus(*w.Status)
	}
	if w.Stats != nil {
		if w.Stats.Review != nil && w.Stats.Review.Received != nil {
			r := w.Stats.Review.Received
			rec.ReviewCount = r.Positive + r.Neutral + r.Negative
		}
		if w.Stats.Vouch != nil && w.Stats.Vouch.Received != nil {
			rec.VouchCount = w.Stats.Vouch.Received.Count
		}
	}
	return rec
}

// valid rejects records that carry no identity at all.
func (w wireUser) valid() bool {
	return len(w.Userkeys) > 0 || w.ID != nil || w.ProfileID != nil
}

func (w wireActor) toDomain() domain.ActorRef {
	ref := domain.ActorRef{Userkey: w.Userkey}
	if w.Name != nil {
		ref.Name = *w.Name
	}
	if w.Username != nil {
		ref.Username = *w.Username
	}
	if w.Score != nil {
		ref.Score = *w.Score
	}
	return ref
}

func (w wireActivity) toDomain() (domain.Activity, error) {
	kind, err := domain.ParseActivityType(w.Type)
	if err != nil {
		return domain.Activity{}, err
	}
	score, err := decodeScore(w.Data.Score)
	if err != nil {
		return domain.Activity{}, err
	}

	act := domain.Activity{
		ID:    string(w.Data.ID),
		Type:  kind,
		Score: score,
	}
	switch {
	case w.Timestamp != nil:
		act.Timestamp = time.Unix(*w.Timestamp, 0).UTC()
	case w.Data.CreatedAt != nil:
		act.Timestamp = time.Unix(*w.Data.CreatedAt, 0).UTC()
	}
	if w.Author != nil {
		act.Author = w.Author.toDomain()
	}
	if w.Subject != nil {
		act.Subject = w.Subject.toDomain()
	}
	if w.Data.Comment != nil {
		act.Comment = *w.Data.Comment
	}
	if w.Data.Deposited != nil {
		act.EthAmount = weiToEth(*w.Data.Deposited)
	}
	if w.Votes != nil {
		act.Votes = domain.VoteSummary{Upvotes: w.Votes.Upvotes, Downvotes: w.Votes.Downvotes}
	}
	return act, nil
}

func (w wireWeek) toDomain() domain.WeeklySample {
	sample := domain.WeeklySample{Week: w.Week, XP: w.XP}
	if w.WeekStart != nil {
		sample.WeekStart = parseDate(*w.WeekStart)
	}
	return sample
}

// decodeScore maps review sentiment strings to +1/0/-1 and passes numbers through.
func decodeScore(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		switch strings.ToLower(s) {
		case "positive":
			return 1, nil
		case "neutral":
			return 0, nil
		case "negative":
			return -1, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("unrecognised score %q", s)
		}
		return v, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("unrecognised score: %w", err)
	}
	return v, nil
}

var weiPerEth = new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

func weiToEth(wei string) string {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(wei))
	if !ok {
		return ""
	}
	return r.Quo(r, weiPerEth).FloatString(4)
}

func parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
