// Package aggregate derives timeframe-scoped metrics from irregular activity
// and weekly XP histories. The directory has no per-timeframe endpoints, so
// every window is computed locally.
package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cookedzera/RetroQuery/internal/domain"
)

// Timeframe selects an aggregation window.
type Timeframe string

// Supported timeframes.
const (
	Day   Timeframe = "day"
	Week  Timeframe = "week"
	Month Timeframe = "month"
	Year  Timeframe = "year"
	All   Timeframe = "all"
)

const (
	day            = 24 * time.Hour
	weekWindow     = 7 * day
	monthWindow    = 30 * day
	samplesInMonth = 4
)

// Detail sources.
const (
	SourceUnsupported = "unsupported"
	SourceWeekly      = "weekly"
	SourceActivities  = "activities"
	SourceLifetime    = "lifetime"
)

// DayUnsupportedNote explains why the daily window is always zero.
const DayUnsupportedNote = "daily granularity is not available from the directory; value is always 0"

// ParseTimeframe maps loose user input onto a Timeframe. Empty input means All.
func ParseTimeframe(raw string) (Timeframe, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "day", "daily", "today", "24h":
		return Day, nil
	case "week", "weekly", "7d":
		return Week, nil
	case "month", "monthly", "30d":
		return Month, nil
	case "year", "yearly", "annual", "365d":
		return Year, nil
	case "", "all", "lifetime", "total", "all-time", "alltime":
		return All, nil
	default:
		return "", fmt.Errorf("unsupported timeframe %q", raw)
	}
}

// Series is the raw history available for one user. Weekly samples may
// arrive in any order.
type Series struct {
	Weekly     []domain.WeeklySample
	Activities []domain.Activity
}

// Detail describes how a window value was derived.
type Detail struct {
	Source  string `json:"source"`
	Samples int    `json:"samples"`
	Note    string `json:"note,omitempty"`
}

// Window is the aggregate for one timeframe.
type Window struct {
	Timeframe   Timeframe `json:"timeframe"`
	Value       float64   `json:"timeframeValue"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	Detail      Detail    `json:"detail"`
}

// Aggregate computes the window value for tf. lifetime is the user's total
// for the metric and answers Year and All directly.
func Aggregate(series Series, tf Timeframe, lifetime float64, now time.Time) Window {
	w := Window{Timeframe: tf, PeriodEnd: now}
	if len(series.Weekly) > 1 {
		series.Weekly = append([]domain.WeeklySample(nil), series.Weekly...)
		domain.SortWeekly(series.Weekly)
	}

	switch tf {
	case Day:
		w.PeriodStart = now.Add(-day)
		w.Detail = Detail{Source: SourceUnsupported, Note: DayUnsupportedNote}

	case Week:
		w.PeriodStart = now.Add(-weekWindow)
		if n := len(series.Weekly); n > 0 {
			latest := series.Weekly[n-1]
			w.Value = float64(latest.XP)
			if !latest.WeekStart.IsZero() {
				w.PeriodStart = latest.WeekStart
			}
			w.Detail = Detail{Source: SourceWeekly, Samples: 1}
			return w
		}
		w.Value, w.Detail.Samples = sumActivities(series.Activities, w.PeriodStart, now)
		w.Detail.Source = SourceActivities

	case Month:
		w.PeriodStart = now.Add(-monthWindow)
		if n := len(series.Weekly); n > 0 {
			recent := series.Weekly[max(0, n-samplesInMonth):]
			var total int64
			for _, s := range recent {
				total += s.XP
			}
			w.Value = float64(total)
			if !recent[0].WeekStart.IsZero() {
				w.PeriodStart = recent[0].WeekStart
			}
			w.Detail = Detail{Source: SourceWeekly, Samples: len(recent)}
			return w
		}
		w.Value, w.Detail.Samples = sumActivities(series.Activities, w.PeriodStart, now)
		w.Detail.Source = SourceActivities

	default:
		w.Value = lifetime
		w.Detail = Detail{Source: SourceLifetime}
	}

	return w
}

func sumActivities(acts []domain.Activity, from, to time.Time) (float64, int) {
	var (
		total float64
		count int
	)
	for _, a := range acts {
		if a.Timestamp.Before(from) || a.Timestamp.After(to) {
			continue
		}
		total += a.Score
		count++
	}
	return total, count
}

// Bucket is one point of a trend series.
type Bucket struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Score float64 `json:"score"`
}

// BucketKey derives the grouping key for t. Keys use the UTC calendar date:
// day for Week, the Monday week start for Month, year-month for Year and All.
func BucketKey(t time.Time, tf Timeframe) string {
	t = t.UTC()
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch tf {
	case Day, Week:
		return date.Format(time.DateOnly)
	case Month:
		offset := (int(date.Weekday()) + 6) % 7
		return date.AddDate(0, 0, -offset).Format(time.DateOnly)
	default:
		return date.Format("2006-01")
	}
}

// Group buckets activities for trend display, sorted by key ascending.
func Group(acts []domain.Activity, tf Timeframe) []Bucket {
	index := make(map[string]*Bucket)
	for _, a := range acts {
		if a.Timestamp.IsZero() {
			continue
		}
		key := BucketKey(a.Timestamp, tf)
		b, ok := index[key]
		if !ok {
			b = &Bucket{Key: key}
			index[key] = b
		}
		b.Count++
		b.Score += a.Score
	}

	out := make([]Bucket, 0, len(index))
	for _, b := range index {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Within filters acts to the timeframe ending at now. All keeps everything.
func Within(acts []domain.Activity, tf Timeframe, now time.Time) []domain.Activity {
	var from time.Time
	switch tf {
	case Day:
		from = now.Add(-day)
	case Week:
		from = now.Add(-weekWindow)
	case Month:
		from = now.Add(-monthWindow)
	case Year:
		from = now.AddDate(-1, 0, 0)
	default:
		return acts
	}
	out := make([]domain.Activity, 0, len(acts))
	for _, a := range acts {
		if a.Timestamp.Before(from) || a.Timestamp.After(now) {
			continue
		}
		out = append(out, a)
	}
	return out
}
