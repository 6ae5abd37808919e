package domain

import (
	"strings"
	"time"
)

// BasicStats holds count/avg/max/min over a channel's stored videos.
type BasicStats struct {
	Count          int    `json:"count"`
	AvgViews       int64  `json:"avg_views"`
	MaxViews       int64  `json:"max_views"`
	MinViews       int64  `json:"min_views"`
	AvgLikes       int64  `json:"avg_likes"`
	MaxLikes       int64  `json:"max_likes"`
	MinLikes       int64  `json:"min_likes"`
	AvgDurationSec int64  `json:"avg_duration_sec"`
	MaxDurationSec int64  `json:"max_duration_sec"`
	MinDurationSec int64  `json:"min_duration_sec"`
	AvgDurationStr string `json:"avg_duration_str"`
	MaxDurationStr string `json:"max_duration_str"`
	MinDurationStr string `json:"min_duration_str"`
}

// WindowStats holds the 30-day window aggregates and the trend against the previous window.
type WindowStats struct {
	VideosLast30dCount  int64   `json:"videos_last_30d_count"`
	ViewsSumLast30d     int64   `json:"views_sum_last_30d"`
	AvgViewsPerVideo30d int64   `json:"avg_views_per_video_30d"`
	AvgDurationSec30d   int64   `json:"avg_duration_sec_30d"`
	AvgEngagementRate   float64 `json:"avg_engagement_rate"`
	ViewsSumPrev30d     int64   `json:"views_sum_prev_30d"`
	// nil: no views in either window; +Inf: growth from zero
	ViewTrendRatio *float64 `json:"view_trend_ratio"`
}

// ChannelResult accumulates everything computed for one channel during a run.
type ChannelResult struct {
	ChannelID           string
	ChannelName         string
	DateAdded           *time.Time
	SubscriberCount     *int64
	ObservedVideosCount int64

	// nil when the channel had no analyzable videos
	Stats *BasicStats
	// nil when database analysis did not run
	Window *WindowStats

	// keyed by metric name; nil value means the metric was invalid for this channel
	Ranks map[string]*int
}

// NewChannelResult creates an empty result for a channel.
func NewChannelResult(channelID string) ChannelResult {
	return ChannelResult{
		ChannelID: channelID,
		Ranks:     make(map[string]*int),
	}
}

// Rank returns the rank for a metric and whether the channel was ranked on it.
func (r *ChannelResult) Rank(metric string) (int, bool) {
	if r == nil || r.Ranks == nil {
		return 0, false
	}
	rank, ok := r.Ranks[metric]
	if !ok || rank == nil {
		return 0, false
	}
	return *rank, true
}

// SetRank records a rank; nil marks the metric as unranked.
func (r *ChannelResult) SetRank(metric string, rank *int) {
	if r.Ranks == nil {
		r.Ranks = make(map[string]*int)
	}
	if rank == nil {
		r.Ranks[metric] = nil
		return
	}
	v := *rank
	r.Ranks[metric] = &v
}

// Clone returns a deep copy that shares no pointers with r.
func (r ChannelResult) Clone() ChannelResult {
	out := r
	if r.DateAdded != nil {
		t := *r.DateAdded
		out.DateAdded = &t
	}
	if r.SubscriberCount != nil {
		n := *r.SubscriberCount
		out.SubscriberCount = &n
	}
	if r.Stats != nil {
		s := *r.Stats
		out.Stats = &s
	}
	if r.Window != nil {
		w := *r.Window
		if r.Window.ViewTrendRatio != nil {
			ratio := *r.Window.ViewTrendRatio
			w.ViewTrendRatio = &ratio
		}
		out.Window = &w
	}
	out.Ranks = make(map[string]*int, len(r.Ranks))
	for metric, rank := range r.Ranks {
		if rank == nil {
			out.Ranks[metric] = nil
			continue
		}
		v := *rank
		out.Ranks[metric] = &v
	}
	return out
}

// Field returns the raw value of a named field, or nil when it is absent.
// Rank fields are addressed as rank_<metric>.
func (r *ChannelResult) Field(name string) any {
	if r == nil {
		return nil
	}
	if strings.HasPrefix(name, RankPrefix) {
		if rank, ok := r.Rank(strings.TrimPrefix(name, RankPrefix)); ok {
			return rank
		}
		return nil
	}

	switch name {
	case MetricChannelID:
		return r.ChannelID
	case MetricChannelName:
		return r.ChannelName
	case MetricDateAdded:
		if r.DateAdded == nil {
			return nil
		}
		return *r.DateAdded
	case MetricSubscriberCount:
		if r.SubscriberCount == nil {
			return nil
		}
		return *r.SubscriberCount
	case MetricObservedVideosCount:
		return r.ObservedVideosCount
	}

	if value, ok := r.statsField(name); ok {
		return value
	}
	return r.windowField(name)
}

func (r *ChannelResult) statsField(name string) (any, bool) {
	s := r.Stats
	pick := func(get func(*BasicStats) any) (any, bool) {
		if s == nil {
			return nil, true
		}
		return get(s), true
	}

	switch name {
	case MetricCount:
		return pick(func(s *BasicStats) any { return s.Count })
	case MetricAvgViews:
		return pick(func(s *BasicStats) any { return s.AvgViews })
	case MetricMaxViews:
		return pick(func(s *BasicStats) any { return s.MaxViews })
	case MetricMinViews:
		return pick(func(s *BasicStats) any { return s.MinViews })
	case MetricAvgLikes:
		return pick(func(s *BasicStats) any { return s.AvgLikes })
	case MetricMaxLikes:
		return pick(func(s *BasicStats) any { return s.MaxLikes })
	case MetricMinLikes:
		return pick(func(s *BasicStats) any { return s.MinLikes })
	case MetricAvgDurationSec:
		return pick(func(s *BasicStats) any { return s.AvgDurationSec })
	case MetricMaxDurationSec:
		return pick(func(s *BasicStats) any { return s.MaxDurationSec })
	case MetricMinDurationSec:
		return pick(func(s *BasicStats) any { return s.MinDurationSec })
	case MetricAvgDurationStr:
		return pick(func(s *BasicStats) any { return s.AvgDurationStr })
	case MetricMaxDurationStr:
		return pick(func(s *BasicStats) any { return s.MaxDurationStr })
	case MetricMinDurationStr:
		return pick(func(s *BasicStats) any { return s.MinDurationStr })
	}
	return nil, false
}

// windowField mirrors the defaults a result carries before window analysis:
// counters and sums start at zero, averages and the trend ratio start absent.
func (r *ChannelResult) windowField(name string) any {
	w := r.Window
	switch name {
	case MetricVideosLast30dCount:
		if w == nil {
			return int64(0)
		}
		return w.VideosLast30dCount
	case MetricViewsSumLast30d:
		if w == nil {
			return int64(0)
		}
		return w.ViewsSumLast30d
	case MetricAvgEngagementRate:
		if w == nil {
			return 0.0
		}
		return w.AvgEngagementRate
	case MetricAvgViewsPerVideo30d:
		if w == nil {
			return nil
		}
		return w.AvgViewsPerVideo30d
	case MetricAvgDurationSec30d:
		if w == nil {
			return nil
		}
		return w.AvgDurationSec30d
	case MetricViewTrendRatio:
		if w == nil || w.ViewTrendRatio == nil {
			return nil
		}
		return *w.ViewTrendRatio
	}
	return nil
}

// AsMap flattens the result into a name -> value mapping including rank_<metric> keys.
func (r *ChannelResult) AsMap() map[string]any {
	out := make(map[string]any, len(resultFields)+len(r.Ranks))
	for _, name := range resultFields {
		if r.Stats == nil && name == MetricCount {
			continue
		}
		value := r.Field(name)
		if t, ok := value.(time.Time); ok {
			value = t.Format("2006-01-02")
		}
		out[name] = value
	}
	for metric, rank := range r.Ranks {
		if rank == nil {
			out[RankField(metric)] = nil
			continue
		}
		out[RankField(metric)] = *rank
	}
	return out
}
