// Package pipeline runs the fetch and analysis stages of a run over a channel list.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/youtube-channel-analyzer/internal/domain"
	"github.com/kapu/youtube-channel-analyzer/internal/service/youtube"
)

// ChannelSource is the remote side of a fetch.
type ChannelSource interface {
	GetChannelDetails(ctx context.Context, channelID string) (*domain.ChannelDetails, error)
	GetPlaylistVideoIDs(ctx context.Context, playlistID string, maxResults int) ([]string, error)
	GetVideoDetails(ctx context.Context, videoIDs []string) ([]domain.VideoDetails, error)
}

// ChannelStore persists fetched channels and videos.
type ChannelStore interface {
	SaveChannel(ctx context.Context, details *domain.ChannelDetails) error
	SaveVideos(ctx context.Context, channelID string, videos []domain.VideoDetails) error
	GetChannelName(ctx context.Context, channelID string) (string, error)
	GetChannelSubscribers(ctx context.Context, channelID string) (*int64, error)
}

// FetchOutcome is what happened to one channel during a fetch.
type FetchOutcome struct {
	ChannelID   string
	ChannelName string
	VideosSaved int
	Skipped     bool
	Err         error
}

// FetchSummary aggregates per-channel outcomes in input order.
type FetchSummary struct {
	Outcomes      []FetchOutcome
	QuotaExceeded bool
}

// Failed counts channels that ended with an error.
func (s FetchSummary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// VideosSaved sums the videos written across all channels.
func (s FetchSummary) VideosSaved() int {
	n := 0
	for _, o := range s.Outcomes {
		n += o.VideosSaved
	}
	return n
}

// Fetcher pulls channel and video data from the API into storage.
type Fetcher struct {
	source      ChannelSource
	store       ChannelStore
	maxVideos   int
	concurrency int
	logger      *zap.Logger
}

// NewFetcher creates a fetcher. maxVideos <= 0 fetches every upload.
func NewFetcher(source ChannelSource, store ChannelStore, maxVideos, concurrency int, logger *zap.Logger) *Fetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		source:      source,
		store:       store,
		maxVideos:   maxVideos,
		concurrency: concurrency,
		logger:      logger,
	}
}

// FetchAll fetches every channel with bounded concurrency. Once the API quota
// runs out the remaining channels are skipped.
func (f *Fetcher) FetchAll(ctx context.Context, channelIDs []string) FetchSummary {
	return f.forEach(ctx, channelIDs, f.FetchChannel)
}

// FillMissingMetadata refreshes only channels whose stored name or subscriber
// count is missing, without touching their videos.
func (f *Fetcher) FillMissingMetadata(ctx context.Context, channelIDs []string) FetchSummary {
	return f.forEach(ctx, channelIDs, f.fillChannel)
}

func (f *Fetcher) forEach(ctx context.Context, channelIDs []string, fn func(context.Context, string) FetchOutcome) FetchSummary {
	summary := FetchSummary{Outcomes: make([]FetchOutcome, len(channelIDs))}
	if len(channelIDs) == 0 {
		return summary
	}

	var (
		mu        sync.Mutex
		exhausted bool
	)
	p := pool.New().WithMaxGoroutines(f.concurrency)

	for idx, channelID := range channelIDs {
		idx, channelID := idx, channelID
		p.Go(func() {
			mu.Lock()
			stop := exhausted
			mu.Unlock()

			var outcome FetchOutcome
			switch {
			case stop:
				outcome = FetchOutcome{ChannelID: channelID, Skipped: true}
			case ctx.Err() != nil:
				outcome = FetchOutcome{ChannelID: channelID, Skipped: true, Err: ctx.Err()}
			default:
				outcome = fn(ctx, channelID)
			}

			mu.Lock()
			summary.Outcomes[idx] = outcome
			if youtube.IsQuotaExceeded(outcome.Err) {
				exhausted = true
			}
			mu.Unlock()
		})
	}

	p.Wait()
	summary.QuotaExceeded = exhausted

	if exhausted {
		f.logger.Warn("YouTube API quota exhausted, remaining channels skipped",
			zap.Int("channels", len(channelIDs)))
	}
	return summary
}

// FetchChannel runs details -> save -> playlist -> videos -> save for one channel.
func (f *Fetcher) FetchChannel(ctx context.Context, channelID string) FetchOutcome {
	outcome := FetchOutcome{ChannelID: channelID}

	details, err := f.source.GetChannelDetails(ctx, channelID)
	if err != nil {
		outcome.Err = err
		f.logger.Error("Failed to fetch channel details",
			zap.String("channel", channelID), zap.Error(err))
		return outcome
	}
	outcome.ChannelName = details.GetDisplayName()

	if err := f.store.SaveChannel(ctx, details); err != nil {
		outcome.Err = err
		f.logger.Error("Failed to save channel",
			zap.String("channel", channelID), zap.Error(err))
		return outcome
	}

	if !details.HasUploadsPlaylist() {
		f.logger.Warn("Channel has no uploads playlist", zap.String("channel", channelID))
		return outcome
	}

	videoIDs, err := f.source.GetPlaylistVideoIDs(ctx, details.UploadsPlaylistID, f.maxVideos)
	if err != nil {
		// partial pages are still worth storing unless the quota is gone
		f.logger.Warn("Playlist fetch incomplete",
			zap.String("channel", channelID),
			zap.Int("videoIds", len(videoIDs)),
			zap.Error(err))
		outcome.Err = err
		if youtube.IsQuotaExceeded(err) || len(videoIDs) == 0 {
			return outcome
		}
	}
	if len(videoIDs) == 0 {
		f.logger.Info("No videos found", zap.String("channel", channelID))
		return outcome
	}

	videos, err := f.source.GetVideoDetails(ctx, videoIDs)
	if err != nil {
		outcome.Err = errors.Join(outcome.Err, err)
		f.logger.Warn("Video details incomplete",
			zap.String("channel", channelID),
			zap.Int("videos", len(videos)),
			zap.Error(err))
	}
	if len(videos) == 0 {
		return outcome
	}

	if err := f.store.SaveVideos(ctx, channelID, videos); err != nil {
		outcome.Err = errors.Join(outcome.Err, err)
		f.logger.Error("Failed to save videos",
			zap.String("channel", channelID), zap.Error(err))
		return outcome
	}
	outcome.VideosSaved = len(videos)

	f.logger.Info("Channel fetched",
		zap.String("channel", channelID),
		zap.String("name", outcome.ChannelName),
		zap.Int("videos", outcome.VideosSaved))
	return outcome
}

func (f *Fetcher) fillChannel(ctx context.Context, channelID string) FetchOutcome {
	outcome := FetchOutcome{ChannelID: channelID}

	name, err := f.store.GetChannelName(ctx, channelID)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	subscribers, err := f.store.GetChannelSubscribers(ctx, channelID)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if name != "" && subscribers != nil {
		outcome.ChannelName = name
		outcome.Skipped = true
		return outcome
	}

	details, err := f.source.GetChannelDetails(ctx, channelID)
	if err != nil {
		outcome.Err = fmt.Errorf("fill metadata for %s: %w", channelID, err)
		f.logger.Warn("Failed to fill channel metadata",
			zap.String("channel", channelID), zap.Error(err))
		return outcome
	}
	outcome.ChannelName = details.GetDisplayName()

	if err := f.store.SaveChannel(ctx, details); err != nil {
		outcome.Err = err
		return outcome
	}
	f.logger.Debug("Channel metadata filled", zap.String("channel", channelID))
	return outcome
}
