package youtube

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/kapu/youtube-channel-analyzer/internal/constants"
	"github.com/kapu/youtube-channel-analyzer/internal/domain"
	"github.com/kapu/youtube-channel-analyzer/internal/util"
	"github.com/kapu/youtube-channel-analyzer/pkg/errors"
)

// ChannelCache stores channel details between runs. Misses and cache
// failures both report false.
type ChannelCache interface {
	GetChannelDetails(ctx context.Context, channelID string) (*domain.ChannelDetails, bool)
	SetChannelDetails(ctx context.Context, details *domain.ChannelDetails)
}

// ClientConfig selects how the client authenticates. HTTPClient wins over APIKey.
type ClientConfig struct {
	APIKey     string
	HTTPClient *http.Client
	Cache      ChannelCache
	// extra options, e.g. a test endpoint
	Options []option.ClientOption
}

// Client wraps the YouTube Data API v3 calls the analyzer needs.
type Client struct {
	service *youtube.Service
	cache   ChannelCache
	breaker *util.CircuitBreaker
	logger  *zap.Logger
	now     func() time.Time

	quotaMu             sync.Mutex
	quotaUsed           int
	quotaReset          time.Time
	quotaExhaustedUntil time.Time
}

func NewClient(ctx context.Context, cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := make([]option.ClientOption, 0, len(cfg.Options)+1)
	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, errors.NewValidationError("YouTube API key or OAuth client is required", "YOUTUBE_API_KEY", "")
	}
	opts = append(opts, cfg.Options...)

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	c := &Client{
		service: service,
		cache:   cfg.Cache,
		breaker: util.NewCircuitBreaker(
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		logger: logger,
		now:    time.Now,
	}
	c.quotaReset = util.NextQuotaReset(c.now())

	logger.Info("YouTube client initialized",
		zap.Bool("oauth", cfg.HTTPClient != nil),
		zap.Bool("cache", cfg.Cache != nil),
		zap.Time("quotaReset", c.quotaReset))

	return c, nil
}

func (c *Client) checkQuota(cost int) error {
	c.quotaMu.Lock()
	defer c.quotaMu.Unlock()

	now := c.now()
	if !now.Before(c.quotaReset) {
		c.quotaUsed = 0
		c.quotaReset = util.NextQuotaReset(now)
		if !c.quotaExhaustedUntil.IsZero() {
			c.quotaExhaustedUntil = time.Time{}
			c.breaker.Reset()
		}
		c.logger.Info("YouTube API quota auto-reset",
			zap.Time("nextReset", c.quotaReset))
	}

	limit := constants.YouTubeQuota.DailyLimit
	if now.Before(c.quotaExhaustedUntil) || c.quotaUsed+cost > limit-constants.YouTubeQuota.SafetyMargin {
		return NewQuotaExceededError(c.quotaUsed, limit, cost, c.quotaReset, nil)
	}

	if !c.breaker.CanExecute() {
		return errors.NewAPIError("YouTube API circuit open", http.StatusServiceUnavailable, map[string]any{
			"failures": c.breaker.GetStatus().FailureCount,
		})
	}
	return nil
}

func (c *Client) consumeQuota(cost int) {
	c.quotaMu.Lock()
	defer c.quotaMu.Unlock()

	c.quotaUsed += cost
	limit := constants.YouTubeQuota.DailyLimit
	remaining := limit - c.quotaUsed

	c.logger.Debug("YouTube API quota consumed",
		zap.Int("cost", cost),
		zap.Int("used", c.quotaUsed),
		zap.Int("remaining", remaining),
		zap.Float64("usagePercent", float64(c.quotaUsed)/float64(limit)*100))

	if remaining < constants.YouTubeQuota.SafetyMargin {
		c.logger.Warn("YouTube API quota running low",
			zap.Int("remaining", remaining),
			zap.Time("resetTime", c.quotaReset))
	}
}

// handleError classifies a failed call. A quota 403 keeps every later call
// failing fast until the Pacific-midnight reset.
func (c *Client) handleError(operation string, cost int, err error) error {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) && isQuotaResponse(apiErr) {
		c.quotaMu.Lock()
		reset := util.NextQuotaReset(c.now())
		c.quotaExhaustedUntil = reset
		c.quotaReset = reset
		used := c.quotaUsed
		c.quotaMu.Unlock()

		c.breaker.OpenUntil(reset)
		c.logger.Error("YouTube API quota exceeded",
			zap.String("operation", operation),
			zap.Time("resetTime", reset))
		return NewQuotaExceededError(used, constants.YouTubeQuota.DailyLimit, cost, reset, err)
	}

	// only transport and server failures count toward the breaker
	serverSide := apiErr == nil || apiErr.Code >= http.StatusInternalServerError
	if serverSide && !stderrors.Is(err, context.Canceled) {
		c.breaker.RecordFailure(0)
	}
	return newAPIError(operation, err)
}

// QuotaStatus returns the locally accounted quota usage.
func (c *Client) QuotaStatus() (used int, remaining int, resetTime time.Time) {
	c.quotaMu.Lock()
	defer c.quotaMu.Unlock()

	limit := constants.YouTubeQuota.DailyLimit
	if !c.now().Before(c.quotaReset) {
		return 0, limit, util.NextQuotaReset(c.now())
	}
	return c.quotaUsed, limit - c.quotaUsed, c.quotaReset
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, constants.YouTubeAPI.RequestTimeout)
}

// GetChannelDetails fetches title, uploads playlist and subscriber count.
// A hidden subscriber count comes back as nil.
func (c *Client) GetChannelDetails(ctx context.Context, channelID string) (*domain.ChannelDetails, error) {
	if c.cache != nil {
		if cached, ok := c.cache.GetChannelDetails(ctx, channelID); ok {
			c.logger.Debug("Channel details cache hit", zap.String("channel", channelID))
			return cached, nil
		}
	}

	cost := constants.YouTubeQuota.ChannelsListCost
	if err := c.checkQuota(cost); err != nil {
		return nil, err
	}

	reqCtx, cancel := c.requestContext(ctx)
	defer cancel()

	response, err := c.service.Channels.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(channelID).
		Context(reqCtx).
		Do()
	c.consumeQuota(cost)
	if err != nil {
		return nil, c.handleError("channels.list", cost, err)
	}
	c.breaker.RecordSuccess()

	if len(response.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	item := response.Items[0]
	details := &domain.ChannelDetails{ID: channelID}
	if item.Snippet != nil {
		details.Title = item.Snippet.Title
	}
	if item.ContentDetails != nil && item.ContentDetails.RelatedPlaylists != nil {
		details.UploadsPlaylistID = item.ContentDetails.RelatedPlaylists.Uploads
	}
	if stats := item.Statistics; stats != nil && !stats.HiddenSubscriberCount {
		details.SubscriberCount = domain.ParseSubscriberCount(stats.SubscriberCount)
	}

	c.logger.Info("Found channel",
		zap.String("channel", channelID),
		zap.String("title", details.Title),
		zap.String("uploads", details.UploadsPlaylistID),
		zap.Bool("subscribersHidden", details.SubscriberCount == nil))

	if c.cache != nil {
		c.cache.SetChannelDetails(ctx, details)
	}
	return details, nil
}

// GetPlaylistVideoIDs pages through a playlist and returns up to maxResults
// video IDs; maxResults <= 0 means all. On error the IDs collected so far are
// returned together with the error.
func (c *Client) GetPlaylistVideoIDs(ctx context.Context, playlistID string, maxResults int) ([]string, error) {
	videoIDs := make([]string, 0)
	pageToken := ""
	cost := constants.YouTubeQuota.PlaylistItemsCost

	limitReached := func() bool {
		return maxResults > 0 && len(videoIDs) >= maxResults
	}

	for {
		if err := c.checkQuota(cost); err != nil {
			return videoIDs, err
		}

		reqCtx, cancel := c.requestContext(ctx)
		call := c.service.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(int64(constants.YouTubeAPI.MaxResultsPerPage))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		response, err := call.Context(reqCtx).Do()
		cancel()
		c.consumeQuota(cost)
		if err != nil {
			c.logger.Warn("Playlist fetch stopped",
				zap.String("playlist", playlistID),
				zap.Int("collected", len(videoIDs)),
				zap.Error(err))
			return videoIDs, c.handleError("playlistItems.list", cost, err)
		}
		c.breaker.RecordSuccess()

		for _, item := range response.Items {
			if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
				continue
			}
			videoIDs = append(videoIDs, item.ContentDetails.VideoId)
			if limitReached() {
				break
			}
		}

		if limitReached() || response.NextPageToken == "" {
			break
		}
		pageToken = response.NextPageToken

		c.logger.Debug("Fetching next playlist page",
			zap.String("playlist", playlistID),
			zap.Int("collected", len(videoIDs)))
	}

	c.logger.Info("Playlist video IDs fetched",
		zap.String("playlist", playlistID),
		zap.Int("count", len(videoIDs)))
	return videoIDs, nil
}

// GetVideoDetails fetches videos in batches of 50. Quota exhaustion stops the
// loop and returns the partial list with the quota error; any other batch
// failure is logged and skipped.
func (c *Client) GetVideoDetails(ctx context.Context, videoIDs []string) ([]domain.VideoDetails, error) {
	details := make([]domain.VideoDetails, 0, len(videoIDs))
	batchSize := constants.YouTubeAPI.VideoBatchSize
	cost := constants.YouTubeQuota.VideosListCost

	for i := 0; i < len(videoIDs); i += batchSize {
		end := min(i+batchSize, len(videoIDs))
		batch := videoIDs[i:end]

		if err := c.checkQuota(cost); err != nil {
			return details, err
		}

		c.logger.Debug("Fetching video details batch",
			zap.Int("from", i+1),
			zap.Int("to", end),
			zap.Int("total", len(videoIDs)))

		reqCtx, cancel := c.requestContext(ctx)
		response, err := c.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
			Id(batch...).
			MaxResults(int64(batchSize)).
			Context(reqCtx).
			Do()
		cancel()
		c.consumeQuota(cost)
		if err != nil {
			wrapped := c.handleError("videos.list", cost, err)
			if IsQuotaExceeded(wrapped) {
				c.logger.Warn("Returning video details fetched so far",
					zap.Int("fetched", len(details)))
				return details, wrapped
			}
			if ctx.Err() != nil {
				return details, ctx.Err()
			}
			c.logger.Error("Video details batch failed, skipping",
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			continue
		}
		c.breaker.RecordSuccess()

		fetchDate := c.now()
		for _, item := range response.Items {
			details = append(details, c.toVideoDetails(item, fetchDate))
		}
	}

	c.logger.Info("Video details fetched",
		zap.Int("requested", len(videoIDs)),
		zap.Int("fetched", len(details)))
	return details, nil
}

func (c *Client) toVideoDetails(item *youtube.Video, fetchDate time.Time) domain.VideoDetails {
	video := domain.VideoDetails{
		ID:        item.Id,
		Title:     "N/A",
		FetchDate: fetchDate,
	}

	if snippet := item.Snippet; snippet != nil {
		if snippet.Title != "" {
			video.Title = snippet.Title
		}
		if snippet.PublishedAt != "" {
			if published, err := time.Parse(time.RFC3339, snippet.PublishedAt); err == nil {
				utc := published.UTC()
				video.PublishedAt = &utc
			} else {
				c.logger.Warn("Could not parse publish time",
					zap.String("video", item.Id),
					zap.String("value", snippet.PublishedAt))
			}
		}
	}

	if content := item.ContentDetails; content != nil && content.Duration != "" {
		seconds, err := ParseISODuration(content.Duration)
		if err != nil {
			c.logger.Warn("Could not parse duration",
				zap.String("video", item.Id),
				zap.String("value", content.Duration))
		}
		video.DurationSeconds = seconds
	}

	if stats := item.Statistics; stats != nil {
		video.ViewCount = clampCount(stats.ViewCount)
		video.LikeCount = clampCount(stats.LikeCount)
		video.CommentCount = clampCount(stats.CommentCount)
	}

	return video
}

func clampCount(n uint64) int64 {
	if n > uint64(1<<63-1) {
		return 1<<63 - 1
	}
	return int64(n)
}
