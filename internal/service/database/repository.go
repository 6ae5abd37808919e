package database

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/youtube-channel-analyzer/internal/domain"
	"github.com/kapu/youtube-channel-analyzer/internal/util"
	"github.com/kapu/youtube-channel-analyzer/pkg/errors"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	tableChannels = "channels"
	tableVideos   = "videos"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS channels (
		channel_id TEXT PRIMARY KEY,
		channel_name TEXT,
		uploads_playlist_id TEXT,
		last_fetched BIGINT,
		subscriber_count BIGINT,
		date_added TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		video_id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL REFERENCES channels (channel_id),
		title TEXT,
		published_at BIGINT,
		duration_seconds BIGINT,
		view_count BIGINT,
		like_count BIGINT,
		comment_count BIGINT,
		fetch_date TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_channel ON videos (channel_id)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_channel_published ON videos (channel_id, published_at)`,
}

// Repository persists channels and video snapshots. Queries are written with
// "?" placeholders and rebound for PostgreSQL.
type Repository struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
	now    func() time.Time
}

func NewRepository(db *sql.DB, driver string, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		db:     db,
		driver: driver,
		logger: logger,
		now:    time.Now,
	}
}

// Open connects to the configured backend and ensures the schema exists.
func Open(ctx context.Context, driver, sqlitePath string, pg PostgresConfig, logger *zap.Logger) (*Repository, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = OpenSQLite(ctx, sqlitePath, logger)
	case DriverPostgres:
		db, err = OpenPostgres(ctx, pg, logger)
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unsupported database driver %q", driver), "DB_DRIVER", driver)
	}
	if err != nil {
		return nil, errors.NewStorageError("failed to open database", "open", "", err)
	}

	repo := NewRepository(db, driver, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return errors.NewStorageError("failed to create schema", "ensure_schema", "", err)
		}
	}
	r.logger.Debug("Database schema ready", zap.String("driver", r.driver))
	return nil
}

// rebind converts "?" placeholders to "$n" for PostgreSQL.
func (r *Repository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// SaveChannel inserts or updates a channel. date_added is only written on first insert.
func (r *Repository) SaveChannel(ctx context.Context, details *domain.ChannelDetails) error {
	if details == nil || details.ID == "" {
		return errors.NewValidationError("channel ID is required", "channel_id", "")
	}

	query := r.rebind(`
		INSERT INTO channels (channel_id, channel_name, uploads_playlist_id,
		                      last_fetched, subscriber_count, date_added)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (channel_id) DO UPDATE SET
			channel_name = excluded.channel_name,
			uploads_playlist_id = excluded.uploads_playlist_id,
			last_fetched = excluded.last_fetched,
			subscriber_count = excluded.subscriber_count`)

	now := r.now()
	var subscribers sql.NullInt64
	if details.SubscriberCount != nil {
		subscribers = sql.NullInt64{Int64: *details.SubscriberCount, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query,
		details.ID,
		details.Title,
		details.UploadsPlaylistID,
		now.Unix(),
		subscribers,
		util.FormatDate(now),
	); err != nil {
		return errors.NewStorageError("failed to save channel", "save_channel", tableChannels, err)
	}

	r.logger.Debug("Channel saved",
		zap.String("channel", details.ID),
		zap.String("title", details.Title),
		zap.Bool("subscribersKnown", subscribers.Valid))
	return nil
}

// SaveVideos upserts video snapshots for a channel in one transaction.
func (r *Repository) SaveVideos(ctx context.Context, channelID string, videos []domain.VideoDetails) (err error) {
	if len(videos) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", "save_videos", tableVideos, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, r.rebind(`
		INSERT INTO videos (video_id, channel_id, title, published_at, duration_seconds,
		                    view_count, like_count, comment_count, fetch_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (video_id) DO UPDATE SET
			title = excluded.title,
			published_at = excluded.published_at,
			duration_seconds = excluded.duration_seconds,
			view_count = excluded.view_count,
			like_count = excluded.like_count,
			comment_count = excluded.comment_count,
			fetch_date = excluded.fetch_date`))
	if err != nil {
		return errors.NewStorageError("failed to prepare video upsert", "save_videos", tableVideos, err)
	}
	defer stmt.Close()

	for _, v := range videos {
		var published sql.NullInt64
		if v.PublishedAt != nil {
			published = sql.NullInt64{Int64: v.PublishedAt.Unix(), Valid: true}
		}
		var fetchDate sql.NullString
		if !v.FetchDate.IsZero() {
			fetchDate = sql.NullString{String: util.FormatDate(v.FetchDate), Valid: true}
		}

		if _, err = stmt.ExecContext(ctx,
			v.ID, channelID, v.Title, published, v.DurationSeconds,
			v.ViewCount, v.LikeCount, v.CommentCount, fetchDate,
		); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to save video %s", v.ID), "save_videos", tableVideos, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit videos", "save_videos", tableVideos, err)
	}

	r.logger.Debug("Videos saved",
		zap.String("channel", channelID),
		zap.Int("count", len(videos)))
	return nil
}

// GetChannelName returns the stored name, or "" when the channel or its name is unknown.
func (r *Repository) GetChannelName(ctx context.Context, channelID string) (string, error) {
	var name sql.NullString
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT channel_name FROM channels WHERE channel_id = ?`), channelID).Scan(&name)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.NewStorageError("failed to get channel name", "get_channel_name", tableChannels, err)
	}
	return name.String, nil
}

// GetChannelAddDate returns the UTC date the channel was first stored, or nil.
func (r *Repository) GetChannelAddDate(ctx context.Context, channelID string) (*time.Time, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT date_added FROM channels WHERE channel_id = ?`), channelID).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) || (err == nil && !raw.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("failed to get channel add date", "get_channel_add_date", tableChannels, err)
	}

	added, err := time.Parse("2006-01-02", strings.TrimSpace(raw.String))
	if err != nil {
		r.logger.Warn("Could not parse date_added",
			zap.String("channel", channelID),
			zap.String("value", raw.String))
		return nil, nil
	}
	return &added, nil
}

// GetChannelSubscribers returns the stored subscriber count, or nil when hidden or unknown.
func (r *Repository) GetChannelSubscribers(ctx context.Context, channelID string) (*int64, error) {
	var subs sql.NullInt64
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT subscriber_count FROM channels WHERE channel_id = ?`), channelID).Scan(&subs)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("failed to get channel subscribers", "get_channel_subscribers", tableChannels, err)
	}
	if !subs.Valid {
		return nil, nil
	}
	return &subs.Int64, nil
}

// GetTotalVideosCount counts every stored video of the channel.
func (r *Repository) GetTotalVideosCount(ctx context.Context, channelID string) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, r.rebind(`SELECT COUNT(video_id) FROM videos WHERE channel_id = ?`), channelID).Scan(&count); err != nil {
		return 0, errors.NewStorageError("failed to count videos", "get_total_videos_count", tableVideos, err)
	}
	return count, nil
}

// GetVideoStatsForChannel returns (views, likes, duration) for videos that have
// views and likes recorded and a positive duration.
func (r *Repository) GetVideoStatsForChannel(ctx context.Context, channelID string) ([]domain.VideoStatTriple, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT view_count, like_count, duration_seconds
		FROM videos
		WHERE channel_id = ?
		  AND view_count IS NOT NULL
		  AND like_count IS NOT NULL
		  AND duration_seconds > 0`), channelID)
	if err != nil {
		return nil, errors.NewStorageError("failed to query video stats", "get_video_stats", tableVideos, err)
	}
	defer rows.Close()

	stats := make([]domain.VideoStatTriple, 0)
	for rows.Next() {
		var t domain.VideoStatTriple
		if err := rows.Scan(&t.Views, &t.Likes, &t.DurationSeconds); err != nil {
			r.logger.Debug("Skipping video row with non-integer data",
				zap.String("channel", channelID),
				zap.Error(err))
			continue
		}
		stats = append(stats, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to read video stats", "get_video_stats", tableVideos, err)
	}

	r.logger.Debug("Fetched video stats",
		zap.String("channel", channelID),
		zap.Int("videos", len(stats)))
	return stats, nil
}

// GetVideosPublishedBetween returns videos published in [start, end) with every
// statistic present.
func (r *Repository) GetVideosPublishedBetween(ctx context.Context, channelID string, start, end time.Time) ([]domain.VideoRecord, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`
		SELECT video_id, published_at, view_count, like_count, comment_count, duration_seconds
		FROM videos
		WHERE channel_id = ?
		  AND published_at >= ?
		  AND published_at < ?
		  AND published_at IS NOT NULL
		  AND view_count IS NOT NULL
		  AND like_count IS NOT NULL
		  AND comment_count IS NOT NULL
		  AND duration_seconds IS NOT NULL`), channelID, start.Unix(), end.Unix())
	if err != nil {
		return nil, errors.NewStorageError("failed to query videos by publish time", "get_videos_between", tableVideos, err)
	}
	defer rows.Close()

	records := make([]domain.VideoRecord, 0)
	for rows.Next() {
		var (
			rec       domain.VideoRecord
			published int64
		)
		if err := rows.Scan(&rec.VideoID, &published, &rec.ViewCount, &rec.LikeCount, &rec.CommentCount, &rec.DurationSeconds); err != nil {
			r.logger.Debug("Skipping video row due to conversion error",
				zap.String("channel", channelID),
				zap.Error(err))
			continue
		}
		rec.PublishedAt = time.Unix(published, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to read videos by publish time", "get_videos_between", tableVideos, err)
	}

	r.logger.Debug("Fetched videos published in window",
		zap.String("channel", channelID),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("videos", len(records)))
	return records, nil
}
