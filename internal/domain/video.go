package domain

import "time"

// VideoStatTriple is the (views, likes, duration) projection used by basic statistics.
type VideoStatTriple struct {
	Views           int64
	Likes           int64
	DurationSeconds int64
}

// VideoRecord is one stored video snapshot read back for a publish-time window.
type VideoRecord struct {
	VideoID         string    `json:"video_id"`
	PublishedAt     time.Time `json:"published_at"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	CommentCount    int64     `json:"comment_count"`
	DurationSeconds int64     `json:"duration_seconds"`
}

// VideoDetails is a video as returned by videos.list, ready to be persisted.
type VideoDetails struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	ViewCount       int64      `json:"view_count"`
	LikeCount       int64      `json:"like_count"`
	CommentCount    int64      `json:"comment_count"`
	FetchDate       time.Time  `json:"fetch_date"`
}
