package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ChannelDetails represents a YouTube channel as returned by channels.list
type ChannelDetails struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	UploadsPlaylistID string `json:"uploads_playlist_id"`
	// nil when the channel hides its subscriber count
	SubscriberCount *int64 `json:"subscriber_count,omitempty"`
}

// GetDisplayName returns the title, or a placeholder built from the ID
func (c *ChannelDetails) GetDisplayName() string {
	if c == nil {
		return ""
	}
	if strings.TrimSpace(c.Title) != "" {
		return c.Title
	}
	return UnknownChannelName(c.ID)
}

// HasUploadsPlaylist reports whether the channel exposes an uploads playlist
func (c *ChannelDetails) HasUploadsPlaylist() bool {
	return c != nil && c.UploadsPlaylistID != ""
}

// UnknownChannelName is the display name used when neither storage nor the API know the channel.
func UnknownChannelName(channelID string) string {
	return fmt.Sprintf("Unknown (ID: %s)", channelID)
}

// ParseSubscriberCount converts a raw subscriber count into an integer.
// Values that fail conversion become nil instead of surviving as strings.
func ParseSubscriberCount(raw any) *int64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case int64:
		return &v
	case int:
		n := int64(v)
		return &n
	case uint64:
		if v > uint64(1<<63-1) {
			return nil
		}
		n := int64(v)
		return &n
	case *int64:
		if v == nil {
			return nil
		}
		n := *v
		return &n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}
