package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ChannelStatsKeyPrefix = "channel:%d:stats"
	ChannelStatsTTL       = 2 * time.Minute
)

// ChannelStatsKey caches a channel's dashboard totals.
func ChannelStatsKey(channelID uint) string {
	return fmt.Sprintf(ChannelStatsKeyPrefix, channelID)
}

// Invalidate deletes keys. Failures only leave entries to expire on their own.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateChannel drops every cached aggregate of a channel.
func InvalidateChannel(ctx context.Context, channelID uint) {
	Invalidate(ctx, ChannelStatsKey(channelID))
}
