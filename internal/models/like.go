package models

import (
	"time"
)

// LikeTargetKind names the entity a like points at.
type LikeTargetKind string

const (
	LikeTargetVideo   LikeTargetKind = "video"
	LikeTargetComment LikeTargetKind = "comment"
	LikeTargetTweet   LikeTargetKind = "tweet"
)

// Like links a user to exactly one video, comment or tweet.
// A user likes a target at most once. NULL target columns never collide in
// the composite unique indexes.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VideoID   *uint     `gorm:"uniqueIndex:idx_likes_video_user,priority:1" json:"videoId,omitempty"`
	CommentID *uint     `gorm:"uniqueIndex:idx_likes_comment_user,priority:1" json:"commentId,omitempty"`
	TweetID   *uint     `gorm:"uniqueIndex:idx_likes_tweet_user,priority:1" json:"tweetId,omitempty"`
	LikedByID uint      `gorm:"not null;index;uniqueIndex:idx_likes_video_user,priority:2;uniqueIndex:idx_likes_comment_user,priority:2;uniqueIndex:idx_likes_tweet_user,priority:2" json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeTarget identifies the liked entity.
type LikeTarget struct {
	Kind LikeTargetKind
	ID   uint
}

// Column returns the likes column holding the target id.
func (t LikeTarget) Column() string {
	switch t.Kind {
	case LikeTargetComment:
		return "comment_id"
	case LikeTargetTweet:
		return "tweet_id"
	default:
		return "video_id"
	}
}

// NewLike builds a like row for the target, leaving the other targets nil.
func (t LikeTarget) NewLike(userID uint) *Like {
	id := t.ID
	like := &Like{LikedByID: userID}
	switch t.Kind {
	case LikeTargetComment:
		like.CommentID = &id
	case LikeTargetTweet:
		like.TweetID = &id
	default:
		like.VideoID = &id
	}
	return like
}

// TargetID returns the id of whichever target is set.
func (l Like) TargetID() uint {
	switch {
	case l.VideoID != nil:
		return *l.VideoID
	case l.CommentID != nil:
		return *l.CommentID
	case l.TweetID != nil:
		return *l.TweetID
	}
	return 0
}

// Subscription links a subscriber to a channel. Both are users.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscriptions_pair" json:"subscriber"`
	ChannelID    uint      `gorm:"not null;uniqueIndex:idx_subscriptions_pair;index" json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}
