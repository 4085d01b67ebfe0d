// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is a channel owner and viewer on the platform.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email         string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	FullName      string    `gorm:"type:varchar(100);not null" json:"fullName"`
	Avatar        string    `json:"avatar"`
	AvatarKey     string    `json:"-"`
	CoverImage    string    `json:"coverImage"`
	CoverImageKey string    `json:"-"`
	Password      string    `gorm:"not null" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// WatchEntry records that a user opened a video. Entries are append-only and
// unique per (user, video); insertion order is the history order.
type WatchEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_watch_entries_user_video" json:"userId"`
	VideoID   uint      `gorm:"not null;uniqueIndex:idx_watch_entries_user_video;index" json:"videoId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (WatchEntry) TableName() string {
	return "watch_entries"
}
