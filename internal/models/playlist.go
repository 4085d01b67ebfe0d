package models

import (
	"time"
)

// Playlist is an ordered, duplicate-free set of videos curated by a user.
type Playlist struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(150);not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	OwnerID     uint      `gorm:"not null;index" json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistVideo is one membership row of a playlist.
type PlaylistVideo struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PlaylistID uint      `gorm:"not null;uniqueIndex:idx_playlist_videos_pair" json:"playlistId"`
	VideoID    uint      `gorm:"not null;uniqueIndex:idx_playlist_videos_pair;index" json:"videoId"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MediaDeletion is a deferred blob deletion waiting to be retried.
type MediaDeletion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Handle      string    `gorm:"type:varchar(512);not null;uniqueIndex" json:"handle"`
	Attempts    int       `gorm:"not null;default:0" json:"attempts"`
	LastError   string    `gorm:"type:text" json:"lastError"`
	AvailableAt time.Time `gorm:"index" json:"availableAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
