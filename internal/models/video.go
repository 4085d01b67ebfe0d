package models

import (
	"time"
)

// Video is an uploaded media item owned by a channel.
type Video struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	VideoFile    string    `gorm:"not null" json:"videoFile"`
	VideoFileKey string    `json:"-"`
	Thumbnail    string    `gorm:"not null" json:"thumbnail"`
	ThumbnailKey string    `json:"-"`
	Title        string    `gorm:"type:varchar(200);not null" json:"title"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Duration     float64   `gorm:"not null;default:0" json:"duration"`
	Views        int64     `gorm:"not null;default:0" json:"views"`
	IsPublished  bool      `gorm:"not null;default:false;index" json:"isPublished"`
	OwnerID      uint      `gorm:"not null;index" json:"ownerId"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MediaKeys returns the store handles referenced by the video.
func (v *Video) MediaKeys() []string {
	keys := make([]string, 0, 2)
	if v.VideoFileKey != "" {
		keys = append(keys, v.VideoFileKey)
	}
	if v.ThumbnailKey != "" {
		keys = append(keys, v.ThumbnailKey)
	}
	return keys
}
