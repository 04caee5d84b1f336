package models

import (
	"time"

	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
)

// PhotoMetadata holds what enrichment learned about a photo. One row per photo;
// a NULL captured_at or place_name means enrichment found nothing for it.
type PhotoMetadata struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	PhotoID    uint       `gorm:"not null;uniqueIndex:uk_photo_metadata_photo" json:"photo_id"`
	CapturedAt *time.Time `gorm:"index" json:"captured_at,omitempty"`
	PlaceName  *string    `gorm:"type:text" json:"place_name,omitempty"`
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Photo *Photo `gorm:"foreignKey:PhotoID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PhotoMetadata) TableName() string { return "photo_metadata" }

func (m *PhotoMetadata) BeforeCreate(tx *gorm.DB) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = utils.UTCNow()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = utils.UTCNow()
	}
	return nil
}
