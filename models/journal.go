// Package models contains the GORM entities persisted by the service
package models

import (
	"time"

	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
)

// Journal is the root record of one trip.
type Journal struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	StyleCategory *int      `gorm:"type:smallint;index" json:"style_category,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index;<-:create" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Purposes  []JournalPurpose  `gorm:"foreignKey:JournalID;constraint:OnDelete:CASCADE" json:"purposes,omitempty"`
	Audiences []JournalAudience `gorm:"foreignKey:JournalID;constraint:OnDelete:CASCADE" json:"audiences,omitempty"`
}

func (Journal) TableName() string { return "journals" }

func (j *Journal) BeforeCreate(tx *gorm.DB) error {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = utils.UTCNow()
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// JournalFilter represents filter criteria for journal queries.
type JournalFilter struct {
	ID            *uint      `json:"id,omitempty"`
	StyleCategory *int       `json:"style_category,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}

// JournalPurpose records why the trip was taken.
type JournalPurpose struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JournalID       uint      `gorm:"not null;index;uniqueIndex:uk_journal_purposes_code" json:"journal_id"`
	PurposeCategory int       `gorm:"type:smallint;not null;uniqueIndex:uk_journal_purposes_code" json:"purpose_category"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (JournalPurpose) TableName() string { return "journal_purposes" }

func (p *JournalPurpose) BeforeCreate(tx *gorm.DB) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// JournalAudience records who travelled.
type JournalAudience struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JournalID        uint      `gorm:"not null;index;uniqueIndex:uk_journal_audiences_code" json:"journal_id"`
	AudienceCategory int       `gorm:"type:smallint;not null;uniqueIndex:uk_journal_audiences_code" json:"audience_category"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (JournalAudience) TableName() string { return "journal_audiences" }

func (a *JournalAudience) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	return nil
}
