package models

import (
	"time"

	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
)

// Photo is one uploaded image and the text produced for it along the pipeline.
// Active only ever moves from true to false.
type Photo struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	BlobURI          string    `gorm:"type:text;not null" json:"blob_uri"`
	OriginalFilename string    `gorm:"type:varchar(255);not null;default:''" json:"original_filename"`
	ContentType      string    `gorm:"type:varchar(100);not null" json:"content_type"`
	SizeBytes        int64     `gorm:"type:bigint;not null" json:"size_bytes"`
	Importance       *float64  `json:"importance,omitempty"`
	Caption          *string   `gorm:"type:text" json:"caption,omitempty"`
	Draft            *string   `gorm:"type:text" json:"draft,omitempty"`
	FinalText        *string   `gorm:"type:text" json:"final_text,omitempty"`
	Active           *bool     `gorm:"not null;default:true;index" json:"active"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Photo) TableName() string { return "photos" }

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.Active == nil {
		p.Active = utils.ToPtr(true)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// IsActive reports whether the photo still participates in its journal.
func (p *Photo) IsActive() bool {
	return utils.IsTrue(p.Active)
}

// ExportText is the text printed under the photo: the finalized text, else the draft.
func (p *Photo) ExportText() string {
	if p.FinalText != nil {
		return *p.FinalText
	}
	return utils.Deref(p.Draft)
}

// PhotoFilter represents filter criteria for photo queries.
type PhotoFilter struct {
	ID        *uint  `json:"id,omitempty"`
	IDs       []uint `json:"ids,omitempty"`
	JournalID *uint  `json:"journal_id,omitempty"`
	Active    *bool  `json:"active,omitempty"`
}

// JournalPhoto links a photo to the journal it was ingested into.
type JournalPhoto struct {
	JournalID uint      `gorm:"primaryKey;index" json:"journal_id"`
	PhotoID   uint      `gorm:"primaryKey;uniqueIndex:uk_journal_photos_photo" json:"photo_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Journal *Journal `gorm:"foreignKey:JournalID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Photo   *Photo   `gorm:"foreignKey:PhotoID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (JournalPhoto) TableName() string { return "journal_photos" }

func (l *JournalPhoto) BeforeCreate(tx *gorm.DB) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	return nil
}
