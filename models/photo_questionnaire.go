package models

import (
	"time"

	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
)

// PhotoQuestionnaire is the traveller's answer to "how was this moment".
type PhotoQuestionnaire struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PhotoID   uint      `gorm:"not null;uniqueIndex:uk_photo_questionnaires_photo" json:"photo_id"`
	How       string    `gorm:"type:text;not null;default:''" json:"how"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Photo    *Photo         `gorm:"foreignKey:PhotoID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Emotions []PhotoEmotion `gorm:"foreignKey:QuestionnaireID;constraint:OnDelete:CASCADE" json:"emotions,omitempty"`
}

func (PhotoQuestionnaire) TableName() string { return "photo_questionnaires" }

func (q *PhotoQuestionnaire) BeforeCreate(tx *gorm.DB) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = utils.UTCNow()
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// PhotoEmotion tags a questionnaire with one emotion category.
type PhotoEmotion struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionnaireID uint      `gorm:"not null;index" json:"questionnaire_id"`
	EmotionCategory int       `gorm:"type:smallint;not null" json:"emotion_category"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PhotoEmotion) TableName() string { return "photo_emotions" }

func (e *PhotoEmotion) BeforeCreate(tx *gorm.DB) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = utils.UTCNow()
	}
	return nil
}
