// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/trip-to-travel/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// JournalRepository defines operations for journals
type JournalRepository interface {
	Repository[models.Journal, models.JournalFilter]
	UpdateStyle(ctx context.Context, journalID uint, style int) error
}

// JournalIntentRepository stores purpose and audience selections of a journal
type JournalIntentRepository interface {
	ReplacePurposes(ctx context.Context, journalID uint, codes []int) error
	ReplaceAudiences(ctx context.Context, journalID uint, codes []int) error
	PurposesByJournalID(ctx context.Context, journalID uint) ([]models.Category, error)
	AudiencesByJournalID(ctx context.Context, journalID uint) ([]models.Category, error)
}

// PhotoRepository defines operations for photos and their journal links
type PhotoRepository interface {
	Repository[models.Photo, models.PhotoFilter]
	LinkToJournal(ctx context.Context, journalID uint, photoIDs []uint) error
	ByIDInJournal(ctx context.Context, journalID, photoID uint) (*models.Photo, error)
	ActiveByJournalID(ctx context.Context, journalID uint) ([]*models.Photo, error)
	IDsInJournal(ctx context.Context, journalID uint, photoIDs []uint) ([]uint, error)
	Deactivate(ctx context.Context, photoIDs []uint) (int64, error)
	UpdateImportance(ctx context.Context, photoID uint, importance float64) error
	UpdateCaption(ctx context.Context, photoID uint, caption string) (bool, error)
	UpdateDraft(ctx context.Context, photoID uint, draft string) error
	UpdateFinalText(ctx context.Context, photoID uint, text string) error
}

// PhotoMetadataRepository defines operations for enrichment metadata
type PhotoMetadataRepository interface {
	Upsert(ctx context.Context, metadata *models.PhotoMetadata) error
	ByPhotoID(ctx context.Context, photoID uint) (*models.PhotoMetadata, error)
	ByPhotoIDs(ctx context.Context, photoIDs []uint) (map[uint]*models.PhotoMetadata, error)
}

// PhotoQuestionnaireRepository defines operations for per-photo questionnaires
type PhotoQuestionnaireRepository interface {
	Upsert(ctx context.Context, photoID uint, how string, emotions []int) (*models.PhotoQuestionnaire, error)
	ByPhotoIDs(ctx context.Context, photoIDs []uint) (map[uint]*models.PhotoQuestionnaire, error)
	EmotionLabelsByPhotoIDs(ctx context.Context, photoIDs []uint) (map[uint][]string, error)
}

// CategoryRepository reads and seeds the lookup tables
type CategoryRepository interface {
	EnsureDefaults(ctx context.Context) error
	List(ctx context.Context, kind models.CategoryKind) ([]models.Category, error)
	Label(ctx context.Context, kind models.CategoryKind, id int) (*string, error)
}
