package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
)

// PhotoRepositoryImpl implements PhotoRepository interface.
type PhotoRepositoryImpl struct {
	*BaseRepository[models.Photo, models.PhotoFilter]
}

// NewPhotoRepository creates a new photo repository.
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &PhotoRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Photo, models.PhotoFilter](db),
	}
}

// LinkToJournal attaches photos to a journal.
func (r *PhotoRepositoryImpl) LinkToJournal(ctx context.Context, journalID uint, photoIDs []uint) error {
	if len(photoIDs) == 0 {
		return nil
	}
	links := make([]*models.JournalPhoto, 0, len(photoIDs))
	for _, id := range photoIDs {
		links = append(links, &models.JournalPhoto{JournalID: journalID, PhotoID: id})
	}
	if err := r.getDB(ctx).Create(&links).Error; err != nil {
		return fmt.Errorf("failed to link photos to journal %d: %w", journalID, err)
	}
	return nil
}

// ByIDInJournal returns the photo only if it is linked to the journal.
func (r *PhotoRepositoryImpl) ByIDInJournal(ctx context.Context, journalID, photoID uint) (*models.Photo, error) {
	rows, err := r.ByFilter(ctx, models.PhotoFilter{ID: &photoID, JournalID: &journalID}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ActiveByJournalID returns the active photos of a journal in ingestion order.
func (r *PhotoRepositoryImpl) ActiveByJournalID(ctx context.Context, journalID uint) ([]*models.Photo, error) {
	return r.ByFilter(ctx, models.PhotoFilter{JournalID: &journalID, Active: utils.ToPtr(true)}, "photos.id ASC", 0, 0)
}

// IDsInJournal narrows photoIDs to those linked to the journal.
func (r *PhotoRepositoryImpl) IDsInJournal(ctx context.Context, journalID uint, photoIDs []uint) ([]uint, error) {
	if len(photoIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.applyFilter(r.getDB(ctx).Model(&models.Photo{}), models.PhotoFilter{IDs: photoIDs, JournalID: &journalID}).
		Order("photos.id ASC").
		Pluck("photos.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to match photos in journal %d: %w", journalID, err)
	}
	return ids, nil
}

// Deactivate clears the active flag. Rows already inactive are left untouched.
func (r *PhotoRepositoryImpl) Deactivate(ctx context.Context, photoIDs []uint) (int64, error) {
	if len(photoIDs) == 0 {
		return 0, nil
	}
	res := r.getDB(ctx).Model(&models.Photo{}).
		Where("id IN ? AND active = ?", photoIDs, true).
		Updates(map[string]any{
			"active":     false,
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to deactivate photos: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateImportance stores the ranking score of a photo.
func (r *PhotoRepositoryImpl) UpdateImportance(ctx context.Context, photoID uint, importance float64) error {
	return r.updateColumns(ctx, photoID, map[string]any{"importance": importance})
}

// UpdateCaption writes the caption and reports whether the photo still exists.
func (r *PhotoRepositoryImpl) UpdateCaption(ctx context.Context, photoID uint, caption string) (bool, error) {
	res := r.getDB(ctx).Model(&models.Photo{}).
		Where("id = ?", photoID).
		Updates(map[string]any{
			"caption":    caption,
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update caption of photo %d: %w", photoID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UpdateDraft stores a new draft. The finalized text defaults to it only while unset,
// and an empty draft never becomes the finalized text.
func (r *PhotoRepositoryImpl) UpdateDraft(ctx context.Context, photoID uint, draft string) error {
	return r.updateColumns(ctx, photoID, map[string]any{
		"draft":      draft,
		"final_text": gorm.Expr("COALESCE(final_text, NULLIF(?, ''))", draft),
	})
}

// UpdateFinalText overwrites the finalized text.
func (r *PhotoRepositoryImpl) UpdateFinalText(ctx context.Context, photoID uint, text string) error {
	return r.updateColumns(ctx, photoID, map[string]any{"final_text": text})
}

func (r *PhotoRepositoryImpl) updateColumns(ctx context.Context, photoID uint, values map[string]any) error {
	values["updated_at"] = utils.UTCNow()
	err := r.getDB(ctx).Model(&models.Photo{}).Where("id = ?", photoID).Updates(values).Error
	if err != nil {
		return fmt.Errorf("failed to update photo %d: %w", photoID, err)
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query.
func (r *PhotoRepositoryImpl) applyFilter(query *gorm.DB, filter models.PhotoFilter) *gorm.DB {
	if filter.JournalID != nil {
		query = query.Joins("JOIN journal_photos ON journal_photos.photo_id = photos.id").
			Where("journal_photos.journal_id = ?", *filter.JournalID)
	}
	if filter.ID != nil {
		query = query.Where("photos.id = ?", *filter.ID)
	}
	if len(filter.IDs) > 0 {
		query = query.Where("photos.id IN ?", filter.IDs)
	}
	if filter.Active != nil {
		query = query.Where("photos.active = ?", *filter.Active)
	}
	return query
}

// ByFilter retrieves photos based on filter criteria.
func (r *PhotoRepositoryImpl) ByFilter(ctx context.Context, filter models.PhotoFilter, orderBy string, limit, offset int) ([]*models.Photo, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Photo{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "photos.id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Photo
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of photos matching filter.
func (r *PhotoRepositoryImpl) Count(ctx context.Context, filter models.PhotoFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Photo{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any photo matches the filter.
func (r *PhotoRepositoryImpl) Exists(ctx context.Context, filter models.PhotoFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
