package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
)

// JournalRepositoryImpl implements JournalRepository interface.
type JournalRepositoryImpl struct {
	*BaseRepository[models.Journal, models.JournalFilter]
}

// NewJournalRepository creates a new journal repository.
func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &JournalRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Journal, models.JournalFilter](db),
	}
}

// UpdateStyle sets the narrative style of a journal.
func (r *JournalRepositoryImpl) UpdateStyle(ctx context.Context, journalID uint, style int) error {
	db := r.getDB(ctx)
	err := db.Model(&models.Journal{}).
		Where("id = ?", journalID).
		Updates(map[string]any{
			"style_category": style,
			"updated_at":     utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update journal style: %w", err)
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query.
func (r *JournalRepositoryImpl) applyFilter(query *gorm.DB, filter models.JournalFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.StyleCategory != nil {
		query = query.Where("style_category = ?", *filter.StyleCategory)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves journals based on filter criteria.
func (r *JournalRepositoryImpl) ByFilter(ctx context.Context, filter models.JournalFilter, orderBy string, limit, offset int) ([]*models.Journal, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Journal{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Journal
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of journals matching filter.
func (r *JournalRepositoryImpl) Count(ctx context.Context, filter models.JournalFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Journal{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any journal matches the filter.
func (r *JournalRepositoryImpl) Exists(ctx context.Context, filter models.JournalFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
