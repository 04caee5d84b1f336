package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/trip-to-travel/models"
	"gorm.io/gorm"
)

// JournalIntentRepositoryImpl implements JournalIntentRepository interface.
type JournalIntentRepositoryImpl struct {
	db *gorm.DB
}

// NewJournalIntentRepository creates a new intent repository.
func NewJournalIntentRepository(db *gorm.DB) JournalIntentRepository {
	return &JournalIntentRepositoryImpl{db: db}
}

// ReplacePurposes swaps the purpose selections of a journal for codes.
func (r *JournalIntentRepositoryImpl) ReplacePurposes(ctx context.Context, journalID uint, codes []int) error {
	db := dbFromContext(ctx, r.db)
	if err := db.Where("journal_id = ?", journalID).Delete(&models.JournalPurpose{}).Error; err != nil {
		return fmt.Errorf("failed to clear journal purposes: %w", err)
	}
	if len(codes) == 0 {
		return nil
	}
	rows := make([]*models.JournalPurpose, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, &models.JournalPurpose{JournalID: journalID, PurposeCategory: code})
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to save journal purposes: %w", err)
	}
	return nil
}

// ReplaceAudiences swaps the audience selections of a journal for codes.
func (r *JournalIntentRepositoryImpl) ReplaceAudiences(ctx context.Context, journalID uint, codes []int) error {
	db := dbFromContext(ctx, r.db)
	if err := db.Where("journal_id = ?", journalID).Delete(&models.JournalAudience{}).Error; err != nil {
		return fmt.Errorf("failed to clear journal audiences: %w", err)
	}
	if len(codes) == 0 {
		return nil
	}
	rows := make([]*models.JournalAudience, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, &models.JournalAudience{JournalID: journalID, AudienceCategory: code})
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to save journal audiences: %w", err)
	}
	return nil
}

// PurposesByJournalID returns the selected purposes with their labels, in code order.
func (r *JournalIntentRepositoryImpl) PurposesByJournalID(ctx context.Context, journalID uint) ([]models.Category, error) {
	var rows []models.Category
	err := dbFromContext(ctx, r.db).
		Table("journal_purposes").
		Select("purpose_categories.id AS id, purpose_categories.label AS label").
		Joins("JOIN purpose_categories ON purpose_categories.id = journal_purposes.purpose_category").
		Where("journal_purposes.journal_id = ?", journalID).
		Order("purpose_categories.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load journal purposes: %w", err)
	}
	return rows, nil
}

// AudiencesByJournalID returns the selected audiences with their labels, in code order.
func (r *JournalIntentRepositoryImpl) AudiencesByJournalID(ctx context.Context, journalID uint) ([]models.Category, error) {
	var rows []models.Category
	err := dbFromContext(ctx, r.db).
		Table("journal_audiences").
		Select("audience_categories.id AS id, audience_categories.label AS label").
		Joins("JOIN audience_categories ON audience_categories.id = journal_audiences.audience_category").
		Where("journal_audiences.journal_id = ?", journalID).
		Order("audience_categories.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load journal audiences: %w", err)
	}
	return rows, nil
}
