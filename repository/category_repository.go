package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/trip-to-travel/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryRepositoryImpl implements CategoryRepository interface.
type CategoryRepositoryImpl struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new lookup table repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &CategoryRepositoryImpl{db: db}
}

// EnsureDefaults seeds every lookup table, refreshing labels of existing codes.
func (r *CategoryRepositoryImpl) EnsureDefaults(ctx context.Context) error {
	db := dbFromContext(ctx, r.db)
	for kind, defaults := range models.DefaultCategories {
		if len(defaults) == 0 {
			continue
		}
		rows := append([]models.Category(nil), defaults...)
		err := db.Table(kind.TableName()).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"label"}),
			}).
			Create(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to seed %s categories: %w", kind, err)
		}
	}
	return nil
}

// List returns all codes of one lookup table in code order.
func (r *CategoryRepositoryImpl) List(ctx context.Context, kind models.CategoryKind) ([]models.Category, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown category kind %q", kind)
	}
	var rows []models.Category
	err := dbFromContext(ctx, r.db).Table(kind.TableName()).Select("id, label").Order("id ASC").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s categories: %w", kind, err)
	}
	return rows, nil
}

// Label returns the display string of one code, nil when the code is unknown.
func (r *CategoryRepositoryImpl) Label(ctx context.Context, kind models.CategoryKind, id int) (*string, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown category kind %q", kind)
	}
	var labels []string
	err := dbFromContext(ctx, r.db).Table(kind.TableName()).Where("id = ?", id).Limit(1).Pluck("label", &labels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read %s category %d: %w", kind, id, err)
	}
	if len(labels) == 0 {
		return nil, nil
	}
	return &labels[0], nil
}
