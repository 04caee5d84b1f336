package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PhotoMetadataRepositoryImpl implements PhotoMetadataRepository interface.
type PhotoMetadataRepositoryImpl struct {
	db *gorm.DB
}

// NewPhotoMetadataRepository creates a new metadata repository.
func NewPhotoMetadataRepository(db *gorm.DB) PhotoMetadataRepository {
	return &PhotoMetadataRepositoryImpl{db: db}
}

// Upsert creates the metadata row of a photo or overwrites the existing one.
func (r *PhotoMetadataRepositoryImpl) Upsert(ctx context.Context, metadata *models.PhotoMetadata) error {
	metadata.UpdatedAt = utils.UTCNow()
	err := dbFromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "photo_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"captured_at", "place_name", "latitude", "longitude", "updated_at"}),
		}).
		Create(metadata).Error
	if err != nil {
		return fmt.Errorf("failed to upsert metadata of photo %d: %w", metadata.PhotoID, err)
	}
	return nil
}

// ByPhotoID returns the metadata of one photo, nil when absent.
func (r *PhotoMetadataRepositoryImpl) ByPhotoID(ctx context.Context, photoID uint) (*models.PhotoMetadata, error) {
	var row models.PhotoMetadata
	err := dbFromContext(ctx, r.db).Where("photo_id = ?", photoID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load metadata of photo %d: %w", photoID, err)
	}
	return &row, nil
}

// ByPhotoIDs returns metadata keyed by photo id. Photos without a row are absent from the map.
func (r *PhotoMetadataRepositoryImpl) ByPhotoIDs(ctx context.Context, photoIDs []uint) (map[uint]*models.PhotoMetadata, error) {
	out := make(map[uint]*models.PhotoMetadata, len(photoIDs))
	if len(photoIDs) == 0 {
		return out, nil
	}
	var rows []*models.PhotoMetadata
	if err := dbFromContext(ctx, r.db).Where("photo_id IN ?", photoIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load photo metadata: %w", err)
	}
	for _, row := range rows {
		out[row.PhotoID] = row
	}
	return out, nil
}
