// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"

	"github.com/amirphl/trip-to-travel/app/dto"
	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/repository"
	"github.com/amirphl/trip-to-travel/utils"
)

// Pipeline stage names used for metrics and logs
const (
	StageEntryCreation = "entry_creation"
	StageIntentCapture = "intent_capture"
	StageIngestion     = "ingestion"
	StagePrimary       = "primary_selection"
	StageDeactivation  = "deactivation"
	StageEnrichment    = "enrichment"
	StageQuestionnaire = "questionnaire"
	StageDrafting      = "drafting"
	StageCorrection    = "correction"
	StageExport        = "export"
)

// getJournal loads a journal or returns a not-found business error
func getJournal(ctx context.Context, repo repository.JournalRepository, journalID uint) (*models.Journal, error) {
	journal, err := repo.ByID(ctx, journalID)
	if err != nil {
		return nil, NewBusinessError("JOURNAL_LOOKUP_FAILED", "Failed to load journal", err)
	}
	if journal == nil {
		return nil, NewBusinessError("JOURNAL_NOT_FOUND", "Journal not found", ErrJournalNotFound)
	}
	return journal, nil
}

// getPhotoInJournal loads a photo linked to the journal or returns a not-found business error
func getPhotoInJournal(ctx context.Context, repo repository.PhotoRepository, journalID, photoID uint) (*models.Photo, error) {
	photo, err := repo.ByIDInJournal(ctx, journalID, photoID)
	if err != nil {
		return nil, NewBusinessError("PHOTO_LOOKUP_FAILED", "Failed to load photo", err)
	}
	if photo == nil {
		return nil, NewBusinessError("PHOTO_NOT_FOUND", "Photo not found in journal", ErrPhotoNotFound)
	}
	return photo, nil
}

// getActivePhotos returns the active set of a journal, failing when it is empty
func getActivePhotos(ctx context.Context, repo repository.PhotoRepository, journalID uint) ([]*models.Photo, error) {
	photos, err := repo.ActiveByJournalID(ctx, journalID)
	if err != nil {
		return nil, NewBusinessError("PHOTO_LOOKUP_FAILED", "Failed to load active photos", err)
	}
	if len(photos) == 0 {
		return nil, NewBusinessError("NO_ACTIVE_PHOTOS", "Journal has no active photos", ErrNoActivePhotos)
	}
	return photos, nil
}

func photoIDs(photos []*models.Photo) []uint {
	ids := make([]uint, 0, len(photos))
	for _, p := range photos {
		ids = append(ids, p.ID)
	}
	return ids
}

func toCategoryDTOs(categories []models.Category) []dto.CategoryDTO {
	out := make([]dto.CategoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, dto.CategoryDTO{Code: c.ID, Label: c.Label})
	}
	return out
}

// ToPhotoResponse converts a photo and its optional metadata to the API shape
func ToPhotoResponse(photo *models.Photo, metadata *models.PhotoMetadata) dto.PhotoResponse {
	resp := dto.PhotoResponse{
		ID:               photo.ID,
		BlobURI:          photo.BlobURI,
		OriginalFilename: photo.OriginalFilename,
		ContentType:      photo.ContentType,
		SizeBytes:        photo.SizeBytes,
		Active:           photo.IsActive(),
		Importance:       photo.Importance,
		Caption:          photo.Caption,
		Draft:            photo.Draft,
		FinalText:        photo.FinalText,
		CreatedAt:        utils.FormatISO8601(photo.CreatedAt),
	}
	if metadata != nil {
		resp.CapturedAt = utils.FormatISO8601Ptr(metadata.CapturedAt)
		resp.PlaceName = metadata.PlaceName
		resp.Latitude = metadata.Latitude
		resp.Longitude = metadata.Longitude
	}
	return resp
}
