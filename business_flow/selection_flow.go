package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/trip-to-travel/app/dto"
	"github.com/amirphl/trip-to-travel/app/services"
	"github.com/amirphl/trip-to-travel/config"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/repository"
	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
)

// SelectionFlow narrows the photo set of a journal and enriches what remains.
// DeactivatePhotos and EnrichPhotos commit independently; SelectSecondary runs one after the other.
type SelectionFlow interface {
	SelectPrimary(ctx context.Context, journalID uint, req *dto.PrimarySelectionRequest) (*dto.PrimarySelectionResponse, error)
	DeactivatePhotos(ctx context.Context, journalID uint, req *dto.DeactivatePhotosRequest) (*dto.DeactivatePhotosResponse, error)
	EnrichPhotos(ctx context.Context, journalID uint) (*dto.EnrichPhotosResponse, error)
	SelectSecondary(ctx context.Context, journalID uint, req *dto.SecondarySelectionRequest) (*dto.SecondarySelectionResponse, error)
}

// SelectionFlowImpl implements the selection business flow
type SelectionFlowImpl struct {
	journalRepo  repository.JournalRepository
	intentRepo   repository.JournalIntentRepository
	photoRepo    repository.PhotoRepository
	metadataRepo repository.PhotoMetadataRepository
	blobs        services.BlobStore
	ai           services.AIClient
	enricher     *metadataEnricher
	storageCfg   config.StorageConfig
	db           *gorm.DB
	log          *logger.Logger
}

// NewSelectionFlow creates a new selection flow instance
func NewSelectionFlow(
	journalRepo repository.JournalRepository,
	intentRepo repository.JournalIntentRepository,
	photoRepo repository.PhotoRepository,
	metadataRepo repository.PhotoMetadataRepository,
	blobs services.BlobStore,
	ai services.AIClient,
	extractor services.MetadataExtractor,
	geocoder services.Geocoder,
	storageCfg config.StorageConfig,
	db *gorm.DB,
	log *logger.Logger,
) SelectionFlow {
	return &SelectionFlowImpl{
		journalRepo:  journalRepo,
		intentRepo:   intentRepo,
		photoRepo:    photoRepo,
		metadataRepo: metadataRepo,
		blobs:        blobs,
		ai:           ai,
		enricher:     &metadataEnricher{blobs: blobs, extractor: extractor, geocoder: geocoder},
		storageCfg:   storageCfg,
		db:           db,
		log:          log,
	}
}

// SelectPrimary scores the active photos and keeps the Count most important ones.
// Only currently active photos are touched, so nothing is ever reactivated.
func (f *SelectionFlowImpl) SelectPrimary(ctx context.Context, journalID uint, req *dto.PrimarySelectionRequest) (resp *dto.PrimarySelectionResponse, err error) {
	defer func() { services.RecordStage(StagePrimary, err) }()

	if req == nil || req.Count < 1 {
		return nil, NewBusinessError("INVALID_SELECTION_COUNT", "Count must be at least 1", ErrInvalidSelectionCount)
	}
	if _, err := getJournal(ctx, f.journalRepo, journalID); err != nil {
		return nil, err
	}
	photos, err := getActivePhotos(ctx, f.photoRepo, journalID)
	if err != nil {
		return nil, err
	}

	purposes, err := f.intentRepo.PurposesByJournalID(ctx, journalID)
	if err != nil {
		return nil, NewBusinessError("INTENT_LOOKUP_FAILED", "Failed to load purposes", err)
	}
	labels := make([]string, 0, len(purposes))
	for _, p := range purposes {
		labels = append(labels, p.Label)
	}

	refs, err := imageRefs(ctx, f.blobs, photos, f.storageCfg.ImageURLTTL)
	if err != nil {
		return nil, err
	}
	scores, err := f.ai.ScoreImportance(ctx, refs, labels)
	if err != nil {
		return nil, upstreamError("AI_SCORING_FAILED", "Importance scoring failed", err)
	}

	ranked := RankByImportance(photoIDs(photos), scores)
	kept, dropped := SplitTopK(ranked, req.Count)

	droppedIDs := make([]uint, 0, len(dropped))
	for _, r := range dropped {
		droppedIDs = append(droppedIDs, r.PhotoID)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		for _, r := range ranked {
			if err := f.photoRepo.UpdateImportance(txCtx, r.PhotoID, r.Importance); err != nil {
				return err
			}
		}
		_, err := f.photoRepo.Deactivate(txCtx, droppedIDs)
		return err
	})
	if err != nil {
		return nil, NewBusinessError("PRIMARY_SELECTION_FAILED", "Failed to store selection", classifyWriteError(err))
	}

	resp = &dto.PrimarySelectionResponse{
		JournalID:      journalID,
		Requested:      req.Count,
		Kept:           make([]dto.RankedPhoto, 0, len(kept)),
		DeactivatedIDs: droppedIDs,
	}
	for _, r := range kept {
		resp.Kept = append(resp.Kept, dto.RankedPhoto{PhotoID: r.PhotoID, Importance: r.Importance})
	}
	return resp, nil
}

// DeactivatePhotos drops exactly the given photos of the journal and commits right away
func (f *SelectionFlowImpl) DeactivatePhotos(ctx context.Context, journalID uint, req *dto.DeactivatePhotosRequest) (resp *dto.DeactivatePhotosResponse, err error) {
	defer func() { services.RecordStage(StageDeactivation, err) }()

	if req == nil || len(req.PhotoIDs) == 0 {
		return nil, NewBusinessError("EMPTY_PHOTO_IDS", "At least one photo id is required", ErrEmptyPhotoIDs)
	}
	if _, err := getJournal(ctx, f.journalRepo, journalID); err != nil {
		return nil, err
	}

	resp = &dto.DeactivatePhotosResponse{JournalID: journalID}
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		matched, err := f.photoRepo.IDsInJournal(txCtx, journalID, req.PhotoIDs)
		if err != nil {
			return err
		}
		if len(matched) == 0 {
			return NewBusinessError("NO_MATCHING_PHOTOS", "None of the given photos belong to the journal", ErrNoMatchingPhotos)
		}
		n, err := f.photoRepo.Deactivate(txCtx, matched)
		if err != nil {
			return err
		}
		resp.MatchedIDs = matched
		resp.Deactivated = n
		return nil
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, NewBusinessError("DEACTIVATION_FAILED", "Failed to deactivate photos", classifyWriteError(err))
	}
	return resp, nil
}

// EnrichPhotos captions the active photos and stores their capture time and place.
// Per-photo extraction failures degrade to nulls; any other failure rolls back the whole run.
func (f *SelectionFlowImpl) EnrichPhotos(ctx context.Context, journalID uint) (resp *dto.EnrichPhotosResponse, err error) {
	defer func() { services.RecordStage(StageEnrichment, err) }()

	if _, err := getJournal(ctx, f.journalRepo, journalID); err != nil {
		return nil, err
	}
	photos, err := getActivePhotos(ctx, f.photoRepo, journalID)
	if err != nil {
		return nil, err
	}

	refs, err := imageRefs(ctx, f.blobs, photos, f.storageCfg.ImageURLTTL)
	if err != nil {
		return nil, err
	}
	captions, err := f.ai.Caption(ctx, refs)
	if err != nil {
		return nil, upstreamError("AI_CAPTION_FAILED", "Captioning failed", err)
	}

	batch := f.enricher.enrich(ctx, photos)
	for _, r := range batch {
		if r.Degraded() {
			f.log.Warn("photo metadata extraction failed", "journal_id", journalID, "photo_id", r.PhotoID, "error", r.Err)
		}
	}

	requested := make(map[uint]struct{}, len(photos))
	for _, p := range photos {
		requested[p.ID] = struct{}{}
	}
	written := make(map[uint]string, len(captions))

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		for i := range batch {
			if err := f.metadataRepo.Upsert(txCtx, &batch[i].Metadata); err != nil {
				return err
			}
		}
		for _, c := range captions {
			if _, ok := requested[c.ImageID]; !ok {
				continue
			}
			exists, err := f.photoRepo.UpdateCaption(txCtx, c.ImageID, c.Caption)
			if err != nil {
				return err
			}
			if exists {
				written[c.ImageID] = c.Caption
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("ENRICHMENT_FAILED", "Failed to store enrichment", classifyWriteError(err))
	}

	resp = &dto.EnrichPhotosResponse{
		JournalID: journalID,
		Photos:    make([]dto.EnrichedPhoto, 0, len(batch)),
		Captioned: len(written),
		Degraded:  batch.Degraded(),
	}
	for _, r := range batch {
		item := dto.EnrichedPhoto{
			PhotoID:    r.PhotoID,
			CapturedAt: utils.FormatISO8601Ptr(r.Metadata.CapturedAt),
			PlaceName:  r.Metadata.PlaceName,
			Latitude:   r.Metadata.Latitude,
			Longitude:  r.Metadata.Longitude,
		}
		if caption, ok := written[r.PhotoID]; ok {
			item.Caption = utils.ToPtr(caption)
		}
		if r.Err != nil {
			item.MetadataError = r.Err.Error()
		}
		resp.Photos = append(resp.Photos, item)
	}
	return resp, nil
}

// SelectSecondary deactivates the given photos, if any, then enriches the rest.
// When enrichment fails the deactivation stays committed and the partial response is returned with the error.
func (f *SelectionFlowImpl) SelectSecondary(ctx context.Context, journalID uint, req *dto.SecondarySelectionRequest) (*dto.SecondarySelectionResponse, error) {
	resp := &dto.SecondarySelectionResponse{JournalID: journalID}

	if req != nil && len(req.PhotoIDs) > 0 {
		deactivation, err := f.DeactivatePhotos(ctx, journalID, &dto.DeactivatePhotosRequest{PhotoIDs: req.PhotoIDs})
		if err != nil {
			return nil, err
		}
		resp.Deactivation = deactivation
		resp.DeactivationCommitted = true
	}

	enrichment, err := f.EnrichPhotos(ctx, journalID)
	if err != nil {
		return resp, err
	}
	resp.Enrichment = enrichment
	return resp, nil
}

// imageRefs signs a short-lived URL per photo for the AI service
func imageRefs(ctx context.Context, blobs services.BlobStore, photos []*models.Photo, ttl time.Duration) ([]services.ImageRef, error) {
	if ttl <= 0 {
		ttl = utils.ImageSignedURLTTL
	}
	refs := make([]services.ImageRef, 0, len(photos))
	for _, p := range photos {
		url, err := blobs.SignedURL(ctx, p.BlobURI, ttl)
		if err != nil {
			return nil, upstreamError("SIGNED_URL_FAILED", "Failed to sign photo URL", err)
		}
		refs = append(refs, services.ImageRef{ImageID: p.ID, ImageURL: url})
	}
	return refs, nil
}
