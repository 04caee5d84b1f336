package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/trip-to-travel/app/dto"
	"github.com/amirphl/trip-to-travel/app/services"
	"github.com/amirphl/trip-to-travel/config"
	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/repository"
	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
)

// DraftFlow generates per-photo travelogue text and accepts corrections
type DraftFlow interface {
	GenerateDrafts(ctx context.Context, journalID uint) (*dto.GenerateDraftsResponse, error)
	CorrectFinalText(ctx context.Context, journalID, photoID uint, req *dto.CorrectFinalTextRequest) (*dto.FinalTextResponse, error)
}

// DraftFlowImpl implements the draft business flow
type DraftFlowImpl struct {
	journalRepo       repository.JournalRepository
	intentRepo        repository.JournalIntentRepository
	photoRepo         repository.PhotoRepository
	metadataRepo      repository.PhotoMetadataRepository
	questionnaireRepo repository.PhotoQuestionnaireRepository
	categoryRepo      repository.CategoryRepository
	blobs             services.BlobStore
	ai                services.AIClient
	storageCfg        config.StorageConfig
	db                *gorm.DB
}

// NewDraftFlow creates a new draft flow instance
func NewDraftFlow(
	journalRepo repository.JournalRepository,
	intentRepo repository.JournalIntentRepository,
	photoRepo repository.PhotoRepository,
	metadataRepo repository.PhotoMetadataRepository,
	questionnaireRepo repository.PhotoQuestionnaireRepository,
	categoryRepo repository.CategoryRepository,
	blobs services.BlobStore,
	ai services.AIClient,
	storageCfg config.StorageConfig,
	db *gorm.DB,
) DraftFlow {
	return &DraftFlowImpl{
		journalRepo:       journalRepo,
		intentRepo:        intentRepo,
		photoRepo:         photoRepo,
		metadataRepo:      metadataRepo,
		questionnaireRepo: questionnaireRepo,
		categoryRepo:      categoryRepo,
		blobs:             blobs,
		ai:                ai,
		storageCfg:        storageCfg,
		db:                db,
	}
}

// GenerateDrafts sends every signal gathered for the active photos to the AI service in one call
// and stores the returned drafts. Photos the service skipped get an empty draft.
func (f *DraftFlowImpl) GenerateDrafts(ctx context.Context, journalID uint) (resp *dto.GenerateDraftsResponse, err error) {
	defer func() { services.RecordStage(StageDrafting, err) }()

	journal, err := getJournal(ctx, f.journalRepo, journalID)
	if err != nil {
		return nil, err
	}
	photos, err := getActivePhotos(ctx, f.photoRepo, journalID)
	if err != nil {
		return nil, err
	}

	items, err := f.buildDraftItems(ctx, journal, photos)
	if err != nil {
		return nil, err
	}

	drafts, err := f.ai.Draft(ctx, items)
	if err != nil {
		return nil, upstreamError("AI_DRAFT_FAILED", "Draft generation failed", err)
	}
	byID := make(map[uint]string, len(drafts))
	for _, d := range drafts {
		byID[d.ImageID] = d.Draft
	}

	resp = &dto.GenerateDraftsResponse{
		JournalID: journalID,
		Drafts:    make([]dto.PhotoDraft, 0, len(photos)),
		Missing:   []uint{},
	}
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		for _, p := range photos {
			draft, ok := byID[p.ID]
			if !ok || draft == "" {
				// Skipped photos keep their previous draft and finalized text.
				resp.Missing = append(resp.Missing, p.ID)
				resp.Drafts = append(resp.Drafts, dto.PhotoDraft{PhotoID: p.ID, Draft: utils.Deref(p.Draft), FinalText: p.ExportText()})
				continue
			}
			if err := f.photoRepo.UpdateDraft(txCtx, p.ID, draft); err != nil {
				return err
			}
			final := draft
			if p.FinalText != nil {
				final = *p.FinalText
			}
			resp.Drafts = append(resp.Drafts, dto.PhotoDraft{PhotoID: p.ID, Draft: draft, FinalText: final})
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("DRAFT_SAVE_FAILED", "Failed to store drafts", classifyWriteError(err))
	}
	return resp, nil
}

func (f *DraftFlowImpl) buildDraftItems(ctx context.Context, journal *models.Journal, photos []*models.Photo) ([]services.DraftItem, error) {
	audiences, err := f.intentRepo.AudiencesByJournalID(ctx, journal.ID)
	if err != nil {
		return nil, NewBusinessError("INTENT_LOOKUP_FAILED", "Failed to load audiences", err)
	}
	audienceLabels := make([]string, 0, len(audiences))
	for _, a := range audiences {
		audienceLabels = append(audienceLabels, a.Label)
	}

	var style *string
	if journal.StyleCategory != nil {
		if style, err = f.categoryRepo.Label(ctx, models.CategoryStyle, *journal.StyleCategory); err != nil {
			return nil, NewBusinessError("CATEGORY_LOOKUP_FAILED", "Failed to load style label", err)
		}
	}

	ids := photoIDs(photos)
	questionnaires, err := f.questionnaireRepo.ByPhotoIDs(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("QUESTIONNAIRE_LOOKUP_FAILED", "Failed to load questionnaires", err)
	}
	emotions, err := f.questionnaireRepo.EmotionLabelsByPhotoIDs(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("QUESTIONNAIRE_LOOKUP_FAILED", "Failed to load emotions", err)
	}
	metadata, err := f.metadataRepo.ByPhotoIDs(ctx, ids)
	if err != nil {
		return nil, NewBusinessError("METADATA_LOOKUP_FAILED", "Failed to load photo metadata", err)
	}

	refs, err := imageRefs(ctx, f.blobs, photos, f.storageCfg.ImageURLTTL)
	if err != nil {
		return nil, err
	}

	items := make([]services.DraftItem, 0, len(photos))
	for i, p := range photos {
		item := services.DraftItem{
			ImageID:  p.ID,
			ImageURL: refs[i].ImageURL,
			Audience: strings.Join(audienceLabels, ", "),
			Style:    style,
			Emotions: emotions[p.ID],
			Caption:  p.Caption,
		}
		if item.Emotions == nil {
			item.Emotions = []string{}
		}
		if q, ok := questionnaires[p.ID]; ok {
			item.How = utils.ToPtr(q.How)
		}
		if m, ok := metadata[p.ID]; ok {
			item.CapturedAt = utils.FormatISO8601Ptr(m.CapturedAt)
			item.Place = m.PlaceName
		}
		items = append(items, item)
	}
	return items, nil
}

// CorrectFinalText overwrites the text printed under a photo
func (f *DraftFlowImpl) CorrectFinalText(ctx context.Context, journalID, photoID uint, req *dto.CorrectFinalTextRequest) (resp *dto.FinalTextResponse, err error) {
	defer func() { services.RecordStage(StageCorrection, err) }()

	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "Request body is required", ErrInvalidRequest)
	}
	if _, err := getPhotoInJournal(ctx, f.photoRepo, journalID, photoID); err != nil {
		return nil, err
	}
	if err := f.photoRepo.UpdateFinalText(ctx, photoID, req.Text); err != nil {
		return nil, NewBusinessError("FINAL_TEXT_SAVE_FAILED", "Failed to store final text", classifyWriteError(err))
	}
	return &dto.FinalTextResponse{PhotoID: photoID, FinalText: req.Text}, nil
}
