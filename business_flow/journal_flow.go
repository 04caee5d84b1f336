package businessflow

import (
	"context"

	"github.com/amirphl/trip-to-travel/app/dto"
	"github.com/amirphl/trip-to-travel/app/services"
	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/repository"
	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
)

const (
	defaultJournalPageSize = 20
	maxJournalPageSize     = 100
)

// JournalFlow handles journal creation, lookup and intent capture
type JournalFlow interface {
	CreateJournal(ctx context.Context, req *dto.CreateJournalRequest) (*dto.JournalResponse, error)
	ListJournals(ctx context.Context, req *dto.ListJournalsRequest) (*dto.ListJournalsResponse, error)
	GetJournal(ctx context.Context, journalID uint) (*dto.JournalResponse, error)
	UpdateJournalStyle(ctx context.Context, journalID uint, req *dto.UpdateJournalRequest) (*dto.JournalResponse, error)
	CaptureIntent(ctx context.Context, journalID uint, req *dto.CaptureIntentRequest) (*dto.CaptureIntentResponse, error)
	ListCategories(ctx context.Context) (*dto.CategoriesResponse, error)
}

// JournalFlowImpl implements the journal business flow
type JournalFlowImpl struct {
	journalRepo  repository.JournalRepository
	intentRepo   repository.JournalIntentRepository
	photoRepo    repository.PhotoRepository
	categoryRepo repository.CategoryRepository
	db           *gorm.DB
}

// NewJournalFlow creates a new journal flow instance
func NewJournalFlow(
	journalRepo repository.JournalRepository,
	intentRepo repository.JournalIntentRepository,
	photoRepo repository.PhotoRepository,
	categoryRepo repository.CategoryRepository,
	db *gorm.DB,
) JournalFlow {
	return &JournalFlowImpl{
		journalRepo:  journalRepo,
		intentRepo:   intentRepo,
		photoRepo:    photoRepo,
		categoryRepo: categoryRepo,
		db:           db,
	}
}

// CreateJournal starts a new trip record
func (f *JournalFlowImpl) CreateJournal(ctx context.Context, req *dto.CreateJournalRequest) (resp *dto.JournalResponse, err error) {
	defer func() { services.RecordStage(StageEntryCreation, err) }()

	journal := &models.Journal{}
	if req != nil && req.StyleCategory != nil {
		if !utils.InRange([]int{*req.StyleCategory}, utils.MinCategoryCode, utils.MaxStyleCategory) {
			return nil, NewBusinessError("INVALID_STYLE_CATEGORY", "Style category must be between 1 and 3", ErrInvalidCategory)
		}
		journal.StyleCategory = utils.ToPtr(*req.StyleCategory)
	}

	if err := f.journalRepo.Save(ctx, journal); err != nil {
		return nil, NewBusinessError("JOURNAL_CREATION_FAILED", "Failed to create journal", classifyWriteError(err))
	}

	return f.buildJournalResponse(ctx, journal)
}

// ListJournals returns one page of journals, newest first
func (f *JournalFlowImpl) ListJournals(ctx context.Context, req *dto.ListJournalsRequest) (*dto.ListJournalsResponse, error) {
	limit, offset := defaultJournalPageSize, 0
	if req != nil {
		if req.Limit != 0 {
			limit = req.Limit
		}
		offset = req.Offset
	}
	if limit < 1 || limit > maxJournalPageSize || offset < 0 {
		return nil, NewBusinessError("INVALID_PAGINATION", "Invalid pagination", ErrInvalidPagination)
	}

	total, err := f.journalRepo.Count(ctx, models.JournalFilter{})
	if err != nil {
		return nil, NewBusinessError("JOURNAL_LIST_FAILED", "Failed to count journals", err)
	}
	journals, err := f.journalRepo.ByFilter(ctx, models.JournalFilter{}, "id DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("JOURNAL_LIST_FAILED", "Failed to list journals", err)
	}

	items := make([]dto.JournalResponse, 0, len(journals))
	for _, j := range journals {
		item, err := f.buildJournalResponse(ctx, j)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return &dto.ListJournalsResponse{
		Journals: items,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

// GetJournal returns one journal with its selections and photo counts
func (f *JournalFlowImpl) GetJournal(ctx context.Context, journalID uint) (*dto.JournalResponse, error) {
	journal, err := getJournal(ctx, f.journalRepo, journalID)
	if err != nil {
		return nil, err
	}
	return f.buildJournalResponse(ctx, journal)
}

// UpdateJournalStyle changes the writing style used for drafting
func (f *JournalFlowImpl) UpdateJournalStyle(ctx context.Context, journalID uint, req *dto.UpdateJournalRequest) (*dto.JournalResponse, error) {
	if req == nil || !utils.InRange([]int{req.StyleCategory}, utils.MinCategoryCode, utils.MaxStyleCategory) {
		return nil, NewBusinessError("INVALID_STYLE_CATEGORY", "Style category must be between 1 and 3", ErrInvalidCategory)
	}

	if _, err := getJournal(ctx, f.journalRepo, journalID); err != nil {
		return nil, err
	}
	if err := f.journalRepo.UpdateStyle(ctx, journalID, req.StyleCategory); err != nil {
		return nil, NewBusinessError("JOURNAL_UPDATE_FAILED", "Failed to update journal", classifyWriteError(err))
	}

	journal, err := getJournal(ctx, f.journalRepo, journalID)
	if err != nil {
		return nil, err
	}
	return f.buildJournalResponse(ctx, journal)
}

// CaptureIntent replaces who travelled and why. Duplicate codes are collapsed.
func (f *JournalFlowImpl) CaptureIntent(ctx context.Context, journalID uint, req *dto.CaptureIntentRequest) (resp *dto.CaptureIntentResponse, err error) {
	defer func() { services.RecordStage(StageIntentCapture, err) }()

	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "Request body is required", ErrInvalidRequest)
	}
	audiences := dedupeCodes(req.Audiences)
	purposes := dedupeCodes(req.Purposes)
	if len(audiences) == 0 || !utils.InRange(audiences, utils.MinCategoryCode, utils.MaxAudienceCategory) {
		return nil, NewBusinessError("INVALID_AUDIENCE_CATEGORY", "Audience categories must be between 1 and 6", ErrInvalidCategory)
	}
	if len(purposes) == 0 || !utils.InRange(purposes, utils.MinCategoryCode, utils.MaxPurposeCategory) {
		return nil, NewBusinessError("INVALID_PURPOSE_CATEGORY", "Purpose categories must be between 1 and 4", ErrInvalidCategory)
	}

	if _, err := getJournal(ctx, f.journalRepo, journalID); err != nil {
		return nil, err
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.intentRepo.ReplaceAudiences(txCtx, journalID, audiences); err != nil {
			return err
		}
		return f.intentRepo.ReplacePurposes(txCtx, journalID, purposes)
	})
	if err != nil {
		return nil, NewBusinessError("INTENT_CAPTURE_FAILED", "Failed to store journal intent", classifyWriteError(err))
	}

	storedAudiences, err := f.intentRepo.AudiencesByJournalID(ctx, journalID)
	if err != nil {
		return nil, NewBusinessError("INTENT_LOOKUP_FAILED", "Failed to load audiences", err)
	}
	storedPurposes, err := f.intentRepo.PurposesByJournalID(ctx, journalID)
	if err != nil {
		return nil, NewBusinessError("INTENT_LOOKUP_FAILED", "Failed to load purposes", err)
	}

	return &dto.CaptureIntentResponse{
		JournalID: journalID,
		Audiences: toCategoryDTOs(storedAudiences),
		Purposes:  toCategoryDTOs(storedPurposes),
	}, nil
}

// ListCategories returns every lookup table
func (f *JournalFlowImpl) ListCategories(ctx context.Context) (*dto.CategoriesResponse, error) {
	resp := &dto.CategoriesResponse{}
	targets := []struct {
		kind models.CategoryKind
		dst  *[]dto.CategoryDTO
	}{
		{models.CategoryPurpose, &resp.Purposes},
		{models.CategoryAudience, &resp.Audiences},
		{models.CategoryStyle, &resp.Styles},
		{models.CategoryEmotion, &resp.Emotions},
	}
	for _, t := range targets {
		rows, err := f.categoryRepo.List(ctx, t.kind)
		if err != nil {
			return nil, NewBusinessError("CATEGORY_LIST_FAILED", "Failed to list categories", err)
		}
		*t.dst = toCategoryDTOs(rows)
	}
	return resp, nil
}

func (f *JournalFlowImpl) buildJournalResponse(ctx context.Context, journal *models.Journal) (*dto.JournalResponse, error) {
	purposes, err := f.intentRepo.PurposesByJournalID(ctx, journal.ID)
	if err != nil {
		return nil, NewBusinessError("INTENT_LOOKUP_FAILED", "Failed to load purposes", err)
	}
	audiences, err := f.intentRepo.AudiencesByJournalID(ctx, journal.ID)
	if err != nil {
		return nil, NewBusinessError("INTENT_LOOKUP_FAILED", "Failed to load audiences", err)
	}

	journalID := journal.ID
	total, err := f.photoRepo.Count(ctx, models.PhotoFilter{JournalID: &journalID})
	if err != nil {
		return nil, NewBusinessError("PHOTO_LOOKUP_FAILED", "Failed to count photos", err)
	}
	active, err := f.photoRepo.Count(ctx, models.PhotoFilter{JournalID: &journalID, Active: utils.ToPtr(true)})
	if err != nil {
		return nil, NewBusinessError("PHOTO_LOOKUP_FAILED", "Failed to count photos", err)
	}

	var style *string
	if journal.StyleCategory != nil {
		style, err = f.categoryRepo.Label(ctx, models.CategoryStyle, *journal.StyleCategory)
		if err != nil {
			return nil, NewBusinessError("CATEGORY_LOOKUP_FAILED", "Failed to load style label", err)
		}
	}

	return &dto.JournalResponse{
		ID:               journal.ID,
		StyleCategory:    journal.StyleCategory,
		Style:            style,
		Purposes:         toCategoryDTOs(purposes),
		Audiences:        toCategoryDTOs(audiences),
		PhotoCount:       total,
		ActivePhotoCount: active,
		CreatedAt:        utils.FormatISO8601(journal.CreatedAt),
		UpdatedAt:        utils.FormatISO8601(journal.UpdatedAt),
	}, nil
}

// dedupeCodes drops repeated codes, keeping first occurrences in order
func dedupeCodes(codes []int) []int {
	seen := make(map[int]struct{}, len(codes))
	out := make([]int, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
