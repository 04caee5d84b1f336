package businessflow

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/amirphl/trip-to-travel/app/dto"
	"github.com/amirphl/trip-to-travel/app/services"
	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/repository"
	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
)

const maxQuestionnaireRunes = 4000

// QuestionnaireFlow records how a photo felt to the traveller
type QuestionnaireFlow interface {
	SaveQuestionnaire(ctx context.Context, journalID, photoID uint, req *dto.SaveQuestionnaireRequest) (*dto.QuestionnaireResponse, error)
}

// QuestionnaireFlowImpl implements the questionnaire business flow
type QuestionnaireFlowImpl struct {
	photoRepo         repository.PhotoRepository
	questionnaireRepo repository.PhotoQuestionnaireRepository
	categoryRepo      repository.CategoryRepository
	db                *gorm.DB
}

// NewQuestionnaireFlow creates a new questionnaire flow instance
func NewQuestionnaireFlow(
	photoRepo repository.PhotoRepository,
	questionnaireRepo repository.PhotoQuestionnaireRepository,
	categoryRepo repository.CategoryRepository,
	db *gorm.DB,
) QuestionnaireFlow {
	return &QuestionnaireFlowImpl{
		photoRepo:         photoRepo,
		questionnaireRepo: questionnaireRepo,
		categoryRepo:      categoryRepo,
		db:                db,
	}
}

// SaveQuestionnaire upserts the answer of a photo and replaces its emotion tags
func (f *QuestionnaireFlowImpl) SaveQuestionnaire(ctx context.Context, journalID, photoID uint, req *dto.SaveQuestionnaireRequest) (resp *dto.QuestionnaireResponse, err error) {
	defer func() { services.RecordStage(StageQuestionnaire, err) }()

	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "Request body is required", ErrInvalidRequest)
	}
	how := strings.TrimSpace(req.How)
	if utf8.RuneCountInString(how) > maxQuestionnaireRunes {
		return nil, NewBusinessErrorf("ANSWER_TOO_LONG", "Answer must be at most %d characters", ErrQuestionnaireTooLong, maxQuestionnaireRunes)
	}
	emotions := dedupeCodes(req.Emotions)
	if !utils.InRange(emotions, utils.MinCategoryCode, utils.MaxEmotionCategory) {
		return nil, NewBusinessError("INVALID_EMOTION_CATEGORY", "Emotion categories must be between 1 and 8", ErrInvalidCategory)
	}

	if _, err := getPhotoInJournal(ctx, f.photoRepo, journalID, photoID); err != nil {
		return nil, err
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		_, err := f.questionnaireRepo.Upsert(txCtx, photoID, how, emotions)
		return err
	})
	if err != nil {
		return nil, NewBusinessError("QUESTIONNAIRE_SAVE_FAILED", "Failed to save questionnaire", classifyWriteError(err))
	}

	all, err := f.categoryRepo.List(ctx, models.CategoryEmotion)
	if err != nil {
		return nil, NewBusinessError("CATEGORY_LIST_FAILED", "Failed to list emotions", err)
	}
	labels := make(map[int]string, len(all))
	for _, c := range all {
		labels[c.ID] = c.Label
	}
	tags := make([]dto.CategoryDTO, 0, len(emotions))
	for _, code := range emotions {
		tags = append(tags, dto.CategoryDTO{Code: code, Label: labels[code]})
	}

	return &dto.QuestionnaireResponse{
		PhotoID:  photoID,
		How:      how,
		Emotions: tags,
	}, nil
}
