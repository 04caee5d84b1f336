package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/utils"
	"gorm.io/gorm"
)

// PhotoQuestionnaireRepositoryImpl implements PhotoQuestionnaireRepository interface.
type PhotoQuestionnaireRepositoryImpl struct {
	db *gorm.DB
}

// NewPhotoQuestionnaireRepository creates a new questionnaire repository.
func NewPhotoQuestionnaireRepository(db *gorm.DB) PhotoQuestionnaireRepository {
	return &PhotoQuestionnaireRepositoryImpl{db: db}
}

// Upsert stores the answer of a photo and replaces its emotion tags.
// Callers are expected to run it inside a transaction.
func (r *PhotoQuestionnaireRepositoryImpl) Upsert(ctx context.Context, photoID uint, how string, emotions []int) (*models.PhotoQuestionnaire, error) {
	db := dbFromContext(ctx, r.db)

	var q models.PhotoQuestionnaire
	err := db.Where("photo_id = ?", photoID).First(&q).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		q = models.PhotoQuestionnaire{PhotoID: photoID, How: how}
		if err := db.Create(&q).Error; err != nil {
			return nil, fmt.Errorf("failed to create questionnaire for photo %d: %w", photoID, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load questionnaire for photo %d: %w", photoID, err)
	default:
		q.How = how
		q.UpdatedAt = utils.UTCNow()
		if err := db.Model(&q).Updates(map[string]any{"how": how, "updated_at": q.UpdatedAt}).Error; err != nil {
			return nil, fmt.Errorf("failed to update questionnaire for photo %d: %w", photoID, err)
		}
	}

	if err := db.Where("questionnaire_id = ?", q.ID).Delete(&models.PhotoEmotion{}).Error; err != nil {
		return nil, fmt.Errorf("failed to clear emotions of questionnaire %d: %w", q.ID, err)
	}
	q.Emotions = make([]models.PhotoEmotion, 0, len(emotions))
	for _, code := range emotions {
		q.Emotions = append(q.Emotions, models.PhotoEmotion{QuestionnaireID: q.ID, EmotionCategory: code})
	}
	if len(q.Emotions) > 0 {
		if err := db.Create(&q.Emotions).Error; err != nil {
			return nil, fmt.Errorf("failed to save emotions of questionnaire %d: %w", q.ID, err)
		}
	}
	return &q, nil
}

// ByPhotoIDs returns questionnaires keyed by photo id.
func (r *PhotoQuestionnaireRepositoryImpl) ByPhotoIDs(ctx context.Context, photoIDs []uint) (map[uint]*models.PhotoQuestionnaire, error) {
	out := make(map[uint]*models.PhotoQuestionnaire, len(photoIDs))
	if len(photoIDs) == 0 {
		return out, nil
	}
	var rows []*models.PhotoQuestionnaire
	if err := dbFromContext(ctx, r.db).Where("photo_id IN ?", photoIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load questionnaires: %w", err)
	}
	for _, row := range rows {
		out[row.PhotoID] = row
	}
	return out, nil
}

type photoEmotionLabel struct {
	PhotoID uint
	Label   string
}

// EmotionLabelsByPhotoIDs returns emotion labels per photo in the order the join yields them.
func (r *PhotoQuestionnaireRepositoryImpl) EmotionLabelsByPhotoIDs(ctx context.Context, photoIDs []uint) (map[uint][]string, error) {
	out := make(map[uint][]string, len(photoIDs))
	if len(photoIDs) == 0 {
		return out, nil
	}
	var rows []photoEmotionLabel
	err := dbFromContext(ctx, r.db).
		Table("photo_emotions").
		Select("photo_questionnaires.photo_id AS photo_id, emotion_categories.label AS label").
		Joins("JOIN photo_questionnaires ON photo_questionnaires.id = photo_emotions.questionnaire_id").
		Joins("JOIN emotion_categories ON emotion_categories.id = photo_emotions.emotion_category").
		Where("photo_questionnaires.photo_id IN ?", photoIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load emotion labels: %w", err)
	}
	for _, row := range rows {
		out[row.PhotoID] = append(out[row.PhotoID], row.Label)
	}
	return out, nil
}
