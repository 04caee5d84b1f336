package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/trip-to-travel/app/dto"
	"github.com/amirphl/trip-to-travel/app/services"
	"github.com/amirphl/trip-to-travel/config"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/amirphl/trip-to-travel/models"
	"github.com/amirphl/trip-to-travel/repository"
	testingutil "github.com/amirphl/trip-to-travel/testing"
	"github.com/amirphl/trip-to-travel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubExtractor struct {
	meta services.ImageMetadata
	err  error
}

func (s *stubExtractor) Extract(data []byte) (services.ImageMetadata, error) {
	return s.meta, s.err
}

type conflictingPhotoRepo struct {
	repository.PhotoRepository
	deactivateErr error
}

func (r *conflictingPhotoRepo) Deactivate(ctx context.Context, photoIDs []uint) (int64, error) {
	return 0, r.deactivateErr
}

type pipelineEnv struct {
	db        *testingutil.TestDB
	fixtures  *testingutil.TestFixtures
	blobs     *services.MemoryBlobStore
	ai        *services.MockAIClient
	geocoder  *services.MockGeocoder
	extractor *stubExtractor

	journals      JournalFlow
	photos        PhotoFlow
	selection     SelectionFlow
	questionnaire QuestionnaireFlow
	drafts        DraftFlow
	export        ExportFlow
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()

	tdb := testingutil.MustSetupTestDB(t)
	db := tdb.DB
	env := &pipelineEnv{
		db:        tdb,
		blobs:     services.NewMemoryBlobStore("test-bucket"),
		ai:        services.NewMockAIClient(),
		geocoder:  services.NewMockGeocoder(),
		extractor: &stubExtractor{},
	}
	env.fixtures = testingutil.NewTestFixtures(tdb, env.blobs)

	journalRepo := repository.NewJournalRepository(db)
	intentRepo := repository.NewJournalIntentRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	metadataRepo := repository.NewPhotoMetadataRepository(db)
	questionnaireRepo := repository.NewPhotoQuestionnaireRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	storageCfg := config.StorageConfig{Provider: "memory", Bucket: "test-bucket", UploadConcurrency: 2, ImageURLTTL: time.Minute}
	pipelineCfg := config.PipelineConfig{MaxPhotosPerUpload: 10, MaxPhotoSizeBytes: 1 << 20}
	exportCfg := config.ExportConfig{FontSize: 12, MaxImagePixels: 800, JPEGQuality: 80, SignedURLTTL: time.Hour}
	log := logger.NewNop()

	env.journals = NewJournalFlow(journalRepo, intentRepo, photoRepo, categoryRepo, db)
	env.photos = NewPhotoFlow(journalRepo, photoRepo, metadataRepo, env.blobs, pipelineCfg, storageCfg, db, log)
	env.selection = NewSelectionFlow(journalRepo, intentRepo, photoRepo, metadataRepo, env.blobs, env.ai, env.extractor, env.geocoder, storageCfg, db, log)
	env.questionnaire = NewQuestionnaireFlow(photoRepo, questionnaireRepo, categoryRepo, db)
	env.drafts = NewDraftFlow(journalRepo, intentRepo, photoRepo, metadataRepo, questionnaireRepo, categoryRepo, env.blobs, env.ai, storageCfg, db)
	env.export = NewExportFlow(journalRepo, photoRepo, metadataRepo, env.blobs, services.NewFPDFRenderer(&exportCfg), exportCfg)
	return env
}

func (e *pipelineEnv) journalWithPhotos(t *testing.T, n int) (*models.Journal, []*models.Photo) {
	t.Helper()
	journal, err := e.fixtures.CreateTestJournal(nil)
	require.NoError(t, err)
	photos, err := e.fixtures.CreateTestPhotos(journal.ID, n)
	require.NoError(t, err)
	return journal, photos
}

func (e *pipelineEnv) activeIDs(t *testing.T, journalID uint) []uint {
	t.Helper()
	resp, err := e.photos.ListPhotos(context.Background(), &dto.ListPhotosRequest{JournalID: journalID})
	require.NoError(t, err)
	ids := make([]uint, 0, len(resp.Photos))
	for _, p := range resp.Photos {
		ids = append(ids, p.ID)
	}
	return ids
}

func categoryCodes(categories []dto.CategoryDTO) []int {
	codes := make([]int, 0, len(categories))
	for _, c := range categories {
		codes = append(codes, c.Code)
	}
	return codes
}

func TestJournalFlow_CreateAndCaptureIntent(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	journal, err := env.journals.CreateJournal(ctx, &dto.CreateJournalRequest{StyleCategory: utils.ToPtr(2)})
	require.NoError(t, err)
	require.NotNil(t, journal.StyleCategory)
	assert.Equal(t, 2, *journal.StyleCategory)
	assert.NotNil(t, journal.Style)

	t.Run("duplicates are collapsed", func(t *testing.T) {
		resp, err := env.journals.CaptureIntent(ctx, journal.ID, &dto.CaptureIntentRequest{
			Audiences: []int{1, 1, 3},
			Purposes:  []int{2},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{1, 3}, categoryCodes(resp.Audiences))
		assert.ElementsMatch(t, []int{2}, categoryCodes(resp.Purposes))
	})

	t.Run("second capture replaces the first", func(t *testing.T) {
		resp, err := env.journals.CaptureIntent(ctx, journal.ID, &dto.CaptureIntentRequest{
			Audiences: []int{6},
			Purposes:  []int{1, 4},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{6}, categoryCodes(resp.Audiences))
		assert.ElementsMatch(t, []int{1, 4}, categoryCodes(resp.Purposes))
	})

	t.Run("out of range audience", func(t *testing.T) {
		_, err := env.journals.CaptureIntent(ctx, journal.ID, &dto.CaptureIntentRequest{Audiences: []int{7}, Purposes: []int{1}})
		assert.True(t, IsValidation(err))
	})

	t.Run("unknown journal", func(t *testing.T) {
		_, err := env.journals.CaptureIntent(ctx, journal.ID+1000, &dto.CaptureIntentRequest{Audiences: []int{1}, Purposes: []int{1}})
		assert.True(t, IsNotFound(err))
	})

	t.Run("invalid style", func(t *testing.T) {
		_, err := env.journals.CreateJournal(ctx, &dto.CreateJournalRequest{StyleCategory: utils.ToPtr(9)})
		assert.True(t, IsValidation(err))
	})
}

func TestJournalFlow_ListCategories(t *testing.T) {
	env := newPipelineEnv(t)

	resp, err := env.journals.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, resp.Purposes, utils.MaxPurposeCategory)
	assert.Len(t, resp.Audiences, utils.MaxAudienceCategory)
	assert.Len(t, resp.Styles, utils.MaxStyleCategory)
	assert.Len(t, resp.Emotions, utils.MaxEmotionCategory)
	assert.Equal(t, dto.CategoryDTO{Code: 1, Label: "Rest and healing"}, resp.Purposes[0])
}

func TestJournalFlow_ListJournals(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		j, err := env.journals.CreateJournal(ctx, nil)
		require.NoError(t, err)
		ids = append(ids, j.ID)
	}

	resp, err := env.journals.ListJournals(ctx, &dto.ListJournalsRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	require.Len(t, resp.Journals, 2)
	assert.Equal(t, ids[2], resp.Journals[0].ID)

	_, err = env.journals.ListJournals(ctx, &dto.ListJournalsRequest{Limit: 1000})
	assert.True(t, IsValidation(err))
}

func TestPhotoFlow_IngestPhotos(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	journal, err := env.fixtures.CreateTestJournal(nil)
	require.NoError(t, err)
	jpg, err := testingutil.TestJPEG(16, 16)
	require.NoError(t, err)

	t.Run("stores blobs and links photos", func(t *testing.T) {
		resp, err := env.photos.IngestPhotos(ctx, &dto.IngestPhotosRequest{
			JournalID: journal.ID,
			Files: []dto.PhotoUpload{
				{Filename: "a.jpg", Data: jpg},
				{Filename: "b.jpg", Data: jpg},
			},
		})
		require.NoError(t, err)
		require.Len(t, resp.Photos, 2)
		assert.Equal(t, 2, env.blobs.Len())
		for _, p := range resp.Photos {
			assert.True(t, p.Active)
			assert.Equal(t, "image/jpeg", p.ContentType)
			assert.Equal(t, "image/jpeg", env.blobs.ContentType(p.BlobURI))
		}
		assert.Len(t, env.activeIDs(t, journal.ID), 2)
	})

	t.Run("rejects non images before storing anything", func(t *testing.T) {
		before := env.blobs.Len()
		_, err := env.photos.IngestPhotos(ctx, &dto.IngestPhotosRequest{
			JournalID: journal.ID,
			Files: []dto.PhotoUpload{
				{Filename: "ok.jpg", Data: jpg},
				{Filename: "notes.txt", Data: []byte("not an image")},
			},
		})
		assert.True(t, IsValidation(err))
		assert.Equal(t, "INVALID_FILE_TYPE", ErrorCode(err))
		assert.Equal(t, before, env.blobs.Len())
	})

	t.Run("unknown journal", func(t *testing.T) {
		_, err := env.photos.IngestPhotos(ctx, &dto.IngestPhotosRequest{
			JournalID: journal.ID + 1000,
			Files:     []dto.PhotoUpload{{Filename: "a.jpg", Data: jpg}},
		})
		assert.True(t, IsNotFound(err))
	})
}

func TestPhotoFlow_RemovePhoto(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	journal, photos := env.journalWithPhotos(t, 2)

	resp, err := env.photos.RemovePhoto(ctx, journal.ID, photos[0].ID)
	require.NoError(t, err)
	assert.True(t, resp.Deactivated)
	assert.True(t, resp.BlobDeleted)
	assert.Equal(t, []uint{photos[1].ID}, env.activeIDs(t, journal.ID))

	exists, err := env.blobs.Exists(ctx, photos[0].BlobURI)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSelectionFlow_SelectPrimary(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	journal, photos := env.journalWithPhotos(t, 5)

	scores := []float64{0.1, 0.9, 0.5, 0.7, 0.2}
	for i, p := range photos {
		env.ai.Scores[p.ID] = scores[i]
	}

	resp, err := env.selection.SelectPrimary(ctx, journal.ID, &dto.PrimarySelectionRequest{Count: 3})
	require.NoError(t, err)

	kept := make([]uint, 0, len(resp.Kept))
	for _, k := range resp.Kept {
		kept = append(kept, k.PhotoID)
	}
	assert.Equal(t, []uint{photos[1].ID, photos[3].ID, photos[2].ID}, kept)
	assert.ElementsMatch(t, []uint{photos[0].ID, photos[4].ID}, resp.DeactivatedIDs)
	assert.ElementsMatch(t, kept, env.activeIDs(t, journal.ID))

	stored, err := env.fixtures.ReloadTestPhoto(photos[1].ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Importance)
	assert.InDelta(t, 0.9, *stored.Importance, 1e-9)

	t.Run("a larger count never reactivates", func(t *testing.T) {
		resp, err := env.selection.SelectPrimary(ctx, journal.ID, &dto.PrimarySelectionRequest{Count: 5})
		require.NoError(t, err)
		assert.Len(t, resp.Kept, 3)
		assert.Empty(t, resp.DeactivatedIDs)
		assert.Len(t, env.activeIDs(t, journal.ID), 3)

		lastCall := env.ai.ScoreCalls[len(env.ai.ScoreCalls)-1]
		assert.Len(t, lastCall, 3)
	})

	t.Run("count must be positive", func(t *testing.T) {
		_, err := env.selection.SelectPrimary(ctx, journal.ID, &dto.PrimarySelectionRequest{Count: 0})
		assert.True(t, IsValidation(err))
	})

	t.Run("scoring failure changes nothing", func(t *testing.T) {
		env.ai.ScoreErr = errors.New("scoring unavailable")
		defer func() { env.ai.ScoreErr = nil }()

		_, err := env.selection.SelectPrimary(ctx, journal.ID, &dto.PrimarySelectionRequest{Count: 1})
		assert.True(t, IsUpstreamFailure(err))
		assert.Len(t, env.activeIDs(t, journal.ID), 3)
	})
}

func TestSelectionFlow_SelectPrimaryWithoutPhotos(t *testing.T) {
	env := newPipelineEnv(t)
	journal, err := env.fixtures.CreateTestJournal(nil)
	require.NoError(t, err)

	_, err = env.selection.SelectPrimary(context.Background(), journal.ID, &dto.PrimarySelectionRequest{Count: 1})
	assert.True(t, IsNoActivePhotos(err))
	assert.Empty(t, env.ai.ScoreCalls)
}

func TestSelectionFlow_DeactivatePhotos(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	journal, photos := env.journalWithPhotos(t, 3)
	other, otherPhotos := env.journalWithPhotos(t, 1)

	t.Run("ignores photos of other journals", func(t *testing.T) {
		resp, err := env.selection.DeactivatePhotos(ctx, journal.ID, &dto.DeactivatePhotosRequest{
			PhotoIDs: []uint{photos[0].ID, otherPhotos[0].ID},
		})
		require.NoError(t, err)
		assert.Equal(t, []uint{photos[0].ID}, resp.MatchedIDs)
		assert.Equal(t, int64(1), resp.Deactivated)
		assert.Len(t, env.activeIDs(t, other.ID), 1)
	})

	t.Run("repeating is harmless", func(t *testing.T) {
		resp, err := env.selection.DeactivatePhotos(ctx, journal.ID, &dto.DeactivatePhotosRequest{PhotoIDs: []uint{photos[0].ID}})
		require.NoError(t, err)
		assert.Equal(t, int64(0), resp.Deactivated)
	})

	t.Run("no match is not found", func(t *testing.T) {
		_, err := env.selection.DeactivatePhotos(ctx, journal.ID, &dto.DeactivatePhotosRequest{PhotoIDs: []uint{otherPhotos[0].ID}})
		assert.True(t, IsNotFound(err))
		assert.Equal(t, "NO_MATCHING_PHOTOS", ErrorCode(err))
	})

	t.Run("empty list", func(t *testing.T) {
		_, err := env.selection.DeactivatePhotos(ctx, journal.ID, &dto.DeactivatePhotosRequest{})
		assert.True(t, IsValidation(err))
	})
}

func TestSelectionFlow_DeactivatePhotosConstraintViolation(t *testing.T) {
	env := newPipelineEnv(t)
	journal, photos := env.journalWithPhotos(t, 2)

	db := env.db.DB
	photoRepo := &conflictingPhotoRepo{
		PhotoRepository: repository.NewPhotoRepository(db),
		deactivateErr:   gorm.ErrForeignKeyViolated,
	}
	flow := NewSelectionFlow(
		repository.NewJournalRepository(db), repository.NewJournalIntentRepository(db), photoRepo,
		repository.NewPhotoMetadataRepository(db), env.blobs, env.ai, env.extractor, env.geocoder,
		config.StorageConfig{ImageURLTTL: time.Minute}, db, logger.NewNop(),
	)

	_, err := flow.DeactivatePhotos(context.Background(), journal.ID, &dto.DeactivatePhotosRequest{PhotoIDs: []uint{photos[0].ID}})
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err))
	assert.Equal(t, "DEACTIVATION_FAILED", ErrorCode(err))
	assert.Len(t, env.activeIDs(t, journal.ID), 2)
}

func TestSelectionFlow_EnrichPhotos(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	journal, photos := env.journalWithPhotos(t, 2)

	captured := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	env.extractor.meta = services.ImageMetadata{
		CapturedAt: &captured,
		Latitude:   utils.ToPtr(35.6892),
		Longitude:  utils.ToPtr(51.3890),
	}
	env.geocoder.SetPlace(35.6892, 51.3890, "Tehran, Iran")

	resp, err := env.selection.EnrichPhotos(ctx, journal.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Captioned)
	assert.Equal(t, 0, resp.Degraded)
	require.Len(t, resp.Photos, 2)
	for _, p := range resp.Photos {
		require.NotNil(t, p.PlaceName)
		assert.Equal(t, "Tehran, Iran", *p.PlaceName)
		require.NotNil(t, p.CapturedAt)
		assert.Equal(t, utils.FormatISO8601(captured), *p.CapturedAt)
	}

	stored, err := env.fixtures.ReloadTestPhoto(photos[0].ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Caption)
	assert.NotEmpty(t, *stored.Caption)

	t.Run("rerun keeps one metadata row per photo", func(t *testing.T) {
		_, err := env.selection.EnrichPhotos(ctx, journal.ID)
		require.NoError(t, err)

		var count int64
		require.NoError(t, env.db.DB.Model(&models.PhotoMetadata{}).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("missing blob degrades one photo", func(t *testing.T) {
		_, err := env.blobs.Delete(ctx, photos[1].BlobURI)
		require.NoError(t, err)

		resp, err := env.selection.EnrichPhotos(ctx, journal.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Degraded)
		for _, p := range resp.Photos {
			if p.PhotoID == photos[1].ID {
				assert.NotEmpty(t, p.MetadataError)
				assert.Nil(t, p.PlaceName)
				assert.Nil(t, p.CapturedAt)
			} else {
				assert.Empty(t, p.MetadataError)
			}
		}
	})
}

func TestSelectionFlow_EnrichWithoutEXIF(t *testing.T) {
	env := newPipelineEnv(t)
	journal, _ := env.journalWithPhotos(t, 1)
	env.extractor.err = services.ErrNoEXIF

	resp, err := env.selection.EnrichPhotos(context.Background(), journal.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Degraded)
	require.Len(t, resp.Photos, 1)
	assert.Nil(t, resp.Photos[0].CapturedAt)
	assert.Zero(t, env.geocoder.Calls)
}

func TestSelectionFlow_SelectSecondary(t *testing.T) {
	t.Run("deactivates then enriches", func(t *testing.T) {
		env := newPipelineEnv(t)
		journal, photos := env.journalWithPhotos(t, 3)

		resp, err := env.selection.SelectSecondary(context.Background(), journal.ID, &dto.SecondarySelectionRequest{PhotoIDs: []uint{photos[2].ID}})
		require.NoError(t, err)
		assert.True(t, resp.DeactivationCommitted)
		require.NotNil(t, resp.Enrichment)
		assert.Len(t, resp.Enrichment.Photos, 2)

		last := env.ai.CaptionCalls[len(env.ai.CaptionCalls)-1]
		assert.Len(t, last, 2)
	})

	t.Run("caption failure keeps the deactivation", func(t *testing.T) {
		env := newPipelineEnv(t)
		journal, photos := env.journalWithPhotos(t, 2)
		env.ai.CaptionErr = errors.New("captioning unavailable")

		resp, err := env.selection.SelectSecondary(context.Background(), journal.ID, &dto.SecondarySelectionRequest{PhotoIDs: []uint{photos[0].ID}})
		require.Error(t, err)
		assert.True(t, IsUpstreamFailure(err))
		require.NotNil(t, resp)
		assert.True(t, resp.DeactivationCommitted)
		assert.Nil(t, resp.Enrichment)

		stored, err := env.fixtures.ReloadTestPhoto(photos[0].ID)
		require.NoError(t, err)
		assert.False(t, *stored.Active)
	})

	t.Run("without ids only enriches", func(t *testing.T) {
		env := newPipelineEnv(t)
		journal, _ := env.journalWithPhotos(t, 2)

		resp, err := env.selection.SelectSecondary(context.Background(), journal.ID, nil)
		require.NoError(t, err)
		assert.False(t, resp.DeactivationCommitted)
		assert.Nil(t, resp.Deactivation)
		assert.Equal(t, 2, resp.Enrichment.Captioned)
	})
}

func TestQuestionnaireFlow_SaveQuestionnaire(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	journal, photos := env.journalWithPhotos(t, 1)

	resp, err := env.questionnaire.SaveQuestionnaire(ctx, journal.ID, photos[0].ID, &dto.SaveQuestionnaireRequest{
		How:      "  We hiked up before sunrise  ",
		Emotions: []int{1, 2, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "We hiked up before sunrise", resp.How)
	assert.Equal(t, []int{1, 2}, categoryCodes(resp.Emotions))
	for _, e := range resp.Emotions {
		assert.NotEmpty(t, e.Label)
	}

	t.Run("resave replaces emotions", func(t *testing.T) {
		resp, err := env.questionnaire.SaveQuestionnaire(ctx, journal.ID, photos[0].ID, &dto.SaveQuestionnaireRequest{How: "Later", Emotions: []int{8}})
		require.NoError(t, err)
		assert.Equal(t, []int{8}, categoryCodes(resp.Emotions))

		var count int64
		require.NoError(t, env.db.DB.Model(&models.PhotoEmotion{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("unknown emotion", func(t *testing.T) {
		_, err := env.questionnaire.SaveQuestionnaire(ctx, journal.ID, photos[0].ID, &dto.SaveQuestionnaireRequest{Emotions: []int{9}})
		assert.True(t, IsValidation(err))
	})

	t.Run("photo of another journal", func(t *testing.T) {
		other, err := env.fixtures.CreateTestJournal(nil)
		require.NoError(t, err)
		_, err = env.questionnaire.SaveQuestionnaire(ctx, other.ID, photos[0].ID, &dto.SaveQuestionnaireRequest{How: "x"})
		assert.True(t, IsNotFound(err))
	})
}

func TestDraftFlow_GenerateAndCorrect(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()
	journal, photos := env.journalWithPhotos(t, 2)

	_, err := env.journals.CaptureIntent(ctx, journal.ID, &dto.CaptureIntentRequest{Audiences: []int{1}, Purposes: []int{1}})
	require.NoError(t, err)

	env.ai.DefaultResults = false
	env.ai.Drafts[photos[0].ID] = "We reached the lake at noon."

	resp, err := env.drafts.GenerateDrafts(ctx, journal.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{photos[1].ID}, resp.Missing)
	require.Len(t, resp.Drafts, 2)
	assert.Equal(t, "We reached the lake at noon.", resp.Drafts[0].FinalText)
	assert.Equal(t, "", resp.Drafts[1].Draft)

	call := env.ai.DraftCalls[len(env.ai.DraftCalls)-1]
	require.Len(t, call, 2)
	assert.NotEmpty(t, call[0].Audience)
	assert.NotNil(t, call[0].Emotions)

	t.Run("correction survives regeneration", func(t *testing.T) {
		fixed, err := env.drafts.CorrectFinalText(ctx, journal.ID, photos[0].ID, &dto.CorrectFinalTextRequest{Text: "We reached the lake just after noon."})
		require.NoError(t, err)
		assert.Equal(t, "We reached the lake just after noon.", fixed.FinalText)

		env.ai.Drafts[photos[0].ID] = "A new draft."
		resp, err := env.drafts.GenerateDrafts(ctx, journal.ID)
		require.NoError(t, err)
		assert.Equal(t, "A new draft.", resp.Drafts[0].Draft)
		assert.Equal(t, "We reached the lake just after noon.", resp.Drafts[0].FinalText)

		stored, err := env.fixtures.ReloadTestPhoto(photos[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "We reached the lake just after noon.", stored.ExportText())
	})

	t.Run("skipped photo is drafted on retry", func(t *testing.T) {
		skipped, err := env.fixtures.ReloadTestPhoto(photos[1].ID)
		require.NoError(t, err)
		assert.Nil(t, skipped.FinalText)

		env.ai.Drafts[photos[1].ID] = "Second attempt drafted this."
		resp, err := env.drafts.GenerateDrafts(ctx, journal.ID)
		require.NoError(t, err)
		assert.Empty(t, resp.Missing)
		assert.Equal(t, "Second attempt drafted this.", resp.Drafts[1].FinalText)

		stored, err := env.fixtures.ReloadTestPhoto(photos[1].ID)
		require.NoError(t, err)
		require.NotNil(t, stored.FinalText)
		assert.Equal(t, "Second attempt drafted this.", stored.ExportText())
	})

	t.Run("draft failure", func(t *testing.T) {
		env.ai.DraftErr = errors.New("drafting unavailable")
		defer func() { env.ai.DraftErr = nil }()

		_, err := env.drafts.GenerateDrafts(ctx, journal.ID)
		assert.True(t, IsUpstreamFailure(err))
	})

	t.Run("correction of unknown photo", func(t *testing.T) {
		_, err := env.drafts.CorrectFinalText(ctx, journal.ID, photos[1].ID+1000, &dto.CorrectFinalTextRequest{Text: "x"})
		assert.True(t, IsNotFound(err))
	})
}

func TestPipeline_EndToEnd(t *testing.T) {
	env := newPipelineEnv(t)
	ctx := context.Background()

	journal, err := env.journals.CreateJournal(ctx, &dto.CreateJournalRequest{StyleCategory: utils.ToPtr(1)})
	require.NoError(t, err)
	_, err = env.journals.CaptureIntent(ctx, journal.ID, &dto.CaptureIntentRequest{Audiences: []int{2}, Purposes: []int{1, 3}})
	require.NoError(t, err)

	jpg, err := testingutil.TestJPEG(32, 24)
	require.NoError(t, err)
	files := make([]dto.PhotoUpload, 0, 5)
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"} {
		files = append(files, dto.PhotoUpload{Filename: name, Data: jpg})
	}
	ingested, err := env.photos.IngestPhotos(ctx, &dto.IngestPhotosRequest{JournalID: journal.ID, Files: files})
	require.NoError(t, err)
	require.Len(t, ingested.Photos, 5)
	assert.Equal(t, 5, env.blobs.Len())

	scores := []float64{0.2, 0.8, 0.4, 0.9, 0.1}
	for i, p := range ingested.Photos {
		env.ai.Scores[p.ID] = scores[i]
	}

	primary, err := env.selection.SelectPrimary(ctx, journal.ID, &dto.PrimarySelectionRequest{Count: 3})
	require.NoError(t, err)
	assert.Len(t, primary.Kept, 3)
	assert.Len(t, primary.DeactivatedIDs, 2)

	active := env.activeIDs(t, journal.ID)
	assert.ElementsMatch(t, []uint{ingested.Photos[1].ID, ingested.Photos[2].ID, ingested.Photos[3].ID}, active)
	all, err := env.photos.ListPhotos(ctx, &dto.ListPhotosRequest{JournalID: journal.ID, IncludeInactive: true})
	require.NoError(t, err)
	inactive := 0
	for _, p := range all.Photos {
		if !p.Active {
			inactive++
		}
	}
	assert.Equal(t, 2, inactive)

	secondary, err := env.selection.SelectSecondary(ctx, journal.ID, &dto.SecondarySelectionRequest{PhotoIDs: []uint{ingested.Photos[2].ID}})
	require.NoError(t, err)
	assert.True(t, secondary.DeactivationCommitted)
	active = env.activeIDs(t, journal.ID)
	assert.ElementsMatch(t, []uint{ingested.Photos[1].ID, ingested.Photos[3].ID}, active)

	drafts, err := env.drafts.GenerateDrafts(ctx, journal.ID)
	require.NoError(t, err)
	assert.Empty(t, drafts.Missing)
	require.Len(t, drafts.Drafts, 2)
	for _, id := range active {
		stored, err := env.fixtures.ReloadTestPhoto(id)
		require.NoError(t, err)
		require.NotNil(t, stored.Draft)
		assert.NotEmpty(t, *stored.Draft)
		assert.Equal(t, *stored.Draft, stored.ExportText())
	}
}
