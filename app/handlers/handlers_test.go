package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amirphl/trip-to-travel/app/dto"
	businessflow "github.com/amirphl/trip-to-travel/business_flow"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJournalFlow struct {
	businessflow.JournalFlow
	createJournal func(ctx context.Context, req *dto.CreateJournalRequest) (*dto.JournalResponse, error)
	getJournal    func(ctx context.Context, journalID uint) (*dto.JournalResponse, error)
	captureIntent func(ctx context.Context, journalID uint, req *dto.CaptureIntentRequest) (*dto.CaptureIntentResponse, error)
}

func (f *fakeJournalFlow) CreateJournal(ctx context.Context, req *dto.CreateJournalRequest) (*dto.JournalResponse, error) {
	return f.createJournal(ctx, req)
}

func (f *fakeJournalFlow) GetJournal(ctx context.Context, journalID uint) (*dto.JournalResponse, error) {
	return f.getJournal(ctx, journalID)
}

func (f *fakeJournalFlow) CaptureIntent(ctx context.Context, journalID uint, req *dto.CaptureIntentRequest) (*dto.CaptureIntentResponse, error) {
	return f.captureIntent(ctx, journalID, req)
}

type fakePhotoFlow struct {
	businessflow.PhotoFlow
	ingest func(ctx context.Context, req *dto.IngestPhotosRequest) (*dto.IngestPhotosResponse, error)
}

func (f *fakePhotoFlow) IngestPhotos(ctx context.Context, req *dto.IngestPhotosRequest) (*dto.IngestPhotosResponse, error) {
	return f.ingest(ctx, req)
}

type fakeSelectionFlow struct {
	businessflow.SelectionFlow
	selectPrimary   func(ctx context.Context, journalID uint, req *dto.PrimarySelectionRequest) (*dto.PrimarySelectionResponse, error)
	selectSecondary func(ctx context.Context, journalID uint, req *dto.SecondarySelectionRequest) (*dto.SecondarySelectionResponse, error)
}

func (f *fakeSelectionFlow) SelectPrimary(ctx context.Context, journalID uint, req *dto.PrimarySelectionRequest) (*dto.PrimarySelectionResponse, error) {
	return f.selectPrimary(ctx, journalID, req)
}

func (f *fakeSelectionFlow) SelectSecondary(ctx context.Context, journalID uint, req *dto.SecondarySelectionRequest) (*dto.SecondarySelectionResponse, error) {
	return f.selectSecondary(ctx, journalID, req)
}

type fakeExportFlow struct {
	businessflow.ExportFlow
	sheet func(ctx context.Context, journalID uint) (string, []byte, error)
}

func (f *fakeExportFlow) ExportSheet(ctx context.Context, journalID uint) (string, []byte, error) {
	return f.sheet(ctx, journalID)
}

type apiBody struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, apiBody) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body apiBody
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return resp, body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestJournalHandler_CreateJournal(t *testing.T) {
	var got *dto.CreateJournalRequest
	flow := &fakeJournalFlow{createJournal: func(ctx context.Context, req *dto.CreateJournalRequest) (*dto.JournalResponse, error) {
		got = req
		return &dto.JournalResponse{ID: 7, StyleCategory: req.StyleCategory}, nil
	}}
	app := fiber.New()
	app.Post("/journals", NewJournalHandler(flow, logger.NewNop()).CreateJournal)

	t.Run("empty body", func(t *testing.T) {
		resp, body := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/journals", nil))
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.True(t, body.Success)
		require.NotNil(t, got)
		assert.Nil(t, got.StyleCategory)
	})

	t.Run("style out of range", func(t *testing.T) {
		resp, body := doRequest(t, app, jsonRequest(http.MethodPost, "/journals", `{"style_category":4}`))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		resp, body := doRequest(t, app, jsonRequest(http.MethodPost, "/journals", `{`))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_REQUEST", body.Error.Code)
	})
}

func TestHandleFlowError_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		wantCode string
	}{
		{
			name:     "not found",
			err:      businessflow.NewBusinessError("JOURNAL_NOT_FOUND", "Journal not found", businessflow.ErrJournalNotFound),
			status:   fiber.StatusNotFound,
			wantCode: "JOURNAL_NOT_FOUND",
		},
		{
			name:     "validation",
			err:      businessflow.NewBusinessError("INVALID_AUDIENCE_CATEGORY", "bad", businessflow.ErrInvalidCategory),
			status:   fiber.StatusBadRequest,
			wantCode: "INVALID_AUDIENCE_CATEGORY",
		},
		{
			name:     "constraint",
			err:      businessflow.NewBusinessError("INTENT_CAPTURE_FAILED", "conflict", businessflow.ErrConstraintViolation),
			status:   fiber.StatusConflict,
			wantCode: "INTENT_CAPTURE_FAILED",
		},
		{
			name:     "upstream",
			err:      businessflow.NewBusinessError("AI_SCORING_FAILED", "scoring failed", businessflow.ErrUpstreamFailure),
			status:   fiber.StatusBadGateway,
			wantCode: "AI_SCORING_FAILED",
		},
		{
			name:     "unclassified",
			err:      errors.New("database is gone"),
			status:   fiber.StatusInternalServerError,
			wantCode: "JOURNAL_GET_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := &fakeJournalFlow{getJournal: func(ctx context.Context, journalID uint) (*dto.JournalResponse, error) {
				return nil, tt.err
			}}
			app := fiber.New()
			app.Get("/journals/:id", NewJournalHandler(flow, logger.NewNop()).GetJournal)

			resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/journals/1", nil))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			if tt.status == fiber.StatusInternalServerError {
				assert.NotContains(t, body.Message, "database is gone")
			}
		})
	}
}

func TestJournalHandler_InvalidID(t *testing.T) {
	app := fiber.New()
	app.Get("/journals/:id", NewJournalHandler(&fakeJournalFlow{}, nil).GetJournal)

	for _, id := range []string{"0", "abc", "-3"} {
		t.Run(id, func(t *testing.T) {
			resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/journals/"+id, nil))
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "INVALID_JOURNAL_ID", body.Error.Code)
		})
	}
}

func TestJournalHandler_CaptureIntentValidation(t *testing.T) {
	called := false
	flow := &fakeJournalFlow{captureIntent: func(ctx context.Context, journalID uint, req *dto.CaptureIntentRequest) (*dto.CaptureIntentResponse, error) {
		called = true
		return &dto.CaptureIntentResponse{JournalID: journalID}, nil
	}}
	app := fiber.New()
	app.Put("/journals/:id/intent", NewJournalHandler(flow, nil).CaptureIntent)

	resp, body := doRequest(t, app, jsonRequest(http.MethodPut, "/journals/3/intent", `{"audiences":[],"purposes":[5]}`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.False(t, called)

	resp, _ = doRequest(t, app, jsonRequest(http.MethodPut, "/journals/3/intent", `{"audiences":[1,2],"purposes":[4]}`))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, called)
}

func TestPhotoHandler_IngestPhotos(t *testing.T) {
	var got *dto.IngestPhotosRequest
	flow := &fakePhotoFlow{ingest: func(ctx context.Context, req *dto.IngestPhotosRequest) (*dto.IngestPhotosResponse, error) {
		got = req
		return &dto.IngestPhotosResponse{JournalID: req.JournalID}, nil
	}}
	app := fiber.New()
	app.Post("/journals/:id/photos", NewPhotoHandler(flow, nil, nil).IngestPhotos)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"a.jpg", "b.jpg"} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("bytes of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/journals/5/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, body := doRequest(t, app, req)

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.True(t, body.Success)
	require.NotNil(t, got)
	assert.Equal(t, uint(5), got.JournalID)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "a.jpg", got.Files[0].Filename)
	assert.Equal(t, []byte("bytes of b.jpg"), got.Files[1].Data)

	t.Run("no files", func(t *testing.T) {
		resp, body := doRequest(t, app, jsonRequest(http.MethodPost, "/journals/5/photos", `{}`))
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_FILE", body.Error.Code)
	})
}

func TestSelectionHandler_SelectPrimaryValidation(t *testing.T) {
	flow := &fakeSelectionFlow{selectPrimary: func(ctx context.Context, journalID uint, req *dto.PrimarySelectionRequest) (*dto.PrimarySelectionResponse, error) {
		return &dto.PrimarySelectionResponse{JournalID: journalID, Requested: req.Count}, nil
	}}
	app := fiber.New()
	app.Post("/journals/:id/selection/primary", NewSelectionHandler(flow, nil).SelectPrimary)

	resp, body := doRequest(t, app, jsonRequest(http.MethodPost, "/journals/1/selection/primary", `{"count":0}`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)

	resp, body = doRequest(t, app, jsonRequest(http.MethodPost, "/journals/1/selection/primary", `{"count":3}`))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var data dto.PrimarySelectionResponse
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, 3, data.Requested)
}

func TestSelectionHandler_SelectSecondaryPartialFailure(t *testing.T) {
	flow := &fakeSelectionFlow{selectSecondary: func(ctx context.Context, journalID uint, req *dto.SecondarySelectionRequest) (*dto.SecondarySelectionResponse, error) {
		return &dto.SecondarySelectionResponse{
				JournalID:             journalID,
				Deactivation:          &dto.DeactivatePhotosResponse{JournalID: journalID, MatchedIDs: req.PhotoIDs, Deactivated: 1},
				DeactivationCommitted: true,
			},
			businessflow.NewBusinessError("AI_CAPTION_FAILED", "Captioning failed", businessflow.ErrUpstreamFailure)
	}}
	app := fiber.New()
	app.Post("/journals/:id/selection/secondary", NewSelectionHandler(flow, nil).SelectSecondary)

	resp, body := doRequest(t, app, jsonRequest(http.MethodPost, "/journals/2/selection/secondary", `{"photo_ids":[9]}`))
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "AI_CAPTION_FAILED", body.Error.Code)

	var partial dto.SecondarySelectionResponse
	require.NoError(t, json.Unmarshal(body.Error.Details, &partial))
	assert.True(t, partial.DeactivationCommitted)
	require.NotNil(t, partial.Deactivation)
	assert.Equal(t, []uint{9}, partial.Deactivation.MatchedIDs)
}

func TestExportHandler_ExportSheet(t *testing.T) {
	flow := &fakeExportFlow{sheet: func(ctx context.Context, journalID uint) (string, []byte, error) {
		return "journal_4.xlsx", []byte("xlsx-bytes"), nil
	}}
	app := fiber.New()
	app.Get("/journals/:id/export/sheet", NewExportHandler(flow, nil).ExportSheet)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/journals/4/export/sheet", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "attachment; filename=journal_4.xlsx", resp.Header.Get("Content-Disposition"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx-bytes"), raw)
}
