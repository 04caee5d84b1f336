package handlers

import (
	"io"
	"mime/multipart"

	"github.com/amirphl/trip-to-travel/app/dto"
	businessflow "github.com/amirphl/trip-to-travel/business_flow"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/amirphl/trip-to-travel/utils"
	"github.com/gofiber/fiber/v3"
)

// PhotoHandlerInterface defines the contract for photo handlers
type PhotoHandlerInterface interface {
	IngestPhotos(c fiber.Ctx) error
	ListPhotos(c fiber.Ctx) error
	RemovePhoto(c fiber.Ctx) error
	SaveQuestionnaire(c fiber.Ctx) error
}

// PhotoHandler handles photo upload, listing and per-photo answers
type PhotoHandler struct {
	baseHandler
	photoFlow         businessflow.PhotoFlow
	questionnaireFlow businessflow.QuestionnaireFlow
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoFlow businessflow.PhotoFlow, questionnaireFlow businessflow.QuestionnaireFlow, log *logger.Logger) *PhotoHandler {
	return &PhotoHandler{
		baseHandler:       newBaseHandler(log),
		photoFlow:         photoFlow,
		questionnaireFlow: questionnaireFlow,
	}
}

// IngestPhotos stores uploaded images and links them to the journal
// @Summary Upload photos
// @Description Upload one or more images (field "files") into a journal
// @Tags Photos
// @Accept mpfd
// @Produce json
// @Param id path int true "Journal ID"
// @Param files formData file true "Image files"
// @Success 201 {object} dto.APIResponse{data=dto.IngestPhotosResponse} "Photos uploaded"
// @Failure 400 {object} dto.APIResponse "Invalid upload"
// @Failure 404 {object} dto.APIResponse "Journal not found"
// @Failure 502 {object} dto.APIResponse "Blob store failure"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/photos [post]
func (h *PhotoHandler) IngestPhotos(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}

	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Multipart form with files is required", "INVALID_FILE", nil)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one file is required", "INVALID_FILE", nil)
	}

	req := dto.IngestPhotosRequest{JournalID: journalID, Files: make([]dto.PhotoUpload, 0, len(headers))}
	for _, fh := range headers {
		upload, err := readUpload(fh)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid file", "INVALID_FILE", err.Error())
		}
		req.Files = append(req.Files, upload)
	}

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/journals/{id}/photos", utils.PipelineRequestTimeout)
	defer cancel()

	result, err := h.photoFlow.IngestPhotos(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to upload photos", "UPLOAD_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Photos uploaded successfully", result)
}

func readUpload(fh *multipart.FileHeader) (dto.PhotoUpload, error) {
	file, err := fh.Open()
	if err != nil {
		return dto.PhotoUpload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return dto.PhotoUpload{}, err
	}
	return dto.PhotoUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// ListPhotos returns the photos of a journal in ingestion order
// @Summary List photos
// @Description List the photos of a journal, optionally with inactive ones and short-lived view URLs
// @Tags Photos
// @Produce json
// @Param id path int true "Journal ID"
// @Param include_inactive query bool false "Include deactivated photos"
// @Param signed query bool false "Attach signed view URLs"
// @Success 200 {object} dto.APIResponse{data=dto.ListPhotosResponse} "Photos retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 404 {object} dto.APIResponse "Journal not found"
// @Failure 502 {object} dto.APIResponse "Blob store failure"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/photos [get]
func (h *PhotoHandler) ListPhotos(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}
	var req dto.ListPhotosRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	req.JournalID = journalID

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals/{id}/photos")
	defer cancel()

	result, err := h.photoFlow.ListPhotos(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list photos", "PHOTO_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photos retrieved successfully", result)
}

// RemovePhoto deactivates a photo and deletes its stored image
// @Summary Remove photo
// @Description Deactivate a photo and delete its image from the blob store
// @Tags Photos
// @Produce json
// @Param id path int true "Journal ID"
// @Param photo_id path int true "Photo ID"
// @Success 200 {object} dto.APIResponse{data=dto.RemovePhotoResponse} "Photo removed"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 404 {object} dto.APIResponse "Photo not found"
// @Failure 502 {object} dto.APIResponse "Blob store failure"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/photos/{photo_id} [delete]
func (h *PhotoHandler) RemovePhoto(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}
	photoID, err := uintParam(c, "photo_id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid photo id", "INVALID_PHOTO_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals/{id}/photos/{photo_id}")
	defer cancel()

	result, err := h.photoFlow.RemovePhoto(ctx, journalID, photoID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to remove photo", "PHOTO_REMOVE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photo removed successfully", result)
}

// SaveQuestionnaire stores how a photo felt
// @Summary Save questionnaire
// @Description Store a free-text answer and emotion tags (1-8) for a photo
// @Tags Photos
// @Accept json
// @Produce json
// @Param id path int true "Journal ID"
// @Param photo_id path int true "Photo ID"
// @Param request body dto.SaveQuestionnaireRequest true "Answers"
// @Success 200 {object} dto.APIResponse{data=dto.QuestionnaireResponse} "Questionnaire saved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Photo not found"
// @Failure 409 {object} dto.APIResponse "Constraint violation"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/photos/{photo_id}/questionnaire [put]
func (h *PhotoHandler) SaveQuestionnaire(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}
	photoID, err := uintParam(c, "photo_id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid photo id", "INVALID_PHOTO_ID", err.Error())
	}
	var req dto.SaveQuestionnaireRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals/{id}/photos/{photo_id}/questionnaire")
	defer cancel()

	result, err := h.questionnaireFlow.SaveQuestionnaire(ctx, journalID, photoID, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to save questionnaire", "QUESTIONNAIRE_SAVE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Questionnaire saved successfully", result)
}
