package handlers

import (
	"github.com/amirphl/trip-to-travel/app/dto"
	businessflow "github.com/amirphl/trip-to-travel/business_flow"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/amirphl/trip-to-travel/utils"
	"github.com/gofiber/fiber/v3"
)

// DraftHandlerInterface defines the contract for draft handlers
type DraftHandlerInterface interface {
	GenerateDrafts(c fiber.Ctx) error
	CorrectFinalText(c fiber.Ctx) error
}

// DraftHandler handles draft generation and text corrections
type DraftHandler struct {
	baseHandler
	flow businessflow.DraftFlow
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(flow businessflow.DraftFlow, log *logger.Logger) *DraftHandler {
	return &DraftHandler{baseHandler: newBaseHandler(log), flow: flow}
}

// GenerateDrafts writes a draft for every active photo
// @Summary Generate drafts
// @Description Send audience, style, answers, time, place and caption of each active photo to the AI service and store the drafts
// @Tags Drafts
// @Produce json
// @Param id path int true "Journal ID"
// @Success 200 {object} dto.APIResponse{data=dto.GenerateDraftsResponse} "Drafts generated"
// @Failure 404 {object} dto.APIResponse "Journal not found or no active photos"
// @Failure 502 {object} dto.APIResponse "AI service failure"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/drafts [post]
func (h *DraftHandler) GenerateDrafts(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/journals/{id}/drafts", utils.PipelineRequestTimeout)
	defer cancel()

	result, err := h.flow.GenerateDrafts(ctx, journalID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to generate drafts", "DRAFT_GENERATION_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Drafts generated successfully", result)
}

// CorrectFinalText overwrites the text printed under a photo
// @Summary Correct final text
// @Description Replace the finalized text of a photo
// @Tags Drafts
// @Accept json
// @Produce json
// @Param id path int true "Journal ID"
// @Param photo_id path int true "Photo ID"
// @Param request body dto.CorrectFinalTextRequest true "Final text"
// @Success 200 {object} dto.APIResponse{data=dto.FinalTextResponse} "Final text stored"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Photo not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/photos/{photo_id}/final-text [put]
func (h *DraftHandler) CorrectFinalText(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}
	photoID, err := uintParam(c, "photo_id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid photo id", "INVALID_PHOTO_ID", err.Error())
	}
	var req dto.CorrectFinalTextRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals/{id}/photos/{photo_id}/final-text")
	defer cancel()

	result, err := h.flow.CorrectFinalText(ctx, journalID, photoID, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to store final text", "FINAL_TEXT_SAVE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Final text stored successfully", result)
}
