package handlers

import (
	"github.com/amirphl/trip-to-travel/app/dto"
	businessflow "github.com/amirphl/trip-to-travel/business_flow"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/amirphl/trip-to-travel/utils"
	"github.com/gofiber/fiber/v3"
)

// SelectionHandlerInterface defines the contract for selection handlers
type SelectionHandlerInterface interface {
	SelectPrimary(c fiber.Ctx) error
	DeactivatePhotos(c fiber.Ctx) error
	EnrichPhotos(c fiber.Ctx) error
	SelectSecondary(c fiber.Ctx) error
}

// SelectionHandler handles the photo narrowing and enrichment stages
type SelectionHandler struct {
	baseHandler
	flow businessflow.SelectionFlow
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(flow businessflow.SelectionFlow, log *logger.Logger) *SelectionHandler {
	return &SelectionHandler{baseHandler: newBaseHandler(log), flow: flow}
}

// SelectPrimary keeps the most important photos of a journal
// @Summary Primary selection
// @Description Score active photos with the AI service and keep the top count; the rest are deactivated
// @Tags Selection
// @Accept json
// @Produce json
// @Param id path int true "Journal ID"
// @Param request body dto.PrimarySelectionRequest true "How many photos to keep"
// @Success 200 {object} dto.APIResponse{data=dto.PrimarySelectionResponse} "Selection stored"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Journal not found or no active photos"
// @Failure 502 {object} dto.APIResponse "AI service failure"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/selection/primary [post]
func (h *SelectionHandler) SelectPrimary(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}
	var req dto.PrimarySelectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/journals/{id}/selection/primary", utils.PipelineRequestTimeout)
	defer cancel()

	result, err := h.flow.SelectPrimary(ctx, journalID, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to run primary selection", "PRIMARY_SELECTION_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Primary selection completed", result)
}

// DeactivatePhotos drops the given photos of a journal
// @Summary Deactivate photos
// @Description Deactivate the listed photos of a journal; commits on its own
// @Tags Selection
// @Accept json
// @Produce json
// @Param id path int true "Journal ID"
// @Param request body dto.DeactivatePhotosRequest true "Photo ids"
// @Success 200 {object} dto.APIResponse{data=dto.DeactivatePhotosResponse} "Photos deactivated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Journal not found or no matching photos"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/selection/deactivate [post]
func (h *SelectionHandler) DeactivatePhotos(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}
	var req dto.DeactivatePhotosRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals/{id}/selection/deactivate")
	defer cancel()

	result, err := h.flow.DeactivatePhotos(ctx, journalID, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to deactivate photos", "DEACTIVATION_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photos deactivated successfully", result)
}

// EnrichPhotos captions the active photos and stores their time and place
// @Summary Enrich photos
// @Description Caption active photos and extract capture time and place; per-photo metadata failures degrade to nulls
// @Tags Selection
// @Produce json
// @Param id path int true "Journal ID"
// @Success 200 {object} dto.APIResponse{data=dto.EnrichPhotosResponse} "Photos enriched"
// @Failure 404 {object} dto.APIResponse "Journal not found or no active photos"
// @Failure 502 {object} dto.APIResponse "AI service failure"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/selection/enrich [post]
func (h *SelectionHandler) EnrichPhotos(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/journals/{id}/selection/enrich", utils.PipelineRequestTimeout)
	defer cancel()

	result, err := h.flow.EnrichPhotos(ctx, journalID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to enrich photos", "ENRICHMENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Photos enriched successfully", result)
}

// SelectSecondary deactivates the given photos and then enriches the rest
// @Summary Secondary selection
// @Description Deactivate the listed photos (committed first), then enrich the remaining active photos. On enrichment failure the error details carry the committed deactivation.
// @Tags Selection
// @Accept json
// @Produce json
// @Param id path int true "Journal ID"
// @Param request body dto.SecondarySelectionRequest false "Photo ids to drop"
// @Success 200 {object} dto.APIResponse{data=dto.SecondarySelectionResponse} "Secondary selection completed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Journal not found, no matching or no active photos"
// @Failure 502 {object} dto.APIResponse "AI service failure"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/selection/secondary [post]
func (h *SelectionHandler) SelectSecondary(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}
	var req dto.SecondarySelectionRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/journals/{id}/selection/secondary", utils.PipelineRequestTimeout)
	defer cancel()

	result, err := h.flow.SelectSecondary(ctx, journalID, &req)
	if err != nil {
		var details any
		if result != nil && result.DeactivationCommitted {
			details = result
		}
		return h.handleFlowErrorWithDetails(c, err, "Failed to run secondary selection", "SECONDARY_SELECTION_FAILED", details)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Secondary selection completed", result)
}
