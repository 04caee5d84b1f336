package handlers

import (
	"github.com/amirphl/trip-to-travel/app/dto"
	businessflow "github.com/amirphl/trip-to-travel/business_flow"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/gofiber/fiber/v3"
)

// JournalHandlerInterface defines the contract for journal handlers
type JournalHandlerInterface interface {
	ListCategories(c fiber.Ctx) error
	CreateJournal(c fiber.Ctx) error
	ListJournals(c fiber.Ctx) error
	GetJournal(c fiber.Ctx) error
	UpdateJournal(c fiber.Ctx) error
	CaptureIntent(c fiber.Ctx) error
}

// JournalHandler handles journal entry and intent requests
type JournalHandler struct {
	baseHandler
	flow businessflow.JournalFlow
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(flow businessflow.JournalFlow, log *logger.Logger) *JournalHandler {
	return &JournalHandler{baseHandler: newBaseHandler(log), flow: flow}
}

// ListCategories returns every lookup table
// @Summary List categories
// @Description List purpose, audience, style and emotion categories with their labels
// @Tags Categories
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CategoriesResponse} "Categories retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/categories [get]
func (h *JournalHandler) ListCategories(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/categories")
	defer cancel()

	result, err := h.flow.ListCategories(ctx)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list categories", "CATEGORY_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Categories retrieved successfully", result)
}

// CreateJournal starts a new journal entry
// @Summary Create journal
// @Description Create an empty journal entry, optionally with a writing style (1-3)
// @Tags Journals
// @Accept json
// @Produce json
// @Param request body dto.CreateJournalRequest false "Journal data"
// @Success 201 {object} dto.APIResponse{data=dto.JournalResponse} "Journal created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals [post]
func (h *JournalHandler) CreateJournal(c fiber.Ctx) error {
	var req dto.CreateJournalRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals")
	defer cancel()

	result, err := h.flow.CreateJournal(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to create journal", "JOURNAL_CREATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Journal created successfully", result)
}

// ListJournals pages over journals, newest first
// @Summary List journals
// @Description List journal entries, newest first
// @Tags Journals
// @Produce json
// @Param limit query int false "Page size (1-100, default 20)"
// @Param offset query int false "Offset (default 0)"
// @Success 200 {object} dto.APIResponse{data=dto.ListJournalsResponse} "Journals retrieved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals [get]
func (h *JournalHandler) ListJournals(c fiber.Ctx) error {
	var req dto.ListJournalsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals")
	defer cancel()

	result, err := h.flow.ListJournals(ctx, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to list journals", "JOURNAL_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Journals retrieved successfully", result)
}

// GetJournal returns one journal with its selections and photo counts
// @Summary Get journal
// @Description Retrieve a journal entry with style, intents and photo counts
// @Tags Journals
// @Produce json
// @Param id path int true "Journal ID"
// @Success 200 {object} dto.APIResponse{data=dto.JournalResponse} "Journal retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid journal id"
// @Failure 404 {object} dto.APIResponse "Journal not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id} [get]
func (h *JournalHandler) GetJournal(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals/{id}")
	defer cancel()

	result, err := h.flow.GetJournal(ctx, journalID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to get journal", "JOURNAL_GET_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Journal retrieved successfully", result)
}

// UpdateJournal changes the writing style of a journal
// @Summary Update journal style
// @Description Set the writing style category (1-3) of a journal
// @Tags Journals
// @Accept json
// @Produce json
// @Param id path int true "Journal ID"
// @Param request body dto.UpdateJournalRequest true "Style"
// @Success 200 {object} dto.APIResponse{data=dto.JournalResponse} "Journal updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Journal not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id} [patch]
func (h *JournalHandler) UpdateJournal(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}
	var req dto.UpdateJournalRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals/{id}")
	defer cancel()

	result, err := h.flow.UpdateJournalStyle(ctx, journalID, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to update journal", "JOURNAL_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Journal updated successfully", result)
}

// CaptureIntent replaces the audiences and purposes of a journal
// @Summary Capture intent
// @Description Record who travelled (1-6) and why (1-4), replacing earlier answers
// @Tags Journals
// @Accept json
// @Produce json
// @Param id path int true "Journal ID"
// @Param request body dto.CaptureIntentRequest true "Audiences and purposes"
// @Success 200 {object} dto.APIResponse{data=dto.CaptureIntentResponse} "Intent stored"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Journal not found"
// @Failure 409 {object} dto.APIResponse "Constraint violation"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/intent [put]
func (h *JournalHandler) CaptureIntent(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}
	var req dto.CaptureIntentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals/{id}/intent")
	defer cancel()

	result, err := h.flow.CaptureIntent(ctx, journalID, &req)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to store intent", "INTENT_CAPTURE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Intent stored successfully", result)
}
