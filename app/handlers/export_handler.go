package handlers

import (
	businessflow "github.com/amirphl/trip-to-travel/business_flow"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/amirphl/trip-to-travel/utils"
	"github.com/gofiber/fiber/v3"
)

// ExportHandlerInterface defines the contract for export handlers
type ExportHandlerInterface interface {
	ExportPDF(c fiber.Ctx) error
	ExportDownloadURL(c fiber.Ctx) error
	ExportSheet(c fiber.Ctx) error
}

// ExportHandler handles journal exports
type ExportHandler struct {
	baseHandler
	flow businessflow.ExportFlow
}

// NewExportHandler creates a new export handler
func NewExportHandler(flow businessflow.ExportFlow, log *logger.Logger) *ExportHandler {
	return &ExportHandler{baseHandler: newBaseHandler(log), flow: flow}
}

// ExportPDF renders the journal to a PDF and returns a signed download link
// @Summary Export PDF
// @Description Render active photos ordered by capture time, one per page, and return a 1 hour download link.
// @Description Images are scaled uniformly to at most 80% of the page width; tall images are further limited to 60% of the page height so the text still fits.
// @Tags Export
// @Produce json
// @Param id path int true "Journal ID"
// @Success 200 {object} dto.APIResponse{data=dto.ExportResponse} "Journal exported"
// @Failure 404 {object} dto.APIResponse "Journal not found or nothing to export"
// @Failure 502 {object} dto.APIResponse "Blob store failure"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/export [post]
func (h *ExportHandler) ExportPDF(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/journals/{id}/export", utils.PipelineRequestTimeout)
	defer cancel()

	result, err := h.flow.ExportPDF(ctx, journalID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to export journal", "EXPORT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Journal exported successfully", result)
}

// ExportDownloadURL signs a fresh link for the stored PDF
// @Summary Export download URL
// @Description Return a new 1 hour download link for the last PDF export
// @Tags Export
// @Produce json
// @Param id path int true "Journal ID"
// @Success 200 {object} dto.APIResponse{data=dto.ExportResponse} "Download link created"
// @Failure 404 {object} dto.APIResponse "Journal or export not found"
// @Failure 502 {object} dto.APIResponse "Blob store failure"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/export/url [get]
func (h *ExportHandler) ExportDownloadURL(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals/{id}/export/url")
	defer cancel()

	result, err := h.flow.ExportDownloadURL(ctx, journalID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to sign export URL", "EXPORT_URL_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Download link created successfully", result)
}

// ExportSheet streams an XLSX summary of the journal
// @Summary Export sheet
// @Description Download an XLSX summary of the active photos in export order
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Journal ID"
// @Success 200 {string} string "XLSX file"
// @Failure 404 {object} dto.APIResponse "Journal not found or no active photos"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/journals/{id}/export/sheet [get]
func (h *ExportHandler) ExportSheet(c fiber.Ctx) error {
	journalID, err := uintParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid journal id", "INVALID_JOURNAL_ID", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/journals/{id}/export/sheet")
	defer cancel()

	filename, data, err := h.flow.ExportSheet(ctx, journalID)
	if err != nil {
		return h.handleFlowError(c, err, "Failed to export sheet", "EXCEL_EXPORT_FAILED")
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}
