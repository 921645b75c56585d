package handlers

import (
	"fmt"
	"net/http"

	apierrors "github.com/jobscout/jobscout/pkg/api/errors"
	"github.com/jobscout/jobscout/pkg/api/middleware"
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/export"
	"github.com/jobscout/jobscout/pkg/models"
	"github.com/jobscout/jobscout/pkg/prompts"
	"github.com/labstack/echo/v4"
)

// PromptHandler handles prompt submission, history, usage and export
type PromptHandler struct {
	promptService *prompts.Service
	exportService *export.Service
}

// NewPromptHandler creates a new prompt handler
func NewPromptHandler(promptService *prompts.Service, exportService *export.Service) *PromptHandler {
	return &PromptHandler{
		promptService: promptService,
		exportService: exportService,
	}
}

// Create godoc
// @Summary Submit a job posting
// @Description Generates tailored resume content for a job posting. Counts against the monthly quota.
// @Tags Prompts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ProcessPromptRequest true "Job posting"
// @Success 201 {object} models.ProcessPromptResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request data"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 403 {object} models.UsageLimitResponse "Monthly quota exhausted"
// @Failure 500 {object} models.ErrorResponse "Generation or storage failure"
// @Router /prompts [post]
func (h *PromptHandler) Create(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return apierrors.FromDomain(c, domain.NewUnauthorizedError())
	}

	var req models.ProcessPromptRequest
	if err := c.Bind(&req); err != nil {
		// an unreadable body is validated as empty, after the quota check
		c.Logger().Warnf("prompt body bind failed: %v", err)
		req = models.ProcessPromptRequest{}
	}

	result, err := h.promptService.Process(c.Request().Context(), id, req)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}

	content := toContentResponse(result.Content)
	return c.JSON(http.StatusCreated, models.ProcessPromptResponse{
		PromptID:         result.Prompt.ID,
		GeneratedContent: &content,
		Success:          true,
		Message:          "Resume content generated successfully",
		Usage:            toUsageCheck(result.Usage),
	})
}

// ListUser godoc
// @Summary List the caller's prompts
// @Description Returns active prompts newest first, each with its generated content
// @Tags Prompts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.PromptListResponse
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Failed to fetch prompts"
// @Router /prompts/user [get]
func (h *PromptHandler) ListUser(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return apierrors.FromDomain(c, domain.NewUnauthorizedError())
	}

	list, err := h.promptService.List(c.Request().Context(), id)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}

	resp := models.PromptListResponse{Prompts: make([]models.PromptResponse, 0, len(list))}
	for _, p := range list {
		resp.Prompts = append(resp.Prompts, toPromptResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

// Usage godoc
// @Summary Get monthly usage
// @Tags Prompts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UsageResponse
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Failed to fetch usage"
// @Router /usage [get]
func (h *PromptHandler) Usage(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return apierrors.FromDomain(c, domain.NewUnauthorizedError())
	}

	usage, err := h.promptService.Usage(c.Request().Context(), id)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, toUsageResponse(usage))
}

// Delete godoc
// @Summary Delete a prompt
// @Description Soft-deletes an owned prompt. Deleted prompts no longer count against the quota.
// @Tags Prompts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Prompt ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 404 {object} models.ErrorResponse "Prompt not found"
// @Router /prompts/{id} [delete]
func (h *PromptHandler) Delete(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return apierrors.FromDomain(c, domain.NewUnauthorizedError())
	}

	if err := h.promptService.Delete(c.Request().Context(), id.ID, c.Param("id")); err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Prompt deleted",
	})
}

// Export godoc
// @Summary Download generated content
// @Description Renders a completed prompt's generated content as CSV or XLSX
// @Tags Prompts
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path string true "Prompt ID"
// @Param format query string false "csv (default) or xlsx"
// @Param token query string false "Access token for download links"
// @Success 200 {file} binary
// @Failure 400 {object} models.ErrorResponse "Unsupported format"
// @Failure 404 {object} models.ErrorResponse "Prompt not found"
// @Router /prompts/{id}/export [get]
func (h *PromptHandler) Export(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return apierrors.FromDomain(c, domain.NewUnauthorizedError())
	}

	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return apierrors.FromDomain(c, domain.NewInvalidRequestError([]domain.FieldError{
			{Field: "format", Message: "must be csv or xlsx"},
		}))
	}

	ctx := c.Request().Context()
	prompt, content, err := h.promptService.Completed(ctx, id.ID, c.Param("id"))
	if err != nil {
		return apierrors.FromDomain(c, err)
	}

	file, err := h.exportService.Render(ctx, prompt, content, format)
	if err != nil {
		return apierrors.InternalError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}
