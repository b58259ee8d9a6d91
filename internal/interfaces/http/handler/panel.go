package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	panelapp "github.com/procurement/backoffice/internal/application/panel"
	"github.com/procurement/backoffice/internal/domain/panel"
	"github.com/procurement/backoffice/internal/domain/shared"
	"github.com/procurement/backoffice/internal/interfaces/http/dto"
	"github.com/procurement/backoffice/internal/interfaces/http/middleware"
)

// PanelHandler serves every registered resource through the same set of
// endpoints. The :resource path segment selects the resource definition.
type PanelHandler struct {
	BaseHandler
	pages *panelapp.PageService
}

// NewPanelHandler creates a new PanelHandler
func NewPanelHandler(pages *panelapp.PageService) *PanelHandler {
	return &PanelHandler{pages: pages}
}

// SubmitRequest is a Create or Edit form submission
// @Description Form fields keyed by field name
type SubmitRequest struct {
	Fields map[string]any `json:"fields" binding:"required"`
}

// ListResources godoc
// @ID           listPanelResources
// @Summary      List panel resources
// @Description  Navigation entries for every registered resource, labels in the request locale
// @Tags         panel
// @Produce      json
// @Param        locale query string false "Locale, overrides Accept-Language"
// @Success      200 {object} APIResponse[[]panelapp.ResourceSummary]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/resources [get]
func (h *PanelHandler) ListResources(c *gin.Context) {
	h.Success(c, h.pages.ListResources(middleware.GetLocale(c)))
}

// List godoc
// @ID           listPanelRecords
// @Summary      List page
// @Description  The List page of a resource: its header actions and a page of records
// @Tags         panel
// @Produce      json
// @Param        resource  path  string true  "Resource slug" example(leases)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        order_by  query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Param        search    query string false "Search text"
// @Param        trashed   query string false "Include soft-deleted records" Enums(with, only)
// @Success      200 {object} APIResponse[panelapp.ListResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/{resource} [get]
func (h *PanelHandler) List(c *gin.Context) {
	var req panelapp.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.pages.List(c.Request.Context(), middleware.GetLocale(c), c.Param("resource"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result, result.Records.Total, result.Records.Page, result.Records.PageSize)
}

// CreatePage godoc
// @ID           getPanelCreatePage
// @Summary      Create page
// @Description  The Create form descriptor of a resource
// @Tags         panel
// @Produce      json
// @Param        resource path string true "Resource slug"
// @Success      200 {object} APIResponse[panelapp.PageView]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/{resource}/create [get]
func (h *PanelHandler) CreatePage(c *gin.Context) {
	view, err := h.pages.Describe(c.Request.Context(), middleware.GetLocale(c), c.Param("resource"), panel.PageCreate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// View godoc
// @ID           getPanelViewPage
// @Summary      View page
// @Description  A record with the View page's header actions
// @Tags         panel
// @Produce      json
// @Param        resource path string true "Resource slug"
// @Param        id       path string true "Record ID" format(uuid)
// @Success      200 {object} APIResponse[panelapp.RecordPage]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/{resource}/{id} [get]
func (h *PanelHandler) View(c *gin.Context) {
	h.recordPage(c, panel.PageView)
}

// EditPage godoc
// @ID           getPanelEditPage
// @Summary      Edit page
// @Description  A record with the Edit page's header actions
// @Tags         panel
// @Produce      json
// @Param        resource path string true "Resource slug"
// @Param        id       path string true "Record ID" format(uuid)
// @Success      200 {object} APIResponse[panelapp.RecordPage]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/{resource}/{id}/edit [get]
func (h *PanelHandler) EditPage(c *gin.Context) {
	h.recordPage(c, panel.PageEdit)
}

func (h *PanelHandler) recordPage(c *gin.Context, page panel.PageType) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}
	result, err := h.pages.Get(c.Request.Context(), middleware.GetLocale(c), c.Param("resource"), page, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Create godoc
// @ID           createPanelRecord
// @Summary      Submit the Create page
// @Description  Runs the resource's create mutator with the caller as actor, stores the record and returns the redirect target.
// @Description  Repeating a request with the same Idempotency-Key returns the first result.
// @Tags         panel
// @Accept       json
// @Produce      json
// @Param        resource        path   string        true  "Resource slug"
// @Param        Idempotency-Key header string        false "Client key that makes the submission safe to retry"
// @Param        request         body   SubmitRequest true  "Form submission"
// @Success      201 {object} APIResponse[panelapp.WriteResult]
// @Success      200 {object} APIResponse[panelapp.WriteResult] "Replayed submission"
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/{resource} [post]
func (h *PanelHandler) Create(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.pages.Create(c.Request.Context(), caller, c.Param("resource"), panelapp.SubmitRequest{
		Fields:         req.Fields,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(middleware.IdempotencyKeyHeader)),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Replayed {
		h.written(c, http.StatusOK, result)
		return
	}
	h.written(c, http.StatusCreated, result)
}

// Update godoc
// @ID           updatePanelRecord
// @Summary      Submit the Edit page
// @Description  Merges the submitted fields into the record, runs the edit mutator and returns the redirect target
// @Tags         panel
// @Accept       json
// @Produce      json
// @Param        resource path string        true "Resource slug"
// @Param        id       path string        true "Record ID" format(uuid)
// @Param        request  body SubmitRequest true "Form submission"
// @Success      200 {object} APIResponse[panelapp.WriteResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/{resource}/{id} [put]
func (h *PanelHandler) Update(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.recordID(c)
	if !ok {
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.pages.Update(c.Request.Context(), caller, c.Param("resource"), id, panelapp.SubmitRequest{Fields: req.Fields})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.written(c, http.StatusOK, result)
}

// Delete godoc
// @ID           deletePanelRecord
// @Summary      Delete action
// @Description  Soft-deletes the record when the resource supports it, otherwise deletes it permanently
// @Tags         panel
// @Produce      json
// @Param        resource path string true "Resource slug"
// @Param        id       path string true "Record ID" format(uuid)
// @Success      200 {object} APIResponse[panelapp.WriteResult]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/{resource}/{id} [delete]
func (h *PanelHandler) Delete(c *gin.Context) {
	h.recordAction(c, h.pages.Delete)
}

// ForceDelete godoc
// @ID           forceDeletePanelRecord
// @Summary      Force delete action
// @Description  Permanently deletes a record, including a soft-deleted one
// @Tags         panel
// @Produce      json
// @Param        resource path string true "Resource slug"
// @Param        id       path string true "Record ID" format(uuid)
// @Success      200 {object} APIResponse[panelapp.WriteResult]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/{resource}/{id}/force [delete]
func (h *PanelHandler) ForceDelete(c *gin.Context) {
	h.recordAction(c, h.pages.ForceDelete)
}

// Restore godoc
// @ID           restorePanelRecord
// @Summary      Restore action
// @Description  Brings back a soft-deleted record
// @Tags         panel
// @Produce      json
// @Param        resource path string true "Resource slug"
// @Param        id       path string true "Record ID" format(uuid)
// @Success      200 {object} APIResponse[panelapp.WriteResult]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/{resource}/{id}/restore [post]
func (h *PanelHandler) Restore(c *gin.Context) {
	h.recordAction(c, h.pages.Restore)
}

type recordOperation func(ctx context.Context, caller panelapp.Caller, slug string, id uuid.UUID) (*panelapp.WriteResult, error)

func (h *PanelHandler) recordAction(c *gin.Context, op recordOperation) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.recordID(c)
	if !ok {
		return
	}
	result, err := op(c.Request.Context(), caller, c.Param("resource"), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.written(c, http.StatusOK, result)
}

// written sends a write result, pointing Location at the redirect target
func (h *PanelHandler) written(c *gin.Context, status int, result *panelapp.WriteResult) {
	if result.Redirect != nil {
		c.Header("Location", result.Redirect.Path)
	}
	c.JSON(status, dto.NewSuccessResponse(result))
}

func (h *PanelHandler) caller(c *gin.Context) (panelapp.Caller, bool) {
	actorID, ok := middleware.GetActorID(c)
	if !ok {
		h.HandleError(c, shared.ErrUnauthorized)
		return panelapp.Caller{}, false
	}
	return panelapp.Caller{ActorID: actorID, Locale: middleware.GetLocale(c)}, true
}

func (h *PanelHandler) recordID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid record ID")
		return uuid.Nil, false
	}
	return id, true
}
