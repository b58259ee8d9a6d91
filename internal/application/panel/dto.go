package panel

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backoffice/internal/domain/panel"
	"github.com/procurement/backoffice/internal/domain/shared"
)

// ActionView is a header action rendered as a button
type ActionView struct {
	Kind    panel.ActionKind `json:"kind"`
	Label   string           `json:"label"`
	Method  string           `json:"method"`
	URL     string           `json:"url,omitempty"`
	Enabled bool             `json:"enabled"`
}

// PageView describes one page of a resource
type PageView struct {
	Resource    string         `json:"resource"`
	Slug        string         `json:"slug"`
	Page        panel.PageType `json:"page"`
	Title       string         `json:"title"`
	Label       string         `json:"label"`
	PluralLabel string         `json:"plural_label"`
	SoftDeletes bool           `json:"soft_deletes"`
	Actions     []ActionView   `json:"actions"`
	Index       panel.Route    `json:"index"`
	Locale      string         `json:"locale"`
}

// ResourceSummary is a navigation entry for a registered resource
type ResourceSummary struct {
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Label       string           `json:"label"`
	PluralLabel string           `json:"plural_label"`
	SoftDeletes bool             `json:"soft_deletes"`
	Pages       []panel.PageType `json:"pages"`
	Index       panel.Route      `json:"index"`
}

// RecordResponse represents a panel record in API responses
type RecordResponse struct {
	ID        uuid.UUID        `json:"id"`
	Resource  string           `json:"resource"`
	Status    string           `json:"status,omitempty"`
	CreatedBy *uuid.UUID       `json:"created_by,omitempty"`
	UpdatedBy *uuid.UUID       `json:"updated_by,omitempty"`
	Fields    panel.Submission `json:"fields"`
	Trashed   bool             `json:"trashed"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt *time.Time       `json:"deleted_at,omitempty"`
}

// ListRequest carries the query of a List page
type ListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,max=50"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
	Search   string `form:"search" binding:"omitempty,max=200"`
	Trashed  string `form:"trashed" binding:"omitempty,oneof=with only"`
}

// ListResult is a List page with its records
type ListResult struct {
	Page    PageView                         `json:"page"`
	Records shared.Paginated[RecordResponse] `json:"records"`
}

// RecordPage is a View or Edit page bound to one record
type RecordPage struct {
	Page   PageView       `json:"page"`
	Record RecordResponse `json:"record"`
}

// SubmitRequest is a Create or Edit form submission
type SubmitRequest struct {
	Fields         panel.Submission `json:"fields" binding:"required"`
	IdempotencyKey string           `json:"-"`
}

// WriteResult is returned by every write operation
type WriteResult struct {
	Record       *RecordResponse `json:"record,omitempty"`
	Redirect     *panel.Route    `json:"redirect,omitempty"`
	Notification string          `json:"notification,omitempty"`
	Replayed     bool            `json:"replayed,omitempty"`
}

// ToRecordResponse converts a domain record to a response
func ToRecordResponse(r *panel.Record) RecordResponse {
	return RecordResponse{
		ID:        r.ID,
		Resource:  r.Resource,
		Status:    r.Status(),
		CreatedBy: r.CreatedBy,
		UpdatedBy: r.UpdatedBy,
		Fields:    r.Fields,
		Trashed:   r.IsTrashed(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		DeletedAt: r.DeletedAt,
	}
}

// ToRecordResponses converts a slice of records
func ToRecordResponses(records []panel.Record) []RecordResponse {
	out := make([]RecordResponse, len(records))
	for i := range records {
		out[i] = ToRecordResponse(&records[i])
	}
	return out
}

// actionRequest returns the HTTP method and URL that perform an action.
// Record-bound actions without a record have no URL.
func actionRequest(action panel.ActionKind, slug string, id *uuid.UUID) (string, string) {
	if action == panel.ActionCreate {
		return http.MethodGet, panel.CreateRoute(slug).Path
	}
	if id == nil {
		return "", ""
	}
	record := panel.ViewRoute(slug, id.String()).Path
	switch action {
	case panel.ActionEdit:
		return http.MethodGet, panel.EditRoute(slug, id.String()).Path
	case panel.ActionView:
		return http.MethodGet, record
	case panel.ActionDelete:
		return http.MethodDelete, record
	case panel.ActionForceDelete:
		return http.MethodDelete, record + "/force"
	case panel.ActionRestore:
		return http.MethodPost, record + "/restore"
	}
	return "", ""
}

// actionEnabled hides actions that do not apply to the record's trash state
func actionEnabled(action panel.ActionKind, record *panel.Record) bool {
	if record == nil {
		return action == panel.ActionCreate
	}
	switch action {
	case panel.ActionRestore:
		return record.IsTrashed()
	case panel.ActionDelete, panel.ActionEdit:
		return !record.IsTrashed()
	}
	return true
}
