package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	panelapp "github.com/procurement/backoffice/internal/application/panel"
	"github.com/procurement/backoffice/internal/domain/panel"
	"github.com/procurement/backoffice/internal/domain/shared"
	"github.com/procurement/backoffice/internal/infrastructure/cache"
	"github.com/procurement/backoffice/internal/infrastructure/i18n"
	"github.com/procurement/backoffice/internal/infrastructure/logger"
	"github.com/procurement/backoffice/internal/infrastructure/persistence"
	"github.com/procurement/backoffice/internal/infrastructure/persistence/models"
	"github.com/procurement/backoffice/internal/interfaces/http/dto"
	"github.com/procurement/backoffice/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type panelFixture struct {
	router *gin.Engine
	actor  uuid.UUID
}

func newPanelFixture(t *testing.T) *panelFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.RecordModel{}))

	table := i18n.MustDefault()
	svc := panelapp.NewPageService(panel.DefaultRegistry(), persistence.NewGormRecordRepository(db), table)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	svc.SetIdempotencyStore(store, shared.DefaultIdempotencyConfig())

	h := NewPanelHandler(svc)
	f := &panelFixture{actor: uuid.New()}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-Anonymous") == "" {
			c.Set(logger.GinActorIDKey, f.actor.String())
		}
		c.Next()
	})
	router.Use(middleware.Locale(table))

	admin := router.Group("/admin")
	admin.GET("/resources", h.ListResources)
	admin.GET("/translations/:locale", NewTranslationHandler(table).Translate)
	admin.GET("/:resource", h.List)
	admin.POST("/:resource", h.Create)
	admin.GET("/:resource/create", h.CreatePage)
	admin.GET("/:resource/:id", h.View)
	admin.PUT("/:resource/:id", h.Update)
	admin.DELETE("/:resource/:id", h.Delete)
	admin.GET("/:resource/:id/edit", h.EditPage)
	admin.DELETE("/:resource/:id/force", h.ForceDelete)
	admin.POST("/:resource/:id/restore", h.Restore)

	f.router = router
	return f
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func (f *panelFixture) do(t *testing.T, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (f *panelFixture) createLease(t *testing.T, name string) panelapp.RecordResponse {
	t.Helper()
	w, env := f.do(t, http.MethodPost, "/admin/leases", map[string]any{"fields": map[string]any{"name": name}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decodeData[panelapp.WriteResult](t, env)
	require.NotNil(t, result.Record)
	return *result.Record
}

func TestPanelHandler_ListResources(t *testing.T) {
	f := newPanelFixture(t)

	w, env := f.do(t, http.MethodGet, "/admin/resources?locale=ar", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resources := decodeData[[]panelapp.ResourceSummary](t, env)
	require.Len(t, resources, 5)
	assert.Equal(t, "leases", resources[0].Slug)
	assert.Equal(t, "عقود الإيجار", resources[0].PluralLabel)
	assert.Equal(t, "/admin/leases", resources[0].Index.Path)
}

func TestPanelHandler_CreatePage(t *testing.T) {
	f := newPanelFixture(t)

	w, env := f.do(t, http.MethodGet, "/admin/leases/create", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeData[panelapp.PageView](t, env)
	assert.Equal(t, panel.PageCreate, view.Page)
	assert.Equal(t, "Lease", view.Resource)

	w, env = f.do(t, http.MethodGet, "/admin/no-such-thing/create", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeUnknownResource, env.Error.Code)
}

func TestPanelHandler_CreateLease(t *testing.T) {
	f := newPanelFixture(t)

	w, env := f.do(t, http.MethodPost, "/admin/leases", map[string]any{
		"fields": map[string]any{"name": "North depot", "status": "active", "lease_liability": "1200.50"},
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/admin/leases", w.Header().Get("Location"))

	result := decodeData[panelapp.WriteResult](t, env)
	require.NotNil(t, result.Redirect)
	assert.Equal(t, panel.IndexRoute("leases"), *result.Redirect)
	assert.Equal(t, "Created", result.Notification)
	assert.False(t, result.Replayed)

	record := result.Record
	require.NotNil(t, record)
	assert.Equal(t, f.actor.String(), record.Fields[panel.FieldCreatedBy])
	assert.Equal(t, panel.StatusDraft, record.Fields[panel.FieldStatus])
	assert.Equal(t, float64(0), record.Fields[panel.FieldRightOfUseAsset])
	assert.Equal(t, float64(0), record.Fields[panel.FieldLeaseLiability])
	assert.Equal(t, float64(0), record.Fields[panel.FieldAccumulatedDepreciation])
	assert.Equal(t, "North depot", record.Fields["name"])
	require.NotNil(t, record.CreatedBy)
	assert.Equal(t, f.actor, *record.CreatedBy)
}

func TestPanelHandler_CreateValidation(t *testing.T) {
	f := newPanelFixture(t)

	t.Run("missing fields", func(t *testing.T) {
		w, env := f.do(t, http.MethodPost, "/admin/leases", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	})

	t.Run("blank field name", func(t *testing.T) {
		w, env := f.do(t, http.MethodPost, "/admin/leases", map[string]any{"fields": map[string]any{" ": 1}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, env.Error.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		w, env := f.do(t, http.MethodPost, "/admin/leases", map[string]any{"fields": map[string]any{"name": "x"}}, "X-Test-Anonymous", "1")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, env.Error.Code)
	})
}

func TestPanelHandler_CreateIdempotent(t *testing.T) {
	f := newPanelFixture(t)
	body := map[string]any{"fields": map[string]any{"title": "Steel pipes"}}

	w1, env1 := f.do(t, http.MethodPost, "/admin/rfqs", body, middleware.IdempotencyKeyHeader, "rfq-42")
	require.Equal(t, http.StatusCreated, w1.Code)
	first := decodeData[panelapp.WriteResult](t, env1)

	w2, env2 := f.do(t, http.MethodPost, "/admin/rfqs", body, middleware.IdempotencyKeyHeader, "rfq-42")
	require.Equal(t, http.StatusOK, w2.Code)
	second := decodeData[panelapp.WriteResult](t, env2)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Record.ID, second.Record.ID)
	assert.Equal(t, "/admin/rfqs", w2.Header().Get("Location"))

	_, list := f.do(t, http.MethodGet, "/admin/rfqs", nil)
	assert.Equal(t, int64(1), list.Meta.Total)
}

func TestPanelHandler_ListAndPages(t *testing.T) {
	f := newPanelFixture(t)
	first := f.createLease(t, "North depot")
	f.createLease(t, "South depot")

	w, env := f.do(t, http.MethodGet, "/admin/leases?page=1&page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeData[panelapp.ListResult](t, env)
	assert.Len(t, list.Records.Items, 1)
	assert.Equal(t, int64(2), env.Meta.Total)
	assert.Equal(t, 2, env.Meta.TotalPages)
	require.Len(t, list.Page.Actions, 1)
	assert.Equal(t, panel.ActionCreate, list.Page.Actions[0].Kind)

	w, env = f.do(t, http.MethodGet, "/admin/leases/"+first.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeData[panelapp.RecordPage](t, env)
	assert.Equal(t, first.ID, view.Record.ID)
	require.Len(t, view.Page.Actions, 1)
	assert.Equal(t, panel.ActionEdit, view.Page.Actions[0].Kind)
	assert.Equal(t, "/admin/leases/"+first.ID.String()+"/edit", view.Page.Actions[0].URL)

	w, env = f.do(t, http.MethodGet, "/admin/leases/"+first.ID.String()+"/edit?locale=ar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	edit := decodeData[panelapp.RecordPage](t, env)
	require.Len(t, edit.Page.Actions, 2)
	assert.Equal(t, panel.ActionDelete, edit.Page.Actions[1].Kind)
	assert.Equal(t, "حذف", edit.Page.Actions[1].Label)
}

func TestPanelHandler_ListRejectsBadQuery(t *testing.T) {
	f := newPanelFixture(t)

	w, env := f.do(t, http.MethodGet, "/admin/leases?page_size=1000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)

	w, env = f.do(t, http.MethodGet, "/admin/leases?trashed=with", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
}

func TestPanelHandler_RecordErrors(t *testing.T) {
	f := newPanelFixture(t)

	w, env := f.do(t, http.MethodGet, "/admin/leases/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, env.Error.Code)

	w, env = f.do(t, http.MethodGet, "/admin/leases/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)

	w, env = f.do(t, http.MethodGet, "/admin/purchase-orders/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodePageNotFound, env.Error.Code)
}

func TestPanelHandler_Update(t *testing.T) {
	f := newPanelFixture(t)
	lease := f.createLease(t, "North depot")

	w, env := f.do(t, http.MethodPut, "/admin/leases/"+lease.ID.String(), map[string]any{
		"fields": map[string]any{"name": "North depot (renewed)"},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/admin/leases", w.Header().Get("Location"))
	result := decodeData[panelapp.WriteResult](t, env)
	assert.Equal(t, "Saved", result.Notification)
	assert.Equal(t, "North depot (renewed)", result.Record.Fields["name"])
	assert.Equal(t, f.actor.String(), result.Record.Fields[panel.FieldUpdatedBy])
	assert.Equal(t, panel.StatusDraft, result.Record.Fields[panel.FieldStatus])
}

func TestPanelHandler_SoftDeleteLifecycle(t *testing.T) {
	f := newPanelFixture(t)

	w, env := f.do(t, http.MethodPost, "/admin/tender-bonds", map[string]any{"fields": map[string]any{"amount": "5000"}})
	require.Equal(t, http.StatusCreated, w.Code)
	bond := decodeData[panelapp.WriteResult](t, env).Record
	path := "/admin/tender-bonds/" + bond.ID.String()

	w, env = f.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/admin/tender-bonds", w.Header().Get("Location"))
	assert.Equal(t, "Deleted", decodeData[panelapp.WriteResult](t, env).Notification)

	_, env = f.do(t, http.MethodGet, "/admin/tender-bonds", nil)
	assert.Equal(t, int64(0), env.Meta.Total)
	_, env = f.do(t, http.MethodGet, "/admin/tender-bonds?trashed=only", nil)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, env = f.do(t, http.MethodGet, path+"/edit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	edit := decodeData[panelapp.RecordPage](t, env)
	assert.True(t, edit.Record.Trashed)
	enabled := map[panel.ActionKind]bool{}
	for _, a := range edit.Page.Actions {
		enabled[a.Kind] = a.Enabled
	}
	assert.True(t, enabled[panel.ActionRestore])
	assert.False(t, enabled[panel.ActionDelete])

	w, env = f.do(t, http.MethodPost, path+"/restore?locale=ar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	restored := decodeData[panelapp.WriteResult](t, env)
	assert.Equal(t, "تمت الاستعادة", restored.Notification)
	assert.False(t, restored.Record.Trashed)
	assert.Empty(t, w.Header().Get("Location"))

	w, env = f.do(t, http.MethodPost, path+"/restore", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, env.Error.Code)

	w, env = f.do(t, http.MethodDelete, path+"/force", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Permanently deleted", decodeData[panelapp.WriteResult](t, env).Notification)

	w, _ = f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPanelHandler_ActionNotAllowed(t *testing.T) {
	f := newPanelFixture(t)
	lease := f.createLease(t, "North depot")

	w, env := f.do(t, http.MethodPost, "/admin/leases/"+lease.ID.String()+"/restore", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeActionNotAllowed, env.Error.Code)

	w, env = f.do(t, http.MethodDelete, "/admin/leases/"+lease.ID.String()+"/force", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeActionNotAllowed, env.Error.Code)
}

func TestPanelHandler_HardDelete(t *testing.T) {
	f := newPanelFixture(t)
	lease := f.createLease(t, "North depot")
	path := "/admin/leases/" + lease.ID.String()

	w, _ := f.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTranslationHandler(t *testing.T) {
	f := newPanelFixture(t)

	w, env := f.do(t, http.MethodGet, "/admin/translations/ar?key=actions.delete.label", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tr := decodeData[TranslationResponse](t, env)
	assert.Equal(t, "حذف", tr.Value)
	assert.True(t, tr.Found)

	_, env = f.do(t, http.MethodGet, "/admin/translations/ar?key=no.such.key", nil)
	missing := decodeData[TranslationResponse](t, env)
	assert.Equal(t, "no.such.key", missing.Value)
	assert.False(t, missing.Found)

	_, env = f.do(t, http.MethodGet, "/admin/translations/ar-SA", nil)
	catalog := decodeData[CatalogResponse](t, env)
	assert.Equal(t, "حذف", catalog.Entries["actions.delete.label"])
	assert.Contains(t, catalog.Supports, "ar")
	assert.Contains(t, catalog.Supports, "en")
}
