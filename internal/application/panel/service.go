package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backoffice/internal/domain/panel"
	"github.com/procurement/backoffice/internal/domain/shared"
	"github.com/procurement/backoffice/internal/infrastructure/i18n"
	"github.com/procurement/backoffice/internal/infrastructure/logger"
	"github.com/procurement/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Caller identifies who performs a write and in which locale they read the result
type Caller struct {
	ActorID uuid.UUID
	Locale  string
}

// PageService serves every resource page from the registry table
type PageService struct {
	registry     *panel.Registry
	records      panel.RecordRepository
	translations *i18n.Table

	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration

	metrics         *telemetry.PanelMetrics
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
}

// NewPageService creates a new PageService
func NewPageService(
	registry *panel.Registry,
	records panel.RecordRepository,
	translations *i18n.Table,
) *PageService {
	return &PageService{
		registry:        registry,
		records:         records,
		translations:    translations,
		logger:          zap.NewNop(),
		defaultPageSize: shared.DefaultFilter().PageSize,
		maxPageSize:     100,
	}
}

// SetIdempotencyStore enables replay protection of create submissions
func (s *PageService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	if store == nil || !cfg.Enabled {
		s.idempotency = nil
		return
	}
	s.idempotency = store
	s.idempotencyTTL = cfg.TTL
	if s.idempotencyTTL <= 0 {
		s.idempotencyTTL = shared.DefaultIdempotencyConfig().TTL
	}
}

// SetMetrics sets the panel metrics recorder
func (s *PageService) SetMetrics(m *telemetry.PanelMetrics) {
	s.metrics = m
}

// SetLogger sets the service logger
func (s *PageService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

// SetPageSizes sets the default and maximum list page sizes
func (s *PageService) SetPageSizes(defaultSize, maxSize int) {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
}

// ListResources returns the navigation entries of every registered resource
func (s *PageService) ListResources(locale string) []ResourceSummary {
	defs := s.registry.Resources()
	out := make([]ResourceSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, ResourceSummary{
			Name:        def.Name,
			Slug:        def.Slug,
			Label:       s.translations.Label(locale, def.LabelKey(), def.Name),
			PluralLabel: s.translations.Label(locale, def.PluralLabelKey(), def.Slug),
			SoftDeletes: def.SoftDeletes,
			Pages:       def.PageTypes(),
			Index:       panel.IndexRoute(def.Slug),
		})
	}
	return out
}

// Describe returns a page without record data, e.g. the Create form
func (s *PageService) Describe(ctx context.Context, locale, slug string, page panel.PageType) (*PageView, error) {
	def, err := s.resolve(slug)
	if err != nil {
		return nil, err
	}
	if !def.HasPage(page) {
		return nil, panel.ErrPageNotFound
	}
	view := s.pageView(def, page, locale, nil)
	return &view, nil
}

// List returns the List page of a resource with a page of its records
func (s *PageService) List(ctx context.Context, locale, slug string, req ListRequest) (result *ListResult, err error) {
	def, err := s.resolve(slug)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "panel", "list",
		telemetry.SpanAttrResource, def.Name,
		telemetry.SpanAttrPage, string(panel.PageList),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		s.metrics.RecordOperation(ctx, def.Name, "list", started, err)
	}()

	if !def.HasPage(panel.PageList) {
		return nil, panel.ErrPageNotFound
	}
	filter, err := s.listFilter(def, req)
	if err != nil {
		return nil, err
	}

	records, err := s.records.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.records.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Page:    s.pageView(def, panel.PageList, locale, nil),
		Records: shared.NewPaginated(ToRecordResponses(records), total, filter.Page, filter.PageSize),
	}, nil
}

// Get returns a View or Edit page bound to a record.
// Soft-deleted records stay reachable so they can be restored.
func (s *PageService) Get(ctx context.Context, locale, slug string, page panel.PageType, id uuid.UUID) (result *RecordPage, err error) {
	def, err := s.resolve(slug)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "panel", "get",
		telemetry.SpanAttrResource, def.Name,
		telemetry.SpanAttrPage, string(page),
		telemetry.SpanAttrRecordID, id.String(),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		s.metrics.RecordOperation(ctx, def.Name, "get", started, err)
	}()

	if page != panel.PageView && page != panel.PageEdit {
		return nil, shared.NewDomainError("INVALID_PAGE", "Only view and edit pages show a single record")
	}
	if !def.HasPage(page) {
		return nil, panel.ErrPageNotFound
	}

	record, err := s.records.FindByID(ctx, def.Name, id, trashedScope(def))
	if err != nil {
		return nil, err
	}
	return &RecordPage{
		Page:   s.pageView(def, page, locale, record),
		Record: ToRecordResponse(record),
	}, nil
}

// Create runs the Create page: mutate the submission with the caller as actor,
// persist it and redirect to the page's target.
// A repeated idempotency key replays the first result instead of creating again.
func (s *PageService) Create(ctx context.Context, caller Caller, slug string, req SubmitRequest) (result *WriteResult, err error) {
	def, err := s.resolve(slug)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "panel", "create",
		telemetry.SpanAttrResource, def.Name,
		telemetry.SpanAttrPage, string(panel.PageCreate),
		telemetry.SpanAttrActorID, caller.ActorID.String(),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		if result == nil || !result.Replayed {
			s.metrics.RecordOperation(ctx, def.Name, "create", started, err)
		}
	}()

	if err := s.authorize(def, panel.ActionCreate, caller); err != nil {
		return nil, err
	}
	if err := validateSubmission(req.Fields); err != nil {
		return nil, err
	}

	key := s.submissionKey(def, caller, req.IdempotencyKey)
	if key != "" {
		var reserved bool
		reserved, err = s.idempotency.Reserve(ctx, key, s.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !reserved {
			return s.replay(ctx, def, caller, key)
		}
		defer func() {
			if err != nil {
				if relErr := s.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
					logger.L(ctx).Warn("Failed to release submission key", zap.String("key", key), zap.Error(relErr))
				}
			}
		}()
	}

	fields := s.registry.Mutate(def.Name, panel.PageCreate, req.Fields, caller.ActorID)
	record := panel.NewRecord(def.Name, fields)
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRecordID, record.ID.String())

	if key != "" {
		if err := s.idempotency.Complete(ctx, key, record.ID.String(), s.idempotencyTTL); err != nil {
			logger.L(ctx).Warn("Failed to complete submission key", zap.String("key", key), zap.Error(err))
		}
	}

	s.logger.Info("Record created",
		append(logger.Fields(ctx),
			zap.String("resource", def.Name),
			zap.String("record_id", record.ID.String()),
			zap.String("actor_id", caller.ActorID.String()),
		)...,
	)
	return s.writeResult(def, panel.PageCreate, caller.Locale, "notifications.created", record), nil
}

// Update runs the Edit page save. Submitted fields overlay the stored ones.
func (s *PageService) Update(ctx context.Context, caller Caller, slug string, id uuid.UUID, req SubmitRequest) (result *WriteResult, err error) {
	def, err := s.resolve(slug)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "panel", "update",
		telemetry.SpanAttrResource, def.Name,
		telemetry.SpanAttrPage, string(panel.PageEdit),
		telemetry.SpanAttrRecordID, id.String(),
		telemetry.SpanAttrActorID, caller.ActorID.String(),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		s.metrics.RecordOperation(ctx, def.Name, "update", started, err)
	}()

	if err := s.authorize(def, panel.ActionEdit, caller); err != nil {
		return nil, err
	}
	if err := validateSubmission(req.Fields); err != nil {
		return nil, err
	}

	record, err := s.records.FindByID(ctx, def.Name, id, shared.TrashedWithout)
	if err != nil {
		return nil, err
	}

	merged := record.Fields.Clone()
	for k, v := range req.Fields {
		merged[k] = v
	}
	// created_by belongs to the creating actor and is never taken from an edit
	if creator, ok := record.Fields[panel.FieldCreatedBy]; ok {
		merged[panel.FieldCreatedBy] = creator
	} else {
		delete(merged, panel.FieldCreatedBy)
	}
	record.Replace(s.registry.Mutate(def.Name, panel.PageEdit, merged, caller.ActorID))

	if err := s.records.Update(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Record saved",
		append(logger.Fields(ctx),
			zap.String("resource", def.Name),
			zap.String("record_id", record.ID.String()),
			zap.String("actor_id", caller.ActorID.String()),
		)...,
	)
	return s.writeResult(def, panel.PageEdit, caller.Locale, "notifications.saved", record), nil
}

// Delete runs the Delete action. Soft-deleting resources keep the record in
// the trash, all others remove it permanently.
func (s *PageService) Delete(ctx context.Context, caller Caller, slug string, id uuid.UUID) (result *WriteResult, err error) {
	return s.remove(ctx, caller, slug, id, panel.ActionDelete)
}

// ForceDelete runs the ForceDelete action, removing a record permanently
func (s *PageService) ForceDelete(ctx context.Context, caller Caller, slug string, id uuid.UUID) (result *WriteResult, err error) {
	return s.remove(ctx, caller, slug, id, panel.ActionForceDelete)
}

// Restore runs the Restore action on a soft-deleted record
func (s *PageService) Restore(ctx context.Context, caller Caller, slug string, id uuid.UUID) (result *WriteResult, err error) {
	def, err := s.resolve(slug)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "panel", "restore",
		telemetry.SpanAttrResource, def.Name,
		telemetry.SpanAttrAction, string(panel.ActionRestore),
		telemetry.SpanAttrRecordID, id.String(),
		telemetry.SpanAttrActorID, caller.ActorID.String(),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		s.metrics.RecordOperation(ctx, def.Name, "restore", started, err)
	}()

	if err := s.authorize(def, panel.ActionRestore, caller); err != nil {
		return nil, err
	}
	if err := s.records.Restore(ctx, def.Name, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			if _, findErr := s.records.FindByID(ctx, def.Name, id, shared.TrashedWithout); findErr == nil {
				return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "Record is not in the trash")
			}
		}
		return nil, err
	}
	record, err := s.records.FindByID(ctx, def.Name, id, shared.TrashedWithout)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Record restored",
		append(logger.Fields(ctx),
			zap.String("resource", def.Name),
			zap.String("record_id", id.String()),
			zap.String("actor_id", caller.ActorID.String()),
		)...,
	)
	resp := ToRecordResponse(record)
	return &WriteResult{
		Record:       &resp,
		Notification: s.translations.Translate(caller.Locale, "notifications.restored"),
	}, nil
}

func (s *PageService) remove(ctx context.Context, caller Caller, slug string, id uuid.UUID, action panel.ActionKind) (result *WriteResult, err error) {
	def, err := s.resolve(slug)
	if err != nil {
		return nil, err
	}
	operation := string(action)
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "panel", operation,
		telemetry.SpanAttrResource, def.Name,
		telemetry.SpanAttrAction, operation,
		telemetry.SpanAttrRecordID, id.String(),
		telemetry.SpanAttrActorID, caller.ActorID.String(),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		s.metrics.RecordOperation(ctx, def.Name, operation, started, err)
	}()

	if err := s.authorize(def, action, caller); err != nil {
		return nil, err
	}

	notification := "notifications.force_deleted"
	if action == panel.ActionDelete && def.SoftDeletes {
		notification = "notifications.deleted"
		err = s.records.Delete(ctx, def.Name, id)
	} else {
		err = s.records.ForceDelete(ctx, def.Name, id)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Record deleted",
		append(logger.Fields(ctx),
			zap.String("resource", def.Name),
			zap.String("record_id", id.String()),
			zap.String("actor_id", caller.ActorID.String()),
			zap.String("action", operation),
		)...,
	)
	redirect := s.registry.RedirectTarget(def.Name)
	return &WriteResult{
		Redirect:     &redirect,
		Notification: s.translations.Translate(caller.Locale, notification),
	}, nil
}

// replay answers a repeated submission from the idempotency store
func (s *PageService) replay(ctx context.Context, def panel.ResourceDefinition, caller Caller, key string) (*WriteResult, error) {
	value, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found || value == shared.IdempotencyPending {
		return nil, shared.ErrDuplicateSubmission
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("corrupt submission key %s: %w", key, err)
	}
	record, err := s.records.FindByID(ctx, def.Name, id, shared.TrashedWith)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrDuplicateSubmission
		}
		return nil, err
	}

	s.metrics.RecordReplay(ctx, def.Name)
	logger.L(ctx).Info("Submission replayed",
		zap.String("resource", def.Name),
		zap.String("record_id", id.String()),
	)
	result := s.writeResult(def, panel.PageCreate, caller.Locale, "notifications.created", record)
	result.Replayed = true
	return result, nil
}

func (s *PageService) resolve(slug string) (panel.ResourceDefinition, error) {
	def, ok := s.registry.ResourceBySlug(slug)
	if !ok {
		return panel.ResourceDefinition{}, panel.ErrUnknownResource
	}
	return def, nil
}

func (s *PageService) authorize(def panel.ResourceDefinition, action panel.ActionKind, caller Caller) error {
	if caller.ActorID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	if !s.registry.Allows(def.Name, action) {
		return panel.ErrActionNotAllowed
	}
	return nil
}

// submissionKey scopes a client key to the resource and actor. Empty when replay protection is off.
func (s *PageService) submissionKey(def panel.ResourceDefinition, caller Caller, clientKey string) string {
	clientKey = strings.TrimSpace(clientKey)
	if s.idempotency == nil || clientKey == "" {
		return ""
	}
	return def.Slug + ":" + caller.ActorID.String() + ":" + clientKey
}

func (s *PageService) listFilter(def panel.ResourceDefinition, req ListRequest) (panel.RecordFilter, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = s.defaultPageSize
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = min(req.PageSize, s.maxPageSize)
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = strings.ToLower(req.OrderDir)
	}
	filter.Search = req.Search

	trashed := shared.TrashedMode(req.Trashed)
	if !trashed.IsValid() {
		return panel.RecordFilter{}, shared.NewDomainError("INVALID_TRASHED_FILTER", "trashed must be one of: with, only")
	}
	if trashed != shared.TrashedWithout && !def.SoftDeletes {
		return panel.RecordFilter{}, shared.NewDomainError("INVALID_TRASHED_FILTER", "Resource does not soft delete")
	}
	filter.Trashed = trashed

	return panel.RecordFilter{Filter: filter, Resource: def.Name}, nil
}

func (s *PageService) pageView(def panel.ResourceDefinition, page panel.PageType, locale string, record *panel.Record) PageView {
	var id *uuid.UUID
	if record != nil {
		id = &record.ID
	}
	kinds := s.registry.ActionsFor(def.Name, page)
	actions := make([]ActionView, 0, len(kinds))
	for _, kind := range kinds {
		method, url := actionRequest(kind, def.Slug, id)
		actions = append(actions, ActionView{
			Kind:    kind,
			Label:   s.translations.Label(locale, kind.TranslationKey(), string(kind)),
			Method:  method,
			URL:     url,
			Enabled: url != "" && actionEnabled(kind, record),
		})
	}

	label := s.translations.Label(locale, def.LabelKey(), def.Name)
	plural := s.translations.Label(locale, def.PluralLabelKey(), def.Slug)
	title := plural
	if page != panel.PageList {
		title = s.translations.Label(locale, "pages."+string(page), string(page)) + " " + label
	}

	return PageView{
		Resource:    def.Name,
		Slug:        def.Slug,
		Page:        page,
		Title:       title,
		Label:       label,
		PluralLabel: plural,
		SoftDeletes: def.SoftDeletes,
		Actions:     actions,
		Index:       panel.IndexRoute(def.Slug),
		Locale:      s.resolvedLocale(locale),
	}
}

func (s *PageService) writeResult(def panel.ResourceDefinition, page panel.PageType, locale, notification string, record *panel.Record) *WriteResult {
	resp := ToRecordResponse(record)
	result := &WriteResult{
		Record:       &resp,
		Notification: s.translations.Translate(locale, notification),
	}
	if route, ok := s.registry.RedirectFor(def.Name, page); ok {
		result.Redirect = &route
	}
	return result
}

func (s *PageService) resolvedLocale(locale string) string {
	if locale == "" || !s.translations.Has(locale) {
		return s.translations.DefaultLocale()
	}
	return locale
}

// trashedScope lets record pages of soft-deleting resources reach trashed records
func trashedScope(def panel.ResourceDefinition) shared.TrashedMode {
	if def.SoftDeletes {
		return shared.TrashedWith
	}
	return shared.TrashedWithout
}

// validateSubmission rejects blank field names
func validateSubmission(fields panel.Submission) error {
	if fields == nil {
		return shared.NewDomainError("INVALID_INPUT", "fields are required")
	}
	for k := range fields {
		if strings.TrimSpace(k) == "" {
			return shared.NewDomainError("INVALID_INPUT", "field names must not be blank")
		}
	}
	return nil
}
