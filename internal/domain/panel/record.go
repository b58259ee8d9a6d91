package panel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backoffice/internal/domain/shared"
)

// Record is a persisted submission of one resource
type Record struct {
	shared.BaseEntity
	Resource  string
	CreatedBy *uuid.UUID
	UpdatedBy *uuid.UUID
	Fields    Submission
	DeletedAt *time.Time
}

// NewRecord creates a record from a mutated submission.
// created_by and updated_by are lifted out of the fields when they hold actor IDs.
func NewRecord(resource string, fields Submission) *Record {
	r := &Record{
		BaseEntity: shared.NewBaseEntity(),
		Resource:   resource,
	}
	r.apply(fields)
	return r
}

// Replace overwrites the record's fields with a mutated submission
func (r *Record) Replace(fields Submission) {
	r.apply(fields)
	r.Touch()
}

func (r *Record) apply(fields Submission) {
	r.Fields = fields.Clone()
	if id, ok := actorField(fields, FieldCreatedBy); ok && r.CreatedBy == nil {
		r.CreatedBy = &id
	}
	if id, ok := actorField(fields, FieldUpdatedBy); ok {
		r.UpdatedBy = &id
	}
}

// IsTrashed reports whether the record is soft deleted
func (r *Record) IsTrashed() bool {
	return r.DeletedAt != nil
}

// Status returns the record's status field, if any
func (r *Record) Status() string {
	s, _ := r.Fields.String(FieldStatus)
	return s
}

func actorField(fields Submission, key string) (uuid.UUID, bool) {
	s, ok := fields.String(key)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RecordFilter narrows a record listing to one resource
type RecordFilter struct {
	shared.Filter
	Resource string
}

// RecordRepository persists panel records
type RecordRepository interface {
	// Create inserts a new record
	Create(ctx context.Context, record *Record) error
	// Update saves an existing record
	Update(ctx context.Context, record *Record) error
	// FindByID returns a record of the resource. Trashed records are only
	// returned when trashed is TrashedWith or TrashedOnly.
	FindByID(ctx context.Context, resource string, id uuid.UUID, trashed shared.TrashedMode) (*Record, error)
	// FindAll lists records of a resource
	FindAll(ctx context.Context, filter RecordFilter) ([]Record, error)
	// Count counts records matching the filter
	Count(ctx context.Context, filter RecordFilter) (int64, error)
	// Delete soft deletes a record
	Delete(ctx context.Context, resource string, id uuid.UUID) error
	// ForceDelete removes a record permanently, trashed or not
	ForceDelete(ctx context.Context, resource string, id uuid.UUID) error
	// Restore clears a record's soft-delete marker
	Restore(ctx context.Context, resource string, id uuid.UUID) error
}
