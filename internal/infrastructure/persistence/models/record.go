package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backoffice/internal/domain/panel"
	"github.com/procurement/backoffice/internal/domain/shared"
	"gorm.io/gorm"
)

// RecordModel is the persistence model of a panel record. All resources share
// one table and are told apart by the resource column.
type RecordModel struct {
	BaseModel
	Resource  string         `gorm:"type:varchar(100);not null;index:idx_panel_records_resource"`
	CreatedBy *uuid.UUID     `gorm:"type:uuid;index"`
	UpdatedBy *uuid.UUID     `gorm:"type:uuid"`
	Fields    map[string]any `gorm:"type:text;serializer:json;not null"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (RecordModel) TableName() string {
	return "panel_records"
}

// ToDomain converts the model to a domain record
func (m *RecordModel) ToDomain() *panel.Record {
	r := &panel.Record{
		BaseEntity: m.BaseModel.ToDomain(),
		Resource:   m.Resource,
		CreatedBy:  m.CreatedBy,
		UpdatedBy:  m.UpdatedBy,
		Fields:     panel.Submission(m.Fields).Clone(),
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		r.DeletedAt = &t
	}
	return r
}

// RecordModelFromDomain converts a domain record to its persistence model
func RecordModelFromDomain(r *panel.Record) *RecordModel {
	m := &RecordModel{
		Resource:  r.Resource,
		CreatedBy: r.CreatedBy,
		UpdatedBy: r.UpdatedBy,
		Fields:    map[string]any(r.Fields.Clone()),
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	if r.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *r.DeletedAt, Valid: true}
	}
	return m
}

// BaseModel provides the identity and timestamp columns shared by models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}
