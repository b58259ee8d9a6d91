package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/procurement/backoffice/internal/domain/panel"
	"github.com/procurement/backoffice/internal/domain/shared"
	"github.com/procurement/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRecordRepository implements panel.RecordRepository using GORM
type GormRecordRepository struct {
	db *gorm.DB
}

// NewGormRecordRepository creates a new GormRecordRepository
func NewGormRecordRepository(db *gorm.DB) *GormRecordRepository {
	return &GormRecordRepository{db: db}
}

var _ panel.RecordRepository = (*GormRecordRepository)(nil)

// Create inserts a new record
func (r *GormRecordRepository) Create(ctx context.Context, record *panel.Record) error {
	if err := r.db.WithContext(ctx).Create(models.RecordModelFromDomain(record)).Error; err != nil {
		return fmt.Errorf("failed to create %s record: %w", record.Resource, err)
	}
	return nil
}

// Update saves the fields and editor of a live record
func (r *GormRecordRepository) Update(ctx context.Context, record *panel.Record) error {
	model := models.RecordModelFromDomain(record)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("resource = ?", record.Resource).
		Select("fields", "updated_by", "updated_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s record: %w", record.Resource, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a record of the resource by ID
func (r *GormRecordRepository) FindByID(ctx context.Context, resource string, id uuid.UUID, trashed shared.TrashedMode) (*panel.Record, error) {
	var model models.RecordModel
	query := withTrashed(r.db.WithContext(ctx), trashed).
		Where("resource = ? AND id = ?", resource, id)
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists the records of a resource
func (r *GormRecordRepository) FindAll(ctx context.Context, filter panel.RecordFilter) ([]panel.Record, error) {
	var rows []models.RecordModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RecordModel{}), filter)

	orderBy := ValidateSortField(filter.OrderBy, RecordSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir).Order("id " + orderDir)

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]panel.Record, 0, len(rows))
	for i := range rows {
		records = append(records, *rows[i].ToDomain())
	}
	return records, nil
}

// Count counts records matching the filter, ignoring pagination
func (r *GormRecordRepository) Count(ctx context.Context, filter panel.RecordFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RecordModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete soft deletes a live record
func (r *GormRecordRepository) Delete(ctx context.Context, resource string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("resource = ? AND id = ?", resource, id).
		Delete(&models.RecordModel{})
	return rowsOrNotFound(result, "delete", resource)
}

// ForceDelete removes a record permanently, whether trashed or not
func (r *GormRecordRepository) ForceDelete(ctx context.Context, resource string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Unscoped().
		Where("resource = ? AND id = ?", resource, id).
		Delete(&models.RecordModel{})
	return rowsOrNotFound(result, "force delete", resource)
}

// Restore clears the soft-delete marker of a trashed record.
// Live and unknown records both report ErrNotFound.
func (r *GormRecordRepository) Restore(ctx context.Context, resource string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Unscoped().
		Model(&models.RecordModel{}).
		Where("resource = ? AND id = ? AND deleted_at IS NOT NULL", resource, id).
		Update("deleted_at", nil)
	return rowsOrNotFound(result, "restore", resource)
}

func (r *GormRecordRepository) applyFilter(query *gorm.DB, filter panel.RecordFilter) *gorm.DB {
	query = withTrashed(query, filter.Trashed).Where("resource = ?", filter.Resource)
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(r.searchClause(), "%"+likeEscaper.Replace(strings.ToLower(search))+"%")
	}
	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchClause matches the search pattern against field values, never field names
func (r *GormRecordRepository) searchClause() string {
	if r.db.Dialector.Name() == "postgres" {
		return `EXISTS (SELECT 1 FROM jsonb_each_text(CAST(fields AS jsonb)) AS f WHERE LOWER(f.value) LIKE ? ESCAPE '\')`
	}
	return `EXISTS (SELECT 1 FROM json_each(fields) AS f WHERE LOWER(CAST(f.value AS TEXT)) LIKE ? ESCAPE '\')`
}

func withTrashed(query *gorm.DB, mode shared.TrashedMode) *gorm.DB {
	switch mode {
	case shared.TrashedWith:
		return query.Unscoped()
	case shared.TrashedOnly:
		return query.Unscoped().Where("deleted_at IS NOT NULL")
	default:
		return query
	}
}

func rowsOrNotFound(result *gorm.DB, op, resource string) error {
	if result.Error != nil {
		return fmt.Errorf("failed to %s %s record: %w", op, resource, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
