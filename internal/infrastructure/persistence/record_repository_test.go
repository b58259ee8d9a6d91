package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/procurement/backoffice/internal/domain/panel"
	"github.com/procurement/backoffice/internal/domain/shared"
	"github.com/procurement/backoffice/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRecordTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.RecordModel{}))
	return db
}

func createLease(t *testing.T, repo *GormRecordRepository, name string) *panel.Record {
	t.Helper()
	fields := panel.LeaseCreateMutator().Apply(panel.Submission{"name": name}, uuid.New())
	rec := panel.NewRecord(panel.ResourceLease, fields)
	require.NoError(t, repo.Create(context.Background(), rec))
	return rec
}

func TestGormRecordRepository_CreateAndFind(t *testing.T) {
	repo := NewGormRecordRepository(setupRecordTestDB(t))
	ctx := context.Background()

	rec := createLease(t, repo, "North depot")

	found, err := repo.FindByID(ctx, panel.ResourceLease, rec.ID, shared.TrashedWithout)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)
	assert.Equal(t, panel.ResourceLease, found.Resource)
	assert.Equal(t, *rec.CreatedBy, *found.CreatedBy)
	assert.Equal(t, "North depot", found.Fields["name"])
	assert.Equal(t, panel.StatusDraft, found.Status())

	liability, ok := found.Fields.Decimal(panel.FieldLeaseLiability)
	require.True(t, ok)
	assert.True(t, liability.Equal(decimal.Zero))
	for _, key := range panel.LeaseLedgerFields() {
		assert.IsType(t, float64(0), found.Fields[key], key)
	}

	t.Run("scoped to the resource", func(t *testing.T) {
		_, err := repo.FindByID(ctx, panel.ResourceRfq, rec.ID, shared.TrashedWithout)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, panel.ResourceLease, uuid.New(), shared.TrashedWithout)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormRecordRepository_Update(t *testing.T) {
	repo := NewGormRecordRepository(setupRecordTestDB(t))
	ctx := context.Background()
	rec := createLease(t, repo, "Old name")

	editor := uuid.New()
	rec.Replace(panel.StampUpdatedBy().Apply(panel.Submission{"name": "New name"}, editor))
	require.NoError(t, repo.Update(ctx, rec))

	found, err := repo.FindByID(ctx, panel.ResourceLease, rec.ID, shared.TrashedWithout)
	require.NoError(t, err)
	assert.Equal(t, "New name", found.Fields["name"])
	require.NotNil(t, found.UpdatedBy)
	assert.Equal(t, editor, *found.UpdatedBy)

	t.Run("trashed records cannot be updated", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, panel.ResourceLease, rec.ID))
		err := repo.Update(ctx, rec)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormRecordRepository_SoftDeleteLifecycle(t *testing.T) {
	repo := NewGormRecordRepository(setupRecordTestDB(t))
	ctx := context.Background()
	rec := createLease(t, repo, "Yard")

	assert.ErrorIs(t, repo.Restore(ctx, panel.ResourceLease, rec.ID), shared.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, panel.ResourceLease, rec.ID))

	_, err := repo.FindByID(ctx, panel.ResourceLease, rec.ID, shared.TrashedWithout)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	trashed, err := repo.FindByID(ctx, panel.ResourceLease, rec.ID, shared.TrashedOnly)
	require.NoError(t, err)
	assert.True(t, trashed.IsTrashed())

	assert.ErrorIs(t, repo.Delete(ctx, panel.ResourceLease, rec.ID), shared.ErrNotFound)

	require.NoError(t, repo.Restore(ctx, panel.ResourceLease, rec.ID))
	restored, err := repo.FindByID(ctx, panel.ResourceLease, rec.ID, shared.TrashedWithout)
	require.NoError(t, err)
	assert.False(t, restored.IsTrashed())

	require.NoError(t, repo.Delete(ctx, panel.ResourceLease, rec.ID))
	require.NoError(t, repo.ForceDelete(ctx, panel.ResourceLease, rec.ID))
	_, err = repo.FindByID(ctx, panel.ResourceLease, rec.ID, shared.TrashedWith)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, repo.ForceDelete(ctx, panel.ResourceLease, rec.ID), shared.ErrNotFound)
	assert.ErrorIs(t, repo.Restore(ctx, panel.ResourceLease, rec.ID), shared.ErrNotFound)
}

func TestGormRecordRepository_FindAll(t *testing.T) {
	repo := NewGormRecordRepository(setupRecordTestDB(t))
	ctx := context.Background()

	var leases []*panel.Record
	for i := 0; i < 5; i++ {
		leases = append(leases, createLease(t, repo, fmt.Sprintf("Lease %d", i)))
	}
	other := panel.NewRecord(panel.ResourceRfq, panel.Submission{"name": "Lease-like RFQ"})
	require.NoError(t, repo.Create(ctx, other))
	require.NoError(t, repo.Delete(ctx, panel.ResourceLease, leases[0].ID))

	filter := func(mode shared.TrashedMode) panel.RecordFilter {
		f := panel.RecordFilter{Filter: shared.DefaultFilter(), Resource: panel.ResourceLease}
		f.Trashed = mode
		return f
	}

	tests := []struct {
		name  string
		mode  shared.TrashedMode
		count int64
	}{
		{"live records only", shared.TrashedWithout, 4},
		{"with trashed", shared.TrashedWith, 5},
		{"only trashed", shared.TrashedOnly, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := repo.FindAll(ctx, filter(tt.mode))
			require.NoError(t, err)
			assert.Len(t, records, int(tt.count))

			count, err := repo.Count(ctx, filter(tt.mode))
			require.NoError(t, err)
			assert.Equal(t, tt.count, count)
		})
	}

	t.Run("paginates", func(t *testing.T) {
		f := filter(shared.TrashedWith)
		f.PageSize = 2
		f.Page = 3
		records, err := repo.FindAll(ctx, f)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("searches the submitted fields", func(t *testing.T) {
		f := filter(shared.TrashedWithout)
		f.Search = "LEASE 3"
		records, err := repo.FindAll(ctx, f)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, leases[3].ID, records[0].ID)
	})

	t.Run("does not match field names", func(t *testing.T) {
		f := filter(shared.TrashedWith)
		f.Search = panel.FieldLeaseLiability
		count, err := repo.Count(ctx, f)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestGormRecordRepository_SearchEscapesWildcards(t *testing.T) {
	repo := NewGormRecordRepository(setupRecordTestDB(t))
	ctx := context.Background()

	discounted := createLease(t, repo, "50% off_site")
	createLease(t, repo, "Harbour 500")
	createLease(t, repo, "Rail offsite")

	tests := []struct {
		search string
		want   []uuid.UUID
	}{
		{"%", []uuid.UUID{discounted.ID}},
		{"50%", []uuid.UUID{discounted.ID}},
		{"off_site", []uuid.UUID{discounted.ID}},
		{"_", []uuid.UUID{discounted.ID}},
		{`\`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			f := panel.RecordFilter{Filter: shared.DefaultFilter(), Resource: panel.ResourceLease}
			f.Search = tt.search
			records, err := repo.FindAll(ctx, f)
			require.NoError(t, err)

			var got []uuid.UUID
			for _, r := range records {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func newMockRecordRepository(t *testing.T) (*GormRecordRepository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormRecordRepository(db), mock
}

func TestGormRecordRepository_DriverErrors(t *testing.T) {
	t.Run("count returns the driver error", func(t *testing.T) {
		repo, mock := newMockRecordRepository(t)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "panel_records"`).
			WithArgs(panel.ResourceTenderBond).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Count(context.Background(), panel.RecordFilter{Resource: panel.ResourceTenderBond})

		assert.EqualError(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("search on postgres matches values only", func(t *testing.T) {
		repo, mock := newMockRecordRepository(t)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "panel_records" WHERE .*jsonb_each_text`).
			WithArgs(panel.ResourceLease, `%100\%%`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		_, err := repo.Count(context.Background(), panel.RecordFilter{Resource: panel.ResourceLease, Filter: shared.Filter{Search: "100%"}})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("restore only targets trashed rows", func(t *testing.T) {
		repo, mock := newMockRecordRepository(t)
		id := uuid.New()
		mock.ExpectExec(`UPDATE "panel_records" SET .*"deleted_at".* WHERE .*deleted_at IS NOT NULL`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Restore(context.Background(), panel.ResourceLease, id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete failures name the operation", func(t *testing.T) {
		repo, mock := newMockRecordRepository(t)
		id := uuid.New()
		mock.ExpectExec(`UPDATE "panel_records" SET "deleted_at"=`).
			WillReturnError(errors.New("deadlock detected"))

		err := repo.Delete(context.Background(), panel.ResourceTenderBond, id)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete TenderBond record")
		assert.NotErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("force delete issues a hard delete", func(t *testing.T) {
		repo, mock := newMockRecordRepository(t)
		id := uuid.New()
		mock.ExpectExec(`DELETE FROM "panel_records" WHERE .*resource = \$1 AND id = \$2`).
			WithArgs(panel.ResourceTenderBond, id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ForceDelete(context.Background(), panel.ResourceTenderBond, id)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
