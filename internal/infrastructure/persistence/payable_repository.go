package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPayableRepository implements PayableRepository using GORM
type GormPayableRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormPayableRepository creates a new GormPayableRepository
func NewGormPayableRepository(db *gorm.DB) *GormPayableRepository {
	return &GormPayableRepository{db: db, now: time.Now}
}

// FindByID finds a payable with its payments
func (r *GormPayableRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Payable, error) {
	return r.find(conn(ctx, r.db), id)
}

// FindByIDForUpdate finds a payable and locks its row for the rest of the
// ambient transaction
func (r *GormPayableRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*finance.Payable, error) {
	return r.find(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPayableRepository) find(db *gorm.DB, id uuid.UUID) (*finance.Payable, error) {
	var model models.PayableModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Payable")
		}
		return nil, err
	}
	if err := db.Session(&gorm.Session{NewDB: true}).
		Where("payable_id = ?", id).
		Order("payment_date ASC, created_at ASC").
		Find(&model.Payments).Error; err != nil {
		return nil, err
	}
	payable := model.ToDomain()
	payable.RefreshStatus(r.now())
	return payable, nil
}

// FindAll finds payables matching the filter. Payments are not loaded; the
// status of each row is refreshed against today's date.
func (r *GormPayableRepository) FindAll(ctx context.Context, filter finance.PayableFilter) ([]finance.Payable, error) {
	var payableModels []models.PayableModel
	query := applyPaging(r.filtered(ctx, filter), filter.Filter, PayableSortFields)
	if err := query.Find(&payableModels).Error; err != nil {
		return nil, err
	}

	now := r.now()
	payables := make([]finance.Payable, len(payableModels))
	for i := range payableModels {
		payables[i] = *payableModels[i].ToDomain()
		payables[i].RefreshStatus(now)
	}
	return payables, nil
}

// Count counts payables matching the filter
func (r *GormPayableRepository) Count(ctx context.Context, filter finance.PayableFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a payable and synchronises its payment rows
func (r *GormPayableRepository) Save(ctx context.Context, payable *finance.Payable) error {
	return inTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(models.PayableModelFromDomain(payable)).Error; err != nil {
			return err
		}
		return r.syncPayments(tx, payable)
	})
}

// SaveWithLock saves with optimistic locking. The stored version must match
// payable.Version; on success the version is incremented.
func (r *GormPayableRepository) SaveWithLock(ctx context.Context, payable *finance.Payable) error {
	return inTransaction(ctx, r.db, func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.PayableModel{}).
			Where("id = ?", payable.ID).
			Select("version").
			Take(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError("Payable")
			}
			return err
		}
		if currentVersion != payable.Version {
			return concurrentModification("payable")
		}

		model := models.PayableModelFromDomain(payable)
		model.Version = currentVersion + 1
		model.UpdatedAt = time.Now()

		result := tx.Model(&models.PayableModel{}).
			Where("id = ? AND version = ?", payable.ID, currentVersion).
			Select("*").
			Omit("id", "created_at", "created_by", clause.Associations).
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return concurrentModification("payable")
		}

		if err := r.syncPayments(tx, payable); err != nil {
			return err
		}
		payable.Version = model.Version
		payable.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// Delete removes a payable and its payments permanently
func (r *GormPayableRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("payable_id = ?", id).Delete(&models.PayablePaymentModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.PayableModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("Payable")
		}
		return nil
	})
}

// MarkOverdue flips open payables past their due date to OVERDUE. The
// version is left alone so in-flight edits are not rejected.
func (r *GormPayableRepository) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	open := []string{string(finance.PayableStatusActive), string(finance.PayableStatusPartiallyPaid)}
	result := conn(ctx, r.db).Model(&models.PayableModel{}).
		Where("is_active = ? AND status IN ? AND due_date IS NOT NULL AND due_date < ? AND cancelled_at IS NULL", true, open, truncateToDay(today)).
		Updates(map[string]any{
			"status":     string(finance.PayableStatusOverdue),
			"updated_at": r.now(),
		})
	return result.RowsAffected, result.Error
}

// syncPayments deletes payment rows no longer on the payable and upserts the rest.
func (r *GormPayableRepository) syncPayments(tx *gorm.DB, payable *finance.Payable) error {
	ids := make([]uuid.UUID, len(payable.Payments))
	for i := range payable.Payments {
		ids[i] = payable.Payments[i].ID
	}

	stale := tx.Where("payable_id = ?", payable.ID)
	if len(ids) > 0 {
		stale = stale.Where("id NOT IN ?", ids)
	}
	if err := stale.Delete(&models.PayablePaymentModel{}).Error; err != nil {
		return err
	}

	for i := range payable.Payments {
		payable.Payments[i].PayableID = payable.ID
		if err := tx.Save(models.PayablePaymentModelFromDomain(&payable.Payments[i])).Error; err != nil {
			return err
		}
	}
	return nil
}

// filtered applies the status filters. OVERDUE is derived from the due date
// so rows whose stored status predates the due date are still found.
func (r *GormPayableRepository) filtered(ctx context.Context, filter finance.PayableFilter) *gorm.DB {
	query := applyActive(conn(ctx, r.db).Model(&models.PayableModel{}), filter.Filter)
	query = applySearch(query, filter.Search, "creditor_name", "creditor_phone", "description")

	today := truncateToDay(r.now())
	settled := []string{string(finance.PayableStatusPaid), string(finance.PayableStatusCancelled)}
	overdue := func(q *gorm.DB) *gorm.DB {
		return q.Where("status NOT IN ? AND due_date IS NOT NULL AND due_date < ?", settled, today)
	}

	if filter.OverdueOnly {
		query = overdue(query)
	}
	switch filter.Status {
	case "":
	case finance.PayableStatusOverdue:
		query = overdue(query)
	case finance.PayableStatusActive, finance.PayableStatusPartiallyPaid:
		query = query.Where("status IN ?", []string{string(filter.Status), string(finance.PayableStatusOverdue)}).
			Where("(due_date IS NULL OR due_date >= ?)", today)
		if filter.Status == finance.PayableStatusActive {
			query = query.Where("amount_paid = 0")
		} else {
			query = query.Where("amount_paid > 0")
		}
	default:
		query = query.Where("status = ?", filter.Status)
	}
	return query
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
