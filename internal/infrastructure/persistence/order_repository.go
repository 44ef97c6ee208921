package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with all of its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	return r.find(conn(ctx, r.db), id)
}

// FindByIDForUpdate finds an order and locks its row for the rest of the
// ambient transaction
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	return r.find(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormOrderRepository) find(db *gorm.DB, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Order")
		}
		return nil, err
	}
	if err := db.Session(&gorm.Session{NewDB: true}).
		Where("order_id = ?", id).
		Order("created_at ASC").
		Find(&model.Items).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds orders matching the filter. Items are not loaded.
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Order, error) {
	var orderModels []models.OrderModel
	query := applyPaging(r.filtered(ctx, filter), filter, OrderSortFields)
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]trade.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an order and synchronises its items
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return inTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(models.OrderModelFromDomain(order)).Error; err != nil {
			return err
		}
		return r.syncItems(tx, order)
	})
}

// SaveWithLock saves with optimistic locking. The stored version must match
// order.Version; on success the version is incremented.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	return inTransaction(ctx, r.db, func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.OrderModel{}).
			Where("id = ?", order.ID).
			Select("version").
			Take(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError("Order")
			}
			return err
		}
		if currentVersion != order.Version {
			return concurrentModification("order")
		}

		model := models.OrderModelFromDomain(order)
		model.Version = currentVersion + 1
		model.UpdatedAt = time.Now()

		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", order.ID, currentVersion).
			Select("*").
			Omit("id", "created_at", "created_by", clause.Associations).
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return concurrentModification("order")
		}

		if err := r.syncItems(tx, order); err != nil {
			return err
		}
		order.Version = model.Version
		order.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// Delete removes an order and its items permanently
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.OrderModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("Order")
		}
		return nil
	})
}

// syncItems deletes item rows no longer on the order and upserts the rest.
func (r *GormOrderRepository) syncItems(tx *gorm.DB, order *trade.Order) error {
	ids := make([]uuid.UUID, len(order.Items))
	for i := range order.Items {
		ids[i] = order.Items[i].ID
	}

	stale := tx.Where("order_id = ?", order.ID)
	if len(ids) > 0 {
		stale = stale.Where("id NOT IN ?", ids)
	}
	if err := stale.Delete(&models.OrderItemModel{}).Error; err != nil {
		return err
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		if err := tx.Save(models.OrderItemModelFromDomain(&order.Items[i])).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormOrderRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := applyActive(conn(ctx, r.db).Model(&models.OrderModel{}), filter)
	query = applySearch(query, filter.Search, "customer_name", "customer_phone", "description")

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "payment_status":
			query = query.Where("payment_status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "date_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("date_ordered >= ?", t)
			}
		case "date_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("date_ordered <= ?", t)
			}
		case "converted":
			if converted, ok := value.(bool); ok {
				if converted {
					query = query.Where("converted_sale_id IS NOT NULL")
				} else {
					query = query.Where("converted_sale_id IS NULL")
				}
			}
		}
	}
	return query
}

func concurrentModification(resource string) error {
	return shared.NewConflictError("CONCURRENT_MODIFICATION", "The "+resource+" has been modified by another user")
}
