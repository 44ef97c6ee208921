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

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale with all of its items
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.findOne(conn(ctx, r.db).Where("id = ?", id))
}

// FindByIDForUpdate finds a sale and locks its row for the rest of the
// ambient transaction
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.findOne(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// FindByInvoiceNumber finds a sale by its invoice number
func (r *GormSaleRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*trade.Sale, error) {
	return r.findOne(conn(ctx, r.db).Where("invoice_number = ?", invoiceNumber))
}

func (r *GormSaleRepository) findOne(query *gorm.DB) (*trade.Sale, error) {
	var model models.SaleModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Sale")
		}
		return nil, err
	}
	if err := query.Session(&gorm.Session{NewDB: true}).
		Where("sale_id = ?", model.ID).
		Order("created_at ASC").
		Find(&model.Items).Error; err != nil {
		return nil, err
	}
	return model.ToDomain()
}

// ExistsForOrder reports whether any sale references the order
func (r *GormSaleRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.SaleModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll finds sales matching the filter. Items are not loaded.
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Sale, error) {
	var saleModels []models.SaleModel
	query := applyPaging(r.filtered(ctx, filter), filter, SaleSortFields)
	if err := query.Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toSales(saleModels)
}

// FindBySaleDate finds active sales with from <= sale_date < to, oldest first
func (r *GormSaleRepository) FindBySaleDate(ctx context.Context, from, to time.Time) ([]trade.Sale, error) {
	var saleModels []models.SaleModel
	if err := conn(ctx, r.db).
		Where("is_active = ? AND sale_date >= ? AND sale_date < ?", true, from, to).
		Order("sale_date ASC, invoice_number ASC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toSales(saleModels)
}

// Count counts sales matching the filter
func (r *GormSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a sale and synchronises its items
func (r *GormSaleRepository) Save(ctx context.Context, sale *trade.Sale) error {
	model := &models.SaleModel{}
	if err := model.FromDomain(sale); err != nil {
		return err
	}
	return inTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return r.syncItems(tx, sale)
	})
}

// SaveWithLock saves with optimistic locking. The stored version must match
// sale.Version; on success the version is incremented.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *trade.Sale) error {
	model := &models.SaleModel{}
	if err := model.FromDomain(sale); err != nil {
		return err
	}
	return inTransaction(ctx, r.db, func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.SaleModel{}).
			Where("id = ?", sale.ID).
			Select("version").
			Take(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError("Sale")
			}
			return err
		}
		if currentVersion != sale.Version {
			return concurrentModification("sale")
		}

		model.Version = currentVersion + 1
		model.UpdatedAt = time.Now()

		result := tx.Model(&models.SaleModel{}).
			Where("id = ? AND version = ?", sale.ID, currentVersion).
			Select("*").
			Omit("id", "created_at", "created_by", clause.Associations).
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return concurrentModification("sale")
		}

		if err := r.syncItems(tx, sale); err != nil {
			return err
		}
		sale.Version = model.Version
		sale.UpdatedAt = model.UpdatedAt
		return nil
	})
}

// Delete removes a sale and its items permanently
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTransaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", id).Delete(&models.SaleItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.SaleModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("Sale")
		}
		return nil
	})
}

// syncItems deletes item rows no longer on the sale and upserts the rest.
func (r *GormSaleRepository) syncItems(tx *gorm.DB, sale *trade.Sale) error {
	ids := make([]uuid.UUID, len(sale.Items))
	for i := range sale.Items {
		ids[i] = sale.Items[i].ID
	}

	stale := tx.Where("sale_id = ?", sale.ID)
	if len(ids) > 0 {
		stale = stale.Where("id NOT IN ?", ids)
	}
	if err := stale.Delete(&models.SaleItemModel{}).Error; err != nil {
		return err
	}

	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
		if err := tx.Save(models.SaleItemModelFromDomain(&sale.Items[i])).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormSaleRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := applyActive(conn(ctx, r.db).Model(&models.SaleModel{}), filter)
	query = applySearch(query, filter.Search, "invoice_number", "customer_name", "customer_phone")

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "payment_method":
			query = query.Where("payment_method = ?", value)
		case "fully_paid":
			if paid, ok := value.(bool); ok {
				query = query.Where("is_fully_paid = ?", paid)
			}
		case "date_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("sale_date >= ?", t)
			}
		case "date_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("sale_date <= ?", t)
			}
		}
	}
	return query
}

func toSales(saleModels []models.SaleModel) ([]trade.Sale, error) {
	sales := make([]trade.Sale, len(saleModels))
	for i := range saleModels {
		sale, err := saleModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		sales[i] = *sale
	}
	return sales, nil
}
