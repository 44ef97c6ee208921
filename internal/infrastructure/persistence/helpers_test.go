package persistence

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedCustomer(t *testing.T, db *gorm.DB, name string) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(name, "0300-1234567", strings.ToLower(name)+"@example.com")
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(db).Save(context.Background(), c))
	return c
}

func newOrderFor(t *testing.T, c *partner.Customer, items ...string) *trade.Order {
	t.Helper()
	order, err := trade.NewOrder(c.ID, trade.CustomerSnapshot{Name: c.Name, Phone: c.Phone, Email: c.Email},
		day(2026, 3, 1), nil, "Wedding cake")
	require.NoError(t, err)
	for _, price := range items {
		_, err := order.AddItem(uuid.New(), "Item "+price, 2, dec(price), "")
		require.NoError(t, err)
	}
	return order
}

func newSaleFor(t *testing.T, c *partner.Customer, invoice string, saleDate time.Time, prices ...string) *trade.Sale {
	t.Helper()
	sale, err := trade.NewSale(invoice, c.ID, trade.CustomerSnapshot{Name: c.Name, Phone: c.Phone, Email: c.Email}, saleDate)
	require.NoError(t, err)
	for _, price := range prices {
		_, err := sale.AddItem(uuid.New(), "Item "+price, 1, dec(price), decimal.Zero, "", nil)
		require.NoError(t, err)
	}
	return sale
}
