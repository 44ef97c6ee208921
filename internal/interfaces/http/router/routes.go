package router

import (
	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers bundles every API handler
type Handlers struct {
	Customers *handler.CustomerHandler
	Products  *handler.ProductHandler
	Orders    *handler.OrderHandler
	Sales     *handler.SaleHandler
	Payables  *handler.PayableHandler
	Reports   *handler.ReportHandler
}

// LedgerGroups builds the route groups of the ledger API. idempotent guards
// the payment routes.
func LedgerGroups(h Handlers, idempotent gin.HandlerFunc) []RouteRegistrar {
	customers := NewDomainGroup("/customers").
		GET("", h.Customers.List).
		POST("", h.Customers.Create).
		GET("/:id", h.Customers.GetByID).
		PUT("/:id", h.Customers.Update).
		DELETE("/:id", h.Customers.Delete).
		POST("/:id/restore", h.Customers.Restore)

	products := NewDomainGroup("/products").
		GET("", h.Products.List).
		POST("", h.Products.Create).
		GET("/:id", h.Products.GetByID).
		PUT("/:id", h.Products.Update).
		DELETE("/:id", h.Products.Delete).
		POST("/:id/restore", h.Products.Restore).
		POST("/:id/stock", h.Products.AdjustStock)

	orders := NewDomainGroup("/orders").
		GET("", h.Orders.List).
		POST("", h.Orders.Create).
		POST("/bulk-status", h.Orders.BulkUpdateStatus).
		GET("/:id", h.Orders.GetByID).
		PUT("/:id", h.Orders.Update).
		DELETE("/:id", h.Orders.Delete).
		POST("/:id/restore", h.Orders.Restore).
		POST("/:id/payment", idempotent, h.Orders.AddPayment).
		POST("/:id/status", h.Orders.UpdateStatus).
		POST("/:id/recalculate", h.Orders.Recalculate).
		POST("/:id/resync-customer", h.Orders.ResyncCustomer).
		POST("/:id/items", h.Orders.AddItem).
		PUT("/:id/items/:item_id", h.Orders.UpdateItem).
		DELETE("/:id/items/:item_id", h.Orders.RemoveItem)

	sales := NewDomainGroup("/sales").
		GET("", h.Sales.List).
		POST("", idempotent, h.Sales.Create).
		POST("/create-from-order", idempotent, h.Sales.CreateFromOrder).
		GET("/export", h.Sales.Export).
		POST("/export", h.Sales.Archive).
		GET("/invoice/:invoice_number", h.Sales.GetByInvoiceNumber).
		GET("/:id", h.Sales.GetByID).
		DELETE("/:id", h.Sales.Delete).
		POST("/:id/restore", h.Sales.Restore).
		POST("/:id/add-payment", idempotent, h.Sales.AddPayment).
		POST("/:id/update-status", h.Sales.UpdateStatus).
		POST("/:id/recalculate", h.Sales.Recalculate).
		POST("/:id/resync-customer", h.Sales.ResyncCustomer).
		POST("/:id/items", h.Sales.AddItem).
		PUT("/:id/items/:item_id", h.Sales.UpdateItem).
		DELETE("/:id/items/:item_id", h.Sales.RemoveItem)

	payables := NewDomainGroup("/payables").
		GET("", h.Payables.List).
		POST("", h.Payables.Create).
		GET("/:id", h.Payables.GetByID).
		PUT("/:id", h.Payables.Update).
		DELETE("/:id", h.Payables.Delete).
		POST("/:id/restore", h.Payables.Restore).
		POST("/:id/cancel", h.Payables.Cancel).
		GET("/:id/payments", h.Payables.ListPayments).
		POST("/:id/payments", idempotent, h.Payables.AddPayment).
		DELETE("/:id/payments/:payment_id", h.Payables.DeletePayment)

	reports := NewDomainGroup("/reports").
		GET("/summary", h.Reports.Summary)

	return []RouteRegistrar{customers, products, orders, sales, payables, reports}
}
