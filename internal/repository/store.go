package repository

import "gorm.io/gorm"

// Store bundles every repository over one backend together with the
// transaction manager that scopes them.
type Store struct {
	Tx             TransactionManager
	Products       ProductRepository
	Movements      StockMovementRepository
	PurchaseOrders PurchaseOrderRepository
	Bills          BillRepository
	SalesOrders    SalesOrderRepository
	Invoices       InvoiceRepository
	Payments       PaymentRepository
	Returns        ReturnRepository
	Partners       PartnerRepository
	Audit          AuditRepository
	Sequences      SequenceRepository
}

// NewGormStore wires the gorm implementations over db.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Tx:             NewTransactionManager(db),
		Products:       NewProductRepository(db),
		Movements:      NewStockMovementRepository(db),
		PurchaseOrders: NewPurchaseOrderRepository(db),
		Bills:          NewBillRepository(db),
		SalesOrders:    NewSalesOrderRepository(db),
		Invoices:       NewInvoiceRepository(db),
		Payments:       NewPaymentRepository(db),
		Returns:        NewReturnRepository(db),
		Partners:       NewPartnerRepository(db),
		Audit:          NewAuditRepository(db),
		Sequences:      NewSequenceRepository(db),
	}
}
