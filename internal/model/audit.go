package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProduct = "CREATE_PRODUCT"
	ActionUpdateProduct = "UPDATE_PRODUCT"
	ActionDeleteProduct = "DELETE_PRODUCT"
	ActionAdjustStock   = "ADJUST_STOCK"

	ActionCreatePurchaseOrder  = "CREATE_PURCHASE_ORDER"
	ActionSubmitPurchaseOrder  = "SUBMIT_PURCHASE_ORDER"
	ActionReceivePurchaseOrder = "RECEIVE_PURCHASE_ORDER"
	ActionCancelPurchaseOrder  = "CANCEL_PURCHASE_ORDER"

	ActionCreateSalesOrder  = "CREATE_SALES_ORDER"
	ActionConfirmSalesOrder = "CONFIRM_SALES_ORDER"
	ActionGenerateInvoice   = "GENERATE_INVOICE"
	ActionCancelSalesOrder  = "CANCEL_SALES_ORDER"

	ActionCreateReturn  = "CREATE_RETURN"
	ActionApproveReturn = "APPROVE_RETURN"
	ActionRejectReturn  = "REJECT_RETURN"

	ActionRecordPayment = "RECORD_PAYMENT"

	ActionCreatePartner = "CREATE_PARTNER"
	ActionUpdatePartner = "UPDATE_PARTNER"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for automated jobs
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable document number or name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
