// file: internals/features/finance/transactions/model/financial_transaction_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionDirection string

const (
	TransactionDirectionIncome  TransactionDirection = "income"
	TransactionDirectionExpense TransactionDirection = "expense"
)

type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusRealized TransactionStatus = "realized"
	TransactionStatusCanceled TransactionStatus = "canceled"
)

// Transaksi finansial per parcela/installment. Yang masih pending
// (belum terealisasi) boleh dibatalkan oleh cascade pembatalan kontrak;
// yang sudah realized tidak pernah disentuh.
type FinancialTransactionModel struct {
	FinancialTransactionID uuid.UUID `gorm:"column:financial_transaction_id;type:uuid;primaryKey" json:"financial_transaction_id"`

	FinancialTransactionStudioID uuid.UUID  `gorm:"column:financial_transaction_studio_id;type:uuid;not null;index" json:"financial_transaction_studio_id"`
	FinancialTransactionClientID uuid.UUID  `gorm:"column:financial_transaction_client_id;type:uuid;not null;index" json:"financial_transaction_client_id"`
	FinancialTransactionSaleID   *uuid.UUID `gorm:"column:financial_transaction_sale_id;type:uuid;index" json:"financial_transaction_sale_id,omitempty"`

	FinancialTransactionDirection   TransactionDirection `gorm:"column:financial_transaction_direction;type:varchar(10);not null" json:"financial_transaction_direction"`
	FinancialTransactionAmountCents int64                `gorm:"column:financial_transaction_amount_cents;not null;check:financial_transaction_amount_cents>=0" json:"financial_transaction_amount_cents"`
	FinancialTransactionDescription string               `gorm:"column:financial_transaction_description;type:text" json:"financial_transaction_description"`

	FinancialTransactionDueDate       time.Time `gorm:"column:financial_transaction_due_date;not null;index" json:"financial_transaction_due_date"`
	FinancialTransactionInstallmentNo int       `gorm:"column:financial_transaction_installment_no;not null;default:1" json:"financial_transaction_installment_no"`

	FinancialTransactionStatus         TransactionStatus `gorm:"column:financial_transaction_status;type:varchar(20);not null;default:'pending';index" json:"financial_transaction_status"`
	FinancialTransactionGatewayOrderID *string           `gorm:"column:financial_transaction_gateway_order_id;type:varchar(80);index" json:"financial_transaction_gateway_order_id,omitempty"`

	FinancialTransactionCancelReason *string    `gorm:"column:financial_transaction_cancel_reason;type:text" json:"financial_transaction_cancel_reason,omitempty"`
	FinancialTransactionCanceledAt   *time.Time `gorm:"column:financial_transaction_canceled_at" json:"financial_transaction_canceled_at,omitempty"`

	FinancialTransactionCreatedAt time.Time      `gorm:"column:financial_transaction_created_at;not null" json:"financial_transaction_created_at"`
	FinancialTransactionUpdatedAt time.Time      `gorm:"column:financial_transaction_updated_at;not null" json:"financial_transaction_updated_at"`
	FinancialTransactionDeletedAt gorm.DeletedAt `gorm:"column:financial_transaction_deleted_at;index" json:"-"`
}

func (FinancialTransactionModel) TableName() string { return "financial_transactions" }

func (m *FinancialTransactionModel) BeforeCreate(tx *gorm.DB) error {
	if m.FinancialTransactionID == uuid.Nil {
		m.FinancialTransactionID = uuid.New()
	}
	now := time.Now()
	if m.FinancialTransactionCreatedAt.IsZero() {
		m.FinancialTransactionCreatedAt = now
	}
	m.FinancialTransactionUpdatedAt = now
	return nil
}

func (m *FinancialTransactionModel) BeforeUpdate(tx *gorm.DB) error {
	m.FinancialTransactionUpdatedAt = time.Now()
	return nil
}
