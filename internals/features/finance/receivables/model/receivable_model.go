// file: internals/features/finance/receivables/model/receivable_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// =========================================================
// ENUM
// =========================================================

type ReceivableStatus string

const (
	ReceivableStatusOpen     ReceivableStatus = "open"
	ReceivableStatusOverdue  ReceivableStatus = "overdue"
	ReceivableStatusPending  ReceivableStatus = "pending"
	ReceivableStatusPaid     ReceivableStatus = "paid"
	ReceivableStatusCanceled ReceivableStatus = "canceled"
)

type ReceivableKind string

const (
	ReceivableKindFee  ReceivableKind = "fee"
	ReceivableKindFine ReceivableKind = "fine"
)

// =========================================================
// MODEL — piutang klien (mensalidade, multa, dst.)
// =========================================================

type ReceivableModel struct {
	ReceivableID uuid.UUID `gorm:"column:receivable_id;type:uuid;primaryKey" json:"receivable_id"`

	ReceivableStudioID   uuid.UUID  `gorm:"column:receivable_studio_id;type:uuid;not null;index" json:"receivable_studio_id"`
	ReceivableClientID   uuid.UUID  `gorm:"column:receivable_client_id;type:uuid;not null;index" json:"receivable_client_id"`
	ReceivableContractID *uuid.UUID `gorm:"column:receivable_contract_id;type:uuid;index" json:"receivable_contract_id,omitempty"`
	ReceivableSaleID     *uuid.UUID `gorm:"column:receivable_sale_id;type:uuid;index" json:"receivable_sale_id,omitempty"`

	ReceivableKind        ReceivableKind `gorm:"column:receivable_kind;type:varchar(20);not null;default:'fee'" json:"receivable_kind"`
	ReceivableAmountCents int64          `gorm:"column:receivable_amount_cents;not null;check:receivable_amount_cents>=0" json:"receivable_amount_cents"`
	ReceivableDueDate     time.Time      `gorm:"column:receivable_due_date;not null;index" json:"receivable_due_date"`
	ReceivableDescription string         `gorm:"column:receivable_description;type:text" json:"receivable_description"`

	ReceivableStatus       ReceivableStatus `gorm:"column:receivable_status;type:varchar(20);not null;default:'open';index" json:"receivable_status"`
	ReceivablePaidAt       *time.Time       `gorm:"column:receivable_paid_at" json:"receivable_paid_at,omitempty"`
	ReceivableCancelReason *string          `gorm:"column:receivable_cancel_reason;type:text" json:"receivable_cancel_reason,omitempty"`
	ReceivableCanceledAt   *time.Time       `gorm:"column:receivable_canceled_at" json:"receivable_canceled_at,omitempty"`

	ReceivableCreatedAt time.Time      `gorm:"column:receivable_created_at;not null" json:"receivable_created_at"`
	ReceivableUpdatedAt time.Time      `gorm:"column:receivable_updated_at;not null" json:"receivable_updated_at"`
	ReceivableDeletedAt gorm.DeletedAt `gorm:"column:receivable_deleted_at;index" json:"-"`
}

func (ReceivableModel) TableName() string { return "receivables" }

func (m *ReceivableModel) BeforeCreate(tx *gorm.DB) error {
	if m.ReceivableID == uuid.Nil {
		m.ReceivableID = uuid.New()
	}
	now := time.Now()
	if m.ReceivableCreatedAt.IsZero() {
		m.ReceivableCreatedAt = now
	}
	m.ReceivableUpdatedAt = now
	return nil
}

func (m *ReceivableModel) BeforeUpdate(tx *gorm.DB) error {
	m.ReceivableUpdatedAt = time.Now()
	return nil
}
