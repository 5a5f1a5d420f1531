// file: internals/features/contracts/contracts/model/client_contract_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// =========================================================
// ENUM — status kontrak
// =========================================================

type ContractStatus string

const (
	ContractStatusActive                ContractStatus = "active"
	ContractStatusSuspended             ContractStatus = "suspended"
	ContractStatusScheduledCancellation ContractStatus = "scheduled_cancellation"
	ContractStatusCanceled              ContractStatus = "canceled"
	ContractStatusFinished              ContractStatus = "finished"
	ContractStatusInactive              ContractStatus = "inactive"
)

// =========================================================
// MODEL — kontrak klien + akunting hari suspensi
//
// Invariant: total_suspended_days + pending_suspension_days <= max
// selama max > 0; kedua counter tidak pernah negatif.
// =========================================================

type ClientContractModel struct {
	// PK
	ClientContractID uuid.UUID `gorm:"column:client_contract_id;type:uuid;primaryKey" json:"client_contract_id"`

	// Tenant & relasi
	ClientContractStudioID uuid.UUID  `gorm:"column:client_contract_studio_id;type:uuid;not null;index" json:"client_contract_studio_id"`
	ClientContractClientID uuid.UUID  `gorm:"column:client_contract_client_id;type:uuid;not null;index" json:"client_contract_client_id"`
	ClientContractSaleID   *uuid.UUID `gorm:"column:client_contract_sale_id;type:uuid;index" json:"client_contract_sale_id,omitempty"`

	// Rentang berlaku (end NULL = tanpa batas)
	ClientContractStartDate time.Time  `gorm:"column:client_contract_start_date;not null" json:"client_contract_start_date"`
	ClientContractEndDate   *time.Time `gorm:"column:client_contract_end_date;index" json:"client_contract_end_date,omitempty"`

	ClientContractStatus ContractStatus `gorm:"column:client_contract_status;type:varchar(30);not null;default:'active';index" json:"client_contract_status"`

	// Akunting hari suspensi
	ClientContractAllowSuspension       bool `gorm:"column:client_contract_allow_suspension;not null;default:true" json:"client_contract_allow_suspension"`
	ClientContractSuspensionMaxDays     int  `gorm:"column:client_contract_suspension_max_days;not null;default:0;check:client_contract_suspension_max_days>=0" json:"client_contract_suspension_max_days"` // 0 = tanpa batas
	ClientContractTotalSuspendedDays    int  `gorm:"column:client_contract_total_suspended_days;not null;default:0;check:client_contract_total_suspended_days>=0" json:"client_contract_total_suspended_days"`
	ClientContractPendingSuspensionDays int  `gorm:"column:client_contract_pending_suspension_days;not null;default:0;check:client_contract_pending_suspension_days>=0" json:"client_contract_pending_suspension_days"`

	// Pembatasan hari kelas yang boleh diambil klien (kosong = bebas)
	ClientContractAllowedWeekdays pq.Int64Array `gorm:"column:client_contract_allowed_weekdays;type:int[]" json:"client_contract_allowed_weekdays,omitempty"`

	// Pembatalan
	ClientContractScheduledCancellationDate *time.Time `gorm:"column:client_contract_scheduled_cancellation_date" json:"client_contract_scheduled_cancellation_date,omitempty"`
	ClientContractCancelReason              *string    `gorm:"column:client_contract_cancel_reason;type:text" json:"client_contract_cancel_reason,omitempty"`
	ClientContractCanceledAt                *time.Time `gorm:"column:client_contract_canceled_at;index" json:"client_contract_canceled_at,omitempty"`
	ClientContractCancelRefunded            bool       `gorm:"column:client_contract_cancel_refunded;not null;default:false" json:"client_contract_cancel_refunded"`

	// Optimistic lock: dua request konkuren atas kontrak yang sama
	// berserialisasi lewat versi ini; yang kalah dapat 409.
	ClientContractLockVersion int `gorm:"column:client_contract_lock_version;not null;default:0" json:"client_contract_lock_version"`

	// Audit
	ClientContractCreatedAt time.Time      `gorm:"column:client_contract_created_at;not null" json:"client_contract_created_at"`
	ClientContractUpdatedAt time.Time      `gorm:"column:client_contract_updated_at;not null" json:"client_contract_updated_at"`
	ClientContractDeletedAt gorm.DeletedAt `gorm:"column:client_contract_deleted_at;index" json:"-"`
}

func (ClientContractModel) TableName() string { return "client_contracts" }

func (m *ClientContractModel) BeforeCreate(tx *gorm.DB) error {
	if m.ClientContractID == uuid.Nil {
		m.ClientContractID = uuid.New()
	}
	now := time.Now()
	if m.ClientContractCreatedAt.IsZero() {
		m.ClientContractCreatedAt = now
	}
	m.ClientContractUpdatedAt = now
	return nil
}

func (m *ClientContractModel) BeforeUpdate(tx *gorm.DB) error {
	m.ClientContractUpdatedAt = time.Now()
	return nil
}
