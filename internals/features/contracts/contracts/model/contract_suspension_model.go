// file: internals/features/contracts/contracts/model/contract_suspension_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SuspensionStatus string

const (
	SuspensionStatusScheduled SuspensionStatus = "scheduled"
	SuspensionStatusActive    SuspensionStatus = "active"
	SuspensionStatusStopped   SuspensionStatus = "stopped"
	SuspensionStatusCancelled SuspensionStatus = "cancelled"
)

// Child record kontrak: satu permintaan suspensi.
// days_used = hari yang diminta saat dibuat; dikoreksi ke pemakaian riil
// saat suspensi aktif dihentikan lebih awal.
type ContractSuspensionModel struct {
	ContractSuspensionID uuid.UUID `gorm:"column:contract_suspension_id;type:uuid;primaryKey" json:"contract_suspension_id"`

	ContractSuspensionStudioID   uuid.UUID `gorm:"column:contract_suspension_studio_id;type:uuid;not null;index" json:"contract_suspension_studio_id"`
	ContractSuspensionContractID uuid.UUID `gorm:"column:contract_suspension_contract_id;type:uuid;not null;index" json:"contract_suspension_contract_id"`

	ContractSuspensionStartDate time.Time `gorm:"column:contract_suspension_start_date;not null" json:"contract_suspension_start_date"`
	ContractSuspensionEndDate   time.Time `gorm:"column:contract_suspension_end_date;not null" json:"contract_suspension_end_date"`

	ContractSuspensionDaysUsed   int  `gorm:"column:contract_suspension_days_used;not null;check:contract_suspension_days_used>=0" json:"contract_suspension_days_used"`
	ContractSuspensionUnusedDays *int `gorm:"column:contract_suspension_unused_days" json:"contract_suspension_unused_days,omitempty"`

	ContractSuspensionStatus SuspensionStatus `gorm:"column:contract_suspension_status;type:varchar(20);not null;index" json:"contract_suspension_status"`
	ContractSuspensionReason string           `gorm:"column:contract_suspension_reason;type:text" json:"contract_suspension_reason"`

	ContractSuspensionCreatedAt time.Time `gorm:"column:contract_suspension_created_at;not null" json:"contract_suspension_created_at"`
	ContractSuspensionUpdatedAt time.Time `gorm:"column:contract_suspension_updated_at;not null" json:"contract_suspension_updated_at"`
}

func (ContractSuspensionModel) TableName() string { return "contract_suspensions" }

func (m *ContractSuspensionModel) BeforeCreate(tx *gorm.DB) error {
	if m.ContractSuspensionID == uuid.Nil {
		m.ContractSuspensionID = uuid.New()
	}
	now := time.Now()
	if m.ContractSuspensionCreatedAt.IsZero() {
		m.ContractSuspensionCreatedAt = now
	}
	m.ContractSuspensionUpdatedAt = now
	return nil
}

func (m *ContractSuspensionModel) BeforeUpdate(tx *gorm.DB) error {
	m.ContractSuspensionUpdatedAt = time.Now()
	return nil
}
