// file: internals/features/contracts/events/model/contract_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const EventTypeContractCanceled = "contract_canceled"

// Outbox event transisi kontrak. Ditulis DI DALAM transaksi yang
// meng-commit transisinya; cascade membacanya setelah commit, jadi
// kegagalan cascade tidak pernah membatalkan transisi kontraknya.
type ContractEventModel struct {
	ContractEventID uuid.UUID `gorm:"column:contract_event_id;type:uuid;primaryKey" json:"contract_event_id"`

	ContractEventStudioID   uuid.UUID `gorm:"column:contract_event_studio_id;type:uuid;not null;index" json:"contract_event_studio_id"`
	ContractEventContractID uuid.UUID `gorm:"column:contract_event_contract_id;type:uuid;not null;index" json:"contract_event_contract_id"`
	ContractEventClientID   uuid.UUID `gorm:"column:contract_event_client_id;type:uuid;not null;index" json:"contract_event_client_id"`

	ContractEventType    string            `gorm:"column:contract_event_type;type:varchar(40);not null;index" json:"contract_event_type"`
	ContractEventPayload datatypes.JSONMap `gorm:"column:contract_event_payload;type:jsonb" json:"contract_event_payload,omitempty"`

	// NULL = belum diproses; sweep retry event yang belum diproses
	ContractEventProcessedAt *time.Time `gorm:"column:contract_event_processed_at;index" json:"contract_event_processed_at,omitempty"`
	ContractEventAttempts    int        `gorm:"column:contract_event_attempts;not null;default:0" json:"contract_event_attempts"`
	ContractEventLastError   *string    `gorm:"column:contract_event_last_error;type:text" json:"contract_event_last_error,omitempty"`

	ContractEventCreatedAt time.Time `gorm:"column:contract_event_created_at;not null" json:"contract_event_created_at"`
}

func (ContractEventModel) TableName() string { return "contract_events" }

func (m *ContractEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.ContractEventID == uuid.Nil {
		m.ContractEventID = uuid.New()
	}
	if m.ContractEventCreatedAt.IsZero() {
		m.ContractEventCreatedAt = time.Now()
	}
	return nil
}
