// file: internals/helpers/audit/audit.go
package audit

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLogModel struct {
	AuditLogID          uuid.UUID         `gorm:"column:audit_log_id;type:uuid;primaryKey" json:"audit_log_id"`
	AuditLogStudioID    uuid.UUID         `gorm:"column:audit_log_studio_id;type:uuid;not null;index" json:"audit_log_studio_id"`
	AuditLogActorUserID *uuid.UUID        `gorm:"column:audit_log_actor_user_id;type:uuid" json:"audit_log_actor_user_id,omitempty"`
	AuditLogAction      string            `gorm:"column:audit_log_action;type:varchar(60);not null" json:"audit_log_action"`
	AuditLogTargetKind  string            `gorm:"column:audit_log_target_kind;type:varchar(40);not null" json:"audit_log_target_kind"`
	AuditLogTargetID    string            `gorm:"column:audit_log_target_id;type:varchar(80);not null" json:"audit_log_target_id"`
	AuditLogDescription string            `gorm:"column:audit_log_description;type:text" json:"audit_log_description"`
	AuditLogMetadata    datatypes.JSONMap `gorm:"column:audit_log_metadata;type:jsonb" json:"audit_log_metadata,omitempty"`
	AuditLogCreatedAt   time.Time         `gorm:"column:audit_log_created_at;not null" json:"audit_log_created_at"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }

func (m *AuditLogModel) BeforeCreate(tx *gorm.DB) error {
	if m.AuditLogID == uuid.Nil {
		m.AuditLogID = uuid.New()
	}
	if m.AuditLogCreatedAt.IsZero() {
		m.AuditLogCreatedAt = time.Now()
	}
	return nil
}

// Record tulis jejak audit fire-and-forget.
// Gagal tulis audit TIDAK boleh menggagalkan operasi pemicunya.
func Record(db *gorm.DB, studioID uuid.UUID, actorID *uuid.UUID, action, targetKind, targetID, description string, metadata datatypes.JSONMap) {
	row := AuditLogModel{
		AuditLogStudioID:    studioID,
		AuditLogActorUserID: actorID,
		AuditLogAction:      action,
		AuditLogTargetKind:  targetKind,
		AuditLogTargetID:    targetID,
		AuditLogDescription: description,
		AuditLogMetadata:    metadata,
	}
	if err := db.Create(&row).Error; err != nil {
		log.Printf("[AUDIT] gagal tulis audit %s/%s: %v", action, targetID, err)
	}
}
