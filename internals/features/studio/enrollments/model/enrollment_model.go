// file: internals/features/studio/enrollments/model/enrollment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// =========================================================
// ENUM
// =========================================================

type EnrollmentType string

const (
	EnrollmentTypeRecurring     EnrollmentType = "recurring"
	EnrollmentTypeSingleSession EnrollmentType = "single-session"
)

type EnrollmentStatus string

const (
	EnrollmentStatusActive   EnrollmentStatus = "active"
	EnrollmentStatusCanceled EnrollmentStatus = "canceled"
)

// =========================================================
// MODEL — keanggotaan klien di template (recurring) atau
// di satu occurrence bertanggal (single-session)
// =========================================================

type EnrollmentModel struct {
	// PK
	EnrollmentID uuid.UUID `gorm:"column:enrollment_id;type:uuid;primaryKey" json:"enrollment_id"`

	// Tenant & relasi
	EnrollmentStudioID     uuid.UUID  `gorm:"column:enrollment_studio_id;type:uuid;not null;index" json:"enrollment_studio_id"`
	EnrollmentClientID     uuid.UUID  `gorm:"column:enrollment_client_id;type:uuid;not null;index" json:"enrollment_client_id"`
	EnrollmentContractID   *uuid.UUID `gorm:"column:enrollment_contract_id;type:uuid;index" json:"enrollment_contract_id,omitempty"`
	EnrollmentTemplateID   *uuid.UUID `gorm:"column:enrollment_template_id;type:uuid;index" json:"enrollment_template_id,omitempty"`
	EnrollmentOccurrenceID *string    `gorm:"column:enrollment_occurrence_id;type:varchar(80);index" json:"enrollment_occurrence_id,omitempty"`

	EnrollmentType EnrollmentType `gorm:"column:enrollment_type;type:varchar(20);not null" json:"enrollment_type"`

	// single-session: tanggal sesi; recurring: opsional tanggal akhir
	EnrollmentSessionDate *time.Time `gorm:"column:enrollment_session_date" json:"enrollment_session_date,omitempty"`
	EnrollmentEndDate     *time.Time `gorm:"column:enrollment_end_date" json:"enrollment_end_date,omitempty"`

	// Status & pembatalan (soft cancel, bukan delete)
	EnrollmentStatus       EnrollmentStatus `gorm:"column:enrollment_status;type:varchar(20);not null;default:'active';index" json:"enrollment_status"`
	EnrollmentCancelReason *string          `gorm:"column:enrollment_cancel_reason;type:text" json:"enrollment_cancel_reason,omitempty"`
	EnrollmentCanceledAt   *time.Time       `gorm:"column:enrollment_canceled_at" json:"enrollment_canceled_at,omitempty"`

	// Audit
	EnrollmentCreatedAt time.Time      `gorm:"column:enrollment_created_at;not null" json:"enrollment_created_at"`
	EnrollmentUpdatedAt time.Time      `gorm:"column:enrollment_updated_at;not null" json:"enrollment_updated_at"`
	EnrollmentDeletedAt gorm.DeletedAt `gorm:"column:enrollment_deleted_at;index" json:"-"`
}

func (EnrollmentModel) TableName() string { return "enrollments" }

func (m *EnrollmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.EnrollmentID == uuid.Nil {
		m.EnrollmentID = uuid.New()
	}
	now := time.Now()
	if m.EnrollmentCreatedAt.IsZero() {
		m.EnrollmentCreatedAt = now
	}
	m.EnrollmentUpdatedAt = now
	return nil
}

func (m *EnrollmentModel) BeforeUpdate(tx *gorm.DB) error {
	m.EnrollmentUpdatedAt = time.Now()
	return nil
}
