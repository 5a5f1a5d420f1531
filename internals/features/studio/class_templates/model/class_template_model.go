// file: internals/features/studio/class_templates/model/class_template_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// =========================================================
// MODEL — template kelas berulang (mingguan)
// =========================================================

type ClassTemplateModel struct {
	// PK
	ClassTemplateID uuid.UUID `gorm:"column:class_template_id;type:uuid;primaryKey" json:"class_template_id"`

	// Tenant
	ClassTemplateStudioID uuid.UUID  `gorm:"column:class_template_studio_id;type:uuid;not null;index" json:"class_template_studio_id"`
	ClassTemplateBranchID *uuid.UUID `gorm:"column:class_template_branch_id;type:uuid;index" json:"class_template_branch_id,omitempty"`

	// Relasi
	ClassTemplateActivityID  *uuid.UUID `gorm:"column:class_template_activity_id;type:uuid;index" json:"class_template_activity_id,omitempty"`
	ClassTemplateStaffUserID *uuid.UUID `gorm:"column:class_template_staff_user_id;type:uuid;index" json:"class_template_staff_user_id,omitempty"`
	ClassTemplateRoomID      *uuid.UUID `gorm:"column:class_template_room_id;type:uuid" json:"class_template_room_id,omitempty"`

	// Pola mingguan (0=Minggu .. 6=Sabtu)
	ClassTemplateWeekday         int    `gorm:"column:class_template_weekday;not null;check:class_template_weekday BETWEEN 0 AND 6" json:"class_template_weekday"`
	ClassTemplateStartTime       string `gorm:"column:class_template_start_time;type:varchar(5);not null" json:"class_template_start_time"` // "HH:mm"
	ClassTemplateEndTime         string `gorm:"column:class_template_end_time;type:varchar(5);not null" json:"class_template_end_time"`     // "HH:mm"
	ClassTemplateDurationMinutes int    `gorm:"column:class_template_duration_minutes;not null;check:class_template_duration_minutes>0" json:"class_template_duration_minutes"`
	ClassTemplateMaxCapacity     int    `gorm:"column:class_template_max_capacity;not null;check:class_template_max_capacity>=0" json:"class_template_max_capacity"`

	// Rentang berlaku
	ClassTemplateStartDate time.Time  `gorm:"column:class_template_start_date;not null" json:"class_template_start_date"`
	ClassTemplateEndDate   *time.Time `gorm:"column:class_template_end_date" json:"class_template_end_date,omitempty"`

	// Audit
	ClassTemplateCreatedAt time.Time      `gorm:"column:class_template_created_at;not null" json:"class_template_created_at"`
	ClassTemplateUpdatedAt time.Time      `gorm:"column:class_template_updated_at;not null" json:"class_template_updated_at"`
	ClassTemplateDeletedAt gorm.DeletedAt `gorm:"column:class_template_deleted_at;index" json:"-"`
}

func (ClassTemplateModel) TableName() string { return "class_templates" }

func (m *ClassTemplateModel) BeforeCreate(tx *gorm.DB) error {
	if m.ClassTemplateID == uuid.Nil {
		m.ClassTemplateID = uuid.New()
	}
	now := time.Now()
	if m.ClassTemplateCreatedAt.IsZero() {
		m.ClassTemplateCreatedAt = now
	}
	m.ClassTemplateUpdatedAt = now
	return nil
}

func (m *ClassTemplateModel) BeforeUpdate(tx *gorm.DB) error {
	m.ClassTemplateUpdatedAt = time.Now()
	return nil
}
