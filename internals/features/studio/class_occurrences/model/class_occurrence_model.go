// file: internals/features/studio/class_occurrences/model/class_occurrence_model.go
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"studioku_backend/internals/helpers/dates"
)

// =========================================================
// ENUM — status occurrence
// =========================================================

type OccurrenceStatus string

const (
	OccurrenceStatusScheduled OccurrenceStatus = "scheduled"
	OccurrenceStatusCompleted OccurrenceStatus = "completed"
	OccurrenceStatusHeld      OccurrenceStatus = "held"
)

// =========================================================
// MODEL — satu sesi bertanggal dari sebuah template
// =========================================================

// PK deterministik "{template_id}-{YYYY-MM-DD}": maksimal SATU occurrence
// per template per hari, berapa kali pun generator jalan.
// Tidak pakai soft delete: occurrence hasil generate boleh dihapus fisik
// (kalau soft delete, row terhapus masih menempati PK deterministiknya dan
// ON CONFLICT DO NOTHING akan diam-diam menolak regenerasi tanggal itu).
type ClassOccurrenceModel struct {
	ClassOccurrenceID string `gorm:"column:class_occurrence_id;type:varchar(80);primaryKey" json:"class_occurrence_id"`

	// Tenant & template asal
	ClassOccurrenceStudioID   uuid.UUID `gorm:"column:class_occurrence_studio_id;type:uuid;not null;index" json:"class_occurrence_studio_id"`
	ClassOccurrenceTemplateID uuid.UUID `gorm:"column:class_occurrence_template_id;type:uuid;not null;index:ix_occurrence_template_date" json:"class_occurrence_template_id"`

	ClassOccurrenceSessionDate time.Time `gorm:"column:class_occurrence_session_date;not null;index:ix_occurrence_template_date" json:"class_occurrence_session_date"`

	// Denormalisasi field template saat generate
	ClassOccurrenceStartTime        string            `gorm:"column:class_occurrence_start_time;type:varchar(5);not null" json:"class_occurrence_start_time"`
	ClassOccurrenceEndTime          string            `gorm:"column:class_occurrence_end_time;type:varchar(5);not null" json:"class_occurrence_end_time"`
	ClassOccurrenceMaxCapacity      int               `gorm:"column:class_occurrence_max_capacity;not null" json:"class_occurrence_max_capacity"`
	ClassOccurrenceStaffUserID      *uuid.UUID        `gorm:"column:class_occurrence_staff_user_id;type:uuid" json:"class_occurrence_staff_user_id,omitempty"`
	ClassOccurrenceRoomID           *uuid.UUID        `gorm:"column:class_occurrence_room_id;type:uuid" json:"class_occurrence_room_id,omitempty"`
	ClassOccurrenceTemplateSnapshot datatypes.JSONMap `gorm:"column:class_occurrence_template_snapshot;type:jsonb" json:"class_occurrence_template_snapshot,omitempty"`

	// Roster
	ClassOccurrenceEnrolledCount int `gorm:"column:class_occurrence_enrolled_count;not null;default:0;check:class_occurrence_enrolled_count>=0" json:"class_occurrence_enrolled_count"`

	ClassOccurrenceStatus             OccurrenceStatus `gorm:"column:class_occurrence_status;type:varchar(20);not null;default:'scheduled'" json:"class_occurrence_status"`
	ClassOccurrenceAttendanceRecorded bool             `gorm:"column:class_occurrence_attendance_recorded;not null;default:false" json:"class_occurrence_attendance_recorded"`

	ClassOccurrenceCreatedAt time.Time `gorm:"column:class_occurrence_created_at;not null" json:"class_occurrence_created_at"`
	ClassOccurrenceUpdatedAt time.Time `gorm:"column:class_occurrence_updated_at;not null" json:"class_occurrence_updated_at"`
}

func (ClassOccurrenceModel) TableName() string { return "class_occurrences" }

func (m *ClassOccurrenceModel) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.ClassOccurrenceCreatedAt.IsZero() {
		m.ClassOccurrenceCreatedAt = now
	}
	m.ClassOccurrenceUpdatedAt = now
	return nil
}

func (m *ClassOccurrenceModel) BeforeUpdate(tx *gorm.DB) error {
	m.ClassOccurrenceUpdatedAt = time.Now()
	return nil
}

// BuildOccurrenceID identitas deterministik "{template_id}-{YYYY-MM-DD}".
func BuildOccurrenceID(templateID uuid.UUID, sessionDate time.Time) string {
	return fmt.Sprintf("%s-%s", templateID.String(), dates.FormatISODate(sessionDate))
}
