// file: internals/features/studio/class_occurrences/service/sync_occurrences_service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	tplModel "studioku_backend/internals/features/studio/class_templates/model"
	"studioku_backend/internals/helpers/dates"
)

/* =========================
   Synchronizer
   Reaksi atas edit template: retraksi end date + propagasi field.
========================= */

type Synchronizer struct{ DB *gorm.DB }

// ChangedFields field template yang berubah pada satu edit.
// nil = tidak berubah.
type ChangedFields struct {
	StartTime       *string
	DurationMinutes *int
	MaxCapacity     *int
	StaffUserID     *uuid.UUID
	RoomID          *uuid.UUID
}

func (ch ChangedFields) isEmpty() bool {
	return ch.StartTime == nil && ch.DurationMinutes == nil &&
		ch.MaxCapacity == nil && ch.StaffUserID == nil && ch.RoomID == nil
}

// CleanupBeyondEndDate hapus semua occurrence template dengan
// session_date > newEndDate. Precondition bisnis (tidak boleh
// meng-orphan enrollment aktif) dicek guard template SEBELUM sampai sini.
func (s *Synchronizer) CleanupBeyondEndDate(ctx context.Context, templateID uuid.UUID, newEndDate time.Time) (int64, error) {
	store := &OccurrenceStore{DB: s.DB}
	return store.DeleteAfter(ctx, templateID, dates.DateOnly(newEndDate))
}

// SyncFieldUpdates propagasi field yang berubah ke occurrence mendatang
// (session_date >= hari ini). Occurrence historis tidak pernah disentuh.
// Kalau start time atau durasi berubah, end time dihitung ulang
// (start + durasi) dan ikut dipropagasi.
func (s *Synchronizer) SyncFieldUpdates(ctx context.Context, tpl tplModel.ClassTemplateModel, ch ChangedFields) (int64, error) {
	if ch.isEmpty() {
		return 0, nil
	}

	fields := map[string]interface{}{}
	if ch.StartTime != nil {
		fields["class_occurrence_start_time"] = *ch.StartTime
	}
	if ch.StartTime != nil || ch.DurationMinutes != nil {
		endTime, err := dates.AddMinutesToClock(tpl.ClassTemplateStartTime, tpl.ClassTemplateDurationMinutes)
		if err != nil {
			return 0, err
		}
		fields["class_occurrence_end_time"] = endTime
	}
	if ch.MaxCapacity != nil {
		fields["class_occurrence_max_capacity"] = *ch.MaxCapacity
	}
	if ch.StaffUserID != nil {
		fields["class_occurrence_staff_user_id"] = *ch.StaffUserID
	}
	if ch.RoomID != nil {
		fields["class_occurrence_room_id"] = *ch.RoomID
	}

	store := &OccurrenceStore{DB: s.DB}
	return store.UpdateFutureFields(ctx, tpl.ClassTemplateID, dates.Today(), fields)
}
