// file: internals/features/studio/class_occurrences/service/occurrence_store_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	occModel "studioku_backend/internals/features/studio/class_occurrences/model"
	helper "studioku_backend/internals/helpers"
	"studioku_backend/internals/helpers/dates"
)

/* =========================
   OccurrenceStore
   Adapter persistensi occurrence: baca last/existing, tulis batch.
========================= */

type OccurrenceStore struct{ DB *gorm.DB }

// LastOccurrence occurrence paling akhir (max session_date) milik template.
// nil, nil kalau belum ada sama sekali.
func (s *OccurrenceStore) LastOccurrence(ctx context.Context, templateID uuid.UUID) (*occModel.ClassOccurrenceModel, error) {
	var row occModel.ClassOccurrenceModel
	err := s.DB.WithContext(ctx).
		Where("class_occurrence_template_id = ?", templateID).
		Order("class_occurrence_session_date DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ExistingDates satu bulk read tanggal yang sudah ada di [from, to)
// → set in-memory, pengganti N existence check.
func (s *OccurrenceStore) ExistingDates(ctx context.Context, templateID uuid.UUID, from, to time.Time) (map[string]struct{}, error) {
	var ds []time.Time
	err := s.DB.WithContext(ctx).
		Model(&occModel.ClassOccurrenceModel{}).
		Where("class_occurrence_template_id = ? AND class_occurrence_session_date >= ? AND class_occurrence_session_date < ?",
			templateID, from, to).
		Pluck("class_occurrence_session_date", &ds).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ds))
	for _, d := range ds {
		out[dates.FormatISODate(d)] = struct{}{}
	}
	return out, nil
}

// BulkInsert insert idempotent (ON CONFLICT DO NOTHING atas PK deterministik),
// di-chunk supaya tidak melewati plafon operasi per unit atomik store.
func (s *OccurrenceStore) BulkInsert(ctx context.Context, rows []occModel.ClassOccurrenceModel) (int, error) {
	created := 0
	for _, chunk := range helper.Chunk(rows, helper.MaxWriteOpsPerBatch) {
		tx := s.DB.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&chunk)
		if tx.Error != nil {
			return created, tx.Error
		}
		created += int(tx.RowsAffected)
	}
	return created, nil
}

// BulkUpsert mode degraded: merge-write per tanggal. Kolom roster
// (enrolled_count, status, attendance) TIDAK pernah ikut di-assign —
// merge hanya menyentuh field turunan template.
func (s *OccurrenceStore) BulkUpsert(ctx context.Context, rows []occModel.ClassOccurrenceModel) error {
	for _, chunk := range helper.Chunk(rows, helper.MaxWriteOpsPerBatch) {
		tx := s.DB.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "class_occurrence_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"class_occurrence_start_time",
					"class_occurrence_end_time",
					"class_occurrence_max_capacity",
					"class_occurrence_staff_user_id",
					"class_occurrence_room_id",
					"class_occurrence_template_snapshot",
					"class_occurrence_updated_at",
				}),
			}).
			Create(&chunk)
		if tx.Error != nil {
			return tx.Error
		}
	}
	return nil
}

// DeleteAfter hapus fisik occurrence template setelah tanggal batas.
// Row dengan riwayat kehadiran tidak pernah dihapus.
func (s *OccurrenceStore) DeleteAfter(ctx context.Context, templateID uuid.UUID, after time.Time) (int64, error) {
	tx := s.DB.WithContext(ctx).
		Where("class_occurrence_template_id = ? AND class_occurrence_session_date > ? AND class_occurrence_attendance_recorded = ?",
			templateID, after, false).
		Delete(&occModel.ClassOccurrenceModel{})
	return tx.RowsAffected, tx.Error
}

// UpdateFutureFields terapkan perubahan field ke occurrence dengan
// session_date >= fromDate; yang historis tidak disentuh.
func (s *OccurrenceStore) UpdateFutureFields(ctx context.Context, templateID uuid.UUID, fromDate time.Time, fields map[string]interface{}) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	fields["class_occurrence_updated_at"] = time.Now()
	tx := s.DB.WithContext(ctx).
		Model(&occModel.ClassOccurrenceModel{}).
		Where("class_occurrence_template_id = ? AND class_occurrence_session_date >= ?", templateID, fromDate).
		Updates(fields)
	return tx.RowsAffected, tx.Error
}
