// file: internals/features/studio/class_occurrences/service/generate_occurrences_service.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	occModel "studioku_backend/internals/features/studio/class_occurrences/model"
	tplModel "studioku_backend/internals/features/studio/class_templates/model"
	"studioku_backend/internals/helpers/dates"
)

/* =========================
   Generator + Options
========================= */

const (
	// Horizon pendek untuk panggilan ad-hoc; panjang untuk create awal.
	DefaultHorizonWeeks = 4
	InitialHorizonWeeks = 26
)

type Generator struct{ DB *gorm.DB }

type GenerateOptions struct {
	HorizonWeeks int
	FromDate     *time.Time // default: start date template
	BatchSize    int
}

/* =========================
   Public API
========================= */

// GenerateOccurrences materialisasi occurrence template di rolling horizon,
// idempoten. Dua panggilan konkuren konvergen ke set akhir yang sama
// (PK deterministik + skip-if-exists), tanpa mutual exclusion.
//
// Input wajib yang hilang (template kosong / weekday di luar 0..6) →
// return 0 tanpa error; error persistence diteruskan apa adanya.
func (g *Generator) GenerateOccurrences(ctx context.Context, tpl tplModel.ClassTemplateModel, opts *GenerateOptions) (created int, err error) {
	if tpl.ClassTemplateID == uuid.Nil || tpl.ClassTemplateWeekday < 0 || tpl.ClassTemplateWeekday > 6 {
		return 0, nil
	}

	if opts == nil {
		opts = &GenerateOptions{}
	}
	weeks := opts.HorizonWeeks
	if weeks <= 0 {
		weeks = DefaultHorizonWeeks
	}
	fromDate := dates.DateOnly(tpl.ClassTemplateStartDate)
	if opts.FromDate != nil {
		fromDate = dates.DateOnly(*opts.FromDate)
	}

	// Horizon end eksklusif: [fromDate, fromDate + weeks*7)
	horizonEnd := dates.AddDays(fromDate, weeks*7)

	store := &OccurrenceStore{DB: g.DB}

	// 1) Occurrence paling akhir. Kalau sudah menutup horizon → no-op.
	//    Ini optimasi inti: tidak pernah rescan riwayat per invocation.
	last, err := store.LastOccurrence(ctx, tpl.ClassTemplateID)
	if err != nil {
		return 0, err
	}
	if last != nil && !dates.DateOnly(last.ClassOccurrenceSessionDate).Before(horizonEnd) {
		return 0, nil
	}

	// 2) Jangan pernah regenerate hari yang sudah termaterialisasi:
	//    maju ke H+1 setelah occurrence terakhir.
	effStart := fromDate
	inheritedCount := 0
	if last != nil {
		inheritedCount = last.ClassOccurrenceEnrolledCount
		lastDate := dates.DateOnly(last.ClassOccurrenceSessionDate)
		if !lastDate.Before(effStart) {
			effStart = dates.AddDays(lastDate, 1)
		}
	}

	// 3) Tanggal pertama yang jatuh di weekday template.
	first := dates.NextWeekday(effStart, tpl.ClassTemplateWeekday)

	// 4) Satu bulk read tanggal existing. Gagal (misal index masih
	//    building) → degraded mode: upsert merge per tanggal.
	degraded := false
	existing := map[string]struct{}{}
	if ex, exErr := store.ExistingDates(ctx, tpl.ClassTemplateID, first, horizonEnd); exErr != nil {
		log.Printf("[GENERATE] bulk read existing gagal utk template %s, fallback upsert: %v", tpl.ClassTemplateID, exErr)
		degraded = true
	} else {
		existing = ex
	}

	// 5) Jalan maju per 7 hari.
	rows := make([]occModel.ClassOccurrenceModel, 0, weeks)
	for d := first; d.Before(horizonEnd); d = dates.AddDays(d, 7) {
		if tpl.ClassTemplateEndDate != nil && d.After(dates.DateOnly(*tpl.ClassTemplateEndDate)) {
			break
		}
		if !degraded {
			if _, ok := existing[dates.FormatISODate(d)]; ok {
				continue
			}
		}
		rows = append(rows, buildOccurrenceRow(tpl, d, inheritedCount))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	// 6) Tulis batch (chunked di store).
	if degraded {
		// Merge-write aman untuk retry: field roster tidak ikut di-assign.
		if err := store.BulkUpsert(ctx, rows); err != nil {
			return 0, err
		}
		return len(rows), nil
	}
	return store.BulkInsert(ctx, rows)
}

/* =========================
   Row & snapshot builder
========================= */

func buildOccurrenceRow(tpl tplModel.ClassTemplateModel, d time.Time, inheritedCount int) occModel.ClassOccurrenceModel {
	return occModel.ClassOccurrenceModel{
		ClassOccurrenceID:          occModel.BuildOccurrenceID(tpl.ClassTemplateID, d),
		ClassOccurrenceStudioID:    tpl.ClassTemplateStudioID,
		ClassOccurrenceTemplateID:  tpl.ClassTemplateID,
		ClassOccurrenceSessionDate: d,
		ClassOccurrenceStartTime:   tpl.ClassTemplateStartTime,
		ClassOccurrenceEndTime:     tpl.ClassTemplateEndTime,
		ClassOccurrenceMaxCapacity: tpl.ClassTemplateMaxCapacity,
		ClassOccurrenceStaffUserID: tpl.ClassTemplateStaffUserID,
		ClassOccurrenceRoomID:      tpl.ClassTemplateRoomID,
		// Roster berlanjut: occurrence baru dari template berjalan mewarisi
		// headcount occurrence terakhir, bukan mulai dari nol.
		ClassOccurrenceEnrolledCount:    inheritedCount,
		ClassOccurrenceStatus:           occModel.OccurrenceStatusScheduled,
		ClassOccurrenceTemplateSnapshot: buildTemplateSnapshot(tpl),
	}
}

func buildTemplateSnapshot(tpl tplModel.ClassTemplateModel) datatypes.JSONMap {
	out := datatypes.JSONMap{
		"template_id":      tpl.ClassTemplateID.String(),
		"weekday":          tpl.ClassTemplateWeekday,
		"start_time":       tpl.ClassTemplateStartTime,
		"end_time":         tpl.ClassTemplateEndTime,
		"duration_minutes": tpl.ClassTemplateDurationMinutes,
		"max_capacity":     tpl.ClassTemplateMaxCapacity,
	}
	putUUID(out, "activity_id", tpl.ClassTemplateActivityID)
	putUUID(out, "staff_user_id", tpl.ClassTemplateStaffUserID)
	putUUID(out, "room_id", tpl.ClassTemplateRoomID)
	return out
}

func putUUID(m datatypes.JSONMap, key string, v *uuid.UUID) {
	if v != nil && *v != uuid.Nil {
		m[key] = v.String()
	}
}
