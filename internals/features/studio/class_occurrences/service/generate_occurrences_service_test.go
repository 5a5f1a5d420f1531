package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	occModel "studioku_backend/internals/features/studio/class_occurrences/model"
	tplModel "studioku_backend/internals/features/studio/class_templates/model"
	"studioku_backend/internals/helpers/dates"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&occModel.ClassOccurrenceModel{}, &tplModel.ClassTemplateModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTuesdayTemplate(t *testing.T, start string) tplModel.ClassTemplateModel {
	t.Helper()
	startDate, err := dates.ParseISODate(start)
	if err != nil {
		t.Fatalf("parse start: %v", err)
	}
	return tplModel.ClassTemplateModel{
		ClassTemplateID:              uuid.New(),
		ClassTemplateStudioID:        uuid.New(),
		ClassTemplateWeekday:         2, // Selasa
		ClassTemplateStartTime:       "09:00",
		ClassTemplateEndTime:         "10:00",
		ClassTemplateDurationMinutes: 60,
		ClassTemplateMaxCapacity:     10,
		ClassTemplateStartDate:       startDate,
	}
}

func occurrenceDates(t *testing.T, db *gorm.DB, templateID uuid.UUID) []string {
	t.Helper()
	var rows []occModel.ClassOccurrenceModel
	if err := db.Where("class_occurrence_template_id = ?", templateID).
		Order("class_occurrence_session_date ASC").Find(&rows).Error; err != nil {
		t.Fatalf("read occurrences: %v", err)
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, dates.FormatISODate(r.ClassOccurrenceSessionDate))
	}
	return out
}

// 2024-01-01 jatuh di Senin; horizon 4 minggu dari tanggal itu berisi
// tepat empat Selasa: 2, 9, 16, 23 Januari.
func TestGenerateFourWeekTuesdayScenario(t *testing.T) {
	db := newTestDB(t)
	gen := Generator{DB: db}
	tpl := newTuesdayTemplate(t, "2024-01-01")

	created, err := gen.GenerateOccurrences(context.Background(), tpl, &GenerateOptions{HorizonWeeks: 4})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if created != 4 {
		t.Fatalf("expected 4 created, got %d", created)
	}

	want := []string{"2024-01-02", "2024-01-09", "2024-01-16", "2024-01-23"}
	got := occurrenceDates(t, db, tpl.ClassTemplateID)
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	// Identitas deterministik
	var first occModel.ClassOccurrenceModel
	if err := db.Where("class_occurrence_template_id = ?", tpl.ClassTemplateID).
		Order("class_occurrence_session_date ASC").Take(&first).Error; err != nil {
		t.Fatalf("read first: %v", err)
	}
	wantID := tpl.ClassTemplateID.String() + "-2024-01-02"
	if first.ClassOccurrenceID != wantID {
		t.Errorf("expected deterministic id %s, got %s", wantID, first.ClassOccurrenceID)
	}
}

func TestGenerateIdempotentSecondCall(t *testing.T) {
	db := newTestDB(t)
	gen := Generator{DB: db}
	tpl := newTuesdayTemplate(t, "2024-01-01")

	if _, err := gen.GenerateOccurrences(context.Background(), tpl, &GenerateOptions{HorizonWeeks: 4}); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	created, err := gen.GenerateOccurrences(context.Background(), tpl, &GenerateOptions{HorizonWeeks: 4})
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if created != 0 {
		t.Errorf("expected no-op on second call, got %d created", created)
	}
	if got := occurrenceDates(t, db, tpl.ClassTemplateID); len(got) != 4 {
		t.Errorf("expected 4 rows total, got %d", len(got))
	}
}

// Occurrence terakhir sudah melewati horizon → generator pulang tanpa scan.
func TestGenerateNoOpWhenHorizonCovered(t *testing.T) {
	db := newTestDB(t)
	gen := Generator{DB: db}
	tpl := newTuesdayTemplate(t, "2024-01-01")

	beyond, _ := dates.ParseISODate("2024-01-30")
	pre := occModel.ClassOccurrenceModel{
		ClassOccurrenceID:          occModel.BuildOccurrenceID(tpl.ClassTemplateID, beyond),
		ClassOccurrenceStudioID:    tpl.ClassTemplateStudioID,
		ClassOccurrenceTemplateID:  tpl.ClassTemplateID,
		ClassOccurrenceSessionDate: beyond,
		ClassOccurrenceStartTime:   "09:00",
		ClassOccurrenceEndTime:     "10:00",
		ClassOccurrenceStatus:      occModel.OccurrenceStatusScheduled,
	}
	if err := db.Create(&pre).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	created, err := gen.GenerateOccurrences(context.Background(), tpl, &GenerateOptions{HorizonWeeks: 4})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if created != 0 {
		t.Errorf("expected no-op, got %d created", created)
	}
}

// Generate inkremental: occurrence baru lanjut H+1 setelah yang terakhir
// dan mewarisi headcount-nya (roster berlanjut).
func TestGenerateIncrementalExtensionInheritsRoster(t *testing.T) {
	db := newTestDB(t)
	gen := Generator{DB: db}
	tpl := newTuesdayTemplate(t, "2024-01-01")

	lastDate, _ := dates.ParseISODate("2024-01-09")
	pre := occModel.ClassOccurrenceModel{
		ClassOccurrenceID:            occModel.BuildOccurrenceID(tpl.ClassTemplateID, lastDate),
		ClassOccurrenceStudioID:      tpl.ClassTemplateStudioID,
		ClassOccurrenceTemplateID:    tpl.ClassTemplateID,
		ClassOccurrenceSessionDate:   lastDate,
		ClassOccurrenceStartTime:     "09:00",
		ClassOccurrenceEndTime:       "10:00",
		ClassOccurrenceEnrolledCount: 5,
		ClassOccurrenceStatus:        occModel.OccurrenceStatusScheduled,
	}
	if err := db.Create(&pre).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	created, err := gen.GenerateOccurrences(context.Background(), tpl, &GenerateOptions{HorizonWeeks: 4})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// Horizon [2024-01-01, 2024-01-29): tersisa Selasa 16 dan 23
	if created != 2 {
		t.Fatalf("expected 2 created, got %d", created)
	}

	var rows []occModel.ClassOccurrenceModel
	if err := db.Where("class_occurrence_template_id = ? AND class_occurrence_session_date > ?",
		tpl.ClassTemplateID, lastDate).Find(&rows).Error; err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, r := range rows {
		if r.ClassOccurrenceEnrolledCount != 5 {
			t.Errorf("occurrence %s: expected inherited count 5, got %d",
				r.ClassOccurrenceID, r.ClassOccurrenceEnrolledCount)
		}
	}
}

func TestGenerateStopsAtTemplateEndDate(t *testing.T) {
	db := newTestDB(t)
	gen := Generator{DB: db}
	tpl := newTuesdayTemplate(t, "2024-01-01")
	end, _ := dates.ParseISODate("2024-01-10")
	tpl.ClassTemplateEndDate = &end

	created, err := gen.GenerateOccurrences(context.Background(), tpl, &GenerateOptions{HorizonWeeks: 4})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if created != 2 {
		t.Errorf("expected 2 created (2 Jan, 9 Jan), got %d", created)
	}
}

// Bulk read tanggal existing gagal → generator jatuh ke mode degraded:
// merge-write per tanggal yang tidak pernah menyentuh kolom roster.
// Race dengan generator lain disimulasikan di callback: row konflik
// muncul SETELAH pembacaan last occurrence.
func TestGenerateDegradedFallbackPreservesRoster(t *testing.T) {
	db := newTestDB(t)
	gen := Generator{DB: db}
	tpl := newTuesdayTemplate(t, "2024-01-01")

	conflictDate, _ := dates.ParseISODate("2024-01-02")
	conflictID := occModel.BuildOccurrenceID(tpl.ClassTemplateID, conflictDate)

	injected := false
	err := db.Callback().Query().Before("gorm:query").Register("test_fail_existing_dates", func(tx *gorm.DB) {
		// Hanya bulk read tanggal (Pluck ke []time.Time) yang disabotase
		if _, ok := tx.Statement.Dest.(*[]time.Time); !ok || injected {
			return
		}
		injected = true
		conflict := occModel.ClassOccurrenceModel{
			ClassOccurrenceID:            conflictID,
			ClassOccurrenceStudioID:      tpl.ClassTemplateStudioID,
			ClassOccurrenceTemplateID:    tpl.ClassTemplateID,
			ClassOccurrenceSessionDate:   conflictDate,
			ClassOccurrenceStartTime:     "09:00",
			ClassOccurrenceEndTime:       "10:00",
			ClassOccurrenceMaxCapacity:   4,
			ClassOccurrenceEnrolledCount: 5,
			ClassOccurrenceStatus:        occModel.OccurrenceStatusScheduled,
		}
		if cErr := db.Session(&gorm.Session{NewDB: true}).Create(&conflict).Error; cErr != nil {
			t.Errorf("seed conflict row: %v", cErr)
		}
		tx.AddError(fmt.Errorf("index sedang dibangun"))
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	defer db.Callback().Query().Remove("test_fail_existing_dates")

	created, genErr := gen.GenerateOccurrences(context.Background(), tpl, &GenerateOptions{HorizonWeeks: 4})
	if genErr != nil {
		t.Fatalf("degraded generate must not fail: %v", genErr)
	}
	if created != 4 {
		t.Fatalf("expected 4 rows written in degraded mode, got %d", created)
	}
	if !injected {
		t.Fatal("existing-dates read was never exercised")
	}

	got := occurrenceDates(t, db, tpl.ClassTemplateID)
	want := []string{"2024-01-02", "2024-01-09", "2024-01-16", "2024-01-23"}
	if len(got) != len(want) {
		t.Fatalf("expected rows %v, got %v", want, got)
	}

	// Row konflik: kolom turunan template ter-merge, roster tidak disentuh
	var merged occModel.ClassOccurrenceModel
	if err := db.Where("class_occurrence_id = ?", conflictID).Take(&merged).Error; err != nil {
		t.Fatalf("read merged row: %v", err)
	}
	if merged.ClassOccurrenceEnrolledCount != 5 {
		t.Errorf("merge must not touch enrolled_count: expected 5, got %d", merged.ClassOccurrenceEnrolledCount)
	}
	if merged.ClassOccurrenceMaxCapacity != 10 {
		t.Errorf("merge should refresh template fields: expected capacity 10, got %d", merged.ClassOccurrenceMaxCapacity)
	}
}

func TestGenerateRejectsMissingInputsSilently(t *testing.T) {
	db := newTestDB(t)
	gen := Generator{DB: db}

	created, err := gen.GenerateOccurrences(context.Background(), tplModel.ClassTemplateModel{}, nil)
	if err != nil || created != 0 {
		t.Errorf("nil template id: expected (0, nil), got (%d, %v)", created, err)
	}

	tpl := newTuesdayTemplate(t, "2024-01-01")
	tpl.ClassTemplateWeekday = 7
	created, err = gen.GenerateOccurrences(context.Background(), tpl, nil)
	if err != nil || created != 0 {
		t.Errorf("weekday out of range: expected (0, nil), got (%d, %v)", created, err)
	}
}

/* =========================
   Synchronizer
========================= */

func TestCleanupBeyondEndDateKeepsAttendance(t *testing.T) {
	db := newTestDB(t)
	gen := Generator{DB: db}
	sync := Synchronizer{DB: db}
	tpl := newTuesdayTemplate(t, "2024-01-01")

	if _, err := gen.GenerateOccurrences(context.Background(), tpl, &GenerateOptions{HorizonWeeks: 4}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Occurrence 23 Jan punya riwayat kehadiran
	protectedDate, _ := dates.ParseISODate("2024-01-23")
	if err := db.Model(&occModel.ClassOccurrenceModel{}).
		Where("class_occurrence_id = ?", occModel.BuildOccurrenceID(tpl.ClassTemplateID, protectedDate)).
		Update("class_occurrence_attendance_recorded", true).Error; err != nil {
		t.Fatalf("mark attendance: %v", err)
	}

	cutoff, _ := dates.ParseISODate("2024-01-09")
	deleted, err := sync.CleanupBeyondEndDate(context.Background(), tpl.ClassTemplateID, cutoff)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	// 16 Jan terhapus; 23 Jan selamat karena attendance
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	got := occurrenceDates(t, db, tpl.ClassTemplateID)
	want := []string{"2024-01-02", "2024-01-09", "2024-01-23"}
	if len(got) != len(want) {
		t.Fatalf("expected rows %v, got %v", want, got)
	}
}

func TestSyncFieldUpdatesFutureOnly(t *testing.T) {
	db := newTestDB(t)
	sync := Synchronizer{DB: db}
	tpl := newTuesdayTemplate(t, "2024-01-01")

	today := dates.Today()
	past := dates.AddDays(today, -7)
	future := dates.AddDays(today, 7)

	for _, d := range []time.Time{past, future} {
		row := occModel.ClassOccurrenceModel{
			ClassOccurrenceID:          occModel.BuildOccurrenceID(tpl.ClassTemplateID, d),
			ClassOccurrenceStudioID:    tpl.ClassTemplateStudioID,
			ClassOccurrenceTemplateID:  tpl.ClassTemplateID,
			ClassOccurrenceSessionDate: d,
			ClassOccurrenceStartTime:   "09:00",
			ClassOccurrenceEndTime:     "10:00",
			ClassOccurrenceMaxCapacity: 10,
			ClassOccurrenceStatus:      occModel.OccurrenceStatusScheduled,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	// Jam mulai geser + durasi berubah → end time ikut dihitung ulang
	newStart := "10:30"
	newDuration := 45
	tpl.ClassTemplateStartTime = newStart
	tpl.ClassTemplateDurationMinutes = newDuration

	updated, err := sync.SyncFieldUpdates(context.Background(), tpl, ChangedFields{
		StartTime:       &newStart,
		DurationMinutes: &newDuration,
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if updated != 1 {
		t.Errorf("expected 1 row updated, got %d", updated)
	}

	var pastRow, futureRow occModel.ClassOccurrenceModel
	db.Where("class_occurrence_id = ?", occModel.BuildOccurrenceID(tpl.ClassTemplateID, past)).Take(&pastRow)
	db.Where("class_occurrence_id = ?", occModel.BuildOccurrenceID(tpl.ClassTemplateID, future)).Take(&futureRow)

	if pastRow.ClassOccurrenceStartTime != "09:00" {
		t.Errorf("historical occurrence touched: start=%s", pastRow.ClassOccurrenceStartTime)
	}
	if futureRow.ClassOccurrenceStartTime != "10:30" || futureRow.ClassOccurrenceEndTime != "11:15" {
		t.Errorf("future occurrence: expected 10:30/11:15, got %s/%s",
			futureRow.ClassOccurrenceStartTime, futureRow.ClassOccurrenceEndTime)
	}
}

func TestSyncFieldUpdatesEmptyChangeIsNoOp(t *testing.T) {
	db := newTestDB(t)
	sync := Synchronizer{DB: db}
	tpl := newTuesdayTemplate(t, "2024-01-01")

	updated, err := sync.SyncFieldUpdates(context.Background(), tpl, ChangedFields{})
	if err != nil || updated != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", updated, err)
	}
}
