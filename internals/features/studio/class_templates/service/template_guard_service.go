// file: internals/features/studio/class_templates/service/template_guard_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	contractModel "studioku_backend/internals/features/contracts/contracts/model"
	occModel "studioku_backend/internals/features/studio/class_occurrences/model"
	enrollModel "studioku_backend/internals/features/studio/enrollments/model"
	"studioku_backend/internals/helpers/dates"
)

/* =========================
   TemplateGuard
   Precondition edit/delete template. Semua pelanggaran →
   422 dengan konteks cukup untuk ditindak (klien/hari penyebab).
========================= */

type TemplateGuard struct{ DB *gorm.DB }

// ValidateWeekdayChange setiap enrollment recurring aktif di template:
// kontrak aktif kliennya yang membatasi hari → semua weekday baru wajib
// subset dari set yang diizinkan kontrak.
func (g *TemplateGuard) ValidateWeekdayChange(ctx context.Context, templateID uuid.UUID, newWeekdays []int) error {
	enrollments, err := g.activeRecurringEnrollments(ctx, templateID)
	if err != nil {
		return err
	}
	if len(enrollments) == 0 {
		return nil
	}

	clientIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		clientIDs = append(clientIDs, e.EnrollmentClientID)
	}

	var contracts []contractModel.ClientContractModel
	if err := g.DB.WithContext(ctx).
		Where("client_contract_client_id IN ? AND client_contract_status IN ?",
			clientIDs,
			[]contractModel.ContractStatus{contractModel.ContractStatusActive, contractModel.ContractStatusSuspended}).
		Find(&contracts).Error; err != nil {
		return err
	}

	for _, ct := range contracts {
		if len(ct.ClientContractAllowedWeekdays) == 0 {
			continue // kontrak tanpa pembatasan hari
		}
		allowed := map[int]struct{}{}
		for _, w := range ct.ClientContractAllowedWeekdays {
			allowed[int(w)] = struct{}{}
		}
		for _, w := range newWeekdays {
			if _, ok := allowed[w]; !ok {
				return fiber.NewError(fiber.StatusUnprocessableEntity,
					fmt.Sprintf("Hari %d tidak diizinkan oleh kontrak klien %s", w, ct.ClientContractClientID))
			}
		}
	}
	return nil
}

// ValidateEndDateShrink tolak kalau ada enrollment recurring aktif tanpa
// end date atau dengan end date melewati batas baru — menciutkan template
// tidak boleh diam-diam menghilangkan sisa kelas klien.
func (g *TemplateGuard) ValidateEndDateShrink(ctx context.Context, templateID uuid.UUID, newEndDate time.Time) error {
	enrollments, err := g.activeRecurringEnrollments(ctx, templateID)
	if err != nil {
		return err
	}
	limit := dates.DateOnly(newEndDate)
	for _, e := range enrollments {
		if e.EnrollmentEndDate == nil || dates.DateOnly(*e.EnrollmentEndDate).After(limit) {
			return fiber.NewError(fiber.StatusUnprocessableEntity,
				fmt.Sprintf("End date baru meng-orphan enrollment aktif klien %s", e.EnrollmentClientID))
		}
	}
	return nil
}

// ValidateDelete template tidak boleh dihapus selama masih ada riwayat
// kehadiran di occurrence-nya atau enrollment aktif.
func (g *TemplateGuard) ValidateDelete(ctx context.Context, templateID uuid.UUID) error {
	var attended int64
	if err := g.DB.WithContext(ctx).
		Model(&occModel.ClassOccurrenceModel{}).
		Where("class_occurrence_template_id = ? AND class_occurrence_attendance_recorded = ?", templateID, true).
		Count(&attended).Error; err != nil {
		return err
	}
	if attended > 0 {
		return fiber.NewError(fiber.StatusUnprocessableEntity,
			"Template punya riwayat kehadiran; tidak bisa dihapus")
	}

	var active int64
	if err := g.DB.WithContext(ctx).
		Model(&enrollModel.EnrollmentModel{}).
		Where("enrollment_template_id = ? AND enrollment_status = ?", templateID, enrollModel.EnrollmentStatusActive).
		Count(&active).Error; err != nil {
		return err
	}
	if active > 0 {
		return fiber.NewError(fiber.StatusUnprocessableEntity,
			"Masih ada enrollment aktif di template ini")
	}
	return nil
}

func (g *TemplateGuard) activeRecurringEnrollments(ctx context.Context, templateID uuid.UUID) ([]enrollModel.EnrollmentModel, error) {
	var list []enrollModel.EnrollmentModel
	err := g.DB.WithContext(ctx).
		Where("enrollment_template_id = ? AND enrollment_type = ? AND enrollment_status = ?",
			templateID, enrollModel.EnrollmentTypeRecurring, enrollModel.EnrollmentStatusActive).
		Find(&list).Error
	return list, err
}
