// file: internals/features/studio/class_templates/controller/class_template_controller.go
package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	occService "studioku_backend/internals/features/studio/class_occurrences/service"
	"studioku_backend/internals/features/studio/class_templates/dto"
	"studioku_backend/internals/features/studio/class_templates/model"
	tplService "studioku_backend/internals/features/studio/class_templates/service"
	helper "studioku_backend/internals/helpers"
	"studioku_backend/internals/helpers/audit"
	"studioku_backend/internals/helpers/dates"
)

type ClassTemplateController struct {
	DB *gorm.DB
}

func NewClassTemplateController(db *gorm.DB) *ClassTemplateController {
	return &ClassTemplateController{DB: db}
}

// =============================
// ➕ POST /api/a/class-templates
// Create template + generate occurrence horizon awal (26 minggu)
// =============================
func (ctl *ClassTemplateController) CreateClassTemplate(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}

	var req dto.CreateClassTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := helper.ValidateStruct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	tpl, err := req.ToModel(studioID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	if err := ctl.DB.Create(tpl).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menyimpan template")
	}

	gen := occService.Generator{DB: ctl.DB}
	created, genErr := gen.GenerateOccurrences(c.Context(), *tpl, &occService.GenerateOptions{
		HorizonWeeks: occService.InitialHorizonWeeks,
	})
	if genErr != nil {
		// Template sudah tersimpan; occurrence bisa digenerate ulang manual.
		return helper.JsonOKWithCode(c, fiber.StatusCreated,
			"Template dibuat; generate occurrence gagal, jalankan generate manual",
			fiber.Map{"template": dto.NewClassTemplateResponse(tpl), "occurrences_created": 0})
	}

	actorID, _ := helper.GetUserIDFromToken(c)
	audit.Record(ctl.DB, studioID, &actorID, "class_template.create", "class_template",
		tpl.ClassTemplateID.String(), "Template kelas dibuat", datatypes.JSONMap{
			"weekday":             tpl.ClassTemplateWeekday,
			"occurrences_created": created,
		})

	return helper.JsonOKWithCode(c, fiber.StatusCreated, "Template dibuat", fiber.Map{
		"template":            dto.NewClassTemplateResponse(tpl),
		"occurrences_created": created,
	})
}

// =============================
// ✏️ PUT /api/a/class-templates/:id
// Guard precondition dulu, baru tulis + sinkronisasi occurrence
// =============================
func (ctl *ClassTemplateController) UpdateClassTemplate(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}
	templateID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID template tidak valid")
	}

	var req dto.UpdateClassTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := helper.ValidateStruct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	var tpl model.ClassTemplateModel
	if err := ctl.DB.
		Where("class_template_id = ? AND class_template_studio_id = ?", templateID, studioID).
		Take(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Template tidak ditemukan")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membaca template")
	}

	newEndDate, err := req.ParsedEndDate()
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	guard := tplService.TemplateGuard{DB: ctl.DB}

	weekdayChanged := req.Weekday != nil && *req.Weekday != tpl.ClassTemplateWeekday
	if weekdayChanged {
		if err := guard.ValidateWeekdayChange(c.Context(), templateID, []int{*req.Weekday}); err != nil {
			return helper.FromFiberError(c, err)
		}
	}

	endDateShrunk := newEndDate != nil &&
		(tpl.ClassTemplateEndDate == nil || newEndDate.Before(*tpl.ClassTemplateEndDate))
	if endDateShrunk {
		if err := guard.ValidateEndDateShrink(c.Context(), templateID, *newEndDate); err != nil {
			return helper.FromFiberError(c, err)
		}
	}

	// Terapkan perubahan ke model
	ch := occService.ChangedFields{}
	if req.StartTime != nil && *req.StartTime != tpl.ClassTemplateStartTime {
		if _, err := dates.ParseClock(*req.StartTime); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "class_template_start_time harus HH:mm")
		}
		tpl.ClassTemplateStartTime = *req.StartTime
		ch.StartTime = req.StartTime
	}
	if req.DurationMinutes != nil && *req.DurationMinutes != tpl.ClassTemplateDurationMinutes {
		tpl.ClassTemplateDurationMinutes = *req.DurationMinutes
		ch.DurationMinutes = req.DurationMinutes
	}
	if ch.StartTime != nil || ch.DurationMinutes != nil {
		endTime, err := dates.AddMinutesToClock(tpl.ClassTemplateStartTime, tpl.ClassTemplateDurationMinutes)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "class_template_start_time harus HH:mm")
		}
		tpl.ClassTemplateEndTime = endTime
	}
	if req.MaxCapacity != nil && *req.MaxCapacity != tpl.ClassTemplateMaxCapacity {
		tpl.ClassTemplateMaxCapacity = *req.MaxCapacity
		ch.MaxCapacity = req.MaxCapacity
	}
	if req.StaffUserID != nil {
		tpl.ClassTemplateStaffUserID = req.StaffUserID
		ch.StaffUserID = req.StaffUserID
	}
	if req.RoomID != nil {
		tpl.ClassTemplateRoomID = req.RoomID
		ch.RoomID = req.RoomID
	}
	if weekdayChanged {
		tpl.ClassTemplateWeekday = *req.Weekday
	}
	if newEndDate != nil {
		tpl.ClassTemplateEndDate = newEndDate
	}

	if err := ctl.DB.Save(&tpl).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menyimpan template")
	}

	sync := occService.Synchronizer{DB: ctl.DB}

	if endDateShrunk {
		if _, err := sync.CleanupBeyondEndDate(c.Context(), templateID, *newEndDate); err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membersihkan occurrence di luar end date")
		}
	}

	if weekdayChanged {
		// Hari berubah: buang occurrence mendatang pola lama, generate pola baru.
		today := dates.Today()
		if _, err := sync.CleanupBeyondEndDate(c.Context(), templateID, dates.AddDays(today, -1)); err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membersihkan occurrence pola lama")
		}
		gen := occService.Generator{DB: ctl.DB}
		if _, err := gen.GenerateOccurrences(c.Context(), tpl, &occService.GenerateOptions{
			HorizonWeeks: occService.DefaultHorizonWeeks,
			FromDate:     &today,
		}); err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal generate occurrence pola baru")
		}
	} else if _, err := sync.SyncFieldUpdates(c.Context(), tpl, ch); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal sinkronisasi occurrence")
	}

	actorID, _ := helper.GetUserIDFromToken(c)
	audit.Record(ctl.DB, studioID, &actorID, "class_template.update", "class_template",
		tpl.ClassTemplateID.String(), "Template kelas diubah", nil)

	return helper.JsonOK(c, "Template diperbarui", dto.NewClassTemplateResponse(&tpl))
}

// =============================
// 🗑️ DELETE /api/a/class-templates/:id
// Ditolak saat masih ada enrollment aktif / riwayat absensi
// =============================
func (ctl *ClassTemplateController) DeleteClassTemplate(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}
	templateID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID template tidak valid")
	}

	guard := tplService.TemplateGuard{DB: ctl.DB}
	if err := guard.ValidateDelete(c.Context(), templateID); err != nil {
		return helper.FromFiberError(c, err)
	}

	res := ctl.DB.
		Where("class_template_id = ? AND class_template_studio_id = ?", templateID, studioID).
		Delete(&model.ClassTemplateModel{})
	if res.Error != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghapus template")
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "Template tidak ditemukan")
	}

	// Occurrence mendatang tanpa absensi ikut dihapus
	sync := occService.Synchronizer{DB: ctl.DB}
	if _, err := sync.CleanupBeyondEndDate(c.Context(), templateID, dates.AddDays(dates.Today(), -1)); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Template terhapus; pembersihan occurrence gagal")
	}

	actorID, _ := helper.GetUserIDFromToken(c)
	audit.Record(ctl.DB, studioID, &actorID, "class_template.delete", "class_template",
		templateID.String(), "Template kelas dihapus", nil)

	return helper.JsonOK(c, "Template dihapus", fiber.Map{"class_template_id": templateID})
}

// =============================
// 📄 GET /api/a/class-templates
// =============================
func (ctl *ClassTemplateController) ListClassTemplates(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}

	p := helper.ParseFiber(c, "class_template_created_at", "desc", helper.DefaultOpts)

	q := ctl.DB.Model(&model.ClassTemplateModel{}).
		Where("class_template_studio_id = ?", studioID)
	if wd := c.Query("weekday"); wd != "" {
		q = q.Where("class_template_weekday = ?", wd)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung template")
	}

	var rows []model.ClassTemplateModel
	if err := q.Order("class_template_created_at DESC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil template")
	}

	items := make([]dto.ClassTemplateResponse, 0, len(rows))
	for i := range rows {
		items = append(items, dto.NewClassTemplateResponse(&rows[i]))
	}
	return helper.JsonOK(c, "OK", fiber.Map{
		"items":      items,
		"pagination": helper.BuildPagination(p, total, len(items)),
	})
}

// =============================
// 🔍 GET /api/a/class-templates/:id
// =============================
func (ctl *ClassTemplateController) GetClassTemplate(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}
	templateID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID template tidak valid")
	}

	var tpl model.ClassTemplateModel
	if err := ctl.DB.
		Where("class_template_id = ? AND class_template_studio_id = ?", templateID, studioID).
		Take(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Template tidak ditemukan")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membaca template")
	}
	return helper.JsonOK(c, "OK", dto.NewClassTemplateResponse(&tpl))
}
