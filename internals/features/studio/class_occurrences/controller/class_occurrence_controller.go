// file: internals/features/studio/class_occurrences/controller/class_occurrence_controller.go
package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"studioku_backend/internals/features/studio/class_occurrences/dto"
	"studioku_backend/internals/features/studio/class_occurrences/model"
	occService "studioku_backend/internals/features/studio/class_occurrences/service"
	tplModel "studioku_backend/internals/features/studio/class_templates/model"
	helper "studioku_backend/internals/helpers"
	"studioku_backend/internals/helpers/dates"

	"gorm.io/gorm"
)

type ClassOccurrenceController struct {
	DB *gorm.DB
}

func NewClassOccurrenceController(db *gorm.DB) *ClassOccurrenceController {
	return &ClassOccurrenceController{DB: db}
}

// =============================
// ⚙️ POST /api/a/class-occurrences/generate
// Generate manual (ad-hoc): horizon pendek kecuali weeks dikirim
// =============================
func (ctl *ClassOccurrenceController) GenerateOccurrences(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}

	var req dto.GenerateOccurrencesRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := helper.ValidateStruct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	var tpl tplModel.ClassTemplateModel
	if err := ctl.DB.
		Where("class_template_id = ? AND class_template_studio_id = ?", req.TemplateID, studioID).
		Take(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Template tidak ditemukan")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membaca template")
	}

	fromDate, err := req.ParsedFromDate()
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	opts := &occService.GenerateOptions{HorizonWeeks: occService.DefaultHorizonWeeks, FromDate: fromDate}
	if req.Weeks != nil {
		opts.HorizonWeeks = *req.Weeks
	}

	gen := occService.Generator{DB: ctl.DB}
	created, err := gen.GenerateOccurrences(c.Context(), tpl, opts)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal generate occurrence")
	}

	return helper.JsonOK(c, "Generate selesai", dto.GenerateOccurrencesResponse{Created: created})
}

// =============================
// 📄 GET /api/a/class-occurrences?template_id=&from=&to=
// =============================
func (ctl *ClassOccurrenceController) ListOccurrences(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}

	p := helper.ParseFiber(c, "class_occurrence_session_date", "asc", helper.AdminOpts)

	q := ctl.DB.Model(&model.ClassOccurrenceModel{}).
		Where("class_occurrence_studio_id = ?", studioID)

	if tid := c.Query("template_id"); tid != "" {
		q = q.Where("class_occurrence_template_id = ?", tid)
	}
	if from := c.Query("from"); from != "" {
		d, err := dates.ParseISODate(from)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "from harus YYYY-MM-DD")
		}
		q = q.Where("class_occurrence_session_date >= ?", d)
	}
	if to := c.Query("to"); to != "" {
		d, err := dates.ParseISODate(to)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "to harus YYYY-MM-DD")
		}
		q = q.Where("class_occurrence_session_date < ?", d)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung occurrence")
	}

	var rows []model.ClassOccurrenceModel
	if err := q.Order("class_occurrence_session_date ASC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil occurrence")
	}

	items := make([]dto.ClassOccurrenceResponse, 0, len(rows))
	for i := range rows {
		items = append(items, dto.NewClassOccurrenceResponse(&rows[i]))
	}
	return helper.JsonOK(c, "OK", fiber.Map{
		"items":      items,
		"pagination": helper.BuildPagination(p, total, len(items)),
	})
}
