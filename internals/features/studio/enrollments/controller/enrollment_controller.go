// file: internals/features/studio/enrollments/controller/enrollment_controller.go
package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	occModel "studioku_backend/internals/features/studio/class_occurrences/model"
	"studioku_backend/internals/features/studio/enrollments/dto"
	"studioku_backend/internals/features/studio/enrollments/model"
	helper "studioku_backend/internals/helpers"
	"studioku_backend/internals/helpers/dates"
)

type EnrollmentController struct {
	DB *gorm.DB
}

func NewEnrollmentController(db *gorm.DB) *EnrollmentController {
	return &EnrollmentController{DB: db}
}

// =============================
// ➕ POST /api/a/enrollments
// single-session: kapasitas dicek + enrolled_count naik dalam satu transaksi
// =============================
func (ctl *EnrollmentController) CreateEnrollment(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}

	var req dto.CreateEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := helper.ValidateStruct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	enr, err := req.ToModel(studioID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	err = ctl.DB.Transaction(func(tx *gorm.DB) error {
		if enr.EnrollmentType == model.EnrollmentTypeSingleSession {
			var occ occModel.ClassOccurrenceModel
			if err := tx.
				Where("class_occurrence_id = ? AND class_occurrence_studio_id = ?",
					*enr.EnrollmentOccurrenceID, studioID).
				Take(&occ).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Occurrence tidak ditemukan")
				}
				return err
			}

			// Klaim slot dengan guard kapasitas di WHERE; kalah race → 409
			res := tx.Model(&occModel.ClassOccurrenceModel{}).
				Where("class_occurrence_id = ?", occ.ClassOccurrenceID).
				Where("class_occurrence_max_capacity = 0 OR class_occurrence_enrolled_count < class_occurrence_max_capacity").
				Update("class_occurrence_enrolled_count",
					gorm.Expr("class_occurrence_enrolled_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict, "Kelas sudah penuh")
			}

			d := dates.DateOnly(occ.ClassOccurrenceSessionDate)
			enr.EnrollmentSessionDate = &d
		}
		return tx.Create(enr).Error
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	return helper.JsonOKWithCode(c, fiber.StatusCreated, "Enrollment dibuat", dto.NewEnrollmentResponse(enr))
}

// =============================
// ❌ POST /api/a/enrollments/:id/cancel
// Soft cancel + turunkan enrolled_count occurrence-nya (single-session)
// =============================
func (ctl *EnrollmentController) CancelEnrollment(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}
	enrollmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "ID enrollment tidak valid")
	}

	// Body opsional
	var req dto.CancelEnrollmentRequest
	_ = c.BodyParser(&req)

	var enr model.EnrollmentModel
	if err := ctl.DB.
		Where("enrollment_id = ? AND enrollment_studio_id = ?", enrollmentID, studioID).
		Take(&enr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Enrollment tidak ditemukan")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membaca enrollment")
	}
	if enr.EnrollmentStatus == model.EnrollmentStatusCanceled {
		return helper.JsonOK(c, "Enrollment sudah dibatalkan", dto.NewEnrollmentResponse(&enr))
	}

	now := time.Now()
	reason := req.Reason
	if reason == "" {
		reason = "client_request"
	}

	err = ctl.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.EnrollmentModel{}).
			Where("enrollment_id = ? AND enrollment_status = ?", enr.EnrollmentID, model.EnrollmentStatusActive).
			Updates(map[string]interface{}{
				"enrollment_status":        model.EnrollmentStatusCanceled,
				"enrollment_cancel_reason": reason,
				"enrollment_canceled_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // pihak lain sudah membatalkan
		}
		if enr.EnrollmentType == model.EnrollmentTypeSingleSession && enr.EnrollmentOccurrenceID != nil {
			return tx.Model(&occModel.ClassOccurrenceModel{}).
				Where("class_occurrence_id = ? AND class_occurrence_enrolled_count > 0", *enr.EnrollmentOccurrenceID).
				Update("class_occurrence_enrolled_count",
					gorm.Expr("class_occurrence_enrolled_count - 1")).Error
		}
		return nil
	})
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membatalkan enrollment")
	}

	enr.EnrollmentStatus = model.EnrollmentStatusCanceled
	enr.EnrollmentCancelReason = &reason
	enr.EnrollmentCanceledAt = &now
	return helper.JsonOK(c, "Enrollment dibatalkan", dto.NewEnrollmentResponse(&enr))
}

// =============================
// 📄 GET /api/a/enrollments?client_id=&template_id=&status=
// =============================
func (ctl *EnrollmentController) ListEnrollments(c *fiber.Ctx) error {
	studioID, err := helper.GetStudioIDFromToken(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Studio tidak ditemukan di token")
	}

	p := helper.ParseFiber(c, "enrollment_created_at", "desc", helper.DefaultOpts)

	q := ctl.DB.Model(&model.EnrollmentModel{}).
		Where("enrollment_studio_id = ?", studioID)
	if cid := c.Query("client_id"); cid != "" {
		q = q.Where("enrollment_client_id = ?", cid)
	}
	if tid := c.Query("template_id"); tid != "" {
		q = q.Where("enrollment_template_id = ?", tid)
	}
	if st := c.Query("status"); st != "" {
		q = q.Where("enrollment_status = ?", st)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menghitung enrollment")
	}

	var rows []model.EnrollmentModel
	if err := q.Order("enrollment_created_at DESC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil enrollment")
	}

	items := make([]dto.EnrollmentResponse, 0, len(rows))
	for i := range rows {
		items = append(items, dto.NewEnrollmentResponse(&rows[i]))
	}
	return helper.JsonOK(c, "OK", fiber.Map{
		"items":      items,
		"pagination": helper.BuildPagination(p, total, len(items)),
	})
}
