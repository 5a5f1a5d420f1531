// file: internals/features/studio/class_templates/dto/class_template_dto.go
package dto

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"studioku_backend/internals/features/studio/class_templates/model"
	"studioku_backend/internals/helpers/dates"
)

/* =========================================================
   1) REQUEST DTO
   ========================================================= */

type CreateClassTemplateRequest struct {
	BranchID    *uuid.UUID `json:"class_template_branch_id"      validate:"omitempty"`
	ActivityID  *uuid.UUID `json:"class_template_activity_id"    validate:"omitempty"`
	StaffUserID *uuid.UUID `json:"class_template_staff_user_id"  validate:"omitempty"`
	RoomID      *uuid.UUID `json:"class_template_room_id"        validate:"omitempty"`

	Weekday         int    `json:"class_template_weekday"          validate:"min=0,max=6"`
	StartTime       string `json:"class_template_start_time"       validate:"required,len=5"`
	DurationMinutes int    `json:"class_template_duration_minutes" validate:"required,min=1"`
	MaxCapacity     int    `json:"class_template_max_capacity"     validate:"min=0"`

	// "YYYY-MM-DD"
	StartDate string  `json:"class_template_start_date" validate:"required,len=10"`
	EndDate   *string `json:"class_template_end_date"   validate:"omitempty,len=10"`
}

type UpdateClassTemplateRequest struct {
	StaffUserID *uuid.UUID `json:"class_template_staff_user_id" validate:"omitempty"`
	RoomID      *uuid.UUID `json:"class_template_room_id"       validate:"omitempty"`

	Weekday         *int    `json:"class_template_weekday"          validate:"omitempty,min=0,max=6"`
	StartTime       *string `json:"class_template_start_time"       validate:"omitempty,len=5"`
	DurationMinutes *int    `json:"class_template_duration_minutes" validate:"omitempty,min=1"`
	MaxCapacity     *int    `json:"class_template_max_capacity"     validate:"omitempty,min=0"`

	EndDate *string `json:"class_template_end_date" validate:"omitempty,len=10"`
}

func (r *CreateClassTemplateRequest) ToModel(studioID uuid.UUID) (*model.ClassTemplateModel, error) {
	startDate, err := dates.ParseISODate(r.StartDate)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "class_template_start_date harus YYYY-MM-DD")
	}
	if _, err := dates.ParseClock(r.StartTime); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "class_template_start_time harus HH:mm")
	}
	endTime, err := dates.AddMinutesToClock(r.StartTime, r.DurationMinutes)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "class_template_start_time harus HH:mm")
	}

	var endDate *time.Time
	if r.EndDate != nil {
		d, err := dates.ParseISODate(*r.EndDate)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "class_template_end_date harus YYYY-MM-DD")
		}
		if d.Before(startDate) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "class_template_end_date sebelum start_date")
		}
		endDate = &d
	}

	return &model.ClassTemplateModel{
		ClassTemplateStudioID:        studioID,
		ClassTemplateBranchID:        r.BranchID,
		ClassTemplateActivityID:      r.ActivityID,
		ClassTemplateStaffUserID:     r.StaffUserID,
		ClassTemplateRoomID:          r.RoomID,
		ClassTemplateWeekday:         r.Weekday,
		ClassTemplateStartTime:       r.StartTime,
		ClassTemplateEndTime:         endTime,
		ClassTemplateDurationMinutes: r.DurationMinutes,
		ClassTemplateMaxCapacity:     r.MaxCapacity,
		ClassTemplateStartDate:       startDate,
		ClassTemplateEndDate:         endDate,
	}, nil
}

// ParsedEndDate nil kalau request tidak menyentuh end date.
func (r *UpdateClassTemplateRequest) ParsedEndDate() (*time.Time, error) {
	if r.EndDate == nil {
		return nil, nil
	}
	d, err := dates.ParseISODate(*r.EndDate)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "class_template_end_date harus YYYY-MM-DD")
	}
	return &d, nil
}

/* =========================================================
   2) RESPONSE DTO
   ========================================================= */

type ClassTemplateResponse struct {
	ID          uuid.UUID  `json:"class_template_id"`
	StudioID    uuid.UUID  `json:"class_template_studio_id"`
	BranchID    *uuid.UUID `json:"class_template_branch_id,omitempty"`
	ActivityID  *uuid.UUID `json:"class_template_activity_id,omitempty"`
	StaffUserID *uuid.UUID `json:"class_template_staff_user_id,omitempty"`
	RoomID      *uuid.UUID `json:"class_template_room_id,omitempty"`

	Weekday         int    `json:"class_template_weekday"`
	StartTime       string `json:"class_template_start_time"`
	EndTime         string `json:"class_template_end_time"`
	DurationMinutes int    `json:"class_template_duration_minutes"`
	MaxCapacity     int    `json:"class_template_max_capacity"`

	StartDate string  `json:"class_template_start_date"`
	EndDate   *string `json:"class_template_end_date,omitempty"`

	CreatedAt time.Time `json:"class_template_created_at"`
	UpdatedAt time.Time `json:"class_template_updated_at"`
}

func NewClassTemplateResponse(m *model.ClassTemplateModel) ClassTemplateResponse {
	resp := ClassTemplateResponse{
		ID:              m.ClassTemplateID,
		StudioID:        m.ClassTemplateStudioID,
		BranchID:        m.ClassTemplateBranchID,
		ActivityID:      m.ClassTemplateActivityID,
		StaffUserID:     m.ClassTemplateStaffUserID,
		RoomID:          m.ClassTemplateRoomID,
		Weekday:         m.ClassTemplateWeekday,
		StartTime:       m.ClassTemplateStartTime,
		EndTime:         m.ClassTemplateEndTime,
		DurationMinutes: m.ClassTemplateDurationMinutes,
		MaxCapacity:     m.ClassTemplateMaxCapacity,
		StartDate:       dates.FormatISODate(m.ClassTemplateStartDate),
		CreatedAt:       m.ClassTemplateCreatedAt,
		UpdatedAt:       m.ClassTemplateUpdatedAt,
	}
	if m.ClassTemplateEndDate != nil {
		s := dates.FormatISODate(*m.ClassTemplateEndDate)
		resp.EndDate = &s
	}
	return resp
}
