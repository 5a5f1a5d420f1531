// file: internals/features/studio/class_occurrences/dto/class_occurrence_dto.go
package dto

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"studioku_backend/internals/features/studio/class_occurrences/model"
	"studioku_backend/internals/helpers/dates"
)

/* =========================================================
   1) REQUEST DTO
   ========================================================= */

type GenerateOccurrencesRequest struct {
	TemplateID uuid.UUID `json:"template_id" validate:"required"`
	Weeks      *int      `json:"weeks"       validate:"omitempty,min=1,max=52"`
	// "YYYY-MM-DD"; kosong = start date template / hari ini
	FromDate *string `json:"from_date" validate:"omitempty,len=10"`
}

func (r *GenerateOccurrencesRequest) ParsedFromDate() (*time.Time, error) {
	if r.FromDate == nil {
		return nil, nil
	}
	d, err := dates.ParseISODate(*r.FromDate)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "from_date harus YYYY-MM-DD")
	}
	return &d, nil
}

type GenerateOccurrencesResponse struct {
	Created int `json:"created"`
}

/* =========================================================
   2) RESPONSE DTO
   ========================================================= */

type ClassOccurrenceResponse struct {
	ID          string    `json:"class_occurrence_id"`
	TemplateID  uuid.UUID `json:"class_occurrence_template_id"`
	SessionDate string    `json:"class_occurrence_session_date"`

	StartTime   string `json:"class_occurrence_start_time"`
	EndTime     string `json:"class_occurrence_end_time"`
	MaxCapacity int    `json:"class_occurrence_max_capacity"`

	StaffUserID *uuid.UUID `json:"class_occurrence_staff_user_id,omitempty"`
	RoomID      *uuid.UUID `json:"class_occurrence_room_id,omitempty"`

	EnrolledCount      int    `json:"class_occurrence_enrolled_count"`
	Status             string `json:"class_occurrence_status"`
	AttendanceRecorded bool   `json:"class_occurrence_attendance_recorded"`
}

func NewClassOccurrenceResponse(m *model.ClassOccurrenceModel) ClassOccurrenceResponse {
	return ClassOccurrenceResponse{
		ID:                 m.ClassOccurrenceID,
		TemplateID:         m.ClassOccurrenceTemplateID,
		SessionDate:        dates.FormatISODate(m.ClassOccurrenceSessionDate),
		StartTime:          m.ClassOccurrenceStartTime,
		EndTime:            m.ClassOccurrenceEndTime,
		MaxCapacity:        m.ClassOccurrenceMaxCapacity,
		StaffUserID:        m.ClassOccurrenceStaffUserID,
		RoomID:             m.ClassOccurrenceRoomID,
		EnrolledCount:      m.ClassOccurrenceEnrolledCount,
		Status:             string(m.ClassOccurrenceStatus),
		AttendanceRecorded: m.ClassOccurrenceAttendanceRecorded,
	}
}
