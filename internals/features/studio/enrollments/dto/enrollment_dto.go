// file: internals/features/studio/enrollments/dto/enrollment_dto.go
package dto

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"studioku_backend/internals/features/studio/enrollments/model"
	"studioku_backend/internals/helpers/dates"
)

/* =========================================================
   1) REQUEST DTO
   ========================================================= */

type CreateEnrollmentRequest struct {
	ClientID   uuid.UUID  `json:"enrollment_client_id"   validate:"required"`
	ContractID *uuid.UUID `json:"enrollment_contract_id" validate:"omitempty"`

	Type string `json:"enrollment_type" validate:"required,oneof=recurring single-session"`

	// recurring
	TemplateID *uuid.UUID `json:"enrollment_template_id" validate:"omitempty"`
	EndDate    *string    `json:"enrollment_end_date"    validate:"omitempty,len=10"`

	// single-session
	OccurrenceID *string `json:"enrollment_occurrence_id" validate:"omitempty,max=80"`
}

func (r *CreateEnrollmentRequest) ToModel(studioID uuid.UUID) (*model.EnrollmentModel, error) {
	m := &model.EnrollmentModel{
		EnrollmentStudioID:   studioID,
		EnrollmentClientID:   r.ClientID,
		EnrollmentContractID: r.ContractID,
		EnrollmentType:       model.EnrollmentType(r.Type),
		EnrollmentStatus:     model.EnrollmentStatusActive,
	}

	switch m.EnrollmentType {
	case model.EnrollmentTypeRecurring:
		if r.TemplateID == nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "enrollment_template_id wajib untuk recurring")
		}
		m.EnrollmentTemplateID = r.TemplateID
		if r.EndDate != nil {
			d, err := dates.ParseISODate(*r.EndDate)
			if err != nil {
				return nil, fiber.NewError(fiber.StatusBadRequest, "enrollment_end_date harus YYYY-MM-DD")
			}
			m.EnrollmentEndDate = &d
		}
	case model.EnrollmentTypeSingleSession:
		if r.OccurrenceID == nil || *r.OccurrenceID == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "enrollment_occurrence_id wajib untuk single-session")
		}
		m.EnrollmentOccurrenceID = r.OccurrenceID
	}
	return m, nil
}

type CancelEnrollmentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

/* =========================================================
   2) RESPONSE DTO
   ========================================================= */

type EnrollmentResponse struct {
	ID           uuid.UUID  `json:"enrollment_id"`
	ClientID     uuid.UUID  `json:"enrollment_client_id"`
	ContractID   *uuid.UUID `json:"enrollment_contract_id,omitempty"`
	TemplateID   *uuid.UUID `json:"enrollment_template_id,omitempty"`
	OccurrenceID *string    `json:"enrollment_occurrence_id,omitempty"`

	Type   string `json:"enrollment_type"`
	Status string `json:"enrollment_status"`

	SessionDate *string `json:"enrollment_session_date,omitempty"`
	EndDate     *string `json:"enrollment_end_date,omitempty"`

	CancelReason *string    `json:"enrollment_cancel_reason,omitempty"`
	CanceledAt   *time.Time `json:"enrollment_canceled_at,omitempty"`

	CreatedAt time.Time `json:"enrollment_created_at"`
}

func NewEnrollmentResponse(m *model.EnrollmentModel) EnrollmentResponse {
	resp := EnrollmentResponse{
		ID:           m.EnrollmentID,
		ClientID:     m.EnrollmentClientID,
		ContractID:   m.EnrollmentContractID,
		TemplateID:   m.EnrollmentTemplateID,
		OccurrenceID: m.EnrollmentOccurrenceID,
		Type:         string(m.EnrollmentType),
		Status:       string(m.EnrollmentStatus),
		CancelReason: m.EnrollmentCancelReason,
		CanceledAt:   m.EnrollmentCanceledAt,
		CreatedAt:    m.EnrollmentCreatedAt,
	}
	if m.EnrollmentSessionDate != nil {
		s := dates.FormatISODate(*m.EnrollmentSessionDate)
		resp.SessionDate = &s
	}
	if m.EnrollmentEndDate != nil {
		s := dates.FormatISODate(*m.EnrollmentEndDate)
		resp.EndDate = &s
	}
	return resp
}
