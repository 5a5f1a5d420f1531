// file: internals/features/contracts/contracts/dto/contract_dto.go
package dto

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"studioku_backend/internals/features/contracts/contracts/model"
	"studioku_backend/internals/features/contracts/contracts/service"
	"studioku_backend/internals/helpers/dates"
)

/* =========================================================
   1) REQUEST DTO
   ========================================================= */

type CreateContractRequest struct {
	ClientID uuid.UUID  `json:"client_contract_client_id" validate:"required"`
	SaleID   *uuid.UUID `json:"client_contract_sale_id"   validate:"omitempty"`

	// "YYYY-MM-DD"; end kosong = tanpa batas
	StartDate string  `json:"client_contract_start_date" validate:"required,len=10"`
	EndDate   *string `json:"client_contract_end_date"   validate:"omitempty,len=10"`

	AllowSuspension   *bool   `json:"client_contract_allow_suspension"    validate:"omitempty"`
	SuspensionMaxDays int     `json:"client_contract_suspension_max_days" validate:"min=0"`
	AllowedWeekdays   []int64 `json:"client_contract_allowed_weekdays"    validate:"omitempty,dive,min=0,max=6"`
}

func (r *CreateContractRequest) ToModel(studioID uuid.UUID) (*model.ClientContractModel, error) {
	startDate, err := dates.ParseISODate(r.StartDate)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "client_contract_start_date harus YYYY-MM-DD")
	}

	m := &model.ClientContractModel{
		ClientContractStudioID:          studioID,
		ClientContractClientID:          r.ClientID,
		ClientContractSaleID:            r.SaleID,
		ClientContractStartDate:         startDate,
		ClientContractStatus:            model.ContractStatusActive,
		ClientContractAllowSuspension:   true,
		ClientContractSuspensionMaxDays: r.SuspensionMaxDays,
	}
	if r.AllowSuspension != nil {
		m.ClientContractAllowSuspension = *r.AllowSuspension
	}
	if r.EndDate != nil {
		d, err := dates.ParseISODate(*r.EndDate)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "client_contract_end_date harus YYYY-MM-DD")
		}
		if d.Before(startDate) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "client_contract_end_date sebelum start_date")
		}
		m.ClientContractEndDate = &d
	}
	if len(r.AllowedWeekdays) > 0 {
		m.ClientContractAllowedWeekdays = pq.Int64Array(r.AllowedWeekdays)
	}
	return m, nil
}

type ScheduleSuspensionRequest struct {
	StartDate string `json:"start_date" validate:"required,len=10"`
	EndDate   string `json:"end_date"   validate:"required,len=10"`
	Reason    string `json:"reason"     validate:"omitempty,max=500"`
}

func (r *ScheduleSuspensionRequest) ParsedRange() (time.Time, time.Time, error) {
	start, err := dates.ParseISODate(r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "start_date harus YYYY-MM-DD")
	}
	end, err := dates.ParseISODate(r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "end_date harus YYYY-MM-DD")
	}
	return start, end, nil
}

type CancelContractRequest struct {
	Mode string `json:"mode" validate:"required,oneof=immediate scheduled"`
	// wajib saat mode=scheduled
	Date   *string `json:"date"   validate:"omitempty,len=10"`
	Reason string  `json:"reason" validate:"omitempty,max=500"`

	Refunded           bool  `json:"refunded"`
	FineAmountCents    int64 `json:"fine_amount_cents"   validate:"min=0"`
	CreditAmountCents  int64 `json:"credit_amount_cents" validate:"min=0"`
	CancelReceivables  bool  `json:"cancel_receivables"`
	CancelTransactions bool  `json:"cancel_transactions"`
}

func (r *CancelContractRequest) ParsedDate() (*time.Time, error) {
	if r.Date == nil {
		return nil, nil
	}
	d, err := dates.ParseISODate(*r.Date)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "date harus YYYY-MM-DD")
	}
	return &d, nil
}

func (r *CancelContractRequest) ToOptions() service.CancelOptions {
	return service.CancelOptions{
		Reason:             r.Reason,
		Refunded:           r.Refunded,
		FineAmountCents:    r.FineAmountCents,
		CreditAmountCents:  r.CreditAmountCents,
		CancelReceivables:  r.CancelReceivables,
		CancelTransactions: r.CancelTransactions,
	}
}

/* =========================================================
   2) RESPONSE DTO
   ========================================================= */

type ClientContractResponse struct {
	ID       uuid.UUID  `json:"client_contract_id"`
	StudioID uuid.UUID  `json:"client_contract_studio_id"`
	ClientID uuid.UUID  `json:"client_contract_client_id"`
	SaleID   *uuid.UUID `json:"client_contract_sale_id,omitempty"`

	StartDate string  `json:"client_contract_start_date"`
	EndDate   *string `json:"client_contract_end_date,omitempty"`
	Status    string  `json:"client_contract_status"`

	AllowSuspension       bool `json:"client_contract_allow_suspension"`
	SuspensionMaxDays     int  `json:"client_contract_suspension_max_days"`
	TotalSuspendedDays    int  `json:"client_contract_total_suspended_days"`
	PendingSuspensionDays int  `json:"client_contract_pending_suspension_days"`

	AllowedWeekdays []int64 `json:"client_contract_allowed_weekdays,omitempty"`

	ScheduledCancellationDate *string    `json:"client_contract_scheduled_cancellation_date,omitempty"`
	CancelReason              *string    `json:"client_contract_cancel_reason,omitempty"`
	CanceledAt                *time.Time `json:"client_contract_canceled_at,omitempty"`

	CreatedAt time.Time `json:"client_contract_created_at"`
	UpdatedAt time.Time `json:"client_contract_updated_at"`
}

func NewClientContractResponse(m *model.ClientContractModel) ClientContractResponse {
	resp := ClientContractResponse{
		ID:                    m.ClientContractID,
		StudioID:              m.ClientContractStudioID,
		ClientID:              m.ClientContractClientID,
		SaleID:                m.ClientContractSaleID,
		StartDate:             dates.FormatISODate(m.ClientContractStartDate),
		Status:                string(m.ClientContractStatus),
		AllowSuspension:       m.ClientContractAllowSuspension,
		SuspensionMaxDays:     m.ClientContractSuspensionMaxDays,
		TotalSuspendedDays:    m.ClientContractTotalSuspendedDays,
		PendingSuspensionDays: m.ClientContractPendingSuspensionDays,
		AllowedWeekdays:       []int64(m.ClientContractAllowedWeekdays),
		CancelReason:          m.ClientContractCancelReason,
		CanceledAt:            m.ClientContractCanceledAt,
		CreatedAt:             m.ClientContractCreatedAt,
		UpdatedAt:             m.ClientContractUpdatedAt,
	}
	if m.ClientContractEndDate != nil {
		s := dates.FormatISODate(*m.ClientContractEndDate)
		resp.EndDate = &s
	}
	if m.ClientContractScheduledCancellationDate != nil {
		s := dates.FormatISODate(*m.ClientContractScheduledCancellationDate)
		resp.ScheduledCancellationDate = &s
	}
	return resp
}

type ContractSuspensionResponse struct {
	ID         uuid.UUID `json:"contract_suspension_id"`
	ContractID uuid.UUID `json:"contract_suspension_contract_id"`
	StartDate  string    `json:"contract_suspension_start_date"`
	EndDate    string    `json:"contract_suspension_end_date"`
	DaysUsed   int       `json:"contract_suspension_days_used"`
	UnusedDays *int      `json:"contract_suspension_unused_days,omitempty"`
	Status     string    `json:"contract_suspension_status"`
	Reason     string    `json:"contract_suspension_reason"`
}

func NewContractSuspensionResponse(m *model.ContractSuspensionModel) ContractSuspensionResponse {
	return ContractSuspensionResponse{
		ID:         m.ContractSuspensionID,
		ContractID: m.ContractSuspensionContractID,
		StartDate:  dates.FormatISODate(m.ContractSuspensionStartDate),
		EndDate:    dates.FormatISODate(m.ContractSuspensionEndDate),
		DaysUsed:   m.ContractSuspensionDaysUsed,
		UnusedDays: m.ContractSuspensionUnusedDays,
		Status:     string(m.ContractSuspensionStatus),
		Reason:     m.ContractSuspensionReason,
	}
}
