// file: internals/features/finance/receivables/dto/receivable_dto.go
package dto

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"studioku_backend/internals/features/finance/receivables/model"
	"studioku_backend/internals/helpers/dates"
)

type CreateReceivableRequest struct {
	ClientID   uuid.UUID  `json:"receivable_client_id"   validate:"required"`
	ContractID *uuid.UUID `json:"receivable_contract_id" validate:"omitempty"`
	SaleID     *uuid.UUID `json:"receivable_sale_id"     validate:"omitempty"`

	Kind        string `json:"receivable_kind"         validate:"omitempty,oneof=fee fine"`
	AmountCents int64  `json:"receivable_amount_cents" validate:"required,min=1"`
	DueDate     string `json:"receivable_due_date"     validate:"required,len=10"`
	Description string `json:"receivable_description"  validate:"omitempty,max=500"`
}

func (r *CreateReceivableRequest) ToModel(studioID uuid.UUID) (*model.ReceivableModel, error) {
	due, err := dates.ParseISODate(r.DueDate)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "receivable_due_date harus YYYY-MM-DD")
	}
	kind := model.ReceivableKindFee
	if r.Kind != "" {
		kind = model.ReceivableKind(r.Kind)
	}
	return &model.ReceivableModel{
		ReceivableStudioID:    studioID,
		ReceivableClientID:    r.ClientID,
		ReceivableContractID:  r.ContractID,
		ReceivableSaleID:      r.SaleID,
		ReceivableKind:        kind,
		ReceivableAmountCents: r.AmountCents,
		ReceivableDueDate:     due,
		ReceivableDescription: r.Description,
		ReceivableStatus:      model.ReceivableStatusOpen,
	}, nil
}

type PayReceivableRequest struct {
	ClientName  string `json:"client_name"  validate:"required,max=100"`
	ClientEmail string `json:"client_email" validate:"required,email"`
}

type ReceivableResponse struct {
	ID         uuid.UUID  `json:"receivable_id"`
	ClientID   uuid.UUID  `json:"receivable_client_id"`
	ContractID *uuid.UUID `json:"receivable_contract_id,omitempty"`
	SaleID     *uuid.UUID `json:"receivable_sale_id,omitempty"`

	Kind        string `json:"receivable_kind"`
	AmountCents int64  `json:"receivable_amount_cents"`
	DueDate     string `json:"receivable_due_date"`
	Description string `json:"receivable_description"`
	Status      string `json:"receivable_status"`

	CancelReason *string    `json:"receivable_cancel_reason,omitempty"`
	CanceledAt   *time.Time `json:"receivable_canceled_at,omitempty"`
	CreatedAt    time.Time  `json:"receivable_created_at"`
}

func NewReceivableResponse(m *model.ReceivableModel) ReceivableResponse {
	return ReceivableResponse{
		ID:           m.ReceivableID,
		ClientID:     m.ReceivableClientID,
		ContractID:   m.ReceivableContractID,
		SaleID:       m.ReceivableSaleID,
		Kind:         string(m.ReceivableKind),
		AmountCents:  m.ReceivableAmountCents,
		DueDate:      dates.FormatISODate(m.ReceivableDueDate),
		Description:  m.ReceivableDescription,
		Status:       string(m.ReceivableStatus),
		CancelReason: m.ReceivableCancelReason,
		CanceledAt:   m.ReceivableCanceledAt,
		CreatedAt:    m.ReceivableCreatedAt,
	}
}
