// file: internals/features/finance/transactions/service/payment_intent_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	rcvModel "studioku_backend/internals/features/finance/receivables/model"
	txModel "studioku_backend/internals/features/finance/transactions/model"
)

// PaymentIntent memulai pembayaran satu piutang via gateway.
// Token bisa dioverride (dipakai test); nil berarti Snap sungguhan.
type PaymentIntent struct {
	DB    *gorm.DB
	Token func(orderID string, amountCents int64, clientName, clientEmail string) (string, error)
}

func (p *PaymentIntent) tokenFn() func(string, int64, string, string) (string, error) {
	if p.Token != nil {
		return p.Token
	}
	return GenerateSnapToken
}

// BuildGatewayOrderID identitas order di gateway, deterministik per piutang.
func BuildGatewayOrderID(receivableID uuid.UUID) string {
	return fmt.Sprintf("rcv-%s", receivableID)
}

/* =========================================================
   START PAYMENT
   1) baca & validasi piutang (open/overdue saja)
   2) minta token Snap ke gateway
   3) tx: tandai piutang pending + tulis transaksi pending income
   Urutan penting: token dulu, supaya gateway gagal = DB tidak berubah.
   ========================================================= */

func (p *PaymentIntent) StartReceivablePayment(
	ctx context.Context,
	studioID, receivableID uuid.UUID,
	clientName, clientEmail string,
) (*txModel.FinancialTransactionModel, string, error) {
	var rcv rcvModel.ReceivableModel
	err := p.DB.WithContext(ctx).
		Where("receivable_id = ? AND receivable_studio_id = ?", receivableID, studioID).
		Take(&rcv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fiber.NewError(fiber.StatusNotFound, "Piutang tidak ditemukan")
	}
	if err != nil {
		return nil, "", err
	}

	switch rcv.ReceivableStatus {
	case rcvModel.ReceivableStatusOpen, rcvModel.ReceivableStatusOverdue:
		// boleh dibayar
	case rcvModel.ReceivableStatusPending:
		return nil, "", fiber.NewError(fiber.StatusUnprocessableEntity, "Pembayaran piutang ini sudah dimulai")
	default:
		return nil, "", fiber.NewError(fiber.StatusUnprocessableEntity, "Piutang tidak bisa dibayar pada status saat ini")
	}

	orderID := BuildGatewayOrderID(rcv.ReceivableID)
	token, err := p.tokenFn()(orderID, rcv.ReceivableAmountCents, clientName, clientEmail)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadGateway, "Gagal membuat token pembayaran")
	}

	row := &txModel.FinancialTransactionModel{
		FinancialTransactionStudioID:       rcv.ReceivableStudioID,
		FinancialTransactionClientID:       rcv.ReceivableClientID,
		FinancialTransactionSaleID:         rcv.ReceivableSaleID,
		FinancialTransactionDirection:      txModel.TransactionDirectionIncome,
		FinancialTransactionAmountCents:    rcv.ReceivableAmountCents,
		FinancialTransactionDescription:    rcv.ReceivableDescription,
		FinancialTransactionDueDate:        rcv.ReceivableDueDate,
		FinancialTransactionStatus:         txModel.TransactionStatusPending,
		FinancialTransactionGatewayOrderID: &orderID,
	}

	err = p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guard status di UPDATE: request paralel kalah lewat RowsAffected
		res := tx.Model(&rcvModel.ReceivableModel{}).
			Where("receivable_id = ? AND receivable_status IN ?",
				rcv.ReceivableID,
				[]rcvModel.ReceivableStatus{rcvModel.ReceivableStatusOpen, rcvModel.ReceivableStatusOverdue}).
			Update("receivable_status", rcvModel.ReceivableStatusPending)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Pembayaran piutang ini sudah dimulai")
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, "", err
	}
	return row, token, nil
}
