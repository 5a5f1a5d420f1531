// file: internals/features/finance/receivables/service/receivable_store_service.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"studioku_backend/internals/features/finance/receivables/model"
	"studioku_backend/internals/helpers/dates"
)

var cancelableStatuses = []model.ReceivableStatus{
	model.ReceivableStatusOpen,
	model.ReceivableStatusOverdue,
	model.ReceivableStatusPending,
}

/* =========================
   ReceivableStore
========================= */

type ReceivableStore struct {
	DB *gorm.DB
}

// FindCancelable piutang open/overdue/pending milik sale ATAU kontrak
// (union, dedup by PK). Salah satu id boleh nil.
func (s *ReceivableStore) FindCancelable(ctx context.Context, saleID, contractID *uuid.UUID) ([]model.ReceivableModel, error) {
	if saleID == nil && contractID == nil {
		return nil, nil
	}

	q := s.DB.WithContext(ctx).Where("receivable_status IN ?", cancelableStatuses)
	switch {
	case saleID != nil && contractID != nil:
		q = q.Where("receivable_sale_id = ? OR receivable_contract_id = ?", *saleID, *contractID)
	case saleID != nil:
		q = q.Where("receivable_sale_id = ?", *saleID)
	default:
		q = q.Where("receivable_contract_id = ?", *contractID)
	}

	var rows []model.ReceivableModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CancelAll batalkan piutang by id dengan alasan seragam. Return jumlah
// baris yang benar-benar berubah.
func (s *ReceivableStore) CancelAll(ctx context.Context, ids []uuid.UUID, reason string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.DB.WithContext(ctx).Model(&model.ReceivableModel{}).
		Where("receivable_id IN ? AND receivable_status IN ?", ids, cancelableStatuses).
		Updates(map[string]interface{}{
			"receivable_status":        model.ReceivableStatusCanceled,
			"receivable_cancel_reason": reason,
			"receivable_canceled_at":   time.Now(),
		})
	return res.RowsAffected, res.Error
}

// CreateFine buat piutang multa atas pembatalan kontrak.
func (s *ReceivableStore) CreateFine(ctx context.Context, studioID, clientID uuid.UUID, contractID *uuid.UUID, amountCents int64, description string) (*model.ReceivableModel, error) {
	row := model.ReceivableModel{
		ReceivableStudioID:    studioID,
		ReceivableClientID:    clientID,
		ReceivableContractID:  contractID,
		ReceivableKind:        model.ReceivableKindFine,
		ReceivableAmountCents: amountCents,
		ReceivableDueDate:     dates.Today(),
		ReceivableDescription: description,
		ReceivableStatus:      model.ReceivableStatusOpen,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// DelinquentContractIDs kontrak dengan piutang open/overdue yang jatuh
// tempo >= thresholdDays hari sebelum asOf. Input sweep delinquency.
func (s *ReceivableStore) DelinquentContractIDs(ctx context.Context, asOf time.Time, thresholdDays int) ([]uuid.UUID, error) {
	cutoff := dates.AddDays(dates.DateOnly(asOf), -thresholdDays)

	var ids []uuid.UUID
	err := s.DB.WithContext(ctx).Model(&model.ReceivableModel{}).
		Distinct("receivable_contract_id").
		Where("receivable_contract_id IS NOT NULL").
		Where("receivable_status IN ?", []model.ReceivableStatus{
			model.ReceivableStatusOpen, model.ReceivableStatusOverdue,
		}).
		Where("receivable_due_date <= ?", cutoff).
		Pluck("receivable_contract_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkOverdue piutang open yang lewat jatuh tempo → overdue.
func (s *ReceivableStore) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&model.ReceivableModel{}).
		Where("receivable_status = ? AND receivable_due_date < ?",
			model.ReceivableStatusOpen, dates.DateOnly(asOf)).
		Update("receivable_status", model.ReceivableStatusOverdue)
	return res.RowsAffected, res.Error
}
