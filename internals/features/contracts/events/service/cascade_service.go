// file: internals/features/contracts/events/service/cascade_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	eventModel "studioku_backend/internals/features/contracts/events/model"
	receivableService "studioku_backend/internals/features/finance/receivables/service"
	txModel "studioku_backend/internals/features/finance/transactions/model"
	txService "studioku_backend/internals/features/finance/transactions/service"
	occurrenceModel "studioku_backend/internals/features/studio/class_occurrences/model"
	enrollModel "studioku_backend/internals/features/studio/enrollments/model"
	"studioku_backend/internals/helpers/dates"
)

// MaxCascadeAttempts event yang gagal terus berhenti diretry setelah ini.
const MaxCascadeAttempts = 5

/* =========================
   LifecycleCascade
   Side effect lintas entitas setelah kontrak batal. Setiap step
   best-effort: gagal di-log, step berikutnya tetap jalan. Kontraknya
   sendiri sudah commit sebelum cascade mulai, jadi tidak ada rollback.
========================= */

type Cascade struct {
	DB *gorm.DB
}

// Dispatch proses satu event outbox by id. Dipanggil ledger setelah
// commit; juga oleh sweep retry.
func (c *Cascade) Dispatch(ctx context.Context, eventID uuid.UUID) {
	var ev eventModel.ContractEventModel
	if err := c.DB.WithContext(ctx).
		Where("contract_event_id = ?", eventID).Take(&ev).Error; err != nil {
		log.Printf("[CASCADE] event %s tidak terbaca: %v", eventID, err)
		return
	}
	c.process(ctx, &ev)
}

// ProcessPending drain event belum diproses (processed_at NULL) dengan
// batas attempt. Return jumlah event yang diproses run ini.
func (c *Cascade) ProcessPending(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 50
	}
	var evs []eventModel.ContractEventModel
	if err := c.DB.WithContext(ctx).
		Where("contract_event_processed_at IS NULL AND contract_event_attempts < ?", MaxCascadeAttempts).
		Order("contract_event_created_at ASC").
		Limit(limit).
		Find(&evs).Error; err != nil {
		return 0, err
	}
	for i := range evs {
		c.process(ctx, &evs[i])
	}
	return len(evs), nil
}

func (c *Cascade) process(ctx context.Context, ev *eventModel.ContractEventModel) {
	if ev.ContractEventProcessedAt != nil {
		return
	}

	var stepErrs []string
	switch ev.ContractEventType {
	case eventModel.EventTypeContractCanceled:
		stepErrs = c.runCanceledSteps(ctx, ev)
	default:
		stepErrs = []string{fmt.Sprintf("tipe event %s tidak dikenal", ev.ContractEventType)}
	}

	// Sekali dicoba = diproses; step yang gagal tercatat tapi tidak
	// membuat event menggantung selamanya. Error pembacaan/infra yang
	// menggagalkan SEMUA step membiarkan event diretry oleh sweep.
	updates := map[string]interface{}{
		"contract_event_attempts": ev.ContractEventAttempts + 1,
	}
	if len(stepErrs) > 0 {
		joined := strings.Join(stepErrs, "; ")
		updates["contract_event_last_error"] = joined
		log.Printf("[CASCADE] event %s selesai dengan %d step gagal: %s",
			ev.ContractEventID, len(stepErrs), joined)
	}
	now := time.Now()
	updates["contract_event_processed_at"] = now

	if err := c.DB.WithContext(ctx).Model(ev).Updates(updates).Error; err != nil {
		log.Printf("[CASCADE] tandai event %s gagal: %v", ev.ContractEventID, err)
	}
}

/* =========================
   Steps pembatalan kontrak
========================= */

func (c *Cascade) runCanceledSteps(ctx context.Context, ev *eventModel.ContractEventModel) []string {
	var errs []string
	p := ev.ContractEventPayload

	reason := payloadString(p, "reason")
	if reason == "" {
		reason = "contract_canceled"
	}
	saleID := payloadUUIDPtr(p, "contract_sale_id")
	contractID := ev.ContractEventContractID

	// Step 1: enrollment klien (recurring aktif + single-session mendatang)
	if err := c.cancelClientEnrollments(ctx, ev.ContractEventClientID, contractID, reason); err != nil {
		errs = append(errs, fmt.Sprintf("enrollments: %v", err))
	}

	// Step 2: piutang lama by sale ∪ kontrak. Harus SEBELUM multa dibuat,
	// supaya multa baru tidak ikut tersapu.
	if payloadBool(p, "cancel_receivables") {
		if err := c.cancelReceivables(ctx, saleID, contractID, reason); err != nil {
			errs = append(errs, fmt.Sprintf("receivables: %v", err))
		}
	}

	// Step 3: multa dan/atau kredit + expense pengimbang
	if fine := payloadInt64(p, "fine_amount_cents"); fine > 0 {
		store := receivableService.ReceivableStore{DB: c.DB}
		if _, err := store.CreateFine(ctx, ev.ContractEventStudioID, ev.ContractEventClientID,
			&contractID, fine, "Multa pembatalan kontrak"); err != nil {
			errs = append(errs, fmt.Sprintf("fine: %v", err))
		}
	}
	if credit := payloadInt64(p, "credit_amount_cents"); credit > 0 {
		if err := c.createCreditWithOffset(ctx, ev, credit); err != nil {
			errs = append(errs, fmt.Sprintf("credit: %v", err))
		}
	}

	// Step 4: transaksi pending sale + void charge gateway
	if payloadBool(p, "cancel_transactions") && saleID != nil {
		if err := c.cancelPendingTransactions(ctx, *saleID, reason); err != nil {
			errs = append(errs, fmt.Sprintf("transactions: %v", err))
		}
	}

	return errs
}

// cancelClientEnrollments soft-cancel enrollment lalu turunkan
// enrolled_count occurrence yang terdampak (guard > 0, tidak pernah
// negatif). Recurring → occurrence mendatang milik template; single →
// occurrence spesifiknya.
func (c *Cascade) cancelClientEnrollments(ctx context.Context, clientID, contractID uuid.UUID, reason string) error {
	today := dates.Today()

	var targets []enrollModel.EnrollmentModel
	if err := c.DB.WithContext(ctx).
		Where("enrollment_client_id = ? AND enrollment_status = ?", clientID, enrollModel.EnrollmentStatusActive).
		Where("enrollment_type = ? OR (enrollment_type = ? AND enrollment_session_date > ?)",
			enrollModel.EnrollmentTypeRecurring, enrollModel.EnrollmentTypeSingleSession, today).
		Find(&targets).Error; err != nil {
		return err
	}
	if len(targets) == 0 {
		return nil
	}

	now := time.Now()
	var firstErr error
	for i := range targets {
		e := targets[i]
		err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&enrollModel.EnrollmentModel{}).
				Where("enrollment_id = ? AND enrollment_status = ?", e.EnrollmentID, enrollModel.EnrollmentStatusActive).
				Updates(map[string]interface{}{
					"enrollment_status":        enrollModel.EnrollmentStatusCanceled,
					"enrollment_cancel_reason": reason,
					"enrollment_canceled_at":   now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil // sudah dibatalkan pihak lain
			}

			switch e.EnrollmentType {
			case enrollModel.EnrollmentTypeSingleSession:
				if e.EnrollmentOccurrenceID != nil {
					return decrementOccurrence(tx, "class_occurrence_id = ?", *e.EnrollmentOccurrenceID)
				}
			case enrollModel.EnrollmentTypeRecurring:
				if e.EnrollmentTemplateID != nil {
					return decrementOccurrence(tx,
						"class_occurrence_template_id = ? AND class_occurrence_session_date >= ?",
						*e.EnrollmentTemplateID, today)
				}
			}
			return nil
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func decrementOccurrence(tx *gorm.DB, cond string, args ...interface{}) error {
	return tx.Model(&occurrenceModel.ClassOccurrenceModel{}).
		Where(cond, args...).
		Where("class_occurrence_enrolled_count > 0").
		Update("class_occurrence_enrolled_count",
			gorm.Expr("class_occurrence_enrolled_count - 1")).Error
}

// createCreditWithOffset akunting refund: satu transaksi income
// (kredit tercatat untuk klien) + satu expense pengimbang, keduanya
// realized, net nol di buku.
func (c *Cascade) createCreditWithOffset(ctx context.Context, ev *eventModel.ContractEventModel, amountCents int64) error {
	saleID := payloadUUIDPtr(ev.ContractEventPayload, "contract_sale_id")
	return c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		credit := txModel.FinancialTransactionModel{
			FinancialTransactionStudioID:    ev.ContractEventStudioID,
			FinancialTransactionClientID:    ev.ContractEventClientID,
			FinancialTransactionSaleID:      saleID,
			FinancialTransactionDirection:   txModel.TransactionDirectionIncome,
			FinancialTransactionAmountCents: amountCents,
			FinancialTransactionDescription: "Kredit pembatalan kontrak",
			FinancialTransactionDueDate:     dates.Today(),
			FinancialTransactionStatus:      txModel.TransactionStatusRealized,
		}
		if err := tx.Create(&credit).Error; err != nil {
			return err
		}
		offset := txModel.FinancialTransactionModel{
			FinancialTransactionStudioID:    ev.ContractEventStudioID,
			FinancialTransactionClientID:    ev.ContractEventClientID,
			FinancialTransactionSaleID:      saleID,
			FinancialTransactionDirection:   txModel.TransactionDirectionExpense,
			FinancialTransactionAmountCents: amountCents,
			FinancialTransactionDescription: "Pengimbang kredit pembatalan kontrak",
			FinancialTransactionDueDate:     dates.Today(),
			FinancialTransactionStatus:      txModel.TransactionStatusRealized,
		}
		return tx.Create(&offset).Error
	})
}

func (c *Cascade) cancelReceivables(ctx context.Context, saleID *uuid.UUID, contractID uuid.UUID, reason string) error {
	store := receivableService.ReceivableStore{DB: c.DB}
	rows, err := store.FindCancelable(ctx, saleID, &contractID)
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ReceivableID)
	}
	_, err = store.CancelAll(ctx, ids, reason)
	return err
}

// cancelPendingTransactions transaksi belum realized milik sale →
// canceled; charge gateway yang terlanjur dibuat di-void best-effort.
func (c *Cascade) cancelPendingTransactions(ctx context.Context, saleID uuid.UUID, reason string) error {
	var pendings []txModel.FinancialTransactionModel
	if err := c.DB.WithContext(ctx).
		Where("financial_transaction_sale_id = ? AND financial_transaction_status = ?",
			saleID, txModel.TransactionStatusPending).
		Find(&pendings).Error; err != nil {
		return err
	}
	if len(pendings) == 0 {
		return nil
	}

	now := time.Now()
	ids := make([]uuid.UUID, 0, len(pendings))
	for i := range pendings {
		ids = append(ids, pendings[i].FinancialTransactionID)
	}
	if err := c.DB.WithContext(ctx).Model(&txModel.FinancialTransactionModel{}).
		Where("financial_transaction_id IN ? AND financial_transaction_status = ?",
			ids, txModel.TransactionStatusPending).
		Updates(map[string]interface{}{
			"financial_transaction_status":        txModel.TransactionStatusCanceled,
			"financial_transaction_cancel_reason": reason,
			"financial_transaction_canceled_at":   now,
		}).Error; err != nil {
		return err
	}

	for i := range pendings {
		if oid := pendings[i].FinancialTransactionGatewayOrderID; oid != nil && *oid != "" {
			if err := txService.VoidGatewayTransaction(*oid); err != nil {
				log.Printf("[CASCADE] void gateway %s gagal: %v", *oid, err)
			}
		}
	}
	return nil
}

/* =========================
   Pembacaan payload JSONMap
========================= */

func payloadString(p map[string]interface{}, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func payloadBool(p map[string]interface{}, key string) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return false
}

// payloadInt64 angka JSONMap bisa int64/int (in-process), float64
// (roundtrip JSON biasa), atau json.Number (hasil Scan JSONMap dari DB,
// yang decode dengan UseNumber).
func payloadInt64(p map[string]interface{}, key string) int64 {
	switch v := p[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func payloadUUIDPtr(p map[string]interface{}, key string) *uuid.UUID {
	s, ok := p[key].(string)
	if !ok || s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
