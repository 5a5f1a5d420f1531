// file: internals/features/contracts/contracts/service/contract_ledger_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	contractModel "studioku_backend/internals/features/contracts/contracts/model"
	eventModel "studioku_backend/internals/features/contracts/events/model"
	enrollModel "studioku_backend/internals/features/studio/enrollments/model"
	"studioku_backend/internals/helpers/dates"
)

/* =========================
   ContractLedger
   State machine akunting hari kontrak:
   active → suspended → active, active|suspended → canceled /
   scheduled_cancellation, active → finished, canceled → inactive.
========================= */

// EventSink dipanggil setelah transaksi pembatalan commit (best-effort).
// Diisi cascade consumer; nil = event hanya menunggu sweep outbox.
type EventSink interface {
	Dispatch(ctx context.Context, eventID uuid.UUID)
}

type ContractLedger struct {
	DB   *gorm.DB
	Sink EventSink
}

/* =========================
   Hasil operasi
========================= */

type SuspensionResult struct {
	SuspensionID uuid.UUID  `json:"id"`
	Status       string     `json:"status"` // scheduled|active
	DaysUsed     int        `json:"days_used"`
	NewEndDate   *time.Time `json:"new_end_date,omitempty"`
}

type StopSuspensionResult struct {
	Type               string     `json:"type"` // cancelled|stopped
	UnusedDays         int        `json:"unused_days"`
	NewContractEndDate *time.Time `json:"new_contract_end_date,omitempty"`
}

type CancelMode string

const (
	CancelModeImmediate CancelMode = "immediate"
	CancelModeScheduled CancelMode = "scheduled"
)

type CancelOptions struct {
	Reason             string
	Refunded           bool
	FineAmountCents    int64 // >0 → buat piutang multa
	CreditAmountCents  int64 // >0 → buat kredit + expense pengimbang
	CancelReceivables  bool
	CancelTransactions bool
}

type CancelResult struct {
	Status string `json:"status"`
}

/* =========================
   ScheduleSuspension
========================= */

// ScheduleSuspension satu transaksi atomik: baca kontrak, validasi budget
// hari, tulis kontrak + record suspensi. Start <= hari ini → aktif
// langsung (end date maju daysRequested); selain itu tercatat scheduled
// (reservasi pending). Dua request konkuren atas kontrak yang sama
// berserialisasi di lock version; yang kalah dapat 409, tidak di-merge.
func (l *ContractLedger) ScheduleSuspension(ctx context.Context, contractID uuid.UUID, start, end time.Time, reason string) (*SuspensionResult, error) {
	start = dates.DateOnly(start)
	end = dates.DateOnly(end)
	daysRequested := dates.DaysBetween(start, end) + 1
	if daysRequested <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Rentang suspensi tidak valid (end sebelum start)")
	}

	today := dates.Today()
	var result *SuspensionResult

	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ct, err := loadContract(tx, contractID)
		if err != nil {
			return err
		}
		if ct.ClientContractStatus != contractModel.ContractStatusActive &&
			ct.ClientContractStatus != contractModel.ContractStatusSuspended {
			return fiber.NewError(fiber.StatusUnprocessableEntity,
				fmt.Sprintf("Kontrak berstatus %s tidak bisa disuspensi", ct.ClientContractStatus))
		}
		if !ct.ClientContractAllowSuspension {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Kontrak tidak mengizinkan suspensi")
		}

		// Budget hari: total terpakai + reservasi pending + permintaan baru.
		if max := ct.ClientContractSuspensionMaxDays; max > 0 {
			used := ct.ClientContractTotalSuspendedDays + ct.ClientContractPendingSuspensionDays
			if used+daysRequested > max {
				return fiber.NewError(fiber.StatusUnprocessableEntity,
					fmt.Sprintf("Suspensi %d hari melewati sisa budget (%d dari %d terpakai/di-reserve)",
						daysRequested, used, max))
			}
		}

		susp := contractModel.ContractSuspensionModel{
			ContractSuspensionStudioID:   ct.ClientContractStudioID,
			ContractSuspensionContractID: ct.ClientContractID,
			ContractSuspensionStartDate:  start,
			ContractSuspensionEndDate:    end,
			ContractSuspensionDaysUsed:   daysRequested,
			ContractSuspensionReason:     reason,
		}

		updates := map[string]interface{}{}
		if !start.After(today) {
			// Aktivasi langsung
			if ct.ClientContractStatus != contractModel.ContractStatusActive {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Kontrak sudah dalam suspensi aktif")
			}
			susp.ContractSuspensionStatus = contractModel.SuspensionStatusActive
			updates["client_contract_status"] = contractModel.ContractStatusSuspended
			updates["client_contract_total_suspended_days"] = ct.ClientContractTotalSuspendedDays + daysRequested
			var newEnd *time.Time
			if ct.ClientContractEndDate != nil {
				v := dates.AddDays(*ct.ClientContractEndDate, daysRequested)
				newEnd = &v
				updates["client_contract_end_date"] = v
			}
			result = &SuspensionResult{Status: "active", DaysUsed: daysRequested, NewEndDate: newEnd}
		} else {
			// Reservasi mendatang
			susp.ContractSuspensionStatus = contractModel.SuspensionStatusScheduled
			updates["client_contract_pending_suspension_days"] = ct.ClientContractPendingSuspensionDays + daysRequested
			result = &SuspensionResult{Status: "scheduled", DaysUsed: daysRequested}
		}

		if err := applyContractUpdate(tx, ct, updates); err != nil {
			return err
		}
		if err := tx.Create(&susp).Error; err != nil {
			return err
		}
		result.SuspensionID = susp.ContractSuspensionID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

/* =========================
   StopSuspension
========================= */

// StopSuspension hentikan suspensi scheduled (batal penuh, pending
// dikembalikan) atau aktif (end date ditarik mundur sebesar hari tak
// terpakai; suspensi dianggap berakhir KEMARIN — kontrak mulai dihitung
// lagi hari ini). Suspensi aktif yang sudah habis masa → 422; konvergensi
// suspensi kadaluarsa adalah urusan sweep, bukan auto-finish di sini.
func (l *ContractLedger) StopSuspension(ctx context.Context, contractID, suspensionID uuid.UUID) (*StopSuspensionResult, error) {
	today := dates.Today()
	var result *StopSuspensionResult

	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ct, err := loadContract(tx, contractID)
		if err != nil {
			return err
		}

		var susp contractModel.ContractSuspensionModel
		if err := tx.Where("contract_suspension_id = ? AND contract_suspension_contract_id = ?",
			suspensionID, contractID).Take(&susp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Suspensi tidak ditemukan")
			}
			return err
		}

		switch susp.ContractSuspensionStatus {
		case contractModel.SuspensionStatusScheduled:
			// Belum mulai: batal penuh, kembalikan reservasi.
			pending := ct.ClientContractPendingSuspensionDays - susp.ContractSuspensionDaysUsed
			if pending < 0 {
				pending = 0
			}
			if err := applyContractUpdate(tx, ct, map[string]interface{}{
				"client_contract_pending_suspension_days": pending,
			}); err != nil {
				return err
			}
			unused := susp.ContractSuspensionDaysUsed
			if err := tx.Model(&susp).Updates(map[string]interface{}{
				"contract_suspension_status":      contractModel.SuspensionStatusCancelled,
				"contract_suspension_unused_days": unused,
			}).Error; err != nil {
				return err
			}
			result = &StopSuspensionResult{Type: "cancelled", UnusedDays: unused}
			return nil

		case contractModel.SuspensionStatusActive:
			actuallyUsed := dates.DaysBetween(dates.DateOnly(susp.ContractSuspensionStartDate), today)
			if actuallyUsed < 0 {
				actuallyUsed = 0
			}
			unused := susp.ContractSuspensionDaysUsed - actuallyUsed
			if unused <= 0 {
				return fiber.NewError(fiber.StatusUnprocessableEntity,
					"Suspensi sudah terpakai penuh; tidak ada yang bisa dihentikan")
			}

			updates := map[string]interface{}{
				"client_contract_status":               contractModel.ContractStatusActive,
				"client_contract_total_suspended_days": ct.ClientContractTotalSuspendedDays - unused,
			}
			var newEnd *time.Time
			if ct.ClientContractEndDate != nil {
				v := dates.AddDays(*ct.ClientContractEndDate, -unused)
				newEnd = &v
				updates["client_contract_end_date"] = v
			}
			if err := applyContractUpdate(tx, ct, updates); err != nil {
				return err
			}

			yesterday := dates.AddDays(today, -1)
			if err := tx.Model(&susp).Updates(map[string]interface{}{
				"contract_suspension_status":      contractModel.SuspensionStatusStopped,
				"contract_suspension_end_date":    yesterday,
				"contract_suspension_days_used":   actuallyUsed,
				"contract_suspension_unused_days": unused,
			}).Error; err != nil {
				return err
			}
			result = &StopSuspensionResult{Type: "stopped", UnusedDays: unused, NewContractEndDate: newEnd}
			return nil

		default:
			return fiber.NewError(fiber.StatusUnprocessableEntity,
				fmt.Sprintf("Suspensi berstatus %s tidak bisa dihentikan", susp.ContractSuspensionStatus))
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

/* =========================
   Cancel
========================= */

// Cancel batalkan kontrak. Immediate: status + metadata + outbox event
// ditulis dalam SATU transaksi; cascade jalan SETELAH commit dan tidak
// pernah menggagalkan pembatalan. Scheduled: hanya catat target tanggal.
// Kontrak yang sudah canceled → sukses idempoten tanpa mutasi.
func (l *ContractLedger) Cancel(ctx context.Context, contractID uuid.UUID, mode CancelMode, date *time.Time, opts CancelOptions) (*CancelResult, error) {
	today := dates.Today()
	var eventID uuid.UUID

	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ct, err := loadContract(tx, contractID)
		if err != nil {
			return err
		}
		if ct.ClientContractStatus == contractModel.ContractStatusCanceled {
			return nil // idempoten
		}
		if ct.ClientContractStatus == contractModel.ContractStatusFinished ||
			ct.ClientContractStatus == contractModel.ContractStatusInactive {
			return fiber.NewError(fiber.StatusUnprocessableEntity,
				fmt.Sprintf("Kontrak berstatus %s tidak bisa dibatalkan", ct.ClientContractStatus))
		}

		switch mode {
		case CancelModeScheduled:
			if date == nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tanggal pembatalan terjadwal wajib diisi")
			}
			target := dates.DateOnly(*date)
			if target.Before(today) {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Tanggal pembatalan harus >= hari ini")
			}
			return applyContractUpdate(tx, ct, map[string]interface{}{
				"client_contract_status":                      contractModel.ContractStatusScheduledCancellation,
				"client_contract_scheduled_cancellation_date": target,
				"client_contract_cancel_reason":               opts.Reason,
			})

		case CancelModeImmediate:
			now := time.Now()
			if err := applyContractUpdate(tx, ct, map[string]interface{}{
				"client_contract_status":          contractModel.ContractStatusCanceled,
				"client_contract_canceled_at":     now,
				"client_contract_cancel_reason":   opts.Reason,
				"client_contract_cancel_refunded": opts.Refunded,
			}); err != nil {
				return err
			}
			ev := eventModel.ContractEventModel{
				ContractEventStudioID:   ct.ClientContractStudioID,
				ContractEventContractID: ct.ClientContractID,
				ContractEventClientID:   ct.ClientContractClientID,
				ContractEventType:       eventModel.EventTypeContractCanceled,
				ContractEventPayload: datatypes.JSONMap{
					"reason":               opts.Reason,
					"refunded":             opts.Refunded,
					"fine_amount_cents":    opts.FineAmountCents,
					"credit_amount_cents":  opts.CreditAmountCents,
					"cancel_receivables":   opts.CancelReceivables,
					"cancel_transactions":  opts.CancelTransactions,
					"contract_end_date":    formatDatePtr(ct.ClientContractEndDate),
					"contract_sale_id":     formatUUIDPtr(ct.ClientContractSaleID),
					"contract_canceled_at": now.Format(time.RFC3339),
				},
			}
			if err := tx.Create(&ev).Error; err != nil {
				return err
			}
			eventID = ev.ContractEventID
			return nil

		default:
			return fiber.NewError(fiber.StatusBadRequest, "Mode pembatalan tidak dikenal")
		}
	})
	if err != nil {
		return nil, err
	}

	// Cascade setelah commit, best-effort. Gagal → tinggal di outbox,
	// sweep yang meretry.
	if eventID != uuid.Nil && l.Sink != nil {
		l.Sink.Dispatch(ctx, eventID)
	}

	status := string(contractModel.ContractStatusCanceled)
	if mode == CancelModeScheduled {
		status = string(contractModel.ContractStatusScheduledCancellation)
	}
	return &CancelResult{Status: status}, nil
}

/* =========================
   Sweep transitions
========================= */

// ExpireContracts kontrak active dengan end_date < asOf → finished.
// Per item: enrollment single-session mendatang melewati end date dan
// seluruh enrollment recurring klien di bawah kontrak itu dibersihkan.
// Kegagalan satu item di-log dan di-skip, tidak mematikan batch.
func (l *ContractLedger) ExpireContracts(ctx context.Context, asOf time.Time) (int, error) {
	asOf = dates.DateOnly(asOf)

	var expirable []contractModel.ClientContractModel
	if err := l.DB.WithContext(ctx).
		Where("client_contract_status = ? AND client_contract_end_date IS NOT NULL AND client_contract_end_date < ?",
			contractModel.ContractStatusActive, asOf).
		Find(&expirable).Error; err != nil {
		return 0, err
	}

	expired := 0
	for i := range expirable {
		ct := expirable[i]
		err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := applyContractUpdate(tx, &ct, map[string]interface{}{
				"client_contract_status": contractModel.ContractStatusFinished,
			}); err != nil {
				return err
			}
			return cleanupEnrollmentsForFinished(tx, ct)
		})
		if err != nil {
			log.Printf("[SWEEP] expire kontrak %s gagal: %v", ct.ClientContractID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// ArchiveOldCancellations kontrak canceled lewat retention window → inactive.
// Terminal, tanpa cascade lanjutan.
func (l *ContractLedger) ArchiveOldCancellations(ctx context.Context, asOf time.Time, retentionDays int) (int, error) {
	cutoff := dates.AddDays(dates.DateOnly(asOf), -retentionDays)

	var archivable []contractModel.ClientContractModel
	if err := l.DB.WithContext(ctx).
		Where("client_contract_status = ? AND client_contract_canceled_at IS NOT NULL AND client_contract_canceled_at < ?",
			contractModel.ContractStatusCanceled, cutoff).
		Find(&archivable).Error; err != nil {
		return 0, err
	}

	archived := 0
	for i := range archivable {
		ct := archivable[i]
		if err := applyContractUpdate(l.DB.WithContext(ctx), &ct, map[string]interface{}{
			"client_contract_status": contractModel.ContractStatusInactive,
		}); err != nil {
			log.Printf("[SWEEP] archive kontrak %s gagal: %v", ct.ClientContractID, err)
			continue
		}
		archived++
	}
	return archived, nil
}

// ActivateScheduledSuspensions suspensi scheduled yang start_date-nya
// sudah tiba → aktif: pending pindah ke total, end date kontrak maju,
// status kontrak suspended. Kontrak yang tidak lagi active saat giliran
// aktivasinya tiba di-skip (suspensinya tinggal menunggu stop manual).
func (l *ContractLedger) ActivateScheduledSuspensions(ctx context.Context, asOf time.Time) (int, error) {
	asOf = dates.DateOnly(asOf)

	var due []contractModel.ContractSuspensionModel
	if err := l.DB.WithContext(ctx).
		Where("contract_suspension_status = ? AND contract_suspension_start_date <= ?",
			contractModel.SuspensionStatusScheduled, asOf).
		Find(&due).Error; err != nil {
		return 0, err
	}

	activated := 0
	for i := range due {
		susp := due[i]
		applied := false
		err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ct, err := loadContract(tx, susp.ContractSuspensionContractID)
			if err != nil {
				return err
			}
			if ct.ClientContractStatus != contractModel.ContractStatusActive {
				return nil // biarkan; kontrak sedang suspended/berakhir
			}
			pending := ct.ClientContractPendingSuspensionDays - susp.ContractSuspensionDaysUsed
			if pending < 0 {
				pending = 0
			}
			updates := map[string]interface{}{
				"client_contract_status":                  contractModel.ContractStatusSuspended,
				"client_contract_total_suspended_days":    ct.ClientContractTotalSuspendedDays + susp.ContractSuspensionDaysUsed,
				"client_contract_pending_suspension_days": pending,
			}
			if ct.ClientContractEndDate != nil {
				updates["client_contract_end_date"] = dates.AddDays(*ct.ClientContractEndDate, susp.ContractSuspensionDaysUsed)
			}
			if err := applyContractUpdate(tx, ct, updates); err != nil {
				return err
			}
			if err := tx.Model(&susp).Update("contract_suspension_status", contractModel.SuspensionStatusActive).Error; err != nil {
				return err
			}
			applied = true
			return nil
		})
		if err != nil {
			log.Printf("[SWEEP] aktivasi suspensi %s gagal: %v", susp.ContractSuspensionID, err)
			continue
		}
		if applied {
			activated++
		}
	}
	return activated, nil
}

// FinishExpiredSuspensions suspensi aktif yang end_date-nya lewat →
// kontrak kembali active. Hari suspensi terpakai penuh, tidak ada koreksi.
func (l *ContractLedger) FinishExpiredSuspensions(ctx context.Context, asOf time.Time) (int, error) {
	asOf = dates.DateOnly(asOf)

	var expired []contractModel.ContractSuspensionModel
	if err := l.DB.WithContext(ctx).
		Where("contract_suspension_status = ? AND contract_suspension_end_date < ?",
			contractModel.SuspensionStatusActive, asOf).
		Find(&expired).Error; err != nil {
		return 0, err
	}

	finished := 0
	for i := range expired {
		susp := expired[i]
		err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ct, err := loadContract(tx, susp.ContractSuspensionContractID)
			if err != nil {
				return err
			}
			if ct.ClientContractStatus == contractModel.ContractStatusSuspended {
				if err := applyContractUpdate(tx, ct, map[string]interface{}{
					"client_contract_status": contractModel.ContractStatusActive,
				}); err != nil {
					return err
				}
			}
			return tx.Model(&susp).Update("contract_suspension_status", contractModel.SuspensionStatusStopped).Error
		})
		if err != nil {
			log.Printf("[SWEEP] finish suspensi %s gagal: %v", susp.ContractSuspensionID, err)
			continue
		}
		finished++
	}
	return finished, nil
}

// MaterializeScheduledCancellations kontrak scheduled_cancellation yang
// target tanggalnya tiba → dibatalkan lewat jalur Cancel immediate,
// supaya outbox + cascade berlaku persis seperti jalur interaktif.
func (l *ContractLedger) MaterializeScheduledCancellations(ctx context.Context, asOf time.Time) (int, error) {
	asOf = dates.DateOnly(asOf)

	var due []contractModel.ClientContractModel
	if err := l.DB.WithContext(ctx).
		Where("client_contract_status = ? AND client_contract_scheduled_cancellation_date IS NOT NULL AND client_contract_scheduled_cancellation_date <= ?",
			contractModel.ContractStatusScheduledCancellation, asOf).
		Find(&due).Error; err != nil {
		return 0, err
	}

	canceled := 0
	for i := range due {
		ct := due[i]
		reason := "scheduled_cancellation_due"
		if ct.ClientContractCancelReason != nil && *ct.ClientContractCancelReason != "" {
			reason = *ct.ClientContractCancelReason
		}
		if _, err := l.Cancel(ctx, ct.ClientContractID, CancelModeImmediate, nil, CancelOptions{
			Reason:             reason,
			CancelReceivables:  true,
			CancelTransactions: true,
		}); err != nil {
			log.Printf("[SWEEP] materialisasi pembatalan kontrak %s gagal: %v", ct.ClientContractID, err)
			continue
		}
		canceled++
	}
	return canceled, nil
}

/* =========================
   Helpers
========================= */

func loadContract(tx *gorm.DB, id uuid.UUID) (*contractModel.ClientContractModel, error) {
	if id == uuid.Nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "contract_id wajib diisi")
	}
	var ct contractModel.ClientContractModel
	if err := tx.Where("client_contract_id = ?", id).Take(&ct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Kontrak tidak ditemukan")
		}
		return nil, err
	}
	return &ct, nil
}

// applyContractUpdate tulis kontrak dengan optimistic lock: WHERE atas
// lock version yang dibaca. RowsAffected 0 = kalah race → 409.
func applyContractUpdate(tx *gorm.DB, ct *contractModel.ClientContractModel, updates map[string]interface{}) error {
	updates["client_contract_lock_version"] = ct.ClientContractLockVersion + 1
	updates["client_contract_updated_at"] = time.Now()

	res := tx.Model(&contractModel.ClientContractModel{}).
		Where("client_contract_id = ? AND client_contract_lock_version = ?",
			ct.ClientContractID, ct.ClientContractLockVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusConflict,
			"Kontrak dimodifikasi request lain; silakan ulangi")
	}
	ct.ClientContractLockVersion++
	return nil
}

func cleanupEnrollmentsForFinished(tx *gorm.DB, ct contractModel.ClientContractModel) error {
	now := time.Now()
	reason := "contract_finished"

	// Single-session mendatang melewati end date kontrak
	if ct.ClientContractEndDate != nil {
		if err := tx.Model(&enrollModel.EnrollmentModel{}).
			Where("enrollment_client_id = ? AND enrollment_type = ? AND enrollment_status = ? AND enrollment_session_date > ?",
				ct.ClientContractClientID, enrollModel.EnrollmentTypeSingleSession,
				enrollModel.EnrollmentStatusActive, dates.DateOnly(*ct.ClientContractEndDate)).
			Updates(map[string]interface{}{
				"enrollment_status":        enrollModel.EnrollmentStatusCanceled,
				"enrollment_cancel_reason": reason,
				"enrollment_canceled_at":   now,
			}).Error; err != nil {
			return err
		}
	}

	// Seluruh recurring klien di bawah kontrak ini
	return tx.Model(&enrollModel.EnrollmentModel{}).
		Where("enrollment_client_id = ? AND enrollment_contract_id = ? AND enrollment_type = ? AND enrollment_status = ?",
			ct.ClientContractClientID, ct.ClientContractID,
			enrollModel.EnrollmentTypeRecurring, enrollModel.EnrollmentStatusActive).
		Updates(map[string]interface{}{
			"enrollment_status":        enrollModel.EnrollmentStatusCanceled,
			"enrollment_cancel_reason": reason,
			"enrollment_canceled_at":   now,
		}).Error
}

func formatDatePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return dates.FormatISODate(*t)
}

func formatUUIDPtr(u *uuid.UUID) interface{} {
	if u == nil {
		return nil
	}
	return u.String()
}
