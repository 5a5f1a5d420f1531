// file: internals/features/contracts/scheduler/contract_sweeps_scheduler.go
package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"

	contractService "studioku_backend/internals/features/contracts/contracts/service"
	eventService "studioku_backend/internals/features/contracts/events/service"
	receivableService "studioku_backend/internals/features/finance/receivables/service"
	"studioku_backend/internals/helpers/dates"
)

const (
	DefaultRetentionDays   = 15
	DefaultDelinquencyDays = 30
)

// SweepRunner mengikat seluruh job konvergensi kontrak. "Hari ini"
// diambil SEKALI per run (asOf) — tidak di-reevaluate per item, supaya
// run panjang lintas tenant tetap konsisten.
type SweepRunner struct {
	DB      *gorm.DB
	Ledger  *contractService.ContractLedger
	Cascade *eventService.Cascade

	RetentionDays   int
	DelinquencyDays int
}

func NewSweepRunner(db *gorm.DB) *SweepRunner {
	cascade := &eventService.Cascade{DB: db}
	return &SweepRunner{
		DB:              db,
		Ledger:          &contractService.ContractLedger{DB: db, Sink: cascade},
		Cascade:         cascade,
		RetentionDays:   envInt("CONTRACT_RETENTION_DAYS", DefaultRetentionDays),
		DelinquencyDays: envInt("DELINQUENCY_THRESHOLD_DAYS", DefaultDelinquencyDays),
	}
}

// RunAll urutan job: suspensi dulu (status kontrak akurat), lalu
// transisi kontrak, lalu delinquency, terakhir drain outbox.
func (r *SweepRunner) RunAll(ctx context.Context) {
	asOf := dates.Today()
	log.Printf("[SWEEP] Menjalankan sweep kontrak asOf=%s", dates.FormatISODate(asOf))

	if n, err := r.Ledger.ActivateScheduledSuspensions(ctx, asOf); err != nil {
		log.Printf("[SWEEP ERROR] aktivasi suspensi: %v", err)
	} else if n > 0 {
		log.Printf("[SWEEP] %d suspensi diaktifkan", n)
	}

	if n, err := r.Ledger.FinishExpiredSuspensions(ctx, asOf); err != nil {
		log.Printf("[SWEEP ERROR] finish suspensi: %v", err)
	} else if n > 0 {
		log.Printf("[SWEEP] %d suspensi selesai", n)
	}

	if n, err := r.Ledger.MaterializeScheduledCancellations(ctx, asOf); err != nil {
		log.Printf("[SWEEP ERROR] pembatalan terjadwal: %v", err)
	} else if n > 0 {
		log.Printf("[SWEEP] %d pembatalan terjadwal dieksekusi", n)
	}

	if n, err := r.Ledger.ExpireContracts(ctx, asOf); err != nil {
		log.Printf("[SWEEP ERROR] expire kontrak: %v", err)
	} else if n > 0 {
		log.Printf("[SWEEP] %d kontrak berakhir → finished", n)
	}

	if n, err := r.Ledger.ArchiveOldCancellations(ctx, asOf, r.RetentionDays); err != nil {
		log.Printf("[SWEEP ERROR] arsip kontrak: %v", err)
	} else if n > 0 {
		log.Printf("[SWEEP] %d kontrak diarsipkan → inactive", n)
	}

	if n, err := r.CancelDelinquentContracts(ctx, asOf); err != nil {
		log.Printf("[SWEEP ERROR] delinquency: %v", err)
	} else if n > 0 {
		log.Printf("[SWEEP] %d kontrak delinquent dibatalkan", n)
	}

	if n, err := r.Cascade.ProcessPending(ctx, 100); err != nil {
		log.Printf("[SWEEP ERROR] drain outbox: %v", err)
	} else if n > 0 {
		log.Printf("[SWEEP] %d event outbox diproses", n)
	}
}

// CancelDelinquentContracts kontrak dengan piutang overdue melewati
// threshold → dibatalkan lewat jalur ledger.Cancel immediate supaya
// outbox + cascade berlaku persis seperti jalur interaktif.
func (r *SweepRunner) CancelDelinquentContracts(ctx context.Context, asOf time.Time) (int, error) {
	store := receivableService.ReceivableStore{DB: r.DB}

	if _, err := store.MarkOverdue(ctx, asOf); err != nil {
		log.Printf("[SWEEP ERROR] mark overdue: %v", err)
	}

	ids, err := store.DelinquentContractIDs(ctx, asOf, r.DelinquencyDays)
	if err != nil {
		return 0, err
	}

	canceled := 0
	for _, id := range ids {
		_, err := r.Ledger.Cancel(ctx, id, contractService.CancelModeImmediate, nil,
			contractService.CancelOptions{
				Reason:             "delinquency",
				CancelReceivables:  false, // piutang tetap tertagih
				CancelTransactions: true,
			})
		if err != nil {
			log.Printf("[SWEEP ERROR] cancel delinquent %s: %v", id, err)
			continue
		}
		canceled++
	}
	return canceled, nil
}

// StartContractSweepScheduler goroutine sweep harian (interval bisa
// dioverride lewat SWEEP_INTERVAL_HOURS untuk staging).
func StartContractSweepScheduler(db *gorm.DB) {
	go func() {
		runner := NewSweepRunner(db)
		intervalHours := envInt("SWEEP_INTERVAL_HOURS", 24)

		for {
			runner.RunAll(context.Background())
			time.Sleep(time.Duration(intervalHours) * time.Hour)
		}
	}()
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}
