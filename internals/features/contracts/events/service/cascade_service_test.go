package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	eventModel "studioku_backend/internals/features/contracts/events/model"
	receivableModel "studioku_backend/internals/features/finance/receivables/model"
	txModel "studioku_backend/internals/features/finance/transactions/model"
	occurrenceModel "studioku_backend/internals/features/studio/class_occurrences/model"
	enrollModel "studioku_backend/internals/features/studio/enrollments/model"
	"studioku_backend/internals/helpers/dates"
)

func newCascadeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&eventModel.ContractEventModel{},
		&enrollModel.EnrollmentModel{},
		&occurrenceModel.ClassOccurrenceModel{},
		&receivableModel.ReceivableModel{},
		&txModel.FinancialTransactionModel{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedCanceledEvent(t *testing.T, db *gorm.DB, studioID, clientID, contractID uuid.UUID, payload datatypes.JSONMap) *eventModel.ContractEventModel {
	t.Helper()
	if payload == nil {
		payload = datatypes.JSONMap{}
	}
	ev := eventModel.ContractEventModel{
		ContractEventStudioID:   studioID,
		ContractEventContractID: contractID,
		ContractEventClientID:   clientID,
		ContractEventType:       eventModel.EventTypeContractCanceled,
		ContractEventPayload:    payload,
	}
	if err := db.Create(&ev).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return &ev
}

func seedOccurrence(t *testing.T, db *gorm.DB, studioID, templateID uuid.UUID, sessionDate time.Time, enrolled int) *occurrenceModel.ClassOccurrenceModel {
	t.Helper()
	occ := occurrenceModel.ClassOccurrenceModel{
		ClassOccurrenceID:            occurrenceModel.BuildOccurrenceID(templateID, sessionDate),
		ClassOccurrenceStudioID:      studioID,
		ClassOccurrenceTemplateID:    templateID,
		ClassOccurrenceSessionDate:   sessionDate,
		ClassOccurrenceStartTime:     "09:00",
		ClassOccurrenceEndTime:       "10:00",
		ClassOccurrenceMaxCapacity:   10,
		ClassOccurrenceEnrolledCount: enrolled,
	}
	if err := db.Create(&occ).Error; err != nil {
		t.Fatalf("seed occurrence: %v", err)
	}
	return &occ
}

func reloadEvent(t *testing.T, db *gorm.DB, id uuid.UUID) *eventModel.ContractEventModel {
	t.Helper()
	var ev eventModel.ContractEventModel
	if err := db.Where("contract_event_id = ?", id).Take(&ev).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	return &ev
}

func TestCascadeCancelsEnrollmentsAndDecrementsOccurrences(t *testing.T) {
	db := newCascadeTestDB(t)
	cascade := Cascade{DB: db}
	ctx := context.Background()
	today := dates.Today()

	studioID := uuid.New()
	clientID := uuid.New()
	contractID := uuid.New()
	templateID := uuid.New()

	// Recurring: dua occurrence mendatang milik template
	futA := seedOccurrence(t, db, studioID, templateID, dates.AddDays(today, 3), 3)
	futB := seedOccurrence(t, db, studioID, templateID, dates.AddDays(today, 10), 3)
	recurring := enrollModel.EnrollmentModel{
		EnrollmentStudioID:   studioID,
		EnrollmentClientID:   clientID,
		EnrollmentContractID: &contractID,
		EnrollmentTemplateID: &templateID,
		EnrollmentType:       enrollModel.EnrollmentTypeRecurring,
		EnrollmentStatus:     enrollModel.EnrollmentStatusActive,
	}
	if err := db.Create(&recurring).Error; err != nil {
		t.Fatalf("seed recurring: %v", err)
	}

	// Recurring kedua di template lain
	templateID2 := uuid.New()
	futC := seedOccurrence(t, db, studioID, templateID2, dates.AddDays(today, 4), 6)
	recurring2 := enrollModel.EnrollmentModel{
		EnrollmentStudioID:   studioID,
		EnrollmentClientID:   clientID,
		EnrollmentContractID: &contractID,
		EnrollmentTemplateID: &templateID2,
		EnrollmentType:       enrollModel.EnrollmentTypeRecurring,
		EnrollmentStatus:     enrollModel.EnrollmentStatusActive,
	}
	if err := db.Create(&recurring2).Error; err != nil {
		t.Fatalf("seed recurring2: %v", err)
	}

	// Single-session mendatang
	singleOcc := seedOccurrence(t, db, studioID, uuid.New(), dates.AddDays(today, 5), 2)
	futureDate := dates.AddDays(today, 5)
	single := enrollModel.EnrollmentModel{
		EnrollmentStudioID:     studioID,
		EnrollmentClientID:     clientID,
		EnrollmentOccurrenceID: &singleOcc.ClassOccurrenceID,
		EnrollmentType:         enrollModel.EnrollmentTypeSingleSession,
		EnrollmentSessionDate:  &futureDate,
		EnrollmentStatus:       enrollModel.EnrollmentStatusActive,
	}
	if err := db.Create(&single).Error; err != nil {
		t.Fatalf("seed single: %v", err)
	}

	// Single-session lampau: tidak disentuh
	pastOcc := seedOccurrence(t, db, studioID, uuid.New(), dates.AddDays(today, -5), 4)
	pastDate := dates.AddDays(today, -5)
	past := enrollModel.EnrollmentModel{
		EnrollmentStudioID:     studioID,
		EnrollmentClientID:     clientID,
		EnrollmentOccurrenceID: &pastOcc.ClassOccurrenceID,
		EnrollmentType:         enrollModel.EnrollmentTypeSingleSession,
		EnrollmentSessionDate:  &pastDate,
		EnrollmentStatus:       enrollModel.EnrollmentStatusActive,
	}
	if err := db.Create(&past).Error; err != nil {
		t.Fatalf("seed past: %v", err)
	}

	ev := seedCanceledEvent(t, db, studioID, clientID, contractID, datatypes.JSONMap{
		"reason": "mudança",
	})
	cascade.Dispatch(ctx, ev.ContractEventID)

	// Kedua recurring + single mendatang batal dengan reason
	for _, id := range []uuid.UUID{recurring.EnrollmentID, recurring2.EnrollmentID, single.EnrollmentID} {
		var e enrollModel.EnrollmentModel
		db.Where("enrollment_id = ?", id).Take(&e)
		if e.EnrollmentStatus != enrollModel.EnrollmentStatusCanceled {
			t.Errorf("enrollment %s: expected canceled, got %s", id, e.EnrollmentStatus)
		}
		if e.EnrollmentCancelReason == nil || *e.EnrollmentCancelReason != "mudança" {
			t.Errorf("enrollment %s: reason not propagated", id)
		}
	}
	var pastReloaded enrollModel.EnrollmentModel
	db.Where("enrollment_id = ?", past.EnrollmentID).Take(&pastReloaded)
	if pastReloaded.EnrollmentStatus != enrollModel.EnrollmentStatusActive {
		t.Errorf("past single-session should stay active, got %s", pastReloaded.EnrollmentStatus)
	}

	// enrolled_count turun di occurrence terdampak saja
	wantCounts := map[string]int{
		futA.ClassOccurrenceID:      2,
		futB.ClassOccurrenceID:      2,
		futC.ClassOccurrenceID:      5,
		singleOcc.ClassOccurrenceID: 1,
		pastOcc.ClassOccurrenceID:   4,
	}
	for id, want := range wantCounts {
		var occ occurrenceModel.ClassOccurrenceModel
		db.Where("class_occurrence_id = ?", id).Take(&occ)
		if occ.ClassOccurrenceEnrolledCount != want {
			t.Errorf("occurrence %s: expected count %d, got %d", id, want, occ.ClassOccurrenceEnrolledCount)
		}
	}

	got := reloadEvent(t, db, ev.ContractEventID)
	if got.ContractEventProcessedAt == nil || got.ContractEventAttempts != 1 {
		t.Errorf("event not marked processed: processed=%v attempts=%d",
			got.ContractEventProcessedAt, got.ContractEventAttempts)
	}
	if got.ContractEventLastError != nil {
		t.Errorf("expected no step errors, got %q", *got.ContractEventLastError)
	}
}

func TestCascadeReceivablesAndFine(t *testing.T) {
	db := newCascadeTestDB(t)
	cascade := Cascade{DB: db}
	ctx := context.Background()
	today := dates.Today()

	studioID := uuid.New()
	clientID := uuid.New()
	contractID := uuid.New()
	saleID := uuid.New()

	mk := func(status receivableModel.ReceivableStatus, contract, sale *uuid.UUID) uuid.UUID {
		r := receivableModel.ReceivableModel{
			ReceivableStudioID:    studioID,
			ReceivableClientID:    clientID,
			ReceivableContractID:  contract,
			ReceivableSaleID:      sale,
			ReceivableAmountCents: 10000,
			ReceivableDueDate:     dates.AddDays(today, 10),
			ReceivableStatus:      status,
		}
		if err := db.Create(&r).Error; err != nil {
			t.Fatalf("seed receivable: %v", err)
		}
		return r.ReceivableID
	}
	byContract := mk(receivableModel.ReceivableStatusOpen, &contractID, nil)
	bySale := mk(receivableModel.ReceivableStatusOverdue, nil, &saleID)
	paid := mk(receivableModel.ReceivableStatusPaid, &contractID, nil)
	unrelated := mk(receivableModel.ReceivableStatusOpen, nil, nil)

	ev := seedCanceledEvent(t, db, studioID, clientID, contractID, datatypes.JSONMap{
		"reason":             "inadimplência",
		"cancel_receivables": true,
		"fine_amount_cents":  int64(5000),
		"contract_sale_id":   saleID.String(),
	})
	cascade.Dispatch(ctx, ev.ContractEventID)

	wantStatus := map[uuid.UUID]receivableModel.ReceivableStatus{
		byContract: receivableModel.ReceivableStatusCanceled,
		bySale:     receivableModel.ReceivableStatusCanceled,
		paid:       receivableModel.ReceivableStatusPaid,
		unrelated:  receivableModel.ReceivableStatusOpen,
	}
	for id, want := range wantStatus {
		var r receivableModel.ReceivableModel
		db.Where("receivable_id = ?", id).Take(&r)
		if r.ReceivableStatus != want {
			t.Errorf("receivable %s: expected %s, got %s", id, want, r.ReceivableStatus)
		}
	}

	// Multa dibuat SETELAH sapuan piutang → tetap open
	var fine receivableModel.ReceivableModel
	if err := db.Where("receivable_kind = ?", receivableModel.ReceivableKindFine).
		Take(&fine).Error; err != nil {
		t.Fatalf("fine receivable not created: %v", err)
	}
	if fine.ReceivableStatus != receivableModel.ReceivableStatusOpen ||
		fine.ReceivableAmountCents != 5000 ||
		fine.ReceivableContractID == nil || *fine.ReceivableContractID != contractID {
		t.Errorf("unexpected fine: status=%s amount=%d", fine.ReceivableStatus, fine.ReceivableAmountCents)
	}
}

func TestCascadeCreditWithOffset(t *testing.T) {
	db := newCascadeTestDB(t)
	cascade := Cascade{DB: db}
	ctx := context.Background()

	studioID := uuid.New()
	clientID := uuid.New()

	ev := seedCanceledEvent(t, db, studioID, clientID, uuid.New(), datatypes.JSONMap{
		"refunded":            true,
		"credit_amount_cents": int64(25000),
	})
	cascade.Dispatch(ctx, ev.ContractEventID)

	var txs []txModel.FinancialTransactionModel
	if err := db.Where("financial_transaction_client_id = ?", clientID).
		Order("financial_transaction_direction ASC").Find(&txs).Error; err != nil {
		t.Fatalf("read transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected credit + offset pair, got %d rows", len(txs))
	}
	// "expense" < "income" secara leksikal
	if txs[0].FinancialTransactionDirection != txModel.TransactionDirectionExpense ||
		txs[1].FinancialTransactionDirection != txModel.TransactionDirectionIncome {
		t.Errorf("unexpected directions: %s / %s",
			txs[0].FinancialTransactionDirection, txs[1].FinancialTransactionDirection)
	}
	for _, tr := range txs {
		if tr.FinancialTransactionAmountCents != 25000 ||
			tr.FinancialTransactionStatus != txModel.TransactionStatusRealized {
			t.Errorf("expected realized 25000, got %d/%s",
				tr.FinancialTransactionAmountCents, tr.FinancialTransactionStatus)
		}
	}
}

func TestCascadeCancelsPendingTransactions(t *testing.T) {
	db := newCascadeTestDB(t)
	cascade := Cascade{DB: db}
	ctx := context.Background()
	today := dates.Today()

	studioID := uuid.New()
	clientID := uuid.New()
	saleID := uuid.New()

	mk := func(status txModel.TransactionStatus, installment int) uuid.UUID {
		tr := txModel.FinancialTransactionModel{
			FinancialTransactionStudioID:      studioID,
			FinancialTransactionClientID:      clientID,
			FinancialTransactionSaleID:        &saleID,
			FinancialTransactionDirection:     txModel.TransactionDirectionIncome,
			FinancialTransactionAmountCents:   15000,
			FinancialTransactionDueDate:       dates.AddDays(today, 30*installment),
			FinancialTransactionInstallmentNo: installment,
			FinancialTransactionStatus:        status,
		}
		if err := db.Create(&tr).Error; err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
		return tr.FinancialTransactionID
	}
	pending1 := mk(txModel.TransactionStatusPending, 2)
	pending2 := mk(txModel.TransactionStatusPending, 3)
	realized := mk(txModel.TransactionStatusRealized, 1)

	ev := seedCanceledEvent(t, db, studioID, clientID, uuid.New(), datatypes.JSONMap{
		"reason":              "cancelamento",
		"cancel_transactions": true,
		"contract_sale_id":    saleID.String(),
	})
	cascade.Dispatch(ctx, ev.ContractEventID)

	for _, id := range []uuid.UUID{pending1, pending2} {
		var tr txModel.FinancialTransactionModel
		db.Where("financial_transaction_id = ?", id).Take(&tr)
		if tr.FinancialTransactionStatus != txModel.TransactionStatusCanceled ||
			tr.FinancialTransactionCanceledAt == nil {
			t.Errorf("transaction %s: expected canceled, got %s", id, tr.FinancialTransactionStatus)
		}
	}
	var keep txModel.FinancialTransactionModel
	db.Where("financial_transaction_id = ?", realized).Take(&keep)
	if keep.FinancialTransactionStatus != txModel.TransactionStatusRealized {
		t.Errorf("realized transaction must not be touched, got %s", keep.FinancialTransactionStatus)
	}
}

// Gagalnya satu step tidak menghentikan step lain dan tidak membuat
// event menggantung: tetap ditandai processed dengan last_error terisi.
func TestCascadeStepFailureStillMarksProcessed(t *testing.T) {
	db := newCascadeTestDB(t)
	cascade := Cascade{DB: db}
	ctx := context.Background()

	studioID := uuid.New()
	clientID := uuid.New()
	contractID := uuid.New()

	enr := enrollModel.EnrollmentModel{
		EnrollmentStudioID:   studioID,
		EnrollmentClientID:   clientID,
		EnrollmentContractID: &contractID,
		EnrollmentType:       enrollModel.EnrollmentTypeRecurring,
		EnrollmentStatus:     enrollModel.EnrollmentStatusActive,
	}
	if err := db.Create(&enr).Error; err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}

	// Sabotase step piutang
	if err := db.Migrator().DropTable(&receivableModel.ReceivableModel{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	ev := seedCanceledEvent(t, db, studioID, clientID, contractID, datatypes.JSONMap{
		"cancel_receivables": true,
	})
	cascade.Dispatch(ctx, ev.ContractEventID)

	var e enrollModel.EnrollmentModel
	db.Where("enrollment_id = ?", enr.EnrollmentID).Take(&e)
	if e.EnrollmentStatus != enrollModel.EnrollmentStatusCanceled {
		t.Errorf("enrollment step should still run, got %s", e.EnrollmentStatus)
	}

	got := reloadEvent(t, db, ev.ContractEventID)
	if got.ContractEventProcessedAt == nil {
		t.Fatal("event should be marked processed despite step failure")
	}
	if got.ContractEventLastError == nil {
		t.Fatal("last_error should record the failed step")
	}
}

// Angka payload yang ditulis in-process sebagai int64 dibaca balik dari
// kolom JSON sebagai json.Number — pembaca payload harus menghasilkan
// nilai asli, bukan 0 diam-diam.
func TestPayloadNumbersSurviveStorageRoundTrip(t *testing.T) {
	db := newCascadeTestDB(t)

	ev := seedCanceledEvent(t, db, uuid.New(), uuid.New(), uuid.New(), datatypes.JSONMap{
		"fine_amount_cents":   int64(2500),
		"credit_amount_cents": int64(125000),
	})

	got := reloadEvent(t, db, ev.ContractEventID)
	if v := payloadInt64(got.ContractEventPayload, "fine_amount_cents"); v != 2500 {
		t.Errorf("fine_amount_cents after roundtrip: expected 2500, got %d (raw %T)",
			v, got.ContractEventPayload["fine_amount_cents"])
	}
	if v := payloadInt64(got.ContractEventPayload, "credit_amount_cents"); v != 125000 {
		t.Errorf("credit_amount_cents after roundtrip: expected 125000, got %d (raw %T)",
			v, got.ContractEventPayload["credit_amount_cents"])
	}
	if v := payloadInt64(got.ContractEventPayload, "missing"); v != 0 {
		t.Errorf("missing key: expected 0, got %d", v)
	}
}

func TestProcessPendingDrainsAndRespectsAttemptCap(t *testing.T) {
	db := newCascadeTestDB(t)
	cascade := Cascade{DB: db}
	ctx := context.Background()

	studioID := uuid.New()
	evA := seedCanceledEvent(t, db, studioID, uuid.New(), uuid.New(), nil)
	evB := seedCanceledEvent(t, db, studioID, uuid.New(), uuid.New(), nil)

	// Sudah melewati batas attempt → tidak disentuh lagi
	capped := seedCanceledEvent(t, db, studioID, uuid.New(), uuid.New(), nil)
	db.Model(capped).Update("contract_event_attempts", MaxCascadeAttempts)

	n, err := cascade.ProcessPending(ctx, 0)
	if err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 processed, got %d", n)
	}
	for _, id := range []uuid.UUID{evA.ContractEventID, evB.ContractEventID} {
		if got := reloadEvent(t, db, id); got.ContractEventProcessedAt == nil {
			t.Errorf("event %s should be processed", id)
		}
	}
	if got := reloadEvent(t, db, capped.ContractEventID); got.ContractEventProcessedAt != nil ||
		got.ContractEventAttempts != MaxCascadeAttempts {
		t.Errorf("capped event must stay untouched: processed=%v attempts=%d",
			got.ContractEventProcessedAt, got.ContractEventAttempts)
	}

	// Drain kedua: tidak ada yang tersisa
	n, err = cascade.ProcessPending(ctx, 0)
	if err != nil || n != 0 {
		t.Errorf("second drain expected (0, nil), got (%d, %v)", n, err)
	}
}
