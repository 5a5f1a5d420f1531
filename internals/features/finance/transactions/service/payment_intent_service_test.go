// file: internals/features/finance/transactions/service/payment_intent_service_test.go
package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	rcvModel "studioku_backend/internals/features/finance/receivables/model"
	txModel "studioku_backend/internals/features/finance/transactions/model"
)

func newIntentTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&rcvModel.ReceivableModel{}, &txModel.FinancialTransactionModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedOpenReceivable(t *testing.T, db *gorm.DB, studioID uuid.UUID, amount int64) *rcvModel.ReceivableModel {
	t.Helper()
	row := &rcvModel.ReceivableModel{
		ReceivableStudioID:    studioID,
		ReceivableClientID:    uuid.New(),
		ReceivableKind:        rcvModel.ReceivableKindFee,
		ReceivableAmountCents: amount,
		ReceivableDueDate:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		ReceivableDescription: "Mensalidade Maret",
		ReceivableStatus:      rcvModel.ReceivableStatusOpen,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed receivable: %v", err)
	}
	return row
}

func wantFiberStatus(t *testing.T, err error, want int) {
	t.Helper()
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected fiber error %d, got %v", want, err)
	}
	if fe.Code != want {
		t.Fatalf("expected status %d, got %d (%s)", want, fe.Code, fe.Message)
	}
}

func TestStartReceivablePaymentCreatesPendingTransaction(t *testing.T) {
	db := newIntentTestDB(t)
	studioID := uuid.New()
	rcv := seedOpenReceivable(t, db, studioID, 8000)

	var gotOrderID string
	intent := PaymentIntent{
		DB: db,
		Token: func(orderID string, amountCents int64, name, email string) (string, error) {
			gotOrderID = orderID
			if amountCents != 8000 {
				t.Errorf("expected amount 8000 at gateway, got %d", amountCents)
			}
			return "snap-abc", nil
		},
	}

	row, token, err := intent.StartReceivablePayment(context.Background(), studioID, rcv.ReceivableID, "Ana", "ana@example.com")
	if err != nil {
		t.Fatalf("start payment: %v", err)
	}
	if token != "snap-abc" {
		t.Fatalf("expected snap token passthrough, got %q", token)
	}
	if gotOrderID != BuildGatewayOrderID(rcv.ReceivableID) {
		t.Errorf("expected deterministic order id, got %q", gotOrderID)
	}

	var after rcvModel.ReceivableModel
	if err := db.Take(&after, "receivable_id = ?", rcv.ReceivableID).Error; err != nil {
		t.Fatalf("reload receivable: %v", err)
	}
	if after.ReceivableStatus != rcvModel.ReceivableStatusPending {
		t.Errorf("expected receivable pending, got %s", after.ReceivableStatus)
	}

	var tx txModel.FinancialTransactionModel
	if err := db.Take(&tx, "financial_transaction_id = ?", row.FinancialTransactionID).Error; err != nil {
		t.Fatalf("reload transaction: %v", err)
	}
	if tx.FinancialTransactionStatus != txModel.TransactionStatusPending {
		t.Errorf("expected pending transaction, got %s", tx.FinancialTransactionStatus)
	}
	if tx.FinancialTransactionDirection != txModel.TransactionDirectionIncome {
		t.Errorf("expected income, got %s", tx.FinancialTransactionDirection)
	}
	if tx.FinancialTransactionGatewayOrderID == nil || *tx.FinancialTransactionGatewayOrderID != gotOrderID {
		t.Errorf("expected gateway order id %q persisted", gotOrderID)
	}

	// Call kedua: piutang sudah pending → ditolak 422, tidak ada row baru
	_, _, err = intent.StartReceivablePayment(context.Background(), studioID, rcv.ReceivableID, "Ana", "ana@example.com")
	wantFiberStatus(t, err, fiber.StatusUnprocessableEntity)
	var n int64
	if err := db.Model(&txModel.FinancialTransactionModel{}).Count(&n).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly 1 transaction after retry, got %d", n)
	}
}

func TestStartReceivablePaymentGatewayFailureLeavesStateUntouched(t *testing.T) {
	db := newIntentTestDB(t)
	studioID := uuid.New()
	rcv := seedOpenReceivable(t, db, studioID, 5000)

	intent := PaymentIntent{
		DB: db,
		Token: func(string, int64, string, string) (string, error) {
			return "", errors.New("gateway down")
		},
	}

	_, _, err := intent.StartReceivablePayment(context.Background(), studioID, rcv.ReceivableID, "Ana", "ana@example.com")
	wantFiberStatus(t, err, fiber.StatusBadGateway)

	var after rcvModel.ReceivableModel
	if err := db.Take(&after, "receivable_id = ?", rcv.ReceivableID).Error; err != nil {
		t.Fatalf("reload receivable: %v", err)
	}
	if after.ReceivableStatus != rcvModel.ReceivableStatusOpen {
		t.Errorf("gateway failure must not mutate receivable, got %s", after.ReceivableStatus)
	}
	var n int64
	if err := db.Model(&txModel.FinancialTransactionModel{}).Count(&n).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no transaction rows after gateway failure, got %d", n)
	}
}

func TestStartReceivablePaymentRejectsWrongStudioAndClosedStatus(t *testing.T) {
	db := newIntentTestDB(t)
	studioID := uuid.New()
	rcv := seedOpenReceivable(t, db, studioID, 5000)

	intent := PaymentIntent{
		DB: db,
		Token: func(string, int64, string, string) (string, error) {
			t.Fatal("gateway must not be called for rejected payments")
			return "", nil
		},
	}

	// Studio lain tidak boleh melihat piutangnya
	_, _, err := intent.StartReceivablePayment(context.Background(), uuid.New(), rcv.ReceivableID, "Ana", "ana@example.com")
	wantFiberStatus(t, err, fiber.StatusNotFound)

	// Piutang sudah paid → tidak bisa dibayar ulang
	if err := db.Model(&rcvModel.ReceivableModel{}).
		Where("receivable_id = ?", rcv.ReceivableID).
		Update("receivable_status", rcvModel.ReceivableStatusPaid).Error; err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	_, _, err = intent.StartReceivablePayment(context.Background(), studioID, rcv.ReceivableID, "Ana", "ana@example.com")
	wantFiberStatus(t, err, fiber.StatusUnprocessableEntity)
}
