// file: internals/features/finance/transactions/service/midtrans_gateway_service.go
package service

import (
	"fmt"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

var (
	SnapClient snap.Client
	CoreClient coreapi.Client
)

// InitMidtrans menginisialisasi client Midtrans (Snap untuk charge,
// Core API untuk cancel/void) dengan server key.
func InitMidtrans(serverKey string) {
	SnapClient.New(serverKey, midtrans.Sandbox)
	CoreClient.New(serverKey, midtrans.Sandbox)
}

// GenerateSnapToken membuat token pembayaran Snap untuk satu installment.
func GenerateSnapToken(orderID string, amountCents int64, clientName, clientEmail string) (string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amountCents / 100,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: clientName,
			Email: clientEmail,
		},
	}
	resp, err := SnapClient.CreateTransaction(req)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// VoidGatewayTransaction membatalkan charge yang belum settle di gateway.
// Dipakai cascade pembatalan kontrak; error dikembalikan apa adanya
// supaya caller bisa log-and-continue.
func VoidGatewayTransaction(orderID string) error {
	if orderID == "" {
		return nil
	}
	if _, err := CoreClient.CancelTransaction(orderID); err != nil {
		return fmt.Errorf("midtrans cancel %s: %w", orderID, err)
	}
	return nil
}
