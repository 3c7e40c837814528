package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransfer_Validate(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		amount  decimal.Decimal
		wantErr error
	}{
		{name: "savings to loan", from: "sav-1", to: "loan-1", amount: decimal.RequireFromString("12.50")},
		{name: "same account", from: "sav-1", to: "sav-1", amount: decimal.NewFromInt(10), wantErr: ErrSameAccount},
		{name: "zero amount", from: "sav-1", to: "loan-1", amount: decimal.Zero, wantErr: ErrInvalidAmount},
		{name: "negative amount", from: "sav-1", to: "loan-1", amount: decimal.NewFromInt(-1), wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transfer := &Transfer{FromAccountID: tt.from, ToAccountID: tt.to, Amount: tt.amount}
			if err := transfer.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransferFailure(t *testing.T) {
	r := TransferFailure(TransferInsufficientBalance, ErrNegativeBalanceNotAllowed)
	if r.OK() {
		t.Fatal("failure reported as OK")
	}
	if r.Message != ErrNegativeBalanceNotAllowed.Error() {
		t.Errorf("message = %q", r.Message)
	}
	if r.Kind.String() != "insufficient_balance" {
		t.Errorf("kind = %s", r.Kind)
	}
	if !TransferSuccess("tr-1").OK() {
		t.Error("success not reported as OK")
	}
}
