package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
	"github.com/iho/loanledger/internal/usecase/mocks"
)

func TestAccountUseCase_OpenAccount(t *testing.T) {
	tests := []struct {
		name          string
		input         usecase.OpenAccountInput
		wantID        string
		wantNegative  bool
		wantPositive  bool
		expectedError error
	}{
		{
			name:         "savings account gets generated id",
			input:        usecase.OpenAccountInput{Type: domain.AccountTypeSavings, Name: "Wallet", Currency: "USD"},
			wantID:       "acc-1",
			wantPositive: true,
		},
		{
			name:         "loan account keeps the loan id",
			input:        usecase.OpenAccountInput{ID: "loan-42", Type: domain.AccountTypeLoan, Name: "Loan 42", Currency: "KES"},
			wantID:       "loan-42",
			wantNegative: true,
		},
		{
			name:          "unknown type",
			input:         usecase.OpenAccountInput{Type: "CURRENT", Currency: "USD"},
			expectedError: domain.ErrUnsupportedTransfer,
		},
		{
			name:          "unknown currency",
			input:         usecase.OpenAccountInput{Type: domain.AccountTypeSavings, Currency: "XXX"},
			expectedError: domain.ErrInvalidCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := mocks.NewFakeLedger()
			uc := usecase.NewAccountUseCase(ledger.Accounts(), mocks.NewFakeIDGenerator("acc"))

			account, err := uc.OpenAccount(context.Background(), tt.input)
			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("expected %v, got %v", tt.expectedError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if account.ID != tt.wantID {
				t.Errorf("id = %q, want %q", account.ID, tt.wantID)
			}
			if account.AllowNegativeBalance != tt.wantNegative || account.AllowPositiveBalance != tt.wantPositive {
				t.Errorf("unexpected balance rules: %+v", account)
			}

			stored, err := uc.GetAccount(context.Background(), account.ID)
			if err != nil {
				t.Fatalf("stored account not found: %v", err)
			}
			if !stored.Balance.IsZero() {
				t.Errorf("expected zero opening balance, got %s", stored.Balance)
			}
		})
	}
}

func TestAccountUseCase_GetAccountNotFound(t *testing.T) {
	uc := usecase.NewAccountUseCase(mocks.NewFakeLedger().Accounts(), mocks.NewFakeIDGenerator("acc"))

	if _, err := uc.GetAccount(context.Background(), "nope"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
