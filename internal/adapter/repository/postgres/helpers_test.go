package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/usecase"
)

func numeric(s string) pgtype.Numeric {
	return decimalToNumeric(decimal.RequireFromString(s))
}

func pgDate(year int, month time.Month, day int) pgtype.Date {
	return pgtype.Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

func beginMockTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()
	pool.ExpectBegin()
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

func TestNumericRoundTrip(t *testing.T) {
	tests := []string{"0", "100.50", "-800", "0.000001", "123456789.123456"}

	for _, in := range tests {
		d := decimal.RequireFromString(in)
		if got := numericToDecimal(decimalToNumeric(d)); !got.Equal(d) {
			t.Errorf("round trip of %s = %s", in, got)
		}
	}

	if got := numericToDecimal(pgtype.Numeric{}); !got.IsZero() {
		t.Errorf("NULL numeric should read as zero, got %s", got)
	}
	if got := numericToNullDecimal(pgtype.Numeric{}); got.Valid {
		t.Errorf("NULL numeric should stay null, got %v", got)
	}
	if got := numericToDecimalPtr(pgtype.Numeric{}); got != nil {
		t.Errorf("NULL numeric should be nil, got %s", got)
	}
}

func TestTimeToPgDateDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	got := timeToPgDate(time.Date(2024, 2, 15, 23, 30, 0, 0, loc))

	want := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	if !got.Valid || !got.Time.Equal(want) {
		t.Fatalf("timeToPgDate = %v, want %s", got, want)
	}
	if timePtrToPgDate(nil).Valid {
		t.Fatalf("nil time should map to NULL")
	}
}
