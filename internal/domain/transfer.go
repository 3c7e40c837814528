package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer represents a money movement between two accounts.
type Transfer struct {
	CreatedAt     time.Time
	EventAt       time.Time
	Metadata      map[string]any
	ID            string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
}

// Validate validates transfer request.
func (t *Transfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

// Metadata keys attached to scheduled transfers.
const (
	MetadataTransferType        = "transfer_type"
	MetadataTransferSubtype     = "transfer_subtype"
	MetadataDescription         = "description"
	MetadataStandingInstruction = "standing_instruction_id"
)

// Transfer subtypes as seen by the receiving product.
const (
	TransferSubtypeLoanRepayment = "loan_repayment"
	TransferSubtypeDeposit       = "deposit"
)

// TransferRequest asks a fund-transfer executor to move money between two
// portfolio accounts.
type TransferRequest struct {
	From            AccountRef
	To              AccountRef
	Amount          decimal.Decimal
	TransactionDate time.Time
	Description     string
	TransferType    TransferType
	TransferSubtype string
	InstructionID   string
}

// NewInstructionTransferRequest builds the transfer request for one scheduled
// execution of si.
func NewInstructionTransferRequest(si *StandingInstruction, amount decimal.Decimal, transactionDate time.Time) TransferRequest {
	subtype := TransferSubtypeDeposit
	if si.To.Type == AccountTypeLoan {
		subtype = TransferSubtypeLoanRepayment
	}

	return TransferRequest{
		From:            si.From,
		To:              si.To,
		Amount:          amount,
		TransactionDate: transactionDate,
		Description:     si.TransferDescription(),
		TransferType:    si.TransferType,
		TransferSubtype: subtype,
		InstructionID:   si.ID,
	}
}

// Metadata returns the metadata stored with the resulting ledger transfer.
func (r TransferRequest) Metadata() map[string]any {
	m := map[string]any{
		MetadataTransferType:    string(r.TransferType),
		MetadataTransferSubtype: r.TransferSubtype,
		MetadataDescription:     r.Description,
	}
	if r.InstructionID != "" {
		m[MetadataStandingInstruction] = r.InstructionID
	}
	return m
}

// TransferResultKind enumerates the closed set of executor outcomes.
type TransferResultKind int

const (
	TransferSucceeded TransferResultKind = iota
	TransferValidationFailed
	TransferInsufficientBalance
	TransferServiceUnavailable
	TransferFailed
)

func (k TransferResultKind) String() string {
	switch k {
	case TransferSucceeded:
		return "success"
	case TransferValidationFailed:
		return "validation"
	case TransferInsufficientBalance:
		return "insufficient_balance"
	case TransferServiceUnavailable:
		return "service_unavailable"
	default:
		return "unhandled"
	}
}

// TransferResult is the outcome of one executor call.
type TransferResult struct {
	Kind       TransferResultKind
	TransferID string
	Message    string
	Err        error
}

// OK reports whether the transfer was posted.
func (r TransferResult) OK() bool {
	return r.Kind == TransferSucceeded
}

// TransferSuccess returns a successful result for the posted transfer.
func TransferSuccess(transferID string) TransferResult {
	return TransferResult{Kind: TransferSucceeded, TransferID: transferID}
}

// TransferFailure returns a failed result of the given kind.
func TransferFailure(kind TransferResultKind, err error) TransferResult {
	r := TransferResult{Kind: kind, Err: err}
	if err != nil {
		r.Message = err.Error()
	}
	return r
}
