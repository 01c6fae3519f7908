package treasury

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sealworks/seal-erp/internal/shared"
)

// TransactionType enumerates ledger movements.
type TransactionType string

const (
	TypeIncome      TransactionType = "income"
	TypeExpense     TransactionType = "expense"
	TypeTransferIn  TransactionType = "transfer_in"
	TypeTransferOut TransactionType = "transfer_out"
)

// Sign is +1 for money in and -1 for money out.
func (t TransactionType) Sign() int {
	switch t {
	case TypeIncome, TypeTransferIn:
		return 1
	case TypeExpense, TypeTransferOut:
		return -1
	default:
		return 0
	}
}

// Transaction is an append-only ledger entry.
type Transaction struct {
	ID                   string          `json:"id"`
	AccountID            AccountID       `json:"account_id"`
	TransactionType      TransactionType `json:"transaction_type"`
	Amount               float64         `json:"amount"`
	Description          string          `json:"description"`
	Reference            string          `json:"reference,omitempty"`
	RelatedTransactionID string          `json:"related_transaction_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// TypeTotal aggregates amounts per account and type.
type TypeTotal struct {
	AccountID       AccountID
	TransactionType TransactionType
	Amount          float64
}

// Fold sums totals into per-account balances. Every account is present.
func Fold(totals []TypeTotal) map[AccountID]decimal.Decimal {
	out := make(map[AccountID]decimal.Decimal, len(Accounts))
	for _, a := range Accounts {
		out[a] = decimal.Zero
	}
	for _, t := range totals {
		signed := decimal.NewFromFloat(t.Amount).Mul(decimal.NewFromInt(int64(t.TransactionType.Sign())))
		out[t.AccountID] = out[t.AccountID].Add(signed)
	}
	return out
}

// PostInput describes a single posting. IdempotencyKey, when set, makes the post at-most-once.
type PostInput struct {
	AccountID      AccountID
	Type           TransactionType
	Amount         float64
	Description    string
	Reference      string
	IdempotencyKey string
}

// ManualPostInput is the request body for a hand-entered posting.
type ManualPostInput struct {
	AccountID       string  `json:"account_id" validate:"required"`
	TransactionType string  `json:"transaction_type" validate:"required,oneof=income expense"`
	Amount          float64 `json:"amount" validate:"gt=0"`
	Description     string  `json:"description"`
}

// TransferInput moves money between two accounts.
type TransferInput struct {
	FromAccount string  `json:"from_account" validate:"required"`
	ToAccount   string  `json:"to_account" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Notes       string  `json:"notes"`
}

// TransferResult echoes both legs of a transfer.
type TransferResult struct {
	Out Transaction `json:"transfer_out"`
	In  Transaction `json:"transfer_in"`
}

// ErrInvalidAmount rejects non-positive postings.
var ErrInvalidAmount = &shared.ValidationError{Err: shared.ErrValidation, Field: "amount", Key: shared.MsgInvalidAmount}

// ErrSameAccount rejects transfers onto the source account.
var ErrSameAccount = &shared.ValidationError{Err: shared.ErrValidation, Field: "to_account", Key: shared.MsgInvalidTransfer}
