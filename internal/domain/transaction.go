package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionKind string

const (
	KindDeposit     TransactionKind = "Deposit"
	KindWithdraw    TransactionKind = "Withdraw"
	KindLoanPayment TransactionKind = "Loan Payment"
)

// TransactionRecord is an immutable fact about a single balance movement.
// Records are value objects: every log that should contain one holds its
// own copy.
type TransactionRecord struct {
	ID            string          `json:"id"`
	AccountNumber int             `json:"account_number"`
	Kind          TransactionKind `json:"kind"`
	Amount        float64         `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
}

func NewTransactionRecord(accountNumber int, kind TransactionKind, amount float64) TransactionRecord {
	return TransactionRecord{
		ID:            uuid.NewString(),
		AccountNumber: accountNumber,
		Kind:          kind,
		Amount:        amount,
		Timestamp:     time.Now(),
	}
}
