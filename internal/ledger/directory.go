package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"wisevault/internal/domain"
	"wisevault/pkg/validator"
)

const (
	firstAccountNumber = 1001
	firstLoanID        = 1
)

// LedgerDirectory owns every account and loan, issues their sequential
// identifiers, and keeps the global transaction log. One mutex serializes
// all state changes so that a balance mutation and its log appends commit
// together or not at all.
type LedgerDirectory struct {
	mu                sync.RWMutex
	accounts          []*domain.Account
	accountIndex      map[int]*domain.Account
	loans             []*domain.Loan
	loanIndex         map[int]*domain.Loan
	nextAccountNumber int
	nextLoanID        int
	globalLog         []domain.TransactionRecord
	validator         *validator.AmountValidator
	logger            *slog.Logger
}

func NewLedgerDirectory(logger *slog.Logger) *LedgerDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerDirectory{
		accountIndex:      make(map[int]*domain.Account),
		loanIndex:         make(map[int]*domain.Loan),
		nextAccountNumber: firstAccountNumber,
		nextLoanID:        firstLoanID,
		validator:         validator.NewAmountValidator(),
		logger:            logger,
	}
}

// CreateAccount issues the next account number and registers a new account
// with the given opening balance. No opening transaction record is written.
func (d *LedgerDirectory) CreateAccount(ctx context.Context, holderName string, initialBalance float64, accType, ownerUsername string) (int, error) {
	if err := d.validator.ValidateInitialBalance(initialBalance); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	number := d.nextAccountNumber
	d.nextAccountNumber++

	acc := domain.NewAccount(number, holderName, initialBalance, accType, ownerUsername)
	d.accounts = append(d.accounts, acc)
	d.accountIndex[number] = acc

	d.logger.InfoContext(ctx, "Account created",
		slog.Int("account_number", number),
		slog.String("owner", ownerUsername),
		slog.String("type", accType))
	return number, nil
}

// AccountsForUser returns snapshots of every account owned by the given
// username, in directory insertion order.
func (d *LedgerDirectory) AccountsForUser(ctx context.Context, username string) []domain.Account {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []domain.Account
	for _, acc := range d.accounts {
		if acc.OwnerUsername == username {
			result = append(result, acc.Snapshot())
		}
	}
	return result
}

// FindAccount returns a snapshot of the account when it exists and the
// principal may access it. The two failure causes share ErrNoAccess.
func (d *LedgerDirectory) FindAccount(ctx context.Context, p domain.Principal, number int) (domain.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	acc, ok := d.accountIndex[number]
	if !ok || !p.CanAccess(acc.OwnerUsername) {
		return domain.Account{}, fmt.Errorf("%w: account %d", ErrNoAccess, number)
	}
	return acc.Snapshot(), nil
}

// CloseAccount removes the first matching account the principal may access.
// The account's log is discarded with it.
func (d *LedgerDirectory) CloseAccount(ctx context.Context, p domain.Principal, number int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, acc := range d.accounts {
		if acc.Number == number && p.CanAccess(acc.OwnerUsername) {
			d.accounts = append(d.accounts[:i], d.accounts[i+1:]...)
			delete(d.accountIndex, number)
			d.logger.InfoContext(ctx, "Account closed",
				slog.Int("account_number", number),
				slog.String("caller", p.Username))
			return nil
		}
	}
	return fmt.Errorf("%w: account %d", ErrNoAccess, number)
}

// ModifyAccount replaces the holder name and type of a scoped account.
func (d *LedgerDirectory) ModifyAccount(ctx context.Context, p domain.Principal, number int, newName, newType string) (domain.Account, error) {
	return d.withAccount(p, number, func(acc *domain.Account) error {
		acc.Modify(newName, newType)
		return nil
	})
}

// AllAccounts lists every account. Manager only.
func (d *LedgerDirectory) AllAccounts(ctx context.Context, p domain.Principal) ([]domain.Account, error) {
	if !p.Manager {
		return nil, fmt.Errorf("%w: account listing", ErrNoAccess)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.Account, 0, len(d.accounts))
	for _, acc := range d.accounts {
		result = append(result, acc.Snapshot())
	}
	return result, nil
}

// ApplyLoan issues the next loan ID and registers a loan with its EMI
// computed up front. Terms are validated before the ID is consumed.
func (d *LedgerDirectory) ApplyLoan(ctx context.Context, borrowerName, borrowerUsername string, principal float64, tenureYears int, annualRatePercent float64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	loan, err := domain.NewLoan(d.nextLoanID, borrowerName, borrowerUsername, principal, tenureYears, annualRatePercent)
	if err != nil {
		return 0, err
	}

	d.nextLoanID++
	d.loans = append(d.loans, loan)
	d.loanIndex[loan.ID] = loan

	d.logger.InfoContext(ctx, "Loan issued",
		slog.Int("loan_id", loan.ID),
		slog.String("borrower", borrowerUsername),
		slog.Float64("principal", principal),
		slog.Float64("emi", loan.MonthlyEMI))
	return loan.ID, nil
}

// LoansForUser returns snapshots of every loan borrowed by the username.
func (d *LedgerDirectory) LoansForUser(ctx context.Context, username string) []domain.Loan {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var result []domain.Loan
	for _, loan := range d.loans {
		if loan.BorrowerUsername == username {
			result = append(result, loan.Snapshot())
		}
	}
	return result
}

// FindLoan mirrors FindAccount's authorization rule for loans.
func (d *LedgerDirectory) FindLoan(ctx context.Context, p domain.Principal, loanID int) (domain.Loan, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	loan, ok := d.loanIndex[loanID]
	if !ok || !p.CanAccess(loan.BorrowerUsername) {
		return domain.Loan{}, fmt.Errorf("%w: loan %d", ErrNoAccess, loanID)
	}
	return loan.Snapshot(), nil
}

// AllLoans lists every loan. Manager only.
func (d *LedgerDirectory) AllLoans(ctx context.Context, p domain.Principal) ([]domain.Loan, error) {
	if !p.Manager {
		return nil, fmt.Errorf("%w: loan listing", ErrNoAccess)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.Loan, 0, len(d.loans))
	for _, loan := range d.loans {
		result = append(result, loan.Snapshot())
	}
	return result, nil
}

// PaymentResult reports the outcome of a loan payment. LoggedAccount is the
// account whose history received the payment record, or 0 when the payer
// holds no account to log against (the payment still applies).
type PaymentResult struct {
	LoanID        int     `json:"loan_id"`
	Remaining     float64 `json:"remaining"`
	PaidOff       bool    `json:"paid_off"`
	LoggedAccount int     `json:"logged_account,omitempty"`
}

// PayLoan applies a payment against a scoped loan and mirrors a LoanPayment
// record into the payer's first account log and the global log, all inside
// one critical section.
func (d *LedgerDirectory) PayLoan(ctx context.Context, p domain.Principal, loanID int, amount float64) (PaymentResult, error) {
	if err := d.validator.ValidateAmount(amount); err != nil {
		return PaymentResult{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	loan, ok := d.loanIndex[loanID]
	if !ok || !p.CanAccess(loan.BorrowerUsername) {
		return PaymentResult{}, fmt.Errorf("%w: loan %d", ErrNoAccess, loanID)
	}

	remaining, paidOff := loan.MakePayment(amount)
	result := PaymentResult{LoanID: loanID, Remaining: remaining, PaidOff: paidOff}

	// The record lands in the payer's first account, when one exists.
	for _, acc := range d.accounts {
		if acc.OwnerUsername == p.Username {
			record := domain.NewTransactionRecord(acc.Number, domain.KindLoanPayment, amount)
			d.appendLogsLocked(acc, record)
			result.LoggedAccount = acc.Number
			break
		}
	}

	d.logger.InfoContext(ctx, "Loan payment applied",
		slog.Int("loan_id", loanID),
		slog.Float64("amount", amount),
		slog.Float64("remaining", remaining),
		slog.Bool("paid_off", paidOff))
	return result, nil
}

// RecordGlobalTransaction appends a record to the directory-wide audit
// trail. Balance-mutating operations mirror records here themselves; this
// entry point exists for callers that produce records out of band.
func (d *LedgerDirectory) RecordGlobalTransaction(ctx context.Context, record domain.TransactionRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.globalLog = append(d.globalLog, record)
}

// GlobalTransactions returns a copy of the global audit trail. Manager only.
func (d *LedgerDirectory) GlobalTransactions(ctx context.Context, p domain.Principal) ([]domain.TransactionRecord, error) {
	if !p.Manager {
		return nil, fmt.Errorf("%w: global transaction log", ErrNoAccess)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.TransactionRecord, len(d.globalLog))
	copy(out, d.globalLog)
	return out, nil
}

// AccountTransactions returns a copy of a scoped account's log.
func (d *LedgerDirectory) AccountTransactions(ctx context.Context, p domain.Principal, number int) ([]domain.TransactionRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	acc, ok := d.accountIndex[number]
	if !ok || !p.CanAccess(acc.OwnerUsername) {
		return nil, fmt.Errorf("%w: account %d", ErrNoAccess, number)
	}

	out := make([]domain.TransactionRecord, len(acc.Transactions))
	copy(out, acc.Transactions)
	return out, nil
}

// Counts reports how many accounts and loans the directory currently holds.
func (d *LedgerDirectory) Counts() (accounts, loans int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.accounts), len(d.loans)
}

// withAccount runs fn against a scoped live account under the write lock
// and returns the resulting snapshot. Mutation and log appends performed
// inside fn commit atomically with respect to every other operation.
func (d *LedgerDirectory) withAccount(p domain.Principal, number int, fn func(*domain.Account) error) (domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.accountIndex[number]
	if !ok || !p.CanAccess(acc.OwnerUsername) {
		return domain.Account{}, fmt.Errorf("%w: account %d", ErrNoAccess, number)
	}
	if err := fn(acc); err != nil {
		return domain.Account{}, err
	}
	return acc.Snapshot(), nil
}

// appendLogsLocked mirrors one record into the account-local and global
// logs. Callers must hold the write lock.
func (d *LedgerDirectory) appendLogsLocked(acc *domain.Account, record domain.TransactionRecord) {
	acc.AddTransaction(record)
	d.globalLog = append(d.globalLog, record)
}
