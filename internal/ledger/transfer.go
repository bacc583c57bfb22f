package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"wisevault/internal/domain"
	"wisevault/pkg/validator"
)

// TransferOperations validates and applies deposits and withdrawals against
// directory-owned accounts. Every successful operation emits exactly one
// transaction record into both the account-local and the global log, in the
// same critical section as the balance change.
//
// The principal passed to each operation is the authorization hook for
// privileged transfer logic. Today a manager gains nothing beyond lookup
// scope; no privileged deposit or withdraw behavior exists yet.
type TransferOperations struct {
	dir       *LedgerDirectory
	validator *validator.AmountValidator
	logger    *slog.Logger
}

func NewTransferOperations(dir *LedgerDirectory, logger *slog.Logger) *TransferOperations {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferOperations{
		dir:       dir,
		validator: validator.NewAmountValidator(),
		logger:    logger,
	}
}

// Deposit adds amount to a scoped account and logs a Deposit record.
func (t *TransferOperations) Deposit(ctx context.Context, p domain.Principal, number int, amount float64) (domain.Account, error) {
	if err := t.validator.ValidateAmount(amount); err != nil {
		return domain.Account{}, err
	}

	snap, err := t.dir.withAccount(p, number, func(acc *domain.Account) error {
		acc.Deposit(amount)
		t.dir.appendLogsLocked(acc, domain.NewTransactionRecord(acc.Number, domain.KindDeposit, amount))
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}

	t.logger.InfoContext(ctx, "Deposit completed",
		slog.Int("account_number", number),
		slog.Float64("amount", amount),
		slog.Float64("balance", snap.Balance))
	return snap, nil
}

// Withdraw removes amount from a scoped account and logs a Withdraw record.
// An insufficient balance rejects the operation with no state change and no
// record emitted.
func (t *TransferOperations) Withdraw(ctx context.Context, p domain.Principal, number int, amount float64) (domain.Account, error) {
	if err := t.validator.ValidateAmount(amount); err != nil {
		return domain.Account{}, err
	}

	snap, err := t.dir.withAccount(p, number, func(acc *domain.Account) error {
		// Check before mutating, even though Account.Withdraw guards too:
		// no record may be emitted for a rejected withdrawal.
		if acc.Balance < amount {
			return fmt.Errorf("%w: account %d holds %.2f, requested %.2f",
				domain.ErrInsufficientBalance, acc.Number, acc.Balance, amount)
		}
		if err := acc.Withdraw(amount); err != nil {
			return err
		}
		t.dir.appendLogsLocked(acc, domain.NewTransactionRecord(acc.Number, domain.KindWithdraw, amount))
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}

	t.logger.InfoContext(ctx, "Withdrawal completed",
		slog.Int("account_number", number),
		slog.Float64("amount", amount),
		slog.Float64("balance", snap.Balance))
	return snap, nil
}
