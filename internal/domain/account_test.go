package domain

import (
	"errors"
	"testing"
)

func TestAccount_DepositAndWithdraw(t *testing.T) {
	acc := NewAccount(1001, "Atharv", 500, AccountTypeSaving, "atharv")

	acc.Deposit(250)
	if acc.Balance != 750 {
		t.Errorf("expected balance 750, got %f", acc.Balance)
	}

	if err := acc.Withdraw(750); err != nil {
		t.Fatalf("unexpected error on Withdraw: %v", err)
	}
	if acc.Balance != 0 {
		t.Errorf("expected balance 0, got %f", acc.Balance)
	}
}

func TestAccount_WithdrawInsufficient(t *testing.T) {
	acc := NewAccount(1001, "Atharv", 100, AccountTypeSaving, "atharv")

	err := acc.Withdraw(100.01)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if acc.Balance != 100 {
		t.Errorf("rejected withdrawal must not change balance, got %f", acc.Balance)
	}
}

func TestAccount_AddTransactionDoesNotValidateOwnership(t *testing.T) {
	acc := NewAccount(1001, "Atharv", 0, AccountTypeSaving, "atharv")

	// Records for a different account number are accepted as-is.
	acc.AddTransaction(NewTransactionRecord(9999, KindDeposit, 10))
	if len(acc.Transactions) != 1 {
		t.Fatalf("expected 1 record, got %d", len(acc.Transactions))
	}
	if acc.Transactions[0].AccountNumber != 9999 {
		t.Errorf("record stored unmodified, got account %d", acc.Transactions[0].AccountNumber)
	}
}

func TestAccount_Modify(t *testing.T) {
	acc := NewAccount(1001, "Atharv", 0, AccountTypeSaving, "atharv")
	acc.Modify("Atharv K", AccountTypeCurrent)

	if acc.HolderName != "Atharv K" || acc.Type != AccountTypeCurrent {
		t.Errorf("modify did not apply: %+v", acc)
	}
	if acc.Number != 1001 {
		t.Error("account number must be immutable")
	}
}

func TestAccount_SnapshotIsolation(t *testing.T) {
	acc := NewAccount(1001, "Atharv", 100, AccountTypeSaving, "atharv")
	acc.AddTransaction(NewTransactionRecord(1001, KindDeposit, 100))

	snap := acc.Snapshot()
	snap.Balance = 0
	snap.Transactions[0].Amount = 1

	if acc.Balance != 100 {
		t.Errorf("mutating a snapshot changed the account balance: %f", acc.Balance)
	}
	if acc.Transactions[0].Amount != 100 {
		t.Errorf("mutating a snapshot changed the account log: %f", acc.Transactions[0].Amount)
	}
}
