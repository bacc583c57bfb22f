package ledger

import (
	"context"
	"errors"
	"testing"

	"wisevault/internal/domain"
	"wisevault/pkg/validator"
)

var (
	owner    = domain.Principal{Username: "atharv"}
	stranger = domain.Principal{Username: "someone-else"}
	manager  = domain.Principal{Username: "prithvi", Manager: true}
)

func newDirectory(t *testing.T) *LedgerDirectory {
	t.Helper()
	return NewLedgerDirectory(nil)
}

func mustCreateAccount(t *testing.T, d *LedgerDirectory, ownerUsername string, balance float64) int {
	t.Helper()
	number, err := d.CreateAccount(context.Background(), "Holder", balance, domain.AccountTypeSaving, ownerUsername)
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return number
}

func TestCreateAccount_SequentialNumbers(t *testing.T) {
	d := newDirectory(t)

	for i := 1; i <= 5; i++ {
		number := mustCreateAccount(t, d, "atharv", 0)
		if number != 1000+i {
			t.Errorf("account %d: expected number %d, got %d", i, 1000+i, number)
		}
	}
}

func TestCreateAccount_RejectsNegativeBalance(t *testing.T) {
	d := newDirectory(t)

	_, err := d.CreateAccount(context.Background(), "Holder", -1, domain.AccountTypeSaving, "atharv")
	if !errors.Is(err, validator.ErrInvalidBalance) {
		t.Fatalf("expected ErrInvalidBalance, got %v", err)
	}

	// The rejected attempt must not consume a number.
	if number := mustCreateAccount(t, d, "atharv", 0); number != 1001 {
		t.Errorf("expected first issued number 1001, got %d", number)
	}
}

func TestFindAccount_OwnershipScoping(t *testing.T) {
	d := newDirectory(t)
	number := mustCreateAccount(t, d, "atharv", 100)

	if _, err := d.FindAccount(context.Background(), owner, number); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
	if _, err := d.FindAccount(context.Background(), stranger, number); !errors.Is(err, ErrNoAccess) {
		t.Errorf("expected ErrNoAccess for stranger, got %v", err)
	}
	if _, err := d.FindAccount(context.Background(), manager, number); err != nil {
		t.Errorf("manager lookup failed: %v", err)
	}
	if _, err := d.FindAccount(context.Background(), manager, 4242); !errors.Is(err, ErrNoAccess) {
		t.Errorf("expected ErrNoAccess for missing account, got %v", err)
	}
}

func TestAccountsForUser_RoundTrip(t *testing.T) {
	d := newDirectory(t)
	first := mustCreateAccount(t, d, "atharv", 300)
	second := mustCreateAccount(t, d, "atharv", 50)
	mustCreateAccount(t, d, "other", 999)

	accounts := d.AccountsForUser(context.Background(), "atharv")
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Number != first || accounts[1].Number != second {
		t.Errorf("expected insertion order %d, %d; got %d, %d",
			first, second, accounts[0].Number, accounts[1].Number)
	}
	if accounts[0].Balance != 300 || accounts[0].Type != domain.AccountTypeSaving {
		t.Errorf("round-trip mismatch: %+v", accounts[0])
	}
}

func TestAccountsForUser_ReturnsSnapshots(t *testing.T) {
	d := newDirectory(t)
	number := mustCreateAccount(t, d, "atharv", 100)

	accounts := d.AccountsForUser(context.Background(), "atharv")
	accounts[0].Balance = 1_000_000

	fresh, err := d.FindAccount(context.Background(), owner, number)
	if err != nil {
		t.Fatalf("FindAccount failed: %v", err)
	}
	if fresh.Balance != 100 {
		t.Errorf("mutating a returned copy leaked into directory state: %f", fresh.Balance)
	}
}

func TestCloseAccount(t *testing.T) {
	d := newDirectory(t)
	number := mustCreateAccount(t, d, "atharv", 0)
	keep := mustCreateAccount(t, d, "atharv", 0)

	if err := d.CloseAccount(context.Background(), stranger, number); !errors.Is(err, ErrNoAccess) {
		t.Errorf("stranger close should fail with ErrNoAccess, got %v", err)
	}
	if err := d.CloseAccount(context.Background(), owner, number); err != nil {
		t.Fatalf("owner close failed: %v", err)
	}
	if _, err := d.FindAccount(context.Background(), manager, number); !errors.Is(err, ErrNoAccess) {
		t.Errorf("closed account still findable, err = %v", err)
	}
	if _, err := d.FindAccount(context.Background(), owner, keep); err != nil {
		t.Errorf("unrelated account removed: %v", err)
	}
}

func TestAllAccounts_ManagerOnly(t *testing.T) {
	d := newDirectory(t)
	mustCreateAccount(t, d, "atharv", 0)
	mustCreateAccount(t, d, "other", 0)

	if _, err := d.AllAccounts(context.Background(), owner); !errors.Is(err, ErrNoAccess) {
		t.Errorf("expected ErrNoAccess for non-manager, got %v", err)
	}
	all, err := d.AllAccounts(context.Background(), manager)
	if err != nil {
		t.Fatalf("manager listing failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 accounts, got %d", len(all))
	}
}

func TestApplyLoan_SequentialIDs(t *testing.T) {
	d := newDirectory(t)

	for i := 1; i <= 3; i++ {
		id, err := d.ApplyLoan(context.Background(), "Atharv", "atharv", 100000, 1, domain.DefaultAnnualRatePercent)
		if err != nil {
			t.Fatalf("ApplyLoan failed: %v", err)
		}
		if id != i {
			t.Errorf("loan %d: expected ID %d, got %d", i, i, id)
		}
	}
}

func TestApplyLoan_InvalidTermsDoNotConsumeID(t *testing.T) {
	d := newDirectory(t)

	_, err := d.ApplyLoan(context.Background(), "Atharv", "atharv", 100000, 0, domain.DefaultAnnualRatePercent)
	if !errors.Is(err, domain.ErrInvalidLoanTerms) {
		t.Fatalf("expected ErrInvalidLoanTerms, got %v", err)
	}

	id, err := d.ApplyLoan(context.Background(), "Atharv", "atharv", 100000, 1, domain.DefaultAnnualRatePercent)
	if err != nil {
		t.Fatalf("ApplyLoan failed: %v", err)
	}
	if id != 1 {
		t.Errorf("expected first issued loan ID 1, got %d", id)
	}
}

func TestFindLoan_OwnershipScoping(t *testing.T) {
	d := newDirectory(t)
	id, err := d.ApplyLoan(context.Background(), "Atharv", "atharv", 100000, 1, domain.DefaultAnnualRatePercent)
	if err != nil {
		t.Fatalf("ApplyLoan failed: %v", err)
	}

	if _, err := d.FindLoan(context.Background(), owner, id); err != nil {
		t.Errorf("borrower lookup failed: %v", err)
	}
	if _, err := d.FindLoan(context.Background(), stranger, id); !errors.Is(err, ErrNoAccess) {
		t.Errorf("expected ErrNoAccess for stranger, got %v", err)
	}
	if _, err := d.FindLoan(context.Background(), manager, id); err != nil {
		t.Errorf("manager lookup failed: %v", err)
	}
}

func TestPayLoan_RecordsIntoFirstAccountAndGlobalLog(t *testing.T) {
	d := newDirectory(t)
	first := mustCreateAccount(t, d, "atharv", 0)
	mustCreateAccount(t, d, "atharv", 0)

	id, err := d.ApplyLoan(context.Background(), "Atharv", "atharv", 100000, 1, domain.DefaultAnnualRatePercent)
	if err != nil {
		t.Fatalf("ApplyLoan failed: %v", err)
	}

	result, err := d.PayLoan(context.Background(), owner, id, 5000)
	if err != nil {
		t.Fatalf("PayLoan failed: %v", err)
	}
	if result.PaidOff {
		t.Error("partial payment should not settle the loan")
	}
	if result.LoggedAccount != first {
		t.Errorf("expected record logged to first account %d, got %d", first, result.LoggedAccount)
	}

	records, err := d.AccountTransactions(context.Background(), owner, first)
	if err != nil {
		t.Fatalf("AccountTransactions failed: %v", err)
	}
	if len(records) != 1 || records[0].Kind != domain.KindLoanPayment {
		t.Fatalf("expected one LoanPayment record, got %+v", records)
	}

	global, err := d.GlobalTransactions(context.Background(), manager)
	if err != nil {
		t.Fatalf("GlobalTransactions failed: %v", err)
	}
	if len(global) != 1 || global[0].ID != records[0].ID {
		t.Errorf("global log must mirror the account record, got %+v", global)
	}
}

func TestPayLoan_NoLinkedAccountStillApplies(t *testing.T) {
	d := newDirectory(t)
	id, err := d.ApplyLoan(context.Background(), "Atharv", "atharv", 100000, 1, domain.DefaultAnnualRatePercent)
	if err != nil {
		t.Fatalf("ApplyLoan failed: %v", err)
	}

	result, err := d.PayLoan(context.Background(), owner, id, 5000)
	if err != nil {
		t.Fatalf("PayLoan failed: %v", err)
	}
	if result.LoggedAccount != 0 {
		t.Errorf("expected no logged account, got %d", result.LoggedAccount)
	}

	loan, err := d.FindLoan(context.Background(), owner, id)
	if err != nil {
		t.Fatalf("FindLoan failed: %v", err)
	}
	if loan.Outstanding >= loan.MonthlyEMI*float64(loan.TenureMonths) {
		t.Error("payment was not applied to the loan")
	}
}

func TestPayLoan_RejectsInvalidAmount(t *testing.T) {
	d := newDirectory(t)
	id, err := d.ApplyLoan(context.Background(), "Atharv", "atharv", 100000, 1, domain.DefaultAnnualRatePercent)
	if err != nil {
		t.Fatalf("ApplyLoan failed: %v", err)
	}

	if _, err := d.PayLoan(context.Background(), owner, id, 0); !errors.Is(err, validator.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := d.PayLoan(context.Background(), owner, id, -5); !errors.Is(err, validator.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestGlobalTransactions_ManagerOnly(t *testing.T) {
	d := newDirectory(t)
	d.RecordGlobalTransaction(context.Background(), domain.NewTransactionRecord(1001, domain.KindDeposit, 10))

	if _, err := d.GlobalTransactions(context.Background(), owner); !errors.Is(err, ErrNoAccess) {
		t.Errorf("expected ErrNoAccess for non-manager, got %v", err)
	}
	records, err := d.GlobalTransactions(context.Background(), manager)
	if err != nil {
		t.Fatalf("GlobalTransactions failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
}

func TestModifyAccount(t *testing.T) {
	d := newDirectory(t)
	number := mustCreateAccount(t, d, "atharv", 0)

	updated, err := d.ModifyAccount(context.Background(), owner, number, "New Name", domain.AccountTypeCurrent)
	if err != nil {
		t.Fatalf("ModifyAccount failed: %v", err)
	}
	if updated.HolderName != "New Name" || updated.Type != domain.AccountTypeCurrent {
		t.Errorf("modify did not apply: %+v", updated)
	}

	if _, err := d.ModifyAccount(context.Background(), stranger, number, "x", "y"); !errors.Is(err, ErrNoAccess) {
		t.Errorf("expected ErrNoAccess for stranger, got %v", err)
	}
}
