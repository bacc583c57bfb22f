package domain

import (
	"errors"
	"math"
	"testing"
)

func TestNewLoan_EMIComputation(t *testing.T) {
	loan, err := NewLoan(1, "Atharv", "atharv", 100000, 1, 12.0)
	if err != nil {
		t.Fatalf("unexpected error on NewLoan: %v", err)
	}

	if loan.TenureMonths != 12 {
		t.Errorf("expected tenure 12 months, got %d", loan.TenureMonths)
	}
	if got := math.Round(loan.MonthlyEMI*100) / 100; got != 8884.88 {
		t.Errorf("expected EMI 8884.88, got %.2f", got)
	}
	if math.Abs(loan.Outstanding-loan.MonthlyEMI*12) > 1e-9 {
		t.Errorf("expected outstanding = EMI * months, got %f vs %f", loan.Outstanding, loan.MonthlyEMI*12)
	}
	if math.Abs(loan.Outstanding-106618.55) > 0.05 {
		t.Errorf("expected outstanding near 106618.55, got %.2f", loan.Outstanding)
	}
}

func TestNewLoan_RejectsDegenerateTerms(t *testing.T) {
	cases := []struct {
		name        string
		principal   float64
		tenureYears int
		rate        float64
	}{
		{"zero principal", 0, 1, 12},
		{"negative principal", -500, 1, 12},
		{"zero tenure", 100000, 0, 12},
		{"negative tenure", 100000, -2, 12},
		{"zero rate", 100000, 1, 0},
		{"negative rate", 100000, 1, -3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoan(1, "x", "x", tc.principal, tc.tenureYears, tc.rate)
			if !errors.Is(err, ErrInvalidLoanTerms) {
				t.Errorf("expected ErrInvalidLoanTerms, got %v", err)
			}
		})
	}
}

func TestLoan_MakePayment(t *testing.T) {
	loan, err := NewLoan(1, "Atharv", "atharv", 100000, 1, 12.0)
	if err != nil {
		t.Fatalf("unexpected error on NewLoan: %v", err)
	}

	before := loan.Outstanding
	remaining, paidOff := loan.MakePayment(10000)
	if paidOff {
		t.Fatal("loan should not be paid off by a partial payment")
	}
	if math.Abs(remaining-(before-10000)) > 1e-9 {
		t.Errorf("expected remaining %f, got %f", before-10000, remaining)
	}
	if loan.Outstanding > before {
		t.Error("outstanding must never increase")
	}
}

func TestLoan_MakePayment_OverpaymentFloorsAtZero(t *testing.T) {
	loan, err := NewLoan(1, "Atharv", "atharv", 100000, 1, 12.0)
	if err != nil {
		t.Fatalf("unexpected error on NewLoan: %v", err)
	}

	remaining, paidOff := loan.MakePayment(loan.Outstanding + 99999)
	if !paidOff {
		t.Error("expected loan to report fully paid")
	}
	if remaining != 0 || loan.Outstanding != 0 {
		t.Errorf("expected outstanding exactly 0, got %f", loan.Outstanding)
	}
}

func TestLoan_MakePayment_ExactBalance(t *testing.T) {
	loan, err := NewLoan(1, "Atharv", "atharv", 50000, 2, 12.0)
	if err != nil {
		t.Fatalf("unexpected error on NewLoan: %v", err)
	}

	_, paidOff := loan.MakePayment(loan.Outstanding)
	if !paidOff || loan.Outstanding != 0 {
		t.Errorf("payment of the exact balance should settle the loan, outstanding %f", loan.Outstanding)
	}
}
