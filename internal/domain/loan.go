package domain

import (
	"fmt"
	"math"
)

const DefaultAnnualRatePercent = 12.0

// Loan is an amortized debt. The EMI and total payable are computed once at
// construction; Outstanding only ever decreases afterwards, floored at 0.
type Loan struct {
	ID                int     `json:"id"`
	BorrowerName      string  `json:"borrower_name"`
	BorrowerUsername  string  `json:"borrower_username"`
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	TenureMonths      int     `json:"tenure_months"`
	MonthlyEMI        float64 `json:"monthly_emi"`
	Outstanding       float64 `json:"outstanding"`
}

// NewLoan computes the equated monthly installment for the given terms.
// Tenure is supplied in years and stored in months. Degenerate terms that
// would zero the EMI denominator are rejected instead of producing a
// non-finite result.
func NewLoan(id int, borrowerName, borrowerUsername string, principal float64, tenureYears int, annualRatePercent float64) (*Loan, error) {
	if principal <= 0 || math.IsNaN(principal) || math.IsInf(principal, 0) {
		return nil, fmt.Errorf("%w: principal %.2f", ErrInvalidLoanTerms, principal)
	}
	if tenureYears <= 0 {
		return nil, fmt.Errorf("%w: tenure %d years", ErrInvalidLoanTerms, tenureYears)
	}
	if annualRatePercent <= 0 || math.IsNaN(annualRatePercent) || math.IsInf(annualRatePercent, 0) {
		return nil, fmt.Errorf("%w: annual rate %.2f%%", ErrInvalidLoanTerms, annualRatePercent)
	}

	months := tenureYears * 12
	monthlyRate := (annualRatePercent / 12) / 100
	growth := math.Pow(1+monthlyRate, float64(months))
	denominator := growth - 1
	if denominator == 0 {
		return nil, fmt.Errorf("%w: rate %.2f%% over %d months amortizes to zero", ErrInvalidLoanTerms, annualRatePercent, months)
	}

	emi := principal * monthlyRate * growth / denominator
	if math.IsNaN(emi) || math.IsInf(emi, 0) {
		return nil, fmt.Errorf("%w: non-finite installment", ErrInvalidLoanTerms)
	}

	return &Loan{
		ID:                id,
		BorrowerName:      borrowerName,
		BorrowerUsername:  borrowerUsername,
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TenureMonths:      months,
		MonthlyEMI:        emi,
		Outstanding:       emi * float64(months),
	}, nil
}

// MakePayment applies an amount against the outstanding balance. A payment
// covering the full balance settles the loan at exactly 0 regardless of
// overpayment.
func (l *Loan) MakePayment(amount float64) (remaining float64, paidOff bool) {
	if amount >= l.Outstanding {
		l.Outstanding = 0
		return 0, true
	}
	l.Outstanding -= amount
	return l.Outstanding, false
}

// Snapshot returns an independent copy of the loan.
func (l *Loan) Snapshot() Loan {
	return *l
}
