package domain

import "errors"

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidLoanTerms    = errors.New("invalid loan terms")
)
