package validator

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidBalance = errors.New("invalid initial balance")
)

// AmountValidator covers the numeric-domain checks that callers perform
// before money moves: the core receives already-parsed numbers, but nothing
// downstream tolerates non-positive or non-finite values. There is no upper
// bound on an amount.
type AmountValidator struct{}

func NewAmountValidator() *AmountValidator {
	return &AmountValidator{}
}

// ValidateAmount accepts strictly positive finite amounts.
func (v *AmountValidator) ValidateAmount(amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return nil
}

// ValidateInitialBalance accepts zero or positive finite balances; opening
// an account with nothing in it is allowed.
func (v *AmountValidator) ValidateInitialBalance(balance float64) error {
	if balance < 0 || math.IsNaN(balance) || math.IsInf(balance, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidBalance, balance)
	}
	return nil
}
