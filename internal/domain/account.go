package domain

const (
	AccountTypeSaving  = "Saving"
	AccountTypeCurrent = "Current"
)

// Account is a mutable balance holder with an append-only log of the
// transactions scoped to it. The account number is immutable after
// creation; the type is a free-form string with two conventional values.
type Account struct {
	Number        int                 `json:"number"`
	HolderName    string              `json:"holder_name"`
	Balance       float64             `json:"balance"`
	Type          string              `json:"type"`
	OwnerUsername string              `json:"owner_username"`
	Transactions  []TransactionRecord `json:"transactions,omitempty"`
}

func NewAccount(number int, holderName string, balance float64, accType, ownerUsername string) *Account {
	return &Account{
		Number:        number,
		HolderName:    holderName,
		Balance:       balance,
		Type:          accType,
		OwnerUsername: ownerUsername,
	}
}

// Deposit increases the balance unconditionally. Appending the matching
// transaction record is the caller's responsibility.
func (a *Account) Deposit(amount float64) {
	a.Balance += amount
}

// Withdraw decreases the balance, rejecting the operation when it exceeds
// the available funds. A rejected withdrawal leaves the balance unchanged.
func (a *Account) Withdraw(amount float64) error {
	if amount > a.Balance {
		return ErrInsufficientBalance
	}
	a.Balance -= amount
	return nil
}

// AddTransaction appends a record to the account-local log. No check is
// made that the record's account number matches this account.
func (a *Account) AddTransaction(record TransactionRecord) {
	a.Transactions = append(a.Transactions, record)
}

// Modify replaces the display name and account type.
func (a *Account) Modify(newName, newType string) {
	a.HolderName = newName
	a.Type = newType
}

// Snapshot returns an independent copy of the account, including its log,
// so callers never hold a live reference into directory state.
func (a *Account) Snapshot() Account {
	cp := *a
	cp.Transactions = make([]TransactionRecord, len(a.Transactions))
	copy(cp.Transactions, a.Transactions)
	return cp
}
