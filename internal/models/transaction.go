package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of balance-affecting event recorded on an account.
type TransactionType string

const (
	TransactionDeposit  TransactionType = "Deposit"
	TransactionWithdraw TransactionType = "Withdraw"
	TransactionTransfer TransactionType = "Transfer"
)

// TransactionRecord is an immutable ledger entry identified by (AccountNo, TxnNo).
type TransactionRecord struct {
	AccountNo int64           `json:"account_no" db:"account_no"` // Account the entry belongs to
	TxnNo     int64           `json:"txn_no" db:"txn_no"`         // Dense per-account sequence starting at 1
	Type      TransactionType `json:"type" db:"txn_type"`         // Deposit, Withdraw or Transfer
	Amount    decimal.Decimal `json:"amount" db:"amount"`         // Always positive
	CreatedAt time.Time       `json:"created_at" db:"created_at"` // Assigned by the store at insert time
}

// TransactionEvent is the message published after a record is committed.
type TransactionEvent struct {
	EventID   string          `json:"event_id"`
	AccountNo int64           `json:"account_no"`
	TxnNo     int64           `json:"txn_no"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransferResult holds both records written by one transfer.
type TransferResult struct {
	Debit  TransactionRecord `json:"debit"`  // Transfer entry on the source account
	Credit TransactionRecord `json:"credit"` // Deposit entry on the destination account
}
