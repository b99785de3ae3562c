package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FirstAccountNo is the first account number handed out by the store.
const FirstAccountNo int64 = 100000011

// AccountDB represents an account row in the database
type AccountDB struct {
	AccountNo  int64           `json:"account_no" db:"account_no"`   // Immutable account number
	Balance    decimal.Decimal `json:"balance" db:"balance"`         // Current balance, never negative
	CustomerID int64           `json:"customer_id" db:"customer_id"` // Owning customer
	LastTxnNo  int64           `json:"-" db:"last_txn_no"`           // Highest sequence number used by the account
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`   // Timestamp when the account was opened
}
