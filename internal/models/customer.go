package models

import "time"

// CustomerDB represents a customer row in the database
type CustomerDB struct {
	CustomerID int64     `json:"customer_id" db:"customer_id"` // Primary key
	Name       string    `json:"name" db:"name"`               // Full name
	Email      string    `json:"email" db:"email"`             // Contact email
	Phone      string    `json:"phone" db:"phone"`             // Contact phone
	Address    string    `json:"address" db:"address"`         // Postal address
	CreatedAt  time.Time `json:"created_at" db:"created_at"`   // Creation timestamp
}

// LoginDB represents the credentials row of a customer
type LoginDB struct {
	LoginID      int64  `json:"login_id" db:"login_id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	CustomerID   int64  `json:"customer_id" db:"customer_id"`
}

// NewCustomer holds the personal details collected at signup.
type NewCustomer struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// SignUpResult is returned once after signup; Password is never stored in clear.
type SignUpResult struct {
	CustomerID int64  `json:"customer_id"`
	AccountNo  int64  `json:"account_no"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}
