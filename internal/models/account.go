package models

import "time"

// Account is the accounts table row.
type Account struct {
	AccountID  string    `db:"account_id"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	KYCLevel   string    `db:"kyc_level"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
