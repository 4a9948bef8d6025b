package models

import "time"

// User represents an account holder in the finance tracker. Accounts are
// provisioned out of band; this core only reads them during login and
// token validation.
type User struct {
	UID       string    `db:"uid"`
	Name      string    `db:"name"`
	PinHash   string    `db:"pin_hash"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
