// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package model

import (
	"time"

	"github.com/jsbank/billgate/pkg/id"

	"github.com/shopspring/decimal"
)

// Bill is a balance-holding sub-account owned by the Bill Store Service.
// The core never creates or deletes Bills, it only asks the store for
// balance updates through full-record replacement.
type Bill struct {
	// ID is a unique string identifying this Bill
	ID id.Bill `json:"billId"`

	// Amount is the Bill's current balance as an exact decimal
	Amount decimal.Decimal `json:"amount"`

	// IsDefault marks the Bill implicitly selected when a caller
	// supplies an account id but no bill id. The store is expected to
	// keep at most one default Bill per account, but readers must not
	// assume that holds.
	IsDefault bool `json:"isDefault"`

	// OverdraftEnabled permits debits below a zero balance
	OverdraftEnabled bool `json:"overdraftEnabled"`

	// Account is the id of the Account owning this Bill
	Account id.Account `json:"account"`

	// CreationDate is when the store created the Bill
	CreationDate time.Time `json:"creationDate"`
}

// BillUpdate is the full-record replacement body accepted by the Bill
// Store Service. Every field must be populated from the current Bill,
// the store does not merge partial updates.
type BillUpdate struct {
	Amount           decimal.Decimal `json:"amount"`
	IsDefault        bool            `json:"isDefault"`
	OverdraftEnabled bool            `json:"overdraftEnabled"`
	Account          id.Account      `json:"account"`
	CreationDate     time.Time       `json:"creationDate"`
}

// Update returns the full-record replacement for b with its balance
// set to amount and every other field carried over unchanged.
func (b *Bill) Update(amount decimal.Decimal) BillUpdate {
	return BillUpdate{
		Amount:           amount,
		IsDefault:        b.IsDefault,
		OverdraftEnabled: b.OverdraftEnabled,
		Account:          b.Account,
		CreationDate:     b.CreationDate,
	}
}

// Account is the slice of the Account Store Service's record the core
// reads: identity, contact email and the owned bill ids.
type Account struct {
	ID    id.Account `json:"accountId"`
	Name  string     `json:"name,omitempty"`
	Email string     `json:"email"`
	Phone string     `json:"phone,omitempty"`
	Bills []id.Bill  `json:"bills"`
}
