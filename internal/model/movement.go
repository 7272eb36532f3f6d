// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package model

import (
	"github.com/moov-io/base"

	"github.com/jsbank/billgate/pkg/id"

	"github.com/shopspring/decimal"
)

// DepositRequest asks for external funds to be credited onto a Bill.
// Exactly one movement target must be resolvable: either Bill directly
// or Account through its default Bill.
type DepositRequest struct {
	Account id.Account `json:"accountId,omitempty"`

	Bill id.Bill `json:"billId,omitempty"`

	// Amount must be strictly positive
	Amount decimal.Decimal `json:"amount"`

	// IdempotencyKey is the optional client-supplied token used to
	// detect retried requests. Populated from the X-Idempotency-Key
	// header, never from the JSON body.
	IdempotencyKey string `json:"-"`
}

func (r *DepositRequest) Validate() error {
	if r == nil {
		return &InvalidMovementRequestError{Reason: "nil deposit request"}
	}
	if r.Account == "" && r.Bill == "" {
		return &InvalidMovementRequestError{Reason: "accountId and billId are both empty"}
	}
	if !r.Amount.IsPositive() {
		return &InvalidMovementRequestError{Reason: "amount must be positive, got " + r.Amount.String()}
	}
	return nil
}

// DepositResult is returned to the caller and published as the
// deposit notification.
type DepositResult struct {
	Amount decimal.Decimal `json:"amount"`
	Email  string          `json:"email"`
}

// DepositRecord is the append-only audit row written once per
// successful deposit.
type DepositRecord struct {
	ID id.Deposit `json:"depositId"`

	Amount decimal.Decimal `json:"amount"`

	Bill id.Bill `json:"billId"`

	// Email is the owning account's contact address at the time of the
	// deposit, denormalized for later lookup.
	Email string `json:"email"`

	Created base.Time `json:"created"`

	IdempotencyKey string `json:"-"`
}

// TransferRequest asks for funds to move from a source Bill onto a
// destination Bill, possibly across accounts. The source is always
// named explicitly, only the destination may resolve through the
// default Bill.
type TransferRequest struct {
	FromAccount id.Account `json:"fromAccountId"`

	FromBill id.Bill `json:"fromBillId"`

	ToAccount id.Account `json:"toAccountId,omitempty"`

	ToBill id.Bill `json:"toBillId,omitempty"`

	// Amount must be strictly positive
	Amount decimal.Decimal `json:"amount"`

	IdempotencyKey string `json:"-"`
}

func (r *TransferRequest) Validate() error {
	if r == nil {
		return &InvalidMovementRequestError{Reason: "nil transfer request"}
	}
	if r.FromAccount == "" {
		return &InvalidMovementRequestError{Reason: "fromAccountId is required"}
	}
	if r.FromBill == "" {
		return &InvalidMovementRequestError{Reason: "fromBillId is required"}
	}
	if r.ToAccount == "" && r.ToBill == "" {
		return &InvalidMovementRequestError{Reason: "toAccountId and toBillId are both empty"}
	}
	if !r.Amount.IsPositive() {
		return &InvalidMovementRequestError{Reason: "amount must be positive, got " + r.Amount.String()}
	}
	return nil
}

// TransferResult is returned to the caller and published as the
// transfer notification. Status reports the movement's true state so
// callers can tell "nothing happened" apart from "funds moved but
// bookkeeping is incomplete".
type TransferResult struct {
	FromBill id.Bill         `json:"fromBillId"`
	ToBill   id.Bill         `json:"toBillId"`
	Amount   decimal.Decimal `json:"amount"`

	Status TransferStatus `json:"status,omitempty"`
}

// TransferRecord is the append-only audit row written once both legs
// of a transfer have succeeded.
type TransferRecord struct {
	ID id.Transfer `json:"transferId"`

	Amount decimal.Decimal `json:"amount"`

	FromBill    id.Bill    `json:"fromBillId"`
	FromAccount id.Account `json:"fromAccountId"`
	ToBill      id.Bill    `json:"toBillId"`
	ToAccount   id.Account `json:"toAccountId"`

	Status TransferStatus `json:"status"`

	Created base.Time `json:"created"`

	IdempotencyKey string `json:"-"`
}

// TransferStatus tracks a transfer through its two balance mutations.
//
// The happy path is validated -> debited -> credited -> recorded ->
// done. Every state before recorded can reach failed. Once debited, a
// credit-leg failure moves to reversed when the compensating credit
// lands back on the source Bill, or to partially-applied when even the
// reversal fails and out-of-band reconciliation is required.
type TransferStatus string

const (
	TransferValidated TransferStatus = "validated"
	TransferDebited   TransferStatus = "debited"
	TransferCredited  TransferStatus = "credited"
	TransferRecorded  TransferStatus = "recorded"
	TransferDone      TransferStatus = "done"

	TransferFailed           TransferStatus = "failed"
	TransferReversed         TransferStatus = "reversed"
	TransferPartiallyApplied TransferStatus = "partially-applied"
)

func (s TransferStatus) Validate() error {
	switch s {
	case TransferValidated, TransferDebited, TransferCredited, TransferRecorded, TransferDone,
		TransferFailed, TransferReversed, TransferPartiallyApplied:
		return nil
	default:
		return &InvalidMovementRequestError{Reason: "unknown transfer status " + string(s)}
	}
}

// CanTransition reports whether moving from s to next follows the
// transfer state machine.
func (s TransferStatus) CanTransition(next TransferStatus) bool {
	switch s {
	case TransferValidated:
		return next == TransferDebited || next == TransferFailed
	case TransferDebited:
		return next == TransferCredited || next == TransferReversed || next == TransferPartiallyApplied
	case TransferCredited:
		return next == TransferRecorded
	case TransferRecorded:
		return next == TransferDone
	}
	return false
}
