// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package model

import (
	"fmt"

	"github.com/jsbank/billgate/pkg/id"

	"github.com/shopspring/decimal"
)

// InvalidMovementRequestError rejects malformed caller input before
// any remote call is made.
type InvalidMovementRequestError struct {
	Reason string
}

func (e *InvalidMovementRequestError) Error() string {
	return fmt.Sprintf("invalid movement request: %s", e.Reason)
}

type AccountNotFoundError struct {
	Account id.Account
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account=%s not found", e.Account)
}

type BillNotFoundError struct {
	Bill id.Bill
}

func (e *BillNotFoundError) Error() string {
	return fmt.Sprintf("bill=%s not found", e.Bill)
}

// NoDefaultBillError means default-bill resolution found zero or more
// than one candidate. Matches is zero when no bill carries the default
// flag and greater than one when the store's at-most-one invariant is
// broken.
type NoDefaultBillError struct {
	Account id.Account
	Matches int
}

func (e *NoDefaultBillError) Error() string {
	if e.Matches > 1 {
		return fmt.Sprintf("account=%s has %d default bills", e.Account, e.Matches)
	}
	return fmt.Sprintf("account=%s has no default bill", e.Account)
}

// InsufficientFundsError rejects a debit that would take the Bill's
// balance negative without overdraft enabled. No write was issued.
type InsufficientFundsError struct {
	Bill      id.Bill
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("bill=%s has insufficient funds: balance=%s requested=%s", e.Bill, e.Balance, e.Requested)
}

// BillUpdateFailedError wraps a store write that failed after a
// successful read. Retry policy belongs to the caller.
type BillUpdateFailedError struct {
	Bill id.Bill
	Err  error
}

func (e *BillUpdateFailedError) Error() string {
	return fmt.Sprintf("bill=%s update failed: %v", e.Bill, e.Err)
}

func (e *BillUpdateFailedError) Unwrap() error {
	return e.Err
}

// PartialTransferError reports a transfer whose debit leg succeeded
// while the credit leg failed. Compensated is true when the
// compensating credit restored the source Bill's balance, meaning no
// funds ultimately moved; when false the movement is partially applied
// and needs out-of-band reconciliation before any retry.
type PartialTransferError struct {
	FromBill id.Bill
	ToBill   id.Bill
	Amount   decimal.Decimal

	Compensated bool
	Err         error
}

func (e *PartialTransferError) Error() string {
	if e.Compensated {
		return fmt.Sprintf("transfer of %s from bill=%s to bill=%s failed on credit leg, debit reversed: %v", e.Amount, e.FromBill, e.ToBill, e.Err)
	}
	return fmt.Sprintf("transfer of %s from bill=%s to bill=%s partially applied, debit NOT reversed: %v", e.Amount, e.FromBill, e.ToBill, e.Err)
}

func (e *PartialTransferError) Unwrap() error {
	return e.Err
}

// MovementRecordError means the balance mutation landed but the audit
// row for it could not be written. The funds moved, so a blind retry
// would apply them twice. Callers must treat the movement as done and
// repair the bookkeeping out-of-band.
type MovementRecordError struct {
	Err error
}

func (e *MovementRecordError) Error() string {
	return fmt.Sprintf("movement applied but not recorded: %v", e.Err)
}

func (e *MovementRecordError) Unwrap() error {
	return e.Err
}

// NotificationPublishError means the movement was fully applied and
// recorded but its announcement could not be sent.
type NotificationPublishError struct {
	Err error
}

func (e *NotificationPublishError) Error() string {
	return fmt.Sprintf("notification publish failed: %v", e.Err)
}

func (e *NotificationPublishError) Unwrap() error {
	return e.Err
}
