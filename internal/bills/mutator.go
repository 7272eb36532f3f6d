// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package bills

import (
	"fmt"

	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/pkg/id"

	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"
)

// BalanceMutator wraps the Bill Store's read-then-write update with
// the "add delta, reject if insufficient funds" rule. It makes one
// remote read and at most one remote write. Concurrent safety of the
// read-then-write sequence is the store's update contract, not ours.
type BalanceMutator struct {
	logger log.Logger
	client Client
}

func NewBalanceMutator(logger log.Logger, client Client) *BalanceMutator {
	return &BalanceMutator{
		logger: logger,
		client: client,
	}
}

// ApplyDelta reads the Bill, adds delta to its balance (negative for a
// debit, positive for a credit) and writes the full record back with
// every other field unchanged.
//
// A debit taking the balance negative is rejected with
// InsufficientFundsError unless the Bill has overdraft enabled; no
// write is issued in that case. Write failures surface as
// BillUpdateFailedError and are not retried here.
func (m *BalanceMutator) ApplyDelta(requestID string, billID id.Bill, delta decimal.Decimal) (*model.Bill, error) {
	bill, err := m.client.GetBill(requestID, billID)
	if err != nil {
		return nil, err
	}

	newBalance := bill.Amount.Add(delta)
	if delta.Sign() < 0 && newBalance.Sign() < 0 && !bill.OverdraftEnabled {
		return nil, &model.InsufficientFundsError{
			Bill:      billID,
			Balance:   bill.Amount,
			Requested: delta.Neg(),
		}
	}

	updated, err := m.client.UpdateBill(requestID, billID, bill.Update(newBalance))
	if err != nil {
		return nil, &model.BillUpdateFailedError{Bill: billID, Err: err}
	}

	m.logger.Log("bills", fmt.Sprintf("applied delta=%s to bill=%s balance=%s", delta, billID, updated.Amount), "requestID", requestID)

	return updated, nil
}
