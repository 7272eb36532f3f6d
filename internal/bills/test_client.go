// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package bills

import (
	"sort"

	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/pkg/id"
)

// TestClient is an in-memory Bill Store used across packages in tests.
// Updates are applied to Bills so multi-step orchestrations observe
// their own writes.
type TestClient struct {
	Bills map[id.Bill]*model.Bill

	// Err is returned from every call when set
	Err error

	// UpdateErr fails UpdateBill for specific bills, simulating a
	// store write rejection (e.g. a failed credit leg).
	UpdateErr map[id.Bill]error

	// FailOnCall fails the Nth UpdateBill call (1-based) with CallErr,
	// for multi-step orchestrations where only a later write breaks.
	FailOnCall int
	CallErr    error

	GetCalls    int
	UpdateCalls int
}

func NewTestClient(bills ...*model.Bill) *TestClient {
	c := &TestClient{
		Bills:     make(map[id.Bill]*model.Bill),
		UpdateErr: make(map[id.Bill]error),
	}
	for i := range bills {
		c.Bills[bills[i].ID] = bills[i]
	}
	return c
}

func (c *TestClient) Ping() error {
	return c.Err
}

func (c *TestClient) GetBill(requestID string, billID id.Bill) (*model.Bill, error) {
	c.GetCalls++
	if c.Err != nil {
		return nil, c.Err
	}
	bill, exists := c.Bills[billID]
	if !exists {
		return nil, &model.BillNotFoundError{Bill: billID}
	}
	cp := *bill
	return &cp, nil
}

func (c *TestClient) UpdateBill(requestID string, billID id.Bill, update model.BillUpdate) (*model.Bill, error) {
	c.UpdateCalls++
	if c.Err != nil {
		return nil, c.Err
	}
	if c.FailOnCall != 0 && c.UpdateCalls == c.FailOnCall {
		return nil, c.CallErr
	}
	if err := c.UpdateErr[billID]; err != nil {
		return nil, err
	}
	bill, exists := c.Bills[billID]
	if !exists {
		return nil, &model.BillNotFoundError{Bill: billID}
	}
	bill.Amount = update.Amount
	bill.IsDefault = update.IsDefault
	bill.OverdraftEnabled = update.OverdraftEnabled
	bill.Account = update.Account
	bill.CreationDate = update.CreationDate
	cp := *bill
	return &cp, nil
}

func (c *TestClient) GetBillsByAccount(requestID string, accountID id.Account) ([]*model.Bill, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	var out []*model.Bill
	for _, bill := range c.Bills {
		if bill.Account == accountID {
			cp := *bill
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
