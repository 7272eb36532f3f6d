// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package deposits

import (
	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/pkg/id"
)

type TestRepository struct {
	Err error

	// CreateErr fails CreateDeposit only, simulating a bookkeeping
	// failure after the credit landed.
	CreateErr error

	Deposits []*model.DepositRecord
}

func (r *TestRepository) GetDeposit(depositID id.Deposit) (*model.DepositRecord, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	for i := range r.Deposits {
		if r.Deposits[i].ID == depositID {
			return r.Deposits[i], nil
		}
	}
	return nil, nil
}

func (r *TestRepository) GetDeposits() ([]*model.DepositRecord, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Deposits, nil
}

func (r *TestRepository) LookupByIdempotencyKey(key string) (*model.DepositRecord, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if key == "" {
		return nil, nil
	}
	for i := range r.Deposits {
		if r.Deposits[i].IdempotencyKey == key {
			return r.Deposits[i], nil
		}
	}
	return nil, nil
}

func (r *TestRepository) CreateDeposit(record *model.DepositRecord) error {
	if r.Err != nil {
		return r.Err
	}
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.Deposits = append(r.Deposits, record)
	return nil
}
