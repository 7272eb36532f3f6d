// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package transfers

import (
	"fmt"

	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/pkg/id"
)

type TestRepository struct {
	Err error

	// CreateErr fails CreateTransfer only, simulating a bookkeeping
	// failure after both balance legs succeeded.
	CreateErr error

	Transfers []*model.TransferRecord
}

func (r *TestRepository) GetTransfer(transferID id.Transfer) (*model.TransferRecord, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	for i := range r.Transfers {
		if r.Transfers[i].ID == transferID {
			return r.Transfers[i], nil
		}
	}
	return nil, nil
}

func (r *TestRepository) GetTransfers() ([]*model.TransferRecord, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Transfers, nil
}

func (r *TestRepository) LookupByIdempotencyKey(key string) (*model.TransferRecord, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if key == "" {
		return nil, nil
	}
	for i := range r.Transfers {
		if r.Transfers[i].IdempotencyKey == key {
			return r.Transfers[i], nil
		}
	}
	return nil, nil
}

func (r *TestRepository) CreateTransfer(record *model.TransferRecord) error {
	if r.Err != nil {
		return r.Err
	}
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.Transfers = append(r.Transfers, record)
	return nil
}

func (r *TestRepository) UpdateTransferStatus(transferID id.Transfer, status model.TransferStatus) error {
	if r.Err != nil {
		return r.Err
	}
	existing, err := r.GetTransfer(transferID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("transfer=%s not found", transferID)
	}
	if !existing.Status.CanTransition(status) {
		return fmt.Errorf("transfer=%s can't move from %s to %s", transferID, existing.Status, status)
	}
	existing.Status = status
	return nil
}
