// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package transfers

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/pkg/id"

	"github.com/moov-io/base"

	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"
)

type Repository interface {
	GetTransfer(transferID id.Transfer) (*model.TransferRecord, error)
	GetTransfers() ([]*model.TransferRecord, error)

	// LookupByIdempotencyKey returns the transfer previously written
	// under key, or nil when the key was never seen.
	LookupByIdempotencyKey(key string) (*model.TransferRecord, error)

	CreateTransfer(record *model.TransferRecord) error

	// UpdateTransferStatus moves a transfer along its state machine,
	// rejecting transitions the machine doesn't allow.
	UpdateTransferStatus(transferID id.Transfer, status model.TransferStatus) error
}

func NewRepo(logger log.Logger, db *sql.DB) *SQLRepository {
	return &SQLRepository{log: logger, db: db}
}

type SQLRepository struct {
	db  *sql.DB
	log log.Logger
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) CreateTransfer(record *model.TransferRecord) error {
	if err := record.Status.Validate(); err != nil {
		return err
	}

	query := `insert into transfers (transfer_id, amount, from_bill_id, from_account_id, to_bill_id, to_account_id, status, idempotency_key, created_at) values (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("create transfer: prepare: %v", err)
	}
	defer stmt.Close()

	var key sql.NullString
	if record.IdempotencyKey != "" {
		key = sql.NullString{String: record.IdempotencyKey, Valid: true}
	}

	_, err = stmt.Exec(record.ID, record.Amount.String(), record.FromBill, record.FromAccount, record.ToBill, record.ToAccount, record.Status, key, record.Created.Time)
	if err != nil {
		return fmt.Errorf("create transfer: exec: %v", err)
	}
	return nil
}

func (r *SQLRepository) UpdateTransferStatus(transferID id.Transfer, status model.TransferStatus) error {
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

	query := `update transfers set status = ? where transfer_id = ?`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(status, transferID)
	return err
}

func (r *SQLRepository) GetTransfer(transferID id.Transfer) (*model.TransferRecord, error) {
	query := `select transfer_id, amount, from_bill_id, from_account_id, to_bill_id, to_account_id, status, idempotency_key, created_at from transfers where transfer_id = ? limit 1`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	return scanTransfer(stmt.QueryRow(transferID))
}

func (r *SQLRepository) LookupByIdempotencyKey(key string) (*model.TransferRecord, error) {
	if key == "" {
		return nil, nil
	}
	query := `select transfer_id, amount, from_bill_id, from_account_id, to_bill_id, to_account_id, status, idempotency_key, created_at from transfers where idempotency_key = ? limit 1`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	return scanTransfer(stmt.QueryRow(key))
}

func (r *SQLRepository) GetTransfers() ([]*model.TransferRecord, error) {
	query := `select transfer_id, amount, from_bill_id, from_account_id, to_bill_id, to_account_id, status, idempotency_key, created_at from transfers order by created_at desc`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TransferRecord
	for rows.Next() {
		record, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("getTransfers scan: %v", err)
		}
		if record != nil {
			out = append(out, record)
		}
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransfer(row scanner) (*model.TransferRecord, error) {
	var record model.TransferRecord
	var amount string
	var key sql.NullString
	var created time.Time

	err := row.Scan(&record.ID, &amount, &record.FromBill, &record.FromAccount, &record.ToBill, &record.ToAccount, &record.Status, &key, &created)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("transfer=%s invalid amount %q: %v", record.ID, amount, err)
	}
	record.Amount = amt
	record.IdempotencyKey = key.String
	record.Created = base.NewTime(created)
	return &record, nil
}
