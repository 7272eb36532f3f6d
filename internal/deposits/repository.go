// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package deposits

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
	GetDeposit(depositID id.Deposit) (*model.DepositRecord, error)
	GetDeposits() ([]*model.DepositRecord, error)

	// LookupByIdempotencyKey returns the deposit previously written
	// under key, or nil when the key was never seen.
	LookupByIdempotencyKey(key string) (*model.DepositRecord, error)

	CreateDeposit(record *model.DepositRecord) error
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

func (r *SQLRepository) CreateDeposit(record *model.DepositRecord) error {
	query := `insert into deposits (deposit_id, amount, bill_id, email, idempotency_key, created_at) values (?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("create deposit: prepare: %v", err)
	}
	defer stmt.Close()

	var key sql.NullString
	if record.IdempotencyKey != "" {
		key = sql.NullString{String: record.IdempotencyKey, Valid: true}
	}

	_, err = stmt.Exec(record.ID, record.Amount.String(), record.Bill, record.Email, key, record.Created.Time)
	if err != nil {
		return fmt.Errorf("create deposit: exec: %v", err)
	}
	return nil
}

func (r *SQLRepository) GetDeposit(depositID id.Deposit) (*model.DepositRecord, error) {
	query := `select deposit_id, amount, bill_id, email, idempotency_key, created_at from deposits where deposit_id = ? limit 1`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	return scanDeposit(stmt.QueryRow(depositID))
}

func (r *SQLRepository) LookupByIdempotencyKey(key string) (*model.DepositRecord, error) {
	if key == "" {
		return nil, nil
	}
	query := `select deposit_id, amount, bill_id, email, idempotency_key, created_at from deposits where idempotency_key = ? limit 1`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	return scanDeposit(stmt.QueryRow(key))
}

func (r *SQLRepository) GetDeposits() ([]*model.DepositRecord, error) {
	query := `select deposit_id, amount, bill_id, email, idempotency_key, created_at from deposits order by created_at desc`
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

	var out []*model.DepositRecord
	for rows.Next() {
		record, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("getDeposits scan: %v", err)
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

func scanDeposit(row scanner) (*model.DepositRecord, error) {
	var record model.DepositRecord
	var amount string
	var key sql.NullString
	var created time.Time

	if err := row.Scan(&record.ID, &amount, &record.Bill, &record.Email, &key, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("deposit=%s invalid amount %q: %v", record.ID, amount, err)
	}
	record.Amount = amt
	record.IdempotencyKey = key.String
	record.Created = base.NewTime(created)
	return &record, nil
}
