// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package deposits

import (
	"testing"

	"github.com/jsbank/billgate/internal/database"
	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/pkg/id"

	"github.com/moov-io/base"

	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"
)

func TestDepositSQLRepository(t *testing.T) {
	t.Parallel()

	check := func(t *testing.T, repo *SQLRepository) {
		defer repo.Close()

		depositID := id.Deposit(base.ID())
		key := base.ID()

		if record, err := repo.GetDeposit(depositID); record != nil || err != nil {
			t.Fatalf("expected nil record=%v: %v", record, err)
		}

		record := &model.DepositRecord{
			ID:             depositID,
			Amount:         decimal.RequireFromString("541.01"),
			Bill:           id.Bill(base.ID()),
			Email:          "adam@example.com",
			Created:        base.Now(),
			IdempotencyKey: key,
		}
		if err := repo.CreateDeposit(record); err != nil {
			t.Fatal(err)
		}

		read, err := repo.GetDeposit(depositID)
		if read == nil || err != nil {
			t.Fatalf("record=%v: %v", read, err)
		}
		if !read.Amount.Equal(record.Amount) || read.Email != record.Email {
			t.Errorf("read=%#v", read)
		}

		if read, err := repo.LookupByIdempotencyKey(key); read == nil || err != nil {
			t.Fatalf("record=%v: %v", read, err)
		} else if read.ID != depositID {
			t.Errorf("read=%#v", read)
		}
		if read, err := repo.LookupByIdempotencyKey(""); read != nil || err != nil {
			t.Fatalf("expected nil record=%v: %v", read, err)
		}

		if records, err := repo.GetDeposits(); len(records) != 1 || err != nil {
			t.Fatalf("records=%v: %v", records, err)
		}

		// reusing the idempotency key violates the unique index
		dup := &model.DepositRecord{
			ID:             id.Deposit(base.ID()),
			Amount:         decimal.RequireFromString("1"),
			Bill:           record.Bill,
			Created:        base.Now(),
			IdempotencyKey: key,
		}
		if err := repo.CreateDeposit(dup); !database.UniqueViolation(err) {
			t.Errorf("expected unique violation, got %v", err)
		}

		// records without a key never collide
		for i := 0; i < 2; i++ {
			anon := &model.DepositRecord{
				ID:      id.Deposit(base.ID()),
				Amount:  decimal.RequireFromString("2"),
				Bill:    record.Bill,
				Created: base.Now(),
			}
			if err := repo.CreateDeposit(anon); err != nil {
				t.Fatal(err)
			}
		}
	}

	// SQLite
	sqliteDB := database.CreateTestSqliteDB(t)
	defer sqliteDB.Close()
	check(t, NewRepo(log.NewNopLogger(), sqliteDB.DB))

	// MySQL
	mysqlDB := database.CreateTestMySQLDB(t)
	defer mysqlDB.Close()
	check(t, NewRepo(log.NewNopLogger(), mysqlDB.DB))
}
