// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package database

import (
	"errors"
	"testing"

	"github.com/go-kit/kit/log"
)

func TestMySQL__basic(t *testing.T) {
	db := CreateTestMySQLDB(t)
	defer db.Close()

	if err := db.DB.Ping(); err != nil {
		t.Fatal(err)
	}
}

func TestMySQL__connect(t *testing.T) {
	my := mysqlConnection(log.NewNopLogger(), "user", "pass", "127.0.0.1:0", "db")
	if my == nil {
		t.Fatal("nil mysql")
	}
	if my.dsn == "" {
		t.Error("expected DSN")
	}
}

func TestMySQL__UniqueViolation(t *testing.T) {
	err := errors.New(`problem upserting deposit="282f6ffcd9ba5b029afbf2b739ee826e22d9df3b": Error 1062: Duplicate entry '282f6ffcd9ba5b029afbf2b739ee826e22d9df3b' for key 'deposits.PRIMARY'`)
	if !UniqueViolation(err) {
		t.Error("should have matched unique violation")
	}
}
