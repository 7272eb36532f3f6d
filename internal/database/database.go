// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package database

import (
	"database/sql"
	"fmt"

	"github.com/jsbank/billgate/internal/config"

	"github.com/go-kit/kit/log"
)

type db interface {
	Connect() (*sql.DB, error)
}

// New returns a migrated database connection for the configured
// backend. SQLite is the default, MySQL is used when configured.
func New(logger log.Logger, cfg config.Database) (*sql.DB, error) {
	if cfg.MySQL != nil {
		my := cfg.MySQL
		return mysqlConnection(logger, my.Username, my.Password, my.Address, my.Database).Connect()
	}
	if cfg.SQLite != nil {
		return sqliteConnection(logger, getSqlitePath(cfg.SQLite.Path)).Connect()
	}
	return nil, fmt.Errorf("database: no backend configured")
}

// UniqueViolation returns true when the provided error matches a database error
// for duplicate entries (violating a unique table constraint).
func UniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return MySQLUniqueViolation(err) || SqliteUniqueViolation(err)
}
