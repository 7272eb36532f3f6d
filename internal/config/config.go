// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package config

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/moov-io/base/http/bind"

	"github.com/go-kit/kit/log"
	"github.com/spf13/viper"
)

type Config struct {
	Logger  log.Logger `yaml:"-" json:"-"`
	Logging Logging

	Http  HTTP
	Admin Admin

	Database Database

	Accounts Accounts
	Bills    Bills

	Notifications Notifications
}

type Logging struct {
	Format string
}

type HTTP struct {
	BindAddress string
}

type Admin struct {
	BindAddress string
}

type Database struct {
	SQLite *SQLite
	MySQL  *MySQL
}

type SQLite struct {
	Path string
}

type MySQL struct {
	Address  string
	Username string
	Password string
	Database string
}

// Accounts configures the Account Store Service client.
type Accounts struct {
	Endpoint string
	Disabled bool
}

// Bills configures the Bill Store Service client.
type Bills struct {
	Endpoint string
	Disabled bool
}

// Notifications selects where movement announcements are published.
type Notifications struct {
	InMem  *InMemNotifications
	Rabbit *RabbitNotifications
}

type InMemNotifications struct {
	URL string
}

type RabbitNotifications struct {
	// Address is an amqp:// URL for the broker
	Address string

	Exchange   string
	RoutingKey string
}

func Empty() *Config {
	return &Config{
		Logger: log.NewNopLogger(),
		Http: HTTP{
			BindAddress: bind.HTTP("billgate"),
		},
		Admin: Admin{
			BindAddress: bind.Admin("billgate"),
		},
		Database: Database{
			SQLite: &SQLite{
				Path: "billgate.db",
			},
		},
	}
}

func FromFile(path string) (*Config, error) {
	if path != "" {
		bs, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %v", path, err)
		}
		return Read(bs)
	}
	cfg := setupLogger(Empty())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Read(data []byte) (*Config, error) {
	vip := viper.New()
	vip.SetConfigType("yaml")
	if err := vip.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("problem reading config: %v", err)
	}

	cfg := Empty()
	if err := vip.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("problem unmarshaling config: %v", err)
	}

	cfg = setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetLogFormat overrides the configured log format, e.g. from a
// -log.format flag, and rebuilds the logger.
func (cfg *Config) SetLogFormat(format string) {
	if format != "" {
		cfg.Logging.Format = format
		setupLogger(cfg)
	}
}

func setupLogger(cfg *Config) *Config {
	if strings.EqualFold(cfg.Logging.Format, "json") {
		cfg.Logger = log.NewJSONLogger(os.Stderr)
	} else {
		cfg.Logger = log.NewLogfmtLogger(os.Stderr)
	}
	cfg.Logger = log.With(cfg.Logger, "ts", log.DefaultTimestampUTC)
	cfg.Logger = log.With(cfg.Logger, "caller", log.DefaultCaller)
	return cfg
}

func (cfg *Config) Validate() error {
	if cfg == nil {
		return fmt.Errorf("missing Config")
	}
	if err := cfg.Database.validate(); err != nil {
		return err
	}
	if n := cfg.Notifications; n.InMem != nil && n.Rabbit != nil {
		return fmt.Errorf("notifications: only one of inmem and rabbit can be set")
	}
	return nil
}

func (d Database) validate() error {
	if d.SQLite == nil && d.MySQL == nil {
		return fmt.Errorf("database: missing sqlite and mysql config")
	}
	return nil
}
