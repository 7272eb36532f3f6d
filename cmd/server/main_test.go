// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
)

func TestMain__readConfig(t *testing.T) {
	cfg, err := readConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg == nil {
		t.Fatal("expected Config, got nil")
	}

	dir, err := ioutil.TempDir("", "billgate-config")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "config.yaml")
	contents := []byte(`
logging:
  format: json
database:
  sqlite:
    path: "billgate.db"
bills:
  endpoint: "http://localhost:9093"
`)
	if err := ioutil.WriteFile(path, contents, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err = readConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bills.Endpoint != "http://localhost:9093" {
		t.Errorf("endpoint=%s", cfg.Bills.Endpoint)
	}
}

func TestMain__notificationRoutingKey(t *testing.T) {
	cfg, err := readConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if key := notificationRoutingKey(cfg); key != "js.key.deposit" {
		t.Errorf("key=%s", key)
	}
}

func TestMain__setupTracer(t *testing.T) {
	logger := log.NewNopLogger()

	tracer, closer, err := setupTracer(logger)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	if tracer == nil {
		t.Fatal("nil tracer")
	}

	os.Setenv("TRACING_SAMPLE_RATE", "0.25")
	defer os.Unsetenv("TRACING_SAMPLE_RATE")

	tracer, closer, err = setupTracer(logger)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	if tracer == nil {
		t.Fatal("nil tracer")
	}

	os.Setenv("TRACING_SAMPLE_RATE", "all of them")
	if _, _, err := setupTracer(logger); err == nil {
		t.Error("expected error")
	}
}
