// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package route

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"
)

// TLSHttpClient returns an *http.Client for calling the remote store
// services. path optionally names a PEM file with extra root CAs.
func TLSHttpClient(path string) (*http.Client, error) {
	tlsConfig := &tls.Config{}
	pool, err := x509.SystemCertPool()
	if pool == nil || err != nil {
		pool = x509.NewCertPool()
	}

	// read extra CA file
	if path != "" {
		bs, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("problem reading %s: %v", path, err)
		}
		ok := pool.AppendCertsFromPEM(bs)
		if !ok {
			return nil, fmt.Errorf("couldn't parse PEM in: %s", path)
		}
	}
	tlsConfig.RootCAs = pool

	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig:     tlsConfig,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			MaxConnsPerHost:     100,
			IdleConnTimeout:     1 * time.Minute,
		},
	}, nil
}
