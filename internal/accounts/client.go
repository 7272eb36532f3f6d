// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/moov-io/base/http/bind"
	"github.com/moov-io/base/k8s"

	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/pkg/id"
	"github.com/jsbank/billgate/pkg/trace"

	"github.com/go-kit/kit/log"
	opentracing "github.com/opentracing/opentracing-go"
)

// Client is the interface the core consumes from the Account Store
// Service. The store owns account identity, the core only reads.
type Client interface {
	Ping() error

	GetAccount(requestID string, accountID id.Account) (*model.Account, error)
}

type httpAccountsClient struct {
	endpoint string
	client   *http.Client
	logger   log.Logger
}

func (c *httpAccountsClient) Ping() error {
	// create a context just for this so ping requests don't require the setup of one
	ctx, cancelFn := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancelFn()

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/ping", c.endpoint), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req.WithContext(ctx))
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if resp == nil || err != nil {
		return fmt.Errorf("accounts ping failed: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("accounts ping got status: %s", resp.Status)
	}
	return nil
}

func (c *httpAccountsClient) GetAccount(requestID string, accountID id.Account) (*model.Account, error) {
	span := opentracing.StartSpan("accounts-get-account")
	defer span.Finish()

	ctx, cancelFn := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancelFn()

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/accounts/%s", c.endpoint, accountID), nil)
	if err != nil {
		return nil, fmt.Errorf("accounts: GetAccount: %v", err)
	}
	req.Header.Set("X-Request-Id", requestID)
	req = trace.DecorateHttpRequest(req, span)

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("accounts: GetAccount: account=%s: %v", accountID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &model.AccountNotFoundError{Account: accountID}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("accounts: GetAccount: account=%s got status: %s", accountID, resp.Status)
	}

	var account model.Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("accounts: GetAccount: decode: %v", err)
	}
	return &account, nil
}

// NewClient returns a Client used to make HTTP calls over to an
// Account Store Service instance. By default our localhost bind
// address will be used or the Kubernetes DNS name when called from
// inside a Kubernetes cluster.
//
// endpoint is a DNS record responsible for routing us to an instance.
// Example: http://account-service.apps.svc.cluster.local:8080
func NewClient(logger log.Logger, endpoint string, httpClient *http.Client) Client {
	addr := "http://localhost" + bind.HTTP("accounts")
	if k8s.Inside() {
		addr = "http://account-service.apps.svc.cluster.local:8080"
	}
	if endpoint != "" {
		addr = endpoint
	}
	addr = strings.TrimSuffix(addr, "/")

	logger.Log("accounts", fmt.Sprintf("using %s for Account Store address", addr))

	return &httpAccountsClient{
		endpoint: addr,
		client:   httpClient,
		logger:   logger,
	}
}
