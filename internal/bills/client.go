// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package bills

import (
	"bytes"
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

// Client is the interface the core consumes from the Bill Store
// Service. UpdateBill has full-record replace semantics, the delta
// arithmetic happens in BalanceMutator before the store is called.
type Client interface {
	Ping() error

	GetBill(requestID string, billID id.Bill) (*model.Bill, error)
	UpdateBill(requestID string, billID id.Bill, update model.BillUpdate) (*model.Bill, error)
	GetBillsByAccount(requestID string, accountID id.Account) ([]*model.Bill, error)
}

type httpBillsClient struct {
	endpoint string
	client   *http.Client
	logger   log.Logger
}

func (c *httpBillsClient) Ping() error {
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
		return fmt.Errorf("bills ping failed: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bills ping got status: %s", resp.Status)
	}
	return nil
}

func (c *httpBillsClient) GetBill(requestID string, billID id.Bill) (*model.Bill, error) {
	span := opentracing.StartSpan("bills-get-bill")
	defer span.Finish()

	ctx, cancelFn := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancelFn()

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/bills/%s", c.endpoint, billID), nil)
	if err != nil {
		return nil, fmt.Errorf("bills: GetBill: %v", err)
	}
	req.Header.Set("X-Request-Id", requestID)
	req = trace.DecorateHttpRequest(req, span)

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("bills: GetBill: bill=%s: %v", billID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &model.BillNotFoundError{Bill: billID}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("bills: GetBill: bill=%s got status: %s", billID, resp.Status)
	}

	var bill model.Bill
	if err := json.NewDecoder(resp.Body).Decode(&bill); err != nil {
		return nil, fmt.Errorf("bills: GetBill: decode: %v", err)
	}
	return &bill, nil
}

func (c *httpBillsClient) UpdateBill(requestID string, billID id.Bill, update model.BillUpdate) (*model.Bill, error) {
	span := opentracing.StartSpan("bills-update-bill")
	defer span.Finish()

	ctx, cancelFn := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancelFn()

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(update); err != nil {
		return nil, fmt.Errorf("bills: UpdateBill: encode: %v", err)
	}

	req, err := http.NewRequest("PUT", fmt.Sprintf("%s/bills/%s", c.endpoint, billID), &body)
	if err != nil {
		return nil, fmt.Errorf("bills: UpdateBill: %v", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-Request-Id", requestID)
	req = trace.DecorateHttpRequest(req, span)

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("bills: UpdateBill: bill=%s: %v", billID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &model.BillNotFoundError{Bill: billID}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("bills: UpdateBill: bill=%s got status: %s", billID, resp.Status)
	}

	var bill model.Bill
	if err := json.NewDecoder(resp.Body).Decode(&bill); err != nil {
		return nil, fmt.Errorf("bills: UpdateBill: decode: %v", err)
	}
	return &bill, nil
}

func (c *httpBillsClient) GetBillsByAccount(requestID string, accountID id.Account) ([]*model.Bill, error) {
	span := opentracing.StartSpan("bills-get-account-bills")
	defer span.Finish()

	ctx, cancelFn := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancelFn()

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/bills/account/%s", c.endpoint, accountID), nil)
	if err != nil {
		return nil, fmt.Errorf("bills: GetBillsByAccount: %v", err)
	}
	req.Header.Set("X-Request-Id", requestID)
	req = trace.DecorateHttpRequest(req, span)

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("bills: GetBillsByAccount: account=%s: %v", accountID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("bills: GetBillsByAccount: account=%s got status: %s", accountID, resp.Status)
	}

	var out []*model.Bill
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("bills: GetBillsByAccount: decode: %v", err)
	}
	return out, nil
}

// NewClient returns a Client used to make HTTP calls over to a Bill
// Store Service instance.
//
// endpoint is a DNS record responsible for routing us to an instance.
// Example: http://bill-service.apps.svc.cluster.local:8080
func NewClient(logger log.Logger, endpoint string, httpClient *http.Client) Client {
	addr := "http://localhost" + bind.HTTP("bills")
	if k8s.Inside() {
		addr = "http://bill-service.apps.svc.cluster.local:8080"
	}
	if endpoint != "" {
		addr = endpoint
	}
	addr = strings.TrimSuffix(addr, "/")

	logger.Log("bills", fmt.Sprintf("using %s for Bill Store address", addr))

	return &httpBillsClient{
		endpoint: addr,
		client:   httpClient,
		logger:   logger,
	}
}
