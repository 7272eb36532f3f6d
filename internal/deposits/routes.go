// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package deposits

import (
	"encoding/json"
	"net/http"

	"github.com/jsbank/billgate/internal/model"
	"github.com/jsbank/billgate/internal/route"
	"github.com/jsbank/billgate/pkg/id"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

func AddRoutes(logger log.Logger, r *mux.Router, orch *Orchestrator, repo Repository) {
	r.Methods("POST").Path("/deposits").HandlerFunc(createDeposit(logger, orch))
	r.Methods("GET").Path("/deposits").HandlerFunc(getDeposits(logger, repo))
	r.Methods("GET").Path("/deposits/{depositID}").HandlerFunc(getDeposit(logger, repo))
}

func createDeposit(logger log.Logger, orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}
		span := responder.Span()
		defer span.Finish()

		bs, err := route.Read(r.Body)
		if err != nil {
			responder.Problem(err)
			return
		}
		var req model.DepositRequest
		if err := json.Unmarshal(bs, &req); err != nil {
			responder.Problem(err)
			return
		}
		req.IdempotencyKey = responder.XIdempotencyKey

		result, err := orch.Deposit(responder.XRequestID, &req)
		if err != nil {
			// a non-nil result means the funds moved, so the failure
			// can't be reported as a plain error
			if result != nil {
				responder.Log("deposits", "deposit applied with failure", "error", err)
				responder.Respond(func(w http.ResponseWriter) {
					w.WriteHeader(route.ErrorStatus(err))
					json.NewEncoder(w).Encode(struct {
						*model.DepositResult
						Error string `json:"error"`
					}{result, err.Error()})
				})
				return
			}
			responder.Log("deposits", "deposit rejected", "error", err)
			responder.Error(route.ErrorStatus(err), err)
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(result)
		})
	}
}

func getDeposits(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		records, err := repo.GetDeposits()
		if err != nil {
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(records)
		})
	}
}

func getDeposit(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		depositID := id.Deposit(route.ReadPathID("depositID", r))
		if depositID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		record, err := repo.GetDeposit(depositID)
		if err != nil {
			responder.Problem(err)
			return
		}
		if record == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(record)
		})
	}
}
