// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package transfers

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
	r.Methods("POST").Path("/transfers").HandlerFunc(createTransfer(logger, orch))
	r.Methods("GET").Path("/transfers").HandlerFunc(getTransfers(logger, repo))
	r.Methods("GET").Path("/transfers/{transferID}").HandlerFunc(getTransfer(logger, repo))
}

func createTransfer(logger log.Logger, orch *Orchestrator) http.HandlerFunc {
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
		var req model.TransferRequest
		if err := json.Unmarshal(bs, &req); err != nil {
			responder.Problem(err)
			return
		}
		req.IdempotencyKey = responder.XIdempotencyKey

		result, err := orch.Transfer(responder.XRequestID, &req)
		if err != nil {
			// a non-nil result means the funds moved, so the failure
			// can't be reported as a plain error
			if result != nil {
				responder.Log("transfers", "transfer applied with failure", "error", err)
				responder.Respond(func(w http.ResponseWriter) {
					w.WriteHeader(route.ErrorStatus(err))
					json.NewEncoder(w).Encode(struct {
						*model.TransferResult
						Error string `json:"error"`
					}{result, err.Error()})
				})
				return
			}
			responder.Log("transfers", "transfer rejected", "error", err)
			responder.Error(route.ErrorStatus(err), err)
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(result)
		})
	}
}

func getTransfers(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		records, err := repo.GetTransfers()
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

func getTransfer(logger log.Logger, repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		transferID := id.Transfer(route.ReadPathID("transferID", r))
		if transferID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		record, err := repo.GetTransfer(transferID)
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
