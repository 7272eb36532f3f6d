// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package events

import (
	"encoding/json"
	"net/http"

	"github.com/jsbank/billgate/internal/route"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

func AddRoutes(logger log.Logger, r *mux.Router, eventRepo Repository) {
	r.Methods("GET").Path("/events").HandlerFunc(getEvents(logger, eventRepo))
	r.Methods("GET").Path("/events/{eventID}").HandlerFunc(getEventHandler(logger, eventRepo))
}

func getEvents(logger log.Logger, eventRepo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		var events []*Event
		var err error
		if metadata := metadataFromQuery(r); len(metadata) > 0 {
			events, err = eventRepo.GetEventsByMetadata(metadata)
		} else {
			events, err = eventRepo.GetEvents()
		}
		if err != nil {
			responder.Problem(err)
			return
		}
		responder.Respond(func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(events)
		})
	}
}

func getEventHandler(logger log.Logger, eventRepo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responder := route.NewResponder(logger, w, r)
		if responder == nil {
			return
		}

		eventID := getEventID(r)
		if eventID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		event, err := eventRepo.GetEvent(eventID)
		if err != nil {
			responder.Problem(err)
			return
		}
		if event == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		responder.Respond(func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(event)
		})
	}
}

// metadataFromQuery turns query parameters into metadata filters, so
// callers can ask for /events?billId=...&depositId=... and get only
// the events carrying every pair.
func metadataFromQuery(r *http.Request) map[string]string {
	out := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 && values[0] != "" {
			out[key] = values[0]
		}
	}
	return out
}

// getEventID extracts the EventID from the incoming request.
func getEventID(r *http.Request) EventID {
	v := mux.Vars(r)
	id, ok := v["eventID"]
	if !ok {
		return EventID("")
	}
	return EventID(id)
}
