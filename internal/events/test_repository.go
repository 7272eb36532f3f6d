// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package events

type TestRepository struct {
	Err   error
	Event *Event

	// Written collects every event handed to WriteEvent
	Written []*Event
}

func (r *TestRepository) GetEvent(eventID EventID) (*Event, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Event, nil
}

func (r *TestRepository) GetEvents() ([]*Event, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Event != nil {
		return []*Event{r.Event}, nil
	}
	return nil, nil
}

func (r *TestRepository) WriteEvent(event *Event) error {
	if r.Err != nil {
		return r.Err
	}
	r.Written = append(r.Written, event)
	return nil
}

func (r *TestRepository) GetEventsByMetadata(metadata map[string]string) ([]*Event, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Event == nil {
		return nil, nil
	}
	for k, v := range metadata {
		if r.Event.Metadata[k] != v {
			return nil, nil
		}
	}
	return []*Event{r.Event}, nil
}
