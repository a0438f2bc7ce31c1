package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

var ErrMalformedEvent = errors.New("malformed gateway event")

// Event is the internal form of a gateway callback: which payment it is
// about, whether it settled, and for how much.
type Event struct {
	Reference     string
	Outcome       string
	SettledAmount int64
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID     string `json:"id"`
			Amount int64  `json:"amount"`
			Status string `json:"status"`
		} `json:"object"`
	} `json:"data"`
}

// InterpretEvent maps a raw callback body onto an Event. Unrecognized event
// types fail closed: anything that is not an explicit success is a failure.
// Only an envelope without a payment reference is rejected outright, since
// there is nothing to attach it to.
func InterpretEvent(raw []byte) (*Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Data.Object.ID == "" {
		return nil, fmt.Errorf("%w: missing payment reference", ErrMalformedEvent)
	}

	outcome := OutcomeFailed
	if env.Type == "payment_intent.succeeded" && env.Data.Object.Status == "succeeded" {
		outcome = OutcomeSucceeded
	}

	return &Event{
		Reference:     env.Data.Object.ID,
		Outcome:       outcome,
		SettledAmount: env.Data.Object.Amount,
	}, nil
}
