package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action names a pipeline operation in an invocation payload.
type Action string

const (
	ActionEmbedSingle Action = "embed-single"
	ActionEmbedBatch  Action = "embed-batch"
	ActionStatus      Action = "status"
	ActionSearch      Action = "search"
)

// ValidActions lists every action DecodeRequest accepts, in documentation order.
var ValidActions = []Action{ActionEmbedSingle, ActionEmbedBatch, ActionStatus, ActionSearch}

const (
	DefaultSessionYear = 2025
	DefaultBatchSize   = 10
	MaxBatchSize       = 100
	DefaultSearchLimit = 5
	MaxSearchLimit     = 50
)

// Request is a decoded invocation payload. The set of implementations is closed:
// EmbedSingleRequest, EmbedBatchRequest, StatusRequest and SearchRequest.
type Request interface {
	Action() Action
	isRequest()
}

// EmbedSingleRequest embeds one bill.
type EmbedSingleRequest struct {
	BillNumber  string `json:"billNumber"`
	SessionYear int    `json:"sessionYear"`
}

// EmbedBatchRequest embeds one page of the bill collection.
type EmbedBatchRequest struct {
	SessionYear int `json:"sessionYear"`
	BatchSize   int `json:"batchSize"`
	Offset      int `json:"offset"`
}

// StatusRequest asks for embedding completion statistics of a session.
type StatusRequest struct {
	SessionYear int `json:"sessionYear"`
}

// SearchRequest asks for the chunks most similar to a free-text query.
type SearchRequest struct {
	Query       string `json:"query"`
	SessionYear int    `json:"sessionYear"`
	Limit       int    `json:"limit"`
}

func (EmbedSingleRequest) Action() Action { return ActionEmbedSingle }
func (EmbedBatchRequest) Action() Action  { return ActionEmbedBatch }
func (StatusRequest) Action() Action      { return ActionStatus }
func (SearchRequest) Action() Action      { return ActionSearch }

func (EmbedSingleRequest) isRequest() {}
func (EmbedBatchRequest) isRequest()  {}
func (StatusRequest) isRequest()      {}
func (SearchRequest) isRequest()      {}

// envelope is the wire form shared by every action. Pointer fields distinguish "absent" from zero.
type envelope struct {
	Action      string `json:"action"`
	BillNumber  string `json:"billNumber"`
	SessionYear *int   `json:"sessionYear"`
	BatchSize   *int   `json:"batchSize"`
	Offset      *int   `json:"offset"`
	Query       string `json:"query"`
	Limit       *int   `json:"limit"`
}

// DecodeRequest parses a JSON invocation payload into its typed request, applying defaults.
// Malformed bodies and failed validation return ErrInvalidRequest; an unrecognized action
// returns ErrUnknownAction with a message naming the valid actions.
func DecodeRequest(data []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Join(ErrInvalidRequest, fmt.Errorf("decode body: %w", err))
	}
	sessionYear := intOr(env.SessionYear, DefaultSessionYear)
	switch Action(env.Action) {
	case ActionEmbedSingle:
		r := EmbedSingleRequest{BillNumber: strings.TrimSpace(env.BillNumber), SessionYear: sessionYear}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		return r, nil
	case ActionEmbedBatch:
		r := EmbedBatchRequest{
			SessionYear: sessionYear,
			BatchSize:   intOr(env.BatchSize, DefaultBatchSize),
			Offset:      intOr(env.Offset, 0),
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		return r, nil
	case ActionStatus:
		return StatusRequest{SessionYear: sessionYear}, nil
	case ActionSearch:
		r := SearchRequest{Query: strings.TrimSpace(env.Query), SessionYear: sessionYear, Limit: intOr(env.Limit, DefaultSearchLimit)}
		r.Normalize()
		if err := r.Validate(); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, UnknownActionError(env.Action)
	}
}

// UnknownActionError returns an ErrUnknownAction naming the valid actions.
func UnknownActionError(action string) error {
	names := make([]string, len(ValidActions))
	for i, a := range ValidActions {
		names[i] = string(a)
	}
	return fmt.Errorf("%w: %q (valid actions: %s)", ErrUnknownAction, action, strings.Join(names, ", "))
}

// Validate checks that a bill number was given.
func (r EmbedSingleRequest) Validate() error {
	if r.BillNumber == "" {
		return fmt.Errorf("%w: billNumber is required", ErrInvalidRequest)
	}
	return nil
}

// Validate checks the page bounds. BatchSize must be in [1, MaxBatchSize] and Offset non-negative.
func (r EmbedBatchRequest) Validate() error {
	if r.BatchSize <= 0 || r.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: batchSize must be between 1 and %d", ErrInvalidRequest, MaxBatchSize)
	}
	if r.Offset < 0 {
		return fmt.Errorf("%w: offset cannot be negative", ErrInvalidRequest)
	}
	return nil
}

// Normalize clamps Limit into [1, MaxSearchLimit], using DefaultSearchLimit when unset.
func (r *SearchRequest) Normalize() {
	if r.Limit <= 0 {
		r.Limit = DefaultSearchLimit
	}
	if r.Limit > MaxSearchLimit {
		r.Limit = MaxSearchLimit
	}
}

// Validate ensures the query is non-empty.
func (r SearchRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidRequest)
	}
	return nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
