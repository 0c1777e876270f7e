package models

import "errors"

var (
	// ErrConfig indicates missing or invalid configuration (API keys, DSN). Fatal to an invocation.
	ErrConfig = errors.New("configuration error")
	// ErrInvalidRequest indicates a request body that could not be decoded or failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownAction indicates a request naming an action that does not exist.
	ErrUnknownAction = errors.New("unknown action")
	// ErrFetch indicates the legislative API failed or returned a malformed payload for one bill.
	ErrFetch = errors.New("bill fetch failed")
	// ErrEmbedding indicates the embedding API rejected or failed a request.
	ErrEmbedding = errors.New("embedding failed")
	// ErrPersistence indicates a chunk store write failed.
	ErrPersistence = errors.New("persistence failed")
)
