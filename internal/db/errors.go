package db

import (
	"errors"
	"fmt"
)

// Sentinel errors for search service operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrUnauthorized  = errors.New("db: unauthorized")
	ErrPartialBatch  = errors.New("db: some documents failed to index")
)

// Op constants name the search service operations for error context.
const (
	OpGetIndex       = "GetIndex"
	OpCreateIndex    = "CreateOrUpdateIndex"
	OpDeleteIndex    = "DeleteIndex"
	OpIndexDocuments = "IndexDocuments"
	OpSearch         = "Search"
	OpGet            = "GET"
	OpSet            = "SET"
	OpPing           = "PING"
)

// Error wraps an underlying error with the operation name and HTTP status for diagnostics.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Op, e.StatusCode, e.Err.Error())
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
