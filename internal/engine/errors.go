package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for query arguments that cannot name a
// tournament, such as a non-numeric id.
var ErrInvalidArgument = errors.New("invalid query argument")

// QueryError wraps a failure with the query that produced it.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func queryErr(query string, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{Query: query, Err: err}
}
