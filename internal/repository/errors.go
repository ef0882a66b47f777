package repository

import (
	"errors"
	"net/http"
)

// Errors surfaced by every repository operation. Callers branch on them with
// errors.Is; the wrapped cause carries the detail.
var (
	ErrNotFound           = errors.New("organisation not found")
	ErrConflict           = errors.New("organisation conflict")
	ErrInvalidData        = errors.New("invalid organisation data")
	ErrConsistencyTimeout = errors.New("replica did not reach requested version")
)

// HTTPStatus maps a repository error onto the status code a route handler should
// return. ConsistencyTimeout is an internal failure.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
