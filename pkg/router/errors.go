package router

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goliatone/go-admingen/pkg/datasource"
)

// HTTPError lets errors carry their own response status.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError pairs an error with an HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// WriteError writes a structured JSON error response, mapping
// ModelNotFoundError and record misses to 404 and honouring HTTPError codes.
func WriteError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var httpErr HTTPError
	var modelErr *datasource.ModelNotFoundError
	switch {
	case errors.As(err, &httpErr) && httpErr != nil:
		code = httpErr.StatusCode()
		message = err.Error()
	case errors.As(err, &modelErr):
		code = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, datasource.ErrNotFound):
		code = http.StatusNotFound
		message = err.Error()
	case err != nil:
		message = err.Error()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Status: code, Message: message}})
}
