package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/itour/internal/domain"
	"github.com/MrSnakeDoc/itour/internal/logger"
	"github.com/MrSnakeDoc/itour/internal/store"
)

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

var errBadJSON = errors.New("malformed JSON body")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps store and domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPriority):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidSortKey), errors.Is(err, errBadJSON):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrDeleteDenied):
		status = http.StatusConflict
	case errors.Is(err, store.ErrClosed):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeJSON reads one JSON value into v. An empty body leaves v untouched
// when optional is true.
func decodeJSON(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Join(errBadJSON, err)
	}
	return nil
}

// parseQuery reads sort and search from the URL.
func parseQuery(r *http.Request) (domain.Query, error) {
	v := r.URL.Query()
	key, err := domain.ParseSortKey(v.Get("sort"))
	if err != nil {
		return domain.Query{}, err
	}
	return domain.Query{Sort: key, Search: v.Get("search")}, nil
}
