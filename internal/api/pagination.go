package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/jdholdren/chatter/internal/chatter"
	chaterrs "github.com/jdholdren/chatter/internal/errors"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// parsePaginationParams parses pagination parameters from an HTTP request.
// Supports offset-based pagination (?offset=20&limit=10). Anything unusable
// falls back to the defaults.
func parsePaginationParams(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	query := r.URL.Query()

	// Parse limit with validation
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	// Parse offset with validation
	offset, _ := strconv.Atoi(query.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// pathID parses the {id} path variable. msg is what the client sees when it isn't one.
func pathID(r *http.Request, msg string) (int64, error) {
	id, err := chatter.ParseID(mux.Vars(r)["id"])
	if err != nil {
		return 0, chaterrs.E(http.StatusBadRequest, msg)
	}

	return id, nil
}

// positiveParam reads a query parameter that has to be a whole number of at
// least one. It's zero when absent.
func positiveParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, chaterrs.E(http.StatusBadRequest, fmt.Sprintf("Invalid %s: must be a positive integer", name))
	}

	return n, nil
}

// dateParam reads an RFC 3339 timestamp or a plain date. A plain date used as
// the end of a range covers the whole day.
func dateParam(r *http.Request, name string, endOfDay bool) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, chaterrs.E(http.StatusBadRequest, fmt.Sprintf("Invalid %s: expected YYYY-MM-DD or RFC 3339", name))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return &t, nil
}
