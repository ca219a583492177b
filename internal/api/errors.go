package api

import (
	"errors"
	"net/http"

	"github.com/jdholdren/chatter/internal/chatter"
	chaterrs "github.com/jdholdren/chatter/internal/errors"
)

// storeErr turns the store's sentinel errors into responses. notFound is the
// message shown when the thing wasn't there. Anything else passes through and
// ends up a 500.
func storeErr(err error, notFound string) error {
	switch {
	case errors.Is(err, chatter.ErrNotFound):
		return chaterrs.E(http.StatusNotFound, notFound)
	case errors.Is(err, chatter.ErrConflict):
		return chaterrs.E(err, http.StatusConflict)
	case errors.Is(err, chatter.ErrInvalidArgument):
		return chaterrs.E(err, http.StatusBadRequest)
	}

	return err
}
