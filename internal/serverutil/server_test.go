package serverutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chaterrs "github.com/jdholdren/chatter/internal/errors"
)

type nameReq struct {
	Name string `json:"name"`
}

func (n nameReq) Validate() error {
	if n.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func TestDecodeValid(t *testing.T) {
	got, err := DecodeValid[nameReq](strings.NewReader(`{"name":"ada"}`))
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Name)

	_, err = DecodeValid[nameReq](strings.NewReader(`{"name":`))
	assert.Equal(t, http.StatusBadRequest, chaterrs.StatusOf(err))

	_, err = DecodeValid[nameReq](strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, chaterrs.StatusOf(err))
}

func TestHandlerFuncE(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "structured error",
			err:      chaterrs.E(http.StatusNotFound, "User not found"),
			wantCode: http.StatusNotFound,
			wantBody: `{"message":"User not found"}`,
		},
		{
			name:     "plain error is hidden",
			err:      errors.New("connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"message":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h := HandlerFuncE(func(w http.ResponseWriter, r *http.Request) error { return tt.err })

			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestAccessLogMiddleware_RequestID(t *testing.T) {
	h := AccessLogMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "given", rec.Header().Get(RequestIDHeader))
}
