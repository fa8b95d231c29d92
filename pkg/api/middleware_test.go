package api

import (
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckToken(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{header: "Bearer secret", want: true},
		{header: "Bearer wrong", want: false},
		{header: "Bearer ", want: false},
		{header: "Basic secret", want: false},
		{header: "secret", want: false},
		{header: "", want: false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tt.header)
		assert.Equal(t, tt.want, checkToken(req, "secret"), tt.header)
	}
}

func TestMethod(t *testing.T) {
	h := post(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"only POST method is supported"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	h := chain(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, "secret")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() { h(rec, req) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
