package api

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

const maxBodySize = 1 << 20

type handlerFunc = func(http.ResponseWriter, *http.Request)

func recoverMiddleware(next handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("recover middleware", "error", err, "path", r.URL.Path, "trace", string(debug.Stack()))
				writeHttpError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next(w, r)
	}
}

func authMiddleware(next handlerFunc, token string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checkToken(r, token) {
			writeHttpError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func logMiddleware(next handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		next(rec, r)
		slog.Debug("api request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	}
}

// method rejects requests with any other HTTP method.
func method(m string, next handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			writeHttpError(w, http.StatusMethodNotAllowed, "only "+m+" method is supported")
			return
		}
		next(w, r)
	}
}

func get(next handlerFunc) handlerFunc  { return method(http.MethodGet, next) }
func post(next handlerFunc) handlerFunc { return method(http.MethodPost, next) }

// chain wraps a handler with the middlewares shared by every route.
func chain(next handlerFunc, token string) handlerFunc {
	return logMiddleware(recoverMiddleware(authMiddleware(next, token)))
}

func checkToken(req *http.Request, token string) bool {
	value, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
	if !ok || len(value) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(value), []byte(token)) == 1
}

func writeHttpError(resp http.ResponseWriter, status int, comment string) {
	body := struct {
		Error string `json:"error"`
	}{
		Error: comment,
	}
	resp.Header().Set("Content-Type", "application/json")
	resp.WriteHeader(status)
	if err := json.NewEncoder(resp).Encode(body); err != nil {
		slog.Error("json encode", "error", err)
	}
}
